// Copyright 2025 Binaek Sarkar
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package vm

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/corintai/corint-core/bytecode"
)

// Builtin is one RDL built-in function (spec.md §3.2's "built-in function
// library"), grounded on the teacher's own `runtime.Builtin` shape minus
// the ctx parameter: a built-in never performs I/O, unlike a step, so it
// never needs cancellation.
type Builtin func(args []bytecode.Value) (bytecode.Value, error)

// Builtins is the registry CallBuiltin dispatches against. Arity and
// string-argument-type are enforced statically by Pass 6
// (compiler.builtinArity/builtinStringArgs); a mismatch reaching here is a
// compiler defect, not a RuntimeError an author caused, so these
// implementations assume well-typed arguments.
var Builtins = map[string]Builtin{
	"now":            builtinNow,
	"time_since":     builtinTimeSince,
	"lower":          builtinLower,
	"upper":          builtinUpper,
	"len":            builtinLen,
	"exists":         builtinExists,
	"contains":       builtinContains,
	"starts_with":    builtinStartsWith,
	"ends_with":      builtinEndsWith,
	"regex":          builtinRegex,
	"count":          builtinCount,
	"sum":            builtinSum,
	"avg":            builtinAvg,
	"count_distinct": builtinCountDistinct,
	"percentile":     builtinPercentile,
	"__array":        builtinArray,
	"__object":       builtinObject,
}

func builtinNow(args []bytecode.Value) (bytecode.Value, error) {
	return time.Now().UTC().Unix(), nil
}

func builtinTimeSince(args []bytecode.Value) (bytecode.Value, error) {
	secs, ok := args[0].(int64)
	if !ok {
		return nil, &bytecode.TypeError{Op: "time_since", Operands: args}
	}
	return time.Now().UTC().Unix() - secs, nil
}

func builtinLower(args []bytecode.Value) (bytecode.Value, error) {
	s, ok := args[0].(string)
	if !ok {
		return nil, &bytecode.TypeError{Op: "lower", Operands: args}
	}
	return strings.ToLower(s), nil
}

func builtinUpper(args []bytecode.Value) (bytecode.Value, error) {
	s, ok := args[0].(string)
	if !ok {
		return nil, &bytecode.TypeError{Op: "upper", Operands: args}
	}
	return strings.ToUpper(s), nil
}

// builtinLen covers string/array/object, mirroring the teacher's own
// BuiltinCount which folds all three container kinds into one built-in.
func builtinLen(args []bytecode.Value) (bytecode.Value, error) {
	switch v := args[0].(type) {
	case string:
		return int64(len(v)), nil
	case []bytecode.Value:
		return int64(len(v)), nil
	case map[string]bytecode.Value:
		return int64(len(v)), nil
	case nil:
		return int64(0), nil
	default:
		return nil, &bytecode.TypeError{Op: "len", Operands: args}
	}
}

func builtinExists(args []bytecode.Value) (bytecode.Value, error) {
	return args[0] != nil, nil
}

func builtinContains(args []bytecode.Value) (bytecode.Value, error) {
	a, aok := args[0].(string)
	b, bok := args[1].(string)
	if !aok || !bok {
		return nil, &bytecode.TypeError{Op: "contains", Operands: args}
	}
	return strings.Contains(a, b), nil
}

func builtinStartsWith(args []bytecode.Value) (bytecode.Value, error) {
	a, aok := args[0].(string)
	b, bok := args[1].(string)
	if !aok || !bok {
		return nil, &bytecode.TypeError{Op: "starts_with", Operands: args}
	}
	return strings.HasPrefix(a, b), nil
}

func builtinEndsWith(args []bytecode.Value) (bytecode.Value, error) {
	a, aok := args[0].(string)
	b, bok := args[1].(string)
	if !aok || !bok {
		return nil, &bytecode.TypeError{Op: "ends_with", Operands: args}
	}
	return strings.HasSuffix(a, b), nil
}

func builtinRegex(args []bytecode.Value) (bytecode.Value, error) {
	s, sok := args[0].(string)
	pattern, pok := args[1].(string)
	if !sok || !pok {
		return nil, &bytecode.TypeError{Op: "regex", Operands: args}
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("regex: invalid pattern %q: %w", pattern, err)
	}
	return re.MatchString(s), nil
}

func asFloatSlice(v bytecode.Value) ([]float64, bool) {
	list, ok := v.([]bytecode.Value)
	if !ok {
		return nil, false
	}
	out := make([]float64, 0, len(list))
	for _, item := range list {
		switch n := item.(type) {
		case int64:
			out = append(out, float64(n))
		case float64:
			out = append(out, n)
		default:
			return nil, false
		}
	}
	return out, true
}

func builtinCount(args []bytecode.Value) (bytecode.Value, error) {
	list, ok := args[0].([]bytecode.Value)
	if !ok {
		return nil, &bytecode.TypeError{Op: "count", Operands: args}
	}
	return int64(len(list)), nil
}

func builtinSum(args []bytecode.Value) (bytecode.Value, error) {
	nums, ok := asFloatSlice(args[0])
	if !ok {
		return nil, &bytecode.TypeError{Op: "sum", Operands: args}
	}
	var total float64
	for _, n := range nums {
		total += n
	}
	return total, nil
}

func builtinAvg(args []bytecode.Value) (bytecode.Value, error) {
	nums, ok := asFloatSlice(args[0])
	if !ok {
		return nil, &bytecode.TypeError{Op: "avg", Operands: args}
	}
	if len(nums) == 0 {
		return float64(0), nil
	}
	var total float64
	for _, n := range nums {
		total += n
	}
	return total / float64(len(nums)), nil
}

func builtinCountDistinct(args []bytecode.Value) (bytecode.Value, error) {
	list, ok := args[0].([]bytecode.Value)
	if !ok {
		return nil, &bytecode.TypeError{Op: "count_distinct", Operands: args}
	}
	seen := map[any]struct{}{}
	for _, v := range list {
		seen[v] = struct{}{}
	}
	return int64(len(seen)), nil
}

func builtinPercentile(args []bytecode.Value) (bytecode.Value, error) {
	nums, ok := asFloatSlice(args[0])
	if !ok {
		return nil, &bytecode.TypeError{Op: "percentile", Operands: args}
	}
	p, pok := asPercentile(args[1])
	if !pok || len(nums) == 0 {
		return nil, &bytecode.TypeError{Op: "percentile", Operands: args}
	}
	sorted := append([]float64(nil), nums...)
	sortFloats(sorted)
	idx := int(p / 100 * float64(len(sorted)-1))
	return sorted[idx], nil
}

func asPercentile(v bytecode.Value) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func sortFloats(xs []float64) {
	for i := 1; i < len(xs); i++ {
		for j := i; j > 0 && xs[j-1] > xs[j]; j-- {
			xs[j-1], xs[j] = xs[j], xs[j-1]
		}
	}
}

// builtinArray and builtinObject back the ListLiteral/MapLiteral opcodes
// Codegen emits as a CallBuiltin with a synthetic callee (compiler's
// codegen.go), since the bytecode instruction set itself has no dedicated
// "build array"/"build object" opcode.
func builtinArray(args []bytecode.Value) (bytecode.Value, error) {
	out := make([]bytecode.Value, len(args))
	copy(out, args)
	return out, nil
}

func builtinObject(args []bytecode.Value) (bytecode.Value, error) {
	out := make(map[string]bytecode.Value, len(args)/2)
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			return nil, &bytecode.TypeError{Op: "__object", Operands: args}
		}
		out[key] = args[i+1]
	}
	return out, nil
}
