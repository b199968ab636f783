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

// Package bytecode is the compiled form rule/ruleset/pipeline artifacts are
// lowered to by Pass 7 (Codegen) and executed by the VM (spec.md §3.2,
// §4.3, §4.4).
package bytecode

import (
	"fmt"
	"strings"
)

// Value is a runtime value flowing through the VM's operand stack and the
// execution context's namespaces. Rather than a hand-rolled sum type, it is
// represented the way the teacher's interpreter represents its own dynamic
// values (runtime.AsBool/AsInt/AsFloat/AsString over plain `any`): one of
// nil (spec.md's Null), bool, int64, float64, string, []Value (Array), or
// map[string]Value (Object). The closed set spec.md §3.2 calls a "tagged
// union" is enforced by convention and by the helpers below, not by the
// Go type system — exactly the tradeoff the teacher already made.
type Value = any

// Kind names the dynamic type of v, for diagnostics and TypeError messages.
func Kind(v Value) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "bool"
	case int64:
		return "int"
	case float64:
		return "float"
	case string:
		return "string"
	case []Value:
		return "array"
	case map[string]Value:
		return "object"
	default:
		return fmt.Sprintf("unknown(%T)", v)
	}
}

// IsNull reports whether v is the Null value.
func IsNull(v Value) bool { return v == nil }

// TypeError is raised by arithmetic/comparison/builtin opcodes when operand
// kinds are incompatible (spec.md §3.2 "cross-type comparisons ... fail
// with TypeError", §4.4 Failure semantics).
type TypeError struct {
	Op       string
	Operands []Value
}

func (e *TypeError) Error() string {
	kinds := make([]string, len(e.Operands))
	for i, v := range e.Operands {
		kinds[i] = Kind(v)
	}
	return fmt.Sprintf("type error: %s not defined for (%s)", e.Op, strings.Join(kinds, ", "))
}

// DivisionByZero is raised by Div/Mod when the divisor is the integer zero
// (spec.md §4.4: "Division by zero raises DivisionByZero").
type DivisionByZero struct{ Op string }

func (e *DivisionByZero) Error() string { return "division by zero: " + e.Op }

func asNumber(v Value) (float64, bool) {
	switch t := v.(type) {
	case int64:
		return float64(t), true
	case float64:
		return t, true
	default:
		return 0, false
	}
}

// bothInt reports whether a and b are both int64, in which case arithmetic
// stays Int rather than widening to Float (spec.md §4.4).
func bothInt(a, b Value) (int64, int64, bool) {
	ai, aok := a.(int64)
	bi, bok := b.(int64)
	return ai, bi, aok && bok
}

// Add implements the `Add` opcode: numeric only (string concatenation is
// the separate `Concat` opcode, spec.md §4.3 instruction table).
func Add(a, b Value) (Value, error) {
	if ai, bi, ok := bothInt(a, b); ok {
		return ai + bi, nil
	}
	af, aok := asNumber(a)
	bf, bok := asNumber(b)
	if !aok || !bok {
		return nil, &TypeError{Op: "+", Operands: []Value{a, b}}
	}
	return af + bf, nil
}

func Sub(a, b Value) (Value, error) {
	if ai, bi, ok := bothInt(a, b); ok {
		return ai - bi, nil
	}
	af, aok := asNumber(a)
	bf, bok := asNumber(b)
	if !aok || !bok {
		return nil, &TypeError{Op: "-", Operands: []Value{a, b}}
	}
	return af - bf, nil
}

func Mul(a, b Value) (Value, error) {
	if ai, bi, ok := bothInt(a, b); ok {
		return ai * bi, nil
	}
	af, aok := asNumber(a)
	bf, bok := asNumber(b)
	if !aok || !bok {
		return nil, &TypeError{Op: "*", Operands: []Value{a, b}}
	}
	return af * bf, nil
}

// Div implements the `Div` opcode. Int÷Int stays Int (truncated toward zero,
// same as Go's native `/` and consistent with Mod's truncation below) —
// mixed Int/Float or Float/Float widens to Float, per spec.md §4.4.
func Div(a, b Value) (Value, error) {
	if ai, bi, ok := bothInt(a, b); ok {
		if bi == 0 {
			return nil, &DivisionByZero{Op: "/"}
		}
		return ai / bi, nil
	}
	af, aok := asNumber(a)
	bf, bok := asNumber(b)
	if !aok || !bok {
		return nil, &TypeError{Op: "/", Operands: []Value{a, b}}
	}
	return af / bf, nil // IEEE-754 Inf/NaN on bf==0, per spec.md §4.4
}

func Mod(a, b Value) (Value, error) {
	ai, bi, ok := bothInt(a, b)
	if !ok {
		return nil, &TypeError{Op: "%", Operands: []Value{a, b}}
	}
	if bi == 0 {
		return nil, &DivisionByZero{Op: "%"}
	}
	return ai % bi, nil
}

func Neg(a Value) (Value, error) {
	switch t := a.(type) {
	case int64:
		return -t, nil
	case float64:
		return -t, nil
	default:
		return nil, &TypeError{Op: "neg", Operands: []Value{a}}
	}
}

// Concat implements the `Concat` opcode (string-template building and the
// `+` authoring idiom over strings, kept distinct from numeric Add per the
// spec.md §4.3 instruction table listing both).
func Concat(a, b Value) (Value, error) {
	as, aok := a.(string)
	bs, bok := b.(string)
	if !aok || !bok {
		return nil, &TypeError{Op: "concat", Operands: []Value{a, b}}
	}
	return as + bs, nil
}

// Eq implements the `Eq`/`Ne` opcodes. Null participates in equality
// against any type without raising TypeError (spec.md §4.4: "comparators
// against Null evaluate to false except == null / != null"); non-null
// cross-type comparisons are a TypeError since Pass 6 (Type Checking)
// should have ruled them out statically.
func Eq(a, b Value) (bool, error) {
	if a == nil || b == nil {
		return a == nil && b == nil, nil
	}
	if ai, bi, ok := bothInt(a, b); ok {
		return ai == bi, nil
	}
	if af, aok := asNumber(a); aok {
		if bf, bok := asNumber(b); bok {
			return af == bf, nil
		}
	}
	switch av := a.(type) {
	case bool:
		if bv, ok := b.(bool); ok {
			return av == bv, nil
		}
	case string:
		if bv, ok := b.(string); ok {
			return av == bv, nil
		}
	}
	return false, &TypeError{Op: "==", Operands: []Value{a, b}}
}

// Compare implements the ordering opcodes (`Lt`, `Le`, `Gt`, `Ge`). Null on
// either side evaluates false rather than erroring, matching Eq's Null
// handling. String comparison is lexicographic on Unicode code points
// (spec.md §4.4).
func Compare(op string, a, b Value) (bool, error) {
	if a == nil || b == nil {
		return false, nil
	}
	if af, aok := asNumber(a); aok {
		if bf, bok := asNumber(b); bok {
			return compareFloat(op, af, bf), nil
		}
	}
	if as, aok := a.(string); aok {
		if bs, bok := b.(string); bok {
			return compareString(op, as, bs), nil
		}
	}
	return false, &TypeError{Op: op, Operands: []Value{a, b}}
}

func compareFloat(op string, a, b float64) bool {
	switch op {
	case "<":
		return a < b
	case "<=":
		return a <= b
	case ">":
		return a > b
	case ">=":
		return a >= b
	default:
		return false
	}
}

func compareString(op string, a, b string) bool {
	switch op {
	case "<":
		return a < b
	case "<=":
		return a <= b
	case ">":
		return a > b
	case ">=":
		return a >= b
	default:
		return false
	}
}

// Truthy coerces a boolean-context Value for JumpIfTrue/JumpIfFalse; only
// Bool is accepted. Pass 6 guarantees every condition operand is Bool by
// the time Codegen emits a branch, so a non-bool here is an Internal bug,
// not a RuntimeError the author caused.
func Truthy(v Value) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}
