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

// Package vm is the stack-based bytecode interpreter spec.md §3.2/§4.4
// describes, executing a bytecode.Program against a live execctx.Context.
// Grounded on the teacher's own tree-walking evaluator (runtime/eval_*.go)
// for control flow and error-taxonomy conventions, adapted to a flat
// instruction stream instead of an AST walk.
package vm

import (
	"strings"

	"github.com/corintai/corint-core/bytecode"
	"github.com/corintai/corint-core/execctx"
	"github.com/corintai/corint-core/xerr"
)

// ListChecker dispatches an `in list`/`not in list` membership test to the
// List Service (spec.md §4.6); nil if a program never emits OpInList.
type ListChecker interface {
	Contains(listID string, value bytecode.Value) (bool, error)
}

// FeatureCaller dispatches OpCallFeature to the Feature Executor
// (spec.md §4.5); nil if a program never emits OpCallFeature.
type FeatureCaller interface {
	Feature(featureID string) (bytecode.Value, error)
}

// ExternalCaller dispatches OpCallExternalApi to the External Caller
// (spec.md §4.7); nil if a program never emits OpCallExternalApi.
type ExternalCaller interface {
	Call(apiID string, args []bytecode.Value) (bytecode.Value, error)
}

// Deps bundles the out-of-VM collaborators a Program may call into.
// Any field left nil is fine as long as the program never exercises the
// corresponding opcode; an Exec that hits one anyway fails with
// xerr.ErrInternal rather than panicking.
type Deps struct {
	Lists     ListChecker
	Features  FeatureCaller
	Externals ExternalCaller
}

// Result is what one Program execution produced beyond its side effects
// on the shared execctx.Context (score/triggered-rules/vars/features/api/
// service writes land there directly; Action/Reason/Actions/Terminated do
// not have a namespace home of their own, so Exec returns them instead,
// for the Orchestrator/program cache's caller to fold into a
// RulesetResult or a Decision — spec.md §3.2, §4.8).
type Result struct {
	Value      bytecode.Value // top-of-stack value for CompileExpr/CompileCondition programs
	Action     string
	Reason     string
	Actions    []string
	Terminated bool
}

// maxSteps bounds a single Exec call against a runaway program — a fixed
// budget well beyond anything spec.md's worked examples would ever emit,
// rather than a per-instruction timeout the request deadline already
// covers at the Orchestrator layer (spec.md §5 "Cancellation & timeouts").
const maxSteps = 1_000_000

// Exec runs prog to completion (an OpReturn instruction, or falling off
// the end of the instruction stream) against ectx, using deps to resolve
// any CallFeature/CallExternalApi/InList opcode it emits.
func Exec(ectx *execctx.Context, prog *bytecode.Program, deps Deps) (*Result, error) {
	var stack []bytecode.Value
	res := &Result{}

	pop := func() (bytecode.Value, error) {
		if len(stack) == 0 {
			return nil, xerr.ErrInternal("stack underflow in program %s", prog.String())
		}
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return v, nil
	}
	push := func(v bytecode.Value) { stack = append(stack, v) }

	pc := 0
	steps := 0
	for pc < len(prog.Instructions) {
		steps++
		if steps > maxSteps {
			return nil, xerr.ErrRuntime("program %s exceeded %d instructions", prog.String(), maxSteps)
		}
		instr := prog.Instructions[pc]
		next := pc + 1

		switch instr.Op {
		case bytecode.OpPushConst:
			push(prog.Constants[instr.A])

		case bytecode.OpLoadField:
			v, err := ectx.Load(execctx.Namespace(instr.A), prog.FieldPaths[instr.B])
			if err != nil {
				return nil, err
			}
			push(v)

		case bytecode.OpLoadResult:
			v, err := ectx.Load(execctx.NamespaceResults, []string{prog.Strings[instr.A], prog.Strings[instr.B]})
			if err != nil {
				return nil, err
			}
			push(v)

		case bytecode.OpLoadTotalScore:
			push(int64(ectx.Score()))

		case bytecode.OpLoadTriggeredRules:
			trig := ectx.TriggeredRules()
			vals := make([]bytecode.Value, len(trig))
			for i, t := range trig {
				vals[i] = t
			}
			push(vals)

		case bytecode.OpPop:
			if _, err := pop(); err != nil {
				return nil, err
			}

		case bytecode.OpDup:
			if len(stack) == 0 {
				return nil, xerr.ErrInternal("stack underflow (dup) in program %s", prog.String())
			}
			push(stack[len(stack)-1])

		case bytecode.OpSwap:
			n := len(stack)
			if n < 2 {
				return nil, xerr.ErrInternal("stack underflow (swap) in program %s", prog.String())
			}
			stack[n-1], stack[n-2] = stack[n-2], stack[n-1]

		case bytecode.OpStoreVar:
			v, err := pop()
			if err != nil {
				return nil, err
			}
			if err := ectx.Store(execctx.NamespaceVars, prog.Strings[instr.A], v); err != nil {
				return nil, err
			}

		case bytecode.OpAdd, bytecode.OpSub, bytecode.OpMul, bytecode.OpDiv, bytecode.OpMod:
			b, err := pop()
			if err != nil {
				return nil, err
			}
			a, err := pop()
			if err != nil {
				return nil, err
			}
			v, err := arith(instr.Op, a, b)
			if err != nil {
				return nil, err
			}
			push(v)

		case bytecode.OpNeg:
			a, err := pop()
			if err != nil {
				return nil, err
			}
			v, err := bytecode.Neg(a)
			if err != nil {
				return nil, err
			}
			push(v)

		case bytecode.OpEq, bytecode.OpNe:
			b, err := pop()
			if err != nil {
				return nil, err
			}
			a, err := pop()
			if err != nil {
				return nil, err
			}
			eq, err := bytecode.Eq(a, b)
			if err != nil {
				return nil, err
			}
			if instr.Op == bytecode.OpNe {
				eq = !eq
			}
			push(eq)

		case bytecode.OpLt, bytecode.OpLe, bytecode.OpGt, bytecode.OpGe:
			b, err := pop()
			if err != nil {
				return nil, err
			}
			a, err := pop()
			if err != nil {
				return nil, err
			}
			v, err := bytecode.Compare(compareOp(instr.Op), a, b)
			if err != nil {
				return nil, err
			}
			push(v)

		case bytecode.OpAnd, bytecode.OpOr:
			b, err := pop()
			if err != nil {
				return nil, err
			}
			a, err := pop()
			if err != nil {
				return nil, err
			}
			ab, ok := bytecode.Truthy(a)
			bb, ok2 := bytecode.Truthy(b)
			if !ok || !ok2 {
				return nil, &bytecode.TypeError{Op: instr.Op.String(), Operands: []bytecode.Value{a, b}}
			}
			if instr.Op == bytecode.OpAnd {
				push(ab && bb)
			} else {
				push(ab || bb)
			}

		case bytecode.OpNot:
			a, err := pop()
			if err != nil {
				return nil, err
			}
			ab, ok := bytecode.Truthy(a)
			if !ok {
				return nil, &bytecode.TypeError{Op: "!", Operands: []bytecode.Value{a}}
			}
			push(!ab)

		case bytecode.OpConcat:
			b, err := pop()
			if err != nil {
				return nil, err
			}
			a, err := pop()
			if err != nil {
				return nil, err
			}
			v, err := bytecode.Concat(a, b)
			if err != nil {
				return nil, err
			}
			push(v)

		case bytecode.OpIn:
			collection, err := pop()
			if err != nil {
				return nil, err
			}
			value, err := pop()
			if err != nil {
				return nil, err
			}
			v, err := memberOf(value, collection)
			if err != nil {
				return nil, err
			}
			push(v)

		case bytecode.OpInList:
			value, err := pop()
			if err != nil {
				return nil, err
			}
			if deps.Lists == nil {
				return nil, xerr.ErrInternal("program %s: in list with no List Service configured", prog.String())
			}
			v, err := deps.Lists.Contains(prog.Strings[instr.A], value)
			if err != nil {
				return nil, err
			}
			push(v)

		case bytecode.OpContains, bytecode.OpStartsWith, bytecode.OpEndsWith, bytecode.OpRegex:
			b, err := pop()
			if err != nil {
				return nil, err
			}
			a, err := pop()
			if err != nil {
				return nil, err
			}
			v, err := stringOp(instr.Op, a, b)
			if err != nil {
				return nil, err
			}
			push(v)

		case bytecode.OpJump:
			next = int(instr.A)

		case bytecode.OpJumpIfTrue, bytecode.OpJumpIfFalse:
			v, err := pop()
			if err != nil {
				return nil, err
			}
			b, ok := bytecode.Truthy(v)
			if !ok {
				return nil, &bytecode.TypeError{Op: instr.Op.String(), Operands: []bytecode.Value{v}}
			}
			wantTrue := instr.Op == bytecode.OpJumpIfTrue
			if b == wantTrue {
				next = int(instr.A)
			}

		case bytecode.OpCallBuiltin:
			name := prog.Strings[instr.A]
			argc := int(instr.B)
			if len(stack) < argc {
				return nil, xerr.ErrInternal("stack underflow calling builtin %q in program %s", name, prog.String())
			}
			args := append([]bytecode.Value(nil), stack[len(stack)-argc:]...)
			stack = stack[:len(stack)-argc]
			fn, ok := Builtins[name]
			if !ok {
				return nil, xerr.ErrRuntime("unknown built-in %q", name)
			}
			v, err := fn(args)
			if err != nil {
				return nil, err
			}
			push(v)

		case bytecode.OpCallFeature:
			if deps.Features == nil {
				return nil, xerr.ErrInternal("program %s: feature call with no Feature Executor configured", prog.String())
			}
			v, err := deps.Features.Feature(prog.Strings[instr.A])
			if err != nil {
				return nil, err
			}
			push(v)

		case bytecode.OpCallExternalApi:
			if deps.Externals == nil {
				return nil, xerr.ErrInternal("program %s: external call with no External Caller configured", prog.String())
			}
			argc := int(instr.B)
			if len(stack) < argc {
				return nil, xerr.ErrInternal("stack underflow calling external api in program %s", prog.String())
			}
			args := append([]bytecode.Value(nil), stack[len(stack)-argc:]...)
			stack = stack[:len(stack)-argc]
			v, err := deps.Externals.Call(prog.Strings[instr.A], args)
			if err != nil {
				return nil, err
			}
			push(v)

		case bytecode.OpAddScore:
			v, err := pop()
			if err != nil {
				return nil, err
			}
			delta, ok := v.(int64)
			if !ok {
				return nil, &bytecode.TypeError{Op: "AddScore", Operands: []bytecode.Value{v}}
			}
			ectx.AddScore(int32(delta))

		case bytecode.OpMarkTriggered:
			ectx.MarkTriggered(prog.Strings[instr.A])

		case bytecode.OpSetAction:
			res.Action = prog.Strings[instr.A]

		case bytecode.OpSetReason:
			v, err := pop()
			if err != nil {
				return nil, err
			}
			s, ok := v.(string)
			if !ok {
				return nil, &bytecode.TypeError{Op: "SetReason", Operands: []bytecode.Value{v}}
			}
			res.Reason = s

		case bytecode.OpSetActions:
			list := prog.ListRefs[instr.A]
			out := make([]string, len(list))
			for i, a := range list {
				out[i] = string(a)
			}
			res.Actions = out

		case bytecode.OpTerminate:
			res.Terminated = true

		case bytecode.OpReturn:
			if len(stack) > 0 {
				res.Value = stack[len(stack)-1]
			}
			return res, nil

		default:
			return nil, xerr.ErrInternal("unimplemented opcode %s in program %s", instr.Op, prog.String())
		}

		pc = next
	}

	if len(stack) > 0 {
		res.Value = stack[len(stack)-1]
	}
	return res, nil
}

func arith(op bytecode.OpCode, a, b bytecode.Value) (bytecode.Value, error) {
	switch op {
	case bytecode.OpAdd:
		return bytecode.Add(a, b)
	case bytecode.OpSub:
		return bytecode.Sub(a, b)
	case bytecode.OpMul:
		return bytecode.Mul(a, b)
	case bytecode.OpDiv:
		return bytecode.Div(a, b)
	default:
		return bytecode.Mod(a, b)
	}
}

func compareOp(op bytecode.OpCode) string {
	switch op {
	case bytecode.OpLt:
		return "<"
	case bytecode.OpLe:
		return "<="
	case bytecode.OpGt:
		return ">"
	default:
		return ">="
	}
}

// memberOf implements the `in` operator's collection side: array
// membership by value equality, object key presence, or string
// substring containment (spec.md §3.2 `value in collection`).
func memberOf(value, collection bytecode.Value) (bool, error) {
	switch c := collection.(type) {
	case []bytecode.Value:
		for _, item := range c {
			if eq, err := bytecode.Eq(value, item); err == nil && eq {
				return true, nil
			}
		}
		return false, nil
	case map[string]bytecode.Value:
		key, ok := value.(string)
		if !ok {
			return false, &bytecode.TypeError{Op: "in", Operands: []bytecode.Value{value, collection}}
		}
		_, ok = c[key]
		return ok, nil
	case string:
		needle, ok := value.(string)
		if !ok {
			return false, &bytecode.TypeError{Op: "in", Operands: []bytecode.Value{value, collection}}
		}
		return strings.Contains(c, needle), nil
	default:
		return false, &bytecode.TypeError{Op: "in", Operands: []bytecode.Value{value, collection}}
	}
}

func stringOp(op bytecode.OpCode, a, b bytecode.Value) (bytecode.Value, error) {
	args := []bytecode.Value{a, b}
	switch op {
	case bytecode.OpContains:
		return Builtins["contains"](args)
	case bytecode.OpStartsWith:
		return Builtins["starts_with"](args)
	case bytecode.OpEndsWith:
		return Builtins["ends_with"](args)
	default:
		return Builtins["regex"](args)
	}
}
