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

package compiler

import (
	"github.com/corintai/corint-core/ast"
	"github.com/corintai/corint-core/tokens"
)

// valueType is the static type Pass 6 can infer for an expression. Field
// paths, feature/API/service lookups and call results are Unknown since
// RDL has no declared schema for event payloads or feature outputs
// (spec.md §3.2); Unknown is never itself an error, it just opts an
// expression out of static checking and defers to the VM's runtime
// TypeError (bytecode.TypeError).
type valueType int

const (
	typeUnknown valueType = iota
	typeNull
	typeBool
	typeInt
	typeFloat
	typeString
	typeList
)

func (t valueType) String() string {
	switch t {
	case typeNull:
		return "null"
	case typeBool:
		return "bool"
	case typeInt:
		return "int"
	case typeFloat:
		return "float"
	case typeString:
		return "string"
	case typeList:
		return "list"
	default:
		return "unknown"
	}
}

func isNumeric(t valueType) bool { return t == typeInt || t == typeFloat }

// builtinArity gives the exact argument count for built-ins whose arity is
// fixed (spec.md §3.2 expression grammar: "count, sum, avg, count_distinct,
// percentile, now, time_since, lower, len, string-ops"). Aggregate
// functions (count/sum/avg/count_distinct/percentile) take a single
// feature- or entity-scoped argument when used inline in an expression;
// their richer windowed form is the Feature Executor's AggregationSpec
// (spec.md §4.5), not this call form.
var builtinArity = map[string]int{
	"now":            0,
	"time_since":     1,
	"lower":          1,
	"upper":          1,
	"len":            1,
	"exists":         1,
	"contains":       2,
	"starts_with":    2,
	"ends_with":      2,
	"regex":          2,
	"count":          1,
	"sum":            1,
	"avg":            1,
	"count_distinct": 1,
	"percentile":     2,
}

// builtinStringArgs names built-ins whose every argument must be String
// when its type is statically known (spec.md §4.3 Pass 6: "contains /
// starts_with / ends_with on strings").
var builtinStringArgs = map[string]bool{
	"contains":    true,
	"starts_with": true,
	"ends_with":   true,
	"regex":       true,
	"lower":       true,
	"upper":       true,
}

// checkTypes is Pass 6 (spec.md §4.3): infer static types where possible
// and flag arithmetic/comparison across incompatible known types, bad
// built-in call arity or argument types, reserved/invalid actions, and
// out-of-range aggregation percentiles.
func checkTypes(set *Set) Diagnostics {
	var diags Diagnostics

	for id, r := range set.Rules {
		diags = append(diags, checkConditionTypes(set, "rule "+id, r.When)...)
		if r.Action != nil {
			diags = append(diags, checkAction(*r.Action, r.Position(), "rule "+id)...)
		}
	}
	for id, rs := range set.Rulesets {
		diags = append(diags, checkDecisionRuleTypes(set, "ruleset "+id, rs.DecisionLogic)...)
	}
	for id, p := range set.Pipelines {
		diags = append(diags, checkDecisionRuleTypes(set, "pipeline "+id, p.Decision)...)
		diags = append(diags, checkConditionTypes(set, "pipeline "+id, p.When)...)
		for _, s := range p.Steps {
			owner := "pipeline " + id + " step " + s.StepID()
			switch st := s.(type) {
			case *ast.RouterStep:
				for _, route := range st.Routes {
					diags = append(diags, checkConditionTypes(set, owner, route.When)...)
				}
			case *ast.ActionStep:
				diags = append(diags, checkAction(st.Action, s.Position(), owner)...)
			case *ast.ApiStep:
				for _, e := range st.Params {
					_, d := inferExpr(e, owner)
					diags = append(diags, d...)
				}
			case *ast.ServiceStep:
				for _, e := range st.Params {
					_, d := inferExpr(e, owner)
					diags = append(diags, d...)
				}
			}
		}
	}
	for id, f := range set.Features {
		owner := "feature " + id
		if f.Expression != nil {
			_, d := inferExpr(f.Expression, owner)
			diags = append(diags, d...)
		}
		if f.Aggregation != nil && f.Aggregation.Op == "percentile" {
			if f.Aggregation.Percentile < 0 || f.Aggregation.Percentile > 100 {
				diags = append(diags, errDiag("type-checking", KindTypeError, f.Position(),
					"%s: percentile %.2f out of range [0,100]", owner, f.Aggregation.Percentile))
			}
		}
	}

	return diags
}

// checkAction validates a terminal action against the closed Action set
// and rejects `infer`, which is parsed but unexecutable (spec.md §1
// Non-goals: synchronous in-pipeline LLM inference was removed).
func checkAction(a ast.Action, at tokens.Range, owner string) Diagnostics {
	if a == "" {
		return nil
	}
	if !a.Valid() {
		return Diagnostics{errDiag("type-checking", KindTypeError, at,
			"%s: %q is not a valid action", owner, a)}
	}
	if a.Reserved() {
		return Diagnostics{errDiag("type-checking", KindTypeError, at,
			"%s: action %q is reserved and cannot be executed", owner, a)}
	}
	return nil
}

func checkConditionTypes(set *Set, owner string, c *ast.ConditionTree) Diagnostics {
	var diags Diagnostics
	if c == nil {
		return diags
	}
	switch c.Kind {
	case "leaf":
		_, d := inferExpr(c.Leaf, owner)
		diags = append(diags, d...)
	case "not":
		diags = append(diags, checkConditionTypes(set, owner, c.Child)...)
	default:
		for _, ch := range c.Children {
			diags = append(diags, checkConditionTypes(set, owner, ch)...)
		}
	}
	return diags
}

func checkDecisionRuleTypes(set *Set, owner string, rules []*ast.DecisionRule) Diagnostics {
	var diags Diagnostics
	for _, r := range rules {
		if r.Condition != nil {
			_, d := inferExpr(r.Condition, owner)
			diags = append(diags, d...)
		}
		diags = append(diags, checkAction(r.Action, r.Position(), owner)...)
		for _, a := range r.Actions {
			diags = append(diags, checkAction(a, r.Position(), owner)...)
		}
	}
	return diags
}

// inferExpr infers expr's static type, recursing into sub-expressions and
// collecting diagnostics for operator/arity/argument-type violations along
// the way.
func inferExpr(expr ast.Expression, owner string) (valueType, Diagnostics) {
	if expr == nil {
		return typeUnknown, nil
	}
	var diags Diagnostics
	switch e := expr.(type) {
	case *ast.NullLiteral:
		return typeNull, nil
	case *ast.BoolLiteral:
		return typeBool, nil
	case *ast.IntegerLiteral:
		return typeInt, nil
	case *ast.FloatLiteral:
		return typeFloat, nil
	case *ast.StringLiteral:
		return typeString, nil
	case *ast.StringTemplate:
		return typeString, nil
	case *ast.FieldPath:
		return typeUnknown, nil
	case *ast.ListLiteral:
		for _, v := range e.Values {
			_, d := inferExpr(v, owner)
			diags = append(diags, d...)
		}
		return typeList, diags
	case *ast.MapLiteral:
		for _, entry := range e.Entries {
			_, d := inferExpr(entry.Value, owner)
			diags = append(diags, d...)
		}
		return typeUnknown, diags
	case *ast.UnaryExpression:
		t, d := inferExpr(e.Operand, owner)
		diags = append(diags, d...)
		if e.Op == "-" && t != typeUnknown && !isNumeric(t) {
			diags = append(diags, errDiag("type-checking", KindTypeError, e.Position(),
				"%s: unary - requires a numeric operand, got %s", owner, t))
		}
		if e.Op == "!" && t != typeUnknown && t != typeBool {
			diags = append(diags, errDiag("type-checking", KindTypeError, e.Position(),
				"%s: ! requires a bool operand, got %s", owner, t))
		}
		return typeUnknown, diags
	case *ast.BinaryExpression:
		lt, ld := inferExpr(e.Left, owner)
		rt, rd := inferExpr(e.Right, owner)
		diags = append(diags, ld...)
		diags = append(diags, rd...)
		return checkBinary(e, lt, rt, owner, diags)
	case *ast.LogicalExpression:
		lt, ld := inferExpr(e.Left, owner)
		rt, rd := inferExpr(e.Right, owner)
		diags = append(diags, ld...)
		diags = append(diags, rd...)
		if lt != typeUnknown && lt != typeBool {
			diags = append(diags, errDiag("type-checking", KindTypeError, e.Position(),
				"%s: %s requires bool operands, left is %s", owner, e.Op, lt))
		}
		if rt != typeUnknown && rt != typeBool {
			diags = append(diags, errDiag("type-checking", KindTypeError, e.Position(),
				"%s: %s requires bool operands, right is %s", owner, e.Op, rt))
		}
		return typeBool, diags
	case *ast.TernaryExpression:
		ct, cd := inferExpr(e.Cond, owner)
		_, td := inferExpr(e.Then, owner)
		_, eld := inferExpr(e.Else, owner)
		diags = append(diags, cd...)
		diags = append(diags, td...)
		diags = append(diags, eld...)
		if ct != typeUnknown && ct != typeBool {
			diags = append(diags, errDiag("type-checking", KindTypeError, e.Position(),
				"%s: ternary condition must be bool, got %s", owner, ct))
		}
		return typeUnknown, diags
	case *ast.CallExpression:
		argTypes := make([]valueType, len(e.Args))
		for i, a := range e.Args {
			t, d := inferExpr(a, owner)
			argTypes[i] = t
			diags = append(diags, d...)
		}
		diags = append(diags, checkCall(e, argTypes, owner)...)
		return typeUnknown, diags
	case *ast.InExpression:
		_, vd := inferExpr(e.Value, owner)
		ct, cd := inferExpr(e.Collection, owner)
		diags = append(diags, vd...)
		diags = append(diags, cd...)
		if ct != typeUnknown && ct != typeList {
			diags = append(diags, errDiag("type-checking", KindTypeError, e.Position(),
				"%s: in requires a list-typed collection, got %s", owner, ct))
		}
		return typeBool, diags
	case *ast.InListExpression:
		_, vd := inferExpr(e.Value, owner)
		diags = append(diags, vd...)
		return typeBool, diags
	default:
		return typeUnknown, nil
	}
}

// checkBinary enforces arithmetic-on-numeric and comparison-within-or-
// across-Int/Float for BinaryExpression operators (spec.md §4.3 Pass 6).
// `+` doubles as string concatenation (spec.md §4.3 instruction table's
// separate Add/Concat opcodes, resolved at Codegen once both sides are
// known); Pass 6 only rejects it when both sides are statically known and
// neither all-numeric nor all-string.
func checkBinary(e *ast.BinaryExpression, lt, rt valueType, owner string, diags Diagnostics) (valueType, Diagnostics) {
	switch e.Op {
	case "+":
		if lt == typeUnknown || rt == typeUnknown {
			return typeUnknown, diags
		}
		if isNumeric(lt) && isNumeric(rt) {
			if lt == typeInt && rt == typeInt {
				return typeInt, diags
			}
			return typeFloat, diags
		}
		if lt == typeString && rt == typeString {
			return typeString, diags
		}
		diags = append(diags, errDiag("type-checking", KindTypeError, e.Position(),
			"%s: + requires two numbers or two strings, got %s and %s", owner, lt, rt))
		return typeUnknown, diags
	case "-", "*", "/", "%":
		if lt != typeUnknown && !isNumeric(lt) {
			diags = append(diags, errDiag("type-checking", KindTypeError, e.Position(),
				"%s: %s requires numeric operands, left is %s", owner, e.Op, lt))
		}
		if rt != typeUnknown && !isNumeric(rt) {
			diags = append(diags, errDiag("type-checking", KindTypeError, e.Position(),
				"%s: %s requires numeric operands, right is %s", owner, e.Op, rt))
		}
		if lt == typeInt && rt == typeInt && e.Op != "/" {
			return typeInt, diags
		}
		return typeFloat, diags
	case "==", "!=":
		return typeBool, diags
	case "<", "<=", ">", ">=":
		if lt != typeUnknown && rt != typeUnknown {
			sameNumeric := isNumeric(lt) && isNumeric(rt)
			sameString := lt == typeString && rt == typeString
			if !sameNumeric && !sameString {
				diags = append(diags, errDiag("type-checking", KindTypeError, e.Position(),
					"%s: %s requires two numbers, two strings, or Int/Float, got %s and %s", owner, e.Op, lt, rt))
			}
		}
		return typeBool, diags
	default:
		return typeUnknown, diags
	}
}

// checkCall validates arity and, for built-ins with an all-string
// signature, statically-known argument types.
func checkCall(e *ast.CallExpression, argTypes []valueType, owner string) Diagnostics {
	var diags Diagnostics
	if n, ok := builtinArity[e.Callee]; ok && n != len(e.Args) {
		diags = append(diags, errDiag("type-checking", KindTypeError, e.Position(),
			"%s: %s expects %d argument(s), got %d", owner, e.Callee, n, len(e.Args)))
	}
	if builtinStringArgs[e.Callee] {
		for i, t := range argTypes {
			if t != typeUnknown && t != typeString {
				diags = append(diags, errDiag("type-checking", KindTypeError, e.Position(),
					"%s: %s argument %d must be string, got %s", owner, e.Callee, i+1, t))
			}
		}
	}
	return diags
}
