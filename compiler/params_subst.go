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
	"fmt"

	"github.com/corintai/corint-core/ast"
)

// literalExpression wraps a resolved ast.Literal back into an
// ast.Expression node of the matching concrete literal type, so a
// `params.<name>` FieldPath can be replaced in place within an expression
// tree (spec.md §4.3 Pass 3 and Pass 4 both do this substitution, one for
// decision_template params and one for rule params).
func literalExpression(v ast.Literal, at ast.Node) (ast.Expression, error) {
	r := at.Position()
	switch t := v.(type) {
	case nil:
		return ast.NewNullLiteral(r), nil
	case bool:
		return ast.NewBoolLiteral(t, r), nil
	case int:
		return ast.NewIntegerLiteral(int64(t), r), nil
	case int64:
		return ast.NewIntegerLiteral(t, r), nil
	case float64:
		return ast.NewFloatLiteral(t, r), nil
	case string:
		return ast.NewStringLiteral(t, r), nil
	case []any:
		vals := make([]ast.Expression, len(t))
		for i, e := range t {
			ve, err := literalExpression(e, at)
			if err != nil {
				return nil, err
			}
			vals[i] = ve
		}
		return ast.NewListLiteral(vals, r), nil
	default:
		return nil, fmt.Errorf("unsupported param literal type %T", v)
	}
}

// substituteExpr replaces every `params.<name>` FieldPath within expr with
// the literal from params, recursively. Any other namespace's FieldPath is
// left untouched — those resolve at runtime, not compile time.
func substituteExpr(expr ast.Expression, params map[string]ast.Literal) (ast.Expression, error) {
	if expr == nil {
		return nil, nil
	}
	switch e := expr.(type) {
	case *ast.FieldPath:
		if e.Namespace() != "params" {
			return e, nil
		}
		if len(e.Segments) != 2 {
			return nil, fmt.Errorf("malformed params reference %q", e.String())
		}
		name := e.Segments[1]
		v, ok := params[name]
		if !ok {
			return nil, fmt.Errorf("undefined param %q", name)
		}
		return literalExpression(v, e)
	case *ast.UnaryExpression:
		operand, err := substituteExpr(e.Operand, params)
		if err != nil {
			return nil, err
		}
		return ast.NewUnaryExpression(e.Op, operand, e.Position()), nil
	case *ast.BinaryExpression:
		l, err := substituteExpr(e.Left, params)
		if err != nil {
			return nil, err
		}
		r, err := substituteExpr(e.Right, params)
		if err != nil {
			return nil, err
		}
		return ast.NewBinaryExpression(e.Op, l, r, e.Position()), nil
	case *ast.LogicalExpression:
		l, err := substituteExpr(e.Left, params)
		if err != nil {
			return nil, err
		}
		r, err := substituteExpr(e.Right, params)
		if err != nil {
			return nil, err
		}
		return ast.NewLogicalExpression(e.Op, l, r, e.Position()), nil
	case *ast.TernaryExpression:
		c, err := substituteExpr(e.Cond, params)
		if err != nil {
			return nil, err
		}
		th, err := substituteExpr(e.Then, params)
		if err != nil {
			return nil, err
		}
		el, err := substituteExpr(e.Else, params)
		if err != nil {
			return nil, err
		}
		return ast.NewTernaryExpression(c, th, el, e.Position()), nil
	case *ast.CallExpression:
		args := make([]ast.Expression, len(e.Args))
		for i, a := range e.Args {
			sa, err := substituteExpr(a, params)
			if err != nil {
				return nil, err
			}
			args[i] = sa
		}
		return ast.NewCallExpression(e.Callee, args, e.Position()), nil
	case *ast.InExpression:
		v, err := substituteExpr(e.Value, params)
		if err != nil {
			return nil, err
		}
		c, err := substituteExpr(e.Collection, params)
		if err != nil {
			return nil, err
		}
		return ast.NewInExpression(v, c, e.Negate, e.Position()), nil
	case *ast.InListExpression:
		v, err := substituteExpr(e.Value, params)
		if err != nil {
			return nil, err
		}
		return ast.NewInListExpression(v, e.ListID, e.Negate, e.Position()), nil
	case *ast.ListLiteral:
		vals := make([]ast.Expression, len(e.Values))
		for i, v := range e.Values {
			sv, err := substituteExpr(v, params)
			if err != nil {
				return nil, err
			}
			vals[i] = sv
		}
		return ast.NewListLiteral(vals, e.Position()), nil
	case *ast.MapLiteral:
		entries := make([]ast.MapEntry, len(e.Entries))
		for i, entry := range e.Entries {
			sv, err := substituteExpr(entry.Value, params)
			if err != nil {
				return nil, err
			}
			entries[i] = ast.MapEntry{Key: entry.Key, Value: sv}
		}
		return ast.NewMapLiteral(entries, e.Position()), nil
	case *ast.StringTemplate:
		return substituteTemplate(e, params)
	default:
		// Literals (Null/Bool/Integer/Float/String) carry no sub-expressions.
		return expr, nil
	}
}

// substituteTemplate replaces `{params.name}` interpolation segments with
// their literal value, rendered to its string form, since a StringTemplate
// segment is always textual regardless of the underlying param's type.
func substituteTemplate(t *ast.StringTemplate, params map[string]ast.Literal) (ast.Expression, error) {
	segments := make([]ast.TemplateSegment, len(t.Segments))
	for i, seg := range t.Segments {
		if seg.Path == nil || seg.Path.Namespace() != "params" {
			segments[i] = seg
			continue
		}
		if len(seg.Path.Segments) != 2 {
			return nil, fmt.Errorf("malformed params reference %q", seg.Path.String())
		}
		v, ok := params[seg.Path.Segments[1]]
		if !ok {
			return nil, fmt.Errorf("undefined param %q", seg.Path.Segments[1])
		}
		segments[i] = ast.TemplateSegment{Literal: fmt.Sprintf("%v", v)}
	}
	return ast.NewStringTemplate(t.Source, segments, t.Position()), nil
}

// substituteConditionTree applies substituteExpr across every Leaf of a
// ConditionTree, rebuilding All/Any/Not nodes around the substituted leaves.
func substituteConditionTree(c *ast.ConditionTree, params map[string]ast.Literal) (*ast.ConditionTree, error) {
	if c == nil {
		return nil, nil
	}
	switch c.Kind {
	case "leaf":
		leaf, err := substituteExpr(c.Leaf, params)
		if err != nil {
			return nil, err
		}
		return ast.NewLeafCondition(leaf, c.Position()), nil
	case "not":
		child, err := substituteConditionTree(c.Child, params)
		if err != nil {
			return nil, err
		}
		return ast.NewNotCondition(child, c.Position()), nil
	default:
		children := make([]*ast.ConditionTree, len(c.Children))
		for i, ch := range c.Children {
			sc, err := substituteConditionTree(ch, params)
			if err != nil {
				return nil, err
			}
			children[i] = sc
		}
		if c.Kind == "any" {
			return ast.NewAnyCondition(children, c.Position()), nil
		}
		return ast.NewAllCondition(children, c.Position()), nil
	}
}

// substituteDecisionRules applies param substitution across a decision
// logic block's conditions and reasons (used by Pass 3 for
// decision_template instantiation).
func substituteDecisionRules(rules []*ast.DecisionRule, params map[string]ast.Literal) ([]*ast.DecisionRule, error) {
	out := make([]*ast.DecisionRule, len(rules))
	for i, r := range rules {
		nr := ast.NewDecisionRule(r.Position())
		nr.Default = r.Default
		nr.Action = r.Action
		nr.Actions = r.Actions
		nr.Terminate = r.Terminate
		if r.Condition != nil {
			cond, err := substituteExpr(r.Condition, params)
			if err != nil {
				return nil, err
			}
			nr.Condition = cond
		}
		if r.Reason != nil {
			reason, err := substituteTemplate(r.Reason, params)
			if err != nil {
				return nil, err
			}
			nr.Reason = reason.(*ast.StringTemplate)
		}
		out[i] = nr
	}
	return out, nil
}
