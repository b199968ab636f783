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

package ast

import (
	"strings"

	"github.com/corintai/corint-core/tokens"
)

// ConditionTree is the recursive `when` composition of a Rule or Pipeline:
// `All | Any | Not | Leaf(Expression)` (spec.md §3.1).
type ConditionTree struct {
	*baseNode
	// Kind is "all", "any", "not", or "leaf".
	Kind     string
	Children []*ConditionTree // for all/any
	Child    *ConditionTree   // for not
	Leaf     Expression       // for leaf
}

func NewAllCondition(children []*ConditionTree, r tokens.Range) *ConditionTree {
	return &ConditionTree{&baseNode{Rnge: r}, "all", children, nil, nil}
}

func NewAnyCondition(children []*ConditionTree, r tokens.Range) *ConditionTree {
	return &ConditionTree{&baseNode{Rnge: r}, "any", children, nil, nil}
}

func NewNotCondition(child *ConditionTree, r tokens.Range) *ConditionTree {
	return &ConditionTree{&baseNode{Rnge: r}, "not", nil, child, nil}
}

func NewLeafCondition(expr Expression, r tokens.Range) *ConditionTree {
	return &ConditionTree{&baseNode{Rnge: r}, "leaf", nil, nil, expr}
}

func (c *ConditionTree) String() string {
	switch c.Kind {
	case "leaf":
		return c.Leaf.String()
	case "not":
		return "!(" + c.Child.String() + ")"
	default:
		parts := make([]string, len(c.Children))
		for i, ch := range c.Children {
			parts[i] = ch.String()
		}
		sep := " && "
		if c.Kind == "any" {
			sep = " || "
		}
		return "(" + strings.Join(parts, sep) + ")"
	}
}

var _ Node = &ConditionTree{}

// ConditionTreeFromExpression lowers a parsed boolean expression into the
// recursive All/Any/Not/Leaf shape the compiler and trace tree want
// (spec.md §3.1, §6.3): chained `&&`/`||` of the same operator flatten into
// a single All/Any node rather than nesting pairwise, `!` becomes Not, and
// anything else (comparisons, calls, field paths treated as truthy) is a
// Leaf. This is how a `when: a && b && c` RDL field becomes a ConditionTree
// without requiring authors to write nested `all:`/`any:` YAML blocks.
func ConditionTreeFromExpression(expr Expression) *ConditionTree {
	switch e := expr.(type) {
	case *LogicalExpression:
		if e.Op == "&&" {
			return NewAllCondition(flattenLogical(e, "&&"), e.Position())
		}
		return NewAnyCondition(flattenLogical(e, "||"), e.Position())
	case *UnaryExpression:
		if e.Op == "!" {
			return NewNotCondition(ConditionTreeFromExpression(e.Operand), e.Position())
		}
		return NewLeafCondition(expr, expr.Position())
	default:
		return NewLeafCondition(expr, expr.Position())
	}
}

// flattenLogical collects the leaves of a left/right-nested chain of the
// same logical operator into a single slice.
func flattenLogical(e *LogicalExpression, op string) []*ConditionTree {
	var children []*ConditionTree
	for _, side := range []Expression{e.Left, e.Right} {
		if le, ok := side.(*LogicalExpression); ok && le.Op == op {
			children = append(children, flattenLogical(le, op)...)
			continue
		}
		children = append(children, ConditionTreeFromExpression(side))
	}
	return children
}
