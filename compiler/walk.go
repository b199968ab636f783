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

import "github.com/corintai/corint-core/ast"

// walkExpr visits expr and every sub-expression, calling visitField for
// each FieldPath and visitInList for each InListExpression it encounters.
// Used by Pass 5 (namespace/reference validation); Pass 6 (type
// inference) recurses through inferExpr instead.
func walkExpr(expr ast.Expression, visitField func(*ast.FieldPath), visitInList func(*ast.InListExpression)) {
	if expr == nil {
		return
	}
	switch e := expr.(type) {
	case *ast.FieldPath:
		if visitField != nil {
			visitField(e)
		}
	case *ast.UnaryExpression:
		walkExpr(e.Operand, visitField, visitInList)
	case *ast.BinaryExpression:
		walkExpr(e.Left, visitField, visitInList)
		walkExpr(e.Right, visitField, visitInList)
	case *ast.LogicalExpression:
		walkExpr(e.Left, visitField, visitInList)
		walkExpr(e.Right, visitField, visitInList)
	case *ast.TernaryExpression:
		walkExpr(e.Cond, visitField, visitInList)
		walkExpr(e.Then, visitField, visitInList)
		walkExpr(e.Else, visitField, visitInList)
	case *ast.CallExpression:
		for _, a := range e.Args {
			walkExpr(a, visitField, visitInList)
		}
	case *ast.InExpression:
		walkExpr(e.Value, visitField, visitInList)
		walkExpr(e.Collection, visitField, visitInList)
	case *ast.InListExpression:
		walkExpr(e.Value, visitField, visitInList)
		if visitInList != nil {
			visitInList(e)
		}
	case *ast.ListLiteral:
		for _, v := range e.Values {
			walkExpr(v, visitField, visitInList)
		}
	case *ast.MapLiteral:
		for _, entry := range e.Entries {
			walkExpr(entry.Value, visitField, visitInList)
		}
	case *ast.StringTemplate:
		for _, seg := range e.Segments {
			if seg.Path != nil && visitField != nil {
				visitField(seg.Path)
			}
		}
	}
}

// walkConditionTree visits every Leaf expression of a ConditionTree.
func walkConditionTree(c *ast.ConditionTree, visitField func(*ast.FieldPath), visitInList func(*ast.InListExpression)) {
	if c == nil {
		return
	}
	switch c.Kind {
	case "leaf":
		walkExpr(c.Leaf, visitField, visitInList)
	case "not":
		walkConditionTree(c.Child, visitField, visitInList)
	default:
		for _, ch := range c.Children {
			walkConditionTree(ch, visitField, visitInList)
		}
	}
}
