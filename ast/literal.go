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
	"fmt"
	"strconv"
	"strings"

	"github.com/corintai/corint-core/tokens"
)

// NullLiteral is the `null` literal.
type NullLiteral struct{ *baseNode }

func NewNullLiteral(r tokens.Range) *NullLiteral { return &NullLiteral{&baseNode{Rnge: r}} }
func (n *NullLiteral) String() string            { return "null" }
func (n *NullLiteral) expressionNode()           {}

// BoolLiteral is `true`/`false`.
type BoolLiteral struct {
	*baseNode
	Value bool
}

func NewBoolLiteral(v bool, r tokens.Range) *BoolLiteral {
	return &BoolLiteral{&baseNode{Rnge: r}, v}
}
func (n *BoolLiteral) String() string  { return strconv.FormatBool(n.Value) }
func (n *BoolLiteral) expressionNode() {}

// IntegerLiteral is a base-10 integer literal.
type IntegerLiteral struct {
	*baseNode
	Value int64
}

func NewIntegerLiteral(v int64, r tokens.Range) *IntegerLiteral {
	return &IntegerLiteral{&baseNode{Rnge: r}, v}
}
func (n *IntegerLiteral) String() string  { return strconv.FormatInt(n.Value, 10) }
func (n *IntegerLiteral) expressionNode() {}

// FloatLiteral is a floating point literal.
type FloatLiteral struct {
	*baseNode
	Value float64
}

func NewFloatLiteral(v float64, r tokens.Range) *FloatLiteral {
	return &FloatLiteral{&baseNode{Rnge: r}, v}
}
func (n *FloatLiteral) String() string  { return strconv.FormatFloat(n.Value, 'g', -1, 64) }
func (n *FloatLiteral) expressionNode() {}

// StringLiteral is a quoted string literal with no interpolation.
type StringLiteral struct {
	*baseNode
	Value string
}

func NewStringLiteral(v string, r tokens.Range) *StringLiteral {
	return &StringLiteral{&baseNode{Rnge: r}, v}
}
func (n *StringLiteral) String() string  { return strconv.Quote(n.Value) }
func (n *StringLiteral) expressionNode() {}

// ListLiteral is an array literal `[a, b, c]`.
type ListLiteral struct {
	*baseNode
	Values []Expression
}

func NewListLiteral(values []Expression, r tokens.Range) *ListLiteral {
	return &ListLiteral{&baseNode{Rnge: r}, values}
}
func (n *ListLiteral) String() string {
	parts := make([]string, len(n.Values))
	for i, v := range n.Values {
		parts[i] = v.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
func (n *ListLiteral) expressionNode() {}

// MapEntry is a single key/value pair of a MapLiteral.
type MapEntry struct {
	Key   string
	Value Expression
}

// MapLiteral is an object literal `{a: 1, b: 2}`.
type MapLiteral struct {
	*baseNode
	Entries []MapEntry
}

func NewMapLiteral(entries []MapEntry, r tokens.Range) *MapLiteral {
	return &MapLiteral{&baseNode{Rnge: r}, entries}
}
func (n *MapLiteral) String() string {
	parts := make([]string, len(n.Entries))
	for i, e := range n.Entries {
		parts[i] = fmt.Sprintf("%s: %s", e.Key, e.Value.String())
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
func (n *MapLiteral) expressionNode() {}

// TemplateSegment is either a literal run of text or an interpolated path.
type TemplateSegment struct {
	Literal string   // set when Path is nil
	Path    *FieldPath // set when this segment came from `{a.b.c}`
}

// StringTemplate is a string containing `{path.to.value}` interpolations,
// used for DecisionRule.Reason and Api/Service step string parameters
// (spec.md §6.1: "String templates use {path.to.value}").
type StringTemplate struct {
	*baseNode
	Source   string
	Segments []TemplateSegment
}

func NewStringTemplate(source string, segments []TemplateSegment, r tokens.Range) *StringTemplate {
	return &StringTemplate{&baseNode{Rnge: r}, source, segments}
}
func (n *StringTemplate) String() string  { return strconv.Quote(n.Source) }
func (n *StringTemplate) expressionNode() {}

// IsConstant reports whether the template has no interpolated segments.
// The optimizer does not pre-intern constant templates.
func (n *StringTemplate) IsConstant() bool {
	for _, seg := range n.Segments {
		if seg.Path != nil {
			return false
		}
	}
	return true
}
