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

import "github.com/corintai/corint-core/tokens"

// Literal is a compile-time constant value used for rule/template
// parameters — the raw RDL scalar/list/map the YAML layer produced.
type Literal = any

// Rule is one scored condition (spec.md §3.1).
type Rule struct {
	*baseNode
	ID       string
	Name     string
	When     *ConditionTree
	Score    int32
	Action   *Action
	Params   map[string]Literal
	Metadata map[string]any
}

func (r *Rule) String() string { return "rule " + r.ID }

var _ Node = &Rule{}

// NewRule is a small convenience constructor used by the rdl document
// loader; the loader sets fields directly where convenient and uses this
// only for the Range.
func NewRule(r tokens.Range) *Rule {
	return &Rule{baseNode: &baseNode{Rnge: r}, Params: map[string]Literal{}, Metadata: map[string]any{}}
}
