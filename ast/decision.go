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

// DecisionRule is one entry of a decision-logic block, evaluated in source
// order until a match (spec.md §3.1). Exactly one of Condition / Default
// is set; this invariant is checked in Pass 5 (Semantic Analysis).
type DecisionRule struct {
	*baseNode
	Condition Expression // nil if Default
	Default   bool
	Action    Action
	Reason    *StringTemplate // optional
	Actions   []Action        // optional extra actions list
	Terminate bool
}

func (d *DecisionRule) String() string {
	if d.Default {
		return "default -> " + string(d.Action)
	}
	return "when " + d.Condition.String() + " -> " + string(d.Action)
}

var _ Node = &DecisionRule{}

func NewDecisionRule(r tokens.Range) *DecisionRule {
	return &DecisionRule{baseNode: &baseNode{Rnge: r}}
}

// ParamDecl describes one declared parameter of a DecisionTemplate, e.g.
// `{name: threshold, type: int, default: 10000}`.
type ParamDecl struct {
	Name    string
	Type    string // "int" | "float" | "string" | "bool" | "list"
	Default Literal // nil if required
}

// DecisionTemplate is a reusable decision-logic block with `params.<name>`
// placeholders, instantiated by Pass 3 (Template Instantiation).
type DecisionTemplate struct {
	*baseNode
	ID           string
	ParamsSchema []ParamDecl
	Logic        []*DecisionRule
}

func (t *DecisionTemplate) String() string { return "decision_template " + t.ID }

var _ Node = &DecisionTemplate{}

func NewDecisionTemplate(r tokens.Range) *DecisionTemplate {
	return &DecisionTemplate{baseNode: &baseNode{Rnge: r}}
}

// DecisionTemplateRef is a ruleset's reference to a DecisionTemplate with
// supplied parameter values, before Pass 3 resolves it into DecisionLogic.
type DecisionTemplateRef struct {
	ID     string
	Params map[string]Literal
}
