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

// Step is a tagged-variant pipeline node (spec.md §3.1). Each concrete
// step type below implements it; the Compiler's Pass 5 walks StepID/Next
// to validate the pipeline DAG.
type Step interface {
	Node
	StepID() string
	NextID() string // empty if terminal
	stepNode()
}

type stepBase struct {
	*baseNode
	ID   string
	Next string
}

func (s *stepBase) StepID() string { return s.ID }
func (s *stepBase) NextID() string { return s.Next }
func (s *stepBase) stepNode()      {}

// RulesetStep invokes a compiled Ruleset's program.
type RulesetStep struct {
	*stepBase
	RulesetRef string
}

func (s *RulesetStep) String() string { return "ruleset_step(" + s.ID + " -> " + s.RulesetRef + ")" }

func NewRulesetStep(id, next, rulesetRef string, r tokens.Range) *RulesetStep {
	return &RulesetStep{stepBase: newStepBase(id, next, r), RulesetRef: rulesetRef}
}

// Route is one branch of a RouterStep.
type Route struct {
	When *ConditionTree
	Next string
}

// RouterStep picks the first route whose condition matches, else Default.
type RouterStep struct {
	*stepBase
	Routes  []Route
	Default string // empty if none
}

func (s *RouterStep) String() string { return "router_step(" + s.ID + ")" }

func NewRouterStep(id, next string, routes []Route, def string, r tokens.Range) *RouterStep {
	return &RouterStep{stepBase: newStepBase(id, next, r), Routes: routes, Default: def}
}

// ExtractStep eagerly computes named features into `features.*`.
type ExtractStep struct {
	*stepBase
	Features []string
}

func (s *ExtractStep) String() string { return "extract_step(" + s.ID + ")" }

func NewExtractStep(id, next string, features []string, r tokens.Range) *ExtractStep {
	return &ExtractStep{stepBase: newStepBase(id, next, r), Features: features}
}

// ApiStep calls an External API endpoint and writes the result into `api.<Output>`.
type ApiStep struct {
	*stepBase
	Api      string
	Endpoint string
	Params   map[string]Expression
	Output   string
}

func (s *ApiStep) String() string { return "api_step(" + s.ID + ")" }

func NewApiStep(id, next, api, endpoint string, params map[string]Expression, output string, r tokens.Range) *ApiStep {
	return &ApiStep{stepBase: newStepBase(id, next, r), Api: api, Endpoint: endpoint, Params: params, Output: output}
}

// ServiceStep is identical in shape to ApiStep but targets the `service`
// namespace — a distinction the spec's Step variant list preserves
// (spec.md §3.1 "Service{...}") for authoring clarity even though the two
// share an implementation (External Caller, spec.md §4.7).
type ServiceStep struct {
	*stepBase
	Service  string
	Endpoint string
	Params   map[string]Expression
	Output   string
}

func (s *ServiceStep) String() string { return "service_step(" + s.ID + ")" }

func NewServiceStep(id, next, service, endpoint string, params map[string]Expression, output string, r tokens.Range) *ServiceStep {
	return &ServiceStep{stepBase: newStepBase(id, next, r), Service: service, Endpoint: endpoint, Params: params, Output: output}
}

// ActionStep finalizes the pipeline decision immediately.
type ActionStep struct {
	*stepBase
	Action Action
}

func (s *ActionStep) String() string { return "action_step(" + s.ID + ")" }

func NewActionStep(id, next string, action Action, r tokens.Range) *ActionStep {
	return &ActionStep{stepBase: newStepBase(id, next, r), Action: action}
}

func newStepBase(id, next string, r tokens.Range) *stepBase {
	return &stepBase{baseNode: &baseNode{Rnge: r}, ID: id, Next: next}
}

var (
	_ Step = &RulesetStep{}
	_ Step = &RouterStep{}
	_ Step = &ExtractStep{}
	_ Step = &ApiStep{}
	_ Step = &ServiceStep{}
	_ Step = &ActionStep{}
)
