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

// Ruleset is a named collection of rules plus the decision logic that
// turns their accumulated score/triggers into a per-ruleset signal
// (spec.md §3.1). Exactly one of DecisionLogic / DecisionTemplateRef holds
// after Pass 3 (Template Instantiation) resolves the latter into the
// former.
type Ruleset struct {
	*baseNode
	ID                   string
	Name                 string
	Extends              string // ruleset id, empty if none
	Rules                []string
	DecisionLogic        []*DecisionRule
	DecisionTemplateRef  *DecisionTemplateRef
	Metadata             map[string]any
}

func (r *Ruleset) String() string { return "ruleset " + r.ID }

var _ Node = &Ruleset{}

func NewRuleset(r tokens.Range) *Ruleset {
	return &Ruleset{baseNode: &baseNode{Rnge: r}, Metadata: map[string]any{}}
}
