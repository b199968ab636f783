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

package rdl

import (
	"github.com/corintai/corint-core/ast"
	"github.com/corintai/corint-core/tokens"
)

type rawRuleset struct {
	ID               string                  `yaml:"id"`
	Name             string                  `yaml:"name"`
	Extends          string                  `yaml:"extends"`
	Rules            []string                `yaml:"rules"`
	DecisionLogic    []rawDecisionRule       `yaml:"decision_logic"`
	DecisionTemplate *rawDecisionTemplateRef `yaml:"decision_template"`
	Metadata         map[string]any          `yaml:"metadata"`
}

func buildRuleset(raw *rawRuleset, file string) (*ast.Ruleset, error) {
	rs := ast.NewRuleset(tokens.Range{File: file})
	rs.ID = raw.ID
	rs.Name = raw.Name
	rs.Extends = raw.Extends
	rs.Rules = raw.Rules
	if raw.Metadata != nil {
		rs.Metadata = raw.Metadata
	}

	if raw.DecisionTemplate != nil {
		rs.DecisionTemplateRef = &ast.DecisionTemplateRef{
			ID:     raw.DecisionTemplate.ID,
			Params: raw.DecisionTemplate.Params,
		}
		return rs, nil
	}

	logic, err := buildDecisionRules(raw.DecisionLogic, file)
	if err != nil {
		return nil, err
	}
	rs.DecisionLogic = logic
	return rs, nil
}
