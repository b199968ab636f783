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
	"github.com/pkg/errors"
)

// rawDecisionRule mirrors one entry of a `decision_logic:`/`decision:`
// block: either `when:` or `default: true`, plus `action` (spec.md §4.1).
type rawDecisionRule struct {
	When      string   `yaml:"when"`
	Default   bool     `yaml:"default"`
	Action    string   `yaml:"action"`
	Reason    string   `yaml:"reason"`
	Actions   []string `yaml:"actions"`
	Terminate bool     `yaml:"terminate"`
}

func buildDecisionRules(raws []rawDecisionRule, file string) ([]*ast.DecisionRule, error) {
	rules := make([]*ast.DecisionRule, 0, len(raws))
	for i, raw := range raws {
		if raw.Default == (raw.When != "") {
			return nil, errors.Errorf("%s: decision rule #%d must set exactly one of `when`/`default`", file, i)
		}

		dr := ast.NewDecisionRule(tokens.Range{File: file})
		dr.Default = raw.Default
		dr.Action = ast.Action(raw.Action)
		dr.Terminate = raw.Terminate

		if !raw.Default {
			cond, err := parseExpr(raw.When, file)
			if err != nil {
				return nil, err
			}
			dr.Condition = cond
		}
		if raw.Reason != "" {
			dr.Reason = parseStringTemplate(raw.Reason, file)
		}
		for _, a := range raw.Actions {
			dr.Actions = append(dr.Actions, ast.Action(a))
		}
		rules = append(rules, dr)
	}
	return rules, nil
}

type rawDecisionTemplateRef struct {
	ID     string         `yaml:"id"`
	Params map[string]any `yaml:"params"`
}

type rawParamDecl struct {
	Name    string `yaml:"name"`
	Type    string `yaml:"type"`
	Default any    `yaml:"default"`
}

type rawDecisionTemplate struct {
	ID     string            `yaml:"id"`
	Params []rawParamDecl    `yaml:"params"`
	Logic  []rawDecisionRule `yaml:"logic"`
}

func buildDecisionTemplate(raw *rawDecisionTemplate, file string) (*ast.DecisionTemplate, error) {
	logic, err := buildDecisionRules(raw.Logic, file)
	if err != nil {
		return nil, err
	}

	t := ast.NewDecisionTemplate(tokens.Range{File: file})
	t.ID = raw.ID
	for _, p := range raw.Params {
		t.ParamsSchema = append(t.ParamsSchema, ast.ParamDecl{Name: p.Name, Type: p.Type, Default: p.Default})
	}
	t.Logic = logic
	return t, nil
}
