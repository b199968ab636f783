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

type rawRulesetStep struct {
	ID        string `yaml:"id"`
	Next      string `yaml:"next"`
	RulesetID string `yaml:"ruleset_id"`
}

type rawRoute struct {
	When string `yaml:"when"`
	Next string `yaml:"next"`
}

type rawRouterStep struct {
	ID      string     `yaml:"id"`
	Next    string     `yaml:"next"`
	Routes  []rawRoute `yaml:"routes"`
	Default string     `yaml:"default"`
}

type rawExtractStep struct {
	ID       string   `yaml:"id"`
	Next     string   `yaml:"next"`
	Features []string `yaml:"features"`
}

type rawCallStep struct {
	ID       string            `yaml:"id"`
	Next     string            `yaml:"next"`
	API      string            `yaml:"api"`
	Service  string            `yaml:"service"`
	Endpoint string            `yaml:"endpoint"`
	Params   map[string]string `yaml:"params"`
	Output   string            `yaml:"output"`
}

type rawActionStep struct {
	ID     string `yaml:"id"`
	Next   string `yaml:"next"`
	Action string `yaml:"action"`
}

// rawStep is a single-key tagged map, one of {ruleset, router, extract,
// api, service, action} (spec.md §4.1).
type rawStep struct {
	Ruleset *rawRulesetStep `yaml:"ruleset"`
	Router  *rawRouterStep  `yaml:"router"`
	Extract *rawExtractStep `yaml:"extract"`
	API     *rawCallStep    `yaml:"api"`
	Service *rawCallStep    `yaml:"service"`
	Action  *rawActionStep  `yaml:"action"`
}

func buildParams(raw map[string]string, file string) (map[string]ast.Expression, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make(map[string]ast.Expression, len(raw))
	for k, v := range raw {
		expr, err := parseExpr(v, file)
		if err != nil {
			return nil, err
		}
		out[k] = expr
	}
	return out, nil
}

func buildStep(raw rawStep, file string) (ast.Step, error) {
	r := tokens.Range{File: file}

	switch {
	case raw.Ruleset != nil:
		s := raw.Ruleset
		return ast.NewRulesetStep(s.ID, s.Next, s.RulesetID, r), nil

	case raw.Router != nil:
		s := raw.Router
		routes := make([]ast.Route, 0, len(s.Routes))
		for _, rt := range s.Routes {
			cond, err := parseCondition(rt.When, file)
			if err != nil {
				return nil, err
			}
			routes = append(routes, ast.Route{When: cond, Next: rt.Next})
		}
		return ast.NewRouterStep(s.ID, s.Next, routes, s.Default, r), nil

	case raw.Extract != nil:
		s := raw.Extract
		return ast.NewExtractStep(s.ID, s.Next, s.Features, r), nil

	case raw.API != nil:
		s := raw.API
		params, err := buildParams(s.Params, file)
		if err != nil {
			return nil, err
		}
		return ast.NewApiStep(s.ID, s.Next, s.API, s.Endpoint, params, s.Output, r), nil

	case raw.Service != nil:
		s := raw.Service
		params, err := buildParams(s.Params, file)
		if err != nil {
			return nil, err
		}
		return ast.NewServiceStep(s.ID, s.Next, s.Service, s.Endpoint, params, s.Output, r), nil

	case raw.Action != nil:
		s := raw.Action
		return ast.NewActionStep(s.ID, s.Next, ast.Action(s.Action), r), nil

	default:
		return nil, errors.Errorf("%s: step has no recognized kind", file)
	}
}

type rawPipeline struct {
	ID       string            `yaml:"id"`
	Entry    string            `yaml:"entry"`
	When     string            `yaml:"when"`
	Steps    []rawStep         `yaml:"steps"`
	Decision []rawDecisionRule `yaml:"decision"`
}

func buildPipeline(raw *rawPipeline, file string) (*ast.Pipeline, error) {
	p := ast.NewPipeline(tokens.Range{File: file})
	p.ID = raw.ID
	p.Entry = raw.Entry

	when, err := parseCondition(raw.When, file)
	if err != nil {
		return nil, err
	}
	p.When = when

	for _, rawStep := range raw.Steps {
		step, err := buildStep(rawStep, file)
		if err != nil {
			return nil, err
		}
		p.Steps = append(p.Steps, step)
	}

	decision, err := buildDecisionRules(raw.Decision, file)
	if err != nil {
		return nil, err
	}
	p.Decision = decision

	return p, nil
}
