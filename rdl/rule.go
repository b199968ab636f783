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

type rawRule struct {
	ID       string         `yaml:"id"`
	Name     string         `yaml:"name"`
	When     string         `yaml:"when"`
	Score    int32          `yaml:"score"`
	Action   string         `yaml:"action"`
	Params   map[string]any `yaml:"params"`
	Metadata map[string]any `yaml:"metadata"`
}

func buildRule(raw *rawRule, file string) (*ast.Rule, error) {
	when, err := parseCondition(raw.When, file)
	if err != nil {
		return nil, err
	}

	r := ast.NewRule(tokens.Range{File: file})
	r.ID = raw.ID
	r.Name = raw.Name
	r.When = when
	r.Score = raw.Score
	if raw.Action != "" {
		a := ast.Action(raw.Action)
		r.Action = &a
	}
	if raw.Params != nil {
		r.Params = raw.Params
	}
	if raw.Metadata != nil {
		r.Metadata = raw.Metadata
	}
	return r, nil
}
