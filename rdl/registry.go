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

type rawRegistryEntry struct {
	PipelineID string `yaml:"pipeline_id"`
	When       string `yaml:"when"`
}

func buildRegistry(raws []rawRegistryEntry, file string) (*ast.Registry, error) {
	reg := ast.NewRegistry("", tokens.Range{File: file})
	for _, raw := range raws {
		when, err := parseCondition(raw.When, file)
		if err != nil {
			return nil, err
		}
		reg.Entries = append(reg.Entries, ast.RegistryEntry{PipelineID: raw.PipelineID, When: when})
	}
	return reg, nil
}
