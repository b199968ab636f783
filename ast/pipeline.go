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

// Pipeline is a DAG of Steps rooted at Entry, plus an optional pipeline-
// level decision block (spec.md §3.1).
type Pipeline struct {
	*baseNode
	ID       string
	Entry    string
	When     *ConditionTree // optional gate; pipeline is skipped if false
	Steps    []Step
	Decision []*DecisionRule
}

func (p *Pipeline) String() string { return "pipeline " + p.ID }

var _ Node = &Pipeline{}

func NewPipeline(r tokens.Range) *Pipeline {
	return &Pipeline{baseNode: &baseNode{Rnge: r}}
}

// StepByID finds a step by its ID, or nil.
func (p *Pipeline) StepByID(id string) Step {
	for _, s := range p.Steps {
		if s.StepID() == id {
			return s
		}
	}
	return nil
}
