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

package compiler

import "github.com/corintai/corint-core/rdl"

// Result is the working set after every analysis pass has run, handed to
// Pass 7 (Codegen) on a per-ruleset/per-pipeline basis by the caller.
type Result struct {
	Set *Set
}

// Compile runs the eight-pass pipeline spec.md §4.3 describes over docs:
// Import Resolution, Inheritance Resolution, Template Instantiation,
// Parameter Inlining, Semantic Analysis and Type Checking run here; Codegen
// and the Optimizer are left to the caller, via CompileRule/CompileRuleset/
// CompilePipeline in codegen.go. Any pass emitting an Error diagnostic stops the pipeline
// early and returns a *CompileError carrying every diagnostic collected so
// far, so `validate` can report everything wrong with a ruleset at once
// rather than one error at a time.
func Compile(docs []*rdl.Document) (*Result, error) {
	set, err := BuildSet(docs)
	if err != nil {
		return nil, err
	}

	passes := []func(*Set) Diagnostics{
		resolveImports,
		resolveInheritance,
		instantiateTemplates,
		inlineParams,
		analyzeSemantics,
		checkTypes,
	}

	var all Diagnostics
	for _, pass := range passes {
		d := pass(set)
		all = append(all, d...)
		if d.HasErrors() {
			return nil, &CompileError{Diagnostics: all}
		}
	}
	if all.HasErrors() {
		return nil, &CompileError{Diagnostics: all}
	}
	return &Result{Set: set}, nil
}
