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

// inlineParams is Pass 4 (spec.md §4.3): replace every `params.<name>` in
// a rule's `when` with the literal from rule.Params; undefined params are
// an error. Score is always a plain int32 by the time the rdl loader
// produces a Rule (RDL never lets `score` itself be a params reference),
// so only When needs rewriting here.
func inlineParams(set *Set) Diagnostics {
	var diags Diagnostics
	for id, r := range set.Rules {
		if r.When == nil {
			continue
		}
		when, err := substituteConditionTree(r.When, r.Params)
		if err != nil {
			diags = append(diags, errDiag("parameter-inlining", KindTemplateParamMismatch, r.Position(),
				"rule %q: %s", id, err))
			continue
		}
		r.When = when
	}
	return diags
}
