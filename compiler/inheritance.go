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

// maxInheritanceDepth bounds a Ruleset.extends chain (spec.md §3.3
// invariant 7: "default 32").
const maxInheritanceDepth = 32

// resolveInheritance is Pass 2 (spec.md §4.3): for every ruleset with
// `extends`, walk the chain, merge `rules` lists child-last then
// deduplicate preserving first occurrence, and inherit `decision_logic`
// when the child defines none. Mutates set.Rulesets in place with the
// resolved, extends-free rules/decision_logic; Extends itself is left set
// so later passes and tracing can still report ancestry.
func resolveInheritance(set *Set) Diagnostics {
	var diags Diagnostics
	resolved := map[string]bool{}
	inProgress := map[string]bool{}

	var resolve func(id string) Diagnostics
	resolve = func(id string) Diagnostics {
		var d Diagnostics
		if resolved[id] {
			return d
		}
		rs, ok := set.Rulesets[id]
		if !ok {
			return d
		}
		if inProgress[id] {
			d = append(d, errDiag("inheritance-resolution", KindInheritanceCycle, rs.Position(),
				"ruleset %q participates in an extends cycle", id))
			return d
		}
		if rs.Extends == "" {
			resolved[id] = true
			return d
		}

		inProgress[id] = true
		defer func() { inProgress[id] = false }()

		depth := 1
		cur := rs.Extends
		for cur != "" {
			depth++
			if depth > maxInheritanceDepth {
				d = append(d, errDiag("inheritance-resolution", KindInheritanceCycle, rs.Position(),
					"ruleset %q extends chain exceeds %d hops", id, maxInheritanceDepth))
				return d
			}
			parent, ok := set.Rulesets[cur]
			if !ok {
				d = append(d, errDiag("inheritance-resolution", KindUnknownRef, rs.Position(),
					"ruleset %q extends unknown ruleset %q", id, cur))
				return d
			}
			d = append(d, resolve(cur)...)
			cur = parent.Extends
		}

		parent := set.Rulesets[rs.Extends]
		rs.Rules = mergeRulePreservingFirst(parent.Rules, rs.Rules)
		if len(rs.DecisionLogic) == 0 && rs.DecisionTemplateRef == nil {
			rs.DecisionLogic = parent.DecisionLogic
		}
		resolved[id] = true
		return d
	}

	for id := range set.Rulesets {
		diags = append(diags, resolve(id)...)
	}
	return diags
}

// mergeRulePreservingFirst concatenates parent then child rule-id lists
// and deduplicates, keeping each id's first (i.e. parent's, if present
// there) position (spec.md §4.3 Pass 2: "merge ... child-last order then
// deduplicate while preserving first occurrence").
func mergeRulePreservingFirst(parent, child []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, id := range append(append([]string{}, parent...), child...) {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
