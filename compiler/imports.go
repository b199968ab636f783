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

import (
	"github.com/corintai/corint-core/dag"
	"github.com/corintai/corint-core/tokens"
)

// artifactRef keys a node in the cross-artifact reference graph Pass 1 and
// Pass 2 build: a (kind, id) pair rendered as a single string, so dag.G's
// fmt.Stringer constraint is satisfied without a generic comparable key.
type artifactRef struct {
	kind string
	id   string
}

func (a artifactRef) String() string { return a.kind + ":" + a.id }

// resolveImports is Pass 1 (spec.md §4.3): build the cross-artifact
// reference graph — ruleset -> rule, ruleset -> ruleset (extends),
// ruleset -> decision_template, pipeline -> ruleset/api, registry ->
// pipeline, feature -> datasource — and reject it if it is not a DAG.
// Reference-existence (does the target id actually resolve) is Pass 5's
// job; Pass 1 only cares about cycles among ids that ARE present.
func resolveImports(set *Set) Diagnostics {
	var diags Diagnostics
	g := dag.New[artifactRef]()

	addNode := func(kind, id string) artifactRef {
		ref := artifactRef{kind, id}
		g.AddNode(ref)
		return ref
	}
	for id := range set.Rules {
		addNode("rule", id)
	}
	for id := range set.Rulesets {
		addNode("ruleset", id)
	}
	for id := range set.Pipelines {
		addNode("pipeline", id)
	}
	for id := range set.Templates {
		addNode("decision_template", id)
	}
	for id := range set.Registries {
		addNode("registry", id)
	}
	for id := range set.Features {
		addNode("feature", id)
	}
	for id := range set.Datasources {
		addNode("datasource", id)
	}
	for id := range set.APIs {
		addNode("api", id)
	}

	addEdge := func(from, to artifactRef, at tokens.Range) {
		// Only add the edge if both ends were actually registered; a
		// dangling reference is Pass 5's UnknownRef, not a Pass 1 cycle.
		if err := g.AddEdge(from, to); err != nil {
			diags = append(diags, warnDiag("import-resolution", KindImportError, at,
				"%s", err))
		}
	}

	for rsID, rs := range set.Rulesets {
		self := artifactRef{"ruleset", rsID}
		for _, ruleID := range rs.Rules {
			if _, ok := set.Rules[ruleID]; ok {
				addEdge(self, artifactRef{"rule", ruleID}, rs.Position())
			}
		}
		if rs.Extends != "" {
			if _, ok := set.Rulesets[rs.Extends]; ok {
				addEdge(self, artifactRef{"ruleset", rs.Extends}, rs.Position())
			}
		}
		if rs.DecisionTemplateRef != nil {
			if _, ok := set.Templates[rs.DecisionTemplateRef.ID]; ok {
				addEdge(self, artifactRef{"decision_template", rs.DecisionTemplateRef.ID}, rs.Position())
			}
		}
	}

	for pID, p := range set.Pipelines {
		self := artifactRef{"pipeline", pID}
		for _, step := range p.Steps {
			refKind, refID, ok := stepArtifactRef(step)
			if ok {
				if refExistsInSet(set, refKind, refID) {
					addEdge(self, artifactRef{refKind, refID}, p.Position())
				}
			}
		}
	}

	for regID, reg := range set.Registries {
		self := artifactRef{"registry", regID}
		for _, entry := range reg.Entries {
			if _, ok := set.Pipelines[entry.PipelineID]; ok {
				addEdge(self, artifactRef{"pipeline", entry.PipelineID}, reg.Position())
			}
		}
	}

	for fID, f := range set.Features {
		if f.Datasource == "" {
			continue
		}
		if _, ok := set.Datasources[f.Datasource]; ok {
			addEdge(artifactRef{"feature", fID}, artifactRef{"datasource", f.Datasource}, f.Position())
		}
	}

	if _, err := g.TopoSort(); err != nil {
		cycle := g.DetectFirstCycle()
		names := make([]string, len(cycle))
		for i, n := range cycle {
			names[i] = n.String()
		}
		diags = append(diags, errDiag("import-resolution", KindCircularImport, tokens.Range{},
			"circular import: %v", names))
	}

	return diags
}
