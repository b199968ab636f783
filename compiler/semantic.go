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
	"github.com/corintai/corint-core/ast"
	"github.com/corintai/corint-core/dag"
	"github.com/corintai/corint-core/execctx"
)

// analyzeSemantics is Pass 5 (spec.md §4.3): resolve every FieldPath's
// namespace, reject references to rules/features/lists/APIs/datasources
// that do not exist, and validate each pipeline's step graph (unique ids, acyclic,
// entry and next/route.next all resolve, decision-block default is unique
// and last).
func analyzeSemantics(set *Set) Diagnostics {
	var diags Diagnostics

	for id, r := range set.Rules {
		diags = append(diags, checkConditionTree(set, "rule "+id, r.When)...)
	}
	for id, rs := range set.Rulesets {
		for _, ruleID := range rs.Rules {
			if _, ok := set.Rules[ruleID]; !ok {
				diags = append(diags, errDiag("semantic-analysis", KindUnknownRef, rs.Position(),
					"ruleset %q references unknown rule %q", id, ruleID))
			}
		}
		diags = append(diags, checkDecisionBlock(set, "ruleset "+id, rs.DecisionLogic)...)
	}
	for id, f := range set.Features {
		diags = append(diags, checkFeature(set, id, f)...)
	}
	for id, reg := range set.Registries {
		for _, entry := range reg.Entries {
			diags = append(diags, checkConditionTree(set, "registry "+id, entry.When)...)
			if _, ok := set.Pipelines[entry.PipelineID]; !ok {
				diags = append(diags, errDiag("semantic-analysis", KindUnknownRef, reg.Position(),
					"registry %q routes to unknown pipeline %q", id, entry.PipelineID))
			}
		}
	}
	for id, p := range set.Pipelines {
		diags = append(diags, checkPipeline(set, id, p)...)
	}

	return diags
}

// checkFeature validates a feature config's field/list/datasource
// references, across whichever kind-specific spec is populated.
func checkFeature(set *Set, id string, f *ast.FeatureConfig) Diagnostics {
	var diags Diagnostics
	owner := "feature " + id

	if f.Datasource != "" {
		if _, ok := set.Datasources[f.Datasource]; !ok {
			diags = append(diags, errDiag("semantic-analysis", KindUnknownRef, f.Position(),
				"feature %q depends on unknown datasource %q", id, f.Datasource))
		}
	}
	if f.Expression != nil {
		diags = append(diags, checkExpr(set, owner, f.Expression)...)
	}
	if f.Lookup != nil {
		diags = append(diags, checkExpr(set, owner, f.Lookup.Key)...)
	}
	if f.Aggregation != nil {
		if f.Aggregation.DimensionValue != nil {
			diags = append(diags, checkExpr(set, owner, f.Aggregation.DimensionValue)...)
		}
		for _, filt := range f.Aggregation.Filters {
			diags = append(diags, checkExpr(set, owner, filt.Value)...)
		}
	}
	return diags
}

// checkExpr walks a single Expression for namespace/list-reference errors.
func checkExpr(set *Set, owner string, e ast.Expression) Diagnostics {
	return checkExprIn(set, owner, e, false)
}

// checkExprIn is checkExpr with inDecision controlling whether the bare
// `total_score`/`triggered_rules` identifiers are legal (spec.md §3.3
// invariant 1 reserves those two names outside `event`; spec.md's worked
// example §8.2 shows them used unqualified only inside a decision_logic
// condition, referring to the ruleset's own live score/trigger
// accumulator rather than the `results` namespace).
func checkExprIn(set *Set, owner string, e ast.Expression, inDecision bool) Diagnostics {
	var diags Diagnostics
	walkExpr(e,
		func(fp *ast.FieldPath) { diags = append(diags, checkFieldPath(fp, owner, inDecision)...) },
		func(il *ast.InListExpression) { diags = append(diags, checkListRef(set, owner, il)...) },
	)
	return diags
}

// checkConditionTree walks every Leaf expression of a ConditionTree for
// namespace/list-reference errors.
func checkConditionTree(set *Set, owner string, c *ast.ConditionTree) Diagnostics {
	var diags Diagnostics
	walkConditionTree(c,
		func(fp *ast.FieldPath) { diags = append(diags, checkFieldPath(fp, owner, false)...) },
		func(il *ast.InListExpression) { diags = append(diags, checkListRef(set, owner, il)...) },
	)
	return diags
}

func checkListRef(set *Set, owner string, il *ast.InListExpression) Diagnostics {
	if _, ok := set.Lists[il.ListID]; !ok {
		return Diagnostics{errDiag("semantic-analysis", KindUnknownRef, il.Position(),
			"%s: reference to unknown list %q", owner, il.ListID)}
	}
	return nil
}

// isScoreAccumulatorIdent reports whether fp is the bare (unqualified,
// single-segment) `total_score` or `triggered_rules` identifier.
func isScoreAccumulatorIdent(fp *ast.FieldPath) bool {
	return len(fp.Segments) == 1 && (fp.Segments[0] == "total_score" || fp.Segments[0] == "triggered_rules")
}

// checkFieldPath validates that fp's leading segment names one of the
// eight runtime namespaces, or — within a decision_logic condition — is
// the bare score-accumulator identifier. By Pass 5, `params` references
// must already have been eliminated by Pass 3/Pass 4; a surviving one is
// a compiler defect, not a user error, but is still reported rather than
// panicking.
func checkFieldPath(fp *ast.FieldPath, owner string, inDecision bool) Diagnostics {
	if inDecision && isScoreAccumulatorIdent(fp) {
		return nil
	}
	ns := fp.Namespace()
	if ns == "params" {
		return Diagnostics{errDiag("semantic-analysis", KindUnresolvedNamespace, fp.Position(),
			"%s: unresolved params reference %q", owner, fp.String())}
	}
	if _, ok := execctx.NamespaceFromString(ns); !ok {
		return Diagnostics{errDiag("semantic-analysis", KindUnresolvedNamespace, fp.Position(),
			"%s: %q is not a valid namespace", owner, fp.String())}
	}
	return nil
}

// checkDecisionBlock validates the "at most one Default, and it is last"
// invariant spec.md §3.1 places on every decision-logic block (Ruleset and
// Pipeline alike), and walks each non-default rule's condition (reason
// templates are not walked).
func checkDecisionBlock(set *Set, owner string, rules []*ast.DecisionRule) Diagnostics {
	var diags Diagnostics
	defaults := 0
	for i, r := range rules {
		if r.Default {
			defaults++
			if i != len(rules)-1 {
				diags = append(diags, errDiag("semantic-analysis", KindMisplacedDefault, r.Position(),
					"%s: default decision rule must be last", owner))
			}
			continue
		}
		if r.Condition != nil {
			diags = append(diags, checkExprIn(set, owner, r.Condition, true)...)
		}
	}
	if defaults > 1 {
		diags = append(diags, errDiag("semantic-analysis", KindMisplacedDefault, rules[0].Position(),
			"%s: at most one default decision rule is allowed, found %d", owner, defaults))
	}
	return diags
}

// checkPipeline validates step-id uniqueness, DAG acyclicity, that entry
// and every next/route.next target a defined step, and recurses into the
// pipeline's own decision block and per-step condition/param expressions.
func checkPipeline(set *Set, id string, p *ast.Pipeline) Diagnostics {
	var diags Diagnostics

	seen := map[string]bool{}
	for _, s := range p.Steps {
		if seen[s.StepID()] {
			diags = append(diags, errDiag("semantic-analysis", KindDuplicateStepID, s.Position(),
				"pipeline %q: duplicate step id %q", id, s.StepID()))
		}
		seen[s.StepID()] = true
	}

	if p.Entry == "" || !seen[p.Entry] {
		diags = append(diags, errDiag("semantic-analysis", KindUnknownStepTarget, p.Position(),
			"pipeline %q: entry %q is not a defined step", id, p.Entry))
	}

	g := dag.New[stepNode]()
	for _, s := range p.Steps {
		g.AddNode(stepNode(s.StepID()))
	}
	checkTarget := func(s ast.Step, target string) {
		if target == "" {
			return
		}
		if !seen[target] {
			diags = append(diags, errDiag("semantic-analysis", KindUnknownStepTarget, s.Position(),
				"pipeline %q: step %q targets unknown step %q", id, s.StepID(), target))
			return
		}
		_ = g.AddEdge(stepNode(s.StepID()), stepNode(target))
	}

	for _, s := range p.Steps {
		owner := "pipeline " + id + " step " + s.StepID()
		checkTarget(s, s.NextID())
		switch st := s.(type) {
		case *ast.RouterStep:
			for _, route := range st.Routes {
				checkTarget(s, route.Next)
				diags = append(diags, checkConditionTree(set, owner, route.When)...)
			}
			checkTarget(s, st.Default)
		case *ast.ExtractStep:
			for _, feat := range st.Features {
				if _, ok := set.Features[feat]; !ok {
					diags = append(diags, errDiag("semantic-analysis", KindUnknownRef, s.Position(),
						"pipeline %q: step %q extracts unknown feature %q", id, s.StepID(), feat))
				}
			}
		case *ast.ApiStep:
			if _, ok := set.APIs[st.Api]; !ok {
				diags = append(diags, errDiag("semantic-analysis", KindUnknownRef, s.Position(),
					"pipeline %q: step %q references unknown api %q", id, s.StepID(), st.Api))
			}
			for _, e := range st.Params {
				diags = append(diags, checkExpr(set, owner, e)...)
			}
		case *ast.ServiceStep:
			if _, ok := set.APIs[st.Service]; !ok {
				diags = append(diags, errDiag("semantic-analysis", KindUnknownRef, s.Position(),
					"pipeline %q: step %q references unknown service %q", id, s.StepID(), st.Service))
			}
			for _, e := range st.Params {
				diags = append(diags, checkExpr(set, owner, e)...)
			}
		case *ast.RulesetStep:
			if _, ok := set.Rulesets[st.RulesetRef]; !ok {
				diags = append(diags, errDiag("semantic-analysis", KindUnknownRef, s.Position(),
					"pipeline %q: step %q references unknown ruleset %q", id, s.StepID(), st.RulesetRef))
			}
		}
	}

	if _, err := g.TopoSort(); err != nil {
		cycle := g.DetectFirstCycle()
		names := make([]string, len(cycle))
		for i, n := range cycle {
			names[i] = n.String()
		}
		diags = append(diags, errDiag("semantic-analysis", KindCircularImport, p.Position(),
			"pipeline %q: step graph has a cycle: %v", id, names))
	}

	diags = append(diags, checkDecisionBlock(set, "pipeline "+id, p.Decision)...)
	diags = append(diags, checkConditionTree(set, "pipeline "+id, p.When)...)

	return diags
}

// stepNode adapts a step id string to the fmt.Stringer dag.G[T] requires.
type stepNode string

func (s stepNode) String() string { return string(s) }
