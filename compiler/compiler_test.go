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
	"testing"

	"github.com/corintai/corint-core/rdl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const loginRiskYAML = `
rule:
  id: consecutive_failures
  name: Consecutive login failures
  when: features.failed_login_count_1h >= 5
  score: 80
---
ruleset:
  id: login_risk
  rules: [consecutive_failures]
  decision_logic:
    - when: total_score >= 80
      action: deny
      reason: "brute-force"
      terminate: true
    - default: true
      action: approve
---
pipeline:
  id: login_pipeline
  entry: risk_check
  steps:
    - ruleset:
        id: risk_check
        next: finish
        ruleset_id: login_risk
    - action:
        id: finish
        action: approve
---
registry:
  - pipeline_id: login_pipeline
    when: event.type == "login"
---
feature:
  id: failed_login_count_1h
  kind: aggregation
  datasource: auth_events
  aggregation:
    op: count
    entity: user_id
    window_seconds: 3600
---
datasource:
  id: auth_events
  driver: postgres
  dsn: "postgres://localhost/auth"
`

func loadSet(t *testing.T, yaml string) *Set {
	t.Helper()
	docs, err := rdl.LoadAll([]byte(yaml), "test.yaml")
	require.NoError(t, err)
	set, err := BuildSet(docs)
	require.NoError(t, err)
	return set
}

func TestCompileLoginRiskSucceeds(t *testing.T) {
	docs, err := rdl.LoadAll([]byte(loginRiskYAML), "login_risk.yaml")
	require.NoError(t, err)

	result, err := Compile(docs)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Contains(t, result.Set.Rules, "consecutive_failures")
	assert.Contains(t, result.Set.Rulesets, "login_risk")
	assert.Contains(t, result.Set.Pipelines, "login_pipeline")
}

func TestResolveImportsRejectsCycle(t *testing.T) {
	yaml := `
ruleset:
  id: a
  extends: b
  decision_logic:
    - default: true
      action: approve
---
ruleset:
  id: b
  rules: []
  decision_logic:
    - default: true
      action: approve
`
	set := loadSet(t, yaml)
	set.Rulesets["b"].Extends = "a" // force a cycle the fixture's YAML alone can't express

	diags := resolveImports(set)
	assert.True(t, diags.HasErrors())
}

func TestResolveInheritanceMergesRulesChildLast(t *testing.T) {
	yaml := `
rule:
  id: r1
  when: event.a == 1
  score: 10
---
rule:
  id: r2
  when: event.b == 2
  score: 20
---
ruleset:
  id: parent
  rules: [r1]
  decision_logic:
    - default: true
      action: approve
---
ruleset:
  id: child
  extends: parent
  rules: [r2]
  decision_logic:
    - default: true
      action: deny
`
	set := loadSet(t, yaml)
	diags := resolveInheritance(set)
	require.False(t, diags.HasErrors())
	assert.Equal(t, []string{"r1", "r2"}, set.Rulesets["child"].Rules)
}

func TestResolveInheritanceInheritsDecisionLogicWhenChildHasNone(t *testing.T) {
	yaml := `
ruleset:
  id: parent
  rules: []
  decision_logic:
    - default: true
      action: approve
---
ruleset:
  id: child
  extends: parent
  rules: []
`
	set := loadSet(t, yaml)
	diags := resolveInheritance(set)
	require.False(t, diags.HasErrors())
	require.Len(t, set.Rulesets["child"].DecisionLogic, 1)
	assert.True(t, set.Rulesets["child"].DecisionLogic[0].Default)
}

func TestResolveInheritanceDetectsCycle(t *testing.T) {
	yaml := `
ruleset:
  id: a
  extends: b
  rules: []
  decision_logic:
    - default: true
      action: approve
---
ruleset:
  id: b
  extends: a
  rules: []
  decision_logic:
    - default: true
      action: approve
`
	set := loadSet(t, yaml)
	diags := resolveInheritance(set)
	assert.True(t, diags.HasErrors())
}

func TestInlineParamsSubstitutesRuleParams(t *testing.T) {
	yaml := `
rule:
  id: over_threshold
  when: event.amount >= params.threshold
  score: 50
  params:
    threshold: 1000
`
	set := loadSet(t, yaml)
	diags := inlineParams(set)
	require.False(t, diags.HasErrors())

	leaf := set.Rules["over_threshold"].When
	require.Equal(t, "leaf", leaf.Kind)
	assert.NotContains(t, leaf.String(), "params.")
}

func TestInlineParamsErrorsOnUndefinedParam(t *testing.T) {
	yaml := `
rule:
  id: bad_rule
  when: event.amount >= params.threshold
  score: 50
`
	set := loadSet(t, yaml)
	diags := inlineParams(set)
	assert.True(t, diags.HasErrors())
}

func TestAnalyzeSemanticsRejectsUnknownListRef(t *testing.T) {
	yaml := `
rule:
  id: r1
  when: event.country in list denylist
  score: 10
`
	set := loadSet(t, yaml)
	diags := analyzeSemantics(set)
	assert.True(t, diags.HasErrors())
}

func TestAnalyzeSemanticsRejectsDuplicateStepID(t *testing.T) {
	yaml := `
pipeline:
  id: p
  entry: s1
  steps:
    - action:
        id: s1
        action: approve
    - action:
        id: s1
        action: deny
`
	set := loadSet(t, yaml)
	diags := checkPipeline(set, "p", set.Pipelines["p"])
	assert.True(t, diags.HasErrors())
}

func TestAnalyzeSemanticsRejectsUnknownNextTarget(t *testing.T) {
	yaml := `
pipeline:
  id: p
  entry: s1
  steps:
    - action:
        id: s1
        next: nowhere
        action: approve
`
	set := loadSet(t, yaml)
	diags := checkPipeline(set, "p", set.Pipelines["p"])
	assert.True(t, diags.HasErrors())
}

func TestAnalyzeSemanticsRejectsMisplacedDefault(t *testing.T) {
	yaml := `
ruleset:
  id: rs
  rules: []
  decision_logic:
    - default: true
      action: approve
    - when: event.a == 1
      action: deny
`
	set := loadSet(t, yaml)
	diags := checkDecisionBlock(set, "ruleset rs", set.Rulesets["rs"].DecisionLogic)
	assert.True(t, diags.HasErrors())
}

func TestCheckTypesRejectsArithmeticOnString(t *testing.T) {
	yaml := `
rule:
  id: r1
  when: ("a" - 1) == 0
  score: 10
`
	set := loadSet(t, yaml)
	diags := checkTypes(set)
	assert.True(t, diags.HasErrors())
}

func TestCheckTypesRejectsBadBuiltinArity(t *testing.T) {
	yaml := `
rule:
  id: r1
  when: lower("a", "b") == "a"
  score: 10
`
	set := loadSet(t, yaml)
	diags := checkTypes(set)
	assert.True(t, diags.HasErrors())
}

func TestCheckTypesRejectsReservedAction(t *testing.T) {
	yaml := `
rule:
  id: r1
  when: event.a == 1
  score: 10
  action: infer
`
	set := loadSet(t, yaml)
	diags := checkTypes(set)
	assert.True(t, diags.HasErrors())
}

func TestCompileReturnsCompileErrorWithAllDiagnostics(t *testing.T) {
	yaml := `
rule:
  id: r1
  when: event.amount >= params.threshold
  score: 10
`
	docs, err := rdl.LoadAll([]byte(yaml), "bad.yaml")
	require.NoError(t, err)

	_, err = Compile(docs)
	require.Error(t, err)
	var compileErr *CompileError
	require.ErrorAs(t, err, &compileErr)
	assert.True(t, compileErr.Diagnostics.HasErrors())
}
