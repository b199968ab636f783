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

	"github.com/corintai/corint-core/bytecode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileRuleEmitsScoreAndTrigger(t *testing.T) {
	set := loadSet(t, `
rule:
  id: consecutive_failures
  when: features.failed_login_count_1h >= 5
  score: 80
`)
	prog := CompileRule(set.Rules["consecutive_failures"])
	require.NotNil(t, prog)
	assert.Equal(t, "rule", prog.Metadata.Kind)
	assert.Equal(t, "consecutive_failures", prog.Metadata.SourceID)

	var sawAddScore, sawMarkTriggered, sawJumpIfFalse bool
	for _, instr := range prog.Instructions {
		switch instr.Op {
		case bytecode.OpAddScore:
			sawAddScore = true
		case bytecode.OpMarkTriggered:
			sawMarkTriggered = true
			assert.Equal(t, "consecutive_failures", prog.Strings[instr.A])
		case bytecode.OpJumpIfFalse:
			sawJumpIfFalse = true
		}
	}
	assert.True(t, sawAddScore, "expected an AddScore instruction")
	assert.True(t, sawMarkTriggered, "expected a MarkTriggered instruction")
	assert.True(t, sawJumpIfFalse, "expected the condition to gate scoring with a jump")
	assert.Equal(t, bytecode.OpReturn, prog.Instructions[len(prog.Instructions)-1].Op)
}

func TestCompileRulesetInlinesRulesAndReadsTotalScore(t *testing.T) {
	set := loadSet(t, loginRiskYAML)
	prog := CompileRuleset(set, set.Rulesets["login_risk"])
	require.NotNil(t, prog)
	assert.Equal(t, "ruleset", prog.Metadata.Kind)
	assert.Equal(t, "login_risk", prog.Metadata.SourceID)

	var sawLoadTotalScore, sawSetAction, sawTerminate bool
	for _, instr := range prog.Instructions {
		switch instr.Op {
		case bytecode.OpLoadTotalScore:
			sawLoadTotalScore = true
		case bytecode.OpSetAction:
			sawSetAction = true
		case bytecode.OpTerminate:
			sawTerminate = true
		}
	}
	assert.True(t, sawLoadTotalScore, "bare total_score inside decision_logic should read the live accumulator")
	assert.True(t, sawSetAction, "expected at least one SetAction (deny or approve)")
	assert.True(t, sawTerminate, "the deny branch declares terminate: true")
}

func TestCompilePipelineEmitsDecisionBlock(t *testing.T) {
	set := loadSet(t, loginRiskYAML)
	prog := CompilePipeline(set.Pipelines["login_pipeline"])
	require.NotNil(t, prog)
	assert.Equal(t, "pipeline", prog.Metadata.Kind)
	assert.Equal(t, "login_pipeline", prog.Metadata.SourceID)

	var sawSetAction bool
	for _, instr := range prog.Instructions {
		if instr.Op == bytecode.OpSetAction {
			sawSetAction = true
		}
	}
	assert.True(t, sawSetAction)
}

func TestCompileConditionFoldsAllChildrenWithAnd(t *testing.T) {
	set := loadSet(t, `
rule:
  id: r1
  when: event.amount > 1000 && event.country == "US"
  score: 10
`)
	prog := CompileCondition("rule r1", set.Rules["r1"].When)
	require.NotNil(t, prog)
	assert.Equal(t, "condition", prog.Metadata.Kind)

	var sawAnd, sawGt, sawEq bool
	for _, instr := range prog.Instructions {
		switch instr.Op {
		case bytecode.OpAnd:
			sawAnd = true
		case bytecode.OpGt:
			sawGt = true
		case bytecode.OpEq:
			sawEq = true
		}
	}
	assert.True(t, sawGt)
	assert.True(t, sawEq)
	assert.True(t, sawAnd, "top-level && folds its leaves with And rather than a short-circuit jump")
}
