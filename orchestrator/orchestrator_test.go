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

package orchestrator

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/corintai/corint-core/ast"
	"github.com/corintai/corint-core/compiler"
	"github.com/corintai/corint-core/execctx"
	"github.com/corintai/corint-core/external"
	"github.com/corintai/corint-core/feature"
	"github.com/corintai/corint-core/perch"
	"github.com/corintai/corint-core/repository"
	"github.com/corintai/corint-core/tokens"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func alwaysTrueCondition() *ast.ConditionTree {
	leaf := ast.NewBinaryExpression("==", ast.NewIntegerLiteral(1, tokens.Range{}), ast.NewIntegerLiteral(1, tokens.Range{}), tokens.Range{})
	return ast.NewLeafCondition(leaf, tokens.Range{})
}

func newOrchestrator(t *testing.T, set *compiler.Set, ectx *execctx.Context) *Orchestrator {
	t.Helper()
	ws := &repository.WorkingSet{Set: set, Versions: map[string]int64{}}
	progCache := perch.NewProgramCache(16)
	featureCache := perch.NewFeatureCache(16)
	caller := external.New(set.APIs, nil, nil)
	return New(ws, progCache, featureCache, map[string]feature.Querier{}, ectx, caller, true)
}

func emptySet() *compiler.Set {
	return &compiler.Set{
		Rules:       map[string]*ast.Rule{},
		Rulesets:    map[string]*ast.Ruleset{},
		Pipelines:   map[string]*ast.Pipeline{},
		Templates:   map[string]*ast.DecisionTemplate{},
		Registries:  map[string]*ast.Registry{},
		Features:    map[string]*ast.FeatureConfig{},
		Lists:       map[string]*ast.ListConfig{},
		APIs:        map[string]*ast.ApiConfig{},
		Datasources: map[string]*ast.DataSourceConfig{},
	}
}

func TestRunRulesetStepFeedsPipelineDecisionBlock(t *testing.T) {
	set := emptySet()

	rule := ast.NewRule(tokens.Range{})
	rule.ID = "r1"
	rule.When = alwaysTrueCondition()
	rule.Score = 50
	set.Rules["r1"] = rule

	rs := ast.NewRuleset(tokens.Range{})
	rs.ID = "login_risk"
	rs.Rules = []string{"r1"}
	set.Rulesets["login_risk"] = rs

	step := ast.NewRulesetStep("rs1", "", "login_risk", tokens.Range{})

	scoreGate := ast.NewBinaryExpression(">=",
		ast.NewFieldPath([]string{"results", "login_risk", "total_score"}, tokens.Range{}),
		ast.NewIntegerLiteral(50, tokens.Range{}), tokens.Range{})
	denyRule := ast.NewDecisionRule(tokens.Range{})
	denyRule.Condition = scoreGate
	denyRule.Action = ast.ActionDeny
	defaultRule := ast.NewDecisionRule(tokens.Range{})
	defaultRule.Default = true
	defaultRule.Action = ast.ActionApprove

	pipeline := ast.NewPipeline(tokens.Range{})
	pipeline.ID = "onboarding"
	pipeline.Entry = "rs1"
	pipeline.Steps = []ast.Step{step}
	pipeline.Decision = []*ast.DecisionRule{denyRule, defaultRule}
	set.Pipelines["onboarding"] = pipeline

	ectx := execctx.New("req-1", nil, nil, nil, time.Time{})
	orch := newOrchestrator(t, set, ectx)
	prog := compiler.CompilePipeline(pipeline)

	outcome, err := orch.Run(context.Background(), pipeline, prog)
	require.NoError(t, err)
	assert.Equal(t, "deny", outcome.Action)
	assert.Equal(t, int32(50), outcome.Score)
	assert.Contains(t, outcome.TriggeredRules, "r1")
	require.NotNil(t, outcome.Trace)
	assert.Equal(t, "deny", outcome.Trace.FinalAction)
	require.Len(t, outcome.Trace.Steps, 1)
	assert.Equal(t, "ruleset", outcome.Trace.Steps[0].Kind)
}

func TestRunFallsBackToDefaultApproveWithNoDecisionMatch(t *testing.T) {
	set := emptySet()
	pipeline := ast.NewPipeline(tokens.Range{})
	pipeline.ID = "empty_pipeline"
	pipeline.Entry = ""
	set.Pipelines["empty_pipeline"] = pipeline

	ectx := execctx.New("req-2", nil, nil, nil, time.Time{})
	orch := newOrchestrator(t, set, ectx)
	prog := compiler.CompilePipeline(pipeline)

	outcome, err := orch.Run(context.Background(), pipeline, prog)
	require.NoError(t, err)
	assert.Equal(t, "approve", outcome.Action)
	assert.Equal(t, "default approve", outcome.Reason)
}

func TestRunRouterStepPicksFirstMatchingRoute(t *testing.T) {
	set := emptySet()

	falseLeaf := ast.NewLeafCondition(
		ast.NewBinaryExpression("==", ast.NewIntegerLiteral(1, tokens.Range{}), ast.NewIntegerLiteral(2, tokens.Range{}), tokens.Range{}),
		tokens.Range{})
	trueLeaf := alwaysTrueCondition()

	router := ast.NewRouterStep("router1", "", []ast.Route{
		{When: falseLeaf, Next: "deny_action"},
		{When: trueLeaf, Next: "approve_action"},
	}, "", tokens.Range{})

	approveStep := ast.NewActionStep("approve_action", "", ast.ActionApprove, tokens.Range{})
	denyStep := ast.NewActionStep("deny_action", "", ast.ActionDeny, tokens.Range{})

	pipeline := ast.NewPipeline(tokens.Range{})
	pipeline.ID = "routed"
	pipeline.Entry = "router1"
	pipeline.Steps = []ast.Step{router, approveStep, denyStep}
	set.Pipelines["routed"] = pipeline

	ectx := execctx.New("req-3", nil, nil, nil, time.Time{})
	orch := newOrchestrator(t, set, ectx)
	prog := compiler.CompilePipeline(pipeline)

	outcome, err := orch.Run(context.Background(), pipeline, prog)
	require.NoError(t, err)
	assert.Equal(t, "approve", outcome.Action)
}

func TestRunRouterStepWithNoMatchAndNoDefaultErrorsNoRoute(t *testing.T) {
	set := emptySet()
	falseLeaf := ast.NewLeafCondition(
		ast.NewBinaryExpression("==", ast.NewIntegerLiteral(1, tokens.Range{}), ast.NewIntegerLiteral(2, tokens.Range{}), tokens.Range{}),
		tokens.Range{})
	router := ast.NewRouterStep("router1", "", []ast.Route{{When: falseLeaf, Next: "somewhere"}}, "", tokens.Range{})

	pipeline := ast.NewPipeline(tokens.Range{})
	pipeline.ID = "no_route"
	pipeline.Entry = "router1"
	pipeline.Steps = []ast.Step{router}
	set.Pipelines["no_route"] = pipeline

	ectx := execctx.New("req-4", nil, nil, nil, time.Time{})
	orch := newOrchestrator(t, set, ectx)
	prog := compiler.CompilePipeline(pipeline)

	_, err := orch.Run(context.Background(), pipeline, prog)
	require.Error(t, err)
}

func TestRunRouterStepReadsRulesetSignal(t *testing.T) {
	set := emptySet()

	rule := ast.NewRule(tokens.Range{})
	rule.ID = "flag_high_risk"
	rule.When = alwaysTrueCondition()
	rule.Score = 10
	set.Rules["flag_high_risk"] = rule

	reviewRule := ast.NewDecisionRule(tokens.Range{})
	reviewRule.Condition = ast.NewBinaryExpression(">=",
		ast.NewFieldPath([]string{"total_score"}, tokens.Range{}),
		ast.NewIntegerLiteral(10, tokens.Range{}), tokens.Range{})
	reviewRule.Action = ast.ActionReview
	defaultRule := ast.NewDecisionRule(tokens.Range{})
	defaultRule.Default = true
	defaultRule.Action = ast.ActionApprove

	rs := ast.NewRuleset(tokens.Range{})
	rs.ID = "risk_check"
	rs.Rules = []string{"flag_high_risk"}
	rs.DecisionLogic = []*ast.DecisionRule{reviewRule, defaultRule}
	set.Rulesets["risk_check"] = rs

	rulesetStep := ast.NewRulesetStep("rs1", "router1", "risk_check", tokens.Range{})

	signalMatch := ast.NewLeafCondition(
		ast.NewBinaryExpression("==",
			ast.NewFieldPath([]string{"results", "risk_check", "signal"}, tokens.Range{}),
			ast.NewStringLiteral("review", tokens.Range{}), tokens.Range{}),
		tokens.Range{})
	router := ast.NewRouterStep("router1", "", []ast.Route{
		{When: signalMatch, Next: "escalate"},
	}, "approve_action", tokens.Range{})

	escalateStep := ast.NewActionStep("escalate", "", ast.ActionReview, tokens.Range{})
	approveStep := ast.NewActionStep("approve_action", "", ast.ActionApprove, tokens.Range{})

	pipeline := ast.NewPipeline(tokens.Range{})
	pipeline.ID = "signal_routed"
	pipeline.Entry = "rs1"
	pipeline.Steps = []ast.Step{rulesetStep, router, escalateStep, approveStep}
	set.Pipelines["signal_routed"] = pipeline

	ectx := execctx.New("req-signal", nil, nil, nil, time.Time{})
	orch := newOrchestrator(t, set, ectx)
	prog := compiler.CompilePipeline(pipeline)

	outcome, err := orch.Run(context.Background(), pipeline, prog)
	require.NoError(t, err)
	assert.Equal(t, "review", outcome.Action)
}

func TestRunActionStepShortCircuitsBeforeDecisionBlock(t *testing.T) {
	set := emptySet()
	action := ast.NewActionStep("act1", "", ast.ActionChallenge, tokens.Range{})

	unreachableDefault := ast.NewDecisionRule(tokens.Range{})
	unreachableDefault.Default = true
	unreachableDefault.Action = ast.ActionApprove

	pipeline := ast.NewPipeline(tokens.Range{})
	pipeline.ID = "with_action"
	pipeline.Entry = "act1"
	pipeline.Steps = []ast.Step{action}
	pipeline.Decision = []*ast.DecisionRule{unreachableDefault}
	set.Pipelines["with_action"] = pipeline

	ectx := execctx.New("req-5", nil, nil, nil, time.Time{})
	orch := newOrchestrator(t, set, ectx)
	prog := compiler.CompilePipeline(pipeline)

	outcome, err := orch.Run(context.Background(), pipeline, prog)
	require.NoError(t, err)
	assert.Equal(t, "challenge", outcome.Action)
}

func TestRunApiStepWritesParsedResponseIntoApiNamespace(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"score": 7}`))
	}))
	defer srv.Close()

	set := emptySet()
	api := ast.NewApiConfig("scoring", tokens.Range{})
	api.BaseURL = srv.URL
	api.Endpoints["lookup"] = ast.EndpointConfig{Method: http.MethodGet, PathTemplate: "/score/{params.user_id}"}
	set.APIs["scoring"] = api

	userExpr := ast.NewStringLiteral("user-42", tokens.Range{})
	apiStep := ast.NewApiStep("api1", "", "scoring", "lookup", map[string]ast.Expression{"user_id": userExpr}, "scoring_result", tokens.Range{})

	pipeline := ast.NewPipeline(tokens.Range{})
	pipeline.ID = "with_api"
	pipeline.Entry = "api1"
	pipeline.Steps = []ast.Step{apiStep}
	set.Pipelines["with_api"] = pipeline

	ectx := execctx.New("req-6", nil, nil, nil, time.Time{})
	orch := newOrchestrator(t, set, ectx)
	prog := compiler.CompilePipeline(pipeline)

	outcome, err := orch.Run(context.Background(), pipeline, prog)
	require.NoError(t, err)
	assert.Equal(t, "approve", outcome.Action)

	v, err := ectx.Load(execctx.NamespaceAPI, []string{"scoring_result", "score"})
	require.NoError(t, err)
	assert.Equal(t, float64(7), v)
}

func TestRunExtractStepWritesFeaturesConcurrently(t *testing.T) {
	set := emptySet()

	exprA := ast.NewFeatureConfig("a", tokens.Range{})
	exprA.Kind = "expression"
	exprA.Expression = ast.NewIntegerLiteral(10, tokens.Range{})
	set.Features["a"] = exprA

	exprB := ast.NewFeatureConfig("b", tokens.Range{})
	exprB.Kind = "expression"
	exprB.Expression = ast.NewIntegerLiteral(20, tokens.Range{})
	set.Features["b"] = exprB

	extract := ast.NewExtractStep("extract1", "", []string{"a", "b"}, tokens.Range{})

	pipeline := ast.NewPipeline(tokens.Range{})
	pipeline.ID = "with_extract"
	pipeline.Entry = "extract1"
	pipeline.Steps = []ast.Step{extract}
	set.Pipelines["with_extract"] = pipeline

	ectx := execctx.New("req-7", nil, nil, nil, time.Time{})
	orch := newOrchestrator(t, set, ectx)
	prog := compiler.CompilePipeline(pipeline)

	outcome, err := orch.Run(context.Background(), pipeline, prog)
	require.NoError(t, err)
	assert.Equal(t, "approve", outcome.Action)

	va, err := ectx.Load(execctx.NamespaceFeatures, []string{"a"})
	require.NoError(t, err)
	assert.EqualValues(t, 10, va)
	vb, err := ectx.Load(execctx.NamespaceFeatures, []string{"b"})
	require.NoError(t, err)
	assert.EqualValues(t, 20, vb)
}

func TestRunUnknownStepIDErrors(t *testing.T) {
	set := emptySet()
	pipeline := ast.NewPipeline(tokens.Range{})
	pipeline.ID = "broken"
	pipeline.Entry = "missing_step"
	set.Pipelines["broken"] = pipeline

	ectx := execctx.New("req-8", nil, nil, nil, time.Time{})
	orch := newOrchestrator(t, set, ectx)
	prog := compiler.CompilePipeline(pipeline)

	_, err := orch.Run(context.Background(), pipeline, prog)
	require.Error(t, err)
}

func TestRunRulesetStepUnknownRulesetRefErrors(t *testing.T) {
	set := emptySet()
	step := ast.NewRulesetStep("rs1", "", "does_not_exist", tokens.Range{})
	pipeline := ast.NewPipeline(tokens.Range{})
	pipeline.ID = "bad_ref"
	pipeline.Entry = "rs1"
	pipeline.Steps = []ast.Step{step}
	set.Pipelines["bad_ref"] = pipeline

	ectx := execctx.New("req-9", nil, nil, nil, time.Time{})
	orch := newOrchestrator(t, set, ectx)
	prog := compiler.CompilePipeline(pipeline)

	_, err := orch.Run(context.Background(), pipeline, prog)
	require.Error(t, err)
}
