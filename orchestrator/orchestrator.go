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

// Package orchestrator implements the Pipeline Orchestrator (spec.md
// §4.8): it walks a Pipeline's step DAG from its Entry, dispatching each
// step to the Feature Executor, List Service, or External Caller as
// needed, then evaluates the pipeline's own compiled decision block over
// the accumulated Execution Context.
//
// The Compiler never lowers a whole Pipeline to one instruction stream:
// CompilePipeline only compiles the pipeline's top-level gate and decision
// block. Step-to-step control flow — which Ruleset program to run next,
// which Route a RouterStep takes, which features an ExtractStep
// resolves — is driven directly from Go, here, rather than by the VM.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/corintai/corint-core/ast"
	"github.com/corintai/corint-core/bytecode"
	"github.com/corintai/corint-core/compiler"
	"github.com/corintai/corint-core/execctx"
	"github.com/corintai/corint-core/external"
	"github.com/corintai/corint-core/feature"
	"github.com/corintai/corint-core/list"
	"github.com/corintai/corint-core/perch"
	"github.com/corintai/corint-core/rdl"
	"github.com/corintai/corint-core/repository"
	"github.com/corintai/corint-core/trace"
	"github.com/corintai/corint-core/vm"
	"github.com/corintai/corint-core/xerr"
	"golang.org/x/sync/errgroup"
)

// Outcome is everything a completed pipeline run hands back to the Engine
// Facade for DecisionResult assembly (spec.md §4.9).
type Outcome struct {
	Action         string
	Reason         string
	Actions        []string
	Score          int32
	TriggeredRules []string
	Trace          *trace.Pipeline
}

// Orchestrator drives one Pipeline's execution against one request's
// WorkingSet. It is constructed fresh per decide() call and discarded
// with the request's Execution Context (spec.md §3.4, §5 "Execution
// Context is not shared across threads"); the program cache, feature
// cache, and external HTTP client it's handed, by contrast, are
// process-wide and outlive any one request.
type Orchestrator struct {
	ws        *repository.WorkingSet
	progCache *perch.ProgramCache
	ectx      *execctx.Context
	features  *feature.Executor
	lists     *list.Service
	externals *external.Caller
	traceOn   bool
}

// New wires one request's dependencies together. drivers and
// featureCache back the Feature Executor and are expected to be
// constructed once per process and reused across requests (spec.md §5
// "Program cache and feature cache: concurrent-read, process lifetime").
func New(ws *repository.WorkingSet, progCache *perch.ProgramCache, featureCache *perch.FeatureCache, drivers map[string]feature.Querier, ectx *execctx.Context, externalCaller *external.Caller, traceOn bool) *Orchestrator {
	return &Orchestrator{
		ws:        ws,
		progCache: progCache,
		ectx:      ectx,
		features:  feature.New(ws.Set.Features, ws.Set.Datasources, drivers, featureCache, ectx),
		lists:     list.New(ws.Set.Lists),
		externals: externalCaller,
		traceOn:   traceOn,
	}
}

func (o *Orchestrator) deps() vm.Deps {
	return vm.Deps{Lists: o.lists, Features: o.features, Externals: o.externals}
}

// Run walks pipeline's step DAG starting at its Entry, then evaluates
// pipelineProgram — pipeline's own compiled gate+decision-block Program,
// obtained by the caller via repository.CompileFromSet with
// kind=rdl.KindPipeline (spec.md §4.8, §4.9 step 4).
func (o *Orchestrator) Run(ctx context.Context, pipeline *ast.Pipeline, pipelineProgram *bytecode.Program) (*Outcome, error) {
	var t *trace.Pipeline
	if o.traceOn {
		t = &trace.Pipeline{PipelineID: pipeline.ID}
	}

	var lastRulesetResult *execctx.RulesetResult

	stepID := pipeline.Entry
	visited := 0
	for stepID != "" {
		visited++
		if visited > 10_000 {
			return nil, xerr.ErrInternal("pipeline %q: step walk exceeded safety bound, probable cycle", pipeline.ID)
		}
		if dl, ok := o.ectx.Deadline(); ok && time.Now().After(dl) {
			return nil, xerr.ErrDeadlineExceeded(stepID)
		}
		if err := ctx.Err(); err != nil {
			return nil, xerr.ErrDeadlineExceeded(stepID)
		}

		step := pipeline.StepByID(stepID)
		if step == nil {
			return nil, xerr.ErrRuntime("pipeline %q: step %q not found", pipeline.ID, stepID)
		}

		stepNode := trace.Step{StepID: step.StepID(), Timestamp: time.Now()}

		next, finished, outcome, rr, err := o.runStep(ctx, pipeline, step, &stepNode)
		if err != nil {
			stepNode.Err = err.Error()
			if t != nil {
				t.Steps = append(t.Steps, stepNode)
				t.FinalAction = xerr.FailClosedAction(err)
			}
			return nil, err
		}
		if rr != nil {
			lastRulesetResult = rr
		}
		if t != nil {
			t.Steps = append(t.Steps, stepNode)
		}
		if finished {
			outcome.Trace = t
			if t != nil {
				t.FinalAction = outcome.Action
			}
			return outcome, nil
		}
		stepID = next
	}

	res, err := vm.Exec(o.ectx, pipelineProgram, o.deps())
	if err != nil {
		return nil, err
	}
	finalAction := res.Action
	finalReason := res.Reason
	if finalAction == "" {
		finalAction = string(ast.ActionApprove)
		finalReason = "default approve"
	}
	score := o.ectx.Score()
	var triggered []string
	if lastRulesetResult != nil {
		triggered = lastRulesetResult.TriggeredRules
	}
	if t != nil {
		t.FinalAction = finalAction
	}
	return &Outcome{
		Action:         finalAction,
		Reason:         finalReason,
		Actions:        res.Actions,
		Score:          score,
		TriggeredRules: triggered,
		Trace:          t,
	}, nil
}

// runStep dispatches one step. It returns (nextStepID, finished, outcome,
// rulesetResult, err): finished is true only for an ActionStep, which
// short-circuits the pipeline's own decision block entirely (spec.md
// §3.1 "Action{...} finalizes the decision immediately").
func (o *Orchestrator) runStep(ctx context.Context, pipeline *ast.Pipeline, step ast.Step, node *trace.Step) (string, bool, *Outcome, *execctx.RulesetResult, error) {
	switch s := step.(type) {
	case *ast.RulesetStep:
		node.Kind = "ruleset"
		rr, err := o.runRulesetStep(ctx, s, node)
		if err != nil {
			return "", false, nil, nil, err
		}
		node.NextStep = s.NextID()
		return s.NextID(), false, nil, rr, nil

	case *ast.RouterStep:
		node.Kind = "router"
		next, err := o.runRouterStep(s)
		if err != nil {
			return "", false, nil, nil, err
		}
		node.NextStep = next
		return next, false, nil, nil, nil

	case *ast.ExtractStep:
		node.Kind = "extract"
		if err := o.runExtractStep(ctx, s); err != nil {
			return "", false, nil, nil, err
		}
		node.NextStep = s.NextID()
		return s.NextID(), false, nil, nil, nil

	case *ast.ApiStep:
		node.Kind = "api"
		if err := o.runApiStep(ctx, s); err != nil {
			return "", false, nil, nil, err
		}
		node.NextStep = s.NextID()
		return s.NextID(), false, nil, nil, nil

	case *ast.ServiceStep:
		node.Kind = "service"
		if err := o.runServiceStep(ctx, s); err != nil {
			return "", false, nil, nil, err
		}
		node.NextStep = s.NextID()
		return s.NextID(), false, nil, nil, nil

	case *ast.ActionStep:
		node.Kind = "action"
		node.Detail = string(s.Action)
		return "", true, &Outcome{
			Action: string(s.Action),
			Reason: "action step " + s.StepID(),
			Score:  o.ectx.Score(),
		}, nil, nil

	default:
		return "", false, nil, nil, xerr.ErrInternal("pipeline %q: unknown step type %T at %q", pipeline.ID, step, step.StepID())
	}
}

// runRulesetStep compiles (through the program cache) and executes one
// Ruleset's program, resets the score accumulator first (rulesets do not
// share score state, spec.md §3.2 "reset at ruleset boundaries"), and
// stores a RulesetResult at `results.<ruleset_id>` for later steps and
// the trace to read.
func (o *Orchestrator) runRulesetStep(ctx context.Context, s *ast.RulesetStep, node *trace.Step) (*execctx.RulesetResult, error) {
	rs, ok := o.ws.Set.Rulesets[s.RulesetRef]
	if !ok {
		return nil, xerr.ErrRuntime("ruleset step %q: unknown ruleset %q", s.StepID(), s.RulesetRef)
	}

	prog, err := repository.CompileFromSet(ctx, o.progCache, o.ws, rdl.KindRuleset, s.RulesetRef)
	if err != nil {
		return nil, err
	}

	o.ectx.ResetScore()
	res, err := vm.Exec(o.ectx, prog, o.deps())
	if err != nil {
		return nil, err
	}

	rr := &execctx.RulesetResult{
		// Signal and Action carry the same ruleset-level outcome (spec.md
		// §3.1 "RulesetResult { signal | action, ... }") — Signal is the
		// name a later Router/decision step reads it under when the intent
		// is "this ruleset's own verdict", kept distinct from the final
		// pipeline action a later step may still override.
		Signal:         res.Action,
		Action:         res.Action,
		TotalScore:     o.ectx.Score(),
		Reason:         res.Reason,
		TriggeredRules: o.ectx.TriggeredRules(),
	}
	o.ectx.StoreResult(rs.ID, rr)

	if node != nil {
		node.Ruleset = &trace.Ruleset{
			RulesetID:      rs.ID,
			TotalScore:     rr.TotalScore,
			TriggeredRules: rr.TriggeredRules,
		}
		for _, ruleID := range rr.TriggeredRules {
			node.Ruleset.Rules = append(node.Ruleset.Rules, trace.Rule{RuleID: ruleID, Triggered: true})
		}
	}
	return rr, nil
}

// runRouterStep evaluates each Route's condition in order and returns the
// first match's Next, else Default, else xerr.ErrNoRoute (spec.md §3.1
// "first matching route wins").
func (o *Orchestrator) runRouterStep(s *ast.RouterStep) (string, error) {
	for i, route := range s.Routes {
		prog := compiler.CompileCondition(fmt.Sprintf("%s.route[%d]", s.StepID(), i), route.When)
		res, err := vm.Exec(o.ectx, prog, o.deps())
		if err != nil {
			return "", err
		}
		if ok, _ := bytecode.Truthy(res.Value); ok {
			return route.Next, nil
		}
	}
	if s.Default != "" {
		return s.Default, nil
	}
	return "", xerr.ErrNoRoute(s.StepID())
}

// runExtractStep resolves every named feature concurrently (spec.md §5
// "feature fan-out within an Extract step may run concurrently") and
// writes each into `features.<name>` only after every goroutine in the
// step has returned, so a mid-fan-out failure never leaves a partial
// write visible to the rest of the pipeline.
func (o *Orchestrator) runExtractStep(ctx context.Context, s *ast.ExtractStep) error {
	values := make([]bytecode.Value, len(s.Features))
	g, gctx := errgroup.WithContext(ctx)
	for i, featureID := range s.Features {
		i, featureID := i, featureID
		g.Go(func() error {
			v, err := o.features.FeatureContext(gctx, featureID)
			if err != nil {
				return xerr.ErrRuntime("extract step %q: feature %q: %s", s.StepID(), featureID, err)
			}
			values[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for i, featureID := range s.Features {
		if err := o.ectx.Store(execctx.NamespaceFeatures, featureID, values[i]); err != nil {
			return err
		}
	}
	return nil
}

// runApiStep evaluates Params against the live context, calls the named
// endpoint through the External Caller, and writes the parsed response to
// `api.<Output>` (spec.md §4.7, §3.1 "Api{...}").
func (o *Orchestrator) runApiStep(ctx context.Context, s *ast.ApiStep) error {
	params, err := o.evalParams(s.StepID(), s.Params)
	if err != nil {
		return err
	}
	sub := &substituter{ectx: o.ectx, params: params}
	v, err := o.externals.CallContext(ctx, s.Api, s.Endpoint, sub)
	if err != nil {
		return err
	}
	return o.ectx.Store(execctx.NamespaceAPI, s.Output, v)
}

// runServiceStep mirrors runApiStep but writes to `service.<Output>`
// (spec.md §3.1 "Service{...} ... shares an implementation with Api").
func (o *Orchestrator) runServiceStep(ctx context.Context, s *ast.ServiceStep) error {
	params, err := o.evalParams(s.StepID(), s.Params)
	if err != nil {
		return err
	}
	sub := &substituter{ectx: o.ectx, params: params}
	v, err := o.externals.CallContext(ctx, s.Service, s.Endpoint, sub)
	if err != nil {
		return err
	}
	return o.ectx.Store(execctx.NamespaceService, s.Output, v)
}

func (o *Orchestrator) evalParams(owner string, params map[string]ast.Expression) (map[string]bytecode.Value, error) {
	if len(params) == 0 {
		return nil, nil
	}
	out := make(map[string]bytecode.Value, len(params))
	for name, expr := range params {
		prog := compiler.CompileExpr(owner+".params."+name, expr)
		res, err := vm.Exec(o.ectx, prog, o.deps())
		if err != nil {
			return nil, err
		}
		out[name] = res.Value
	}
	return out, nil
}
