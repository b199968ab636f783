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

// Package engine is the Engine Facade (spec.md §4.9): the single
// `Decide` entry point every transport (the CLI and the `api` HTTP
// server) calls into. It validates a request, resolves which pipeline
// handles it via the Registry, compiles and runs that pipeline through
// the Orchestrator, and assembles the final DecisionResult.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/corintai/corint-core/ast"
	"github.com/corintai/corint-core/bytecode"
	"github.com/corintai/corint-core/compiler"
	"github.com/corintai/corint-core/execctx"
	"github.com/corintai/corint-core/external"
	"github.com/corintai/corint-core/feature"
	"github.com/corintai/corint-core/orchestrator"
	"github.com/corintai/corint-core/perch"
	"github.com/corintai/corint-core/rdl"
	"github.com/corintai/corint-core/repository"
	"github.com/corintai/corint-core/script"
	"github.com/corintai/corint-core/tokens"
	"github.com/corintai/corint-core/trace"
	"github.com/corintai/corint-core/vm"
	"github.com/corintai/corint-core/xerr"
)

// DecisionRequest is the Engine Facade's input (spec.md §6.2).
type DecisionRequest struct {
	Event      map[string]bytecode.Value
	Metadata   map[string]any
	DeadlineMS uint32
	RequestID  string
}

// DecisionResult is the Engine Facade's output (spec.md §6.2). Trace is
// nil unless the Engine was constructed with tracing enabled.
type DecisionResult struct {
	Action          string
	Score           int32
	TriggeredRules  []string
	Actions         []string
	Reason          string
	RequestID       string
	ExecutionTimeMS int64
	Trace           *trace.Pipeline
}

// reservedEventKey matches event field names spec.md §3.3 invariant 1
// rejects at ingress: the namespace-prefix squat patterns plus the two
// accumulator field names a malicious or buggy caller could otherwise
// smuggle values into.
var reservedEventKeyPrefix = regexp.MustCompile(`^(sys_|features_|api_|service_|llm_)`)

func isReservedEventKey(key string) bool {
	if reservedEventKeyPrefix.MatchString(key) {
		return true
	}
	return key == "total_score" || key == "triggered_rules"
}

// Engine wires the process-wide, request-spanning collaborators together:
// the repository, the program and feature caches, the feature driver
// registry, and the HTTP client External steps share. A fresh
// Orchestrator, Execution Context, and external.Caller are built per
// request (spec.md §3.4 "Execution Context ... never shared across
// requests").
type Engine struct {
	repo         repository.Repository
	progCache    *perch.ProgramCache
	featureCache *perch.FeatureCache
	drivers      map[string]feature.Querier
	httpClient   *http.Client
	log          *slog.Logger
	env          map[string]bytecode.Value
	traceEnabled bool
	sem          chan struct{}
	scripts      *script.Registry
}

// Config bundles Engine's construction-time dependencies.
type Config struct {
	Repo         repository.Repository
	ProgramCache *perch.ProgramCache
	FeatureCache *perch.FeatureCache
	Drivers      map[string]feature.Querier
	HTTPClient   *http.Client
	Log          *slog.Logger
	Env          map[string]bytecode.Value // resolves `${NAME}` placeholders in API/datasource configs, spec.md §6.5
	MaxInFlight  int                       // <= 0 means unbounded, spec.md §5 "Backpressure"
	TraceEnabled bool
	Scripts      []script.Source // Api-step response transforms, keyed by EndpointConfig.Transform
}

// New builds an Engine. Sensible defaults stand in for every optional
// Config field left zero. Returns an error only if a Config.Scripts entry
// fails to compile.
func New(cfg Config) (*Engine, error) {
	if cfg.ProgramCache == nil {
		cfg.ProgramCache = perch.NewProgramCache(256)
	}
	if cfg.FeatureCache == nil {
		cfg.FeatureCache = perch.NewFeatureCache(256)
	}
	if cfg.Drivers == nil {
		cfg.Drivers = map[string]feature.Querier{}
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	scripts := script.NewRegistry(4)
	for _, src := range cfg.Scripts {
		if err := scripts.Register(src); err != nil {
			return nil, err
		}
	}
	e := &Engine{
		repo:         cfg.Repo,
		progCache:    cfg.ProgramCache,
		featureCache: cfg.FeatureCache,
		drivers:      cfg.Drivers,
		httpClient:   cfg.HTTPClient,
		log:          cfg.Log,
		env:          cfg.Env,
		traceEnabled: cfg.TraceEnabled,
		scripts:      scripts,
	}
	if cfg.MaxInFlight > 0 {
		e.sem = make(chan struct{}, cfg.MaxInFlight)
	}
	return e, nil
}

// Decide runs spec.md §4.9's six steps end to end.
func (e *Engine) Decide(ctx context.Context, req DecisionRequest) (*DecisionResult, error) {
	start := time.Now()

	if e.sem != nil {
		select {
		case e.sem <- struct{}{}:
			defer func() { <-e.sem }()
		default:
			return nil, xerr.ErrBusy()
		}
	}

	requestID := req.RequestID
	if requestID == "" {
		requestID = syntheticRequestID(start)
	}

	// Step 1: reserved-fields policy.
	for key := range req.Event {
		if isReservedEventKey(key) {
			return nil, xerr.ErrInput("event field %q uses a reserved name", key)
		}
	}

	deadline := time.Time{}
	if req.DeadlineMS > 0 {
		deadline = start.Add(time.Duration(req.DeadlineMS) * time.Millisecond)
		var cancel context.CancelFunc
		ctx, cancel = context.WithDeadline(ctx, deadline)
		defer cancel()
	}

	ws, err := repository.LoadWorkingSet(ctx, e.repo)
	if err != nil {
		return nil, err
	}

	// Step 2: Registry match. Registries always parse to the singleton
	// id "" (rdl/registry.go's buildRegistry).
	registry, ok := ws.Set.Registries[""]
	if !ok {
		return nil, xerr.ErrConfig(noPos, "engine: no registry configured")
	}
	pipelineID, err := matchRegistry(registry, req.Event)
	if err != nil {
		// A registry miss is the same "no route selected" shape as a
		// Router step's NoRoute (spec.md §4.1 "Router step ... If
		// neither, the orchestrator emits PipelineError::NoRoute"); fail
		// closed rather than propagate, per §7 "User-visible behavior".
		return e.failClosed(err, requestID, start, 0, nil, nil), nil
	}
	pipeline, ok := ws.Set.Pipelines[pipelineID]
	if !ok {
		return nil, xerr.ErrConfig(noPos, "engine: registry routed to unknown pipeline %q", pipelineID)
	}

	// Step 3: compile that pipeline's own gate+decision-block Program.
	pipelineProg, err := repository.CompileFromSet(ctx, e.progCache, ws, rdl.KindPipeline, pipelineID)
	if err != nil {
		return nil, err
	}

	// Step 4: construct the real Execution Context.
	sysVars := map[string]bytecode.Value{
		"timestamp":    start.Unix(),
		"timestamp_ms": start.UnixMilli(),
	}
	ectx := execctx.New(requestID, req.Event, sysVars, e.env, deadline)

	// Step 5: invoke the Pipeline Orchestrator.
	caller := external.New(resolveAPIEnv(ws.Set.APIs, e.env), e.httpClient, e.log, external.WithTransformer(e.scripts))
	orch := orchestrator.New(ws, e.progCache, e.featureCache, e.drivers, ectx, caller, e.traceEnabled)

	outcome, err := orch.Run(ctx, pipeline, pipelineProg)
	if err != nil {
		var inputErr xerr.InputError
		var cfgErr xerr.ConfigError
		if errors.As(err, &inputErr) || errors.As(err, &cfgErr) {
			return nil, err
		}
		// Every other error class gets a fail-closed DecisionResult
		// instead of propagating as a Go error: RuntimeError,
		// ExternalError, DeadlineExceeded, NoRoute, and Internal are all
		// still legitimate (if degraded) decisions under spec.md §7
		// "Propagation policy" ("short-circuit to a deny/review").
		return e.failClosed(err, requestID, start, ectx.Score(), ectx.TriggeredRules(), nil), nil
	}

	// Step 6: assemble the final DecisionResult.
	return &DecisionResult{
		Action:          outcome.Action,
		Score:           outcome.Score,
		TriggeredRules:  outcome.TriggeredRules,
		Actions:         outcome.Actions,
		Reason:          outcome.Reason,
		RequestID:       requestID,
		ExecutionTimeMS: time.Since(start).Milliseconds(),
		Trace:           outcome.Trace,
	}, nil
}

// failClosed builds the DecisionResult a decide() call returns when an
// error aborts a decision after input validation, per spec.md §7
// "User-visible behavior": a fail-closed action and a reason naming the
// error class, never the raw message.
func (e *Engine) failClosed(err error, requestID string, start time.Time, score int32, triggeredRules []string, t *trace.Pipeline) *DecisionResult {
	reason := "internal error"
	switch {
	case errors.As(err, new(xerr.InputError)):
		reason = "input error"
	case errors.As(err, new(xerr.ConfigError)):
		reason = "config error"
	case errors.As(err, new(xerr.RuntimeError)):
		reason = "runtime error"
	case errors.As(err, new(xerr.DeadlineExceeded)):
		reason = "deadline exceeded"
	case errors.As(err, new(xerr.ExternalError)):
		reason = "external error"
	case errors.As(err, new(xerr.NoRoute)):
		reason = "no route"
	}
	return &DecisionResult{
		Action:          xerr.FailClosedAction(err),
		Score:           score,
		TriggeredRules:  triggeredRules,
		Reason:          reason,
		RequestID:       requestID,
		ExecutionTimeMS: time.Since(start).Milliseconds(),
		Trace:           t,
	}
}

// matchRegistry evaluates registry entries top-down against a throwaway
// Execution Context populated with only the request's event, per spec.md
// §4.9 step 2 ("evaluate its entries in order against request.event"),
// which precedes the real Execution Context's construction in step 4.
func matchRegistry(registry *ast.Registry, event map[string]bytecode.Value) (string, error) {
	matchCtx := execctx.New("registry-match", event, nil, nil, time.Time{})
	for i, entry := range registry.Entries {
		prog := compiler.CompileCondition(registryEntryLabel(i), entry.When)
		res, err := vm.Exec(matchCtx, prog, vm.Deps{})
		if err != nil {
			return "", err
		}
		if ok, _ := bytecode.Truthy(res.Value); ok {
			return entry.PipelineID, nil
		}
	}
	return "", xerr.ErrNoRoute("registry")
}

func registryEntryLabel(i int) string {
	return "registry.entry[" + strconv.Itoa(i) + "]"
}

func syntheticRequestID(t time.Time) string {
	return "req-" + t.UTC().Format("20060102T150405.000000000Z")
}

// resolveAPIEnv returns apis with every `${NAME}` placeholder in BaseURL
// and per-endpoint Auth.Value substituted from env (spec.md §6.5
// "substitution happens at datasource-client construction time"). The
// working set is rebuilt fresh every request (repository.LoadWorkingSet's
// own documented design choice), so there is no longer-lived client
// construction point to hang this on; substituting once per request,
// immediately before building this request's external.Caller, is the
// closest equivalent available without introducing a second, independently
// cached copy of the API configs.
func resolveAPIEnv(apis map[string]*ast.ApiConfig, env map[string]bytecode.Value) map[string]*ast.ApiConfig {
	if len(env) == 0 {
		return apis
	}
	out := make(map[string]*ast.ApiConfig, len(apis))
	for id, api := range apis {
		clone := *api
		clone.BaseURL = substituteEnv(api.BaseURL, env)
		clone.Endpoints = make(map[string]ast.EndpointConfig, len(api.Endpoints))
		for epID, ep := range api.Endpoints {
			if ep.Auth != nil {
				authClone := *ep.Auth
				authClone.Value = substituteEnv(ep.Auth.Value, env)
				ep.Auth = &authClone
			}
			clone.Endpoints[epID] = ep
		}
		out[id] = &clone
	}
	return out
}

var envPlaceholderPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

func substituteEnv(s string, env map[string]bytecode.Value) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return envPlaceholderPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := match[2 : len(match)-1]
		if v, ok := env[name]; ok {
			if str, ok := v.(string); ok {
				return str
			}
		}
		return match
	})
}

var noPos tokens.Range
