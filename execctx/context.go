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

package execctx

import (
	"math"
	"sync"
	"time"

	"github.com/corintai/corint-core/bytecode"
	"github.com/corintai/corint-core/xerr"
)

// RulesetResult is what the Orchestrator writes into `results.<ruleset_id>`
// after a Ruleset step completes (spec.md §3.2, §4.8).
type RulesetResult struct {
	Signal         string
	Action         string
	TotalScore     int32
	Reason         string
	TriggeredRules []string
}

// Context is the per-request Execution Context (spec.md §3.2). Constructed
// at the start of decide() and discarded after result emission; never
// shared across requests (spec.md §3.4, §5). The teacher's ExecutionContext
// guards every field behind one sync.RWMutex regardless of single-writer
// guarantees elsewhere in the system; this context keeps that same
// defensive-locking posture because an Extract step's concurrent feature
// fan-out (spec.md §5) does read this struct's RO namespaces from multiple
// goroutines even though writes stay confined to the orchestrator's task.
type Context struct {
	mu sync.RWMutex

	event    map[string]bytecode.Value
	features map[string]bytecode.Value
	api      map[string]bytecode.Value
	service  map[string]bytecode.Value
	vars     map[string]bytecode.Value
	sys      map[string]bytecode.Value
	env      map[string]bytecode.Value
	results  map[string]*RulesetResult

	score          int32
	triggeredRules []string
	lastResultID   string

	requestID string
	createdAt time.Time
	deadline  time.Time // zero means no deadline
}

// New constructs an Execution Context populated with the request event and
// engine-injected sys/env namespaces (spec.md §4.9 step 4); features, api,
// service, vars and results start empty and are filled in by steps as the
// Orchestrator walks the pipeline.
func New(requestID string, event, sys, env map[string]bytecode.Value, deadline time.Time) *Context {
	return &Context{
		event:          cloneMap(event),
		features:       map[string]bytecode.Value{},
		api:            map[string]bytecode.Value{},
		service:        map[string]bytecode.Value{},
		vars:           map[string]bytecode.Value{},
		sys:            cloneMap(sys),
		env:            cloneMap(env),
		results:        map[string]*RulesetResult{},
		requestID:      requestID,
		createdAt:      time.Now(),
		deadline:       deadline,
		triggeredRules: []string{},
	}
}

func cloneMap(m map[string]bytecode.Value) map[string]bytecode.Value {
	out := make(map[string]bytecode.Value, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (c *Context) RequestID() string   { return c.requestID }
func (c *Context) CreatedAt() time.Time { return c.createdAt }

// Deadline reports the request-level deadline and whether one was set
// (spec.md §5 "Cancellation & timeouts").
func (c *Context) Deadline() (time.Time, bool) {
	if c.deadline.IsZero() {
		return time.Time{}, false
	}
	return c.deadline, true
}

func (c *Context) namespaceMap(ns Namespace) (map[string]bytecode.Value, bool) {
	switch ns {
	case NamespaceEvent:
		return c.event, true
	case NamespaceFeatures:
		return c.features, true
	case NamespaceAPI:
		return c.api, true
	case NamespaceService:
		return c.service, true
	case NamespaceVars:
		return c.vars, true
	case NamespaceSys:
		return c.sys, true
	case NamespaceEnv:
		return c.env, true
	default:
		return nil, false
	}
}

// Load reads a dot-path within a namespace (spec.md §4.4 `LoadField`
// semantics). A missing leaf or a missing intermediate object returns Null,
// not an error, so `is null`/existence idioms work without a prior guard.
// `results` is handled separately by LoadResult/LoadResultField since it is
// keyed by ruleset id rather than a flat map.
func (c *Context) Load(ns Namespace, path []string) (bytecode.Value, error) {
	if ns == NamespaceResults {
		return c.loadResultPath(path)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	m, ok := c.namespaceMap(ns)
	if !ok {
		return nil, xerr.ErrInternal("unknown namespace %v", ns)
	}
	if len(path) == 0 {
		return nil, nil
	}

	var cur bytecode.Value = m[path[0]]
	for _, seg := range path[1:] {
		obj, ok := cur.(map[string]bytecode.Value)
		if !ok {
			return nil, nil // missing intermediate: conservative Null per spec.md §4.4
		}
		cur = obj[seg]
	}
	return cur, nil
}

// Store writes a single top-level name into a writable namespace. Callers
// (the compiler's Pass 5, and defensively the VM) must have already
// rejected writes to RO namespaces and namespaces the issuing step kind
// does not own (spec.md §3.3 invariant 1); Store itself only refuses
// namespaces that are never writable, as a last line of defense.
func (c *Context) Store(ns Namespace, name string, v bytecode.Value) error {
	if !ns.Writable() {
		return xerr.ErrInternal("store into read-only namespace %s", ns)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	m, _ := c.namespaceMap(ns)
	m[name] = v
	return nil
}

// StoreResult records a completed Ruleset step's result (spec.md §4.8). The
// Orchestrator calls this on its own task after the ruleset's program
// finishes executing — never concurrently with another write, preserving
// the single-writer discipline spec.md §5 requires.
func (c *Context) StoreResult(rulesetID string, r *RulesetResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results[rulesetID] = r
	c.lastResultID = rulesetID
}

func (c *Context) loadResultPath(path []string) (bytecode.Value, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(path) == 0 {
		return nil, nil
	}
	if len(path) == 1 {
		// Bare `results.field`: only legal after at least one ruleset step
		// has run, and always means "most-recent ruleset" (spec.md §9
		// "Result-namespace ambiguity").
		if c.lastResultID == "" {
			return nil, nil
		}
		return c.loadResultField(c.lastResultID, path[0]), nil
	}
	return c.loadResultField(path[0], path[1]), nil
}

func (c *Context) loadResultField(rulesetID, field string) bytecode.Value {
	r, ok := c.results[rulesetID]
	if !ok {
		return nil
	}
	switch field {
	case "signal":
		return r.Signal
	case "action":
		return r.Action
	case "total_score":
		return int64(r.TotalScore)
	case "reason":
		return r.Reason
	case "triggered_rules":
		out := make([]bytecode.Value, len(r.TriggeredRules))
		for i, v := range r.TriggeredRules {
			out[i] = v
		}
		return out
	default:
		return nil
	}
}

// AddScore accumulates a rule's score (spec.md §3.3 invariant 3), saturating
// at math.MaxInt32 rather than overflowing (spec.md §8.3 boundary
// behavior). saturated reports whether the add clamped, so the caller can
// record a trace warning.
func (c *Context) AddScore(delta int32) (saturated bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sum := int64(c.score) + int64(delta)
	if sum > math.MaxInt32 {
		c.score = math.MaxInt32
		return true
	}
	c.score = int32(sum)
	return false
}

// Score returns the current per-ruleset score accumulator.
func (c *Context) Score() int32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.score
}

// ResetScore zeroes the score accumulator at a ruleset boundary
// (spec.md §3.3 invariant 3: "reset at ruleset boundaries").
func (c *Context) ResetScore() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.score = 0
	c.triggeredRules = c.triggeredRules[:0]
}

// MarkTriggered appends a rule id to the triggered-rules accumulator,
// preserving source-evaluation order (spec.md §5 "Ordering guarantees").
func (c *Context) MarkTriggered(ruleID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.triggeredRules = append(c.triggeredRules, ruleID)
}

// TriggeredRules returns a snapshot of the rules triggered in the current
// ruleset execution.
func (c *Context) TriggeredRules() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.triggeredRules))
	copy(out, c.triggeredRules)
	return out
}

// Snapshot returns an immutable, independently-readable copy of the
// namespaces a concurrent feature computation is allowed to see
// (spec.md §5: "each concurrent feature computation receives an immutable
// snapshot of context inputs and returns a value; writes ... happen on the
// orchestrator's task after the join point"). The snapshot never includes
// `vars`/`api`/`service`/`results` writes made after it was taken.
func (c *Context) Snapshot() *Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return &Snapshot{
		event:    cloneMap(c.event),
		features: cloneMap(c.features),
		sys:      cloneMap(c.sys),
		env:      cloneMap(c.env),
	}
}

// Snapshot is a read-only, unsynchronized view handed to fanned-out feature
// computations; it is never mutated after construction.
type Snapshot struct {
	event    map[string]bytecode.Value
	features map[string]bytecode.Value
	sys      map[string]bytecode.Value
	env      map[string]bytecode.Value
}

func (s *Snapshot) Load(ns Namespace, path []string) bytecode.Value {
	var m map[string]bytecode.Value
	switch ns {
	case NamespaceEvent:
		m = s.event
	case NamespaceFeatures:
		m = s.features
	case NamespaceSys:
		m = s.sys
	case NamespaceEnv:
		m = s.env
	default:
		return nil
	}
	if len(path) == 0 {
		return nil
	}
	var cur bytecode.Value = m[path[0]]
	for _, seg := range path[1:] {
		obj, ok := cur.(map[string]bytecode.Value)
		if !ok {
			return nil
		}
		cur = obj[seg]
	}
	return cur
}
