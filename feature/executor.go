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

// Package feature implements the Feature Executor (spec.md §4.5):
// resolves a feature_id to a concrete Value, with at-most-one concurrent
// computation per (feature_id, canonical_inputs) and a TTL cache in
// front of each resolution. It satisfies vm.FeatureCaller, and an
// expression-kind feature's own dependency evaluation loops back through
// the same Executor — the compile-time acyclicity Pass 5 already
// guarantees (spec.md §4.3) is what keeps that recursion finite.
package feature

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/corintai/corint-core/ast"
	"github.com/corintai/corint-core/bytecode"
	"github.com/corintai/corint-core/compiler"
	"github.com/corintai/corint-core/execctx"
	"github.com/corintai/corint-core/perch"
	"github.com/corintai/corint-core/tokens"
	"github.com/corintai/corint-core/vm"
	"github.com/corintai/corint-core/xerr"
)

// Executor resolves features for a single decision request: it is
// constructed fresh per request, bound to that request's Execution
// Context, and discarded with it (mirroring execctx.Context's own
// lifetime, spec.md §3.4).
type Executor struct {
	configs     map[string]*ast.FeatureConfig
	datasources map[string]*ast.DataSourceConfig
	drivers     map[string]Querier
	cache       *perch.FeatureCache
	ectx        *execctx.Context
}

// New builds an Executor over the repository's feature/datasource
// configs (typically compiler.Set.Features/Datasources), a driver
// registry keyed by DataSourceConfig.Driver, a process-wide feature
// cache, and the live request context expression-kind features and
// dimension/filter values are evaluated against.
func New(configs map[string]*ast.FeatureConfig, datasources map[string]*ast.DataSourceConfig, drivers map[string]Querier, cache *perch.FeatureCache, ectx *execctx.Context) *Executor {
	return &Executor{configs: configs, datasources: datasources, drivers: drivers, cache: cache, ectx: ectx}
}

// Feature implements vm.FeatureCaller. Like list.Service.Contains, the
// VM's synchronous opcode contract carries no context, so this uses a
// background one; FeatureContext is the context-aware entry point the
// orchestrator's Extract step uses directly.
func (e *Executor) Feature(featureID string) (bytecode.Value, error) {
	return e.FeatureContext(context.Background(), featureID)
}

func (e *Executor) FeatureContext(ctx context.Context, featureID string) (bytecode.Value, error) {
	cfg, ok := e.configs[featureID]
	if !ok {
		return nil, xerr.ErrRuntime("feature: unknown feature %q", featureID)
	}

	inputs, err := e.canonicalize(cfg)
	if err != nil {
		return nil, applyOnError(cfg.OnError, xerr.ErrExternal("feature:"+featureID, err))
	}

	v, err := e.cache.Get(ctx, featureID, inputs, cfg.TTL, func(ctx context.Context, _ string) (bytecode.Value, error) {
		return e.compute(ctx, cfg)
	})
	if err != nil {
		return applyOnError(cfg.OnError, xerr.ErrExternal("feature:"+featureID, err))
	}
	return v, nil
}

// applyOnError turns a resolution failure into the feature's configured
// recovery (spec.md §4.5 "Caller ... decides recovery per the feature's
// on_error"): this package is that caller, since vm.Exec itself treats
// any error from a FeatureCaller as immediately fatal (see vm.go's
// OpCallFeature case) rather than special-casing feature failures.
func applyOnError(policy ast.ErrorPolicy, err error) error {
	switch policy.Mode {
	case "skip":
		return nil
	case "fallback":
		return nil
	default:
		return err
	}
}

func (e *Executor) compute(ctx context.Context, cfg *ast.FeatureConfig) (bytecode.Value, error) {
	v, err := e.computeRaw(ctx, cfg)
	if err != nil && cfg.OnError.Mode == "fallback" {
		return cfg.OnError.FallbackValue, nil
	}
	if err != nil && cfg.OnError.Mode == "skip" {
		return nil, nil
	}
	return v, err
}

func (e *Executor) computeRaw(ctx context.Context, cfg *ast.FeatureConfig) (bytecode.Value, error) {
	switch cfg.Kind {
	case "expression":
		return e.evalExpr(cfg.ID, cfg.Expression)
	case "aggregation":
		return e.computeAggregation(ctx, cfg)
	case "lookup":
		return e.computeLookup(ctx, cfg)
	case "state", "sequence", "graph":
		return nil, xerr.ErrRuntime("feature: kind %q is reserved, not yet implemented", cfg.Kind)
	default:
		return nil, xerr.ErrRuntime("feature: unknown kind %q", cfg.Kind)
	}
}

func (e *Executor) computeAggregation(ctx context.Context, cfg *ast.FeatureConfig) (bytecode.Value, error) {
	spec := cfg.Aggregation
	ds, ok := e.datasources[cfg.Datasource]
	if !ok {
		return nil, xerr.ErrConfig(tokens.Range{}, "feature %q: unknown datasource %q", cfg.ID, cfg.Datasource)
	}
	driver, ok := e.drivers[ds.Driver]
	if !ok {
		return nil, xerr.ErrConfig(tokens.Range{}, "feature %q: no driver registered for datasource driver %q", cfg.ID, ds.Driver)
	}

	var dimValue bytecode.Value
	if spec.DimensionValue != nil {
		v, err := e.evalExpr(cfg.ID, spec.DimensionValue)
		if err != nil {
			return nil, err
		}
		dimValue = v
	}

	filters, err := e.canonicalizeFilters(cfg.ID, spec.Filters)
	if err != nil {
		return nil, err
	}

	q := Query{
		Kind:           spec.Op,
		Entity:         spec.Entity,
		Dimension:      spec.Dimension,
		DimensionValue: dimValue,
		Field:          spec.Field,
		Percentile:     spec.Percentile,
		Window:         e.resolveWindow(spec.Window),
		Filters:        filters,
	}
	return driver.Query(ctx, ds, q)
}

func (e *Executor) computeLookup(ctx context.Context, cfg *ast.FeatureConfig) (bytecode.Value, error) {
	ds, ok := e.datasources[cfg.Datasource]
	if !ok {
		return nil, xerr.ErrConfig(tokens.Range{}, "feature %q: unknown datasource %q", cfg.ID, cfg.Datasource)
	}
	driver, ok := e.drivers[ds.Driver]
	if !ok {
		return nil, xerr.ErrConfig(tokens.Range{}, "feature %q: no driver registered for datasource driver %q", cfg.ID, ds.Driver)
	}

	key, err := e.evalExpr(cfg.ID, cfg.Lookup.Key)
	if err != nil {
		return nil, err
	}
	return driver.Query(ctx, ds, Query{Kind: "lookup", LookupKey: key})
}

func (e *Executor) evalExpr(owner string, expr ast.Expression) (bytecode.Value, error) {
	prog := compiler.CompileExpr(owner, expr)
	res, err := vm.Exec(e.ectx, prog, vm.Deps{Features: e})
	if err != nil {
		return nil, err
	}
	return res.Value, nil
}

func (e *Executor) resolveWindow(spec ast.WindowSpec) Window {
	end := e.now(spec.Field)
	return Window{Start: end.Add(-spec.Duration), End: end}
}

func (e *Executor) now(field string) time.Time {
	if field == "" {
		return e.ectx.CreatedAt()
	}
	v, err := e.ectx.Load(execctx.NamespaceEvent, []string{field})
	if err != nil {
		return e.ectx.CreatedAt()
	}
	switch t := v.(type) {
	case time.Time:
		return t
	case int64:
		return time.Unix(t, 0).UTC()
	case string:
		if parsed, err := time.Parse(time.RFC3339, t); err == nil {
			return parsed
		}
	}
	return e.ectx.CreatedAt()
}

func (e *Executor) canonicalizeFilters(owner string, specs []ast.FilterSpec) ([]Filter, error) {
	out := make([]Filter, 0, len(specs))
	for _, spec := range specs {
		v, err := e.evalExpr(owner, spec.Value)
		if err != nil {
			return nil, err
		}
		out = append(out, Filter{Field: spec.Field, Op: spec.Op, Value: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Field != out[j].Field {
			return out[i].Field < out[j].Field
		}
		return out[i].Op < out[j].Op
	})
	return out, nil
}

// canonicalize builds the map hashed into this call's cache key
// (spec.md §4.5 step 2): the feature's kind plus whatever resolved,
// request-dependent inputs it depends on. Two requests that canonicalize
// to the same map share one cached value and one singleflight slot.
func (e *Executor) canonicalize(cfg *ast.FeatureConfig) (map[string]bytecode.Value, error) {
	inputs := map[string]bytecode.Value{"kind": cfg.Kind}
	switch cfg.Kind {
	case "aggregation":
		spec := cfg.Aggregation
		inputs["op"] = spec.Op
		inputs["entity"] = spec.Entity
		inputs["dimension"] = spec.Dimension
		inputs["field"] = spec.Field
		inputs["window_seconds"] = int64(spec.Window.Duration.Seconds())
		if spec.DimensionValue != nil {
			v, err := e.evalExpr(cfg.ID, spec.DimensionValue)
			if err != nil {
				return nil, err
			}
			inputs["dimension_value"] = v
		}
		filters, err := e.canonicalizeFilters(cfg.ID, spec.Filters)
		if err != nil {
			return nil, err
		}
		for i, f := range filters {
			inputs[filterKey(i, "field")] = f.Field
			inputs[filterKey(i, "op")] = f.Op
			inputs[filterKey(i, "value")] = f.Value
		}
	case "lookup":
		v, err := e.evalExpr(cfg.ID, cfg.Lookup.Key)
		if err != nil {
			return nil, err
		}
		inputs["key"] = v
	}
	return inputs, nil
}

func filterKey(i int, suffix string) string {
	return "filter_" + strconv.Itoa(i) + "_" + suffix
}
