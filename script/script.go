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

// Package script is the Script Registry (spec.md SPEC_FULL.md §C.1): a
// named set of small JS/TS transform snippets an Api step's endpoint can
// reference by name (ast.EndpointConfig.Transform) to reshape a parsed
// JSON response before it is written into `api.<output_name>`. Each named
// script compiles once to a goja.Program and runs against a pooled set of
// goja.Runtime instances, one acquired per call and released back when
// done — the same shape as the alias-module VM pool this is adapted from.
package script

import (
	"context"
	"fmt"

	"github.com/corintai/corint-core/bytecode"
	"github.com/corintai/corint-core/tokens"
	"github.com/corintai/corint-core/xerr"
	"github.com/dop251/goja"
	"github.com/evanw/esbuild/pkg/api"
	"github.com/fatih/structs"
	"github.com/jackc/puddle/v2"
)

var noPos tokens.Range

// Language selects which esbuild loader compiles a script's source before
// it is handed to goja.
type Language string

const (
	LanguageJS Language = "js"
	LanguageTS Language = "ts"
)

// Source is one named script registration: the raw text plus the
// language it's written in. Text is a function BODY — it runs as the
// body of `function(input) { <Text> }` with the parsed response bound to
// `input` — not a standalone module; a transform ends with `return
// <value>`.
type Source struct {
	Name string
	Text string
	Lang Language
}

// Script is one compiled Source: a reusable goja.Program plus a pool of
// goja.Runtime instances it can run against concurrently. Acquire a
// runtime per call, never share one across concurrent calls — goja
// Runtimes are not safe for concurrent use.
type script struct {
	name    string
	program *goja.Program
	pool    *puddle.Pool[*goja.Runtime]
}

// Registry holds every compiled Script, keyed by name, and satisfies
// external.Transformer so an Api step's endpoint.Transform resolves
// through it without the External Caller knowing anything about goja.
type Registry struct {
	poolSize int32
	scripts  map[string]*script
}

// NewRegistry builds an empty Registry. poolSize bounds how many
// goja.Runtime instances each registered script may keep warm
// concurrently; <= 0 defaults to 4.
func NewRegistry(poolSize int32) *Registry {
	if poolSize <= 0 {
		poolSize = 4
	}
	return &Registry{poolSize: poolSize, scripts: map[string]*script{}}
}

// Register compiles src and adds it under src.Name, replacing any
// previous script registered under that name (its pool is closed first,
// so in-flight calls against the old version finish but no new ones
// start against it).
func (r *Registry) Register(src Source) error {
	code := src.Text
	if src.Lang == LanguageTS {
		// No Format option: esbuild strips TS syntax (types, `as` casts)
		// and leaves the statement structure untouched, since src.Text is
		// a function body snippet, not a standalone module, and must
		// stay a bare `return ...` once transpiled so the function
		// wrapping below still makes it a valid function body.
		res := api.Transform(src.Text, api.TransformOptions{
			Loader: api.LoaderTS,
			Target: api.ES2019,
		})
		if len(res.Errors) > 0 {
			return xerr.ErrConfig(noPos, "script %q: esbuild: %s", src.Name, res.Errors[0].Text)
		}
		code = string(res.Code)
	}

	wrapped := "(function(input) {\n" + code + "\n})"
	program, err := goja.Compile(src.Name, wrapped, true)
	if err != nil {
		return xerr.ErrConfig(noPos, "script %q: compile: %s", src.Name, err)
	}

	pool, err := puddle.NewPool(&puddle.Config[*goja.Runtime]{
		Constructor: func(context.Context) (*goja.Runtime, error) {
			return goja.New(), nil
		},
		Destructor: func(rt *goja.Runtime) { rt.ClearInterrupt() },
		MaxSize:    r.poolSize,
	})
	if err != nil {
		return xerr.ErrInternal("script %q: building runtime pool: %s", src.Name, err)
	}

	if old, ok := r.scripts[src.Name]; ok {
		old.pool.Close()
	}
	r.scripts[src.Name] = &script{name: src.Name, program: program, pool: pool}
	return nil
}

// Transform implements external.Transformer: calls the named script's
// wrapped function body with input and returns its exported result; a
// result that is a Go struct is converted to a map with structs.Map.
func (r *Registry) Transform(ctx context.Context, name string, input bytecode.Value) (bytecode.Value, error) {
	s, ok := r.scripts[name]
	if !ok {
		return nil, xerr.ErrConfig(noPos, "script: unknown transform %q", name)
	}

	res, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, xerr.ErrExternal("script:"+name, err)
	}
	defer res.Release()

	rt := res.Value()
	fnVal, err := rt.RunProgram(s.program)
	if err != nil {
		return nil, xerr.ErrRuntime("script %q: %s", name, err)
	}
	fn, ok := goja.AssertFunction(fnVal)
	if !ok {
		return nil, xerr.ErrInternal("script %q: did not compile to a callable function", name)
	}

	done := make(chan struct{})
	rt.ClearInterrupt()
	go func() {
		select {
		case <-ctx.Done():
			rt.Interrupt(ctx.Err())
		case <-done:
		}
	}()
	defer close(done)

	out, err := fn(goja.Undefined(), rt.ToValue(input))
	if err != nil {
		return nil, xerr.ErrRuntime("script %q: %s", name, fmt.Errorf("%w", err))
	}

	result := out.Export()
	if structs.IsStruct(result) {
		result = structs.Map(result)
	}
	return result, nil
}

// Close releases every script's runtime pool. Call once at process
// shutdown; a Registry is not usable afterward.
func (r *Registry) Close() {
	for _, s := range r.scripts {
		s.pool.Close()
	}
}
