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

// Package list implements the List Service (spec.md §4.6): a uniform
// membership API over named blocklists/allowlists, backed by whichever
// store a ListConfig names. It satisfies vm.ListChecker so a compiled
// Program's `in list`/`not in list` expressions resolve through it.
package list

import (
	"context"
	"fmt"
	"strings"

	"github.com/corintai/corint-core/ast"
	"github.com/corintai/corint-core/bytecode"
	"github.com/corintai/corint-core/tokens"
	"github.com/corintai/corint-core/xerr"
)

// Backend is one list's membership store. Contains receives the value
// lowercased when the owning list's config sets CaseNormalize, and
// otherwise unchanged; it is not trimmed.
type Backend interface {
	Contains(ctx context.Context, value string) (bool, error)
}

// Service resolves a list_id against its ast.ListConfig and dispatches to
// the backend registered for that config's Backend kind.
type Service struct {
	configs  map[string]*ast.ListConfig
	backends map[string]Backend // list id -> constructed backend
	builders map[string]func(*ast.ListConfig) (Backend, error)
}

// New builds a Service over the given list configs (typically
// compiler.Set.Lists). Backend construction is lazy: a config whose
// backend is never queried by a running program never pays for it.
func New(configs map[string]*ast.ListConfig) *Service {
	s := &Service{
		configs:  configs,
		backends: make(map[string]Backend),
	}
	s.builders = map[string]func(*ast.ListConfig) (Backend, error){
		"memory": newMemoryBackend,
		"file":   newFileBackend,
		"db":     newUnsupportedBackend("db"),
		"redis":  newUnsupportedBackend("redis"),
	}
	return s
}

// Contains implements vm.ListChecker. The VM's synchronous interface has
// no ctx parameter (spec.md §4.4's opcode contract); a background context
// is used here, matching the teacher's executor pattern of letting only
// the outermost request carry cancellation and treating list lookups,
// like builtins, as bounded local work.
func (s *Service) Contains(listID string, value bytecode.Value) (bool, error) {
	return s.ContainsContext(context.Background(), listID, value)
}

// ContainsContext is the context-aware entry point the orchestrator uses
// directly when it wants list lookups to respect the request deadline.
func (s *Service) ContainsContext(ctx context.Context, listID string, value bytecode.Value) (bool, error) {
	cfg, ok := s.configs[listID]
	if !ok {
		return false, xerr.ErrConfig(tokens.Range{}, "list: unknown list %q", listID)
	}

	backend, err := s.backendFor(cfg)
	if err != nil {
		return false, xerr.ErrExternal("list:"+listID, err)
	}

	normalized := normalize(cfg, stringify(value))
	found, err := backend.Contains(ctx, normalized)
	if err != nil {
		return false, xerr.ErrExternal("list:"+listID, err)
	}
	return found, nil
}

func (s *Service) backendFor(cfg *ast.ListConfig) (Backend, error) {
	if b, ok := s.backends[cfg.ID]; ok {
		return b, nil
	}
	build, ok := s.builders[cfg.Backend]
	if !ok {
		return nil, fmt.Errorf("list: unknown backend kind %q", cfg.Backend)
	}
	b, err := build(cfg)
	if err != nil {
		return nil, err
	}
	s.backends[cfg.ID] = b
	return b, nil
}

func stringify(v bytecode.Value) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", t)
	}
}

func normalize(cfg *ast.ListConfig, value string) string {
	if cfg.CaseNormalize {
		value = strings.ToLower(value)
	}
	return value
}

func newUnsupportedBackend(kind string) func(*ast.ListConfig) (Backend, error) {
	return func(cfg *ast.ListConfig) (Backend, error) {
		return nil, fmt.Errorf("list: backend %q not available in this build (list %q)", kind, cfg.ID)
	}
}
