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

// Package repository is the uniform read/write/list abstraction over
// artifact source text (spec.md §4.1): every backend implements the same
// Repository interface keyed on (kind, id), so the compiler and the
// hot-reload path never know which one is behind them. This package
// provides two backends: File (a file tree) and InMemory.
package repository

import (
	"context"
	"time"

	"github.com/corintai/corint-core/rdl"
	"github.com/pkg/errors"
)

// Kind reuses rdl's tagged-kind enum directly: spec.md §4.1's kind set
// (rule, ruleset, template, pipeline, registry, feature, datasource, api,
// list) is exactly rdl.Kind's set once "template" is read as
// rdl.KindDecisionTemplate.
type Kind = rdl.Kind

// AllKinds enumerates every artifact kind a backend may be asked to List,
// in the fixed order LoadWorkingSet folds them into one working set.
var AllKinds = []Kind{
	rdl.KindRegistry,
	rdl.KindPipeline,
	rdl.KindRuleset,
	rdl.KindRule,
	rdl.KindDecisionTemplate,
	rdl.KindFeature,
	rdl.KindList,
	rdl.KindAPI,
	rdl.KindDatasource,
}

// ErrNotFound is returned by Load when (kind, id) has no stored text.
var ErrNotFound = errors.New("repository: artifact not found")

// VersionedText is one artifact's source text at the repository version it
// was read at (spec.md §3.3 invariant 8: source text is versioned,
// monotonically, per write).
type VersionedText struct {
	Text    string
	Version int64
	ModTime time.Time
}

// VersionChange is one (kind,id) version bump, delivered to Watch
// subscribers (spec.md §4.1 "watch(kind) -> stream<VersionChange>").
type VersionChange struct {
	Kind    Kind
	ID      string
	Version int64
	Deleted bool
}

// Repository is the backend contract spec.md §4.1 describes. Every method
// takes a context so a slow DB/HTTP backend can be cancelled the same way
// every other I/O-bound CORINT component is.
type Repository interface {
	Load(ctx context.Context, kind Kind, id string) (VersionedText, error)
	List(ctx context.Context, kind Kind) ([]string, error)
	Put(ctx context.Context, kind Kind, id string, text string) (int64, error)
	Delete(ctx context.Context, kind Kind, id string) error
}

// Watchable is the optional capability spec.md §4.1 calls out: a backend
// that can push version changes rather than make the orchestrator poll on a
// TTL. Not every Repository implements it.
type Watchable interface {
	Watch(ctx context.Context, kind Kind) (<-chan VersionChange, error)
}

// Stats are the cache statistics spec.md §4.1 calls for ("Statistics (hits,
// misses, evictions) exposed to observability").
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
}
