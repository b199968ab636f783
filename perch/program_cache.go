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

package perch

import (
	"context"
	"fmt"
	"time"

	"github.com/corintai/corint-core/bytecode"
	"github.com/mitchellh/hashstructure/v2"
)

// ProgramCache caches compiled bytecode.Program values keyed on
// (kind, id, version bundle hash), so a rule/ruleset/pipeline is
// recompiled only when its own version or one of its transitively
// imported artifacts' versions changes (spec.md §3.4).
type ProgramCache struct {
	p   *Perch[*bytecode.Program]
	ttl time.Duration
}

// NewProgramCache builds a program cache with no expiry other than
// eviction by capacity; programs are invalidated explicitly via
// Invalidate when the repository reports a version bump, not by TTL.
func NewProgramCache(capacity int) *ProgramCache {
	return &ProgramCache{p: New[*bytecode.Program](capacity), ttl: 0}
}

// ProgramKey derives the cache key from an artifact's version bundle — the
// map of every (kind,id) folded into the compiled program, each pinned to
// the repository version seen at compile time.
func ProgramKey(kind, id string, versionBundle map[string]int64) (string, error) {
	h, err := hashstructure.Hash(versionBundle, hashstructure.FormatV2, nil)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:%s:%x", kind, id, h), nil
}

// Get returns the cached Program for (kind,id,versionBundle), compiling via
// compile on a miss. Concurrent callers for the same key block on the same
// in-flight compile rather than compiling redundantly (spec.md §5
// "Program compilation ... singleflight per artifact key").
func (c *ProgramCache) Get(ctx context.Context, kind, id string, versionBundle map[string]int64, compile Loader[*bytecode.Program]) (*bytecode.Program, error) {
	key, err := ProgramKey(kind, id, versionBundle)
	if err != nil {
		return nil, err
	}
	// A program cache entry never expires on its own — pass a TTL long
	// enough that Perch treats it as "always fresh" until Invalidate deletes it.
	return c.p.Get(ctx, key, 24*365*time.Hour, compile)
}

// Invalidate evicts the Program compiled for this exact version bundle,
// forcing the next Get to recompile (called when the repository reports a
// newer version for any artifact in the bundle).
func (c *ProgramCache) Invalidate(kind, id string, versionBundle map[string]int64) {
	key, err := ProgramKey(kind, id, versionBundle)
	if err != nil {
		return
	}
	c.p.Delete(key)
}
