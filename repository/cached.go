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

package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/corintai/corint-core/perch"
)

// Cached is the TTL cache layer spec.md §4.1 puts in front of any backend:
// "Cache key: (kind,id). On write, the writer invalidates the key and
// publishes a version bump." It wraps any Repository — file tree, DB,
// HTTP, or another InMemory — so every backend gets the same caching and
// Watch behavior for free, built on the same perch.Perch engine the
// Program and Feature caches use (see `## perch`).
type Cached struct {
	backend Repository
	cache   *perch.Perch[VersionedText]
	ttl     time.Duration

	hits, misses, evictions int64

	subsMu sync.Mutex
	subs   map[Kind][]chan VersionChange
}

// NewCached wraps backend with a bounded, TTL'd cache of capacity entries.
func NewCached(backend Repository, capacity int, ttl time.Duration) *Cached {
	return &Cached{
		backend: backend,
		cache:   perch.New[VersionedText](capacity),
		ttl:     ttl,
		subs:    make(map[Kind][]chan VersionChange),
	}
}

func cacheKey(kind Kind, id string) string { return string(kind) + ":" + id }

func (c *Cached) Load(ctx context.Context, kind Kind, id string) (VersionedText, error) {
	key := cacheKey(kind, id)
	if v, ok := c.cache.Peek(key); ok {
		atomic.AddInt64(&c.hits, 1)
		return v, nil
	}
	atomic.AddInt64(&c.misses, 1)
	return c.cache.Get(ctx, key, c.ttl, func(ctx context.Context, _ string) (VersionedText, error) {
		return c.backend.Load(ctx, kind, id)
	})
}

// List is never cached: spec.md's cache key is (kind,id), not kind alone,
// and the id set changes exactly when Put/Delete already invalidate the
// backend's own index, so List always asks the backend directly.
func (c *Cached) List(ctx context.Context, kind Kind) ([]string, error) {
	return c.backend.List(ctx, kind)
}

func (c *Cached) Put(ctx context.Context, kind Kind, id string, text string) (int64, error) {
	ver, err := c.backend.Put(ctx, kind, id, text)
	if err != nil {
		return 0, err
	}
	c.invalidate(kind, id)
	c.publish(VersionChange{Kind: kind, ID: id, Version: ver})
	return ver, nil
}

func (c *Cached) Delete(ctx context.Context, kind Kind, id string) error {
	if err := c.backend.Delete(ctx, kind, id); err != nil {
		return err
	}
	c.invalidate(kind, id)
	c.publish(VersionChange{Kind: kind, ID: id, Deleted: true})
	return nil
}

func (c *Cached) invalidate(kind Kind, id string) {
	c.cache.Delete(cacheKey(kind, id))
	atomic.AddInt64(&c.evictions, 1)
}

// Stats returns a snapshot of this cache's hit/miss/eviction counters
// (spec.md §4.1 "Statistics ... exposed to observability").
func (c *Cached) Stats() Stats {
	return Stats{
		Hits:      atomic.LoadInt64(&c.hits),
		Misses:    atomic.LoadInt64(&c.misses),
		Evictions: atomic.LoadInt64(&c.evictions),
	}
}

// Watch is satisfied by Cached itself regardless of whether the wrapped
// backend implements Watchable: every version change reaching a reader of
// this Cached instance goes through Put/Delete here, so publishing at this
// layer observes everything this process writes. A change made directly
// against the backend by another process is invisible until this cache's
// TTL expires and re-reads it — the documented fallback spec.md §4.1 itself
// describes ("if absent, orchestrator relies on TTL").
func (c *Cached) Watch(ctx context.Context, kind Kind) (<-chan VersionChange, error) {
	ch := make(chan VersionChange, 16)
	c.subsMu.Lock()
	c.subs[kind] = append(c.subs[kind], ch)
	c.subsMu.Unlock()

	go func() {
		<-ctx.Done()
		c.subsMu.Lock()
		defer c.subsMu.Unlock()
		subs := c.subs[kind]
		for i, existing := range subs {
			if existing == ch {
				c.subs[kind] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		close(ch)
	}()
	return ch, nil
}

func (c *Cached) publish(change VersionChange) {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	for _, ch := range c.subs[change.Kind] {
		select {
		case ch <- change:
		default:
		}
	}
}

var _ Repository = (*Cached)(nil)
var _ Watchable = (*Cached)(nil)
