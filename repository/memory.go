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
	"time"

	"github.com/pkg/errors"
)

// InMemory is the backend spec.md §4.1 names for tests and WASM: no disk,
// no network, a plain map guarded by a mutex. Every write bumps a single
// package-wide-per-instance monotonic counter, never reused even across a
// delete-then-recreate of the same (kind,id), so a stale cache entry can
// never alias a newer artifact under the same version number.
type InMemory struct {
	mu      sync.RWMutex
	entries map[Kind]map[string]VersionedText
	nextVer int64

	subsMu sync.Mutex
	subs   map[Kind][]chan VersionChange
}

// NewInMemory returns an empty in-memory repository.
func NewInMemory() *InMemory {
	return &InMemory{
		entries: make(map[Kind]map[string]VersionedText),
		subs:    make(map[Kind][]chan VersionChange),
	}
}

func (m *InMemory) Load(_ context.Context, kind Kind, id string) (VersionedText, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	byID, ok := m.entries[kind]
	if !ok {
		return VersionedText{}, errors.Wrapf(ErrNotFound, "%s/%s", kind, id)
	}
	v, ok := byID[id]
	if !ok {
		return VersionedText{}, errors.Wrapf(ErrNotFound, "%s/%s", kind, id)
	}
	return v, nil
}

func (m *InMemory) List(_ context.Context, kind Kind) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	byID := m.entries[kind]
	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *InMemory) Put(_ context.Context, kind Kind, id string, text string) (int64, error) {
	m.mu.Lock()
	m.nextVer++
	ver := m.nextVer
	byID, ok := m.entries[kind]
	if !ok {
		byID = make(map[string]VersionedText)
		m.entries[kind] = byID
	}
	byID[id] = VersionedText{Text: text, Version: ver, ModTime: time.Now()}
	m.mu.Unlock()

	m.publish(VersionChange{Kind: kind, ID: id, Version: ver})
	return ver, nil
}

func (m *InMemory) Delete(_ context.Context, kind Kind, id string) error {
	m.mu.Lock()
	byID, ok := m.entries[kind]
	if !ok {
		m.mu.Unlock()
		return errors.Wrapf(ErrNotFound, "%s/%s", kind, id)
	}
	if _, ok := byID[id]; !ok {
		m.mu.Unlock()
		return errors.Wrapf(ErrNotFound, "%s/%s", kind, id)
	}
	delete(byID, id)
	m.nextVer++
	ver := m.nextVer
	m.mu.Unlock()

	m.publish(VersionChange{Kind: kind, ID: id, Version: ver, Deleted: true})
	return nil
}

// Watch subscribes to every Put/Delete for kind from this point forward.
// The returned channel is closed if the caller's context is cancelled;
// callers must keep draining it or a slow subscriber simply misses updates
// (the publish side never blocks on a full channel).
func (m *InMemory) Watch(ctx context.Context, kind Kind) (<-chan VersionChange, error) {
	ch := make(chan VersionChange, 16)
	m.subsMu.Lock()
	m.subs[kind] = append(m.subs[kind], ch)
	m.subsMu.Unlock()

	go func() {
		<-ctx.Done()
		m.subsMu.Lock()
		defer m.subsMu.Unlock()
		subs := m.subs[kind]
		for i, c := range subs {
			if c == ch {
				m.subs[kind] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		close(ch)
	}()
	return ch, nil
}

func (m *InMemory) publish(change VersionChange) {
	m.subsMu.Lock()
	defer m.subsMu.Unlock()
	for _, ch := range m.subs[change.Kind] {
		select {
		case ch <- change:
		default:
			// A slow watcher misses this update rather than stalling every
			// writer; the orchestrator's TTL fallback (spec.md §4.1) covers
			// the gap.
		}
	}
}

var _ Repository = (*InMemory)(nil)
var _ Watchable = (*InMemory)(nil)
