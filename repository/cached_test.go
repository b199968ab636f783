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
	"testing"
	"time"

	"github.com/corintai/corint-core/rdl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachedLoadMissesThenHits(t *testing.T) {
	ctx := context.Background()
	backend := NewInMemory()
	_, err := backend.Put(ctx, rdl.KindRule, "r1", sampleRuleYAML)
	require.NoError(t, err)

	cached := NewCached(backend, 16, time.Minute)

	vt, err := cached.Load(ctx, rdl.KindRule, "r1")
	require.NoError(t, err)
	assert.Equal(t, sampleRuleYAML, vt.Text)
	assert.Equal(t, int64(1), cached.Stats().Misses)
	assert.Equal(t, int64(0), cached.Stats().Hits)

	_, err = cached.Load(ctx, rdl.KindRule, "r1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), cached.Stats().Hits)
}

func TestCachedPutInvalidatesAndPublishes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	backend := NewInMemory()
	cached := NewCached(backend, 16, time.Minute)

	ch, err := cached.Watch(ctx, rdl.KindRule)
	require.NoError(t, err)

	_, err = cached.Put(ctx, rdl.KindRule, "r1", sampleRuleYAML)
	require.NoError(t, err)

	select {
	case change := <-ch:
		assert.Equal(t, "r1", change.ID)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for put notification")
	}
	assert.Equal(t, int64(1), cached.Stats().Evictions)

	// A later Load re-fetches the fresh value from backend rather than
	// serving a pre-Put cache entry (there wasn't one) or a stale miss.
	vt, err := cached.Load(ctx, rdl.KindRule, "r1")
	require.NoError(t, err)
	assert.Equal(t, sampleRuleYAML, vt.Text)
}

func TestCachedDeleteInvalidatesCachedEntry(t *testing.T) {
	ctx := context.Background()
	backend := NewInMemory()
	_, err := backend.Put(ctx, rdl.KindRule, "r1", sampleRuleYAML)
	require.NoError(t, err)
	cached := NewCached(backend, 16, time.Minute)

	_, err = cached.Load(ctx, rdl.KindRule, "r1")
	require.NoError(t, err)

	require.NoError(t, cached.Delete(ctx, rdl.KindRule, "r1"))
	_, err = cached.Load(ctx, rdl.KindRule, "r1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCachedListDelegatesToBackend(t *testing.T) {
	ctx := context.Background()
	backend := NewInMemory()
	_, err := backend.Put(ctx, rdl.KindRule, "r1", sampleRuleYAML)
	require.NoError(t, err)
	cached := NewCached(backend, 16, time.Minute)

	ids, err := cached.List(ctx, rdl.KindRule)
	require.NoError(t, err)
	assert.Equal(t, []string{"r1"}, ids)
}
