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

package feature

import (
	"context"
	"testing"
	"time"

	"github.com/corintai/corint-core/ast"
	"github.com/corintai/corint-core/bytecode"
	"github.com/corintai/corint-core/tokens"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededDS(id string) *ast.DataSourceConfig {
	ds := ast.NewDataSourceConfig(id, tokens.Range{})
	ds.Driver = "memory"
	return ds
}

func TestMemoryQuerierSumAvgMinMax(t *testing.T) {
	ds := seededDS("txns")
	q := NewMemoryQuerier()
	now := time.Now()
	for _, amt := range []float64{10, 20, 30, 40} {
		q.Seed("txns", Record{
			Entity:    "acct-1",
			Timestamp: now.Add(-time.Minute).Unix(),
			Fields:    map[string]bytecode.Value{"amount": amt},
		})
	}

	window := Window{Start: now.Add(-time.Hour), End: now.Add(time.Hour)}

	sum, err := q.Query(context.Background(), ds, Query{Kind: "sum", Entity: "acct-1", Field: "amount", Window: window})
	require.NoError(t, err)
	assert.EqualValues(t, 100, sum)

	avg, err := q.Query(context.Background(), ds, Query{Kind: "avg", Entity: "acct-1", Field: "amount", Window: window})
	require.NoError(t, err)
	assert.EqualValues(t, 25, avg)

	min, err := q.Query(context.Background(), ds, Query{Kind: "min", Entity: "acct-1", Field: "amount", Window: window})
	require.NoError(t, err)
	assert.EqualValues(t, 10, min)

	max, err := q.Query(context.Background(), ds, Query{Kind: "max", Entity: "acct-1", Field: "amount", Window: window})
	require.NoError(t, err)
	assert.EqualValues(t, 40, max)
}

func TestMemoryQuerierDistinctCountsUniqueValues(t *testing.T) {
	ds := seededDS("txns")
	q := NewMemoryQuerier()
	now := time.Now()
	for _, merchant := range []string{"a", "a", "b", "c"} {
		q.Seed("txns", Record{
			Entity:    "acct-1",
			Timestamp: now.Unix(),
			Fields:    map[string]bytecode.Value{"merchant": merchant},
		})
	}

	window := Window{Start: now.Add(-time.Hour), End: now.Add(time.Hour)}
	v, err := q.Query(context.Background(), ds, Query{Kind: "distinct", Entity: "acct-1", Field: "merchant", Window: window})
	require.NoError(t, err)
	assert.EqualValues(t, 3, v)
}

func TestMemoryQuerierWindowExcludesOldRecords(t *testing.T) {
	ds := seededDS("txns")
	q := NewMemoryQuerier()
	now := time.Now()
	q.Seed("txns",
		Record{Entity: "acct-1", Timestamp: now.Add(-10 * time.Minute).Unix(), Fields: map[string]bytecode.Value{"amount": float64(5)}},
		Record{Entity: "acct-1", Timestamp: now.Add(-2 * time.Hour).Unix(), Fields: map[string]bytecode.Value{"amount": float64(99)}},
	)

	window := Window{Start: now.Add(-time.Hour), End: now}
	v, err := q.Query(context.Background(), ds, Query{Kind: "sum", Entity: "acct-1", Field: "amount", Window: window})
	require.NoError(t, err)
	assert.EqualValues(t, 5, v)
}

func TestMemoryQuerierFiltersRestrictMatches(t *testing.T) {
	ds := seededDS("txns")
	q := NewMemoryQuerier()
	now := time.Now()
	q.Seed("txns",
		Record{Entity: "acct-1", Timestamp: now.Unix(), Fields: map[string]bytecode.Value{"amount": float64(5), "status": "declined"}},
		Record{Entity: "acct-1", Timestamp: now.Unix(), Fields: map[string]bytecode.Value{"amount": float64(50), "status": "approved"}},
	)

	window := Window{Start: now.Add(-time.Hour), End: now.Add(time.Hour)}
	v, err := q.Query(context.Background(), ds, Query{
		Kind:   "count",
		Entity: "acct-1",
		Window: window,
		Filters: []Filter{
			{Field: "status", Op: "eq", Value: "declined"},
		},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, v)
}

func TestMemoryQuerierMedianPercentileModeStddev(t *testing.T) {
	ds := seededDS("txns")
	q := NewMemoryQuerier()
	now := time.Now()
	for _, amt := range []float64{1, 2, 2, 3, 4} {
		q.Seed("txns", Record{Entity: "acct-1", Timestamp: now.Unix(), Fields: map[string]bytecode.Value{"amount": amt}})
	}
	window := Window{Start: now.Add(-time.Hour), End: now.Add(time.Hour)}

	median, err := q.Query(context.Background(), ds, Query{Kind: "median", Entity: "acct-1", Field: "amount", Window: window})
	require.NoError(t, err)
	assert.EqualValues(t, 2, median)

	mode, err := q.Query(context.Background(), ds, Query{Kind: "mode", Entity: "acct-1", Field: "amount", Window: window})
	require.NoError(t, err)
	assert.EqualValues(t, 2, mode)

	stddev, err := q.Query(context.Background(), ds, Query{Kind: "stddev", Entity: "acct-1", Field: "amount", Window: window})
	require.NoError(t, err)
	assert.InDelta(t, 1.0198, stddev, 0.001)

	p, err := q.Query(context.Background(), ds, Query{Kind: "percentile", Entity: "acct-1", Field: "amount", Percentile: 100, Window: window})
	require.NoError(t, err)
	assert.EqualValues(t, 4, p)
}

func TestMemoryQuerierEntropyOfUniformSplitIsOne(t *testing.T) {
	ds := seededDS("txns")
	q := NewMemoryQuerier()
	now := time.Now()
	for _, v := range []string{"a", "b"} {
		q.Seed("txns", Record{Entity: "acct-1", Timestamp: now.Unix(), Fields: map[string]bytecode.Value{"category": v}})
	}
	window := Window{Start: now.Add(-time.Hour), End: now.Add(time.Hour)}

	v, err := q.Query(context.Background(), ds, Query{Kind: "entropy", Entity: "acct-1", Field: "category", Window: window})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, v, 0.0001)
}

func TestMemoryQuerierUnsupportedOpErrors(t *testing.T) {
	ds := seededDS("txns")
	q := NewMemoryQuerier()
	now := time.Now()
	window := Window{Start: now.Add(-time.Hour), End: now.Add(time.Hour)}
	_, err := q.Query(context.Background(), ds, Query{Kind: "nonsense", Entity: "acct-1", Window: window})
	assert.Error(t, err)
}

func TestMemoryQuerierLookupReturnsSeededValue(t *testing.T) {
	ds := seededDS("kv")
	q := NewMemoryQuerier()
	q.Seed("kv", Record{Entity: "acct-1", Fields: map[string]bytecode.Value{"value": "gold"}})

	v, err := q.Query(context.Background(), ds, Query{Kind: "lookup", LookupKey: "acct-1"})
	require.NoError(t, err)
	assert.Equal(t, "gold", v)
}

func TestMemoryQuerierLookupMissingReturnsNil(t *testing.T) {
	ds := seededDS("kv")
	q := NewMemoryQuerier()
	v, err := q.Query(context.Background(), ds, Query{Kind: "lookup", LookupKey: "nope"})
	require.NoError(t, err)
	assert.Nil(t, v)
}
