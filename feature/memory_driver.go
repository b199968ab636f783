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
	"fmt"
	"math"
	"sort"

	"github.com/corintai/corint-core/ast"
	"github.com/corintai/corint-core/bytecode"
)

// Record is one event a MemoryQuerier aggregates over: an entity id, the
// time it occurred, and a flat field set a Filter can match against.
type Record struct {
	Entity    string
	Timestamp int64 // unix seconds
	Fields    map[string]bytecode.Value
}

// MemoryQuerier is the "memory" driver (DataSourceConfig.Driver ==
// "memory"): an in-process slice of Records, grounded on no external
// datasource at all — it exists for tests and local development, the
// same role InMemory plays for the Repository. No production system
// would back a risk feature with it; a real Postgres/ClickHouse/Kafka
// driver is the intended Driver value this interface is built to
// accommodate, but no such client ships in this module (see
// DESIGN.md's `## feature` entry for why).
type MemoryQuerier struct {
	records map[string][]Record // datasource id -> records
}

func NewMemoryQuerier() *MemoryQuerier {
	return &MemoryQuerier{records: make(map[string][]Record)}
}

// Seed appends records available to datasource id.
func (m *MemoryQuerier) Seed(datasourceID string, records ...Record) {
	m.records[datasourceID] = append(m.records[datasourceID], records...)
}

func (m *MemoryQuerier) Query(_ context.Context, ds *ast.DataSourceConfig, q Query) (bytecode.Value, error) {
	if q.Kind == "lookup" {
		return m.lookup(ds, q)
	}
	return m.aggregate(ds, q)
}

func (m *MemoryQuerier) lookup(ds *ast.DataSourceConfig, q Query) (bytecode.Value, error) {
	key := fmt.Sprintf("%v", q.LookupKey)
	for _, rec := range m.records[ds.ID] {
		if rec.Entity == key {
			if v, ok := rec.Fields["value"]; ok {
				return v, nil
			}
		}
	}
	return nil, nil
}

func (m *MemoryQuerier) aggregate(ds *ast.DataSourceConfig, q Query) (bytecode.Value, error) {
	var matched []Record
	for _, rec := range m.records[ds.ID] {
		if q.Entity != "" && rec.Entity != q.Entity && fmt.Sprintf("%v", q.DimensionValue) != rec.Entity {
			continue
		}
		if rec.Timestamp < q.Window.Start.Unix() || rec.Timestamp >= q.Window.End.Unix() {
			continue
		}
		if !matchesFilters(rec, q.Filters) {
			continue
		}
		matched = append(matched, rec)
	}

	switch q.Kind {
	case "count":
		return int64(len(matched)), nil
	case "distinct":
		seen := map[string]struct{}{}
		for _, rec := range matched {
			seen[fmt.Sprintf("%v", rec.Fields[q.Field])] = struct{}{}
		}
		return int64(len(seen)), nil
	case "sum", "avg", "min", "max", "stddev", "median", "mode", "percentile":
		values := numericFieldValues(matched, q.Field)
		return reduceNumeric(q.Kind, values, q.Percentile)
	case "entropy":
		return shannonEntropy(matched, q.Field), nil
	default:
		return nil, fmt.Errorf("feature: memory driver does not support aggregation op %q", q.Kind)
	}
}

func matchesFilters(rec Record, filters []Filter) bool {
	for _, f := range filters {
		v, ok := rec.Fields[f.Field]
		if !ok {
			return false
		}
		if !matchesFilter(v, f) {
			return false
		}
	}
	return true
}

func matchesFilter(v bytecode.Value, f Filter) bool {
	a, aok := asFloat(v)
	b, bok := asFloat(f.Value)
	if aok && bok {
		switch f.Op {
		case "eq":
			return a == b
		case "ne":
			return a != b
		case "lt":
			return a < b
		case "lte":
			return a <= b
		case "gt":
			return a > b
		case "gte":
			return a >= b
		}
	}
	switch f.Op {
	case "eq":
		return fmt.Sprintf("%v", v) == fmt.Sprintf("%v", f.Value)
	case "ne":
		return fmt.Sprintf("%v", v) != fmt.Sprintf("%v", f.Value)
	default:
		return false
	}
}

func asFloat(v bytecode.Value) (float64, bool) {
	switch t := v.(type) {
	case int64:
		return float64(t), true
	case int:
		return float64(t), true
	case float64:
		return t, true
	default:
		return 0, false
	}
}

func numericFieldValues(records []Record, field string) []float64 {
	values := make([]float64, 0, len(records))
	for _, rec := range records {
		if f, ok := asFloat(rec.Fields[field]); ok {
			values = append(values, f)
		}
	}
	return values
}

func reduceNumeric(op string, values []float64, percentile float64) (bytecode.Value, error) {
	if len(values) == 0 {
		return nil, nil
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	switch op {
	case "sum":
		var total float64
		for _, v := range values {
			total += v
		}
		return total, nil
	case "avg":
		var total float64
		for _, v := range values {
			total += v
		}
		return total / float64(len(values)), nil
	case "min":
		return sorted[0], nil
	case "max":
		return sorted[len(sorted)-1], nil
	case "median":
		return percentileOf(sorted, 50), nil
	case "percentile":
		return percentileOf(sorted, percentile), nil
	case "mode":
		return modeOf(values), nil
	case "stddev":
		return stddevOf(values), nil
	default:
		return nil, fmt.Errorf("feature: unsupported numeric reduction %q", op)
	}
}

func percentileOf(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := (p / 100) * float64(len(sorted)-1)
	lo := int(rank)
	hi := lo + 1
	if hi >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

func modeOf(values []float64) float64 {
	counts := map[float64]int{}
	best, bestCount := values[0], 0
	for _, v := range values {
		counts[v]++
		if counts[v] > bestCount {
			best, bestCount = v, counts[v]
		}
	}
	return best
}

func stddevOf(values []float64) float64 {
	var mean float64
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	var variance float64
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(values))
	return math.Sqrt(variance)
}

func shannonEntropy(records []Record, field string) float64 {
	counts := map[string]int{}
	for _, rec := range records {
		counts[fmt.Sprintf("%v", rec.Fields[field])]++
	}
	total := float64(len(records))
	if total == 0 {
		return 0
	}
	var entropy float64
	for _, c := range counts {
		p := float64(c) / total
		if p > 0 {
			entropy -= p * math.Log2(p)
		}
	}
	return entropy
}
