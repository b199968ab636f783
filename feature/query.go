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
	"time"

	"github.com/corintai/corint-core/ast"
	"github.com/corintai/corint-core/bytecode"
)

// Window is an aggregation feature's time range, already normalized to
// [Start, End) (spec.md §4.5 step 1).
type Window struct {
	Start time.Time
	End   time.Time
}

// Filter is one canonicalized equality/range predicate.
type Filter struct {
	Field string
	Op    string
	Value bytecode.Value
}

// Query is the record the Feature Executor hands to a datasource client
// (spec.md §4.5 step 4): "{kind, entity, dimension, dimension_value,
// field?, window, filters}".
type Query struct {
	Kind           string // the AggregationSpec.Op, or "lookup" for a LookupSpec
	Entity         string
	Dimension      string
	DimensionValue bytecode.Value
	Field          string
	Percentile     float64
	Window         Window
	Filters        []Filter // sorted by Field then Op, for a stable cache key
	LookupKey      bytecode.Value
}

// Querier dispatches a canonicalized Query to one datasource driver.
// Implementations are registered in an Executor keyed by
// ast.DataSourceConfig.Driver.
type Querier interface {
	Query(ctx context.Context, ds *ast.DataSourceConfig, q Query) (bytecode.Value, error)
}
