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

package ast

import (
	"time"

	"github.com/corintai/corint-core/tokens"
)

// ErrorPolicy is the `on_error` policy shared by Feature, List and API
// configs (spec.md §4.5, §4.6, §4.7, §7): fail | skip | fallback | retry.
type ErrorPolicy struct {
	Mode          string // "fail" | "skip" | "fallback" | "retry"
	FallbackValue Literal
}

// WindowSpec is an aggregation feature's time window, normalized to
// [Start, End) at canonicalization time (spec.md §4.5 step 1).
type WindowSpec struct {
	Duration time.Duration
	Field    string // event timestamp field the window is relative to; "" = now
}

// FilterSpec is one equality/range predicate applied to an aggregation
// query.
type FilterSpec struct {
	Field string
	Op    string // "eq" | "ne" | "lt" | "lte" | "gt" | "gte"
	Value Expression
}

// AggregationSpec configures an `aggregation` feature (spec.md §4.5):
// count|sum|avg|min|max|distinct|stddev|percentile|median|mode|entropy.
type AggregationSpec struct {
	Op             string
	Entity         string
	Dimension      string
	DimensionValue Expression
	Field          string // required for sum/avg/min/max/stddev/percentile
	Percentile     float64 // only for op == "percentile"; validated in [0,100] at compile time
	Window         WindowSpec
	Filters        []FilterSpec
}

// LookupSpec configures a `lookup` feature: a single key/value read.
type LookupSpec struct {
	Key Expression
}

// FeatureConfig is a named, cached derived value (spec.md §4.5).
type FeatureConfig struct {
	*baseNode
	ID          string
	Kind        string // "aggregation" | "expression" | "lookup" | "state" | "sequence" | "graph"
	Datasource  string
	Aggregation *AggregationSpec
	Expression  Expression // for kind == "expression"
	Lookup      *LookupSpec
	TTL         time.Duration
	OnError     ErrorPolicy
}

func (f *FeatureConfig) String() string { return "feature " + f.ID }

var _ Node = &FeatureConfig{}

func NewFeatureConfig(id string, r tokens.Range) *FeatureConfig {
	return &FeatureConfig{baseNode: &baseNode{Rnge: r}, ID: id}
}

// ListConfig is a named membership set (spec.md §4.6).
type ListConfig struct {
	*baseNode
	ID            string
	Backend       string // "memory" | "file" | "db" | "redis"
	CaseNormalize bool
	MatchMode     string // "exact" | "prefix" | "glob"
	Source        map[string]any // backend-specific connection/location config
	Values        []string       // inline values, only for backend == "memory"
}

func (l *ListConfig) String() string { return "list " + l.ID }

var _ Node = &ListConfig{}

func NewListConfig(id string, r tokens.Range) *ListConfig {
	return &ListConfig{baseNode: &baseNode{Rnge: r}, ID: id, Source: map[string]any{}}
}

// RetrySpec configures External API Caller bounded exponential backoff
// (spec.md §4.7).
type RetrySpec struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// AuthConfig is a per-endpoint auth scheme; Value may contain `${NAME}`
// environment placeholders substituted at datasource-client construction
// time (spec.md §6.5).
type AuthConfig struct {
	Kind  string // "bearer" | "basic" | "header" | "none"
	Name  string // header name, for Kind == "header"
	Value string
}

// EndpointConfig is one named operation of an ApiConfig.
type EndpointConfig struct {
	Method       string
	PathTemplate string
	Query        map[string]string
	Headers      map[string]string
	Auth         *AuthConfig
	TimeoutMS    int
	Retry        *RetrySpec
	OnError      ErrorPolicy
	// Transform names a Script Registry entry (spec.md SPEC_FULL.md §C.1)
	// that reshapes the parsed JSON response before it is written to
	// `api.<output_name>`. Empty means no transform.
	Transform string
}

// ApiConfig is a named external HTTP(S) API (spec.md §4.7).
type ApiConfig struct {
	*baseNode
	ID        string
	BaseURL   string
	Endpoints map[string]EndpointConfig
}

func (a *ApiConfig) String() string { return "api " + a.ID }

var _ Node = &ApiConfig{}

func NewApiConfig(id string, r tokens.Range) *ApiConfig {
	return &ApiConfig{baseNode: &baseNode{Rnge: r}, ID: id, Endpoints: map[string]EndpointConfig{}}
}

// DataSourceConfig names the client a Feature Executor dispatches
// `Query` records to (spec.md §4.5 step 4).
type DataSourceConfig struct {
	*baseNode
	ID      string
	Driver  string
	DSN     string // may contain ${NAME} placeholders
	Options map[string]any
}

func (d *DataSourceConfig) String() string { return "datasource " + d.ID }

var _ Node = &DataSourceConfig{}

func NewDataSourceConfig(id string, r tokens.Range) *DataSourceConfig {
	return &DataSourceConfig{baseNode: &baseNode{Rnge: r}, ID: id, Options: map[string]any{}}
}
