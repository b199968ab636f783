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

package rdl

import (
	"time"

	"github.com/corintai/corint-core/ast"
	"github.com/corintai/corint-core/tokens"
)

type rawErrorPolicy struct {
	Mode     string `yaml:"mode"`
	Fallback any    `yaml:"fallback"`
}

func buildErrorPolicy(raw *rawErrorPolicy) ast.ErrorPolicy {
	if raw == nil {
		return ast.ErrorPolicy{Mode: "fail"}
	}
	return ast.ErrorPolicy{Mode: raw.Mode, FallbackValue: raw.Fallback}
}

type rawFilter struct {
	Field string `yaml:"field"`
	Op    string `yaml:"op"`
	Value string `yaml:"value"`
}

type rawAggregation struct {
	Op             string      `yaml:"op"`
	Entity         string      `yaml:"entity"`
	Dimension      string      `yaml:"dimension"`
	DimensionValue string      `yaml:"dimension_value"`
	Field          string      `yaml:"field"`
	Percentile     float64     `yaml:"percentile"`
	WindowSeconds  int         `yaml:"window_seconds"`
	WindowField    string      `yaml:"window_field"`
	Filters        []rawFilter `yaml:"filters"`
}

type rawLookup struct {
	Key string `yaml:"key"`
}

type rawFeature struct {
	ID          string          `yaml:"id"`
	Kind        string          `yaml:"kind"`
	Datasource  string          `yaml:"datasource"`
	Aggregation *rawAggregation `yaml:"aggregation"`
	Expression  string          `yaml:"expression"`
	Lookup      *rawLookup      `yaml:"lookup"`
	TTLSeconds  int             `yaml:"ttl_seconds"`
	OnError     *rawErrorPolicy `yaml:"on_error"`
}

func buildFeature(raw *rawFeature, file string) (*ast.FeatureConfig, error) {
	f := ast.NewFeatureConfig(raw.ID, tokens.Range{File: file})
	f.Kind = raw.Kind
	f.Datasource = raw.Datasource
	f.TTL = time.Duration(raw.TTLSeconds) * time.Second
	f.OnError = buildErrorPolicy(raw.OnError)

	if raw.Aggregation != nil {
		agg := raw.Aggregation
		spec := &ast.AggregationSpec{
			Op:         agg.Op,
			Entity:     agg.Entity,
			Dimension:  agg.Dimension,
			Field:      agg.Field,
			Percentile: agg.Percentile,
			Window: ast.WindowSpec{
				Duration: time.Duration(agg.WindowSeconds) * time.Second,
				Field:    agg.WindowField,
			},
		}
		if agg.DimensionValue != "" {
			dv, err := parseExpr(agg.DimensionValue, file)
			if err != nil {
				return nil, err
			}
			spec.DimensionValue = dv
		}
		for _, rf := range agg.Filters {
			v, err := parseExpr(rf.Value, file)
			if err != nil {
				return nil, err
			}
			spec.Filters = append(spec.Filters, ast.FilterSpec{Field: rf.Field, Op: rf.Op, Value: v})
		}
		f.Aggregation = spec
	}

	if raw.Expression != "" {
		expr, err := parseExpr(raw.Expression, file)
		if err != nil {
			return nil, err
		}
		f.Expression = expr
	}

	if raw.Lookup != nil {
		key, err := parseExpr(raw.Lookup.Key, file)
		if err != nil {
			return nil, err
		}
		f.Lookup = &ast.LookupSpec{Key: key}
	}

	return f, nil
}

type rawList struct {
	ID            string         `yaml:"id"`
	Backend       string         `yaml:"backend"`
	CaseNormalize bool           `yaml:"case_normalize"`
	MatchMode     string         `yaml:"match_mode"`
	Source        map[string]any `yaml:"source"`
	Values        []string       `yaml:"values"`
}

func buildList(raw *rawList, file string) (*ast.ListConfig, error) {
	l := ast.NewListConfig(raw.ID, tokens.Range{File: file})
	l.Backend = raw.Backend
	l.CaseNormalize = raw.CaseNormalize
	l.MatchMode = raw.MatchMode
	l.Values = raw.Values
	if raw.Source != nil {
		l.Source = raw.Source
	}
	return l, nil
}

type rawAuth struct {
	Kind  string `yaml:"kind"`
	Name  string `yaml:"name"`
	Value string `yaml:"value"`
}

type rawRetry struct {
	MaxAttempts int `yaml:"max_attempts"`
	BaseDelayMS int `yaml:"base_delay_ms"`
	MaxDelayMS  int `yaml:"max_delay_ms"`
}

func buildRetry(raw *rawRetry) *ast.RetrySpec {
	if raw == nil {
		return nil
	}
	return &ast.RetrySpec{
		MaxAttempts: raw.MaxAttempts,
		BaseDelay:   time.Duration(raw.BaseDelayMS) * time.Millisecond,
		MaxDelay:    time.Duration(raw.MaxDelayMS) * time.Millisecond,
	}
}

type rawEndpoint struct {
	Method       string            `yaml:"method"`
	PathTemplate string            `yaml:"path_template"`
	Query        map[string]string `yaml:"query"`
	Headers      map[string]string `yaml:"headers"`
	Auth         *rawAuth          `yaml:"auth"`
	TimeoutMS    int               `yaml:"timeout_ms"`
	Retry        *rawRetry         `yaml:"retry"`
	OnError      *rawErrorPolicy   `yaml:"on_error"`
	Transform    string            `yaml:"transform"`
}

type rawAPI struct {
	ID        string                 `yaml:"id"`
	BaseURL   string                 `yaml:"base_url"`
	Endpoints map[string]rawEndpoint `yaml:"endpoints"`
}

func buildAPI(raw *rawAPI, file string) (*ast.ApiConfig, error) {
	a := ast.NewApiConfig(raw.ID, tokens.Range{File: file})
	a.BaseURL = raw.BaseURL
	for name, ep := range raw.Endpoints {
		var auth *ast.AuthConfig
		if ep.Auth != nil {
			auth = &ast.AuthConfig{Kind: ep.Auth.Kind, Name: ep.Auth.Name, Value: ep.Auth.Value}
		}
		a.Endpoints[name] = ast.EndpointConfig{
			Method:       ep.Method,
			PathTemplate: ep.PathTemplate,
			Query:        ep.Query,
			Headers:      ep.Headers,
			Auth:         auth,
			TimeoutMS:    ep.TimeoutMS,
			Retry:        buildRetry(ep.Retry),
			OnError:      buildErrorPolicy(ep.OnError),
			Transform:    ep.Transform,
		}
	}
	return a, nil
}

type rawDatasource struct {
	ID      string         `yaml:"id"`
	Driver  string         `yaml:"driver"`
	DSN     string         `yaml:"dsn"`
	Options map[string]any `yaml:"options"`
}

func buildDatasource(raw *rawDatasource, file string) (*ast.DataSourceConfig, error) {
	d := ast.NewDataSourceConfig(raw.ID, tokens.Range{File: file})
	d.Driver = raw.Driver
	d.DSN = raw.DSN
	if raw.Options != nil {
		d.Options = raw.Options
	}
	return d, nil
}
