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

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/corintai/corint-core/engine"
	"github.com/corintai/corint-core/rdl"
	"github.com/corintai/corint-core/repository"
	"github.com/stretchr/testify/require"
)

func TestResolveBindingsPredefinedAddresses(t *testing.T) {
	tests := []struct {
		name     string
		listen   []string
		expected []string
	}{
		{"local", []string{"local"}, []string{"localhost:8080"}},
		{"local4", []string{"local4"}, []string{"127.0.0.1:8080"}},
		{"network4", []string{"network4"}, []string{"0.0.0.0:8080"}},
		{"custom addresses", []string{"10.0.0.1", "10.0.0.2"}, []string{"10.0.0.1:8080", "10.0.0.2:8080"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveBindings(8080, tt.listen)
			require.NoError(t, err)
			require.ElementsMatch(t, tt.expected, got)
		})
	}
}

func TestResolveBindingsRejectsMultiplePredefined(t *testing.T) {
	_, err := resolveBindings(8080, []string{"local", "network"})
	require.Error(t, err)
}

func newTestHTTPAPI(t *testing.T) *HTTPAPI {
	t.Helper()
	repo := repository.NewInMemory()
	ctx := context.Background()

	_, err := repo.Put(ctx, rdl.KindRule, "always_score", `
rule:
  id: always_score
  name: Always score
  when: "true"
  score: 10
`)
	require.NoError(t, err)
	_, err = repo.Put(ctx, rdl.KindRuleset, "rs", `
ruleset:
  id: rs
  rules: [always_score]
  decision_logic:
    - default: true
      action: approve
`)
	require.NoError(t, err)
	_, err = repo.Put(ctx, rdl.KindPipeline, "pl", `
pipeline:
  id: pl
  entry: step
  steps:
    - ruleset:
        id: step
        ruleset_id: rs
`)
	require.NoError(t, err)
	_, err = repo.Put(ctx, rdl.KindRegistry, "", `
registry:
  - pipeline_id: pl
    when: "true"
`)
	require.NoError(t, err)

	e, err := engine.New(engine.Config{Repo: repo})
	require.NoError(t, err)
	return NewHTTPAPI(e, nil)
}

func TestHandleDecisionReturnsResult(t *testing.T) {
	api := newTestHTTPAPI(t)
	mux := http.NewServeMux()
	mux.Handle("POST /decision", http.HandlerFunc(api.handleDecision))
	srv := httptest.NewServer(mux)
	defer srv.Close()

	body, _ := json.Marshal(DecisionRequest{Event: map[string]any{"type": "anything"}})
	resp, err := http.Post(srv.URL+"/decision", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out DecisionResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.NotNil(t, out.Result)
	require.Equal(t, "approve", out.Result.Action)
}

func TestHandleDecisionRejectsInvalidJSON(t *testing.T) {
	api := newTestHTTPAPI(t)
	mux := http.NewServeMux()
	mux.Handle("POST /decision", http.HandlerFunc(api.handleDecision))
	srv := httptest.NewServer(mux)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/decision", "application/json", bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleHealth(t *testing.T) {
	api := newTestHTTPAPI(t)
	mux := http.NewServeMux()
	mux.Handle("GET /health", http.HandlerFunc(api.handleHealth))
	srv := httptest.NewServer(mux)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
