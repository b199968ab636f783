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

package external

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/corintai/corint-core/ast"
	"github.com/corintai/corint-core/tokens"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAPI(id, baseURL string) *ast.ApiConfig {
	api := ast.NewApiConfig(id, tokens.Range{})
	api.BaseURL = baseURL
	return api
}

func TestCallContextReturnsParsedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"score": 42}`))
	}))
	defer srv.Close()

	api := newAPI("risk_api", srv.URL)
	api.Endpoints["score"] = ast.EndpointConfig{Method: http.MethodGet, PathTemplate: "/score"}

	caller := New(map[string]*ast.ApiConfig{"risk_api": api}, nil, nil)
	v, err := caller.CallContext(context.Background(), "risk_api", "score", nil)
	require.NoError(t, err)

	m, ok := v.(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 42, m["score"])
}

func TestCallContextUnknownEndpointErrors(t *testing.T) {
	api := newAPI("risk_api", "http://example.invalid")
	caller := New(map[string]*ast.ApiConfig{"risk_api": api}, nil, nil)
	_, err := caller.CallContext(context.Background(), "risk_api", "nope", nil)
	assert.Error(t, err)
}

func TestCallContext4xxAppliesFallbackPolicy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	api := newAPI("risk_api", srv.URL)
	api.Endpoints["score"] = ast.EndpointConfig{
		Method:       http.MethodGet,
		PathTemplate: "/score",
		OnError:      ast.ErrorPolicy{Mode: "fallback", FallbackValue: 0},
	}

	caller := New(map[string]*ast.ApiConfig{"risk_api": api}, nil, nil)
	v, err := caller.CallContext(context.Background(), "risk_api", "score", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, v)
}

func TestCallContextSkipPolicyReturnsNilOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	api := newAPI("risk_api", srv.URL)
	api.Endpoints["score"] = ast.EndpointConfig{
		Method:       http.MethodGet,
		PathTemplate: "/score",
		OnError:      ast.ErrorPolicy{Mode: "skip"},
	}

	caller := New(map[string]*ast.ApiConfig{"risk_api": api}, nil, nil)
	v, err := caller.CallContext(context.Background(), "risk_api", "score", nil)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestCallContextRetriesTransientFailureThenSucceeds(t *testing.T) {
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"ok": true}`))
	}))
	defer srv.Close()

	api := newAPI("risk_api", srv.URL)
	api.Endpoints["score"] = ast.EndpointConfig{
		Method:       http.MethodGet,
		PathTemplate: "/score",
		Retry:        &ast.RetrySpec{MaxAttempts: 5, BaseDelay: time.Millisecond, MaxDelay: 10 * time.Millisecond},
		OnError:      ast.ErrorPolicy{Mode: "fail"},
	}

	caller := New(map[string]*ast.ApiConfig{"risk_api": api}, nil, nil)
	v, err := caller.CallContext(context.Background(), "risk_api", "score", nil)
	require.NoError(t, err)
	assert.EqualValues(t, 3, atomic.LoadInt32(&attempts))
	m := v.(map[string]any)
	assert.Equal(t, true, m["ok"])
}

func TestCallContextExhaustsRetriesAndFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	api := newAPI("risk_api", srv.URL)
	api.Endpoints["score"] = ast.EndpointConfig{
		Method:       http.MethodGet,
		PathTemplate: "/score",
		Retry:        &ast.RetrySpec{MaxAttempts: 2, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond},
		OnError:      ast.ErrorPolicy{Mode: "fail"},
	}

	caller := New(map[string]*ast.ApiConfig{"risk_api": api}, nil, nil)
	_, err := caller.CallContext(context.Background(), "risk_api", "score", nil)
	assert.Error(t, err)
}
