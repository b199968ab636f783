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

// Package external implements the External API Caller (spec.md §4.7):
// typed HTTP(S) calls into repository-configured ApiConfig endpoints,
// with per-endpoint timeout, bounded exponential backoff retry, and
// on_error fallback. It satisfies vm.ExternalCaller so a Program's
// `external()` builtin and an Api pipeline step resolve through it.
package external

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/corintai/corint-core/ast"
	"github.com/corintai/corint-core/bytecode"
	"github.com/corintai/corint-core/xerr"
)

// Substituter renders `{path.to.field}` placeholders in URLs, headers,
// and query values against the calling request's Execution Context.
// The orchestrator's substituter satisfies this by resolving each
// placeholder as a field path against execctx.Context.
type Substituter interface {
	Render(template string) (string, error)
}

// Transformer reshapes a parsed JSON response through a named Script
// Registry entry (spec.md SPEC_FULL.md §C.1) before it is written to
// `api.<output_name>`. script.Registry satisfies this.
type Transformer interface {
	Transform(ctx context.Context, name string, input bytecode.Value) (bytecode.Value, error)
}

// Caller dispatches ApiConfig endpoints over HTTP.
type Caller struct {
	apis        map[string]*ast.ApiConfig
	client      *http.Client
	log         *slog.Logger
	transformer Transformer
}

// Option configures optional Caller collaborators.
type Option func(*Caller)

// WithTransformer wires a Script Registry into the Caller so any endpoint
// naming a non-empty EndpointConfig.Transform has its parsed response
// reshaped before being returned.
func WithTransformer(t Transformer) Option {
	return func(c *Caller) { c.transformer = t }
}

// New builds a Caller over the given API configs (typically
// compiler.Set.Apis) using client for the underlying transport. A nil
// client defaults to http.DefaultClient's transport with no client-wide
// timeout — per-endpoint timeouts are enforced per call via context.
func New(apis map[string]*ast.ApiConfig, client *http.Client, log *slog.Logger, opts ...Option) *Caller {
	if client == nil {
		client = &http.Client{}
	}
	if log == nil {
		log = slog.Default()
	}
	c := &Caller{apis: apis, client: client, log: log}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Call implements vm.ExternalCaller: apiID identifies the ApiConfig,
// args[0] names the endpoint within it. args[1:] are ignored, and no
// Substituter is applied: `{...}` placeholders in the endpoint are sent
// unrendered.
func (c *Caller) Call(apiID string, args []bytecode.Value) (bytecode.Value, error) {
	var endpointID string
	if len(args) > 0 {
		endpointID, _ = args[0].(string)
	}
	return c.CallContext(context.Background(), apiID, endpointID, noopSubstituter{})
}

// CallContext is the full entry point the orchestrator's Api step uses,
// with context cancellation and real template substitution wired in.
func (c *Caller) CallContext(ctx context.Context, apiID, endpointID string, sub Substituter) (bytecode.Value, error) {
	api, ok := c.apis[apiID]
	if !ok {
		return nil, xerr.ErrRuntime("external: unknown api %q", apiID)
	}
	ep, ok := api.Endpoints[endpointID]
	if !ok {
		return nil, xerr.ErrRuntime("external: unknown endpoint %q on api %q", endpointID, apiID)
	}

	result, err := c.dispatch(ctx, api, ep, sub)
	if err == nil {
		return result, nil
	}

	switch ep.OnError.Mode {
	case "skip":
		return nil, nil
	case "fallback":
		return ep.OnError.FallbackValue, nil
	default: // "fail", "retry" (retry is already exhausted by dispatch), or unset
		return nil, xerr.ErrExternal(fmt.Sprintf("%s.%s", apiID, endpointID), err)
	}
}

func (c *Caller) dispatch(ctx context.Context, api *ast.ApiConfig, ep ast.EndpointConfig, sub Substituter) (bytecode.Value, error) {
	timeout := time.Duration(ep.TimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	operation := func() (bytecode.Value, error) {
		v, err := c.doOnce(callCtx, api, ep, sub)
		if err != nil || ep.Transform == "" || c.transformer == nil {
			return v, err
		}
		out, terr := c.transformer.Transform(callCtx, ep.Transform, v)
		if terr != nil {
			return nil, xerr.ErrExternal("script:"+ep.Transform, terr)
		}
		return out, nil
	}

	if ep.Retry == nil || ep.Retry.MaxAttempts <= 1 {
		return operation()
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = ep.Retry.BaseDelay
	if b.InitialInterval <= 0 {
		b.InitialInterval = 100 * time.Millisecond
	}
	b.MaxInterval = ep.Retry.MaxDelay
	if b.MaxInterval <= 0 {
		b.MaxInterval = 5 * time.Second
	}

	return backoff.Retry(callCtx, func() (bytecode.Value, error) {
		v, err := operation()
		if err != nil && !isRetryable(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}, backoff.WithBackOff(b), backoff.WithMaxTries(uint(ep.Retry.MaxAttempts)))
}

func (c *Caller) doOnce(ctx context.Context, api *ast.ApiConfig, ep ast.EndpointConfig, sub Substituter) (bytecode.Value, error) {
	path, err := render(sub, ep.PathTemplate)
	if err != nil {
		return nil, err
	}
	full := strings.TrimRight(api.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")

	u, err := url.Parse(full)
	if err != nil {
		return nil, fmt.Errorf("external: invalid url %q: %w", full, err)
	}
	q := u.Query()
	for k, v := range ep.Query {
		rendered, err := render(sub, v)
		if err != nil {
			return nil, err
		}
		q.Set(k, rendered)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, methodOrDefault(ep.Method), u.String(), nil)
	if err != nil {
		return nil, err
	}
	for k, v := range ep.Headers {
		rendered, err := render(sub, v)
		if err != nil {
			return nil, err
		}
		req.Header.Set(k, rendered)
	}
	if err := applyAuth(req, ep.Auth, sub); err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("external: %s %s: status %d", req.Method, u.String(), resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return nil, backoff.Permanent(fmt.Errorf("external: %s %s: status %d", req.Method, u.String(), resp.StatusCode))
	}

	return parseJSON(body)
}

func methodOrDefault(m string) string {
	if m == "" {
		return http.MethodGet
	}
	return m
}

func applyAuth(req *http.Request, auth *ast.AuthConfig, sub Substituter) error {
	if auth == nil {
		return nil
	}
	value, err := render(sub, auth.Value)
	if err != nil {
		return err
	}
	switch auth.Kind {
	case "bearer":
		req.Header.Set("Authorization", "Bearer "+value)
	case "basic":
		req.Header.Set("Authorization", "Basic "+value)
	case "header":
		req.Header.Set(auth.Name, value)
	case "none", "":
	default:
		return fmt.Errorf("external: unknown auth kind %q", auth.Kind)
	}
	return nil
}

// parseJSON decodes a JSON response body into a bytecode.Value tree:
// objects become map[string]bytecode.Value, arrays become
// []bytecode.Value, matching the dynamic-value model the VM already uses
// for everything else in a context namespace.
func parseJSON(body []byte) (bytecode.Value, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}
	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("external: parsing response: %w", err)
	}
	return raw, nil
}

func render(sub Substituter, template string) (string, error) {
	if sub == nil || !strings.Contains(template, "{") {
		return template, nil
	}
	return sub.Render(template)
}

// isRetryable governs whether backoff.Retry attempts another pass: any
// error doOnce didn't already mark backoff.Permanent (only 4xx responses
// are) is treated as transient, including template and JSON parse failures.
func isRetryable(err error) bool {
	return err != nil
}

type noopSubstituter struct{}

func (noopSubstituter) Render(template string) (string, error) { return template, nil }
