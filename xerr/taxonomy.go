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

// Package xerr is CORINT's error taxonomy (spec.md §7): every error the
// engine produces is one of a small set of sum-typed classes so callers can
// branch on `errors.As` rather than parsing messages. Errors wrap with
// github.com/pkg/errors so a full cause chain survives across package
// boundaries (Repository -> Compiler -> Orchestrator -> Engine).
package xerr

import (
	"fmt"

	"github.com/corintai/corint-core/tokens"
	"github.com/pkg/errors"
)

// InputError is a malformed or invalid DecisionRequest: missing required
// field, malformed event payload.
type InputError struct{ Reason string }

func (e InputError) Error() string { return "input error: " + e.Reason }

func ErrInput(format string, args ...any) error {
	return errors.WithStack(InputError{Reason: fmt.Sprintf(format, args...)})
}

// ConfigError covers repository read failure, parse failure, and every
// compile sub-variant from §4.3: a problem with the artifacts themselves,
// not the request being decided.
type ConfigError struct {
	Reason string
	At     tokens.Range
}

func (e ConfigError) Error() string {
	if e.At.File == "" {
		return "config error: " + e.Reason
	}
	return fmt.Sprintf("config error: %s at %s", e.Reason, e.At.String())
}

func ErrConfig(at tokens.Range, format string, args ...any) error {
	return errors.WithStack(ConfigError{Reason: fmt.Sprintf(format, args...), At: at})
}

// RuntimeError is a failure evaluating a compiled Program against a request
// context: type mismatch, division by zero, undefined path access outside
// a guarded `is null` check.
type RuntimeError struct{ Reason string }

func (e RuntimeError) Error() string { return "runtime error: " + e.Reason }

func ErrRuntime(format string, args ...any) error {
	return errors.WithStack(RuntimeError{Reason: fmt.Sprintf(format, args...)})
}

// ExternalError wraps a failure from a dependency outside the engine's
// control: an External API call, a datasource query, a list backend.
type ExternalError struct {
	Dependency string
	Cause      error
}

func (e ExternalError) Error() string {
	return fmt.Sprintf("external error: %s: %s", e.Dependency, e.Cause)
}

func (e ExternalError) Unwrap() error { return e.Cause }

func ErrExternal(dependency string, cause error) error {
	return errors.WithStack(ExternalError{Dependency: dependency, Cause: cause})
}

// DeadlineExceeded marks a decision or step that ran past its budget
// (spec.md §6.2 suspension-point deadlines).
type DeadlineExceeded struct{ Step string }

func (e DeadlineExceeded) Error() string { return "deadline exceeded: " + e.Step }

func ErrDeadlineExceeded(step string) error {
	return errors.WithStack(DeadlineExceeded{Step: step})
}

// NoRoute is raised when a Router step's routes and default both fail to
// select a `next` step (spec.md §3.1 Router step).
type NoRoute struct{ StepID string }

func (e NoRoute) Error() string { return "no route: step " + e.StepID }

func ErrNoRoute(stepID string) error {
	return errors.WithStack(NoRoute{StepID: stepID})
}

// Busy marks a decide() call rejected outright because the engine's
// configured max-in-flight request count was already saturated (spec.md
// §5 "Backpressure": "over-limit requests are rejected with Busy").
type Busy struct{}

func (e Busy) Error() string { return "busy: max in-flight requests reached" }

func ErrBusy() error {
	return errors.WithStack(Busy{})
}

// Internal is CORINT's own bug: an invariant the compiler or VM assumed
// held did not. It should never reach an operator in normal operation.
type Internal struct{ Reason string }

func (e Internal) Error() string { return "internal error: " + e.Reason }

func ErrInternal(format string, args ...any) error {
	return errors.WithStack(Internal{Reason: fmt.Sprintf(format, args...)})
}

// FailClosedAction is the action a DecisionResult carries when an error of
// the given class aborts a decision (spec.md §7 "User-visible behavior"):
// deny unless the pipeline configured an explicit fallback action.
func FailClosedAction(err error) string {
	var noRoute NoRoute
	if errors.As(err, &noRoute) {
		return "review"
	}
	return "deny"
}
