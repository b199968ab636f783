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

// Package compiler lowers a set of rdl.Document artifacts through the
// eight-pass pipeline spec.md §4.3 describes (Import Resolution,
// Inheritance Resolution, Template Instantiation, Parameter Inlining,
// Semantic Analysis, Type Checking, Codegen, Optimizer) into bytecode.Program
// values the VM executes.
package compiler

import (
	"fmt"

	"github.com/corintai/corint-core/tokens"
)

// Severity classifies a Diagnostic; only Error severity fails compilation
// (spec.md §4.3 "Fail modes").
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// Kind enumerates the CompileError sub-variants spec.md §4.3 names.
type Kind string

const (
	KindParseError            Kind = "ParseError"
	KindImportError           Kind = "ImportError"
	KindCircularImport        Kind = "CircularImport"
	KindUnknownRef            Kind = "UnknownRef"
	KindInheritanceCycle      Kind = "InheritanceCycle"
	KindTemplateParamMismatch Kind = "TemplateParamMismatch"
	KindTypeError             Kind = "TypeError"
	KindNamespaceViolation    Kind = "NamespaceViolation"
	KindUnresolvedNamespace   Kind = "UnresolvedNamespace"
	KindMisplacedDefault      Kind = "MisplacedDefault"
	KindDuplicateStepID       Kind = "DuplicateStepID"
	KindUnknownStepTarget     Kind = "UnknownStepTarget"
	KindCodegenError          Kind = "CodegenError"
)

// Diagnostic is one message a compiler pass emits, anchored to a source
// span where one is available (unknown-top-level-key warnings from the
// rdl layer, for instance, carry no span).
type Diagnostic struct {
	Severity Severity
	Kind     Kind
	Message  string
	At       tokens.Range
	Pass     string
}

func (d Diagnostic) String() string {
	if d.At.File == "" {
		return fmt.Sprintf("%s[%s]: %s", d.Severity, d.Kind, d.Message)
	}
	return fmt.Sprintf("%s[%s] at %s: %s", d.Severity, d.Kind, d.At, d.Message)
}

func errDiag(pass string, kind Kind, at tokens.Range, format string, args ...any) Diagnostic {
	return Diagnostic{Severity: SeverityError, Kind: kind, Message: fmt.Sprintf(format, args...), At: at, Pass: pass}
}

func warnDiag(pass string, kind Kind, at tokens.Range, format string, args ...any) Diagnostic {
	return Diagnostic{Severity: SeverityWarning, Kind: kind, Message: fmt.Sprintf(format, args...), At: at, Pass: pass}
}

// Diagnostics is a collection with a convenience HasErrors check.
type Diagnostics []Diagnostic

func (ds Diagnostics) HasErrors() bool {
	for _, d := range ds {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// CompileError is returned from Compile when any pass emitted an Error
// severity diagnostic; it carries the full diagnostic list so a caller
// (the `validate` CLI command, or ConfigError's wrapped cause) can report
// every problem, not just the first.
type CompileError struct {
	Diagnostics Diagnostics
}

func (e *CompileError) Error() string {
	for _, d := range e.Diagnostics {
		if d.Severity == SeverityError {
			return d.String()
		}
	}
	return "compile error"
}
