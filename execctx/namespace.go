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

// Package execctx is the per-request Execution Context (spec.md §3.2):
// eight namespaces with fixed RW ownership, the score/triggered-rules
// accumulator, and the results namespace the Orchestrator populates as
// ruleset steps complete. Named execctx rather than context to avoid
// shadowing the stdlib context.Context every caller also needs.
package execctx

// Namespace is one of the eight closed compartments of an Execution
// Context (spec.md §3.2). Represented as a tagged enum with per-variant
// typed maps per spec.md §9 "Dynamic namespaces -> tagged variant + static
// dispatch" design note, rather than a generic map-of-maps.
type Namespace uint8

const (
	NamespaceEvent Namespace = iota
	NamespaceFeatures
	NamespaceAPI
	NamespaceService
	NamespaceVars
	NamespaceSys
	NamespaceEnv
	NamespaceResults
)

var namespaceNames = map[Namespace]string{
	NamespaceEvent:    "event",
	NamespaceFeatures: "features",
	NamespaceAPI:      "api",
	NamespaceService:  "service",
	NamespaceVars:     "vars",
	NamespaceSys:      "sys",
	NamespaceEnv:      "env",
	NamespaceResults:  "results",
}

func (n Namespace) String() string {
	if name, ok := namespaceNames[n]; ok {
		return name
	}
	return "unknown"
}

// NamespaceFromString resolves a FieldPath's leading segment to a
// Namespace. ok is false for anything outside the closed set (including
// `params`/`list`, which are resolved by the compiler before codegen and
// never appear as a runtime namespace head).
func NamespaceFromString(s string) (Namespace, bool) {
	switch s {
	case "event":
		return NamespaceEvent, true
	case "features":
		return NamespaceFeatures, true
	case "api":
		return NamespaceAPI, true
	case "service":
		return NamespaceService, true
	case "vars":
		return NamespaceVars, true
	case "sys":
		return NamespaceSys, true
	case "env":
		return NamespaceEnv, true
	case "results":
		return NamespaceResults, true
	default:
		return 0, false
	}
}

// Writable reports whether a namespace may ever be the target of a Store,
// independent of which step kind is doing the storing (spec.md §3.3
// invariant 1). event/sys/env/results are read-only for the whole VM.
func (n Namespace) Writable() bool {
	switch n {
	case NamespaceFeatures, NamespaceAPI, NamespaceService, NamespaceVars:
		return true
	default:
		return false
	}
}

// StepKind identifies which pipeline step variant is asking to write, so
// WritableBy can enforce the narrower per-step-kind ownership spec.md §3.3
// describes ("a namespace is mutated only by its owning step kind").
type StepKind uint8

const (
	StepKindRuleset StepKind = iota
	StepKindRouter
	StepKindExtract
	StepKindAPI
	StepKindService
	StepKindAction
)

// WritableBy reports whether the given step kind owns this namespace.
// Vars is shared scratch space any step kind may use (mirroring the
// teacher's `locals` map, which every rule/fact/let evaluation can set);
// every other writable namespace is owned by exactly one step kind.
func (n Namespace) WritableBy(kind StepKind) bool {
	switch n {
	case NamespaceVars:
		return true
	case NamespaceFeatures:
		return kind == StepKindExtract
	case NamespaceAPI:
		return kind == StepKindAPI
	case NamespaceService:
		return kind == StepKindService
	default:
		return false
	}
}
