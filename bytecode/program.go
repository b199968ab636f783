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

package bytecode

import "github.com/corintai/corint-core/tokens"

// Instr is one bytecode instruction. Operand meaning depends on Op:
//   - PushConst: A indexes Program.Constants
//   - LoadField: A is the namespace (see NamespaceFromByte), B indexes
//     Program.FieldPaths
//   - LoadResult: A indexes Program.Strings (ruleset id), B indexes
//     Program.Strings (field name)
//   - StoreVar, MarkTriggered, SetReason, CallFeature: A indexes
//     Program.Strings
//   - CallBuiltin, CallExternalApi: A indexes Program.Strings (builtin or
//     api id), B is argc or indexes an endpoint id in Program.Strings
//   - Jump/JumpIfTrue/JumpIfFalse: A is an absolute instruction index
//   - SetAction: A indexes Program.Strings (Action literal)
//   - SetActions: A indexes Program.ListRefs
//   - AddScore, Dup, Pop, Swap, Neg, binary ops, Terminate, Return,
//     LoadTotalScore, LoadTriggeredRules: operands unused. The latter two
//     push the enclosing ruleset/pipeline's own live score/triggered-rules
//     accumulator, distinct from LoadResult which reads another, already
//     completed artifact's published results (spec.md §3.3 invariant 1).
type Instr struct {
	Op OpCode
	A  int32
	B  int32
	// Span anchors the instruction back to the RDL source that produced it,
	// for RuntimeError{instruction_index, source_span} (spec.md §4.4).
	Span tokens.Range
}

// Metadata identifies what a Program was compiled from and at what
// repository version, so the program cache can key on
// (kind,id,version_bundle_hash) (spec.md §3.4).
type Metadata struct {
	Kind           string
	SourceID       string
	Version        int64
	VersionBundle  map[string]int64 // (kind,id) -> version, every artifact folded into this program
	InitialDepth   int              // operand-stack depth computed at compile time plus safety margin (spec.md §4.4)
}

// Program is the compiled form of a Rule, Ruleset, or Pipeline
// (spec.md §3.2). Instructions are position-independent except for the
// explicit jump offsets baked in as absolute indices at Codegen time.
type Program struct {
	Instructions []Instr
	Constants    []Value
	Strings      []string
	FieldPaths   [][]string // dot-path segments referenced by LoadField, minus the namespace head
	ListRefs     [][]Action // materialized Actions lists for SetActions
	Metadata     Metadata
}

// Action mirrors ast.Action without importing the ast package — bytecode
// is downstream of ast, never the reverse (Codegen, in the compiler
// package, is the only place that converts one into the other).
type Action string

func (p *Program) String() string {
	return p.Metadata.Kind + ":" + p.Metadata.SourceID
}
