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

import "github.com/corintai/corint-core/tokens"

// RegistryEntry maps one event-matching condition to a pipeline; Registry
// evaluates entries top-down, first match wins (spec.md §3.1, §4.9).
type RegistryEntry struct {
	PipelineID string
	When       *ConditionTree
}

// Registry is the top-level event -> pipeline routing table.
type Registry struct {
	*baseNode
	ID      string
	Entries []RegistryEntry
}

func (r *Registry) String() string { return "registry " + r.ID }

var _ Node = &Registry{}

func NewRegistry(id string, r tokens.Range) *Registry {
	return &Registry{baseNode: &baseNode{Rnge: r}, ID: id}
}
