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
	"strings"

	"github.com/corintai/corint-core/tokens"
)

// FieldPath is a dot-separated path, e.g. `event.user.tier` or
// `results.login_risk.total_score`. The first segment names one of the
// eight execution-context namespaces (spec.md §3.2); Pass 5 (Semantic
// Analysis) is the sole authority on what that first segment may be and
// whether the path may be the target of a Store.
type FieldPath struct {
	*baseNode
	Segments []string
}

func NewFieldPath(segments []string, r tokens.Range) *FieldPath {
	return &FieldPath{&baseNode{Rnge: r}, segments}
}

func (n *FieldPath) String() string { return strings.Join(n.Segments, ".") }
func (n *FieldPath) expressionNode() {}

// Namespace returns the leading segment, e.g. "event", "features", "vars".
func (n *FieldPath) Namespace() string {
	if len(n.Segments) == 0 {
		return ""
	}
	return n.Segments[0]
}

// Tail returns the path with the namespace segment stripped.
func (n *FieldPath) Tail() []string {
	if len(n.Segments) <= 1 {
		return nil
	}
	return n.Segments[1:]
}

var _ Expression = &FieldPath{}
