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

// Package ast defines the RDL abstract syntax tree: artifacts (Rule,
// Ruleset, Pipeline, DecisionTemplate, Registry, Feature/List/API/
// DataSource configs) and the expression grammar embedded in their
// `when`/`score`/`condition` fields. Every node retains its source Range
// so the parser's SourceMap contract (spec.md §4.2) holds all the way
// through compilation diagnostics.
package ast

import "github.com/corintai/corint-core/tokens"

// Node is implemented by every AST node, expression or artifact alike.
type Node interface {
	String() string
	Position() tokens.Range
}

// Expression is any node that evaluates to a runtime value.
type Expression interface {
	Node
	expressionNode()
}

// baseNode carries the source Range common to every node; expression and
// artifact types embed it to get Position() for free.
type baseNode struct {
	Rnge tokens.Range
}

func (b *baseNode) Position() tokens.Range { return b.Rnge }
