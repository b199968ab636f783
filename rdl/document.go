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

// Package rdl unmarshals RDL YAML documents (spec.md §4.1: rule, ruleset,
// pipeline, decision_template, registry, feature, list, api, datasource)
// into the ast package's node types. It owns the boundary between YAML
// text and the AST: every leaf expression string (`when`, `score`,
// string-template fields) is handed to the parser package here, so
// everything downstream of this package only ever sees ast.Expression.
package rdl

import (
	"bytes"
	"io"

	"github.com/corintai/corint-core/ast"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Kind is the tagged top-level key of an RDL document.
type Kind string

const (
	KindRule             Kind = "rule"
	KindRuleset          Kind = "ruleset"
	KindPipeline         Kind = "pipeline"
	KindDecisionTemplate Kind = "decision_template"
	KindRegistry         Kind = "registry"
	KindFeature          Kind = "feature"
	KindList             Kind = "list"
	KindAPI              Kind = "api"
	KindDatasource       Kind = "datasource"
)

// ErrUnknownKind is returned when a document has none of the recognized
// top-level keys.
var ErrUnknownKind = errors.New("rdl: document has no recognized top-level kind")

// rawDocument mirrors one YAML document's top-level shape. `imports` may sit
// beside one kind key; when several kind keys are present, build uses the
// first in its switch order and ignores the rest.
type rawDocument struct {
	Imports          []string              `yaml:"imports"`
	Rule             *rawRule              `yaml:"rule"`
	Ruleset          *rawRuleset           `yaml:"ruleset"`
	Pipeline         *rawPipeline          `yaml:"pipeline"`
	DecisionTemplate *rawDecisionTemplate  `yaml:"decision_template"`
	Registry         []rawRegistryEntry    `yaml:"registry"`
	Feature          *rawFeature           `yaml:"feature"`
	List             *rawList              `yaml:"list"`
	API              *rawAPI               `yaml:"api"`
	Datasource       *rawDatasource        `yaml:"datasource"`
}

// Document is one decoded artifact, ready for the compiler's Import
// Resolution pass (spec.md §4.3 Pass 1).
type Document struct {
	// File is the originating source path, used to attribute Range
	// positions in every expression parsed from this document.
	File    string
	Kind    Kind
	Imports []string

	// Exactly one of these is set, matching Kind.
	Rule             *ast.Rule
	Ruleset          *ast.Ruleset
	Pipeline         *ast.Pipeline
	DecisionTemplate *ast.DecisionTemplate
	Registry         *ast.Registry
	Feature          *ast.FeatureConfig
	List             *ast.ListConfig
	API              *ast.ApiConfig
	Datasource       *ast.DataSourceConfig
}

// LoadAll decodes every document in a (possibly multi-document) YAML
// stream, attributing positions to file.
func LoadAll(data []byte, file string) ([]*Document, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))

	var docs []*Document
	for {
		var raw rawDocument
		err := dec.Decode(&raw)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, errors.Wrapf(err, "rdl: decoding %s", file)
		}
		doc, err := build(&raw, file)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func build(raw *rawDocument, file string) (*Document, error) {
	doc := &Document{File: file, Imports: raw.Imports}

	switch {
	case raw.Rule != nil:
		doc.Kind = KindRule
		built, err := buildRule(raw.Rule, file)
		if err != nil {
			return nil, err
		}
		doc.Rule = built
	case raw.Ruleset != nil:
		doc.Kind = KindRuleset
		built, err := buildRuleset(raw.Ruleset, file)
		if err != nil {
			return nil, err
		}
		doc.Ruleset = built
	case raw.Pipeline != nil:
		doc.Kind = KindPipeline
		built, err := buildPipeline(raw.Pipeline, file)
		if err != nil {
			return nil, err
		}
		doc.Pipeline = built
	case raw.DecisionTemplate != nil:
		doc.Kind = KindDecisionTemplate
		built, err := buildDecisionTemplate(raw.DecisionTemplate, file)
		if err != nil {
			return nil, err
		}
		doc.DecisionTemplate = built
	case len(raw.Registry) > 0:
		doc.Kind = KindRegistry
		built, err := buildRegistry(raw.Registry, file)
		if err != nil {
			return nil, err
		}
		doc.Registry = built
	case raw.Feature != nil:
		doc.Kind = KindFeature
		built, err := buildFeature(raw.Feature, file)
		if err != nil {
			return nil, err
		}
		doc.Feature = built
	case raw.List != nil:
		doc.Kind = KindList
		built, err := buildList(raw.List, file)
		if err != nil {
			return nil, err
		}
		doc.List = built
	case raw.API != nil:
		doc.Kind = KindAPI
		built, err := buildAPI(raw.API, file)
		if err != nil {
			return nil, err
		}
		doc.API = built
	case raw.Datasource != nil:
		doc.Kind = KindDatasource
		built, err := buildDatasource(raw.Datasource, file)
		if err != nil {
			return nil, err
		}
		doc.Datasource = built
	case len(raw.Imports) > 0:
		// An imports-only document is legal (spec.md §4.1): nothing else to build.
		return doc, nil
	default:
		return nil, errors.Wrapf(ErrUnknownKind, "%s", file)
	}

	return doc, nil
}
