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

package compiler

import (
	"github.com/corintai/corint-core/ast"
	"github.com/corintai/corint-core/rdl"
	"github.com/corintai/corint-core/xerr"
)

// Set is the compiler's working set of artifacts for one compilation run
// (spec.md §4.3 Pass 1: "recursively fetch ... into a working set"),
// indexed by id within each kind.
type Set struct {
	Rules     map[string]*ast.Rule
	Rulesets  map[string]*ast.Ruleset
	Pipelines map[string]*ast.Pipeline
	Templates map[string]*ast.DecisionTemplate
	Registries map[string]*ast.Registry
	Features  map[string]*ast.FeatureConfig
	Lists     map[string]*ast.ListConfig
	APIs      map[string]*ast.ApiConfig
	Datasources map[string]*ast.DataSourceConfig
}

func newSet() *Set {
	return &Set{
		Rules:       map[string]*ast.Rule{},
		Rulesets:    map[string]*ast.Ruleset{},
		Pipelines:   map[string]*ast.Pipeline{},
		Templates:   map[string]*ast.DecisionTemplate{},
		Registries:  map[string]*ast.Registry{},
		Features:    map[string]*ast.FeatureConfig{},
		Lists:       map[string]*ast.ListConfig{},
		APIs:        map[string]*ast.ApiConfig{},
		Datasources: map[string]*ast.DataSourceConfig{},
	}
}

// BuildSet indexes every loaded Document by (kind, id), failing with
// xerr.ConfigError on a duplicate id within a kind (spec.md §4.1 repository
// contract: ids are unique within a kind).
func BuildSet(docs []*rdl.Document) (*Set, error) {
	set := newSet()
	for _, doc := range docs {
		switch doc.Kind {
		case rdl.KindRule:
			if _, dup := set.Rules[doc.Rule.ID]; dup {
				return nil, xerr.ErrConfig(doc.Rule.Position(), "duplicate rule id %q", doc.Rule.ID)
			}
			set.Rules[doc.Rule.ID] = doc.Rule
		case rdl.KindRuleset:
			if _, dup := set.Rulesets[doc.Ruleset.ID]; dup {
				return nil, xerr.ErrConfig(doc.Ruleset.Position(), "duplicate ruleset id %q", doc.Ruleset.ID)
			}
			set.Rulesets[doc.Ruleset.ID] = doc.Ruleset
		case rdl.KindPipeline:
			if _, dup := set.Pipelines[doc.Pipeline.ID]; dup {
				return nil, xerr.ErrConfig(doc.Pipeline.Position(), "duplicate pipeline id %q", doc.Pipeline.ID)
			}
			set.Pipelines[doc.Pipeline.ID] = doc.Pipeline
		case rdl.KindDecisionTemplate:
			if _, dup := set.Templates[doc.DecisionTemplate.ID]; dup {
				return nil, xerr.ErrConfig(doc.DecisionTemplate.Position(), "duplicate decision_template id %q", doc.DecisionTemplate.ID)
			}
			set.Templates[doc.DecisionTemplate.ID] = doc.DecisionTemplate
		case rdl.KindRegistry:
			if _, dup := set.Registries[doc.Registry.ID]; dup {
				return nil, xerr.ErrConfig(doc.Registry.Position(), "duplicate registry id %q", doc.Registry.ID)
			}
			set.Registries[doc.Registry.ID] = doc.Registry
		case rdl.KindFeature:
			if _, dup := set.Features[doc.Feature.ID]; dup {
				return nil, xerr.ErrConfig(doc.Feature.Position(), "duplicate feature id %q", doc.Feature.ID)
			}
			set.Features[doc.Feature.ID] = doc.Feature
		case rdl.KindList:
			if _, dup := set.Lists[doc.List.ID]; dup {
				return nil, xerr.ErrConfig(doc.List.Position(), "duplicate list id %q", doc.List.ID)
			}
			set.Lists[doc.List.ID] = doc.List
		case rdl.KindAPI:
			if _, dup := set.APIs[doc.API.ID]; dup {
				return nil, xerr.ErrConfig(doc.API.Position(), "duplicate api id %q", doc.API.ID)
			}
			set.APIs[doc.API.ID] = doc.API
		case rdl.KindDatasource:
			if _, dup := set.Datasources[doc.Datasource.ID]; dup {
				return nil, xerr.ErrConfig(doc.Datasource.Position(), "duplicate datasource id %q", doc.Datasource.ID)
			}
			set.Datasources[doc.Datasource.ID] = doc.Datasource
		}
		// An imports-only document (rdl.Kind zero value) contributes
		// nothing to the set beyond what rdl.LoadAll already folded into
		// Document.Imports for Pass 1 to read directly from the caller's
		// document list.
	}
	return set, nil
}
