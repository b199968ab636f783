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

import "github.com/corintai/corint-core/ast"

// stepArtifactRef reports the (kind, id) of the artifact a step variant
// references outside the pipeline itself, if any. Router/Extract/Action
// steps reference no external artifact kind this graph tracks (Extract's
// features are feature ids, tracked separately since a pipeline may list
// several per step — see checkPipeline in semantic.go).
func stepArtifactRef(step ast.Step) (kind, id string, ok bool) {
	switch s := step.(type) {
	case *ast.RulesetStep:
		return "ruleset", s.RulesetRef, true
	case *ast.ApiStep:
		return "api", s.Api, true
	case *ast.ServiceStep:
		// Service steps share the External API Caller implementation
		// (spec.md §4.7); their target is still looked up in the api
		// artifact kind.
		return "api", s.Service, true
	default:
		return "", "", false
	}
}

func refExistsInSet(set *Set, kind, id string) bool {
	switch kind {
	case "rule":
		_, ok := set.Rules[id]
		return ok
	case "ruleset":
		_, ok := set.Rulesets[id]
		return ok
	case "pipeline":
		_, ok := set.Pipelines[id]
		return ok
	case "decision_template":
		_, ok := set.Templates[id]
		return ok
	case "registry":
		_, ok := set.Registries[id]
		return ok
	case "feature":
		_, ok := set.Features[id]
		return ok
	case "list":
		_, ok := set.Lists[id]
		return ok
	case "api":
		_, ok := set.APIs[id]
		return ok
	case "datasource":
		_, ok := set.Datasources[id]
		return ok
	default:
		return false
	}
}
