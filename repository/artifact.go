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

package repository

import (
	"github.com/corintai/corint-core/rdl"
	"github.com/pkg/errors"
)

// docKindID reads the (kind, id) a decoded rdl.Document declares, the "ID
// derived from YAML header, not path" rule spec.md §4.1 requires of the
// file-tree backend. An imports-only document (no artifact body) has
// neither and is skipped by callers.
func docKindID(doc *rdl.Document) (Kind, string, bool) {
	switch doc.Kind {
	case rdl.KindRule:
		return rdl.KindRule, doc.Rule.ID, true
	case rdl.KindRuleset:
		return rdl.KindRuleset, doc.Ruleset.ID, true
	case rdl.KindPipeline:
		return rdl.KindPipeline, doc.Pipeline.ID, true
	case rdl.KindDecisionTemplate:
		return rdl.KindDecisionTemplate, doc.DecisionTemplate.ID, true
	case rdl.KindRegistry:
		return rdl.KindRegistry, doc.Registry.ID, true
	case rdl.KindFeature:
		return rdl.KindFeature, doc.Feature.ID, true
	case rdl.KindList:
		return rdl.KindList, doc.List.ID, true
	case rdl.KindAPI:
		return rdl.KindAPI, doc.API.ID, true
	case rdl.KindDatasource:
		return rdl.KindDatasource, doc.Datasource.ID, true
	default:
		return "", "", false
	}
}

// singleArtifactID parses text as exactly one RDL document and returns the
// (kind, id) it declares, for backends (file tree, DB row, HTTP fetch) that
// store one artifact's source text per (kind,id) key and need to confirm
// the text they were handed actually names that key.
func singleArtifactID(text, file string) (Kind, string, error) {
	docs, err := rdl.LoadAll([]byte(text), file)
	if err != nil {
		return "", "", errors.Wrapf(err, "repository: parsing %s", file)
	}
	for _, doc := range docs {
		if kind, id, ok := docKindID(doc); ok {
			return kind, id, nil
		}
	}
	return "", "", errors.Errorf("repository: %s declares no artifact", file)
}
