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

package orchestrator

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/corintai/corint-core/execctx"
	"github.com/corintai/corint-core/xerr"
)

var placeholderPattern = regexp.MustCompile(`\{([a-zA-Z_][a-zA-Z0-9_.]*)\}`)

// substituter implements external.Substituter for an Api/Service step's
// URL/header/query/auth templates: `{params.x}` resolves against the
// step's own already-evaluated Params, anything else resolves against
// the live Execution Context (spec.md §4.7, §6.1).
type substituter struct {
	ectx   *execctx.Context
	params map[string]any
}

func (s *substituter) Render(template string) (string, error) {
	var outerErr error
	out := placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		path := match[1 : len(match)-1]
		v, err := s.resolve(path)
		if err != nil {
			outerErr = err
			return match
		}
		return fmt.Sprint(v)
	})
	if outerErr != nil {
		return "", outerErr
	}
	return out, nil
}

func (s *substituter) resolve(path string) (any, error) {
	segments := strings.Split(path, ".")
	if segments[0] == "params" {
		if len(segments) < 2 {
			return nil, xerr.ErrRuntime("template placeholder %q: params requires a field name", path)
		}
		v, ok := s.params[segments[1]]
		if !ok {
			return nil, nil
		}
		return v, nil
	}
	ns, ok := execctx.NamespaceFromString(segments[0])
	if !ok {
		return nil, xerr.ErrRuntime("template placeholder %q: unknown namespace %q", path, segments[0])
	}
	return s.ectx.Load(ns, segments[1:])
}
