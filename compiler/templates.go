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

// instantiateTemplates is Pass 3 (spec.md §4.3): for every ruleset with a
// DecisionTemplateRef, fetch the template, validate supplied param names
// against its declared schema and fill declared defaults (a supplied
// value's type is not checked against the declared type), substitute
// `params.<name>` placeholders with literal values, materialize the
// result into DecisionLogic, and drop the template ref.
func instantiateTemplates(set *Set) Diagnostics {
	var diags Diagnostics
	for id, rs := range set.Rulesets {
		if rs.DecisionTemplateRef == nil {
			continue
		}
		ref := rs.DecisionTemplateRef
		tmpl, ok := set.Templates[ref.ID]
		if !ok {
			diags = append(diags, errDiag("template-instantiation", KindUnknownRef, rs.Position(),
				"ruleset %q references unknown decision_template %q", id, ref.ID))
			continue
		}

		params, err := resolveTemplateParams(tmpl, ref)
		if err != nil {
			diags = append(diags, errDiag("template-instantiation", KindTemplateParamMismatch, rs.Position(),
				"ruleset %q: %s", id, err))
			continue
		}

		logic, err := substituteDecisionRules(tmpl.Logic, params)
		if err != nil {
			diags = append(diags, errDiag("template-instantiation", KindTemplateParamMismatch, rs.Position(),
				"ruleset %q instantiating template %q: %s", id, ref.ID, err))
			continue
		}

		rs.DecisionLogic = logic
		rs.DecisionTemplateRef = nil
	}
	return diags
}

// resolveTemplateParams validates the ref's supplied params against the
// template's declared schema and fills in declared defaults for anything
// the ref omitted; an undeclared supplied param, or a missing required
// (no-default) param, is a TemplateParamMismatch.
func resolveTemplateParams(tmpl *ast.DecisionTemplate, ref *ast.DecisionTemplateRef) (map[string]ast.Literal, error) {
	declared := map[string]ast.ParamDecl{}
	for _, p := range tmpl.ParamsSchema {
		declared[p.Name] = p
	}
	for name := range ref.Params {
		if _, ok := declared[name]; !ok {
			return nil, errUndeclaredParam(tmpl.ID, name)
		}
	}

	resolved := map[string]ast.Literal{}
	for name, decl := range declared {
		if v, ok := ref.Params[name]; ok {
			resolved[name] = v
			continue
		}
		if decl.Default != nil {
			resolved[name] = decl.Default
			continue
		}
		return nil, errMissingParam(tmpl.ID, name)
	}
	return resolved, nil
}
