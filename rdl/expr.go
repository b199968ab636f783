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

package rdl

import (
	"regexp"
	"strings"

	"github.com/corintai/corint-core/ast"
	"github.com/corintai/corint-core/parser"
	"github.com/corintai/corint-core/tokens"
	"github.com/pkg/errors"
)

// parseExpr parses a single RDL expression field (a `when`, `score`, or
// condition string) using the file name as the attributed source.
func parseExpr(src, file string) (ast.Expression, error) {
	p := parser.NewParserFromString(src, file)
	expr, err := p.ParseExpression()
	if err != nil {
		return nil, errors.Wrapf(err, "%s: invalid expression %q", file, src)
	}
	return expr, nil
}

// parseCondition parses an expression field and lowers it to a
// ConditionTree (spec.md §3.1).
func parseCondition(src, file string) (*ast.ConditionTree, error) {
	if strings.TrimSpace(src) == "" {
		return nil, nil
	}
	expr, err := parseExpr(src, file)
	if err != nil {
		return nil, err
	}
	return ast.ConditionTreeFromExpression(expr), nil
}

// templatePlaceholder matches `{path.to.value}` interpolations inside a
// string-template field (spec.md §6.1).
var templatePlaceholder = regexp.MustCompile(`\{([a-zA-Z_][a-zA-Z0-9_]*(?:\.[a-zA-Z_][a-zA-Z0-9_]*)*)\}`)

// parseStringTemplate splits a `reason`/string-param field into literal and
// interpolated segments. It never fails: a malformed placeholder is kept
// verbatim as literal text, mirroring the teacher's tolerant string
// handling rather than treating authoring typos as hard compile errors
// here. The compiler's Semantic Analysis pass does not check the
// placeholder paths either.
func parseStringTemplate(src, file string) *ast.StringTemplate {
	var segments []ast.TemplateSegment
	last := 0
	for _, loc := range templatePlaceholder.FindAllStringSubmatchIndex(src, -1) {
		if loc[0] > last {
			segments = append(segments, ast.TemplateSegment{Literal: src[last:loc[0]]})
		}
		pathStr := src[loc[2]:loc[3]]
		segs := strings.Split(pathStr, ".")
		segments = append(segments, ast.TemplateSegment{
			Path: ast.NewFieldPath(segs, tokens.Range{File: file}),
		})
		last = loc[1]
	}
	if last < len(src) {
		segments = append(segments, ast.TemplateSegment{Literal: src[last:]})
	}
	return ast.NewStringTemplate(src, segments, tokens.Range{File: file})
}
