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

package parser

import (
	"github.com/corintai/corint-core/ast"
	"github.com/corintai/corint-core/tokens"
)

// parseIdentifierOrCall parses an identifier, greedily consuming `.tail`
// segments into a FieldPath (spec.md §3.2 namespace addressing), unless the
// identifier is immediately followed by `(`, in which case it is a builtin
// function call (spec.md §4.3 Codegen built-ins table).
func parseIdentifierOrCall(p *Parser) ast.Expression {
	first := p.advance()

	if p.canExpect(tokens.PunctLeftParentheses) {
		return parseCallExpression(p, first)
	}

	segments := []string{first.Value}
	end := first.Range.To
	for p.canExpect(tokens.TokenDot) {
		p.advance() // consume '.'
		ident, ok := p.advanceExpected(tokens.Ident)
		if !ok {
			return nil
		}
		segments = append(segments, ident.Value)
		end = ident.Range.To
	}

	return ast.NewFieldPath(segments, tokens.Range{File: first.Range.File, From: first.Range.From, To: end})
}

// parseInExpression handles both `value in [a, b]` / `value in some.path`
// and `value in list "known_fraud_emails"` (spec.md §4.6).
func parseInExpression(p *Parser, left ast.Expression, prec Precedence) ast.Expression {
	start := p.advance() // consume 'in'

	if p.canExpect(tokens.KeywordList) {
		p.advance() // consume 'list'
		listID, ok := p.advanceExpected(tokens.String)
		if !ok {
			return nil
		}
		return ast.NewInListExpression(left, listID.Value, false,
			tokens.Range{File: start.Range.File, From: left.Position().From, To: listID.Range.To})
	}

	collection := p.parseExpression(prec)
	if collection == nil {
		return nil
	}
	return ast.NewInExpression(left, collection, false,
		tokens.Range{File: start.Range.File, From: left.Position().From, To: collection.Position().To})
}

// parseIsExpression handles `value is null` (spec.md §4.2).
func parseIsExpression(p *Parser, left ast.Expression, prec Precedence) ast.Expression {
	start := p.advance() // consume 'is'
	nullTok, ok := p.advanceExpected(tokens.KeywordNull)
	if !ok {
		return nil
	}
	rnge := tokens.Range{File: start.Range.File, From: left.Position().From, To: nullTok.Range.To}
	return ast.NewBinaryExpression("is", left, ast.NewNullLiteral(nullTok.Range), rnge)
}
