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
	"strconv"

	"github.com/corintai/corint-core/ast"
	"github.com/corintai/corint-core/tokens"
)

func parseNullLiteral(p *Parser) ast.Expression {
	token := p.advance()
	return ast.NewNullLiteral(token.Range)
}

func parseBoolLiteral(p *Parser) ast.Expression {
	token := p.advance()
	return ast.NewBoolLiteral(token.Kind == tokens.KeywordTrue, token.Range)
}

func parseIntegerLiteral(p *Parser) ast.Expression {
	token := p.advance()
	value, err := strconv.ParseInt(token.Value, 10, 64)
	if err != nil {
		p.errorf("invalid integer literal %q: %s", token.Value, err)
		return nil
	}
	return ast.NewIntegerLiteral(value, token.Range)
}

func parseFloatLiteral(p *Parser) ast.Expression {
	token := p.advance()
	value, err := strconv.ParseFloat(token.Value, 64)
	if err != nil {
		p.errorf("invalid float literal %q: %s", token.Value, err)
		return nil
	}
	return ast.NewFloatLiteral(value, token.Range)
}

func parseStringLiteral(p *Parser) ast.Expression {
	token := p.advance()
	return ast.NewStringLiteral(token.Value, token.Range)
}

// parseListLiteral parses `[a, b, c]`, the inline collection operand of
// `in` (spec.md §4.2).
func parseListLiteral(p *Parser) ast.Expression {
	open := p.advance() // consume '['

	var values []ast.Expression
	for p.hasTokens() && !p.canExpect(tokens.PunctRightBracket) {
		v := p.parseExpression(LOWEST)
		if v == nil {
			return nil
		}
		values = append(values, v)
		if p.canExpect(tokens.PunctComma) {
			p.advance()
			continue
		}
		break
	}

	close, ok := p.advanceExpected(tokens.PunctRightBracket)
	if !ok {
		return nil
	}

	return ast.NewListLiteral(values, tokens.Range{File: open.Range.File, From: open.Range.From, To: close.Range.To})
}

func parseGroupedExpression(p *Parser) ast.Expression {
	p.advance() // consume '('
	exp := p.parseExpression(LOWEST)
	if exp == nil {
		return nil
	}
	if !p.expect(tokens.PunctRightParentheses) {
		return nil
	}
	return exp
}
