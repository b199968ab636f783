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

func parseUnaryExpression(p *Parser) ast.Expression {
	op := p.advance()
	operand := p.parseExpression(UNARY)
	if operand == nil {
		return nil
	}
	return ast.NewUnaryExpression(op.Value, operand,
		tokens.Range{File: op.Range.File, From: op.Range.From, To: operand.Position().To})
}

func parseBinaryExpression(p *Parser, left ast.Expression, prec Precedence) ast.Expression {
	op := p.advance()
	right := p.parseExpression(prec)
	if right == nil {
		return nil
	}
	rnge := tokens.Range{File: op.Range.File, From: left.Position().From, To: right.Position().To}
	return ast.NewBinaryExpression(op.Value, left, right, rnge)
}

func parseLogicalExpression(p *Parser, left ast.Expression, prec Precedence) ast.Expression {
	op := p.advance()
	right := p.parseExpression(prec)
	if right == nil {
		return nil
	}
	rnge := tokens.Range{File: op.Range.File, From: left.Position().From, To: right.Position().To}
	return ast.NewLogicalExpression(op.Value, left, right, rnge)
}

// parseTernaryExpression handles `cond ? then : else`. The else branch
// parses at LOWEST so a following `?` nests inside it, making the construct
// right-associative, matching how nested `a ? b : c ? d : e` reads in rule
// authoring.
func parseTernaryExpression(p *Parser, cond ast.Expression, prec Precedence) ast.Expression {
	if !p.expect(tokens.TokenQuestion) {
		return nil
	}
	then := p.parseExpression(TERNARY)
	if then == nil {
		return nil
	}
	if !p.expect(tokens.PunctColon) {
		return nil
	}
	els := p.parseExpression(LOWEST)
	if els == nil {
		return nil
	}
	rnge := tokens.Range{File: cond.Position().File, From: cond.Position().From, To: els.Position().To}
	return ast.NewTernaryExpression(cond, then, els, rnge)
}

// parseCallExpression parses the argument list of a builtin function call;
// callee has already been consumed by parseIdentifierOrCall.
func parseCallExpression(p *Parser, callee tokens.Instance) ast.Expression {
	if !p.expect(tokens.PunctLeftParentheses) {
		return nil
	}

	var args []ast.Expression
	for p.hasTokens() && !p.canExpect(tokens.PunctRightParentheses) {
		arg := p.parseExpression(LOWEST)
		if arg == nil {
			return nil
		}
		args = append(args, arg)
		if p.canExpect(tokens.PunctComma) {
			p.advance()
			continue
		}
		break
	}

	closeParen, ok := p.advanceExpected(tokens.PunctRightParentheses)
	if !ok {
		return nil
	}

	rnge := tokens.Range{File: callee.Range.File, From: callee.Range.From, To: closeParen.Range.To}
	return ast.NewCallExpression(callee.Value, args, rnge)
}
