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

// Package parser turns the token stream produced by lexer into an
// ast.Expression tree via Pratt (precedence-climbing) parsing. It only
// knows the expression grammar embedded in RDL documents (`when`, `score`,
// string templates); the surrounding YAML document shape is the rdl
// package's concern.
package parser

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/corintai/corint-core/ast"
	"github.com/corintai/corint-core/lexer"
	"github.com/corintai/corint-core/tokens"
)

type prefixParser func(p *Parser) ast.Expression
type infixParser func(p *Parser, left ast.Expression, prec Precedence) ast.Expression

type Parser struct {
	lexer     *lexer.Lexer
	reference string

	current tokens.Instance
	next    tokens.Instance
	atEOF   bool

	err error

	prefixHandlers map[tokens.Kind]prefixParser
	infixHandlers  map[tokens.Kind]infixParser
}

// NewParser creates a parser reading from input, attributing positions to
// reference (typically the originating RDL document path and field).
func NewParser(input io.Reader, reference string) *Parser {
	p := &Parser{
		lexer:     lexer.NewLexer(input, reference),
		reference: reference,
	}
	p.registerParseFns()
	p.advance()
	p.advance()
	return p
}

// NewParserFromString is a convenience constructor over a string body.
func NewParserFromString(input, reference string) *Parser {
	return NewParser(strings.NewReader(input), reference)
}

// ParseExpression parses a single complete expression and reports any
// error accumulated while doing so.
func (p *Parser) ParseExpression() (ast.Expression, error) {
	expr := p.parseExpression(LOWEST)
	if p.err != nil {
		return nil, p.err
	}
	if !p.atEOF {
		return nil, fmt.Errorf("unexpected trailing token %s at %s", p.current.Kind, p.current.Range)
	}
	return expr, nil
}

func (p *Parser) head() tokens.Instance { return p.current }

func (p *Parser) advance() tokens.Instance {
	if p.atEOF {
		return tokens.Err(p.current.Range, "cannot advance, already at EOF")
	}
	if p.current.IsOfKind(tokens.Error) {
		p.errorf(p.current.Value)
		return p.current
	}
	current := p.current
	p.current = p.next
	if p.current.Kind == tokens.EOF {
		p.atEOF = true
		return current
	}
	p.next = p.lexer.NextToken()
	return current
}

func (p *Parser) advanceExpected(kind tokens.Kind) (tokens.Instance, bool) {
	token := p.current
	if !token.IsOfKind(kind) {
		p.errorf("expected %s, got %s at %s", kind, p.current.Kind, p.current.Range)
		return tokens.Err(p.current.Range, fmt.Sprintf("expected %s, got %s", kind, p.current.Kind)), false
	}
	return p.advance(), true
}

func (p *Parser) expect(kind tokens.Kind) bool {
	if p.current.Kind != kind {
		p.errorf("expected '%s', got %s at %s", kind, p.current.Kind, p.current.Range)
		return false
	}
	p.advance()
	return true
}

func (p *Parser) canExpect(kind tokens.Kind) bool { return p.current.Kind == kind }

func (p *Parser) hasTokens() bool { return !p.atEOF }

func (p *Parser) errorf(format string, args ...any) {
	format = "parse error at %s: " + format
	args = append([]any{p.current.Range.String()}, args...)
	p.err = errors.Join(p.err, fmt.Errorf(format, args...))
}

func (p *Parser) registerPrefix(kind tokens.Kind, fn prefixParser) { p.prefixHandlers[kind] = fn }
func (p *Parser) registerInfix(kind tokens.Kind, fn infixParser)   { p.infixHandlers[kind] = fn }

func (p *Parser) noPrefixParseFnError(t tokens.Instance) {
	p.errorf("no prefix parse function for %s", t.Kind)
}

func (p *Parser) registerParseFns() {
	p.prefixHandlers = map[tokens.Kind]prefixParser{}
	p.infixHandlers = map[tokens.Kind]infixParser{}

	p.registerPrefix(tokens.KeywordNull, parseNullLiteral)
	p.registerPrefix(tokens.KeywordTrue, parseBoolLiteral)
	p.registerPrefix(tokens.KeywordFalse, parseBoolLiteral)
	p.registerPrefix(tokens.Int, parseIntegerLiteral)
	p.registerPrefix(tokens.Float, parseFloatLiteral)
	p.registerPrefix(tokens.String, parseStringLiteral)
	p.registerPrefix(tokens.Ident, parseIdentifierOrCall)
	p.registerPrefix(tokens.PunctLeftBracket, parseListLiteral)
	p.registerPrefix(tokens.PunctLeftParentheses, parseGroupedExpression)
	p.registerPrefix(tokens.TokenBang, parseUnaryExpression)
	p.registerPrefix(tokens.TokenMinus, parseUnaryExpression)

	p.registerInfix(tokens.TokenPlus, parseBinaryExpression)
	p.registerInfix(tokens.TokenMinus, parseBinaryExpression)
	p.registerInfix(tokens.TokenMul, parseBinaryExpression)
	p.registerInfix(tokens.TokenDiv, parseBinaryExpression)
	p.registerInfix(tokens.TokenMod, parseBinaryExpression)
	p.registerInfix(tokens.TokenEq, parseBinaryExpression)
	p.registerInfix(tokens.TokenNeq, parseBinaryExpression)
	p.registerInfix(tokens.TokenLt, parseBinaryExpression)
	p.registerInfix(tokens.TokenGt, parseBinaryExpression)
	p.registerInfix(tokens.TokenLte, parseBinaryExpression)
	p.registerInfix(tokens.TokenGte, parseBinaryExpression)
	p.registerInfix(tokens.TokenAnd, parseLogicalExpression)
	p.registerInfix(tokens.TokenOr, parseLogicalExpression)
	p.registerInfix(tokens.TokenQuestion, parseTernaryExpression)
	p.registerInfix(tokens.KeywordIn, parseInExpression)
	p.registerInfix(tokens.KeywordIs, parseIsExpression)
}
