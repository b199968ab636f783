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
	"testing"

	"github.com/corintai/corint-core/ast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseExpr(t *testing.T, src string) ast.Expression {
	t.Helper()
	p := NewParserFromString(src, "test.rdl")
	expr, err := p.ParseExpression()
	require.NoError(t, err)
	require.NotNil(t, expr)
	return expr
}

func TestParseLiterals(t *testing.T) {
	assert.Equal(t, "null", parseExpr(t, "null").String())
	assert.Equal(t, "true", parseExpr(t, "true").String())
	assert.Equal(t, "false", parseExpr(t, "false").String())
	assert.Equal(t, "42", parseExpr(t, "42").String())
	assert.Equal(t, `"fraud"`, parseExpr(t, `"fraud"`).String())

	f, ok := parseExpr(t, "3.5").(*ast.FloatLiteral)
	require.True(t, ok)
	assert.InDelta(t, 3.5, f.Value, 1e-9)
}

func TestParseFieldPath(t *testing.T) {
	path, ok := parseExpr(t, "event.user.tier").(*ast.FieldPath)
	require.True(t, ok)
	assert.Equal(t, []string{"event", "user", "tier"}, path.Segments)
	assert.Equal(t, "event", path.Namespace())
	assert.Equal(t, []string{"user", "tier"}, path.Tail())
}

func TestParseArithmeticPrecedence(t *testing.T) {
	expr := parseExpr(t, "1 + 2 * 3")
	bin, ok := expr.(*ast.BinaryExpression)
	require.True(t, ok)
	assert.Equal(t, "+", bin.Op)

	right, ok := bin.Right.(*ast.BinaryExpression)
	require.True(t, ok)
	assert.Equal(t, "*", right.Op)
}

func TestParseComparisonAndLogical(t *testing.T) {
	expr := parseExpr(t, "event.amount > 1000 && event.country != \"US\"")
	logical, ok := expr.(*ast.LogicalExpression)
	require.True(t, ok)
	assert.Equal(t, "&&", logical.Op)

	left, ok := logical.Left.(*ast.BinaryExpression)
	require.True(t, ok)
	assert.Equal(t, ">", left.Op)

	right, ok := logical.Right.(*ast.BinaryExpression)
	require.True(t, ok)
	assert.Equal(t, "!=", right.Op)
}

func TestParseTernaryIsRightAssociative(t *testing.T) {
	expr := parseExpr(t, "a ? 1 : b ? 2 : 3")
	outer, ok := expr.(*ast.TernaryExpression)
	require.True(t, ok)

	_, isNested := outer.Else.(*ast.TernaryExpression)
	assert.True(t, isNested, "else branch should itself be a ternary")
}

func TestParseCallExpression(t *testing.T) {
	expr := parseExpr(t, `count(event.user_id, "24h")`)
	call, ok := expr.(*ast.CallExpression)
	require.True(t, ok)
	assert.Equal(t, "count", call.Callee)
	require.Len(t, call.Args, 2)
}

func TestParseInList(t *testing.T) {
	expr := parseExpr(t, `event.email in list "known_fraud_emails"`)
	inList, ok := expr.(*ast.InListExpression)
	require.True(t, ok)
	assert.Equal(t, "known_fraud_emails", inList.ListID)
	assert.False(t, inList.Negate)
}

func TestParseInInlineList(t *testing.T) {
	expr := parseExpr(t, `event.country in ["US", "CA", "MX"]`)
	in, ok := expr.(*ast.InExpression)
	require.True(t, ok)
	list, ok := in.Collection.(*ast.ListLiteral)
	require.True(t, ok)
	assert.Len(t, list.Values, 3)
}

func TestParseIsNull(t *testing.T) {
	expr := parseExpr(t, "vars.risk_score is null")
	bin, ok := expr.(*ast.BinaryExpression)
	require.True(t, ok)
	assert.Equal(t, "is", bin.Op)
	_, isNull := bin.Right.(*ast.NullLiteral)
	assert.True(t, isNull)
}

func TestParseUnaryAndGrouping(t *testing.T) {
	expr := parseExpr(t, "!(event.flagged && vars.override)")
	unary, ok := expr.(*ast.UnaryExpression)
	require.True(t, ok)
	assert.Equal(t, "!", unary.Op)
	_, isLogical := unary.Operand.(*ast.LogicalExpression)
	assert.True(t, isLogical)
}

func TestParseErrorOnUnexpectedToken(t *testing.T) {
	p := NewParserFromString("event.amount >", "test.rdl")
	_, err := p.ParseExpression()
	assert.Error(t, err)
}

func TestParseErrorOnTrailingTokens(t *testing.T) {
	p := NewParserFromString("1 + 2 3", "test.rdl")
	_, err := p.ParseExpression()
	assert.Error(t, err)
}
