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

package bytecode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddKeepsIntInt(t *testing.T) {
	v, err := Add(int64(2), int64(3))
	require.NoError(t, err)
	assert.Equal(t, int64(5), v)
}

func TestAddWidensMixedToFloat(t *testing.T) {
	v, err := Add(int64(2), 1.5)
	require.NoError(t, err)
	assert.Equal(t, 3.5, v)
}

func TestAddNonNumericIsTypeError(t *testing.T) {
	_, err := Add("a", int64(1))
	var typeErr *TypeError
	require.ErrorAs(t, err, &typeErr)
}

func TestDivByZeroInt(t *testing.T) {
	_, err := Div(int64(1), int64(0))
	var divErr *DivisionByZero
	require.ErrorAs(t, err, &divErr)
}

func TestDivByZeroFloatProducesInf(t *testing.T) {
	v, err := Div(1.0, 0.0)
	require.NoError(t, err)
	assert.True(t, v.(float64) > 0)
}

func TestDivIntByIntStaysIntOnInexactResult(t *testing.T) {
	v, err := Div(int64(7), int64(2))
	require.NoError(t, err)
	assert.Equal(t, int64(3), v)

	v, err = Div(int64(-7), int64(2))
	require.NoError(t, err)
	assert.Equal(t, int64(-3), v)
}

func TestDivMixedIntFloatWidensToFloat(t *testing.T) {
	v, err := Div(int64(7), 2.0)
	require.NoError(t, err)
	assert.InDelta(t, 3.5, v.(float64), 0.0001)
}

func TestModRequiresBothInt(t *testing.T) {
	_, err := Mod(1.5, int64(2))
	var typeErr *TypeError
	require.ErrorAs(t, err, &typeErr)

	v, err := Mod(int64(7), int64(2))
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)
}

func TestEqNullHandling(t *testing.T) {
	eq, err := Eq(nil, nil)
	require.NoError(t, err)
	assert.True(t, eq)

	eq, err = Eq(nil, int64(0))
	require.NoError(t, err)
	assert.False(t, eq)

	eq, err = Eq(int64(0), nil)
	require.NoError(t, err)
	assert.False(t, eq)
}

func TestEqCrossTypeIsTypeError(t *testing.T) {
	_, err := Eq("5", int64(5))
	var typeErr *TypeError
	require.ErrorAs(t, err, &typeErr)
}

func TestEqIntFloat(t *testing.T) {
	eq, err := Eq(int64(5), 5.0)
	require.NoError(t, err)
	assert.True(t, eq)
}

func TestCompareNullIsFalse(t *testing.T) {
	lt, err := Compare("<", nil, int64(5))
	require.NoError(t, err)
	assert.False(t, lt)
}

func TestCompareStringLexicographic(t *testing.T) {
	lt, err := Compare("<", "apple", "banana")
	require.NoError(t, err)
	assert.True(t, lt)
}

func TestConcatRequiresStrings(t *testing.T) {
	_, err := Concat("a", int64(1))
	var typeErr *TypeError
	require.ErrorAs(t, err, &typeErr)

	v, err := Concat("a", "b")
	require.NoError(t, err)
	assert.Equal(t, "ab", v)
}

func TestKind(t *testing.T) {
	assert.Equal(t, "null", Kind(nil))
	assert.Equal(t, "int", Kind(int64(1)))
	assert.Equal(t, "float", Kind(1.5))
	assert.Equal(t, "string", Kind("x"))
	assert.Equal(t, "bool", Kind(true))
	assert.Equal(t, "array", Kind([]Value{}))
	assert.Equal(t, "object", Kind(map[string]Value{}))
}
