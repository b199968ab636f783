// SPDX-License-Identifier: Apache-2.0

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

package tokens

// Kind identifies a lexical token category for the RDL expression grammar
// (the language embedded in `when`, `score`, `condition` and string-template
// fields of a rule definition document; see spec.md §4.2).
type Kind string

const (
	EOF     Kind = "EOF"
	Error   Kind = "Error"
	Unknown Kind = "Unknown"

	// Literals
	Ident  Kind = "Ident"
	String Kind = "String"
	Int    Kind = "Int"
	Float  Kind = "Float"

	// Keywords
	KeywordNull  Kind = "null"
	KeywordTrue  Kind = "true"
	KeywordFalse Kind = "false"
	KeywordIn    Kind = "in"
	KeywordIs    Kind = "is"
	KeywordList  Kind = "list"

	// Operators
	TokenEq       Kind = "Equals"
	TokenNeq      Kind = "NotEquals"
	TokenLte      Kind = "LessThanOrEqual"
	TokenGte      Kind = "GreaterThanOrEqual"
	TokenLt       Kind = "LessThan"
	TokenGt       Kind = "GreaterThan"
	TokenPlus     Kind = "Plus"
	TokenMinus    Kind = "Minus"
	TokenMul      Kind = "Multiply"
	TokenDiv      Kind = "Divide"
	TokenMod      Kind = "Modulo"
	TokenAnd      Kind = "LogicalAnd"
	TokenOr       Kind = "LogicalOr"
	TokenBang     Kind = "Bang"
	TokenQuestion Kind = "Question"
	PunctColon    Kind = "Colon"
	TokenDot      Kind = "Dot"

	// Punctuation
	PunctComma            Kind = "Comma"
	PunctLeftParentheses  Kind = "LeftParen"
	PunctRightParentheses Kind = "RightParen"
	PunctLeftBracket      Kind = "LeftBracket"
	PunctRightBracket     Kind = "RightBracket"
)

func IsKeyword(str string) (Kind, bool) {
	kind, exists := keywords[str]
	return kind, exists
}

// Keywords map for fast lookup. CORINT's expression grammar keeps its
// keyword surface intentionally small: `&&`/`||`/`!` are operator tokens,
// not words, so only the handful of word-shaped tokens the grammar actually
// needs (null literal, boolean literals, `in`/`in list` membership, `is
// null`) are reserved.
var keywords = map[string]Kind{
	"null":  KeywordNull,
	"true":  KeywordTrue,
	"false": KeywordFalse,
	"in":    KeywordIn,
	"is":    KeywordIs,
	"list":  KeywordList,
}

func (k Kind) String() string {
	return string(k)
}
