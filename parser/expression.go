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

import "github.com/corintai/corint-core/ast"

// parseExpression is the core Pratt loop: parse a prefix expression, then
// keep folding in infix operators whose precedence exceeds the caller's
// floor.
func (p *Parser) parseExpression(precedence Precedence) ast.Expression {
	prefix, ok := p.prefixHandlers[p.current.Kind]
	if !ok {
		p.noPrefixParseFnError(p.current)
		return nil
	}

	left := prefix(p)
	if left == nil {
		return nil
	}

	for precedences[p.current.Kind] > precedence {
		infix, ok := p.infixHandlers[p.current.Kind]
		if !ok {
			break
		}
		left = infix(p, left, precedences[p.current.Kind])
		if left == nil {
			return nil
		}
	}

	return left
}
