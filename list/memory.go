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

package list

import (
	"context"
	"strings"

	"github.com/corintai/corint-core/ast"
)

// memoryBackend holds a ListConfig's inline Values in a set, matching
// the MatchMode declared on the config: exact membership, prefix, or a
// shell-style glob (`path/filepath.Match` semantics, via strings for the
// simple `*`/`?` cases this list type supports).
type memoryBackend struct {
	mode    string
	exact   map[string]struct{}
	entries []string // retained for prefix/glob modes
}

func newMemoryBackend(cfg *ast.ListConfig) (Backend, error) {
	b := &memoryBackend{mode: cfg.MatchMode, entries: append([]string(nil), cfg.Values...)}
	if b.mode == "" {
		b.mode = "exact"
	}
	if b.mode == "exact" {
		b.exact = make(map[string]struct{}, len(cfg.Values))
		for _, v := range cfg.Values {
			norm := v
			if cfg.CaseNormalize {
				norm = strings.ToLower(norm)
			}
			b.exact[norm] = struct{}{}
		}
	}
	return b, nil
}

func (b *memoryBackend) Contains(_ context.Context, value string) (bool, error) {
	switch b.mode {
	case "exact":
		_, ok := b.exact[value]
		return ok, nil
	case "prefix":
		for _, entry := range b.entries {
			if strings.HasPrefix(value, entry) {
				return true, nil
			}
		}
		return false, nil
	case "glob":
		for _, entry := range b.entries {
			if globMatch(entry, value) {
				return true, nil
			}
		}
		return false, nil
	default:
		return false, nil
	}
}

// globMatch supports the two glob metacharacters RDL list patterns use:
// `*` (any run of characters) and `?` (exactly one character).
func globMatch(pattern, value string) bool {
	return globMatchRunes([]rune(pattern), []rune(value))
}

func globMatchRunes(pattern, value []rune) bool {
	if len(pattern) == 0 {
		return len(value) == 0
	}
	switch pattern[0] {
	case '*':
		if globMatchRunes(pattern[1:], value) {
			return true
		}
		for len(value) > 0 {
			value = value[1:]
			if globMatchRunes(pattern[1:], value) {
				return true
			}
		}
		return false
	case '?':
		if len(value) == 0 {
			return false
		}
		return globMatchRunes(pattern[1:], value[1:])
	default:
		if len(value) == 0 || value[0] != pattern[0] {
			return false
		}
		return globMatchRunes(pattern[1:], value[1:])
	}
}
