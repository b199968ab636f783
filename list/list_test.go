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
	"os"
	"path/filepath"
	"testing"

	"github.com/corintai/corint-core/ast"
	"github.com/corintai/corint-core/tokens"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newListConfig(id, backend string) *ast.ListConfig {
	cfg := ast.NewListConfig(id, tokens.Range{})
	cfg.Backend = backend
	return cfg
}

func TestMemoryBackendExactMatchCaseNormalized(t *testing.T) {
	cfg := newListConfig("blocked_emails", "memory")
	cfg.CaseNormalize = true
	cfg.Values = []string{"Fraud@example.com"}

	svc := New(map[string]*ast.ListConfig{"blocked_emails": cfg})
	found, err := svc.Contains("blocked_emails", "fraud@example.com")
	require.NoError(t, err)
	assert.True(t, found)

	found, err = svc.Contains("blocked_emails", "nobody@example.com")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryBackendPrefixMode(t *testing.T) {
	cfg := newListConfig("blocked_ranges", "memory")
	cfg.MatchMode = "prefix"
	cfg.Values = []string{"10.0."}

	svc := New(map[string]*ast.ListConfig{"blocked_ranges": cfg})
	found, err := svc.Contains("blocked_ranges", "10.0.0.5")
	require.NoError(t, err)
	assert.True(t, found)

	found, err = svc.Contains("blocked_ranges", "192.168.0.5")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryBackendGlobMode(t *testing.T) {
	cfg := newListConfig("disposable_domains", "memory")
	cfg.MatchMode = "glob"
	cfg.Values = []string{"*.tempmail.*"}

	svc := New(map[string]*ast.ListConfig{"disposable_domains": cfg})
	found, err := svc.Contains("disposable_domains", "a.tempmail.io")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestContainsUnknownListErrors(t *testing.T) {
	svc := New(map[string]*ast.ListConfig{})
	_, err := svc.Contains("nope", "x")
	assert.Error(t, err)
}

func TestFileBackendLoadsNewlineDelimitedValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "blocklist.txt")
	require.NoError(t, os.WriteFile(path, []byte("# comment\nfraud@example.com\n\nspam@example.com\n"), 0o644))

	cfg := newListConfig("blocked_emails", "file")
	cfg.Source = map[string]any{"path": path}

	svc := New(map[string]*ast.ListConfig{"blocked_emails": cfg})
	found, err := svc.Contains("blocked_emails", "spam@example.com")
	require.NoError(t, err)
	assert.True(t, found)

	found, err = svc.Contains("blocked_emails", "comment")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestUnsupportedBackendReturnsExternalError(t *testing.T) {
	cfg := newListConfig("watchlist", "redis")
	svc := New(map[string]*ast.ListConfig{"watchlist": cfg})
	_, err := svc.Contains("watchlist", "x")
	assert.Error(t, err)
}
