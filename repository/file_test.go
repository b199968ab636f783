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

package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/corintai/corint-core/rdl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileRefreshDiscoversArtifactsByDeclaredID(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	ruleDir := filepath.Join(root, "anything", "goes")
	require.NoError(t, os.MkdirAll(ruleDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(ruleDir, "whatever.rdl.yaml"), []byte(sampleRuleYAML), 0o644))

	repo, err := NewFile(ctx, root)
	require.NoError(t, err)

	ids, err := repo.List(ctx, rdl.KindRule)
	require.NoError(t, err)
	assert.Equal(t, []string{"consecutive_failures"}, ids)

	vt, err := repo.Load(ctx, rdl.KindRule, "consecutive_failures")
	require.NoError(t, err)
	assert.Equal(t, sampleRuleYAML, vt.Text)
}

func TestFilePutWritesConventionalPathAndLoadRoundTrips(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	repo, err := NewFile(ctx, root)
	require.NoError(t, err)

	ver, err := repo.Put(ctx, rdl.KindRule, "consecutive_failures", sampleRuleYAML)
	require.NoError(t, err)
	assert.Equal(t, int64(1), ver)

	got, err := repo.Load(ctx, rdl.KindRule, "consecutive_failures")
	require.NoError(t, err)
	assert.Equal(t, sampleRuleYAML, got.Text)

	_, err = os.Stat(filepath.Join(root, string(rdl.KindRule), "consecutive_failures.rdl.yaml"))
	assert.NoError(t, err)
}

func TestFilePutRejectsMismatchedID(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	repo, err := NewFile(ctx, root)
	require.NoError(t, err)

	_, err = repo.Put(ctx, rdl.KindRule, "some_other_id", sampleRuleYAML)
	assert.Error(t, err)
}

func TestFileRefreshCarriesVersionForwardWhenContentUnchanged(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	path := filepath.Join(root, string(rdl.KindRule))
	require.NoError(t, os.MkdirAll(path, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(path, "consecutive_failures.rdl.yaml"), []byte(sampleRuleYAML), 0o644))

	repo, err := NewFile(ctx, root)
	require.NoError(t, err)
	before, err := repo.Load(ctx, rdl.KindRule, "consecutive_failures")
	require.NoError(t, err)

	require.NoError(t, repo.Refresh(ctx))
	after, err := repo.Load(ctx, rdl.KindRule, "consecutive_failures")
	require.NoError(t, err)
	assert.Equal(t, before.Version, after.Version)
}

func TestFileDeleteRemovesFileAndIndexEntry(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	repo, err := NewFile(ctx, root)
	require.NoError(t, err)
	_, err = repo.Put(ctx, rdl.KindRule, "consecutive_failures", sampleRuleYAML)
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, rdl.KindRule, "consecutive_failures"))
	_, err = repo.Load(ctx, rdl.KindRule, "consecutive_failures")
	assert.ErrorIs(t, err, ErrNotFound)

	_, statErr := os.Stat(filepath.Join(root, string(rdl.KindRule), "consecutive_failures.rdl.yaml"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestFileLoadMissingReturnsNotFound(t *testing.T) {
	ctx := context.Background()
	repo, err := NewFile(ctx, t.TempDir())
	require.NoError(t, err)
	_, err = repo.Load(ctx, rdl.KindRule, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}
