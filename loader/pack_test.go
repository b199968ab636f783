// SPDX-License-Identifier: Apache-2.0
//
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

package loader

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePack(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, PackFileName), []byte(content), 0o644))
	return dir
}

func TestLoadPackValidMinimal(t *testing.T) {
	dir := writePack(t, `
schema_version = "1"
name = "example_pack"
version = "0.1.0"
`)
	p, err := LoadPack(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, "example_pack", p.Name)
	assert.Equal(t, "0.1.0", p.Version)
	assert.Equal(t, dir, p.Location)
}

func TestLoadPackValidFull(t *testing.T) {
	dir := writePack(t, `
schema_version = "1"
name = "example.pack"
version = "1.2.3-alpha.1"
description = "a test pack"
license = "MIT"
repository = "https://github.com/example/pack"

[authors]
"Jane Smith" = "jane@example.com"

[engines]
corint = ">=0.1.0 <2.0.0"

[permissions]
fs_read = ["./data/**"]
net = ["https://api.example.com"]

[metadata]
category = "fraud"
`)
	p, err := LoadPack(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, "example.pack", p.Name)
	assert.Equal(t, "MIT", p.License)
	assert.Len(t, p.Authors, 1)
	assert.Equal(t, ">=0.1.0 <2.0.0", p.Engines.Corint)
	assert.Len(t, p.Permissions.FSRead, 1)
	assert.Len(t, p.Permissions.Net, 1)
	assert.Equal(t, "fraud", p.Metadata["category"])
}

func TestLoadPackMissingSchemaVersionFails(t *testing.T) {
	dir := writePack(t, `
name = "example_pack"
version = "0.1.0"
`)
	_, err := LoadPack(context.Background(), dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema_version")
}

func TestLoadPackMissingNameFails(t *testing.T) {
	dir := writePack(t, `
schema_version = "1"
version = "0.1.0"
`)
	_, err := LoadPack(context.Background(), dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name")
}

func TestLoadPackInvalidNameFails(t *testing.T) {
	dir := writePack(t, `
schema_version = "1"
name = "123invalid"
version = "0.1.0"
`)
	_, err := LoadPack(context.Background(), dir)
	require.Error(t, err)
}

func TestLoadPackUnknownTopLevelTableFails(t *testing.T) {
	dir := writePack(t, `
schema_version = "1"
name = "example_pack"

[unexpected]
field = "value"
`)
	_, err := LoadPack(context.Background(), dir)
	require.Error(t, err)
}

func TestLoadPackMetadataAllowsArbitraryFields(t *testing.T) {
	dir := writePack(t, `
schema_version = "1"
name = "example_pack"

[metadata]
custom_field = "value"
array = [1, 2, 3]
`)
	p, err := LoadPack(context.Background(), dir)
	require.NoError(t, err)
	assert.NotNil(t, p.Metadata)
}

func TestLoadPackWalksUpDirectoryTree(t *testing.T) {
	dir := writePack(t, `
schema_version = "1"
name = "example_pack"
`)
	nested := filepath.Join(dir, "a", "b", "c")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	p, err := LoadPack(context.Background(), nested)
	require.NoError(t, err)
	assert.Equal(t, "example_pack", p.Name)
	assert.Equal(t, dir, p.Location)
}

func TestLoadPackMissingFileReturnsNotFound(t *testing.T) {
	dir := t.TempDir()
	_, err := LoadPack(context.Background(), dir)
	require.Error(t, err)
}
