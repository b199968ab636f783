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
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/corintai/corint-core/ast"
	"github.com/pkg/errors"
)

// fileBackend loads a newline-delimited value file named by
// cfg.Source["path"] once at construction and hashes it into the same
// exact/prefix/glob membership structures memoryBackend uses — "file
// (loaded+hashed)" per spec.md §4.6. A file-backed list never re-reads
// its source after construction; picking up an edited file means
// recompiling the program that references it, same as any other
// repository-backed artifact.
type fileBackend struct {
	*memoryBackend
	path string
}

func newFileBackend(cfg *ast.ListConfig) (Backend, error) {
	path, _ := cfg.Source["path"].(string)
	if path == "" {
		return nil, fmt.Errorf("list %q: file backend requires source.path", cfg.ID)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "list %q: opening %s", cfg.ID, path)
	}
	defer f.Close()

	var values []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		values = append(values, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "list %q: reading %s", cfg.ID, path)
	}

	mem, err := newMemoryBackend(&ast.ListConfig{
		ID:            cfg.ID,
		Backend:       "memory",
		CaseNormalize: cfg.CaseNormalize,
		MatchMode:     cfg.MatchMode,
		Values:        values,
	})
	if err != nil {
		return nil, err
	}
	return &fileBackend{memoryBackend: mem.(*memoryBackend), path: path}, nil
}

var _ Backend = (*fileBackend)(nil)

func (b *fileBackend) Contains(ctx context.Context, value string) (bool, error) {
	return b.memoryBackend.Contains(ctx, value)
}
