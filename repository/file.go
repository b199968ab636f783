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
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/corintai/corint-core/constants"
	"github.com/pkg/errors"
)

// fileEntry is one indexed artifact: its backing path plus the version the
// File backend's index currently has for it.
type fileEntry struct {
	path    string
	text    string
	version int64
	modTime time.Time
}

// File is the file-tree Repository backend (spec.md §4.1): recursively
// scans Root for PolicyFileExtension files, derives each artifact's
// (kind,id) from its own YAML header rather than its file path (so a
// directory layout is purely organizational), and serves Load/List from an
// in-memory index built by Refresh. Grounded on the teacher's own
// loader.LoadPrograms fs.WalkDir scan, generalized from `.sentra` script
// files to RDL YAML documents.
type File struct {
	Root string

	mu      sync.RWMutex
	index   map[Kind]map[string]*fileEntry
	nextVer int64
}

// NewFile builds a File repository rooted at root and performs an initial
// Refresh.
func NewFile(ctx context.Context, root string) (*File, error) {
	f := &File{Root: root, index: make(map[Kind]map[string]*fileEntry)}
	if err := f.Refresh(ctx); err != nil {
		return nil, err
	}
	return f, nil
}

// Refresh re-walks Root, rebuilding the index from scratch. A full rebuild
// rather than an incremental diff is the simple-first choice spec.md
// leaves open for the file backend; it costs one directory walk and N
// parses per refresh, acceptable for the TTL-driven reload cadence this
// backend targets (Cached wraps it for the request-hot path).
func (f *File) Refresh(ctx context.Context) error {
	next := make(map[Kind]map[string]*fileEntry)
	err := fs.WalkDir(os.DirFS(f.Root), ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			return nil
		}
		if !strings.HasSuffix(d.Name(), constants.PolicyFileExtension) {
			return nil
		}
		full := filepath.Join(f.Root, path)
		b, err := os.ReadFile(full)
		if err != nil {
			return errors.Wrapf(err, "repository: reading %s", full)
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		kind, id, err := singleArtifactID(string(b), full)
		if err != nil {
			return err
		}
		byID, ok := next[kind]
		if !ok {
			byID = make(map[string]*fileEntry)
			next[kind] = byID
		}
		byID[id] = &fileEntry{path: full, text: string(b), modTime: info.ModTime()}
		return nil
	})
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	// Carry version numbers forward: a file whose content is unchanged since
	// the previous Refresh keeps its version; a new or content-changed file
	// gets the next monotonic version (spec.md §3.3 invariant 8).
	for kind, byID := range next {
		prevByID := f.index[kind]
		for id, entry := range byID {
			if prev, ok := prevByID[id]; ok && prev.text == entry.text {
				entry.version = prev.version
				continue
			}
			f.nextVer++
			entry.version = f.nextVer
		}
	}
	f.index = next
	return nil
}

func (f *File) Load(_ context.Context, kind Kind, id string) (VersionedText, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	byID, ok := f.index[kind]
	if !ok {
		return VersionedText{}, errors.Wrapf(ErrNotFound, "%s/%s", kind, id)
	}
	entry, ok := byID[id]
	if !ok {
		return VersionedText{}, errors.Wrapf(ErrNotFound, "%s/%s", kind, id)
	}
	return VersionedText{Text: entry.text, Version: entry.version, ModTime: entry.modTime}, nil
}

func (f *File) List(_ context.Context, kind Kind) ([]string, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	byID := f.index[kind]
	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	return ids, nil
}

// Put writes text to the conventional path <root>/<kind>/<id>.rdl.yaml,
// overwriting it if present. The path is purely a write-time convention —
// Load/List never rely on it, per spec.md §4.1's "ID derived from YAML
// header, not path".
func (f *File) Put(_ context.Context, kind Kind, id string, text string) (int64, error) {
	gotKind, gotID, err := singleArtifactID(text, id)
	if err != nil {
		return 0, err
	}
	if gotKind != kind || gotID != id {
		return 0, errors.Errorf("repository: text declares %s/%s, not %s/%s", gotKind, gotID, kind, id)
	}

	dir := filepath.Join(f.Root, string(kind))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, errors.Wrap(err, "repository: creating artifact directory")
	}
	path := filepath.Join(dir, id+constants.PolicyFileExtension)
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return 0, errors.Wrapf(err, "repository: writing %s", path)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	byID, ok := f.index[kind]
	if !ok {
		byID = make(map[string]*fileEntry)
		f.index[kind] = byID
	}
	f.nextVer++
	byID[id] = &fileEntry{path: path, text: text, version: f.nextVer, modTime: time.Now()}
	return f.nextVer, nil
}

func (f *File) Delete(_ context.Context, kind Kind, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	byID, ok := f.index[kind]
	if !ok {
		return errors.Wrapf(ErrNotFound, "%s/%s", kind, id)
	}
	entry, ok := byID[id]
	if !ok {
		return errors.Wrapf(ErrNotFound, "%s/%s", kind, id)
	}
	if err := os.Remove(entry.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "repository: deleting %s", entry.path)
	}
	delete(byID, id)
	return nil
}

var _ Repository = (*File)(nil)
