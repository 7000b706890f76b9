// Copyright 2023-2026 the webfiler authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package chunking

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/webfiler/webfiler/pkg/storage/pathgate"
)

// ScratchDir is the hidden subdirectory inside an upload's target directory
// that holds in-flight chunk files. A chunk for upload fingerprint F with
// index i is stored as "<F>.<i>" inside it.
const ScratchDir = ".upload-temp"

// Store persists individual upload chunks inside the per-directory scratch
// area. Chunk writes for distinct (fingerprint, index) pairs target distinct
// file names and are therefore safe to run concurrently; rewriting the same
// pair is an idempotent overwrite.
type Store struct{}

func scratchPath(dir pathgate.Abs) string {
	return filepath.Join(dir.String(), ScratchDir)
}

func chunkPath(dir pathgate.Abs, fingerprint string, index int) string {
	return filepath.Join(scratchPath(dir), fmt.Sprintf("%s.%d", fingerprint, index))
}

// WriteChunk stores the chunk bytes as <fingerprint>.<index>, creating the
// scratch directory if needed. The bytes are first written to a temporary
// name and renamed into the chunk slot, so an aborted request never leaves
// a half-written chunk behind under a countable name.
func (s *Store) WriteChunk(dir pathgate.Abs, fingerprint string, index int, r io.Reader) (int64, error) {
	scratch := scratchPath(dir)
	if err := os.MkdirAll(scratch, 0755); err != nil {
		return 0, errors.Wrap(err, "chunking: error creating scratch dir "+scratch)
	}

	tmp := filepath.Join(scratch, "__tmp-"+uuid.New().String())
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0644)
	if err != nil {
		return 0, errors.Wrap(err, "chunking: error creating chunk temp file")
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp)
		return 0, errors.Wrap(err, "chunking: error writing chunk bytes")
	}

	if err := os.Rename(tmp, chunkPath(dir, fingerprint, index)); err != nil {
		os.Remove(tmp)
		return 0, errors.Wrap(err, "chunking: error publishing chunk")
	}
	return n, nil
}

// ListIndices returns the sorted chunk indices present for the fingerprint.
// A missing scratch directory yields an empty result.
func (s *Store) ListIndices(dir pathgate.Abs, fingerprint string) ([]int, error) {
	dirents, err := os.ReadDir(scratchPath(dir))
	if err != nil {
		if os.IsNotExist(err) {
			return []int{}, nil
		}
		return nil, errors.Wrap(err, "chunking: error reading scratch dir")
	}

	prefix := fingerprint + "."
	indices := make([]int, 0, len(dirents))
	for _, d := range dirents {
		if d.IsDir() || !strings.HasPrefix(d.Name(), prefix) {
			continue
		}
		idx, err := strconv.Atoi(strings.TrimPrefix(d.Name(), prefix))
		if err != nil || idx < 0 {
			continue
		}
		indices = append(indices, idx)
	}
	sort.Ints(indices)
	return indices, nil
}

// OpenChunk opens the chunk file for reading.
func (s *Store) OpenChunk(dir pathgate.Abs, fingerprint string, index int) (io.ReadCloser, error) {
	f, err := os.Open(chunkPath(dir, fingerprint, index))
	if err != nil {
		return nil, errors.Wrapf(err, "chunking: error opening chunk %d of %s", index, fingerprint)
	}
	return f, nil
}

// DeleteChunk removes a single chunk file.
func (s *Store) DeleteChunk(dir pathgate.Abs, fingerprint string, index int) error {
	if err := os.Remove(chunkPath(dir, fingerprint, index)); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "chunking: error deleting chunk %d of %s", index, fingerprint)
	}
	return nil
}

// Purge removes every chunk belonging to the fingerprint and removes the
// scratch directory itself when nothing else is left inside.
func (s *Store) Purge(dir pathgate.Abs, fingerprint string) error {
	scratch := scratchPath(dir)
	dirents, err := os.ReadDir(scratch)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrap(err, "chunking: error reading scratch dir")
	}

	prefix := fingerprint + "."
	remaining := 0
	for _, d := range dirents {
		if strings.HasPrefix(d.Name(), prefix) {
			if err := os.Remove(filepath.Join(scratch, d.Name())); err != nil && !os.IsNotExist(err) {
				return errors.Wrap(err, "chunking: error purging chunk "+d.Name())
			}
			continue
		}
		remaining++
	}
	if remaining == 0 {
		// remove the scratch dir; a concurrent writer may race us, so a
		// non-empty failure is fine
		_ = os.Remove(scratch)
	}
	return nil
}
