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

// Package chunking drives resumable chunked uploads. Clients split a file
// into totalChunks pieces, POST them in any order under an opaque
// fingerprint, and the coordinator materializes the final file once every
// index is present. There is no durable session record: the chunk files on
// disk are the upload state.
package chunking

import (
	"context"
	"io"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/google/renameio/v2"
	"github.com/pkg/errors"

	"github.com/webfiler/webfiler/pkg/appctx"
	"github.com/webfiler/webfiler/pkg/errtypes"
	"github.com/webfiler/webfiler/pkg/metrics"
	"github.com/webfiler/webfiler/pkg/storage/pathgate"
)

// fingerprintPattern is the whitelist a client supplied fingerprint must
// match before it is used as part of a filename.
var fingerprintPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{1,128}$`)

// Coordinator implements the resumable upload state machine on top of a
// Store. It owns the per-(directory, fingerprint) assembly locks.
type Coordinator struct {
	gate  *pathgate.Gate
	store *Store

	mu      sync.Mutex
	locks   map[string]*assemblyLock
	scratch map[string]struct{} // scratch dirs touched by this process
}

type assemblyLock struct {
	mu   sync.Mutex
	refs int
}

// NewCoordinator creates an upload coordinator resolving target paths
// through the given gate.
func NewCoordinator(gate *pathgate.Gate) *Coordinator {
	return &Coordinator{
		gate:    gate,
		store:   &Store{},
		locks:   map[string]*assemblyLock{},
		scratch: map[string]struct{}{},
	}
}

// PutRequest carries one chunk POST.
type PutRequest struct {
	Path        string // logical target directory
	FileName    string
	Fingerprint string
	ChunkIndex  int
	TotalChunks int
	Replace     bool
	Data        io.Reader
}

// Result is the outcome of accepting a chunk.
type Result struct {
	// Complete is true once the final file is fully readable under its
	// published name.
	Complete bool
	FileName string
	Received int
	Total    int
}

// Status reports which chunk indices are already present for an upload.
// A missing scratch directory simply means nothing was uploaded yet.
func (c *Coordinator) Status(ctx context.Context, logical, fingerprint string) ([]int, error) {
	if !fingerprintPattern.MatchString(fingerprint) {
		return nil, errtypes.BadRequest("invalid upload fingerprint")
	}
	dir, err := c.gate.Resolve(logical)
	if err != nil {
		return nil, err
	}
	return c.store.ListIndices(dir, fingerprint)
}

// PutChunk accepts one chunk, persists it, and attempts assembly when every
// index is present. Writing the same (fingerprint, index) twice is a no-op
// in terms of correctness. When the final file already exists and Replace
// is false the scratch state is purged and errtypes.AlreadyExists is
// returned; Replace is honored only at assembly time, so partial chunks
// never overwrite a live file mid-upload.
func (c *Coordinator) PutChunk(ctx context.Context, req *PutRequest) (*Result, error) {
	if err := validatePut(req); err != nil {
		return nil, err
	}
	log := appctx.GetLogger(ctx)

	dir, err := c.gate.Resolve(req.Path)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir.String(), 0755); err != nil {
		return nil, errors.Wrap(err, "chunking: error creating target dir")
	}

	n, err := c.store.WriteChunk(dir, req.Fingerprint, req.ChunkIndex, req.Data)
	if err != nil {
		log.Error().Err(err).
			Str("fingerprint", req.Fingerprint).
			Int("chunk", req.ChunkIndex).
			Msg("chunk write failed")
		return nil, err
	}
	metrics.UploadChunksReceived.Inc()
	c.trackScratch(dir)
	log.Debug().
		Str("fingerprint", req.Fingerprint).
		Int("chunk", req.ChunkIndex).
		Int("total", req.TotalChunks).
		Str("size", humanize.Bytes(uint64(n))).
		Msg("chunk received")

	indices, err := c.store.ListIndices(dir, req.Fingerprint)
	if err != nil {
		return nil, err
	}
	if len(indices) < req.TotalChunks {
		return &Result{Received: len(indices), Total: req.TotalChunks}, nil
	}

	return c.assemble(ctx, dir, req)
}

// assemble concatenates the chunks in index order into the final file.
// Only one assembly may run per (directory, fingerprint); racers that lose
// the lock report full progress and let the winner finish.
func (c *Coordinator) assemble(ctx context.Context, dir pathgate.Abs, req *PutRequest) (*Result, error) {
	log := appctx.GetLogger(ctx)

	key := dir.String() + "\x00" + req.Fingerprint
	lock := c.lockFor(key)
	if !lock.mu.TryLock() {
		c.releaseLock(key, lock)
		// another handler is assembling right now
		return &Result{Received: req.TotalChunks, Total: req.TotalChunks}, nil
	}
	defer func() {
		lock.mu.Unlock()
		c.releaseLock(key, lock)
	}()

	final, err := pathgate.JoinName(dir, req.FileName)
	if err != nil {
		return nil, err
	}

	// re-check under the lock: a concurrent racer may have finished already
	indices, err := c.store.ListIndices(dir, req.Fingerprint)
	if err != nil {
		return nil, err
	}
	if !hasAllIndices(indices, req.TotalChunks) {
		if len(indices) == 0 {
			if _, err := os.Stat(final.String()); err == nil {
				// scratch gone and the file is there: idempotent success
				return &Result{Complete: true, FileName: req.FileName, Received: req.TotalChunks, Total: req.TotalChunks}, nil
			}
		}
		return &Result{Received: len(indices), Total: req.TotalChunks}, nil
	}

	if _, err := os.Stat(final.String()); err == nil && !req.Replace {
		if err := c.store.Purge(dir, req.Fingerprint); err != nil {
			log.Error().Err(err).Str("fingerprint", req.Fingerprint).Msg("error purging chunks after conflict")
		}
		metrics.UploadConflicts.Inc()
		return nil, errtypes.AlreadyExists(req.FileName)
	}

	t, err := renameio.NewPendingFile(final.String(), renameio.WithPermissions(0644))
	if err != nil {
		metrics.UploadAssemblyFailures.Inc()
		return nil, errtypes.AssemblyFailed(req.FileName + ": " + err.Error())
	}

	var written int64
	for i := 0; i < req.TotalChunks; i++ {
		rc, err := c.store.OpenChunk(dir, req.Fingerprint, i)
		if err != nil {
			return nil, c.abortAssembly(ctx, t, req, i, err)
		}
		n, err := io.Copy(t, rc)
		rc.Close()
		if err != nil {
			return nil, c.abortAssembly(ctx, t, req, i, err)
		}
		written += n
		if err := c.store.DeleteChunk(dir, req.Fingerprint, i); err != nil {
			log.Warn().Err(err).
				Str("fingerprint", req.Fingerprint).
				Int("chunk", i).
				Msg("could not unlink chunk after append")
		}
	}
	if err := t.CloseAtomicallyReplace(); err != nil {
		return nil, c.abortAssembly(ctx, t, req, req.TotalChunks-1, err)
	}

	if err := c.store.Purge(dir, req.Fingerprint); err != nil {
		log.Warn().Err(err).Str("fingerprint", req.Fingerprint).Msg("error cleaning scratch after assembly")
	}
	metrics.UploadsAssembled.Inc()
	log.Info().
		Str("fingerprint", req.Fingerprint).
		Str("file", req.FileName).
		Str("size", humanize.Bytes(uint64(written))).
		Msg("upload assembled")

	return &Result{Complete: true, FileName: req.FileName, Received: req.TotalChunks, Total: req.TotalChunks}, nil
}

// abortAssembly discards the pending final file. Chunks not yet consumed
// stay on disk so the client can retry.
func (c *Coordinator) abortAssembly(ctx context.Context, t *renameio.PendingFile, req *PutRequest, chunk int, err error) error {
	_ = t.Cleanup()
	metrics.UploadAssemblyFailures.Inc()
	appctx.GetLogger(ctx).Error().Err(err).
		Str("fingerprint", req.Fingerprint).
		Int("chunk", chunk).
		Msg("assembly failed")
	return errtypes.AssemblyFailed(req.FileName)
}

// Cancel removes the scratch state of an upload. Missing state is not an
// error.
func (c *Coordinator) Cancel(ctx context.Context, logical, fingerprint string) error {
	if !fingerprintPattern.MatchString(fingerprint) {
		return errtypes.BadRequest("invalid upload fingerprint")
	}
	dir, err := c.gate.Resolve(logical)
	if err != nil {
		return err
	}
	return c.store.Purge(dir, fingerprint)
}

func (c *Coordinator) lockFor(key string) *assemblyLock {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.locks[key]
	if !ok {
		l = &assemblyLock{}
		c.locks[key] = l
	}
	l.refs++
	return l
}

func (c *Coordinator) releaseLock(key string, l *assemblyLock) {
	c.mu.Lock()
	defer c.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(c.locks, key)
	}
}

func (c *Coordinator) trackScratch(dir pathgate.Abs) {
	c.mu.Lock()
	c.scratch[dir.String()] = struct{}{}
	c.mu.Unlock()
}

func validatePut(req *PutRequest) error {
	if !fingerprintPattern.MatchString(req.Fingerprint) {
		return errtypes.BadRequest("invalid upload fingerprint")
	}
	if err := validateFileName(req.FileName); err != nil {
		return err
	}
	if req.TotalChunks < 1 {
		return errtypes.BadRequest("totalChunks must be at least 1")
	}
	if req.ChunkIndex < 0 || req.ChunkIndex >= req.TotalChunks {
		return errtypes.BadRequest("chunkIndex out of range")
	}
	if req.Data == nil {
		return errtypes.BadRequest("missing chunk payload")
	}
	return nil
}

// hasAllIndices reports whether indices covers exactly 0..total-1. Stale
// chunks from an earlier attempt with a different totalChunks must not
// trigger assembly.
func hasAllIndices(indices []int, total int) bool {
	seen := make(map[int]struct{}, len(indices))
	for _, i := range indices {
		if i >= 0 && i < total {
			seen[i] = struct{}{}
		}
	}
	return len(seen) == total
}

func validateFileName(name string) error {
	if name == "" || name == "." || name == ".." ||
		name == ScratchDir || strings.ContainsAny(name, `/\`) {
		return errtypes.BadRequest("invalid file name " + name)
	}
	return nil
}
