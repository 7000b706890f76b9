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

// Package localfs implements the directory service on top of the local
// filesystem. All paths are resolved through a pathgate.Gate so no
// operation can leave the configured storage root.
package localfs

import (
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/facette/natsort"
	"github.com/jellydator/ttlcache/v2"
	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"

	"github.com/webfiler/webfiler/pkg/appctx"
	"github.com/webfiler/webfiler/pkg/errtypes"
	"github.com/webfiler/webfiler/pkg/storage/pathgate"
	"github.com/webfiler/webfiler/pkg/storage/utils/chunking"
)

// ScratchDirName is the hidden per-directory scratch area used by in-flight
// chunked uploads. It is kept out of listings.
const ScratchDirName = chunking.ScratchDir

// EntryKind discriminates files from directories in listings.
type EntryKind string

const (
	// KindFile marks a regular file.
	KindFile EntryKind = "file"
	// KindDir marks a directory.
	KindDir EntryKind = "dir"
)

// Entry is one listed directory member.
type Entry struct {
	Name  string    `json:"name"`
	Kind  EntryKind `json:"kind"`
	Size  *int64    `json:"size,omitempty"`
	Mtime int64     `json:"mtime"`
	URL   *string   `json:"url"`
}

// Listing is the result of listing a directory.
type Listing struct {
	Path  string   `json:"path"`
	Items []*Entry `json:"items"`
}

// Config holds the configuration for the local filesystem service.
type Config struct {
	Root              string `mapstructure:"root"`
	PublicBase        string `mapstructure:"public_base"`
	AcceleratorURL    string `mapstructure:"accelerator_url"`
	AcceleratorCacheS int    `mapstructure:"accelerator_cache_seconds"`
}

// ApplyDefaults fills unset config fields, honoring the ROOT_DIR and
// PUBLIC_FILES_BASE environment contract.
func (c *Config) ApplyDefaults() {
	if c.Root == "" {
		c.Root = os.Getenv("ROOT_DIR")
	}
	if c.Root == "" {
		c.Root = "/var/lib/webfiler"
	}
	if c.PublicBase == "" {
		c.PublicBase = os.Getenv("PUBLIC_FILES_BASE")
	}
	if c.PublicBase == "" {
		c.PublicBase = "/files"
	}
	c.PublicBase = strings.TrimRight(c.PublicBase, "/")
}

// LocalFS enumerates, stats, creates, deletes, moves and copies entries
// below the storage root.
type LocalFS struct {
	conf  *Config
	gate  *pathgate.Gate
	accel *accelClient
	cache *ttlcache.Cache
	group singleflight.Group
}

// New creates a LocalFS rooted at conf.Root, creating the root if needed.
func New(conf *Config) (*LocalFS, error) {
	conf.ApplyDefaults()

	gate, err := pathgate.New(conf.Root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(conf.Root, 0755); err != nil {
		return nil, errors.Wrap(err, "localfs: could not create storage root "+conf.Root)
	}

	fs := &LocalFS{conf: conf, gate: gate}
	if conf.AcceleratorURL != "" {
		fs.accel = newAccelClient(conf.AcceleratorURL)
		if conf.AcceleratorCacheS > 0 {
			cache := ttlcache.NewCache()
			_ = cache.SetTTL(time.Duration(conf.AcceleratorCacheS) * time.Second)
			cache.SkipTTLExtensionOnHit(true)
			fs.cache = cache
		}
	}
	return fs, nil
}

// Gate exposes the path gate so collaborating components resolve against
// the same root.
func (fs *LocalFS) Gate() *pathgate.Gate { return fs.gate }

// PublicBase returns the URL prefix that fronts the storage root.
func (fs *LocalFS) PublicBase() string { return fs.conf.PublicBase }

// Stat resolves a logical path and stats it, mapping filesystem errors to
// the error taxonomy.
func (fs *LocalFS) Stat(ctx context.Context, logical string) (os.FileInfo, error) {
	abs, err := fs.gate.Resolve(logical)
	if err != nil {
		return nil, err
	}
	fi, err := os.Stat(abs.String())
	if err != nil {
		return nil, wrapFsErr(err, logical)
	}
	return fi, nil
}

// List enumerates a directory. When a listing accelerator is configured it
// is consulted first; on any accelerator failure the local readdir path is
// used. Both paths produce identical listings.
func (fs *LocalFS) List(ctx context.Context, logical string) (*Listing, error) {
	abs, err := fs.gate.Resolve(logical)
	if err != nil {
		return nil, err
	}
	logical = fs.gate.Logical(abs)
	if fs.accel != nil {
		if l, err := fs.listAccelerated(ctx, logical); err == nil {
			return l, nil
		} else if !isFallbackErr(err) {
			return nil, err
		} else {
			appctx.GetLogger(ctx).Debug().Err(err).Str("path", logical).
				Msg("listing accelerator failed, falling back to readdir")
		}
	}
	return fs.listLocal(ctx, logical)
}

func (fs *LocalFS) listLocal(ctx context.Context, logical string) (*Listing, error) {
	abs, err := fs.gate.Resolve(logical)
	if err != nil {
		return nil, err
	}

	fi, err := os.Stat(abs.String())
	if err != nil {
		return nil, wrapFsErr(err, logical)
	}
	if !fi.IsDir() {
		return nil, errtypes.Conflict(logical + " is not a directory")
	}

	dirents, err := os.ReadDir(abs.String())
	if err != nil {
		return nil, wrapFsErr(err, logical)
	}

	items := make([]*Entry, 0, len(dirents))
	for _, d := range dirents {
		if d.Name() == ScratchDirName {
			continue
		}
		info, err := d.Info()
		if err != nil {
			// entry vanished between readdir and stat
			continue
		}
		items = append(items, fs.toEntry(logical, d.Name(), info.IsDir(), info.Size(), info.ModTime()))
	}
	sortEntries(items)
	return &Listing{Path: logical, Items: items}, nil
}

func (fs *LocalFS) toEntry(dir, name string, isDir bool, size int64, mtime time.Time) *Entry {
	e := &Entry{
		Name:  name,
		Kind:  KindFile,
		Mtime: mtime.UnixMilli(),
	}
	if isDir {
		e.Kind = KindDir
		return e
	}
	s := size
	e.Size = &s
	u := fs.conf.PublicBase + pathgate.EncodePath(path.Join(dir, name))
	e.URL = &u
	return e
}

// sortEntries orders directories before files and sorts each group with a
// natural-number-aware, case-insensitive comparison. The order is total, so
// listings of the same directory content are byte-identical.
func sortEntries(items []*Entry) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Kind != items[j].Kind {
			return items[i].Kind == KindDir
		}
		a, b := strings.ToLower(items[i].Name), strings.ToLower(items[j].Name)
		if a == b {
			return items[i].Name < items[j].Name
		}
		return natsort.Compare(a, b)
	})
}

// Mkdir creates a directory, including missing parents.
func (fs *LocalFS) Mkdir(ctx context.Context, logical string) error {
	abs, err := fs.gate.Resolve(logical)
	if err != nil {
		return err
	}
	if fi, err := os.Stat(abs.String()); err == nil {
		if fi.IsDir() {
			return errtypes.AlreadyExists(logical)
		}
		return errtypes.Conflict(logical + " exists and is not a directory")
	}
	if err := os.MkdirAll(abs.String(), 0755); err != nil {
		return wrapFsErr(err, logical)
	}
	return nil
}

// Delete removes a file or directory recursively.
func (fs *LocalFS) Delete(ctx context.Context, logical string) error {
	abs, err := fs.gate.Resolve(logical)
	if err != nil {
		return err
	}
	if _, err := os.Stat(abs.String()); err != nil {
		return wrapFsErr(err, logical)
	}
	if err := os.RemoveAll(abs.String()); err != nil {
		return wrapFsErr(err, logical)
	}
	return nil
}

// Move renames src to dst. The destination must not exist; its parent is
// created if missing.
func (fs *LocalFS) Move(ctx context.Context, src, dst string) error {
	srcAbs, err := fs.gate.Resolve(src)
	if err != nil {
		return err
	}
	dstAbs, err := fs.gate.Resolve(dst)
	if err != nil {
		return err
	}
	if _, err := os.Stat(srcAbs.String()); err != nil {
		return wrapFsErr(err, src)
	}
	if _, err := os.Stat(dstAbs.String()); err == nil {
		return errtypes.AlreadyExists(dst)
	}
	if err := os.MkdirAll(filepath.Dir(dstAbs.String()), 0755); err != nil {
		return wrapFsErr(err, dst)
	}
	if err := os.Rename(srcAbs.String(), dstAbs.String()); err != nil {
		return wrapFsErr(err, src)
	}
	return nil
}

// Copy duplicates src at dst, recursively for directories. Only content is
// preserved, not ownership or extended attributes.
func (fs *LocalFS) Copy(ctx context.Context, src, dst string) error {
	srcAbs, err := fs.gate.Resolve(src)
	if err != nil {
		return err
	}
	dstAbs, err := fs.gate.Resolve(dst)
	if err != nil {
		return err
	}
	fi, err := os.Stat(srcAbs.String())
	if err != nil {
		return wrapFsErr(err, src)
	}
	if _, err := os.Stat(dstAbs.String()); err == nil {
		return errtypes.AlreadyExists(dst)
	}
	if err := os.MkdirAll(filepath.Dir(dstAbs.String()), 0755); err != nil {
		return wrapFsErr(err, dst)
	}
	if err := copyTree(srcAbs.String(), dstAbs.String(), fi); err != nil {
		return errors.Wrap(err, "localfs: error copying "+src+" to "+dst)
	}
	return nil
}

func copyTree(src, dst string, fi os.FileInfo) error {
	if fi.IsDir() {
		if err := os.MkdirAll(dst, 0755); err != nil {
			return err
		}
		dirents, err := os.ReadDir(src)
		if err != nil {
			return err
		}
		for _, d := range dirents {
			info, err := d.Info()
			if err != nil {
				return err
			}
			if err := copyTree(filepath.Join(src, d.Name()), filepath.Join(dst, d.Name()), info); err != nil {
				return err
			}
		}
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	return out.Close()
}

// ReadText reads the whole file as UTF-8 text.
func (fs *LocalFS) ReadText(ctx context.Context, logical string) (string, os.FileInfo, error) {
	abs, err := fs.gate.Resolve(logical)
	if err != nil {
		return "", nil, err
	}
	fi, err := os.Stat(abs.String())
	if err != nil {
		return "", nil, wrapFsErr(err, logical)
	}
	if fi.IsDir() {
		return "", nil, errtypes.IsADirectory(logical)
	}
	b, err := os.ReadFile(abs.String())
	if err != nil {
		return "", nil, wrapFsErr(err, logical)
	}
	return string(b), fi, nil
}

// CreateFile writes a new file with the given content, failing if the
// target already exists. The write is atomic: readers never observe a
// partially written file.
func (fs *LocalFS) CreateFile(ctx context.Context, logical string, content []byte) (os.FileInfo, error) {
	abs, err := fs.gate.Resolve(logical)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(abs.String()); err == nil {
		return nil, errtypes.AlreadyExists(logical)
	}
	if err := os.MkdirAll(filepath.Dir(abs.String()), 0755); err != nil {
		return nil, wrapFsErr(err, logical)
	}
	if err := atomicWriteFile(abs.String(), content); err != nil {
		return nil, wrapFsErr(err, logical)
	}
	fi, err := os.Stat(abs.String())
	if err != nil {
		return nil, wrapFsErr(err, logical)
	}
	return fi, nil
}

// WriteStream streams content into a file, replacing an existing one only
// when replace is set. The file appears atomically under its final name.
func (fs *LocalFS) WriteStream(ctx context.Context, logical string, r io.Reader, replace bool) error {
	abs, err := fs.gate.Resolve(logical)
	if err != nil {
		return err
	}
	if fi, err := os.Stat(abs.String()); err == nil {
		if fi.IsDir() {
			return errtypes.IsADirectory(logical)
		}
		if !replace {
			return errtypes.AlreadyExists(logical)
		}
	}
	if err := os.MkdirAll(filepath.Dir(abs.String()), 0755); err != nil {
		return wrapFsErr(err, logical)
	}
	if err := atomicWriteStream(abs.String(), r); err != nil {
		return wrapFsErr(err, logical)
	}
	return nil
}

// Open opens a file for streaming and returns its info alongside.
func (fs *LocalFS) Open(ctx context.Context, logical string) (io.ReadCloser, os.FileInfo, error) {
	abs, err := fs.gate.Resolve(logical)
	if err != nil {
		return nil, nil, err
	}
	fi, err := os.Stat(abs.String())
	if err != nil {
		return nil, nil, wrapFsErr(err, logical)
	}
	if fi.IsDir() {
		return nil, nil, errtypes.IsADirectory(logical)
	}
	f, err := os.Open(abs.String())
	if err != nil {
		return nil, nil, wrapFsErr(err, logical)
	}
	return f, fi, nil
}

func wrapFsErr(err error, logical string) error {
	switch {
	case os.IsNotExist(err):
		return errtypes.NotFound(logical)
	case os.IsPermission(err):
		return errtypes.PermissionDenied(logical)
	default:
		return errors.Wrap(err, "localfs: error accessing "+logical)
	}
}
