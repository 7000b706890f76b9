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

// Package archiver synthesizes zip streams for directory and multi-item
// downloads. The archive is produced incrementally into the destination
// writer, so nothing close to the full archive is ever buffered; when the
// consumer goes away the context is cancelled and the producer stops,
// releasing any open file handles.
package archiver

import (
	"archive/zip"
	"compress/flate"
	"context"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/webfiler/webfiler/pkg/errtypes"
	"github.com/webfiler/webfiler/pkg/storage/pathgate"
	"github.com/webfiler/webfiler/pkg/storage/utils/walker"
)

// deflateLevel is the compression level applied to every archive member.
const deflateLevel = 6

const (
	// ErrMaxFileCount is returned once an archive hits the file count cap.
	ErrMaxFileCount = errtypes.InternalError("reached max files count")
	// ErrMaxSize is returned once an archive hits the total size cap.
	ErrMaxSize = errtypes.InternalError("reached max total files size")
)

// Entry is one item to archive: a file added under DisplayName, or a
// directory whose tree is added under DisplayName as prefix. An empty
// DisplayName places a directory's contents at the archive root.
type Entry struct {
	DisplayName string
	Path        pathgate.Abs
}

// Config bounds an archive run.
type Config struct {
	MaxNumFiles int64
	MaxSize     int64
}

func (c *Config) init() {
	if c.MaxNumFiles <= 0 {
		c.MaxNumFiles = 10000
	}
	if c.MaxSize <= 0 {
		c.MaxSize = 1 << 40 // 1 TiB
	}
}

// Archiver streams one archive for a fixed list of entries.
type Archiver struct {
	entries []Entry
	conf    Config

	files int64
	size  int64
}

// New creates an archiver for the given entries.
func New(entries []Entry, conf Config) (*Archiver, error) {
	if len(entries) == 0 {
		return nil, errtypes.BadRequest("no entries to archive")
	}
	conf.init()
	return &Archiver{entries: entries, conf: conf}, nil
}

// CreateZip writes the archive to w. Any error aborts the stream; bytes
// already delivered are the client's problem, there is no retry protocol.
func (a *Archiver) CreateZip(ctx context.Context, w io.Writer) error {
	zw := zip.NewWriter(w)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, deflateLevel)
	})

	for _, e := range a.entries {
		fi, err := os.Stat(e.Path.String())
		if err != nil {
			if os.IsNotExist(err) {
				return errtypes.NotFound(e.DisplayName)
			}
			return errors.Wrap(err, "archiver: error statting "+e.DisplayName)
		}

		if !fi.IsDir() {
			name := e.DisplayName
			if name == "" {
				name = fi.Name()
			}
			if err := a.addFile(ctx, zw, e.Path.String(), name, fi); err != nil {
				return err
			}
			continue
		}

		fsBase := e.Path
		err = walker.Walk(ctx, fsBase, func(rel string, info os.FileInfo) error {
			if rel == "" || info.IsDir() {
				return nil
			}
			return a.addFile(ctx, zw, filepath.Join(fsBase.String(), filepath.FromSlash(rel)), path.Join(e.DisplayName, rel), info)
		})
		if err != nil {
			return err
		}
	}

	return zw.Close()
}

func (a *Archiver) addFile(ctx context.Context, zw *zip.Writer, fsPath, name string, info os.FileInfo) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	a.files++
	if a.files > a.conf.MaxNumFiles {
		return ErrMaxFileCount
	}
	a.size += info.Size()
	if a.size > a.conf.MaxSize {
		return ErrMaxSize
	}

	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return errors.Wrap(err, "archiver: error building header for "+name)
	}
	hdr.Name = name
	hdr.Method = zip.Deflate

	dst, err := zw.CreateHeader(hdr)
	if err != nil {
		return errors.Wrap(err, "archiver: error creating archive member "+name)
	}
	f, err := os.Open(fsPath)
	if err != nil {
		return errors.Wrap(err, "archiver: error opening "+name)
	}
	defer f.Close()
	if _, err := io.Copy(dst, f); err != nil {
		return errors.Wrap(err, "archiver: error streaming "+name)
	}
	return nil
}
