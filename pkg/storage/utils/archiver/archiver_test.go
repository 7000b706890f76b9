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

package archiver

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webfiler/webfiler/pkg/storage/pathgate"
	"github.com/webfiler/webfiler/pkg/storage/utils/chunking"
)

func resolve(t *testing.T, root, logical string) pathgate.Abs {
	t.Helper()
	gate, err := pathgate.New(root)
	require.NoError(t, err)
	abs, err := gate.Resolve(logical)
	require.NoError(t, err)
	return abs
}

func readZip(t *testing.T, data []byte) map[string]string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	out := map[string]string{}
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		out[f.Name] = string(b)
	}
	return out
}

func TestZipDirectoryContentsAtRoot(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "folder", "sub"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "folder", "a.txt"), []byte("hi"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "folder", "sub", "b.txt"), []byte("yo"), 0644))

	a, err := New([]Entry{{Path: resolve(t, root, "/folder")}}, Config{})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, a.CreateZip(context.Background(), &buf))

	got := readZip(t, buf.Bytes())
	assert.Equal(t, map[string]string{
		"a.txt":     "hi",
		"sub/b.txt": "yo",
	}, got)
}

func TestZipMultipleEntriesWithPrefixes(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "d"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "d", "inner.txt"), []byte("in"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "solo.txt"), []byte("solo"), 0644))

	a, err := New([]Entry{
		{DisplayName: "d", Path: resolve(t, root, "/d")},
		{DisplayName: "solo.txt", Path: resolve(t, root, "/solo.txt")},
	}, Config{})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, a.CreateZip(context.Background(), &buf))

	got := readZip(t, buf.Bytes())
	assert.Equal(t, map[string]string{
		"d/inner.txt": "in",
		"solo.txt":    "solo",
	}, got)
}

func TestZipSkipsUploadScratch(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "folder", chunking.ScratchDir), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "folder", chunking.ScratchDir, "fp.0"), []byte("junk"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "folder", "keep.txt"), []byte("k"), 0644))

	a, err := New([]Entry{{Path: resolve(t, root, "/folder")}}, Config{})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, a.CreateZip(context.Background(), &buf))

	got := readZip(t, buf.Bytes())
	assert.Equal(t, map[string]string{"keep.txt": "k"}, got)
}

func TestZipMissingEntry(t *testing.T) {
	root := t.TempDir()
	a, err := New([]Entry{{DisplayName: "ghost", Path: resolve(t, root, "/ghost")}}, Config{})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.Error(t, a.CreateZip(context.Background(), &buf))
}

func TestZipFileCountCap(t *testing.T) {
	root := t.TempDir()
	for _, n := range []string{"a", "b", "c"} {
		require.NoError(t, os.WriteFile(filepath.Join(root, n), []byte(n), 0644))
	}

	a, err := New([]Entry{{Path: resolve(t, root, "/")}}, Config{MaxNumFiles: 2})
	require.NoError(t, err)

	var buf bytes.Buffer
	err = a.CreateZip(context.Background(), &buf)
	assert.ErrorIs(t, err, ErrMaxFileCount)
}

func TestZipCancellation(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "f"), []byte("x"), 0644))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a, err := New([]Entry{{Path: resolve(t, root, "/")}}, Config{})
	require.NoError(t, err)

	var buf bytes.Buffer
	err = a.CreateZip(ctx, &buf)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewRejectsEmptyEntryList(t *testing.T) {
	_, err := New(nil, Config{})
	require.Error(t, err)
}
