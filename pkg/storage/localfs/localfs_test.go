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

package localfs

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webfiler/webfiler/pkg/errtypes"
)

func newTestFS(t *testing.T) (*LocalFS, string) {
	t.Helper()
	root := t.TempDir()
	fs, err := New(&Config{Root: root, PublicBase: "/files"})
	require.NoError(t, err)
	return fs, root
}

func names(items []*Entry) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Name)
	}
	return out
}

func TestListShapeAndOrder(t *testing.T) {
	fs, root := newTestFS(t)
	ctx := context.Background()

	require.NoError(t, os.MkdirAll(filepath.Join(root, "zeta"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "Alpha"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.txt"), []byte("bb"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a10.txt"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a2.txt"), []byte("y"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, ScratchDirName), 0755))

	l, err := fs.List(ctx, "/")
	require.NoError(t, err)
	assert.Equal(t, "/", l.Path)

	// dirs first, natural case-insensitive order, scratch dir hidden
	assert.Equal(t, []string{"Alpha", "zeta", "a2.txt", "a10.txt", "b.txt"}, names(l.Items))

	for _, it := range l.Items {
		if it.Kind == KindDir {
			assert.Nil(t, it.Size)
			assert.Nil(t, it.URL)
		} else {
			require.NotNil(t, it.Size)
			require.NotNil(t, it.URL)
			assert.True(t, strings.HasPrefix(*it.URL, "/files/"), *it.URL)
		}
	}

	b := l.Items[4]
	assert.Equal(t, "b.txt", b.Name)
	assert.EqualValues(t, 2, *b.Size)
	assert.Equal(t, "/files/b.txt", *b.URL)
}

func TestListErrors(t *testing.T) {
	fs, root := newTestFS(t)
	ctx := context.Background()

	_, err := fs.List(ctx, "/missing")
	var notFound errtypes.IsNotFound
	require.ErrorAs(t, err, &notFound)

	require.NoError(t, os.WriteFile(filepath.Join(root, "f"), nil, 0644))
	_, err = fs.List(ctx, "/f")
	var conflict errtypes.IsConflict
	require.ErrorAs(t, err, &conflict)

	_, err = fs.List(ctx, "/../etc")
	var escaped errtypes.IsPathEscaped
	require.ErrorAs(t, err, &escaped)

	// dotted input must hit the gate before any cleanup collapses it
	_, err = fs.List(ctx, "/../etc/passwd")
	require.ErrorAs(t, err, &escaped)
}

func TestListNormalizesDisplayPath(t *testing.T) {
	fs, root := newTestFS(t)
	ctx := context.Background()

	require.NoError(t, os.MkdirAll(filepath.Join(root, "a", "b"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a", "b", "f.txt"), []byte("x"), 0644))

	l, err := fs.List(ctx, "/a/./b/../b//")
	require.NoError(t, err)
	assert.Equal(t, "/a/b", l.Path)
	require.Len(t, l.Items, 1)
	assert.Equal(t, "/files/a/b/f.txt", *l.Items[0].URL)
}

func TestMkdir(t *testing.T) {
	fs, root := newTestFS(t)
	ctx := context.Background()

	require.NoError(t, fs.Mkdir(ctx, "/a/b/c"))
	fi, err := os.Stat(filepath.Join(root, "a", "b", "c"))
	require.NoError(t, err)
	assert.True(t, fi.IsDir())

	err = fs.Mkdir(ctx, "/a/b/c")
	var alreadyExists errtypes.IsAlreadyExists
	require.ErrorAs(t, err, &alreadyExists)

	require.NoError(t, os.WriteFile(filepath.Join(root, "file"), nil, 0644))
	err = fs.Mkdir(ctx, "/file")
	var conflict errtypes.IsConflict
	require.ErrorAs(t, err, &conflict)
}

func TestDeleteRoundTrip(t *testing.T) {
	fs, root := newTestFS(t)
	ctx := context.Background()

	require.NoError(t, fs.Mkdir(ctx, "/gone"))
	require.NoError(t, os.WriteFile(filepath.Join(root, "gone", "x"), []byte("x"), 0644))
	require.NoError(t, fs.Delete(ctx, "/gone"))

	_, err := os.Stat(filepath.Join(root, "gone"))
	assert.True(t, os.IsNotExist(err))

	err = fs.Delete(ctx, "/gone")
	var notFound errtypes.IsNotFound
	require.ErrorAs(t, err, &notFound)
}

func TestMove(t *testing.T) {
	fs, root := newTestFS(t)
	ctx := context.Background()

	require.NoError(t, os.WriteFile(filepath.Join(root, "src"), []byte("content"), 0644))

	require.NoError(t, fs.Move(ctx, "/src", "/sub/dst"))
	b, err := os.ReadFile(filepath.Join(root, "sub", "dst"))
	require.NoError(t, err)
	assert.Equal(t, "content", string(b))

	// move back restores
	require.NoError(t, fs.Move(ctx, "/sub/dst", "/src"))
	_, err = os.Stat(filepath.Join(root, "src"))
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(root, "other"), nil, 0644))
	err = fs.Move(ctx, "/src", "/other")
	var alreadyExists errtypes.IsAlreadyExists
	require.ErrorAs(t, err, &alreadyExists)

	err = fs.Move(ctx, "/nope", "/dst2")
	var notFound errtypes.IsNotFound
	require.ErrorAs(t, err, &notFound)
}

func TestCopyRecursive(t *testing.T) {
	fs, root := newTestFS(t)
	ctx := context.Background()

	require.NoError(t, os.MkdirAll(filepath.Join(root, "tree", "sub"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "tree", "a.txt"), []byte("hi"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "tree", "sub", "b.txt"), []byte("yo"), 0644))

	require.NoError(t, fs.Copy(ctx, "/tree", "/clone"))

	b, err := os.ReadFile(filepath.Join(root, "clone", "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hi", string(b))
	b, err = os.ReadFile(filepath.Join(root, "clone", "sub", "b.txt"))
	require.NoError(t, err)
	assert.Equal(t, "yo", string(b))

	// the original is untouched
	_, err = os.Stat(filepath.Join(root, "tree", "a.txt"))
	require.NoError(t, err)

	err = fs.Copy(ctx, "/tree", "/clone")
	var alreadyExists errtypes.IsAlreadyExists
	require.ErrorAs(t, err, &alreadyExists)
}

func TestCreateThenRead(t *testing.T) {
	fs, _ := newTestFS(t)
	ctx := context.Background()

	fi, err := fs.CreateFile(ctx, "/notes/hello.txt", []byte("hello world"))
	require.NoError(t, err)
	assert.EqualValues(t, 11, fi.Size())

	content, fi2, err := fs.ReadText(ctx, "/notes/hello.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello world", content)
	assert.EqualValues(t, 11, fi2.Size())

	_, err = fs.CreateFile(ctx, "/notes/hello.txt", nil)
	var alreadyExists errtypes.IsAlreadyExists
	require.ErrorAs(t, err, &alreadyExists)
}

func TestCreateEmptyDefault(t *testing.T) {
	fs, _ := newTestFS(t)
	ctx := context.Background()

	fi, err := fs.CreateFile(ctx, "/empty.txt", nil)
	require.NoError(t, err)
	assert.EqualValues(t, 0, fi.Size())

	content, _, err := fs.ReadText(ctx, "/empty.txt")
	require.NoError(t, err)
	assert.Equal(t, "", content)
}

func TestReadTextOnDirectory(t *testing.T) {
	fs, _ := newTestFS(t)
	ctx := context.Background()

	require.NoError(t, fs.Mkdir(ctx, "/d"))
	_, _, err := fs.ReadText(ctx, "/d")
	var isDir errtypes.IsIsADirectory
	require.ErrorAs(t, err, &isDir)
}

func TestWriteStream(t *testing.T) {
	fs, root := newTestFS(t)
	ctx := context.Background()

	require.NoError(t, fs.WriteStream(ctx, "/up/f.bin", strings.NewReader("v1"), false))
	b, err := os.ReadFile(filepath.Join(root, "up", "f.bin"))
	require.NoError(t, err)
	assert.Equal(t, "v1", string(b))

	err = fs.WriteStream(ctx, "/up/f.bin", strings.NewReader("v2"), false)
	var alreadyExists errtypes.IsAlreadyExists
	require.ErrorAs(t, err, &alreadyExists)

	require.NoError(t, fs.WriteStream(ctx, "/up/f.bin", strings.NewReader("v2"), true))
	b, err = os.ReadFile(filepath.Join(root, "up", "f.bin"))
	require.NoError(t, err)
	assert.Equal(t, "v2", string(b))
}

func TestStableListings(t *testing.T) {
	fs, root := newTestFS(t)
	ctx := context.Background()

	for _, n := range []string{"x1", "x10", "x2", "X3"} {
		require.NoError(t, os.WriteFile(filepath.Join(root, n), nil, 0644))
	}

	first, err := fs.List(ctx, "/")
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := fs.List(ctx, "/")
		require.NoError(t, err)
		assert.Equal(t, names(first.Items), names(again.Items))
	}
	assert.Equal(t, []string{"x1", "x2", "X3", "x10"}, names(first.Items))
}
