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

package pathgate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequiresAbsoluteRoot(t *testing.T) {
	_, err := New("relative/root")
	require.Error(t, err)
	_, err = New("")
	require.Error(t, err)

	g, err := New("/srv/data/")
	require.NoError(t, err)
	assert.Equal(t, "/srv/data", g.Root().String())
}

func TestResolveStaysUnderRoot(t *testing.T) {
	g, err := New("/srv/data")
	require.NoError(t, err)

	tests := []struct {
		logical string
		want    string
	}{
		{"", "/srv/data"},
		{"/", "/srv/data"},
		{"/a", "/srv/data/a"},
		{"a/b", "/srv/data/a/b"},
		{"/a//b///c", "/srv/data/a/b/c"},
		{"/a/./b", "/srv/data/a/b"},
		{"/a/../b", "/srv/data/b"},
		{"/a/b/../..", "/srv/data"},
	}
	for _, tc := range tests {
		abs, err := g.Resolve(tc.logical)
		require.NoError(t, err, tc.logical)
		assert.Equal(t, tc.want, abs.String(), tc.logical)
	}
}

func TestResolveRejectsEscapes(t *testing.T) {
	g, err := New("/srv/data")
	require.NoError(t, err)

	for _, logical := range []string{
		"/../etc/passwd",
		"/..",
		"/a/../../..",
		"../../x",
		"/a/b/../../../../etc",
	} {
		_, err := g.Resolve(logical)
		require.Error(t, err, logical)
	}
}

func TestResolveNeverEscapes(t *testing.T) {
	g, err := New("/srv/data")
	require.NoError(t, err)

	// a grab bag of hostile and weird inputs: every successful resolution
	// must be the root or strictly below it
	inputs := []string{
		"/", "//", "/.", "/..", "/...", "/..../x",
		"/a/..%2f..", "/a\\..\\..", "/..∕..",
		strings.Repeat("/..", 64), strings.Repeat("a/", 64) + strings.Repeat("../", 80),
	}
	for _, in := range inputs {
		abs, err := g.Resolve(in)
		if err != nil {
			continue
		}
		ok := abs.String() == "/srv/data" || strings.HasPrefix(abs.String(), "/srv/data/")
		assert.True(t, ok, "input %q resolved to %q", in, abs.String())
	}
}

func TestLogicalIsInverseOfResolve(t *testing.T) {
	g, err := New("/srv/data")
	require.NoError(t, err)

	for _, logical := range []string{"/", "/a", "/a/b/c"} {
		abs, err := g.Resolve(logical)
		require.NoError(t, err)
		assert.Equal(t, logical, g.Logical(abs))
	}
}

func TestJoinName(t *testing.T) {
	g, err := New("/srv/data")
	require.NoError(t, err)
	dir, err := g.Resolve("/docs")
	require.NoError(t, err)

	abs, err := JoinName(dir, "file.txt")
	require.NoError(t, err)
	assert.Equal(t, "/srv/data/docs/file.txt", abs.String())

	for _, name := range []string{"", ".", "..", "a/b", `a\b`} {
		_, err := JoinName(dir, name)
		require.Error(t, err, name)
	}
}

func TestEncodePath(t *testing.T) {
	assert.Equal(t, "/a/b", EncodePath("/a/b"))
	assert.Equal(t, "/with%20space/f%231.txt", EncodePath("/with space/f#1.txt"))
	assert.Equal(t, "/", EncodePath("/"))
	assert.Equal(t, "", EncodePath(""))
}
