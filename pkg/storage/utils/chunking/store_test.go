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
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webfiler/webfiler/pkg/storage/pathgate"
)

func testDir(t *testing.T) (pathgate.Abs, string) {
	t.Helper()
	root := t.TempDir()
	gate, err := pathgate.New(root)
	require.NoError(t, err)
	dir, err := gate.Resolve("/")
	require.NoError(t, err)
	return dir, root
}

func TestStoreWriteAndList(t *testing.T) {
	dir, root := testDir(t)
	st := &Store{}

	n, err := st.WriteChunk(dir, "fp", 3, strings.NewReader("abc"))
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
	_, err = st.WriteChunk(dir, "fp", 0, strings.NewReader("x"))
	require.NoError(t, err)
	_, err = st.WriteChunk(dir, "other", 1, strings.NewReader("y"))
	require.NoError(t, err)

	// noise that must not be counted as chunk indices
	require.NoError(t, os.WriteFile(filepath.Join(root, ScratchDir, "fp.notanumber"), nil, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, ScratchDir, "fp.-1"), nil, 0644))

	indices, err := st.ListIndices(dir, "fp")
	require.NoError(t, err)
	assert.Equal(t, []int{0, 3}, indices)

	rc, err := st.OpenChunk(dir, "fp", 3)
	require.NoError(t, err)
	b, err := io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Equal(t, "abc", string(b))
}

func TestStoreOverwriteChunk(t *testing.T) {
	dir, _ := testDir(t)
	st := &Store{}

	_, err := st.WriteChunk(dir, "fp", 0, strings.NewReader("first"))
	require.NoError(t, err)
	_, err = st.WriteChunk(dir, "fp", 0, strings.NewReader("second"))
	require.NoError(t, err)

	rc, err := st.OpenChunk(dir, "fp", 0)
	require.NoError(t, err)
	b, err := io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Equal(t, "second", string(b))
}

func TestStorePurge(t *testing.T) {
	dir, root := testDir(t)
	st := &Store{}

	_, err := st.WriteChunk(dir, "a", 0, strings.NewReader("1"))
	require.NoError(t, err)
	_, err = st.WriteChunk(dir, "a", 1, strings.NewReader("2"))
	require.NoError(t, err)
	_, err = st.WriteChunk(dir, "b", 0, strings.NewReader("3"))
	require.NoError(t, err)

	// purging one fingerprint leaves the other and the scratch dir alone
	require.NoError(t, st.Purge(dir, "a"))
	indices, err := st.ListIndices(dir, "a")
	require.NoError(t, err)
	assert.Empty(t, indices)
	indices, err = st.ListIndices(dir, "b")
	require.NoError(t, err)
	assert.Equal(t, []int{0}, indices)

	// purging the last one removes the scratch dir itself
	require.NoError(t, st.Purge(dir, "b"))
	_, err = os.Stat(filepath.Join(root, ScratchDir))
	assert.True(t, os.IsNotExist(err))

	// purge of untouched state is a no-op
	require.NoError(t, st.Purge(dir, "never"))
}

func TestJanitorRemovesStaleChunks(t *testing.T) {
	c, root := newTestCoordinator(t)

	_, err := putChunk(t, c, "stale", "s.bin", 0, 2, "old", false)
	require.NoError(t, err)

	// age the chunk beyond the janitor cutoff
	chunk := filepath.Join(root, ScratchDir, "stale.0")
	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(chunk, old, old))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.RunJanitor(ctx, 10*time.Millisecond, 30*time.Minute)
		close(done)
	}()

	require.Eventually(t, func() bool {
		_, err := os.Stat(chunk)
		return os.IsNotExist(err)
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	<-done
}
