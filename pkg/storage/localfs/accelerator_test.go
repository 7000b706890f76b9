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
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedDir(t *testing.T, root string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("hi"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.txt"), []byte("hoi"), 0644))
}

func TestAcceleratedListingMatchesLocal(t *testing.T) {
	root := t.TempDir()
	seedDir(t, root)

	accel := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"entries":[
			{"name":"b.txt","type":"file","mtime":1000,"size":3},
			{"name":".","type":"dir","mtime":0},
			{"name":"..","type":"dir","mtime":0},
			{"name":"sub","type":"directory","mtime":1000},
			{"name":"a.txt","type":"file","mtime":1000,"size":2}
		]}`))
	}))
	defer accel.Close()

	local, err := New(&Config{Root: root, PublicBase: "/files"})
	require.NoError(t, err)
	accelerated, err := New(&Config{Root: root, PublicBase: "/files", AcceleratorURL: accel.URL})
	require.NoError(t, err)

	ctx := context.Background()
	ll, err := local.List(ctx, "/")
	require.NoError(t, err)
	al, err := accelerated.List(ctx, "/")
	require.NoError(t, err)

	require.Len(t, al.Items, len(ll.Items))
	for i := range ll.Items {
		assert.Equal(t, ll.Items[i].Name, al.Items[i].Name)
		assert.Equal(t, ll.Items[i].Kind, al.Items[i].Kind)
		if ll.Items[i].URL == nil {
			assert.Nil(t, al.Items[i].URL)
		} else {
			require.NotNil(t, al.Items[i].URL)
			assert.Equal(t, *ll.Items[i].URL, *al.Items[i].URL)
		}
	}
}

func TestAcceleratorBareArrayBody(t *testing.T) {
	root := t.TempDir()
	seedDir(t, root)

	accel := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"name":"sub","type":"folder","mtime":500}]`))
	}))
	defer accel.Close()

	fs, err := New(&Config{Root: root, AcceleratorURL: accel.URL})
	require.NoError(t, err)

	l, err := fs.List(context.Background(), "/")
	require.NoError(t, err)
	require.Len(t, l.Items, 1)
	assert.Equal(t, "sub", l.Items[0].Name)
	assert.Equal(t, KindDir, l.Items[0].Kind)
}

func TestAcceleratorFallsBackOnFailure(t *testing.T) {
	root := t.TempDir()
	seedDir(t, root)

	responses := []func(w http.ResponseWriter){
		func(w http.ResponseWriter) { w.WriteHeader(http.StatusInternalServerError) },
		func(w http.ResponseWriter) { _, _ = w.Write([]byte(`not json at all`)) },
		func(w http.ResponseWriter) { _, _ = w.Write([]byte(`{"a":[],"b":[]}`)) },
	}
	i := 0
	accel := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		responses[i%len(responses)](w)
		i++
	}))
	defer accel.Close()

	fs, err := New(&Config{Root: root, PublicBase: "/files", AcceleratorURL: accel.URL})
	require.NoError(t, err)

	for range responses {
		l, err := fs.List(context.Background(), "/")
		require.NoError(t, err)
		assert.Equal(t, []string{"sub", "a.txt", "b.txt"}, names(l.Items))
	}
}

func TestAcceleratorUnreachableFallsBack(t *testing.T) {
	root := t.TempDir()
	seedDir(t, root)

	fs, err := New(&Config{Root: root, AcceleratorURL: "http://127.0.0.1:1/nope"})
	require.NoError(t, err)

	l, err := fs.List(context.Background(), "/")
	require.NoError(t, err)
	assert.Equal(t, []string{"sub", "a.txt", "b.txt"}, names(l.Items))
}
