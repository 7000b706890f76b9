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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, "info", c.Log.Level)
	assert.Equal(t, "json", c.Log.Mode)
	assert.Equal(t, "tcp", c.HTTP.Network)
	assert.Equal(t, "0.0.0.0:8080", c.HTTP.Address)
	// the files service is always mounted
	_, ok := c.HTTP.Services["files"]
	assert.True(t, ok)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "webfiler.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[log]
level = "debug"
mode = "console"

[http]
address = "127.0.0.1:9090"

[http.services.files]
prefix = "api/fs"

[http.services.files.storage]
root = "/srv/files"
public_base = "/files"

[http.services.metrics]
prefix = "metrics"
`), 0644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", c.Log.Level)
	assert.Equal(t, "console", c.Log.Mode)
	assert.Equal(t, "127.0.0.1:9090", c.HTTP.Address)

	files := c.HTTP.Services["files"]
	require.NotNil(t, files)
	storage, ok := files["storage"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "/srv/files", storage["root"])

	_, ok = c.HTTP.Services["metrics"]
	assert.True(t, ok)
}

func TestLoadBrokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.toml")
	require.NoError(t, os.WriteFile(path, []byte("this is [not toml"), 0644))
	_, err := Load(path)
	require.Error(t, err)
}
