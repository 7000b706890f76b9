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
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/webfiler/webfiler/pkg/storage/pathgate"
)

// accelError marks accelerator failures that must fall back to the local
// readdir path instead of surfacing to the caller.
type accelError struct {
	err error
}

func (e accelError) Error() string { return "accelerator: " + e.err.Error() }
func (e accelError) Unwrap() error { return e.err }

func isFallbackErr(err error) bool {
	_, ok := err.(accelError)
	return ok
}

// accelEntry is the wire shape the listing accelerator returns, either as a
// bare JSON array or as a single-key object wrapping such an array.
type accelEntry struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Mtime int64  `json:"mtime"`
	Size  *int64 `json:"size"`
}

type accelClient struct {
	base string
	hc   *http.Client
}

func newAccelClient(base string) *accelClient {
	return &accelClient{
		base: strings.TrimRight(base, "/"),
		hc:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *accelClient) fetch(ctx context.Context, logical string) ([]accelEntry, error) {
	u := c.base + pathgate.EncodePath(logical)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, u)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return decodeAccelBody(body)
}

// decodeAccelBody accepts either a JSON array of entries or an object with
// a single key whose value is such an array.
func decodeAccelBody(body []byte) ([]accelEntry, error) {
	var entries []accelEntry
	if err := json.Unmarshal(body, &entries); err == nil {
		return entries, nil
	}
	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(body, &wrapper); err != nil {
		return nil, fmt.Errorf("accelerator body is neither array nor object: %v", err)
	}
	if len(wrapper) != 1 {
		return nil, fmt.Errorf("accelerator object has %d keys, want 1", len(wrapper))
	}
	for _, raw := range wrapper {
		if err := json.Unmarshal(raw, &entries); err != nil {
			return nil, fmt.Errorf("accelerator wrapped value is not an entry array: %v", err)
		}
	}
	return entries, nil
}

func (fs *LocalFS) listAccelerated(ctx context.Context, logical string) (*Listing, error) {
	if fs.cache != nil {
		if v, err := fs.cache.Get(logical); err == nil {
			return v.(*Listing), nil
		}
	}

	// collapse concurrent accelerator hits for the same directory
	v, err, _ := fs.group.Do(logical, func() (interface{}, error) {
		raw, err := fs.accel.fetch(ctx, logical)
		if err != nil {
			return nil, accelError{err: err}
		}
		items := make([]*Entry, 0, len(raw))
		for _, e := range raw {
			if e.Name == "" || e.Name == "." || e.Name == ".." || e.Name == ScratchDirName {
				continue
			}
			var size int64
			if e.Size != nil {
				size = *e.Size
			}
			items = append(items, fs.toEntry(logical, e.Name, isAccelDir(e.Type), size, time.UnixMilli(e.Mtime)))
		}
		sortEntries(items)
		l := &Listing{Path: path.Clean(logical), Items: items}
		if fs.cache != nil {
			_ = fs.cache.Set(logical, l)
		}
		return l, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Listing), nil
}

func isAccelDir(t string) bool {
	switch strings.ToLower(t) {
	case "dir", "directory", "folder":
		return true
	default:
		return false
	}
}
