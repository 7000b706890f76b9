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

// Package pathgate confines caller supplied logical paths to a fixed
// filesystem root. Every component that touches the filesystem resolves
// its paths through a Gate; the resolved Abs type cannot be fabricated
// from arbitrary strings outside this package, so a path that escaped the
// root cannot reach a syscall.
package pathgate

import (
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/webfiler/webfiler/pkg/errtypes"
)

// Abs is a resolved filesystem path below a Gate's root.
type Abs struct {
	fs string
}

// String returns the filesystem representation of the path.
func (a Abs) String() string { return a.fs }

// IsZero reports whether a is the zero value, i.e. not produced by a Gate.
func (a Abs) IsZero() bool { return a.fs == "" }

// Gate resolves logical paths against a storage root.
type Gate struct {
	root string
}

// New creates a Gate for the given root. The root must be an absolute path.
func New(root string) (*Gate, error) {
	if root == "" || !filepath.IsAbs(root) {
		return nil, errtypes.BadRequest("storage root must be an absolute path, got " + root)
	}
	return &Gate{root: filepath.Clean(root)}, nil
}

// Root returns the gate's root as a resolved path.
func (g *Gate) Root() Abs {
	return Abs{fs: g.root}
}

// Resolve turns a logical path into a filesystem path under the root.
// The empty string means "/". Repeated separators, "." and ".." components
// are collapsed lexically; if the result is not a descendant of the root
// the resolution fails with errtypes.PathEscaped.
func (g *Gate) Resolve(logical string) (Abs, error) {
	if logical == "" {
		logical = "/"
	}
	if !strings.HasPrefix(logical, "/") {
		logical = "/" + logical
	}
	fs := filepath.Join(g.root, filepath.FromSlash(logical))
	if fs != g.root && !strings.HasPrefix(fs, g.root+string(filepath.Separator)) {
		return Abs{}, errtypes.PathEscaped(logical)
	}
	return Abs{fs: fs}, nil
}

// Logical is the inverse of Resolve: it maps a resolved path back to its
// forward-slash logical form rooted at "/".
func (g *Gate) Logical(a Abs) string {
	p := strings.TrimPrefix(a.fs, g.root)
	p = filepath.ToSlash(p)
	if p == "" {
		return "/"
	}
	return p
}

// JoinName appends a single path component to a resolved path. The name
// must be a plain entry name: separators and dot components are rejected,
// so a resolved path can only be extended downwards.
func JoinName(a Abs, name string) (Abs, error) {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) {
		return Abs{}, errtypes.BadRequest("invalid entry name " + name)
	}
	return Abs{fs: filepath.Join(a.fs, name)}, nil
}

// EncodePath percent-encodes each segment of a logical path individually,
// preserving the separators. It is used to build URLs into the public files
// base and towards the listing accelerator.
func EncodePath(logical string) string {
	if logical == "" {
		return ""
	}
	segments := strings.Split(logical, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return path.Join("/", strings.Join(segments, "/"))
}
