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

// Package walker walks a resolved directory tree, feeding consumers such
// as the archiver.
package walker

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/webfiler/webfiler/pkg/storage/pathgate"
	"github.com/webfiler/webfiler/pkg/storage/utils/chunking"
)

// WalkFunc is called for every entry below the walk root. rel is the
// forward-slash path relative to the root; it is "" for the root itself.
type WalkFunc func(rel string, info os.FileInfo) error

// Walk traverses the tree rooted at root depth-first in lexical order.
// Upload scratch directories are skipped. The walk stops early when the
// context is cancelled.
func Walk(ctx context.Context, root pathgate.Abs, fn WalkFunc) error {
	base := root.String()
	return filepath.Walk(base, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if info.IsDir() && info.Name() == chunking.ScratchDir {
			return filepath.SkipDir
		}
		rel := strings.TrimPrefix(strings.TrimPrefix(p, base), string(filepath.Separator))
		return fn(filepath.ToSlash(rel), info)
	})
}
