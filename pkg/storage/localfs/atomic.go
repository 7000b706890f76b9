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
	"io"

	"github.com/google/renameio/v2"
)

// atomicWriteFile writes content to a temporary file next to the target and
// renames it into place, so readers only ever see the complete file.
func atomicWriteFile(fsPath string, content []byte) error {
	return renameio.WriteFile(fsPath, content, 0644)
}

// atomicWriteStream is atomicWriteFile for streamed content.
func atomicWriteStream(fsPath string, r io.Reader) error {
	t, err := renameio.NewPendingFile(fsPath, renameio.WithPermissions(0644))
	if err != nil {
		return err
	}
	if _, err := io.Copy(t, r); err != nil {
		_ = t.Cleanup()
		return err
	}
	return t.CloseAtomicallyReplace()
}
