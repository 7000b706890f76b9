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

package files

import (
	"net/http"
	"path"
	"strconv"

	"github.com/webfiler/webfiler/pkg/errtypes"
	"github.com/webfiler/webfiler/pkg/storage/utils/chunking"
)

// multipart bodies are parsed with this much memory before spilling to disk
const maxMultipartMemory = 32 << 20

type uploadStatusRequest struct {
	FileID      string `json:"fileId" validate:"required"`
	FileName    string `json:"fileName" validate:"required"`
	PathParam   string `json:"pathParam"`
	ChunkSize   int    `json:"chunkSize"`
	TotalChunks int    `json:"totalChunks"`
}

func (s *svc) handleUploadStatus(w http.ResponseWriter, r *http.Request) {
	var req uploadStatusRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	indices, err := s.uploads.Status(r.Context(), req.PathParam, req.FileID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeOK(w, r, envelope{
		"uploadedChunks": indices,
		"canResume":      len(indices) > 0,
	})
}

func (s *svc) handleUploadChunk(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		s.writeError(w, r, errtypes.BadRequest("invalid multipart body: "+err.Error()))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	chunkIndex, err := strconv.Atoi(r.FormValue("chunkIndex"))
	if err != nil {
		s.writeError(w, r, errtypes.BadRequest("chunkIndex must be an integer"))
		return
	}
	totalChunks, err := strconv.Atoi(r.FormValue("totalChunks"))
	if err != nil {
		s.writeError(w, r, errtypes.BadRequest("totalChunks must be an integer"))
		return
	}

	chunk, _, err := r.FormFile("chunk")
	if err != nil {
		s.writeError(w, r, errtypes.BadRequest("missing chunk payload"))
		return
	}
	defer chunk.Close()

	res, err := s.uploads.PutChunk(r.Context(), &chunking.PutRequest{
		Path:        r.FormValue("path"),
		FileName:    r.FormValue("fileName"),
		Fingerprint: r.FormValue("fileId"),
		ChunkIndex:  chunkIndex,
		TotalChunks: totalChunks,
		Replace:     r.FormValue("replace") == "true",
		Data:        chunk,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if res.Complete {
		s.writeOK(w, r, envelope{"complete": true, "fileName": res.FileName})
		return
	}
	s.writeOK(w, r, envelope{
		"complete": false,
		"received": res.Received,
		"total":    res.Total,
	})
}

type uploadCancelRequest struct {
	FileID   string `json:"fileId" validate:"required"`
	FileName string `json:"fileName"`
	Path     string `json:"path"`
}

func (s *svc) handleUploadCancel(w http.ResponseWriter, r *http.Request) {
	var req uploadCancelRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.uploads.Cancel(r.Context(), req.Path, req.FileID); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeOK(w, r, envelope{"message": "upload cancelled"})
}

// handleUpload accepts whole files in one multipart request, for payloads
// small enough that chunking is not worth it.
func (s *svc) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		s.writeError(w, r, errtypes.BadRequest("invalid multipart body: "+err.Error()))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	dir := r.FormValue("path")
	replace := r.FormValue("replace") == "true"

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		files = r.MultipartForm.File["file"]
	}
	if len(files) == 0 {
		s.writeError(w, r, errtypes.BadRequest("no files in request"))
		return
	}

	var saved []string
	for _, fh := range files {
		name := path.Base(fh.Filename)
		if name == "" || name == "." || name == "/" {
			s.writeError(w, r, errtypes.BadRequest("invalid file name "+fh.Filename))
			return
		}
		target := path.Join(dir, name)

		f, err := fh.Open()
		if err != nil {
			s.writeError(w, r, errtypes.BadRequest("unreadable file part "+name))
			return
		}
		err = s.fs.WriteStream(r.Context(), target, f, replace)
		f.Close()
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		saved = append(saved, name)
	}

	s.writeOK(w, r, envelope{"files": saved})
}
