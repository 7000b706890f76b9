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
)

func (s *svc) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	page, err := parsePagination(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	listing, err := s.fs.List(ctx, r.URL.Query().Get("path"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if page == nil {
		s.writeOK(w, r, envelope{"path": listing.Path, "items": listing.Items})
		return
	}

	lo, hi, meta := page.slice(len(listing.Items))
	s.writeOK(w, r, envelope{
		"path":       listing.Path,
		"items":      listing.Items[lo:hi],
		"pagination": meta,
	})
}

func (s *svc) handleRead(w http.ResponseWriter, r *http.Request) {
	content, fi, err := s.fs.ReadText(r.Context(), r.URL.Query().Get("path"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeOK(w, r, envelope{
		"content": content,
		"size":    fi.Size(),
		"mtime":   fi.ModTime().UnixMilli(),
	})
}

type pathRequest struct {
	Path string `json:"path" validate:"required"`
}

func (s *svc) handleMkdir(w http.ResponseWriter, r *http.Request) {
	var req pathRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.fs.Mkdir(r.Context(), req.Path); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeOK(w, r, envelope{"message": "directory created"})
}

func (s *svc) handleDelete(w http.ResponseWriter, r *http.Request) {
	var req pathRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.fs.Delete(r.Context(), req.Path); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeOK(w, r, envelope{"message": "deleted"})
}

type moveRequest struct {
	Source      string `json:"source" validate:"required"`
	Destination string `json:"destination" validate:"required"`
}

func (s *svc) handleMove(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.fs.Move(r.Context(), req.Source, req.Destination); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeOK(w, r, envelope{"message": "moved"})
}

func (s *svc) handleCopy(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.fs.Copy(r.Context(), req.Source, req.Destination); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeOK(w, r, envelope{"message": "copied"})
}

type createRequest struct {
	Path    string `json:"path" validate:"required"`
	Content string `json:"content"`
}

func (s *svc) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	fi, err := s.fs.CreateFile(r.Context(), req.Path, []byte(req.Content))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeOK(w, r, envelope{
		"size":  fi.Size(),
		"mtime": fi.ModTime().UnixMilli(),
	})
}
