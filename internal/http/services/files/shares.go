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
	"net/url"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/webfiler/webfiler/pkg/errtypes"
	"github.com/webfiler/webfiler/pkg/share"
	"github.com/webfiler/webfiler/pkg/storage/localfs"
	"github.com/webfiler/webfiler/pkg/storage/utils/archiver"
)

type shareCreateRequest struct {
	Path          string `json:"path" validate:"required"`
	ExpiresIn     int64  `json:"expiresIn" validate:"gte=0"`
	Password      string `json:"password"`
	AllowUploads  bool   `json:"allowUploads"`
	DisableViewer bool   `json:"disableViewer"`
	QuickDownload bool   `json:"quickDownload"`
	MaxBandwidth  int64  `json:"maxBandwidth" validate:"gte=0"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	Theme         string `json:"theme"`
	ViewMode      string `json:"viewMode"`
}

func (s *svc) handleShareCreate(w http.ResponseWriter, r *http.Request) {
	var req shareCreateRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	fi, err := s.fs.Stat(r.Context(), req.Path)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	kind := share.KindFile
	if fi.IsDir() {
		kind = share.KindDir
	}

	sh, err := s.shares.Create(r.Context(), &share.CreateRequest{
		Path:          path.Clean("/" + req.Path),
		Kind:          kind,
		ExpiresIn:     req.ExpiresIn,
		Password:      req.Password,
		AllowUploads:  req.AllowUploads,
		DisableViewer: req.DisableViewer,
		QuickDownload: req.QuickDownload,
		MaxBandwidth:  req.MaxBandwidth,
		Title:         req.Title,
		Description:   req.Description,
		Theme:         req.Theme,
		ViewMode:      req.ViewMode,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeOK(w, r, envelope{
		"shareId":  sh.ID,
		"shareUrl": "/share/" + sh.ID,
		"share":    sh.Public(),
	})
}

func (s *svc) handleShareList(w http.ResponseWriter, r *http.Request) {
	all, err := s.shares.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	views := make([]*share.PublicView, 0, len(all))
	for _, sh := range all {
		views = append(views, sh.Public())
	}
	s.writeOK(w, r, envelope{"shares": views})
}

func (s *svc) handleShareGet(w http.ResponseWriter, r *http.Request) {
	sh, err := s.shares.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeOK(w, r, envelope{"share": sh.Public()})
}

type shareUpdateRequest struct {
	ExpiresIn     *int64  `json:"expiresIn" validate:"omitempty,gte=0"`
	Password      *string `json:"password"`
	AllowUploads  *bool   `json:"allowUploads"`
	DisableViewer *bool   `json:"disableViewer"`
	QuickDownload *bool   `json:"quickDownload"`
	MaxBandwidth  *int64  `json:"maxBandwidth" validate:"omitempty,gte=0"`
	Title         *string `json:"title"`
	Description   *string `json:"description"`
	Theme         *string `json:"theme"`
	ViewMode      *string `json:"viewMode"`
}

func (s *svc) handleShareUpdate(w http.ResponseWriter, r *http.Request) {
	var req shareUpdateRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	sh, err := s.shares.Update(r.Context(), chi.URLParam(r, "id"), &share.UpdateRequest{
		ExpiresIn:     req.ExpiresIn,
		Password:      req.Password,
		AllowUploads:  req.AllowUploads,
		DisableViewer: req.DisableViewer,
		QuickDownload: req.QuickDownload,
		MaxBandwidth:  req.MaxBandwidth,
		Title:         req.Title,
		Description:   req.Description,
		Theme:         req.Theme,
		ViewMode:      req.ViewMode,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeOK(w, r, envelope{"share": sh.Public()})
}

func (s *svc) handleShareDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.shares.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeOK(w, r, envelope{"message": "share deleted"})
}

type shareAccessRequest struct {
	Password string `json:"password"`
	Path     string `json:"path"`
}

func (s *svc) handleShareAccess(w http.ResponseWriter, r *http.Request) {
	var req shareAccessRequest
	// the body is optional for password-less shares
	if r.ContentLength > 0 {
		if err := s.decodeJSON(r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}
	}

	sh, err := s.shares.Authenticate(r.Context(), chi.URLParam(r, "id"), req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if sh.Kind == share.KindFile {
		fi, err := s.fs.Stat(r.Context(), sh.Path)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.writeOK(w, r, envelope{
			"share": sh.Public(),
			"file": envelope{
				"name":  fi.Name(),
				"size":  fi.Size(),
				"mtime": fi.ModTime().UnixMilli(),
				"url":   s.shareDownloadURL(sh.ID, ""),
			},
		})
		return
	}

	logical, err := shareScopedPath(sh, req.Path)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	listing, err := s.fs.List(r.Context(), logical)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	items := make([]envelope, 0, len(listing.Items))
	for _, it := range listing.Items {
		e := envelope{
			"name":  it.Name,
			"kind":  it.Kind,
			"mtime": it.Mtime,
		}
		if it.Size != nil {
			e["size"] = *it.Size
		}
		if it.Kind == localfs.KindFile {
			e["url"] = s.shareDownloadURL(sh.ID, path.Join(req.Path, it.Name))
		}
		items = append(items, e)
	}

	s.writeOK(w, r, envelope{
		"share": sh.Public(),
		"path":  req.Path,
		"items": items,
	})
}

func (s *svc) handleShareDownload(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sh, err := s.shares.Authenticate(r.Context(), chi.URLParam(r, "id"), q.Get("password"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	logical := sh.Path
	if sh.Kind == share.KindDir {
		logical, err = shareScopedPath(sh, q.Get("path"))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
	}

	fi, err := s.fs.Stat(r.Context(), logical)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !fi.IsDir() {
		s.streamFile(w, r, logical)
		return
	}

	abs, err := s.fs.Gate().Resolve(logical)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.streamZip(w, r, fi.Name()+".zip", []archiver.Entry{{Path: abs}})
}

func (s *svc) shareDownloadURL(id, rel string) string {
	u := "/" + s.conf.Prefix + "/share/" + id + "/download"
	if rel != "" {
		u += "?path=" + url.QueryEscape(rel)
	}
	return u
}

// shareScopedPath joins a client supplied relative path onto the share
// target without letting it climb out of the shared subtree.
func shareScopedPath(sh *share.Share, rel string) (string, error) {
	if rel == "" {
		return sh.Path, nil
	}
	cleaned := path.Clean("/" + rel)
	joined := path.Join(sh.Path, cleaned)
	if joined != sh.Path && !strings.HasPrefix(joined, strings.TrimRight(sh.Path, "/")+"/") {
		return "", errtypes.PathEscaped(rel)
	}
	return joined, nil
}
