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
	"fmt"
	"io"
	"net/http"
	"path"
	"strconv"
	"time"

	"github.com/webfiler/webfiler/pkg/appctx"
	"github.com/webfiler/webfiler/pkg/metrics"
	"github.com/webfiler/webfiler/pkg/storage/utils/archiver"
)

func (s *svc) handleDownload(w http.ResponseWriter, r *http.Request) {
	logical := r.URL.Query().Get("path")

	fi, err := s.fs.Stat(r.Context(), logical)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if !fi.IsDir() {
		s.streamFile(w, r, logical)
		return
	}

	base := path.Base(path.Clean("/" + logical))
	if base == "/" || base == "." {
		base = "download"
	}
	abs, err := s.fs.Gate().Resolve(logical)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	// the directory's own contents sit at the archive root
	s.streamZip(w, r, base+".zip", []archiver.Entry{{Path: abs}})
}

type downloadItem struct {
	Name string `json:"name" validate:"required"`
	Path string `json:"path" validate:"required"`
}

type downloadMultipleRequest struct {
	Items    []downloadItem `json:"items" validate:"required,min=1,dive"`
	BasePath string         `json:"basePath"`
}

func (s *svc) handleDownloadMultiple(w http.ResponseWriter, r *http.Request) {
	var req downloadMultipleRequest
	if err := s.decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	entries := make([]archiver.Entry, 0, len(req.Items))
	for _, it := range req.Items {
		logical := path.Join("/", req.BasePath, it.Path)
		abs, err := s.fs.Gate().Resolve(logical)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		// stat up front so a missing item is a clean 404 instead of a
		// truncated stream
		if _, err := s.fs.Stat(r.Context(), logical); err != nil {
			s.writeError(w, r, err)
			return
		}
		entries = append(entries, archiver.Entry{DisplayName: it.Name, Path: abs})
	}

	name := fmt.Sprintf("download-%s.zip", time.Now().Format("20060102-150405"))
	s.streamZip(w, r, name, entries)
}

func (s *svc) streamFile(w http.ResponseWriter, r *http.Request, logical string) {
	f, fi, err := s.fs.Open(r.Context(), logical)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", "attachment; filename=\""+fi.Name()+"\"")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Content-Length", strconv.FormatInt(fi.Size(), 10))
	if _, err := io.Copy(w, f); err != nil {
		// headers are gone, all we can do is log the broken stream
		appctx.GetLogger(r.Context()).Debug().Err(err).Str("path", logical).Msg("download aborted")
	}
}

func (s *svc) streamZip(w http.ResponseWriter, r *http.Request, name string, entries []archiver.Entry) {
	arch, err := archiver.New(entries, archiver.Config{
		MaxNumFiles: s.conf.MaxNumFiles,
		MaxSize:     s.conf.MaxSize,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", "attachment; filename=\""+name+"\"")
	w.Header().Set("Cache-Control", "no-cache")

	if err := arch.CreateZip(r.Context(), w); err != nil {
		appctx.GetLogger(r.Context()).Error().Err(err).Str("archive", name).Msg("archive stream failed")
		return
	}
	metrics.ArchivesStreamed.Inc()
}
