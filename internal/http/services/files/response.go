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
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/webfiler/webfiler/pkg/appctx"
	"github.com/webfiler/webfiler/pkg/errtypes"
	"github.com/webfiler/webfiler/pkg/storage/utils/archiver"
)

// envelope is the body of every successful JSON response.
type envelope map[string]interface{}

func (s *svc) writeOK(w http.ResponseWriter, r *http.Request, payload envelope) {
	body := envelope{"ok": true}
	for k, v := range payload {
		body[k] = v
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		appctx.GetLogger(r.Context()).Error().Err(err).Msg("error encoding response")
	}
}

func (s *svc) writeError(w http.ResponseWriter, r *http.Request, err error) {
	log := appctx.GetLogger(r.Context())
	status := statusFor(err)
	if status >= 500 {
		log.Error().Err(err).Msg("request failed")
	} else {
		log.Debug().Err(err).Int("status", status).Msg("request rejected")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{"ok": false, "error": err.Error()})
}

func statusFor(err error) int {
	if err == archiver.ErrMaxFileCount || err == archiver.ErrMaxSize {
		return http.StatusRequestEntityTooLarge
	}
	switch err.(type) {
	case errtypes.IsBadRequest, errtypes.IsPathEscaped, errtypes.IsIsADirectory:
		return http.StatusBadRequest
	case errtypes.IsInvalidCredentials:
		return http.StatusUnauthorized
	case errtypes.IsPermissionDenied:
		return http.StatusForbidden
	case errtypes.IsNotFound:
		return http.StatusNotFound
	case errtypes.IsAlreadyExists, errtypes.IsConflict:
		return http.StatusConflict
	case errtypes.IsGone:
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON parses a JSON request body into v and validates it.
func (s *svc) decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errtypes.BadRequest("invalid json body: " + err.Error())
	}
	if err := s.validate.Struct(v); err != nil {
		return errtypes.BadRequest(err.Error())
	}
	return nil
}

// pageSpec is a parsed pagination request. Nil means no pagination was
// requested and the full listing is returned.
type pageSpec struct {
	byPage   bool
	page     int
	pageSize int
	offset   int
	limit    int
}

func parsePagination(r *http.Request) (*pageSpec, error) {
	q := r.URL.Query()

	if q.Get("page") != "" || q.Get("pageSize") != "" {
		p := &pageSpec{byPage: true, page: 1, pageSize: 100}
		var err error
		if v := q.Get("page"); v != "" {
			if p.page, err = strconv.Atoi(v); err != nil || p.page < 1 {
				return nil, errtypes.BadRequest("page must be a positive integer")
			}
		}
		if v := q.Get("pageSize"); v != "" {
			if p.pageSize, err = strconv.Atoi(v); err != nil || p.pageSize < 1 || p.pageSize > 1000 {
				return nil, errtypes.BadRequest("pageSize must be between 1 and 1000")
			}
		}
		return p, nil
	}

	if q.Get("offset") != "" || q.Get("limit") != "" {
		p := &pageSpec{offset: 0, limit: 100}
		var err error
		if v := q.Get("offset"); v != "" {
			if p.offset, err = strconv.Atoi(v); err != nil || p.offset < 0 {
				return nil, errtypes.BadRequest("offset must be a non-negative integer")
			}
		}
		if v := q.Get("limit"); v != "" {
			if p.limit, err = strconv.Atoi(v); err != nil || p.limit < 1 || p.limit > 1000 {
				return nil, errtypes.BadRequest("limit must be between 1 and 1000")
			}
		}
		return p, nil
	}

	return nil, nil
}

// slice applies the pagination window to a listing of n items and returns
// the window bounds plus the pagination echo for the response.
func (p *pageSpec) slice(n int) (lo, hi int, meta envelope) {
	if p.byPage {
		lo = (p.page - 1) * p.pageSize
		hi = lo + p.pageSize
		totalPages := (n + p.pageSize - 1) / p.pageSize
		if totalPages == 0 {
			totalPages = 1
		}
		meta = envelope{
			"page":       p.page,
			"pageSize":   p.pageSize,
			"total":      n,
			"totalPages": totalPages,
		}
	} else {
		lo = p.offset
		hi = lo + p.limit
		meta = envelope{
			"offset": p.offset,
			"limit":  p.limit,
			"total":  n,
		}
	}
	if lo > n {
		lo = n
	}
	if hi > n {
		hi = n
	}
	return lo, hi, meta
}
