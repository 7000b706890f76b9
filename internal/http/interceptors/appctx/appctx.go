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

// Package appctx attaches a request-scoped logger to the request context.
package appctx

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/webfiler/webfiler/pkg/appctx"
	"github.com/webfiler/webfiler/pkg/rhttp/global"
)

// New returns a middleware that stores a logger tagged with a request id
// in the context of every request.
func New(log zerolog.Logger) global.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := r.Header.Get("X-Request-Id")
			if reqID == "" {
				reqID = uuid.NewString()
			}
			sub := log.With().Str("reqid", reqID).Logger()
			ctx := appctx.WithLogger(r.Context(), &sub)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
