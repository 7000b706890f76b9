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

// Package log logs HTTP requests and responses.
package log

import (
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/webfiler/webfiler/pkg/appctx"
	"github.com/webfiler/webfiler/pkg/rhttp/global"
)

// New returns a middleware that logs every processed request.
func New() global.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := appctx.GetLogger(r.Context())
			start := time.Now()
			lw := &responseLogger{w: w, status: http.StatusOK}
			next.ServeHTTP(lw, r)
			writeLog(log, r, start, lw.status, lw.size)
		})
	}
}

func writeLog(log *zerolog.Logger, r *http.Request, start time.Time, status, size int) {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}

	var event *zerolog.Event
	switch {
	case status < 400:
		event = log.Info()
	case status < 500:
		event = log.Warn()
	default:
		event = log.Error()
	}
	event.Str("host", host).Str("method", r.Method).Str("uri", r.RequestURI).
		Int("status", status).Int("size", size).
		Dur("duration", time.Since(start)).
		Msg("processed http request")
}

// responseLogger is a wrapper of http.ResponseWriter that keeps track of
// its HTTP status code and body size.
type responseLogger struct {
	w      http.ResponseWriter
	status int
	size   int
}

func (l *responseLogger) Header() http.Header {
	return l.w.Header()
}

func (l *responseLogger) Write(b []byte) (int, error) {
	size, err := l.w.Write(b)
	l.size += size
	return size, err
}

func (l *responseLogger) WriteHeader(s int) {
	l.w.WriteHeader(s)
	l.status = s
}

func (l *responseLogger) Flush() {
	if f, ok := l.w.(http.Flusher); ok {
		f.Flush()
	}
}
