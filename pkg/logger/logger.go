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

// Package logger builds the zerolog root logger of the daemon.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Mode changes the output format: "json" for machine consumption,
// "console" for humans.
type Mode string

const (
	// JSONMode outputs one JSON object per line.
	JSONMode Mode = "json"
	// ConsoleMode outputs colored human-readable lines.
	ConsoleMode Mode = "console"
)

// Option customizes the logger.
type Option func(*options)

type options struct {
	level  string
	writer io.Writer
	mode   Mode
}

// WithLevel sets the minimum level, parsed zerolog-style. An unknown or
// empty level means info.
func WithLevel(level string) Option {
	return func(o *options) {
		o.level = level
	}
}

// WithWriter sets the output writer and format.
func WithWriter(w io.Writer, mode Mode) Option {
	return func(o *options) {
		o.writer = w
		o.mode = mode
	}
}

// New creates a root logger from the given options.
func New(opts ...Option) *zerolog.Logger {
	o := &options{writer: os.Stderr, mode: JSONMode}
	for _, opt := range opts {
		opt(o)
	}

	level, err := zerolog.ParseLevel(o.level)
	if err != nil || o.level == "" {
		level = zerolog.InfoLevel
	}

	w := o.writer
	if o.mode == ConsoleMode {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	zl := zerolog.New(w).With().Timestamp().Logger().Level(level)
	return &zl
}
