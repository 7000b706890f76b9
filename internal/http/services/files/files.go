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

// Package files exposes the file management API: directory operations,
// resumable chunked uploads, streamed downloads and share links.
package files

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/webfiler/webfiler/pkg/appctx"
	"github.com/webfiler/webfiler/pkg/rhttp/global"
	"github.com/webfiler/webfiler/pkg/share"
	"github.com/webfiler/webfiler/pkg/share/manager/registry"
	"github.com/webfiler/webfiler/pkg/storage/localfs"
	"github.com/webfiler/webfiler/pkg/storage/utils/chunking"

	// Load share manager drivers.
	_ "github.com/webfiler/webfiler/pkg/share/manager/memory"
)

func init() {
	global.Register("files", New)
}

type config struct {
	Prefix  string         `mapstructure:"prefix"`
	Storage localfs.Config `mapstructure:"storage"`

	ShareDriver  string                            `mapstructure:"share_driver"`
	ShareDrivers map[string]map[string]interface{} `mapstructure:"share_drivers"`

	// archive caps, 0 means the built-in defaults
	MaxNumFiles int64 `mapstructure:"max_num_files"`
	MaxSize     int64 `mapstructure:"max_size"`

	// scratch janitor; 0 disables it
	JanitorIntervalS int `mapstructure:"janitor_interval_seconds"`
	JanitorMaxAgeS   int `mapstructure:"janitor_max_age_seconds"`
}

func (c *config) ApplyDefaults() {
	if c.Prefix == "" {
		c.Prefix = "api/fs"
	}
	if c.ShareDriver == "" {
		c.ShareDriver = "memory"
	}
	c.Storage.ApplyDefaults()
}

type svc struct {
	conf     *config
	router   chi.Router
	fs       *localfs.LocalFS
	uploads  *chunking.Coordinator
	shares   share.Manager
	validate *validator.Validate
	log      *zerolog.Logger

	janitorStop context.CancelFunc
}

// New creates the files service from its configuration map.
func New(m map[string]interface{}, log *zerolog.Logger) (global.Service, error) {
	var c config
	if err := mapstructure.Decode(m, &c); err != nil {
		return nil, errors.Wrap(err, "files: error decoding configuration")
	}
	c.ApplyDefaults()

	fs, err := localfs.New(&c.Storage)
	if err != nil {
		return nil, err
	}

	newShares, ok := registry.NewFuncs[c.ShareDriver]
	if !ok {
		return nil, errors.Errorf("files: unknown share driver %q", c.ShareDriver)
	}
	shares, err := newShares(c.ShareDrivers[c.ShareDriver])
	if err != nil {
		return nil, err
	}

	s := &svc{
		conf:     &c,
		fs:       fs,
		uploads:  chunking.NewCoordinator(fs.Gate()),
		shares:   shares,
		validate: validator.New(),
		log:      log,
	}
	s.initRouter()

	if c.JanitorIntervalS > 0 && c.JanitorMaxAgeS > 0 {
		ctx, cancel := context.WithCancel(appctx.WithLogger(context.Background(), log))
		s.janitorStop = cancel
		go s.uploads.RunJanitor(ctx,
			time.Duration(c.JanitorIntervalS)*time.Second,
			time.Duration(c.JanitorMaxAgeS)*time.Second)
	}

	return s, nil
}

func (s *svc) Handler() http.Handler { return s.router }

func (s *svc) Prefix() string { return s.conf.Prefix }

func (s *svc) Close() error {
	if s.janitorStop != nil {
		s.janitorStop()
	}
	return nil
}

func (s *svc) initRouter() {
	r := chi.NewRouter()

	r.Get("/list", s.handleList)
	r.Get("/read", s.handleRead)
	r.Post("/mkdir", s.handleMkdir)
	r.Post("/delete", s.handleDelete)
	r.Delete("/delete", s.handleDelete)
	r.Post("/move", s.handleMove)
	r.Post("/copy", s.handleCopy)
	r.Post("/create", s.handleCreate)

	r.Post("/upload", s.handleUpload)
	r.Post("/upload-status", s.handleUploadStatus)
	r.Post("/upload-chunk", s.handleUploadChunk)
	r.Post("/upload-cancel", s.handleUploadCancel)

	r.Get("/download", s.handleDownload)
	r.Post("/download-multiple", s.handleDownloadMultiple)

	r.Route("/share", func(r chi.Router) {
		r.Get("/", s.handleShareList)
		r.Post("/create", s.handleShareCreate)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleShareGet)
			r.Put("/", s.handleShareUpdate)
			r.Delete("/", s.handleShareDelete)
			r.Post("/access", s.handleShareAccess)
			r.Get("/download", s.handleShareDownload)
		})
	})

	s.router = r
}
