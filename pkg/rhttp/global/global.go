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

// Package global holds the registry of HTTP services the daemon can mount.
package global

import (
	"net/http"

	"github.com/rs/zerolog"
)

// NewService is the function that HTTP services register to be created
// from a configuration map.
type NewService func(conf map[string]interface{}, log *zerolog.Logger) (Service, error)

// Services is a map containing all the registered HTTP services.
var Services = map[string]NewService{}

// Register registers a new HTTP service under the given name.
// Not safe for concurrent use, safe for use from package init.
func Register(name string, f NewService) {
	Services[name] = f
}

// Service is the interface that all HTTP services must implement.
type Service interface {
	Handler() http.Handler
	Prefix() string
	Close() error
}

// Middleware wraps the composed handler of the whole server.
type Middleware func(h http.Handler) http.Handler
