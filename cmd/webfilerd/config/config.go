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

// Package config loads the daemon configuration from a TOML file with
// environment overrides.
package config

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Config is the top-level daemon configuration.
type Config struct {
	Log  LogConfig  `mapstructure:"log"`
	HTTP HTTPConfig `mapstructure:"http"`
}

// LogConfig controls the root logger.
type LogConfig struct {
	Level string `mapstructure:"level"`
	Mode  string `mapstructure:"mode"` // json or console
}

// HTTPConfig controls the HTTP server and the services it mounts.
type HTTPConfig struct {
	Network            string                            `mapstructure:"network"`
	Address            string                            `mapstructure:"address"`
	CORSAllowedOrigins []string                          `mapstructure:"cors_allowed_origins"`
	Services           map[string]map[string]interface{} `mapstructure:"services"`
}

// Load reads the configuration file at path. A missing file is not an
// error: the daemon runs with defaults, overridable through WEBFILER_*
// environment variables.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	v.SetEnvPrefix("webfiler")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("log.level", "info")
	v.SetDefault("log.mode", "json")
	v.SetDefault("http.network", "tcp")
	v.SetDefault("http.address", "0.0.0.0:8080")

	if err := v.ReadInConfig(); err != nil {
		if _, statErr := os.Stat(path); statErr == nil {
			return nil, errors.Wrap(err, "config: error parsing "+path)
		}
	}

	c := &Config{}
	if err := v.Unmarshal(c); err != nil {
		return nil, errors.Wrap(err, "config: error decoding configuration")
	}

	// the files service is the reason this daemon exists, always mount it
	if c.HTTP.Services == nil {
		c.HTTP.Services = map[string]map[string]interface{}{}
	}
	if _, ok := c.HTTP.Services["files"]; !ok {
		c.HTTP.Services["files"] = map[string]interface{}{}
	}

	return c, nil
}
