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

// Command webfilerd runs the web file management daemon.
package main

import (
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"github.com/webfiler/webfiler/cmd/webfilerd/config"
	"github.com/webfiler/webfiler/internal/http/interceptors/appctx"
	logmw "github.com/webfiler/webfiler/internal/http/interceptors/log"
	"github.com/webfiler/webfiler/pkg/logger"
	"github.com/webfiler/webfiler/pkg/rhttp"
	"github.com/webfiler/webfiler/pkg/rhttp/global"

	// Load HTTP services.
	_ "github.com/webfiler/webfiler/internal/http/services/loader"
)

var (
	versionFlag = flag.Bool("version", false, "show version and exit")
	configFlag  = flag.String("c", "/etc/webfiler/webfiler.toml", "set configuration file")

	// set at build time
	version   = "devel"
	gitCommit = "unknown"
)

func main() {
	flag.Parse()

	if *versionFlag {
		fmt.Fprintf(os.Stderr, "version=%s commit=%s\n", version, gitCommit)
		os.Exit(0)
	}

	conf, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading configuration: %v\n", err)
		os.Exit(1)
	}

	log := newLogger(conf)
	log.Info().Str("version", version).Str("config", *configFlag).Msg("webfilerd starting")

	services, err := rhttp.InitServices(conf.HTTP.Services, log)
	if err != nil {
		log.Error().Err(err).Msg("error initializing http services")
		os.Exit(1)
	}

	server, err := rhttp.New(
		rhttp.WithServices(services),
		rhttp.WithMiddlewares([]global.Middleware{
			logmw.New(),
			appctx.New(*log),
			corsMiddleware(conf),
		}),
		rhttp.WithLogger(log.With().Str("pkg", "rhttp").Logger()),
	)
	if err != nil {
		log.Error().Err(err).Msg("error creating http server")
		os.Exit(1)
	}

	ln, err := net.Listen(conf.HTTP.Network, conf.HTTP.Address)
	if err != nil {
		log.Error().Err(err).Str("address", conf.HTTP.Address).Msg("error creating listener")
		os.Exit(1)
	}

	errc := make(chan error, 1)
	go func() {
		errc <- server.Start(ln)
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errc:
		if err != nil {
			log.Error().Err(err).Msg("http server failed")
			os.Exit(1)
		}
	case sig := <-sigc:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
		if err := server.GracefulStop(); err != nil {
			log.Error().Err(err).Msg("error during shutdown")
			os.Exit(1)
		}
	}
	log.Info().Msg("webfilerd stopped")
}

func newLogger(conf *config.Config) *zerolog.Logger {
	w := os.Stderr
	mode := logger.JSONMode
	if conf.Log.Mode == "console" {
		mode = logger.ConsoleMode
	}
	l := logger.New(
		logger.WithLevel(conf.Log.Level),
		logger.WithWriter(w, mode),
	)
	sub := l.With().Int("pid", os.Getpid()).Logger()
	return &sub
}

func corsMiddleware(conf *config.Config) global.Middleware {
	c := cors.New(cors.Options{
		AllowedOrigins: conf.HTTP.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	})
	return c.Handler
}
