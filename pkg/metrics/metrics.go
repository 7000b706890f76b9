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

// Package metrics holds the prometheus collectors shared across the
// service. They register on the default registry and are exposed by the
// metrics HTTP service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// UploadChunksReceived counts chunk bodies persisted to scratch.
	UploadChunksReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "webfiler_upload_chunks_received_total",
		Help: "Number of upload chunks written to scratch storage.",
	})

	// UploadsAssembled counts uploads fully materialized at their final path.
	UploadsAssembled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "webfiler_uploads_assembled_total",
		Help: "Number of chunked uploads assembled into final files.",
	})

	// UploadAssemblyFailures counts assembly attempts that hit an I/O error.
	UploadAssemblyFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "webfiler_upload_assembly_failures_total",
		Help: "Number of chunk assembly attempts that failed.",
	})

	// UploadConflicts counts assemblies refused because the final file existed.
	UploadConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "webfiler_upload_conflicts_total",
		Help: "Number of assemblies refused because the target existed and replace was not set.",
	})

	// ArchivesStreamed counts zip archives streamed to clients.
	ArchivesStreamed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "webfiler_archives_streamed_total",
		Help: "Number of zip archives streamed.",
	})

	// SharesCreated counts share links created.
	SharesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "webfiler_shares_created_total",
		Help: "Number of share links created.",
	})
)
