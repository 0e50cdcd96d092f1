// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package obs

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Package-level ingestion metrics, auto-registered via promauto on the
// default registry so internal/statussrv's promhttp.Handler() picks them
// up with no explicit wiring.
var (
	// ingestNodesTotal counts nodes submitted to the graph store.
	//
	// Labels:
	//   - label: the Cypher node label (Project, Folder, File, Function,
	//     DataStructure)
	ingestNodesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cxgraph",
			Subsystem: "ingest",
			Name:      "nodes_total",
			Help:      "Total nodes submitted to the graph store.",
		},
		[]string{"label"},
	)

	// ingestEdgesTotal counts edges submitted to the graph store.
	//
	// Labels:
	//   - kind: the Cypher relationship type (CONTAINS, DEFINES,
	//     INCLUDES, CALLS)
	//   - strategy: the submission strategy used
	ingestEdgesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cxgraph",
			Subsystem: "ingest",
			Name:      "edges_total",
			Help:      "Total edges submitted to the graph store.",
		},
		[]string{"kind", "strategy"},
	)

	// ingestDroppedTotal counts filtered (non-fatal) drops by kind, per
	// the error taxonomy's "counted, not fatal" entries
	// (UnresolvedContainer, SpanMismatch, PathOutsideProject).
	ingestDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cxgraph",
			Subsystem: "ingest",
			Name:      "dropped_total",
			Help:      "Total items dropped as a counted, non-fatal boundary condition.",
		},
		[]string{"reason"},
	)

	// runDuration measures full pipeline run wall-clock time.
	//
	// Labels:
	//   - mode: "full" or "incremental"
	//   - status: "success" or "error"
	runDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cxgraph",
			Subsystem: "orchestrator",
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete orchestrator run.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
		[]string{"mode", "status"},
	)
)

// RecordIngestNodes adds n to the nodes_total counter for label.
func RecordIngestNodes(label string, n int) {
	if n <= 0 {
		return
	}
	ingestNodesTotal.WithLabelValues(label).Add(float64(n))
}

// RecordIngestEdges adds n to the edges_total counter for kind/strategy.
func RecordIngestEdges(kind, strategy string, n int) {
	if n <= 0 {
		return
	}
	ingestEdgesTotal.WithLabelValues(kind, strategy).Add(float64(n))
}

// RecordDropped increments the dropped_total counter for reason (e.g.
// "unresolved_container", "span_mismatch", "path_outside_project").
func RecordDropped(reason string, n int) {
	if n <= 0 {
		return
	}
	ingestDroppedTotal.WithLabelValues(reason).Add(float64(n))
}

// RecordRun observes one full orchestrator run's duration.
func RecordRun(mode string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	runDuration.WithLabelValues(mode, status).Observe(duration.Seconds())
}
