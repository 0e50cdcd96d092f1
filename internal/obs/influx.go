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
	"context"
	"fmt"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/aleutian-oss/cxgraph/internal/model"
)

// RunStats is one completed orchestrator run, the shape
// RunStatsReporter.Report turns into a single InfluxDB point. Prometheus
// carries the live counters; this is the durable one-row-per-run record
// for longitudinal comparisons across runs.
type RunStats struct {
	Mode           string // "full" or "incremental"
	Duration       time.Duration
	NodesSubmitted int
	EdgesSubmitted map[string]int
	OrphansRemoved int
	Err            error
}

// RunStatsReporter writes an end-of-run stats point to InfluxDB. It is
// entirely optional: the orchestrator only constructs one when a target
// URL is configured, and a nil *RunStatsReporter's Report is a no-op.
type RunStatsReporter struct {
	client influxdb2.Client
	org    string
	bucket string
}

// NewRunStatsReporter opens an InfluxDB client. The token is expected to
// already be out of its memguard enclave by the time it reaches here -
// internal/config owns that custody chain.
func NewRunStatsReporter(url, token, org, bucket string) *RunStatsReporter {
	return &RunStatsReporter{
		client: influxdb2.NewClient(url, token),
		org:    org,
		bucket: bucket,
	}
}

// Report writes one point. Safe to call on a nil receiver (no-op), so
// callers don't need to branch on whether reporting is enabled.
func (r *RunStatsReporter) Report(ctx context.Context, stats RunStats) error {
	if r == nil {
		return nil
	}

	status := "success"
	if stats.Err != nil {
		status = "error"
	}

	fields := map[string]any{
		"duration_seconds": stats.Duration.Seconds(),
		"nodes_submitted":  int64(stats.NodesSubmitted),
		"orphans_removed":  int64(stats.OrphansRemoved),
	}
	for kind, n := range stats.EdgesSubmitted {
		fields["edges_"+strings.ToLower(kind)] = int64(n)
	}

	point := write.NewPoint(
		"cxgraph_run",
		map[string]string{"mode": stats.Mode, "status": status},
		fields,
		time.Now(),
	)

	writeAPI := r.client.WriteAPIBlocking(r.org, r.bucket)
	if err := writeAPI.WritePoint(ctx, point); err != nil {
		return fmt.Errorf("%w: write run-stats point: %v", model.ErrIO, err)
	}
	return nil
}

// Close releases the underlying HTTP client. Safe on a nil receiver.
func (r *RunStatsReporter) Close() {
	if r == nil {
		return
	}
	r.client.Close()
}
