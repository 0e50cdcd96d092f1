// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package obs is the ambient observability wiring shared by every
// command: structured logging, OpenTelemetry tracer/meter providers,
// Prometheus counters, and an optional end-of-run InfluxDB stats point.
package obs

import (
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
)

// NewLogger builds the process-wide structured logger: JSON records when
// out is not a terminal (container/CI logs, machine-parsed), human text
// otherwise. level follows the CLI's --log-level flag.
func NewLogger(out *os.File, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if isatty.IsTerminal(out.Fd()) || isatty.IsCygwinTerminal(out.Fd()) {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}
	return slog.New(handler)
}
