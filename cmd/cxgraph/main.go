// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// cxgraph ingests a compiler-produced C/C++ source index into a graph
// database as a queryable code knowledge graph.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aleutian-oss/cxgraph/internal/obs"
)

// NeoPasswordEnv is where the graph store password is read from; it is
// never a flag so it never lands in shell history or process listings.
const NeoPasswordEnv = "CXGRAPH_NEO4J_PASSWORD"

// InfluxTokenEnv is the optional run-stats reporter's token source.
const InfluxTokenEnv = "CXGRAPH_INFLUX_TOKEN"

// Persistent flag values shared by every subcommand.
var (
	logLevelFlag     string
	otlpEndpointFlag string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cxgraph",
		Short: "Materialise a C/C++ source index into a code knowledge graph",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			slog.SetDefault(obs.NewLogger(os.Stdout, parseLogLevel(logLevelFlag)))
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "info", "log level: debug|info|warn|error")
	rootCmd.PersistentFlags().StringVar(&otlpEndpointFlag, "otlp-endpoint", "", "OTLP gRPC collector endpoint; stdout exporters when unset")

	rootCmd.AddCommand(newIngestCmd())
	rootCmd.AddCommand(newUpdateCmd())
	rootCmd.AddCommand(newServeStatusCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "cxgraph: %v\n", err)
		os.Exit(1)
	}
}

func parseLogLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func exporterKind() obs.Exporter {
	if otlpEndpointFlag != "" {
		return obs.ExporterOTLP
	}
	return obs.ExporterStdout
}
