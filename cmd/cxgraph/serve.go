// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/aleutian-oss/cxgraph/internal/config"
	"github.com/aleutian-oss/cxgraph/internal/obs"
	"github.com/aleutian-oss/cxgraph/internal/statussrv"
	"github.com/aleutian-oss/cxgraph/internal/store"
)

var (
	serveAddrFlag          string
	serveNeo4jURIFlag      string
	serveNeo4jUsernameFlag string
	serveNeo4jDatabaseFlag string
)

func newServeStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve-status",
		Short: "Serve health, metrics, and graph-summary endpoints",
		Long: `Runs the status HTTP surface for long-running ingests: /healthz,
/readyz, /metrics (Prometheus), and /v1/graph/summary. When a graph
store URI is configured, readiness and the summary are backed by live
queries; the password is read from ` + NeoPasswordEnv + `.`,
		Args: cobra.NoArgs,
		RunE: runServeStatus,
	}
	cmd.Flags().StringVar(&serveAddrFlag, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&serveNeo4jURIFlag, "neo4j-uri", "", "graph store bolt URI; store-backed endpoints disabled when unset")
	cmd.Flags().StringVar(&serveNeo4jUsernameFlag, "neo4j-username", config.DefaultNeo4jUsername, "graph store username")
	cmd.Flags().StringVar(&serveNeo4jDatabaseFlag, "neo4j-database", config.DefaultNeo4jDatabase, "graph store database name")
	return cmd
}

func runServeStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := slog.Default()

	providers, err := obs.NewProviders(ctx, exporterKind(), otlpEndpointFlag)
	if err != nil {
		return err
	}
	defer func() {
		if err := providers.Shutdown(context.Background()); err != nil {
			logger.Warn("observability shutdown failed", slog.String("error", err.Error()))
		}
	}()

	var adapter store.Adapter
	if serveNeo4jURIFlag != "" {
		creds, err := config.CredentialsFromEnv(NeoPasswordEnv)
		if err != nil {
			return err
		}
		lb, err := creds.Open()
		if err != nil {
			return err
		}
		neo, err := store.NewNeo4jAdapter(ctx, serveNeo4jURIFlag, serveNeo4jUsernameFlag, string(lb.Bytes()), serveNeo4jDatabaseFlag, logger)
		lb.Destroy()
		if err != nil {
			return err
		}
		defer func() { _ = neo.Close(context.Background()) }()
		adapter = neo
	}

	return statussrv.New(adapter, logger).Run(serveAddrFlag)
}
