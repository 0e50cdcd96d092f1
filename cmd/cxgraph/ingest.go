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
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aleutian-oss/cxgraph/internal/config"
	"github.com/aleutian-oss/cxgraph/internal/model"
	"github.com/aleutian-oss/cxgraph/internal/obs"
	"github.com/aleutian-oss/cxgraph/internal/orchestrator"
	"github.com/aleutian-oss/cxgraph/internal/pathnorm"
	"github.com/aleutian-oss/cxgraph/internal/spanprovider"
)

// ingest-only flags, following the package-level bound-variable
// convention internal/config uses for the shared surface.
var (
	cacheDirFlag     string
	influxURLFlag    string
	influxOrgFlag    string
	influxBucketFlag string
	watchFlag        bool
)

func newIngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest <index-path> <project-root>",
		Short: "Full ingest: reset the graph store and materialise the index",
		Long: `Parses the compiler-produced YAML index, extracts the call graph, and
bulk-loads nodes and edges into the graph store. The store is reset at
the start of the run; the password is read from ` + NeoPasswordEnv + `.

index-path may be a local file or a gs://bucket/object URL.`,
		Args: cobra.ExactArgs(2),
		RunE: runIngest,
	}
	config.RegisterFlags(cmd)
	cmd.Flags().StringVar(&cacheDirFlag, "cache-dir", "", "parser cache directory; caching disabled when unset")
	cmd.Flags().StringVar(&influxURLFlag, "influx-url", "", "optional InfluxDB URL for end-of-run stats")
	cmd.Flags().StringVar(&influxOrgFlag, "influx-org", "", "InfluxDB organisation")
	cmd.Flags().StringVar(&influxBucketFlag, "influx-bucket", "", "InfluxDB bucket")
	cmd.Flags().BoolVar(&watchFlag, "watch", false, "after the initial run, re-ingest whenever the index file changes")
	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.FromFlags(cmd, args[0], args[1])
	if err != nil {
		return err
	}

	o, cleanup, err := buildOrchestrator(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	src, srcCleanup, err := sourceFor(ctx, cfg.IndexPath)
	if err != nil {
		return err
	}
	defer srcCleanup()

	if _, err := o.Run(ctx, src); err != nil {
		return err
	}

	if watchFlag {
		if strings.HasPrefix(cfg.IndexPath, "gs://") {
			return fmt.Errorf("%w: --watch requires a local index path, not %s", model.ErrInvalidConfig, cfg.IndexPath)
		}
		return watchIndex(ctx, cfg.IndexPath, watchDebounce, slog.Default(), func(ctx context.Context) error {
			_, err := o.Run(ctx, src)
			return err
		})
	}
	return nil
}

// buildOrchestrator assembles the full pipeline from a validated config:
// observability providers, store adapter, parser (with optional cache),
// span provider over the on-disk source tree, and the optional InfluxDB
// reporter. The returned cleanup tears everything down in reverse order.
func buildOrchestrator(ctx context.Context, cfg *config.IngestConfig) (*orchestrator.Orchestrator, func(), error) {
	logger := slog.Default()

	providers, err := obs.NewProviders(ctx, exporterKind(), otlpEndpointFlag)
	if err != nil {
		return nil, nil, err
	}

	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
		if err := providers.Shutdown(context.Background()); err != nil {
			logger.Warn("observability shutdown failed", slog.String("error", err.Error()))
		}
	}
	fail := func(err error) (*orchestrator.Orchestrator, func(), error) {
		cleanup()
		return nil, nil, err
	}

	norm, err := pathnorm.New(cfg.ProjectRoot)
	if err != nil {
		return fail(err)
	}

	adapter, err := dialStore(ctx, cfg, logger)
	if err != nil {
		return fail(err)
	}
	cleanups = append(cleanups, func() { _ = adapter.Close(context.Background()) })

	parser, parserCleanup, err := newParser(cfg.Workers, cacheDirFlag, logger)
	if err != nil {
		return fail(err)
	}
	cleanups = append(cleanups, parserCleanup)

	sourceFiles, err := collectSourceFiles(cfg.ProjectRoot)
	if err != nil {
		return fail(err)
	}
	provider := spanprovider.NewTreeSitterProvider(norm, sourceFiles)

	var reporter *obs.RunStatsReporter
	if influxURLFlag != "" {
		reporter = obs.NewRunStatsReporter(influxURLFlag, os.Getenv(InfluxTokenEnv), influxOrgFlag, influxBucketFlag)
		cleanups = append(cleanups, reporter.Close)
	}

	o := orchestrator.New(adapter, parser, provider, norm,
		orchestrator.WithStrategies(cfg.DefinesStrategy, cfg.CallsStrategy),
		orchestrator.WithBatchSizes(cfg.CypherTxSize, cfg.IngestBatchSize),
		orchestrator.WithWorkers(cfg.Workers),
		orchestrator.WithKeepOrphans(cfg.KeepOrphans),
		orchestrator.WithLogger(logger),
		orchestrator.WithReporter(reporter),
	)
	return o, cleanup, nil
}
