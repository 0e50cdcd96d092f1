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
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aleutian-oss/cxgraph/internal/config"
	"github.com/aleutian-oss/cxgraph/internal/model"
)

func newUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <index-path> <project-root> <diff-path>",
		Short: "Incremental update driven by a unified diff",
		Long: `Re-ingests a refreshed index against the populated graph store. The
unified diff at diff-path (as produced by git diff) scopes the update:
derived nodes for deleted or renamed-away files are removed, and the
replay uses MERGE semantics so surviving edges never duplicate.`,
		Args: cobra.ExactArgs(3),
		RunE: runUpdate,
	}
	config.RegisterFlags(cmd)
	cmd.Flags().StringVar(&cacheDirFlag, "cache-dir", "", "parser cache directory; caching disabled when unset")
	return cmd
}

func runUpdate(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.FromFlags(cmd, args[0], args[1])
	if err != nil {
		return err
	}

	patch, err := os.ReadFile(args[2])
	if err != nil {
		return fmt.Errorf("%w: read diff %s: %v", model.ErrIO, args[2], err)
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

	_, err = o.RunIncremental(ctx, src, patch)
	return err
}
