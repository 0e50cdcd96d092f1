// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config resolves and validates the orchestrator CLI surface
// into an IngestConfig, and keeps the graph store password out of the
// regular heap between flag parsing and adapter construction.
package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"

	"github.com/aleutian-oss/cxgraph/internal/model"
	"github.com/aleutian-oss/cxgraph/internal/store"
)

// Defaults for flags a caller doesn't set explicitly.
const (
	DefaultWorkers         = 4
	DefaultCypherTxSize    = 2000
	DefaultIngestBatchSize = DefaultCypherTxSize * DefaultWorkers
	DefaultNeo4jDatabase   = "neo4j"
	DefaultNeo4jUsername   = "neo4j"
)

// IngestConfig is the fully resolved, validated configuration for one
// ingest or update run. It never holds the graph store password -
// Credentials carries that in locked memory, kept out of this struct so
// IngestConfig itself stays safe to log or copy.
type IngestConfig struct {
	IndexPath   string `validate:"required"`
	ProjectRoot string `validate:"required"`

	Workers         int           `validate:"min=1"`
	DefinesStrategy store.Strategy `validate:"oneof=unwind-create parallel-merge parallel-create"`
	CallsStrategy   store.Strategy `validate:"oneof=unwind-create parallel-merge parallel-create"`
	CypherTxSize    int           `validate:"min=1"`
	IngestBatchSize int           `validate:"min=1"`
	KeepOrphans     bool

	Neo4jURI      string `validate:"required"`
	Neo4jUsername string `validate:"required"`
	Neo4jDatabase string `validate:"required"`
}

var validate = validator.New()

// Validate runs struct-tag validation and wraps the result in
// ErrInvalidConfig so callers can errors.Is against one sentinel
// regardless of which field failed.
func (c *IngestConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", model.ErrInvalidConfig, err)
	}
	return nil
}

// flag-bound package state, following the teacher's cmd/aleutian
// package-level-flag-variable convention (pipelineType, dataSpaceFlag).
var (
	flagWorkers         int
	flagDefinesStrategy string
	flagCallsStrategy   string
	flagCypherTxSize    int
	flagIngestBatchSize int
	flagKeepOrphans     bool
	flagNeo4jURI        string
	flagNeo4jUsername   string
	flagNeo4jDatabase   string
)

// RegisterFlags attaches the orchestrator's CLI surface to cmd. The two
// positional arguments (index-path, project-root) are left to the
// caller's cobra.Command.Args / cmd.Flags().Arg, since cobra positionals
// aren't flags.
func RegisterFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&flagWorkers, "workers", DefaultWorkers, "parser worker count")
	cmd.Flags().StringVar(&flagDefinesStrategy, "defines-strategy", string(store.StrategyParallelCreate),
		"DEFINES edge submission strategy: unwind-create|parallel-merge|parallel-create")
	cmd.Flags().StringVar(&flagCallsStrategy, "calls-strategy", string(store.StrategyParallelCreate),
		"CALLS edge submission strategy: unwind-create|parallel-merge|parallel-create")
	cmd.Flags().IntVar(&flagCypherTxSize, "cypher-tx-size", DefaultCypherTxSize, "server-side batch target")
	cmd.Flags().IntVar(&flagIngestBatchSize, "ingest-batch-size", DefaultIngestBatchSize, "client-side batch target")
	cmd.Flags().BoolVar(&flagKeepOrphans, "keep-orphans", false, "skip orphan cleanup (pass P5)")
	cmd.Flags().StringVar(&flagNeo4jURI, "neo4j-uri", "", "graph store bolt URI, e.g. bolt://localhost:7687")
	cmd.Flags().StringVar(&flagNeo4jUsername, "neo4j-username", DefaultNeo4jUsername, "graph store username")
	cmd.Flags().StringVar(&flagNeo4jDatabase, "neo4j-database", DefaultNeo4jDatabase, "graph store database name")
}

// FromFlags builds and validates an IngestConfig from the flags
// RegisterFlags attached to cmd, plus the two positional arguments. The
// password is deliberately not a parameter here - see Credentials.
func FromFlags(cmd *cobra.Command, indexPath, projectRoot string) (*IngestConfig, error) {
	cfg := &IngestConfig{
		IndexPath:       indexPath,
		ProjectRoot:     projectRoot,
		Workers:         flagWorkers,
		DefinesStrategy: store.Strategy(flagDefinesStrategy),
		CallsStrategy:   store.Strategy(flagCallsStrategy),
		CypherTxSize:    flagCypherTxSize,
		IngestBatchSize: flagIngestBatchSize,
		KeepOrphans:     flagKeepOrphans,
		Neo4jURI:        flagNeo4jURI,
		Neo4jUsername:   flagNeo4jUsername,
		Neo4jDatabase:   flagNeo4jDatabase,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
