// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package ingest is the Ingestion Planner: it turns a frozen
// internal/graphbuild.Graph into internal/store.Adapter submissions,
// choosing among the three defines/calls strategies, grouping
// high-volume edges by shared endpoint to avoid write-lock deadlocks,
// and applying two-level (client/server) batch sizing.
package ingest

import (
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/aleutian-oss/cxgraph/internal/store"
)

// DefaultCypherTxSize is the server-side transaction target (B_s input);
// the planner's default run assumes the orchestrator always starts from
// an empty graph, so CREATE semantics (fastest, non-idempotent) are the
// default for both high-volume edge kinds.
const DefaultCypherTxSize = 2000

// DefaultParseWorkers seeds the client batch size default (cypher-tx-size
// x parse-workers) and the default grouped-submission concurrency. It is
// a fixed value; internal/indexparser's own default worker count is
// GOMAXPROCS.
const DefaultParseWorkers = 4

// Options configures a Planner.
type Options struct {
	DefinesStrategy store.Strategy
	CallsStrategy   store.Strategy

	// CypherTxSize is B_s: rows (or groups, for grouped strategies)
	// committed per server-side transaction.
	CypherTxSize int

	// ClientBatchSize is B_c: edges/nodes per submission, the unit the
	// planner uses for progress reporting and for goroutine fan-out.
	ClientBatchSize int

	// Workers bounds how many client batches of grouped edges submit
	// concurrently. Only meaningful for parallel-merge/parallel-create.
	Workers int

	// RateLimit caps submissions/sec to the store; zero disables limiting.
	RateLimit rate.Limit
	Burst     int

	Logger *slog.Logger
}

func DefaultOptions() Options {
	return Options{
		DefinesStrategy: store.StrategyParallelCreate,
		CallsStrategy:   store.StrategyParallelCreate,
		CypherTxSize:    DefaultCypherTxSize,
		ClientBatchSize: DefaultCypherTxSize * DefaultParseWorkers,
		Workers:         DefaultParseWorkers,
		Logger:          slog.Default(),
	}
}

// Option is a functional option for NewPlanner.
type Option func(*Options)

func WithDefinesStrategy(s store.Strategy) Option {
	return func(o *Options) { o.DefinesStrategy = s }
}

func WithCallsStrategy(s store.Strategy) Option {
	return func(o *Options) { o.CallsStrategy = s }
}

func WithCypherTxSize(n int) Option {
	return func(o *Options) { o.CypherTxSize = n }
}

func WithClientBatchSize(n int) Option {
	return func(o *Options) { o.ClientBatchSize = n }
}

func WithWorkers(n int) Option {
	return func(o *Options) { o.Workers = n }
}

func WithRateLimit(r rate.Limit, burst int) Option {
	return func(o *Options) { o.RateLimit = r; o.Burst = burst }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *Options) { o.Logger = l }
}
