// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package store defines the Graph Store Adapter boundary - the only
// point in the pipeline that talks to the external graph database - and
// a Neo4j implementation of it. Nothing upstream of internal/ingest
// depends on the concrete adapter, only on this interface.
package store

import "context"

// Strategy selects how the Ingestion Planner's three defines/calls
// strategies translate into a SubmitEdges call. The values are the CLI
// spelling so config flag parsing and this package agree on one name
// per strategy.
type Strategy string

const (
	// StrategyUnwindCreate matches both endpoints and creates with
	// duplication semantics, single-threaded on the server. Idempotent
	// only against an empty graph.
	StrategyUnwindCreate Strategy = "unwind-create"

	// StrategyParallelMerge groups by shared endpoint client-side and
	// lets the server iterate groups in parallel using MERGE. Idempotent.
	StrategyParallelMerge Strategy = "parallel-merge"

	// StrategyParallelCreate is StrategyParallelMerge's CREATE sibling:
	// same grouping, no MERGE locking protocol, not idempotent, fastest.
	StrategyParallelCreate Strategy = "parallel-create"
)

// NodeWrite is one node to create/merge, keyed by ID.
type NodeWrite struct {
	ID         string
	Properties map[string]any
}

// EdgeWrite is one directed edge to create/merge between two node IDs
// already known to the adapter (both endpoints are matched by ID, never
// created implicitly).
type EdgeWrite struct {
	FromID     string
	ToID       string
	Properties map[string]any
}

// EdgeGroup is a client-side grouping of edges sharing an endpoint (the
// file node for DEFINES, the caller's file for CALLS), used by
// StrategyParallelMerge/StrategyParallelCreate so that no two groups
// write-lock that shared endpoint. The other endpoint (a CALLS callee)
// can appear in several groups.
type EdgeGroup struct {
	GroupKey string
	Edges    []EdgeWrite
}

// NodeBatch is one client submission of same-label nodes. Node volumes
// (file/folder/project/symbol nodes) are never the deadlock-prone case
// §4.6 is about, so nodes always MERGE; only ServerSize (rows per
// server-side transaction) is configurable.
type NodeBatch struct {
	Label      string
	Nodes      []NodeWrite
	ServerSize int // B_s: rows committed per server-side transaction
}

// EdgeBatch is one client submission of same-kind edges between two
// (possibly different) node labels.
type EdgeBatch struct {
	Kind        string // DEFINES, INCLUDES, CALLS, CONTAINS
	FromLabel   string
	ToLabel     string
	Strategy    Strategy
	Groups      []EdgeGroup // len == 1, GroupKey == "" for StrategyUnwindCreate
	ServerSize  int         // B_s, ignored by StrategyUnwindCreate
}

// VectorIndexSpec describes a vector index to create. This exists solely
// so Adapter satisfies the external interface named by spec.md §6; the
// RAG/embedding stage that would populate such an index is out of scope.
type VectorIndexSpec struct {
	Name       string
	Label      string
	Property   string
	Dimensions int
}

// Adapter is the Graph Store boundary. Every method is a blocking
// database round-trip; callers apply their own timeout via ctx.
type Adapter interface {
	// Reset clears the database. The orchestrator calls this once at the
	// start of a full (non-incremental) run.
	Reset(ctx context.Context) error

	// EnsureConstraints creates the uniqueness constraints the planner's
	// label-typed MATCH clauses depend on for index-backed lookups.
	EnsureConstraints(ctx context.Context) error

	// SubmitNodes writes one NodeBatch.
	SubmitNodes(ctx context.Context, batch NodeBatch) error

	// SubmitEdges writes one EdgeBatch.
	SubmitEdges(ctx context.Context, batch EdgeBatch) error

	// Query runs an arbitrary read query, for the status surface and for
	// tests asserting on ingested state.
	Query(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error)

	// CreateVectorIndex is a pass-through stub: the RAG/embedding stage
	// that would use it is out of scope (§7 Non-goals), but the
	// interface still names it so a future adapter implementation has
	// somewhere to put it without an interface break.
	CreateVectorIndex(ctx context.Context, spec VectorIndexSpec) error

	// Close releases the underlying driver/connection pool.
	Close(ctx context.Context) error
}
