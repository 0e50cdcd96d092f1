// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/aleutian-oss/cxgraph/internal/model"
)

// nodeLabels are the only labels EnsureConstraints needs a uniqueness
// constraint on - every ID-keyed MATCH/MERGE in this file targets one of
// these.
var nodeLabels = []string{"Project", "Folder", "File", "Function", "DataStructure"}

// Neo4jAdapter implements Adapter over neo4j-go-driver/v5.
//
// Thread Safety:
//
//	Safe for concurrent use: the underlying neo4j.DriverWithContext pools
//	sessions internally, and every method here opens its own session.
type Neo4jAdapter struct {
	driver   neo4j.DriverWithContext
	database string
	logger   *slog.Logger
}

// NewNeo4jAdapter dials the database and verifies connectivity. password
// is read from a memguard.LockedBuffer at the call site (internal/config
// owns the enclave); the string itself goes into the driver's basic-auth
// token, which the driver keeps for the adapter's lifetime.
func NewNeo4jAdapter(ctx context.Context, uri, username, password, database string, logger *slog.Logger) (*Neo4jAdapter, error) {
	if logger == nil {
		logger = slog.Default()
	}
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("%w: dial neo4j at %s: %v", model.ErrIO, uri, err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("%w: verify neo4j connectivity: %v", model.ErrIO, err)
	}
	return &Neo4jAdapter{driver: driver, database: database, logger: logger}, nil
}

func (a *Neo4jAdapter) session(ctx context.Context) neo4j.SessionWithContext {
	return a.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: a.database})
}

// Reset deletes every node (and its edges) in batches, so a graph with
// tens of millions of nodes does not blow a single transaction's memory.
func (a *Neo4jAdapter) Reset(ctx context.Context) error {
	session := a.session(ctx)
	defer session.Close(ctx)

	const cypher = `
MATCH (n)
CALL { WITH n DETACH DELETE n } IN TRANSACTIONS OF 10000 ROWS`
	_, err := session.Run(ctx, cypher, nil)
	if err != nil {
		return fmt.Errorf("%w: reset: %v", model.ErrIO, err)
	}
	return nil
}

// EnsureConstraints creates a uniqueness constraint on id for every node
// label, which is what makes the planner's label-typed MATCH clauses
// index-backed instead of full label scans.
func (a *Neo4jAdapter) EnsureConstraints(ctx context.Context) error {
	session := a.session(ctx)
	defer session.Close(ctx)

	for _, label := range nodeLabels {
		cypher := fmt.Sprintf(
			"CREATE CONSTRAINT IF NOT EXISTS FOR (n:%s) REQUIRE n.id IS UNIQUE", label)
		if _, err := session.Run(ctx, cypher, nil); err != nil {
			return fmt.Errorf("%w: ensure constraint on %s: %v", model.ErrIO, label, err)
		}
	}
	return nil
}

// SubmitNodes MERGEs a batch of same-label nodes, one row per node,
// committed ServerSize rows at a time.
func (a *Neo4jAdapter) SubmitNodes(ctx context.Context, batch NodeBatch) error {
	if len(batch.Nodes) == 0 {
		return nil
	}
	session := a.session(ctx)
	defer session.Close(ctx)

	rows := make([]map[string]any, len(batch.Nodes))
	for i, n := range batch.Nodes {
		rows[i] = map[string]any{"id": n.ID, "properties": n.Properties}
	}

	cypher := fmt.Sprintf(`
UNWIND $rows AS row
CALL {
  WITH row
  MERGE (n:%s {id: row.id})
  SET n += row.properties
} IN TRANSACTIONS OF $size ROWS`, batch.Label)

	_, err := session.Run(ctx, cypher, map[string]any{"rows": rows, "size": serverSizeOrDefault(batch.ServerSize)})
	if err != nil {
		return fmt.Errorf("%w: submit %d %s nodes: %v", model.ErrIO, len(batch.Nodes), batch.Label, err)
	}
	return nil
}

// SubmitEdges dispatches by Strategy. unwind-create runs everything as
// one client-ordered CREATE pass; parallel-merge/parallel-create each
// submit one server round-trip per client-side group, since grouping is
// exactly what makes concurrent groups safe from write-lock conflicts on
// a shared endpoint (§4.6's deadlock-avoidance design).
func (a *Neo4jAdapter) SubmitEdges(ctx context.Context, batch EdgeBatch) error {
	switch batch.Strategy {
	case StrategyUnwindCreate:
		return a.submitEdgesUnwindCreate(ctx, batch)
	case StrategyParallelMerge:
		return a.submitEdgesGrouped(ctx, batch, true)
	case StrategyParallelCreate:
		return a.submitEdgesGrouped(ctx, batch, false)
	default:
		return fmt.Errorf("%w: unknown edge strategy %q", model.ErrIO, string(batch.Strategy))
	}
}

// matchVar renders a MATCH pattern variable, label-typed when label is
// non-empty. CONTAINS edges span three node labels (Project/Folder/File)
// on either side, so the planner submits them with empty labels and
// accepts an untyped (full label-scan) match - acceptable given §4.6
// calls CONTAINS/INCLUDES volumes low.
func matchVar(varName, label string) string {
	if label == "" {
		return varName
	}
	return varName + ":" + label
}

func (a *Neo4jAdapter) submitEdgesUnwindCreate(ctx context.Context, batch EdgeBatch) error {
	var rows []map[string]any
	for _, g := range batch.Groups {
		for _, e := range g.Edges {
			rows = append(rows, map[string]any{"from": e.FromID, "to": e.ToID, "properties": e.Properties})
		}
	}
	if len(rows) == 0 {
		return nil
	}
	session := a.session(ctx)
	defer session.Close(ctx)

	cypher := fmt.Sprintf(`
UNWIND $rows AS row
MATCH (%s {id: row.from})
MATCH (%s {id: row.to})
CREATE (a)-[r:%s]->(b)
SET r += row.properties`, matchVar("a", batch.FromLabel), matchVar("b", batch.ToLabel), batch.Kind)

	_, err := session.Run(ctx, cypher, map[string]any{"rows": rows})
	if err != nil {
		return fmt.Errorf("%w: unwind-create %d %s edges: %v", model.ErrIO, len(rows), batch.Kind, err)
	}
	return nil
}

// submitEdgesGrouped issues one submission per client-side group. Each
// group's server-side statement still iterates its own edges in
// transactions of ServerSize rows. Group G holds every edge whose
// grouping endpoint is G's key, so concurrent submissions from the
// Ingestion Planner never write-lock the same grouping endpoint; the
// other endpoint (a CALLS callee) can appear in several groups.
func (a *Neo4jAdapter) submitEdgesGrouped(ctx context.Context, batch EdgeBatch, merge bool) error {
	verb := "CREATE"
	if merge {
		verb = "MERGE"
	}

	session := a.session(ctx)
	defer session.Close(ctx)

	cypher := fmt.Sprintf(`
UNWIND $rows AS row
CALL {
  WITH row
  MATCH (%s {id: row.from})
  MATCH (%s {id: row.to})
  %s (a)-[r:%s]->(b)
  SET r += row.properties
} IN TRANSACTIONS OF $size ROWS`, matchVar("a", batch.FromLabel), matchVar("b", batch.ToLabel), verb, batch.Kind)

	for _, g := range batch.Groups {
		if len(g.Edges) == 0 {
			continue
		}
		rows := make([]map[string]any, len(g.Edges))
		for i, e := range g.Edges {
			rows[i] = map[string]any{"from": e.FromID, "to": e.ToID, "properties": e.Properties}
		}
		_, err := session.Run(ctx, cypher, map[string]any{"rows": rows, "size": serverSizeOrDefault(batch.ServerSize)})
		if err != nil {
			return fmt.Errorf("%w: group %q (%d %s edges): %v", model.ErrIO, g.GroupKey, len(g.Edges), batch.Kind, err)
		}
	}
	return nil
}

// Query runs an arbitrary read query and flattens the result into plain
// maps, for internal/statussrv and for tests that assert on ingested
// state without reaching for a Cypher client of their own.
func (a *Neo4jAdapter) Query(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error) {
	session := a.session(ctx)
	defer session.Close(ctx)

	result, err := session.Run(ctx, cypher, params)
	if err != nil {
		return nil, fmt.Errorf("%w: query: %v", model.ErrIO, err)
	}

	var out []map[string]any
	for result.Next(ctx) {
		record := result.Record()
		row := make(map[string]any, len(record.Keys))
		for _, key := range record.Keys {
			row[key], _ = record.Get(key)
		}
		out = append(out, row)
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("%w: query result: %v", model.ErrIO, err)
	}
	return out, nil
}

// CreateVectorIndex is a pass-through stub (see Adapter's doc comment):
// the RAG/embedding stage that would populate such an index is out of
// scope.
func (a *Neo4jAdapter) CreateVectorIndex(ctx context.Context, spec VectorIndexSpec) error {
	a.logger.Debug("store: CreateVectorIndex is a no-op stub", slog.String("name", spec.Name))
	return nil
}

// Close releases the driver's connection pool.
func (a *Neo4jAdapter) Close(ctx context.Context) error {
	return a.driver.Close(ctx)
}

func serverSizeOrDefault(n int) int {
	if n <= 0 {
		return 2000
	}
	return n
}
