// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ingest

import (
	"github.com/aleutian-oss/cxgraph/internal/graphbuild"
	"github.com/aleutian-oss/cxgraph/internal/store"
)

// chunkNodes splits nodes into client batches of at most size each.
func chunkNodes(nodes []*graphbuild.Node, size int) [][]*graphbuild.Node {
	if size <= 0 {
		size = len(nodes)
		if size == 0 {
			return nil
		}
	}
	var out [][]*graphbuild.Node
	for i := 0; i < len(nodes); i += size {
		end := i + size
		if end > len(nodes) {
			end = len(nodes)
		}
		out = append(out, nodes[i:end])
	}
	return out
}

func toNodeWrites(nodes []*graphbuild.Node) []store.NodeWrite {
	out := make([]store.NodeWrite, len(nodes))
	for i, n := range nodes {
		out[i] = store.NodeWrite{ID: n.ID, Properties: n.Properties}
	}
	return out
}

// groupEdgesByKey groups edges by a caller-supplied key function, the
// shared-endpoint grouping §4.6 requires for parallel-merge/
// parallel-create: every edge with a given key lands in exactly one
// group, so no two groups write-lock the same keyed endpoint. The other
// endpoint is not part of the key and may appear in several groups.
// Grouping is stable (first-seen order) so output is deterministic for a
// fixed edge order.
func groupEdgesByKey(edges []*graphbuild.Edge, key func(*graphbuild.Edge) string) []store.EdgeGroup {
	if len(edges) == 0 {
		return nil
	}
	byKey := make(map[string][]store.EdgeWrite)
	var order []string
	for _, e := range edges {
		k := key(e)
		if _, seen := byKey[k]; !seen {
			order = append(order, k)
		}
		byKey[k] = append(byKey[k], store.EdgeWrite{FromID: e.FromID, ToID: e.ToID})
	}
	out := make([]store.EdgeGroup, len(order))
	for i, k := range order {
		out[i] = store.EdgeGroup{GroupKey: k, Edges: byKey[k]}
	}
	return out
}

// chunkGroups splits groups into client batches, filling each batch with
// whole groups (never splitting a group across two batches, since a
// split group would reintroduce the deadlock risk grouping exists to
// avoid) up to approximately size total edges per batch.
func chunkGroups(groups []store.EdgeGroup, size int) [][]store.EdgeGroup {
	if len(groups) == 0 {
		return nil
	}
	if size <= 0 {
		return [][]store.EdgeGroup{groups}
	}
	var out [][]store.EdgeGroup
	var current []store.EdgeGroup
	currentEdges := 0
	for _, g := range groups {
		if currentEdges > 0 && currentEdges+len(g.Edges) > size {
			out = append(out, current)
			current = nil
			currentEdges = 0
		}
		current = append(current, g)
		currentEdges += len(g.Edges)
	}
	if len(current) > 0 {
		out = append(out, current)
	}
	return out
}

// serverBatchSize computes B_s = max(1, cypher-tx-size / avg(edges-per-group))
// for one client batch of groups, per §4.6.
func serverBatchSize(cypherTxSize int, groups []store.EdgeGroup) int {
	if len(groups) == 0 {
		return cypherTxSize
	}
	total := 0
	for _, g := range groups {
		total += len(g.Edges)
	}
	avg := float64(total) / float64(len(groups))
	if avg <= 0 {
		return cypherTxSize
	}
	size := int(float64(cypherTxSize) / avg)
	if size < 1 {
		size = 1
	}
	return size
}
