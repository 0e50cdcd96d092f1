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
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/aleutian-oss/cxgraph/internal/graphbuild"
	"github.com/aleutian-oss/cxgraph/internal/model"
	"github.com/aleutian-oss/cxgraph/internal/store"
)

// Stats summarises one Run, surfaced to the orchestrator for logging and
// the status surface rather than returned as per-edge detail.
type Stats struct {
	NodesSubmitted int
	EdgesSubmitted map[string]int // by Cypher relationship type
}

func newStats() Stats {
	return Stats{EdgesSubmitted: make(map[string]int)}
}

// Planner is the Ingestion Planner: it owns no state about the graph
// itself, only how to turn one into Adapter submissions.
type Planner struct {
	adapter store.Adapter
	opts    Options
	limiter *rate.Limiter
	statsMu sync.Mutex
}

func NewPlanner(adapter store.Adapter, opts ...Option) *Planner {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	p := &Planner{adapter: adapter, opts: o}
	if o.RateLimit > 0 {
		p.limiter = rate.NewLimiter(o.RateLimit, o.Burst)
	}
	return p
}

func (p *Planner) wait(ctx context.Context) error {
	if p.limiter == nil {
		return nil
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", model.ErrIngestTimeout, err)
	}
	return nil
}

// Run ensures constraints, then submits every node kind followed by
// every edge kind, in the ordering §5 requires: all nodes before any
// edge that references them, CONTAINS/INCLUDES/DEFINES before CALLS
// (CALLS is produced by the call-graph pass, which already runs last
// among internal/graphbuild's passes).
func (p *Planner) Run(ctx context.Context, g *graphbuild.Graph) (Stats, error) {
	stats := newStats()

	if err := p.adapter.EnsureConstraints(ctx); err != nil {
		return stats, fmt.Errorf("ingest: ensure constraints: %w", err)
	}

	for _, kind := range allNodeKinds {
		nodes := g.NodesByKind(kind)
		if len(nodes) == 0 {
			continue
		}
		n, err := p.submitNodes(ctx, kind, nodes)
		stats.NodesSubmitted += n
		if err != nil {
			return stats, err
		}
	}

	if err := p.submitContains(ctx, g, &stats); err != nil {
		return stats, err
	}
	if err := p.submitIncludes(ctx, g, &stats); err != nil {
		return stats, err
	}
	if err := p.submitDefines(ctx, g, &stats); err != nil {
		return stats, err
	}
	if err := p.submitCalls(ctx, g, &stats); err != nil {
		return stats, err
	}

	return stats, nil
}

func (p *Planner) submitNodes(ctx context.Context, kind graphbuild.NodeKind, nodes []*graphbuild.Node) (int, error) {
	label := nodeLabel(kind)
	submitted := 0
	for _, batch := range chunkNodes(nodes, p.opts.ClientBatchSize) {
		if err := p.wait(ctx); err != nil {
			return submitted, err
		}
		nb := store.NodeBatch{
			Label:      label,
			Nodes:      toNodeWrites(batch),
			ServerSize: p.opts.CypherTxSize,
		}
		if err := p.adapter.SubmitNodes(ctx, nb); err != nil {
			return submitted, fmt.Errorf("ingest: submit %d %s nodes: %w", len(batch), label, err)
		}
		submitted += len(batch)
	}
	p.opts.Logger.Debug("ingest: submitted nodes", slog.String("label", label), slog.Int("count", submitted))
	return submitted, nil
}

// submitContains pushes every CONTAINS edge as one low-volume, untyped
// (no shared-endpoint-fan-in) merge, per §4.6's "other edges" guidance:
// these volumes never approach the deadlock-prone case, and the two
// endpoints span three different labels (Project/Folder/File), so there
// is no single FromLabel/ToLabel pair to type the MATCH with.
func (p *Planner) submitContains(ctx context.Context, g *graphbuild.Graph, stats *Stats) error {
	return p.submitUntypedMerge(ctx, g.EdgesByKind(graphbuild.EdgeKindContains), "CONTAINS", "", "", stats)
}

// submitIncludes pushes every INCLUDES edge the same low-volume way as
// CONTAINS, but both endpoints are always File nodes so the MATCH can be
// label-typed.
func (p *Planner) submitIncludes(ctx context.Context, g *graphbuild.Graph, stats *Stats) error {
	return p.submitUntypedMerge(ctx, g.EdgesByKind(graphbuild.EdgeKindIncludes), "INCLUDES", "File", "File", stats)
}

func (p *Planner) submitUntypedMerge(ctx context.Context, edges []*graphbuild.Edge, kind, fromLabel, toLabel string, stats *Stats) error {
	if len(edges) == 0 {
		return nil
	}
	for _, chunk := range chunkEdges(edges, p.opts.ClientBatchSize) {
		if err := p.wait(ctx); err != nil {
			return err
		}
		batch := store.EdgeBatch{
			Kind:       kind,
			FromLabel:  fromLabel,
			ToLabel:    toLabel,
			Strategy:   store.StrategyParallelMerge,
			Groups:     []store.EdgeGroup{{Edges: toEdgeWrites(chunk)}},
			ServerSize: p.opts.CypherTxSize,
		}
		if err := p.adapter.SubmitEdges(ctx, batch); err != nil {
			return fmt.Errorf("ingest: submit %d %s edges: %w", len(chunk), kind, err)
		}
		stats.EdgesSubmitted[kind] += len(chunk)
	}
	return nil
}

// submitDefines splits DEFINES edges by the symbol kind they target,
// since the label-typed MATCH that makes this pass fast needs a single
// concrete label per submission (Function(id=...) vs DataStructure(id=...),
// per §4.6), then submits each split using the configured strategy,
// grouped by the file endpoint.
func (p *Planner) submitDefines(ctx context.Context, g *graphbuild.Graph, stats *Stats) error {
	var toFunction, toDataStructure []*graphbuild.Edge
	for _, e := range g.EdgesByKind(graphbuild.EdgeKindDefines) {
		node, ok := g.GetNode(e.ToID)
		if !ok {
			continue
		}
		if node.Kind == graphbuild.NodeKindFunction {
			toFunction = append(toFunction, e)
		} else {
			toDataStructure = append(toDataStructure, e)
		}
	}
	if err := p.submitGrouped(ctx, toFunction, "DEFINES", "File", "Function", p.opts.DefinesStrategy, fileEndpointKey, stats); err != nil {
		return err
	}
	return p.submitGrouped(ctx, toDataStructure, "DEFINES", "File", "DataStructure", p.opts.DefinesStrategy, fileEndpointKey, stats)
}

// submitCalls groups CALLS edges by the caller's file - the FilePath
// internal/graphbuild stamped on each CALLS edge from the symbol's own
// definition file - per §4.6's "grouping key being the caller file".
func (p *Planner) submitCalls(ctx context.Context, g *graphbuild.Graph, stats *Stats) error {
	edges := g.EdgesByKind(graphbuild.EdgeKindCalls)
	return p.submitGrouped(ctx, edges, "CALLS", "Function", "Function", p.opts.CallsStrategy, callerFileKey, stats)
}

func fileEndpointKey(e *graphbuild.Edge) string { return e.FromID }
func callerFileKey(e *graphbuild.Edge) string   { return e.FilePath }

// submitGrouped implements the three-strategy knob: unwind-create issues
// one ordered, ungrouped submission per client batch; parallel-merge/parallel-create
// group by key and fan client batches of groups out across p.opts.Workers
// goroutines, mirroring "the server receives an iteration procedure that
// processes one group at a time, parallelised across groups" at the
// client-submission level (each goroutine's own session then drives its
// batch's server-side CALL {} IN TRANSACTIONS independently).
func (p *Planner) submitGrouped(ctx context.Context, edges []*graphbuild.Edge, kind, fromLabel, toLabel string, strategy store.Strategy, key func(*graphbuild.Edge) string, stats *Stats) error {
	if len(edges) == 0 {
		return nil
	}

	if strategy == store.StrategyUnwindCreate {
		for _, chunk := range chunkEdges(edges, p.opts.ClientBatchSize) {
			if err := p.wait(ctx); err != nil {
				return err
			}
			batch := store.EdgeBatch{
				Kind:      kind,
				FromLabel: fromLabel,
				ToLabel:   toLabel,
				Strategy:  strategy,
				Groups:    []store.EdgeGroup{{Edges: toEdgeWrites(chunk)}},
			}
			if err := p.adapter.SubmitEdges(ctx, batch); err != nil {
				return fmt.Errorf("ingest: unwind-create %d %s edges: %w", len(chunk), kind, err)
			}
			stats.EdgesSubmitted[kind] += len(chunk)
		}
		return nil
	}

	groups := groupEdgesByKey(edges, key)
	batches := chunkGroups(groups, p.opts.ClientBatchSize)

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(max(1, p.opts.Workers))
	for _, b := range batches {
		b := b
		eg.Go(func() error {
			if err := p.wait(gctx); err != nil {
				return err
			}
			count := 0
			for _, group := range b {
				count += len(group.Edges)
			}
			batch := store.EdgeBatch{
				Kind:       kind,
				FromLabel:  fromLabel,
				ToLabel:    toLabel,
				Strategy:   strategy,
				Groups:     b,
				ServerSize: serverBatchSize(p.opts.CypherTxSize, b),
			}
			if err := p.adapter.SubmitEdges(gctx, batch); err != nil {
				return fmt.Errorf("ingest: submit %d grouped %s edges: %w", count, kind, err)
			}
			p.addEdges(stats, kind, count)
			p.opts.Logger.Debug("ingest: submitted grouped edge batch",
				slog.String("kind", kind), slog.Int("groups", len(b)), slog.Int("edges", count))
			return nil
		})
	}
	return eg.Wait()
}

// addEdges is the only concurrent writer to Stats.EdgesSubmitted:
// submitGrouped's goroutines each call this once per client batch.
func (p *Planner) addEdges(stats *Stats, kind string, n int) {
	p.statsMu.Lock()
	defer p.statsMu.Unlock()
	stats.EdgesSubmitted[kind] += n
}

func chunkEdges(edges []*graphbuild.Edge, size int) [][]*graphbuild.Edge {
	if size <= 0 {
		size = len(edges)
		if size == 0 {
			return nil
		}
	}
	var out [][]*graphbuild.Edge
	for i := 0; i < len(edges); i += size {
		end := i + size
		if end > len(edges) {
			end = len(edges)
		}
		out = append(out, edges[i:end])
	}
	return out
}

func toEdgeWrites(edges []*graphbuild.Edge) []store.EdgeWrite {
	out := make([]store.EdgeWrite, len(edges))
	for i, e := range edges {
		out[i] = store.EdgeWrite{FromID: e.FromID, ToID: e.ToID}
	}
	return out
}
