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
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aleutian-oss/cxgraph/internal/graphbuild"
	"github.com/aleutian-oss/cxgraph/internal/model"
	"github.com/aleutian-oss/cxgraph/internal/pathnorm"
	"github.com/aleutian-oss/cxgraph/internal/store"
)

// fakeAdapter is an in-memory store.Adapter: the corpus carries no
// Neo4j test double, so this fake plays the same role GCSSource's fake
// Source plays in internal/indexparser's tests.
type fakeAdapter struct {
	mu                sync.Mutex
	constraintsCalled bool
	nodeBatches       []store.NodeBatch
	edgeBatches       []store.EdgeBatch
}

func (f *fakeAdapter) Reset(ctx context.Context) error { return nil }

func (f *fakeAdapter) EnsureConstraints(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.constraintsCalled = true
	return nil
}

func (f *fakeAdapter) SubmitNodes(ctx context.Context, batch store.NodeBatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nodeBatches = append(f.nodeBatches, batch)
	return nil
}

func (f *fakeAdapter) SubmitEdges(ctx context.Context, batch store.EdgeBatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edgeBatches = append(f.edgeBatches, batch)
	return nil
}

func (f *fakeAdapter) Query(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error) {
	return nil, nil
}

func (f *fakeAdapter) CreateVectorIndex(ctx context.Context, spec store.VectorIndexSpec) error {
	return nil
}

func (f *fakeAdapter) Close(ctx context.Context) error { return nil }

func (f *fakeAdapter) edgeCountByKind(kind string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, b := range f.edgeBatches {
		if b.Kind != kind {
			continue
		}
		for _, g := range b.Groups {
			n += len(g.Edges)
		}
	}
	return n
}

func buildSampleGraphForIngest(t *testing.T) *graphbuild.Graph {
	t.Helper()
	root := "/proj"
	norm, err := pathnorm.New(root)
	require.NoError(t, err)

	m := model.NewSymbolMap()
	fnA := &model.Symbol{
		ID:         mustIngestID(t, "000000000000000a"),
		Name:       "helper",
		Kind:       model.SymbolKindFunction,
		Definition: &model.Location{FileURI: pathnorm.AbsoluteToURI(root + "/src/a.c"), Line: 3, Column: 1},
	}
	fnB := &model.Symbol{
		ID:         mustIngestID(t, "000000000000000b"),
		Name:       "callee",
		Kind:       model.SymbolKindFunction,
		Definition: &model.Location{FileURI: pathnorm.AbsoluteToURI(root + "/src/b.c"), Line: 5, Column: 1},
	}
	require.NoError(t, m.Insert(fnA))
	require.NoError(t, m.Insert(fnB))
	m.Freeze()

	calls := func(yield func(model.CallRelation) bool) {
		yield(model.CallRelation{CallerID: fnA.ID, CalleeID: fnB.ID})
	}

	b := graphbuild.NewBuilder()
	g, _, err := b.Build(context.Background(), norm, m, nil, calls)
	require.NoError(t, err)
	return g
}

func mustIngestID(t *testing.T, s string) model.SymbolID {
	t.Helper()
	id, err := model.ParseSymbolID(s)
	require.NoError(t, err)
	return id
}

func TestPlannerRunEnsuresConstraintsAndSubmitsAllKinds(t *testing.T) {
	g := buildSampleGraphForIngest(t)
	adapter := &fakeAdapter{}
	p := NewPlanner(adapter)

	stats, err := p.Run(context.Background(), g)
	require.NoError(t, err)

	assert.True(t, adapter.constraintsCalled)
	assert.Equal(t, g.NodeCount(), stats.NodesSubmitted)
	assert.Equal(t, 1, adapter.edgeCountByKind("CALLS"))
	assert.Equal(t, 2, adapter.edgeCountByKind("DEFINES"))
}

func TestPlannerUnwindCreateSubmitsOneUngroupedBatch(t *testing.T) {
	g := buildSampleGraphForIngest(t)
	adapter := &fakeAdapter{}
	p := NewPlanner(adapter, WithDefinesStrategy(store.StrategyUnwindCreate), WithCallsStrategy(store.StrategyUnwindCreate))

	_, err := p.Run(context.Background(), g)
	require.NoError(t, err)

	for _, b := range adapter.edgeBatches {
		if b.Kind == "CALLS" {
			assert.Equal(t, store.StrategyUnwindCreate, b.Strategy)
			require.Len(t, b.Groups, 1)
			assert.Empty(t, b.Groups[0].GroupKey)
		}
	}
}

func TestPlannerGroupedStrategyGroupsByCallerFile(t *testing.T) {
	g := buildSampleGraphForIngest(t)
	adapter := &fakeAdapter{}
	p := NewPlanner(adapter, WithCallsStrategy(store.StrategyParallelMerge))

	_, err := p.Run(context.Background(), g)
	require.NoError(t, err)

	var sawCalls bool
	for _, b := range adapter.edgeBatches {
		if b.Kind != "CALLS" {
			continue
		}
		sawCalls = true
		require.Len(t, b.Groups, 1)
		assert.Equal(t, "src/a.c", b.Groups[0].GroupKey)
	}
	assert.True(t, sawCalls)
}

func TestServerBatchSizeComputesAverageEdgesPerGroup(t *testing.T) {
	groups := []store.EdgeGroup{
		{GroupKey: "a", Edges: make([]store.EdgeWrite, 10)},
		{GroupKey: "b", Edges: make([]store.EdgeWrite, 30)},
	}
	// avg = 20 edges/group, cypher-tx-size 2000 -> B_s = 100.
	assert.Equal(t, 100, serverBatchSize(2000, groups))
	assert.Equal(t, 2000, serverBatchSize(2000, nil))
}

func TestChunkGroupsNeverSplitsAGroup(t *testing.T) {
	groups := []store.EdgeGroup{
		{GroupKey: "a", Edges: make([]store.EdgeWrite, 2)},
		{GroupKey: "b", Edges: make([]store.EdgeWrite, 2)},
		{GroupKey: "c", Edges: make([]store.EdgeWrite, 2)},
	}
	batches := chunkGroups(groups, 5)
	require.Len(t, batches, 2)
	assert.Len(t, batches[0], 2)
	assert.Len(t, batches[1], 1)
}
