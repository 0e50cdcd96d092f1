// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package orchestrator

import (
	"bytes"
	"context"
	"iter"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aleutian-oss/cxgraph/internal/indexparser"
	"github.com/aleutian-oss/cxgraph/internal/indexsource"
	"github.com/aleutian-oss/cxgraph/internal/model"
	"github.com/aleutian-oss/cxgraph/internal/pathnorm"
	"github.com/aleutian-oss/cxgraph/internal/spanprovider"
	"github.com/aleutian-oss/cxgraph/internal/store"
)

// fakeAdapter records every call, the same in-memory stand-in
// internal/ingest's tests use for the corpus-absent Neo4j double.
type fakeAdapter struct {
	mu          sync.Mutex
	resets      int
	nodeBatches []store.NodeBatch
	edgeBatches []store.EdgeBatch
	queries     []string
}

func (f *fakeAdapter) Reset(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets++
	return nil
}

func (f *fakeAdapter) EnsureConstraints(ctx context.Context) error { return nil }

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
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, cypher)
	if strings.Contains(cypher, "RETURN count(n) AS removed") {
		return []map[string]any{{"removed": int64(0)}}, nil
	}
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

func (f *fakeAdapter) edgeStrategies(kind string) []store.Strategy {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []store.Strategy
	for _, b := range f.edgeBatches {
		if b.Kind == kind {
			out = append(out, b.Strategy)
		}
	}
	return out
}

// fakeSource serves an in-memory index stream.
type fakeSource struct {
	data []byte
}

type fakeReader struct {
	*bytes.Reader
	size int64
}

func (r *fakeReader) Close() error { return nil }
func (r *fakeReader) Size() int64  { return r.size }

func (s *fakeSource) Open(ctx context.Context) (indexsource.ReadCloserWithSize, time.Time, error) {
	return &fakeReader{Reader: bytes.NewReader(s.data), size: int64(len(s.data))}, time.Now(), nil
}

func (s *fakeSource) Describe() string { return "fake://index" }

// fakeProvider yields canned spans and include edges.
type fakeProvider struct {
	spans    []spanprovider.FunctionSpan
	includes []model.IncludeEdge
}

func (p *fakeProvider) FunctionSpans(ctx context.Context) (iter.Seq[spanprovider.FunctionSpan], error) {
	return func(yield func(spanprovider.FunctionSpan) bool) {
		for _, s := range p.spans {
			if !yield(s) {
				return
			}
		}
	}, nil
}

func (p *fakeProvider) IncludeEdges(ctx context.Context) (iter.Seq[model.IncludeEdge], error) {
	return func(yield func(model.IncludeEdge) bool) {
		for _, e := range p.includes {
			if !yield(e) {
				return
			}
		}
	}, nil
}

const containerIndex = `--- !Symbol
id: "000000000000000a"
name: "A"
kind: "function"
definition:
  file_uri: "file:///proj/src/x.c"
  line: 10
  column: 5
--- !Symbol
id: "000000000000000b"
name: "B"
kind: "function"
definition:
  file_uri: "file:///proj/src/x.c"
  line: 20
  column: 5
--- !Refs
id: "000000000000000b"
refs:
  - kind: 20
    location:
      file_uri: "file:///proj/src/x.c"
      line: 12
      column: 9
    container: "000000000000000a"
`

const spanlessIndex = `--- !Symbol
id: "000000000000000a"
name: "A"
kind: "function"
definition:
  file_uri: "file:///proj/src/x.c"
  line: 10
  column: 5
--- !Symbol
id: "000000000000000b"
name: "B"
kind: "function"
definition:
  file_uri: "file:///proj/src/x.c"
  line: 20
  column: 5
--- !Refs
id: "000000000000000b"
refs:
  - kind: 12
    location:
      file_uri: "file:///proj/src/x.c"
      line: 12
      column: 9
`

func newTestOrchestrator(t *testing.T, adapter store.Adapter, provider spanprovider.Provider, opts ...Option) *Orchestrator {
	t.Helper()
	norm, err := pathnorm.New("/proj")
	require.NoError(t, err)
	parser := indexparser.New(indexparser.WithWorkerCount(2))
	return New(adapter, parser, provider, norm, opts...)
}

func TestRunContainerStrategyEndToEnd(t *testing.T) {
	adapter := &fakeAdapter{}
	o := newTestOrchestrator(t, adapter, nil)

	result, err := o.Run(context.Background(), &fakeSource{data: []byte(containerIndex)})
	require.NoError(t, err)

	assert.Equal(t, "full", result.Mode)
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, 2, result.Symbols)
	assert.Equal(t, 1, adapter.resets)

	// Project, Folder(src), File(src/x.c), Function(A), Function(B).
	assert.Equal(t, 5, result.NodesSubmitted)
	assert.Equal(t, 2, adapter.edgeCountByKind("DEFINES"))
	assert.Equal(t, 1, adapter.edgeCountByKind("CALLS"))
	assert.Equal(t, 2, adapter.edgeCountByKind("CONTAINS"))
}

func TestRunSpatialStrategyEndToEnd(t *testing.T) {
	adapter := &fakeAdapter{}
	provider := &fakeProvider{
		spans: []spanprovider.FunctionSpan{
			{
				Name: "A", FileURI: "file:///proj/src/x.c", DefinitionLine: 10, DefinitionColumn: 5,
				Body: model.BodySpan{
					FileURI: "file:///proj/src/x.c",
					Start:   model.RelativeLocation{Line: 10, Column: 1},
					End:     model.RelativeLocation{Line: 18, Column: 1},
				},
			},
			{
				Name: "B", FileURI: "file:///proj/src/x.c", DefinitionLine: 20, DefinitionColumn: 5,
				Body: model.BodySpan{
					FileURI: "file:///proj/src/x.c",
					Start:   model.RelativeLocation{Line: 20, Column: 1},
					End:     model.RelativeLocation{Line: 25, Column: 1},
				},
			},
		},
	}
	o := newTestOrchestrator(t, adapter, provider)

	result, err := o.Run(context.Background(), &fakeSource{data: []byte(spanlessIndex)})
	require.NoError(t, err)

	assert.Zero(t, result.SpanMismatches)
	assert.Equal(t, 1, adapter.edgeCountByKind("CALLS"))
}

func TestRunSpanlessIndexWithoutProviderEmitsNoCalls(t *testing.T) {
	adapter := &fakeAdapter{}
	o := newTestOrchestrator(t, adapter, nil)

	_, err := o.Run(context.Background(), &fakeSource{data: []byte(spanlessIndex)})
	require.NoError(t, err)
	assert.Zero(t, adapter.edgeCountByKind("CALLS"))
}

func TestRunEmptyIndexProducesProjectOnly(t *testing.T) {
	adapter := &fakeAdapter{}
	// An empty index leaves only the degree-zero project node, which P5
	// never removes; keep-orphans is set so no cleanup runs at all.
	o := newTestOrchestrator(t, adapter, nil, WithKeepOrphans(true))

	result, err := o.Run(context.Background(), &fakeSource{data: nil})
	require.NoError(t, err)
	assert.Zero(t, result.Symbols)
	assert.Equal(t, 1, result.NodesSubmitted)
}

func TestRunRespectsCancellationBetweenPasses(t *testing.T) {
	adapter := &fakeAdapter{}
	o := newTestOrchestrator(t, adapter, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := o.Run(ctx, &fakeSource{data: []byte(containerIndex)})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunIncrementalEmptyDiffIsNoOp(t *testing.T) {
	adapter := &fakeAdapter{}
	o := newTestOrchestrator(t, adapter, nil)

	result, err := o.RunIncremental(context.Background(), &fakeSource{data: []byte(containerIndex)}, nil)
	require.NoError(t, err)
	assert.Equal(t, "incremental", result.Mode)
	assert.Zero(t, adapter.resets)
	assert.Empty(t, adapter.nodeBatches)
}

func TestRunIncrementalForcesMergeAndCleansStaleFiles(t *testing.T) {
	adapter := &fakeAdapter{}
	o := newTestOrchestrator(t, adapter, nil)

	patch := []byte(`diff --git a/src/old.c b/src/old.c
deleted file mode 100644
index 1111111..0000000
--- a/src/old.c
+++ /dev/null
@@ -1,2 +0,0 @@
-int gone(void) {
-}
`)

	result, err := o.RunIncremental(context.Background(), &fakeSource{data: []byte(containerIndex)}, patch)
	require.NoError(t, err)

	// Never resets the populated database.
	assert.Zero(t, adapter.resets)

	// Stale-file removal and DB-side orphan cleanup both went through Query.
	require.NotEmpty(t, adapter.queries)
	assert.Contains(t, adapter.queries[0], "DETACH DELETE")

	// High-volume edge passes replay with MERGE semantics regardless of
	// the configured default.
	for _, s := range adapter.edgeStrategies("DEFINES") {
		assert.Equal(t, store.StrategyParallelMerge, s)
	}
	for _, s := range adapter.edgeStrategies("CALLS") {
		assert.Equal(t, store.StrategyParallelMerge, s)
	}
	assert.Equal(t, 1, adapter.edgeCountByKind("CALLS"))
	assert.Equal(t, "incremental", result.Mode)
}
