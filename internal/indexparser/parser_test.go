// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package indexparser

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aleutian-oss/cxgraph/internal/indexsource"
	"github.com/aleutian-oss/cxgraph/internal/model"
)

// fakeSource is an in-memory indexsource.Source for tests, avoiding any
// filesystem or network dependency.
type fakeSource struct {
	name    string
	data    []byte
	modTime time.Time
	opens   int
}

type fakeReadCloser struct {
	io.Reader
	size int64
}

func (f *fakeReadCloser) Close() error { return nil }
func (f *fakeReadCloser) Size() int64  { return f.size }

func (s *fakeSource) Open(ctx context.Context) (indexsource.ReadCloserWithSize, time.Time, error) {
	s.opens++
	return &fakeReadCloser{Reader: bytes.NewReader(s.data), size: int64(len(s.data))}, s.modTime, nil
}

func (s *fakeSource) Describe() string { return s.name }

func newTestBadger(t *testing.T) *badger.DB {
	t.Helper()
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestParserParseBytesEndToEnd(t *testing.T) {
	p := New(WithWorkerCount(2))

	graph, err := p.parseBytes(context.Background(), []byte(sampleChunk))
	require.NoError(t, err)

	assert.Equal(t, 2, graph.Len())
	assert.True(t, graph.HasContainerField)
	assert.True(t, graph.IsFrozen())

	idA, _ := model.ParseSymbolID("000000000000000a")
	idB, _ := model.ParseSymbolID("000000000000000b")
	symB, ok := graph.Get(idB)
	require.True(t, ok)
	require.Len(t, symB.References, 1)
	assert.Equal(t, idA, symB.References[0].ContainerID)
}

func TestParserParseBytesEmptyInputProducesEmptyGraph(t *testing.T) {
	p := New()
	graph, err := p.parseBytes(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, graph.Len())
	assert.True(t, graph.IsFrozen())
}

func TestParserParseBytesPropagatesYAMLSyntaxError(t *testing.T) {
	p := New(WithWorkerCount(1))
	_, err := p.parseBytes(context.Background(), []byte("--- !Symbol\nid: \"a\n"))
	assert.Error(t, err)
}

func TestCacheRoundTripAvoidsReparse(t *testing.T) {
	db := newTestBadger(t)
	cache := NewCache(db, nil)
	p := New(WithWorkerCount(2), WithCache(cache))

	modTime := time.Now()
	key := "fixture.yaml"
	size := int64(len(sampleChunk))

	cached, err := cache.Lookup(key, modTime, size)
	require.NoError(t, err)
	assert.Nil(t, cached)

	graph, err := p.parseBytes(context.Background(), []byte(sampleChunk))
	require.NoError(t, err)
	require.NoError(t, cache.Store(key, modTime, size, graph))

	cached, err = cache.Lookup(key, modTime, size)
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, graph.Len(), cached.Len())
}

func TestCacheMissOnDifferentModTime(t *testing.T) {
	db := newTestBadger(t)
	cache := NewCache(db, nil)

	graph, err := New().parseBytes(context.Background(), []byte(sampleChunk))
	require.NoError(t, err)

	t1 := time.Now()
	require.NoError(t, cache.Store("fixture.yaml", t1, int64(len(sampleChunk)), graph))

	cached, err := cache.Lookup("fixture.yaml", t1.Add(time.Second), int64(len(sampleChunk)))
	require.NoError(t, err)
	assert.Nil(t, cached)
}

func TestParserParseUsesSourceAndCache(t *testing.T) {
	db := newTestBadger(t)
	cache := NewCache(db, nil)
	p := New(WithWorkerCount(2), WithCache(cache))

	src := &fakeSource{name: "fixture.yaml", data: []byte(sampleChunk), modTime: time.Now()}

	graph, err := p.Parse(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, 2, graph.Len())
	assert.Equal(t, 1, src.opens)

	// Second parse of the same (unchanged) source must hit the cache:
	// Open is still called once more (to learn modTime/size) but the
	// YAML is never re-tokenised, per the round-trip property.
	graph2, err := p.Parse(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, graph.Len(), graph2.Len())
	assert.Equal(t, 2, src.opens)
}

func TestCacheMissOnDifferentSize(t *testing.T) {
	db := newTestBadger(t)
	cache := NewCache(db, nil)

	graph, err := New().parseBytes(context.Background(), []byte(sampleChunk))
	require.NoError(t, err)

	modTime := time.Now()
	require.NoError(t, cache.Store("fixture.yaml", modTime, int64(len(sampleChunk)), graph))

	cached, err := cache.Lookup("fixture.yaml", modTime, int64(len(sampleChunk))+1)
	require.NoError(t, err)
	assert.Nil(t, cached)
}
