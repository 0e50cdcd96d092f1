// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package indexparser turns a stream of compiler-emitted YAML documents
// into a fully cross-linked model.SymbolMap. Parsing fans out across W
// pure-function workers operating on disjoint byte chunks, then merges
// and links their results on a single goroutine, per the cache-first,
// chunk-parallel, link-serial algorithm this package implements.
package indexparser

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aleutian-oss/cxgraph/internal/indexsource"
	"github.com/aleutian-oss/cxgraph/internal/model"
)

// Option configures a Parser.
type Option func(*Parser)

// WithWorkerCount overrides the default (runtime.GOMAXPROCS(0)) number
// of parallel parse workers.
func WithWorkerCount(n int) Option {
	return func(p *Parser) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithCache attaches a parser cache. Without one, every Parse call does
// a full reparse.
func WithCache(cache *Cache) Option {
	return func(p *Parser) {
		p.cache = cache
	}
}

// WithLogger overrides the default slog.Logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// Parser parses a compiler index stream into a SymbolMap.
//
// Thread Safety:
//
//	A single Parser may run only one Parse call at a time; concurrent
//	Parse calls on the same Parser are not supported (the teacher's
//	builder pattern is likewise single-flight per instance). Construct
//	one Parser per concurrent ingestion run.
type Parser struct {
	workers int
	cache   *Cache
	logger  *slog.Logger
}

// New constructs a Parser with defaults: GOMAXPROCS workers, no cache,
// the default slog logger.
func New(opts ...Option) *Parser {
	p := &Parser{
		workers: runtime.GOMAXPROCS(0),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.workers < 1 {
		p.workers = 1
	}
	return p
}

// Parse reads src fully, checks the cache, and otherwise chunks,
// fans out W pure-function workers, merges their results, and links
// references to symbols. Returns the frozen, fully cross-linked
// SymbolMap.
//
// Fails with model.ErrIO (source unreadable), model.ErrYamlSyntax
// (malformed document, wrapped with the chunk's document index),
// model.ErrDuplicateSymbolID (id collision across workers or documents),
// model.ErrWorkerCrashed (a worker goroutine panicked).
func (p *Parser) Parse(ctx context.Context, src indexsource.Source) (*model.SymbolMap, error) {
	rc, modTime, err := src.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	if p.cache != nil {
		if cached, err := p.cache.Lookup(src.Describe(), modTime, rc.Size()); err != nil {
			p.logger.Warn("parser cache lookup failed, reparsing",
				slog.String("source", src.Describe()),
				slog.String("error", err.Error()),
			)
		} else if cached != nil {
			p.logger.Info("parser cache hit",
				slog.String("source", src.Describe()),
				slog.Int("symbol_count", cached.Len()),
			)
			return cached, nil
		}
	}

	raw, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", model.ErrIO, src.Describe(), err)
	}

	graph, err := p.parseBytes(ctx, raw)
	if err != nil {
		return nil, err
	}

	if p.cache != nil {
		if err := p.cache.Store(src.Describe(), modTime, rc.Size(), graph); err != nil {
			p.logger.Warn("parser cache write failed",
				slog.String("source", src.Describe()),
				slog.String("error", err.Error()),
			)
		}
	}

	return graph, nil
}

// parseBytes runs the chunk/parallel-parse/merge/link pipeline over an
// already-materialised byte slice. Exposed at package level (via Parse)
// rather than taking an io.Reader for workers, because workers operate
// on owned byte chunks, never on file offsets.
func (p *Parser) parseBytes(ctx context.Context, raw []byte) (*model.SymbolMap, error) {
	start := time.Now()
	chunks := chunkByDocumentBoundaries(raw, p.workers)
	if len(chunks) == 0 {
		empty := model.NewSymbolMap()
		empty.Freeze()
		return empty, nil
	}

	results := make([]*chunkResult, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	for i, chunk := range chunks {
		i, chunk := i, chunk
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("%w: chunk %d: %v", model.ErrWorkerCrashed, i, r)
				}
			}()
			if gctx.Err() != nil {
				return gctx.Err()
			}
			result, parseErr := parseChunk(chunk)
			if parseErr != nil {
				return parseErr
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	graph, err := mergeAndLink(results)
	if err != nil {
		return nil, err
	}

	p.logger.Info("index parse complete",
		slog.Int("symbol_count", graph.Len()),
		slog.Int("chunk_count", len(chunks)),
		slog.Bool("has_container_field", graph.HasContainerField),
		slog.Duration("elapsed", time.Since(start)),
	)
	return graph, nil
}

// mergeAndLink concatenates every worker's symbols into one map (a
// cross-worker id collision is a bug in the index, fatal), then walks
// every unlinked reference, pushing it into its target's reference
// list and setting HasContainerField as soon as a non-zero container is
// observed. This step is single-threaded by design: the useful
// parallelism is in YAML tokenisation, not in one dictionary insertion
// per reference.
func mergeAndLink(results []*chunkResult) (*model.SymbolMap, error) {
	total := 0
	for _, r := range results {
		total += len(r.symbols)
	}
	merged := model.NewSymbolMapWithCapacity(total)

	for _, r := range results {
		for _, sym := range r.symbols {
			if err := merged.Insert(sym); err != nil {
				return nil, err
			}
		}
	}

	for _, r := range results {
		for _, ur := range r.references {
			if ur.ref.HasContainer() {
				merged.HasContainerField = true
			}
			// A !Refs document whose target has no corresponding !Symbol
			// anywhere in the stream is tolerated: the reference is simply
			// dropped, since there is no Symbol to attach it to.
			merged.AttachReference(ur.targetID, ur.ref)
		}
	}

	merged.Freeze()
	return merged, nil
}
