// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package orchestrator sequences the pipeline: parse, span attachment,
// graph build, call-graph extraction, ingestion. It owns the SymbolMap's
// lifetime (built by the parser, dropped as soon as the in-memory graph
// exists) and the cooperative cancellation checks between passes.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/aleutian-oss/cxgraph/internal/callgraph"
	"github.com/aleutian-oss/cxgraph/internal/graphbuild"
	"github.com/aleutian-oss/cxgraph/internal/indexparser"
	"github.com/aleutian-oss/cxgraph/internal/indexsource"
	"github.com/aleutian-oss/cxgraph/internal/ingest"
	"github.com/aleutian-oss/cxgraph/internal/obs"
	"github.com/aleutian-oss/cxgraph/internal/pathnorm"
	"github.com/aleutian-oss/cxgraph/internal/spanprovider"
	"github.com/aleutian-oss/cxgraph/internal/store"
	"github.com/aleutian-oss/cxgraph/internal/vcsdiff"
)

var tracer = obs.Tracer("orchestrator")

// Options configures an Orchestrator. Zero values fall back to
// ingest.DefaultOptions for the planner knobs.
type Options struct {
	// KeepOrphans skips pass P5.
	KeepOrphans bool

	DefinesStrategy store.Strategy
	CallsStrategy   store.Strategy
	CypherTxSize    int
	ClientBatchSize int
	Workers         int

	Logger *slog.Logger

	// Reporter is optional; a nil reporter's Report is a no-op.
	Reporter *obs.RunStatsReporter
}

// Option is a functional option for New.
type Option func(*Options)

func WithKeepOrphans(keep bool) Option {
	return func(o *Options) { o.KeepOrphans = keep }
}

func WithStrategies(defines, calls store.Strategy) Option {
	return func(o *Options) { o.DefinesStrategy = defines; o.CallsStrategy = calls }
}

func WithBatchSizes(cypherTxSize, clientBatchSize int) Option {
	return func(o *Options) { o.CypherTxSize = cypherTxSize; o.ClientBatchSize = clientBatchSize }
}

func WithWorkers(n int) Option {
	return func(o *Options) { o.Workers = n }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

func WithReporter(r *obs.RunStatsReporter) Option {
	return func(o *Options) { o.Reporter = r }
}

// Orchestrator wires the pipeline's stages together for one project.
//
// Thread Safety:
//
//	Not safe for concurrent use; an Orchestrator runs one pipeline at a
//	time, the same single-flight contract indexparser.Parser carries.
type Orchestrator struct {
	adapter  store.Adapter
	parser   *indexparser.Parser
	provider spanprovider.Provider // may be nil; see Run
	norm     *pathnorm.Normaliser
	opts     Options
}

// New constructs an Orchestrator. provider may be nil when the index is
// known to carry container provenance (the Container strategy needs no
// spans) and include edges are not wanted.
func New(adapter store.Adapter, parser *indexparser.Parser, provider spanprovider.Provider, norm *pathnorm.Normaliser, opts ...Option) *Orchestrator {
	o := Options{
		DefinesStrategy: store.StrategyParallelCreate,
		CallsStrategy:   store.StrategyParallelCreate,
		Logger:          slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Orchestrator{adapter: adapter, parser: parser, provider: provider, norm: norm, opts: o}
}

// Result summarises one completed run.
type Result struct {
	RunID    string
	Mode     string
	Duration time.Duration

	Symbols        int
	NodesSubmitted int
	EdgesSubmitted map[string]int

	SymbolsOutsideProject int
	SpanMismatches        int
	CallsDropped          int
	OrphansRemoved        int
}

// Run executes a full ingest: reset the store, parse the index, extract
// the call graph, build the in-memory graph, plan and submit every
// mutation. The run assumes exclusive access to the database for its
// duration.
func (o *Orchestrator) Run(ctx context.Context, src indexsource.Source) (Result, error) {
	result := Result{RunID: uuid.NewString(), Mode: "full"}
	start := time.Now()

	ctx, span := tracer.Start(ctx, "orchestrator.Run",
		trace.WithAttributes(attribute.String("run_id", result.RunID)))
	defer span.End()

	logger := o.opts.Logger.With(slog.String("run_id", result.RunID))
	logger.Info("starting full ingest", slog.String("source", src.Describe()))

	if err := o.adapter.Reset(ctx); err != nil {
		return o.finish(ctx, result, start, err)
	}

	err := o.runPasses(ctx, src, logger, &result)
	return o.finish(ctx, result, start, err)
}

// RunIncremental executes a diff-driven update: derived nodes for every
// deleted or renamed-away file are removed, then the pipeline re-runs
// against the populated database with MERGE semantics forced on the
// high-volume edge passes so replayed edges collapse instead of
// duplicating. The store is not reset.
func (o *Orchestrator) RunIncremental(ctx context.Context, src indexsource.Source, patch []byte) (Result, error) {
	result := Result{RunID: uuid.NewString(), Mode: "incremental"}
	start := time.Now()

	ctx, span := tracer.Start(ctx, "orchestrator.RunIncremental",
		trace.WithAttributes(attribute.String("run_id", result.RunID)))
	defer span.End()

	logger := o.opts.Logger.With(slog.String("run_id", result.RunID))

	changes, err := vcsdiff.ParseUnifiedDiff(patch)
	if err != nil {
		return o.finish(ctx, result, start, err)
	}
	if len(changes) == 0 {
		logger.Info("incremental update: empty diff, nothing to do")
		return o.finish(ctx, result, start, nil)
	}
	logger.Info("starting incremental update",
		slog.String("source", src.Describe()),
		slog.Int("changed_files", len(changes)))

	if err := o.removeStaleFiles(ctx, changes, logger); err != nil {
		return o.finish(ctx, result, start, err)
	}

	// Force idempotent strategies for the replay: create semantics
	// against a populated graph would duplicate every surviving edge.
	saved := o.opts
	o.opts.DefinesStrategy = store.StrategyParallelMerge
	o.opts.CallsStrategy = store.StrategyParallelMerge
	err = o.runPasses(ctx, src, logger, &result)
	o.opts = saved

	if err == nil && !o.opts.KeepOrphans {
		removed, cleanErr := o.cleanupStoreOrphans(ctx)
		if cleanErr != nil {
			err = cleanErr
		} else {
			result.OrphansRemoved += removed
		}
	}
	return o.finish(ctx, result, start, err)
}

// runPasses is the shared pipeline body: parse, attach spans if the
// Spatial strategy will need them, build, ingest. Cancellation is
// checked between passes; a pass already in flight runs to completion.
func (o *Orchestrator) runPasses(ctx context.Context, src indexsource.Source, logger *slog.Logger, result *Result) error {
	symbols, err := o.parser.Parse(ctx, src)
	if err != nil {
		return err
	}
	result.Symbols = symbols.Len()

	if err := checkpoint(ctx); err != nil {
		return err
	}

	// The Spatial strategy is the fallback for indexes without container
	// provenance; it is unusable without spans, so attachment happens
	// here, before strategy selection hands it the symbol map. A missing
	// provider leaves every Symbol span-less, so the call graph comes out
	// empty; the rest of the graph is still worth building.
	if !symbols.HasContainerField {
		if o.provider == nil {
			if symbols.Len() > 0 {
				logger.Warn("index has no container fields and no span provider is configured; call graph will be empty")
			}
		} else {
			spans, err := o.provider.FunctionSpans(ctx)
			if err != nil {
				return err
			}
			attachStats := callgraph.AttachSpans(symbols, spans)
			result.SpanMismatches = attachStats.Mismatched
			obs.RecordDropped("span_mismatch", attachStats.Mismatched)
			logger.Info("attached body spans",
				slog.Int("attached", attachStats.Attached),
				slog.Int("mismatched", attachStats.Mismatched))
		}
	}

	if err := checkpoint(ctx); err != nil {
		return err
	}

	strategy := callgraph.SelectStrategy(symbols, logger)
	builder := graphbuild.NewBuilder(
		graphbuild.WithOrphanCleanup(!o.opts.KeepOrphans),
		graphbuild.WithBuilderLogger(logger),
	)
	graph, buildStats, err := builder.Build(ctx, o.norm, symbols, o.provider, strategy.Extract(symbols))
	if err != nil {
		return err
	}
	result.SymbolsOutsideProject = buildStats.SymbolsOutsideProject
	result.CallsDropped = buildStats.CallsDropped
	result.OrphansRemoved = buildStats.OrphansRemoved
	obs.RecordDropped("path_outside_project", buildStats.SymbolsOutsideProject)
	obs.RecordDropped("unresolved_container", buildStats.CallsDropped)

	// The symbol map's job is done once the graph exists; drop it here so
	// its multi-GiB footprint is reclaimable during ingestion.
	symbols = nil

	if err := checkpoint(ctx); err != nil {
		return err
	}

	planner := ingest.NewPlanner(o.adapter, o.plannerOptions(logger)...)
	stats, err := planner.Run(ctx, graph)
	result.NodesSubmitted = stats.NodesSubmitted
	result.EdgesSubmitted = stats.EdgesSubmitted
	if err != nil {
		return err
	}

	for _, kind := range []graphbuild.NodeKind{
		graphbuild.NodeKindProject, graphbuild.NodeKindFolder, graphbuild.NodeKindFile,
		graphbuild.NodeKindFunction, graphbuild.NodeKindDataStructure,
	} {
		obs.RecordIngestNodes(kind.String(), len(graph.NodesByKind(kind)))
	}
	obs.RecordIngestEdges("DEFINES", string(o.opts.DefinesStrategy), stats.EdgesSubmitted["DEFINES"])
	obs.RecordIngestEdges("CALLS", string(o.opts.CallsStrategy), stats.EdgesSubmitted["CALLS"])
	obs.RecordIngestEdges("CONTAINS", string(store.StrategyParallelMerge), stats.EdgesSubmitted["CONTAINS"])
	obs.RecordIngestEdges("INCLUDES", string(store.StrategyParallelMerge), stats.EdgesSubmitted["INCLUDES"])

	logger.Info("ingest complete",
		slog.Int("nodes", stats.NodesSubmitted),
		slog.Any("edges", stats.EdgesSubmitted))
	return nil
}

func (o *Orchestrator) plannerOptions(logger *slog.Logger) []ingest.Option {
	opts := []ingest.Option{
		ingest.WithDefinesStrategy(o.opts.DefinesStrategy),
		ingest.WithCallsStrategy(o.opts.CallsStrategy),
		ingest.WithLogger(logger),
	}
	if o.opts.CypherTxSize > 0 {
		opts = append(opts, ingest.WithCypherTxSize(o.opts.CypherTxSize))
	}
	if o.opts.ClientBatchSize > 0 {
		opts = append(opts, ingest.WithClientBatchSize(o.opts.ClientBatchSize))
	}
	if o.opts.Workers > 0 {
		opts = append(opts, ingest.WithWorkers(o.opts.Workers))
	}
	return opts
}

// removeStaleFiles detaches and deletes the File node and every symbol
// node it defines, for each path the diff reports deleted or renamed
// away. Modified files keep their nodes: the MERGE replay refreshes
// them in place.
func (o *Orchestrator) removeStaleFiles(ctx context.Context, changes []vcsdiff.FileChange, logger *slog.Logger) error {
	var stale []string
	for _, c := range changes {
		switch c.Kind {
		case vcsdiff.ChangeDeleted:
			stale = append(stale, c.Path)
		case vcsdiff.ChangeRenamed:
			stale = append(stale, c.OldPath)
		}
	}
	if len(stale) == 0 {
		return nil
	}

	const cypher = `
UNWIND $paths AS path
MATCH (f:File {path: path})
OPTIONAL MATCH (f)-[:DEFINES]->(s)
DETACH DELETE f, s`
	if _, err := o.adapter.Query(ctx, cypher, map[string]any{"paths": stale}); err != nil {
		return fmt.Errorf("orchestrator: remove stale files: %w", err)
	}
	logger.Info("removed stale file nodes", slog.Int("count", len(stale)))
	return nil
}

// cleanupStoreOrphans is the database-side counterpart of pass P5, used
// by incremental runs where deleting a file can strand folder or symbol
// nodes the in-memory build never saw.
func (o *Orchestrator) cleanupStoreOrphans(ctx context.Context) (int, error) {
	rows, err := o.adapter.Query(ctx, `
MATCH (n)
WHERE NOT (n)--()
DETACH DELETE n
RETURN count(n) AS removed`, nil)
	if err != nil {
		return 0, fmt.Errorf("orchestrator: orphan cleanup: %w", err)
	}
	if len(rows) == 1 {
		if n, ok := rows[0]["removed"].(int64); ok {
			return int(n), nil
		}
	}
	return 0, nil
}

// finish stamps the result, records run metrics, and reports the
// optional InfluxDB point. It is the single exit path for Run and
// RunIncremental so no outcome skips the bookkeeping.
func (o *Orchestrator) finish(ctx context.Context, result Result, start time.Time, err error) (Result, error) {
	result.Duration = time.Since(start)
	obs.RecordRun(result.Mode, result.Duration, err)

	reportErr := o.opts.Reporter.Report(ctx, obs.RunStats{
		Mode:           result.Mode,
		Duration:       result.Duration,
		NodesSubmitted: result.NodesSubmitted,
		EdgesSubmitted: result.EdgesSubmitted,
		OrphansRemoved: result.OrphansRemoved,
		Err:            err,
	})
	if reportErr != nil {
		o.opts.Logger.Warn("run-stats report failed", slog.String("error", reportErr.Error()))
	}

	if err != nil {
		o.opts.Logger.Error("run failed",
			slog.String("run_id", result.RunID),
			slog.String("mode", result.Mode),
			slog.Duration("elapsed", result.Duration),
			slog.String("error", err.Error()))
		return result, err
	}
	o.opts.Logger.Info("run complete",
		slog.String("run_id", result.RunID),
		slog.String("mode", result.Mode),
		slog.Duration("elapsed", result.Duration))
	return result, nil
}

// checkpoint is the between-pass cancellation gate: in-flight work runs
// to completion, the next pass never starts once ctx is done.
func checkpoint(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return nil
}
