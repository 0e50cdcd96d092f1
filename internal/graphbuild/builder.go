// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package graphbuild

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"strings"

	"github.com/aleutian-oss/cxgraph/internal/model"
	"github.com/aleutian-oss/cxgraph/internal/pathnorm"
	"github.com/aleutian-oss/cxgraph/internal/spanprovider"
)

const projectNodeID = "project"

// BuilderOptions configures a Builder.
type BuilderOptions struct {
	// OrphanCleanup gates Pass P5. Default false - most runs want to see
	// invisible-header file nodes even when nothing defines into them.
	OrphanCleanup bool
	Logger        *slog.Logger
}

func DefaultBuilderOptions() BuilderOptions {
	return BuilderOptions{Logger: slog.Default()}
}

// BuilderOption is a functional option for NewBuilder.
type BuilderOption func(*BuilderOptions)

func WithOrphanCleanup(enabled bool) BuilderOption {
	return func(o *BuilderOptions) { o.OrphanCleanup = enabled }
}

func WithBuilderLogger(l *slog.Logger) BuilderOption {
	return func(o *BuilderOptions) { o.Logger = l }
}

// Builder runs Passes P1-P5 over a frozen SymbolMap to materialise a Graph.
type Builder struct {
	opts BuilderOptions
}

func NewBuilder(opts ...BuilderOption) *Builder {
	o := DefaultBuilderOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Builder{opts: o}
}

// BuildStats counts skipped/dropped items, surfaced to the orchestrator
// for logging and metrics rather than as hard failures - every drop
// listed here is a documented boundary behaviour, not a bug.
type BuildStats struct {
	SymbolsOutsideProject int
	SpanMismatches        int
	OrphansRemoved        int
	CallsDropped          int
}

// Build runs P1 through P5 against a frozen symbol map. Build reads only
// include edges from provider; provider may be nil, in which case P4
// (include edges) is skipped. Body spans are not attached here
// (callgraph.AttachSpans does that before Build). calls is the
// call-graph pass's output (internal/callgraph); it may be nil, and runs
// after P4 but before the gated P5 orphan cleanup, so a Function only
// reachable via a CALLS edge is never mistaken for an orphan.
func (b *Builder) Build(ctx context.Context, norm *pathnorm.Normaliser, symbols *model.SymbolMap, provider spanprovider.Provider, calls iter.Seq[model.CallRelation]) (*Graph, BuildStats, error) {
	if !symbols.IsFrozen() {
		return nil, BuildStats{}, fmt.Errorf("graphbuild: symbol map must be frozen before Build")
	}

	g := NewGraph(norm.Root())
	if err := g.AddNode(&Node{ID: projectNodeID, Kind: NodeKindProject, Properties: map[string]any{"root": norm.Root()}}); err != nil {
		return nil, BuildStats{}, err
	}

	var stats BuildStats
	containsSeen := make(map[string]bool)

	var includeEdges []model.IncludeEdge
	if provider != nil {
		seq, err := provider.IncludeEdges(ctx)
		if err != nil {
			return nil, stats, fmt.Errorf("graphbuild: include edges: %w", err)
		}
		for e := range seq {
			includeEdges = append(includeEdges, e)
		}
	}

	// Pass P1: file hierarchy.
	fileSet := make(map[string]bool)
	symbolFiles := make(map[model.SymbolID]string, symbols.Len())
	for id, sym := range symbols.All() {
		loc := sym.SiteLocation()
		if loc == nil {
			continue
		}
		rel, err := norm.URIToRelative(loc.FileURI)
		if err != nil {
			stats.SymbolsOutsideProject++
			continue
		}
		fileSet[rel] = true
		symbolFiles[id] = rel
	}
	for _, e := range includeEdges {
		fileSet[e.IncludingRelPath] = true
		fileSet[e.IncludedRelPath] = true
	}
	for rel := range fileSet {
		if err := ensureFileHierarchy(g, rel, containsSeen); err != nil {
			return nil, stats, err
		}
	}

	// Pass P2: symbol nodes. Pass P3: defines edges, interleaved per
	// symbol since both need the same file-relative path and the file
	// node P1 already guarantees exists.
	for id, sym := range symbols.All() {
		if !sym.Kind.IsGraphNode() {
			continue
		}
		rel, ok := symbolFiles[id]
		if !ok {
			continue // outside the project (counted above) or no site location
		}

		kind := NodeKindDataStructure
		if sym.Kind == model.SymbolKindFunction {
			kind = NodeKindFunction
		}

		loc := sym.SiteLocation()
		props := map[string]any{
			"id":     id.String(),
			"name":   sym.Name,
			"kind":   sym.Kind.String(),
			"path":   rel,
			"line":   loc.Line,
			"column": loc.Column,
		}
		if sym.Signature != "" {
			props["signature"] = sym.Signature
		}
		if sym.ReturnType != "" {
			props["return_type"] = sym.ReturnType
		}
		if sym.Scope != "" {
			props["scope"] = sym.Scope
		}
		if sym.BodyLocation != nil {
			props["body_start_line"] = sym.BodyLocation.Start.Line
			props["body_start_column"] = sym.BodyLocation.Start.Column
			props["body_end_line"] = sym.BodyLocation.End.Line
			props["body_end_column"] = sym.BodyLocation.End.Column
		}

		nodeID := id.String()
		if err := g.AddNode(&Node{ID: nodeID, Kind: kind, Properties: props}); err != nil {
			return nil, stats, err
		}
		if err := g.AddEdge(&Edge{FromID: fileNodeID(rel), ToID: nodeID, Kind: EdgeKindDefines, FilePath: rel}); err != nil {
			return nil, stats, err
		}
	}

	// Pass P4: include edges, both endpoints already exist from P1.
	for _, e := range includeEdges {
		if err := g.AddEdge(&Edge{FromID: fileNodeID(e.IncludingRelPath), ToID: fileNodeID(e.IncludedRelPath), Kind: EdgeKindIncludes, FilePath: e.IncludingRelPath}); err != nil {
			return nil, stats, err
		}
	}

	// Call-graph pass: CALLS edges, strategy-produced upstream. Runs
	// after P4 and before P5 so a Function reachable only by a call is
	// not pruned as an orphan.
	if calls != nil {
		for rel := range calls {
			callerID, toOK := rel.CallerID.String(), true
			calleeID := rel.CalleeID.String()
			if _, ok := g.GetNode(callerID); !ok {
				toOK = false
			}
			if _, ok := g.GetNode(calleeID); !ok {
				toOK = false
			}
			if !toOK {
				stats.CallsDropped++
				continue
			}
			if err := g.AddEdge(&Edge{FromID: callerID, ToID: calleeID, Kind: EdgeKindCalls, FilePath: symbolFiles[rel.CallerID]}); err != nil {
				return nil, stats, err
			}
		}
	}

	// Pass P5: orphan cleanup, gated.
	if b.opts.OrphanCleanup {
		var toRemove []string
		for id := range g.nodes {
			if id == projectNodeID {
				continue
			}
			if g.Degree(id) == 0 {
				toRemove = append(toRemove, id)
			}
		}
		for _, id := range toRemove {
			g.RemoveNode(id)
			stats.OrphansRemoved++
		}
	}

	g.Freeze()
	return g, stats, nil
}

func fileNodeID(relPath string) string   { return "file:" + relPath }
func folderNodeID(relPath string) string { return "folder:" + relPath }

// ensureFileHierarchy adds a File node for relPath plus every ancestor
// Folder node, and the CONTAINS edges linking project -> ... -> file,
// each edge added at most once even though multiple files may share
// ancestor folders.
func ensureFileHierarchy(g *Graph, relPath string, containsSeen map[string]bool) error {
	parts := strings.Split(relPath, "/")

	parentID := projectNodeID
	for i := 0; i < len(parts)-1; i++ {
		dirPath := strings.Join(parts[:i+1], "/")
		dirID := folderNodeID(dirPath)
		if err := g.AddNode(&Node{ID: dirID, Kind: NodeKindFolder, Properties: map[string]any{"path": dirPath}}); err != nil {
			return err
		}
		if err := addContainsOnce(g, parentID, dirID, containsSeen); err != nil {
			return err
		}
		parentID = dirID
	}

	fID := fileNodeID(relPath)
	if err := g.AddNode(&Node{ID: fID, Kind: NodeKindFile, Properties: map[string]any{"path": relPath}}); err != nil {
		return err
	}
	return addContainsOnce(g, parentID, fID, containsSeen)
}

func addContainsOnce(g *Graph, fromID, toID string, seen map[string]bool) error {
	key := fromID + "\x00" + toID
	if seen[key] {
		return nil
	}
	seen[key] = true
	return g.AddEdge(&Edge{FromID: fromID, ToID: toID, Kind: EdgeKindContains})
}
