// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package graphbuild holds the in-memory code graph that the Graph
// Builder passes (P1-P5) populate from a frozen symbol map plus Span and
// Include Provider output. The Graph itself never talks to a database -
// internal/ingest is what turns it into Graph Store Adapter submissions.
package graphbuild

import (
	"fmt"
	"time"
)

// Default configuration values, mirroring the teacher's GraphOptions
// defaults but sized for a C/C++ translation unit graph rather than a
// whole-language-server symbol graph.
const (
	DefaultMaxNodes = 2_000_000
	DefaultMaxEdges = 20_000_000
)

// GraphState is the lifecycle state of a Graph.
type GraphState int

const (
	// GraphStateBuilding accepts AddNode/AddEdge calls.
	GraphStateBuilding GraphState = iota

	// GraphStateReadOnly is frozen; queries only.
	GraphStateReadOnly
)

func (s GraphState) String() string {
	switch s {
	case GraphStateBuilding:
		return "building"
	case GraphStateReadOnly:
		return "readonly"
	default:
		return "unknown"
	}
}

// NodeKind is the closed set of node labels this graph produces.
type NodeKind int

const (
	NodeKindUnknown NodeKind = iota
	NodeKindProject
	NodeKindFolder
	NodeKindFile
	NodeKindFunction
	NodeKindDataStructure

	numNodeKinds
)

var nodeKindNames = map[NodeKind]string{
	NodeKindProject:       "Project",
	NodeKindFolder:        "Folder",
	NodeKindFile:          "File",
	NodeKindFunction:      "Function",
	NodeKindDataStructure: "DataStructure",
}

func (k NodeKind) String() string {
	if name, ok := nodeKindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// EdgeKind is the closed set of edge labels this graph produces.
type EdgeKind int

const (
	EdgeKindUnknown EdgeKind = iota
	EdgeKindContains
	EdgeKindDefines
	EdgeKindIncludes
	EdgeKindCalls

	numEdgeKinds
)

var edgeKindNames = map[EdgeKind]string{
	EdgeKindContains: "CONTAINS",
	EdgeKindDefines:  "DEFINES",
	EdgeKindIncludes: "INCLUDES",
	EdgeKindCalls:    "CALLS",
}

func (k EdgeKind) String() string {
	if name, ok := edgeKindNames[k]; ok {
		return name
	}
	return "UNKNOWN"
}

// Node is a single graph vertex. Properties carries the label-specific
// attributes named in the Graph Builder pass descriptions (name, kind,
// signature, path, location, ...); it is a plain map rather than a
// per-kind struct because the Ingestion Planner flattens it straight
// into parameterised Cypher maps.
type Node struct {
	ID         string
	Kind       NodeKind
	Properties map[string]any
}

// Edge is a directed relationship between two nodes. It carries no
// source location; FilePath is empty for CONTAINS edges and holds the
// project-relative file the edge is expressed in for the other kinds.
type Edge struct {
	FromID   string
	ToID     string
	Kind     EdgeKind
	FilePath string // project-relative path the edge is "expressed in", for edgesByFile
}

// Graph is the in-memory code graph for one project.
//
// Thread Safety:
//
//	Not safe for concurrent mutation. Single-writer during Building;
//	safe for concurrent reads once Freeze has been called.
//
// Lifecycle:
//
//	NewGraph -> AddNode/AddEdge (Builder passes P1-P5) -> Freeze -> reads.
type Graph struct {
	ProjectRoot string

	nodes map[string]*Node
	edges []*Edge

	nodesByKind map[NodeKind][]*Node
	edgesByKind [numEdgeKinds][]*Edge
	edgesByFile map[string][]*Edge

	// degree is total in+out edge count per node ID, maintained
	// incrementally so Pass P5 (orphan cleanup) is O(V) instead of O(V*E).
	degree map[string]int

	state        GraphState
	options      GraphOptions
	BuiltAtMilli int64
}

// GraphOptions bounds graph size, matching the teacher's safety-valve
// shape for pathological inputs.
type GraphOptions struct {
	MaxNodes int
	MaxEdges int
}

func DefaultGraphOptions() GraphOptions {
	return GraphOptions{MaxNodes: DefaultMaxNodes, MaxEdges: DefaultMaxEdges}
}

// GraphOption configures a new Graph.
type GraphOption func(*GraphOptions)

func WithMaxNodes(n int) GraphOption { return func(o *GraphOptions) { o.MaxNodes = n } }
func WithMaxEdges(n int) GraphOption { return func(o *GraphOptions) { o.MaxEdges = n } }

// NewGraph creates an empty, mutable Graph rooted at projectRoot (an
// absolute path).
func NewGraph(projectRoot string, opts ...GraphOption) *Graph {
	options := DefaultGraphOptions()
	for _, opt := range opts {
		opt(&options)
	}
	return &Graph{
		ProjectRoot: projectRoot,
		nodes:       make(map[string]*Node),
		nodesByKind: make(map[NodeKind][]*Node),
		edgesByFile: make(map[string][]*Edge),
		degree:      make(map[string]int),
		options:     options,
		state:       GraphStateBuilding,
	}
}

func (g *Graph) State() GraphState  { return g.state }
func (g *Graph) IsFrozen() bool     { return g.state == GraphStateReadOnly }
func (g *Graph) NodeCount() int     { return len(g.nodes) }
func (g *Graph) EdgeCount() int     { return len(g.edges) }

// AddNode inserts n, keyed by n.ID. Re-adding the same ID is a no-op
// success (file/folder nodes are naturally discovered more than once
// across Pass P1's two sources of truth), except that the Kind must
// agree - a kind mismatch on the same ID is a builder bug, not a data
// condition, and returns ErrNodeKindConflict.
func (g *Graph) AddNode(n *Node) error {
	if g.IsFrozen() {
		return ErrGraphFrozen
	}
	if existing, ok := g.nodes[n.ID]; ok {
		if existing.Kind != n.Kind {
			return fmt.Errorf("%w: %s has kind %s, tried to add as %s", ErrNodeKindConflict, n.ID, existing.Kind, n.Kind)
		}
		return nil
	}
	if len(g.nodes) >= g.options.MaxNodes {
		return fmt.Errorf("%w: at %d nodes", ErrGraphCapacity, g.options.MaxNodes)
	}
	g.nodes[n.ID] = n
	g.nodesByKind[n.Kind] = append(g.nodesByKind[n.Kind], n)
	return nil
}

// GetNode looks up a node by ID.
func (g *Graph) GetNode(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// NodesByKind returns every node of the given kind, in insertion order.
func (g *Graph) NodesByKind(k NodeKind) []*Node {
	return g.nodesByKind[k]
}

// AddEdge appends an edge from->to. Both endpoints must already exist
// (ErrNodeNotFound otherwise); the Graph Builder passes always create
// nodes before the edges that reference them, per the §4.3 ordering
// guarantee.
func (g *Graph) AddEdge(e *Edge) error {
	if g.IsFrozen() {
		return ErrGraphFrozen
	}
	if _, ok := g.nodes[e.FromID]; !ok {
		return fmt.Errorf("%w: edge source %s", ErrNodeNotFound, e.FromID)
	}
	if _, ok := g.nodes[e.ToID]; !ok {
		return fmt.Errorf("%w: edge target %s", ErrNodeNotFound, e.ToID)
	}
	if len(g.edges) >= g.options.MaxEdges {
		return fmt.Errorf("%w: at %d edges", ErrGraphCapacity, g.options.MaxEdges)
	}
	g.edges = append(g.edges, e)
	g.edgesByKind[e.Kind] = append(g.edgesByKind[e.Kind], e)
	if e.FilePath != "" {
		g.edgesByFile[e.FilePath] = append(g.edgesByFile[e.FilePath], e)
	}
	g.degree[e.FromID]++
	g.degree[e.ToID]++
	return nil
}

// EdgesByKind returns every edge of the given kind, in insertion order.
func (g *Graph) EdgesByKind(k EdgeKind) []*Edge {
	return g.edgesByKind[k]
}

// EdgesByFile returns every edge expressed in the given project-relative
// file path.
func (g *Graph) EdgesByFile(relPath string) []*Edge {
	return g.edgesByFile[relPath]
}

// Degree returns the total (in + out) edge count touching id.
func (g *Graph) Degree(id string) int {
	return g.degree[id]
}

// RemoveNode deletes a node and every edge touching it. Used only by
// Pass P5 (orphan cleanup), which only ever calls this on zero-degree
// nodes, but RemoveNode itself does not assume that - it also repairs
// edgesByKind/edgesByFile/degree on whichever edges it finds.
func (g *Graph) RemoveNode(id string) {
	n, ok := g.nodes[id]
	if !ok {
		return
	}
	delete(g.nodes, id)
	g.nodesByKind[n.Kind] = removeNodePtr(g.nodesByKind[n.Kind], n)
	delete(g.degree, id)

	kept := g.edges[:0]
	for _, e := range g.edges {
		if e.FromID == id || e.ToID == id {
			if e.FromID != id {
				g.degree[e.FromID]--
			}
			if e.ToID != id {
				g.degree[e.ToID]--
			}
			continue
		}
		kept = append(kept, e)
	}
	g.edges = kept

	for k := range g.edgesByKind {
		g.edgesByKind[k] = filterEdges(g.edgesByKind[k], id)
	}
	for path, edges := range g.edgesByFile {
		g.edgesByFile[path] = filterEdges(edges, id)
	}
}

func removeNodePtr(nodes []*Node, target *Node) []*Node {
	out := nodes[:0]
	for _, n := range nodes {
		if n != target {
			out = append(out, n)
		}
	}
	return out
}

func filterEdges(edges []*Edge, id string) []*Edge {
	out := edges[:0]
	for _, e := range edges {
		if e.FromID != id && e.ToID != id {
			out = append(out, e)
		}
	}
	return out
}

// Freeze transitions the graph to read-only. Irreversible.
func (g *Graph) Freeze() {
	g.state = GraphStateReadOnly
	g.BuiltAtMilli = time.Now().UnixMilli()
}
