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

import "sort"

// GraphSchemaVersion identifies the serialization format. Bump on any
// breaking change to SerializableGraph's shape.
const GraphSchemaVersion = "cxgraph-graph-v1"

// SerializableGraph is the JSON-friendly form of a Graph, used for
// snapshotting and for any future incremental-update diffing. Nodes and
// edges are sorted for deterministic output.
type SerializableGraph struct {
	SchemaVersion string             `json:"schema_version"`
	ProjectRoot   string             `json:"project_root"`
	BuiltAtMilli  int64              `json:"built_at_milli"`
	Nodes         []SerializableNode `json:"nodes"`
	Edges         []SerializableEdge `json:"edges"`
}

type SerializableNode struct {
	ID         string         `json:"id"`
	Kind       string         `json:"kind"`
	Properties map[string]any `json:"properties"`
}

type SerializableEdge struct {
	FromID   string `json:"from_id"`
	ToID     string `json:"to_id"`
	Kind     string `json:"kind"`
	FilePath string `json:"file_path,omitempty"`
}

// ToSerializable converts g into its JSON-serializable form. g must be
// frozen; the snapshot is meaningless for a graph still being built.
func (g *Graph) ToSerializable() *SerializableGraph {
	out := &SerializableGraph{
		SchemaVersion: GraphSchemaVersion,
		ProjectRoot:   g.ProjectRoot,
		BuiltAtMilli:  g.BuiltAtMilli,
		Nodes:         make([]SerializableNode, 0, len(g.nodes)),
		Edges:         make([]SerializableEdge, 0, len(g.edges)),
	}

	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		n := g.nodes[id]
		out.Nodes = append(out.Nodes, SerializableNode{ID: n.ID, Kind: n.Kind.String(), Properties: n.Properties})
	}

	for _, e := range g.edges {
		out.Edges = append(out.Edges, SerializableEdge{FromID: e.FromID, ToID: e.ToID, Kind: e.Kind.String(), FilePath: e.FilePath})
	}
	sort.Slice(out.Edges, func(i, j int) bool {
		if out.Edges[i].FromID != out.Edges[j].FromID {
			return out.Edges[i].FromID < out.Edges[j].FromID
		}
		return out.Edges[i].ToID < out.Edges[j].ToID
	})

	return out
}

var nodeKindFromName = map[string]NodeKind{
	"Project":       NodeKindProject,
	"Folder":        NodeKindFolder,
	"File":          NodeKindFile,
	"Function":      NodeKindFunction,
	"DataStructure": NodeKindDataStructure,
}

var edgeKindFromName = map[string]EdgeKind{
	"CONTAINS": EdgeKindContains,
	"DEFINES":  EdgeKindDefines,
	"INCLUDES": EdgeKindIncludes,
	"CALLS":    EdgeKindCalls,
}

// FromSerializable reconstructs a frozen Graph from its serialized form.
// Node/edge insertion order is not preserved (maps never guaranteed it),
// but every secondary index is rebuilt identically to a direct build.
func FromSerializable(s *SerializableGraph) *Graph {
	g := NewGraph(s.ProjectRoot)
	for _, n := range s.Nodes {
		_ = g.AddNode(&Node{ID: n.ID, Kind: nodeKindFromName[n.Kind], Properties: n.Properties})
	}
	for _, e := range s.Edges {
		_ = g.AddEdge(&Edge{FromID: e.FromID, ToID: e.ToID, Kind: edgeKindFromName[e.Kind], FilePath: e.FilePath})
	}
	g.Freeze()
	g.BuiltAtMilli = s.BuiltAtMilli
	return g
}
