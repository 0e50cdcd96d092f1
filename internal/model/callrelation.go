// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package model

// CallRelation is a directed edge (caller, callee, call-site) produced by
// the Call-Graph Extractor. Duplicates are permitted between the same
// pair at distinct call sites; whether they collapse to one graph edge or
// keep multiplicity is an Ingestion Planner concern (§4.5c).
type CallRelation struct {
	CallerID SymbolID
	CalleeID SymbolID
	Site     Location
}

// FileEntry is a project-relative source or header file, derived strictly
// from paths seen by the Graph Builder's file-hierarchy pass.
type FileEntry struct {
	// RelPath is the project-relative path, using forward slashes.
	RelPath string
}

// FolderEntry is a project-relative directory, one ancestor of some
// FileEntry.
type FolderEntry struct {
	RelPath string
}

// ProjectEntry is the root node of the graph.
type ProjectEntry struct {
	// AbsRoot is the absolute path to the project root.
	AbsRoot string

	// CommitID is the optional version-control commit identifier the
	// index was built against.
	CommitID string
}

// IncludeEdge is a directed (including, included) pair of project-relative
// paths. Edges pointing outside the project root are discarded at
// normalisation time, never reaching this type.
type IncludeEdge struct {
	IncludingRelPath string
	IncludedRelPath  string
}
