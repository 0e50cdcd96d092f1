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

import "github.com/aleutian-oss/cxgraph/internal/graphbuild"

// nodeLabel maps a graphbuild.NodeKind to the Cypher label the Neo4j
// adapter's label-typed MATCH clauses key on.
func nodeLabel(k graphbuild.NodeKind) string {
	switch k {
	case graphbuild.NodeKindProject:
		return "Project"
	case graphbuild.NodeKindFolder:
		return "Folder"
	case graphbuild.NodeKindFile:
		return "File"
	case graphbuild.NodeKindFunction:
		return "Function"
	case graphbuild.NodeKindDataStructure:
		return "DataStructure"
	default:
		return ""
	}
}

// allNodeKinds is the fixed submission order for SubmitNodes: ancestors
// before descendants, matching the order Pass P1/P2 created them in, so
// a MERGE never races a child against a parent that doesn't exist yet
// on a from-empty load.
var allNodeKinds = []graphbuild.NodeKind{
	graphbuild.NodeKindProject,
	graphbuild.NodeKindFolder,
	graphbuild.NodeKindFile,
	graphbuild.NodeKindFunction,
	graphbuild.NodeKindDataStructure,
}
