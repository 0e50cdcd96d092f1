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

import "errors"

var (
	// ErrGraphFrozen means AddNode/AddEdge/RemoveNode was called after Freeze.
	ErrGraphFrozen = errors.New("graph is frozen")

	// ErrNodeNotFound means AddEdge referenced an endpoint that does not
	// exist yet. The Graph Builder passes are ordered (P1 before P2,
	// P2/P1 before P3/P4) specifically to prevent this.
	ErrNodeNotFound = errors.New("graph node not found")

	// ErrNodeKindConflict means the same node ID was added twice with
	// different kinds - a builder bug, since IDs are namespaced per kind.
	ErrNodeKindConflict = errors.New("graph node kind conflict")

	// ErrGraphCapacity means MaxNodes or MaxEdges was reached.
	ErrGraphCapacity = errors.New("graph capacity exceeded")
)
