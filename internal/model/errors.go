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

import "errors"

// Error taxonomy shared by every pipeline stage (§7). Stages wrap these
// sentinels with fmt.Errorf("...: %w", ...) to add context; callers
// should use errors.Is against these values, never string matching.
var (
	// ErrIO covers file read/write failures. Fatal.
	ErrIO = errors.New("io error")

	// ErrYamlSyntax covers a malformed YAML document in the index.
	// Fatal, surfaced with the offending chunk's document range.
	ErrYamlSyntax = errors.New("yaml syntax error")

	// ErrDuplicateSymbolID means two workers (or two documents) produced
	// the same symbol id. This is a bug in the index, not a recoverable
	// condition - fatal.
	ErrDuplicateSymbolID = errors.New("duplicate symbol id")

	// ErrWorkerCrashed means a parse worker panicked. Fatal.
	ErrWorkerCrashed = errors.New("worker crashed")

	// ErrPathOutsideProject means a file-URI does not resolve under the
	// project root. Filtered silently at normalisation, never fatal.
	ErrPathOutsideProject = errors.New("path outside project")

	// ErrUnresolvedContainer means a Reference's ContainerID does not
	// name a Symbol in the map. The relation is dropped, counted, not
	// fatal.
	ErrUnresolvedContainer = errors.New("unresolved container")

	// ErrSpanMismatch means a Span Provider span matched no Symbol by its
	// composite key. The span is counted and skipped, not fatal.
	ErrSpanMismatch = errors.New("span mismatch")

	// ErrIngestTimeout means a Graph Store Adapter mutation exceeded its
	// deadline. Fatal; the run is expected to reset and retry.
	ErrIngestTimeout = errors.New("ingest timeout")

	// ErrCacheCorrupted means the parser cache failed to deserialise.
	// The cache is discarded and the run falls back to a full parse.
	ErrCacheCorrupted = errors.New("cache corrupted")

	// ErrInvalidConfig means a resolved IngestConfig failed validation
	// before any pass ran. Fatal, surfaced before the graph store is
	// touched.
	ErrInvalidConfig = errors.New("invalid config")
)
