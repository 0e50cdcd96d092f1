// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package indexsource abstracts where the compiler-produced YAML index
// physically lives, so the Index Parser only ever deals with an
// io.ReadCloser and a modification time. Two implementations ship here:
// a local-filesystem source and a Google Cloud Storage source for teams
// that build the index on CI and publish it to a bucket.
package indexsource

import (
	"context"
	"time"
)

// Source opens the compiler index for reading and reports its
// modification time, which the Index Parser cache uses to decide
// whether a cached SymbolGraph is still valid.
type Source interface {
	// Open returns a reader positioned at the start of the index stream
	// and the index's modification time, for cache-validity comparison.
	// Callers must Close the returned ReadCloser.
	Open(ctx context.Context) (ReadCloserWithSize, time.Time, error)

	// Describe returns a human-readable identifier (a path or a gs://
	// URL), used for logging and as the source identity in the Index
	// Parser's cache key.
	Describe() string
}

// ReadCloserWithSize is an io.ReadCloser that also knows its total byte
// size up front, which the Index Parser folds into its cache key without
// a separate stat round-trip.
type ReadCloserWithSize interface {
	Read(p []byte) (n int, err error)
	Close() error
	Size() int64
}
