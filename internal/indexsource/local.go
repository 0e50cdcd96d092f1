// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package indexsource

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/aleutian-oss/cxgraph/internal/model"
)

// LocalFileSource reads the index from the local filesystem. This is
// the common case: the index is built by the same compiler invocation
// that runs the ingestion pipeline, on the same machine or a shared
// volume.
type LocalFileSource struct {
	path string
}

// NewLocalFileSource wraps an absolute or relative filesystem path.
func NewLocalFileSource(path string) *LocalFileSource {
	return &LocalFileSource{path: path}
}

// Open implements Source.
func (s *LocalFileSource) Open(ctx context.Context) (ReadCloserWithSize, time.Time, error) {
	if err := ctx.Err(); err != nil {
		return nil, time.Time{}, err
	}
	f, err := os.Open(s.path)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("%w: open %s: %v", model.ErrIO, s.path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, time.Time{}, fmt.Errorf("%w: stat %s: %v", model.ErrIO, s.path, err)
	}
	return &localFile{File: f, size: info.Size()}, info.ModTime(), nil
}

// Describe implements Source.
func (s *LocalFileSource) Describe() string {
	return s.path
}

type localFile struct {
	*os.File
	size int64
}

func (f *localFile) Size() int64 {
	return f.size
}
