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
	"time"

	"cloud.google.com/go/storage"

	"github.com/aleutian-oss/cxgraph/internal/model"
)

// GCSSource reads the index from a Google Cloud Storage object, for
// pipelines where the index is built on CI and published to a bucket
// ahead of the ingestion run.
//
// Thread Safety:
//
//	Safe for concurrent use; storage.Client is safe for concurrent use
//	and GCSSource holds no other mutable state.
type GCSSource struct {
	client     *storage.Client
	bucket     string
	object     string
	ownsClient bool
}

// NewGCSSource constructs a source for gs://bucket/object, creating a
// new storage.Client using ambient application-default credentials.
// The returned GCSSource owns the client and closes it in Close.
func NewGCSSource(ctx context.Context, bucket, object string) (*GCSSource, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: new gcs client: %v", model.ErrIO, err)
	}
	return &GCSSource{client: client, bucket: bucket, object: object, ownsClient: true}, nil
}

// NewGCSSourceWithClient constructs a source using a caller-supplied,
// already-authenticated client. The GCSSource does not close it.
func NewGCSSourceWithClient(client *storage.Client, bucket, object string) *GCSSource {
	return &GCSSource{client: client, bucket: bucket, object: object}
}

// Open implements Source.
func (s *GCSSource) Open(ctx context.Context) (ReadCloserWithSize, time.Time, error) {
	obj := s.client.Bucket(s.bucket).Object(s.object)
	attrs, err := obj.Attrs(ctx)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("%w: stat gs://%s/%s: %v", model.ErrIO, s.bucket, s.object, err)
	}
	r, err := obj.NewReader(ctx)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("%w: open gs://%s/%s: %v", model.ErrIO, s.bucket, s.object, err)
	}
	return &gcsReader{Reader: r, size: attrs.Size}, attrs.Updated, nil
}

// Describe implements Source.
func (s *GCSSource) Describe() string {
	return fmt.Sprintf("gs://%s/%s", s.bucket, s.object)
}

// Close releases the underlying storage.Client, if this source created
// it. Safe to call multiple times.
func (s *GCSSource) Close() error {
	if s.ownsClient && s.client != nil {
		return s.client.Close()
	}
	return nil
}

type gcsReader struct {
	*storage.Reader
	size int64
}

func (r *gcsReader) Size() int64 {
	return r.size
}
