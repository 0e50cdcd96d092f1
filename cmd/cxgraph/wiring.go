// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/dgraph-io/badger/v4"
	"google.golang.org/api/option"

	"github.com/aleutian-oss/cxgraph/internal/config"
	"github.com/aleutian-oss/cxgraph/internal/indexparser"
	"github.com/aleutian-oss/cxgraph/internal/indexsource"
	"github.com/aleutian-oss/cxgraph/internal/model"
	"github.com/aleutian-oss/cxgraph/internal/store"
)

// sourceFor resolves the index-path argument to a Source: a gs:// URL
// becomes a read-only GCS object source, anything else a local file.
func sourceFor(ctx context.Context, indexPath string) (indexsource.Source, func(), error) {
	if !strings.HasPrefix(indexPath, "gs://") {
		return indexsource.NewLocalFileSource(indexPath), func() {}, nil
	}

	rest := strings.TrimPrefix(indexPath, "gs://")
	bucket, object, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || object == "" {
		return nil, nil, fmt.Errorf("%w: malformed GCS URL %q, want gs://bucket/object", model.ErrInvalidConfig, indexPath)
	}

	client, err := storage.NewClient(ctx, option.WithScopes(storage.ScopeReadOnly))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: new gcs client: %v", model.ErrIO, err)
	}
	cleanup := func() { _ = client.Close() }
	return indexsource.NewGCSSourceWithClient(client, bucket, object), cleanup, nil
}

// newParser wires the parser's worker count and, when cacheDir is
// non-empty, a Badger-backed cache.
func newParser(workers int, cacheDir string, logger *slog.Logger) (*indexparser.Parser, func(), error) {
	opts := []indexparser.Option{
		indexparser.WithWorkerCount(workers),
		indexparser.WithLogger(logger),
	}
	cleanup := func() {}

	if cacheDir != "" {
		db, err := badger.Open(badger.DefaultOptions(cacheDir).WithLogger(nil))
		if err != nil {
			return nil, nil, fmt.Errorf("%w: open parser cache at %s: %v", model.ErrIO, cacheDir, err)
		}
		cleanup = func() { _ = db.Close() }
		opts = append(opts, indexparser.WithCache(indexparser.NewCache(db, logger)))
	}

	return indexparser.New(opts...), cleanup, nil
}

// dialStore reads the password out of its enclave only for the duration
// of the dial.
func dialStore(ctx context.Context, cfg *config.IngestConfig, logger *slog.Logger) (*store.Neo4jAdapter, error) {
	creds, err := config.CredentialsFromEnv(NeoPasswordEnv)
	if err != nil {
		return nil, err
	}
	lb, err := creds.Open()
	if err != nil {
		return nil, err
	}
	defer lb.Destroy()

	return store.NewNeo4jAdapter(ctx, cfg.Neo4jURI, cfg.Neo4jUsername, string(lb.Bytes()), cfg.Neo4jDatabase, logger)
}

// sourceFileExtensions are the C/C++ extensions the tree-sitter span
// provider walks for function bodies and includes.
var sourceFileExtensions = map[string]bool{
	".c": true, ".h": true,
	".cc": true, ".cpp": true, ".cxx": true,
	".hh": true, ".hpp": true, ".hxx": true,
}

// collectSourceFiles walks the project root and returns the absolute
// path of every C/C++ source or header, skipping dot-directories.
func collectSourceFiles(projectRoot string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(projectRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if name := d.Name(); name != "." && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if sourceFileExtensions[strings.ToLower(filepath.Ext(path))] {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: walk project root %s: %v", model.ErrIO, projectRoot, err)
	}
	return files, nil
}
