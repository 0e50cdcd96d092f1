// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package indexparser

import (
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/aleutian-oss/cxgraph/internal/model"
)

const cacheKeyPrefix = "cxgraph:parse:"

// Cache stores a single gzip-compressed JSON-encoded SymbolMap per
// index source, keyed by a hash of the source's identity plus its
// modification time and byte size. Folding size into the key (in
// addition to the documented mtime check) closes a narrow window where
// a same-second truncation of the index would otherwise look like an
// unchanged file; the external contract "hit requires unchanged mtime"
// is unaffected; a truncation simply can no longer false-hit.
//
// Thread Safety:
//
//	Safe for concurrent use; badger.DB handles its own locking.
type Cache struct {
	db     *badger.DB
	logger *slog.Logger
}

// NewCache wraps an opened Badger handle. The caller owns the handle's
// lifecycle (open and close).
func NewCache(db *badger.DB, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{db: db, logger: logger}
}

// cacheKey derives a stable key from the source identity, its
// modification time, and its byte size.
func cacheKey(sourceDescribe string, modTime time.Time, size int64) string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%s|%d|%d", sourceDescribe, modTime.UnixNano(), size)))
	return cacheKeyPrefix + hex.EncodeToString(h[:16])
}

// Lookup returns a cached SymbolMap if one exists for this exact
// (source, mtime, size) triple. A miss is not an error: the caller
// should fall through to a full parse. A corrupted entry is discarded
// and reported via model.ErrCacheCorrupted, also not fatal - the caller
// falls back to a full reparse.
func (c *Cache) Lookup(sourceDescribe string, modTime time.Time, size int64) (*model.SymbolMap, error) {
	if c == nil || c.db == nil {
		return nil, nil
	}
	key := cacheKey(sourceDescribe, modTime, size)

	var compressed []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			compressed = append([]byte(nil), val...)
			return nil
		})
	})
	if err == badger.ErrKeyNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading cache entry: %v", model.ErrCacheCorrupted, err)
	}

	graph, decodeErr := decodeCacheEntry(compressed)
	if decodeErr != nil {
		c.logger.Warn("parser cache entry corrupted, discarding",
			slog.String("key", key),
			slog.String("error", decodeErr.Error()),
		)
		_ = c.db.Update(func(txn *badger.Txn) error {
			return txn.Delete([]byte(key))
		})
		return nil, fmt.Errorf("%w: %v", model.ErrCacheCorrupted, decodeErr)
	}
	return graph, nil
}

// Store writes graph to the cache under the (source, mtime, size) key.
func (c *Cache) Store(sourceDescribe string, modTime time.Time, size int64, graph *model.SymbolMap) error {
	if c == nil || c.db == nil {
		return nil
	}
	key := cacheKey(sourceDescribe, modTime, size)

	encoded, err := encodeCacheEntry(graph)
	if err != nil {
		return fmt.Errorf("encoding cache entry: %w", err)
	}

	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), encoded)
	})
}

func encodeCacheEntry(graph *model.SymbolMap) ([]byte, error) {
	wire := toWireGraph(graph)
	jsonData, err := json.Marshal(wire)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	gw, err := gzip.NewWriterLevel(&buf, gzip.BestSpeed)
	if err != nil {
		return nil, err
	}
	if _, err := gw.Write(jsonData); err != nil {
		return nil, err
	}
	if err := gw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeCacheEntry(compressed []byte) (*model.SymbolMap, error) {
	gr, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, err
	}
	defer gr.Close()

	jsonData, err := io.ReadAll(gr)
	if err != nil {
		return nil, err
	}

	var wire wireSymbolGraph
	if err := json.Unmarshal(jsonData, &wire); err != nil {
		return nil, err
	}
	if wire.SchemaVersion != cacheSchemaVersion {
		return nil, fmt.Errorf("schema version %q, want %q", wire.SchemaVersion, cacheSchemaVersion)
	}
	return fromWireGraph(wire)
}
