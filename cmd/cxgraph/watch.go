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
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/aleutian-oss/cxgraph/internal/model"
)

// watchDebounce absorbs the burst of Write events a large index
// rewrite produces before triggering a re-ingest.
const watchDebounce = 500 * time.Millisecond

// watchIndex blocks until ctx is canceled, invoking run each time the
// index file at indexPath is rewritten. The parent directory is watched
// rather than the file itself, since index producers (and editors)
// typically replace the file via rename, which drops a same-file watch.
// A failed re-ingest is logged and the watch continues - the next
// rewrite gets another chance.
func watchIndex(ctx context.Context, indexPath string, debounce time.Duration, logger *slog.Logger, run func(context.Context) error) error {
	abs, err := filepath.Abs(indexPath)
	if err != nil {
		return fmt.Errorf("%w: resolve %s: %v", model.ErrInvalidConfig, indexPath, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("%w: create watcher: %v", model.ErrIO, err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("%w: watch %s: %v", model.ErrIO, filepath.Dir(abs), err)
	}
	logger.Info("watching index for changes", slog.String("path", abs))

	// The timer is armed by events and fires once the burst settles.
	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("index watcher error", slog.String("error", err.Error()))

		case <-timer.C:
			logger.Info("index changed, re-ingesting", slog.String("path", abs))
			if err := run(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				logger.Error("watch-triggered ingest failed", slog.String("error", err.Error()))
			}
		}
	}
}
