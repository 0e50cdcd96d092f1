// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package vcsdiff turns a unified diff (as produced by `git diff`) into
// the changed-file set the incremental-update entry point needs to know
// which parts of the symbol graph are stale.
package vcsdiff

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sourcegraph/go-diff/diff"

	"github.com/aleutian-oss/cxgraph/internal/model"
)

// ChangeKind classifies one file's change within a diff.
type ChangeKind int

const (
	ChangeUnknown ChangeKind = iota
	ChangeModified
	ChangeAdded
	ChangeDeleted
	ChangeRenamed
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeModified:
		return "modified"
	case ChangeAdded:
		return "added"
	case ChangeDeleted:
		return "deleted"
	case ChangeRenamed:
		return "renamed"
	default:
		return "unknown"
	}
}

// FileChange is one file entry from a parsed diff, with paths already
// stripped of the `a/`/`b/` prefix unified diffs conventionally carry.
type FileChange struct {
	// Path is the file's path after the change (its only path, for
	// Added/Modified/Deleted).
	Path string
	// OldPath is set only for ChangeRenamed.
	OldPath string
	Kind    ChangeKind
}

const devNull = "/dev/null"

// ParseUnifiedDiff parses a multi-file unified diff and classifies each
// file entry. Hunk content is discarded - only the file-level change
// kind and paths matter to the incremental entry point.
func ParseUnifiedDiff(patch []byte) ([]FileChange, error) {
	fileDiffs, err := diff.ParseMultiFileDiff(patch)
	if err != nil {
		return nil, fmt.Errorf("%w: parse unified diff: %v", model.ErrIO, err)
	}

	changes := make([]FileChange, 0, len(fileDiffs))
	for _, fd := range fileDiffs {
		orig := trimDiffPrefix(fd.OrigName)
		newp := trimDiffPrefix(fd.NewName)

		switch {
		case orig == devNull:
			changes = append(changes, FileChange{Path: newp, Kind: ChangeAdded})
		case newp == devNull:
			changes = append(changes, FileChange{Path: orig, Kind: ChangeDeleted})
		case orig != newp:
			changes = append(changes, FileChange{Path: newp, OldPath: orig, Kind: ChangeRenamed})
		default:
			changes = append(changes, FileChange{Path: newp, Kind: ChangeModified})
		}
	}
	return changes, nil
}

// trimDiffPrefix strips the leading `a/` or `b/` unified diff headers
// conventionally add; /dev/null (the added/deleted sentinel) passes
// through unchanged.
func trimDiffPrefix(name string) string {
	if name == devNull {
		return name
	}
	if idx := strings.IndexByte(name, '/'); idx >= 0 {
		return name[idx+1:]
	}
	return name
}

// ChangedPaths flattens a change list to a sorted, deduplicated set of
// every path touched - both sides of a rename, so a reparse can drop the
// old path's derived nodes and add the new one's.
func ChangedPaths(changes []FileChange) []string {
	seen := make(map[string]bool, len(changes))
	var out []string
	add := func(p string) {
		if p == "" || seen[p] {
			return
		}
		seen[p] = true
		out = append(out, p)
	}
	for _, c := range changes {
		add(c.Path)
		add(c.OldPath)
	}
	sort.Strings(out)
	return out
}
