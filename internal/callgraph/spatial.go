// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package callgraph

import (
	"iter"
	"log/slog"
	"sort"

	"github.com/aleutian-oss/cxgraph/internal/model"
)

// SpatialStrategy implements §4.4.b: a per-file sorted interval index
// over function body spans, used when the index format carries no
// container provenance at all. Callers must run AttachSpans first - a
// Symbol with no BodyLocation never enters the index and so can never be
// resolved as a caller.
type SpatialStrategy struct {
	Logger *slog.Logger
}

type spatialEntry struct {
	body model.BodySpan
	id   model.SymbolID
}

// buildSpatialIndex groups every body-attached Function symbol by file
// URI, sorted ascending by body start so findContainingFunction can
// binary-search it.
func buildSpatialIndex(symbols *model.SymbolMap) map[string][]spatialEntry {
	index := make(map[string][]spatialEntry)
	for id, sym := range symbols.All() {
		if sym.Kind != model.SymbolKindFunction || sym.BodyLocation == nil {
			continue
		}
		index[sym.BodyLocation.FileURI] = append(index[sym.BodyLocation.FileURI], spatialEntry{body: *sym.BodyLocation, id: id})
	}
	for file := range index {
		entries := index[file]
		sort.Slice(entries, func(i, j int) bool { return entries[i].body.Start.Before(entries[j].body.Start) })
		index[file] = entries
	}
	return index
}

// findContainingFunction binary-searches for the last entry whose body
// starts at or before loc, then scans backward for the one whose body
// actually contains loc. C has no nested function definitions, so at
// most one entry can contain any given location; the backward scan
// exists only because body spans are not required to be contiguous
// (there can be gaps - top-level code, macros expanding between
// functions).
func findContainingFunction(entries []spatialEntry, loc model.RelativeLocation) (model.SymbolID, bool) {
	lo, hi := 0, len(entries)
	for lo < hi {
		mid := (lo + hi) / 2
		if entries[mid].body.Start.AtOrBefore(loc) {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	for i := lo - 1; i >= 0; i-- {
		if entries[i].body.Contains(loc) {
			return entries[i].id, true
		}
	}
	return model.SymbolID{}, false
}

// Extract walks every Symbol's reference list for legacy-format call
// bits (4, 12) and resolves the caller via the spatial index.
func (s SpatialStrategy) Extract(symbols *model.SymbolMap) iter.Seq[model.CallRelation] {
	index := buildSpatialIndex(symbols)

	var relations []model.CallRelation
	for calleeID, callee := range symbols.All() {
		for _, ref := range callee.References {
			if !ref.Kind.IsLegacyCall() {
				continue
			}
			entries, ok := index[ref.Location.FileURI]
			if !ok {
				continue // no function bodies known for this file
			}
			callerID, found := findContainingFunction(entries, ref.Location.Relative())
			if !found {
				continue // top-level initialiser or outside every body
			}
			relations = append(relations, model.CallRelation{
				CallerID: callerID,
				CalleeID: calleeID,
				Site:     ref.Location,
			})
		}
	}
	return seqFromSlice(relations)
}
