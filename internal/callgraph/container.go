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

	"github.com/aleutian-oss/cxgraph/internal/model"
)

// ContainerStrategy implements §4.4.a: O(N_refs), in-memory, using the
// container_id the index producer attached to modern-format call
// references directly - no Span Provider involvement at all.
type ContainerStrategy struct {
	Logger *slog.Logger
}

// Extract walks every Symbol's reference list once. A reference counts
// as a call when its kind is exactly RefKindModernCall or
// RefKindModernCallRef and it carries a non-zero container_id.
func (s ContainerStrategy) Extract(symbols *model.SymbolMap) iter.Seq[model.CallRelation] {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var relations []model.CallRelation
	for calleeID, callee := range symbols.All() {
		for _, ref := range callee.References {
			if !ref.Kind.IsModernCall() || !ref.HasContainer() {
				continue
			}
			caller, ok := symbols.Get(ref.ContainerID)
			if !ok {
				// The container pointed at something outside the indexed
				// set. Dropped silently per §4.4.a.
				continue
			}
			if caller.Kind != model.SymbolKindFunction {
				logger.Warn("callgraph: container resolved to a non-function symbol",
					slog.String("container_id", caller.ID.String()),
					slog.String("container_kind", caller.Kind.String()),
					slog.String("callee_id", calleeID.String()))
				continue
			}
			relations = append(relations, model.CallRelation{
				CallerID: caller.ID,
				CalleeID: calleeID,
				Site:     ref.Location,
			})
		}
	}
	return seqFromSlice(relations)
}
