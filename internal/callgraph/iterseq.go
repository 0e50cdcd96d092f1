// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package callgraph implements the adaptive call-graph extractor: the
// Container strategy (§4.4.a, used when the parser observed at least one
// reference with container provenance) and the Spatial strategy (§4.4.b,
// a fallback driven by a Span Provider's function bodies). Both produce
// an iter.Seq[model.CallRelation] behind the same Strategy interface so
// the orchestrator never needs to know which one ran.
package callgraph

import (
	"iter"

	"github.com/aleutian-oss/cxgraph/internal/model"
)

func seqFromSlice(items []model.CallRelation) iter.Seq[model.CallRelation] {
	return func(yield func(model.CallRelation) bool) {
		for _, it := range items {
			if !yield(it) {
				return
			}
		}
	}
}
