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

// Strategy extracts every call relation observable in a frozen symbol
// map. Container and Spatial are interchangeable behind this interface
// per §4.4's strategy-selection requirement.
type Strategy interface {
	Extract(symbols *model.SymbolMap) iter.Seq[model.CallRelation]
}

// SelectStrategy inspects symbols.HasContainerField, set by the Index
// Parser's link phase, to pick the cheaper Container strategy whenever
// the index format supports it, falling back to the Spatial strategy
// (which needs a Span Provider's body_location attachments, see
// AttachSpans) only when it does not.
func SelectStrategy(symbols *model.SymbolMap, logger *slog.Logger) Strategy {
	if logger == nil {
		logger = slog.Default()
	}
	if symbols.HasContainerField {
		return ContainerStrategy{Logger: logger}
	}
	return SpatialStrategy{Logger: logger}
}
