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

	"github.com/aleutian-oss/cxgraph/internal/model"
	"github.com/aleutian-oss/cxgraph/internal/spanprovider"
)

// SpanAttachStats counts what AttachSpans did, for orchestrator logging.
type SpanAttachStats struct {
	Attached   int
	Mismatched int
}

type spanKey struct {
	name    string
	fileURI string
	line    int
	column  int
}

// AttachSpans matches each FunctionSpan against a Function Symbol by the
// composite key (name, file_uri, definition_line, definition_column) and
// writes the span onto Symbol.BodyLocation. A span that matches no
// Function Symbol is counted in Mismatched rather than returned as an
// error, since a single bad match is never fatal to the run. A Symbol
// that no span matches is left span-less, is not counted, and becomes
// unresolvable as a caller by SpatialStrategy.
func AttachSpans(symbols *model.SymbolMap, spans iter.Seq[spanprovider.FunctionSpan]) SpanAttachStats {
	index := make(map[spanKey]*model.Symbol)
	for _, sym := range symbols.All() {
		if sym.Kind != model.SymbolKindFunction {
			continue
		}
		loc := sym.SiteLocation()
		if loc == nil {
			continue
		}
		index[spanKey{name: sym.Name, fileURI: loc.FileURI, line: loc.Line, column: loc.Column}] = sym
	}

	var stats SpanAttachStats
	for span := range spans {
		k := spanKey{name: span.Name, fileURI: span.FileURI, line: span.DefinitionLine, column: span.DefinitionColumn}
		sym, ok := index[k]
		if !ok {
			stats.Mismatched++
			continue
		}
		body := span.Body
		sym.BodyLocation = &body
		stats.Attached++
	}
	return stats
}
