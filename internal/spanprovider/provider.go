// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package spanprovider defines the abstract collaborator that produces
// function-body spans (for the Spatial call-graph strategy) and include
// edges (for the Graph Builder's include pass). The compiler index never
// carries this information itself, so it is always sourced from a
// second pass over the source tree.
package spanprovider

import (
	"context"
	"iter"

	"github.com/aleutian-oss/cxgraph/internal/model"
)

// FunctionSpan is a function definition's identity and body extent, as
// reported by a Provider. Matching against a Symbol uses the composite
// key (Name, FileURI, DefinitionLine, DefinitionColumn). A FunctionSpan
// that matches no Function Symbol is counted (model.ErrSpanMismatch, not
// fatal) and skipped; a Symbol that no span matches stays span-less and
// is not counted.
type FunctionSpan struct {
	Name             string
	FileURI          string
	DefinitionLine   int
	DefinitionColumn int
	Body             model.BodySpan
}

// Provider abstracts span and include production so the Graph Builder
// and Call-Graph Extractor never depend on a specific parser.
type Provider interface {
	// FunctionSpans yields every function definition this provider can
	// locate. Consumed once per run, by callgraph.AttachSpans.
	FunctionSpans(ctx context.Context) (iter.Seq[FunctionSpan], error)

	// IncludeEdges yields every include relation this provider can
	// locate. Edges whose target does not resolve to a project file are
	// never yielded; the caller does not need to re-filter.
	IncludeEdges(ctx context.Context) (iter.Seq[model.IncludeEdge], error)
}
