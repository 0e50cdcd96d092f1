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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aleutian-oss/cxgraph/internal/model"
)

func buildSampleGraph(t *testing.T) *model.SymbolMap {
	t.Helper()
	m := model.NewSymbolMap()

	idA, err := model.ParseSymbolID("000000000000000a")
	require.NoError(t, err)
	idB, err := model.ParseSymbolID("000000000000000b")
	require.NoError(t, err)

	require.NoError(t, m.Insert(&model.Symbol{
		ID:         idA,
		Name:       "A",
		Kind:       model.SymbolKindFunction,
		Definition: &model.Location{FileURI: "file:///proj/src/x.c", Line: 10, Column: 5},
		BodyLocation: &model.BodySpan{
			FileURI: "file:///proj/src/x.c",
			Start:   model.RelativeLocation{Line: 10, Column: 1},
			End:     model.RelativeLocation{Line: 18, Column: 1},
		},
	}))
	require.NoError(t, m.Insert(&model.Symbol{
		ID:         idB,
		Name:       "B",
		Kind:       model.SymbolKindFunction,
		Definition: &model.Location{FileURI: "file:///proj/src/x.c", Line: 20, Column: 5},
	}))

	m.AttachReference(idB, model.Reference{
		Kind:        model.RefKindModernCall,
		Location:    model.Location{FileURI: "file:///proj/src/x.c", Line: 12, Column: 9},
		ContainerID: idA,
	})
	m.HasContainerField = true
	m.Freeze()
	return m
}

func TestWireGraphRoundTrip(t *testing.T) {
	original := buildSampleGraph(t)

	wire := toWireGraph(original)
	assert.Equal(t, cacheSchemaVersion, wire.SchemaVersion)
	assert.True(t, wire.HasContainerField)
	assert.Len(t, wire.Symbols, 2)

	reconstructed, err := fromWireGraph(wire)
	require.NoError(t, err)

	assert.Equal(t, original.Len(), reconstructed.Len())
	assert.True(t, reconstructed.HasContainerField)
	assert.True(t, reconstructed.IsFrozen())

	idB, _ := model.ParseSymbolID("000000000000000b")
	symB, ok := reconstructed.Get(idB)
	require.True(t, ok)
	require.Len(t, symB.References, 1)
	assert.Equal(t, model.RefKindModernCall, symB.References[0].Kind)

	idA, _ := model.ParseSymbolID("000000000000000a")
	symA, ok := reconstructed.Get(idA)
	require.True(t, ok)
	require.NotNil(t, symA.BodyLocation)
	assert.Equal(t, 10, symA.BodyLocation.Start.Line)
}
