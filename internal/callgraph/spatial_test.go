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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aleutian-oss/cxgraph/internal/model"
)

func bodySpan(file string, startLine, endLine int) model.BodySpan {
	return model.BodySpan{
		FileURI: file,
		Start:   model.RelativeLocation{Line: startLine, Column: 1},
		End:     model.RelativeLocation{Line: endLine, Column: 1},
	}
}

func TestSpatialStrategyResolvesCallerByBodySpan(t *testing.T) {
	m := model.NewSymbolMap()
	file := "file:///a.c"

	fnA := mustID(t, "0000000000000011")
	fnB := mustID(t, "0000000000000012")
	callee := mustID(t, "0000000000000013")

	spanA := bodySpan(file, 1, 5)
	spanB := bodySpan(file, 10, 15)
	require.NoError(t, m.Insert(&model.Symbol{ID: fnA, Kind: model.SymbolKindFunction, BodyLocation: &spanA}))
	require.NoError(t, m.Insert(&model.Symbol{ID: fnB, Kind: model.SymbolKindFunction, BodyLocation: &spanB}))
	require.NoError(t, m.Insert(&model.Symbol{ID: callee, Kind: model.SymbolKindFunction}))

	// A legacy-format call reference sitting inside fnB's body.
	callLoc := model.Location{FileURI: file, Line: 12, Column: 3}
	m.AttachReference(callee, model.Reference{Kind: model.RefKindLegacyCall, Location: callLoc})
	m.Freeze()

	var got []model.CallRelation
	for rel := range (SpatialStrategy{}).Extract(m) {
		got = append(got, rel)
	}
	require.Len(t, got, 1)
	assert.Equal(t, fnB, got[0].CallerID)
	assert.Equal(t, callee, got[0].CalleeID)
}

func TestSpatialStrategyDropsReferenceOutsideAnyBody(t *testing.T) {
	m := model.NewSymbolMap()
	file := "file:///a.c"

	fnA := mustID(t, "0000000000000021")
	callee := mustID(t, "0000000000000022")
	spanA := bodySpan(file, 1, 5)
	require.NoError(t, m.Insert(&model.Symbol{ID: fnA, Kind: model.SymbolKindFunction, BodyLocation: &spanA}))
	require.NoError(t, m.Insert(&model.Symbol{ID: callee, Kind: model.SymbolKindFunction}))

	// Line 50 falls outside fnA's only body span in this file.
	m.AttachReference(callee, model.Reference{Kind: model.RefKindLegacyCallRef, Location: model.Location{FileURI: file, Line: 50, Column: 1}})
	m.Freeze()

	count := 0
	for range (SpatialStrategy{}).Extract(m) {
		count++
	}
	assert.Equal(t, 0, count)
}

func TestSpatialStrategyIgnoresNonLegacyCallBits(t *testing.T) {
	m := model.NewSymbolMap()
	file := "file:///a.c"
	fnA := mustID(t, "0000000000000031")
	callee := mustID(t, "0000000000000032")
	spanA := bodySpan(file, 1, 5)
	require.NoError(t, m.Insert(&model.Symbol{ID: fnA, Kind: model.SymbolKindFunction, BodyLocation: &spanA}))
	require.NoError(t, m.Insert(&model.Symbol{ID: callee, Kind: model.SymbolKindFunction}))

	m.AttachReference(callee, model.Reference{Kind: model.RefKindModernCall, Location: model.Location{FileURI: file, Line: 3, Column: 1}})
	m.Freeze()

	count := 0
	for range (SpatialStrategy{}).Extract(m) {
		count++
	}
	assert.Equal(t, 0, count)
}

func TestFindContainingFunctionBinarySearchAndBackwardScan(t *testing.T) {
	entries := []spatialEntry{
		{id: mustID(t, "0000000000000041"), body: bodySpan("f", 1, 5)},
		{id: mustID(t, "0000000000000042"), body: bodySpan("f", 10, 20)},
		{id: mustID(t, "0000000000000043"), body: bodySpan("f", 30, 40)},
	}

	id, found := findContainingFunction(entries, model.RelativeLocation{Line: 15, Column: 1})
	require.True(t, found)
	assert.Equal(t, entries[1].id, id)

	_, found = findContainingFunction(entries, model.RelativeLocation{Line: 25, Column: 1})
	assert.False(t, found)
}
