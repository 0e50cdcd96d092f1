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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aleutian-oss/cxgraph/internal/model"
)

const sampleChunk = `--- !Symbol
id: "000000000000000a"
name: "A"
kind: "function"
definition:
  file_uri: "file:///proj/src/x.c"
  line: 10
  column: 5
--- !Symbol
id: "000000000000000b"
name: "B"
kind: "function"
definition:
  file_uri: "file:///proj/src/x.c"
  line: 20
  column: 5
--- !Refs
id: "000000000000000b"
refs:
  - kind: 20
    location:
      file_uri: "file:///proj/src/x.c"
      line: 12
      column: 9
    container: "000000000000000a"
`

func TestParseChunkSymbolsAndRefs(t *testing.T) {
	result, err := parseChunk([]byte(sampleChunk))
	require.NoError(t, err)

	assert.Len(t, result.symbols, 2)
	assert.Len(t, result.references, 1)

	idB, err := model.ParseSymbolID("000000000000000b")
	require.NoError(t, err)
	assert.Equal(t, idB, result.references[0].targetID)
	assert.True(t, result.references[0].ref.Kind.IsModernCall())
}

func TestParseChunkSkipsUnknownTags(t *testing.T) {
	chunk := "--- !Something\nfoo: bar\n--- !Symbol\nid: \"0000000000000001\"\nname: \"X\"\nkind: \"struct\"\n"
	result, err := parseChunk([]byte(chunk))
	require.NoError(t, err)
	assert.Len(t, result.symbols, 1)
}

func TestParseChunkRejectsMalformedYAML(t *testing.T) {
	chunk := "--- !Symbol\nid: \"a\n"
	_, err := parseChunk([]byte(chunk))
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrYamlSyntax))
}

func TestParseChunkHandlesTabs(t *testing.T) {
	chunk := "--- !Symbol\n\tid: \"0000000000000002\"\n\tname: \"Y\"\n\tkind: \"enum\"\n"
	result, err := parseChunk([]byte(chunk))
	require.NoError(t, err)
	assert.Len(t, result.symbols, 1)
}

func TestParseChunkEmptyChunk(t *testing.T) {
	result, err := parseChunk([]byte(""))
	require.NoError(t, err)
	assert.Empty(t, result.symbols)
	assert.Empty(t, result.references)
}

func TestParseChunkZeroContainerIsNoContainer(t *testing.T) {
	chunk := `--- !Refs
id: "0000000000000003"
refs:
  - kind: 4
    location:
      file_uri: "file:///proj/src/y.c"
      line: 1
      column: 1
    container: "0000000000000000"
`
	result, err := parseChunk([]byte(chunk))
	require.NoError(t, err)
	require.Len(t, result.references, 1)
	assert.False(t, result.references[0].ref.HasContainer())
}
