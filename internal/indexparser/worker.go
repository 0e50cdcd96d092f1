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
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/aleutian-oss/cxgraph/internal/model"
)

// unlinkedReference is a Reference that has not yet been pushed into its
// target Symbol's reference list, because the merge phase has not run
// yet and workers never share state.
type unlinkedReference struct {
	targetID model.SymbolID
	ref      model.Reference
}

// chunkResult is the pure output of parsing one chunk: symbols found in
// this chunk (never referencing symbols from another chunk) and the
// flat list of references still awaiting their target lookup.
type chunkResult struct {
	symbols    map[model.SymbolID]*model.Symbol
	references []unlinkedReference
}

// normalizeTabs converts tab characters to single spaces. The upstream
// index producer emits tabs that a strict YAML parser rejects as
// indentation; this is applied before any document in the chunk is
// tokenised.
func normalizeTabs(chunk []byte) []byte {
	return bytes.ReplaceAll(chunk, []byte{'\t'}, []byte{' '})
}

// parseChunk is a pure function of its input: given a byte chunk holding
// whole YAML documents, it returns every !Symbol and !Refs document
// found, ignoring unknown tags silently. It shares no state with other
// workers and has no side effects, so chunks: W of these can run
// concurrently with no synchronisation.
//
// Outputs:
//
//	*chunkResult - Never nil on success.
//	error - Wraps model.ErrYamlSyntax on malformed input, identifying
//	        this chunk's zero-based document index within itself.
func parseChunk(chunk []byte) (*chunkResult, error) {
	result := &chunkResult{symbols: make(map[model.SymbolID]*model.Symbol)}

	normalized := normalizeTabs(chunk)
	dec := yaml.NewDecoder(bytes.NewReader(normalized))

	docIndex := 0
	for {
		var node yaml.Node
		err := dec.Decode(&node)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: document %d: %v", model.ErrYamlSyntax, docIndex, err)
		}

		if err := parseDocument(&node, result); err != nil {
			if errors.Is(err, model.ErrDuplicateSymbolID) {
				return nil, fmt.Errorf("document %d: %w", docIndex, err)
			}
			return nil, fmt.Errorf("%w: document %d: %v", model.ErrYamlSyntax, docIndex, err)
		}
		docIndex++
	}

	return result, nil
}

// parseDocument dispatches a single decoded YAML document by its tag.
// Decoder.Decode(&yaml.Node) yields a DocumentNode whose sole child,
// Content[0], is the actual tagged value (the !Symbol or !Refs
// mapping); the custom tag lives there, not on the document wrapper.
func parseDocument(doc *yaml.Node, result *chunkResult) error {
	if doc.Kind == 0 || len(doc.Content) == 0 {
		// Empty document (e.g. trailing separator with nothing after it).
		return nil
	}
	node := doc.Content[0]

	switch node.Tag {
	case "!Symbol":
		var doc symbolDoc
		if err := node.Decode(&doc); err != nil {
			return err
		}
		sym, err := symbolFromDoc(doc)
		if err != nil {
			return err
		}
		if _, dup := result.symbols[sym.ID]; dup {
			return fmt.Errorf("%w: %s", model.ErrDuplicateSymbolID, sym.ID)
		}
		result.symbols[sym.ID] = sym

	case "!Refs":
		var doc refsDoc
		if err := node.Decode(&doc); err != nil {
			return err
		}
		targetID, err := model.ParseSymbolID(doc.ID)
		if err != nil {
			return err
		}
		for _, entry := range doc.Refs {
			var containerID model.SymbolID
			if entry.Container != "" {
				containerID, err = model.ParseSymbolID(entry.Container)
				if err != nil {
					return err
				}
			}
			result.references = append(result.references, unlinkedReference{
				targetID: targetID,
				ref: model.Reference{
					Kind:        model.ReferenceKind(entry.Kind),
					Location:    *entry.Location.toModel(),
					ContainerID: containerID,
				},
			})
		}

	default:
		// Unknown tags are skipped silently, per the YAML dialect note.
	}

	return nil
}

func symbolFromDoc(doc symbolDoc) (*model.Symbol, error) {
	id, err := model.ParseSymbolID(doc.ID)
	if err != nil {
		return nil, err
	}
	return &model.Symbol{
		ID:         id,
		Name:       doc.Name,
		Kind:       model.ParseSymbolKind(doc.Kind),
		Declaration: doc.CanonicalDeclaration.toModel(),
		Definition:  doc.Definition.toModel(),
		Signature:   doc.Signature,
		ReturnType:  doc.ReturnType,
		Scope:       doc.Scope,
	}, nil
}
