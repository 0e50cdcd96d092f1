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
	"github.com/aleutian-oss/cxgraph/internal/model"
)

// cacheSchemaVersion guards against decoding a cache entry written by an
// incompatible version of this package. Bumped whenever wireSymbol's
// shape changes.
const cacheSchemaVersion = "cxgraph-parser-cache-v1"

// wireSymbolGraph is the JSON-serialisable form of a parsed SymbolMap,
// the payload gzip-compressed and stored in the Badger cache.
type wireSymbolGraph struct {
	SchemaVersion     string       `json:"schema_version"`
	HasContainerField bool         `json:"has_container_field"`
	Symbols           []wireSymbol `json:"symbols"`
}

type wireLocation struct {
	FileURI string `json:"file_uri"`
	Line    int    `json:"line"`
	Column  int    `json:"column"`
}

type wireRelativeLocation struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

type wireBodySpan struct {
	FileURI string               `json:"file_uri"`
	Start   wireRelativeLocation `json:"start"`
	End     wireRelativeLocation `json:"end"`
}

type wireReference struct {
	Kind        int          `json:"kind"`
	Location    wireLocation `json:"location"`
	ContainerID string       `json:"container_id,omitempty"`
}

type wireSymbol struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Kind         string          `json:"kind"`
	Declaration  *wireLocation   `json:"declaration,omitempty"`
	Definition   *wireLocation   `json:"definition,omitempty"`
	Signature    string          `json:"signature,omitempty"`
	ReturnType   string          `json:"return_type,omitempty"`
	Scope        string          `json:"scope,omitempty"`
	References   []wireReference `json:"references,omitempty"`
	BodyLocation *wireBodySpan   `json:"body_location,omitempty"`
}

func toWireLocation(l *model.Location) *wireLocation {
	if l == nil {
		return nil
	}
	return &wireLocation{FileURI: l.FileURI, Line: l.Line, Column: l.Column}
}

func fromWireLocation(l *wireLocation) *model.Location {
	if l == nil {
		return nil
	}
	return &model.Location{FileURI: l.FileURI, Line: l.Line, Column: l.Column}
}

func toWireBodySpan(b *model.BodySpan) *wireBodySpan {
	if b == nil {
		return nil
	}
	return &wireBodySpan{
		FileURI: b.FileURI,
		Start:   wireRelativeLocation{Line: b.Start.Line, Column: b.Start.Column},
		End:     wireRelativeLocation{Line: b.End.Line, Column: b.End.Column},
	}
}

func fromWireBodySpan(b *wireBodySpan) *model.BodySpan {
	if b == nil {
		return nil
	}
	return &model.BodySpan{
		FileURI: b.FileURI,
		Start:   model.RelativeLocation{Line: b.Start.Line, Column: b.Start.Column},
		End:     model.RelativeLocation{Line: b.End.Line, Column: b.End.Column},
	}
}

// toWireGraph serialises a frozen SymbolMap into its JSON wire form.
func toWireGraph(m *model.SymbolMap) wireSymbolGraph {
	out := wireSymbolGraph{
		SchemaVersion:     cacheSchemaVersion,
		HasContainerField: m.HasContainerField,
		Symbols:           make([]wireSymbol, 0, m.Len()),
	}
	for id, sym := range m.All() {
		ws := wireSymbol{
			ID:           id.String(),
			Name:         sym.Name,
			Kind:         sym.Kind.String(),
			Declaration:  toWireLocation(sym.Declaration),
			Definition:   toWireLocation(sym.Definition),
			Signature:    sym.Signature,
			ReturnType:   sym.ReturnType,
			Scope:        sym.Scope,
			BodyLocation: toWireBodySpan(sym.BodyLocation),
		}
		for _, ref := range sym.References {
			ws.References = append(ws.References, wireReference{
				Kind:        int(ref.Kind),
				Location:    *toWireLocation(&ref.Location),
				ContainerID: ref.ContainerID.String(),
			})
		}
		out.Symbols = append(out.Symbols, ws)
	}
	return out
}

// fromWireGraph reconstructs a frozen SymbolMap from its JSON wire form.
func fromWireGraph(w wireSymbolGraph) (*model.SymbolMap, error) {
	m := model.NewSymbolMapWithCapacity(len(w.Symbols))
	m.HasContainerField = w.HasContainerField

	for _, ws := range w.Symbols {
		id, err := model.ParseSymbolID(ws.ID)
		if err != nil {
			return nil, err
		}
		sym := &model.Symbol{
			ID:           id,
			Name:         ws.Name,
			Kind:         model.ParseSymbolKind(ws.Kind),
			Declaration:  fromWireLocation(ws.Declaration),
			Definition:   fromWireLocation(ws.Definition),
			Signature:    ws.Signature,
			ReturnType:   ws.ReturnType,
			Scope:        ws.Scope,
			BodyLocation: fromWireBodySpan(ws.BodyLocation),
		}
		for _, wr := range ws.References {
			var containerID model.SymbolID
			if wr.ContainerID != "" {
				containerID, err = model.ParseSymbolID(wr.ContainerID)
				if err != nil {
					return nil, err
				}
			}
			sym.References = append(sym.References, model.Reference{
				Kind:        model.ReferenceKind(wr.Kind),
				Location:    *fromWireLocation(&wr.Location),
				ContainerID: containerID,
			})
		}
		if err := m.Insert(sym); err != nil {
			return nil, err
		}
	}
	m.Freeze()
	return m, nil
}
