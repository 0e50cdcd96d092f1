// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package model

import "fmt"

// SymbolMap is a keys-unique mapping from SymbolID to Symbol. It is built
// mutably by the Index Parser (one insertion per worker-merge, one
// reference-push per link-phase step), then frozen for the remainder of
// the pipeline. Insertion order is never significant.
//
// Thread Safety:
//
//	SymbolMap is built by a single goroutine (the merge + link phase runs
//	single-threaded by design, per §4.2 step 5). After Freeze, concurrent
//	readers are race-free because nothing mutates it further.
type SymbolMap struct {
	symbols map[SymbolID]*Symbol

	// HasContainerField is true iff at least one parsed Reference carried
	// a non-zero ContainerID, whether or not its target Symbol was found. Determines which Call-Graph Extractor
	// strategy runs (§4.4).
	HasContainerField bool

	frozen bool
}

// NewSymbolMap creates an empty, mutable SymbolMap.
func NewSymbolMap() *SymbolMap {
	return &SymbolMap{symbols: make(map[SymbolID]*Symbol)}
}

// NewSymbolMapWithCapacity pre-sizes the backing map, useful when the
// caller has already counted documents during chunking.
func NewSymbolMapWithCapacity(n int) *SymbolMap {
	return &SymbolMap{symbols: make(map[SymbolID]*Symbol, n)}
}

// Insert adds sym, keyed by sym.ID. It is an error to insert a second
// Symbol with the same ID - the index format guarantees ids are unique,
// so a collision here is a bug in the input (DuplicateSymbolId).
func (m *SymbolMap) Insert(sym *Symbol) error {
	if m.frozen {
		return fmt.Errorf("symbol map is frozen")
	}
	if _, exists := m.symbols[sym.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateSymbolID, sym.ID)
	}
	m.symbols[sym.ID] = sym
	return nil
}

// Get looks up a Symbol by id.
func (m *SymbolMap) Get(id SymbolID) (*Symbol, bool) {
	s, ok := m.symbols[id]
	return s, ok
}

// Len returns the number of symbols in the map.
func (m *SymbolMap) Len() int {
	return len(m.symbols)
}

// Freeze marks the map read-only. Further Insert calls fail.
func (m *SymbolMap) Freeze() {
	m.frozen = true
}

// IsFrozen reports whether the map has been frozen.
func (m *SymbolMap) IsFrozen() bool {
	return m.frozen
}

// All returns an iterator over every symbol in the map. Safe to call
// concurrently once the map is frozen.
func (m *SymbolMap) All() func(yield func(SymbolID, *Symbol) bool) {
	return func(yield func(SymbolID, *Symbol) bool) {
		for id, sym := range m.symbols {
			if !yield(id, sym) {
				return
			}
		}
	}
}

// AttachReference appends ref to the reference list of the Symbol with id
// target. Used only during the link phase; it is a programming error to
// call this after Freeze.
func (m *SymbolMap) AttachReference(target SymbolID, ref Reference) (found bool) {
	sym, ok := m.symbols[target]
	if !ok {
		return false
	}
	sym.References = append(sym.References, ref)
	return true
}
