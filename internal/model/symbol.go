// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package model defines the data types shared by every stage of the
// indexing pipeline: symbols and references parsed from the compiler
// index, the call relations derived from them, and the file-system
// entries that anchor everything to a path.
package model

import "fmt"

// SymbolID is a fixed-width 16-hex-character symbol identifier, carried
// as a byte array rather than a heap string per the id-as-fixed-width-array
// design note: with millions of symbols in a large C++ index, avoiding one
// string header + backing array per id materially reduces GC pressure.
type SymbolID [8]byte

// ZeroSymbolID is the sentinel meaning "no container" on a Reference.
var ZeroSymbolID = SymbolID{}

// IsZero reports whether id is the all-zero sentinel.
func (id SymbolID) IsZero() bool {
	return id == ZeroSymbolID
}

// String renders the id as 16 lowercase hex characters.
func (id SymbolID) String() string {
	return fmt.Sprintf("%016x", id[:])
}

// ParseSymbolID decodes a 16-hex-character string into a SymbolID.
//
// Description:
//
//	Accepts exactly 16 hex characters (case-insensitive). This is the
//	inverse of SymbolID.String and is used both when reading !Symbol/!Refs
//	documents and when round-tripping through the cache.
//
// Outputs:
//
//	SymbolID - The decoded id.
//	error - Non-nil if s is not exactly 16 hex characters.
func ParseSymbolID(s string) (SymbolID, error) {
	var id SymbolID
	if len(s) != 16 {
		return id, fmt.Errorf("symbol id %q: want 16 hex characters, got %d", s, len(s))
	}
	for i := 0; i < 8; i++ {
		hi, ok1 := hexNibble(s[2*i])
		lo, ok2 := hexNibble(s[2*i+1])
		if !ok1 || !ok2 {
			return SymbolID{}, fmt.Errorf("symbol id %q: invalid hex character", s)
		}
		id[i] = hi<<4 | lo
	}
	return id, nil
}

func hexNibble(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	default:
		return 0, false
	}
}

// SymbolKind is the closed set of symbol kinds the index can produce.
type SymbolKind int

const (
	// SymbolKindOther covers every kind this system does not treat as a
	// graph node (typedef, namespace, label, ...).
	SymbolKindOther SymbolKind = iota

	// SymbolKindFunction is a function or method.
	SymbolKindFunction

	// SymbolKindClass is a C++ class.
	SymbolKindClass

	// SymbolKindStruct is a C/C++ struct.
	SymbolKindStruct

	// SymbolKindUnion is a C/C++ union.
	SymbolKindUnion

	// SymbolKindEnum is a C/C++ enum.
	SymbolKindEnum

	// SymbolKindVariable is a free or static variable.
	SymbolKindVariable

	// SymbolKindField is a struct/class/union member.
	SymbolKindField

	// SymbolKindMacro is a preprocessor macro.
	SymbolKindMacro
)

var symbolKindNames = map[SymbolKind]string{
	SymbolKindOther:    "other",
	SymbolKindFunction: "function",
	SymbolKindClass:    "class",
	SymbolKindStruct:   "struct",
	SymbolKindUnion:    "union",
	SymbolKindEnum:     "enum",
	SymbolKindVariable: "variable",
	SymbolKindField:    "field",
	SymbolKindMacro:    "macro",
}

// String returns the lowercase name of the kind.
func (k SymbolKind) String() string {
	if name, ok := symbolKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// ParseSymbolKind maps an index-file kind tag to a SymbolKind.
// Unknown tags map to SymbolKindOther rather than failing the parse -
// the index format evolves faster than this system's node model.
func ParseSymbolKind(s string) SymbolKind {
	for k, name := range symbolKindNames {
		if name == s {
			return k
		}
	}
	return SymbolKindOther
}

// IsGraphNode reports whether a Symbol of this kind becomes a graph node
// (§3 invariant: Function, Class, Struct, Union, Enum only).
func (k SymbolKind) IsGraphNode() bool {
	switch k {
	case SymbolKindFunction, SymbolKindClass, SymbolKindStruct, SymbolKindUnion, SymbolKindEnum:
		return true
	default:
		return false
	}
}

// Symbol is the atomic entity produced by the Index Parser.
//
// Invariants:
//   - ID is immutable and unique within a parse.
//   - At most one of Definition is ever set (no re-definition).
//   - BodyLocation is written exactly once, only by the Span Provider
//     matching pass in the Spatial call-graph strategy.
//
// Thread Safety:
//
//	Symbol is built by a single worker goroutine, then only mutated
//	during the single-threaded link phase (References appended,
//	BodyLocation attached). After the link phase it is read-only.
type Symbol struct {
	// ID is the stable 16-hex-character identifier assigned by the
	// index producer.
	ID SymbolID

	// Name is the display name.
	Name string

	// Kind is the closed-set symbol kind.
	Kind SymbolKind

	// Declaration is the canonical-declaration location, if any.
	Declaration *Location

	// Definition is the definition location, if any.
	Definition *Location

	// Signature is the function signature, set only for functions.
	Signature string

	// ReturnType is the declared return type, set only for functions.
	ReturnType string

	// Scope is the containing scope (namespace/class), if known.
	Scope string

	// References holds every usage site of this symbol. Populated only
	// during the link phase; append-only, then read-only.
	References []Reference

	// BodyLocation is the function body span, attached post-hoc by the
	// Span Provider for Symbols with Kind == SymbolKindFunction. Nil
	// until attached; attachment happens at most once.
	BodyLocation *BodySpan
}

// SiteLocation returns the location a downstream Graph Builder pass
// should treat as this symbol's anchor: the definition site if present,
// otherwise the declaration site.
//
// Outputs:
//
//	*Location - The anchor location, or nil if the symbol has neither.
func (s *Symbol) SiteLocation() *Location {
	if s.Definition != nil {
		return s.Definition
	}
	return s.Declaration
}
