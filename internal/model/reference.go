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

// ReferenceKind is the raw bit-kind carried by a !Refs entry. Only a
// handful of its values are meaningful to this system (see IsCall), the
// rest are opaque and preserved only for completeness.
type ReferenceKind int

// Call-bit values this system recognises, per §4.5. Other values (pure
// declaration, pure definition, address-taken, ...) are not calls.
const (
	// RefKindLegacyCall is a call reference from an index producer that
	// does not carry container provenance.
	RefKindLegacyCall ReferenceKind = 4

	// RefKindLegacyCallRef is RefKindLegacyCall with the reference flag set.
	RefKindLegacyCallRef ReferenceKind = 12

	// RefKindModernCall is a call reference carrying a Container field.
	RefKindModernCall ReferenceKind = 20

	// RefKindModernCallRef is RefKindModernCall with the reference flag set.
	RefKindModernCallRef ReferenceKind = 28
)

// IsCall reports whether kind is one of the four call-bit values this
// system recognises.
func (k ReferenceKind) IsCall() bool {
	switch k {
	case RefKindLegacyCall, RefKindLegacyCallRef, RefKindModernCall, RefKindModernCallRef:
		return true
	default:
		return false
	}
}

// IsLegacyCall reports whether kind is a call bit from the legacy
// (no-container) format, consumed by the Spatial strategy.
func (k ReferenceKind) IsLegacyCall() bool {
	return k == RefKindLegacyCall || k == RefKindLegacyCallRef
}

// IsModernCall reports whether kind is a call bit that carries container
// provenance, consumed by the Container strategy.
func (k ReferenceKind) IsModernCall() bool {
	return k == RefKindModernCall || k == RefKindModernCallRef
}

// Reference is a single usage site of a Symbol. References live inside
// their target Symbol's reference list: Symbol X's reference list
// contains all usages *of* X, not usages made *by* X.
type Reference struct {
	// Kind is the raw bit-kind from the index.
	Kind ReferenceKind

	// Location is the usage site.
	Location Location

	// ContainerID names the Symbol whose body lexically contains this
	// reference. ZeroSymbolID means "no container" (§3, boundary
	// behaviour #11).
	ContainerID SymbolID
}

// HasContainer reports whether the reference carries non-zero container
// provenance.
func (r Reference) HasContainer() bool {
	return !r.ContainerID.IsZero()
}
