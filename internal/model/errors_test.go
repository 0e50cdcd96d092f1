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

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorsAreDistinctSentinels(t *testing.T) {
	all := []error{
		ErrIO, ErrYamlSyntax, ErrDuplicateSymbolID, ErrWorkerCrashed,
		ErrPathOutsideProject, ErrUnresolvedContainer, ErrSpanMismatch,
		ErrIngestTimeout, ErrCacheCorrupted, ErrInvalidConfig,
	}
	for i, a := range all {
		for j, b := range all {
			if i == j {
				continue
			}
			assert.False(t, errors.Is(a, b), "%v should not be %v", a, b)
		}
	}
}

func TestWrappedErrorPreservesIs(t *testing.T) {
	wrapped := fmt.Errorf("chunk 3: %w", ErrYamlSyntax)
	assert.True(t, errors.Is(wrapped, ErrYamlSyntax))
	assert.False(t, errors.Is(wrapped, ErrIO))
}
