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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLocationString(t *testing.T) {
	l := Location{FileURI: "file:///a.c", Line: 3, Column: 7}
	assert.Equal(t, "file:///a.c:3:7", l.String())
}

func TestLocationBefore(t *testing.T) {
	a := Location{FileURI: "file:///a.c", Line: 1, Column: 5}
	b := Location{FileURI: "file:///a.c", Line: 1, Column: 9}
	c := Location{FileURI: "file:///a.c", Line: 2, Column: 1}

	assert.True(t, a.Before(b))
	assert.False(t, b.Before(a))
	assert.True(t, b.Before(c))
}

func TestLocationRelative(t *testing.T) {
	l := Location{FileURI: "file:///a.c", Line: 4, Column: 2}
	assert.Equal(t, RelativeLocation{Line: 4, Column: 2}, l.Relative())
}

func TestRelativeLocationAtOrBefore(t *testing.T) {
	r := RelativeLocation{Line: 1, Column: 1}
	assert.True(t, r.AtOrBefore(r))
	assert.True(t, r.AtOrBefore(RelativeLocation{Line: 1, Column: 2}))
	assert.False(t, RelativeLocation{Line: 2, Column: 1}.AtOrBefore(r))
}

func TestBodySpanContains(t *testing.T) {
	span := BodySpan{
		FileURI: "file:///a.c",
		Start:   RelativeLocation{Line: 10, Column: 1},
		End:     RelativeLocation{Line: 20, Column: 1},
	}

	assert.True(t, span.Contains(RelativeLocation{Line: 10, Column: 1}))
	assert.True(t, span.Contains(RelativeLocation{Line: 15, Column: 4}))
	assert.True(t, span.Contains(RelativeLocation{Line: 20, Column: 1}))
	assert.False(t, span.Contains(RelativeLocation{Line: 9, Column: 99}))
	assert.False(t, span.Contains(RelativeLocation{Line: 20, Column: 2}))
}

func TestBodySpanAsLocation(t *testing.T) {
	span := BodySpan{
		FileURI: "file:///a.c",
		Start:   RelativeLocation{Line: 10, Column: 1},
		End:     RelativeLocation{Line: 20, Column: 1},
	}
	want := Location{FileURI: "file:///a.c", Line: 10, Column: 1}
	assert.Equal(t, want, span.AsLocation())
}
