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

import "github.com/aleutian-oss/cxgraph/internal/model"

// yamlLocation mirrors the Location shape the index producer emits.
type yamlLocation struct {
	FileURI string `yaml:"file_uri"`
	Line    int    `yaml:"line"`
	Column  int    `yaml:"column"`
}

func (l *yamlLocation) toModel() *model.Location {
	if l == nil {
		return nil
	}
	return &model.Location{FileURI: l.FileURI, Line: l.Line, Column: l.Column}
}

// symbolDoc is the payload of a !Symbol-tagged YAML document.
type symbolDoc struct {
	ID                     string        `yaml:"id"`
	Name                   string        `yaml:"name"`
	Kind                   string        `yaml:"kind"`
	CanonicalDeclaration   *yamlLocation `yaml:"canonical_declaration"`
	Definition             *yamlLocation `yaml:"definition"`
	Signature              string        `yaml:"signature"`
	ReturnType             string        `yaml:"return_type"`
	Scope                  string        `yaml:"scope"`
}

// refsEntry is a single entry in a !Refs document's reference list.
type refsEntry struct {
	Kind      int    `yaml:"kind"`
	Location  yamlLocation `yaml:"location"`
	Container string `yaml:"container"`
}

// refsDoc is the payload of a !Refs-tagged YAML document: the target
// symbol id plus every reference to it found in this chunk.
type refsDoc struct {
	ID   string      `yaml:"id"`
	Refs []refsEntry `yaml:"refs"`
}
