// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package pathnorm converts between the three path representations that
// flow through the ingestion pipeline: the file:// URI form emitted by
// the compiler index, the absolute filesystem form used for all
// in-memory comparisons, and the project-relative form stored on every
// graph boundary edge (file nodes, include edges, definition sites).
package pathnorm

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/aleutian-oss/cxgraph/internal/model"
)

// Normaliser resolves paths against a fixed project root.
//
// Thread Safety:
//
//	Normaliser holds no mutable state after construction and is safe for
//	concurrent use by every parse worker.
type Normaliser struct {
	// root is the absolute, cleaned project root. Every normalised path
	// is compared against this prefix.
	root string
}

// New constructs a Normaliser rooted at projectRoot.
//
// Description:
//
//	projectRoot is cleaned and made absolute immediately so that every
//	comparison downstream operates on a single form, whether the caller
//	passed a relative or an absolute path. Symbolic links are not
//	resolved.
//
// Outputs:
//
//	*Normaliser - Ready for use.
//	error - Non-nil if projectRoot cannot be resolved to an absolute path.
func New(projectRoot string) (*Normaliser, error) {
	if strings.TrimSpace(projectRoot) == "" {
		return nil, ErrEmptyRoot
	}
	abs, err := filepath.Abs(projectRoot)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve project root %q: %v", model.ErrIO, projectRoot, err)
	}
	return &Normaliser{root: filepath.Clean(abs)}, nil
}

// Root returns the absolute, cleaned project root.
func (n *Normaliser) Root() string {
	return n.root
}

// URIToAbsolute converts a file:// URI, as emitted by the index, to an
// absolute filesystem path. Percent-encoded characters are decoded; the
// "file" scheme is required, every other scheme is rejected.
//
// Outputs:
//
//	string - The absolute path.
//	error - Non-nil if uri is not a valid file:// URI.
func URIToAbsolute(uri string) (string, error) {
	parsed, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("%w: parse uri %q: %v", model.ErrIO, uri, err)
	}
	if parsed.Scheme != "file" {
		return "", fmt.Errorf("%w: uri %q has scheme %q, want file", model.ErrIO, uri, parsed.Scheme)
	}
	p := parsed.Path
	if p == "" {
		return "", fmt.Errorf("%w: uri %q has empty path", model.ErrIO, uri)
	}
	return filepath.Clean(p), nil
}

// AbsoluteToURI converts an absolute filesystem path back to a file://
// URI. Inverse of URIToAbsolute modulo path cleaning.
func AbsoluteToURI(abs string) string {
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return u.String()
}

// IsInProject reports whether abs lies at or under the project root.
func (n *Normaliser) IsInProject(abs string) bool {
	rel, err := filepath.Rel(n.root, filepath.Clean(abs))
	if err != nil {
		return false
	}
	return rel == "." || !strings.HasPrefix(rel, "..")
}

// ToRelative converts an absolute path to a project-relative path using
// forward slashes, regardless of host OS. This is the only form ever
// written onto a graph boundary edge.
//
// Outputs:
//
//	string - The project-relative path.
//	error - ErrPathOutsideProject if abs does not resolve under the root.
func (n *Normaliser) ToRelative(abs string) (string, error) {
	cleaned := filepath.Clean(abs)
	if !n.IsInProject(cleaned) {
		return "", fmt.Errorf("%w: %s", model.ErrPathOutsideProject, abs)
	}
	rel, err := filepath.Rel(n.root, cleaned)
	if err != nil {
		return "", fmt.Errorf("%w: %s", model.ErrPathOutsideProject, abs)
	}
	if rel == "." {
		return "", nil
	}
	return filepath.ToSlash(rel), nil
}

// ToAbsolute converts a project-relative path (forward-slashed) back to
// an absolute filesystem path under the root. It does not check that the
// result exists on disk.
//
// Outputs:
//
//	string - The absolute path.
//	error - ErrPathOutsideProject if rel escapes the root (its cleaned
//	form is ".." or starts with "../").
func (n *Normaliser) ToAbsolute(rel string) (string, error) {
	if rel == "" {
		return n.root, nil
	}
	cleanedRel := filepath.Clean(filepath.FromSlash(rel))
	if cleanedRel == ".." || strings.HasPrefix(cleanedRel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", model.ErrPathOutsideProject, rel)
	}
	return filepath.Join(n.root, cleanedRel), nil
}

// URIToRelative is the composition of URIToAbsolute and ToRelative, the
// single call most Index Parser and Graph Builder call sites need.
func (n *Normaliser) URIToRelative(uri string) (string, error) {
	abs, err := URIToAbsolute(uri)
	if err != nil {
		return "", err
	}
	return n.ToRelative(abs)
}

// ErrEmptyRoot is returned by New when given an empty or whitespace-only
// project root, which would make every path trivially "in project".
var ErrEmptyRoot = errors.New("pathnorm: project root must not be empty")
