// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package spanprovider

import (
	"context"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"

	"github.com/aleutian-oss/cxgraph/internal/model"
	"github.com/aleutian-oss/cxgraph/internal/pathnorm"
)

// TreeSitterProvider is a minimal C/C++ Provider backed by
// github.com/smacker/go-tree-sitter. It is the default wiring used by
// the CLI and by tests when no external span source is configured; it
// is deliberately small - enough to drive the Spatial strategy
// end-to-end, not a production-grade indexer.
//
// Thread Safety:
//
//	Not safe for concurrent use: sitter.Parser is stateful per call.
//	Construct one TreeSitterProvider per Graph Builder run.
type TreeSitterProvider struct {
	norm  *pathnorm.Normaliser
	files []string // absolute paths to .c/.h/.cc/.cpp/.hpp files, in-project
}

// NewTreeSitterProvider constructs a provider scoped to an explicit
// file list, typically the same file set the Graph Builder's file
// hierarchy pass already discovered.
func NewTreeSitterProvider(norm *pathnorm.Normaliser, absoluteFiles []string) *TreeSitterProvider {
	return &TreeSitterProvider{norm: norm, files: absoluteFiles}
}

func languageFor(path string) *sitter.Language {
	switch filepath.Ext(path) {
	case ".c", ".h":
		return c.GetLanguage()
	case ".cc", ".cpp", ".cxx", ".hpp", ".hh":
		return cpp.GetLanguage()
	default:
		return nil
	}
}

// FunctionSpans implements Provider.
func (p *TreeSitterProvider) FunctionSpans(ctx context.Context) (iter.Seq[FunctionSpan], error) {
	var spans []FunctionSpan

	for _, path := range p.files {
		lang := languageFor(path)
		if lang == nil {
			continue
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: reading %s: %v", model.ErrIO, path, err)
		}

		parser := sitter.NewParser()
		parser.SetLanguage(lang)
		tree, err := parser.ParseCtx(ctx, nil, content)
		if err != nil {
			return nil, fmt.Errorf("%w: parsing %s: %v", model.ErrIO, path, err)
		}

		fileURI := pathnorm.AbsoluteToURI(path)
		spans = append(spans, extractFunctionSpans(tree.RootNode(), content, fileURI)...)
		tree.Close()
		parser.Close()
	}

	return func(yield func(FunctionSpan) bool) {
		for _, s := range spans {
			if !yield(s) {
				return
			}
		}
	}, nil
}

// extractFunctionSpans walks a translation unit for function_definition
// nodes, reporting the defining identifier's position and the node's
// own extent as the body span.
func extractFunctionSpans(root *sitter.Node, content []byte, fileURI string) []FunctionSpan {
	var spans []FunctionSpan

	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n.Type() == "function_definition" {
			if name, nameNode := functionDefinitionName(n, content); nameNode != nil {
				start := n.StartPoint()
				end := n.EndPoint()
				defPoint := nameNode.StartPoint()
				spans = append(spans, FunctionSpan{
					Name:             name,
					FileURI:          fileURI,
					DefinitionLine:   int(defPoint.Row) + 1,
					DefinitionColumn: int(defPoint.Column) + 1,
					Body: model.BodySpan{
						FileURI: fileURI,
						Start:   model.RelativeLocation{Line: int(start.Row) + 1, Column: int(start.Column) + 1},
						End:     model.RelativeLocation{Line: int(end.Row) + 1, Column: int(end.Column) + 1},
					},
				})
			}
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(root)
	return spans
}

// functionDefinitionName descends a function_definition's declarator
// chain (pointer/array/parenthesised wrappers) to find the identifier
// naming the function.
func functionDefinitionName(n *sitter.Node, content []byte) (string, *sitter.Node) {
	declarator := n.ChildByFieldName("declarator")
	for declarator != nil {
		switch declarator.Type() {
		case "identifier", "field_identifier":
			return declarator.Content(content), declarator
		case "function_declarator", "pointer_declarator", "array_declarator", "parenthesized_declarator":
			inner := declarator.ChildByFieldName("declarator")
			if inner == nil {
				return "", nil
			}
			declarator = inner
		default:
			return "", nil
		}
	}
	return "", nil
}

// IncludeEdges implements Provider.
func (p *TreeSitterProvider) IncludeEdges(ctx context.Context) (iter.Seq[model.IncludeEdge], error) {
	known := make(map[string]bool, len(p.files))
	for _, f := range p.files {
		if rel, err := p.norm.ToRelative(f); err == nil {
			known[rel] = true
		}
	}

	var edges []model.IncludeEdge
	for _, path := range p.files {
		lang := languageFor(path)
		if lang == nil {
			continue
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: reading %s: %v", model.ErrIO, path, err)
		}

		parser := sitter.NewParser()
		parser.SetLanguage(lang)
		tree, err := parser.ParseCtx(ctx, nil, content)
		if err != nil {
			return nil, fmt.Errorf("%w: parsing %s: %v", model.ErrIO, path, err)
		}

		includingRel, err := p.norm.ToRelative(path)
		if err != nil {
			tree.Close()
			parser.Close()
			continue
		}
		edges = append(edges, extractIncludeEdges(tree.RootNode(), content, path, includingRel, p.norm, known)...)
		tree.Close()
		parser.Close()
	}

	return func(yield func(model.IncludeEdge) bool) {
		for _, e := range edges {
			if !yield(e) {
				return
			}
		}
	}, nil
}

func extractIncludeEdges(root *sitter.Node, content []byte, absPath, includingRel string, norm *pathnorm.Normaliser, known map[string]bool) []model.IncludeEdge {
	var edges []model.IncludeEdge

	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n.Type() == "preproc_include" {
			if pathNode := n.ChildByFieldName("path"); pathNode != nil {
				text := pathNode.Content(content)
				if pathNode.Type() == "string_literal" {
					target := strings.Trim(text, `"`)
					resolved := filepath.Join(filepath.Dir(absPath), target)
					if rel, err := norm.ToRelative(resolved); err == nil && known[rel] {
						edges = append(edges, model.IncludeEdge{
							IncludingRelPath: includingRel,
							IncludedRelPath:  rel,
						})
					}
				}
				// system_lib_string (<...>) headers are never in-project
				// and are intentionally not resolved.
			}
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(root)
	return edges
}
