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

import "bytes"

// chunkTargetK picks k in chunk-count ≈ W*k, small enough to
// keep chunks balanced without fragmenting work into tiny slices.
const chunkTargetK = 3

// splitDocuments scans raw for lines starting with "---" (the YAML
// stream document separator) and returns the byte offset where each
// document begins: the start of its "---" line, since a tag like
// "!Symbol" may follow the marker on the same line. Offset 0 always
// begins the first document, whether or not it is preceded by a marker.
func splitDocuments(raw []byte) []int {
	if len(raw) == 0 {
		return nil
	}
	bounds := []int{0}
	lineStart := 0
	for lineStart < len(raw) {
		nl := bytes.IndexByte(raw[lineStart:], '\n')
		var line []byte
		if nl < 0 {
			line = raw[lineStart:]
		} else {
			line = raw[lineStart : lineStart+nl]
		}
		if lineStart != 0 && bytes.HasPrefix(line, []byte("---")) {
			bounds = append(bounds, lineStart)
		}
		if nl < 0 {
			break
		}
		lineStart += nl + 1
	}
	return bounds
}

// chunkByDocumentBoundaries slices raw into roughly targetChunks pieces,
// each piece a whole number of YAML documents, never splitting one.
//
// Description:
//
//	Given worker count W, targets chunk count ≈ W*chunkTargetK for load
//	balance. If there are fewer documents than that target, one document
//	per chunk is used instead (never fewer chunks than documents, never
//	more).
//
// Outputs:
//
//	[][]byte - Owned byte slices, one per chunk; never aliases raw's
//	           backing array beyond what Go slicing naturally shares.
func chunkByDocumentBoundaries(raw []byte, workers int) [][]byte {
	bounds := splitDocuments(raw)
	if len(bounds) == 0 {
		return nil
	}
	numDocs := len(bounds)
	targetChunks := workers * chunkTargetK
	if targetChunks <= 0 {
		targetChunks = 1
	}
	if targetChunks > numDocs {
		targetChunks = numDocs
	}

	docsPerChunk := numDocs / targetChunks
	if docsPerChunk == 0 {
		docsPerChunk = 1
	}

	chunks := make([][]byte, 0, targetChunks+1)
	for i := 0; i < numDocs; i += docsPerChunk {
		start := bounds[i]
		var end int
		if i+docsPerChunk < numDocs {
			end = bounds[i+docsPerChunk]
		} else {
			end = len(raw)
		}
		chunks = append(chunks, raw[start:end])
	}
	return chunks
}
