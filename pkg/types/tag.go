// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package types defines shared types used across ctxmap packages.
// Implements: prd001-context-interface R5 (shared types).
package types

// TagKind distinguishes symbol definitions from references.
type TagKind int

const (
	Definition TagKind = iota
	Reference
)

// String returns the human-readable name of the tag kind.
func (k TagKind) String() string {
	switch k {
	case Definition:
		return "def"
	case Reference:
		return "ref"
	default:
		return "unknown"
	}
}

// Tag is a located symbol occurrence in a source file, either a definition
// or a reference. Tags are immutable values produced by extraction and
// consumed by graph construction.
//
// Implements: prd002-tag-extraction R1.2.
type Tag struct {
	RelPath string  // Path relative to the repository root
	AbsPath string  // Absolute path on disk
	Line    int     // Line number (1-based); -1 when the position is unknown
	Name    string  // Symbol name
	Kind    TagKind // Definition or Reference
}

// RankedTag is one entry in the relevance-ranked output order: either a
// ranked symbol definition, or a bare file with no ranked symbols (Tag nil).
//
// Implements: prd004-relevance-ranking R3.4.
type RankedTag struct {
	RelPath string
	Tag     *Tag // nil for file-only entries
}
