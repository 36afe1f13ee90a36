// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package extract produces symbol tags from source files using tree-sitter.
// Implements: prd002-tag-extraction R1, R3, R5;
//
//	docs/ARCHITECTURE § Tag Extraction.
package extract

import (
	"context"
	"os"
	"sync"
	"time"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/petar-djukic/ctxmap/pkg/types"
)

// cacheEntry stores extraction results keyed by file path and mod time.
type cacheEntry struct {
	modTime time.Time
	tags    []types.Tag
}

// Extractor extracts def/ref tags from source files. Results are cached per
// relative path and invalidated when the file's mtime changes. Any parse or
// read failure yields zero tags for that file; a failing file never aborts
// the batch.
//
// Implements: prd002-tag-extraction R1.1-R1.6.
type Extractor struct {
	mu    sync.Mutex
	cache map[string]cacheEntry
	stats Stats
}

// Stats tracks extraction statistics. ParseCount counts actual tree-sitter
// parses, so tests can observe that a cached pass performed none.
type Stats struct {
	FilesProcessed int
	FilesSkipped   int
	CacheHits      int
	ParseCount     int
}

// NewExtractor creates a new tag extractor with an empty cache.
func NewExtractor() *Extractor {
	return &Extractor{
		cache: make(map[string]cacheEntry),
	}
}

// Stats returns a snapshot of the extraction counters.
func (e *Extractor) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

// ResetStats zeroes the extraction counters.
func (e *Extractor) ResetStats() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stats = Stats{}
}

// Extract returns the tags for one file. Unsupported languages, unreadable
// files, and parse failures all produce an empty result.
//
// Implements: prd002-tag-extraction R1.2-R1.6, R5.1-R5.3.
func (e *Extractor) Extract(absPath, relPath string) []types.Tag {
	info, err := os.Stat(absPath)
	if err != nil {
		e.mu.Lock()
		e.stats.FilesSkipped++
		e.mu.Unlock()
		return nil
	}

	e.mu.Lock()
	if cached, ok := e.cache[relPath]; ok && cached.modTime.Equal(info.ModTime()) {
		e.stats.CacheHits++
		tags := cached.tags
		e.mu.Unlock()
		return tags
	}
	e.mu.Unlock()

	tags := e.extractUncached(absPath, relPath)

	e.mu.Lock()
	e.stats.FilesProcessed++
	e.cache[relPath] = cacheEntry{modTime: info.ModTime(), tags: tags}
	e.mu.Unlock()

	return tags
}

func (e *Extractor) extractUncached(absPath, relPath string) []types.Tag {
	content, err := os.ReadFile(absPath)
	if err != nil {
		return nil
	}

	spec := resolveLang(absPath, content)
	if spec == nil {
		return nil
	}

	root, err := sitter.ParseCtx(context.Background(), content, spec.lang)
	e.mu.Lock()
	e.stats.ParseCount++
	e.mu.Unlock()
	if err != nil || root == nil {
		return nil
	}

	var tags []types.Tag
	sawDef := false
	sawRef := false

	if q, qerr := spec.defPatterns(); qerr == nil && q != nil {
		for _, c := range runQuery(q, root, content) {
			sawDef = true
			tags = append(tags, types.Tag{
				RelPath: relPath,
				AbsPath: absPath,
				Line:    c.line,
				Name:    c.name,
				Kind:    types.Definition,
			})
		}
	}

	if q, qerr := spec.refPatterns(); qerr == nil && q != nil {
		for _, c := range runQuery(q, root, content) {
			sawRef = true
			tags = append(tags, types.Tag{
				RelPath: relPath,
				AbsPath: absPath,
				Line:    c.line,
				Name:    c.name,
				Kind:    types.Reference,
			})
		}
	}

	// Definitions without any references: the grammar only tags defs, so
	// backfill references from the raw identifier tokens. Positions are
	// unknown, which keeps fan-in ranking meaningful without pretending to
	// precise locations.
	if sawDef && !sawRef {
		for _, name := range identifierTokens(content) {
			tags = append(tags, types.Tag{
				RelPath: relPath,
				AbsPath: absPath,
				Line:    -1,
				Name:    name,
				Kind:    types.Reference,
			})
		}
	}

	return tags
}

// capture holds a captured symbol name and its location.
type capture struct {
	name string
	line int
}

// runQuery executes a compiled query and returns captured names with
// 1-based line numbers, deduplicated by (name, line).
func runQuery(q *sitter.Query, root *sitter.Node, content []byte) []capture {
	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(q, root)

	seen := make(map[capture]bool)
	var results []capture

	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}
		for _, c := range m.Captures {
			got := capture{
				name: c.Node.Content(content),
				line: int(c.Node.StartPoint().Row) + 1,
			}
			if got.name == "" || seen[got] {
				continue
			}
			seen[got] = true
			results = append(results, got)
		}
	}

	return results
}
