// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package treectx renders collapsed source views: the lines of interest and
// their enclosing scope headers are kept, everything else is elided.
// Implements: prd005-tree-render R1, R2;
//
//	docs/ARCHITECTURE § Tree Rendering.
package treectx

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	// maxLineLength bounds every rendered line so minified or generated
	// input cannot blow up the output.
	maxLineLength = 100

	elisionMarker = "⋮..."
	shownPrefix   = "│"
)

// Renderer renders collapsed file views behind two caches: a parsed-context
// cache invalidated on mtime change, and a rendered-output cache keyed by
// the exact lines-of-interest set plus mtime, so repeated budget-search
// probes against one file reuse the expensive parse.
//
// Implements: prd005-tree-render R2.1-R2.4.
type Renderer struct {
	mu       sync.Mutex
	contexts map[string]*fileContext
	rendered map[string]string
	stats    Stats
}

// Stats tracks renderer work, exposed so tests can observe that cached
// passes perform no parsing.
type Stats struct {
	ParseCount  int
	RenderCount int
	CacheHits   int
}

// NewRenderer creates a renderer with empty caches.
func NewRenderer() *Renderer {
	return &Renderer{
		contexts: make(map[string]*fileContext),
		rendered: make(map[string]string),
	}
}

// Stats returns a snapshot of the renderer counters.
func (r *Renderer) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

// ResetRenderCache drops the rendered-output cache. Called once per budget
// fit pass; the parsed-context cache survives and is still keyed by mtime.
func (r *Renderer) ResetRenderCache() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rendered = make(map[string]string)
}

// Render returns the collapsed view of one file around the given 1-based
// lines of interest. Unknown positions (line < 1) are ignored. A file that
// cannot be read renders as empty.
//
// Implements: prd005-tree-render R1.1-R1.5.
func (r *Renderer) Render(absPath, relPath string, lois []int) string {
	info, err := os.Stat(absPath)
	if err != nil {
		return ""
	}
	mtime := info.ModTime()

	filtered := make([]int, 0, len(lois))
	for _, l := range lois {
		if l >= 1 {
			filtered = append(filtered, l-1) // to 0-based
		}
	}
	sort.Ints(filtered)

	key := renderKey(relPath, mtime, filtered)

	r.mu.Lock()
	if out, ok := r.rendered[key]; ok {
		r.stats.CacheHits++
		r.mu.Unlock()
		return out
	}
	fc, ok := r.contexts[relPath]
	r.mu.Unlock()

	if !ok || !fc.mtime.Equal(mtime) {
		fc = newFileContext(absPath, mtime)
		r.mu.Lock()
		r.contexts[relPath] = fc
		if fc.parsed {
			r.stats.ParseCount++
		}
		r.mu.Unlock()
	}

	out := fc.format(filtered)

	r.mu.Lock()
	r.rendered[key] = out
	r.stats.RenderCount++
	r.mu.Unlock()
	return out
}

func renderKey(relPath string, mtime time.Time, sortedLois []int) string {
	var b strings.Builder
	b.WriteString(relPath)
	fmt.Fprintf(&b, "|%d|", mtime.UnixNano())
	for _, l := range sortedLois {
		fmt.Fprintf(&b, "%d,", l)
	}
	return b.String()
}

// truncateLine caps a rendered line at maxLineLength bytes.
func truncateLine(line string) string {
	if len(line) > maxLineLength {
		return line[:maxLineLength]
	}
	return line
}
