// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Implements: prd005-tree-render R1 (scope detection).
package treectx

import (
	"context"
	"os"
	"strings"
	"time"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/petar-djukic/ctxmap/internal/extract"
)

// scope is a multiline syntax node: any line of interest inside it keeps
// the scope's header line visible.
type scope struct {
	start, end int // 0-based line range, inclusive
}

// fileContext is the parsed form of one file, cached per relative path and
// invalidated on mtime change.
type fileContext struct {
	mtime  time.Time
	lines  []string
	scopes []scope
	parsed bool
}

// newFileContext reads and parses a file. Read failures produce an empty
// context; parse failures degrade to rendering without scope headers.
func newFileContext(absPath string, mtime time.Time) *fileContext {
	fc := &fileContext{mtime: mtime}

	content, err := os.ReadFile(absPath)
	if err != nil {
		return fc
	}
	if len(content) == 0 || content[len(content)-1] != '\n' {
		content = append(content, '\n')
	}
	fc.lines = strings.Split(strings.TrimSuffix(string(content), "\n"), "\n")

	lang := extract.Language(absPath, content)
	if lang == nil {
		return fc
	}

	root, err := sitter.ParseCtx(context.Background(), content, lang)
	if err != nil || root == nil {
		return fc
	}
	fc.parsed = true
	collectScopes(root, &fc.scopes)
	return fc
}

// collectScopes walks the tree and records every named multiline node.
func collectScopes(node *sitter.Node, out *[]scope) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		start := int(child.StartPoint().Row)
		end := int(child.EndPoint().Row)
		if end > start {
			*out = append(*out, scope{start: start, end: end})
			collectScopes(child, out)
		}
	}
}

// format renders the collapsed view for a set of 0-based lines of interest:
// the lines themselves plus the header line of every scope containing them,
// with elision markers over the hidden regions.
func (fc *fileContext) format(lois []int) string {
	if len(fc.lines) == 0 || len(lois) == 0 {
		return ""
	}

	show := make(map[int]bool)
	for _, loi := range lois {
		if loi >= len(fc.lines) {
			continue
		}
		show[loi] = true
		for _, s := range fc.scopes {
			if s.start <= loi && loi <= s.end {
				show[s.start] = true
			}
		}
	}
	if len(show) == 0 {
		return ""
	}

	var b strings.Builder
	hidden := false
	for i, line := range fc.lines {
		if show[i] {
			if hidden {
				b.WriteString(elisionMarker + "\n")
				hidden = false
			}
			b.WriteString(truncateLine(shownPrefix+line) + "\n")
		} else {
			hidden = true
		}
	}
	if hidden {
		b.WriteString(elisionMarker + "\n")
	}
	return b.String()
}
