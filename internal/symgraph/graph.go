// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package symgraph aggregates tags into a weighted directed multigraph whose
// nodes are relative file paths and whose edges connect referencing files to
// defining files.
// Implements: prd003-symbol-graph R1, R2;
//
//	docs/ARCHITECTURE § Symbol Graph.
package symgraph

import (
	"math"
	"sort"

	"github.com/petar-djukic/ctxmap/pkg/types"
)

// Edge is a directed edge in the multigraph. Several edges may connect the
// same pair of files, one per symbol.
type Edge struct {
	From   string  // Referencing file (relative path)
	To     string  // Defining file (relative path)
	Symbol string  // Symbol name carried by the edge
	Weight float64
}

// FileSymbol keys the per-(file, symbol) definition sets.
type FileSymbol struct {
	RelPath string
	Symbol  string
}

// Graph is the multigraph plus the auxiliary indexes built alongside it.
// Node and edge order is deterministic. The graph is rebuilt fully on every
// ranking pass; there is no incremental mutation.
type Graph struct {
	Nodes []string // sorted relative paths
	Edges []Edge

	// Definitions holds the concrete definition tags per (file, symbol),
	// sorted by line. Rank distribution resolves through this index.
	Definitions map[FileSymbol][]types.Tag
}

// Params carries the caller context that shapes edge weights.
type Params struct {
	FocusFiles      map[string]bool // relative paths in the caller's focus set
	MentionedIdents map[string]bool // symbols named by the caller
}

// Build constructs the graph from per-file tags. tagsByFile is keyed by
// relative path and must cover every file in the pass, including files with
// no tags.
//
// Implements: prd003-symbol-graph R1.1-R1.5, R2.1-R2.6.
func Build(tagsByFile map[string][]types.Tag, params Params) *Graph {
	g := &Graph{
		Definitions: make(map[FileSymbol][]types.Tag),
	}

	defines := make(map[string]map[string]bool) // symbol → defining files
	references := make(map[string]map[string]int) // symbol → referencer → count
	totalRefs := 0

	for rel := range tagsByFile {
		g.Nodes = append(g.Nodes, rel)
	}
	sort.Strings(g.Nodes)

	for _, rel := range g.Nodes {
		for _, tag := range tagsByFile[rel] {
			switch tag.Kind {
			case types.Definition:
				if defines[tag.Name] == nil {
					defines[tag.Name] = make(map[string]bool)
				}
				defines[tag.Name][rel] = true
				key := FileSymbol{RelPath: rel, Symbol: tag.Name}
				g.Definitions[key] = append(g.Definitions[key], tag)
			case types.Reference:
				if references[tag.Name] == nil {
					references[tag.Name] = make(map[string]int)
				}
				references[tag.Name][rel]++
				totalRefs++
			}
		}
	}

	for _, tags := range g.Definitions {
		sort.Slice(tags, func(i, j int) bool { return tags[i].Line < tags[j].Line })
	}

	// A corpus with definitions but no references at all (every file hit a
	// def-only path and backfill produced nothing) still needs edges: treat
	// each definition as a reference from its own definer.
	if totalRefs == 0 {
		for sym, definers := range defines {
			references[sym] = make(map[string]int)
			for rel := range definers {
				references[sym][rel] = 1
			}
		}
	}

	symbols := make([]string, 0, len(defines))
	for sym := range defines {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	for _, sym := range symbols {
		definers := sortedKeys(defines[sym])

		refs, referenced := references[sym]
		if !referenced {
			// Definition-only symbol: a small self-edge keeps its file in
			// the ranking even when nothing else links to it.
			for _, definer := range definers {
				g.Edges = append(g.Edges, Edge{
					From:   definer,
					To:     definer,
					Symbol: sym,
					Weight: selfEdgeWeight,
				})
			}
			continue
		}

		mul := baseMultiplier(sym, params.MentionedIdents[sym], len(definers))

		for _, referencer := range sortedCountKeys(refs) {
			useMul := mul
			if params.FocusFiles[referencer] {
				useMul *= focusReferencerMul
			}
			// Square root scaling keeps high-frequency mentions from
			// dominating the walk.
			scaled := useMul * math.Sqrt(float64(refs[referencer]))
			for _, definer := range definers {
				g.Edges = append(g.Edges, Edge{
					From:   referencer,
					To:     definer,
					Symbol: sym,
					Weight: scaled,
				})
			}
		}
	}

	return g
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedCountKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
