// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package rank scores files with personalized PageRank and distributes each
// file's score across its symbol definitions.
// Implements: prd004-relevance-ranking R1, R2, R3;
//
//	docs/ARCHITECTURE § Relevance Ranking.
package rank

import (
	"sort"

	"github.com/petar-djukic/ctxmap/internal/symgraph"
	"github.com/petar-djukic/ctxmap/pkg/types"
)

// personalizeTotal is the total personalization mass spread uniformly over
// the focus and mentioned files: each gets personalizeTotal / file count.
const personalizeTotal = 100.0

// Params carries the caller context for one ranking pass.
type Params struct {
	FocusFiles     map[string]bool // relative paths; excluded from the output
	MentionedFiles map[string]bool // relative paths named by the caller
	TotalFiles     int             // size of the full candidate + focus set
	OtherFiles     []string        // relative paths of the candidate pool
}

// RankedTags orders symbol definitions by distributed PageRank score. After
// the ranked definitions, convention files and then any remaining candidate
// files are appended as file-only entries, ordered by their raw node score.
// On a degenerate personalization vector the walk is retried without
// personalization; if that also fails the ranking is empty.
//
// Implements: prd004-relevance-ranking R1.1-R1.4, R2.1-R2.3, R3.1-R3.5.
func RankedTags(g *symgraph.Graph, params Params) []types.RankedTag {
	if len(g.Nodes) == 0 {
		return nil
	}

	idx := make(map[string]int, len(g.Nodes))
	for i, node := range g.Nodes {
		idx[node] = i
	}
	edges := make([]weightedEdge, 0, len(g.Edges))
	for _, e := range g.Edges {
		edges = append(edges, weightedEdge{from: idx[e.From], to: idx[e.To], weight: e.Weight})
	}

	var personalization map[string]float64
	if params.TotalFiles > 0 {
		weight := personalizeTotal / float64(params.TotalFiles)
		for _, node := range g.Nodes {
			if params.FocusFiles[node] || params.MentionedFiles[node] {
				if personalization == nil {
					personalization = make(map[string]float64)
				}
				personalization[node] = weight
			}
		}
	}

	scores, err := pageRank(g.Nodes, edges, personalization)
	if err != nil {
		scores, err = pageRank(g.Nodes, edges, nil)
		if err != nil {
			return nil
		}
	}

	// Distribute each node's rank across its outgoing edges proportionally
	// to edge weight, accumulated per (defining file, symbol).
	outWeight := make(map[string]float64)
	for _, e := range g.Edges {
		outWeight[e.From] += e.Weight
	}
	defRank := make(map[symgraph.FileSymbol]float64)
	for _, e := range g.Edges {
		share := scores[e.From] * e.Weight / outWeight[e.From]
		defRank[symgraph.FileSymbol{RelPath: e.To, Symbol: e.Symbol}] += share
	}

	keys := make([]symgraph.FileSymbol, 0, len(defRank))
	for key := range defRank {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		ri, rj := defRank[keys[i]], defRank[keys[j]]
		if ri != rj {
			return ri > rj
		}
		if keys[i].RelPath != keys[j].RelPath {
			return keys[i].RelPath < keys[j].RelPath
		}
		return keys[i].Symbol < keys[j].Symbol
	})

	var ranked []types.RankedTag
	included := make(map[string]bool)
	for _, key := range keys {
		if params.FocusFiles[key.RelPath] {
			continue
		}
		for i := range g.Definitions[key] {
			tag := g.Definitions[key][i]
			ranked = append(ranked, types.RankedTag{RelPath: key.RelPath, Tag: &tag})
		}
		included[key.RelPath] = true
	}

	// File-only entries: convention files first (always structurally
	// important), then the rest of the candidate pool, each group ordered
	// by raw node score.
	byScore := func(paths []string) {
		sort.Slice(paths, func(i, j int) bool {
			si, sj := scores[paths[i]], scores[paths[j]]
			if si != sj {
				return si > sj
			}
			return paths[i] < paths[j]
		})
	}

	var convention, rest []string
	for _, rel := range params.OtherFiles {
		if included[rel] || params.FocusFiles[rel] {
			continue
		}
		if IsImportant(rel) {
			convention = append(convention, rel)
		} else {
			rest = append(rest, rel)
		}
	}
	byScore(convention)
	byScore(rest)

	for _, rel := range convention {
		ranked = append(ranked, types.RankedTag{RelPath: rel})
	}
	for _, rel := range rest {
		ranked = append(ranked, types.RankedTag{RelPath: rel})
	}

	return ranked
}
