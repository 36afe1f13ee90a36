// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package budget selects the largest ranked-tag prefix whose rendered tree
// fits a token budget.
// Implements: prd006-budget-fit R1;
//
//	docs/ARCHITECTURE § Budget Fitting.
package budget

import (
	"math"

	"github.com/petar-djukic/ctxmap/pkg/types"
)

const (
	// tokensPerTag seeds the first probe of the search: an empirical
	// average of rendered tokens per ranked entry. It only positions the
	// initial midpoint, it never bounds the result.
	tokensPerTag = 25

	// tolerance is the acceptance band around the budget: a candidate
	// within 15% of the target is taken immediately.
	tolerance = 0.15
)

// RenderFunc renders a prefix of the ranked list into context text.
type RenderFunc func(entries []types.RankedTag) string

// EstimateFunc estimates the token count of rendered text.
type EstimateFunc func(text string) float64

// Fit binary-searches over the number of top-ranked entries included. The
// first candidate whose token count lands within the tolerance band is
// accepted immediately; otherwise the best tree not exceeding the budget
// wins, keeping earlier probes on exact token-count ties. If no candidate
// fits, the result is empty rather than oversized.
//
// maxTokens must be positive; callers short-circuit zero budgets.
func Fit(ranked []types.RankedTag, maxTokens float64, render RenderFunc, estimate EstimateFunc) string {
	num := len(ranked)
	lower, upper := 0, num
	bestTree := ""
	bestTokens := 0.0

	middle := num
	if seed := int(maxTokens / tokensPerTag); seed < middle {
		middle = seed
	}

	for lower <= upper {
		tree := render(ranked[:middle])
		numTokens := estimate(tree)
		pctErr := math.Abs(numTokens-maxTokens) / maxTokens

		if (numTokens <= maxTokens && numTokens > bestTokens) || pctErr < tolerance {
			bestTree = tree
			bestTokens = numTokens
			if pctErr < tolerance {
				break
			}
		}

		if numTokens < maxTokens {
			lower = middle + 1
		} else {
			upper = middle - 1
		}
		middle = (lower + upper) / 2
	}

	return bestTree
}
