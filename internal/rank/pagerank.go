// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Implements: prd004-relevance-ranking R1;
//
//	docs/ARCHITECTURE § Relevance Ranking.
package rank

import (
	"errors"
	"math"
)

const (
	damping       = 0.85
	maxIterations = 100
	tolerance     = 1e-6
)

// ErrDegenerate is returned when the personalization vector has no mass on
// any graph node, so the walk has nowhere to restart.
var ErrDegenerate = errors.New("degenerate personalization vector")

// weightedEdge is the adjacency form consumed by the PageRank loop.
type weightedEdge struct {
	from, to int
	weight   float64
}

// pageRank computes the stationary distribution of a weighted random walk
// over nodes. A non-nil personalization map biases both the teleport
// distribution and the dangling-node distribution toward its keys; weights
// are normalized internally. A nil map means a uniform prior.
func pageRank(nodes []string, edges []weightedEdge, personalization map[string]float64) (map[string]float64, error) {
	n := len(nodes)
	if n == 0 {
		return map[string]float64{}, nil
	}

	pvec := make([]float64, n)
	if personalization == nil {
		for i := range pvec {
			pvec[i] = 1.0 / float64(n)
		}
	} else {
		total := 0.0
		for i, node := range nodes {
			pvec[i] = personalization[node]
			total += pvec[i]
		}
		if total == 0 {
			return nil, ErrDegenerate
		}
		for i := range pvec {
			pvec[i] /= total
		}
	}

	outWeight := make([]float64, n)
	for _, e := range edges {
		outWeight[e.from] += e.weight
	}

	rank := make([]float64, n)
	for i := range rank {
		rank[i] = 1.0 / float64(n)
	}

	next := make([]float64, n)
	for iter := 0; iter < maxIterations; iter++ {
		for i := range next {
			next[i] = (1.0 - damping) * pvec[i]
		}

		// Dangling nodes hand their mass to the restart distribution.
		danglingSum := 0.0
		for i := 0; i < n; i++ {
			if outWeight[i] == 0 {
				danglingSum += rank[i]
			}
		}
		if danglingSum > 0 {
			for i := range next {
				next[i] += damping * danglingSum * pvec[i]
			}
		}

		for _, e := range edges {
			next[e.to] += damping * rank[e.from] * (e.weight / outWeight[e.from])
		}

		diff := 0.0
		for i := range rank {
			diff += math.Abs(next[i] - rank[i])
		}
		copy(rank, next)
		if diff < tolerance {
			break
		}
	}

	result := make(map[string]float64, n)
	for i, node := range nodes {
		result[node] = rank[i]
	}
	return result, nil
}
