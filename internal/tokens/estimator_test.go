// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package tokens

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimate_Empty(t *testing.T) {
	assert.Zero(t, Heuristic{}.Estimate(""))
}

func TestEstimate_ShortTextCountsWords(t *testing.T) {
	got := Heuristic{}.Estimate("func main() {}")
	// Two words plus four punctuation runes; the exact factor matters less
	// than landing in a plausible band.
	assert.Greater(t, got, 3.0)
	assert.Less(t, got, 12.0)
}

func TestEstimate_ScalesWithLength(t *testing.T) {
	line := "call process_data(input, output)\n"
	small := Heuristic{}.Estimate(strings.Repeat(line, 50))
	large := Heuristic{}.Estimate(strings.Repeat(line, 500))

	assert.Greater(t, large, small*5, "ten times the text estimates much larger")
	assert.InDelta(t, 10.0, large/small, 2.0, "estimate grows roughly linearly")
}

func TestEstimate_UniformLongTextMatchesFullCount(t *testing.T) {
	// Sampling a perfectly uniform text should land close to counting it all.
	line := "alpha beta gamma delta\n"
	text := strings.Repeat(line, 400)

	sampled := Heuristic{}.Estimate(text)
	full := float64(countTokens(text))
	assert.InDelta(t, full, sampled, full*0.05)
}

func TestSplitKeepEnds(t *testing.T) {
	lines := splitKeepEnds("a\nbb\nccc")
	assert.Equal(t, []string{"a\n", "bb\n", "ccc"}, lines)

	total := 0
	for _, l := range lines {
		total += len(l)
	}
	assert.Equal(t, len("a\nbb\nccc"), total, "splitting preserves every byte")
}
