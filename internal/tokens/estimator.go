// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package tokens estimates token counts for rendered context text. The
// engine never assumes exactness: short texts are counted in full, long
// texts are stride-sampled and extrapolated by length ratio, which is a
// documented behavior rather than a bug.
// Implements: prd006-budget-fit R2;
//
//	docs/ARCHITECTURE § Token Estimation.
package tokens

import (
	"strings"
	"unicode"
)

const (
	// fullCountThreshold is the text length below which every token is
	// counted instead of sampling.
	fullCountThreshold = 200

	// sampleTarget is the approximate number of lines included in a sample.
	sampleTarget = 100
)

// Estimator estimates the token count of a text.
type Estimator interface {
	Estimate(text string) float64
}

// Heuristic is the default estimator: a word/punctuation token heuristic
// with line-stride sampling for long texts.
type Heuristic struct{}

// Estimate returns the approximate token count of text.
func (Heuristic) Estimate(text string) float64 {
	if text == "" {
		return 0
	}
	if len(text) < fullCountThreshold {
		return float64(countTokens(text))
	}

	lines := splitKeepEnds(text)
	step := len(lines) / sampleTarget
	if step == 0 {
		step = 1
	}
	var sample strings.Builder
	for i := 0; i < len(lines); i += step {
		sample.WriteString(lines[i])
	}
	sampleText := sample.String()
	if len(sampleText) == 0 {
		return 0
	}
	sampleTokens := float64(countTokens(sampleText))
	return sampleTokens / float64(len(sampleText)) * float64(len(text))
}

// countTokens approximates BPE tokenization: each word is about 1.3 tokens
// and each punctuation or symbol rune about one.
func countTokens(text string) int {
	words := 0
	special := 0
	inWord := false
	for _, r := range text {
		switch {
		case unicode.IsSpace(r):
			if inWord {
				words++
				inWord = false
			}
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			if inWord {
				words++
				inWord = false
			}
			special++
		default:
			inWord = true
		}
	}
	if inWord {
		words++
	}
	return int(float64(words)*1.3) + special
}

// splitKeepEnds splits text into lines, keeping the trailing newline on each
// line so sampling preserves length ratios.
func splitKeepEnds(text string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			lines = append(lines, text[start:i+1])
			start = i + 1
		}
	}
	if start < len(text) {
		lines = append(lines, text[start:])
	}
	return lines
}
