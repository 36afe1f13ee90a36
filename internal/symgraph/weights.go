// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Implements: prd003-symbol-graph R2 (edge weighting).
package symgraph

import "unicode"

const (
	selfEdgeWeight     = 0.1
	mentionedMul       = 10.0
	longNameMul        = 10.0
	longNameLen        = 8
	privateMul         = 0.1
	commonDefinersMul  = 0.1
	commonDefinersMax  = 5
	focusReferencerMul = 50.0
)

// baseMultiplier composes the multiplicative weight for one symbol:
// caller-mentioned identifiers and meaningful multi-word names are boosted,
// private-by-convention and widely-redefined names are damped.
func baseMultiplier(sym string, mentioned bool, definerCount int) float64 {
	mul := 1.0
	if mentioned {
		mul *= mentionedMul
	}
	if (isSnakeCase(sym) || isCamelCase(sym)) && len(sym) >= longNameLen {
		mul *= longNameMul
	}
	if len(sym) > 0 && sym[0] == '_' {
		mul *= privateMul
	}
	if definerCount > commonDefinersMax {
		mul *= commonDefinersMul
	}
	return mul
}

func isSnakeCase(sym string) bool {
	hasUnderscore := false
	hasAlpha := false
	for _, r := range sym {
		if r == '_' {
			hasUnderscore = true
		}
		if unicode.IsLetter(r) {
			hasAlpha = true
		}
	}
	return hasUnderscore && hasAlpha
}

func isCamelCase(sym string) bool {
	hasUpper := false
	hasLower := false
	for _, r := range sym {
		if unicode.IsUpper(r) {
			hasUpper = true
		}
		if unicode.IsLower(r) {
			hasLower = true
		}
	}
	return hasUpper && hasLower
}
