// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Implements: prd002-tag-extraction R3 (reference backfill).
package extract

// identifierTokens scans raw source for identifier-shaped tokens. Every
// occurrence is returned, duplicates included: the graph weights references
// by occurrence count.
func identifierTokens(src []byte) []string {
	var tokens []string
	i := 0
	for i < len(src) {
		c := src[i]
		if isIdentStart(c) {
			j := i + 1
			for j < len(src) && isIdentPart(src[j]) {
				j++
			}
			tokens = append(tokens, string(src[i:j]))
			i = j
			continue
		}
		i++
	}
	return tokens
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
