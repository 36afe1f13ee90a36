// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package rank

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsImportant(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"README.md", true},
		{"go.mod", true},
		{"Dockerfile", true},
		{"./Makefile", true},
		{".github/workflows/ci.yml", true},
		{".github/workflows/release.yml", true},
		{".github/workflows/nested/ci.yml", false},
		{"docs/README.md", false},
		{"main.go", false},
		{"src/Dockerfile", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, IsImportant(tt.path))
		})
	}
}

func TestFilterImportant_PreservesOrder(t *testing.T) {
	in := []string{"main.go", "go.mod", "notes.txt", "README.md"}
	assert.Equal(t, []string{"go.mod", "README.md"}, FilterImportant(in))
}
