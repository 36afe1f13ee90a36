// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Implements: prd004-relevance-ranking R4 (convention files).
package rank

import (
	"path"
	"strings"
)

// conventionFiles are root-level filenames that matter structurally in most
// repositories regardless of whether any code references them.
var conventionFiles = map[string]bool{
	// Version control
	".gitignore":     true,
	".gitattributes": true,
	// Documentation
	"README":          true,
	"README.md":       true,
	"README.txt":      true,
	"README.rst":      true,
	"CONTRIBUTING":    true,
	"CONTRIBUTING.md": true,
	"LICENSE":         true,
	"LICENSE.md":      true,
	"LICENSE.txt":     true,
	"CHANGELOG":       true,
	"CHANGELOG.md":    true,
	"SECURITY.md":     true,
	"CODEOWNERS":      true,
	// Package management and dependencies
	"requirements.txt":  true,
	"pyproject.toml":    true,
	"setup.py":          true,
	"setup.cfg":         true,
	"Pipfile":           true,
	"package.json":      true,
	"package-lock.json": true,
	"yarn.lock":         true,
	"Gemfile":           true,
	"Gemfile.lock":      true,
	"composer.json":     true,
	"pom.xml":           true,
	"build.gradle":      true,
	"build.gradle.kts":  true,
	"build.sbt":         true,
	"go.mod":            true,
	"go.sum":            true,
	"Cargo.toml":        true,
	"Cargo.lock":        true,
	"mix.exs":           true,
	// Configuration
	".env.example":  true,
	".editorconfig": true,
	"tsconfig.json": true,
	".eslintrc":     true,
	".prettierrc":   true,
	".flake8":       true,
	".rubocop.yml":  true,
	"tox.ini":       true,
	"Makefile":      true,
	// Testing
	"pytest.ini":     true,
	"jest.config.js": true,
	// CI/CD
	".travis.yml":           true,
	".gitlab-ci.yml":        true,
	"Jenkinsfile":           true,
	"azure-pipelines.yml":   true,
	".circleci/config.yml":  true,
	".github/dependabot.yml": true,
	"codecov.yml":           true,
	// Containers
	"Dockerfile":          true,
	"docker-compose.yml":  true,
	"docker-compose.yaml": true,
	// Docs tooling
	"mkdocs.yml": true,
}

// IsImportant reports whether a relative path is a repo-convention file:
// a known root-level manifest, license, or CI file, or a GitHub Actions
// workflow.
func IsImportant(relPath string) bool {
	clean := path.Clean(strings.ReplaceAll(relPath, "\\", "/"))
	if path.Dir(clean) == ".github/workflows" && strings.HasSuffix(clean, ".yml") {
		return true
	}
	return conventionFiles[clean]
}

// FilterImportant returns only the convention files from paths, preserving
// input order.
func FilterImportant(paths []string) []string {
	var out []string
	for _, p := range paths {
		if IsImportant(p) {
			out = append(out, p)
		}
	}
	return out
}
