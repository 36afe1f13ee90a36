// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package repomap defines the public interface for ctxmap, a repository
// context ranking library: it distills a codebase into a token-budgeted
// map of its most relevant symbols.
// Implements: prd001-context-interface R1, R2, R3, R6;
//
//	docs/ARCHITECTURE § Context Interface.
package repomap

import (
	"context"
	"errors"
	"time"
)

// Error types for the Service API.
//
// Implements: prd001-context-interface R6.1-R6.2.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrEnumeration   = errors.New("repository enumeration failed")
)

// TooLargeSentinel is returned in place of a context map when the
// repository exceeds the supported file count.
const TooLargeSentinel = "Repository is too large to generate a context map."

// Config configures a Service instance.
//
// Implements: prd001-context-interface R1.1-R1.12.
type Config struct {
	RootDir          string        // Repository root (required)
	MapTokens        int           // Default token budget (default 2048)
	MaxContextWindow int           // Model context window, 0 disables budget expansion
	MapMulNoFiles    int           // Budget multiplier when no files are in focus (default 8)
	CacheDir         string        // Persistent cache directory (default <RootDir>/.ctxmap/cache)
	CacheTTL         time.Duration // Entry lifetime, 0 = no expiry
	CacheStrategy    string        // auto | git | simple | full (default auto)
	CacheEnabled     bool          // Enable the persistent cache
	CacheMaxBytes    int64         // Cache size bound, 0 = unbounded
	Refresh          string        // auto | always | files | manual (default auto)
	MaxConcurrent    int64         // Concurrent ranking passes (default 4)
}

// Request describes one context-production call. Focus and candidate
// files are absolute paths; mentioned files are repository-relative.
//
// Implements: prd001-context-interface R2.1-R2.3.
type Request struct {
	FocusFiles      []string
	CandidateFiles  []string
	MentionedFiles  map[string]bool
	MentionedIdents map[string]bool
	TokenBudget     int // 0 = Config.MapTokens
	ForceRefresh    bool
}

// Service produces ranked context maps for a repository.
//
// Implements: prd001-context-interface R2, R3, R5.
type Service interface {
	// ProduceContext runs one ranking pass over an explicit focus and
	// candidate set and returns the rendered map. An empty result is
	// valid: it means nothing fit the budget or there was nothing to rank.
	ProduceContext(ctx context.Context, req Request) (string, error)

	// RepoContext enumerates the repository and returns its context map,
	// consulting the persistent cache when enabled. Cache failures degrade
	// to uncached computation.
	RepoContext(ctx context.Context, useCache, forceRefresh bool) (string, error)

	// InvalidateCache removes every cached entry for this repository.
	InvalidateCache() error
}
