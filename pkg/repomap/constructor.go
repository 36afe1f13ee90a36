// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Implements: prd001-context-interface R4;
//
//	docs/ARCHITECTURE § Context Interface.
package repomap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/petar-djukic/ctxmap/internal/cachekey"
	"github.com/petar-djukic/ctxmap/internal/ctxcache"
	"github.com/petar-djukic/ctxmap/internal/service"
)

const (
	defaultMapTokens = 2048
)

// New validates the config, opens the persistent cache when enabled, and
// returns a ready-to-use Service. It does not touch the repository's files;
// that happens on the first context call.
//
// Implements: prd001-context-interface R4.1-R4.3.
func New(cfg Config) (Service, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	applyDefaults(&cfg)

	cache, err := ctxcache.Open(ctxcache.Options{
		Dir:      cfg.CacheDir,
		MaxBytes: cfg.CacheMaxBytes,
		Enabled:  cfg.CacheEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	runner := service.NewRunner(service.Deps{
		Root:             cfg.RootDir,
		Cache:            cache,
		Strategy:         cachekey.Strategy(cfg.CacheStrategy),
		TTL:              cfg.CacheTTL,
		MapTokens:        cfg.MapTokens,
		MaxContextWindow: cfg.MaxContextWindow,
		MapMulNoFiles:    cfg.MapMulNoFiles,
		Refresh:          cfg.Refresh,
		MaxConcurrent:    cfg.MaxConcurrent,
	})

	return &serviceAdapter{runner: runner}, nil
}

// serviceAdapter adapts internal/service.Runner to the public Service
// interface.
type serviceAdapter struct {
	runner *service.Runner
}

func (a *serviceAdapter) ProduceContext(ctx context.Context, req Request) (string, error) {
	return a.runner.ProduceContext(ctx, service.Request{
		FocusFiles:      req.FocusFiles,
		CandidateFiles:  req.CandidateFiles,
		MentionedFiles:  req.MentionedFiles,
		MentionedIdents: req.MentionedIdents,
		TokenBudget:     req.TokenBudget,
		ForceRefresh:    req.ForceRefresh,
	})
}

func (a *serviceAdapter) RepoContext(ctx context.Context, useCache, forceRefresh bool) (string, error) {
	return a.runner.RepoContext(ctx, useCache, forceRefresh)
}

func (a *serviceAdapter) InvalidateCache() error {
	return a.runner.InvalidateRepo()
}

// validateConfig checks that required fields are present.
//
// Implements: prd001-context-interface R1.10-R1.12.
func validateConfig(cfg Config) error {
	if cfg.RootDir == "" {
		return fmt.Errorf("RootDir is required")
	}
	if info, err := os.Stat(cfg.RootDir); err != nil || !info.IsDir() {
		return fmt.Errorf("RootDir %q does not exist or is not a directory", cfg.RootDir)
	}
	switch cfg.CacheStrategy {
	case "", "auto", "git", "simple", "full":
	default:
		return fmt.Errorf("CacheStrategy %q is not one of auto, git, simple, full", cfg.CacheStrategy)
	}
	switch cfg.Refresh {
	case "", "auto", "always", "files", "manual":
	default:
		return fmt.Errorf("Refresh %q is not one of auto, always, files, manual", cfg.Refresh)
	}
	return nil
}

// applyDefaults fills in zero-value fields with their defaults.
func applyDefaults(cfg *Config) {
	if cfg.MapTokens == 0 {
		cfg.MapTokens = defaultMapTokens
	}
	if cfg.CacheStrategy == "" {
		cfg.CacheStrategy = "auto"
	}
	if cfg.Refresh == "" {
		cfg.Refresh = "auto"
	}
	if cfg.CacheDir == "" {
		cfg.CacheDir = filepath.Join(cfg.RootDir, ".ctxmap", "cache")
	}
}
