// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petar-djukic/ctxmap/internal/cachekey"
	"github.com/petar-djukic/ctxmap/internal/ctxcache"
	"github.com/petar-djukic/ctxmap/internal/extract"
)

const alphaSource = `def helper_function_alpha(value):
    return value * 2

def helper_function_beta(value):
    return value + 1
`

const betaSource = `from a import helper_function_alpha

def main():
    first = helper_function_alpha(1)
    second = helper_function_alpha(2)
    third = helper_function_alpha(3)
    return first + second + third
`

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testRepo writes the two-file helper scenario and returns the root plus
// absolute paths of a.py and b.py.
func testRepo(t *testing.T) (root, aPath, bPath string) {
	t.Helper()
	root = t.TempDir()
	aPath = filepath.Join(root, "a.py")
	bPath = filepath.Join(root, "b.py")
	require.NoError(t, os.WriteFile(aPath, []byte(alphaSource), 0o644))
	require.NoError(t, os.WriteFile(bPath, []byte(betaSource), 0o644))
	return root, aPath, bPath
}

func TestProduceContext_HelperDefinitionSurfaces(t *testing.T) {
	root, aPath, bPath := testRepo(t)
	r := NewRunner(Deps{Root: root, MapTokens: 1024, Logger: quietLogger()})

	out, err := r.ProduceContext(context.Background(), Request{
		CandidateFiles: []string{aPath, bPath},
	})
	require.NoError(t, err)

	assert.Contains(t, out, "a.py:")
	assert.Contains(t, out, "helper_function_alpha",
		"the heavily referenced definition makes the map")
}

func TestProduceContext_FocusFilesExcludedFromOutput(t *testing.T) {
	root, aPath, bPath := testRepo(t)
	r := NewRunner(Deps{Root: root, MapTokens: 1024, Logger: quietLogger()})

	out, err := r.ProduceContext(context.Background(), Request{
		FocusFiles:     []string{aPath},
		CandidateFiles: []string{bPath},
	})
	require.NoError(t, err)

	assert.NotContains(t, out, "a.py", "focus files never render in their own map")
	assert.Contains(t, out, "b.py")
}

func TestProduceContext_Deterministic(t *testing.T) {
	root, aPath, bPath := testRepo(t)
	r := NewRunner(Deps{Root: root, MapTokens: 1024, Refresh: "always", Logger: quietLogger()})

	req := Request{CandidateFiles: []string{aPath, bPath}}
	first, err := r.ProduceContext(context.Background(), req)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	for i := 0; i < 5; i++ {
		again, err := r.ProduceContext(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, first, again, "identical inputs produce identical bytes")
	}
}

func TestProduceContext_ZeroBudget(t *testing.T) {
	root, aPath, _ := testRepo(t)
	r := NewRunner(Deps{Root: root, Logger: quietLogger()})

	out, err := r.ProduceContext(context.Background(), Request{CandidateFiles: []string{aPath}})
	require.NoError(t, err)
	assert.Empty(t, out, "no budget configured means no map")
}

func TestProduceContext_EmptyCandidates(t *testing.T) {
	root, _, _ := testRepo(t)
	r := NewRunner(Deps{Root: root, MapTokens: 1024, Logger: quietLogger()})

	out, err := r.ProduceContext(context.Background(), Request{})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestProduceContext_MissingCandidateSkipped(t *testing.T) {
	root, aPath, bPath := testRepo(t)
	r := NewRunner(Deps{Root: root, MapTokens: 1024, Logger: quietLogger()})

	out, err := r.ProduceContext(context.Background(), Request{
		CandidateFiles: []string{aPath, bPath, filepath.Join(root, "ghost.py")},
	})
	require.NoError(t, err)
	assert.Contains(t, out, "helper_function_alpha")
	assert.NotContains(t, out, "ghost.py")
}

func TestProduceContext_FilesRefreshMemoizes(t *testing.T) {
	root, aPath, bPath := testRepo(t)
	e := extract.NewExtractor()
	r := NewRunner(Deps{Root: root, MapTokens: 1024, Extractor: e, Refresh: "files", Logger: quietLogger()})

	req := Request{CandidateFiles: []string{aPath, bPath}}
	first, err := r.ProduceContext(context.Background(), req)
	require.NoError(t, err)
	processed := e.Stats().FilesProcessed

	second, err := r.ProduceContext(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, processed, e.Stats().FilesProcessed, "memoized pass touches no files")
}

func TestRepoContext_TooManyFiles(t *testing.T) {
	root, _, _ := testRepo(t)

	fakeFiles := make([]string, maxCandidateFiles+1)
	for i := range fakeFiles {
		fakeFiles[i] = filepath.Join(root, fmt.Sprintf("gen_%05d.py", i))
	}

	r := NewRunner(Deps{
		Root:      root,
		MapTokens: 1024,
		Enumerate: func(string) ([]string, error) { return fakeFiles, nil },
		Logger:    quietLogger(),
	})

	out, err := r.RepoContext(context.Background(), false, false)
	require.NoError(t, err)
	assert.Equal(t, TooLargeSentinel, out)
}

func TestRepoContext_CacheRoundTripSkipsParsing(t *testing.T) {
	root, _, _ := testRepo(t)

	cache, err := ctxcache.Open(ctxcache.Options{Dir: t.TempDir(), Enabled: true})
	require.NoError(t, err)

	e := extract.NewExtractor()
	r := NewRunner(Deps{
		Root:      root,
		MapTokens: 1024,
		Extractor: e,
		Cache:     cache,
		Strategy:  cachekey.StrategySimple,
		Logger:    quietLogger(),
	})

	first, err := r.RepoContext(context.Background(), true, false)
	require.NoError(t, err)
	require.NotEmpty(t, first)
	require.Greater(t, e.Stats().ParseCount, 0)

	e.ResetStats()

	second, err := r.RepoContext(context.Background(), true, false)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Zero(t, e.Stats().ParseCount, "a cache hit performs no parsing at all")
}

func TestRepoContext_ForceRefreshRecomputes(t *testing.T) {
	root, _, _ := testRepo(t)

	cache, err := ctxcache.Open(ctxcache.Options{Dir: t.TempDir(), Enabled: true})
	require.NoError(t, err)

	e := extract.NewExtractor()
	r := NewRunner(Deps{
		Root:      root,
		MapTokens: 1024,
		Extractor: e,
		Cache:     cache,
		Strategy:  cachekey.StrategySimple,
		Refresh:   "always",
		Logger:    quietLogger(),
	})

	first, err := r.RepoContext(context.Background(), true, false)
	require.NoError(t, err)

	before := e.Stats().FilesProcessed
	second, err := r.RepoContext(context.Background(), true, true)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Greater(t, e.Stats().CacheHits+e.Stats().FilesProcessed, before,
		"force refresh walks the files again")
}

func TestInvalidateRepo(t *testing.T) {
	root, _, _ := testRepo(t)

	cache, err := ctxcache.Open(ctxcache.Options{Dir: t.TempDir(), Enabled: true})
	require.NoError(t, err)

	e := extract.NewExtractor()
	r := NewRunner(Deps{
		Root:      root,
		MapTokens: 1024,
		Extractor: e,
		Cache:     cache,
		Strategy:  cachekey.StrategySimple,
		Refresh:   "always",
		Logger:    quietLogger(),
	})

	_, err = r.RepoContext(context.Background(), true, false)
	require.NoError(t, err)
	require.NoError(t, r.InvalidateRepo())

	e.ResetStats()
	_, err = r.RepoContext(context.Background(), true, false)
	require.NoError(t, err)
	assert.Greater(t, e.Stats().CacheHits+e.Stats().ParseCount, 0,
		"invalidation forces recomputation")
}
