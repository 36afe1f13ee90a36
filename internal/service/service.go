// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package service orchestrates extraction, graph construction, ranking,
// budget fitting and caching into a single context-production call.
// Implements: prd001-context-interface R2, R3, R6;
//
//	docs/ARCHITECTURE § Service.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"github.com/petar-djukic/ctxmap/internal/budget"
	"github.com/petar-djukic/ctxmap/internal/cachekey"
	"github.com/petar-djukic/ctxmap/internal/ctxcache"
	"github.com/petar-djukic/ctxmap/internal/extract"
	"github.com/petar-djukic/ctxmap/internal/rank"
	"github.com/petar-djukic/ctxmap/internal/scan"
	"github.com/petar-djukic/ctxmap/internal/symgraph"
	"github.com/petar-djukic/ctxmap/internal/tokens"
	"github.com/petar-djukic/ctxmap/internal/treectx"
	"github.com/petar-djukic/ctxmap/pkg/types"
)

// TooLargeSentinel is returned instead of a ranked map for repositories
// whose candidate set exceeds the file limit.
const TooLargeSentinel = "Repository is too large to generate a context map."

const (
	// maxCandidateFiles bounds the repositories the engine will rank.
	maxCandidateFiles = 10000

	// contextPadding is reserved when expanding the budget toward the
	// model context window.
	contextPadding = 4096

	// slowPassThreshold gates memo reuse in auto refresh mode: only passes
	// slower than this are worth memoizing.
	slowPassThreshold = time.Second

	maxLineLength = 100

	defaultMapMulNoFiles = 8
	defaultMaxConcurrent = 4
)

// Request describes one context-production call. Focus and candidate files
// are absolute paths; mentioned files are repository-relative.
type Request struct {
	FocusFiles      []string
	CandidateFiles  []string
	MentionedFiles  map[string]bool
	MentionedIdents map[string]bool
	TokenBudget     int
	ForceRefresh    bool
}

// Deps wires the runner's collaborators. Zero values get defaults in
// NewRunner.
type Deps struct {
	Root             string
	Extractor        *extract.Extractor
	Renderer         *treectx.Renderer
	Estimator        tokens.Estimator
	Cache            *ctxcache.Store // nil disables persistent caching
	Enumerate        func(root string) ([]string, error)
	Strategy         cachekey.Strategy
	TTL              time.Duration
	MapTokens        int
	MaxContextWindow int
	MapMulNoFiles    int
	Refresh          string // auto | always | files | manual
	MaxConcurrent    int64
	Logger           *slog.Logger
}

// Runner produces ranked context maps for one repository. The ranking pass
// is synchronous and CPU-bound; the runner bounds concurrent passes with a
// semaphore and coalesces concurrent same-key cache misses, so callers can
// dispatch it from event loops without extra plumbing.
type Runner struct {
	deps   Deps
	sem    *semaphore.Weighted
	flight singleflight.Group

	mu       sync.Mutex
	warned   map[string]bool
	memo     map[string]string
	lastMap  string
	passTime time.Duration
}

// NewRunner fills in defaults and returns a ready runner.
func NewRunner(deps Deps) *Runner {
	if deps.Extractor == nil {
		deps.Extractor = extract.NewExtractor()
	}
	if deps.Renderer == nil {
		deps.Renderer = treectx.NewRenderer()
	}
	if deps.Estimator == nil {
		deps.Estimator = tokens.Heuristic{}
	}
	if deps.Enumerate == nil {
		deps.Enumerate = defaultEnumerate
	}
	if deps.Strategy == "" {
		deps.Strategy = cachekey.StrategyAuto
	}
	if deps.MapMulNoFiles == 0 {
		deps.MapMulNoFiles = defaultMapMulNoFiles
	}
	if deps.Refresh == "" {
		deps.Refresh = "auto"
	}
	if deps.MaxConcurrent == 0 {
		deps.MaxConcurrent = defaultMaxConcurrent
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Runner{
		deps:   deps,
		sem:    semaphore.NewWeighted(deps.MaxConcurrent),
		warned: make(map[string]bool),
		memo:   make(map[string]string),
	}
}

// ProduceContext runs one ranking pass for an explicit focus/candidate set.
// An empty string is a valid result: zero budget or an empty candidate set
// short-circuits, and a pass where nothing fits the budget is empty too.
//
// Implements: prd001-context-interface R2.1-R2.6.
func (r *Runner) ProduceContext(ctx context.Context, req Request) (string, error) {
	budgetTokens := req.TokenBudget
	if budgetTokens == 0 {
		budgetTokens = r.deps.MapTokens
	}
	if budgetTokens <= 0 || len(req.CandidateFiles) == 0 {
		return "", nil
	}

	// With no files in focus, widen the view of the repository up to the
	// context window.
	if len(req.FocusFiles) == 0 && r.deps.MaxContextWindow > 0 {
		target := budgetTokens * r.deps.MapMulNoFiles
		if limit := r.deps.MaxContextWindow - contextPadding; target > limit {
			target = limit
		}
		if target > budgetTokens {
			budgetTokens = target
		}
	}

	memoKey := r.memoKey(req, budgetTokens)
	if !req.ForceRefresh {
		if out, ok := r.memoLookup(memoKey); ok {
			return out, nil
		}
	}

	if err := r.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer r.sem.Release(1)

	start := time.Now()
	result := r.producePass(req, budgetTokens)

	r.mu.Lock()
	r.passTime = time.Since(start)
	r.memo[memoKey] = result
	r.lastMap = result
	r.mu.Unlock()

	return result, nil
}

// RepoContext enumerates the repository and produces its context map,
// consulting the persistent cache when enabled. Any cache failure falls
// back to uncached computation.
//
// Implements: prd001-context-interface R3.1-R3.6.
func (r *Runner) RepoContext(ctx context.Context, useCache, forceRefresh bool) (string, error) {
	cache := r.deps.Cache
	if cache == nil || !cache.Enabled() || !useCache {
		return r.uncachedRepoContext(ctx)
	}

	// Git repositories can yield a key without enumerating a single file.
	key := ""
	if r.deps.Strategy == cachekey.StrategyAuto || r.deps.Strategy == cachekey.StrategyGit {
		if cachekey.IsGitRepo(r.deps.Root) {
			if k, _, err := cachekey.Derive(r.deps.Root, nil, cachekey.StrategyGit); err == nil {
				key = k
				if !forceRefresh {
					if out, ok := cache.Get(key); ok {
						return out, nil
					}
				}
			}
		}
	}

	files, err := r.deps.Enumerate(r.deps.Root)
	if err != nil {
		return "", fmt.Errorf("enumerating %s: %w", r.deps.Root, err)
	}
	if len(files) > maxCandidateFiles {
		return TooLargeSentinel, nil
	}

	if key == "" {
		k, _, kerr := cachekey.Derive(r.deps.Root, files, r.deps.Strategy)
		if kerr != nil {
			r.deps.Logger.Warn("cache key derivation failed, computing uncached",
				"strategy", string(r.deps.Strategy), "error", kerr)
			return r.ProduceContext(ctx, Request{CandidateFiles: files, ForceRefresh: forceRefresh})
		}
		key = k
	}

	if !forceRefresh {
		if out, ok := cache.Get(key); ok {
			return out, nil
		}
	}

	// Concurrent misses for the same key share one computation. A race
	// past this point is harmless: Set is last-writer-wins.
	out, err, _ := r.flight.Do(key, func() (interface{}, error) {
		result, perr := r.ProduceContext(ctx, Request{
			CandidateFiles: files,
			ForceRefresh:   forceRefresh,
		})
		if perr != nil {
			return "", perr
		}
		if serr := cache.Set(key, result, cachekey.RepoTag(r.deps.Root), r.deps.TTL); serr != nil {
			r.deps.Logger.Warn("cache write failed", "key", key, "error", serr)
		}
		return result, nil
	})
	if err != nil {
		return "", err
	}
	return out.(string), nil
}

// InvalidateRepo removes every cached entry for this repository.
func (r *Runner) InvalidateRepo() error {
	if r.deps.Cache == nil {
		return nil
	}
	return r.deps.Cache.InvalidateTag(cachekey.RepoTag(r.deps.Root))
}

func (r *Runner) uncachedRepoContext(ctx context.Context) (string, error) {
	files, err := r.deps.Enumerate(r.deps.Root)
	if err != nil {
		return "", fmt.Errorf("enumerating %s: %w", r.deps.Root, err)
	}
	if len(files) > maxCandidateFiles {
		return TooLargeSentinel, nil
	}
	return r.ProduceContext(ctx, Request{CandidateFiles: files})
}

// producePass is the synchronous core: extract, build the graph, rank, and
// fit the budget. It runs to completion once invoked.
func (r *Runner) producePass(req Request, budgetTokens int) string {
	all := make(map[string]bool, len(req.FocusFiles)+len(req.CandidateFiles))
	for _, f := range req.FocusFiles {
		all[f] = true
	}
	for _, f := range req.CandidateFiles {
		all[f] = true
	}
	fnames := make([]string, 0, len(all))
	for f := range all {
		fnames = append(fnames, f)
	}
	sort.Strings(fnames)

	focusAbs := make(map[string]bool, len(req.FocusFiles))
	for _, f := range req.FocusFiles {
		focusAbs[f] = true
	}
	candidateAbs := make(map[string]bool, len(req.CandidateFiles))
	for _, f := range req.CandidateFiles {
		candidateAbs[f] = true
	}

	tagsByFile := make(map[string][]types.Tag)
	absByRel := make(map[string]string)
	focusRel := make(map[string]bool)
	var otherRel []string

	for _, abs := range fnames {
		info, err := os.Stat(abs)
		if err != nil || info.IsDir() {
			r.warnOnce(abs)
			continue
		}
		rel := r.relPath(abs)
		absByRel[rel] = abs
		if focusAbs[abs] {
			focusRel[rel] = true
		} else if candidateAbs[abs] {
			otherRel = append(otherRel, rel)
		}
		tagsByFile[rel] = r.deps.Extractor.Extract(abs, rel)
	}
	if len(tagsByFile) == 0 {
		return ""
	}

	graph := symgraph.Build(tagsByFile, symgraph.Params{
		FocusFiles:      focusRel,
		MentionedIdents: req.MentionedIdents,
	})

	ranked := rank.RankedTags(graph, rank.Params{
		FocusFiles:     focusRel,
		MentionedFiles: req.MentionedFiles,
		TotalFiles:     len(fnames),
		OtherFiles:     otherRel,
	})

	// Fresh output cache per fit pass; the parse cache stays warm.
	r.deps.Renderer.ResetRenderCache()

	return budget.Fit(ranked, float64(budgetTokens),
		func(entries []types.RankedTag) string {
			return r.toTree(entries, focusRel, absByRel)
		},
		r.deps.Estimator.Estimate,
	)
}

// toTree renders a prefix of the ranked list: files with ranked definitions
// get a collapsed source section, bare files just their path.
func (r *Runner) toTree(entries []types.RankedTag, focusRel map[string]bool, absByRel map[string]string) string {
	if len(entries) == 0 {
		return ""
	}

	sorted := append([]types.RankedTag(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].RelPath != sorted[j].RelPath {
			return sorted[i].RelPath < sorted[j].RelPath
		}
		ti, tj := sorted[i].Tag, sorted[j].Tag
		if (ti == nil) != (tj == nil) {
			return ti == nil // file-only entries sort first
		}
		if ti == nil {
			return false
		}
		if ti.Line != tj.Line {
			return ti.Line < tj.Line
		}
		return ti.Name < tj.Name
	})

	var out strings.Builder
	curFile := ""
	var lois []int
	hasTags := false

	flush := func() {
		if curFile == "" {
			return
		}
		if hasTags {
			out.WriteString("\n" + curFile + ":\n")
			out.WriteString(r.deps.Renderer.Render(absByRel[curFile], curFile, lois))
		} else {
			out.WriteString("\n" + curFile + "\n")
		}
	}

	for _, entry := range sorted {
		if focusRel[entry.RelPath] {
			continue
		}
		if entry.RelPath != curFile {
			flush()
			curFile = entry.RelPath
			lois = lois[:0]
			hasTags = false
		}
		if entry.Tag != nil {
			hasTags = true
			lois = append(lois, entry.Tag.Line)
		}
	}
	flush()

	// Cap line length so minified or generated input cannot blow up the
	// output.
	lines := strings.Split(out.String(), "\n")
	for i, line := range lines {
		if len(line) > maxLineLength {
			lines[i] = line[:maxLineLength]
		}
	}
	return strings.TrimSuffix(strings.Join(lines, "\n"), "\n") + "\n"
}

func (r *Runner) relPath(abs string) string {
	rel, err := filepath.Rel(r.deps.Root, abs)
	if err != nil {
		return abs
	}
	return filepath.ToSlash(rel)
}

// warnOnce logs a missing candidate file a single time per runner, keeping
// repeated passes quiet about files deleted on disk but still listed.
func (r *Runner) warnOnce(abs string) {
	r.mu.Lock()
	seen := r.warned[abs]
	r.warned[abs] = true
	r.mu.Unlock()
	if !seen {
		r.deps.Logger.Info("cannot include file in context map", "path", abs)
	}
}

func (r *Runner) memoLookup(key string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.deps.Refresh {
	case "manual":
		if r.lastMap != "" {
			return r.lastMap, true
		}
		return "", false
	case "always":
		return "", false
	case "files":
		out, ok := r.memo[key]
		return out, ok
	default: // auto: reuse only when the last pass was expensive
		if r.passTime > slowPassThreshold {
			out, ok := r.memo[key]
			return out, ok
		}
		return "", false
	}
}

// memoKey fingerprints a request for the in-memory memo. In auto mode the
// mentioned sets participate, matching how they influence the ranking.
func (r *Runner) memoKey(req Request, budgetTokens int) string {
	var b strings.Builder
	writeSorted := func(items []string) {
		s := append([]string(nil), items...)
		sort.Strings(s)
		for _, it := range s {
			b.WriteString(it)
			b.WriteByte('\x00')
		}
		b.WriteByte('\x01')
	}
	writeSorted(req.FocusFiles)
	writeSorted(req.CandidateFiles)
	fmt.Fprintf(&b, "%d\x01", budgetTokens)
	if r.deps.Refresh == "auto" || r.deps.Refresh == "" {
		writeSorted(setKeys(req.MentionedFiles))
		writeSorted(setKeys(req.MentionedIdents))
	}
	return b.String()
}

func setKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

func defaultEnumerate(root string) ([]string, error) {
	return scan.Files(root)
}
