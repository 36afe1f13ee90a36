// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package cachekey derives reproducible fingerprints of "has anything
// relevant changed" for a repository, using one of three strategies.
// Implements: prd007-cache-strategy R1, R2, R3;
//
//	docs/ARCHITECTURE § Cache Keys.
package cachekey

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
)

// Strategy selects how the repository fingerprint is derived.
type Strategy string

const (
	// StrategyAuto prefers git when available and falls back to simple.
	StrategyAuto Strategy = "auto"
	// StrategyGit hashes the HEAD commit plus the index mtime: O(1) in
	// repository size, captures committed state and staged changes.
	StrategyGit Strategy = "git"
	// StrategySimple hashes the sorted file listing and the root mtime:
	// no per-file stat calls.
	StrategySimple Strategy = "simple"
	// StrategyFull hashes every file's path, mtime and size: most precise,
	// most expensive.
	StrategyFull Strategy = "full"
)

// ErrNoKey is returned when the selected strategy cannot produce a key.
var ErrNoKey = errors.New("cache key unavailable")

// ErrUnknownStrategy is returned for a strategy name outside the known set.
var ErrUnknownStrategy = errors.New("unknown cache key strategy")

// Derive returns the cache key for a repository along with the strategy that
// actually produced it. files must be the enumerated candidate set (absolute
// paths); the git strategy ignores it. Auto never fails: a git repository
// that cannot yield a key degrades to the simple strategy.
//
// Implements: prd007-cache-strategy R1.1-R1.4.
func Derive(repoPath string, files []string, strategy Strategy) (key string, used Strategy, err error) {
	switch strategy {
	case StrategyAuto:
		if IsGitRepo(repoPath) {
			if key, gitErr := gitKey(repoPath); gitErr == nil {
				return key, StrategyGit, nil
			}
		}
		return simpleKey(repoPath, files), StrategySimple, nil
	case StrategyGit:
		key, gitErr := gitKey(repoPath)
		if gitErr != nil {
			return "", StrategyGit, fmt.Errorf("%w: %v", ErrNoKey, gitErr)
		}
		return key, StrategyGit, nil
	case StrategySimple:
		return simpleKey(repoPath, files), StrategySimple, nil
	case StrategyFull:
		return fullKey(repoPath, files), StrategyFull, nil
	default:
		return "", strategy, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}
}

// IsGitRepo reports whether the path contains a .git directory.
func IsGitRepo(repoPath string) bool {
	_, err := os.Stat(filepath.Join(repoPath, ".git"))
	return err == nil
}

// RepoTag returns the short repository tag used to group cache entries for
// bulk invalidation.
func RepoTag(repoPath string) string {
	sum := md5.Sum([]byte(repoPath))
	return "repo:" + hex.EncodeToString(sum[:])[:8]
}

// simpleKey hashes the repo path, the sorted file listing, the file count,
// and the containing directory's mtime as a rough change indicator.
func simpleKey(repoPath string, files []string) string {
	h := md5.New()
	h.Write([]byte(repoPath))

	sorted := append([]string(nil), files...)
	sort.Strings(sorted)

	h.Write([]byte(strconv.Itoa(len(sorted))))
	for _, f := range sorted {
		h.Write([]byte(f))
	}

	if info, err := os.Stat(repoPath); err == nil {
		h.Write([]byte(strconv.FormatInt(info.ModTime().UnixNano(), 10)))
	}

	return hex.EncodeToString(h.Sum(nil))
}

// fullKey hashes path, mtime and size for every file. Files that vanish
// between enumeration and hashing degrade to hashing just the path.
func fullKey(repoPath string, files []string) string {
	h := md5.New()
	h.Write([]byte(repoPath))

	sorted := append([]string(nil), files...)
	sort.Strings(sorted)

	h.Write([]byte(strconv.Itoa(len(sorted))))

	var totalSize int64
	for _, f := range sorted {
		info, err := os.Stat(f)
		if err != nil {
			h.Write([]byte(f))
			continue
		}
		fmt.Fprintf(h, "%s:%d:%d", f, info.ModTime().UnixNano(), info.Size())
		totalSize += info.Size()
	}
	h.Write([]byte(strconv.FormatInt(totalSize, 10)))

	return hex.EncodeToString(h.Sum(nil))
}
