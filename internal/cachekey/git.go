// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Implements: prd007-cache-strategy R2 (git strategy).
package cachekey

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	gogit "github.com/go-git/go-git/v5"
)

// gitKey derives the fingerprint from the HEAD commit hash plus the mtime of
// .git/index, which changes whenever files are staged. Cost is O(1)
// regardless of repository size.
//
// Implements: prd007-cache-strategy R2.1-R2.3.
func gitKey(repoPath string) (string, error) {
	repo, err := gogit.PlainOpen(repoPath)
	if err != nil {
		return "", fmt.Errorf("opening repository: %w", err)
	}

	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("resolving HEAD: %w", err)
	}

	h := md5.New()
	h.Write([]byte(repoPath))
	h.Write([]byte(head.Hash().String()))

	// Staged-change indicator. A missing index just means nothing staged.
	if info, err := os.Stat(filepath.Join(repoPath, ".git", "index")); err == nil {
		h.Write([]byte(strconv.FormatInt(info.ModTime().UnixNano(), 10)))
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
