// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package ctxcache persists rendered context maps across process
// invocations. Entries carry a TTL and a repository tag so one repository's
// entries can be invalidated together without enumerating keys. Every
// failure degrades to a cache miss: caching is a performance optimization,
// never a correctness dependency.
// Implements: prd008-context-cache R1, R2, R3;
//
//	docs/ARCHITECTURE § Context Cache.
package ctxcache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// Entry is one persisted context map.
type Entry struct {
	Key       string    `json:"key"`
	Rendered  string    `json:"rendered"`
	RepoTag   string    `json:"repo_tag"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at,omitempty"` // zero = no expiry
}

// Stats tracks cache performance.
type Stats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Writes    int64 `json:"writes"`
	Evictions int64 `json:"evictions"`
}

// Store is a file-backed, size-bounded cache. Safe for concurrent use;
// concurrent writers to one key are last-writer-wins.
type Store struct {
	dir      string
	maxBytes int64
	mu       sync.Mutex
	stats    Stats
	enabled  bool
}

// Options configures the store.
type Options struct {
	// Dir is the cache directory.
	Dir string

	// MaxBytes bounds total cache size; oldest entries are evicted first.
	// Zero means unbounded.
	MaxBytes int64

	// Enabled controls whether caching is active.
	Enabled bool
}

// Open creates the cache directory if needed and returns a store. A
// disabled store is valid and treats every Get as a miss.
func Open(opts Options) (*Store, error) {
	if !opts.Enabled {
		return &Store{enabled: false}, nil
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	return &Store{
		dir:      opts.Dir,
		maxBytes: opts.MaxBytes,
		enabled:  true,
	}, nil
}

// Enabled reports whether caching is active.
func (s *Store) Enabled() bool {
	return s.enabled
}

// Stats returns cache statistics.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Get returns the rendered text for a key. Missing, corrupt, and expired
// entries are all misses; expired entries are removed on the way out.
func (s *Store) Get(key string) (string, bool) {
	if !s.enabled {
		return "", false
	}

	data, err := os.ReadFile(s.keyPath(key))
	if err != nil {
		s.recordMiss()
		return "", false
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		s.recordMiss()
		return "", false
	}

	if !entry.ExpiresAt.IsZero() && time.Now().After(entry.ExpiresAt) {
		os.Remove(s.keyPath(key))
		s.recordMiss()
		return "", false
	}

	s.mu.Lock()
	s.stats.Hits++
	s.mu.Unlock()
	return entry.Rendered, true
}

// Set stores rendered text under a key, tagged for bulk invalidation.
// Write failures are returned but callers treat them as degradation, not
// errors: the computed result is still valid.
func (s *Store) Set(key, rendered, repoTag string, ttl time.Duration) error {
	if !s.enabled {
		return nil
	}

	entry := Entry{
		Key:       key,
		Rendered:  rendered,
		RepoTag:   repoTag,
		CreatedAt: time.Now(),
	}
	if ttl > 0 {
		entry.ExpiresAt = entry.CreatedAt.Add(ttl)
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshaling entry: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.WriteFile(s.keyPath(key), data, 0o644); err != nil {
		return fmt.Errorf("writing cache file: %w", err)
	}
	s.stats.Writes++

	s.evictLocked()
	return nil
}

// InvalidateTag removes every entry carrying the given repository tag.
func (s *Store) InvalidateTag(tag string) error {
	if !s.enabled {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	files, err := os.ReadDir(s.dir)
	if err != nil {
		return err
	}

	for _, f := range files {
		if f.IsDir() || filepath.Ext(f.Name()) != ".json" {
			continue
		}
		path := filepath.Join(s.dir, f.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(data, &entry); err != nil {
			continue
		}
		if entry.RepoTag == tag {
			os.Remove(path)
			s.stats.Evictions++
		}
	}
	return nil
}

// evictLocked removes oldest entries until the cache fits the size bound.
func (s *Store) evictLocked() {
	if s.maxBytes <= 0 {
		return
	}

	files, err := os.ReadDir(s.dir)
	if err != nil {
		return
	}

	type fileInfo struct {
		path  string
		size  int64
		mtime time.Time
	}
	var entries []fileInfo
	var total int64
	for _, f := range files {
		if f.IsDir() || filepath.Ext(f.Name()) != ".json" {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		entries = append(entries, fileInfo{
			path:  filepath.Join(s.dir, f.Name()),
			size:  info.Size(),
			mtime: info.ModTime(),
		})
		total += info.Size()
	}
	if total <= s.maxBytes {
		return
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].mtime.Before(entries[j].mtime)
	})
	for _, e := range entries {
		if total <= s.maxBytes {
			break
		}
		if os.Remove(e.path) == nil {
			total -= e.size
			s.stats.Evictions++
		}
	}
}

func (s *Store) recordMiss() {
	s.mu.Lock()
	s.stats.Misses++
	s.mu.Unlock()
}

// keyPath returns the file path for a cache key.
func (s *Store) keyPath(key string) string {
	return filepath.Join(s.dir, key+".json")
}
