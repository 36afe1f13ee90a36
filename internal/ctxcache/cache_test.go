// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package ctxcache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T, maxBytes int64) *Store {
	t.Helper()
	s, err := Open(Options{Dir: t.TempDir(), MaxBytes: maxBytes, Enabled: true})
	require.NoError(t, err)
	return s
}

func TestStore_RoundTrip(t *testing.T) {
	s := openStore(t, 0)

	require.NoError(t, s.Set("k1", "rendered map\n", "repo:abcd1234", 0))

	got, ok := s.Get("k1")
	require.True(t, ok)
	assert.Equal(t, "rendered map\n", got)

	stats := s.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Writes)
}

func TestStore_MissingKey(t *testing.T) {
	s := openStore(t, 0)
	_, ok := s.Get("absent")
	assert.False(t, ok)
	assert.Equal(t, int64(1), s.Stats().Misses)
}

func TestStore_TTLExpiry(t *testing.T) {
	s := openStore(t, 0)

	require.NoError(t, s.Set("k1", "soon gone", "repo:abcd1234", time.Millisecond))
	time.Sleep(10 * time.Millisecond)

	_, ok := s.Get("k1")
	assert.False(t, ok, "expired entries are misses")

	_, statErr := os.Stat(filepath.Join(s.dir, "k1.json"))
	assert.True(t, os.IsNotExist(statErr), "expired entries are removed on read")
}

func TestStore_CorruptEntryIsMiss(t *testing.T) {
	s := openStore(t, 0)

	require.NoError(t, os.WriteFile(filepath.Join(s.dir, "bad.json"), []byte("{not json"), 0o644))

	_, ok := s.Get("bad")
	assert.False(t, ok)
}

func TestStore_InvalidateTag(t *testing.T) {
	s := openStore(t, 0)

	require.NoError(t, s.Set("k1", "one", "repo:aaaa0000", 0))
	require.NoError(t, s.Set("k2", "two", "repo:aaaa0000", 0))
	require.NoError(t, s.Set("k3", "three", "repo:bbbb1111", 0))

	require.NoError(t, s.InvalidateTag("repo:aaaa0000"))

	_, ok := s.Get("k1")
	assert.False(t, ok)
	_, ok = s.Get("k2")
	assert.False(t, ok)

	got, ok := s.Get("k3")
	require.True(t, ok, "other repositories' entries survive")
	assert.Equal(t, "three", got)
}

func TestStore_EvictsOldestWhenOverSize(t *testing.T) {
	s := openStore(t, 600)

	big := make([]byte, 300)
	for i := range big {
		big[i] = 'x'
	}

	require.NoError(t, s.Set("old", string(big), "repo:aaaa0000", 0))

	// Age the first entry so mtime ordering is unambiguous.
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(s.dir, "old.json"), past, past))

	require.NoError(t, s.Set("mid", string(big), "repo:aaaa0000", 0))
	require.NoError(t, s.Set("new", string(big), "repo:aaaa0000", 0))

	_, ok := s.Get("old")
	assert.False(t, ok, "oldest entry evicted first")

	_, ok = s.Get("new")
	assert.True(t, ok)
	assert.GreaterOrEqual(t, s.Stats().Evictions, int64(1))
}

func TestStore_Disabled(t *testing.T) {
	s, err := Open(Options{Enabled: false})
	require.NoError(t, err)
	assert.False(t, s.Enabled())

	require.NoError(t, s.Set("k1", "ignored", "repo:abcd1234", 0))
	_, ok := s.Get("k1")
	assert.False(t, ok, "a disabled store never hits")
}
