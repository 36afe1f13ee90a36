// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package repomap

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RequiresRootDir(t *testing.T) {
	_, err := New(Config{})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestNew_RejectsMissingRootDir(t *testing.T) {
	_, err := New(Config{RootDir: filepath.Join(t.TempDir(), "nope")})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestNew_RejectsUnknownStrategy(t *testing.T) {
	_, err := New(Config{RootDir: t.TempDir(), CacheStrategy: "lunar"})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestNew_RejectsUnknownRefreshMode(t *testing.T) {
	_, err := New(Config{RootDir: t.TempDir(), Refresh: "sometimes"})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestNew_ValidConfig(t *testing.T) {
	svc, err := New(Config{RootDir: t.TempDir()})
	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestService_ProducesMapForSmallRepo(t *testing.T) {
	root := t.TempDir()
	src := `def compute_totals(items):
    return apply_discount(sum(items))

def apply_discount(total):
    return total * 0.9
`
	require.NoError(t, os.WriteFile(filepath.Join(root, "billing.py"), []byte(src), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "cli.py"),
		[]byte("from billing import compute_totals\n\nprint(compute_totals([1, 2]))\n"), 0o644))

	svc, err := New(Config{RootDir: root, MapTokens: 1024})
	require.NoError(t, err)

	out, err := svc.RepoContext(context.Background(), false, false)
	require.NoError(t, err)
	assert.Contains(t, out, "billing.py")
	assert.Contains(t, out, "compute_totals")
}

func TestService_ProduceContextFocusRequest(t *testing.T) {
	root := t.TempDir()
	aPath := filepath.Join(root, "lib.py")
	bPath := filepath.Join(root, "app.py")
	require.NoError(t, os.WriteFile(aPath,
		[]byte("def shared_helper(x):\n    return x\n"), 0o644))
	require.NoError(t, os.WriteFile(bPath,
		[]byte("from lib import shared_helper\n\nshared_helper(1)\nshared_helper(2)\n"), 0o644))

	svc, err := New(Config{RootDir: root, MapTokens: 1024})
	require.NoError(t, err)

	out, err := svc.ProduceContext(context.Background(), Request{
		FocusFiles:     []string{bPath},
		CandidateFiles: []string{aPath},
	})
	require.NoError(t, err)
	assert.Contains(t, out, "lib.py")
	assert.NotContains(t, out, "app.py", "focus files stay out of the map")
}
