// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Implements: prd009-technology-stack R4.3-R4.8.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/petar-djukic/ctxmap/internal/scan"
	"github.com/petar-djukic/ctxmap/pkg/repomap"
)

// newMapCmd creates the "map" command.
func newMapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "map",
		Short: "Produce a ranked context map of the repository",
		Long:  "Map enumerates the repository, ranks its symbols by reference structure, and prints a context map that fits the token budget. Positional arguments name focus files whose dependencies get boosted.",
		RunE:  runMap,
	}

	cmd.Flags().Bool("force", false, "Recompute even if a cached map exists")

	return cmd
}

// runMap produces and prints the context map.
func runMap(cmd *cobra.Command, args []string) error {
	force, _ := cmd.Flags().GetBool("force")

	svc, err := newService()
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	var out string
	if len(args) == 0 {
		out, err = svc.RepoContext(ctx, !viper.GetBool("no-cache"), force)
	} else {
		out, err = produceFocused(ctx, svc, args, force)
	}
	if err != nil {
		return err
	}

	fmt.Print(out)
	return nil
}

// produceFocused runs a single pass with the named files in focus. Focus
// requests bypass the persistent cache; their output depends on the focus
// set, not just repository state.
func produceFocused(ctx context.Context, svc repomap.Service, focus []string, force bool) (string, error) {
	root, err := filepath.Abs(viper.GetString("root"))
	if err != nil {
		return "", err
	}

	absFocus := make(map[string]bool, len(focus))
	for _, f := range focus {
		if !filepath.IsAbs(f) {
			f = filepath.Join(root, f)
		}
		absFocus[f] = true
	}

	files, err := scan.Files(root)
	if err != nil {
		return "", fmt.Errorf("enumerating %s: %w", root, err)
	}

	focusList := make([]string, 0, len(absFocus))
	for f := range absFocus {
		focusList = append(focusList, f)
	}
	candidates := make([]string, 0, len(files))
	for _, f := range files {
		if !absFocus[f] {
			candidates = append(candidates, f)
		}
	}

	return svc.ProduceContext(ctx, repomap.Request{
		FocusFiles:     focusList,
		CandidateFiles: candidates,
		ForceRefresh:   force,
	})
}

// newCacheCmd creates the "cache" command group.
func newCacheCmd() *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the persistent context cache",
	}

	cacheCmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove every cached map for this repository",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newService()
			if err != nil {
				return fmt.Errorf("initialization failed: %w", err)
			}
			if err := svc.InvalidateCache(); err != nil {
				return fmt.Errorf("cache clear failed: %w", err)
			}
			fmt.Println("Cache cleared.")
			return nil
		},
	})

	return cacheCmd
}

// newService builds a Service from the resolved configuration.
func newService() (repomap.Service, error) {
	root, err := filepath.Abs(viper.GetString("root"))
	if err != nil {
		return nil, err
	}

	return repomap.New(repomap.Config{
		RootDir:          root,
		MapTokens:        viper.GetInt("map-tokens"),
		MaxContextWindow: viper.GetInt("context-window"),
		CacheDir:         viper.GetString("cache-dir"),
		CacheTTL:         viper.GetDuration("cache-ttl"),
		CacheStrategy:    viper.GetString("cache-strategy"),
		CacheEnabled:     !viper.GetBool("no-cache"),
		Refresh:          viper.GetString("refresh"),
	})
}
