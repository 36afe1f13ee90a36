// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Command ctxmap is a test CLI for the ctxmap library.
// Implements: prd009-technology-stack R4.1-R4.10;
//
//	docs/ARCHITECTURE § Project Structure.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "ctxmap",
		Short: "Repository context ranking engine",
		Long:  "ctxmap distills a repository into a token-budgeted map of its most relevant symbols, ranked by how the codebase references them.",
	}

	// Global flags.
	rootCmd.PersistentFlags().String("root", ".", "Repository root directory")
	rootCmd.PersistentFlags().Int("map-tokens", 2048, "Token budget for the context map")
	rootCmd.PersistentFlags().Int("context-window", 0, "Model context window (0 disables budget expansion)")
	rootCmd.PersistentFlags().String("cache-dir", "", "Persistent cache directory (default <root>/.ctxmap/cache)")
	rootCmd.PersistentFlags().String("cache-strategy", "auto", "Cache key strategy: auto, git, simple, full")
	rootCmd.PersistentFlags().Bool("no-cache", false, "Disable the persistent cache")
	rootCmd.PersistentFlags().Duration("cache-ttl", 0, "Cache entry lifetime (0 = no expiry)")
	rootCmd.PersistentFlags().String("refresh", "auto", "Refresh mode: auto, always, files, manual")

	// Bind flags to viper.
	viper.BindPFlag("root", rootCmd.PersistentFlags().Lookup("root"))
	viper.BindPFlag("map-tokens", rootCmd.PersistentFlags().Lookup("map-tokens"))
	viper.BindPFlag("context-window", rootCmd.PersistentFlags().Lookup("context-window"))
	viper.BindPFlag("cache-dir", rootCmd.PersistentFlags().Lookup("cache-dir"))
	viper.BindPFlag("cache-strategy", rootCmd.PersistentFlags().Lookup("cache-strategy"))
	viper.BindPFlag("no-cache", rootCmd.PersistentFlags().Lookup("no-cache"))
	viper.BindPFlag("cache-ttl", rootCmd.PersistentFlags().Lookup("cache-ttl"))
	viper.BindPFlag("refresh", rootCmd.PersistentFlags().Lookup("refresh"))

	// Env vars: CTXMAP_ROOT, CTXMAP_MAP_TOKENS, etc.
	viper.SetEnvPrefix("CTXMAP")
	viper.AutomaticEnv()

	// Config file.
	viper.SetConfigName(".ctxmap")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.ReadInConfig() // Ignore error; config file is optional.

	// Add commands.
	rootCmd.AddCommand(newMapCmd())
	rootCmd.AddCommand(newCacheCmd())
	rootCmd.AddCommand(newVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newVersionCmd creates the "version" command.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print ctxmap version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("ctxmap %s\n", version)
		},
	}
}
