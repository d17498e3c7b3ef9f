// Copyright (C) 2026 OpenFields Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE file for the full license text.

package main

import (
	"github.com/spf13/cobra"
)

// ruleFile, cacheSize, cacheBackend, and cacheDBPath hold persistent flag
// values shared by every subcommand that builds an Analyzer.
var (
	ruleFile     string
	cacheSize    int
	cacheBackend string
	cacheDBPath  string
)

var rootCmd = &cobra.Command{
	Use:   "uaparse",
	Short: "Parse User-Agent and Client-Hints headers against a rule-driven analyzer",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&ruleFile, "rules", "", "path to a YAML rule file (default: embedded rule set)")
	rootCmd.PersistentFlags().IntVar(&cacheSize, "cache-size", 4096, "parse result LRU cache size (0 disables caching), ignored by --cache-backend=badger")
	rootCmd.PersistentFlags().StringVar(&cacheBackend, "cache-backend", "memory", `parse cache backend: "memory" or "badger"`)
	rootCmd.PersistentFlags().StringVar(&cacheDBPath, "cache-db", "./uaparse-cache", "BadgerDB path, used when --cache-backend=badger")

	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(preheatCmd)
	rootCmd.AddCommand(snapshotCmd)
}
