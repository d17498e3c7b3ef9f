// Copyright (C) 2026 OpenFields Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE file for the full license text.

package main

import (
	"fmt"
	"log/slog"
	"os"

	badger "github.com/dgraph-io/badger/v4"
	"gopkg.in/yaml.v3"

	"github.com/openfields/uaparse/internal/analyzer"
	"github.com/openfields/uaparse/internal/cache"
	"github.com/openfields/uaparse/internal/rules"
)

// buildAnalyzer assembles an Analyzer from the shared --rules/--cache-size/
// --cache-backend persistent flags, used by every subcommand that needs one.
func buildAnalyzer(opts ...analyzer.Option) (*analyzer.Analyzer, error) {
	base := []analyzer.Option{analyzer.WithCacheSize(cacheSize)}

	switch cacheBackend {
	case "", "memory":
		// default in-process LRU; nothing more to configure.
	case "badger":
		base = append(base, analyzer.WithCacheInstantiator(badgerCacheInstantiator(cacheDBPath)))
	default:
		return nil, fmt.Errorf("unknown --cache-backend %q (want \"memory\" or \"badger\")", cacheBackend)
	}

	if ruleFile != "" {
		src, err := loadRuleSource(ruleFile)
		if err != nil {
			return nil, err
		}
		base = append(base, analyzer.WithRuleSource(src))
	}

	return analyzer.Build(append(base, opts...)...)
}

// badgerCacheInstantiator opens a BadgerDB at path and wraps it as a
// cache.Store, for --cache-backend=badger. It ignores the requested LRU
// size: a Badger-backed cache is unbounded by entry count and relies on
// process-restart persistence rather than strict eviction.
func badgerCacheInstantiator(path string) func(size int) cache.Store {
	return func(size int) cache.Store {
		db, err := badger.Open(badger.DefaultOptions(path))
		if err != nil {
			slog.Error("opening badger cache db, falling back to in-process LRU", "path", path, "error", err)
			return cache.NewLRU(size)
		}
		return cache.NewBadgerStore(db, 0, slog.Default())
	}
}

// loadRuleSource reads and parses a YAML rule file into a rules.Source,
// failing fast on malformed YAML rather than deferring the error to
// Analyzer.Build's store compilation.
func loadRuleSource(path string) (rules.Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return rules.Source{}, fmt.Errorf("reading rule file %s: %w", path, err)
	}
	var src rules.Source
	if err := yaml.Unmarshal(data, &src); err != nil {
		return rules.Source{}, fmt.Errorf("parsing rule file %s: %w", path, err)
	}
	return src, nil
}
