// Copyright (C) 2026 OpenFields Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE file for the full license text.

package rules

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed default_rules.yaml
var defaultRulesYAML []byte

var (
	defaultStoreOnce sync.Once
	defaultStore     *Store
	defaultStoreErr  error
)

// DefaultSource parses the embedded default rule corpus into a Source
// without compiling it, for callers that want to inspect or extend the raw
// rule definitions before building a Store.
func DefaultSource() (Source, error) {
	var src Source
	if err := yaml.Unmarshal(defaultRulesYAML, &src); err != nil {
		return Source{}, fmt.Errorf("rules: parsing embedded default corpus: %w", err)
	}
	return src, nil
}

// DefaultStore returns the Store compiled from the embedded default rule
// corpus, compiling it exactly once no matter how many callers ask.
//
// Thread Safety: safe for concurrent use; the returned *Store is itself
// immutable.
func DefaultStore() (*Store, error) {
	defaultStoreOnce.Do(func() {
		src, err := DefaultSource()
		if err != nil {
			defaultStoreErr = err
			return
		}
		defaultStore, defaultStoreErr = NewStore(src)
	})
	return defaultStore, defaultStoreErr
}

// LoadSource parses and compiles an arbitrary rule-source document (e.g.
// loaded from disk or fetched from a config service) the same way
// DefaultStore does the embedded corpus. The size cap matches the teacher's
// config loader: rule sources are operational configuration, not user
// input, but a corrupted or hostile file should fail fast rather than
// exhaust memory.
const maxSourceBytes = 16 << 20 // 16 MiB

func LoadSource(data []byte) (*Store, error) {
	if len(data) > maxSourceBytes {
		return nil, &ConfigError{Reason: fmt.Sprintf("rule source is %d bytes, exceeds %d byte limit", len(data), maxSourceBytes)}
	}
	var src Source
	if err := yaml.Unmarshal(data, &src); err != nil {
		return nil, &ConfigError{Reason: fmt.Sprintf("parsing rule source: %v", err)}
	}
	return NewStore(src)
}
