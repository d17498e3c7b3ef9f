// Copyright (C) 2026 OpenFields Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE file for the full license text.

package rules

import (
	"sort"
	"strings"
	"unicode"
)

// Store is a compiled, immutable rule corpus: the full matcher list in load
// order, plus an inverted word index used to narrow candidates for a given
// input without scanning every matcher.
//
// Thread Safety: a *Store built by NewStore never changes after
// construction and is safe for concurrent use by any number of goroutines.
type Store struct {
	matchers []*Matcher
	// wordIndex maps a lowercase literal to the indices (into matchers) of
	// every matcher that requires it.
	wordIndex map[string][]int
	// always holds matchers with no required words — candidates for every
	// input, including the empty tree.
	always []*Matcher
}

// NewStore compiles src and builds its word index. Returns the same
// *ConfigError Compile would return if src is invalid.
func NewStore(src Source) (*Store, error) {
	matchers, err := Compile(src)
	if err != nil {
		return nil, err
	}
	return newStoreFromMatchers(matchers), nil
}

func newStoreFromMatchers(matchers []*Matcher) *Store {
	s := &Store{
		matchers:  matchers,
		wordIndex: make(map[string][]int),
	}
	for i, m := range matchers {
		if len(m.RequiredWords) == 0 {
			s.always = append(s.always, m)
			continue
		}
		for _, w := range m.RequiredWords {
			s.wordIndex[w] = append(s.wordIndex[w], i)
		}
	}
	return s
}

// Len reports the number of compiled matchers in the store.
func (s *Store) Len() int { return len(s.matchers) }

// Matchers returns the full compiled matcher list in load order. The
// returned slice is shared; callers must not mutate it.
func (s *Store) Matchers() []*Matcher { return s.matchers }

// Candidates returns every matcher that could possibly fire against in:
// every always-candidate matcher, plus every matcher whose required words
// are all present somewhere in in's token tree or Client-Hints values. It
// can return false positives (a step predicate may still fail); it never
// returns a false negative.
//
// Internally this unions the postings lists for the input's present words,
// processing the smallest lists first so already-confirmed matchers are
// skipped without a second lookup, then confirms each candidate's full
// requirement list with O(1) set membership checks.
func (s *Store) Candidates(in Input) []*Matcher {
	words := extractWordSet(in)

	present := make([]string, 0, len(words))
	for w := range words {
		if _, ok := s.wordIndex[w]; ok {
			present = append(present, w)
		}
	}
	sort.Slice(present, func(i, j int) bool {
		return len(s.wordIndex[present[i]]) < len(s.wordIndex[present[j]])
	})

	seen := make(map[int]bool)
	out := make([]*Matcher, 0, len(s.always))
	out = append(out, s.always...)

	for _, w := range present {
		for _, idx := range s.wordIndex[w] {
			if seen[idx] {
				continue
			}
			seen[idx] = true
			m := s.matchers[idx]
			if allPresent(m.RequiredWords, words) {
				out = append(out, m)
			}
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].LoadOrder < out[j].LoadOrder })
	return out
}

func allPresent(required []string, words map[string]bool) bool {
	for _, w := range required {
		if !words[w] {
			return false
		}
	}
	return true
}

// extractWordSet flattens every name, version, comment key/value, and
// Client-Hints value in in into a lowercase word set, splitting on anything
// that isn't a letter or digit.
func extractWordSet(in Input) map[string]bool {
	words := make(map[string]bool)
	add := func(s string) {
		for _, w := range splitWords(s) {
			words[w] = true
		}
	}
	for _, p := range in.Tree.Products {
		add(p.Name)
		add(p.Version)
		for _, c := range p.Comments {
			if c.IsKeyed() {
				add(c.Key)
			}
			add(c.Value)
		}
	}
	for _, v := range in.Hints {
		add(v)
	}
	return words
}

func splitWords(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// StoreStats summarizes a compiled Store, surfaced for diagnostics and
// metrics labeling.
type StoreStats struct {
	MatcherCount     int
	AlwaysCandidates int
	IndexedWords     int
}

// Stats reports summary counts about the compiled store.
func (s *Store) Stats() StoreStats {
	return StoreStats{
		MatcherCount:     len(s.matchers),
		AlwaysCandidates: len(s.always),
		IndexedWords:     len(s.wordIndex),
	}
}
