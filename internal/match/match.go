// Copyright (C) 2026 OpenFields Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE file for the full license text.

// Package match walks a compiled rules.Store against a single input and
// collects the field proposals every firing matcher makes. It performs no
// resolution between competing proposals for the same field — that is
// internal/resolve's job — so the same walk can be reused by diagnostics
// that want to see every rule that fired, not just the winner.
package match

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/openfields/uaparse/internal/rules"
)

var (
	candidatesConsidered = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "uaparse",
		Subsystem: "match",
		Name:      "candidates_considered",
		Help:      "Number of matchers narrowed to by the rule-store word index per input.",
		Buckets:   []float64{0, 1, 2, 4, 8, 16, 32, 64, 128, 256},
	})
	rulesFiredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "uaparse",
		Subsystem: "match",
		Name:      "rules_fired_total",
		Help:      "Total number of matcher firings (every step passed) across all Evaluate calls.",
	})
)

// Proposal is one field/value/confidence triple offered by a single
// matcher. A field is typically proposed by more than one matcher at
// different confidences; internal/resolve picks the winner.
type Proposal struct {
	Field      string
	Value      string
	Confidence int
	RuleID     string
	LoadOrder  int
}

// Evaluate narrows store to candidates for in, evaluates each candidate's
// step tree, and returns one Proposal per extract clause of every matcher
// whose steps all passed, except path-based extract clauses whose path does
// not resolve against in; those propose nothing.
//
// Thread Safety: Evaluate has no shared mutable state of its own; it is
// safe to call concurrently against the same *rules.Store from any number
// of goroutines, since Store is immutable after construction.
func Evaluate(store *rules.Store, in rules.Input) []Proposal {
	candidates := store.Candidates(in)
	candidatesConsidered.Observe(float64(len(candidates)))

	var proposals []Proposal
	for _, m := range candidates {
		if !m.Evaluate(func(p rules.Path) (string, bool) { return p.Resolve(in) }) {
			continue
		}
		rulesFiredTotal.Inc()
		for _, ex := range m.Extracts {
			value := ex.Literal
			if ex.HasPath {
				v, ok := ex.Path.Resolve(in)
				if !ok {
					continue
				}
				value = v
			}
			proposals = append(proposals, Proposal{
				Field:      string(ex.Field),
				Value:      value,
				Confidence: ex.Confidence,
				RuleID:     m.ID,
				LoadOrder:  m.LoadOrder,
			})
		}
	}
	return proposals
}
