// Copyright (C) 2026 OpenFields Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE file for the full license text.

// Package postprocess runs an ordered list of calculators over a resolved
// field map to derive composite fields (NameVersion, VersionMajor) and
// fallback values (class-from-name, language expansion) for fields the
// rule corpus left unset.
//
// Each calculator declares the fields it reads and the fields it writes.
// New topologically sorts the calculator set by that declaration — a
// calculator only runs after everything that writes a field it reads — and
// rejects any set whose dependencies form a cycle. Replaces the
// listener/visitor-style post-processor chain this is descended from with
// a plain, inspectable, build-time-ordered value.
package postprocess

import (
	"github.com/openfields/uaparse/internal/field"
	"github.com/openfields/uaparse/internal/resolve"
)

// Calculator derives or overwrites a small set of fields from others.
// Apply receives the full working map (every field.All() key present) and
// mutates it in place.
type Calculator struct {
	Name   string
	Reads  []field.Field
	Writes []field.Field
	Apply  func(values map[field.Field]string)
}

// Pipeline is a calculator set in a validated, cycle-free run order.
//
// Thread Safety: a *Pipeline is immutable after New returns. Run allocates
// a fresh working map per call and is safe for concurrent use by any
// number of goroutines.
type Pipeline struct {
	calculators []Calculator
}

// New topologically sorts calcs by their declared reads/writes and returns
// a *Pipeline that runs them in that order. Returns a *CycleError if no
// valid order exists.
func New(calcs []Calculator) (*Pipeline, error) {
	n := len(calcs)
	writtenBy := make(map[field.Field][]int, n)
	for i, c := range calcs {
		for _, f := range c.Writes {
			writtenBy[f] = append(writtenBy[f], i)
		}
	}

	adj := make([][]int, n)
	indegree := make([]int, n)
	seenEdge := make(map[[2]int]bool)
	for i, c := range calcs {
		for _, f := range c.Reads {
			for _, j := range writtenBy[f] {
				if j == i {
					continue
				}
				key := [2]int{j, i}
				if seenEdge[key] {
					continue
				}
				seenEdge[key] = true
				adj[j] = append(adj[j], i)
				indegree[i]++
			}
		}
	}

	queue := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if indegree[i] == 0 {
			queue = append(queue, i)
		}
	}

	order := make([]int, 0, n)
	visited := make([]bool, n)
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		if visited[i] {
			continue
		}
		visited[i] = true
		order = append(order, i)
		for _, j := range adj[i] {
			indegree[j]--
			if indegree[j] == 0 {
				queue = append(queue, j)
			}
		}
	}

	if len(order) != n {
		var stuck []string
		for i := 0; i < n; i++ {
			if !visited[i] {
				stuck = append(stuck, calcs[i].Name)
			}
		}
		return nil, &CycleError{Calculators: stuck}
	}

	sorted := make([]Calculator, n)
	for idx, i := range order {
		sorted[idx] = calcs[i]
	}
	return &Pipeline{calculators: sorted}, nil
}

// Run applies every calculator in dependency order over fm's values and
// returns the resulting FieldMap. Every field listed in some calculator's
// Writes loses its rule-ID provenance, even when that calculator's Apply
// left the value unchanged; every field no calculator declares as a write
// keeps the rule ID the matcher resolved for it.
func (p *Pipeline) Run(fm resolve.FieldMap) resolve.FieldMap {
	values := fm.Values()
	ruleIDs := fm.RuleIDs()
	for _, c := range p.calculators {
		c.Apply(values)
		for _, f := range c.Writes {
			delete(ruleIDs, f)
		}
	}
	return resolve.FromValuesWithRuleIDs(values, ruleIDs)
}

// Names returns the calculator names in their resolved run order, for
// diagnostics.
func (p *Pipeline) Names() []string {
	names := make([]string, len(p.calculators))
	for i, c := range p.calculators {
		names[i] = c.Name
	}
	return names
}
