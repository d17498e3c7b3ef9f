// Copyright (C) 2026 OpenFields Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE file for the full license text.

// Package rules compiles a declarative rule source into an immutable,
// indexed Store of Matchers that internal/match walks against a token.Tree.
//
// A rule source is ordinary data (loaded from YAML, typically), never
// executable code: each rule names the words it requires to even be
// considered, a small tree of positional predicates ("steps") that must all
// hold, and a list of field/value/confidence triples to propose when they
// do. Compile does all the validation, and NewStore the index-building, up
// front so that matching itself never errors.
package rules

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/openfields/uaparse/internal/field"
)

// Source is the uncompiled, declarative form of a rule corpus — the
// unmarshaled shape of a rules YAML document.
type Source struct {
	Rules []RuleDef `yaml:"rules"`
}

// RuleDef is one uncompiled rule.
type RuleDef struct {
	// ID must be unique within a Source; it is surfaced in MatcherStats and
	// in ConfigError messages.
	ID string `yaml:"id"`

	// Requires lists the literal words that must all appear somewhere in an
	// input's token tree for this rule to even be considered a candidate.
	// Leave empty for a rule that should always be considered (e.g. a
	// fallback rule matched against an empty tree).
	Requires []string `yaml:"requires"`

	Steps   []StepDef    `yaml:"steps"`
	Extract []ExtractDef `yaml:"extract"`

	// Tests is an optional self-check corpus a rule author can attach
	// alongside a rule: sample inputs and the fields they expect a rule to
	// produce. Compile never reads this field — it exists for tooling (a
	// future "verify this rule corpus" command) and for analyzer.WithDropTests
	// to free, not for the matching engine itself.
	Tests []RuleTest `yaml:"tests"`
}

// RuleTest is one sample assertion attached to a RuleDef: given userAgent,
// the named fields are expected to resolve to the given values once every
// rule in the corpus (not just this one) has run.
type RuleTest struct {
	UserAgent string            `yaml:"userAgent"`
	Expect    map[string]string `yaml:"expect"`
}

// StepDef is one uncompiled predicate. Path is a textual expression parsed
// by ParsePath; Op is one of "equals", "startsWith", "contains", "regex",
// "range", "exists". Min/Max are only read for "range" and at least one of
// the two must be set; Value is read for every other op except "exists".
type StepDef struct {
	Path  string `yaml:"path"`
	Op    string `yaml:"op"`
	Value string `yaml:"value"`
	Min   string `yaml:"min"`
	Max   string `yaml:"max"`
}

// ExtractDef is one uncompiled extraction clause: propose Field = Value (a
// literal) or Field = the text found at Path, with the given Confidence.
// Exactly one of Value or Path must be set.
type ExtractDef struct {
	Field      string `yaml:"field"`
	Value      string `yaml:"value"`
	Path       string `yaml:"path"`
	Confidence int    `yaml:"confidence"`
}

// Step is a compiled predicate: resolve Path against a tree, compare
// against Value (or Regex, or Min/Max) using Op.
type Step struct {
	Path  Path
	Op    string
	Value string
	Regex *regexp.Regexp
	Min   string
	Max   string
}

// Extract is a compiled extraction clause.
type Extract struct {
	Field      field.Field
	Confidence int
	Literal    string
	Path       Path
	HasPath    bool
}

// Matcher is one compiled rule: the word-presence gate, the predicate tree,
// and the field proposals it makes when every step passes.
//
// A Matcher is immutable after Compile returns and is safe for concurrent
// use by any number of goroutines.
type Matcher struct {
	ID            string
	RequiredWords []string
	Steps         []Step
	Extracts      []Extract

	// LoadOrder is the rule's position in its Source, used by internal/resolve
	// to break ties between proposals of equal confidence: the
	// earlier-declared rule wins.
	LoadOrder int
}

const (
	opEquals     = "equals"
	opStartsWith = "startsWith"
	opContains   = "contains"
	opRegex      = "regex"
	opRange      = "range"
	opExists     = "exists"
)

// Compile validates src and builds a *Matcher for every rule in load order.
// It does not build the word index; callers typically pass the result to
// NewStore, which does. Compile is exported separately so tests can inspect
// individual matchers without going through the index.
func Compile(src Source) ([]*Matcher, error) {
	seen := make(map[string]bool, len(src.Rules))
	matchers := make([]*Matcher, 0, len(src.Rules))

	for i, rd := range src.Rules {
		if rd.ID == "" {
			return nil, &ConfigError{Reason: fmt.Sprintf("rule at index %d: id is required", i)}
		}
		if seen[rd.ID] {
			return nil, &ConfigError{RuleID: rd.ID, Reason: "duplicate rule id"}
		}
		seen[rd.ID] = true

		m, err := compileRule(rd, i)
		if err != nil {
			return nil, err
		}
		matchers = append(matchers, m)
	}
	return matchers, nil
}

func compileRule(rd RuleDef, loadOrder int) (*Matcher, error) {
	m := &Matcher{
		ID:        rd.ID,
		LoadOrder: loadOrder,
	}

	for _, w := range rd.Requires {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			m.RequiredWords = append(m.RequiredWords, w)
		}
	}

	for _, sd := range rd.Steps {
		step, err := compileStep(sd)
		if err != nil {
			return nil, &ConfigError{RuleID: rd.ID, Reason: err.Error()}
		}
		m.Steps = append(m.Steps, step)
	}

	if len(rd.Extract) == 0 {
		return nil, &ConfigError{RuleID: rd.ID, Reason: "rule has no extract clauses"}
	}
	for _, ed := range rd.Extract {
		ex, err := compileExtract(ed)
		if err != nil {
			return nil, &ConfigError{RuleID: rd.ID, Reason: err.Error()}
		}
		m.Extracts = append(m.Extracts, ex)
	}

	return m, nil
}

func compileStep(sd StepDef) (Step, error) {
	p, err := ParsePath(sd.Path)
	if err != nil {
		return Step{}, err
	}

	switch sd.Op {
	case opEquals, opStartsWith, opContains:
		return Step{Path: p, Op: sd.Op, Value: sd.Value}, nil
	case opExists:
		return Step{Path: p, Op: sd.Op}, nil
	case opRegex:
		re, err := regexp.Compile(sd.Value)
		if err != nil {
			return Step{}, fmt.Errorf("step regex %q: %w", sd.Value, err)
		}
		return Step{Path: p, Op: sd.Op, Value: sd.Value, Regex: re}, nil
	case opRange:
		if sd.Min == "" && sd.Max == "" {
			return Step{}, fmt.Errorf("step range: at least one of min/max is required")
		}
		return Step{Path: p, Op: sd.Op, Min: sd.Min, Max: sd.Max}, nil
	default:
		return Step{}, fmt.Errorf("step: unknown op %q", sd.Op)
	}
}

func compileExtract(ed ExtractDef) (Extract, error) {
	f := field.Field(ed.Field)
	if !field.IsKnown(f) {
		return Extract{}, fmt.Errorf("extract: unknown field %q", ed.Field)
	}
	if ed.Confidence < 1 || ed.Confidence > 100 {
		return Extract{}, fmt.Errorf("extract: confidence %d out of range [1,100]", ed.Confidence)
	}

	hasValue := ed.Value != ""
	hasPath := ed.Path != ""
	if hasValue == hasPath {
		return Extract{}, fmt.Errorf("extract: field %q must set exactly one of value or path", ed.Field)
	}

	ex := Extract{Field: f, Confidence: ed.Confidence}
	if hasValue {
		ex.Literal = ed.Value
		return ex, nil
	}

	p, err := ParsePath(ed.Path)
	if err != nil {
		return Extract{}, err
	}
	ex.Path = p
	ex.HasPath = true
	return ex, nil
}

// Evaluate reports whether every step in m passes against tree.
func (m *Matcher) Evaluate(resolve func(Path) (string, bool)) bool {
	for _, step := range m.Steps {
		val, ok := resolve(step.Path)
		switch step.Op {
		case opExists:
			if !ok {
				return false
			}
		case opEquals:
			if !ok || val != step.Value {
				return false
			}
		case opStartsWith:
			if !ok || !strings.HasPrefix(val, step.Value) {
				return false
			}
		case opContains:
			if !ok || !strings.Contains(val, step.Value) {
				return false
			}
		case opRegex:
			if !ok || !step.Regex.MatchString(val) {
				return false
			}
		case opRange:
			if !ok || !inRange(val, step.Min, step.Max) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// inRange reports whether val falls within [min, max] (either bound may be
// empty, meaning unbounded on that side). Bounds are compared numerically
// when val and the bound both parse as a float64; otherwise the comparison
// falls back to plain lexicographic string ordering, which covers
// dotted version strings close enough for a single bounds check without
// a full version-comparison library.
func inRange(val, min, max string) bool {
	if min != "" && !atLeast(val, min) {
		return false
	}
	if max != "" && !atMost(val, max) {
		return false
	}
	return true
}

func atLeast(val, bound string) bool {
	if vf, berr := parseNumeric(val, bound); berr {
		return vf >= 0
	}
	return val >= bound
}

func atMost(val, bound string) bool {
	if vf, berr := parseNumeric(val, bound); berr {
		return vf <= 0
	}
	return val <= bound
}

// parseNumeric reports whether both val and bound parse as float64, and if
// so returns their difference (val - bound) so callers can compare its
// sign instead of repeating the parse.
func parseNumeric(val, bound string) (diff float64, ok bool) {
	vf, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, false
	}
	bf, err := strconv.ParseFloat(bound, 64)
	if err != nil {
		return 0, false
	}
	return vf - bf, true
}
