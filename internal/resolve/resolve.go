// Copyright (C) 2026 OpenFields Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE file for the full license text.

// Package resolve turns a flat list of competing field proposals into one
// winner per field: highest confidence wins, ties broken by the proposing
// rule's load order (the earlier-declared rule wins), and any field no
// matcher touched falls back to its catalog default.
package resolve

import (
	"github.com/openfields/uaparse/internal/field"
	"github.com/openfields/uaparse/internal/match"
)

// entry is the winning proposal recorded for one field, plus enough of its
// provenance for diagnostics.
type entry struct {
	value      string
	confidence int
	loadOrder  int
	ruleID     string
	set        bool
}

// FieldMap is the resolved, read-only result of one Resolve call: every
// field in the catalog maps to exactly one value, never empty.
//
// Thread Safety: a FieldMap is immutable after Resolve returns and is safe
// for concurrent reads from any number of goroutines.
type FieldMap struct {
	entries map[field.Field]entry
}

// Resolve picks one winning proposal per field from proposals and fills in
// catalog defaults for every field nothing proposed.
func Resolve(proposals []match.Proposal) FieldMap {
	entries := make(map[field.Field]entry, len(field.All()))

	for _, p := range proposals {
		f := field.Field(p.Field)
		if !field.IsKnown(f) {
			continue
		}
		cur, ok := entries[f]
		if !ok || beats(p, cur) {
			entries[f] = entry{
				value:      p.Value,
				confidence: p.Confidence,
				loadOrder:  p.LoadOrder,
				ruleID:     p.RuleID,
				set:        true,
			}
		}
	}

	for _, f := range field.All() {
		e, ok := entries[f]
		if !ok || !e.set || e.value == "" {
			entries[f] = entry{value: field.DefaultValue(f), set: true}
		}
	}

	return FieldMap{entries: entries}
}

// beats reports whether candidate p should replace the current winner cur:
// strictly higher confidence wins outright; on a tie, the rule declared
// earlier in the Source wins (smaller LoadOrder).
func beats(p match.Proposal, cur entry) bool {
	if p.Confidence != cur.confidence {
		return p.Confidence > cur.confidence
	}
	return p.LoadOrder < cur.loadOrder
}

// Get returns the resolved value for f. An f outside the closed catalog
// (field.IsKnown(f) == false) returns field.UnknownSentinel, matching §7's
// "a request with an unknown field name receives Unknown" contract — this
// never errors.
func (fm FieldMap) Get(f field.Field) string {
	if !field.IsKnown(f) {
		return field.UnknownSentinel
	}
	e, ok := fm.entries[f]
	if !ok {
		return field.DefaultValue(f)
	}
	return e.value
}

// RuleID returns the ID of the rule that produced f's winning value, or ""
// if the field holds a catalog default with no contributing rule.
func (fm FieldMap) RuleID(f field.Field) string {
	return fm.entries[f].ruleID
}

// Values returns a plain field-keyed copy of the resolved map, for callers
// (internal/postprocess) that need to run further calculation over the
// result and rebuild a FieldMap from the outcome via FromValues.
func (fm FieldMap) Values() map[field.Field]string {
	out := make(map[field.Field]string, len(fm.entries))
	for f, e := range fm.entries {
		out[f] = e.value
	}
	return out
}

// FromValues builds a FieldMap directly from a plain field-keyed map,
// filling in catalog defaults for anything missing or empty. Used by
// internal/postprocess to turn its working map back into a FieldMap once
// every calculator has run. Rule-ID provenance is not carried through this
// path; see FromValuesWithRuleIDs for the variant that preserves it.
func FromValues(values map[field.Field]string) FieldMap {
	return FromValuesWithRuleIDs(values, nil)
}

// RuleIDs returns a plain field-keyed copy of each field's winning rule ID,
// for a caller that needs to carry provenance through a Values()/rebuild
// round trip (internal/postprocess.Pipeline.Run does exactly this).
func (fm FieldMap) RuleIDs() map[field.Field]string {
	out := make(map[field.Field]string, len(fm.entries))
	for f, e := range fm.entries {
		if e.ruleID != "" {
			out[f] = e.ruleID
		}
	}
	return out
}

// FromValuesWithRuleIDs is FromValues but also threads back each field's
// originating rule ID from ruleIDs, for callers that pass some values
// through a transformation unchanged and want their provenance preserved.
func FromValuesWithRuleIDs(values map[field.Field]string, ruleIDs map[field.Field]string) FieldMap {
	entries := make(map[field.Field]entry, len(field.All()))
	for _, f := range field.All() {
		v := values[f]
		if v == "" {
			v = field.DefaultValue(f)
		}
		entries[f] = entry{value: v, ruleID: ruleIDs[f], set: true}
	}
	return FieldMap{entries: entries}
}

// ToMap renders fields into a plain string map. With no arguments it
// renders every field in the catalog; passing fields restricts the result
// to just those, in no particular order — useful for a caller that only
// wants a handful of fields serialized.
func (fm FieldMap) ToMap(fields ...field.Field) map[string]string {
	if len(fields) == 0 {
		fields = field.All()
	}
	out := make(map[string]string, len(fields))
	for _, f := range fields {
		out[string(f)] = fm.Get(f)
	}
	return out
}

// AllFieldNames returns the closed catalog's field names as strings, in
// field.All's stable order.
func AllFieldNames() []string {
	all := field.All()
	names := make([]string, len(all))
	for i, f := range all {
		names[i] = string(f)
	}
	return names
}
