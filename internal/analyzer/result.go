// Copyright (C) 2026 OpenFields Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE file for the full license text.

package analyzer

import (
	"github.com/openfields/uaparse/internal/field"
	"github.com/openfields/uaparse/internal/resolve"
)

// Result is the outcome of one Parse call: every field in the catalog
// resolved to exactly one value.
//
// Thread Safety: a Result is immutable and safe for concurrent reads.
type Result struct {
	fields resolve.FieldMap
}

// Get returns the value of f. An f outside the closed catalog returns
// "Unknown" rather than erroring, per §7.
func (r Result) Get(f field.Field) string {
	return r.fields.Get(f)
}

// RuleID returns the ID of the rule that produced f's winning value, or ""
// if f holds a catalog default with no contributing rule. Only meaningful
// when the Analyzer was built WithMatcherStats(true); otherwise always "".
func (r Result) RuleID(f field.Field) string {
	return r.fields.RuleID(f)
}

// ToMap renders fields into a plain string map. With no arguments it
// renders every field in the catalog; passing fields restricts the result
// to just those.
func (r Result) ToMap(fields ...field.Field) map[string]string {
	return r.fields.ToMap(fields...)
}

// AllFieldNames returns the closed catalog's field names as strings.
func (r Result) AllFieldNames() []string {
	return resolve.AllFieldNames()
}
