// Copyright (C) 2026 OpenFields Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE file for the full license text.

package rules

// ConfigError reports a problem found while compiling a Source into a Store:
// an unparsable path, an unknown field name, an empty rule ID, or a
// duplicate rule ID. Compile always returns *ConfigError on failure so
// callers can type-assert for it.
type ConfigError struct {
	RuleID string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.RuleID == "" {
		return "rules: " + e.Reason
	}
	return "rules: rule " + e.RuleID + ": " + e.Reason
}
