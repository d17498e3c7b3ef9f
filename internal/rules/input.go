// Copyright (C) 2026 OpenFields Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE file for the full license text.

package rules

import "github.com/openfields/uaparse/internal/token"

// Input is everything a Matcher's steps may resolve against: the tokenized
// User-Agent tree plus any structured Client-Hints header values supplied
// alongside it.
//
// Hints keys are short, lowercase names assigned by the caller building the
// Input (internal/analyzer), not raw header names — e.g. "platform" for
// Sec-Ch-Ua-Platform, "bitness" for Sec-Ch-Ua-Bitness. A present-but-empty
// hint value resolves as not-found: §8 scenario 5 requires that a
// Client-Hints header sent with an empty value behaves as if it were never
// sent, falling back to whatever the User-Agent string itself implies.
type Input struct {
	Tree  token.Tree
	Hints map[string]string
}

// Hint looks up a named Client-Hints value. An absent key or an empty value
// both report ok=false.
func (in Input) Hint(name string) (string, bool) {
	v, ok := in.Hints[name]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
