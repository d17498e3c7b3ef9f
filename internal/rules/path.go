// Copyright (C) 2026 OpenFields Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE file for the full license text.

package rules

import (
	"fmt"
	"strconv"
	"strings"
)

// pathKind identifies which part of an Input a Path addresses.
type pathKind int

const (
	kindTreeEmpty pathKind = iota
	kindProductName
	kindProductVersion
	kindCommentValue
	kindCommentKey
	kindHint
)

// Path is a compiled, position-addressing expression over an Input. Paths
// are parsed once at rule-compile time (ParsePath) and resolved many times
// at match time (Resolve), so the hot path never re-parses a string.
type Path struct {
	kind         pathKind
	productIndex int
	commentIndex int
	hintName     string
}

// ParsePath compiles a textual path expression into a Path.
//
// Supported forms:
//
//	tree.empty
//	product[N]                    (same as product[N].name)
//	product[N].name
//	product[N].version
//	product[N].comment[M]         (same as product[N].comment[M].value)
//	product[N].comment[M].value
//	product[N].comment[M].key
//	hint.<name>                   (a Client-Hints value, e.g. hint.platform)
//
// Returns a ConfigError-wrapped error for any other form; this is a
// construction-time failure and can never be reached from Evaluate.
func ParsePath(s string) (Path, error) {
	s = strings.TrimSpace(s)
	if s == "tree.empty" {
		return Path{kind: kindTreeEmpty}, nil
	}
	if strings.HasPrefix(s, "hint.") {
		name := s[len("hint."):]
		if name == "" {
			return Path{}, &ConfigError{Reason: fmt.Sprintf("path %q: hint name is required", s)}
		}
		return Path{kind: kindHint, hintName: name}, nil
	}

	if !strings.HasPrefix(s, "product[") {
		return Path{}, &ConfigError{Reason: fmt.Sprintf("path %q: must start with \"product[\", \"hint.\", or be \"tree.empty\"", s)}
	}

	rest := s[len("product["):]
	idxStr, rest, err := takeBracketed(rest)
	if err != nil {
		return Path{}, &ConfigError{Reason: fmt.Sprintf("path %q: %v", s, err)}
	}
	productIndex, err := strconv.Atoi(idxStr)
	if err != nil {
		return Path{}, &ConfigError{Reason: fmt.Sprintf("path %q: product index %q is not an integer", s, idxStr)}
	}

	rest = strings.TrimPrefix(rest, ".")
	switch {
	case rest == "" || rest == "name":
		return Path{kind: kindProductName, productIndex: productIndex}, nil
	case rest == "version":
		return Path{kind: kindProductVersion, productIndex: productIndex}, nil
	case strings.HasPrefix(rest, "comment["):
		rest = rest[len("comment["):]
		cIdxStr, rest, err := takeBracketed(rest)
		if err != nil {
			return Path{}, &ConfigError{Reason: fmt.Sprintf("path %q: %v", s, err)}
		}
		commentIndex, err := strconv.Atoi(cIdxStr)
		if err != nil {
			return Path{}, &ConfigError{Reason: fmt.Sprintf("path %q: comment index %q is not an integer", s, cIdxStr)}
		}
		rest = strings.TrimPrefix(rest, ".")
		switch rest {
		case "", "value":
			return Path{kind: kindCommentValue, productIndex: productIndex, commentIndex: commentIndex}, nil
		case "key":
			return Path{kind: kindCommentKey, productIndex: productIndex, commentIndex: commentIndex}, nil
		default:
			return Path{}, &ConfigError{Reason: fmt.Sprintf("path %q: unknown comment suffix %q", s, rest)}
		}
	default:
		return Path{}, &ConfigError{Reason: fmt.Sprintf("path %q: unknown product suffix %q", s, rest)}
	}
}

// takeBracketed consumes up to the next ']' and returns the text before it
// plus whatever follows.
func takeBracketed(s string) (inside, remainder string, err error) {
	idx := strings.IndexByte(s, ']')
	if idx < 0 {
		return "", "", fmt.Errorf("unterminated \"[\"")
	}
	return s[:idx], s[idx+1:], nil
}

// Resolve evaluates the path against in. ok is false when the path
// addresses a position that doesn't exist — out-of-range indices and
// missing or empty Client-Hints values resolve to ("", false) rather than
// panicking, matching §4.3's error policy.
func (p Path) Resolve(in Input) (string, bool) {
	switch p.kind {
	case kindTreeEmpty:
		if in.Tree.Empty() {
			return "true", true
		}
		return "false", true
	case kindHint:
		return in.Hint(p.hintName)
	case kindProductName:
		prod, ok := in.Tree.Product(p.productIndex)
		if !ok {
			return "", false
		}
		return prod.Name, true
	case kindProductVersion:
		prod, ok := in.Tree.Product(p.productIndex)
		if !ok || !prod.HasVersion() {
			return "", false
		}
		return prod.Version, true
	case kindCommentValue:
		prod, ok := in.Tree.Product(p.productIndex)
		if !ok {
			return "", false
		}
		c, ok := prod.Comment(p.commentIndex)
		if !ok {
			return "", false
		}
		return c.Value, true
	case kindCommentKey:
		prod, ok := in.Tree.Product(p.productIndex)
		if !ok {
			return "", false
		}
		c, ok := prod.Comment(p.commentIndex)
		if !ok || !c.IsKeyed() {
			return "", false
		}
		return c.Key, true
	default:
		return "", false
	}
}
