// Copyright (C) 2026 OpenFields Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE file for the full license text.

// Package token turns a raw User-Agent string into a position-addressable
// token tree: an ordered sequence of products, each with an optional
// version and an ordered list of parenthesized comments.
//
// Tokenize is total: it never fails and never panics. Malformed input
// (unbalanced quotes or parentheses, stray separators) produces a
// best-effort tree rather than an error, per the tokenizer's contract.
package token

import "strings"

// Comment is one entry inside a product's parenthesized comment list.
//
// A bare comment ("Windows NT 10.0") has an empty Key and the full text in
// Value. A keyed comment ("rv:1.8.1.11" or "wow64=1") has Key set to the
// part before the separator and Value set to the part after it.
//
// Children holds a nested product sequence when the comment's value itself
// looks like a Client-Hints brand list (see ParseBrandList); it is nil for
// ordinary comments.
type Comment struct {
	Key      string
	Value    string
	Children []Product
}

// IsKeyed reports whether the comment was written as key=value or key:value.
func (c Comment) IsKeyed() bool {
	return c.Key != ""
}

// Product is one `name[/version]` token, with the comment list that
// immediately follows it in parentheses, if any.
type Product struct {
	Name     string
	Version  string
	Comments []Comment
}

// HasVersion reports whether the product carried a "/version" suffix.
func (p Product) HasVersion() bool {
	return p.Version != ""
}

// Comment returns the comment at index i and true, or a zero Comment and
// false if i is out of range. Matchers use this instead of direct slice
// indexing so an out-of-range step is simply false rather than a panic
// (§4.3's error policy: a predicate with an index out of range is false).
func (p Product) Comment(i int) (Comment, bool) {
	if i < 0 || i >= len(p.Comments) {
		return Comment{}, false
	}
	return p.Comments[i], true
}

// Tree is the full ordered token tree produced by Tokenize.
type Tree struct {
	Products []Product
}

// Product returns the product at index i and true, or a zero Product and
// false if i is out of range.
func (t Tree) Product(i int) (Product, bool) {
	if i < 0 || i >= len(t.Products) {
		return Product{}, false
	}
	return t.Products[i], true
}

// Empty reports whether the tree has no products, which is the case for
// Tokenize("") and for input that tokenizes to nothing meaningful.
func (t Tree) Empty() bool {
	return len(t.Products) == 0
}

// Tokenize parses a raw User-Agent string into a Tree.
//
// Grammar (design level): whitespace separates products. A product is
// `name` optionally followed by `/version`. A parenthesized group
// immediately following a product forms an ordered, ';'-separated comment
// list. Quoted strings are honored; unbalanced quotes or parentheses are
// closed defensively at end of input rather than treated as an error.
//
// Tokenize is pure and total: it never returns an error and never panics.
func Tokenize(raw string) Tree {
	s := &scanner{src: raw, n: len(raw)}
	var products []Product

	for {
		s.skipSpace()
		if s.atEnd() {
			break
		}

		name, version := s.readWord()
		if name == "" {
			// Defensive: an isolated separator with nothing readable.
			// Advance one rune to guarantee forward progress.
			s.i++
			continue
		}

		p := Product{Name: name, Version: version}

		s.skipSpace()
		if !s.atEnd() && s.src[s.i] == '(' {
			p.Comments = s.readCommentGroup()
		}

		products = append(products, p)
	}

	return Tree{Products: products}
}

// scanner walks raw UA bytes left to right. It never fails: every read
// method degrades to "nothing more to read" at end of input instead of
// erroring, matching Tokenize's totality contract.
type scanner struct {
	src string
	i   int
	n   int
}

func (s *scanner) atEnd() bool { return s.i >= s.n }

func (s *scanner) skipSpace() {
	for !s.atEnd() && isSpace(s.src[s.i]) {
		s.i++
	}
}

// readWord reads a whitespace/paren-delimited token and splits it on the
// first '/' into name and version.
func (s *scanner) readWord() (name, version string) {
	start := s.i
	for !s.atEnd() && !isSpace(s.src[s.i]) && s.src[s.i] != '(' {
		if s.src[s.i] == '"' {
			s.skipQuoted()
			continue
		}
		s.i++
	}
	word := s.src[start:s.i]
	if idx := strings.IndexByte(word, '/'); idx >= 0 {
		return word[:idx], word[idx+1:]
	}
	return word, ""
}

// skipQuoted advances past a double-quoted span, closing defensively at end
// of input if the closing quote is missing.
func (s *scanner) skipQuoted() {
	s.i++ // opening quote
	for !s.atEnd() && s.src[s.i] != '"' {
		s.i++
	}
	if !s.atEnd() {
		s.i++ // closing quote
	}
}

// readCommentGroup consumes a balanced (or defensively closed) parenthesized
// group and splits its contents into ';'-separated comment entries.
func (s *scanner) readCommentGroup() []Comment {
	s.i++ // '('
	depth := 1
	start := s.i
	for !s.atEnd() && depth > 0 {
		switch s.src[s.i] {
		case '"':
			s.skipQuoted()
			continue
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				body := s.src[start:s.i]
				s.i++ // ')'
				return splitComments(body)
			}
		}
		s.i++
	}
	// Unbalanced: close defensively at end of input with whatever we saw.
	return splitComments(s.src[start:s.i])
}

// splitComments splits a comment-group body on top-level ';' separators
// (not inside nested parens or quotes) and parses each entry.
func splitComments(body string) []Comment {
	parts := splitTopLevel(body, ';')
	comments := make([]Comment, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		comments = append(comments, parseCommentEntry(part))
	}
	return comments
}

// parseCommentEntry recognizes key=value and key:value forms; anything else
// is a bare comment. Children are populated when the value looks like a
// nested Client-Hints brand list.
func parseCommentEntry(s string) Comment {
	if key, val, ok := splitKeyValue(s); ok {
		c := Comment{Key: key, Value: val}
		if looksLikeBrandList(val) {
			c.Children = ParseBrandList(val)
		}
		return c
	}
	return Comment{Value: s}
}

// splitKeyValue finds the first top-level '=' or ':' and splits on it.
// Returns ok=false for a bare comment with no separator.
func splitKeyValue(s string) (key, value string, ok bool) {
	depth := 0
	inQuote := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"':
			inQuote = !inQuote
		case inQuote:
			continue
		case c == '(':
			depth++
		case c == ')':
			if depth > 0 {
				depth--
			}
		case depth == 0 && (c == '=' || c == ':'):
			return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+1:]), true
		}
	}
	return "", "", false
}

// splitTopLevel splits s on sep, ignoring occurrences inside parentheses or
// double quotes.
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	depth := 0
	inQuote := false
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"':
			inQuote = !inQuote
		case inQuote:
			continue
		case c == '(':
			depth++
		case c == ')':
			if depth > 0 {
				depth--
			}
		case depth == 0 && c == sep:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	parts = append(parts, s[start:])
	return parts
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
