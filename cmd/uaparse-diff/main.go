// Copyright (C) 2026 OpenFields Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE file for the full license text.

// Command uaparse-diff compares two JSON dumps of analyzer.Result.ToMap()
// output (such as the response body of `uaparse serve`'s /v1/parse
// endpoint, or a rule-corpus regression harness's output) and prints a unified
// diff of the fields that changed. It exists to catch rule-corpus
// regressions: run the same User-Agent corpus against an old and a new
// rule file, dump both, and diff them.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/sourcegraph/go-diff/diff"
)

func main() {
	if len(os.Args) != 3 {
		fmt.Fprintln(os.Stderr, "usage: uaparse-diff <old.json> <new.json>")
		os.Exit(2)
	}

	oldFields, err := loadFields(os.Args[1])
	if err != nil {
		fatal(err)
	}
	newFields, err := loadFields(os.Args[2])
	if err != nil {
		fatal(err)
	}

	hunk := buildHunk(oldFields, newFields)
	if hunk == nil {
		fmt.Println("no differences")
		return
	}

	fd := &diff.FileDiff{
		OrigName: os.Args[1],
		NewName:  os.Args[2],
		Hunks:    []*diff.Hunk{hunk},
	}

	out, err := diff.PrintFileDiff(fd)
	if err != nil {
		fatal(err)
	}
	os.Stdout.Write(out)
}

func loadFields(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return m, nil
}

// buildHunk renders a field-by-field comparison as a single unified-diff
// hunk body: unchanged fields as context lines, changed fields as a
// removed/added pair, sorted by field name for a stable, reviewable diff.
func buildHunk(oldFields, newFields map[string]string) *diff.Hunk {
	names := make(map[string]bool, len(oldFields)+len(newFields))
	for n := range oldFields {
		names[n] = true
	}
	for n := range newFields {
		names[n] = true
	}
	sorted := make([]string, 0, len(names))
	for n := range names {
		sorted = append(sorted, n)
	}
	sort.Strings(sorted)

	var body []byte
	var origLines, newLines int32
	changed := false

	for _, name := range sorted {
		oldVal, hadOld := oldFields[name]
		newVal, hadNew := newFields[name]

		switch {
		case hadOld && hadNew && oldVal == newVal:
			body = append(body, fmt.Sprintf(" %s: %s\n", name, oldVal)...)
			origLines++
			newLines++
		default:
			changed = true
			if hadOld {
				body = append(body, fmt.Sprintf("-%s: %s\n", name, oldVal)...)
				origLines++
			}
			if hadNew {
				body = append(body, fmt.Sprintf("+%s: %s\n", name, newVal)...)
				newLines++
			}
		}
	}

	if !changed {
		return nil
	}

	return &diff.Hunk{
		OrigStartLine: 1,
		OrigLines:     origLines,
		NewStartLine:  1,
		NewLines:      newLines,
		Body:          body,
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
