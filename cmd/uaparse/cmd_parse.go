// Copyright (C) 2026 OpenFields Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE file for the full license text.

package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/openfields/uaparse/internal/analyzer"
	"github.com/openfields/uaparse/internal/field"
)

var showRuleIDs bool

var parseCmd = &cobra.Command{
	Use:   "parse <user-agent-string>",
	Short: "Parse a single User-Agent string and print its resolved fields",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := []analyzer.Option{}
		if showRuleIDs {
			opts = append(opts, analyzer.WithMatcherStats(true))
		}
		a, err := buildAnalyzer(opts...)
		if err != nil {
			return err
		}
		defer a.Close()

		printResult(a.Parse(args[0]))
		return nil
	},
}

func init() {
	parseCmd.Flags().BoolVar(&showRuleIDs, "rule-ids", false, "also print which rule produced each field")
}

// printResult renders a Result as an aligned field table, bolding field
// names when stdout is a terminal.
func printResult(r analyzer.Result) {
	bold := isatty.IsTerminal(os.Stdout.Fd())
	names := r.AllFieldNames()
	sort.Strings(names)

	width := 0
	for _, n := range names {
		if len(n) > width {
			width = len(n)
		}
	}

	m := r.ToMap()
	for _, n := range names {
		label := n
		if bold {
			label = "\x1b[1m" + n + "\x1b[0m"
		}
		pad := strings.Repeat(" ", width-len(n))
		fmt.Printf("%s%s  %s\n", label, pad, m[n])
	}

	if !showRuleIDs {
		return
	}
	fmt.Println()
	for _, n := range names {
		if id := r.RuleID(field.Field(n)); id != "" {
			fmt.Printf("%s -> %s\n", n, id)
		}
	}
}
