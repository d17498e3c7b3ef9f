// Copyright (C) 2026 OpenFields Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE file for the full license text.

// Command uaparse-inspect is an interactive TUI for building Analyzer
// Options with a form and viewing the resulting Result as a scrollable
// field table, for exploring rule-corpus behavior without writing code.
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/huh"
	tea "github.com/charmbracelet/bubbletea"
	"gopkg.in/yaml.v3"

	"github.com/openfields/uaparse/internal/analyzer"
	"github.com/openfields/uaparse/internal/rules"
)

// wizardInput collects the raw string values a huh.Form gathers before
// they are validated and converted into analyzer.Options.
type wizardInput struct {
	userAgent      string
	ruleFile       string
	cacheSizeText  string
	minimalVersion bool
	showRuleIDs    bool
}

func main() {
	input := wizardInput{cacheSizeText: "4096"}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("User-Agent string").
				Placeholder("Mozilla/5.0 (Windows; U; Windows NT 5.1; en-US; rv:1.8.1.11) Gecko/20071127 Firefox/2.0.0.11").
				Value(&input.userAgent),
			huh.NewInput().
				Title("Rule file (blank for embedded default)").
				Value(&input.ruleFile),
			huh.NewInput().
				Title("Cache size").
				Value(&input.cacheSizeText),
			huh.NewConfirm().
				Title("Shorten versions to two segments?").
				Value(&input.minimalVersion),
			huh.NewConfirm().
				Title("Show which rule produced each field?").
				Value(&input.showRuleIDs),
		),
	)

	if err := form.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	result, err := runParse(input)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	m := newResultModel(result, input.showRuleIDs)
	if _, err := tea.NewProgram(m).Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runParse(input wizardInput) (analyzer.Result, error) {
	cacheSize, err := strconv.Atoi(input.cacheSizeText)
	if err != nil {
		return analyzer.Result{}, fmt.Errorf("cache size must be an integer: %w", err)
	}

	opts := []analyzer.Option{
		analyzer.WithCacheSize(cacheSize),
		analyzer.WithMinimalVersion(input.minimalVersion),
		analyzer.WithMatcherStats(input.showRuleIDs),
	}

	if input.ruleFile != "" {
		data, err := os.ReadFile(input.ruleFile)
		if err != nil {
			return analyzer.Result{}, fmt.Errorf("reading rule file %s: %w", input.ruleFile, err)
		}
		var src rules.Source
		if err := yaml.Unmarshal(data, &src); err != nil {
			return analyzer.Result{}, fmt.Errorf("parsing rule file %s: %w", input.ruleFile, err)
		}
		opts = append(opts, analyzer.WithRuleSource(src))
	}

	a, err := analyzer.Build(opts...)
	if err != nil {
		return analyzer.Result{}, err
	}
	defer a.Close()

	return a.Parse(input.userAgent), nil
}
