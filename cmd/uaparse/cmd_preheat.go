// Copyright (C) 2026 OpenFields Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE file for the full license text.

package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/openfields/uaparse/internal/analyzer"
)

var preheatConcurrency int

var preheatCmd = &cobra.Command{
	Use:   "preheat <samples-file>",
	Short: "Build an Analyzer and warm its parse cache from a newline-delimited file of User-Agent strings",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		samples, err := readLines(args[0])
		if err != nil {
			return err
		}

		a, err := buildAnalyzer(analyzer.WithPreheat(samples, preheatConcurrency))
		if err != nil {
			return err
		}
		defer a.Close()

		fmt.Printf("preheated %d samples, cache now holds %d entries\n", len(samples), a.CacheLen())
		return nil
	},
}

func init() {
	preheatCmd.Flags().IntVar(&preheatConcurrency, "concurrency", 8, "number of concurrent preheat workers")
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening samples file %s: %w", path, err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}
