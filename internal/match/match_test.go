// Copyright (C) 2026 OpenFields Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE file for the full license text.

package match

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/openfields/uaparse/internal/rules"
	"github.com/openfields/uaparse/internal/token"
)

func TestEvaluateFirefoxScenario(t *testing.T) {
	store, err := rules.DefaultStore()
	require.NoError(t, err)

	raw := "Mozilla/5.0 (Windows; U; Windows NT 5.1; en-US; rv:1.8.1.11) Gecko/20071127 Firefox/2.0.0.11"
	in := rules.Input{Tree: token.Tokenize(raw)}

	proposals := Evaluate(store, in)
	require.NotEmpty(t, proposals)

	byField := map[string][]Proposal{}
	for _, p := range proposals {
		byField[p.Field] = append(byField[p.Field], p)
	}
	require.NotEmpty(t, byField["AgentName"])
	require.Equal(t, "Firefox", byField["AgentName"][0].Value)
	require.NotEmpty(t, byField["LayoutEngineVersion"])
	require.Equal(t, "1.8.1.11", byField["LayoutEngineVersion"][0].Value)
}

func TestEvaluateClientHintsOverride(t *testing.T) {
	store, err := rules.DefaultStore()
	require.NoError(t, err)

	raw := "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/100.0.4896.127 Safari/537.36"
	in := rules.Input{
		Tree: token.Tokenize(raw),
		Hints: map[string]string{
			"platform":        "Linux",
			"platformVersion": "5.13.0",
			"bitness":         "64",
		},
	}

	proposals := Evaluate(store, in)
	var sawVersionOverride bool
	for _, p := range proposals {
		if p.Field == "OperatingSystemVersion" && p.Value == "5.13.0" {
			sawVersionOverride = true
		}
	}
	require.True(t, sawVersionOverride)
}

func TestEvaluateEmptyInput(t *testing.T) {
	store, err := rules.DefaultStore()
	require.NoError(t, err)

	proposals := Evaluate(store, rules.Input{Tree: token.Tokenize("")})
	var sawHacker bool
	for _, p := range proposals {
		if p.Field == "AgentClass" && p.Value == "Hacker" {
			sawHacker = true
		}
	}
	require.True(t, sawHacker)
}
