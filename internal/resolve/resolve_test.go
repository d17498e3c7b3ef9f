// Copyright (C) 2026 OpenFields Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE file for the full license text.

package resolve

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/openfields/uaparse/internal/field"
	"github.com/openfields/uaparse/internal/match"
)

func TestResolveHighestConfidenceWins(t *testing.T) {
	fm := Resolve([]match.Proposal{
		{Field: "AgentName", Value: "Low", Confidence: 10, LoadOrder: 0},
		{Field: "AgentName", Value: "High", Confidence: 90, LoadOrder: 1},
	})
	require.Equal(t, "High", fm.Get(field.AgentName))
}

func TestResolveTieBreaksByLoadOrder(t *testing.T) {
	fm := Resolve([]match.Proposal{
		{Field: "AgentName", Value: "Second", Confidence: 50, LoadOrder: 3},
		{Field: "AgentName", Value: "First", Confidence: 50, LoadOrder: 1},
	})
	require.Equal(t, "First", fm.Get(field.AgentName))
}

func TestResolveDefaultsUnsetFields(t *testing.T) {
	fm := Resolve(nil)
	require.Equal(t, field.UnknownSentinel, fm.Get(field.AgentName))
	require.Equal(t, field.VersionSentinel, fm.Get(field.AgentVersion))
}

func TestResolveUnknownFieldNameReturnsUnknown(t *testing.T) {
	fm := Resolve(nil)
	require.Equal(t, field.UnknownSentinel, fm.Get(field.Field("NoSuchField")))
}

func TestResolveNeverEmpty(t *testing.T) {
	fm := Resolve(nil)
	for _, f := range field.All() {
		require.NotEmpty(t, fm.Get(f))
	}
}
