// Copyright (C) 2026 OpenFields Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE file for the full license text.

package postprocess

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/openfields/uaparse/internal/field"
	"github.com/openfields/uaparse/internal/resolve"
)

func TestNewDetectsCycle(t *testing.T) {
	a := Calculator{Name: "a", Reads: []field.Field{field.AgentName}, Writes: []field.Field{field.AgentVersion}}
	b := Calculator{Name: "b", Reads: []field.Field{field.AgentVersion}, Writes: []field.Field{field.AgentName}}

	_, err := New([]Calculator{a, b})
	require.Error(t, err)
	var cycleErr *CycleError
	require.ErrorAs(t, err, &cycleErr)
}

func TestNewOrdersByDependency(t *testing.T) {
	pipeline, err := New(Standard(false))
	require.NoError(t, err)
	require.NotEmpty(t, pipeline.Names())
}

func TestRunComposesNameVersion(t *testing.T) {
	pipeline, err := New(Standard(false))
	require.NoError(t, err)

	fm := resolve.FromValues(map[field.Field]string{
		field.AgentName:    "Firefox",
		field.AgentVersion: "2.0.0.11",
	})
	result := pipeline.Run(fm)

	require.Equal(t, "2", result.Get(field.AgentVersionMajor))
	require.Equal(t, "Firefox 2.0.0.11", result.Get(field.AgentNameVersion))
	require.Equal(t, "Firefox 2", result.Get(field.AgentNameVersionMajor))
	require.Equal(t, "Browser", result.Get(field.AgentClass))
}

func TestRunMinimalVersionTrimsBeforeComposing(t *testing.T) {
	pipeline, err := New(Standard(true))
	require.NoError(t, err)

	fm := resolve.FromValues(map[field.Field]string{
		field.AgentName:    "Firefox",
		field.AgentVersion: "2.0.0.11",
	})
	result := pipeline.Run(fm)

	require.Equal(t, "2.0", result.Get(field.AgentVersion))
	require.Equal(t, "2", result.Get(field.AgentVersionMajor))
	require.Equal(t, "Firefox 2.0", result.Get(field.AgentNameVersion))
}

func TestRunLanguageExpansion(t *testing.T) {
	pipeline, err := New(Standard(false))
	require.NoError(t, err)

	fm := resolve.FromValues(map[field.Field]string{
		field.AgentLanguageCode: "en-us",
	})
	result := pipeline.Run(fm)
	require.Equal(t, "English (United States)", result.Get(field.AgentLanguage))
}

func TestRunNeverEmptiesAField(t *testing.T) {
	pipeline, err := New(Standard(false))
	require.NoError(t, err)

	result := pipeline.Run(resolve.FromValues(nil))
	for _, f := range field.All() {
		require.NotEmpty(t, result.Get(f))
	}
}
