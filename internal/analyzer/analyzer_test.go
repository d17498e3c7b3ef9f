// Copyright (C) 2026 OpenFields Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE file for the full license text.

package analyzer

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/openfields/uaparse/internal/cache"
	"github.com/openfields/uaparse/internal/field"
	"github.com/openfields/uaparse/internal/resolve"
	"github.com/openfields/uaparse/internal/rules"
)

const firefoxXPUA = "Mozilla/5.0 (Windows; U; Windows NT 5.1; en-US; rv:1.8.1.11) Gecko/20071127 Firefox/2.0.0.11"

func TestScenario1FirefoxWindowsXP(t *testing.T) {
	a, err := Build()
	require.NoError(t, err)
	defer a.Close()

	r := a.Parse(firefoxXPUA)
	require.Equal(t, "Windows NT", r.Get(field.OperatingSystemName))
	require.Equal(t, "XP", r.Get(field.OperatingSystemVersion))
	require.Equal(t, "Gecko", r.Get(field.LayoutEngineName))
	require.Equal(t, "1.8.1.11", r.Get(field.LayoutEngineVersion))
	require.Equal(t, "Firefox", r.Get(field.AgentName))
	require.Equal(t, "2.0.0.11", r.Get(field.AgentVersion))
	require.Equal(t, "en-us", r.Get(field.AgentLanguageCode))
	require.Equal(t, "English (United States)", r.Get(field.AgentLanguage))
	require.Equal(t, "Strong security", r.Get(field.AgentSecurity))
}

func TestScenario2EmptyStringIsHacker(t *testing.T) {
	a, err := Build()
	require.NoError(t, err)
	defer a.Close()

	r := a.Parse("")
	require.Equal(t, "Hacker", r.Get(field.AgentName))
	require.Equal(t, "Hacker", r.Get(field.AgentClass))
}

func TestScenario3NullEqualsEmpty(t *testing.T) {
	a, err := Build()
	require.NoError(t, err)
	defer a.Close()

	empty := a.Parse("")
	null := a.ParseHeaders(http.Header{})
	require.Equal(t, empty.ToMap(), null.ToMap())
}

func TestScenario4ChromeLinuxClientHints(t *testing.T) {
	a, err := Build()
	require.NoError(t, err)
	defer a.Close()

	headers := http.Header{}
	headers.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/100.0.4896.127 Safari/537.36")
	headers.Set("Sec-Ch-Ua-Platform", `"Linux"`)
	headers.Set("Sec-Ch-Ua-Platform-Version", `"5.13.0"`)
	headers.Set("Sec-Ch-Ua-Bitness", `"64"`)

	r := a.ParseHeaders(headers)
	require.Equal(t, "Intel x86_64", r.Get(field.DeviceCpu))
	require.Equal(t, "64", r.Get(field.DeviceCpuBits))
	require.Equal(t, "Linux", r.Get(field.OperatingSystemName))
	require.Equal(t, "5.13.0", r.Get(field.OperatingSystemVersion))
	require.Equal(t, "5", r.Get(field.OperatingSystemVersionMajor))
	require.Equal(t, "Chrome", r.Get(field.AgentName))
	require.Equal(t, "100.0.4896.127", r.Get(field.AgentVersion))
}

func TestScenario5EmptyClientHintsFallBackToUA(t *testing.T) {
	a, err := Build()
	require.NoError(t, err)
	defer a.Close()

	headers := http.Header{}
	headers.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/100.0.4896.127 Safari/537.36")
	headers.Set("Sec-Ch-Ua-Platform", "")
	headers.Set("Sec-Ch-Ua-Platform-Version", "")
	headers.Set("Sec-Ch-Ua-Bitness", "")

	r := a.ParseHeaders(headers)
	require.Equal(t, field.VersionSentinel, r.Get(field.OperatingSystemVersion))
	require.Equal(t, "Linux "+field.VersionSentinel, r.Get(field.OperatingSystemNameVersion))
	require.Equal(t, "Chrome", r.Get(field.AgentName))
	require.Equal(t, "100.0.4896.127", r.Get(field.AgentVersion))
}

func TestScenario6UnknownFieldName(t *testing.T) {
	a, err := Build()
	require.NoError(t, err)
	defer a.Close()

	r := a.Parse(firefoxXPUA)
	require.Equal(t, field.UnknownSentinel, r.Get(field.Field("NoSuchField")))
}

func TestScenario7ParseFieldSecurity(t *testing.T) {
	a, err := Build()
	require.NoError(t, err)
	defer a.Close()

	require.Equal(t, "Strong security", a.ParseField(firefoxXPUA, field.AgentSecurity))
}

func TestParseAfterClosePanics(t *testing.T) {
	a, err := Build()
	require.NoError(t, err)
	require.NoError(t, a.Close())
	require.Panics(t, func() { a.Parse(firefoxXPUA) })
}

func TestBuildRejectsNegativeCacheSize(t *testing.T) {
	_, err := Build(WithCacheSize(-1))
	require.ErrorIs(t, err, ErrNegativeCacheSize)
}

func TestInvariantDeterminism(t *testing.T) {
	a, err := Build()
	require.NoError(t, err)
	defer a.Close()

	first := a.Parse(firefoxXPUA).ToMap()
	second := a.Parse(firefoxXPUA).ToMap()
	require.Equal(t, first, second)
}

func TestInvariantNoFieldEverEmpty(t *testing.T) {
	a, err := Build()
	require.NoError(t, err)
	defer a.Close()

	for _, ua := range []string{firefoxXPUA, "", "garbage ua string with no structure at all"} {
		r := a.Parse(ua)
		for _, f := range field.All() {
			require.NotEmpty(t, r.Get(f))
		}
	}
}

func TestInvariantVersionMajorIsPrefixOfVersion(t *testing.T) {
	a, err := Build()
	require.NoError(t, err)
	defer a.Close()

	r := a.Parse(firefoxXPUA)
	major := r.Get(field.AgentVersionMajor)
	version := r.Get(field.AgentVersion)
	if major != field.VersionSentinel {
		require.True(t, strings.HasPrefix(version, major))
		require.True(t, len(version) >= len(major))
	}
}

func TestInvariantNameVersionComposition(t *testing.T) {
	a, err := Build()
	require.NoError(t, err)
	defer a.Close()

	r := a.Parse(firefoxXPUA)
	require.Equal(t, r.Get(field.AgentName)+" "+r.Get(field.AgentVersion), r.Get(field.AgentNameVersion))
}

// countingStore wraps a cache.Store and counts how often it runs compute,
// which is the only path into the matcher engine.
type countingStore struct {
	cache.Store
	computes int
}

func (s *countingStore) GetOrCompute(ctx context.Context, key string, compute func() resolve.FieldMap) resolve.FieldMap {
	return s.Store.GetOrCompute(ctx, key, func() resolve.FieldMap {
		s.computes++
		return compute()
	})
}

func TestCacheHitSkipsMatcherEngine(t *testing.T) {
	counter := &countingStore{}
	a, err := Build(WithCacheSize(4), WithCacheInstantiator(func(size int) cache.Store {
		counter.Store = cache.NewLRU(size)
		return counter
	}))
	require.NoError(t, err)
	defer a.Close()

	a.Parse(firefoxXPUA)
	require.Equal(t, 1, a.CacheLen())
	a.Parse(firefoxXPUA)
	require.Equal(t, 1, a.CacheLen())
	require.Equal(t, 1, counter.computes)
}

func TestCacheLRUBound(t *testing.T) {
	a, err := Build(WithCacheSize(2))
	require.NoError(t, err)
	defer a.Close()

	a.Parse("Mozilla/5.0 one/1.0")
	a.Parse("Mozilla/5.0 two/1.0")
	a.Parse("Mozilla/5.0 three/1.0")
	require.Equal(t, 2, a.CacheLen())
}

func TestWithFieldsRestrictsOutput(t *testing.T) {
	a, err := Build(WithFields(field.AgentName))
	require.NoError(t, err)
	defer a.Close()

	r := a.Parse(firefoxXPUA)
	require.Equal(t, "Firefox", r.Get(field.AgentName))
	require.Equal(t, field.UnknownSentinel, r.Get(field.OperatingSystemName))
}

func TestWithMinimalVersion(t *testing.T) {
	a, err := Build(WithMinimalVersion(true))
	require.NoError(t, err)
	defer a.Close()

	r := a.Parse(firefoxXPUA)
	require.Equal(t, "2.0", r.Get(field.AgentVersion))
}

func TestWithDelayedInitializationCompilesOnFirstParse(t *testing.T) {
	a, err := Build(WithDelayedInitialization())
	require.NoError(t, err)
	defer a.Close()

	require.Nil(t, a.store)
	r := a.Parse(firefoxXPUA)
	require.Equal(t, "Firefox", r.Get(field.AgentName))
	require.NotNil(t, a.store)
}

func TestWithDelayedInitializationMatchesImmediate(t *testing.T) {
	immediate, err := Build(WithImmediateInitialization())
	require.NoError(t, err)
	defer immediate.Close()

	delayed, err := Build(WithDelayedInitialization())
	require.NoError(t, err)
	defer delayed.Close()

	require.Equal(t, immediate.Parse(firefoxXPUA).ToMap(), delayed.Parse(firefoxXPUA).ToMap())
}

func TestWithMatcherStatsGatesRuleID(t *testing.T) {
	withStats, err := Build(WithMatcherStats(true))
	require.NoError(t, err)
	defer withStats.Close()

	r := withStats.Parse(firefoxXPUA)
	require.NotEmpty(t, r.RuleID(field.AgentName))

	without, err := Build(WithMatcherStats(false))
	require.NoError(t, err)
	defer without.Close()

	r2 := without.Parse(firefoxXPUA)
	require.Empty(t, r2.RuleID(field.AgentName))
}

func TestWithDropTestsClearsRuleTestCorpora(t *testing.T) {
	src := rules.Source{Rules: []rules.RuleDef{
		{
			ID:      "fallback",
			Extract: []rules.ExtractDef{{Field: "AgentName", Value: "Hacker", Confidence: 10}},
			Tests:   []rules.RuleTest{{UserAgent: "", Expect: map[string]string{"AgentName": "Hacker"}}},
		},
	}}

	a, err := Build(WithRuleSource(src), WithDelayedInitialization(), WithDropTests(true))
	require.NoError(t, err)
	defer a.Close()

	for _, rd := range a.ruleSrc.Rules {
		require.Nil(t, rd.Tests)
	}

	kept, err := Build(WithRuleSource(src), WithDelayedInitialization())
	require.NoError(t, err)
	defer kept.Close()

	require.NotEmpty(t, kept.ruleSrc.Rules[0].Tests)
}

func TestWithInfluxExporterNilIsNoop(t *testing.T) {
	a, err := Build(WithInfluxExporter(nil), WithMatcherStats(true))
	require.NoError(t, err)
	defer a.Close()

	require.NotPanics(t, func() { a.Parse(firefoxXPUA) })
}

func TestToMapFiltersFields(t *testing.T) {
	a, err := Build()
	require.NoError(t, err)
	defer a.Close()

	r := a.Parse(firefoxXPUA)
	m := r.ToMap(field.AgentName, field.AgentVersion)
	require.Len(t, m, 2)
	require.Equal(t, "Firefox", m[string(field.AgentName)])
	require.Equal(t, "2.0.0.11", m[string(field.AgentVersion)])
}
