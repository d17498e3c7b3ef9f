// Copyright (C) 2026 OpenFields Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE file for the full license text.

package analyzer

import (
	"go.opentelemetry.io/otel/trace"

	"github.com/openfields/uaparse/internal/cache"
	"github.com/openfields/uaparse/internal/field"
	"github.com/openfields/uaparse/internal/rules"
	"github.com/openfields/uaparse/internal/telemetry"
)

// buildConfig is the struct-tagged, validator-checked configuration record
// a Builder accumulates from Option calls. A builder is a plain value
// consumed by Build, never a class hierarchy: see §9's collapse of the
// "direct vs cached analyzer" inheritance into composition.
type buildConfig struct {
	CacheSize int `validate:"gte=0"`

	cacheInstantiator   func(size int) cache.Store
	fields              map[field.Field]bool // nil means "all fields"
	minimalVersion      bool
	dropTests           bool
	delayedInit         bool
	preheatSamples      []string
	preheatConcurrency  int
	ruleSource          *rules.Source
	tracer              trace.Tracer
	matcherStatsEnabled bool
	influxExporter      *telemetry.InfluxExporter
}

func defaultConfig() buildConfig {
	return buildConfig{
		CacheSize:          4096,
		preheatConcurrency: 8,
	}
}

// Option configures a Builder. Options are applied in the order passed to
// Build/New, so a later option overrides an earlier one targeting the same
// setting.
type Option func(*buildConfig)

// WithCacheSize sets the bounded LRU's capacity. A size of 0 disables
// caching; a negative size is rejected by Build with ErrNegativeCacheSize.
func WithCacheSize(size int) Option {
	return func(c *buildConfig) { c.CacheSize = size }
}

// WithCacheInstantiator overrides how the parse cache is constructed,
// e.g. to plug in a *cache.BadgerStore instead of the default in-process
// LRU. The function receives the configured cache size.
func WithCacheInstantiator(f func(size int) cache.Store) Option {
	return func(c *buildConfig) { c.cacheInstantiator = f }
}

// WithFields restricts the fields an Analyzer computes and returns. Fields
// outside the set may be skipped during matching for speed; Result.Get
// still answers for any field in the catalog, returning its default if it
// was excluded from computation.
func WithFields(fields ...field.Field) Option {
	return func(c *buildConfig) {
		set := make(map[field.Field]bool, len(fields))
		for _, f := range fields {
			set[f] = true
		}
		c.fields = set
	}
}

// WithMinimalVersion enables version-field shortening in the
// post-processing pipeline (see postprocess.Standard).
func WithMinimalVersion(enabled bool) Option {
	return func(c *buildConfig) { c.minimalVersion = enabled }
}

// WithDropTests controls whether rule-test corpora (if the rule source
// carries any) are retained in memory after Build. The core rule-matching
// path never reads test corpora, so this is a pure memory optimization.
func WithDropTests(enabled bool) Option {
	return func(c *buildConfig) { c.dropTests = enabled }
}

// WithImmediateInitialization forces the rule store to compile during
// Build rather than lazily on first Parse. This is the default.
func WithImmediateInitialization() Option {
	return func(c *buildConfig) { c.delayedInit = false }
}

// WithDelayedInitialization defers rule-store compilation until the first
// Parse call, trading a faster Build for a slower first parse. A rule
// source that fails to compile then surfaces as a panic on that first
// Parse instead of as a Build error.
func WithDelayedInitialization() Option {
	return func(c *buildConfig) { c.delayedInit = true }
}

// WithPreheat pre-parses samples during Build (using up to concurrency
// goroutines, via golang.org/x/sync/errgroup) to warm the cache before any
// real traffic arrives. A zero or negative concurrency defaults
// to 8.
func WithPreheat(samples []string, concurrency int) Option {
	return func(c *buildConfig) {
		c.preheatSamples = samples
		if concurrency > 0 {
			c.preheatConcurrency = concurrency
		}
	}
}

// WithRuleSource supplies a rule corpus other than the embedded default.
func WithRuleSource(src rules.Source) Option {
	return func(c *buildConfig) { c.ruleSource = &src }
}

// WithTelemetry supplies an OpenTelemetry tracer used for per-Parse spans.
// If not set, Build uses the package-level tracer from internal/telemetry.
func WithTelemetry(tracer trace.Tracer) Option {
	return func(c *buildConfig) { c.tracer = tracer }
}

// WithMatcherStats enables recording which rule ID won each field, exposed
// via Result.RuleID, for diagnostic and rule-corpus debugging tools like
// cmd/uaparse-inspect.
func WithMatcherStats(enabled bool) Option {
	return func(c *buildConfig) { c.matcherStatsEnabled = enabled }
}

// WithInfluxExporter wires an optional InfluxDB line-protocol side channel:
// every Parse that resolves at least one field to a specific rule (which
// requires WithMatcherStats(true) — see that option) records one sample
// per such field. The Analyzer never closes exporter; callers that built
// it with telemetry.NewInfluxExporter own its Close.
func WithInfluxExporter(exporter *telemetry.InfluxExporter) Option {
	return func(c *buildConfig) { c.influxExporter = exporter }
}
