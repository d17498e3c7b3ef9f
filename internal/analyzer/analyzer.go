// Copyright (C) 2026 OpenFields Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE file for the full license text.

// Package analyzer is the composition root: it wires internal/rules,
// internal/match, internal/resolve, internal/postprocess, and
// internal/cache into the single public Analyzer type.
//
// An Analyzer is built once via Build (or New) from an ordered list of
// Options and is thereafter immutable aside from its cache and its closed
// flag — there is no class hierarchy of "cached" vs "direct" analyzer
// variants, just one type with an optional cache.Store.
package analyzer

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/openfields/uaparse/internal/cache"
	"github.com/openfields/uaparse/internal/field"
	"github.com/openfields/uaparse/internal/match"
	"github.com/openfields/uaparse/internal/postprocess"
	"github.com/openfields/uaparse/internal/resolve"
	"github.com/openfields/uaparse/internal/rules"
	"github.com/openfields/uaparse/internal/telemetry"
	"github.com/openfields/uaparse/internal/token"
)

var validate = validator.New()

// Analyzer parses User-Agent strings (optionally with Client-Hints
// headers) into Results.
//
// Thread Safety: safe for concurrent use by any number of goroutines after
// Build returns. Close (or Destroy, its alias) may be called exactly once;
// every Parse variant panics if called afterward.
type Analyzer struct {
	// store is set synchronously in Build unless WithDelayedInitialization
	// was passed, in which case it stays nil until ensureStore's first call
	// compiles ruleSrc and storeOnce guards against a repeat compile.
	store     *rules.Store
	storeOnce sync.Once
	storeErr  error
	ruleSrc   rules.Source

	pipeline     *postprocess.Pipeline
	cacheStore   cache.Store
	fields       map[field.Field]bool
	matcherStats bool
	tracer       trace.Tracer
	influx       *telemetry.InfluxExporter
	closed       atomic.Bool
}

// Build validates opts and constructs an Analyzer. Returns a
// *rules.ConfigError from rule compilation, a *postprocess.CycleError from
// post-processor cycle detection, or ErrNegativeCacheSize for a negative
// WithCacheSize.
func Build(opts ...Option) (*Analyzer, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if err := validate.Struct(&cfg); err != nil {
		return nil, ErrNegativeCacheSize
	}

	var src rules.Source
	if cfg.ruleSource != nil {
		src = *cfg.ruleSource
	} else {
		var err error
		src, err = rules.DefaultSource()
		if err != nil {
			return nil, err
		}
	}

	if cfg.dropTests {
		src = stripTests(src)
	}

	pipeline, err := postprocess.New(postprocess.Standard(cfg.minimalVersion))
	if err != nil {
		return nil, err
	}

	var cacheStore cache.Store
	if cfg.cacheInstantiator != nil {
		cacheStore = cfg.cacheInstantiator(cfg.CacheSize)
	} else {
		cacheStore = cache.NewLRU(cfg.CacheSize)
	}

	tracer := cfg.tracer
	if tracer == nil {
		tracer = telemetry.Tracer()
	}

	a := &Analyzer{
		pipeline:     pipeline,
		cacheStore:   cacheStore,
		fields:       cfg.fields,
		matcherStats: cfg.matcherStatsEnabled,
		tracer:       tracer,
		influx:       cfg.influxExporter,
	}

	if cfg.delayedInit {
		a.ruleSrc = src
	} else {
		store, err := rules.NewStore(src)
		if err != nil {
			return nil, err
		}
		a.store = store
	}

	if len(cfg.preheatSamples) > 0 {
		if err := a.preheat(context.Background(), cfg.preheatSamples, cfg.preheatConcurrency); err != nil {
			return nil, err
		}
	}

	return a, nil
}

// New is an alias for Build, matching the common constructor name used
// elsewhere in the module.
func New(opts ...Option) (*Analyzer, error) { return Build(opts...) }

// stripTests returns a copy of src with every rule's Tests cleared, used by
// WithDropTests so an Analyzer never retains rule-test corpora beyond what
// Build needs to compile the store.
func stripTests(src rules.Source) rules.Source {
	out := rules.Source{Rules: make([]rules.RuleDef, len(src.Rules))}
	for i, rd := range src.Rules {
		rd.Tests = nil
		out.Rules[i] = rd
	}
	return out
}

// ensureStore returns the compiled rule store, compiling it from ruleSrc on
// first call if Build deferred compilation via WithDelayedInitialization.
// storeOnce guarantees exactly one compile even under concurrent first
// Parse calls; a compile error discovered here (rather than at Build,
// which only immediate initialization can catch synchronously) panics,
// since Parse's contract leaves it no error return to surface it through.
func (a *Analyzer) ensureStore() *rules.Store {
	a.storeOnce.Do(func() {
		if a.store != nil {
			return
		}
		store, err := rules.NewStore(a.ruleSrc)
		if err != nil {
			a.storeErr = err
			return
		}
		a.store = store
		a.ruleSrc = rules.Source{}
	})
	if a.storeErr != nil {
		panic(a.storeErr)
	}
	return a.store
}

// preheat pre-parses samples using up to concurrency goroutines so the
// cache and any lazily initialized matcher state are warm before real
// traffic arrives.
func (a *Analyzer) preheat(ctx context.Context, samples []string, concurrency int) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, s := range samples {
		s := s
		g.Go(func() error {
			a.ParseContext(ctx, s)
			return nil
		})
	}
	return g.Wait()
}

// Parse tokenizes ua and returns its resolved Result. Total: never fails
// for any string input, including "". Panics with ErrClosed if called
// after Close.
func (a *Analyzer) Parse(ua string) Result {
	return a.ParseContext(context.Background(), ua)
}

// ParseContext is Parse with an explicit context, which carries the
// per-call OpenTelemetry span. ctx is not checked for cancellation; a
// parse always runs to completion.
func (a *Analyzer) ParseContext(ctx context.Context, ua string) Result {
	if a.closed.Load() {
		panic(ErrClosed)
	}

	ctx, span := a.tracer.Start(ctx, "analyzer.Parse")
	defer span.End()
	span.SetAttributes(attribute.Int("uaparse.input_length", len(ua)))

	headers := http.Header{}
	if ua != "" {
		headers.Set("User-Agent", ua)
	}
	return a.parseHeaders(ctx, headers)
}

// ParseHeaders parses the User-Agent header plus any recognized
// Client-Hints headers present in headers. A nil or absent User-Agent
// header is treated identically to "" — the empty-tree sentinel rule path
// — matching §3's "null maps identically to empty" contract.
func (a *Analyzer) ParseHeaders(headers http.Header) Result {
	return a.parseHeaders(context.Background(), headers)
}

// ParseField parses ua and returns the single field f. Equivalent to
// Parse(ua).Get(f) but documented separately as §6's dedicated entry point
// for callers that only want one field.
func (a *Analyzer) ParseField(ua string, f field.Field) string {
	return a.Parse(ua).Get(f)
}

func (a *Analyzer) parseHeaders(ctx context.Context, headers http.Header) Result {
	if a.closed.Load() {
		panic(ErrClosed)
	}

	ua := headers.Get("User-Agent")
	tree := token.Tokenize(ua)

	if fvl := headers.Get("Sec-Ch-Ua-Full-Version-List"); fvl != "" {
		tree.Products = append(tree.Products, token.ParseBrandList(fvl)...)
	}

	hints := extractHints(headers)
	in := rules.Input{Tree: tree, Hints: hints}
	cacheKey := buildCacheKey(ua, hints) + "|" + headers.Get("Sec-Ch-Ua-Full-Version-List")

	start := time.Now()
	fm := a.cacheStore.GetOrCompute(ctx, cacheKey, func() resolve.FieldMap {
		proposals := match.Evaluate(a.ensureStore(), in)
		resolved := resolve.Resolve(proposals)
		return a.pipeline.Run(resolved)
	})
	duration := time.Since(start)

	if a.matcherStats {
		a.recordInflux(ctx, fm, duration)
	} else {
		fm = resolve.FromValues(fm.Values())
	}

	if a.fields != nil {
		fm = filterFields(fm, a.fields)
	}

	return Result{fields: fm}
}

// recordInflux reports one sample per field fm resolved via a specific
// rule to the optional InfluxDB exporter. A nil exporter (the common case:
// WithInfluxExporter was never called) makes this a no-op.
func (a *Analyzer) recordInflux(ctx context.Context, fm resolve.FieldMap, duration time.Duration) {
	if a.influx == nil {
		return
	}
	agentName := fm.Get(field.AgentName)
	for _, f := range field.All() {
		if ruleID := fm.RuleID(f); ruleID != "" {
			a.influx.Record(ctx, agentName, string(f), ruleID, duration)
		}
	}
}

// filterFields rebuilds fm keeping only values for fields in keep,
// defaulting everything else — used by WithFields to bound what a caller
// sees without changing what the matcher itself computed. Rule-ID
// provenance for kept fields survives the round trip.
func filterFields(fm resolve.FieldMap, keep map[field.Field]bool) resolve.FieldMap {
	values := fm.Values()
	ruleIDs := fm.RuleIDs()
	for f := range values {
		if !keep[f] {
			delete(values, f)
			delete(ruleIDs, f)
		}
	}
	return resolve.FromValuesWithRuleIDs(values, ruleIDs)
}

// extractHints pulls the Client-Hints headers the embedded default rule
// corpus and Standard post-processors understand into the short names
// rules.Input.Hints uses. A present-but-empty header value is recorded as
// absent so §8 scenario 5 (all Client-Hints values empty) falls back to
// the User-Agent string.
func extractHints(headers http.Header) map[string]string {
	hints := make(map[string]string, 6)
	set := func(name, headerKey string) {
		v := strings.Trim(headers.Get(headerKey), `"`)
		if v != "" {
			hints[name] = v
		}
	}
	set("platform", "Sec-Ch-Ua-Platform")
	set("platformVersion", "Sec-Ch-Ua-Platform-Version")
	set("bitness", "Sec-Ch-Ua-Bitness")
	set("mobile", "Sec-Ch-Ua-Mobile")
	set("model", "Sec-Ch-Ua-Model")
	set("arch", "Sec-Ch-Ua-Arch")
	return hints
}

// buildCacheKey composes a deterministic cache key from the raw
// User-Agent and the extracted Client-Hints values, so two requests that
// differ only in Client-Hints don't collide in the cache.
func buildCacheKey(ua string, hints map[string]string) string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(len(ua)))
	b.WriteByte('|')
	b.WriteString(ua)
	for _, name := range []string{"platform", "platformVersion", "bitness", "mobile", "model", "arch"} {
		b.WriteByte('|')
		b.WriteString(hints[name])
	}
	return b.String()
}

// Close releases the Analyzer's cache (the default LRU is emptied; a
// BadgerStore closes its handle) and marks the Analyzer closed. Every subsequent Parse/ParseHeaders/
// ParseContext/ParseField call panics with ErrClosed.
func (a *Analyzer) Close() error {
	a.closed.Store(true)
	return a.cacheStore.Close()
}

// Destroy is an alias for Close.
func (a *Analyzer) Destroy() error { return a.Close() }

// CacheLen reports the number of entries currently cached, for diagnostics
// and for the LRU-bound test in §8 invariant 7.
func (a *Analyzer) CacheLen() int { return a.cacheStore.Len() }

// MatcherStatsEnabled reports whether the Analyzer was built
// WithMatcherStats(true).
func (a *Analyzer) MatcherStatsEnabled() bool { return a.matcherStats }
