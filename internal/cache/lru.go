// Copyright (C) 2026 OpenFields Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE file for the full license text.

// Package cache provides bounded, thread-safe memoization of parse results
// keyed by raw input. The default Store is an in-process strict LRU;
// BadgerStore is an alternative, persistent, process-restart-surviving
// Store used in its place (not layered over the LRU, and not bounded by
// entry count), so internal/analyzer never needs to know which one it was
// built with.
package cache

import (
	"container/list"
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/singleflight"

	"github.com/openfields/uaparse/internal/resolve"
)

// Store memoizes the result of compute for key. Implementations must not
// hold a lock across the compute call — duplicate computations across
// distinct calls are acceptable (§4.6/§9); only per-key convoying is
// avoided, via singleflight in the in-process implementation.
type Store interface {
	GetOrCompute(ctx context.Context, key string, compute func() resolve.FieldMap) resolve.FieldMap
	Len() int
	Close() error
}

var (
	hitTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "uaparse",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total cache hits across all Store implementations in this process.",
	})
	missTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "uaparse",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total cache misses across all Store implementations in this process.",
	})
)

type lruEntry struct {
	key   string
	value resolve.FieldMap
}

// LRU is a bounded, strict least-recently-used in-process Store.
//
// A size of 0 disables caching entirely: GetOrCompute always calls compute
// and never retains a result, matching §6's "negative or zero cache size"
// handling (negative sizes are rejected by the builder before an LRU is
// ever constructed; see internal/analyzer.ErrNegativeCacheSize).
//
// Thread Safety: safe for concurrent use by any number of goroutines.
// Concurrent GetOrCompute calls for the same key are coalesced via
// singleflight so compute runs at most once per outstanding miss, though
// two misses that do not overlap in time may both invoke compute (§4.6).
type LRU struct {
	mu    sync.Mutex
	size  int
	ll    *list.List
	index map[string]*list.Element
	group singleflight.Group
}

// NewLRU builds an LRU with the given capacity. A negative size is treated
// as 0 (caching disabled); validating that the caller actually wanted 0 is
// the builder's job, not this constructor's.
func NewLRU(size int) *LRU {
	if size < 0 {
		size = 0
	}
	return &LRU{size: size, ll: list.New(), index: make(map[string]*list.Element)}
}

// GetOrCompute returns the cached value for key if present, moving it to
// the front of the recency list; otherwise it computes, stores, and
// returns the new value.
func (c *LRU) GetOrCompute(ctx context.Context, key string, compute func() resolve.FieldMap) resolve.FieldMap {
	if c.size == 0 {
		missTotal.Inc()
		return compute()
	}

	c.mu.Lock()
	if el, ok := c.index[key]; ok {
		c.ll.MoveToFront(el)
		v := el.Value.(*lruEntry).value
		c.mu.Unlock()
		hitTotal.Inc()
		return v
	}
	c.mu.Unlock()

	missTotal.Inc()
	v, _, _ := c.group.Do(key, func() (interface{}, error) {
		result := compute()
		c.put(key, result)
		return result, nil
	})
	return v.(resolve.FieldMap)
}

func (c *LRU) put(key string, value resolve.FieldMap) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.index[key]; ok {
		el.Value.(*lruEntry).value = value
		c.ll.MoveToFront(el)
		return
	}

	el := c.ll.PushFront(&lruEntry{key: key, value: value})
	c.index[key] = el
	if c.ll.Len() > c.size {
		oldest := c.ll.Back()
		if oldest != nil {
			c.ll.Remove(oldest)
			delete(c.index, oldest.Value.(*lruEntry).key)
		}
	}
}

// Len reports the number of entries currently cached.
func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

// Close empties the cache. Values already returned to callers stay valid.
func (c *LRU) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ll.Init()
	c.index = make(map[string]*list.Element)
	return nil
}
