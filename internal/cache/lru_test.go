// Copyright (C) 2026 OpenFields Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE file for the full license text.

package cache

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/openfields/uaparse/internal/field"
	"github.com/openfields/uaparse/internal/resolve"
)

func TestLRUCacheHitSkipsCompute(t *testing.T) {
	c := NewLRU(4)
	calls := 0
	compute := func() resolve.FieldMap {
		calls++
		return resolve.FromValues(map[field.Field]string{field.AgentName: "Firefox"})
	}

	ctx := context.Background()
	first := c.GetOrCompute(ctx, "key", compute)
	second := c.GetOrCompute(ctx, "key", compute)

	require.Equal(t, 1, calls)
	require.Equal(t, first.Get(field.AgentName), second.Get(field.AgentName))
}

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRU(2)
	ctx := context.Background()
	noop := func(v string) func() resolve.FieldMap {
		return func() resolve.FieldMap { return resolve.FromValues(map[field.Field]string{field.AgentName: v}) }
	}

	c.GetOrCompute(ctx, "a", noop("a"))
	c.GetOrCompute(ctx, "b", noop("b"))
	c.GetOrCompute(ctx, "a", noop("a")) // touch a, so b becomes LRU
	c.GetOrCompute(ctx, "c", noop("c")) // evicts b

	require.Equal(t, 2, c.Len())

	calls := 0
	c.GetOrCompute(ctx, "b", func() resolve.FieldMap {
		calls++
		return resolve.FromValues(nil)
	})
	require.Equal(t, 1, calls, "b should have been evicted and required recomputation")
}

func TestLRUZeroSizeDisablesCaching(t *testing.T) {
	c := NewLRU(0)
	ctx := context.Background()
	calls := 0
	compute := func() resolve.FieldMap {
		calls++
		return resolve.FromValues(nil)
	}
	c.GetOrCompute(ctx, "x", compute)
	c.GetOrCompute(ctx, "x", compute)
	require.Equal(t, 2, calls)
	require.Equal(t, 0, c.Len())
}

func TestLRUConcurrentAccess(t *testing.T) {
	c := NewLRU(16)
	ctx := context.Background()
	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func(i int) {
			key := fmt.Sprintf("key-%d", i%4)
			c.GetOrCompute(ctx, key, func() resolve.FieldMap { return resolve.FromValues(nil) })
			done <- struct{}{}
		}(i)
	}
	for i := 0; i < 8; i++ {
		<-done
	}
}
