// Copyright (C) 2026 OpenFields Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE file for the full license text.

package cache

import (
	"context"
	"testing"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"

	"github.com/openfields/uaparse/internal/field"
	"github.com/openfields/uaparse/internal/resolve"
)

func newTestBadgerStore(t *testing.T) *BadgerStore {
	t.Helper()
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewBadgerStore(db, 0, nil)
}

func TestBadgerStoreGetOrComputeHitsAfterFirstMiss(t *testing.T) {
	s := newTestBadgerStore(t)
	ctx := context.Background()
	calls := 0
	compute := func() resolve.FieldMap {
		calls++
		return resolve.FromValues(map[field.Field]string{field.AgentName: "Firefox"})
	}

	first := s.GetOrCompute(ctx, "key", compute)
	second := s.GetOrCompute(ctx, "key", compute)

	require.Equal(t, 1, calls)
	require.Equal(t, "Firefox", first.Get(field.AgentName))
	require.Equal(t, "Firefox", second.Get(field.AgentName))
	require.Equal(t, 1, s.Len())
}

func TestBadgerStoreDifferentKeysBothCompute(t *testing.T) {
	s := newTestBadgerStore(t)
	ctx := context.Background()
	compute := func(v string) func() resolve.FieldMap {
		return func() resolve.FieldMap {
			return resolve.FromValues(map[field.Field]string{field.AgentName: v})
		}
	}

	s.GetOrCompute(ctx, "a", compute("one"))
	s.GetOrCompute(ctx, "b", compute("two"))
	require.Equal(t, 2, s.Len())
}

func TestBadgerStoreNilIsAlwaysMiss(t *testing.T) {
	var s *BadgerStore
	ctx := context.Background()
	calls := 0
	compute := func() resolve.FieldMap {
		calls++
		return resolve.FromValues(map[field.Field]string{field.AgentName: "Firefox"})
	}

	s.GetOrCompute(ctx, "key", compute)
	s.GetOrCompute(ctx, "key", compute)
	require.Equal(t, 2, calls)
	require.Equal(t, 0, s.Len())
	require.NoError(t, s.Close())
}

func TestBadgerStoreTTLExpires(t *testing.T) {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s := NewBadgerStore(db, time.Nanosecond, nil)
	ctx := context.Background()
	calls := 0
	compute := func() resolve.FieldMap {
		calls++
		return resolve.FromValues(map[field.Field]string{field.AgentName: "Firefox"})
	}

	s.GetOrCompute(ctx, "key", compute)
	time.Sleep(2 * time.Millisecond)
	s.GetOrCompute(ctx, "key", compute)
	require.Equal(t, 2, calls)
}
