// Copyright (C) 2026 OpenFields Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE file for the full license text.

package snapshot

import (
	"context"
	"log/slog"
	"os"
	"testing"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *badger.DB {
	t.Helper()
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestStore(t *testing.T) *BadgerStore {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	return NewBadgerStore(newTestDB(t), logger)
}

func TestBadgerStoreSaveLoadRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	payload := []byte("a compiled rule store, serialized however internal/rules decides to")

	meta, err := store.Save(ctx, "corpus-v1", payload)
	require.NoError(t, err)
	require.Equal(t, "corpus-v1", meta.SnapshotID)
	require.Equal(t, CurrentFormatVersion, meta.FormatVersion)

	loaded, loadedMeta, err := store.Load(ctx, "corpus-v1")
	require.NoError(t, err)
	require.Equal(t, payload, loaded)
	require.Equal(t, meta.ContentHash, loadedMeta.ContentHash)
}

func TestBadgerStoreLoadLatestFollowsPointer(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Save(ctx, "corpus-v1", []byte("first"))
	require.NoError(t, err)
	_, err = store.Save(ctx, "corpus-v2", []byte("second"))
	require.NoError(t, err)

	data, meta, err := store.LoadLatest(ctx)
	require.NoError(t, err)
	require.Equal(t, "corpus-v2", meta.SnapshotID)
	require.Equal(t, []byte("second"), data)
}

func TestBadgerStoreLoadMissingID(t *testing.T) {
	store := newTestStore(t)
	_, _, err := store.Load(context.Background(), "does-not-exist")
	require.Error(t, err)
}

func TestBadgerStoreDetectsCorruption(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Save(ctx, "corpus-v1", []byte("original content"))
	require.NoError(t, err)

	err = store.db.Update(func(txn *badger.Txn) error {
		return txn.Set(store.dataKey("corpus-v1"), []byte("tampered bytes that won't hash-match"))
	})
	require.NoError(t, err)

	_, _, err = store.Load(ctx, "corpus-v1")
	require.Error(t, err)
}

func TestCompatibleAcceptsSameMajorOnly(t *testing.T) {
	require.True(t, Compatible("v1.0.0"))
	require.True(t, Compatible("v1.9.3"))
	require.False(t, Compatible("v2.0.0"))
	require.False(t, Compatible("not-a-version"))
}

func TestCompressDecompressRoundTrip(t *testing.T) {
	original := []byte("rule corpus bytes, possibly large, possibly YAML-shaped")
	compressed, err := compress(original)
	require.NoError(t, err)
	require.NotEqual(t, original, compressed)

	out, err := decompress(compressed)
	require.NoError(t, err)
	require.Equal(t, original, out)
}
