// Copyright (C) 2026 OpenFields Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE file for the full license text.

package cache

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"log/slog"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/openfields/uaparse/internal/field"
	"github.com/openfields/uaparse/internal/resolve"
)

// badgerKeyPrefix namespaces parse-result keys within a Badger instance that
// may also be used for other purposes (e.g. a shared snapshot database).
const badgerKeyPrefix = "uaparse:parse:"

// BadgerStore is a persistent, process-restart-surviving Store backed by
// Badger. It is nil-safe by design: a nil *BadgerStore behaves like an
// always-miss Store, so callers can pass one around unconditionally instead
// of branching on whether persistence was configured.
//
// Thread Safety: Badger transactions are safe for concurrent use; BadgerStore
// adds no locking of its own.
type BadgerStore struct {
	db     *badger.DB
	ttl    time.Duration
	logger *slog.Logger
}

// NewBadgerStore wraps an already-open Badger handle. ttl of 0 means
// entries never expire. logger may be nil, in which case slog.Default() is
// used.
func NewBadgerStore(db *badger.DB, ttl time.Duration, logger *slog.Logger) *BadgerStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &BadgerStore{db: db, ttl: ttl, logger: logger}
}

func badgerKey(key string) []byte {
	sum := sha256.Sum256([]byte(key))
	return []byte(badgerKeyPrefix + hex.EncodeToString(sum[:]))
}

// GetOrCompute looks up key in Badger; on a miss (including any read
// error, which is logged and treated as a miss rather than propagated —
// persistence is a performance optimization, not a correctness dependency)
// it computes, persists, and returns the new value.
func (s *BadgerStore) GetOrCompute(ctx context.Context, key string, compute func() resolve.FieldMap) resolve.FieldMap {
	if s == nil || s.db == nil {
		missTotal.Inc()
		return compute()
	}

	bk := badgerKey(key)
	if values, ok := s.load(bk); ok {
		hitTotal.Inc()
		return resolve.FromValues(values)
	}

	missTotal.Inc()
	result := compute()
	s.store(bk, result)
	return result
}

func (s *BadgerStore) load(key []byte) (map[field.Field]string, bool) {
	var values map[field.Field]string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(raw []byte) error {
			dec := gob.NewDecoder(bytes.NewReader(raw))
			return dec.Decode(&values)
		})
	})
	if err != nil {
		if err != badger.ErrKeyNotFound {
			s.logger.Warn("cache: badger read failed, treating as miss", "error", err)
		}
		return nil, false
	}
	return values, true
}

func (s *BadgerStore) store(key []byte, result resolve.FieldMap) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(result.Values()); err != nil {
		s.logger.Warn("cache: encoding parse result failed", "error", err)
		return
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(key, buf.Bytes())
		if s.ttl > 0 {
			entry = entry.WithTTL(s.ttl)
		}
		return txn.SetEntry(entry)
	})
	if err != nil {
		s.logger.Warn("cache: badger write failed", "error", err)
	}
}

// Len reports the number of parse-result keys currently stored, by
// iterating Badger's key space under this store's prefix. Intended for
// diagnostics, not hot-path use.
func (s *BadgerStore) Len() int {
	if s == nil || s.db == nil {
		return 0
	}
	count := 0
	_ = s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(badgerKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.ValidForPrefix(opts.Prefix); it.Next() {
			count++
		}
		return nil
	})
	return count
}

// Close closes the underlying Badger handle. Callers that share a Badger
// instance between BadgerStore and internal/snapshot should not call this
// and should close the shared *badger.DB themselves instead.
func (s *BadgerStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
