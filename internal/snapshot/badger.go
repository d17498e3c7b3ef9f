// Copyright (C) 2026 OpenFields Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE file for the full license text.

package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	badger "github.com/dgraph-io/badger/v4"
)

const (
	keyPrefix  = "snapshot:"
	keySuffix  = ":data"
	metaSuffix = ":meta"
	latestKey  = keyPrefix + "latest"
)

// BadgerStore is a local, single-process Store backed by Badger, grounded
// on the same key-schema conventions (data/meta/latest keys written in one
// transaction) as the teacher's graph snapshot manager.
type BadgerStore struct {
	db     *badger.DB
	logger *slog.Logger
}

// NewBadgerStore wraps an already-open Badger handle.
func NewBadgerStore(db *badger.DB, logger *slog.Logger) *BadgerStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &BadgerStore{db: db, logger: logger}
}

func (s *BadgerStore) dataKey(id string) []byte { return []byte(keyPrefix + id + keySuffix) }
func (s *BadgerStore) metaKey(id string) []byte { return []byte(keyPrefix + id + metaSuffix) }

// Save compresses data, writes it plus its Metadata, and repoints "latest"
// to id — all in a single Badger transaction.
func (s *BadgerStore) Save(ctx context.Context, id string, data []byte) (*Metadata, error) {
	compressed, err := compress(data)
	if err != nil {
		return nil, err
	}
	meta := newMetadata(id, len(compressed))
	meta.ContentHash = contentHash(compressed)

	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("snapshot: marshaling metadata: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(s.dataKey(id), compressed); err != nil {
			return err
		}
		if err := txn.Set(s.metaKey(id), metaJSON); err != nil {
			return err
		}
		return txn.Set([]byte(latestKey), []byte(id))
	})
	if err != nil {
		return nil, fmt.Errorf("snapshot: writing to badger: %w", err)
	}

	s.logger.Info("snapshot saved", "snapshot_id", id, "compressed_size", meta.CompressedSize)
	return meta, nil
}

// Load retrieves and decompresses the snapshot named id, verifying its
// content hash and format-version compatibility.
func (s *BadgerStore) Load(ctx context.Context, id string) ([]byte, *Metadata, error) {
	var compressed, metaJSON []byte
	err := s.db.View(func(txn *badger.Txn) error {
		dataItem, err := txn.Get(s.dataKey(id))
		if err != nil {
			return fmt.Errorf("reading data for %s: %w", id, err)
		}
		compressed, err = dataItem.ValueCopy(nil)
		if err != nil {
			return err
		}
		metaItem, err := txn.Get(s.metaKey(id))
		if err != nil {
			return fmt.Errorf("reading metadata for %s: %w", id, err)
		}
		metaJSON, err = metaItem.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, nil, fmt.Errorf("snapshot: %w", err)
	}

	var meta Metadata
	if err := json.Unmarshal(metaJSON, &meta); err != nil {
		return nil, nil, fmt.Errorf("snapshot: unmarshaling metadata for %s: %w", id, err)
	}
	if meta.ContentHash != "" && meta.ContentHash != contentHash(compressed) {
		return nil, nil, fmt.Errorf("snapshot: content hash mismatch for %s", id)
	}
	if !Compatible(meta.FormatVersion) {
		return nil, &meta, &ErrIncompatibleFormat{Found: meta.FormatVersion, Want: CurrentFormatVersion}
	}

	data, err := decompress(compressed)
	if err != nil {
		return nil, &meta, err
	}
	return data, &meta, nil
}

// LoadLatest loads whichever snapshot the "latest" pointer names.
func (s *BadgerStore) LoadLatest(ctx context.Context) ([]byte, *Metadata, error) {
	var id string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(latestKey))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			id = string(val)
			return nil
		})
	})
	if err != nil {
		return nil, nil, fmt.Errorf("snapshot: reading latest pointer: %w", err)
	}
	return s.Load(ctx, id)
}
