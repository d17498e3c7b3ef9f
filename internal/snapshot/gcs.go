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
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
)

// GCSStore persists snapshots in a Google Cloud Storage bucket so a whole
// fleet of uaparse instances can share one compiled rule corpus instead of
// each node recompiling it from the rule source. Object layout mirrors
// BadgerStore's key schema: "<prefix>/<id>.data", "<prefix>/<id>.meta",
// and a "<prefix>/latest" pointer object holding the current id.
type GCSStore struct {
	bucket *storage.BucketHandle
	prefix string
}

// NewGCSStore wraps an already-configured storage client's bucket handle.
// prefix namespaces objects within the bucket, e.g. "uaparse-snapshots".
func NewGCSStore(client *storage.Client, bucketName, prefix string) *GCSStore {
	return &GCSStore{bucket: client.Bucket(bucketName), prefix: prefix}
}

func (s *GCSStore) dataObject(id string) string { return s.prefix + "/" + id + ".data" }
func (s *GCSStore) metaObject(id string) string { return s.prefix + "/" + id + ".meta" }
func (s *GCSStore) latestObject() string        { return s.prefix + "/latest" }

func (s *GCSStore) writeObject(ctx context.Context, name string, data []byte) error {
	w := s.bucket.Object(name).NewWriter(ctx)
	if _, err := w.Write(data); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

func (s *GCSStore) readObject(ctx context.Context, name string) ([]byte, error) {
	r, err := s.bucket.Object(name).NewReader(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// Save compresses data and uploads it, its Metadata, and an updated
// "latest" pointer as three objects.
func (s *GCSStore) Save(ctx context.Context, id string, data []byte) (*Metadata, error) {
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

	if err := s.writeObject(ctx, s.dataObject(id), compressed); err != nil {
		return nil, fmt.Errorf("snapshot: uploading data for %s: %w", id, err)
	}
	if err := s.writeObject(ctx, s.metaObject(id), metaJSON); err != nil {
		return nil, fmt.Errorf("snapshot: uploading metadata for %s: %w", id, err)
	}
	if err := s.writeObject(ctx, s.latestObject(), []byte(id)); err != nil {
		return nil, fmt.Errorf("snapshot: updating latest pointer: %w", err)
	}
	return meta, nil
}

// Load downloads and decompresses the snapshot named id, verifying its
// content hash and format-version compatibility.
func (s *GCSStore) Load(ctx context.Context, id string) ([]byte, *Metadata, error) {
	compressed, err := s.readObject(ctx, s.dataObject(id))
	if err != nil {
		return nil, nil, fmt.Errorf("snapshot: downloading data for %s: %w", id, err)
	}
	metaJSON, err := s.readObject(ctx, s.metaObject(id))
	if err != nil {
		return nil, nil, fmt.Errorf("snapshot: downloading metadata for %s: %w", id, err)
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

	out, err := decompress(compressed)
	if err != nil {
		return nil, &meta, err
	}
	return out, &meta, nil
}

// LoadLatest loads whichever snapshot the "latest" pointer object names.
func (s *GCSStore) LoadLatest(ctx context.Context) ([]byte, *Metadata, error) {
	idBytes, err := s.readObject(ctx, s.latestObject())
	if err != nil {
		return nil, nil, fmt.Errorf("snapshot: reading latest pointer: %w", err)
	}
	return s.Load(ctx, string(idBytes))
}

// exists reports whether any snapshot has been saved yet, by checking for
// the latest-pointer object. Nothing in the module calls it.
func (s *GCSStore) exists(ctx context.Context) (bool, error) {
	_, err := s.bucket.Object(s.latestObject()).Attrs(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
