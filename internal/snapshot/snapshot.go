// Copyright (C) 2026 OpenFields Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE file for the full license text.

// Package snapshot persists a compiled rule store as opaque, gzip-compressed
// bytes and reloads it later — across a process restart, or onto a
// different machine in a fleet via the GCS-backed Store. The core
// (internal/rules) never depends on this package, and this package never
// depends on internal/rules: callers hand it bytes (cmd/uaparse saves the
// raw rule file) and get the same bytes back.
//
// §9 treats the compiled rule store as an opaque value behind a capability
// interface rather than something with its own serialization hooks: Store
// knows nothing about rule semantics, only about bytes, a format version,
// and a content hash.
package snapshot

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"golang.org/x/mod/semver"
)

// CurrentFormatVersion is the format version this build of uaparse writes.
// It follows semver; Compatible uses only the major component, so a v1.x
// reader can load any v1.y snapshot but refuses v2.
const CurrentFormatVersion = "v1.0.0"

// Metadata describes one saved snapshot.
type Metadata struct {
	SnapshotID     string
	FormatVersion  string
	CreatedAtMilli int64
	CompressedSize int64
	ContentHash    string
}

// Compatible reports whether a snapshot written with version matches this
// build's major format version.
func Compatible(version string) bool {
	if !semver.IsValid(version) {
		return false
	}
	return semver.Major(version) == semver.Major(CurrentFormatVersion)
}

// ErrIncompatibleFormat is returned by Load when a snapshot's format
// version major component doesn't match CurrentFormatVersion's.
type ErrIncompatibleFormat struct {
	Found string
	Want  string
}

func (e *ErrIncompatibleFormat) Error() string {
	return fmt.Sprintf("snapshot: format %q is incompatible with this build's %q", e.Found, e.Want)
}

// Store persists and retrieves opaque rule-store snapshots.
type Store interface {
	Save(ctx context.Context, id string, data []byte) (*Metadata, error)
	Load(ctx context.Context, id string) ([]byte, *Metadata, error)
	LoadLatest(ctx context.Context) ([]byte, *Metadata, error)
}

// compress gzip-compresses data at best-compression level.
func compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return nil, fmt.Errorf("snapshot: creating gzip writer: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("snapshot: compressing: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("snapshot: closing gzip writer: %w", err)
	}
	return buf.Bytes(), nil
}

func decompress(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("snapshot: creating gzip reader: %w", err)
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("snapshot: decompressing: %w", err)
	}
	return out, nil
}

func contentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func newMetadata(id string, compressedSize int) *Metadata {
	return &Metadata{
		SnapshotID:     id,
		FormatVersion:  CurrentFormatVersion,
		CreatedAtMilli: time.Now().UnixMilli(),
		CompressedSize: int64(compressedSize),
	}
}
