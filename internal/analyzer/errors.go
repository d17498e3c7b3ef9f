// Copyright (C) 2026 OpenFields Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE file for the full license text.

package analyzer

import "errors"

// ErrClosed is returned (by panicking, see Parse) when Parse is called on
// an Analyzer after Close. §9 decided parse-after-close should panic rather
// than return an error: a closed Analyzer is a programmer-error condition,
// not a recoverable runtime one, and Go's idiom for that is a panic with a
// well-known sentinel, not a silent degraded-mode error return.
var ErrClosed = errors.New("analyzer: parse called after Close")

// ErrNegativeCacheSize is returned by Build when WithCacheSize received a
// negative value.
var ErrNegativeCacheSize = errors.New("analyzer: cache size must be >= 0")
