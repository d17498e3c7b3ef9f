// Copyright (C) 2026 OpenFields Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE file for the full license text.

package token

import "strings"

// ParseBrandList parses a Sec-Ch-Ua / Sec-Ch-Ua-Full-Version-List style
// structured header value into a nested product sequence.
//
// Format: `"Brand";v="Version", "Brand";v="Version", ...`. Each comma
// separated entry becomes one Product; the brand name becomes Product.Name
// and the v="..." parameter becomes Product.Version. Malformed entries are
// skipped rather than erroring, matching the tokenizer's total contract.
func ParseBrandList(raw string) []Product {
	entries := splitTopLevel(raw, ',')
	products := make([]Product, 0, len(entries))
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		p, ok := parseBrandEntry(entry)
		if ok {
			products = append(products, p)
		}
	}
	return products
}

// looksLikeBrandList is a cheap heuristic: a brand list entry starts with a
// quote and contains a `v=` parameter.
func looksLikeBrandList(s string) bool {
	return strings.HasPrefix(strings.TrimSpace(s), `"`) && strings.Contains(s, "v=")
}

func parseBrandEntry(entry string) (Product, bool) {
	parts := splitTopLevel(entry, ';')
	if len(parts) == 0 {
		return Product{}, false
	}
	name := strings.Trim(strings.TrimSpace(parts[0]), `"`)
	if name == "" {
		return Product{}, false
	}
	version := ""
	for _, p := range parts[1:] {
		p = strings.TrimSpace(p)
		if k, v, ok := splitKeyValue(p); ok && strings.EqualFold(k, "v") {
			version = strings.Trim(v, `"`)
		}
	}
	return Product{Name: name, Version: version}, true
}
