// Copyright (C) 2026 OpenFields Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE file for the full license text.

package token

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTokenizeFirefox(t *testing.T) {
	raw := "Mozilla/5.0 (Windows; U; Windows NT 5.1; en-US; rv:1.8.1.11) Gecko/20071127 Firefox/2.0.0.11"
	tree := Tokenize(raw)
	require.Len(t, tree.Products, 3)

	mozilla := tree.Products[0]
	require.Equal(t, "Mozilla", mozilla.Name)
	require.Equal(t, "5.0", mozilla.Version)
	require.Len(t, mozilla.Comments, 5)
	require.Equal(t, Comment{Value: "Windows"}, mozilla.Comments[0])
	require.Equal(t, Comment{Value: "U"}, mozilla.Comments[1])
	require.Equal(t, Comment{Value: "Windows NT 5.1"}, mozilla.Comments[2])
	require.Equal(t, Comment{Value: "en-US"}, mozilla.Comments[3])
	require.Equal(t, "rv", mozilla.Comments[4].Key)
	require.Equal(t, "1.8.1.11", mozilla.Comments[4].Value)

	require.Equal(t, "Gecko", tree.Products[1].Name)
	require.Equal(t, "20071127", tree.Products[1].Version)

	require.Equal(t, "Firefox", tree.Products[2].Name)
	require.Equal(t, "2.0.0.11", tree.Products[2].Version)
}

func TestTokenizeEmpty(t *testing.T) {
	tree := Tokenize("")
	require.True(t, tree.Empty())
}

func TestTokenizeUnbalancedParen(t *testing.T) {
	tree := Tokenize("Mozilla/5.0 (Windows; incomplete")
	require.Len(t, tree.Products, 1)
	require.NotEmpty(t, tree.Products[0].Comments)
}

func TestTokenizeNeverPanics(t *testing.T) {
	inputs := []string{
		"", "   ", "(((((", `"""""`, ";;;;;", "/", "a/b/c/d",
		"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/100.0.4896.127 Safari/537.36",
	}
	for _, in := range inputs {
		require.NotPanics(t, func() { Tokenize(in) })
	}
}

func TestCommentOutOfRange(t *testing.T) {
	tree := Tokenize("Mozilla/5.0 (Windows)")
	_, ok := tree.Products[0].Comment(5)
	require.False(t, ok)
	_, ok = tree.Product(5)
	require.False(t, ok)
}

func TestParseBrandList(t *testing.T) {
	raw := `"Not:A-Brand";v="99", "Chromium";v="100", "Google Chrome";v="100"`
	products := ParseBrandList(raw)
	require.Len(t, products, 3)
	require.Equal(t, "Chromium", products[1].Name)
	require.Equal(t, "100", products[1].Version)
}
