// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package list

import (
	"testing"

	qbt "github.com/autobrr/go-qbittorrent"
	"github.com/stretchr/testify/require"
)

func TestExprFilterMatch(t *testing.T) {
	f, err := CompileExpr(`Ratio > 2.0 && Category == "movies"`)
	require.NoError(t, err)

	require.True(t, f.Match(qbt.Torrent{Category: "movies", Ratio: 3.5}))
	require.False(t, f.Match(qbt.Torrent{Category: "movies", Ratio: 1.0}))
	require.False(t, f.Match(qbt.Torrent{Category: "tv", Ratio: 3.5}))
}

func TestExprFilterApply(t *testing.T) {
	f, err := CompileExpr(`Progress == 1.0`)
	require.NoError(t, err)

	rows := []qbt.Torrent{
		{Hash: "done", Progress: 1.0},
		{Hash: "partial", Progress: 0.5},
	}
	got := f.Apply(rows)
	require.Len(t, got, 1)
	require.Equal(t, "done", got[0].Hash)
}

func TestExprFilterCompileError(t *testing.T) {
	_, err := CompileExpr(`Ratio >`)
	require.Error(t, err)

	// Non-boolean expressions are rejected at compile time
	_, err = CompileExpr(`Name`)
	require.Error(t, err)
}

func TestExprCacheReusesPrograms(t *testing.T) {
	c := NewExprCache()

	f1, err := c.Get(`Ratio > 1.0`)
	require.NoError(t, err)
	f2, err := c.Get(`Ratio > 1.0`)
	require.NoError(t, err)
	require.Same(t, f1, f2)

	_, err = c.Get(`not an expression ((`)
	require.Error(t, err)
}
