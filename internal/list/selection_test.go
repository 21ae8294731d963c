// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package list

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/autobrr/qui-tui/internal/api"
)

func TestSelectionStartsEmpty(t *testing.T) {
	s := NewSelection()
	require.Equal(t, SelectionEmpty, s.Mode())
	require.Zero(t, s.EffectiveCount())
	require.False(t, s.IsSelected("abc"))
	require.Nil(t, s.Hashes())
}

func TestSelectionExplicitToggle(t *testing.T) {
	s := NewSelection()
	s.SetTotal(500)

	s.ToggleRow("h1", true)
	s.ToggleRow("h2", true)
	require.Equal(t, SelectionExplicit, s.Mode())
	require.Equal(t, 2, s.EffectiveCount())
	require.True(t, s.IsSelected("h1"))
	require.False(t, s.IsSelected("h3"))

	s.ToggleRow("h1", false)
	require.Equal(t, 1, s.EffectiveCount())

	// Deselecting the last row returns to the empty state
	s.ToggleRow("h2", false)
	require.Equal(t, SelectionEmpty, s.Mode())
	require.Zero(t, s.EffectiveCount())
}

func TestSelectionSelectAllWithExclusions(t *testing.T) {
	s := NewSelection()
	s.SetTotal(500)

	s.ToggleSelectAll()
	require.Equal(t, SelectionAll, s.Mode())
	require.True(t, s.IsAllSelected())
	require.Equal(t, 500, s.EffectiveCount())
	require.True(t, s.IsSelected("anything"))

	// Excluding one row drops the effective count
	s.ToggleRow("hashX", false)
	require.Equal(t, 499, s.EffectiveCount())
	require.False(t, s.IsSelected("hashX"))

	// Re-selecting removes it from the exclusion set
	s.ToggleRow("hashX", true)
	require.Equal(t, 500, s.EffectiveCount())
	require.True(t, s.IsSelected("hashX"))
}

func TestSelectionToggleSelectAllClearsAnySelection(t *testing.T) {
	s := NewSelection()
	s.SetTotal(100)

	// Explicit selection active: toggle clears instead of selecting all
	s.ToggleRow("h1", true)
	s.ToggleSelectAll()
	require.Equal(t, SelectionEmpty, s.Mode())

	// Nothing selected: toggle enters select-all
	s.ToggleSelectAll()
	require.Equal(t, SelectionAll, s.Mode())

	// Select-all with exclusions still counts as "something selected"
	s.ToggleRow("h1", false)
	s.ToggleSelectAll()
	require.Equal(t, SelectionEmpty, s.Mode())
}

func TestSelectionModesNeverBothActive(t *testing.T) {
	s := NewSelection()
	s.SetTotal(10)

	s.ToggleRow("h1", true)
	s.ToggleSelectAll() // clears explicit
	s.ToggleSelectAll() // enters select-all
	require.Empty(t, s.explicit, "explicit set must be empty in select-all mode")

	s.Clear()
	require.Empty(t, s.excluded)
	require.Empty(t, s.explicit)
}

func TestSelectionRoundTrip(t *testing.T) {
	// toggleRow(h, false) then toggleRow(h, true) returns membership of h to
	// its original state in either mode.
	t.Run("explicit", func(t *testing.T) {
		s := NewSelection()
		s.SetTotal(10)
		s.ToggleRow("h", true)

		s.ToggleRow("h", false)
		s.ToggleRow("h", true)
		require.True(t, s.IsSelected("h"))
		require.Equal(t, 1, s.EffectiveCount())
	})

	t.Run("select-all", func(t *testing.T) {
		s := NewSelection()
		s.SetTotal(10)
		s.ToggleSelectAll()

		s.ToggleRow("h", false)
		s.ToggleRow("h", true)
		require.True(t, s.IsSelected("h"))
		require.Equal(t, 10, s.EffectiveCount())
	})
}

func TestSelectionEffectiveCountNeverNegative(t *testing.T) {
	s := NewSelection()
	s.SetTotal(2)
	s.ToggleSelectAll()

	s.ToggleRow("h1", false)
	require.Equal(t, 1, s.EffectiveCount())

	// Excluding the last remaining row empties the selection entirely
	s.ToggleRow("h2", false)
	require.Equal(t, SelectionEmpty, s.Mode())
	require.Zero(t, s.EffectiveCount())
}

func TestSelectionShrinkingTotalClampsAndClears(t *testing.T) {
	s := NewSelection()
	s.SetTotal(5)
	s.ToggleSelectAll()
	s.ToggleRow("h1", false)
	s.ToggleRow("h2", false)
	require.Equal(t, 3, s.EffectiveCount())

	// Dataset shrank below the exclusion count: selection empties rather
	// than going negative
	s.SetTotal(2)
	require.Equal(t, SelectionEmpty, s.Mode())
	require.Zero(t, s.EffectiveCount())
}

func TestSelectionResolveTargetsExplicit(t *testing.T) {
	s := NewSelection()
	s.SetTotal(100)
	s.ToggleRow("h1", true)
	s.ToggleRow("h2", true)

	req, ok := s.ResolveTargets("pause", api.FilterOptions{}, "")
	require.True(t, ok)
	require.Equal(t, "pause", req.Action)
	require.ElementsMatch(t, []string{"h1", "h2"}, req.Hashes)
	require.False(t, req.SelectAll)
	require.Nil(t, req.Filters)
}

func TestSelectionResolveTargetsSelectAll(t *testing.T) {
	s := NewSelection()
	s.SetTotal(5000)
	s.ToggleSelectAll()
	s.ToggleRow("skip1", false)

	filters := api.FilterOptions{Status: []string{"seeding"}, Categories: []string{"movies"}}
	req, ok := s.ResolveTargets("recheck", filters, "linux iso")
	require.True(t, ok)
	require.True(t, req.SelectAll)
	require.Empty(t, req.Hashes, "select-all descriptor never enumerates the matching set")
	require.Equal(t, []string{"skip1"}, req.ExcludeHashes)
	require.NotNil(t, req.Filters)
	require.Equal(t, filters.Status, req.Filters.Status)
	require.Equal(t, "linux iso", req.Search)
}

func TestSelectionResolveTargetsEmpty(t *testing.T) {
	s := NewSelection()
	_, ok := s.ResolveTargets("pause", api.FilterOptions{}, "")
	require.False(t, ok)
}
