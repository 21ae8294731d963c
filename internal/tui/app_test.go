// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package tui

import (
	"testing"

	qbt "github.com/autobrr/go-qbittorrent"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/autobrr/qui-tui/internal/api"
	"github.com/autobrr/qui-tui/internal/models"
)

func newTestApp(t *testing.T) *App {
	t.Helper()

	app := NewApp(Options{
		InstanceID: 1,
		PageSize:   100,
		Instances: []*models.Instance{
			{ID: 1, Name: "home"},
			{ID: 2, Name: "seedbox"},
		},
	})
	app.Update(tea.WindowSizeMsg{Width: 120, Height: 30})
	return app
}

func key(s string) tea.KeyMsg {
	if len(s) == 1 {
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
	switch s {
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	}
	return tea.KeyMsg{}
}

func TestViewToggle(t *testing.T) {
	app := newTestApp(t)
	require.Equal(t, viewTable, app.view)

	app.Update(key("v"))
	require.Equal(t, viewCards, app.view)

	app.Update(key("v"))
	require.Equal(t, viewTable, app.view)
}

func TestSortCycling(t *testing.T) {
	app := newTestApp(t)

	field, order := app.engine.Sort()
	require.Equal(t, "added_on", field)
	require.Equal(t, "desc", order)

	app.Update(key("s"))
	field, _ = app.engine.Sort()
	require.Equal(t, "name", field)

	app.Update(key("o"))
	_, order = app.engine.Sort()
	require.Equal(t, "asc", order)
}

func TestInstanceCycling(t *testing.T) {
	app := newTestApp(t)
	require.Equal(t, 1, app.engine.InstanceID())

	app.Update(key("tab"))
	require.Equal(t, 2, app.engine.InstanceID())

	app.Update(key("tab"))
	require.Equal(t, 1, app.engine.InstanceID())
}

func TestSearchModeCapturesInput(t *testing.T) {
	app := newTestApp(t)

	app.Update(key("/"))
	require.True(t, app.searching)

	// Keys go to the input, not to bindings ('v' must not toggle the view)
	app.Update(key("v"))
	require.Equal(t, viewTable, app.view)
	require.Equal(t, "v", app.search.Value())

	app.Update(key("enter"))
	require.False(t, app.searching)
}

func TestSearchEscapeRestoresCommitted(t *testing.T) {
	app := newTestApp(t)

	app.Update(key("/"))
	app.Update(key("u"))
	app.Update(key("b"))
	require.Equal(t, "ub", app.search.Value())

	app.Update(key("esc"))
	require.False(t, app.searching)
	require.Equal(t, "", app.search.Value())
	require.Equal(t, "", app.engine.Search())
}

func TestDeleteRequiresSelectionAndConfirmation(t *testing.T) {
	app := newTestApp(t)

	// Nothing selected: no confirmation prompt
	app.Update(key("d"))
	require.False(t, app.confirmDelete)

	app.engine.Selection().SetTotal(10)
	app.engine.ToggleSelectAll()
	app.Update(key("d"))
	require.True(t, app.confirmDelete)

	// Anything but y cancels
	app.Update(key("n"))
	require.False(t, app.confirmDelete)
	require.Equal(t, 10, app.engine.Selection().EffectiveCount())
}

func seedRows(t *testing.T, app *App, names ...string) {
	t.Helper()

	ticket, _, ok := app.engine.NextFetch()
	require.True(t, ok)

	torrents := make([]qbt.Torrent, len(names))
	for i, name := range names {
		torrents[i] = qbt.Torrent{Hash: name, Name: name, Progress: float64(i % 2)}
	}
	app.engine.Apply(ticket, &api.TorrentResponse{Torrents: torrents, Total: len(torrents)}, nil)
	require.Len(t, app.engine.Rows(), len(names))
}

func TestRefineNarrowsLoadedRows(t *testing.T) {
	app := newTestApp(t)
	seedRows(t, app, "ubuntu-24.04.iso", "debian-12.iso", "ubuntu-22.04.iso")

	app.Update(key("\\"))
	require.True(t, app.refining)
	for _, r := range "ubuntu" {
		app.Update(key(string(r)))
	}

	rows := app.viewRows()
	require.Len(t, rows, 2)
	require.True(t, app.localMode())

	// Focus and selection act on the narrowed rows
	app.Update(key("enter"))
	app.Update(key("j"))
	focused, ok := app.focusedRow()
	require.True(t, ok)
	require.Contains(t, focused.Name, "ubuntu")

	// esc clears the refine, restoring the full prefix
	app.Update(key("esc"))
	require.False(t, app.localMode())
	require.Len(t, app.viewRows(), 3)
}

func TestSavedFilterCycling(t *testing.T) {
	app := newTestApp(t)
	app.savedFilters = []*models.SavedFilter{
		{Name: "done", Expression: "Progress == 1.0"},
		{Name: "broken", Expression: "this is not valid ((("},
	}
	seedRows(t, app, "a", "b", "c", "d")

	app.Update(key("f"))
	require.NotNil(t, app.activeExpr)
	require.Equal(t, 0, app.filterIdx)
	require.Len(t, app.viewRows(), 2) // rows seeded with alternating progress

	// The broken filter is skipped and cycling wraps back to none
	app.Update(key("f"))
	require.Nil(t, app.activeExpr)
	require.Len(t, app.viewRows(), 4)
}

func TestViewRendersWithoutData(t *testing.T) {
	app := newTestApp(t)
	out := app.View()
	require.Contains(t, out, "qui-tui")
	require.Contains(t, out, "home")

	app.Update(key("v"))
	require.NotEmpty(t, app.View())
}
