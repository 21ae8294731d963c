// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/autobrr/qui-tui/internal/api"
	"github.com/autobrr/qui-tui/internal/list"
)

// tickMsg drives search debounce settlement
type tickMsg time.Time

// pollMsg triggers the periodic background refresh
type pollMsg time.Time

// listResultMsg delivers a completed list fetch back to the engine
type listResultMsg struct {
	ticket  list.Ticket
	resp    *api.TorrentResponse
	err     error
	elapsed time.Duration
}

// bulkResultMsg delivers the outcome of a bulk action
type bulkResultMsg struct {
	action string
	err    error
}

const tickInterval = 100 * time.Millisecond

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func pollCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg { return pollMsg(t) })
}

func (a *App) fetchCmd(ticket list.Ticket, req api.ListRequest) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), a.fetchTimeout)
		defer cancel()

		start := time.Now()
		resp, err := a.client.ListTorrents(ctx, req)
		return listResultMsg{ticket: ticket, resp: resp, err: err, elapsed: time.Since(start)}
	}
}

func (a *App) bulkCmd(req api.BulkActionRequest) tea.Cmd {
	instanceID := a.engine.InstanceID()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), a.fetchTimeout)
		defer cancel()

		err := a.client.BulkAction(ctx, instanceID, req)
		return bulkResultMsg{action: req.Action, err: err}
	}
}
