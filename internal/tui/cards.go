// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package tui

import (
	"fmt"
	"strings"

	qbt "github.com/autobrr/go-qbittorrent"
)

// cardHeight is lines per card including the border
const cardHeight = 4

// renderCards is the compact mobile-style alternative to the table. It reads
// the same engine state, so selection and progressive loading behave
// identically in both views.
func (a *App) renderCards() string {
	height := a.listHeight()
	rows := a.viewRows()

	perScreen := height / cardHeight
	if perScreen < 1 {
		perScreen = 1
	}

	// The window tracks row indices; the cards view shows the focused row and
	// its neighbours
	first := a.focusIndex() - perScreen/2
	if first > len(rows)-perScreen {
		first = len(rows) - perScreen
	}
	if first < 0 {
		first = 0
	}

	var b strings.Builder
	lines := 0
	for i := first; i < len(rows) && lines+cardHeight <= height; i++ {
		card := a.renderCard(rows[i], i)
		b.WriteString(card)
		b.WriteByte('\n')
		lines += strings.Count(card, "\n") + 2
	}

	for lines < height {
		b.WriteByte('\n')
		lines++
	}
	return b.String()
}

func (a *App) renderCard(t qbt.Torrent, index int) string {
	width := a.width - 4
	if width < 20 {
		width = 20
	}

	mark := ""
	if a.engine.Selection().IsSelected(t.Hash) {
		mark = selectedMarkStyle.Render("✓ ")
	}

	state, stateStyle := formatState(t.State)

	title := mark + truncate(t.Name, width-len(mark))
	detail := fmt.Sprintf("%s  %s  %s  ↓%s ↑%s  r:%s",
		stateStyle.Render(state),
		formatSize(t.Size),
		formatProgress(t.Progress),
		formatSpeed(t.DlSpeed),
		formatSpeed(t.UpSpeed),
		formatRatio(t.Ratio),
	)

	style := cardStyle
	if index == a.focusIndex() {
		style = cardFocusedStyle
	}
	return style.Width(width).Render(title + "\n" + detail)
}
