// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package tui

import (
	"fmt"
	"strings"

	qbt "github.com/autobrr/go-qbittorrent"
)

// fixed column widths; name takes the rest
const (
	colSel      = 2
	colSize     = 10
	colProgress = 7
	colState    = 12
	colSpeed    = 12
	colRatio    = 6
	colETA      = 6
)

func (a *App) renderTable() string {
	height := a.listHeight()
	nameWidth := a.width - colSel - colSize - colProgress - colState - 2*colSpeed - colRatio - colETA - 8
	if nameWidth < 8 {
		nameWidth = 8
	}

	var b strings.Builder
	b.WriteString(columnHeaderStyle.Render(fmt.Sprintf("%-*s %-*s %*s %*s %-*s %*s %*s %*s %*s",
		colSel, "",
		nameWidth, "name",
		colSize, "size",
		colProgress, "done",
		colState, "state",
		colSpeed, "down",
		colSpeed, "up",
		colRatio, "ratio",
		colETA, "eta")))
	b.WriteByte('\n')

	lines := 0
	if a.localMode() {
		// Locally narrowed rows: window indices don't apply, center on focus
		rows := a.viewRows()
		first := a.focusIndex() - height/2
		if first > len(rows)-height {
			first = len(rows) - height
		}
		if first < 0 {
			first = 0
		}
		for i := first; i < len(rows) && lines < height; i++ {
			b.WriteString(a.renderTableRow(rows[i], i, nameWidth))
			b.WriteByte('\n')
			lines++
		}
	} else {
		window := a.engine.Window()
		rows := a.engine.Rows()
		top := window.ScrollTop()
		for _, pos := range window.Visible(len(rows)) {
			// Visible includes overscan; the terminal only draws the viewport
			if pos.Offset < top || pos.Offset >= top+height {
				continue
			}
			if lines >= height {
				break
			}
			b.WriteString(a.renderTableRow(rows[pos.Index], pos.Index, nameWidth))
			b.WriteByte('\n')
			lines++
		}
	}

	for lines < height {
		b.WriteByte('\n')
		lines++
	}
	return b.String()
}

func (a *App) renderTableRow(t qbt.Torrent, index, nameWidth int) string {
	mark := "  "
	if a.engine.Selection().IsSelected(t.Hash) {
		mark = selectedMarkStyle.Render("✓ ")
	}

	state, stateStyle := formatState(t.State)

	line := fmt.Sprintf("%s %s %*s %*s %s %*s %*s %*s %*s",
		mark,
		truncate(t.Name, nameWidth),
		colSize, formatSize(t.Size),
		colProgress, formatProgress(t.Progress),
		stateStyle.Render(truncate(state, colState)),
		colSpeed, formatSpeed(t.DlSpeed),
		colSpeed, formatSpeed(t.UpSpeed),
		colRatio, formatRatio(t.Ratio),
		colETA, formatETA(t.ETA),
	)

	if index == a.focusIndex() {
		return focusedRowStyle.Render(line)
	}
	return rowStyle.Render(line)
}
