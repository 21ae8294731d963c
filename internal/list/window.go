// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package list

import (
	"time"
)

const (
	// DefaultOverscan is how many rows are mounted beyond the visible range
	// on each side
	DefaultOverscan = 10

	// DefaultNearEndThreshold is how close (in rows) the visible window must
	// get to the loaded boundary before more rows are requested
	DefaultNearEndThreshold = 20

	// nearEndDebounce keeps rapid scrolling from firing RequestMore
	// repeatedly while one grow is still settling
	nearEndDebounce = 150 * time.Millisecond
)

// RowPos is one mounted row: its index in the logical dataset and its pixel
// (or cell) offset from the top of the scroll area.
type RowPos struct {
	Index  int
	Offset int
}

// Window computes which of loadedCount logical rows intersect the viewport,
// plus a bounded overscan, and detects when the view approaches the end of
// loaded data. Rows have a fixed height estimate; the total scrollable
// height follows loadedCount.
type Window struct {
	rowHeight int
	overscan  int
	threshold int

	viewportHeight int
	scrollTop      int
	focus          int

	lastNearEnd time.Time
}

// NewWindow creates a window over rows of the given height
func NewWindow(rowHeight int) *Window {
	if rowHeight <= 0 {
		rowHeight = 1
	}
	return &Window{
		rowHeight: rowHeight,
		overscan:  DefaultOverscan,
		threshold: DefaultNearEndThreshold,
	}
}

// SetViewport sets the visible height of the scroll container
func (w *Window) SetViewport(height int) {
	w.viewportHeight = max(height, 0)
}

// ScrollTop returns the current scroll offset
func (w *Window) ScrollTop() int { return w.scrollTop }

// Focus returns the focused row index
func (w *Window) Focus() int { return w.focus }

// TotalHeight is the scrollable height for loadedCount rows. Re-derived on
// every call, so it follows loadedCount changes automatically.
func (w *Window) TotalHeight(loaded int) int {
	return max(loaded, 0) * w.rowHeight
}

// ScrollTo sets the scroll offset, clamped to the scrollable range
func (w *Window) ScrollTo(offset, loaded int) {
	maxOffset := max(w.TotalHeight(loaded)-w.viewportHeight, 0)
	w.scrollTop = min(max(offset, 0), maxOffset)
}

// ScrollToTop resets scroll position and focus (user-initiated resets)
func (w *Window) ScrollToTop() {
	w.scrollTop = 0
	w.focus = 0
}

// Visible returns the (index, offset) pairs of rows that should be mounted:
// the rows intersecting the viewport plus overscan on both sides.
func (w *Window) Visible(loaded int) []RowPos {
	if loaded <= 0 || w.viewportHeight <= 0 {
		return nil
	}

	first := w.scrollTop/w.rowHeight - w.overscan
	last := (w.scrollTop+w.viewportHeight-1)/w.rowHeight + w.overscan
	first = max(first, 0)
	last = min(last, loaded-1)

	rows := make([]RowPos, 0, last-first+1)
	for i := first; i <= last; i++ {
		rows = append(rows, RowPos{Index: i, Offset: i * w.rowHeight})
	}
	return rows
}

// lastVisibleIndex is the bottom row intersecting the viewport (without
// overscan)
func (w *Window) lastVisibleIndex(loaded int) int {
	if loaded <= 0 || w.viewportHeight <= 0 {
		return -1
	}
	last := (w.scrollTop + w.viewportHeight - 1) / w.rowHeight
	return min(last, loaded-1)
}

// NearEnd reports whether the visible window is within the threshold of the
// loaded boundary. Debounced: during rapid scrolling it fires at most once
// per settle window.
func (w *Window) NearEnd(loaded int, now time.Time) bool {
	last := w.lastVisibleIndex(loaded)
	if last < 0 || last < loaded-1-w.threshold {
		return false
	}
	if now.Sub(w.lastNearEnd) < nearEndDebounce {
		return false
	}
	w.lastNearEnd = now
	return true
}

// MoveFocus moves the focused row by delta (±1 for rows, ±page for paging),
// scrolls it into view, and reports whether the focus advanced past the
// point where more rows should be requested.
func (w *Window) MoveFocus(delta, loaded int) (needMore bool) {
	if loaded <= 0 {
		w.focus = 0
		return false
	}

	w.focus = min(max(w.focus+delta, 0), loaded-1)

	// Keep the focused row inside the viewport
	focusTop := w.focus * w.rowHeight
	focusBottom := focusTop + w.rowHeight
	if focusTop < w.scrollTop {
		w.scrollTop = focusTop
	} else if visible := w.viewportHeight; visible > 0 && focusBottom > w.scrollTop+visible {
		w.scrollTop = focusBottom - visible
	}

	return delta > 0 && w.focus >= loaded-1-w.threshold
}

// PageRows is how many rows one page-up/page-down covers
func (w *Window) PageRows() int {
	if w.viewportHeight <= 0 {
		return 1
	}
	return max(w.viewportHeight/w.rowHeight, 1)
}
