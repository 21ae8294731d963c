// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package list implements the selection-and-pagination state model behind the
// torrent list views: a progressive loader over the backend-paginated list
// endpoint, a select-all-with-exclusions selection model, a virtual window
// for rendering, and a gate that separates user-initiated changes from
// passive background refreshes. All state is mutated from a single event
// loop; the loader's in-flight flag is the only mutual exclusion.
package list

import (
	"strconv"
	"strings"
	"time"

	"github.com/autobrr/qui-tui/internal/api"
)

// DefaultSearchDebounce is how long search input must settle before it
// contributes to the query key.
const DefaultSearchDebounce = 300 * time.Millisecond

// QueryKey identifies one logical dataset: an instance plus the filter,
// search and sort context applied to it. Responses carrying a key that no
// longer matches the current one are stale and must be dropped.
type QueryKey struct {
	InstanceID int
	Search     string
	Filters    api.FilterOptions
	Sort       string
	Order      string
}

// String renders a stable cache key. Filter slices are joined in the order
// the caller set them; the sidebar always produces them in display order so
// no extra normalization is needed.
func (k QueryKey) String() string {
	var sb strings.Builder
	sb.WriteString(strconv.Itoa(k.InstanceID))
	sb.WriteByte('|')
	sb.WriteString(k.Search)
	sb.WriteByte('|')
	sb.WriteString(strings.Join(k.Filters.Status, ","))
	sb.WriteByte('|')
	sb.WriteString(strings.Join(k.Filters.Categories, ","))
	sb.WriteByte('|')
	sb.WriteString(strings.Join(k.Filters.Tags, ","))
	sb.WriteByte('|')
	sb.WriteString(strings.Join(k.Filters.Trackers, ","))
	sb.WriteByte('|')
	sb.WriteString(k.Filters.Expr)
	sb.WriteByte('|')
	sb.WriteString(k.Sort)
	sb.WriteByte('|')
	sb.WriteString(k.Order)
	return sb.String()
}

// Equal reports whether two keys identify the same logical dataset
func (k QueryKey) Equal(other QueryKey) bool {
	return k.String() == other.String()
}

// searchDebouncer delays search text changes so every keystroke does not
// produce a new query key. It is driven by the caller's clock: Set records
// the pending text, Settled reports and commits it once the debounce window
// has passed.
type searchDebouncer struct {
	committed string
	pending   string
	dirty     bool
	since     time.Time
	window    time.Duration
}

func newSearchDebouncer(window time.Duration) *searchDebouncer {
	if window <= 0 {
		window = DefaultSearchDebounce
	}
	return &searchDebouncer{window: window}
}

// Set records new search input at the given time
func (d *searchDebouncer) Set(text string, now time.Time) {
	if text == d.committed && !d.dirty {
		return
	}
	d.pending = text
	d.dirty = true
	d.since = now
}

// Settled commits the pending text if the debounce window has elapsed and
// reports whether the committed value changed.
func (d *searchDebouncer) Settled(now time.Time) bool {
	if !d.dirty || now.Sub(d.since) < d.window {
		return false
	}
	d.dirty = false
	if d.pending == d.committed {
		return false
	}
	d.committed = d.pending
	return true
}

// Value returns the committed search text
func (d *searchDebouncer) Value() string {
	return d.committed
}

// Flush commits any pending text immediately (instance switches should not
// wait out the debounce window).
func (d *searchDebouncer) Flush() bool {
	if !d.dirty {
		return false
	}
	d.dirty = false
	if d.pending == d.committed {
		return false
	}
	d.committed = d.pending
	return true
}
