// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package list

import (
	"slices"
	"time"

	"github.com/autobrr/qui-tui/internal/api"
)

// UserActionWindow is how long after a user-initiated change incoming data
// is treated as fresh user intent: inside the window updates perform
// disruptive resets (scroll-to-top, selection clear, loaded-count reset),
// outside it they merge silently.
const UserActionWindow = time.Second

// ActionKind says which input the user changed
type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionInstance
	ActionFilters
	ActionSearch
	ActionSort
)

func (k ActionKind) String() string {
	switch k {
	case ActionInstance:
		return "instance"
	case ActionFilters:
		return "filters"
	case ActionSearch:
		return "search"
	case ActionSort:
		return "sort"
	default:
		return "none"
	}
}

// GateInputs is the tuple the gate watches for user-initiated changes
type GateInputs struct {
	InstanceID int
	Search     string
	Filters    api.FilterOptions
}

func filtersEqual(a, b api.FilterOptions) bool {
	return slices.Equal(a.Status, b.Status) &&
		slices.Equal(a.Categories, b.Categories) &&
		slices.Equal(a.Tags, b.Tags) &&
		slices.Equal(a.Trackers, b.Trackers) &&
		a.Expr == b.Expr
}

// Gate disambiguates "the user changed something" from "the background
// refresh returned new data". It records a (kind, timestamp) pair on every
// observed input change; consumers ask Fresh to decide between a disruptive
// reset and a silent merge.
type Gate struct {
	prev     GateInputs
	lastKind ActionKind
	lastAt   time.Time
}

// NewGate creates a gate primed with the initial inputs so startup does not
// count as a user action.
func NewGate(initial GateInputs) *Gate {
	return &Gate{prev: initial}
}

// Observe compares the current inputs against the previous ones and records
// a user action on any change. Returns the kind of change seen, ActionNone
// if nothing changed.
func (g *Gate) Observe(cur GateInputs, now time.Time) ActionKind {
	kind := ActionNone
	switch {
	case cur.InstanceID != g.prev.InstanceID:
		kind = ActionInstance
	case cur.Search != g.prev.Search:
		kind = ActionSearch
	case !filtersEqual(cur.Filters, g.prev.Filters):
		kind = ActionFilters
	}

	g.prev = cur
	if kind != ActionNone {
		g.lastKind = kind
		g.lastAt = now
	}
	return kind
}

// Record notes a user action directly (sort changes arrive out of band from
// the watched tuple).
func (g *Gate) Record(kind ActionKind, now time.Time) {
	g.lastKind = kind
	g.lastAt = now
}

// Fresh reports whether a user action happened within the freshness window.
// Fresh means disruptive resets are allowed; stale means the event is a
// passive refresh and must not disturb scroll or selection.
func (g *Gate) Fresh(now time.Time) bool {
	return g.lastKind != ActionNone && now.Sub(g.lastAt) < UserActionWindow
}

// Last returns the most recent recorded user action
func (g *Gate) Last() (ActionKind, time.Time) {
	return g.lastKind, g.lastAt
}
