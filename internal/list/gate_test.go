// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package list

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/autobrr/qui-tui/internal/api"
)

func TestGateStartupIsNotUserAction(t *testing.T) {
	g := NewGate(GateInputs{InstanceID: 1})
	require.False(t, g.Fresh(time.Now()))
}

func TestGateObservesChanges(t *testing.T) {
	now := time.Now()
	base := GateInputs{InstanceID: 1, Search: "", Filters: api.FilterOptions{}}
	g := NewGate(base)

	tests := []struct {
		name string
		next GateInputs
		want ActionKind
	}{
		{"instance change", GateInputs{InstanceID: 2}, ActionInstance},
		{"search change", GateInputs{InstanceID: 2, Search: "iso"}, ActionSearch},
		{"filter change", GateInputs{InstanceID: 2, Search: "iso", Filters: api.FilterOptions{Status: []string{"seeding"}}}, ActionFilters},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, g.Observe(tt.next, now))
		})
	}

	// Unchanged inputs observe as no action
	require.Equal(t, ActionNone, g.Observe(tests[len(tests)-1].next, now))
}

func TestGateFreshnessWindow(t *testing.T) {
	now := time.Now()
	g := NewGate(GateInputs{InstanceID: 1})

	g.Observe(GateInputs{InstanceID: 2}, now)
	require.True(t, g.Fresh(now))
	require.True(t, g.Fresh(now.Add(999*time.Millisecond)))
	require.False(t, g.Fresh(now.Add(time.Second)), "events outside the window are passive refreshes")
}

func TestGateRecordOutOfBand(t *testing.T) {
	now := time.Now()
	g := NewGate(GateInputs{})

	g.Record(ActionSort, now)
	kind, at := g.Last()
	require.Equal(t, ActionSort, kind)
	require.Equal(t, now, at)
	require.True(t, g.Fresh(now.Add(500*time.Millisecond)))
}
