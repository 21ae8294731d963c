// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package list

import (
	"github.com/rs/zerolog/log"

	"github.com/autobrr/qui-tui/internal/api"
)

// SelectionMode is the selection state machine: Empty, Explicit and
// SelectAll, with Explicit and SelectAll never active at once.
type SelectionMode int

const (
	SelectionEmpty SelectionMode = iota
	SelectionExplicit
	SelectionAll
)

// Selection tracks which rows a bulk action targets across a dataset larger
// than what is loaded client-side. Explicit mode enumerates hashes;
// select-all mode means "every row matching the current filter" minus an
// exclusion set.
type Selection struct {
	mode     SelectionMode
	explicit map[string]struct{}
	excluded map[string]struct{}
	total    int
}

// NewSelection creates an empty selection
func NewSelection() *Selection {
	return &Selection{
		explicit: make(map[string]struct{}),
		excluded: make(map[string]struct{}),
	}
}

// Mode returns the current selection mode
func (s *Selection) Mode() SelectionMode { return s.mode }

// IsAllSelected reports whether select-all mode is active
func (s *Selection) IsAllSelected() bool { return s.mode == SelectionAll }

// SetTotal updates the authoritative row count the effective count is
// computed against.
func (s *Selection) SetTotal(total int) {
	s.total = max(total, 0)
	if s.mode == SelectionAll && s.EffectiveCount() == 0 {
		s.Clear()
	}
}

// IsSelected answers "is row hash selected" under the current mode
func (s *Selection) IsSelected(hash string) bool {
	switch s.mode {
	case SelectionExplicit:
		_, ok := s.explicit[hash]
		return ok
	case SelectionAll:
		_, excluded := s.excluded[hash]
		return !excluded
	default:
		return false
	}
}

// EffectiveCount is how many rows the selection covers. In select-all mode
// that is total minus exclusions, never negative.
func (s *Selection) EffectiveCount() int {
	switch s.mode {
	case SelectionExplicit:
		return len(s.explicit)
	case SelectionAll:
		return max(0, s.total-len(s.excluded))
	default:
		return 0
	}
}

// ToggleSelectAll is Gmail-style: anything selected clears everything,
// nothing selected enters select-all mode with no exclusions.
func (s *Selection) ToggleSelectAll() {
	if s.EffectiveCount() > 0 {
		s.Clear()
		return
	}
	s.mode = SelectionAll
	clear(s.explicit)
	clear(s.excluded)
	log.Debug().Int("total", s.total).Msg("Entered select-all mode")
}

// ToggleRow sets the selection membership of one row. In explicit mode the
// hash moves in or out of the explicit set; in select-all mode it moves out
// of or into the exclusion set.
func (s *Selection) ToggleRow(hash string, selected bool) {
	switch s.mode {
	case SelectionAll:
		if selected {
			delete(s.excluded, hash)
		} else {
			s.excluded[hash] = struct{}{}
		}
		if s.EffectiveCount() == 0 {
			s.Clear()
		}
	default:
		if selected {
			s.mode = SelectionExplicit
			s.explicit[hash] = struct{}{}
		} else {
			delete(s.explicit, hash)
			if len(s.explicit) == 0 {
				s.mode = SelectionEmpty
			}
		}
	}
}

// Clear resets to the empty state, leaving neither mode in control
func (s *Selection) Clear() {
	s.mode = SelectionEmpty
	clear(s.explicit)
	clear(s.excluded)
}

// Hashes returns the explicit hash set, or the exclusion set in select-all
// mode. Order is unspecified.
func (s *Selection) Hashes() []string {
	var src map[string]struct{}
	switch s.mode {
	case SelectionExplicit:
		src = s.explicit
	case SelectionAll:
		src = s.excluded
	default:
		return nil
	}
	out := make([]string, 0, len(src))
	for h := range src {
		out = append(out, h)
	}
	return out
}

// ExcludedHashes returns the exclusion set in select-all mode, nil otherwise
func (s *Selection) ExcludedHashes() []string {
	if s.mode != SelectionAll {
		return nil
	}
	out := make([]string, 0, len(s.excluded))
	for h := range s.excluded {
		out = append(out, h)
	}
	return out
}

// ResolveTargets builds the bulk action payload for the current selection.
// Explicit mode enumerates hashes; select-all mode produces a descriptor the
// backend re-resolves into the matching set at execution time, so the client
// never needs to know every matching hash.
//
// Note: the backend resolves the descriptor against live data, so the
// effective count shown to the user can diverge from what the action
// ultimately touches if torrents change concurrently. That is inherent to
// the descriptor contract, not something the client can close.
func (s *Selection) ResolveTargets(action string, filters api.FilterOptions, search string) (api.BulkActionRequest, bool) {
	switch s.mode {
	case SelectionExplicit:
		return api.BulkActionRequest{
			Action: action,
			Hashes: s.Hashes(),
		}, true
	case SelectionAll:
		f := filters
		return api.BulkActionRequest{
			Action:        action,
			SelectAll:     true,
			Filters:       &f,
			Search:        search,
			ExcludeHashes: s.ExcludedHashes(),
		}, true
	default:
		return api.BulkActionRequest{}, false
	}
}
