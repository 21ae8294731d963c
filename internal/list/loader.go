// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package list

import (
	"github.com/rs/zerolog/log"
)

const (
	// GrowStep is how many already-fetched rows are exposed per RequestMore
	GrowStep = 100

	// DefaultPageSize is how many rows one backend page request fetches
	DefaultPageSize = 300
)

// GrowAction tells the caller what a RequestMore call decided
type GrowAction int

const (
	// GrowNone means nothing to do: everything is exposed, or a fetch is
	// already in flight
	GrowNone GrowAction = iota
	// GrowLocal means loadedCount grew from rows already fetched; no network
	GrowLocal
	// GrowFetch means the caller must fetch the next backend page
	GrowFetch
)

// Loader exposes an incrementally growing prefix of a backend-paginated
// dataset. loadedCount is what the virtual window renders; available is how
// many rows have actually been fetched; total is the authoritative backend
// count.
//
// Invariant after every transition: 0 <= loadedCount <= available <= total
// (total may briefly lag during a refresh; the clamp in sync restores it).
type Loader struct {
	pageSize int

	loaded    int
	available int
	total     int

	fetchedPages int
	hasLoadedAll bool

	// At most one grow fetch in flight; checked and set synchronously on the
	// event loop, cleared on completion.
	inFlight bool
}

// NewLoader creates a loader fetching pageSize rows per backend request
func NewLoader(pageSize int) *Loader {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Loader{pageSize: pageSize}
}

// Loaded returns the number of rows exposed to the renderer
func (l *Loader) Loaded() int { return l.loaded }

// Available returns the number of rows fetched locally
func (l *Loader) Available() int { return l.available }

// Total returns the authoritative backend row count
func (l *Loader) Total() int { return l.total }

// HasLoadedAll reports whether every backend row is fetched locally
func (l *Loader) HasLoadedAll() bool { return l.hasLoadedAll }

// InFlight reports whether a grow fetch is outstanding
func (l *Loader) InFlight() bool { return l.inFlight }

// NextPage returns the backend page index a grow fetch should request
func (l *Loader) NextPage() int { return l.fetchedPages }

// PageSize returns the backend page size
func (l *Loader) PageSize() int { return l.pageSize }

// RequestMore grows the exposed row count. Local supply is consumed first in
// GrowStep increments; once exhausted, a backend fetch is requested unless
// all rows are already local or a fetch is in flight. The caller must follow
// a GrowFetch by performing the fetch and reporting it via CompleteFetch or
// FailFetch.
func (l *Loader) RequestMore() GrowAction {
	if l.loaded < l.available {
		grow := min(GrowStep, l.available-l.loaded)
		l.loaded += grow
		log.Debug().
			Int("grown", grow).
			Int("loaded", l.loaded).
			Int("available", l.available).
			Msg("Exposed more local rows")
		return GrowLocal
	}

	if l.hasLoadedAll || l.inFlight {
		return GrowNone
	}

	l.inFlight = true
	return GrowFetch
}

// CompleteFetch merges a fetched page. fetched is how many rows the page
// added locally; available and total are the new cumulative local row count
// and authoritative backend count. The freshly fetched rows are exposed
// immediately so the scroll that triggered the fetch lands on data.
func (l *Loader) CompleteFetch(fetched, available, total int) {
	l.inFlight = false
	l.fetchedPages++
	l.sync(available, total)
	if fetched > 0 {
		l.loaded = min(l.loaded+fetched, l.available)
	}

	log.Debug().
		Int("fetched", fetched).
		Int("loaded", l.loaded).
		Int("available", l.available).
		Int("total", l.total).
		Bool("hasLoadedAll", l.hasLoadedAll).
		Msg("Backend page merged")
}

// FailFetch clears the in-flight flag after a failed page fetch. State is
// otherwise untouched so the caller can retry.
func (l *Loader) FailFetch() {
	l.inFlight = false
}

// Reset is the user-initiated reset: filter, search or instance changed, the
// dataset is new. loadedCount restarts at min(GrowStep, total).
func (l *Loader) Reset(available, total int) {
	l.available = max(available, 0)
	l.total = max(total, 0)
	l.fetchedPages = pagesCovering(l.available, l.pageSize)
	l.hasLoadedAll = l.available >= l.total
	l.loaded = min(GrowStep, l.total)
	l.loaded = min(l.loaded, l.available)
}

// Refresh is the passive data refresh: a background poll returned the
// current dataset again. loadedCount is never decreased merely because the
// refreshed snapshot is momentarily shorter, but a genuinely smaller dataset
// clamps it.
func (l *Loader) Refresh(available, total int) {
	l.sync(available, total)
}

// sync applies new authoritative lengths and clamps loadedCount so it never
// dangles past the end of what is locally available.
func (l *Loader) sync(available, total int) {
	l.available = max(available, 0)
	l.total = max(total, 0)
	l.fetchedPages = pagesCovering(l.available, l.pageSize)
	l.hasLoadedAll = l.available >= l.total

	if l.loaded > l.available {
		log.Debug().
			Int("loaded", l.loaded).
			Int("available", l.available).
			Msg("Clamping loaded rows to shrunk dataset")
		l.loaded = l.available
	}
	if l.loaded == 0 && l.available > 0 {
		l.loaded = min(GrowStep, l.available)
	}
}

func pagesCovering(rows, pageSize int) int {
	if pageSize <= 0 || rows <= 0 {
		return 0
	}
	return (rows + pageSize - 1) / pageSize
}
