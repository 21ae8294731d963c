// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package list

import (
	"time"

	qbt "github.com/autobrr/go-qbittorrent"
	"github.com/rs/zerolog/log"

	"github.com/autobrr/qui-tui/internal/api"
)

// FetchKind says why a fetch was issued
type FetchKind int

const (
	// FetchInitial re-reads the dataset after a user-initiated change
	FetchInitial FetchKind = iota
	// FetchGrow requests the next backend page for progressive loading
	FetchGrow
	// FetchPoll is the periodic background refresh
	FetchPoll
)

// Ticket identifies one outstanding fetch. Results delivered with a ticket
// whose sequence no longer matches the engine's are stale and dropped.
type Ticket struct {
	Seq  uint64
	Key  QueryKey
	Kind FetchKind
}

// ListUpdateFunc receives the loaded row prefix and aggregates after every
// data change.
type ListUpdateFunc func(rows []qbt.Torrent, total int, counts *api.TorrentCounts, categories map[string]qbt.Category, tags []string)

// SelectionChangeFunc receives the selection after every selection change.
// hashes is the explicit set (or the exclusion set in select-all mode), rows
// are the selected rows among those loaded.
type SelectionChangeFunc func(hashes []string, rows []qbt.Torrent, isAllSelected bool, effectiveCount int, excludeHashes []string)

// Engine is the consolidated list state machine consumed by both the table
// and the cards adapter. It owns the query key, the progressive loader, the
// selection model, the virtual window and the user-action gate. The engine
// never performs I/O: callers ask it what to fetch (NextFetch, RequestMore),
// run the request, and hand the result back via Apply. All methods must be
// called from one event loop.
type Engine struct {
	loader    *Loader
	selection *Selection
	window    *Window
	gate      *Gate
	debounce  *searchDebouncer

	instanceID int
	filters    api.FilterOptions
	sortField  string
	sortOrder  string

	rows       []qbt.Torrent
	stats      *api.TorrentStats
	counts     *api.TorrentCounts
	categories map[string]qbt.Category
	tags       []string
	lastErr    error

	seq          uint64
	pendingFetch bool // an initial fetch or poll should be issued

	now func() time.Time

	onListUpdate      ListUpdateFunc
	onSelectionChange SelectionChangeFunc
}

// EngineOptions configures a list engine
type EngineOptions struct {
	InstanceID     int
	PageSize       int
	RowHeight      int
	SearchDebounce time.Duration
	Sort           string
	Order          string

	OnListUpdate      ListUpdateFunc
	OnSelectionChange SelectionChangeFunc

	// Now overrides the clock, for tests
	Now func() time.Time
}

// NewEngine creates an engine for one instance
func NewEngine(opts EngineOptions) *Engine {
	if opts.Sort == "" {
		opts.Sort = "added_on"
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	e := &Engine{
		loader:            NewLoader(opts.PageSize),
		selection:         NewSelection(),
		window:            NewWindow(opts.RowHeight),
		debounce:          newSearchDebouncer(opts.SearchDebounce),
		instanceID:        opts.InstanceID,
		sortField:         opts.Sort,
		sortOrder:         opts.Order,
		now:               now,
		onListUpdate:      opts.OnListUpdate,
		onSelectionChange: opts.OnSelectionChange,
		pendingFetch:      true,
	}
	e.gate = NewGate(e.gateInputs())
	return e
}

// Loader exposes the progressive loader (read-only use by adapters)
func (e *Engine) Loader() *Loader { return e.loader }

// Selection exposes the selection model
func (e *Engine) Selection() *Selection { return e.selection }

// Window exposes the virtual window
func (e *Engine) Window() *Window { return e.window }

// Err returns the most recent fetch failure, nil after a success
func (e *Engine) Err() error { return e.lastErr }

// Stats returns the latest instance-wide aggregates
func (e *Engine) Stats() *api.TorrentStats { return e.stats }

// Counts returns the latest sidebar counts
func (e *Engine) Counts() *api.TorrentCounts { return e.counts }

// Categories returns the latest category map
func (e *Engine) Categories() map[string]qbt.Category { return e.categories }

// Tags returns the latest tag list
func (e *Engine) Tags() []string { return e.tags }

// InstanceID returns the active instance
func (e *Engine) InstanceID() int { return e.instanceID }

// Filters returns the active filter set
func (e *Engine) Filters() api.FilterOptions { return e.filters }

// Search returns the committed (debounced) search text
func (e *Engine) Search() string { return e.debounce.Value() }

// Sort returns the active sort field and order
func (e *Engine) Sort() (field, order string) { return e.sortField, e.sortOrder }

// Key is the query key for the current committed inputs
func (e *Engine) Key() QueryKey {
	return QueryKey{
		InstanceID: e.instanceID,
		Search:     e.debounce.Value(),
		Filters:    e.filters,
		Sort:       e.sortField,
		Order:      e.sortOrder,
	}
}

func (e *Engine) gateInputs() GateInputs {
	return GateInputs{
		InstanceID: e.instanceID,
		Search:     e.debounce.Value(),
		Filters:    e.filters,
	}
}

// Rows returns the loaded row prefix the renderer may show
func (e *Engine) Rows() []qbt.Torrent {
	return e.rows[:min(e.loader.Loaded(), len(e.rows))]
}

// Row returns the row at a logical index, false past the loaded prefix
func (e *Engine) Row(index int) (qbt.Torrent, bool) {
	rows := e.Rows()
	if index < 0 || index >= len(rows) {
		return qbt.Torrent{}, false
	}
	return rows[index], true
}

// SetInstance switches the active instance. User-initiated: selection is
// cleared and pending search text is flushed rather than debounced.
func (e *Engine) SetInstance(id int) {
	if id == e.instanceID {
		return
	}
	e.instanceID = id
	e.debounce.Flush()
	e.userAction(ActionInstance)
}

// SetFilters replaces the active filter set. User-initiated.
func (e *Engine) SetFilters(f api.FilterOptions) {
	if filtersEqual(f, e.filters) {
		return
	}
	e.filters = f
	e.userAction(ActionFilters)
}

// SetSort changes the sort field/direction. User-initiated; selection
// survives (reordering does not change what is selected).
func (e *Engine) SetSort(field, order string) {
	if field == e.sortField && order == e.sortOrder {
		return
	}
	e.sortField = field
	e.sortOrder = order
	e.gate.Record(ActionSort, e.now())
	e.invalidate()
}

// SetSearchInput records raw search input. The committed search text (and
// the query key) only changes once the input settles; drive settlement with
// Tick.
func (e *Engine) SetSearchInput(text string) {
	e.debounce.Set(text, e.now())
}

// Tick advances the debounce clock. Returns true when the settled search
// changed the query key; the caller should then issue NextFetch.
func (e *Engine) Tick() bool {
	if !e.debounce.Settled(e.now()) {
		return false
	}
	e.userAction(ActionSearch)
	return true
}

// userAction records a user-initiated change: gate timestamp, selection
// clear, and invalidation of outstanding fetches.
func (e *Engine) userAction(kind ActionKind) {
	e.gate.Observe(e.gateInputs(), e.now())
	if e.selection.EffectiveCount() > 0 {
		e.selection.Clear()
		e.emitSelection()
	}
	e.invalidate()

	log.Debug().
		Str("kind", kind.String()).
		Int("instanceID", e.instanceID).
		Msg("User-initiated list change")
}

// invalidate supersedes all outstanding fetches and schedules a fresh read
func (e *Engine) invalidate() {
	e.seq++
	e.loader.FailFetch()
	e.pendingFetch = true
	e.lastErr = nil
}

// NextFetch returns the initial-read or poll request the engine wants
// issued, if any. Initial reads cover one page; refreshes re-read everything
// currently loaded so the poll merges in place.
func (e *Engine) NextFetch() (Ticket, api.ListRequest, bool) {
	if !e.pendingFetch {
		return Ticket{}, api.ListRequest{}, false
	}
	e.pendingFetch = false

	key := e.Key()
	limit := e.loader.PageSize()
	if avail := e.loader.Available(); avail > limit {
		limit = avail
	}

	return Ticket{Seq: e.seq, Key: key, Kind: FetchInitial}, api.ListRequest{
		InstanceID: e.instanceID,
		Page:       0,
		Limit:      limit,
		Sort:       e.sortField,
		Order:      e.sortOrder,
		Search:     key.Search,
		Filters:    e.filters,
	}, true
}

// Poll schedules a passive refresh of the current dataset
func (e *Engine) Poll() (Ticket, api.ListRequest, bool) {
	if e.loader.InFlight() {
		// A grow fetch is about to deliver fresh data anyway
		return Ticket{}, api.ListRequest{}, false
	}

	key := e.Key()
	limit := e.loader.PageSize()
	if avail := e.loader.Available(); avail > limit {
		limit = avail
	}

	return Ticket{Seq: e.seq, Key: key, Kind: FetchPoll}, api.ListRequest{
		InstanceID: e.instanceID,
		Page:       0,
		Limit:      limit,
		Sort:       e.sortField,
		Order:      e.sortOrder,
		Search:     key.Search,
		Filters:    e.filters,
	}, true
}

// RequestMore grows the exposed row count when the window nears the loaded
// boundary. Local supply is consumed without I/O; when a backend page is
// needed the returned request must be issued and its result delivered via
// Apply. A request while a grow is in flight is a no-op.
func (e *Engine) RequestMore() (Ticket, api.ListRequest, bool) {
	switch e.loader.RequestMore() {
	case GrowLocal:
		e.emitList()
		return Ticket{}, api.ListRequest{}, false
	case GrowFetch:
		key := e.Key()
		return Ticket{Seq: e.seq, Key: key, Kind: FetchGrow}, api.ListRequest{
			InstanceID: e.instanceID,
			Page:       e.loader.NextPage(),
			Limit:      e.loader.PageSize(),
			Sort:       e.sortField,
			Order:      e.sortOrder,
			Search:     key.Search,
			Filters:    e.filters,
		}, true
	default:
		return Ticket{}, api.ListRequest{}, false
	}
}

// OnScroll updates the scroll offset and reports whether the window wants
// more rows (debounced near-end detection).
func (e *Engine) OnScroll(offset int) bool {
	loaded := e.loader.Loaded()
	e.window.ScrollTo(offset, loaded)

	// Nothing left to grow into: fully exposed and fully fetched
	if loaded >= e.loader.Available() && e.loader.HasLoadedAll() {
		return false
	}
	return e.window.NearEnd(loaded, e.now())
}

// MoveFocus moves keyboard focus by delta rows and reports whether more rows
// should be requested because focus advanced near the loaded boundary.
func (e *Engine) MoveFocus(delta int) bool {
	return e.window.MoveFocus(delta, e.loader.Loaded())
}

// Apply delivers a fetch result. Stale results (superseded sequence) are
// dropped silently. Errors leave loader, window and selection untouched and
// surface via Err.
func (e *Engine) Apply(t Ticket, resp *api.TorrentResponse, fetchErr error) {
	if t.Seq != e.seq {
		log.Debug().
			Uint64("ticketSeq", t.Seq).
			Uint64("currentSeq", e.seq).
			Msg("Dropping stale fetch result")
		return
	}

	if fetchErr != nil {
		if t.Kind == FetchGrow {
			e.loader.FailFetch()
		}
		e.lastErr = fetchErr
		log.Debug().Err(fetchErr).Int("kind", int(t.Kind)).Msg("List fetch failed")
		return
	}

	e.lastErr = nil

	switch t.Kind {
	case FetchGrow:
		e.rows = append(e.rows, resp.Torrents...)
		e.loader.CompleteFetch(len(resp.Torrents), len(e.rows), resp.Total)

	default:
		e.rows = resp.Torrents
		if e.gate.Fresh(e.now()) {
			// Fresh user intent: disruptive reset
			e.loader.Reset(len(e.rows), resp.Total)
			e.window.ScrollToTop()
		} else {
			// Passive refresh: merge in place, never shrink the exposed
			// prefix unless the dataset genuinely shrank
			e.loader.Refresh(len(e.rows), resp.Total)
		}
	}

	if resp.Stats != nil {
		e.stats = resp.Stats
	}
	e.counts = resp.Counts
	if resp.Categories != nil {
		e.categories = resp.Categories
	}
	if resp.Tags != nil {
		e.tags = resp.Tags
	}

	e.selection.SetTotal(resp.Total)
	e.emitList()
	e.emitSelection()
}

// ToggleRow flips the selection membership of one row
func (e *Engine) ToggleRow(hash string, selected bool) {
	e.selection.ToggleRow(hash, selected)
	e.emitSelection()
}

// ToggleSelectAll is Gmail-style select-all / clear-all
func (e *Engine) ToggleSelectAll() {
	e.selection.ToggleSelectAll()
	e.emitSelection()
}

// ResolveBulkAction builds the bulk action payload for the current
// selection. False when nothing is selected.
func (e *Engine) ResolveBulkAction(action string) (api.BulkActionRequest, bool) {
	return e.selection.ResolveTargets(action, e.filters, e.debounce.Value())
}

// CompleteBulkAction records the outcome of a bulk action. Success clears
// the selection and schedules a refresh; failure leaves the selection intact
// so the user can retry.
func (e *Engine) CompleteBulkAction(err error) {
	if err != nil {
		e.lastErr = err
		return
	}
	e.selection.Clear()
	e.emitSelection()
	e.pendingFetch = true
}

func (e *Engine) emitList() {
	if e.onListUpdate == nil {
		return
	}
	e.onListUpdate(e.Rows(), e.loader.Total(), e.counts, e.categories, e.tags)
}

func (e *Engine) emitSelection() {
	if e.onSelectionChange == nil {
		return
	}

	var selectedRows []qbt.Torrent
	for _, t := range e.Rows() {
		if e.selection.IsSelected(t.Hash) {
			selectedRows = append(selectedRows, t)
		}
	}

	e.onSelectionChange(
		e.selection.Hashes(),
		selectedRows,
		e.selection.IsAllSelected(),
		e.selection.EffectiveCount(),
		e.selection.ExcludedHashes(),
	)
}
