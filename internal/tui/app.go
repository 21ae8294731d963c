// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package tui is the terminal frontend. It owns the bubbletea event loop;
// all list state lives in the list engine, and the table and cards views are
// thin renderers over it.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	qbt "github.com/autobrr/go-qbittorrent"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"

	"github.com/autobrr/qui-tui/internal/api"
	"github.com/autobrr/qui-tui/internal/list"
	"github.com/autobrr/qui-tui/internal/metrics"
	"github.com/autobrr/qui-tui/internal/models"
)

// chrome rows: header, column header, selection bar, status bar
const chromeHeight = 4

type viewMode int

const (
	viewTable viewMode = iota
	viewCards
)

// Options wires the App to everything built in main
type Options struct {
	Client       *api.Client
	Instances    []*models.Instance
	InstanceID   int
	Settings     *models.SettingsStore
	Metrics      *metrics.MetricsManager // nil when disabled
	SavedFilters []*models.SavedFilter
	PageSize     int
	PollInterval time.Duration
	FetchTimeout time.Duration
	UISettings   *models.UISettings
}

// App is the root bubbletea model
type App struct {
	engine    *list.Engine
	client    *api.Client
	metrics   *metrics.MetricsManager
	settings  *models.SettingsStore
	instances []*models.Instance

	search  textinput.Model
	refine  textinput.Model
	spin    spinner.Model
	loading bool

	width  int
	height int
	view   viewMode

	searching     bool
	refining      bool
	confirmDelete bool
	statusMsg     string

	// Local narrowing over loaded rows; neither touches the query key
	savedFilters []*models.SavedFilter
	exprCache    *list.ExprCache
	filterIdx    int // index into savedFilters, -1 = none
	activeExpr   *list.ExprFilter
	localFocus   int // focused index into viewRows when local filters are on

	pollInterval time.Duration
	fetchTimeout time.Duration
}

func NewApp(opts Options) *App {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 3 * time.Second
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 30 * time.Second
	}

	ui := opts.UISettings
	if ui == nil {
		ui = &models.UISettings{ActiveView: "table", SortField: "added_on", SortOrder: "desc"}
	}

	search := textinput.New()
	search.Placeholder = "search"
	search.Prompt = "/"
	search.CharLimit = 256

	refine := textinput.New()
	refine.Placeholder = "refine loaded"
	refine.Prompt = "\\"
	refine.CharLimit = 256

	spin := spinner.New(spinner.WithSpinner(spinner.Dot))

	a := &App{
		client:       opts.Client,
		metrics:      opts.Metrics,
		settings:     opts.Settings,
		instances:    opts.Instances,
		savedFilters: opts.SavedFilters,
		exprCache:    list.NewExprCache(),
		filterIdx:    -1,
		search:       search,
		refine:       refine,
		spin:         spin,
		pollInterval: opts.PollInterval,
		fetchTimeout: opts.FetchTimeout,
	}
	if ui.ActiveView == "cards" {
		a.view = viewCards
	}

	a.engine = list.NewEngine(list.EngineOptions{
		InstanceID: opts.InstanceID,
		PageSize:   opts.PageSize,
		RowHeight:  1,
		Sort:       ui.SortField,
		Order:      ui.SortOrder,
	})

	return a
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(
		a.spin.Tick,
		tickCmd(),
		pollCmd(a.pollInterval),
		a.issuePending(),
	)
}

// issuePending asks the engine whether it wants an initial fetch and turns it
// into a command
func (a *App) issuePending() tea.Cmd {
	ticket, req, ok := a.engine.NextFetch()
	if !ok {
		return nil
	}
	a.loading = true
	a.recordFetch(ticket.Kind)
	return a.fetchCmd(ticket, req)
}

func (a *App) recordFetch(kind list.FetchKind) {
	if a.metrics == nil {
		return
	}
	label := "initial"
	switch kind {
	case list.FetchGrow:
		label = "grow"
	case list.FetchPoll:
		label = "poll"
	}
	a.metrics.RecordListFetch(a.engine.InstanceID(), label)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.engine.Window().SetViewport(a.listHeight())

	case tickMsg:
		if a.engine.Tick() {
			if cmd := a.issuePending(); cmd != nil {
				cmds = append(cmds, cmd)
			}
		}
		cmds = append(cmds, tickCmd())

	case pollMsg:
		if ticket, req, ok := a.engine.Poll(); ok {
			a.recordFetch(ticket.Kind)
			cmds = append(cmds, a.fetchCmd(ticket, req))
		}
		cmds = append(cmds, pollCmd(a.pollInterval))

	case listResultMsg:
		a.loading = false
		if a.metrics != nil {
			if msg.err != nil {
				a.metrics.RecordFetchError(a.engine.InstanceID())
			} else {
				a.metrics.ObserveFetchDuration(a.engine.InstanceID(), msg.elapsed.Seconds())
			}
		}
		a.engine.Apply(msg.ticket, msg.resp, msg.err)
		if a.metrics != nil {
			a.metrics.SetRowsLoaded(a.engine.InstanceID(), len(a.engine.Rows()))
		}

	case bulkResultMsg:
		a.engine.CompleteBulkAction(msg.err)
		if a.metrics != nil {
			a.metrics.RecordBulkAction(a.engine.InstanceID(), msg.action, msg.err == nil)
		}
		if msg.err != nil {
			a.statusMsg = fmt.Sprintf("%s failed: %v", msg.action, msg.err)
		} else {
			a.statusMsg = msg.action + " done"
			if cmd := a.issuePending(); cmd != nil {
				cmds = append(cmds, cmd)
			}
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spin, cmd = a.spin.Update(msg)
		cmds = append(cmds, cmd)

	case tea.MouseMsg:
		if cmd := a.handleMouse(msg); cmd != nil {
			cmds = append(cmds, cmd)
		}

	case tea.KeyMsg:
		if cmd, quit := a.handleKey(msg); quit {
			return a, tea.Quit
		} else if cmd != nil {
			cmds = append(cmds, cmd)
		}
	}

	return a, tea.Batch(cmds...)
}

func (a *App) listHeight() int {
	h := a.height - chromeHeight
	if h < 1 {
		h = 1
	}
	return h
}

func (a *App) handleMouse(msg tea.MouseMsg) tea.Cmd {
	var delta int
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		delta = -3
	case tea.MouseButtonWheelDown:
		delta = 3
	default:
		return nil
	}

	if a.localMode() {
		return a.moveFocus(delta)
	}
	if a.engine.OnScroll(a.engine.Window().ScrollTop() + delta) {
		return a.requestMore()
	}
	return nil
}

func (a *App) requestMore() tea.Cmd {
	ticket, req, ok := a.engine.RequestMore()
	if !ok {
		return nil
	}
	a.loading = true
	a.recordFetch(ticket.Kind)
	return a.fetchCmd(ticket, req)
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	// Search input captures everything except escape and enter
	if a.searching {
		switch msg.String() {
		case "esc":
			a.searching = false
			a.search.Blur()
			// Abandon the pending text, keep the committed search
			a.search.SetValue(a.engine.Search())
			a.engine.SetSearchInput(a.engine.Search())
			return nil, false
		case "enter":
			a.searching = false
			a.search.Blur()
			return nil, false
		default:
			var cmd tea.Cmd
			a.search, cmd = a.search.Update(msg)
			a.engine.SetSearchInput(a.search.Value())
			return cmd, false
		}
	}

	if a.refining {
		switch msg.String() {
		case "esc":
			a.refining = false
			a.refine.Blur()
			a.refine.SetValue("")
			a.localFocus = 0
			return nil, false
		case "enter":
			a.refining = false
			a.refine.Blur()
			return nil, false
		default:
			var cmd tea.Cmd
			a.refine, cmd = a.refine.Update(msg)
			a.localFocus = 0
			return cmd, false
		}
	}

	if a.confirmDelete {
		switch msg.String() {
		case "y", "Y":
			a.confirmDelete = false
			return a.startBulk("delete"), false
		default:
			a.confirmDelete = false
			a.statusMsg = "delete cancelled"
			return nil, false
		}
	}

	switch msg.String() {
	case "ctrl+c", "q":
		a.persistUIState()
		return nil, true

	case "up", "k":
		return a.moveFocus(-1), false
	case "down", "j":
		return a.moveFocus(1), false
	case "pgup":
		return a.moveFocus(-a.engine.Window().PageRows()), false
	case "pgdown":
		return a.moveFocus(a.engine.Window().PageRows()), false
	case "home", "g":
		return a.moveFocus(-1 << 30), false
	case "end", "G":
		return a.moveFocus(1 << 30), false

	case " ", "x":
		if t, ok := a.focusedRow(); ok {
			a.engine.ToggleRow(t.Hash, !a.engine.Selection().IsSelected(t.Hash))
		}
	case "ctrl+a", "a":
		a.engine.ToggleSelectAll()
	case "esc":
		if a.localMode() {
			a.clearLocalFilters()
		} else {
			a.engine.Selection().Clear()
		}
		a.statusMsg = ""

	case "/":
		a.searching = true
		a.search.Focus()
		return textinput.Blink, false

	case "\\":
		a.refining = true
		a.refine.Focus()
		return textinput.Blink, false

	case "f":
		a.cycleSavedFilter()

	case "tab":
		a.cycleInstance()
		return a.issuePending(), false

	case "s":
		a.cycleSortField()
		return a.issuePending(), false
	case "o":
		a.toggleSortOrder()
		return a.issuePending(), false

	case "v":
		if a.view == viewTable {
			a.view = viewCards
		} else {
			a.view = viewTable
		}

	case "p":
		return a.startBulk("pause"), false
	case "r":
		return a.startBulk("resume"), false
	case "c":
		return a.startBulk("recheck"), false
	case "d":
		if a.engine.Selection().EffectiveCount() > 0 {
			a.confirmDelete = true
		}
	}

	return nil, false
}

func (a *App) moveFocus(delta int) tea.Cmd {
	if a.localMode() {
		rows := a.viewRows()
		if len(rows) == 0 {
			a.localFocus = 0
			return nil
		}
		a.localFocus = min(max(a.localFocus+delta, 0), len(rows)-1)
		return nil
	}
	if a.engine.MoveFocus(delta) {
		return a.requestMore()
	}
	return nil
}

// localMode reports whether a local filter narrows the display. Local filters
// only see loaded rows and never touch the query key, so the engine's window
// indices no longer line up and the views fall back to focus-centered
// rendering.
func (a *App) localMode() bool {
	return a.refine.Value() != "" || a.activeExpr != nil
}

// viewRows is what the views render: the loaded prefix, narrowed by the
// active expression filter and refine query.
func (a *App) viewRows() []qbt.Torrent {
	rows := a.engine.Rows()
	if a.activeExpr != nil {
		rows = a.activeExpr.Apply(rows)
	}
	if q := a.refine.Value(); q != "" {
		rows = list.Refine(rows, q)
	}
	return rows
}

// focusIndex is the focused position within viewRows
func (a *App) focusIndex() int {
	if a.localMode() {
		return a.localFocus
	}
	return a.engine.Window().Focus()
}

func (a *App) focusedRow() (qbt.Torrent, bool) {
	rows := a.viewRows()
	idx := a.focusIndex()
	if idx < 0 || idx >= len(rows) {
		return qbt.Torrent{}, false
	}
	return rows[idx], true
}

func (a *App) clearLocalFilters() {
	a.refine.SetValue("")
	a.activeExpr = nil
	a.filterIdx = -1
	a.localFocus = 0
}

// cycleSavedFilter steps through the saved expression filters: none → first →
// ... → last → none.
func (a *App) cycleSavedFilter() {
	if len(a.savedFilters) == 0 {
		a.statusMsg = "no saved filters"
		return
	}

	for next := a.filterIdx + 1; next < len(a.savedFilters); next++ {
		f := a.savedFilters[next]
		compiled, err := a.exprCache.Get(f.Expression)
		if err != nil {
			log.Debug().Err(err).Str("filter", f.Name).Msg("Skipping saved filter that does not compile")
			continue
		}
		a.filterIdx = next
		a.activeExpr = compiled
		a.localFocus = 0
		a.statusMsg = "filter: " + f.Name
		return
	}

	a.filterIdx = -1
	a.activeExpr = nil
	a.localFocus = 0
	a.statusMsg = "filter cleared"
}

func (a *App) startBulk(action string) tea.Cmd {
	req, ok := a.engine.ResolveBulkAction(action)
	if !ok {
		a.statusMsg = "nothing selected"
		return nil
	}
	a.statusMsg = fmt.Sprintf("%s: %d torrents", action, a.engine.Selection().EffectiveCount())
	return a.bulkCmd(req)
}

// cycleInstance switches to the next configured instance
func (a *App) cycleInstance() {
	if len(a.instances) < 2 {
		return
	}
	current := a.engine.InstanceID()
	for i, inst := range a.instances {
		if inst.ID == current {
			a.engine.SetInstance(a.instances[(i+1)%len(a.instances)].ID)
			return
		}
	}
	a.engine.SetInstance(a.instances[0].ID)
}

var sortFields = []string{"added_on", "name", "size", "progress", "ratio", "dlspeed", "upspeed"}

func (a *App) cycleSortField() {
	field, order := a.engine.Sort()
	for i, f := range sortFields {
		if f == field {
			a.engine.SetSort(sortFields[(i+1)%len(sortFields)], order)
			return
		}
	}
	a.engine.SetSort(sortFields[0], order)
}

func (a *App) toggleSortOrder() {
	field, order := a.engine.Sort()
	if order == "asc" {
		a.engine.SetSort(field, "desc")
	} else {
		a.engine.SetSort(field, "asc")
	}
}

func (a *App) persistUIState() {
	if a.settings == nil {
		return
	}

	field, order := a.engine.Sort()
	view := "table"
	if a.view == viewCards {
		view = "cards"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := a.settings.SetUISettings(ctx, &models.UISettings{
		LastInstanceID: a.engine.InstanceID(),
		ActiveView:     view,
		SortField:      field,
		SortOrder:      order,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to persist UI state")
	}
}

func (a *App) instanceName() string {
	id := a.engine.InstanceID()
	for _, inst := range a.instances {
		if inst.ID == id {
			return inst.Name
		}
	}
	return fmt.Sprintf("instance %d", id)
}

func (a *App) View() string {
	if a.width == 0 {
		return "loading..."
	}

	var b strings.Builder
	b.WriteString(a.renderHeader())
	b.WriteByte('\n')

	if a.view == viewCards {
		b.WriteString(a.renderCards())
	} else {
		b.WriteString(a.renderTable())
	}

	b.WriteString(a.renderSelectionBar())
	b.WriteByte('\n')
	b.WriteString(a.renderStatusBar())
	return b.String()
}

func (a *App) renderHeader() string {
	title := headerStyle.Render("qui-tui") + " " + a.instanceName()

	right := ""
	if a.filterIdx >= 0 && a.filterIdx < len(a.savedFilters) {
		right += "[" + a.savedFilters[a.filterIdx].Name + "] "
	}
	switch {
	case a.searching:
		right += a.search.View()
	case a.refining:
		right += a.refine.View()
	default:
		if s := a.engine.Search(); s != "" {
			right += "/" + s
		}
		if r := a.refine.Value(); r != "" {
			right += " \\" + r
		}
	}
	if a.loading {
		right += " " + a.spin.View()
	}

	gap := a.width - lipgloss.Width(title) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return title + strings.Repeat(" ", gap) + right
}

func (a *App) renderSelectionBar() string {
	sel := a.engine.Selection()
	count := sel.EffectiveCount()
	if count == 0 {
		return ""
	}

	if a.confirmDelete {
		return errorStyle.Render(fmt.Sprintf("delete %d torrents? (y/N)", count))
	}

	msg := fmt.Sprintf("%d selected", count)
	if sel.IsAllSelected() {
		msg = fmt.Sprintf("all %d selected", count)
		if excluded := len(sel.ExcludedHashes()); excluded > 0 {
			msg += fmt.Sprintf(" (%d excluded)", excluded)
		}
	}
	return selectionBarStyle.Render(msg + "  p:pause r:resume c:recheck d:delete esc:clear")
}

func (a *App) renderStatusBar() string {
	if err := a.engine.Err(); err != nil {
		return errorStyle.Render(truncate("error: "+err.Error(), a.width))
	}

	loaded := len(a.engine.Rows())
	total := a.engine.Loader().Total()
	field, order := a.engine.Sort()

	status := fmt.Sprintf("%d of %d  sort:%s/%s", loaded, total, field, order)
	if a.localMode() {
		status = fmt.Sprintf("%d of %d loaded  sort:%s/%s", len(a.viewRows()), loaded, field, order)
	}
	if stats := a.engine.Stats(); stats != nil {
		status += fmt.Sprintf("  ↓%s ↑%s", formatSpeed(int64(stats.TotalDownloadSpeed)), formatSpeed(int64(stats.TotalUploadSpeed)))
	}
	if a.statusMsg != "" {
		status += "  " + a.statusMsg
	}
	return statusBarStyle.Render(truncate(status, a.width))
}

