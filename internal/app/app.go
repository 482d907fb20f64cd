package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/rs/zerolog/log"

	"github.com/rebeliceyang/parqview/internal/config"
	"github.com/rebeliceyang/parqview/internal/debounce"
	"github.com/rebeliceyang/parqview/internal/models"
	"github.com/rebeliceyang/parqview/internal/session"
	"github.com/rebeliceyang/parqview/internal/source"
	"github.com/rebeliceyang/parqview/internal/ui/components"
	"github.com/rebeliceyang/parqview/internal/ui/help"
	"github.com/rebeliceyang/parqview/internal/ui/theme"
	"github.com/rebeliceyang/parqview/internal/views"
)

// loadMoreMargin is how close to the last loaded row the cursor gets before
// the next chunk is requested
const loadMoreMargin = 10

// Deps are the collaborators of the app. Views may be nil.
type Deps struct {
	Config  *config.Config
	Session *session.Session
	Source  source.Source
	Views   *views.Manager
}

// App is the main application model
type App struct {
	state  models.AppState
	config *config.Config
	theme  theme.Theme
	ctx    context.Context

	session   *session.Session
	source    source.Source
	views     *views.Manager
	debouncer *debounce.Debouncer
	send      func(tea.Msg)

	snap     session.Snapshot
	info     *source.Info
	progress *session.Progress
	pending  map[string]int // in-flight transitions per op

	cancelLoadAll context.CancelFunc

	tablePanel components.Panel
	tableView  *components.TableView

	filterBuilder *components.FilterBuilder
	searchInput   *components.SearchInput
	preview       *components.PreviewPane
	sqlView       *components.SQLView
	schemaView    *components.SchemaView
	confirm       *components.ConfirmDialog
	viewsDialog   *components.ViewsDialog
	showViews     bool

	showError    bool
	errorOverlay *components.ErrorOverlay
}

// New creates a new App instance
func New(deps Deps) *App {
	cfg := deps.Config
	if cfg == nil {
		cfg = config.GetDefaults()
	}
	th := theme.GetTheme(cfg.UI.Theme)

	tv := components.NewTableView(th)
	tv.MaxHeaderLength = cfg.Data.MaxHeaderLength
	tv.MaxCellWidth = cfg.Data.MaxCellDisplayLength

	a := &App{
		state:         models.NewAppState(),
		config:        cfg,
		theme:         th,
		ctx:           context.Background(),
		session:       deps.Session,
		source:        deps.Source,
		views:         deps.Views,
		debouncer:     debounce.New(cfg.FilterDebounce()),
		pending:       map[string]int{},
		tableView:     tv,
		filterBuilder: components.NewFilterBuilder(th),
		searchInput:   components.NewSearchInput(th),
		preview:       components.NewPreviewPane(th),
		sqlView:       components.NewSQLView(th),
		schemaView:    components.NewSchemaView(th),
		confirm:       components.NewConfirmDialog(th),
		viewsDialog:   components.NewViewsDialog(th),
		errorOverlay:  components.NewErrorOverlay(th),
		tablePanel: components.Panel{
			Title: deps.Source.Name,
			Style: lipgloss.NewStyle().BorderForeground(th.BorderFocused),
		},
	}
	a.snap = a.session.Snapshot()
	a.updatePanelDimensions()
	return a
}

// SetSender gives the app a way to deliver messages from outside the event
// loop, normally tea.Program.Send. Debounced filters and load-all progress
// depend on it.
func (a *App) SetSender(send func(tea.Msg)) {
	a.send = send
}

// Close stops pending debounced work
func (a *App) Close() {
	a.debouncer.Stop()
	if a.cancelLoadAll != nil {
		a.cancelLoadAll()
	}
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	return a.loadSource()
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.state.Width = msg.Width
		a.state.Height = msg.Height
		a.updatePanelDimensions()
		return a, nil

	case snapshotMsg:
		return a, a.handleSnapshot(msg)

	case inspectedMsg:
		a.info = &msg.info
		return a, nil

	case progressMsg:
		p := session.Progress(msg)
		a.progress = &p
		return a, nil

	case runFilterMsg:
		return a, a.filterColumn(msg.column, msg.update)

	case statusMsg:
		a.state.Status = string(msg)
		return a, nil

	case components.FilterChangedMsg:
		if msg.Immediate {
			a.cancelPendingFilters(msg.Column)
			return a, a.filterColumn(msg.Column, msg.Update)
		}
		a.scheduleFilter(msg.Column, msg.Update)
		return a, nil

	case components.CloseFilterBuilderMsg:
		a.state.ViewMode = models.NormalMode
		return a, nil

	case components.CloseSchemaViewMsg:
		a.state.ViewMode = models.NormalMode
		return a, nil

	case components.JumpToColumnMsg:
		a.tableView.JumpToColumn(msg.Index)
		a.state.ViewMode = models.NormalMode
		return a, nil

	case components.CloseSearchMsg:
		a.state.ViewMode = models.NormalMode
		return a, nil

	case components.CloseSQLViewMsg:
		a.state.ViewMode = models.NormalMode
		return a, nil

	case components.ConfirmMsg:
		a.state.ViewMode = models.NormalMode
		if msg.Confirmed {
			return a, a.loadAll(true)
		}
		return a, nil

	case components.ApplyViewMsg:
		a.showViews = false
		if a.views != nil {
			if err := a.views.MarkUsed(msg.View.ID); err != nil {
				log.Warn().Err(err).Msg("failed to record view usage")
			}
		}
		a.state.Status = fmt.Sprintf("Applied view %q", msg.View.Name)
		return a, a.applyView(msg.View)

	case components.SaveViewMsg:
		return a, a.saveView(msg.Name)

	case components.DeleteViewMsg:
		if a.views != nil {
			if err := a.views.Delete(msg.ID); err != nil {
				a.state.Status = fmt.Sprintf("Delete failed: %v", err)
			}
			a.viewsDialog.SetViews(a.views.ForSource(a.source.Ref))
		}
		return a, nil

	case components.CloseViewsDialogMsg:
		a.showViews = false
		return a, nil

	case tea.MouseMsg:
		if a.state.ViewMode != models.NormalMode || a.showError || a.showViews {
			return a, nil
		}
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			a.tableView.MoveSelection(-3)
		case tea.MouseButtonWheelDown:
			a.tableView.MoveSelection(3)
			return a, a.maybeLoadMore()
		}
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)
	}
	return a, nil
}

// handleSnapshot folds a transition result into the view
func (a *App) handleSnapshot(msg snapshotMsg) tea.Cmd {
	if a.pending[msg.op]--; a.pending[msg.op] <= 0 {
		delete(a.pending, msg.op)
	}
	if msg.op == "page" {
		a.progress = nil
		a.cancelLoadAll = nil
	}
	if errors.Is(msg.err, session.ErrStale) {
		log.Debug().Str("op", msg.op).Msg("discarding stale result")
		return nil
	}
	if msg.snap.Generation < a.snap.Generation {
		log.Debug().Str("op", msg.op).Uint64("generation", msg.snap.Generation).Msg("discarding out of order result")
		return nil
	}

	var confirm *session.ConfirmationError
	if errors.As(msg.err, &confirm) {
		a.confirm.Ask("Load all rows?",
			fmt.Sprintf("%d more rows match. Loading them all may take a while and use a lot of memory.", confirm.Remaining))
		a.state.ViewMode = models.ConfirmMode
		return nil
	}

	if msg.err != nil && msg.snap.State != session.Failed {
		if text := describeErr(msg.err); text != "" {
			a.state.Status = text
		}
		if !errors.Is(msg.err, context.Canceled) {
			return nil
		}
	}

	prevCols := a.snap.Columns
	a.snap = msg.snap
	a.tablePanel.Title = a.title()

	if msg.appended && sameColumns(prevCols, msg.snap.Columns) {
		a.tableView.AppendRows(msg.snap.Rows)
	} else {
		a.tableView.SetData(msg.snap.Columns, msg.snap.Rows, msg.snap.Sort, msg.snap.Filters)
	}

	if msg.snap.State == session.Failed && msg.snap.Err != nil {
		a.errorOverlay.SetError(*msg.snap.Err)
		a.showError = true
		return nil
	}
	a.showError = false

	if msg.snap.TotalColumns > len(msg.snap.Columns) && msg.op == "load" {
		a.state.Status = fmt.Sprintf("Showing the first %d of %d columns", len(msg.snap.Columns), msg.snap.TotalColumns)
	}
	return nil
}

func sameColumns(a, b []models.Column) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (a *App) saveView(name string) tea.Cmd {
	if a.views == nil {
		return nil
	}
	v, err := a.views.Add(name, a.source.Ref, a.snap.Sort, a.snap.Filters)
	if err != nil {
		a.state.Status = fmt.Sprintf("Save failed: %v", err)
		return nil
	}
	a.state.Status = fmt.Sprintf("Saved view %q", v.Name)
	a.viewsDialog.SetViews(a.views.ForSource(a.source.Ref))
	return nil
}

func (a *App) maybeLoadMore() tea.Cmd {
	if a.snap.CanLoadMore && a.tableView.NearEnd(loadMoreMargin) {
		return a.loadMore()
	}
	return nil
}

func (a *App) ready() bool {
	return a.snap.State == session.Ready || a.snap.State == session.Loading
}

// handleKey routes a key to the active overlay or to the table
func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	a.state.Status = ""

	if key == "ctrl+c" {
		return a, tea.Quit
	}

	if a.showError {
		switch key {
		case "esc", "enter":
			a.showError = false
		case "r":
			if a.errorOverlay.Display().Retriable() || a.snap.State == session.Failed {
				a.showError = false
				return a, a.retry()
			}
		case "q":
			return a, tea.Quit
		}
		return a, nil
	}

	if a.showViews {
		var cmd tea.Cmd
		a.viewsDialog, cmd = a.viewsDialog.Update(msg)
		return a, cmd
	}

	switch a.state.ViewMode {
	case models.HelpMode:
		if key == "?" || key == "esc" || key == "q" {
			a.state.ViewMode = models.NormalMode
		}
		return a, nil
	case models.FilterMode:
		var cmd tea.Cmd
		a.filterBuilder, cmd = a.filterBuilder.Update(msg)
		return a, cmd
	case models.SQLMode:
		if key == "y" {
			if err := a.sqlView.Copy(); err != nil {
				a.state.Status = fmt.Sprintf("Copy failed: %v", err)
			} else {
				a.state.Status = "Copied query"
			}
			return a, nil
		}
		var cmd tea.Cmd
		a.sqlView, cmd = a.sqlView.Update(msg)
		return a, cmd
	case models.SchemaMode:
		var cmd tea.Cmd
		a.schemaView, cmd = a.schemaView.Update(msg)
		return a, cmd
	case models.ConfirmMode:
		var cmd tea.Cmd
		a.confirm, cmd = a.confirm.Update(msg)
		return a, cmd
	case models.DetailMode:
		return a, a.handleDetailKey(key)
	}

	if a.searchInput.Visible {
		var cmd tea.Cmd
		a.searchInput, cmd = a.searchInput.Update(msg)
		return a, cmd
	}

	return a, a.handleNormalKey(key)
}

func (a *App) handleDetailKey(key string) tea.Cmd {
	switch key {
	case "esc", "q", "enter":
		a.preview.Visible = false
		a.state.ViewMode = models.NormalMode
	case "tab", "l", "right":
		a.preview.NextField(1)
	case "shift+tab", "h", "left":
		a.preview.NextField(-1)
	case "j", "down":
		a.preview.ScrollDown()
	case "k", "up":
		a.preview.ScrollUp()
	case "y":
		if err := a.preview.CopyValue(); err != nil {
			a.state.Status = fmt.Sprintf("Copy failed: %v", err)
		} else if col, ok := a.preview.FocusedColumn(); ok {
			a.state.Status = fmt.Sprintf("Copied %s", col.Name)
		}
	case "Y":
		if err := a.preview.CopyRow(); err != nil {
			a.state.Status = fmt.Sprintf("Copy failed: %v", err)
		} else {
			a.state.Status = "Copied row as JSON"
		}
	}
	return nil
}

func (a *App) handleNormalKey(key string) tea.Cmd {
	switch key {
	case "q":
		return tea.Quit
	case "?":
		a.state.ViewMode = models.HelpMode
		return nil
	case "esc":
		if a.cancelLoadAll != nil {
			a.cancelLoadAll()
		}
		return nil
	case "r":
		if a.snap.State == session.Failed || a.snap.State == session.Unloaded {
			return a.retry()
		}
		return nil
	case "S":
		a.sqlView.SetSQL(a.snap.LastSQL)
		a.sqlView.Visible = true
		a.state.ViewMode = models.SQLMode
		return nil
	}

	if !a.ready() {
		return nil
	}

	switch key {
	case "up", "k":
		a.tableView.MoveSelection(-1)
	case "down", "j":
		a.tableView.MoveSelection(1)
		return a.maybeLoadMore()
	case "left", "h":
		a.tableView.MoveColumn(-1)
	case "right", "l":
		a.tableView.MoveColumn(1)
	case "ctrl+u", "pgup":
		a.tableView.PageUp()
	case "ctrl+d", "pgdown":
		a.tableView.PageDown()
		return a.maybeLoadMore()
	case "g", "home":
		a.tableView.Top()
	case "G", "end":
		a.tableView.Bottom()
		return a.maybeLoadMore()
	case "0":
		a.tableView.JumpToColumn(0)
	case "$":
		a.tableView.JumpToColumn(len(a.tableView.Columns) - 1)

	case "s":
		if col, ok := a.tableView.CurrentColumn(); ok {
			return a.sortColumn(col.Name)
		}
	case "f":
		if col, ok := a.tableView.CurrentColumn(); ok {
			a.filterBuilder.Open(col, a.snap.Meta[col.Name], a.snap.Filters[col.Name])
			a.state.ViewMode = models.FilterMode
		}
	case "F", "ctrl+r":
		for col := range a.snap.Filters {
			a.cancelPendingFilters(col)
		}
		return a.clearFilters()
	case "/":
		a.searchInput.Open(a.snap.Columns, a.snap.Meta)
	case "i":
		a.schemaView.SetSchema(a.title(), a.snap.Columns, a.snap.TotalColumns, a.snap.Meta, a.info)
		a.schemaView.SwitchTab(0)
		a.state.ViewMode = models.SchemaMode
	case "enter":
		a.openDetail()
	case "n":
		return a.loadMore()
	case "A":
		return a.loadAll(!a.config.UI.ConfirmLoadAll)
	case "v":
		if a.views == nil {
			a.state.Status = "Saved views are unavailable"
			return nil
		}
		a.viewsDialog.SetViews(a.views.ForSource(a.source.Ref))
		a.showViews = true
	case "e":
		return a.exportRows()
	}
	return nil
}

func (a *App) openDetail() {
	row, ok := a.tableView.CurrentRow()
	if !ok {
		return
	}
	title := fmt.Sprintf("%d of %d", a.tableView.SelectedRow+1, a.snap.Filtered)
	a.preview.SetRow(title, a.snap.Columns, row, a.tableView.SelectedCol)
	a.preview.Visible = true
	a.state.ViewMode = models.DetailMode
}

// title is the table panel title: file name and counts
func (a *App) title() string {
	name := a.source.Name
	if name == "" {
		name = a.snap.Source
	}
	return name
}

// counts summarizes loaded, matching and total rows
func (a *App) counts() string {
	s := a.snap
	switch s.State {
	case session.Unloaded, session.SchemaLoading, session.CountingRows, session.AnalyzingColumns, session.Failed:
		return ""
	}

	var parts []string
	if len(s.Filters.Active(s.Meta)) > 0 {
		parts = append(parts, fmt.Sprintf("%d of %d rows (%d matching)", len(s.Rows), s.Total, s.Filtered))
	} else {
		parts = append(parts, fmt.Sprintf("%d of %d rows", len(s.Rows), s.Total))
	}
	if s.TotalColumns > len(s.Columns) {
		parts = append(parts, fmt.Sprintf("%d/%d cols", len(s.Columns), s.TotalColumns))
	} else {
		parts = append(parts, fmt.Sprintf("%d cols", len(s.Columns)))
	}
	if a.info != nil {
		parts = append(parts, fmt.Sprintf("%d row groups", a.info.RowGroups))
	}
	return strings.Join(parts, " │ ")
}

// View implements tea.Model
func (a *App) View() string {
	if a.showError {
		a.errorOverlay.Width = min(70, max(a.state.Width-4, 30))
		return lipgloss.Place(a.state.Width, a.state.Height, lipgloss.Center, lipgloss.Center, a.errorOverlay.View())
	}

	if a.state.ViewMode == models.HelpMode {
		return help.Render(a.state.Width, a.state.Height, a.theme)
	}

	if overlay := a.overlay(); overlay != "" {
		return lipgloss.Place(a.state.Width, a.state.Height, lipgloss.Center, lipgloss.Center, overlay)
	}

	return a.renderNormalView()
}

// overlay renders the active dialog, if any
func (a *App) overlay() string {
	switch {
	case a.showViews:
		a.viewsDialog.Width = min(70, max(a.state.Width-6, 30))
		a.viewsDialog.Height = min(24, max(a.state.Height-4, 10))
		return a.viewsDialog.View()
	case a.state.ViewMode == models.FilterMode:
		a.filterBuilder.Width = min(60, max(a.state.Width-6, 30))
		return a.filterBuilder.View()
	case a.state.ViewMode == models.ConfirmMode:
		a.confirm.Width = min(60, max(a.state.Width-6, 30))
		return a.confirm.View()
	case a.state.ViewMode == models.SQLMode:
		a.sqlView.Width = max(a.state.Width-4, 30)
		a.sqlView.Height = max(a.state.Height-4, 8)
		return a.sqlView.View()
	case a.state.ViewMode == models.SchemaMode:
		a.schemaView.Width = max(a.state.Width-4, 30)
		a.schemaView.Height = max(a.state.Height-4, 8)
		return lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(a.theme.BorderFocused).
			Render(a.schemaView.View())
	case a.state.ViewMode == models.DetailMode:
		a.preview.Width = max(a.state.Width-4, 30)
		a.preview.Height = max(a.state.Height-2, 8)
		return a.preview.View()
	}
	return ""
}

// stateMessage is the body shown instead of the table outside Ready
func (a *App) stateMessage() string {
	switch a.snap.State {
	case session.Unloaded:
		return "No file loaded"
	case session.SchemaLoading:
		return "Reading schema…"
	case session.CountingRows:
		return "Counting rows…"
	case session.AnalyzingColumns:
		return "Analyzing columns…"
	case session.EmptySchema:
		return "This file has no columns"
	case session.EmptyFile:
		return "This file has no rows"
	case session.Failed:
		return "Load failed. Press r to retry."
	}
	return ""
}

func (a *App) renderNormalView() string {
	topBar := lipgloss.NewStyle().
		Width(a.state.Width).
		Background(a.theme.BorderFocused).
		Foreground(lipgloss.Color("230")).
		Padding(0, 2).
		Render(a.formatStatusBar("parqview", a.counts()))

	a.updatePanelDimensions()
	a.tablePanel.Title = a.title()
	innerW, innerH := a.tablePanel.InnerSize()
	if msg := a.stateMessage(); msg != "" {
		a.tablePanel.Content = lipgloss.Place(innerW, innerH, lipgloss.Center, lipgloss.Center,
			lipgloss.NewStyle().Foreground(a.theme.Metadata).Render(msg))
	} else {
		a.tableView.Width = innerW
		a.tableView.Height = innerH
		a.tablePanel.Content = a.tableView.View()
	}

	sections := []string{topBar}
	if a.searchInput.Visible {
		a.searchInput.Width = max(a.state.Width-4, 20)
		sections = append(sections, a.searchInput.View())
	}
	sections = append(sections, a.tablePanel.View(), a.bottomBar())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (a *App) bottomBar() string {
	left := "[s] sort [f] filter [/] column [enter] row [v] views [?] help [q] quit"
	switch {
	case a.state.Status != "":
		left = a.state.Status
	case a.progress != nil:
		left = fmt.Sprintf("Loading all rows… %d of %d (esc to stop)", a.progress.Loaded, a.progress.Total)
	case len(a.pending) > 0:
		left = "Loading…"
	}

	right := ""
	if a.snap.Sort.IsSorted() {
		right = fmt.Sprintf("sorted by %s %s", a.snap.Sort.Column, strings.ToLower(string(a.snap.Sort.Direction)))
	}
	if active := a.snap.Filters.Active(a.snap.Meta); len(active) > 0 {
		if right != "" {
			right += " │ "
		}
		right += fmt.Sprintf("%d filter(s)", len(active))
	}

	return lipgloss.NewStyle().
		Width(a.state.Width).
		Background(a.theme.Selection).
		Foreground(a.theme.Foreground).
		Padding(0, 2).
		Render(a.formatStatusBar(left, right))
}

// updatePanelDimensions sizes the table panel to the window
func (a *App) updatePanelDimensions() {
	if a.state.Width <= 0 || a.state.Height <= 0 {
		return
	}

	// top bar and bottom bar
	contentHeight := a.state.Height - 2
	if a.searchInput.Visible {
		contentHeight -= 4
	}
	if contentHeight < 5 {
		contentHeight = 5
	}

	a.tablePanel.Width = a.state.Width
	a.tablePanel.Height = contentHeight
}

// formatStatusBar formats a status bar with left and right aligned content
func (a *App) formatStatusBar(left, right string) string {
	// Account for padding (2 chars on each side = 4 total)
	availableWidth := a.state.Width - 4
	if availableWidth < 0 {
		availableWidth = 0
	}

	leftLen := runewidth.StringWidth(left)
	rightLen := runewidth.StringWidth(right)

	if leftLen+rightLen > availableWidth {
		if availableWidth > rightLen+1 {
			return runewidth.Truncate(left, availableWidth-rightLen-1, "…") + " " + right
		}
		return runewidth.Truncate(left, availableWidth, "…")
	}

	return left + strings.Repeat(" ", availableWidth-leftLen-rightLen) + right
}
