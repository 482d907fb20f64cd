package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"

	"github.com/rebeliceyang/parqview/internal/export"
	"github.com/rebeliceyang/parqview/internal/models"
	"github.com/rebeliceyang/parqview/internal/session"
	"github.com/rebeliceyang/parqview/internal/source"
)

// snapshotMsg carries the result of a session transition
type snapshotMsg struct {
	op   string
	snap session.Snapshot
	err  error

	// appended is set for LoadMore and LoadAll, whose rows extend the table
	appended bool
}

// inspectedMsg reports the footer of a local file before the engine loads it
type inspectedMsg struct {
	info source.Info
}

// progressMsg reports load-all progress
type progressMsg session.Progress

// runFilterMsg is sent when a debounced filter edit is due
type runFilterMsg struct {
	column string
	update models.FilterUpdate
}

// statusMsg sets the status line
type statusMsg string

func (a *App) transition(op string, appended bool, fn func(context.Context) (session.Snapshot, error)) tea.Cmd {
	a.pending[op]++
	ctx := a.ctx
	return func() tea.Msg {
		snap, err := fn(ctx)
		return snapshotMsg{op: op, snap: snap, err: err, appended: appended}
	}
}

// loadSource inspects a local file and runs the initial load
func (a *App) loadSource() tea.Cmd {
	src := a.source
	ctx := a.ctx
	s := a.session
	a.pending["load"]++

	inspect := func() tea.Msg {
		if src.Kind != source.Local || src.IsGlob() {
			return nil
		}
		info, err := source.Inspect(src.Ref)
		if err != nil {
			// the engine reports the authoritative error on load
			log.Debug().Err(err).Str("source", src.Name).Msg("footer inspection failed")
			return nil
		}
		return inspectedMsg{info: info}
	}

	load := func() tea.Msg {
		snap, err := s.Load(ctx, src.Ref)
		return snapshotMsg{op: "load", snap: snap, err: err}
	}

	return tea.Batch(inspect, load)
}

func (a *App) retry() tea.Cmd {
	return a.transition("load", false, a.session.Retry)
}

func (a *App) sortColumn(column string) tea.Cmd {
	return a.transition("sort", false, func(ctx context.Context) (session.Snapshot, error) {
		return a.session.Sort(ctx, column)
	})
}

func (a *App) filterColumn(column string, update models.FilterUpdate) tea.Cmd {
	return a.transition("filter", false, func(ctx context.Context) (session.Snapshot, error) {
		return a.session.Filter(ctx, column, update)
	})
}

func (a *App) clearFilters() tea.Cmd {
	return a.transition("filter", false, a.session.ClearFilters)
}

func (a *App) applyView(v models.View) tea.Cmd {
	return a.transition("view", false, func(ctx context.Context) (session.Snapshot, error) {
		return a.session.Apply(ctx, v.Sort, v.Filters)
	})
}

func (a *App) loadMore() tea.Cmd {
	if a.pending["page"] > 0 {
		return nil
	}
	return a.transition("page", true, a.session.LoadMore)
}

// loadAll runs a load-all that the user can cancel with esc. Progress is
// delivered through the program's send function.
func (a *App) loadAll(confirmed bool) tea.Cmd {
	if a.pending["page"] > 0 {
		return nil
	}
	ctx, cancel := context.WithCancel(a.ctx)
	a.cancelLoadAll = cancel
	send := a.send
	opts := session.LoadAllOptions{
		Confirmed: confirmed,
		OnProgress: func(p session.Progress) {
			if send != nil {
				send(progressMsg(p))
			}
		},
	}
	s := a.session
	a.pending["page"]++
	return func() tea.Msg {
		defer cancel()
		snap, err := s.LoadAll(ctx, opts)
		return snapshotMsg{op: "page", snap: snap, err: err, appended: true}
	}
}

// scheduleFilter debounces a typed filter edit per column and bound
func (a *App) scheduleFilter(column string, update models.FilterUpdate) {
	send := a.send
	a.debouncer.Schedule(filterKey(column, update.Field), func() {
		if send != nil {
			send(runFilterMsg{column: column, update: update})
		}
	})
}

func filterKey(column string, field models.FilterField) string {
	return column + "\x00" + string(field)
}

func (a *App) cancelPendingFilters(column string) {
	for _, f := range []models.FilterField{models.FieldValue, models.FieldMin, models.FieldMax} {
		a.debouncer.Cancel(filterKey(column, f))
	}
}

// exportPath names the CSV written next to the working directory
func exportPath(src source.Source) string {
	base := filepath.Base(src.Ref)
	if src.Kind == source.Buffer {
		base = "stdin"
	}
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || strings.ContainsAny(base, "*?[") {
		base = "parqview-export"
	}
	return base + ".csv"
}

func (a *App) exportRows() tea.Cmd {
	snap := a.snap
	path := exportPath(a.source)
	title := a.source.Name
	return func() tea.Msg {
		if len(snap.Columns) == 0 {
			return statusMsg("Nothing to export")
		}
		err := export.ToFile(path, export.CSV, export.Table{
			Title:   title,
			Columns: snap.Columns,
			Rows:    snap.Rows,
		})
		if err != nil {
			log.Error().Err(err).Str("path", path).Msg("export failed")
			return statusMsg(fmt.Sprintf("Export failed: %v", err))
		}
		log.Info().Str("path", path).Int("rows", len(snap.Rows)).Msg("exported rows")
		return statusMsg(fmt.Sprintf("Exported %d rows to %s", len(snap.Rows), path))
	}
}

// describeErr turns a non-failure transition error into a status message.
// It returns "" for errors the session already recorded as a failure.
func describeErr(err error) string {
	switch {
	case errors.Is(err, session.ErrBusy):
		return "A page is already loading"
	case errors.Is(err, session.ErrExhausted):
		return "All matching rows are loaded"
	case errors.Is(err, session.ErrNotReady):
		return "No data loaded yet"
	case errors.Is(err, session.ErrNoSource):
		return "No file to load"
	case errors.Is(err, session.ErrUnknownColumn):
		return err.Error()
	case errors.Is(err, context.Canceled):
		return "Load all cancelled"
	}
	return ""
}
