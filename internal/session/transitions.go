package session

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/rebeliceyang/parqview/internal/db/metadata"
	"github.com/rebeliceyang/parqview/internal/db/query"
	"github.com/rebeliceyang/parqview/internal/models"
)

// plan is everything a page fetch needs, captured under the lock
type plan struct {
	columns []string
	clauses []string
	sort    models.SortSpec
	recount bool
}

func (s *Session) planLocked() plan {
	return plan{
		columns: models.ColumnNames(s.columns),
		clauses: s.builder.BuildClauses(s.filters, s.meta),
		sort:    s.sort,
		recount: len(s.filters.Active(s.meta)) > 0 && !s.filteredValid,
	}
}

func (s *Session) fetch(ctx context.Context, source string, p plan, offset int64, limit int) ([]models.Row, string, error) {
	req := query.PageRequest{
		Source:  source,
		Columns: p.columns,
		Clauses: p.clauses,
		Sort:    p.sort,
		Limit:   limit,
		Offset:  offset,
	}
	rows, err := metadata.FetchPage(ctx, s.exec, req)
	return rows, query.PageSQL(req), err
}

// Load replaces the session with a fresh one for source: schema, row count,
// column analysis and the first page, in that order. Empty schemas and empty
// files stop early in their own terminal state.
func (s *Session) Load(ctx context.Context, source string) (Snapshot, error) {
	if source == "" {
		return s.Snapshot(), ErrNoSource
	}

	s.mu.Lock()
	s.id = newSessionID()
	s.source = source
	s.columns = nil
	s.totalColumns = 0
	s.meta = nil
	s.filters = models.Filters{}
	s.sort = models.SortSpec{}
	s.loaded = false
	s.offset = 0
	s.total = 0
	s.filtered = 0
	s.filteredValid = false
	s.exhausted = false
	s.rows = nil
	s.lastSQL = ""
	t := s.beginLocked(SchemaLoading)
	s.mu.Unlock()

	log.Info().Str("session", t.id).Str("source", source).Msg("loading source")
	return s.load(ctx, t)
}

// Retry loads the current source again
func (s *Session) Retry(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	source := s.source
	s.mu.Unlock()

	if source == "" {
		return s.Snapshot(), ErrNoSource
	}
	return s.Load(ctx, source)
}

func (s *Session) load(ctx context.Context, t ticket) (Snapshot, error) {
	ctx, cancel := s.withBudget(ctx, t)
	defer cancel()

	if err := s.prepare(ctx, t.source); err != nil {
		return s.fail(t, err)
	}

	cols, totalCols, err := metadata.ReadSchema(ctx, s.exec, t.source, s.opts.MaxColumns)
	if err != nil {
		return s.fail(t, err)
	}
	snap, err := s.apply(t, func() {
		s.columns = cols
		s.totalColumns = totalCols
		if len(cols) == 0 {
			s.setStateLocked(EmptySchema)
			return
		}
		if totalCols > len(cols) {
			log.Info().Int("shown", len(cols)).Int("total", totalCols).Msg("column list capped")
		}
		s.setStateLocked(CountingRows)
	})
	if err != nil || snap.State == EmptySchema {
		return snap, err
	}

	total, err := metadata.CountRows(ctx, s.exec, t.source)
	if err != nil {
		return s.fail(t, err)
	}
	snap, err = s.apply(t, func() {
		s.total = total
		s.filtered = total
		s.filteredValid = true
		if total == 0 {
			s.setStateLocked(EmptyFile)
			return
		}
		s.setStateLocked(AnalyzingColumns)
	})
	if err != nil || snap.State == EmptyFile {
		return snap, err
	}

	meta, err := metadata.AnalyzeColumns(ctx, s.exec, t.source, cols, s.opts.CategoricalThreshold)
	if err != nil {
		return s.fail(t, err)
	}
	if _, err := s.apply(t, func() {
		s.meta = meta
		s.setStateLocked(Loading)
	}); err != nil {
		return s.Snapshot(), err
	}

	limit := s.opts.ChunkSize
	rows, sql, err := s.fetch(ctx, t.source, plan{columns: models.ColumnNames(cols)}, 0, limit)
	if err != nil {
		return s.fail(t, err)
	}
	return s.apply(t, func() {
		s.rows = rows
		s.offset = int64(len(rows))
		s.exhausted = len(rows) < limit
		s.lastSQL = sql
		s.loaded = true
		s.setStateLocked(Ready)
	})
}

// refresh recounts if the plan asks for it, then replaces the loaded rows
// with page 0
func (s *Session) refresh(ctx context.Context, t ticket, p plan) (Snapshot, error) {
	ctx, cancel := s.withBudget(ctx, t)
	defer cancel()

	var filtered int64
	if p.recount {
		n, err := metadata.CountFiltered(ctx, s.exec, t.source, p.clauses)
		if err != nil {
			return s.fail(t, err)
		}
		filtered = n
	}

	limit := s.opts.ChunkSize
	rows, sql, err := s.fetch(ctx, t.source, p, 0, limit)
	if err != nil {
		return s.fail(t, err)
	}

	return s.apply(t, func() {
		if p.recount {
			s.filtered = filtered
			s.filteredValid = true
		}
		s.rows = rows
		s.offset = int64(len(rows))
		s.exhausted = len(rows) < limit
		s.lastSQL = sql
		s.setStateLocked(Ready)
	})
}

// startLocked validates that data is loaded and begins a refresh transition
func (s *Session) startLocked() (ticket, plan, error) {
	if !s.loaded {
		return ticket{}, plan{}, ErrNotReady
	}
	t := s.beginLocked(Loading)
	s.offset = 0
	return t, s.planLocked(), nil
}

func (s *Session) hasColumnLocked(column string) bool {
	_, ok := models.FindColumn(s.columns, column)
	return ok
}

// Sort toggles ordering on column and reloads page 0. The filtered count
// does not change with ordering and is reused when valid.
func (s *Session) Sort(ctx context.Context, column string) (Snapshot, error) {
	s.mu.Lock()
	if s.loaded && !s.hasColumnLocked(column) {
		s.mu.Unlock()
		return s.Snapshot(), fmt.Errorf("%w: %s", ErrUnknownColumn, column)
	}
	prev := s.sort
	s.sort = s.sort.Toggle(column)
	t, p, err := s.startLocked()
	if err != nil {
		s.sort = prev
		s.mu.Unlock()
		return s.Snapshot(), err
	}
	s.mu.Unlock()

	return s.refresh(ctx, t, p)
}

// Filter merges update into the filter for column, recounts the matching
// rows and reloads page 0
func (s *Session) Filter(ctx context.Context, column string, update models.FilterUpdate) (Snapshot, error) {
	s.mu.Lock()
	if !s.loaded {
		s.mu.Unlock()
		return s.Snapshot(), ErrNotReady
	}
	if !s.hasColumnLocked(column) {
		s.mu.Unlock()
		return s.Snapshot(), fmt.Errorf("%w: %s", ErrUnknownColumn, column)
	}

	next := s.filters.Clone()
	next.Apply(column, s.kindLocked(column), update)
	s.filters = next
	s.filteredValid = false

	t, p, _ := s.startLocked()
	s.mu.Unlock()

	return s.refresh(ctx, t, p)
}

// ClearFilters drops every filter and reloads page 0
func (s *Session) ClearFilters(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	if !s.loaded {
		s.mu.Unlock()
		return s.Snapshot(), ErrNotReady
	}
	s.filters = models.Filters{}
	s.filteredValid = false

	t, p, _ := s.startLocked()
	s.mu.Unlock()

	return s.refresh(ctx, t, p)
}

// Apply replaces both sort and filters at once, as when opening a saved
// view. Filters on columns missing from the schema are dropped.
func (s *Session) Apply(ctx context.Context, sort models.SortSpec, filters models.Filters) (Snapshot, error) {
	s.mu.Lock()
	if !s.loaded {
		s.mu.Unlock()
		return s.Snapshot(), ErrNotReady
	}
	if sort.Column != "" && !s.hasColumnLocked(sort.Column) {
		s.mu.Unlock()
		return s.Snapshot(), fmt.Errorf("%w: %s", ErrUnknownColumn, sort.Column)
	}

	next := models.Filters{}
	for name, v := range filters {
		if !s.hasColumnLocked(name) {
			log.Warn().Str("column", name).Msg("dropping filter on unknown column")
			continue
		}
		if !v.IsEmpty(s.kindLocked(name)) {
			next[name] = v
		}
	}
	s.sort = sort
	s.filters = next
	s.filteredValid = false

	t, p, _ := s.startLocked()
	s.mu.Unlock()

	return s.refresh(ctx, t, p)
}

func (s *Session) kindLocked(column string) models.FilterKind {
	if m, ok := s.meta[column]; ok && m.Kind != "" {
		return m.Kind
	}
	return models.KindText
}
