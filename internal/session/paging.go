package session

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/rebeliceyang/parqview/internal/db/metadata"
)

// Progress reports LoadAll advancement after each batch
type Progress struct {
	Loaded int64
	Total  int64
}

// LoadAllOptions controls LoadAll
type LoadAllOptions struct {
	// Confirmed skips the large-load confirmation
	Confirmed bool

	// OnProgress is called after every batch; may be nil
	OnProgress func(Progress)
}

// beginPageLocked checks that another page can be fetched and starts the
// transition. The returned offset is where fetching resumes.
func (s *Session) beginPageLocked() (ticket, plan, int64, error) {
	switch {
	case !s.loaded || s.state == Failed:
		return ticket{}, plan{}, 0, ErrNotReady
	case s.state == Loading:
		return ticket{}, plan{}, 0, ErrBusy
	case s.exhausted || (s.countKnownLocked() && s.remainingLocked() <= 0):
		return ticket{}, plan{}, 0, ErrExhausted
	}
	p := s.planLocked()
	offset := s.offset
	return s.beginLocked(Loading), p, offset, nil
}

// recount refreshes the filtered count when the plan needs it. It returns -1
// when no count was taken.
func (s *Session) recount(ctx context.Context, t ticket, p plan) (int64, error) {
	if !p.recount {
		return -1, nil
	}
	return metadata.CountFiltered(ctx, s.exec, t.source, p.clauses)
}

// LoadMore appends the next page. The offset advances by the number of rows
// actually returned.
func (s *Session) LoadMore(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	t, p, offset, err := s.beginPageLocked()
	s.mu.Unlock()
	if err != nil {
		return s.Snapshot(), err
	}

	ctx, cancel := s.withBudget(ctx, t)
	defer cancel()

	filtered, err := s.recount(ctx, t, p)
	if err != nil {
		return s.fail(t, err)
	}

	limit := s.opts.ChunkSize
	rows, sql, err := s.fetch(ctx, t.source, p, offset, limit)
	if err != nil {
		return s.fail(t, err)
	}

	return s.apply(t, func() {
		if filtered >= 0 {
			s.filtered = filtered
			s.filteredValid = true
		}
		s.rows = append(s.rows, rows...)
		s.offset += int64(len(rows))
		s.exhausted = len(rows) < limit
		s.lastSQL = sql
		s.setStateLocked(Ready)
	})
}

// LoadAll fetches the remaining rows in batches until a short batch or the
// matching row count is reached. More than the warning threshold of
// remaining rows needs opts.Confirmed, else a *ConfirmationError is returned.
// Cancelling ctx stops between batches and keeps the rows loaded so far.
func (s *Session) LoadAll(ctx context.Context, opts LoadAllOptions) (Snapshot, error) {
	s.mu.Lock()
	if s.loaded && s.state == Ready && !opts.Confirmed {
		if remaining := s.remainingLocked(); remaining > s.opts.LoadAllWarnThreshold && !s.exhausted {
			s.mu.Unlock()
			return s.Snapshot(), &ConfirmationError{Remaining: remaining}
		}
	}
	t, p, offset, err := s.beginPageLocked()
	s.mu.Unlock()
	if err != nil {
		return s.Snapshot(), err
	}

	cctx, cancel := s.withBudget(ctx, t)
	filtered, err := s.recount(cctx, t, p)
	cancel()
	if err != nil {
		return s.fail(t, err)
	}
	if filtered >= 0 {
		if _, err := s.apply(t, func() {
			s.filtered = filtered
			s.filteredValid = true
		}); err != nil {
			return s.Snapshot(), err
		}
	}

	batch := s.opts.LoadAllBatchSize
	for {
		if err := ctx.Err(); err != nil {
			return s.stop(t, err)
		}

		bctx, cancel := s.withBudget(ctx, t)
		rows, sql, err := s.fetch(bctx, t.source, p, offset, batch)
		cancel()
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return s.stop(t, err)
			}
			return s.fail(t, err)
		}

		var done bool
		snap, err := s.apply(t, func() {
			s.rows = append(s.rows, rows...)
			s.offset += int64(len(rows))
			s.lastSQL = sql
			if len(rows) < batch {
				s.exhausted = true
			}
			done = s.exhausted || s.remainingLocked() <= 0
			if done {
				s.setStateLocked(Ready)
			}
		})
		if err != nil {
			return snap, err
		}

		offset = snap.Offset
		if opts.OnProgress != nil {
			opts.OnProgress(Progress{Loaded: snap.Offset, Total: snap.Filtered})
		}
		if done {
			log.Info().Str("session", t.id).Int64("rows", snap.Offset).Msg("loaded all rows")
			return snap, nil
		}
	}
}

// stop ends a cancelled LoadAll, keeping what was fetched
func (s *Session) stop(t ticket, err error) (Snapshot, error) {
	snap, staleErr := s.apply(t, func() {
		s.setStateLocked(Ready)
	})
	if staleErr != nil {
		return snap, staleErr
	}
	return snap, err
}
