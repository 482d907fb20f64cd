// Package session owns the state of one viewed source and orchestrates the
// queries issued on load, sort, filter and paging transitions.
//
// Every transition bumps the session generation while holding the lock and
// remembers the generation it started under. Results are written back only if
// the generation still matches; otherwise the transition returns ErrStale and
// leaves the newer state untouched. Engine calls are never aborted.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/rebeliceyang/parqview/internal/db/query"
	"github.com/rebeliceyang/parqview/internal/errclass"
	"github.com/rebeliceyang/parqview/internal/filter"
	"github.com/rebeliceyang/parqview/internal/models"
)

var (
	// ErrStale is returned by a transition superseded by a newer one
	ErrStale = errors.New("result superseded by a newer request")
	// ErrNotReady is returned when the session has no loaded data to act on
	ErrNotReady = errors.New("no data loaded")
	// ErrBusy is returned when a page fetch is already in flight
	ErrBusy = errors.New("a page is already loading")
	// ErrExhausted is returned when every matching row is already loaded
	ErrExhausted = errors.New("all rows loaded")
	// ErrUnknownColumn is returned for a column not in the schema
	ErrUnknownColumn = errors.New("unknown column")
	// ErrNoSource is returned when there is no source to load
	ErrNoSource = errors.New("no source")
)

// ConfirmationError is returned by LoadAll when the remaining row count
// exceeds the warning threshold and the caller has not confirmed.
type ConfirmationError struct {
	Remaining int64
}

func (e *ConfirmationError) Error() string {
	return fmt.Sprintf("loading %d rows requires confirmation", e.Remaining)
}

// State is the session lifecycle position
type State int

const (
	Unloaded State = iota
	SchemaLoading
	CountingRows
	AnalyzingColumns
	Ready
	Loading
	EmptySchema
	EmptyFile
	Failed
)

func (s State) String() string {
	switch s {
	case Unloaded:
		return "unloaded"
	case SchemaLoading:
		return "loading schema"
	case CountingRows:
		return "counting rows"
	case AnalyzingColumns:
		return "analyzing columns"
	case Ready:
		return "ready"
	case Loading:
		return "loading"
	case EmptySchema:
		return "empty schema"
	case EmptyFile:
		return "empty file"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Options tunes paging and analysis
type Options struct {
	ChunkSize            int
	LoadAllBatchSize     int
	LoadAllWarnThreshold int64
	MaxColumns           int
	CategoricalThreshold int

	// Timeout bounds each transition, and each batch of LoadAll. Zero disables it.
	Timeout time.Duration

	// Recorder receives every executed statement; may be nil
	Recorder query.Recorder

	// Prepare runs at the start of every load, within the load's time
	// budget. Remote sources use it to enable the engine's HTTP reads.
	// May be nil.
	Prepare func(ctx context.Context, source string) error
}

// DefaultOptions returns the stock paging settings
func DefaultOptions() Options {
	return Options{
		ChunkSize:            100,
		LoadAllBatchSize:     1000,
		LoadAllWarnThreshold: 10000,
		MaxColumns:           100,
		CategoricalThreshold: 20,
		Timeout:              30 * time.Second,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.ChunkSize <= 0 {
		o.ChunkSize = d.ChunkSize
	}
	if o.LoadAllBatchSize <= 0 {
		o.LoadAllBatchSize = d.LoadAllBatchSize
	}
	if o.LoadAllWarnThreshold <= 0 {
		o.LoadAllWarnThreshold = d.LoadAllWarnThreshold
	}
	if o.MaxColumns <= 0 {
		o.MaxColumns = d.MaxColumns
	}
	if o.CategoricalThreshold < 0 {
		o.CategoricalThreshold = d.CategoricalThreshold
	}
	return o
}

// Session is the versioned state of one viewed source. It is safe for
// concurrent use; transitions run their queries without holding the lock.
type Session struct {
	mu      sync.Mutex
	exec    *query.Runner
	builder *filter.Builder
	opts    Options

	generation uint64
	state      State
	id         string
	source     string

	columns      []models.Column
	totalColumns int
	meta         map[string]models.ColumnMeta

	filters models.Filters
	sort    models.SortSpec

	// loaded is set once the first page of a load has arrived
	loaded bool

	offset        int64
	total         int64
	filtered      int64
	filteredValid bool
	exhausted     bool

	rows    []models.Row
	lastSQL string
	err     *errclass.Display
}

// New creates an unloaded session executing through exec
func New(exec query.Executor, opts Options) *Session {
	opts = opts.withDefaults()
	return &Session{
		exec:    query.NewRunner(exec, opts.Recorder),
		builder: filter.NewBuilder(),
		opts:    opts,
		filters: models.Filters{},
	}
}

// Snapshot is the rendering view of a session after a transition
type Snapshot struct {
	Generation   uint64
	State        State
	SessionID    string
	Source       string
	Columns      []models.Column
	TotalColumns int
	Meta         map[string]models.ColumnMeta

	// Rows are every row loaded so far. Callers must not modify them.
	Rows []models.Row

	Total       int64
	Filtered    int64
	Offset      int64
	Remaining   int64
	Sort        models.SortSpec
	Filters     models.Filters
	CanLoadMore bool
	LastSQL     string
	Err         *errclass.Display
}

// Snapshot returns the current state
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	meta := make(map[string]models.ColumnMeta, len(s.meta))
	for k, v := range s.meta {
		meta[k] = v
	}

	remaining := s.remainingLocked()
	return Snapshot{
		Generation:   s.generation,
		State:        s.state,
		SessionID:    s.id,
		Source:       s.source,
		Columns:      append([]models.Column(nil), s.columns...),
		TotalColumns: s.totalColumns,
		Meta:         meta,
		Rows:         s.rows[:len(s.rows):len(s.rows)],
		Total:        s.total,
		Filtered:     s.currentCountLocked(),
		Offset:       s.offset,
		Remaining:    remaining,
		Sort:         s.sort,
		Filters:      s.filters.Clone(),
		CanLoadMore:  s.state == Ready && remaining > 0 && !s.exhausted,
		LastSQL:      s.lastSQL,
		Err:          s.err,
	}
}

// currentCountLocked is the row count paging runs against: the filtered
// count when a filter is active, the file total otherwise. A filtered count
// taken for an earlier filter set is not reported; it is 0 until recounted.
func (s *Session) currentCountLocked() int64 {
	if len(s.filters.Active(s.meta)) == 0 {
		return s.total
	}
	if !s.filteredValid {
		return 0
	}
	return s.filtered
}

// countKnownLocked reports whether currentCountLocked matches the filters
func (s *Session) countKnownLocked() bool {
	return s.filteredValid || len(s.filters.Active(s.meta)) == 0
}

func (s *Session) remainingLocked() int64 {
	r := s.currentCountLocked() - s.offset
	if r < 0 {
		return 0
	}
	return r
}

// ticket identifies the generation a transition started under
type ticket struct {
	generation uint64
	id         string
	source     string
}

// beginLocked bumps the generation and enters state
func (s *Session) beginLocked(state State) ticket {
	s.generation++
	s.err = nil
	s.setStateLocked(state)
	return ticket{generation: s.generation, id: s.id, source: s.source}
}

// currentLocked reports whether t is still the latest transition
func (s *Session) currentLocked(t ticket) bool {
	if t.generation != s.generation {
		log.Debug().Uint64("generation", t.generation).Uint64("current", s.generation).Msg("discarding stale result")
		return false
	}
	return true
}

func (s *Session) setStateLocked(state State) {
	s.state = state
	log.Debug().Uint64("generation", s.generation).Str("state", state.String()).Str("session", s.id).Msg("transition")
}

// apply runs fn under the lock if t is still the latest transition and
// returns the resulting snapshot
func (s *Session) apply(t ticket, fn func()) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.currentLocked(t) {
		return s.snapshotLocked(), ErrStale
	}
	fn()
	return s.snapshotLocked(), nil
}

// fail records err against t. A stale failure is reported as ErrStale.
func (s *Session) fail(t ticket, err error) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.currentLocked(t) {
		return s.snapshotLocked(), ErrStale
	}

	d := errclass.Describe(err, t.source)
	s.state = Failed
	s.err = &d
	log.Warn().Err(err).Str("session", t.id).Str("kind", d.Kind.String()).Msg("transition failed")
	return s.snapshotLocked(), err
}

func (s *Session) withBudget(ctx context.Context, t ticket) (context.Context, context.CancelFunc) {
	ctx = query.WithSession(ctx, t.id, t.source)
	if s.opts.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.opts.Timeout)
}

// prepare runs opts.Prepare and gives up when ctx ends, even if the hook
// does not return
func (s *Session) prepare(ctx context.Context, source string) error {
	if s.opts.Prepare == nil {
		return nil
	}

	done := make(chan error, 1)
	go func() { done <- s.opts.Prepare(ctx, source) }()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		err = ctx.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: preparing %s: %v", errclass.ErrTimeout, source, err)
	}
	return err
}

func newSessionID() string {
	return uuid.NewString()
}
