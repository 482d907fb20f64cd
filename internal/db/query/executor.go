package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/rebeliceyang/parqview/internal/errclass"
	"github.com/rebeliceyang/parqview/internal/models"
)

// Executor runs a SQL statement against the loaded source and returns rows
// as column name to value maps
type Executor interface {
	Execute(ctx context.Context, sql string) ([]map[string]interface{}, error)
}

// Recorder receives every statement the runner executes
type Recorder interface {
	Record(result models.QueryResult)
}

// RecorderFunc adapts a function to Recorder
type RecorderFunc func(models.QueryResult)

// Record calls f
func (f RecorderFunc) Record(r models.QueryResult) { f(r) }

type labelsKey struct{}

type labels struct {
	sessionID string
	source    string
}

// WithSession tags statements executed under ctx with a session and source
func WithSession(ctx context.Context, sessionID, source string) context.Context {
	return context.WithValue(ctx, labelsKey{}, labels{sessionID: sessionID, source: source})
}

func labelsFrom(ctx context.Context) labels {
	l, _ := ctx.Value(labelsKey{}).(labels)
	return l
}

// Runner executes statements with deadline enforcement, logging and recording
type Runner struct {
	exec     Executor
	recorder Recorder
}

// NewRunner wraps exec. recorder may be nil.
func NewRunner(exec Executor, recorder Recorder) *Runner {
	return &Runner{exec: exec, recorder: recorder}
}

type outcome struct {
	rows []map[string]interface{}
	err  error
}

// Execute runs sql and waits for the result or for ctx to finish, whichever
// comes first. The engine call cannot be aborted; on deadline its eventual
// result is dropped and errclass.ErrTimeout is returned.
func (r *Runner) Execute(ctx context.Context, sql string) ([]map[string]interface{}, error) {
	start := time.Now()
	done := make(chan outcome, 1)

	go func() {
		rows, err := r.exec.Execute(ctx, sql)
		done <- outcome{rows: rows, err: err}
	}()

	var res outcome
	select {
	case res = <-done:
		if res.err != nil && errors.Is(res.err, context.DeadlineExceeded) {
			res.err = fmt.Errorf("%w: %v", errclass.ErrTimeout, res.err)
		}
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			res.err = fmt.Errorf("%w after %s", errclass.ErrTimeout, time.Since(start).Round(time.Millisecond))
		} else {
			res.err = ctx.Err()
		}
	}

	r.record(ctx, sql, res, time.Since(start))
	return res.rows, res.err
}

func (r *Runner) record(ctx context.Context, sql string, res outcome, elapsed time.Duration) {
	l := labelsFrom(ctx)

	if res.err != nil {
		log.Warn().Str("session", l.sessionID).Str("sql", sql).Dur("duration", elapsed).Err(res.err).Msg("query failed")
	} else {
		log.Debug().Str("session", l.sessionID).Str("sql", sql).Dur("duration", elapsed).Int("rows", len(res.rows)).Msg("query")
	}

	if r.recorder == nil {
		return
	}
	r.recorder.Record(models.QueryResult{
		SessionID: l.sessionID,
		Source:    l.source,
		SQL:       sql,
		Rows:      len(res.rows),
		Duration:  elapsed,
		Err:       res.err,
	})
}
