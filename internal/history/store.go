package history

import (
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"github.com/rebeliceyang/parqview/internal/db/query"
	"github.com/rebeliceyang/parqview/internal/escape"
	"github.com/rebeliceyang/parqview/internal/models"
)

//go:embed schema.sql
var schemaSQL string

const timeLayout = time.RFC3339Nano

// Entry is one executed statement
type Entry struct {
	ID           int64
	SessionID    string
	Source       string
	Query        string
	ExecutedAt   time.Time
	Duration     time.Duration
	RowsReturned int64
	Success      bool
	ErrorMessage string
}

// Store persists the statements sent to the engine
type Store struct {
	db *sql.DB
}

// NewStore opens or creates the history database at path
func NewStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// one writer; the query runner records from several goroutines
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create history schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Add appends an entry. A zero ExecutedAt means now.
func (s *Store) Add(entry Entry) error {
	executedAt := entry.ExecutedAt
	if executedAt.IsZero() {
		executedAt = time.Now()
	}

	_, err := s.db.Exec(`
		INSERT INTO query_history
		(session_id, source, query, executed_at, duration_ms, rows_returned, success, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.SessionID,
		entry.Source,
		entry.Query,
		executedAt.UTC().Format(timeLayout),
		entry.Duration.Milliseconds(),
		entry.RowsReturned,
		entry.Success,
		entry.ErrorMessage,
	)
	return err
}

const selectColumns = `
		SELECT id, session_id, source, query, executed_at,
		       duration_ms, rows_returned, success, error_message
		FROM query_history`

// GetRecent returns the most recent entries, newest first
func (s *Store) GetRecent(limit int) ([]Entry, error) {
	return s.list(selectColumns+`
		ORDER BY id DESC
		LIMIT ?`, limit)
}

// GetSession returns the entries of one session, newest first
func (s *Store) GetSession(sessionID string, limit int) ([]Entry, error) {
	return s.list(selectColumns+`
		WHERE session_id = ?
		ORDER BY id DESC
		LIMIT ?`, sessionID, limit)
}

// Search returns entries whose statement contains text literally
func (s *Store) Search(text string, limit int) ([]Entry, error) {
	pattern := "%" + escape.LikePattern(text) + "%"
	return s.list(selectColumns+`
		WHERE query LIKE ? ESCAPE '\'
		ORDER BY id DESC
		LIMIT ?`, pattern, limit)
}

// Prune keeps only the newest maxEntries entries
func (s *Store) Prune(maxEntries int) (int64, error) {
	if maxEntries <= 0 {
		return 0, nil
	}
	res, err := s.db.Exec(`
		DELETE FROM query_history
		WHERE id NOT IN (SELECT id FROM query_history ORDER BY id DESC LIMIT ?)`, maxEntries)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) list(q string, args ...interface{}) ([]Entry, error) {
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var durationMs int64
		var executedAt string

		err := rows.Scan(
			&e.ID,
			&e.SessionID,
			&e.Source,
			&e.Query,
			&executedAt,
			&durationMs,
			&e.RowsReturned,
			&e.Success,
			&e.ErrorMessage,
		)
		if err != nil {
			return nil, err
		}

		e.Duration = time.Duration(durationMs) * time.Millisecond
		e.ExecutedAt, _ = time.Parse(timeLayout, executedAt)

		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// Recorder adapts the store to the query runner. Failed statements are kept
// only if saveFailed is set. Write errors are logged, not returned.
func (s *Store) Recorder(saveFailed bool) query.Recorder {
	return query.RecorderFunc(func(r models.QueryResult) {
		if r.Err != nil && !saveFailed {
			return
		}
		entry := Entry{
			SessionID:    r.SessionID,
			Source:       r.Source,
			Query:        r.SQL,
			Duration:     r.Duration,
			RowsReturned: int64(r.Rows),
			Success:      r.Err == nil,
		}
		if r.Err != nil {
			entry.ErrorMessage = r.Err.Error()
		}
		if err := s.Add(entry); err != nil {
			log.Warn().Err(err).Msg("failed to save query history")
		}
	})
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
