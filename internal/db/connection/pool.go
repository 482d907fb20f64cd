package connection

import (
	"context"
	"database/sql"
	"fmt"
	"runtime"
	"sync"

	_ "github.com/marcboeker/go-duckdb"
	"github.com/rs/zerolog/log"

	"github.com/rebeliceyang/parqview/internal/escape"
)

// Config tunes the embedded engine
type Config struct {
	Threads     int    // 0 uses GOMAXPROCS
	MemoryLimit string // DuckDB size string such as "2GB"; empty keeps the default
}

// Pool wraps an in-memory DuckDB database
type Pool struct {
	db     *sql.DB
	config Config

	mu          sync.Mutex
	remoteReady bool
}

// NewPool opens a new in-memory engine
func NewPool(ctx context.Context, config Config) (*Pool, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb: %w", err)
	}

	// Session settings do not propagate across pooled connections
	db.SetMaxOpenConns(1)

	p := &Pool{
		db:     db,
		config: config,
	}

	threads := config.Threads
	if threads <= 0 {
		threads = runtime.GOMAXPROCS(0)
	}
	if _, err := p.Exec(ctx, fmt.Sprintf("SET threads = %d", threads)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set threads: %w", err)
	}

	if config.MemoryLimit != "" {
		stmt := fmt.Sprintf("SET memory_limit = '%s'", escape.SQLString(config.MemoryLimit))
		if _, err := p.Exec(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set memory limit: %w", err)
		}
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping duckdb: %w", err)
	}

	return p, nil
}

// Close closes the engine
func (p *Pool) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}

// EnableRemote loads the httpfs extension so read_parquet accepts URLs. The
// extension is only downloaded when it is not installed yet. It is a no-op
// after the first success.
func (p *Pool) EnableRemote(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.remoteReady {
		return nil
	}

	rows, err := p.Query(ctx, "SELECT installed, loaded FROM duckdb_extensions() WHERE extension_name = 'httpfs'")
	if err != nil {
		return fmt.Errorf("failed to inspect extensions: %w", err)
	}
	var installed, loaded bool
	if len(rows) > 0 {
		installed, _ = rows[0]["installed"].(bool)
		loaded, _ = rows[0]["loaded"].(bool)
	}

	if !installed {
		if _, err := p.Exec(ctx, "INSTALL httpfs"); err != nil {
			return fmt.Errorf("failed to install httpfs: %w", err)
		}
	}
	if !loaded {
		if _, err := p.Exec(ctx, "LOAD httpfs"); err != nil {
			return fmt.Errorf("failed to load httpfs: %w", err)
		}
	}

	p.remoteReady = true
	log.Debug().Bool("downloaded", !installed).Msg("httpfs loaded")
	return nil
}

// Setting returns the current value of an engine setting
func (p *Pool) Setting(ctx context.Context, name string) (string, error) {
	row, err := p.QueryRow(ctx, fmt.Sprintf("SELECT current_setting('%s') AS value", escape.SQLString(name)))
	if err != nil {
		return "", err
	}
	return fmt.Sprint(row["value"]), nil
}

// QueryResult represents a query result with columns and rows
type QueryResult struct {
	Columns []string
	Rows    []map[string]interface{}
}

// Execute runs a statement and returns its rows. It satisfies query.Executor.
func (p *Pool) Execute(ctx context.Context, sql string) ([]map[string]interface{}, error) {
	return p.Query(ctx, sql)
}

// Query executes a query
func (p *Pool) Query(ctx context.Context, sql string, args ...interface{}) ([]map[string]interface{}, error) {
	res, err := p.QueryWithColumns(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return res.Rows, nil
}

// QueryWithColumns executes a query and returns column names in order
func (p *Pool) QueryWithColumns(ctx context.Context, sql string, args ...interface{}) (*QueryResult, error) {
	rows, err := p.db.QueryContext(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var results []map[string]interface{}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		ptrs := make([]interface{}, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		row := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			row[col] = values[i]
		}
		results = append(results, row)
	}

	return &QueryResult{
		Columns: columns,
		Rows:    results,
	}, rows.Err()
}

// QueryRow executes a query that returns a single row
func (p *Pool) QueryRow(ctx context.Context, sql string, args ...interface{}) (map[string]interface{}, error) {
	rows, err := p.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no rows returned")
	}
	return rows[0], nil
}

// Exec executes a statement without returning rows
func (p *Pool) Exec(ctx context.Context, sql string, args ...interface{}) (int64, error) {
	result, err := p.db.ExecContext(ctx, sql, args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
