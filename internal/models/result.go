package models

import "time"

// Row is one result row keyed by column name
type Row map[string]interface{}

// QueryResult records one statement sent to the engine
type QueryResult struct {
	SessionID string
	Source    string
	SQL       string
	Rows      int
	Duration  time.Duration
	Err       error
}
