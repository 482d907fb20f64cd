package session

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/rebeliceyang/parqview/internal/db/connection"
	"github.com/rebeliceyang/parqview/internal/escape"
	"github.com/rebeliceyang/parqview/internal/models"
)

// writeTiedParquet writes rows with a unique id and a sort key k = id % 3,
// split into many row groups so the engine sorts them in parallel
func writeTiedParquet(t *testing.T, pool *connection.Pool, path string, from, rows int) {
	t.Helper()
	stmt := fmt.Sprintf(
		"COPY (SELECT i AS id, i %% 3 AS k FROM range(%d, %d) t(i)) TO '%s' (FORMAT PARQUET, ROW_GROUP_SIZE 2048)",
		from, from+rows, escape.SQLString(path))
	if _, err := pool.Exec(context.Background(), stmt); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func newEnginePool(t *testing.T) *connection.Pool {
	t.Helper()
	pool, err := connection.NewPool(context.Background(), connection.Config{Threads: 8})
	if err != nil {
		t.Fatalf("NewPool failed: %v", err)
	}
	t.Cleanup(func() { _ = pool.Close() })
	return pool
}

// pageAll sorts by column and pages until nothing is left, returning how often
// each id was seen
func pageAll(t *testing.T, s *Session, column string) (map[string]int, Snapshot) {
	t.Helper()
	ctx := context.Background()

	snap, err := s.Sort(ctx, column)
	if err != nil {
		t.Fatalf("Sort failed: %v", err)
	}
	for snap.CanLoadMore {
		if snap, err = s.LoadMore(ctx); err != nil {
			t.Fatalf("LoadMore at offset %d failed: %v", snap.Offset, err)
		}
	}

	seen := make(map[string]int, len(snap.Rows))
	for _, row := range snap.Rows {
		seen[fmt.Sprint(row["id"])]++
	}
	return seen, snap
}

func checkEveryRowOnce(t *testing.T, seen map[string]int, snap Snapshot, from, rows int) {
	t.Helper()
	if len(snap.Rows) != rows || snap.Offset != int64(rows) || snap.Remaining != 0 {
		t.Errorf("rows=%d offset=%d remaining=%d, want %d rows", len(snap.Rows), snap.Offset, snap.Remaining, rows)
	}
	duplicated, missing := 0, 0
	for i := from; i < from+rows; i++ {
		switch n := seen[fmt.Sprint(i)]; {
		case n == 0:
			missing++
		case n > 1:
			duplicated++
		}
	}
	if duplicated != 0 || missing != 0 {
		t.Errorf("paging over tied keys: %d ids duplicated, %d missing", duplicated, missing)
	}

	var prev int64 = -1
	for i, row := range snap.Rows {
		k, _ := row["k"].(int64)
		if k < prev {
			t.Fatalf("row %d has k=%d after k=%d", i, k, prev)
		}
		prev = k
	}
}

func TestEngine_SortedPagingOverTiedKeys(t *testing.T) {
	if testing.Short() {
		t.Skip("writes a parquet file")
	}

	pool := newEnginePool(t)
	path := filepath.Join(t.TempDir(), "tied.parquet")
	const rows = 60000
	writeTiedParquet(t, pool, path, 0, rows)

	opts := testOptions()
	opts.ChunkSize = 1000
	s := New(pool, opts)
	if _, err := s.Load(context.Background(), path); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	seen, snap := pageAll(t, s, "k")
	if snap.Sort != (models.SortSpec{Column: "k", Direction: models.SortAsc}) {
		t.Fatalf("unexpected sort %+v", snap.Sort)
	}
	checkEveryRowOnce(t, seen, snap, 0, rows)
}

func TestEngine_SortedPagingOverGlob(t *testing.T) {
	if testing.Short() {
		t.Skip("writes parquet files")
	}

	pool := newEnginePool(t)
	dir := t.TempDir()
	const perFile = 20000
	for i := 0; i < 3; i++ {
		writeTiedParquet(t, pool, filepath.Join(dir, fmt.Sprintf("part-%d.parquet", i)), i*perFile, perFile)
	}

	opts := testOptions()
	opts.ChunkSize = 1000
	s := New(pool, opts)
	if _, err := s.Load(context.Background(), filepath.Join(dir, "*.parquet")); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	seen, snap := pageAll(t, s, "k")
	checkEveryRowOnce(t, seen, snap, 0, 3*perFile)
}
