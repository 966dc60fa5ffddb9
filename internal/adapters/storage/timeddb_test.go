package storage

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"electionadmin/internal/adapters/http/perf"
)

func openTimedTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("CREATE TABLE test (id TEXT PRIMARY KEY, val TEXT)"); err != nil {
		t.Fatalf("create table: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func queryStat(c *perf.Collector) perf.KindStat {
	for _, k := range c.Snapshot(time.Time{}, 10).Kinds {
		if k.Kind == "query" {
			return k
		}
	}
	return perf.KindStat{}
}

// TestTimedDB_RecordsEveryStatement verifies each wrapped call lands in the collector.
func TestTimedDB_RecordsEveryStatement(t *testing.T) {
	collector := perf.NewCollector(100)
	tdb := NewTimedDB(openTimedTestDB(t), collector, time.Second)
	ctx := context.Background()

	if _, err := tdb.ExecContext(ctx, "INSERT INTO test (id, val) VALUES (?, ?)", "1", "hello"); err != nil {
		t.Fatalf("ExecContext: %v", err)
	}
	rows, err := tdb.QueryContext(ctx, "SELECT id FROM test")
	if err != nil {
		t.Fatalf("QueryContext: %v", err)
	}
	rows.Close()

	var val string
	if err := tdb.QueryRowContext(ctx, "SELECT val FROM test WHERE id = ?", "1").Scan(&val); err != nil {
		t.Fatalf("QueryRowContext: %v", err)
	}
	if val != "hello" {
		t.Errorf("val = %q, want hello", val)
	}

	tx, err := tdb.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("BeginTx: %v", err)
	}
	tx.Rollback()

	stat := queryStat(collector)
	if stat.Total != 4 {
		t.Errorf("Total = %d, want 4", stat.Total)
	}
	if stat.Failed != 0 {
		t.Errorf("Failed = %d, want 0", stat.Failed)
	}
}

// TestTimedDB_FailedStatement verifies errors are marked failed and passed through.
func TestTimedDB_FailedStatement(t *testing.T) {
	collector := perf.NewCollector(100)
	tdb := NewTimedDB(openTimedTestDB(t), collector, time.Second)

	_, err := tdb.ExecContext(context.Background(), "INSERT INTO missing_table VALUES (1)")
	if err == nil {
		t.Fatal("expected error for missing table")
	}
	if stat := queryStat(collector); stat.Failed != 1 {
		t.Errorf("Failed = %d, want 1", stat.Failed)
	}
}

// TestTimedDB_NoRowsIsNotFailure verifies sql.ErrNoRows from a query is not counted as a failure.
func TestTimedDB_NoRowsIsNotFailure(t *testing.T) {
	collector := perf.NewCollector(100)
	tdb := NewTimedDB(openTimedTestDB(t), collector, time.Second)

	var val string
	err := tdb.QueryRowContext(context.Background(), "SELECT val FROM test WHERE id = ?", "nope").Scan(&val)
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("err = %v, want sql.ErrNoRows", err)
	}
	if stat := queryStat(collector); stat.Failed != 0 {
		t.Errorf("Failed = %d, want 0", stat.Failed)
	}
}

// TestTimedDB_NilCollector verifies the wrapper works without a collector.
func TestTimedDB_NilCollector(t *testing.T) {
	tdb := NewTimedDB(openTimedTestDB(t), nil, 0)
	if tdb.threshold != DefaultSlowQuery {
		t.Errorf("threshold = %v, want %v", tdb.threshold, DefaultSlowQuery)
	}
	if _, err := tdb.ExecContext(context.Background(), "INSERT INTO test (id, val) VALUES ('a', 'b')"); err != nil {
		t.Fatalf("ExecContext: %v", err)
	}
}

// TestSlowQueryThresholdFromEnv verifies env parsing and fallback.
func TestSlowQueryThresholdFromEnv(t *testing.T) {
	tests := []struct {
		env  string
		want time.Duration
	}{
		{"", DefaultSlowQuery},
		{"120", 120 * time.Millisecond},
		{"-3", DefaultSlowQuery},
		{"abc", DefaultSlowQuery},
	}
	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			t.Setenv("ELECTIONS_SLOW_QUERY_MS", tt.env)
			if got := SlowQueryThresholdFromEnv(); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
