package retention

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"electionadmin/internal/adapters/storage"
	domain "electionadmin/internal/domain/retention"
)

var _ Store = (*SQLiteStore)(nil)

// SQLiteStore implements Store using SQLite. The last report is kept as JSON.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new schedule store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Get retrieves a schedule by name.
// POST: Returns the schedule or an error wrapping domain.ErrScheduleNotFound
func (s *SQLiteStore) Get(ctx context.Context, name string) (domain.Schedule, error) {
	var (
		sched               domain.Schedule
		nextRunAt, updated  string
		lastRunAt, lastJSON sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT name, next_run_at, last_run_at, last_report, updated_at FROM retention_schedule WHERE name = ?`, name).
		Scan(&sched.Name, &nextRunAt, &lastRunAt, &lastJSON, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Schedule{}, fmt.Errorf("schedule %s: %w", name, domain.ErrScheduleNotFound)
	}
	if err != nil {
		return domain.Schedule{}, fmt.Errorf("get schedule %s: %w", name, err)
	}

	if sched.NextRunAt, err = storage.ParseTime(nextRunAt); err != nil {
		return domain.Schedule{}, fmt.Errorf("parse next_run_at: %w", err)
	}
	if sched.UpdatedAt, err = storage.ParseTime(updated); err != nil {
		return domain.Schedule{}, fmt.Errorf("parse updated_at: %w", err)
	}
	if sched.LastRunAt, err = storage.ParseNullTime(lastRunAt); err != nil {
		return domain.Schedule{}, fmt.Errorf("parse last_run_at: %w", err)
	}
	if lastJSON.Valid && lastJSON.String != "" {
		var report domain.SweepReport
		if err := json.Unmarshal([]byte(lastJSON.String), &report); err != nil {
			return domain.Schedule{}, fmt.Errorf("decode last_report: %w", err)
		}
		sched.LastReport = &report
	}
	return sched, nil
}

// Save upserts a schedule.
func (s *SQLiteStore) Save(ctx context.Context, sched domain.Schedule) error {
	var lastJSON sql.NullString
	if sched.LastReport != nil {
		b, err := json.Marshal(sched.LastReport)
		if err != nil {
			return fmt.Errorf("encode last_report: %w", err)
		}
		lastJSON = sql.NullString{String: string(b), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO retention_schedule (name, next_run_at, last_run_at, last_report, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			next_run_at=excluded.next_run_at,
			last_run_at=excluded.last_run_at,
			last_report=excluded.last_report,
			updated_at=excluded.updated_at`,
		sched.Name, storage.FormatTime(sched.NextRunAt), storage.NullTime(sched.LastRunAt), lastJSON, storage.FormatTime(sched.UpdatedAt))
	if err != nil {
		return fmt.Errorf("save schedule %s: %w", sched.Name, err)
	}
	return nil
}
