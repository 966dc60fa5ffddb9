package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"electionadmin/internal/adapters/storage"
)

var _ Locker = (*SQLite)(nil)

// SQLite is a Locker backed by the sweep_lock table, so every process that
// opens the same database file (servers and electionctl alike) shares it.
type SQLite struct {
	db  storage.SQLDB
	now func() time.Time
}

// NewSQLite creates a locker on a migrated database.
func NewSQLite(db storage.SQLDB) *SQLite {
	return &SQLite{db: db, now: time.Now}
}

// TryAcquire implements Locker. The upsert only overwrites a row whose hold
// has expired, so exactly one caller sees a changed row.
func (s *SQLite) TryAcquire(ctx context.Context, key string, ttl time.Duration) (ReleaseFunc, bool, error) {
	now := s.now()
	token := uuid.NewString()

	res, err := s.db.ExecContext(ctx, `INSERT INTO sweep_lock (name, token, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET token = excluded.token, expires_at = excluded.expires_at
		WHERE sweep_lock.expires_at <= ?`,
		key, token, storage.FormatTime(now.Add(ttl)), storage.FormatTime(now))
	if err != nil {
		return nil, false, fmt.Errorf("sqlite lock %s: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("sqlite lock %s: %w", key, err)
	}
	if n == 0 {
		return nil, false, nil
	}

	return func(ctx context.Context) error {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM sweep_lock WHERE name = ? AND token = ?", key, token); err != nil {
			return fmt.Errorf("sqlite unlock %s: %w", key, err)
		}
		return nil
	}, true, nil
}
