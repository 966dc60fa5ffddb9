package election

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"electionadmin/internal/adapters/storage"
	domain "electionadmin/internal/domain/election"
)

var _ Store = (*SQLiteStore)(nil)

const selectColumns = `id, title, status, is_active, is_deleted, needs_approval, created_by, created_by_role,
	created_at, updated_at, archived_at, archived_by, deleted_at, deleted_by, retention_days, auto_delete_at,
	approved_at, approved_by, version`

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new election store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves an Election by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error wrapping domain.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Election, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+selectColumns+" FROM election WHERE id = ?", id)
	e, err := scanElection(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Election{}, fmt.Errorf("election %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Election{}, fmt.Errorf("get election %s: %w", id, err)
	}
	return e, nil
}

// List retrieves Elections matching the filter, newest first.
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Election, error) {
	var where []string
	var args []any

	if filter.IsActive != nil {
		where = append(where, "is_active = ?")
		args = append(args, boolToInt(*filter.IsActive))
	}
	if filter.IsDeleted != nil {
		where = append(where, "is_deleted = ?")
		args = append(args, boolToInt(*filter.IsDeleted))
	}
	if filter.NeedsApproval != nil {
		where = append(where, "needs_approval = ?")
		args = append(args, boolToInt(*filter.NeedsApproval))
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.DeletedBefore != nil {
		where = append(where, "deleted_at IS NOT NULL AND deleted_at <= ?")
		args = append(args, storage.FormatTime(*filter.DeletedBefore))
	}
	if len(filter.ExcludeStatuses) > 0 {
		where = append(where, "status NOT IN ("+placeholders(len(filter.ExcludeStatuses))+")")
		for _, st := range filter.ExcludeStatuses {
			args = append(args, string(st))
		}
	}
	if len(filter.ExcludeCreatorRoles) > 0 {
		where = append(where, "created_by_role NOT IN ("+placeholders(len(filter.ExcludeCreatorRoles))+")")
		for _, role := range filter.ExcludeCreatorRoles {
			args = append(args, role)
		}
	}

	var q strings.Builder
	q.WriteString("SELECT " + selectColumns + " FROM election")
	if len(where) > 0 {
		q.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	q.WriteString(" ORDER BY created_at DESC, id")
	if filter.Limit > 0 {
		q.WriteString(" LIMIT ? OFFSET ?")
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, q.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list elections: %w", err)
	}
	defer rows.Close()

	var results []domain.Election
	for rows.Next() {
		e, err := scanElection(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan election: %w", err)
		}
		results = append(results, e)
	}
	return results, rows.Err()
}

// Insert persists a new Election at version 1.
// PRE: value has been validated
func (s *SQLiteStore) Insert(ctx context.Context, value domain.Election) error {
	if value.Version == 0 {
		value.Version = 1
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO election ("+selectColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		writeArgs(value)...)
	if err != nil {
		return fmt.Errorf("insert election %s: %w", value.ID, err)
	}
	return nil
}

// Update writes value if the stored version still equals expectedVersion.
// PRE: value has been validated
// POST: On success the returned Election carries Version = expectedVersion+1.
// A version mismatch yields domain.ErrConflict; a missing row domain.ErrNotFound.
func (s *SQLiteStore) Update(ctx context.Context, value domain.Election, expectedVersion int) (domain.Election, error) {
	value.Version = expectedVersion + 1
	args := writeArgs(value)[1:]
	args = append(args, value.ID, expectedVersion)

	res, err := s.db.ExecContext(ctx, `UPDATE election SET
		title = ?, status = ?, is_active = ?, is_deleted = ?, needs_approval = ?, created_by = ?, created_by_role = ?,
		created_at = ?, updated_at = ?, archived_at = ?, archived_by = ?, deleted_at = ?, deleted_by = ?,
		retention_days = ?, auto_delete_at = ?, approved_at = ?, approved_by = ?, version = ?
		WHERE id = ? AND version = ?`, args...)
	if err != nil {
		return domain.Election{}, fmt.Errorf("update election %s: %w", value.ID, err)
	}
	if err := s.checkApplied(ctx, res, value.ID); err != nil {
		return domain.Election{}, err
	}
	return value, nil
}

// Delete removes the row if the stored version still equals expectedVersion.
// POST: Row removed, or domain.ErrConflict / domain.ErrNotFound
func (s *SQLiteStore) Delete(ctx context.Context, id string, expectedVersion int) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM election WHERE id = ? AND version = ?", id, expectedVersion)
	if err != nil {
		return fmt.Errorf("delete election %s: %w", id, err)
	}
	return s.checkApplied(ctx, res, id)
}

// checkApplied turns a zero-row write into ErrConflict or ErrNotFound.
func (s *SQLiteStore) checkApplied(ctx context.Context, res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n > 0 {
		return nil
	}
	var exists int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM election WHERE id = ?", id).Scan(&exists); err != nil {
		return fmt.Errorf("check election %s: %w", id, err)
	}
	if exists == 0 {
		return fmt.Errorf("election %s: %w", id, domain.ErrNotFound)
	}
	return fmt.Errorf("election %s: %w", id, domain.ErrConflict)
}

func writeArgs(e domain.Election) []any {
	var retention sql.NullInt64
	if e.RetentionDays != nil {
		retention = sql.NullInt64{Int64: int64(*e.RetentionDays), Valid: true}
	}
	return []any{
		e.ID,
		e.Title,
		string(e.Status),
		boolToInt(e.IsActive),
		boolToInt(e.IsDeleted),
		boolToInt(e.NeedsApproval),
		e.CreatedBy,
		e.CreatedByRole,
		storage.FormatTime(e.CreatedAt),
		storage.FormatTime(e.UpdatedAt),
		storage.NullTime(e.ArchivedAt),
		nullString(e.ArchivedBy),
		storage.NullTime(e.DeletedAt),
		nullString(e.DeletedBy),
		retention,
		storage.NullTime(e.AutoDeleteAt),
		storage.NullTime(e.ApprovedAt),
		nullString(e.ApprovedBy),
		e.Version,
	}
}

// scanElection extracts an Election from a row scanner function.
func scanElection(scan func(dest ...any) error) (domain.Election, error) {
	var (
		e                                               domain.Election
		status, createdAt, updatedAt                    string
		isActive, isDeleted, needsApproval              int
		archivedAt, deletedAt, autoDeleteAt, approvedAt sql.NullString
		archivedBy, deletedBy, approvedBy               sql.NullString
		retention                                       sql.NullInt64
	)
	err := scan(&e.ID, &e.Title, &status, &isActive, &isDeleted, &needsApproval, &e.CreatedBy, &e.CreatedByRole,
		&createdAt, &updatedAt, &archivedAt, &archivedBy, &deletedAt, &deletedBy, &retention, &autoDeleteAt,
		&approvedAt, &approvedBy, &e.Version)
	if err != nil {
		return domain.Election{}, err
	}

	e.Status = domain.Status(status)
	e.IsActive = isActive != 0
	e.IsDeleted = isDeleted != 0
	e.NeedsApproval = needsApproval != 0
	e.ArchivedBy = archivedBy.String
	e.DeletedBy = deletedBy.String
	e.ApprovedBy = approvedBy.String
	if retention.Valid {
		days := int(retention.Int64)
		e.RetentionDays = &days
	}

	if e.CreatedAt, err = storage.ParseTime(createdAt); err != nil {
		return domain.Election{}, fmt.Errorf("parse created_at: %w", err)
	}
	if e.UpdatedAt, err = storage.ParseTime(updatedAt); err != nil {
		return domain.Election{}, fmt.Errorf("parse updated_at: %w", err)
	}
	for _, f := range []struct {
		src sql.NullString
		dst **time.Time
	}{
		{archivedAt, &e.ArchivedAt},
		{deletedAt, &e.DeletedAt},
		{autoDeleteAt, &e.AutoDeleteAt},
		{approvedAt, &e.ApprovedAt},
	} {
		if *f.dst, err = storage.ParseNullTime(f.src); err != nil {
			return domain.Election{}, fmt.Errorf("parse timestamp: %w", err)
		}
	}
	return e, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
