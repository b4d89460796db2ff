package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/openmood/emoscope/internal/db"
	"github.com/openmood/emoscope/internal/domain"
)

// SQLiteSessionRepo implements SessionRepo using a SQLite database.
type SQLiteSessionRepo struct {
	db db.DBTX
}

// NewSQLiteSessionRepo creates a new SQLiteSessionRepo.
func NewSQLiteSessionRepo(conn db.DBTX) *SQLiteSessionRepo {
	return &SQLiteSessionRepo{db: conn}
}

func (r *SQLiteSessionRepo) Create(ctx context.Context, s *domain.Session) error {
	query := `INSERT INTO sessions (id, status, started_at, ended_at, frame_count, results)
		VALUES (?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		s.ID,
		string(s.Status),
		s.StartedAt.Format(time.RFC3339),
		nullableTimeToString(s.EndedAt),
		s.FrameCount,
		nullableBytes(s.Results),
	)
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}
	return nil
}

func (r *SQLiteSessionRepo) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	query := `SELECT id, status, started_at, ended_at, frame_count, results
		FROM sessions WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)
	return scanSession(row)
}

func (r *SQLiteSessionRepo) GetStatus(ctx context.Context, id string) (domain.SessionStatus, error) {
	var status string
	err := r.db.QueryRowContext(ctx, `SELECT status FROM sessions WHERE id = ?`, id).Scan(&status)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", fmt.Errorf("session: %w", ErrNotFound)
		}
		return "", fmt.Errorf("querying session status: %w", err)
	}
	return domain.SessionStatus(status), nil
}

func (r *SQLiteSessionRepo) IncrementFrameCountIfActive(ctx context.Context, id string) (bool, error) {
	query := `UPDATE sessions SET frame_count = frame_count + 1
		WHERE id = ? AND status = 'active'`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("incrementing session frame count: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reading affected rows: %w", err)
	}
	return n > 0, nil
}

func (r *SQLiteSessionRepo) Complete(ctx context.Context, id string, endedAt time.Time, results []byte) (bool, error) {
	query := `UPDATE sessions SET status = 'completed', ended_at = ?, results = ?
		WHERE id = ? AND status = 'active'`
	res, err := r.db.ExecContext(ctx, query,
		endedAt.Format(time.RFC3339),
		nullableBytes(results),
		id,
	)
	if err != nil {
		return false, fmt.Errorf("completing session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reading affected rows: %w", err)
	}
	return n > 0, nil
}

func (r *SQLiteSessionRepo) SetResults(ctx context.Context, id string, results []byte) error {
	_, err := r.db.ExecContext(ctx, `UPDATE sessions SET results = ? WHERE id = ?`,
		nullableBytes(results), id)
	if err != nil {
		return fmt.Errorf("storing session results: %w", err)
	}
	return nil
}

func (r *SQLiteSessionRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

func (r *SQLiteSessionRepo) ListByStartTimeDesc(ctx context.Context) ([]*domain.Session, error) {
	query := `SELECT id, status, started_at, ended_at, frame_count, results
		FROM sessions ORDER BY started_at DESC, id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*domain.Session
	for rows.Next() {
		s, err := scanSessionRow(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sessions: %w", err)
	}
	return sessions, nil
}

func scanSession(row *sql.Row) (*domain.Session, error) {
	var s domain.Session
	var status, startedAtStr string
	var endedAt, results sql.NullString

	err := row.Scan(&s.ID, &status, &startedAtStr, &endedAt, &s.FrameCount, &results)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("session: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning session: %w", err)
	}
	return populateSession(&s, status, startedAtStr, endedAt, results)
}

func scanSessionRow(rows *sql.Rows) (*domain.Session, error) {
	var s domain.Session
	var status, startedAtStr string
	var endedAt, results sql.NullString

	err := rows.Scan(&s.ID, &status, &startedAtStr, &endedAt, &s.FrameCount, &results)
	if err != nil {
		return nil, fmt.Errorf("scanning session row: %w", err)
	}
	return populateSession(&s, status, startedAtStr, endedAt, results)
}

func populateSession(s *domain.Session, status, startedAtStr string, endedAt, results sql.NullString) (*domain.Session, error) {
	s.Status = domain.SessionStatus(status)
	startedAt, err := time.Parse(time.RFC3339, startedAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing started_at: %w", err)
	}
	s.StartedAt = startedAt
	s.EndedAt = parseNullableTime(endedAt)
	s.Results = rawResults(results)
	return s, nil
}
