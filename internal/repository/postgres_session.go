package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/openmood/emoscope/internal/domain"
)

// PostgresSessionRepo implements SessionRepo using a Postgres querier.
type PostgresSessionRepo struct {
	q Querier
}

// NewPostgresSessionRepo creates a new PostgresSessionRepo.
func NewPostgresSessionRepo(q Querier) *PostgresSessionRepo {
	return &PostgresSessionRepo{q: q}
}

func (r *PostgresSessionRepo) Create(ctx context.Context, s *domain.Session) error {
	query := `INSERT INTO sessions (id, status, started_at, ended_at, frame_count, results)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.q.Exec(ctx, query,
		s.ID,
		string(s.Status),
		s.StartedAt,
		s.EndedAt,
		s.FrameCount,
		nullableBytes(s.Results),
	)
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}
	return nil
}

func (r *PostgresSessionRepo) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	query := `SELECT id, status, started_at, ended_at, frame_count, results
		FROM sessions WHERE id = $1`
	return scanPGSession(r.q.QueryRow(ctx, query, id))
}

func (r *PostgresSessionRepo) GetStatus(ctx context.Context, id string) (domain.SessionStatus, error) {
	var status string
	err := r.q.QueryRow(ctx, `SELECT status FROM sessions WHERE id = $1`, id).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("session: %w", ErrNotFound)
		}
		return "", fmt.Errorf("querying session status: %w", err)
	}
	return domain.SessionStatus(status), nil
}

func (r *PostgresSessionRepo) IncrementFrameCountIfActive(ctx context.Context, id string) (bool, error) {
	query := `UPDATE sessions SET frame_count = frame_count + 1
		WHERE id = $1 AND status = 'active'`
	tag, err := r.q.Exec(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("incrementing session frame count: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PostgresSessionRepo) Complete(ctx context.Context, id string, endedAt time.Time, results []byte) (bool, error) {
	query := `UPDATE sessions SET status = 'completed', ended_at = $1, results = $2
		WHERE id = $3 AND status = 'active'`
	tag, err := r.q.Exec(ctx, query, endedAt, nullableBytes(results), id)
	if err != nil {
		return false, fmt.Errorf("completing session: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PostgresSessionRepo) SetResults(ctx context.Context, id string, results []byte) error {
	_, err := r.q.Exec(ctx, `UPDATE sessions SET results = $1 WHERE id = $2`,
		nullableBytes(results), id)
	if err != nil {
		return fmt.Errorf("storing session results: %w", err)
	}
	return nil
}

func (r *PostgresSessionRepo) Delete(ctx context.Context, id string) error {
	_, err := r.q.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

func (r *PostgresSessionRepo) ListByStartTimeDesc(ctx context.Context) ([]*domain.Session, error) {
	query := `SELECT id, status, started_at, ended_at, frame_count, results
		FROM sessions ORDER BY started_at DESC, id`
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*domain.Session
	for rows.Next() {
		s, err := scanPGSession(rows)
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

func scanPGSession(row pgx.Row) (*domain.Session, error) {
	var s domain.Session
	var status string
	var endedAt sql.NullTime
	var results sql.NullString

	err := row.Scan(&s.ID, &status, &s.StartedAt, &endedAt, &s.FrameCount, &results)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("session: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning session: %w", err)
	}

	s.Status = domain.SessionStatus(status)
	if endedAt.Valid {
		t := endedAt.Time
		s.EndedAt = &t
	}
	s.Results = rawResults(results)
	return &s, nil
}
