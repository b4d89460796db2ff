package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/openmood/emoscope/internal/domain"
)

// PostgresQuestionRepo implements QuestionRepo using a Postgres querier.
type PostgresQuestionRepo struct {
	q Querier
}

// NewPostgresQuestionRepo creates a new PostgresQuestionRepo.
func NewPostgresQuestionRepo(q Querier) *PostgresQuestionRepo {
	return &PostgresQuestionRepo{q: q}
}

func (r *PostgresQuestionRepo) CreateIfAbsent(ctx context.Context, q *domain.Question) error {
	query := `INSERT INTO questions (id, session_id, created_at, frame_count, results)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING`
	_, err := r.q.Exec(ctx, query,
		q.ID,
		q.SessionID,
		q.CreatedAt,
		q.FrameCount,
		nullableBytes(q.Results),
	)
	if err != nil {
		return fmt.Errorf("inserting question: %w", err)
	}
	return nil
}

func (r *PostgresQuestionRepo) GetByID(ctx context.Context, id string) (*domain.Question, error) {
	query := `SELECT id, session_id, created_at, frame_count, results
		FROM questions WHERE id = $1`
	row := r.q.QueryRow(ctx, query, id)

	var q domain.Question
	var results sql.NullString
	err := row.Scan(&q.ID, &q.SessionID, &q.CreatedAt, &q.FrameCount, &results)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("question: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning question: %w", err)
	}
	q.Results = rawResults(results)
	return &q, nil
}

func (r *PostgresQuestionRepo) ListBySession(ctx context.Context, sessionID string) ([]*domain.Question, error) {
	query := `SELECT id, session_id, created_at, frame_count, results
		FROM questions WHERE session_id = $1 ORDER BY created_at, id`
	rows, err := r.q.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("listing questions by session: %w", err)
	}
	defer rows.Close()

	var questions []*domain.Question
	for rows.Next() {
		var q domain.Question
		var results sql.NullString
		if err := rows.Scan(&q.ID, &q.SessionID, &q.CreatedAt, &q.FrameCount, &results); err != nil {
			return nil, fmt.Errorf("scanning question row: %w", err)
		}
		q.Results = rawResults(results)
		questions = append(questions, &q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating questions: %w", err)
	}
	return questions, nil
}

func (r *PostgresQuestionRepo) IncrementFrameCount(ctx context.Context, id string) error {
	_, err := r.q.Exec(ctx, `UPDATE questions SET frame_count = frame_count + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("incrementing question frame count: %w", err)
	}
	return nil
}

func (r *PostgresQuestionRepo) SetResults(ctx context.Context, id string, results []byte) error {
	_, err := r.q.Exec(ctx, `UPDATE questions SET results = $1 WHERE id = $2`,
		nullableBytes(results), id)
	if err != nil {
		return fmt.Errorf("storing question results: %w", err)
	}
	return nil
}
