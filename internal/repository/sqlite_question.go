package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/openmood/emoscope/internal/db"
	"github.com/openmood/emoscope/internal/domain"
)

// SQLiteQuestionRepo implements QuestionRepo using a SQLite database.
type SQLiteQuestionRepo struct {
	db db.DBTX
}

// NewSQLiteQuestionRepo creates a new SQLiteQuestionRepo.
func NewSQLiteQuestionRepo(conn db.DBTX) *SQLiteQuestionRepo {
	return &SQLiteQuestionRepo{db: conn}
}

func (r *SQLiteQuestionRepo) CreateIfAbsent(ctx context.Context, q *domain.Question) error {
	query := `INSERT INTO questions (id, session_id, created_at, frame_count, results)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`
	_, err := r.db.ExecContext(ctx, query,
		q.ID,
		q.SessionID,
		q.CreatedAt.Format(time.RFC3339),
		q.FrameCount,
		nullableBytes(q.Results),
	)
	if err != nil {
		return fmt.Errorf("inserting question: %w", err)
	}
	return nil
}

func (r *SQLiteQuestionRepo) GetByID(ctx context.Context, id string) (*domain.Question, error) {
	query := `SELECT id, session_id, created_at, frame_count, results
		FROM questions WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)

	var q domain.Question
	var createdAtStr string
	var results sql.NullString
	err := row.Scan(&q.ID, &q.SessionID, &createdAtStr, &q.FrameCount, &results)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("question: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning question: %w", err)
	}
	return populateQuestion(&q, createdAtStr, results)
}

func (r *SQLiteQuestionRepo) ListBySession(ctx context.Context, sessionID string) ([]*domain.Question, error) {
	query := `SELECT id, session_id, created_at, frame_count, results
		FROM questions WHERE session_id = ? ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("listing questions by session: %w", err)
	}
	defer rows.Close()

	var questions []*domain.Question
	for rows.Next() {
		var q domain.Question
		var createdAtStr string
		var results sql.NullString
		if err := rows.Scan(&q.ID, &q.SessionID, &createdAtStr, &q.FrameCount, &results); err != nil {
			return nil, fmt.Errorf("scanning question row: %w", err)
		}
		question, err := populateQuestion(&q, createdAtStr, results)
		if err != nil {
			return nil, err
		}
		questions = append(questions, question)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating questions: %w", err)
	}
	return questions, nil
}

func (r *SQLiteQuestionRepo) IncrementFrameCount(ctx context.Context, id string) error {
	query := `UPDATE questions SET frame_count = frame_count + 1 WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("incrementing question frame count: %w", err)
	}
	return nil
}

func (r *SQLiteQuestionRepo) SetResults(ctx context.Context, id string, results []byte) error {
	_, err := r.db.ExecContext(ctx, `UPDATE questions SET results = ? WHERE id = ?`,
		nullableBytes(results), id)
	if err != nil {
		return fmt.Errorf("storing question results: %w", err)
	}
	return nil
}

func populateQuestion(q *domain.Question, createdAtStr string, results sql.NullString) (*domain.Question, error) {
	createdAt, err := time.Parse(time.RFC3339, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	q.CreatedAt = createdAt
	q.Results = rawResults(results)
	return q, nil
}
