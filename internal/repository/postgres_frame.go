package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/openmood/emoscope/internal/domain"
)

// PostgresFrameRepo implements FrameRepo using a Postgres querier.
type PostgresFrameRepo struct {
	q Querier
}

// NewPostgresFrameRepo creates a new PostgresFrameRepo.
func NewPostgresFrameRepo(q Querier) *PostgresFrameRepo {
	return &PostgresFrameRepo{q: q}
}

func (r *PostgresFrameRepo) Insert(ctx context.Context, f *domain.Frame) error {
	query := `INSERT INTO frames (id, session_id, question_id, captured_at, emotion, confidence)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.q.Exec(ctx, query,
		f.ID,
		f.SessionID,
		nullableString(f.QuestionID),
		f.CapturedAt,
		string(f.Emotion),
		f.Confidence,
	)
	if err != nil {
		return fmt.Errorf("inserting frame: %w", err)
	}
	return nil
}

func (r *PostgresFrameRepo) ListByQuestion(ctx context.Context, questionID string) ([]*domain.Frame, error) {
	query := `SELECT id, session_id, question_id, captured_at, emotion, confidence
		FROM frames WHERE question_id = $1 ORDER BY captured_at, id`
	return r.list(ctx, query, questionID)
}

func (r *PostgresFrameRepo) ListBySession(ctx context.Context, sessionID string) ([]*domain.Frame, error) {
	query := `SELECT id, session_id, question_id, captured_at, emotion, confidence
		FROM frames WHERE session_id = $1 ORDER BY captured_at, id`
	return r.list(ctx, query, sessionID)
}

func (r *PostgresFrameRepo) list(ctx context.Context, query string, arg any) ([]*domain.Frame, error) {
	rows, err := r.q.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("listing frames: %w", err)
	}
	defer rows.Close()

	var frames []*domain.Frame
	for rows.Next() {
		var f domain.Frame
		var questionID sql.NullString
		var emotion string

		err := rows.Scan(&f.ID, &f.SessionID, &questionID, &f.CapturedAt, &emotion, &f.Confidence)
		if err != nil {
			return nil, fmt.Errorf("scanning frame row: %w", err)
		}
		f.QuestionID = questionID.String
		f.Emotion = domain.Emotion(emotion)
		frames = append(frames, &f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating frames: %w", err)
	}
	return frames, nil
}
