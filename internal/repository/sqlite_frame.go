package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/openmood/emoscope/internal/db"
	"github.com/openmood/emoscope/internal/domain"
)

// SQLiteFrameRepo implements FrameRepo using a SQLite database.
type SQLiteFrameRepo struct {
	db db.DBTX
}

// NewSQLiteFrameRepo creates a new SQLiteFrameRepo.
func NewSQLiteFrameRepo(conn db.DBTX) *SQLiteFrameRepo {
	return &SQLiteFrameRepo{db: conn}
}

func (r *SQLiteFrameRepo) Insert(ctx context.Context, f *domain.Frame) error {
	query := `INSERT INTO frames (id, session_id, question_id, captured_at, emotion, confidence)
		VALUES (?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		f.ID,
		f.SessionID,
		nullableString(f.QuestionID),
		f.CapturedAt.Format(time.RFC3339),
		string(f.Emotion),
		f.Confidence,
	)
	if err != nil {
		return fmt.Errorf("inserting frame: %w", err)
	}
	return nil
}

func (r *SQLiteFrameRepo) ListByQuestion(ctx context.Context, questionID string) ([]*domain.Frame, error) {
	query := `SELECT id, session_id, question_id, captured_at, emotion, confidence
		FROM frames WHERE question_id = ? ORDER BY captured_at, id`
	rows, err := r.db.QueryContext(ctx, query, questionID)
	if err != nil {
		return nil, fmt.Errorf("listing frames by question: %w", err)
	}
	defer rows.Close()
	return scanFrames(rows)
}

func (r *SQLiteFrameRepo) ListBySession(ctx context.Context, sessionID string) ([]*domain.Frame, error) {
	query := `SELECT id, session_id, question_id, captured_at, emotion, confidence
		FROM frames WHERE session_id = ? ORDER BY captured_at, id`
	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("listing frames by session: %w", err)
	}
	defer rows.Close()
	return scanFrames(rows)
}

func scanFrames(rows *sql.Rows) ([]*domain.Frame, error) {
	var frames []*domain.Frame
	for rows.Next() {
		var f domain.Frame
		var questionID sql.NullString
		var capturedAtStr, emotion string

		err := rows.Scan(&f.ID, &f.SessionID, &questionID, &capturedAtStr, &emotion, &f.Confidence)
		if err != nil {
			return nil, fmt.Errorf("scanning frame row: %w", err)
		}

		f.QuestionID = questionID.String
		f.Emotion = domain.Emotion(emotion)
		capturedAt, err := time.Parse(time.RFC3339, capturedAtStr)
		if err != nil {
			return nil, fmt.Errorf("parsing captured_at: %w", err)
		}
		f.CapturedAt = capturedAt

		frames = append(frames, &f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating frames: %w", err)
	}
	return frames, nil
}
