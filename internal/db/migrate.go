package db

import (
	"database/sql"
	"fmt"
)

// Migrate runs all schema migrations.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS sessions (
		id          TEXT PRIMARY KEY,
		status      TEXT NOT NULL DEFAULT 'active'
		            CHECK(status IN ('active','completed')),
		started_at  TEXT NOT NULL,
		ended_at    TEXT,
		frame_count INTEGER NOT NULL DEFAULT 0,
		results     TEXT
	)`,

	`CREATE INDEX IF NOT EXISTS idx_sessions_started ON sessions(started_at)`,

	`CREATE TABLE IF NOT EXISTS questions (
		id          TEXT PRIMARY KEY,
		session_id  TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		created_at  TEXT NOT NULL,
		frame_count INTEGER NOT NULL DEFAULT 0,
		results     TEXT
	)`,

	`CREATE INDEX IF NOT EXISTS idx_questions_session ON questions(session_id)`,

	`CREATE TABLE IF NOT EXISTS frames (
		id          TEXT PRIMARY KEY,
		session_id  TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		question_id TEXT REFERENCES questions(id) ON DELETE CASCADE,
		captured_at TEXT NOT NULL,
		emotion     TEXT NOT NULL,
		confidence  REAL NOT NULL CHECK(confidence >= 0.0 AND confidence <= 1.0)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_frames_session ON frames(session_id)`,
	`CREATE INDEX IF NOT EXISTS idx_frames_question ON frames(question_id)`,
}
