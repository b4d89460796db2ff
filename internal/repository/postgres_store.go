package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier is the subset of pgx operations shared by *pgxpool.Pool and pgx.Tx.
// Postgres repositories depend on it so the same code runs inside and outside
// a transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var (
	_ Querier = (*pgxpool.Pool)(nil)
	_ Querier = (pgx.Tx)(nil)
)

// PostgresStore implements Store over a pgx connection pool.
type PostgresStore struct {
	pool  *pgxpool.Pool
	repos *Repos
}

// ConnectPostgres opens a pgx pool for the given DSN, verifies connectivity
// and applies the schema.
func ConnectPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing postgres config: %w", err)
	}
	poolConfig.MaxConns = 25
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("creating postgres pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	if err := migratePostgres(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrating postgres schema: %w", err)
	}

	return &PostgresStore{
		pool: pool,
		repos: &Repos{
			Sessions:  NewPostgresSessionRepo(pool),
			Questions: NewPostgresQuestionRepo(pool),
			Frames:    NewPostgresFrameRepo(pool),
		},
	}, nil
}

func (s *PostgresStore) Repos() *Repos {
	return s.repos
}

func (s *PostgresStore) WithinTx(ctx context.Context, fn func(ctx context.Context, r *Repos) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	txRepos := &Repos{
		Sessions:  NewPostgresSessionRepo(tx),
		Questions: NewPostgresQuestionRepo(tx),
		Frames:    NewPostgresFrameRepo(tx),
	}

	if err := fn(ctx, txRepos); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the underlying pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

func migratePostgres(ctx context.Context, pool *pgxpool.Pool) error {
	for i, stmt := range postgresMigrations {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

var postgresMigrations = []string{
	`CREATE TABLE IF NOT EXISTS sessions (
		id          TEXT PRIMARY KEY,
		status      TEXT NOT NULL DEFAULT 'active'
		            CHECK(status IN ('active','completed')),
		started_at  TIMESTAMPTZ NOT NULL,
		ended_at    TIMESTAMPTZ,
		frame_count INTEGER NOT NULL DEFAULT 0,
		results     TEXT
	)`,

	`CREATE INDEX IF NOT EXISTS idx_sessions_started ON sessions(started_at)`,

	`CREATE TABLE IF NOT EXISTS questions (
		id          TEXT PRIMARY KEY,
		session_id  TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		created_at  TIMESTAMPTZ NOT NULL,
		frame_count INTEGER NOT NULL DEFAULT 0,
		results     TEXT
	)`,

	`CREATE INDEX IF NOT EXISTS idx_questions_session ON questions(session_id)`,

	`CREATE TABLE IF NOT EXISTS frames (
		id          TEXT PRIMARY KEY,
		session_id  TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		question_id TEXT REFERENCES questions(id) ON DELETE CASCADE,
		captured_at TIMESTAMPTZ NOT NULL,
		emotion     TEXT NOT NULL,
		confidence  DOUBLE PRECISION NOT NULL CHECK(confidence >= 0.0 AND confidence <= 1.0)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_frames_session ON frames(session_id)`,
	`CREATE INDEX IF NOT EXISTS idx_frames_question ON frames(question_id)`,
}

var _ Store = (*PostgresStore)(nil)
