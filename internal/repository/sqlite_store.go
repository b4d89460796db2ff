package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// SQLiteStore implements Store over a *sql.DB opened by db.OpenDB.
type SQLiteStore struct {
	db    *sql.DB
	repos *Repos
}

// NewSQLiteStore creates a Store backed by the given SQLite database.
func NewSQLiteStore(database *sql.DB) *SQLiteStore {
	return &SQLiteStore{
		db: database,
		repos: &Repos{
			Sessions:  NewSQLiteSessionRepo(database),
			Questions: NewSQLiteQuestionRepo(database),
			Frames:    NewSQLiteFrameRepo(database),
		},
	}
}

func (s *SQLiteStore) Repos() *Repos {
	return s.repos
}

// WithinTx runs fn against transaction-scoped repositories. Any error from fn
// rolls the transaction back.
func (s *SQLiteStore) WithinTx(ctx context.Context, fn func(ctx context.Context, r *Repos) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	txRepos := &Repos{
		Sessions:  NewSQLiteSessionRepo(tx),
		Questions: NewSQLiteQuestionRepo(tx),
		Frames:    NewSQLiteFrameRepo(tx),
	}

	if err := fn(ctx, txRepos); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

var _ Store = (*SQLiteStore)(nil)
