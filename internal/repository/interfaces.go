package repository

import (
	"context"
	"time"

	"github.com/openmood/emoscope/internal/domain"
)

type SessionRepo interface {
	Create(ctx context.Context, s *domain.Session) error
	GetByID(ctx context.Context, id string) (*domain.Session, error)
	GetStatus(ctx context.Context, id string) (domain.SessionStatus, error)
	// IncrementFrameCountIfActive atomically bumps the frame counter, but
	// only while the session is still active. Returns false when the
	// session is completed or gone, so a surrounding transaction can roll
	// the whole frame write back.
	IncrementFrameCountIfActive(ctx context.Context, id string) (bool, error)
	// Complete transitions active -> completed, stamps ended_at and stores
	// the summary document. The write is conditional on the current status
	// being active; returns false if another caller won the transition.
	Complete(ctx context.Context, id string, endedAt time.Time, results []byte) (bool, error)
	SetResults(ctx context.Context, id string, results []byte) error
	Delete(ctx context.Context, id string) error
	ListByStartTimeDesc(ctx context.Context) ([]*domain.Session, error)
}

type QuestionRepo interface {
	// CreateIfAbsent inserts the question unless its ID already exists.
	// Re-referencing an existing ID is a no-op.
	CreateIfAbsent(ctx context.Context, q *domain.Question) error
	GetByID(ctx context.Context, id string) (*domain.Question, error)
	ListBySession(ctx context.Context, sessionID string) ([]*domain.Question, error)
	IncrementFrameCount(ctx context.Context, id string) error
	SetResults(ctx context.Context, id string, results []byte) error
}

type FrameRepo interface {
	Insert(ctx context.Context, f *domain.Frame) error
	ListByQuestion(ctx context.Context, questionID string) ([]*domain.Frame, error)
	ListBySession(ctx context.Context, sessionID string) ([]*domain.Frame, error)
}

// Repos bundles the per-entity repositories of one backend.
type Repos struct {
	Sessions  SessionRepo
	Questions QuestionRepo
	Frames    FrameRepo
}

// Store is the abstract record-store contract. Any backend satisfying it is
// substitutable: services never touch a driver directly. WithinTx hands the
// callback a Repos bundle scoped to one transaction; returning an error rolls
// everything back.
type Store interface {
	Repos() *Repos
	WithinTx(ctx context.Context, fn func(ctx context.Context, r *Repos) error) error
	Ping(ctx context.Context) error
}
