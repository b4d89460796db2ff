package service

import (
	"context"
	"time"

	"github.com/openmood/emoscope/internal/contract"
	"github.com/openmood/emoscope/internal/domain"
)

// RecordFrameInput is one pre-classified observation to append to a session.
// QuestionID may be empty for frames recorded directly against the session.
type RecordFrameInput struct {
	SessionID  string
	QuestionID string
	Emotion    domain.Emotion
	Confidence float64
}

// IngestImageInput is one raw image upload. The classifier assigns the label
// before the frame is recorded.
type IngestImageInput struct {
	SessionID  string
	QuestionID string
	Filename   string
	Image      []byte
}

// RecordedFrame reports the outcome of a frame write.
type RecordedFrame struct {
	FrameID    string
	SessionID  string
	QuestionID string
	Emotion    domain.Emotion
	Confidence float64
}

// SessionService drives the session lifecycle and frame ingestion.
type SessionService interface {
	// StartSession creates a new active session and returns its ID.
	StartSession(ctx context.Context) (*domain.Session, error)

	// EnsureQuestion registers a question under an active session. Calling
	// it for an existing question is a no-op; RecordFrame performs the same
	// registration implicitly for unseen question IDs.
	EnsureQuestion(ctx context.Context, sessionID, questionID string) error

	// RecordFrame appends a classified observation to an active session,
	// creating the referenced question on first use.
	RecordFrame(ctx context.Context, in RecordFrameInput) (*RecordedFrame, error)

	// IngestImage classifies an uploaded image and records the resulting
	// frame. The image itself is archived after the frame commits.
	IngestImage(ctx context.Context, in IngestImageInput) (*RecordedFrame, error)

	// EndSession finalizes an active session: per-question results are
	// computed and stored, then the session summary, then the session
	// transitions to completed. Exactly one concurrent caller wins.
	EndSession(ctx context.Context, sessionID string) (*contract.SessionResults, error)

	// PurgeSession removes a session and everything recorded under it.
	PurgeSession(ctx context.Context, sessionID string) error
}

// ResultsService serves computed statistics and listings.
type ResultsService interface {
	// GetQuestionResults returns stored results when present, otherwise
	// computes them from the question's frames and caches the outcome.
	GetQuestionResults(ctx context.Context, questionID string) (*contract.QuestionResults, error)

	// GetSessionResults returns the stored document verbatim for completed
	// sessions. When no stored document exists the results are recomputed
	// live and marked with the current session status; a completed session
	// additionally gets the recomputed document stored.
	GetSessionResults(ctx context.Context, sessionID string) (*contract.SessionResults, error)

	// ListSessions returns all sessions, newest first.
	ListSessions(ctx context.Context) ([]contract.SessionHead, error)

	// ListSessionQuestions returns the session's questions in creation
	// order, with stored results where available.
	ListSessionQuestions(ctx context.Context, sessionID string) ([]contract.QuestionHead, error)
}

// Health is the liveness report for the serving process.
type Health struct {
	Status              string    `json:"status"`
	ClassifierAvailable bool      `json:"classifier_available"`
	StoreConnected      bool      `json:"store_connected"`
	ServerTime          time.Time `json:"server_time"`
}

// SystemService reports process health.
type SystemService interface {
	Health(ctx context.Context) Health
}
