package testutil

import (
	"time"

	"github.com/google/uuid"

	"github.com/openmood/emoscope/internal/domain"
)

// Session options
type SessionOption func(*domain.Session)

func WithSessionStatus(s domain.SessionStatus) SessionOption {
	return func(sess *domain.Session) {
		sess.Status = s
	}
}

func WithStartedAt(t time.Time) SessionOption {
	return func(sess *domain.Session) {
		sess.StartedAt = t
	}
}

func WithEndedAt(t time.Time) SessionOption {
	return func(sess *domain.Session) {
		sess.EndedAt = &t
	}
}

func WithSessionResults(results []byte) SessionOption {
	return func(sess *domain.Session) {
		sess.Results = results
	}
}

func NewTestSession(opts ...SessionOption) *domain.Session {
	s := &domain.Session{
		ID:        uuid.New().String(),
		Status:    domain.SessionActive,
		StartedAt: time.Now().UTC().Truncate(time.Second),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Question options
type QuestionOption func(*domain.Question)

func WithQuestionID(id string) QuestionOption {
	return func(q *domain.Question) {
		q.ID = id
	}
}

func WithQuestionResults(results []byte) QuestionOption {
	return func(q *domain.Question) {
		q.Results = results
	}
}

func NewTestQuestion(sessionID string, opts ...QuestionOption) *domain.Question {
	q := &domain.Question{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Frame options
type FrameOption func(*domain.Frame)

func WithQuestion(questionID string) FrameOption {
	return func(f *domain.Frame) {
		f.QuestionID = questionID
	}
}

func WithCapturedAt(t time.Time) FrameOption {
	return func(f *domain.Frame) {
		f.CapturedAt = t
	}
}

func NewTestFrame(sessionID string, emotion domain.Emotion, confidence float64, opts ...FrameOption) *domain.Frame {
	f := &domain.Frame{
		ID:         uuid.New().String(),
		SessionID:  sessionID,
		CapturedAt: time.Now().UTC().Truncate(time.Second),
		Emotion:    emotion,
		Confidence: confidence,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}
