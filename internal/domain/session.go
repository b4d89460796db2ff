package domain

import (
	"encoding/json"
	"time"
)

type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
)

// Session is a bounded unit of data collection. Status moves one way:
// active -> completed.
type Session struct {
	ID         string
	Status     SessionStatus
	StartedAt  time.Time
	EndedAt    *time.Time
	FrameCount int
	// Results holds the cached summary document exactly as it was
	// serialized, so a completed session can be served verbatim.
	Results json.RawMessage
}

// Question is an optional sub-grouping of frames within a session. Its ID is
// caller-supplied; the first frame referencing an unseen ID creates it.
type Question struct {
	ID         string
	SessionID  string
	CreatedAt  time.Time
	FrameCount int
	Results    json.RawMessage
}

// Frame is a single classifier result. Immutable once written; QuestionID is
// empty when the frame attaches directly to the session.
type Frame struct {
	ID         string
	SessionID  string
	QuestionID string
	CapturedAt time.Time
	Emotion    Emotion
	Confidence float64
}
