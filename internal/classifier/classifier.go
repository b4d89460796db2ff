// Package classifier abstracts the emotion inference backend. The server
// treats it as a black box that maps an image to a label and a confidence.
package classifier

import (
	"context"
	"errors"
	"time"

	"github.com/openmood/emoscope/internal/domain"
)

var (
	// ErrUnavailable indicates the inference backend could not be reached.
	ErrUnavailable = errors.New("classifier unavailable")
	// ErrTimeout indicates the inference call exceeded its deadline.
	ErrTimeout = errors.New("classifier timeout")
	// ErrInvalidOutput indicates the backend returned a malformed result.
	ErrInvalidOutput = errors.New("invalid classifier output")
)

// Result is a single classification outcome.
type Result struct {
	Emotion    domain.Emotion
	Confidence float64
}

// Classifier scores an image against the emotion label set.
type Classifier interface {
	// Classify returns the top label for the given image bytes.
	Classify(ctx context.Context, image []byte) (*Result, error)

	// Available checks whether the inference backend is reachable.
	Available(ctx context.Context) bool
}

// Config holds inference backend settings.
type Config struct {
	Endpoint   string
	Timeout    time.Duration
	MaxRetries int
}

// resultFromScores picks the top entry of a score vector ordered like
// domain.Emotions. Ties resolve to the lowest index.
func resultFromScores(scores []float64) (*Result, error) {
	if len(scores) != len(domain.Emotions) {
		return nil, ErrInvalidOutput
	}
	best := 0
	for i, v := range scores {
		if v > scores[best] {
			best = i
		}
	}
	if scores[best] < 0 || scores[best] > 1 {
		return nil, ErrInvalidOutput
	}
	return &Result{
		Emotion:    domain.Emotions[best],
		Confidence: scores[best],
	}, nil
}
