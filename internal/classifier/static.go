package classifier

import (
	"context"
	"hash/fnv"

	"github.com/openmood/emoscope/internal/domain"
)

// StaticClassifier is a deterministic in-process Classifier used when no
// inference service is configured. It hashes the image bytes onto the label
// set so repeated uploads of the same image always classify the same way.
type StaticClassifier struct{}

// NewStaticClassifier creates a StaticClassifier.
func NewStaticClassifier() *StaticClassifier {
	return &StaticClassifier{}
}

func (StaticClassifier) Classify(_ context.Context, image []byte) (*Result, error) {
	h := fnv.New32a()
	_, _ = h.Write(image)
	sum := h.Sum32()

	emotion := domain.Emotions[int(sum)%len(domain.Emotions)]
	// Spread confidences over [0.50, 1.00) so summaries stay plausible.
	confidence := 0.5 + float64(sum%50)/100.0

	return &Result{Emotion: emotion, Confidence: confidence}, nil
}

func (StaticClassifier) Available(context.Context) bool {
	return true
}

var _ Classifier = (*StaticClassifier)(nil)
