package analysis

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openmood/emoscope/internal/domain"
)

func frame(e domain.Emotion, confidence float64) *domain.Frame {
	return &domain.Frame{Emotion: e, Confidence: confidence}
}

func TestSummarize_BasicStatistics(t *testing.T) {
	frames := []*domain.Frame{
		frame(domain.Happy, 0.9),
		frame(domain.Happy, 0.8),
		frame(domain.Sad, 0.4),
	}

	s := Summarize(frames)

	require.False(t, s.Empty())
	assert.Equal(t, 3, s.TotalFrames)
	assert.Equal(t, map[domain.Emotion]int{domain.Happy: 2, domain.Sad: 1}, s.Distribution)
	assert.Equal(t, domain.Happy, s.Dominant)
	assert.Equal(t, domain.Sad, s.LeastCommon)
	assert.InDelta(t, 0.70, s.AverageConfidence, 1e-9)
	assert.Equal(t, VariabilityStable, s.Variability)
	assert.Equal(t, TrendPositive, s.Trend)
	assert.Equal(t, []string{
		"Happy was the dominant emotion.",
		"Detected 2 different emotions.",
		"Average confidence level: 70.0%",
	}, s.Observations)
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)

	assert.True(t, s.Empty())
	assert.Equal(t, 0, s.TotalFrames)
	assert.Empty(t, s.Distribution)
	assert.Equal(t, NoEmotions, s.Variability)
	assert.Equal(t, NoEmotions, s.Trend)
	assert.Empty(t, s.Observations)
}

func TestSummarize_OrderIndependent(t *testing.T) {
	frames := []*domain.Frame{
		frame(domain.Angry, 0.3),
		frame(domain.Happy, 0.9),
		frame(domain.Neutral, 0.5),
		frame(domain.Happy, 0.7),
		frame(domain.Sad, 0.6),
	}

	want := Summarize(frames)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 10; i++ {
		shuffled := make([]*domain.Frame, len(frames))
		copy(shuffled, frames)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})
		assert.Equal(t, want, Summarize(shuffled))
	}
}

func TestSummarize_TieBreaksResolveToCanonicalOrder(t *testing.T) {
	// Happy and Sad tie on both max and min. Happy precedes Sad in the
	// classifier's label order, so it wins both.
	frames := []*domain.Frame{
		frame(domain.Sad, 0.5),
		frame(domain.Happy, 0.5),
	}

	s := Summarize(frames)

	assert.Equal(t, domain.Happy, s.Dominant)
	assert.Equal(t, domain.Happy, s.LeastCommon)
}

func TestSummarize_DistributionSumsToTotal(t *testing.T) {
	frames := []*domain.Frame{
		frame(domain.Fear, 0.2),
		frame(domain.Fear, 0.4),
		frame(domain.Disgust, 0.8),
		frame(domain.Neutral, 0.6),
	}

	s := Summarize(frames)

	sum := 0
	for _, n := range s.Distribution {
		sum += n
	}
	assert.Equal(t, s.TotalFrames, sum)
}

func TestClassifyVariability(t *testing.T) {
	tests := []struct {
		name     string
		emotions []domain.Emotion
		want     string
	}{
		{"single emotion", []domain.Emotion{domain.Happy}, VariabilityStable},
		{"two emotions", []domain.Emotion{domain.Happy, domain.Sad}, VariabilityStable},
		{"three emotions", []domain.Emotion{domain.Happy, domain.Sad, domain.Fear}, VariabilityModerate},
		{"four emotions", []domain.Emotion{domain.Happy, domain.Sad, domain.Fear, domain.Angry}, VariabilityModerate},
		{"five emotions", []domain.Emotion{domain.Happy, domain.Sad, domain.Fear, domain.Angry, domain.Neutral}, VariabilityHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var frames []*domain.Frame
			for _, e := range tt.emotions {
				frames = append(frames, frame(e, 0.5))
			}
			assert.Equal(t, tt.want, Summarize(frames).Variability)
		})
	}
}

func TestClassifyTrend(t *testing.T) {
	tests := []struct {
		name   string
		frames []*domain.Frame
		want   string
	}{
		{
			"predominantly positive",
			[]*domain.Frame{frame(domain.Happy, 0.9), frame(domain.Surprise, 0.8), frame(domain.Sad, 0.4)},
			TrendPositive,
		},
		{
			"predominantly negative",
			[]*domain.Frame{frame(domain.Sad, 0.9), frame(domain.Angry, 0.8), frame(domain.Fear, 0.7), frame(domain.Happy, 0.4)},
			TrendNegative,
		},
		{
			"neutral dilutes both shares",
			[]*domain.Frame{frame(domain.Happy, 0.9), frame(domain.Neutral, 0.8), frame(domain.Neutral, 0.7)},
			TrendMixed,
		},
		{
			// 3 of 5 positive is exactly 0.6: the threshold is strict.
			"exact threshold stays mixed",
			[]*domain.Frame{
				frame(domain.Happy, 0.5), frame(domain.Happy, 0.5), frame(domain.Surprise, 0.5),
				frame(domain.Sad, 0.5), frame(domain.Neutral, 0.5),
			},
			TrendMixed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Summarize(tt.frames).Trend)
		})
	}
}

func TestSummarizeSession_QuestionScopedWording(t *testing.T) {
	frames := []*domain.Frame{
		frame(domain.Happy, 0.8),
		frame(domain.Sad, 0.6),
	}

	s := SummarizeSession(frames, 2)

	require.False(t, s.Empty())
	assert.Equal(t, []string{
		"Happy was the dominant emotion across all questions.",
		"Detected 2 different emotions across 2 questions.",
		"Average confidence level: 70.0%",
	}, s.Observations)
}

func TestSummarizeSession_NoQuestionsFallsBackToPlainWording(t *testing.T) {
	s := SummarizeSession([]*domain.Frame{frame(domain.Neutral, 0.5)}, 0)

	assert.Equal(t, []string{
		"Neutral was the dominant emotion.",
		"Detected 1 different emotions.",
		"Average confidence level: 50.0%",
	}, s.Observations)
}

func TestSummarize_AverageConfidenceRounding(t *testing.T) {
	frames := []*domain.Frame{
		frame(domain.Happy, 0.333),
		frame(domain.Happy, 0.333),
		frame(domain.Happy, 0.333),
	}

	s := Summarize(frames)
	assert.InDelta(t, 0.33, s.AverageConfidence, 1e-9)
}
