package analysis

import (
	"fmt"
	"math"
	"sort"

	"github.com/openmood/emoscope/internal/domain"
)

// Classification strings reported in summaries. These are part of the API
// response contract.
const (
	TrendPositive = "Predominantly positive emotions"
	TrendNegative = "Predominantly negative emotions"
	TrendMixed    = "Mixed emotional state"

	VariabilityStable   = "Stable emotional state"
	VariabilityModerate = "Moderate mood fluctuations"
	VariabilityHigh     = "High emotional variability"

	NoEmotions = "No emotions detected"
)

// trendThreshold is the strict share above which a trend counts as
// predominantly positive or negative.
const trendThreshold = 0.6

// Summary is the derived statistical report over a set of frames. It is a
// deterministic, order-independent function of its input: the same frame set
// always produces the same Summary regardless of slice order.
type Summary struct {
	TotalFrames       int
	Distribution      map[domain.Emotion]int
	Dominant          domain.Emotion
	LeastCommon       domain.Emotion
	AverageConfidence float64
	Variability       string
	Trend             string
	Observations      []string
}

// Empty reports whether the summary is the designated no-data result.
// Callers must branch on this before reading Dominant or LeastCommon.
func (s Summary) Empty() bool {
	return s.TotalFrames == 0
}

// Summarize computes the statistical summary for a question-scoped frame set.
func Summarize(frames []*domain.Frame) Summary {
	s := compute(frames)
	if s.Empty() {
		return s
	}
	s.Observations = []string{
		fmt.Sprintf("%s was the dominant emotion.", s.Dominant),
		fmt.Sprintf("Detected %d different emotions.", len(s.Distribution)),
		confidenceObservation(s.AverageConfidence),
	}
	return s
}

// SummarizeSession computes the session-level summary over the union of all
// frames across the session's questions. It recomputes from raw frames rather
// than combining per-question summaries, so rounding never compounds.
// questionCount scopes the observation wording; pass 0 for sessions whose
// frames attach directly to the session.
func SummarizeSession(frames []*domain.Frame, questionCount int) Summary {
	s := compute(frames)
	if s.Empty() {
		return s
	}
	if questionCount > 0 {
		s.Observations = []string{
			fmt.Sprintf("%s was the dominant emotion across all questions.", s.Dominant),
			fmt.Sprintf("Detected %d different emotions across %d questions.", len(s.Distribution), questionCount),
			confidenceObservation(s.AverageConfidence),
		}
		return s
	}
	s.Observations = []string{
		fmt.Sprintf("%s was the dominant emotion.", s.Dominant),
		fmt.Sprintf("Detected %d different emotions.", len(s.Distribution)),
		confidenceObservation(s.AverageConfidence),
	}
	return s
}

func compute(frames []*domain.Frame) Summary {
	s := Summary{Distribution: make(map[domain.Emotion]int)}
	if len(frames) == 0 {
		s.Variability = NoEmotions
		s.Trend = NoEmotions
		return s
	}

	var confidenceSum float64
	for _, f := range frames {
		s.Distribution[f.Emotion]++
		confidenceSum += f.Confidence
	}
	s.TotalFrames = len(frames)
	s.AverageConfidence = round2(confidenceSum / float64(len(frames)))
	s.Dominant, s.LeastCommon = extremes(s.Distribution)
	s.Variability = classifyVariability(len(s.Distribution))
	s.Trend = classifyTrend(s.Distribution, s.TotalFrames)
	return s
}

// extremes returns the most and least common observed labels. Ties resolve to
// the lowest canonical label index, so the result does not depend on map
// iteration order.
func extremes(dist map[domain.Emotion]int) (dominant, least domain.Emotion) {
	observed := make([]domain.Emotion, 0, len(dist))
	for e := range dist {
		observed = append(observed, e)
	}
	sort.Slice(observed, func(i, j int) bool {
		ci, cj := observed[i].CanonicalIndex(), observed[j].CanonicalIndex()
		if ci != cj {
			return ci < cj
		}
		return observed[i] < observed[j]
	})

	dominant, least = observed[0], observed[0]
	for _, e := range observed[1:] {
		if dist[e] > dist[dominant] {
			dominant = e
		}
		if dist[e] < dist[least] {
			least = e
		}
	}
	return dominant, least
}

func classifyVariability(distinct int) string {
	switch {
	case distinct >= 5:
		return VariabilityHigh
	case distinct >= 3:
		return VariabilityModerate
	case distinct > 0:
		return VariabilityStable
	default:
		return NoEmotions
	}
}

func classifyTrend(dist map[domain.Emotion]int, total int) string {
	var positive, negative int
	for _, e := range domain.PositiveEmotions {
		positive += dist[e]
	}
	for _, e := range domain.NegativeEmotions {
		negative += dist[e]
	}
	switch {
	case float64(positive)/float64(total) > trendThreshold:
		return TrendPositive
	case float64(negative)/float64(total) > trendThreshold:
		return TrendNegative
	default:
		return TrendMixed
	}
}

func confidenceObservation(avg float64) string {
	return fmt.Sprintf("Average confidence level: %.1f%%", round1(avg*100))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
