// Package contract defines the JSON documents the API serves and the store
// persists. Completed sessions keep their results verbatim, so these shapes
// double as the storage format for the results columns.
package contract

import (
	"github.com/openmood/emoscope/internal/analysis"
	"github.com/openmood/emoscope/internal/domain"
)

// NoneLabel stands in for an emotion when a result set has no frames.
const NoneLabel = "None"

// Summary is the narrative block attached to both question and session
// results.
type Summary struct {
	MostCommonEmotion   string   `json:"most_common_emotion"`
	LeastCommonEmotion  string   `json:"least_common_emotion"`
	EmotionVariability  string   `json:"emotion_variability"`
	OverallTrend        string   `json:"overall_trend"`
	NotableObservations []string `json:"notable_observations"`
}

// QuestionResults is the full statistical report for one question.
type QuestionResults struct {
	QuestionID          string         `json:"question_id"`
	TotalFrames         int            `json:"total_frames"`
	AverageEmotion      string         `json:"average_emotion"`
	AverageConfidence   float64        `json:"average_confidence"`
	EmotionDistribution map[string]int `json:"emotion_distribution"`
	Summary             Summary        `json:"summary"`
}

// QuestionBreakdown is the condensed per-question entry embedded in session
// results.
type QuestionBreakdown struct {
	QuestionID          string         `json:"question_id"`
	TotalFrames         int            `json:"total_frames"`
	AverageEmotion      string         `json:"average_emotion"`
	EmotionDistribution map[string]int `json:"emotion_distribution"`
}

// SessionResults is the full statistical report for a session. SessionStatus
// is set only when results are computed live for a still-active session;
// stored results for completed sessions omit it.
type SessionResults struct {
	SessionID           string              `json:"session_id"`
	TotalQuestions      int                 `json:"total_questions"`
	TotalFrames         int                 `json:"total_frames"`
	AverageEmotion      string              `json:"average_emotion"`
	AverageConfidence   float64             `json:"average_confidence"`
	EmotionDistribution map[string]int      `json:"emotion_distribution"`
	Questions           []QuestionBreakdown `json:"questions"`
	Summary             Summary             `json:"summary"`
	SessionStatus       string              `json:"session_status,omitempty"`
}

// SessionHead is the listing entry for one session.
type SessionHead struct {
	SessionID   string  `json:"session_id"`
	StartTime   string  `json:"start_time"`
	EndTime     *string `json:"end_time"`
	Status      string  `json:"status"`
	TotalImages int     `json:"total_images"`
}

// QuestionHead is the listing entry for one question, including its stored
// results when present.
type QuestionHead struct {
	QuestionID  string           `json:"question_id"`
	Timestamp   string           `json:"timestamp"`
	TotalFrames int              `json:"total_frames"`
	Results     *QuestionResults `json:"results,omitempty"`
}

// NewQuestionResults builds the question document from a computed summary.
func NewQuestionResults(questionID string, s analysis.Summary) QuestionResults {
	return QuestionResults{
		QuestionID:          questionID,
		TotalFrames:         s.TotalFrames,
		AverageEmotion:      emotionLabel(s.Dominant, s),
		AverageConfidence:   s.AverageConfidence,
		EmotionDistribution: distributionLabels(s.Distribution),
		Summary:             newSummary(s),
	}
}

// NewSessionResults builds the session document from a computed summary and
// the per-question breakdown.
func NewSessionResults(sessionID string, s analysis.Summary, totalQuestions int, questions []QuestionBreakdown) SessionResults {
	if questions == nil {
		questions = []QuestionBreakdown{}
	}
	return SessionResults{
		SessionID:           sessionID,
		TotalQuestions:      totalQuestions,
		TotalFrames:         s.TotalFrames,
		AverageEmotion:      emotionLabel(s.Dominant, s),
		AverageConfidence:   s.AverageConfidence,
		EmotionDistribution: distributionLabels(s.Distribution),
		Questions:           questions,
		Summary:             newSummary(s),
	}
}

// Breakdown condenses question results into the session embedding.
func (q QuestionResults) Breakdown() QuestionBreakdown {
	return QuestionBreakdown{
		QuestionID:          q.QuestionID,
		TotalFrames:         q.TotalFrames,
		AverageEmotion:      q.AverageEmotion,
		EmotionDistribution: q.EmotionDistribution,
	}
}

func newSummary(s analysis.Summary) Summary {
	obs := s.Observations
	if obs == nil {
		obs = []string{}
	}
	return Summary{
		MostCommonEmotion:   emotionLabel(s.Dominant, s),
		LeastCommonEmotion:  emotionLabel(s.LeastCommon, s),
		EmotionVariability:  s.Variability,
		OverallTrend:        s.Trend,
		NotableObservations: obs,
	}
}

func emotionLabel(e domain.Emotion, s analysis.Summary) string {
	if s.Empty() {
		return NoneLabel
	}
	return string(e)
}

func distributionLabels(dist map[domain.Emotion]int) map[string]int {
	out := make(map[string]int, len(dist))
	for e, n := range dist {
		out[string(e)] = n
	}
	return out
}
