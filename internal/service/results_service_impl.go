package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/openmood/emoscope/internal/analysis"
	"github.com/openmood/emoscope/internal/contract"
	"github.com/openmood/emoscope/internal/domain"
	"github.com/openmood/emoscope/internal/repository"
)

type resultsService struct {
	store    repository.Store
	observer Observer
}

// NewResultsService serves statistics and listings from the record store.
func NewResultsService(store repository.Store, observer Observer) ResultsService {
	return &resultsService{store: store, observer: observerOrNoop(observer)}
}

func (s *resultsService) GetQuestionResults(ctx context.Context, questionID string) (_ *contract.QuestionResults, err error) {
	start := time.Now()
	defer func() {
		observe(ctx, s.observer, "get_question_results", start, err, map[string]any{"question_id": questionID})
	}()
	if questionID == "" {
		return nil, fmt.Errorf("missing question id: %w", ErrInvalidInput)
	}

	repos := s.store.Repos()
	question, err := repos.Questions.GetByID(ctx, questionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("question %s: %w", questionID, ErrNotFound)
		}
		return nil, err
	}

	if len(question.Results) > 0 {
		var doc contract.QuestionResults
		if err := json.Unmarshal(question.Results, &doc); err != nil {
			return nil, fmt.Errorf("decoding stored question results: %w", err)
		}
		return &doc, nil
	}

	frames, err := repos.Frames.ListByQuestion(ctx, questionID)
	if err != nil {
		return nil, err
	}
	doc := contract.NewQuestionResults(questionID, analysis.Summarize(frames))

	// Write-back is a cache fill. The summary is a pure function of the
	// frames, so losing a race to another reader stores the same bytes.
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshaling question results: %w", err)
	}
	if err := repos.Questions.SetResults(ctx, questionID, data); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (s *resultsService) GetSessionResults(ctx context.Context, sessionID string) (_ *contract.SessionResults, err error) {
	start := time.Now()
	defer func() {
		observe(ctx, s.observer, "get_session_results", start, err, map[string]any{"session_id": sessionID})
	}()
	if sessionID == "" {
		return nil, fmt.Errorf("missing session id: %w", ErrInvalidInput)
	}

	repos := s.store.Repos()
	session, err := repos.Sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
		}
		return nil, err
	}

	if session.Status == domain.SessionCompleted && len(session.Results) > 0 {
		var doc contract.SessionResults
		if err := json.Unmarshal(session.Results, &doc); err != nil {
			return nil, fmt.Errorf("decoding stored session results: %w", err)
		}
		return &doc, nil
	}

	doc, err := s.liveSessionResults(ctx, repos, sessionID)
	if err != nil {
		return nil, err
	}

	// A completed session without stored results gets the recomputed
	// document written back; the frames are immutable, so the fill is
	// idempotent. The stored form never carries a status marker.
	if session.Status == domain.SessionCompleted {
		data, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("marshaling session results: %w", err)
		}
		if err := repos.Sessions.SetResults(ctx, sessionID, data); err != nil {
			return nil, err
		}
	}

	doc.SessionStatus = string(session.Status)
	return doc, nil
}

// liveSessionResults recomputes the session document from raw frames. Stored
// per-question results are reused when present so readers see the same
// breakdown EndSession would produce.
func (s *resultsService) liveSessionResults(ctx context.Context, repos *repository.Repos, sessionID string) (*contract.SessionResults, error) {
	questions, err := repos.Questions.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	breakdowns := make([]contract.QuestionBreakdown, 0, len(questions))
	for _, q := range questions {
		var doc contract.QuestionResults
		if len(q.Results) > 0 {
			if err := json.Unmarshal(q.Results, &doc); err != nil {
				return nil, fmt.Errorf("decoding stored question results: %w", err)
			}
		} else {
			frames, err := repos.Frames.ListByQuestion(ctx, q.ID)
			if err != nil {
				return nil, err
			}
			doc = contract.NewQuestionResults(q.ID, analysis.Summarize(frames))
		}
		breakdowns = append(breakdowns, doc.Breakdown())
	}

	frames, err := repos.Frames.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	summary := analysis.SummarizeSession(frames, len(questions))
	doc := contract.NewSessionResults(sessionID, summary, len(questions), breakdowns)
	return &doc, nil
}

func (s *resultsService) ListSessions(ctx context.Context) (_ []contract.SessionHead, err error) {
	start := time.Now()
	defer func() {
		observe(ctx, s.observer, "list_sessions", start, err, nil)
	}()

	sessions, err := s.store.Repos().Sessions.ListByStartTimeDesc(ctx)
	if err != nil {
		return nil, err
	}

	heads := make([]contract.SessionHead, 0, len(sessions))
	for _, session := range sessions {
		head := contract.SessionHead{
			SessionID:   session.ID,
			StartTime:   session.StartedAt.Format(time.RFC3339),
			Status:      string(session.Status),
			TotalImages: session.FrameCount,
		}
		if session.EndedAt != nil {
			end := session.EndedAt.Format(time.RFC3339)
			head.EndTime = &end
		}
		heads = append(heads, head)
	}
	return heads, nil
}

func (s *resultsService) ListSessionQuestions(ctx context.Context, sessionID string) (_ []contract.QuestionHead, err error) {
	start := time.Now()
	defer func() {
		observe(ctx, s.observer, "list_session_questions", start, err, map[string]any{"session_id": sessionID})
	}()
	if sessionID == "" {
		return nil, fmt.Errorf("missing session id: %w", ErrInvalidInput)
	}

	repos := s.store.Repos()
	if _, err := repos.Sessions.GetStatus(ctx, sessionID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
		}
		return nil, err
	}

	questions, err := repos.Questions.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	heads := make([]contract.QuestionHead, 0, len(questions))
	for _, q := range questions {
		head := contract.QuestionHead{
			QuestionID:  q.ID,
			Timestamp:   q.CreatedAt.Format(time.RFC3339),
			TotalFrames: q.FrameCount,
		}
		if len(q.Results) > 0 {
			var doc contract.QuestionResults
			if err := json.Unmarshal(q.Results, &doc); err == nil {
				head.Results = &doc
			}
		}
		heads = append(heads, head)
	}
	return heads, nil
}

var _ ResultsService = (*resultsService)(nil)
