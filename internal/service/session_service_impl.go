package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/openmood/emoscope/internal/analysis"
	"github.com/openmood/emoscope/internal/classifier"
	"github.com/openmood/emoscope/internal/contract"
	"github.com/openmood/emoscope/internal/domain"
	"github.com/openmood/emoscope/internal/imagestore"
	"github.com/openmood/emoscope/internal/repository"
)

type sessionService struct {
	store      repository.Store
	classifier classifier.Classifier
	images     *imagestore.Store
	observer   Observer
	logger     *slog.Logger
	now        func() time.Time
}

// NewSessionService wires the session lifecycle over the record store.
// images may be nil when image archival is disabled.
func NewSessionService(store repository.Store, cls classifier.Classifier, images *imagestore.Store, observer Observer, logger *slog.Logger) SessionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &sessionService{
		store:      store,
		classifier: cls,
		images:     images,
		observer:   observerOrNoop(observer),
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *sessionService) StartSession(ctx context.Context) (_ *domain.Session, err error) {
	start := s.now()
	session := &domain.Session{
		ID:        uuid.New().String(),
		Status:    domain.SessionActive,
		StartedAt: start,
	}
	defer func() {
		observe(ctx, s.observer, "start_session", start, err, map[string]any{"session_id": session.ID})
	}()

	if err = s.store.Repos().Sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	if s.images != nil {
		if dirErr := s.images.EnsureSession(session.ID); dirErr != nil {
			s.logger.Warn("session image directory not created",
				"session_id", session.ID, "error", dirErr)
		}
	}
	return session, nil
}

func (s *sessionService) EnsureQuestion(ctx context.Context, sessionID, questionID string) (err error) {
	start := s.now()
	defer func() {
		observe(ctx, s.observer, "ensure_question", start, err, map[string]any{
			"session_id": sessionID, "question_id": questionID,
		})
	}()
	if sessionID == "" || questionID == "" {
		return fmt.Errorf("missing session or question id: %w", ErrInvalidInput)
	}

	return s.store.WithinTx(ctx, func(ctx context.Context, r *repository.Repos) error {
		status, err := r.Sessions.GetStatus(ctx, sessionID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
			}
			return err
		}
		if status != domain.SessionActive {
			return fmt.Errorf("session is %s: %w", status, ErrInvalidState)
		}
		if err := r.Questions.CreateIfAbsent(ctx, &domain.Question{
			ID:        questionID,
			SessionID: sessionID,
			CreatedAt: s.now(),
		}); err != nil {
			return err
		}
		return verifyQuestionOwner(ctx, r, questionID, sessionID)
	})
}

// verifyQuestionOwner guards against a question ID already registered under
// another session: CreateIfAbsent silently no-ops on conflict, so the row must
// be read back to confirm it belongs to the caller's session.
func verifyQuestionOwner(ctx context.Context, r *repository.Repos, questionID, sessionID string) error {
	question, err := r.Questions.GetByID(ctx, questionID)
	if err != nil {
		return err
	}
	if question.SessionID != sessionID {
		return fmt.Errorf("question %s belongs to another session: %w", questionID, ErrInvalidInput)
	}
	return nil
}

func (s *sessionService) RecordFrame(ctx context.Context, in RecordFrameInput) (_ *RecordedFrame, err error) {
	start := s.now()
	defer func() {
		observe(ctx, s.observer, "record_frame", start, err, map[string]any{
			"session_id": in.SessionID, "question_id": in.QuestionID,
		})
	}()
	return s.record(ctx, in)
}

func (s *sessionService) IngestImage(ctx context.Context, in IngestImageInput) (_ *RecordedFrame, err error) {
	start := s.now()
	defer func() {
		observe(ctx, s.observer, "ingest_image", start, err, map[string]any{
			"session_id": in.SessionID, "question_id": in.QuestionID,
		})
	}()

	if len(in.Image) == 0 {
		return nil, fmt.Errorf("empty image: %w", ErrInvalidInput)
	}
	if in.Filename != "" && !imagestore.AllowedExtension(in.Filename) {
		return nil, fmt.Errorf("file type not allowed: %w", ErrInvalidInput)
	}

	result, err := s.classifier.Classify(ctx, in.Image)
	if err != nil {
		if errors.Is(err, classifier.ErrUnavailable) || errors.Is(err, classifier.ErrTimeout) {
			return nil, fmt.Errorf("classifier: %w", ErrUnavailable)
		}
		return nil, fmt.Errorf("classifying image: %w", err)
	}

	frame, err := s.record(ctx, RecordFrameInput{
		SessionID:  in.SessionID,
		QuestionID: in.QuestionID,
		Emotion:    result.Emotion,
		Confidence: result.Confidence,
	})
	if err != nil {
		return nil, err
	}

	// Archival is best effort. The frame is already committed and losing
	// the image never invalidates it.
	if s.images != nil {
		if _, saveErr := s.images.SaveFrame(frame.SessionID, frame.QuestionID, frame.FrameID, in.Image); saveErr != nil {
			s.logger.Warn("frame image not archived",
				"session_id", frame.SessionID, "frame_id", frame.FrameID, "error", saveErr)
		}
	}
	return frame, nil
}

// record runs the frame write transaction shared by RecordFrame and
// IngestImage. The conditional counter update doubles as the active-state
// check: if the session completes between the status read and the insert, the
// update matches zero rows and the whole transaction rolls back.
func (s *sessionService) record(ctx context.Context, in RecordFrameInput) (*RecordedFrame, error) {
	if in.SessionID == "" {
		return nil, fmt.Errorf("missing session id: %w", ErrInvalidInput)
	}
	if in.Emotion.CanonicalIndex() >= len(domain.Emotions) {
		return nil, fmt.Errorf("unknown emotion %q: %w", in.Emotion, ErrInvalidInput)
	}
	if math.IsNaN(in.Confidence) || in.Confidence < 0 || in.Confidence > 1 {
		return nil, fmt.Errorf("confidence %v out of range: %w", in.Confidence, ErrInvalidInput)
	}

	now := s.now()
	frame := &domain.Frame{
		ID:         uuid.New().String(),
		SessionID:  in.SessionID,
		QuestionID: in.QuestionID,
		CapturedAt: now,
		Emotion:    in.Emotion,
		Confidence: in.Confidence,
	}

	err := s.store.WithinTx(ctx, func(ctx context.Context, r *repository.Repos) error {
		status, err := r.Sessions.GetStatus(ctx, in.SessionID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("session %s: %w", in.SessionID, ErrNotFound)
			}
			return err
		}
		if status != domain.SessionActive {
			return fmt.Errorf("session is %s: %w", status, ErrInvalidState)
		}

		if in.QuestionID != "" {
			question := &domain.Question{
				ID:        in.QuestionID,
				SessionID: in.SessionID,
				CreatedAt: now,
			}
			if err := r.Questions.CreateIfAbsent(ctx, question); err != nil {
				return err
			}
			if err := verifyQuestionOwner(ctx, r, in.QuestionID, in.SessionID); err != nil {
				return err
			}
		}

		if err := r.Frames.Insert(ctx, frame); err != nil {
			return err
		}

		ok, err := r.Sessions.IncrementFrameCountIfActive(ctx, in.SessionID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("session completed concurrently: %w", ErrInvalidState)
		}

		if in.QuestionID != "" {
			if err := r.Questions.IncrementFrameCount(ctx, in.QuestionID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &RecordedFrame{
		FrameID:    frame.ID,
		SessionID:  frame.SessionID,
		QuestionID: frame.QuestionID,
		Emotion:    frame.Emotion,
		Confidence: frame.Confidence,
	}, nil
}

func (s *sessionService) EndSession(ctx context.Context, sessionID string) (_ *contract.SessionResults, err error) {
	start := s.now()
	defer func() {
		observe(ctx, s.observer, "end_session", start, err, map[string]any{"session_id": sessionID})
	}()
	if sessionID == "" {
		return nil, fmt.Errorf("missing session id: %w", ErrInvalidInput)
	}

	var out contract.SessionResults
	err = s.store.WithinTx(ctx, func(ctx context.Context, r *repository.Repos) error {
		status, err := r.Sessions.GetStatus(ctx, sessionID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
			}
			return err
		}
		if status != domain.SessionActive {
			return fmt.Errorf("session is already %s: %w", status, ErrInvalidState)
		}

		questions, err := r.Questions.ListBySession(ctx, sessionID)
		if err != nil {
			return err
		}

		breakdowns := make([]contract.QuestionBreakdown, 0, len(questions))
		for _, q := range questions {
			frames, err := r.Frames.ListByQuestion(ctx, q.ID)
			if err != nil {
				return err
			}
			doc := contract.NewQuestionResults(q.ID, analysis.Summarize(frames))
			data, err := json.Marshal(doc)
			if err != nil {
				return fmt.Errorf("marshaling question results: %w", err)
			}
			if err := r.Questions.SetResults(ctx, q.ID, data); err != nil {
				return err
			}
			breakdowns = append(breakdowns, doc.Breakdown())
		}

		frames, err := r.Frames.ListBySession(ctx, sessionID)
		if err != nil {
			return err
		}
		summary := analysis.SummarizeSession(frames, len(questions))
		out = contract.NewSessionResults(sessionID, summary, len(questions), breakdowns)

		data, err := json.Marshal(out)
		if err != nil {
			return fmt.Errorf("marshaling session results: %w", err)
		}
		ok, err := r.Sessions.Complete(ctx, sessionID, s.now(), data)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("session completed concurrently: %w", ErrInvalidState)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *sessionService) PurgeSession(ctx context.Context, sessionID string) (err error) {
	start := s.now()
	defer func() {
		observe(ctx, s.observer, "purge_session", start, err, map[string]any{"session_id": sessionID})
	}()
	if sessionID == "" {
		return fmt.Errorf("missing session id: %w", ErrInvalidInput)
	}

	err = s.store.WithinTx(ctx, func(ctx context.Context, r *repository.Repos) error {
		if _, err := r.Sessions.GetStatus(ctx, sessionID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
			}
			return err
		}
		// Questions and frames go with the session via cascade.
		return r.Sessions.Delete(ctx, sessionID)
	})
	if err != nil {
		return err
	}

	if s.images != nil {
		if rmErr := s.images.RemoveSession(sessionID); rmErr != nil {
			s.logger.Warn("session images not removed",
				"session_id", sessionID, "error", rmErr)
		}
	}
	return nil
}

var _ SessionService = (*sessionService)(nil)
