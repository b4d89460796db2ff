package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/openmood/emoscope/internal/domain"
	"github.com/openmood/emoscope/internal/service"
)

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.sessions.StartSession(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"status":     "success",
		"message":    "Session started",
		"session_id": session.ID,
	})
}

func (s *Server) handleUploadFrame(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		s.respondErrorMessage(w, http.StatusBadRequest, "No image provided")
		return
	}

	sessionID := r.FormValue("session_id")
	if sessionID == "" {
		s.respondErrorMessage(w, http.StatusBadRequest, "No session_id provided")
		return
	}
	questionID := r.FormValue("question_id")

	file, header, err := r.FormFile("image")
	if err != nil {
		s.respondErrorMessage(w, http.StatusBadRequest, "No image provided")
		return
	}
	defer file.Close()
	if header.Filename == "" {
		s.respondErrorMessage(w, http.StatusBadRequest, "No selected file")
		return
	}

	image, err := io.ReadAll(file)
	if err != nil {
		s.respondErrorMessage(w, http.StatusBadRequest, "No image provided")
		return
	}

	frame, err := s.sessions.IngestImage(r.Context(), service.IngestImageInput{
		SessionID:  sessionID,
		QuestionID: questionID,
		Filename:   header.Filename,
		Image:      image,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"status":      "success",
		"session_id":  frame.SessionID,
		"question_id": frame.QuestionID,
		"frame_id":    frame.FrameID,
		"emotion":     string(frame.Emotion),
		"confidence":  frame.Confidence,
	})
}

// recordFrameRequest is the body of POST /record_frame, for clients that run
// classification themselves.
type recordFrameRequest struct {
	SessionID  string  `json:"session_id"`
	QuestionID string  `json:"question_id"`
	Emotion    string  `json:"emotion"`
	Confidence float64 `json:"confidence"`
}

func (s *Server) handleRecordFrame(w http.ResponseWriter, r *http.Request) {
	var req recordFrameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondErrorMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.SessionID == "" {
		s.respondErrorMessage(w, http.StatusBadRequest, "No session_id provided")
		return
	}

	frame, err := s.sessions.RecordFrame(r.Context(), service.RecordFrameInput{
		SessionID:  req.SessionID,
		QuestionID: req.QuestionID,
		Emotion:    domain.Emotion(req.Emotion),
		Confidence: req.Confidence,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"status":      "success",
		"session_id":  frame.SessionID,
		"question_id": frame.QuestionID,
		"frame_id":    frame.FrameID,
		"emotion":     string(frame.Emotion),
		"confidence":  frame.Confidence,
	})
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	sessionID := r.FormValue("session_id")
	if sessionID == "" {
		s.respondErrorMessage(w, http.StatusBadRequest, "No session_id provided")
		return
	}

	results, err := s.sessions.EndSession(r.Context(), sessionID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"status":     "success",
		"message":    "Session ended successfully",
		"session_id": sessionID,
		"results":    results,
	})
}

func (s *Server) handleGetQuestionResults(w http.ResponseWriter, r *http.Request) {
	questionID := r.URL.Query().Get("question_id")
	if questionID == "" {
		s.respondErrorMessage(w, http.StatusBadRequest, "No question_id provided")
		return
	}

	results, err := s.results.GetQuestionResults(r.Context(), questionID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, results)
}

func (s *Server) handleGetSessionResults(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		s.respondErrorMessage(w, http.StatusBadRequest, "No session_id provided")
		return
	}

	results, err := s.results.GetSessionResults(r.Context(), sessionID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, results)
}

func (s *Server) handleGetAllSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.results.ListSessions(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

func (s *Server) handleGetSessionQuestions(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		s.respondErrorMessage(w, http.StatusBadRequest, "No session_id provided")
		return
	}

	questions, err := s.results.ListSessionQuestions(r.Context(), sessionID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"questions": questions})
}

func (s *Server) handleClearSession(w http.ResponseWriter, r *http.Request) {
	sessionID := r.FormValue("session_id")
	if sessionID == "" {
		s.respondErrorMessage(w, http.StatusBadRequest, "No session_id provided")
		return
	}

	if err := s.sessions.PurgeSession(r.Context(), sessionID); err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"message": fmt.Sprintf("Session %s and all associated data cleared", sessionID),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.system.Health(r.Context()))
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("encoding response", "error", err)
	}
}

func (s *Server) respondErrorMessage(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

// respondError maps service errors onto status codes. Only unavailability is
// worth a client retry.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		s.respondErrorMessage(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidState):
		s.respondErrorMessage(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrInvalidInput):
		s.respondErrorMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrUnavailable):
		s.respondErrorMessage(w, http.StatusServiceUnavailable, err.Error())
	default:
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
		s.respondErrorMessage(w, http.StatusInternalServerError, "internal error")
	}
}
