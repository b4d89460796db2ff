// Package httpserver exposes the session and results services over HTTP.
// Routes and payload shapes follow the capture clients already in the field.
package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/openmood/emoscope/internal/service"
)

// Config holds HTTP server settings.
type Config struct {
	Addr           string
	AllowedOrigins []string
	MaxUploadBytes int64
}

// Server routes HTTP requests to the services.
type Server struct {
	router *mux.Router
	server *http.Server
	logger *slog.Logger
	cfg    Config

	sessions service.SessionService
	results  service.ResultsService
	system   service.SystemService
}

// New creates a Server around the given services.
func New(cfg Config, sessions service.SessionService, results service.ResultsService, system service.SystemService, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 10 << 20
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}

	s := &Server{
		router:   mux.NewRouter(),
		logger:   logger,
		cfg:      cfg,
		sessions: sessions,
		results:  results,
		system:   system,
	}
	s.setupRoutes()

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	})

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      c.Handler(s.router),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(s.loggingMiddleware)

	s.router.HandleFunc("/start_session", s.handleStartSession).Methods(http.MethodPost)
	s.router.HandleFunc("/upload_frame", s.handleUploadFrame).Methods(http.MethodPost)
	s.router.HandleFunc("/record_frame", s.handleRecordFrame).Methods(http.MethodPost)
	s.router.HandleFunc("/end_session", s.handleEndSession).Methods(http.MethodPost)
	s.router.HandleFunc("/get_question_results", s.handleGetQuestionResults).Methods(http.MethodGet)
	s.router.HandleFunc("/get_session_results", s.handleGetSessionResults).Methods(http.MethodGet)
	s.router.HandleFunc("/get_all_sessions", s.handleGetAllSessions).Methods(http.MethodGet)
	s.router.HandleFunc("/get_session_questions", s.handleGetSessionQuestions).Methods(http.MethodGet)
	s.router.HandleFunc("/clear_session", s.handleClearSession).Methods(http.MethodPost)
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
}

// Handler returns the fully assembled handler, useful for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("http server listening", "addr", s.cfg.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("http_request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
