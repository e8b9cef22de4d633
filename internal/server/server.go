// Package server exposes extraction and scoring over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/skillgap/internal/scoring"
	"github.com/spigell/skillgap/internal/semantic"
	"github.com/spigell/skillgap/internal/taxonomy"
)

const (
	DefaultAddress        = ":8000"
	DefaultMaxUploadBytes = 10 << 20

	requestIDHeader = "X-Request-ID"
	shutdownTimeout = 30 * time.Second
)

// Config holds listener settings.
type Config struct {
	Address        string `mapstructure:"address"`
	MaxUploadBytes int64  `mapstructure:"max-upload-bytes"`
}

// Server serves the extraction and scoring routes.
type Server struct {
	cfg      Config
	scorer   *scoring.Scorer
	semantic *semantic.Scorer
	taxonomy *taxonomy.Taxonomy
	validate *validator.Validate
	logger   *zap.Logger
}

// New creates a server. semanticScorer may be nil, in which case the
// semantic routes answer 503.
func New(cfg Config, scorer *scoring.Scorer, semanticScorer *semantic.Scorer, taxo *taxonomy.Taxonomy, logger *zap.Logger) *Server {
	if cfg.Address == "" {
		cfg.Address = DefaultAddress
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if scorer == nil {
		scorer = scoring.Default()
	}
	if taxo == nil {
		taxo = taxonomy.Empty()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	validate := validator.New()
	// Report form field names instead of Go field names.
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})

	return &Server{
		cfg:      cfg,
		scorer:   scorer,
		semantic: semanticScorer,
		taxonomy: taxo,
		validate: validate,
		logger:   logger,
	}
}

// Handler returns the routed handler wrapped in middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /extract/resume", s.handleExtract)
	mux.HandleFunc("POST /extract/jd", s.handleExtract)
	mux.HandleFunc("POST /score/pair", s.handleScorePair)
	mux.HandleFunc("POST /score/semantic", s.handleScoreSemantic)
	mux.HandleFunc("POST /score/semantic/file", s.handleScoreSemanticFile)

	return s.withLogging(mux)
}

// Start listens until ctx is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:         s.cfg.Address,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", zap.String("address", s.cfg.Address))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen on %s: %w", s.cfg.Address, err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

type loggerKey struct{}

// withLogging tags each request with an id and logs its outcome.
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := uuid.NewString()
		log := s.logger.With(zap.String("request_id", id))

		w.Header().Set(requestIDHeader, id)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), loggerKey{}, log)))

		log.Info("request completed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func requestLogger(r *http.Request) *zap.Logger {
	if log, ok := r.Context().Value(loggerKey{}).(*zap.Logger); ok {
		return log
	}
	return zap.NewNop()
}

func (s *Server) jsonResponse(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		requestLogger(r).Warn("encoding json response", zap.Error(err))
	}
}

func (s *Server) errorResponse(w http.ResponseWriter, r *http.Request, status int, message string) {
	s.jsonResponse(w, r, status, map[string]string{"detail": message})
}
