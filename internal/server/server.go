package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/time/rate"

	"accentscan/internal/config"
	"accentscan/internal/history"
	"accentscan/internal/logging"
	"accentscan/internal/pipeline"
	"accentscan/internal/services/llm"
)

// Analyzer runs one analysis. *pipeline.Analyzer satisfies it.
type Analyzer interface {
	Analyze(ctx context.Context, source string, onProgress pipeline.ProgressFunc) (pipeline.Report, error)
	TranscriberName() string
	ClassifierName() string
}

// HistoryStore reads recorded runs. *history.Store satisfies it.
type HistoryStore interface {
	List(ctx context.Context, limit int, statuses ...history.Status) ([]*history.Entry, error)
	Get(ctx context.Context, id int64) (*history.Entry, error)
	Summary(ctx context.Context) (history.Summary, error)
}

const (
	defaultRateLimit = rate.Limit(0.2)
	defaultBurst     = 3
	shutdownTimeout  = 5 * time.Second
)

// Option customizes a Server.
type Option func(*Server)

// WithRateLimit overrides the /api/analyze request rate.
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(s *Server) {
		s.limiter = rate.NewLimiter(limit, burst)
	}
}

// Server serves the UI and API.
type Server struct {
	cfg      *config.Config
	analyzer Analyzer
	history  HistoryStore
	logger   *slog.Logger
	limiter  *rate.Limiter
	busy     atomic.Bool

	lock     *flock.Flock
	listener net.Listener
	server   *http.Server
}

// New constructs a server. store may be nil when history is disabled.
func New(cfg *config.Config, analyzer Analyzer, store HistoryStore, logger *slog.Logger, opts ...Option) (*Server, error) {
	if cfg == nil || analyzer == nil {
		return nil, errors.New("server requires config and analyzer")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		cfg:      cfg,
		analyzer: analyzer,
		history:  store,
		logger:   logging.NewComponentLogger(logger, "server"),
		limiter:  rate.NewLimiter(defaultRateLimit, defaultBurst),
		lock:     flock.New(cfg.LockPath()),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      analysisBudget(cfg),
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

// Handler returns the routed handler wrapped with request IDs.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.Handle("POST /api/analyze", s.rateLimited(http.HandlerFunc(s.handleAnalyze)))
	mux.HandleFunc("GET /api/history", s.handleHistory)
	mux.HandleFunc("GET /api/history/{id}", s.handleHistoryItem)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	return s.withRequestID(mux)
}

// Start acquires the instance lock and begins serving in the background.
func (s *Server) Start() error {
	ok, err := s.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another accentscan server is already using %s", s.cfg.Paths.DataDir)
	}

	listener, err := net.Listen("tcp", strings.TrimSpace(s.cfg.Paths.APIBind))
	if err != nil {
		_ = s.lock.Unlock()
		return fmt.Errorf("listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.ErrorWithContext(s.logger, "http server stopped", "server_error",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the api_bind address"),
			)
		}
	}()

	s.logger.Info("accentscan UI listening",
		logging.String("address", listener.Addr().String()),
		logging.String("url", "http://"+listener.Addr().String()+"/"),
		logging.String("lock", s.cfg.LockPath()),
	)
	return nil
}

// Addr returns the bound listener address once started.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the server down and releases the instance lock.
func (s *Server) Stop() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("http shutdown incomplete", logging.Error(err))
	}
	s.listener = nil
	if err := s.lock.Unlock(); err != nil {
		s.logger.Warn("failed to release server lock", logging.Error(err))
	}
	s.logger.Info("accentscan UI stopped")
}

// Run serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	s.Stop()
	return nil
}

// analysisBudget bounds how long a single response may take to write. A
// run can download, transcribe, and classify before the first byte goes out,
// and the classifier may retry the LLM several times.
func analysisBudget(cfg *config.Config) time.Duration {
	budget := time.Duration(cfg.Download.TimeoutSeconds+cfg.Transcription.TimeoutSeconds) * time.Second
	if cfg.UsesLLM() {
		budget += llm.MaxCallDuration(time.Duration(cfg.LLM.TimeoutSeconds) * time.Second)
	}
	return budget + time.Minute
}
