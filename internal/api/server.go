package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"filmatlas/internal/atlas"
	"filmatlas/internal/logging"
	"filmatlas/internal/runstate"
	"filmatlas/internal/services"
	"filmatlas/internal/store"
	"filmatlas/internal/watchlist"
)

const (
	// maxUploadBytes caps CSV uploads.
	maxUploadBytes = 16 << 20

	requestIDHeader = "X-Request-ID"
)

// Runs is the run coordinator surface. *runstate.Manager satisfies it.
type Runs interface {
	Start(records []watchlist.Record, source string) (string, error)
	Cancel() bool
	Reset()
	Snapshot() runstate.Snapshot
	Result() (atlas.Aggregate, bool)
}

// History lists recorded runs. *store.Store satisfies it.
type History interface {
	ListRuns(ctx context.Context, limit int) ([]store.Run, error)
}

// Server exposes run state over HTTP.
type Server struct {
	bind    string
	runs    Runs
	history History
	logger  *slog.Logger

	listener net.Listener
	server   *http.Server
}

// NewServer builds a server bound to bind. history may be nil.
func NewServer(bind string, runs Runs, history History, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		bind:    strings.TrimSpace(bind),
		runs:    runs,
		history: history,
		logger:  logging.NewComponentLogger(logger, "api-server"),
	}
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler returns the route multiplexer.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/runs", s.handleStartRun)
	mux.HandleFunc("GET /api/run", s.handleRunState)
	mux.HandleFunc("DELETE /api/run", s.handleCancelRun)
	mux.HandleFunc("POST /api/run/reset", s.handleResetRun)
	mux.HandleFunc("GET /api/aggregate", s.handleAggregate)
	mux.HandleFunc("GET /api/countries/{code}", s.handleCountry)
	mux.HandleFunc("POST /api/resolve", s.handleResolve)
	mux.HandleFunc("GET /api/history", s.handleHistory)
	return s.withRequestID(mux)
}

// withRequestID tags each request context with a correlation id, reusing an
// inbound X-Request-ID when the caller supplied one.
func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		ctx := services.WithRequestID(r.Context(), id)
		logging.WithContext(ctx, s.logger).Debug("api request",
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
		)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Start listens on the bind address and serves until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Addr returns the bound address once started.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the server down gracefully.
func (s *Server) Stop() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
