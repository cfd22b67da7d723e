package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/shark-hsi-service/internal/domain"
	"github.com/couchcryptid/shark-hsi-service/internal/engine"
	"github.com/couchcryptid/shark-hsi-service/internal/species"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxRequestBody bounds the size of a POST /hsi body.
const maxRequestBody = 1 << 20

// Computer turns one request into a serialized report. pipeline.HSITransformer
// implements it.
type Computer interface {
	Transform(ctx context.Context, raw domain.RawEvent) (domain.OutputEvent, error)
}

// Server exposes health, readiness, metrics and, optionally, the
// species catalog and on-demand HSI computation.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	computer   Computer
	registry   *species.Registry
	timeout    time.Duration
}

// Option configures optional Server routes.
type Option func(*Server)

// WithComputer mounts POST /hsi, computing each request synchronously with
// the given deadline.
func WithComputer(c Computer, timeout time.Duration) Option {
	return func(s *Server) {
		s.computer = c
		s.timeout = timeout
	}
}

// WithSpecies mounts GET /species listing the registered profiles.
func WithSpecies(r *species.Registry) Option {
	return func(s *Server) { s.registry = r }
}

// NewServer creates an HTTP server with /healthz, /readyz, and /metrics routes.
func NewServer(addr string, ready sharedobs.ReadinessChecker, logger *slog.Logger, opts ...Option) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	if s.registry != nil {
		mux.HandleFunc("GET /species", s.handleSpecies)
	}
	if s.computer != nil {
		mux.HandleFunc("POST /hsi", s.handleHSI)
	}

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

type speciesEntry struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

func (s *Server) handleSpecies(w http.ResponseWriter, _ *http.Request) {
	keys := s.registry.Keys()
	out := make([]speciesEntry, 0, len(keys))
	for _, k := range keys {
		p, err := s.registry.Get(k)
		if err != nil {
			continue
		}
		out = append(out, speciesEntry{Key: p.Key(), Name: p.Name()})
	}
	writeJSON(w, http.StatusOK, map[string]any{"species": out})
}

func (s *Server) handleHSI(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, err)
		return
	}

	ctx := r.Context()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	out, err := s.computer.Transform(ctx, domain.RawEvent{Value: body, Timestamp: time.Now().UTC()})
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			s.logger.Error("hsi request failed", "error", err)
		}
		writeError(w, status, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(out.Value) //nolint:errcheck // client may have gone away
}

// statusFor maps computation errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest), errors.Is(err, species.ErrUnknownSpecies):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrMissingInput):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
