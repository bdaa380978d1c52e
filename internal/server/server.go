// Package server is the HTTP transport for the agent engines.
//
// Routes:
//
//	GET  /ping                 liveness
//	POST /{agent}-agent/query  {"prompt": "..."} -> {"response": payload}
//	GET  /metrics              Prometheus exposition
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/studiodesk/internal/metrics"
	"github.com/roach88/studiodesk/internal/router"
)

const defaultShutdownTimeout = 10 * time.Second

// Server serves the agent router over HTTP.
type Server struct {
	router          *router.Router
	metrics         *metrics.Metrics
	logger          *slog.Logger
	shutdownTimeout time.Duration
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger (default slog.Default()).
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithMetrics serves m on /metrics and records requests on it.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithShutdownTimeout bounds graceful shutdown (default 10s).
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Server) { s.shutdownTimeout = d }
}

// New creates a Server over r.
func New(r *router.Router, opts ...Option) *Server {
	s := &Server{
		router:          r,
		logger:          slog.Default(),
		shutdownTimeout: defaultShutdownTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed, CORS-wrapped handler.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(s.observe)

	r.HandleFunc("/ping", s.ping).Methods(http.MethodGet)
	r.HandleFunc("/{agent}-agent/query", s.query).Methods(http.MethodPost)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})
	return c.Handler(r)
}

// ListenAndServe listens on addr and serves until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is canceled, then shuts down gracefully.
// It returns nil after a clean shutdown.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelError),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (s *Server) ping(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"message": "API is live!"})
}

// queryRequest requires the prompt field. An empty prompt is valid and is
// answered as unrecognized.
type queryRequest struct {
	Prompt *string `json:"prompt"`
}

func (s *Server) query(w http.ResponseWriter, r *http.Request) {
	agent := mux.Vars(r)["agent"]

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Prompt == nil {
		writeDetail(w, http.StatusBadRequest, "prompt is required")
		return
	}

	res, err := s.router.Handle(r.Context(), agent, *req.Prompt)
	if errors.Is(err, router.ErrUnknownAgent) {
		writeDetail(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"response": res.Payload()})
}

func writeDetail(w http.ResponseWriter, code int, detail string) {
	writeJSON(w, code, map[string]any{"detail": detail})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// statusWriter captures the response code.
type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

// observe logs every request and records it on the metrics, labeled by
// route template.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sw, r)

		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tmpl, err := cur.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}
		if s.metrics != nil {
			s.metrics.ObserveRequest(route, sw.code)
		}
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.code,
			"elapsed", time.Since(start),
		)
	})
}
