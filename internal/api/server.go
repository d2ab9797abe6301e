package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/seantiz/stash/internal/actor"
	"github.com/seantiz/stash/internal/engine"
	"github.com/seantiz/stash/internal/policy"
	"github.com/seantiz/stash/internal/store"
)

const (
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 10 * time.Second
	writeTimeout      = 30 * time.Second
)

// Status reports the actor's lifecycle. *actor.Cache satisfies it.
type Status interface {
	Phase() actor.Phase
	Pending() int
}

// Deps are the components the HTTP surface talks to.
type Deps struct {
	Commands *actor.Sender
	Status   Status
	Store    store.Store
	Policies *policy.Registry
	Broker   *engine.Broker

	// Registry receives the HTTP collectors and is served on /metrics.
	// Defaults to a fresh registry.
	Registry *prometheus.Registry
}

// Server wraps the chi router and application dependencies.
type Server struct {
	router   *chi.Mux
	commands *actor.Sender
	status   Status
	store    store.Store
	policies *policy.Registry
	broker   *engine.Broker
	registry *prometheus.Registry
	logger   *slog.Logger
	addr     string

	// shutdown is closed when the HTTP server starts shutting down, which
	// ends long-lived streams.
	shutdown     chan struct{}
	shutdownOnce sync.Once
}

// NewServer creates and configures a new HTTP server.
func NewServer(addr string, deps Deps, logger *slog.Logger) *Server {
	if deps.Registry == nil {
		deps.Registry = prometheus.NewRegistry()
	}

	srv := &Server{
		router:   chi.NewRouter(),
		commands: deps.Commands,
		status:   deps.Status,
		store:    deps.Store,
		policies: deps.Policies,
		broker:   deps.Broker,
		registry: deps.Registry,
		logger:   logger,
		addr:     addr,
		shutdown: make(chan struct{}),
	}

	srv.router.Use(middleware.RequestID)
	srv.router.Use(middleware.Recoverer)
	srv.router.Use(srv.loggingMiddleware)
	srv.router.Use(newHTTPMetrics(deps.Registry).middleware)
	srv.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	srv.routes()

	return srv
}

// routes registers all HTTP routes on the router.
func (s *Server) routes() {
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Handle("/metrics", metricsHandler(s.registry))

	s.router.Get("/v1/policies", s.handleListPolicies)
	s.router.Get("/v1/stats", s.handleGetStats)

	s.router.Route("/v1/keys", func(r chi.Router) {
		r.Delete("/", s.handleClearKeys)
		r.Get("/{key}", s.handleGetKey)
		r.Put("/{key}", s.handleSetKey)
	})

	s.router.Route("/v1/tasks", func(r chi.Router) {
		r.Post("/", s.handleStartTask)
		r.Get("/", s.handleListTasks)
		r.Get("/events", s.handleTaskEvents)
	})
}

// Router returns the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Run serves HTTP until ctx is done, then shuts the server down gracefully.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
	}
	httpServer.RegisterOnShutdown(s.beginShutdown)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", s.addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down http server")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}

// beginShutdown releases handlers that would otherwise outlive Shutdown.
func (s *Server) beginShutdown() {
	s.shutdownOnce.Do(func() { close(s.shutdown) })
}

// loggingMiddleware logs each request using the structured logger.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
