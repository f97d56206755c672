// Package server provides the HTTP host for instasearch: a server-rendered
// search page, a live-session API that keeps the browser URL in sync, and a
// stateless search API.
package server

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hyperjump/instasearch/internal/config"
	"github.com/hyperjump/instasearch/internal/search"
	"github.com/hyperjump/instasearch/internal/storage"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

// Server is the HTTP server for the instasearch page and API.
type Server struct {
	engine   *search.Engine
	sessions *registry
	config   *config.Config
	storage  storage.Storage
	reload   func(ctx context.Context) error
	pages    *template.Template
	logger   *zap.Logger
	server   *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithStorage exposes snapshot counts and disk usage in the status endpoint.
func WithStorage(store storage.Storage) Option {
	return func(s *Server) { s.storage = store }
}

// WithReloader enables POST /api/v1/reload, which calls fn to reload content.
func WithReloader(fn func(ctx context.Context) error) Option {
	return func(s *Server) { s.reload = fn }
}

// NewServer creates a server over engine.
func NewServer(engine *search.Engine, cfg *config.Config, logger *zap.Logger, opts ...Option) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	pages, err := template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	sessions, err := newRegistry(cfg.Search.MaxSessions, engine.Release, logger)
	if err != nil {
		return nil, err
	}
	s := &Server{
		engine:   engine,
		sessions: sessions,
		config:   cfg,
		pages:    pages,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Handler returns the router with all routes and middleware.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Get("/", s.handlePage)
	r.Get("/search", s.handlePage)
	r.Get("/posts/{slug}", s.handlePost)
	r.Get("/posts/{slug}/", s.handlePost)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/search", s.handleSearch)
		r.Post("/search", s.handleSearch)
		r.Post("/sessions", s.handleCreateSession)
		r.Get("/sessions/{id}", s.handleGetSession)
		r.Put("/sessions/{id}/query", s.handleQueryChange)
		r.Delete("/sessions/{id}", s.handleDeleteSession)
		r.Get("/items/{slug}", s.handleGetItem)
		r.Get("/status", s.handleStatus)
		r.Post("/reload", s.handleReload)
	})
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := s.config.Server.Addr()
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
