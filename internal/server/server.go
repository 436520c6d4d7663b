package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/snaptunes/internal/shared"
	"github.com/desertthunder/snaptunes/internal/tasks"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Handler defines the interface for HTTP request handlers that own a set of routes.
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request and writes the response
	Routes() []string // Routes returns the method-qualified patterns this handler serves
}

// Router defines the interface for HTTP routing and middleware management.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler) // Handle registers a handler for the specified method and path
	Handler(handler Handler)                          // Handler registers a custom Handler implementation
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}

const shutdownTimeout = 5 * time.Second

// Options configures [New]. Broker, Extractor, Matcher and Assembler are required.
type Options struct {
	Addr         string
	AppURL       string // Redirect target after authorization
	TokenHandoff string // [shared.HandoffQuery] or [shared.HandoffSession]
	SessionTTL   time.Duration
	SecureCookie bool

	Broker    *tasks.Broker
	Extractor *tasks.Extractor
	Matcher   *tasks.Matcher
	Assembler *tasks.Assembler
	Logger    *log.Logger
}

// Server serves the authorization and pipeline endpoints.
type Server struct {
	opts     Options
	router   *BasicRouter
	sessions *SessionStore
	logger   *log.Logger
}

// New wires the routes and middleware for opts.
func New(opts Options) (*Server, error) {
	if opts.Broker == nil || opts.Extractor == nil || opts.Matcher == nil || opts.Assembler == nil {
		return nil, fmt.Errorf("%w: server requires broker, extractor, matcher and assembler", shared.ErrInvalidConfig)
	}
	if opts.AppURL == "" {
		opts.AppURL = "/"
	}
	switch opts.TokenHandoff {
	case "":
		opts.TokenHandoff = shared.HandoffQuery
	case shared.HandoffQuery, shared.HandoffSession:
	default:
		return nil, fmt.Errorf("%w: unknown token hand-off %q", shared.ErrInvalidConfig, opts.TokenHandoff)
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	s := &Server{
		opts:     opts,
		router:   NewBasicRouter(),
		sessions: NewSessionStore(opts.SessionTTL),
		logger:   opts.Logger,
	}

	s.router.Use(RequestID(), RequestLogger(s.logger), Recoverer(s.logger))
	s.router.HandleFunc(http.MethodGet, "/health", s.handleHealth)
	s.router.Handler(&authHandler{server: s})
	s.router.HandleFunc(http.MethodPost, "/api/extract-songs", s.handleExtract)
	s.router.HandleFunc(http.MethodPost, "/api/search-spotify", s.handleSearch)
	s.router.HandleFunc(http.MethodPost, "/api/create-spotify-playlist", s.handleCreate)

	return s, nil
}

// ServeHTTP implements [http.Handler].
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Sessions exposes the in-memory credential store.
func (s *Server) Sessions() *SessionStore {
	return s.sessions
}

// ListenAndServe serves on opts.Addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.opts.Addr, "handoff", s.opts.TokenHandoff)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
