// Package api exposes site search over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/FranksOps/sitefind/internal/pipeline"
	"github.com/gin-gonic/gin"
)

// Searcher runs one site search. *pipeline.Pipeline satisfies it.
type Searcher interface {
	Run(ctx context.Context, domain, query string) (*pipeline.Outcome, error)
	HasCredentials() bool
}

var _ Searcher = (*pipeline.Pipeline)(nil)

// Options configures the HTTP server.
type Options struct {
	Port           int
	AllowedOrigins []string
	// WriteTimeout must cover a full upstream fetch. Defaults to 90s.
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	Logger          *slog.Logger
}

// Server serves the search API.
type Server struct {
	router   *gin.Engine
	srv      *http.Server
	searcher Searcher
	logger   *slog.Logger
	opts     Options
}

// NewServer wires the middleware chain and routes around searcher.
func NewServer(searcher Searcher, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = 90 * time.Second
	}
	if opts.ShutdownTimeout == 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}

	s := &Server{
		router:   gin.New(),
		searcher: searcher,
		logger:   opts.Logger,
		opts:     opts,
	}

	s.router.Use(recoveryMiddleware(s.logger))
	s.router.Use(requestIDMiddleware())
	s.router.Use(loggerMiddleware(s.logger))
	s.router.Use(corsMiddleware(opts.AllowedOrigins))

	s.router.GET("/", s.handleStatus)
	s.router.POST("/api/search", s.handleSearch)

	s.srv = &http.Server{
		Addr:              fmt.Sprintf(":%d", opts.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      opts.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler returns the routed handler, e.g. for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe blocks until the server stops. Shutdown is not an error.
func (s *Server) ListenAndServe() error {
	s.logger.Info("starting HTTP server", "addr", s.srv.Addr, "has_api_key", s.searcher.HasCredentials())
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests within the shutdown timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server", "timeout", s.opts.ShutdownTimeout)
	ctx, cancel := context.WithTimeout(ctx, s.opts.ShutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	return nil
}
