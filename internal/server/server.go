// Package server provides the HTTP API for kaiwa.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/kaiwa/internal/config"
	"github.com/hyperjump/kaiwa/internal/pipeline"
	"github.com/hyperjump/kaiwa/internal/storage"
)

// Server is the HTTP server for the kaiwa API: it accepts export archive
// uploads, runs the parsing pipeline, and serves the produced documents.
type Server struct {
	pipeline  *pipeline.Pipeline
	storage   storage.Storage
	config    *config.ServerConfig
	outputDir string
	logger    *zap.Logger
	server    *http.Server
}

// NewServer creates a server with the given dependencies. Parsed documents
// are written under outputDir, one subdirectory per run.
func NewServer(
	p *pipeline.Pipeline,
	store storage.Storage,
	cfg *config.ServerConfig,
	outputDir string,
	logger *zap.Logger,
) *Server {
	return &Server{
		pipeline:  p,
		storage:   store,
		config:    cfg,
		outputDir: outputDir,
		logger:    logger,
	}
}

// Handler returns the configured router. Exposed for tests.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	r.Post("/api/v1/exports", s.handleUploadExport)
	r.Get("/api/v1/runs", s.handleListRuns)
	r.Get("/api/v1/runs/{id}", s.handleGetRun)
	r.Get("/api/v1/runs/{id}/json", s.handleDownloadJSON)
	r.Get("/api/v1/runs/{id}/xlsx", s.handleDownloadExcel)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
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
