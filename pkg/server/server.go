// Package server exposes one gridding run over HTTP.
//
// A [Server] holds the result of a pipeline run together with the culled
// cells and serves them read-only:
//
//	GET /healthz                liveness probe
//	GET /grid                   dimensions, extent, effective policy and stats
//	GET /cells                  one summary per cell
//	GET /cells/{index}          the cell's features as a GeoJSON FeatureCollection
//	GET /cells/{index}/bounds   the cell rectangle
//
// Errors are JSON objects carrying a gridcut error code. A malformed index is
// a 400, an index outside the grid a 404 with code CELL_NOT_FOUND.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/gridcut/pkg/pipeline"
	"github.com/matzehuels/gridcut/pkg/sink"
)

// ShutdownTimeout bounds graceful shutdown in ListenAndServe.
const ShutdownTimeout = 5 * time.Second

// Server serves one pipeline result.
type Server struct {
	result *pipeline.Result
	cells  *sink.MemorySink
	logger *log.Logger
}

// New returns a server for res whose cells were written to cells. A nil
// logger discards everything.
func New(res *pipeline.Result, cells *sink.MemorySink, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Server{result: res, cells: cells, logger: logger}
}

// Load runs the pipeline for opts into memory and returns a server for it.
func Load(ctx context.Context, r *pipeline.Runner, opts pipeline.Options) (*Server, error) {
	mem := sink.NewMemorySink()
	res, err := r.Execute(ctx, opts, mem)
	if err != nil {
		return nil, err
	}
	return New(res, mem, r.Logger), nil
}

// Result returns the served result.
func (s *Server) Result() *pipeline.Result { return s.result }

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.access)

	r.Get("/healthz", s.handleHealth)
	r.Get("/grid", s.handleGrid)
	r.Route("/cells", func(r chi.Router) {
		r.Get("/", s.handleCells)
		r.Get("/{index}", s.handleCell)
		r.Get("/{index}/bounds", s.handleCellBounds)
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, errNotFound(r.URL.Path))
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("serving grid", "addr", addr, "cells", len(s.result.Cells))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err, ok := <-errc:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("graceful shutdown failed, closing", "err", err)
		return srv.Close()
	}
	return nil
}
