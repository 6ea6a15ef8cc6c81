package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/gridcut/pkg/buildinfo"
	"github.com/matzehuels/gridcut/pkg/config"
	gcerrors "github.com/matzehuels/gridcut/pkg/errors"
	"github.com/matzehuels/gridcut/pkg/feature"
	pkgio "github.com/matzehuels/gridcut/pkg/io"
	"github.com/matzehuels/gridcut/pkg/observability"
	"github.com/matzehuels/gridcut/pkg/pipeline"
)

const contentTypeGeoJSON = "application/geo+json"

type healthResponse struct {
	Status string         `json:"status"`
	Build  buildinfo.Info `json:"build"`
}

type gridResponse struct {
	RunID     string             `json:"run_id"`
	CellsX    int                `json:"cells_x"`
	CellsY    int                `json:"cells_y"`
	CellCount int                `json:"cell_count"`
	Extent    feature.Extent     `json:"extent"`
	Technique string             `json:"technique"`
	Policy    config.Config      `json:"policy"`
	Stats     pipeline.Stats     `json:"stats"`
	Cache     pipeline.CacheInfo `json:"cache"`
}

type boundsResponse struct {
	Index  int            `json:"index"`
	X      int            `json:"x"`
	Y      int            `json:"y"`
	Bounds feature.Extent `json:"bounds"`
}

type errorBody struct {
	Error struct {
		Code    gcerrors.Code `json:"code"`
		Message string        `json:"message"`
	} `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Build: buildinfo.Get()})
}

func (s *Server) handleGrid(w http.ResponseWriter, r *http.Request) {
	res := s.result
	writeJSON(w, http.StatusOK, gridResponse{
		RunID:     res.RunID,
		CellsX:    res.CellsX,
		CellsY:    res.CellsY,
		CellCount: len(res.Cells),
		Extent:    res.Extent,
		Technique: res.Policy.Technique.Value().String(),
		Policy:    res.Policy.Config(),
		Stats:     res.Stats,
		Cache:     res.CacheInfo,
	})
}

func (s *Server) handleCells(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.result.Cells)
}

func (s *Server) handleCell(w http.ResponseWriter, r *http.Request) {
	sum, err := s.summary(r)
	if err != nil {
		writeError(w, err)
		return
	}

	// Cells skipped as empty were never written.
	var fs feature.Collection
	if c, ok := s.cells.Cell(sum.Index); ok {
		fs = c.Features
	}
	data, err := pkgio.MarshalGeoJSON(fs)
	if err != nil {
		writeError(w, gcerrors.Wrap(gcerrors.ErrCodeInternal, err, "encode cell %d", sum.Index))
		return
	}
	w.Header().Set("Content-Type", contentTypeGeoJSON)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleCellBounds(w http.ResponseWriter, r *http.Request) {
	sum, err := s.summary(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, boundsResponse{Index: sum.Index, X: sum.X, Y: sum.Y, Bounds: sum.Bounds})
}

// summary resolves the {index} path parameter.
func (s *Server) summary(r *http.Request) (pipeline.CellSummary, error) {
	raw := chi.URLParam(r, "index")
	i, err := gcerrors.ValidateCellIndex(raw)
	if err != nil {
		return pipeline.CellSummary{}, err
	}
	if i >= len(s.result.Cells) {
		return pipeline.CellSummary{}, gcerrors.New(gcerrors.ErrCodeCellNotFound,
			"cell %d not found (grid has %d cells)", i, len(s.result.Cells))
	}
	return s.result.Cells[i], nil
}

// access logs each request and reports it to the HTTP hooks.
func (s *Server) access(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		d := time.Since(start)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		observability.HTTP().OnRequest(r.Context(), r.Method, route, status, d)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", d,
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func errNotFound(path string) error {
	return gcerrors.New(gcerrors.ErrCodeNotFound, "no route for %s", path)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	var body errorBody
	body.Error.Code = gcerrors.GetCode(err)
	if body.Error.Code == "" {
		body.Error.Code = gcerrors.ErrCodeInternal
	}
	body.Error.Message = gcerrors.UserMessage(err)
	writeJSON(w, gcerrors.HTTPStatus(err), body)
}
