package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ctessum/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gcerrors "github.com/matzehuels/gridcut/pkg/errors"
	"github.com/matzehuels/gridcut/pkg/feature"
	"github.com/matzehuels/gridcut/pkg/grid"
	pkgio "github.com/matzehuels/gridcut/pkg/io"
	"github.com/matzehuels/gridcut/pkg/observability"
	"github.com/matzehuels/gridcut/pkg/pipeline"
	"github.com/matzehuels/gridcut/pkg/sink"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	fs := feature.Collection{
		feature.New("a", geom.Point{X: 1, Y: 1}),
		feature.New("b", geom.Point{X: 6, Y: 6}),
		feature.New("c", geom.Point{X: 7, Y: 8}),
	}
	policy := grid.DefaultPolicy()
	policy.CellSize.Set(5)

	mem := sink.NewMemorySink()
	res, err := pipeline.NewRunner(nil, nil, nil).Grid(context.Background(), fs,
		feature.Extent{MinX: 0, MinY: 0, MaxX: 10, MaxY: 10}, policy, mem)
	require.NoError(t, err)
	return New(res, mem, nil)
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthz(t *testing.T) {
	rec := get(t, newTestServer(t).Handler(), "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)

	var body healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.NotEmpty(t, body.Build.Version)
}

func TestGrid(t *testing.T) {
	rec := get(t, newTestServer(t).Handler(), "/grid")
	require.Equal(t, http.StatusOK, rec.Code)

	var body gridResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.CellsX)
	assert.Equal(t, 2, body.CellsY)
	assert.Equal(t, 4, body.CellCount)
	assert.Equal(t, "centroid", body.Technique)
	assert.Equal(t, "5", body.Policy[grid.KeyCellSize])
	assert.Equal(t, feature.Extent{MinX: 0, MinY: 0, MaxX: 10, MaxY: 10}, body.Extent)
}

func TestCells(t *testing.T) {
	rec := get(t, newTestServer(t).Handler(), "/cells")
	require.Equal(t, http.StatusOK, rec.Code)

	var cells []pipeline.CellSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cells))
	require.Len(t, cells, 4)
	outs := []int{cells[0].Out, cells[1].Out, cells[2].Out, cells[3].Out}
	assert.Equal(t, []int{1, 0, 0, 2}, outs)
}

func TestCellFeatures(t *testing.T) {
	rec := get(t, newTestServer(t).Handler(), "/cells/3")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, contentTypeGeoJSON, rec.Header().Get("Content-Type"))

	fs, err := pkgio.ReadGeoJSON(rec.Body)
	require.NoError(t, err)
	require.Len(t, fs, 2)
	assert.Equal(t, "b", fs[0].ID)
	assert.Equal(t, "c", fs[1].ID)
}

func TestCellFeaturesSkippedEmpty(t *testing.T) {
	s := newTestServer(t)
	// Simulate a run with SkipEmpty: cell 1 was never written.
	s.cells = sink.NewMemorySink()

	rec := get(t, s.Handler(), "/cells/1")
	require.Equal(t, http.StatusOK, rec.Code)
	fs, err := pkgio.ReadGeoJSON(rec.Body)
	require.NoError(t, err)
	assert.Empty(t, fs)
}

func TestCellBounds(t *testing.T) {
	rec := get(t, newTestServer(t).Handler(), "/cells/3/bounds")
	require.Equal(t, http.StatusOK, rec.Code)

	var body boundsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, boundsResponse{
		Index:  3,
		X:      1,
		Y:      1,
		Bounds: feature.Extent{MinX: 5, MinY: 5, MaxX: 10, MaxY: 10},
	}, body)
}

func TestCellErrors(t *testing.T) {
	h := newTestServer(t).Handler()
	tests := []struct {
		path       string
		wantStatus int
		wantCode   gcerrors.Code
	}{
		{"/cells/4", http.StatusNotFound, gcerrors.ErrCodeCellNotFound},
		{"/cells/99/bounds", http.StatusNotFound, gcerrors.ErrCodeCellNotFound},
		{"/cells/abc", http.StatusBadRequest, gcerrors.ErrCodeInvalidInput},
		{"/cells/-1", http.StatusBadRequest, gcerrors.ErrCodeInvalidInput},
		{"/nope", http.StatusNotFound, gcerrors.ErrCodeNotFound},
	}
	for _, tt := range tests {
		t.Run(strings.TrimPrefix(tt.path, "/"), func(t *testing.T) {
			rec := get(t, h, tt.path)
			assert.Equal(t, tt.wantStatus, rec.Code)

			var body errorBody
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body.Error.Code)
			assert.NotEmpty(t, body.Error.Message)
		})
	}
}

type recordingHTTPHooks struct {
	mu     sync.Mutex
	routes []string
	status []int
}

func (h *recordingHTTPHooks) OnRequest(_ context.Context, _, route string, status int, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.routes = append(h.routes, route)
	h.status = append(h.status, status)
}

func TestAccessHooksUseRoutePattern(t *testing.T) {
	hooks := &recordingHTTPHooks{}
	observability.SetHTTPHooks(hooks)
	t.Cleanup(observability.Reset)

	h := newTestServer(t).Handler()
	get(t, h, "/cells/2")
	get(t, h, "/cells/9")

	assert.Equal(t, []string{"/cells/{index}", "/cells/{index}"}, hooks.routes)
	assert.Equal(t, []int{http.StatusOK, http.StatusNotFound}, hooks.status)
}

func TestListenAndServeStopsOnCancel(t *testing.T) {
	s := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx, "127.0.0.1:0") }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * ShutdownTimeout):
		t.Fatal("server did not stop")
	}
}
