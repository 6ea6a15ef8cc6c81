package observability

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	g := NoopGridHooks{}
	g.OnGridStart(ctx, "run", 4, "crop")
	g.OnCellComplete(ctx, CellEvent{RunID: "run", Index: 1, In: 10, Out: 3})
	g.OnGridComplete(ctx, "run", 4, time.Second, nil)

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "cell")
	c.OnCacheMiss(ctx, "cell")
	c.OnCacheSet(ctx, "cell", 1024)

	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "GET", "/cells/{index}", 200, time.Millisecond)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()

	if _, ok := Grid().(NoopGridHooks); !ok {
		t.Error("Grid() should return NoopGridHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	customGrid := &testGridHooks{}
	SetGridHooks(customGrid)
	if Grid() != customGrid {
		t.Error("SetGridHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	customHTTP := &testHTTPHooks{}
	SetHTTPHooks(customHTTP)
	if HTTP() != customHTTP {
		t.Error("SetHTTPHooks should set custom hooks")
	}

	Reset()
	if _, ok := Grid().(NoopGridHooks); !ok {
		t.Error("Reset() should restore NoopGridHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()
	defer Reset()

	custom := &testGridHooks{}
	SetGridHooks(custom)
	SetGridHooks(nil)
	if Grid() != custom {
		t.Error("SetGridHooks(nil) should be ignored")
	}
}

func TestLogGridHooks(t *testing.T) {
	var buf bytes.Buffer
	l := log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel})
	h := NewLogGridHooks(l)
	ctx := context.Background()

	h.OnGridStart(ctx, "r1", 4, "centroid")
	h.OnCellComplete(ctx, CellEvent{RunID: "r1", Index: 2, In: 5, Out: 1, Cached: true})
	h.OnGridComplete(ctx, "r1", 4, time.Second, nil)
	h.OnGridComplete(ctx, "r1", 4, time.Second, errors.New("sink full"))

	out := buf.String()
	for _, want := range []string{"grid start", "cell=2", "cached=true", "grid complete", "grid failed", "sink full"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

type testGridHooks struct{ NoopGridHooks }
type testCacheHooks struct{ NoopCacheHooks }
type testHTTPHooks struct{ NoopHTTPHooks }
