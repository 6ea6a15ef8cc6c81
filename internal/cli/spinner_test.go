package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/gridcut/pkg/observability"
)

func TestSpinnerBasic(t *testing.T) {
	s := newSpinner("Testing...")
	s.Start()
	time.Sleep(100 * time.Millisecond)
	s.Stop()

	// Spinner should be stopped, not cancelled
	// (Cancelled returns true only if Stop was called due to context cancellation)
	_ = s.Cancelled() // Verify method is callable; value not asserted as Stop() doesn't set cancelled
}

func TestSpinnerWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	s := newSpinnerWithContext(ctx, "Testing with context...")
	s.Start()

	// Cancel the context
	cancel()

	// Give goroutine time to notice cancellation
	time.Sleep(100 * time.Millisecond)

	// Spinner should be cancelled
	if !s.Cancelled() {
		t.Error("Spinner should be cancelled after context cancellation")
	}
}

func TestSpinnerWithTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	s := newSpinnerWithContext(ctx, "Testing with timeout...")
	s.Start()

	// Wait for timeout
	time.Sleep(100 * time.Millisecond)

	// Spinner should be cancelled due to timeout
	if !s.Cancelled() {
		t.Error("Spinner should be cancelled after context timeout")
	}
}

func TestSpinnerStopIsIdempotent(t *testing.T) {
	s := newSpinner("Testing idempotent stop...")
	s.Start()

	// Stop multiple times should not panic
	s.Stop()
	s.Stop()
	s.Stop()
}

func TestSpinnerStopWithSuccess(t *testing.T) {
	s := newSpinner("Testing success...")
	s.Start()
	time.Sleep(50 * time.Millisecond)
	s.StopWithSuccess("Done!")
}

func TestSpinnerStopWithError(t *testing.T) {
	s := newSpinner("Testing error...")
	s.Start()
	time.Sleep(50 * time.Millisecond)
	s.StopWithError("Failed!")
}

func TestNewSpinnerWithContextNilParent(t *testing.T) {
	s := newSpinnerWithContext(context.Background(), "Test")
	s.Start()
	s.Stop()
}

func TestSpinnerProgressLine(t *testing.T) {
	s := newSpinner("Culling")
	if got := s.line(); got != "Culling" {
		t.Errorf("line() without progress = %q", got)
	}

	s.SetProgress(5, 10)
	want := "Culling " + strings.Repeat("█", barWidth/2) + strings.Repeat("░", barWidth/2) + " 5/10"
	if got := s.line(); got != want {
		t.Errorf("line() = %q, want %q", got, want)
	}

	s.SetProgress(12, 10)
	if got := s.line(); !strings.Contains(got, strings.Repeat("█", barWidth)) {
		t.Errorf("overshoot should fill the bar, got %q", got)
	}
}

func TestSpinnerDrawPadsShorterLines(t *testing.T) {
	var buf bytes.Buffer
	s := newSpinnerTo(context.Background(), &buf, "Culling a long input name")
	s.draw("x")
	first := buf.Len()

	buf.Reset()
	s.SetMessage("Short")
	s.draw("x")
	if buf.Len() < first {
		t.Errorf("shorter line should be padded over the previous one: %d < %d bytes", buf.Len(), first)
	}
}

func TestSpinnerHooks(t *testing.T) {
	s := newSpinnerTo(context.Background(), io.Discard, "Culling")
	h := &spinnerHooks{spinner: s}
	h.OnGridStart(context.Background(), "run", 4, "centroid")
	h.OnCellComplete(context.Background(), observability.CellEvent{Index: 2})
	if !strings.HasSuffix(s.line(), " 3/4") {
		t.Errorf("line() = %q, want suffix 3/4", s.line())
	}
}
