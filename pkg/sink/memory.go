package sink

import (
	"context"
	"sort"
	"sync"
)

// MemorySink keeps the most recent write of every cell index.
type MemorySink struct {
	mu     sync.RWMutex
	cells  map[int]Cell
	closed bool
}

// NewMemorySink returns an empty memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{cells: make(map[int]Cell)}
}

// WriteCell implements Sink.
func (m *MemorySink) WriteCell(ctx context.Context, c Cell) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cells[c.Index] = c
	return nil
}

// Cell returns the stored cell with the given index.
func (m *MemorySink) Cell(index int) (Cell, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.cells[index]
	return c, ok
}

// Cells returns all stored cells sorted by index.
func (m *MemorySink) Cells() []Cell {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Cell, 0, len(m.cells))
	for _, c := range m.cells {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// Len returns the number of stored cells.
func (m *MemorySink) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.cells)
}

// Closed reports whether Close was called.
func (m *MemorySink) Closed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.closed
}

// Close implements Sink. Stored cells stay readable.
func (m *MemorySink) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}
