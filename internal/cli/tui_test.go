package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/gridcut/pkg/feature"
	"github.com/matzehuels/gridcut/pkg/pipeline"
)

func testCells() []pipeline.CellSummary {
	cells := make([]pipeline.CellSummary, 6)
	for i := range cells {
		x, y := i%3, i/3
		cells[i] = pipeline.CellSummary{
			Index:  i,
			X:      x,
			Y:      y,
			Bounds: feature.Extent{MinX: float64(x), MinY: float64(y), MaxX: float64(x + 1), MaxY: float64(y + 1)},
			In:     4,
		}
	}
	cells[1].Out = 2
	cells[4].Out = 1
	cells[4].Failed = 1
	return cells
}

func press(m tea.Model, keys ...string) tea.Model {
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "down", "up", "enter", "esc":
			msg = tea.KeyMsg{Type: map[string]tea.KeyType{
				"down": tea.KeyDown, "up": tea.KeyUp, "enter": tea.KeyEnter, "esc": tea.KeyEsc,
			}[k]}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		m, _ = m.Update(msg)
	}
	return m
}

func TestCellListNavigation(t *testing.T) {
	m := NewCellListModel(testCells())
	m.Height = 2

	got := press(m, "down", "down", "down").(CellListModel)
	if got.Cursor != 3 {
		t.Errorf("Cursor = %d, want 3", got.Cursor)
	}
	if got.Offset != 2 {
		t.Errorf("Offset = %d, want 2", got.Offset)
	}

	got = press(got, "up", "up", "up", "up", "up").(CellListModel)
	if got.Cursor != 0 || got.Offset != 0 {
		t.Errorf("Cursor, Offset = %d, %d; want 0, 0", got.Cursor, got.Offset)
	}

	got = press(got, "j", "j", "j", "j", "j", "j", "j").(CellListModel)
	if got.Cursor != 5 {
		t.Errorf("Cursor = %d, want clamp at 5", got.Cursor)
	}
}

func TestCellListHideZero(t *testing.T) {
	m := press(NewCellListModel(testCells()), "down", "z").(CellListModel)
	if !m.HideZero {
		t.Fatal("z should toggle HideZero")
	}
	if m.Cursor != 0 {
		t.Errorf("Cursor = %d, want reset to 0", m.Cursor)
	}
	if n := len(m.visible()); n != 2 {
		t.Errorf("visible = %d cells, want 2", n)
	}

	m = press(m, "down", "enter").(CellListModel)
	if !m.Detail {
		t.Fatal("enter should open the detail pane")
	}
	view := m.View()
	if !strings.Contains(view, "Cell 4 (1, 1)") {
		t.Errorf("detail pane missing cell 4:\n%s", view)
	}
	if !strings.Contains(view, "Failed") {
		t.Errorf("detail pane should show failed count:\n%s", view)
	}

	m = press(m, "esc").(CellListModel)
	if m.Detail {
		t.Error("esc should close the detail pane first")
	}
}

func TestCellListQuit(t *testing.T) {
	_, cmd := NewCellListModel(testCells()).Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("q should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

func TestCellListEmpty(t *testing.T) {
	m := press(NewCellListModel(nil), "down", "enter").(CellListModel)
	if m.Detail {
		t.Error("detail pane should not open without cells")
	}
	if !strings.Contains(m.View(), "no cells") {
		t.Error("empty view should say so")
	}
}

func TestRenderCellTable(t *testing.T) {
	out := renderCellTable(testCells(), -1)
	for _, want := range []string{"Cell", "Bounds", "Failed", "1,1 => 2,2"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "▸") {
		t.Error("no row should be highlighted with cursor -1")
	}
}

func TestNonEmptyCells(t *testing.T) {
	got := nonEmptyCells(testCells())
	if len(got) != 2 || got[0].Index != 1 || got[1].Index != 4 {
		t.Errorf("nonEmptyCells() = %+v", got)
	}
}
