package cli

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/gridcut/pkg/pipeline"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

var cellHeaders = []string{"", "Cell", "X", "Y", "Bounds", "In", "Out", "Failed", ""}

// =============================================================================
// CellListModel - Interactive cell browser
// =============================================================================

// CellListModel is the bubbletea model for browsing the cells of a run.
type CellListModel struct {
	Cells    []pipeline.CellSummary
	Cursor   int
	Height   int
	Offset   int
	Detail   bool // show the detail pane for the cell under the cursor
	HideZero bool // hide cells that kept no features
}

// NewCellListModel creates a new cell list model.
func NewCellListModel(cells []pipeline.CellSummary) CellListModel {
	return CellListModel{Cells: cells, Height: 15}
}

func (m CellListModel) Init() tea.Cmd {
	return nil
}

func (m CellListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "esc":
			if m.Detail {
				m.Detail = false
				return m, nil
			}
			return m, tea.Quit
		case "up", "k":
			m.move(-1)
		case "down", "j":
			m.move(1)
		case "pgup":
			m.move(-m.Height)
		case "pgdown":
			m.move(m.Height)
		case "enter":
			if len(m.visible()) > 0 {
				m.Detail = !m.Detail
			}
		case "z":
			m.HideZero = !m.HideZero
			m.Cursor, m.Offset = 0, 0
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 10
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m *CellListModel) move(delta int) {
	n := len(m.visible())
	if n == 0 {
		return
	}
	m.Cursor = max(0, min(n-1, m.Cursor+delta))
	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	if m.Cursor >= m.Offset+m.Height {
		m.Offset = m.Cursor - m.Height + 1
	}
}

// visible returns the cells shown under the current filter.
func (m CellListModel) visible() []pipeline.CellSummary {
	if !m.HideZero {
		return m.Cells
	}
	var out []pipeline.CellSummary
	for _, c := range m.Cells {
		if c.Out > 0 {
			out = append(out, c)
		}
	}
	return out
}

func (m CellListModel) View() string {
	var b strings.Builder
	cells := m.visible()

	b.WriteString(StyleTitle.Render("Cells"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ details  z hide empty  q quit"))
	b.WriteString("\n\n")

	if len(cells) == 0 {
		b.WriteString(listDimStyle.Render("  no cells to show"))
		b.WriteString("\n")
		return b.String()
	}

	end := min(m.Offset+m.Height, len(cells))
	b.WriteString(renderCellTable(cells[m.Offset:end], m.Cursor-m.Offset))
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(cells))))

	if m.Detail {
		b.WriteString("\n\n")
		b.WriteString(renderCellDetail(cells[m.Cursor]))
	}
	return b.String()
}

// =============================================================================
// Rendering
// =============================================================================

// renderCellTable renders cells as a bordered table. cursor is the row to
// highlight, or -1 for none.
func renderCellTable(cells []pipeline.CellSummary, cursor int) string {
	rows := make([][]string, len(cells))
	for i, c := range cells {
		marker := "  "
		if i == cursor {
			marker = "▸ "
		}
		status := ""
		if c.Cached {
			status = iconCached
		}
		rows[i] = []string{
			marker,
			strconv.Itoa(c.Index),
			strconv.Itoa(c.X),
			strconv.Itoa(c.Y),
			c.Bounds.String(),
			strconv.Itoa(c.In),
			strconv.Itoa(c.Out),
			strconv.Itoa(c.Failed),
			status,
		}
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(cellHeaders...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if row < 0 || row >= len(cells) {
				return lipgloss.NewStyle()
			}
			c := cells[row]
			base := lipgloss.NewStyle()
			switch {
			case col == 7 && c.Failed > 0:
				base = base.Foreground(colorRed)
			case col == 8:
				base = styleCached
			case c.Out == 0:
				base = base.Foreground(colorDim)
			}
			if row == cursor {
				return base.Bold(true)
			}
			return base
		})

	return t.Render()
}

func renderCellDetail(c pipeline.CellSummary) string {
	var b strings.Builder
	line := func(k, v string) {
		b.WriteString(lipgloss.NewStyle().Foreground(colorGray).Width(10).Render(k))
		b.WriteString(" ")
		b.WriteString(StyleValue.Render(v))
		b.WriteString("\n")
	}
	b.WriteString(listSelectedStyle.Render(fmt.Sprintf("Cell %d (%d, %d)", c.Index, c.X, c.Y)))
	b.WriteString("\n")
	line("Bounds", c.Bounds.String())
	line("Size", fmt.Sprintf("%g x %g", c.Bounds.Width(), c.Bounds.Height()))
	line("Kept", fmt.Sprintf("%d of %d", c.Out, c.In))
	if c.Failed > 0 {
		line("Failed", strconv.Itoa(c.Failed))
	}
	if c.Cached {
		line("Source", iconCached)
	} else {
		line("Source", iconFresh)
	}
	return b.String()
}
