// Package tui is the interactive terminal front end: pick indices, pick
// fields, search, browse the result grid, sort by column, export.
package tui

import (
	"context"
	"fmt"
	"strings"

	btable "github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tablastic/tablastic"
)

// SearchPort is the TUI-facing subset of the client. The view layer never
// talks to the engine directly.
type SearchPort interface {
	Indices(ctx context.Context) ([]string, error)
	FieldNames(ctx context.Context, indices ...string) ([]string, error)
	Search(ctx context.Context, indices []string, term string, fields []string) (*tablastic.Table, error)
	ExportExcel(t *tablastic.Table, path string) error
}

type phase int

const (
	phaseIndices phase = iota
	phaseFields
	phaseResults
)

// checklist is a scrollable multi-select list with an "All" entry on top.
type checklist struct {
	title   string
	items   []string
	checked map[int]bool
	all     bool
	cursor  int
}

func newChecklist(title string, items []string) checklist {
	return checklist{title: title, items: items, checked: make(map[int]bool), all: true}
}

// toggle flips the entry under the cursor. Selecting "All" clears the rest;
// selecting anything else clears "All".
func (c *checklist) toggle() {
	if c.cursor == 0 {
		c.all = true
		c.checked = make(map[int]bool)
		return
	}
	idx := c.cursor - 1
	c.checked[idx] = !c.checked[idx]
	c.all = false
	if len(c.selected()) == 0 {
		c.all = true
	}
}

func (c *checklist) move(delta int) {
	n := len(c.items) + 1 // plus the All entry
	c.cursor = ((c.cursor+delta)%n + n) % n
}

// selected returns the checked item names, nil when "All" is active.
func (c *checklist) selected() []string {
	if c.all {
		return nil
	}
	var out []string
	for i, item := range c.items {
		if c.checked[i] {
			out = append(out, item)
		}
	}
	return out
}

// Model is the Bubble Tea model for the tablastic TUI.
type Model struct {
	port SearchPort

	phase   phase
	indices checklist
	fields  checklist
	input   textinput.Model
	grid    btable.Model
	results *tablastic.Table
	status  string

	// Column-sort toggle state lives here, in the presentation layer;
	// the table's SortBy is stateless per call.
	sortCol   int
	sortedBy  string
	ascending bool

	width, height int
}

// New creates the TUI model. Index discovery happens on Init.
func New(port SearchPort) Model {
	ti := textinput.New()
	ti.Prompt = "query> "
	ti.Placeholder = "free-text search across fields"
	ti.CharLimit = 0

	return Model{
		port:   port,
		input:  ti,
		status: "Loading indices...",
	}
}

type indicesMsg struct {
	names []string
	err   error
}

// Init fetches the index listing.
func (m Model) Init() tea.Cmd {
	return func() tea.Msg {
		names, err := m.port.Indices(context.Background())
		return indicesMsg{names: names, err: err}
	}
}

// Update handles key, window, and data events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		if m.results != nil {
			m.rebuildGrid()
		}
		return m, nil

	case indicesMsg:
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			return m, nil
		}
		m.indices = newChecklist("Indices", msg.names)
		m.status = "Pick indices (space toggles, enter continues)"
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		switch m.phase {
		case phaseIndices:
			return m.updateIndices(msg)
		case phaseFields:
			return m.updateFields(msg)
		case phaseResults:
			return m.updateResults(msg)
		}
	}
	return m, nil
}

func (m Model) updateIndices(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "up":
		m.indices.move(-1)
	case "down":
		m.indices.move(1)
	case " ":
		m.indices.toggle()
	case "enter":
		names, err := m.port.FieldNames(context.Background(), m.indices.selected()...)
		if err != nil {
			m.status = "Error: " + err.Error()
			return m, nil
		}
		m.fields = newChecklist("Fields", names)
		m.phase = phaseFields
		m.status = "Pick fields (space toggles, enter continues)"
	}
	return m, nil
}

func (m Model) updateFields(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "esc":
		m.phase = phaseIndices
		m.status = "Pick indices (space toggles, enter continues)"
	case "up":
		m.fields.move(-1)
	case "down":
		m.fields.move(1)
	case " ":
		m.fields.toggle()
	case "enter":
		m.input.Focus()
		m.phase = phaseResults
		m.status = "Type a query and press enter"
	}
	return m, nil
}

func (m Model) updateResults(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// The query line owns the keyboard while focused.
	if m.input.Focused() {
		switch msg.String() {
		case "esc":
			if m.results != nil {
				m.input.Blur()
				return m, nil
			}
			m.phase = phaseFields
			m.status = "Pick fields (space toggles, enter continues)"
			return m, nil
		case "enter":
			return m.runSearch()
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "/":
		m.input.Focus()
		return m, textinput.Blink
	case "esc":
		m.phase = phaseFields
		m.status = "Pick fields (space toggles, enter continues)"
		return m, nil
	case "left":
		m.moveSortCursor(-1)
		return m, nil
	case "right":
		m.moveSortCursor(1)
		return m, nil
	case "s", "enter":
		m.sortByCursor()
		return m, nil
	case "e":
		m.exportCurrent()
		return m, nil
	}

	var cmd tea.Cmd
	m.grid, cmd = m.grid.Update(msg)
	return m, cmd
}

func (m Model) runSearch() (tea.Model, tea.Cmd) {
	term := strings.TrimSpace(m.input.Value())
	t, err := m.port.Search(
		context.Background(),
		m.indices.selected(),
		term,
		m.fields.selected(),
	)
	if err != nil {
		m.status = "Error: " + err.Error()
		return m, nil
	}
	m.results = t
	m.sortCol = 0
	m.sortedBy = ""
	m.ascending = true
	m.rebuildGrid()
	m.input.Blur()
	m.status = fmt.Sprintf("%d rows, %d columns — arrows browse, left/right pick column, s sorts, e exports, / edits query",
		t.Len(), len(t.Columns()))
	return m, nil
}

func (m *Model) moveSortCursor(delta int) {
	if m.results == nil {
		return
	}
	cols := m.results.Columns()
	if len(cols) == 0 {
		return
	}
	n := len(cols)
	m.sortCol = ((m.sortCol+delta)%n + n) % n
	m.status = "Sort column: " + cols[m.sortCol]
}

// sortByCursor toggles sort direction on repeated invocations against the
// same column, matching clickable column headers.
func (m *Model) sortByCursor() {
	if m.results == nil {
		return
	}
	cols := m.results.Columns()
	if len(cols) == 0 {
		return
	}
	col := cols[m.sortCol]
	asc := true
	if m.sortedBy == col {
		asc = !m.ascending
	}
	if err := m.results.SortBy(col, asc); err != nil {
		m.status = "Error: " + err.Error()
		return
	}
	m.sortedBy = col
	m.ascending = asc
	m.rebuildGrid()
	dir := "ascending"
	if !asc {
		dir = "descending"
	}
	m.status = fmt.Sprintf("Sorted by %s (%s)", col, dir)
}

func (m *Model) exportCurrent() {
	if m.results == nil || m.results.Len() == 0 {
		m.status = "Nothing to export"
		return
	}
	path := "tablastic-export.xlsx"
	if err := m.port.ExportExcel(m.results, path); err != nil {
		m.status = "Export failed: " + err.Error()
		return
	}
	m.status = "Saved " + path
}

// rebuildGrid re-creates the bubbles table from the current result table.
func (m *Model) rebuildGrid() {
	cols := m.results.Columns()
	width := 16
	if m.width > 0 && len(cols) > 0 {
		if w := m.width/len(cols) - 2; w > width {
			width = w
		}
	}
	bcols := make([]btable.Column, len(cols))
	for i, c := range cols {
		bcols[i] = btable.Column{Title: c, Width: width}
	}
	brows := make([]btable.Row, m.results.Len())
	for i, row := range m.results.Rows() {
		cells := make([]string, len(cols))
		for j, c := range cols {
			if v, ok := row[c]; ok {
				cells[j] = tablastic.Render(v)
			}
		}
		brows[i] = cells
	}

	height := 10
	if m.height > 14 {
		height = m.height - 8
	}
	grid := btable.New(
		btable.WithColumns(bcols),
		btable.WithRows(brows),
		btable.WithFocused(true),
		btable.WithHeight(height),
	)
	styles := btable.DefaultStyles()
	styles.Header = styles.Header.Bold(true).BorderStyle(lipgloss.NormalBorder()).BorderBottom(true)
	styles.Selected = styles.Selected.Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57"))
	grid.SetStyles(styles)
	m.grid = grid
}

// View renders the current phase.
func (m Model) View() string {
	switch m.phase {
	case phaseIndices:
		return m.renderChecklist(m.indices)
	case phaseFields:
		return m.renderChecklist(m.fields)
	default:
		return m.renderResults()
	}
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	cursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	sortedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
)

func (m Model) renderChecklist(c checklist) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(c.title) + "\n\n")

	line := func(idx int, label string, checked bool) {
		mark := "[ ]"
		if checked {
			mark = "[x]"
		}
		row := fmt.Sprintf("%s %s", mark, label)
		if idx == c.cursor {
			row = cursorStyle.Render("> " + row)
		} else {
			row = "  " + row
		}
		b.WriteString(row + "\n")
	}

	line(0, "All", c.all)
	for i, item := range c.items {
		line(i+1, item, c.checked[i])
	}
	b.WriteString("\n" + statusStyle.Render(m.status))
	return b.String()
}

func (m Model) renderResults() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Search Results") + "\n")
	b.WriteString(m.input.View() + "\n")
	if m.results != nil && m.results.Len() > 0 {
		cols := m.results.Columns()
		if m.sortCol < len(cols) {
			b.WriteString(sortedStyle.Render("column: "+cols[m.sortCol]) + "\n")
		}
		b.WriteString(m.grid.View() + "\n")
	} else if m.results != nil {
		b.WriteString("\nNo hits.\n")
	}
	b.WriteString(statusStyle.Render(m.status))
	return b.String()
}
