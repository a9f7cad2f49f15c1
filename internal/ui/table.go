package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Table renders rows with simple spacing alignment, no borders.
// Widths are measured with lipgloss so styled cells align correctly.
type Table struct {
	header     []string
	rows       [][]string
	colWidths  []int
	colPadding int
}

// NewTable creates a table with the given number of columns.
func NewTable(cols int) *Table {
	return &Table{
		colWidths:  make([]int, cols),
		colPadding: 2,
	}
}

// SetHeader sets a bold header row.
func (t *Table) SetHeader(cells ...string) {
	styled := make([]string, len(cells))
	for i, c := range cells {
		styled[i] = Bold.Render(c)
	}
	t.header = t.fit(styled)
}

// AddRow appends one row; missing cells stay empty, extras are dropped.
func (t *Table) AddRow(cells ...string) {
	t.rows = append(t.rows, t.fit(cells))
}

func (t *Table) fit(cells []string) []string {
	row := make([]string, len(t.colWidths))
	for i := 0; i < len(t.colWidths) && i < len(cells); i++ {
		row[i] = cells[i]
		if w := lipgloss.Width(cells[i]); w > t.colWidths[i] {
			t.colWidths[i] = w
		}
	}
	return row
}

// String renders the table.
func (t *Table) String() string {
	if len(t.rows) == 0 && t.header == nil {
		return ""
	}

	var sb strings.Builder
	pad := strings.Repeat(" ", t.colPadding)

	writeRow := func(row []string) {
		for i, cell := range row {
			if i > 0 {
				sb.WriteString(pad)
			}
			sb.WriteString(cell)
			if i < len(row)-1 {
				sb.WriteString(strings.Repeat(" ", t.colWidths[i]-lipgloss.Width(cell)))
			}
		}
		sb.WriteString("\n")
	}

	if t.header != nil {
		writeRow(t.header)
	}
	for _, row := range t.rows {
		writeRow(row)
	}
	return sb.String()
}

// List renders a simple bulleted list.
type List struct {
	items  []string
	indent string
	bullet string
}

// NewList creates a list with two-space indent and a dash bullet.
func NewList() *List {
	return &List{indent: "  ", bullet: "- "}
}

// Add appends an item.
func (l *List) Add(item string) {
	l.items = append(l.items, item)
}

// String renders the list.
func (l *List) String() string {
	var sb strings.Builder
	for _, item := range l.items {
		sb.WriteString(l.indent)
		sb.WriteString(l.bullet)
		sb.WriteString(item)
		sb.WriteString("\n")
	}
	return sb.String()
}
