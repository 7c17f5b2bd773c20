package grid

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/justchokingaround/inspire/internal/media"
	"github.com/justchokingaround/inspire/internal/tui/common"
	"github.com/justchokingaround/inspire/internal/tui/styles"
	"github.com/justchokingaround/inspire/internal/tui/utils"
)

const (
	// CellWidth is the width of one card including its border
	CellWidth = 30
	cellLines = 3
	// CellHeight is the height of one card plus the spacer line
	CellHeight = cellLines + 1
)

// Model is the responsive card grid. The row right after the last item is
// the sentinel row; it shows the loading or end-of-results indicator.
type Model struct {
	items   []media.Item
	visible []int // indices into items that pass the filter
	cursor  int   // index into visible
	offset  int   // first rendered row
	width   int
	height  int
	filter  *common.FuzzySearch

	footer string
}

func New() Model {
	return Model{filter: common.NewFuzzySearch()}
}

// Filter returns the fuzzy filter over loaded items
func (m *Model) Filter() *common.FuzzySearch {
	return m.filter
}

// SetSize sets the area the grid may draw in
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.filter.SetWidth(width)
	m.ensureVisible()
}

// SetItems replaces the loaded items. Appending keeps the cursor in place.
func (m *Model) SetItems(items []media.Item) {
	m.items = items
	m.Refilter()
}

// Reset clears everything for a new query
func (m *Model) Reset() {
	m.items = nil
	m.visible = nil
	m.cursor = 0
	m.offset = 0
}

// Refilter recomputes the visible items after the filter changed
func (m *Model) Refilter() {
	captions := make([]string, len(m.items))
	for i, item := range m.items {
		captions[i] = item.Caption() + " " + item.Credit()
	}
	m.visible = m.filter.Filter(captions)
	m.cursor = min(m.cursor, max(len(m.visible)-1, 0))
	m.ensureVisible()
}

// SetFooter sets the text of the sentinel row
func (m *Model) SetFooter(footer string) {
	m.footer = footer
}

// Len returns the number of items shown
func (m Model) Len() int {
	return len(m.visible)
}

// Columns is the number of cards per row
func (m Model) Columns() int {
	return max(1, m.width/CellWidth)
}

// VisibleRows is the number of rows that fit on screen
func (m Model) VisibleRows() int {
	return max(1, m.height/CellHeight)
}

// Rows is the number of item rows
func (m Model) Rows() int {
	cols := m.Columns()
	return (len(m.visible) + cols - 1) / cols
}

// Offset returns the first rendered row
func (m Model) Offset() int {
	return m.offset
}

// Cursor returns the index of the selected card
func (m Model) Cursor() int {
	return m.cursor
}

// SentinelVisible reports whether the sentinel row, or one of the last
// threshold item rows, is inside the window. It is never visible while a
// filter query narrows the items or before anything has loaded.
func (m Model) SentinelVisible(threshold int) bool {
	if len(m.visible) == 0 {
		return false
	}
	if m.filter.IsActive() && m.filter.Query() != "" {
		return false
	}
	return m.offset+m.VisibleRows()+max(threshold, 0) > m.Rows()
}

// Selected returns the item under the cursor
func (m Model) Selected() (media.Item, bool) {
	if m.cursor < 0 || m.cursor >= len(m.visible) {
		return nil, false
	}
	return m.items[m.visible[m.cursor]], true
}

// Move shifts the cursor by rows and columns, clamping at the edges
func (m *Model) Move(dRow, dCol int) {
	if len(m.visible) == 0 {
		return
	}
	cols := m.Columns()
	next := m.cursor + dRow*cols + dCol
	if dCol != 0 {
		// horizontal moves stay on the current row
		rowStart := (m.cursor / cols) * cols
		next = max(rowStart, min(next, rowStart+cols-1))
	}
	m.cursor = max(0, min(next, len(m.visible)-1))
	m.ensureVisible()
}

// Top jumps to the first card
func (m *Model) Top() {
	m.cursor = 0
	m.ensureVisible()
}

// Bottom jumps to the last card
func (m *Model) Bottom() {
	m.cursor = max(len(m.visible)-1, 0)
	m.ensureVisible()
}

func (m *Model) ensureVisible() {
	rows := m.Rows()
	vis := m.VisibleRows()
	row := m.cursor / m.Columns()

	if row < m.offset {
		m.offset = row
	}
	if row >= m.offset+vis {
		m.offset = row - vis + 1
	}
	// on the last row, scroll far enough to show the sentinel row
	if rows > 0 && row == rows-1 {
		m.offset = max(m.offset, rows+1-vis)
	}
	m.offset = max(0, min(m.offset, max(rows+1-vis, 0)))
}

// Update handles grid navigation
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "up", "k":
		m.Move(-1, 0)
	case "down", "j":
		m.Move(1, 0)
	case "left", "h":
		m.Move(0, -1)
	case "right", "l":
		m.Move(0, 1)
	case "pgup", "ctrl+u":
		m.Move(-m.VisibleRows(), 0)
	case "pgdown", "ctrl+d":
		m.Move(m.VisibleRows(), 0)
	case "home", "g":
		m.Top()
	case "end", "G":
		m.Bottom()
	case "enter":
		if item, ok := m.Selected(); ok {
			return m, func() tea.Msg {
				return common.OpenPreviewMsg{Item: item}
			}
		}
	}
	return m, nil
}

// View renders the rows inside the window
func (m Model) View() string {
	cols := m.Columns()
	rows := m.Rows()
	vis := m.VisibleRows()

	var b strings.Builder
	for row := m.offset; row < m.offset+vis; row++ {
		if row > rows {
			break
		}
		if row == rows {
			b.WriteString(m.footerView())
			break
		}

		cells := make([]string, 0, cols)
		for col := 0; col < cols; col++ {
			i := row*cols + col
			if i >= len(m.visible) {
				break
			}
			cells = append(cells, m.renderCell(m.items[m.visible[i]], i == m.cursor))
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cells...))
		b.WriteString("\n\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

func (m Model) footerView() string {
	if m.footer == "" {
		return ""
	}
	return lipgloss.PlaceHorizontal(max(m.width, 1), lipgloss.Center, m.footer)
}

func (m Model) renderCell(item media.Item, selected bool) string {
	// border and padding take two cells, the gap one more
	inner := CellWidth - 3

	title := utils.FitWidth(item.Caption(), inner)
	credit := utils.FitWidth("by "+item.Credit(), inner)

	var meta string
	switch v := item.(type) {
	case *media.Photo:
		meta = fmt.Sprintf("%dx%d", v.Width, v.Height)
		if v.AvgColor != "" {
			swatch := styles.ColorSwatchStyle.Background(lipgloss.Color(v.AvgColor)).Render(" ")
			meta = swatch + " " + utils.FitWidth(meta, inner-lipgloss.Width(swatch)-1)
		} else {
			meta = utils.FitWidth(meta, inner)
		}
	case *media.Video:
		meta = utils.FitWidth(fmt.Sprintf("▶ %s • %dx%d", v.Length(), v.Width, v.Height), inner)
	default:
		meta = utils.FitWidth(item.Type().String(), inner)
	}

	style := styles.CellStyle
	titleStyle := styles.TitleStyle
	if selected {
		style = styles.CellSelectedStyle
		titleStyle = styles.SubtitleStyle
	}

	body := titleStyle.Render(title) + "\n" + styles.MetadataStyle.Render(credit) + "\n" + styles.MutedStyle.Render(meta)
	return style.Render(body) + " "
}
