package categories

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/justchokingaround/inspire/internal/tui/styles"
)

// Model is the horizontal category bar. No category is selected while the
// user searches with a typed term.
type Model struct {
	categories []string
	selected   int // -1 when none
	width      int
}

func New(categories []string) Model {
	return Model{categories: categories, selected: -1}
}

// Categories returns the configured categories
func (m Model) Categories() []string {
	return m.categories
}

// Selected returns the selected category, or "" when none is
func (m Model) Selected() string {
	if m.selected < 0 || m.selected >= len(m.categories) {
		return ""
	}
	return m.categories[m.selected]
}

// SetSelected highlights the category with the given name (case-insensitive);
// an unknown name clears the selection
func (m *Model) SetSelected(name string) {
	m.selected = -1
	for i, c := range m.categories {
		if strings.EqualFold(c, name) {
			m.selected = i
			return
		}
	}
}

// Next moves the selection right, wrapping, and returns the new category
func (m *Model) Next() string {
	if len(m.categories) == 0 {
		return ""
	}
	m.selected = (m.selected + 1) % len(m.categories)
	return m.Selected()
}

// Prev moves the selection left, wrapping, and returns the new category
func (m *Model) Prev() string {
	if len(m.categories) == 0 {
		return ""
	}
	if m.selected <= 0 {
		m.selected = len(m.categories) - 1
	} else {
		m.selected--
	}
	return m.Selected()
}

// Select picks the category at a 1-based position
func (m *Model) Select(n int) (string, bool) {
	if n < 1 || n > len(m.categories) {
		return "", false
	}
	m.selected = n - 1
	return m.Selected(), true
}

func (m *Model) SetWidth(width int) {
	m.width = width
}

// View renders as many pills as fit, keeping the selected one on screen
func (m Model) View() string {
	if len(m.categories) == 0 {
		return ""
	}

	pills := make([]string, len(m.categories))
	for i, c := range m.categories {
		label := c
		if i < 9 {
			label = fmt.Sprintf("%d %s", i+1, c)
		}
		if i == m.selected {
			pills[i] = styles.CategorySelectedStyle.Render(label)
		} else {
			pills[i] = styles.CategoryStyle.Render(label)
		}
	}

	if m.width <= 0 {
		return lipgloss.JoinHorizontal(lipgloss.Top, pills...)
	}

	start := 0
	for start < m.selected && lipgloss.Width(lipgloss.JoinHorizontal(lipgloss.Top, pills[start:m.selected+1]...)) > m.width {
		start++
	}

	var out []string
	used := 0
	for _, p := range pills[start:] {
		w := lipgloss.Width(p)
		if used+w > m.width {
			break
		}
		out = append(out, p)
		used += w
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, out...)
}
