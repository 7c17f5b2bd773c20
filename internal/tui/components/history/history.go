package history

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"github.com/justchokingaround/inspire/internal/history"
	"github.com/justchokingaround/inspire/internal/tui/common"
	"github.com/justchokingaround/inspire/internal/tui/styles"
)

const recentLimit = 50

// Store is the search history the view reads and edits
type Store interface {
	Recent(limit int) ([]history.Entry, error)
	Delete(id uint) error
	Clear() error
}

// KeyMap defines keybindings for the history view
type KeyMap struct {
	Up        key.Binding
	Down      key.Binding
	Select    key.Binding
	Back      key.Binding
	Search    key.Binding
	Delete    key.Binding
	DeleteAll key.Binding
}

// DefaultKeyMap returns default keybindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "search again"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "q"),
			key.WithHelp("esc/q", "back"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "filter"),
		),
		Delete: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "delete item"),
		),
		DeleteAll: key.NewBinding(
			key.WithKeys("X"),
			key.WithHelp("X", "delete all"),
		),
	}
}

// Model is the recent searches view
type Model struct {
	store        Store
	entries      []history.Entry
	currentIndex int
	width        int
	height       int
	fuzzySearch  *common.FuzzySearch
	keys         KeyMap
	err          error
}

func New(store Store) Model {
	return Model{
		store:       store,
		fuzzySearch: common.NewFuzzySearch(),
		keys:        DefaultKeyMap(),
	}
}

func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.fuzzySearch.SetWidth(width)
}

// Refresh reloads the entries from the store
func (m Model) Refresh() tea.Cmd {
	store := m.store
	return func() tea.Msg {
		if store == nil {
			return common.HistoryMsg{}
		}
		entries, err := store.Recent(recentLimit)
		return common.HistoryMsg{Entries: entries, Err: err}
	}
}

// Reset clears the filter and selection
func (m *Model) Reset() {
	m.fuzzySearch.Deactivate()
	m.currentIndex = 0
}

// IsInputActive returns true if the filter input takes keystrokes
func (m Model) IsInputActive() bool {
	return m.fuzzySearch.Editing()
}

// Filtered returns the entries that pass the filter
func (m Model) Filtered() []history.Entry {
	labels := make([]string, len(m.entries))
	for i, e := range m.entries {
		labels[i] = label(e)
	}
	indices := m.fuzzySearch.Filter(labels)
	out := make([]history.Entry, len(indices))
	for i, idx := range indices {
		out[i] = m.entries[idx]
	}
	return out
}

func (m Model) selected() (history.Entry, bool) {
	filtered := m.Filtered()
	if m.currentIndex < 0 || m.currentIndex >= len(filtered) {
		return history.Entry{}, false
	}
	return filtered[m.currentIndex], true
}

func label(e history.Entry) string {
	if e.Query.Term != "" {
		return e.Query.Term
	}
	return e.Query.Category
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case common.HistoryMsg:
		m.err = msg.Err
		if msg.Err == nil {
			m.entries = msg.Entries
			m.currentIndex = min(m.currentIndex, max(len(m.entries)-1, 0))
		}
		return m, nil

	case tea.KeyMsg:
		if m.fuzzySearch.Editing() {
			switch msg.String() {
			case "esc":
				m.fuzzySearch.Deactivate()
			case "enter":
				m.fuzzySearch.Lock()
			default:
				cmd := m.fuzzySearch.Update(msg)
				m.currentIndex = 0
				return m, cmd
			}
			return m, nil
		}

		if m.fuzzySearch.IsActive() && msg.String() == "esc" {
			m.fuzzySearch.Deactivate()
			m.currentIndex = 0
			return m, nil
		}

		switch {
		case key.Matches(msg, m.keys.Up):
			if m.currentIndex > 0 {
				m.currentIndex--
			}
		case key.Matches(msg, m.keys.Down):
			if m.currentIndex < len(m.Filtered())-1 {
				m.currentIndex++
			}
		case key.Matches(msg, m.keys.Search):
			if m.fuzzySearch.IsActive() {
				return m, m.fuzzySearch.Unlock()
			}
			return m, m.fuzzySearch.Activate()
		case key.Matches(msg, m.keys.Select):
			if e, ok := m.selected(); ok {
				return m, func() tea.Msg {
					return common.RunQueryMsg{Query: e.Query}
				}
			}
		case key.Matches(msg, m.keys.Delete):
			if e, ok := m.selected(); ok && m.store != nil {
				return m, m.mutate(func() error { return m.store.Delete(e.ID) })
			}
		case key.Matches(msg, m.keys.DeleteAll):
			if m.store != nil {
				return m, m.mutate(m.store.Clear)
			}
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg { return common.BackMsg{} }
		}
	}
	return m, nil
}

// mutate runs a store change and reloads the entries
func (m Model) mutate(change func() error) tea.Cmd {
	refresh := m.Refresh()
	return func() tea.Msg {
		if err := change(); err != nil {
			return common.HistoryMsg{Err: err}
		}
		return refresh()
	}
}

func (m Model) getVisibleRange(total int) (int, int) {
	maxVisible := 10
	if m.height > 0 {
		maxVisible = max((m.height-8)/3, 3)
	}
	if total <= maxVisible {
		return 0, total
	}
	start := max(m.currentIndex-maxVisible/2, 0)
	end := start + maxVisible
	if end > total {
		end = total
		start = max(end-maxVisible, 0)
	}
	return start, end
}

func (m Model) View() string {
	var content strings.Builder
	content.WriteString("\n")
	content.WriteString(styles.HeaderStyle.Render("RECENT SEARCHES"))
	content.WriteString("\n")

	if m.err != nil {
		content.WriteString(styles.ErrorStyle.Render("Error: " + m.err.Error()))
		content.WriteString("\n\n")
	}

	filtered := m.Filtered()
	if len(filtered) == 0 {
		if m.fuzzySearch.IsActive() && m.fuzzySearch.Query() != "" {
			content.WriteString(m.fuzzySearch.View() + "\n\n")
			content.WriteString(styles.SubtitleStyle.Render("No searches match your filter."))
		} else {
			content.WriteString(styles.SubtitleStyle.Render("No searches yet."))
		}
		content.WriteString("\n\n" + styles.HelpStyle.Render("esc back"))
		return content.String()
	}

	content.WriteString(styles.SubtitleStyle.Render(fmt.Sprintf("%d searches", len(filtered))))
	content.WriteString("\n")
	if m.fuzzySearch.IsActive() {
		content.WriteString("\n" + m.fuzzySearch.View() + "\n")
	}
	content.WriteString("\n")

	start, end := m.getVisibleRange(len(filtered))
	for i := start; i < end; i++ {
		content.WriteString(m.renderEntry(filtered[i], i == m.currentIndex))
		content.WriteString("\n")
	}

	help := "↑/↓ nav • enter search again • / filter • x delete • X delete all • esc back"
	if m.fuzzySearch.Editing() {
		help = "Type to filter • enter lock • esc clear"
	}
	content.WriteString("\n" + styles.HelpStyle.Render(help))
	return content.String()
}

func (m Model) renderEntry(e history.Entry, selected bool) string {
	style := styles.CellStyle
	titleStyle := styles.TitleStyle
	if selected {
		style = styles.CellSelectedStyle
		titleStyle = styles.SubtitleStyle
	}

	title := e.Query.Term
	if title == "" {
		title = "Category: " + e.Query.Category
	}

	uses := "1 search"
	if e.UseCount != 1 {
		uses = fmt.Sprintf("%d searches", e.UseCount)
	}
	meta := strings.Join([]string{e.Query.Type().String(), uses, humanize.Time(e.LastUsed)}, " • ")

	return style.Render(titleStyle.Render(title) + "\n" + styles.MetadataStyle.Render(meta))
}
