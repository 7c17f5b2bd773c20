package common

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/justchokingaround/inspire/internal/tui/styles"
	"github.com/sahilm/fuzzy"
)

// FuzzySearch filters already-loaded items by their captions
type FuzzySearch struct {
	input  textinput.Model
	active bool
	locked bool // filter applied but not editable, so action keys work
	query  string
}

// NewFuzzySearch creates a new fuzzy search component
func NewFuzzySearch() *FuzzySearch {
	ti := textinput.New()
	ti.Placeholder = "Type to filter..."
	ti.Prompt = ""
	ti.CharLimit = 200
	ti.TextStyle = styles.MetadataStyle
	ti.PlaceholderStyle = styles.MutedStyle

	return &FuzzySearch{input: ti}
}

// Activate enables fuzzy search mode
func (f *FuzzySearch) Activate() tea.Cmd {
	f.active = true
	f.locked = false
	f.input.Focus()
	f.input.SetValue("")
	f.query = ""
	return textinput.Blink
}

// Deactivate disables fuzzy search mode
func (f *FuzzySearch) Deactivate() {
	f.active = false
	f.locked = false
	f.input.Blur()
	f.input.SetValue("")
	f.query = ""
}

// Lock stops editing and keeps the filter applied
func (f *FuzzySearch) Lock() {
	if f.active {
		f.locked = true
		f.input.Blur()
	}
}

// Unlock allows editing again
func (f *FuzzySearch) Unlock() tea.Cmd {
	if f.active {
		f.locked = false
		f.input.Focus()
		return textinput.Blink
	}
	return nil
}

func (f *FuzzySearch) IsActive() bool { return f.active }
func (f *FuzzySearch) IsLocked() bool { return f.locked }
func (f *FuzzySearch) Query() string  { return f.query }

// Editing reports whether keystrokes go to the filter input
func (f *FuzzySearch) Editing() bool {
	return f.active && !f.locked
}

// Update handles input while editing
func (f *FuzzySearch) Update(msg tea.Msg) tea.Cmd {
	if !f.Editing() {
		return nil
	}

	var cmd tea.Cmd
	f.input, cmd = f.input.Update(msg)
	f.query = f.input.Value()
	return cmd
}

// SetQuery sets the filter text directly
func (f *FuzzySearch) SetQuery(q string) {
	f.input.SetValue(q)
	f.query = q
}

// View renders the filter line
func (f *FuzzySearch) View() string {
	if !f.active {
		return ""
	}

	prompt := styles.TitleStyle.Render("┃")
	label := styles.MetadataStyle.Render("Filter: ")

	if f.locked {
		hint := styles.HelpStyle.Render(" (locked • / to edit • esc to clear)")
		return label + prompt + " " + styles.TitleStyle.Render(f.query) + hint
	}

	hint := styles.HelpStyle.Render(" (enter to lock • esc to clear)")
	return label + prompt + " " + f.input.View() + hint
}

// SetWidth sets the width of the filter input
func (f *FuzzySearch) SetWidth(width int) {
	f.input.Width = max(width-40, 10)
}

// Filter returns the indices of matching entries, best match first.
// Without a query every index is returned in order.
func (f *FuzzySearch) Filter(entries []string) []int {
	if !f.active || f.query == "" {
		indices := make([]int, len(entries))
		for i := range indices {
			indices[i] = i
		}
		return indices
	}

	matches := fuzzy.Find(f.query, entries)
	indices := make([]int, len(matches))
	for i, match := range matches {
		indices[i] = match.Index
	}
	return indices
}
