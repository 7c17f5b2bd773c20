package search

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/justchokingaround/inspire/internal/media"
	"github.com/justchokingaround/inspire/internal/tui/common"
	"github.com/justchokingaround/inspire/internal/tui/styles"
)

// Model is the search bar together with the media type toggle
type Model struct {
	textInput textinput.Model
	mediaType media.MediaType
	width     int
}

func New() Model {
	ti := textinput.New()
	ti.Placeholder = "Search for free photos and videos"
	ti.Prompt = ""
	ti.CharLimit = 200
	ti.Width = 40

	// Oxocarbon styling: clean look with purple accent
	ti.PromptStyle = lipgloss.NewStyle().Foreground(styles.OxocarbonPurple)
	ti.TextStyle = lipgloss.NewStyle().Foreground(styles.OxocarbonBase05)
	ti.PlaceholderStyle = styles.MutedStyle
	ti.Cursor.Style = lipgloss.NewStyle().Foreground(styles.OxocarbonPurple)

	return Model{
		textInput: ti,
		mediaType: media.MediaTypeImages,
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles input while the bar is focused
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if !m.textInput.Focused() {
		return m, nil
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "enter":
			term := m.textInput.Value()
			m.textInput.Blur()
			return m, func() tea.Msg {
				return common.SubmitSearchMsg{Term: term}
			}
		case "esc":
			m.textInput.Blur()
			return m, func() tea.Msg {
				return common.CancelSearchMsg{}
			}
		}
	}

	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	box := styles.SearchBoxStyle
	if m.textInput.Focused() {
		box = styles.SearchBoxFocusedStyle
	}
	input := box.Render(m.textInput.View())

	return lipgloss.JoinHorizontal(lipgloss.Center, input, "  ", m.toggleView())
}

func (m Model) toggleView() string {
	images, videos := styles.ToggleInactiveStyle, styles.ToggleInactiveStyle
	if m.mediaType == media.MediaTypeVideos {
		videos = styles.ToggleActiveStyle
	} else {
		images = styles.ToggleActiveStyle
	}
	return images.Render("Images") + videos.Render("Videos")
}

// Focus gives the bar keyboard focus
func (m *Model) Focus() tea.Cmd {
	return m.textInput.Focus()
}

// Blur removes keyboard focus
func (m *Model) Blur() {
	m.textInput.Blur()
}

// Focused reports whether the bar has keyboard focus
func (m Model) Focused() bool {
	return m.textInput.Focused()
}

// SetWidth sets the total width available to the bar
func (m *Model) SetWidth(width int) {
	m.width = width
	// leave room for the toggle and the border
	m.textInput.Width = max(width-30, 10)
}

// SetValue sets the value of the search input
func (m *Model) SetValue(value string) {
	m.textInput.SetValue(value)
}

// GetValue returns the value of the search input
func (m Model) GetValue() string {
	return m.textInput.Value()
}

// SetMediaType updates the toggle
func (m *Model) SetMediaType(t media.MediaType) {
	m.mediaType = t
}
