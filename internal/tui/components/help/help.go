package help

import (
	"fmt"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/justchokingaround/inspire/internal/tui/styles"
)

// HelpContext represents which view the help is being shown in
type HelpContext int

const (
	GlobalContext HelpContext = iota
	GalleryContext
	PreviewContext
	DownloadsContext
	HistoryContext
	ProviderStatusContext
)

// Shortcut represents a keyboard shortcut with its description
type Shortcut struct {
	Key         string
	Description string
	Context     []HelpContext
}

// Model represents the help panel state
type Model struct {
	context      HelpContext
	width        int
	height       int
	visible      bool
	serverURL    string
	scrollOffset int
}

// all shortcuts organized by context
var allShortcuts = []Shortcut{
	{Key: "?", Description: "Show/hide this help", Context: []HelpContext{GlobalContext}},
	{Key: "esc", Description: "Go back / Cancel", Context: []HelpContext{GlobalContext}},
	{Key: "q / ctrl+c", Description: "Quit application", Context: []HelpContext{GlobalContext}},

	// Gallery
	{Key: "↑↓←→ or hjkl", Description: "Move between cards", Context: []HelpContext{GalleryContext}},
	{Key: "pgup/pgdn", Description: "Scroll a page", Context: []HelpContext{GalleryContext}},
	{Key: "g / G", Description: "First / last card", Context: []HelpContext{GalleryContext}},
	{Key: "enter", Description: "Preview item", Context: []HelpContext{GalleryContext}},
	{Key: "s", Description: "Focus search bar", Context: []HelpContext{GalleryContext}},
	{Key: "tab", Description: "Toggle images/videos", Context: []HelpContext{GalleryContext}},
	{Key: "[ / ]", Description: "Previous / next category", Context: []HelpContext{GalleryContext}},
	{Key: "1-9", Description: "Pick a category", Context: []HelpContext{GalleryContext}},
	{Key: "r", Description: "Back to the default search", Context: []HelpContext{GalleryContext}},
	{Key: "n", Description: "Load more results", Context: []HelpContext{GalleryContext}},
	{Key: "/", Description: "Filter loaded results", Context: []HelpContext{GalleryContext, HistoryContext}},
	{Key: "D", Description: "View downloads", Context: []HelpContext{GalleryContext}},
	{Key: "H", Description: "View recent searches", Context: []HelpContext{GalleryContext}},
	{Key: "P", Description: "View provider health status", Context: []HelpContext{GalleryContext}},

	// Preview
	{Key: "d", Description: "Download", Context: []HelpContext{PreviewContext}},
	{Key: "y", Description: "Copy file URL", Context: []HelpContext{PreviewContext}},
	{Key: "o", Description: "Open page in browser", Context: []HelpContext{PreviewContext}},

	// Downloads
	{Key: "enter", Description: "Open downloaded file", Context: []HelpContext{DownloadsContext}},
	{Key: "c", Description: "Cancel download", Context: []HelpContext{DownloadsContext}},
	{Key: "r", Description: "Retry download", Context: []HelpContext{DownloadsContext}},
	{Key: "x", Description: "Remove from list", Context: []HelpContext{DownloadsContext}},
	{Key: "ctrl+r", Description: "Refresh list", Context: []HelpContext{DownloadsContext}},

	// History
	{Key: "enter", Description: "Search again", Context: []HelpContext{HistoryContext}},
	{Key: "x", Description: "Delete selected search", Context: []HelpContext{HistoryContext}},
	{Key: "X", Description: "Delete all searches", Context: []HelpContext{HistoryContext}},

	// Provider status
	{Key: "enter", Description: "Show details", Context: []HelpContext{ProviderStatusContext}},
	{Key: "r", Description: "Check again", Context: []HelpContext{ProviderStatusContext}},
}

// New creates a new help model
func New() Model {
	return Model{context: GlobalContext}
}

// SetServerURL sets the proxy address shown at the top
func (m *Model) SetServerURL(url string) {
	m.serverURL = url
}

// SetSize sets the terminal size the panel centers in
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Update handles scrolling while visible
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tea.KeyMsg:
		if !m.visible {
			return m, nil
		}
		// less-style navigation
		switch msg.String() {
		case "up", "k":
			m.scrollOffset = max(m.scrollOffset-1, 0)
		case "down", "j":
			m.scrollOffset++
		case "pgup", "b":
			m.scrollOffset = max(m.scrollOffset-10, 0)
		case "pgdown", " ", "f":
			m.scrollOffset += 10
		case "home", "g":
			m.scrollOffset = 0
		case "end", "G":
			m.scrollOffset = 999999 // clamped in View
		case "esc", "?", "q":
			m.Hide()
		}
	}
	return m, nil
}

// View renders the help panel
func (m Model) View() string {
	if !m.visible || m.width == 0 || m.height == 0 {
		return ""
	}

	boxWidth := 64
	if m.width < boxWidth+4 {
		boxWidth = max(m.width-4, 40)
	}

	var content strings.Builder
	if m.serverURL != "" {
		content.WriteString(lipgloss.NewStyle().Width(boxWidth - 4).Align(lipgloss.Center).
			Render(styles.SubtitleStyle.Render("Proxy: " + m.serverURL)))
		content.WriteString("\n")
	}
	content.WriteString(styles.HelpStyle.Render("↑/↓ j/k scroll • space/b page • g/G top/bottom • esc/? close"))
	content.WriteString("\n\n")

	global := filterBySpecificContext(allShortcuts, GlobalContext)
	content.WriteString(styles.SubtitleStyle.Render("General"))
	content.WriteString("\n")
	for _, sc := range global {
		content.WriteString(renderShortcutLine(sc) + "\n")
	}

	if m.context != GlobalContext {
		if specific := filterBySpecificContext(allShortcuts, m.context); len(specific) > 0 {
			content.WriteString("\n")
			content.WriteString(styles.SubtitleStyle.Render(m.getContextName()))
			content.WriteString("\n")
			for _, sc := range specific {
				content.WriteString(renderShortcutLine(sc) + "\n")
			}
		}
	}

	lines := strings.Split(strings.TrimRight(content.String(), "\n"), "\n")
	availableHeight := max(m.height-6, 10)

	offset := max(min(m.scrollOffset, len(lines)-availableHeight), 0)
	end := min(offset+availableHeight, len(lines))

	title := "KEYBOARD SHORTCUTS"
	if len(lines) > availableHeight {
		title += fmt.Sprintf(" (%d-%d/%d)", offset+1, end, len(lines))
	}
	titleBar := lipgloss.NewStyle().
		Foreground(styles.OxocarbonWhite).
		Background(styles.OxocarbonPurple).
		Padding(0, 2).
		Bold(true).
		Width(boxWidth - 4).
		Align(lipgloss.Center).
		Render(title)

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.OxocarbonPurple).
		Padding(0, 2).
		Width(boxWidth).
		Render(titleBar + "\n\n" + strings.Join(lines[offset:end], "\n"))

	if lipgloss.Height(box) >= m.height {
		return box
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

// SetContext sets the current help context
func (m *Model) SetContext(ctx HelpContext) {
	m.context = ctx
}

// Toggle toggles the visibility of the help panel
func (m *Model) Toggle() {
	if m.visible {
		m.Hide()
	} else {
		m.Show()
	}
}

// Show shows the help panel
func (m *Model) Show() {
	m.visible = true
	m.scrollOffset = 0
}

// Hide hides the help panel
func (m *Model) Hide() {
	m.visible = false
	m.scrollOffset = 0
}

// IsVisible returns whether the help panel is visible
func (m Model) IsVisible() bool {
	return m.visible
}

func renderShortcutLine(sc Shortcut) string {
	keyStyle := lipgloss.NewStyle().
		Foreground(styles.OxocarbonPurple).
		Bold(true).
		Width(18)

	return "  " + keyStyle.Render(sc.Key) + styles.MetadataStyle.Render(sc.Description)
}

func (m Model) getContextName() string {
	switch m.context {
	case GalleryContext:
		return "Gallery"
	case PreviewContext:
		return "Preview"
	case DownloadsContext:
		return "Downloads"
	case HistoryContext:
		return "Recent Searches"
	case ProviderStatusContext:
		return "Provider Status"
	default:
		return ""
	}
}

// filterBySpecificContext returns the shortcuts listed under ctx
func filterBySpecificContext(shortcuts []Shortcut, ctx HelpContext) []Shortcut {
	var filtered []Shortcut
	for _, sc := range shortcuts {
		if slices.Contains(sc.Context, ctx) {
			filtered = append(filtered, sc)
		}
	}
	return filtered
}
