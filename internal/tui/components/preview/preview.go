package preview

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

// Model is the modal shown for a single item
type Model struct {
	item    media.Item
	quality string
	width   int
	height  int
}

func New(preferredQuality string) Model {
	if preferredQuality == "" {
		preferredQuality = media.DefaultVideoQuality
	}
	return Model{quality: preferredQuality}
}

// Open shows the modal for item
func (m *Model) Open(item media.Item) {
	m.item = item
}

// Close hides the modal
func (m *Model) Close() {
	m.item = nil
}

// IsOpen reports whether the modal is showing
func (m Model) IsOpen() bool {
	return m.item != nil
}

// Item returns the item being previewed
func (m Model) Item() media.Item {
	return m.item
}

func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Update maps modal keys to actions
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok || m.item == nil {
		return m, nil
	}

	item := m.item
	switch key.String() {
	case "esc", "q", "enter":
		return m, func() tea.Msg { return common.ClosePreviewMsg{} }
	case "d":
		return m, func() tea.Msg { return common.DownloadItemMsg{Item: item} }
	case "y":
		return m, func() tea.Msg { return common.CopyURLMsg{URL: m.assetURL()} }
	case "o":
		return m, func() tea.Msg { return common.OpenURLMsg{URL: item.PageURL()} }
	}
	return m, nil
}

// assetURL is the file a download would fetch
func (m Model) assetURL() string {
	if v, ok := m.item.(*media.Video); ok {
		if f, ok := v.BestFile(m.quality); ok {
			return f.Link
		}
	}
	return m.item.FullURL()
}

func (m Model) View() string {
	if m.item == nil {
		return ""
	}

	boxWidth := 72
	if m.width > 0 && m.width < boxWidth+4 {
		boxWidth = max(m.width-4, 30)
	}
	inner := boxWidth - 6

	var b strings.Builder
	b.WriteString(styles.HeaderStyle.Render(utils.TruncateWithWidth(m.item.Caption(), inner)))
	b.WriteString("\n")
	b.WriteString(field("By", m.item.Credit()))

	switch v := m.item.(type) {
	case *media.Photo:
		b.WriteString(field("Size", fmt.Sprintf("%d × %d", v.Width, v.Height)))
		if v.AvgColor != "" {
			swatch := styles.ColorSwatchStyle.Background(lipgloss.Color(v.AvgColor)).Render("  ")
			b.WriteString(field("Color", swatch+" "+v.AvgColor))
		}
		if v.Alt != "" {
			b.WriteString("\n")
			b.WriteString(styles.MetadataStyle.Render(utils.TruncateToLines(v.Alt, 3, inner)))
			b.WriteString("\n")
		}
	case *media.Video:
		b.WriteString(field("Duration", v.Length().String()))
		b.WriteString(field("Size", fmt.Sprintf("%d × %d", v.Width, v.Height)))
		if len(v.VideoFiles) > 0 {
			b.WriteString("\n")
			b.WriteString(styles.SubtitleStyle.Render("Variants"))
			b.WriteString("\n")
			best, _ := v.BestFile(m.quality)
			for _, f := range v.VideoFiles {
				marker := "  "
				if f.Link == best.Link {
					marker = "▸ "
				}
				line := fmt.Sprintf("%s%-4s %4dx%-4d %5.2f fps  %s", marker, f.Quality, f.Width, f.Height, f.FPS, f.FileType)
				b.WriteString(styles.MetadataStyle.Render(utils.TruncateWithWidth(line, inner)))
				b.WriteString("\n")
			}
		}
	}

	if page := m.item.PageURL(); page != "" {
		b.WriteString("\n")
		b.WriteString(styles.URLStyle.Render(utils.TruncateWithWidth(page, inner)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(styles.HelpStyle.Render("d download • y copy url • o open in browser • esc close"))

	box := styles.PopupStyle.Width(boxWidth).Render(b.String())
	if m.width == 0 || m.height == 0 {
		return box
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func field(label, value string) string {
	return styles.MutedStyle.Render(fmt.Sprintf("%-9s", label)) + styles.MetadataStyle.Render(value) + "\n"
}
