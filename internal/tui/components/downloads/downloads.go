package downloads

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/pkg/browser"

	"github.com/justchokingaround/inspire/internal/downloader"
	"github.com/justchokingaround/inspire/internal/tui/common"
	"github.com/justchokingaround/inspire/internal/tui/styles"
	"github.com/justchokingaround/inspire/internal/tui/utils"
)

const refreshInterval = 300 * time.Millisecond

// Manager is the part of the download manager the view drives
type Manager interface {
	GetQueue(ctx context.Context) ([]downloader.Task, error)
	Cancel(ctx context.Context, id string) error
	Retry(ctx context.Context, id string) error
	Remove(ctx context.Context, id string) error
}

// Model represents the downloads view
type Model struct {
	downloads     []downloader.Task
	currentIndex  int
	manager       Manager
	width         int
	height        int
	active        bool
	tickerRunning bool
	progressBar   progress.Model
	err           error

	openFile func(path string) error
}

// refreshMsg is an internal message carrying the refreshed queue
type refreshMsg struct {
	downloads []downloader.Task
	err       error
}

// tickMsg drives the auto refresh while the view is showing
type tickMsg struct{}

// getStatusIcon returns an icon for the download status
func getStatusIcon(status downloader.Status) string {
	switch status {
	case downloader.StatusQueued:
		return "⏳"
	case downloader.StatusDownloading:
		return "▶"
	case downloader.StatusCompleted:
		return "✓"
	case downloader.StatusFailed:
		return "✗"
	case downloader.StatusCancelled:
		return "⊘"
	default:
		return "•"
	}
}

// New creates a new downloads model
func New(manager Manager) Model {
	prog := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(20),
		progress.WithoutPercentage(),
	)

	return Model{
		manager:     manager,
		progressBar: prog,
		openFile:    browser.OpenFile,
	}
}

// Activate is called when the view is shown; it refreshes and starts the ticker
func (m *Model) Activate() tea.Cmd {
	m.active = true
	if m.tickerRunning {
		return m.fetchDownloads()
	}
	m.tickerRunning = true
	return tea.Batch(m.fetchDownloads(), tick())
}

// Deactivate lets the ticker run out
func (m *Model) Deactivate() {
	m.active = false
}

func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height

	progressWidth := 20
	if width > 80 {
		progressWidth = 30
	}
	if width > 120 {
		progressWidth = 40
	}
	m.progressBar.Width = progressWidth
}

// Downloads returns the tasks currently shown
func (m Model) Downloads() []downloader.Task {
	return m.downloads
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

func (m Model) fetchDownloads() tea.Cmd {
	manager := m.manager
	return func() tea.Msg {
		if manager == nil {
			return refreshMsg{}
		}
		downloads, err := manager.GetQueue(context.Background())
		return refreshMsg{downloads: downloads, err: err}
	}
}

// act runs an action on a task and refreshes the queue afterwards
func (m Model) act(id string, action func(ctx context.Context, id string) error) tea.Cmd {
	manager := m.manager
	return func() tea.Msg {
		ctx := context.Background()
		if err := action(ctx, id); err != nil {
			return refreshMsg{err: err}
		}
		downloads, err := manager.GetQueue(ctx)
		return refreshMsg{downloads: downloads, err: err}
	}
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		if !m.active {
			m.tickerRunning = false
			return m, nil
		}
		return m, tea.Batch(m.fetchDownloads(), tick())

	case refreshMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.SetDownloads(msg.downloads)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.currentIndex > 0 {
			m.currentIndex--
		}
	case "down", "j":
		if m.currentIndex < len(m.downloads)-1 {
			m.currentIndex++
		}
	case "g", "home":
		m.currentIndex = 0
	case "G", "end":
		m.currentIndex = max(len(m.downloads)-1, 0)
	case "esc", "q":
		return m, func() tea.Msg { return common.BackMsg{} }
	case "ctrl+r":
		return m, m.fetchDownloads()
	}

	task, ok := m.selected()
	if !ok || m.manager == nil {
		return m, nil
	}

	switch msg.String() {
	case "c":
		if !task.Status.IsComplete() {
			return m, m.act(task.ID, m.manager.Cancel)
		}
	case "r":
		if task.Status == downloader.StatusFailed || task.Status == downloader.StatusCancelled {
			return m, m.act(task.ID, m.manager.Retry)
		}
	case "x", "delete":
		if !task.Status.IsActive() {
			return m, m.act(task.ID, m.manager.Remove)
		}
	case "enter", "o":
		if task.Status == downloader.StatusCompleted {
			path, open := task.OutputPath, m.openFile
			return m, func() tea.Msg {
				if err := open(path); err != nil {
					return common.StatusMsg{Text: fmt.Sprintf("Failed to open %s: %v", filepath.Base(path), err), Error: true}
				}
				return nil
			}
		}
	}
	return m, nil
}

func (m Model) selected() (downloader.Task, bool) {
	if m.currentIndex < 0 || m.currentIndex >= len(m.downloads) {
		return downloader.Task{}, false
	}
	return m.downloads[m.currentIndex], true
}

// SetDownloads updates the downloads list
func (m *Model) SetDownloads(downloads []downloader.Task) {
	m.downloads = downloads
	if m.currentIndex >= len(downloads) {
		m.currentIndex = max(len(downloads)-1, 0)
	}
}

// renderProgressBar renders a 0-100 progress value
func (m Model) renderProgressBar(progressValue float64) string {
	percent := max(0, min(progressValue/100.0, 1.0))
	return m.progressBar.ViewAs(percent)
}

func (m Model) renderDownloadItem(task downloader.Task, selected bool) string {
	boxStyle := styles.CellStyle
	titleStyle := styles.TitleStyle
	if selected {
		boxStyle = styles.CellSelectedStyle
		titleStyle = styles.SubtitleStyle
	}

	title := filepath.Base(task.OutputPath)
	if task.Credit != "" {
		title += " by " + task.Credit
	}
	titleStr := titleStyle.Render(utils.TruncateWithWidth(title, max(m.width-6, 20)))

	metaParts := []string{styles.FormatStatusBadge(getStatusIcon(task.Status) + " " + task.Status.String())}

	switch task.Status {
	case downloader.StatusDownloading:
		metaParts = append(metaParts, m.renderProgressBar(task.Progress), fmt.Sprintf("%.1f%%", task.Progress))
		if task.TotalBytes > 0 {
			metaParts = append(metaParts, humanize.Bytes(uint64(task.BytesDownloaded))+" / "+humanize.Bytes(uint64(task.TotalBytes)))
		}
		if task.Speed > 0 {
			metaParts = append(metaParts, humanize.Bytes(uint64(task.Speed))+"/s")
		}
	case downloader.StatusCompleted:
		if task.TotalBytes > 0 {
			metaParts = append(metaParts, humanize.Bytes(uint64(task.TotalBytes)))
		}
		if task.CompletedAt != nil {
			metaParts = append(metaParts, humanize.Time(*task.CompletedAt))
		}
	case downloader.StatusFailed:
		if task.Error != "" {
			metaParts = append(metaParts, utils.TruncateWithWidth(task.Error, 50))
		}
	case downloader.StatusQueued:
		metaParts = append(metaParts, "added "+humanize.Time(task.CreatedAt))
	}

	return boxStyle.Render(titleStr + "\n" + styles.MetadataStyle.Render(strings.Join(metaParts, " • ")))
}

func (m Model) getVisibleRange(total int) (int, int) {
	maxVisible := 8
	if m.height > 0 {
		maxVisible = max((m.height-8)/3, 3)
	}

	if total <= maxVisible {
		return 0, total
	}

	// Keep selection centered
	start := max(m.currentIndex-maxVisible/2, 0)
	end := start + maxVisible
	if end > total {
		end = total
		start = max(end-maxVisible, 0)
	}
	return start, end
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(styles.HeaderStyle.Render("DOWNLOADS"))
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(styles.ErrorStyle.Render("Error: " + m.err.Error()))
		b.WriteString("\n\n")
	}

	if len(m.downloads) == 0 {
		b.WriteString(styles.MetadataStyle.Render("No downloads yet.\n\nPress 'd' in a preview to download a photo or video."))
		b.WriteString("\n\n")
		b.WriteString(styles.HelpStyle.Render("esc back"))
		return b.String()
	}

	active := 0
	for _, d := range m.downloads {
		if !d.Status.IsComplete() {
			active++
		}
	}
	b.WriteString(styles.SubtitleStyle.Render(fmt.Sprintf("%d items", len(m.downloads))))
	if active > 0 {
		b.WriteString(styles.MetadataStyle.Render(fmt.Sprintf(" • %d active", active)))
	}
	b.WriteString("\n\n")

	start, end := m.getVisibleRange(len(m.downloads))
	for i := start; i < end; i++ {
		b.WriteString(m.renderDownloadItem(m.downloads[i], i == m.currentIndex))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(styles.HelpStyle.Render("↑/↓ • ⏎ open file • c cancel • r retry • x remove • ctrl+r refresh • esc back"))
	return b.String()
}
