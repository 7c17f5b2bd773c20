package providerstatus

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/justchokingaround/inspire/internal/providers/api"
	"github.com/justchokingaround/inspire/internal/tui/common"
	"github.com/justchokingaround/inspire/internal/tui/styles"
)

const refreshInterval = 30 * time.Second

// HealthChecker reports the proxy's provider health
type HealthChecker interface {
	Health(ctx context.Context) (*api.HealthResponse, error)
}

type Model struct {
	list          list.Model
	checker       HealthChecker
	overall       string
	err           error
	showingDetail bool
	selectedItem  *item
}

type item struct {
	status api.ProviderHealth
}

func (i item) Title() string {
	return i.status.Name
}

func (i item) Description() string {
	if i.status.Healthy {
		return fmt.Sprintf("✅ %s", i.status.Status)
	}
	return fmt.Sprintf("❌ %s", i.status.Status)
}

func (i item) FilterValue() string { return i.status.Name }

// healthTickMsg schedules the next check
type healthTickMsg struct{}

func New(checker HealthChecker) Model {
	l := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Provider Health Status"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.Styles.Title = lipgloss.NewStyle().Bold(true).Foreground(styles.OxocarbonPurple)
	return Model{list: l, checker: checker}
}

// Init fetches the statuses and schedules a periodic refresh
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.fetchStatuses(), tick())
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(time.Time) tea.Msg {
		return healthTickMsg{}
	})
}

func (m *Model) SetSize(width, height int) {
	m.list.SetSize(width, max(height-2, 1))
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case msg.Type == tea.KeyEnter && !m.showingDetail:
			if i, ok := m.list.SelectedItem().(item); ok {
				m.showingDetail = true
				m.selectedItem = &i
			}
			return m, nil
		case (msg.Type == tea.KeyEscape || msg.String() == "q") && m.showingDetail:
			m.showingDetail = false
			m.selectedItem = nil
			return m, nil
		case msg.Type == tea.KeyEscape || msg.String() == "q":
			return m, func() tea.Msg { return common.BackMsg{} }
		case msg.String() == "r":
			return m, m.fetchStatuses()
		}
	case healthTickMsg:
		return m, tea.Batch(m.fetchStatuses(), tick())
	case common.HealthMsg:
		if msg.Err != nil {
			m.err = msg.Err
			return m, nil
		}
		m.err = nil
		m.overall = msg.Health.Status
		items := make([]list.Item, len(msg.Health.Providers))
		for i, s := range msg.Health.Providers {
			items[i] = item{status: s}
		}
		m.list.SetItems(items)
		return m, nil
	}

	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.err != nil {
		return styles.ErrorStyle.Render(fmt.Sprintf("Error: %v", m.err)) +
			"\n\n" + styles.HelpStyle.Render("r retry • esc back")
	}
	if m.showingDetail {
		return m.renderDetail()
	}

	var b strings.Builder
	if m.overall != "" {
		b.WriteString(styles.MetadataStyle.Render("Overall: "+m.overall) + "\n")
	}
	b.WriteString(m.list.View())
	b.WriteString("\n" + styles.HelpStyle.Render("enter details • r refresh • esc back"))
	return b.String()
}

func (m Model) renderDetail() string {
	s := m.selectedItem.status
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Provider: %s\n\n", s.Name))
	b.WriteString(fmt.Sprintf("Status: %s\n", s.Status))
	b.WriteString(fmt.Sprintf("Healthy: %t\n", s.Healthy))
	if !s.LastCheck.IsZero() {
		b.WriteString(fmt.Sprintf("Last check: %s\n", humanize.Time(s.LastCheck)))
	}
	b.WriteString("\n[Press Escape or q to go back]")
	return b.String()
}

func (m Model) fetchStatuses() tea.Cmd {
	checker := m.checker
	return func() tea.Msg {
		if checker == nil {
			return common.HealthMsg{Err: fmt.Errorf("failed to get provider statuses")}
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		health, err := checker.Health(ctx)
		if err == nil && health == nil {
			err = fmt.Errorf("failed to get provider statuses")
		}
		return common.HealthMsg{Health: health, Err: err}
	}
}
