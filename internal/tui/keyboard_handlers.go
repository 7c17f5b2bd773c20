package tui

// This file contains keyboard handling methods extracted from model.go
// for better code organization. All methods remain on the App struct.

import (
	"strconv"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/justchokingaround/inspire/internal/tui/components/help"
)

// handleKeyMsg processes all keyboard input and routes to appropriate handlers
func (a *App) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		a.shutdown()
		return a, tea.Quit
	}

	// If help is visible, ONLY allow help navigation keys
	if a.helpComponent.IsVisible() {
		var cmd tea.Cmd
		a.helpComponent, cmd = a.helpComponent.Update(msg)
		return a, cmd
	}

	// Text inputs get every key
	if a.state == galleryView && a.search.Focused() {
		var cmd tea.Cmd
		a.search, cmd = a.search.Update(msg)
		return a, cmd
	}
	if a.state == galleryView && a.grid.Filter().Editing() {
		return a, a.handleFilterKey(msg)
	}
	if a.state == historyView && a.historyComponent.IsInputActive() {
		var cmd tea.Cmd
		a.historyComponent, cmd = a.historyComponent.Update(msg)
		return a, cmd
	}

	if msg.String() == "?" {
		a.updateHelpContext()
		a.helpComponent.Show()
		return a, nil
	}

	if msg.String() != "q" {
		a.quitRequested = false
	}

	var cmd tea.Cmd
	switch a.state {
	case downloadsView:
		a.downloadsComponent, cmd = a.downloadsComponent.Update(msg)
		return a, cmd
	case historyView:
		a.historyComponent, cmd = a.historyComponent.Update(msg)
		return a, cmd
	case providerStatusView:
		a.providerStatusComponent, cmd = a.providerStatusComponent.Update(msg)
		return a, cmd
	}

	if a.preview.IsOpen() {
		a.preview, cmd = a.preview.Update(msg)
		return a, cmd
	}

	return a, a.handleGalleryKey(msg)
}

func (a *App) handleGalleryKey(msg tea.KeyMsg) tea.Cmd {
	key := msg.String()
	switch key {
	case "q":
		return a.requestQuit()
	case "esc":
		if a.grid.Filter().IsActive() {
			a.grid.Filter().Deactivate()
			a.grid.Refilter()
			return a.checkSentinel()
		}
		return nil
	case "s":
		return a.search.Focus()
	case "/":
		if a.grid.Filter().IsActive() {
			return a.grid.Filter().Unlock()
		}
		return a.grid.Filter().Activate()
	case "tab":
		a.toggleMediaType()
		return nil
	case "[":
		a.selectCategory(a.categories.Prev())
		return nil
	case "]":
		a.selectCategory(a.categories.Next())
		return nil
	case "r":
		a.queryState.Reset()
		return nil
	case "n":
		a.loadMore()
		return nil
	case "D":
		a.state = downloadsView
		return a.downloadsComponent.Activate()
	case "H":
		a.state = historyView
		a.historyComponent.Reset()
		return a.historyComponent.Refresh()
	case "P":
		a.state = providerStatusView
		return a.providerStatusComponent.Init()
	}

	if n, err := strconv.Atoi(key); err == nil && n >= 1 && n <= 9 {
		if category, ok := a.categories.Select(n); ok {
			a.selectCategory(category)
		}
		return nil
	}

	var cmd tea.Cmd
	a.grid, cmd = a.grid.Update(msg)
	return tea.Batch(cmd, a.checkSentinel())
}

// handleFilterKey edits the fuzzy filter over loaded items
func (a *App) handleFilterKey(msg tea.KeyMsg) tea.Cmd {
	filter := a.grid.Filter()
	switch msg.Type {
	case tea.KeyEsc:
		filter.Deactivate()
	case tea.KeyEnter:
		filter.Lock()
		return nil
	case tea.KeyUp, tea.KeyDown, tea.KeyLeft, tea.KeyRight:
		var cmd tea.Cmd
		a.grid, cmd = a.grid.Update(msg)
		return cmd
	default:
		cmd := filter.Update(msg)
		a.grid.Refilter()
		return cmd
	}
	a.grid.Refilter()
	return a.checkSentinel()
}

// requestQuit quits, asking for confirmation while downloads are running
func (a *App) requestQuit() tea.Cmd {
	if a.downloadMgr != nil && a.downloadMgr.HasActiveDownloads() && !a.quitRequested {
		a.quitRequested = true
		return a.setStatus("Downloads in progress. Press q again to quit and pause them.", true)
	}
	a.shutdown()
	return tea.Quit
}

func (a *App) updateHelpContext() {
	switch {
	case a.state == downloadsView:
		a.helpComponent.SetContext(help.DownloadsContext)
	case a.state == historyView:
		a.helpComponent.SetContext(help.HistoryContext)
	case a.state == providerStatusView:
		a.helpComponent.SetContext(help.ProviderStatusContext)
	case a.preview.IsOpen():
		a.helpComponent.SetContext(help.PreviewContext)
	default:
		a.helpComponent.SetContext(help.GalleryContext)
	}
}
