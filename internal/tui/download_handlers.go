package tui

// This file contains download and sharing actions started from the preview.
// All methods remain on the App struct.

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/justchokingaround/inspire/internal/downloader"
	"github.com/justchokingaround/inspire/internal/media"
	"github.com/justchokingaround/inspire/internal/tui/common"
)

// downloadItem queues item with the download manager
func (a *App) downloadItem(item media.Item) tea.Cmd {
	if a.downloadMgr == nil {
		return a.setStatus("Downloads are not available", true)
	}
	mgr, ctx := a.downloadMgr, a.ctx
	return func() tea.Msg {
		task, err := mgr.Enqueue(ctx, item)
		return common.DownloadQueuedMsg{Task: task, Err: err}
	}
}

func (a *App) handleDownloadQueued(msg common.DownloadQueuedMsg) tea.Cmd {
	switch {
	case errors.Is(msg.Err, downloader.ErrAlreadyQueued):
		return a.setStatus("Already in the download queue", false)
	case msg.Err != nil:
		a.logger.Error("failed to queue download", "error", msg.Err)
		return a.setStatus("Download failed: "+msg.Err.Error(), true)
	}

	a.logger.Info("download queued", "id", msg.Task.ID, "media_id", msg.Task.MediaID, "path", msg.Task.OutputPath)
	return a.setStatus(fmt.Sprintf("Queued %s (D to view downloads)", displayName(msg.Task)), false)
}

// openInBrowser opens a page URL with the system browser
func (a *App) openInBrowser(url string) tea.Cmd {
	if url == "" {
		return a.setStatus("This item has no page URL", true)
	}
	open := a.openURL
	return func() tea.Msg {
		if err := open(url); err != nil {
			return common.StatusMsg{Text: "Failed to open browser: " + err.Error(), Error: true}
		}
		return common.StatusMsg{Text: "Opened " + url}
	}
}
