package common

import (
	"time"

	"github.com/justchokingaround/inspire/internal/downloader"
	"github.com/justchokingaround/inspire/internal/history"
	"github.com/justchokingaround/inspire/internal/media"
	"github.com/justchokingaround/inspire/internal/providers/api"
)

// This file contains custom tea.Msg types for communication between components.

// SubmitSearchMsg is sent when the search bar is submitted
type SubmitSearchMsg struct {
	Term string
}

// CancelSearchMsg is sent when the search bar loses focus without submitting
type CancelSearchMsg struct{}

// SelectCategoryMsg is sent when a category is chosen in the category bar
type SelectCategoryMsg struct {
	Category string
}

// QueryChangedMsg carries a new shared query into the update loop
type QueryChangedMsg struct {
	Query media.Query
}

// OpenPreviewMsg opens the preview modal for an item
type OpenPreviewMsg struct {
	Item media.Item
}

// ClosePreviewMsg closes the preview modal
type ClosePreviewMsg struct{}

// DownloadItemMsg requests a download of an item
type DownloadItemMsg struct {
	Item media.Item
}

// CopyURLMsg requests copying a URL to the clipboard
type CopyURLMsg struct {
	URL string
}

// OpenURLMsg requests opening a URL in the browser
type OpenURLMsg struct {
	URL string
}

// DownloadQueuedMsg reports a queued download
type DownloadQueuedMsg struct {
	Task downloader.Task
	Err  error
}

// DownloadsMsg carries a refreshed download queue
type DownloadsMsg struct {
	Tasks []downloader.Task
	Err   error
}

// HistoryMsg carries the recent searches
type HistoryMsg struct {
	Entries []history.Entry
	Err     error
}

// RunQueryMsg re-runs a query picked from history
type RunQueryMsg struct {
	Query media.Query
}

// HealthMsg carries the proxy's provider statuses
type HealthMsg struct {
	Health *api.HealthResponse
	Err    error
}

// BackMsg returns from a secondary view to the gallery
type BackMsg struct{}

// TickMsg drives periodic refreshes
type TickMsg time.Time

// StatusMsg shows a transient message in the footer
type StatusMsg struct {
	Text  string
	Error bool
}
