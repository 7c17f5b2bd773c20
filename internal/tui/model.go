package tui

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/pkg/browser"

	"github.com/justchokingaround/inspire/internal/clipboard"
	"github.com/justchokingaround/inspire/internal/config"
	"github.com/justchokingaround/inspire/internal/downloader"
	"github.com/justchokingaround/inspire/internal/gallery"
	"github.com/justchokingaround/inspire/internal/media"
	"github.com/justchokingaround/inspire/internal/tui/common"
	"github.com/justchokingaround/inspire/internal/tui/components/categories"
	"github.com/justchokingaround/inspire/internal/tui/components/downloads"
	"github.com/justchokingaround/inspire/internal/tui/components/grid"
	"github.com/justchokingaround/inspire/internal/tui/components/help"
	"github.com/justchokingaround/inspire/internal/tui/components/history"
	"github.com/justchokingaround/inspire/internal/tui/components/preview"
	"github.com/justchokingaround/inspire/internal/tui/components/providerstatus"
	"github.com/justchokingaround/inspire/internal/tui/components/search"
	"github.com/justchokingaround/inspire/internal/tui/styles"
)

type sessionState int

const (
	galleryView sessionState = iota
	downloadsView
	historyView
	providerStatusView
)

const (
	// logo and search bar, category bar, summary line
	headerHeight = 4
	// blank line and status bar
	footerHeight = 2

	statusDuration = 4 * time.Second
)

// clearStatusMsg is an internal message to clear the status message
type clearStatusMsg struct {
	at time.Time
}

// backgroundMsg wraps a message sent from another goroutine through msgChan
type backgroundMsg struct {
	msg tea.Msg
}

// queryRefreshMsg and snapshotRefreshMsg wake the update loop after the
// shared query or the gallery changed; the handler reads the current state
type (
	queryRefreshMsg    struct{}
	snapshotRefreshMsg struct{}
)

// DownloadManager is what the gallery needs from the download manager
type DownloadManager interface {
	downloads.Manager
	Enqueue(ctx context.Context, item media.Item) (downloader.Task, error)
	HasActiveDownloads() bool
	OnComplete(callback func(task downloader.Task))
	OnError(callback func(task downloader.Task, err error))
}

// HistoryStore records and lists recent searches
type HistoryStore interface {
	history.Store
	Record(q media.Query) error
}

// Options holds everything the App is built from. Downloads and History may be nil.
type Options struct {
	Config    *config.Config
	Fetcher   gallery.Fetcher
	Health    providerstatus.HealthChecker
	Downloads DownloadManager
	History   HistoryStore
	Logger    *slog.Logger
}

type App struct {
	state  sessionState
	width  int
	height int

	cfg    *config.Config
	logger *slog.Logger

	// gallery core
	queryState  *gallery.QueryState
	session     *gallery.Session
	unsubscribe func()
	ctx         context.Context
	cancel      context.CancelFunc

	// components
	search                  search.Model
	categories              categories.Model
	grid                    grid.Model
	preview                 preview.Model
	downloadsComponent      downloads.Model
	historyComponent        history.Model
	providerStatusComponent providerstatus.Model
	helpComponent           help.Model
	spinner                 spinner.Model

	downloadMgr  DownloadManager
	historyStore HistoryStore
	clipboardSvc *clipboard.Service
	openURL      func(url string) error

	// For sending messages to UI from goroutines
	msgChan chan tea.Msg
	// set while a refresh is pending; at most one marker is queued per kind
	queryDirty    atomic.Bool
	snapshotDirty atomic.Bool

	// Status message (shown briefly at bottom)
	statusMsg     string
	statusIsError bool
	statusMsgTime time.Time

	quitRequested bool // warn once when quitting with active downloads
}

// NewApp builds the App. Nothing is fetched until Init.
func NewApp(opts Options) *App {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mediaType, err := media.ParseMediaType(cfg.Gallery.DefaultMediaType)
	if err != nil {
		mediaType = media.MediaTypeImages
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(styles.OxocarbonPurple)

	ctx, cancel := context.WithCancel(context.Background())

	app := &App{
		state:                   galleryView,
		cfg:                     cfg,
		logger:                  logger,
		queryState:              gallery.NewQueryState(media.Query{MediaType: mediaType}),
		ctx:                     ctx,
		cancel:                  cancel,
		search:                  search.New(),
		categories:              categories.New(cfg.Gallery.Categories),
		grid:                    grid.New(),
		preview:                 preview.New(cfg.Downloads.PreferredVideoQuality),
		downloadsComponent:      downloads.New(opts.Downloads),
		historyComponent:        history.New(opts.History),
		providerStatusComponent: providerstatus.New(opts.Health),
		helpComponent:           help.New(),
		spinner:                 s,
		downloadMgr:             opts.Downloads,
		historyStore:            opts.History,
		clipboardSvc:            clipboard.NewService(cfg.Advanced.Clipboard.Command, logger),
		openURL:                 browser.OpenURL,
		msgChan:                 make(chan tea.Msg, 100),
	}

	app.search.SetMediaType(mediaType)
	app.helpComponent.SetServerURL(cfg.API.BaseURL)

	app.session = gallery.NewSession(ctx, app.queryState, opts.Fetcher, gallery.SessionOptions{
		PageSize:     cfg.Gallery.PageSize,
		FallbackTerm: cfg.Gallery.DefaultTerm,
		Logger:       logger,
		OnUpdate: func(gallery.Snapshot) {
			app.notify(&app.snapshotDirty, snapshotRefreshMsg{})
		},
	})
	// subscribed after the session so the controller is already reset when the UI hears about it
	app.unsubscribe = app.queryState.Subscribe(func(media.Query) {
		app.notify(&app.queryDirty, queryRefreshMsg{})
	})

	if app.downloadMgr != nil {
		app.downloadMgr.OnComplete(func(task downloader.Task) {
			app.sendOptional(common.StatusMsg{Text: "Downloaded " + displayName(task)})
		})
		app.downloadMgr.OnError(func(task downloader.Task, err error) {
			app.sendOptional(common.StatusMsg{Text: fmt.Sprintf("Download of %s failed: %v", displayName(task), err), Error: true})
		})
	}

	return app
}

func (a *App) Init() tea.Cmd {
	a.session.Start()
	q := a.queryState.Get()
	return tea.Batch(
		a.listenForMessages(),
		a.spinner.Tick,
		func() tea.Msg { return common.QueryChangedMsg{Query: q} },
	)
}

// listenForMessages listens for messages from background goroutines
func (a *App) listenForMessages() tea.Cmd {
	return func() tea.Msg {
		return backgroundMsg{msg: <-a.msgChan}
	}
}

// notify marks a refresh pending and queues its marker unless one is
// already queued. Subscribers run inside Update too, so this never blocks;
// a marker dropped on a full channel is caught up by flushPending.
func (a *App) notify(dirty *atomic.Bool, marker tea.Msg) {
	if dirty.Swap(true) {
		return
	}
	a.sendOptional(marker)
}

// flushPending applies the refreshes flagged since the last call
func (a *App) flushPending() tea.Cmd {
	var cmds []tea.Cmd
	if a.queryDirty.Swap(false) {
		cmds = append(cmds, a.handleQueryChanged(a.queryState.Get()))
	}
	if a.snapshotDirty.Swap(false) {
		cmds = append(cmds, a.handleSnapshot())
	}
	return tea.Batch(cmds...)
}

// sendOptional drops the message when the UI is not keeping up
func (a *App) sendOptional(msg tea.Msg) {
	select {
	case a.msgChan <- msg:
	default:
		a.logger.Debug("dropping background message", "type", fmt.Sprintf("%T", msg))
	}
}

// shutdown stops the gallery session; called once before quitting
func (a *App) shutdown() {
	a.unsubscribe()
	a.cancel()
	a.session.Close()
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case backgroundMsg:
		_, cmd = a.Update(msg.msg)
		return a, tea.Batch(cmd, a.flushPending(), a.listenForMessages())

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.resize()
		return a, a.checkSentinel()

	case spinner.TickMsg:
		a.spinner, cmd = a.spinner.Update(msg)
		a.refreshFooter()
		return a, tea.Batch(cmd, a.flushPending())

	case tea.KeyMsg:
		return a.handleKeyMsg(msg)

	case common.QueryChangedMsg:
		return a, a.handleQueryChanged(msg.Query)

	case queryRefreshMsg, snapshotRefreshMsg:
		return a, a.flushPending()

	case common.SubmitSearchMsg:
		a.submitSearch(msg.Term)
		return a, nil

	case common.CancelSearchMsg:
		a.search.SetValue(a.queryState.Get().Term)
		return a, nil

	case common.OpenPreviewMsg:
		a.preview.Open(msg.Item)
		return a, a.checkSentinel()

	case common.ClosePreviewMsg:
		a.preview.Close()
		return a, a.checkSentinel()

	case common.DownloadItemMsg:
		return a, a.downloadItem(msg.Item)

	case common.DownloadQueuedMsg:
		return a, a.handleDownloadQueued(msg)

	case common.CopyURLMsg:
		if msg.URL == "" {
			return a, a.setStatus("Nothing to copy", true)
		}
		return a, a.clipboardSvc.CopyCmd(msg.URL)

	case clipboard.CopiedMsg:
		if msg.Err != nil {
			return a, a.setStatus("Copy failed: "+msg.Err.Error(), true)
		}
		return a, a.setStatus("Copied "+msg.Text, false)

	case common.OpenURLMsg:
		return a, a.openInBrowser(msg.URL)

	case common.RunQueryMsg:
		a.state = galleryView
		a.downloadsComponent.Deactivate()
		a.queryState.Set(msg.Query)
		return a, a.checkSentinel()

	case common.BackMsg:
		a.downloadsComponent.Deactivate()
		a.state = galleryView
		return a, a.checkSentinel()

	case common.StatusMsg:
		return a, a.setStatus(msg.Text, msg.Error)

	case clearStatusMsg:
		if msg.at.Equal(a.statusMsgTime) {
			a.statusMsg = ""
			a.statusIsError = false
		}
		return a, nil

	case common.HistoryMsg:
		a.historyComponent, cmd = a.historyComponent.Update(msg)
		return a, cmd

	case common.HealthMsg:
		a.providerStatusComponent, cmd = a.providerStatusComponent.Update(msg)
		return a, cmd
	}

	// everything else belongs to the component that owns the current view
	switch a.state {
	case downloadsView:
		a.downloadsComponent, cmd = a.downloadsComponent.Update(msg)
		cmds = append(cmds, cmd)
	case historyView:
		a.historyComponent, cmd = a.historyComponent.Update(msg)
		cmds = append(cmds, cmd)
	case providerStatusView:
		a.providerStatusComponent, cmd = a.providerStatusComponent.Update(msg)
		cmds = append(cmds, cmd)
	case galleryView:
		if a.search.Focused() {
			a.search, cmd = a.search.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	// the downloads ticker keeps running until it notices the view was left
	if a.state != downloadsView {
		a.downloadsComponent, cmd = a.downloadsComponent.Update(msg)
		cmds = append(cmds, cmd)
	}

	return a, tea.Batch(cmds...)
}

// resize propagates the terminal size to every component
func (a *App) resize() {
	a.search.SetWidth(a.width - lipgloss.Width(styles.LogoStyle.Render("inspire")) - 2)
	a.categories.SetWidth(a.width)
	a.grid.SetSize(a.width, max(a.height-headerHeight-footerHeight, grid.CellHeight))
	a.preview.SetSize(a.width, a.height)
	a.downloadsComponent.SetSize(a.width, a.height)
	a.historyComponent.SetSize(a.width, a.height)
	a.providerStatusComponent.SetSize(a.width, a.height)
	a.helpComponent.SetSize(a.width, a.height)
}

// setStatus shows a message in the status bar for a few seconds
func (a *App) setStatus(text string, isError bool) tea.Cmd {
	now := time.Now()
	a.statusMsg = text
	a.statusIsError = isError
	a.statusMsgTime = now
	if isError {
		a.logger.Warn("status", "message", text)
	}
	return tea.Tick(statusDuration, func(time.Time) tea.Msg {
		return clearStatusMsg{at: now}
	})
}

func (a *App) View() string {
	if a.width == 0 || a.height == 0 {
		return "Loading..."
	}

	if a.helpComponent.IsVisible() {
		return a.helpComponent.View()
	}

	var body string
	switch a.state {
	case downloadsView:
		body = a.downloadsComponent.View()
	case historyView:
		body = a.historyComponent.View()
	case providerStatusView:
		body = a.providerStatusComponent.View()
	default:
		if a.preview.IsOpen() {
			body = a.preview.View()
		} else {
			body = a.galleryView()
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().Height(a.height-1).MaxHeight(a.height-1).Render(body),
		a.statusBar(),
	)
}

func (a *App) galleryView() string {
	logo := styles.LogoStyle.Render("inspire")
	top := lipgloss.JoinHorizontal(lipgloss.Center, logo, "  ", a.search.View())

	var summary string
	if a.grid.Filter().IsActive() {
		summary = a.grid.Filter().View()
	} else {
		summary = a.summaryLine(a.session.Snapshot())
	}

	return strings.Join([]string{
		top,
		a.categories.View(),
		summary,
		"",
		a.grid.View(),
	}, "\n")
}

func (a *App) summaryLine(snap gallery.Snapshot) string {
	term := snap.Query.EffectiveTerm()
	if term == "" {
		return ""
	}
	line := styles.SubtitleStyle.Render(fmt.Sprintf("%q %s", term, snap.Query.Type()))
	if snap.TotalResults > 0 {
		line += styles.MetadataStyle.Render(fmt.Sprintf(" • %s results • %d loaded", humanize.Comma(int64(snap.TotalResults)), len(snap.Items)))
	}
	return line
}

func (a *App) statusBar() string {
	var left string
	switch {
	case a.statusMsg != "" && a.statusIsError:
		left = styles.ErrorStyle.Render(a.statusMsg)
	case a.statusMsg != "":
		left = styles.SuccessStyle.Render(a.statusMsg)
	case a.state == galleryView:
		if err := a.session.Snapshot().LastErr; err != nil {
			left = styles.ErrorStyle.Render("Error: " + err.Error() + " (n to retry)")
		}
	}

	hint := styles.HelpStyle.Render("? help • q quit")
	gap := max(a.width-lipgloss.Width(left)-lipgloss.Width(hint)-2, 1)
	return styles.FooterStyle.Width(a.width).Render(left + strings.Repeat(" ", gap) + hint)
}

func displayName(task downloader.Task) string {
	if task.OutputPath != "" {
		return filepath.Base(task.OutputPath)
	}
	return fmt.Sprintf("%s %d", task.MediaType, task.MediaID)
}
