package tui

// This file contains the glue between the gallery core and the grid.
// All methods remain on the App struct.

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/justchokingaround/inspire/internal/media"
	"github.com/justchokingaround/inspire/internal/tui/styles"
)

// handleQueryChanged brings the widgets in line with a new query. The session
// has already reset the controller and issued the first page request.
func (a *App) handleQueryChanged(q media.Query) tea.Cmd {
	if q != a.queryState.Get() {
		// another change is queued behind this one
		return nil
	}

	a.search.SetValue(q.Term)
	a.search.SetMediaType(q.Type())
	a.categories.SetSelected(q.Category)

	a.grid.Filter().Deactivate()
	a.grid.Reset()
	a.refreshGrid()

	// the new result set starts out of view
	a.session.Sentinel().SetVisible(false)

	return a.recordHistory(q)
}

// handleSnapshot refreshes the grid after a page was applied
func (a *App) handleSnapshot() tea.Cmd {
	a.refreshGrid()
	return a.checkSentinel()
}

// refreshGrid copies the accumulated items into the grid
func (a *App) refreshGrid() {
	snap := a.session.Snapshot()
	a.grid.SetItems(snap.Items)
	a.refreshFooter()
}

// refreshFooter updates the sentinel row text
func (a *App) refreshFooter() {
	snap := a.session.Snapshot()

	var footer string
	switch {
	case snap.InProgress:
		footer = a.spinner.View() + styles.MetadataStyle.Render(" Loading more...")
	case snap.Exhausted && len(snap.Items) == 0:
		footer = styles.MutedStyle.Render(fmt.Sprintf("No results for %q", snap.Query.EffectiveTerm()))
	case snap.Exhausted:
		footer = styles.MutedStyle.Render("No more results")
	case snap.LastErr != nil:
		footer = styles.ErrorStyle.Render("Failed to load more results. Press n to retry.")
	}
	a.grid.SetFooter(footer)
}

// checkSentinel reports the sentinel row's visibility; entering the window
// loads the next page through the session
func (a *App) checkSentinel() tea.Cmd {
	visible := a.state == galleryView &&
		!a.preview.IsOpen() &&
		a.grid.SentinelVisible(a.cfg.Gallery.SentinelThreshold)

	if a.session.Sentinel().SetVisible(visible) {
		a.refreshFooter()
	}
	return nil
}

// loadMore requests the next page directly, for the n key
func (a *App) loadMore() {
	a.session.LoadMore()
	a.refreshFooter()
}

// submitSearch applies the text typed into the search bar
func (a *App) submitSearch(term string) {
	term = strings.TrimSpace(term)
	if term == "" {
		q := a.queryState.Get()
		if q.Category == "" {
			// nothing typed and no category: back to the default search
			a.queryState.Reset()
			return
		}
		a.search.SetValue("")
	}
	a.queryState.SetTerm(term)
}

func (a *App) selectCategory(category string) {
	if category == "" {
		return
	}
	a.queryState.SetCategory(category)
}

func (a *App) toggleMediaType() {
	a.queryState.SetMediaType(a.queryState.Get().Type().Toggle())
}

func (a *App) recordHistory(q media.Query) tea.Cmd {
	store := a.historyStore
	if store == nil || q.Validate() != nil {
		return nil
	}
	logger := a.logger
	return func() tea.Msg {
		if err := store.Record(q); err != nil {
			logger.Warn("failed to record search", "query", q.String(), "error", err)
		}
		return nil
	}
}
