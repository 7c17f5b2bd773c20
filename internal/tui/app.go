package tui

import (
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/browser"
)

// Start runs the gallery until the user quits
func Start(opts Options) error {
	// the browser helper writes to stdout, which belongs to the TUI
	browser.Stdout = io.Discard
	browser.Stderr = io.Discard

	app := NewApp(opts)
	p := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		app.shutdown()
		return fmt.Errorf("error running program: %w", err)
	}
	return nil
}
