package clipboard

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
)

// Logger interface for clipboard operations
type Logger interface {
	Debug(msg string, keyvals ...any)
	Warn(msg string, keyvals ...any)
}

// CopiedMsg reports the outcome of an asynchronous copy
type CopiedMsg struct {
	Text string
	Err  error
}

// Service copies text to the system clipboard
type Service struct {
	command string
	logger  Logger

	// overridable in tests
	writeAll func(string) error
	lookPath func(string) (string, error)
}

// NewService creates a clipboard service. command, when set, is run with the
// text on stdin instead of the native clipboard.
func NewService(command string, logger Logger) *Service {
	return &Service{
		command:  strings.TrimSpace(command),
		logger:   logger,
		writeAll: clipboard.WriteAll,
		lookPath: exec.LookPath,
	}
}

// Copy writes text to the clipboard
func (s *Service) Copy(text string) error {
	if s.command != "" {
		return s.copyWithCommand(text, s.command)
	}

	err := s.writeAll(text)
	if err == nil {
		s.logger.Debug("copied to clipboard", "text_length", len(text))
		return nil
	}
	s.logger.Warn("native clipboard failed, trying system tools", "error", err)

	parts, ok := s.defaultCommand()
	if !ok {
		return fmt.Errorf("no clipboard tool found (install wl-clipboard, xclip or xsel): %w", err)
	}
	return s.run(parts, text)
}

// CopyCmd copies text off the bubbletea update loop
func (s *Service) CopyCmd(text string) tea.Cmd {
	return func() tea.Msg {
		return CopiedMsg{Text: text, Err: s.Copy(text)}
	}
}

func (s *Service) copyWithCommand(text, command string) error {
	parts := parseCommand(command)
	if len(parts) == 0 {
		return fmt.Errorf("invalid clipboard command: %q", command)
	}
	return s.run(parts, text)
}

func (s *Service) run(parts []string, text string) error {
	cmd := exec.Command(parts[0], parts[1:]...)
	cmd.Stdin = strings.NewReader(text)

	s.logger.Debug("running clipboard command", "command", parts[0], "text_length", len(text))
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("clipboard command %s failed: %w", parts[0], err)
	}
	return nil
}

// defaultCommand picks a clipboard tool for the current platform
func (s *Service) defaultCommand() ([]string, bool) {
	switch runtime.GOOS {
	case "windows":
		return []string{"clip.exe"}, true
	case "darwin":
		return []string{"pbcopy"}, true
	}

	if isWSL() {
		return []string{"clip.exe"}, true
	}
	candidates := [][]string{
		{"wl-copy"},
		{"xclip", "-selection", "clipboard"},
		{"xsel", "--clipboard", "--input"},
	}
	for _, c := range candidates {
		if _, err := s.lookPath(c[0]); err == nil {
			return c, true
		}
	}
	return nil, false
}

// parseCommand splits a command string into arguments, respecting quotes
func parseCommand(command string) []string {
	var parts []string
	var current strings.Builder
	var quote rune

	flush := func() {
		if current.Len() > 0 {
			parts = append(parts, current.String())
			current.Reset()
		}
	}

	for _, ch := range command {
		switch {
		case quote != 0:
			if ch == quote {
				quote = 0
			} else {
				current.WriteRune(ch)
			}
		case ch == '\'' || ch == '"':
			quote = ch
		case ch == ' ' || ch == '\t':
			flush()
		default:
			current.WriteRune(ch)
		}
	}
	flush()

	return parts
}

func isWSL() bool {
	version, err := os.ReadFile("/proc/version")
	if err != nil {
		return false
	}
	v := strings.ToLower(string(version))
	return strings.Contains(v, "microsoft") || strings.Contains(v, "wsl")
}
