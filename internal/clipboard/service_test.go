package clipboard

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"wl-copy", []string{"wl-copy"}},
		{"xclip -selection clipboard", []string{"xclip", "-selection", "clipboard"}},
		{`sh -c "cat > '/tmp/x y'"`, []string{"sh", "-c", "cat > '/tmp/x y'"}},
		{"  spaced   out  ", []string{"spaced", "out"}},
		{"", nil},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseCommand(tt.in))
		})
	}
}

func TestService_NativeClipboard(t *testing.T) {
	s := NewService("", nopLogger{})
	var got string
	s.writeAll = func(text string) error {
		got = text
		return nil
	}

	require.NoError(t, s.Copy("https://www.pexels.com/photo/1/"))
	assert.Equal(t, "https://www.pexels.com/photo/1/", got)

	msg := s.CopyCmd("again")()
	copied, ok := msg.(CopiedMsg)
	require.True(t, ok)
	assert.NoError(t, copied.Err)
	assert.Equal(t, "again", got)
}

func TestService_NoToolAvailable(t *testing.T) {
	if runtime.GOOS != "linux" || isWSL() {
		t.Skip("fallback lookup only applies to plain linux")
	}

	s := NewService("", nopLogger{})
	s.writeAll = func(string) error { return errors.New("no display") }
	s.lookPath = func(string) (string, error) { return "", errors.New("not found") }

	err := s.Copy("text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no clipboard tool found")
}

func TestService_CustomCommand(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}

	out := filepath.Join(t.TempDir(), "clip.txt")
	s := NewService(`sh -c "cat > '`+out+`'"`, nopLogger{})
	s.writeAll = func(string) error {
		t.Fatal("native clipboard must not be used when a command is configured")
		return nil
	}

	require.NoError(t, s.Copy("copied text"))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "copied text", string(data))

	bad := NewService("definitely-not-a-real-clipboard-tool", nopLogger{})
	assert.Error(t, bad.Copy("x"))
}
