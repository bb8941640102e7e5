package infrastructure

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShellEscape(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", "''"},
		{"simple path", "/tmp/simple/path", "/tmp/simple/path"},
		{"spaces", "/tmp/My Music", "'/tmp/My Music'"},
		{"single quote", "/tmp/it's", `'/tmp/it'"'"'s'`},
		{"output template", "%(title)s.%(ext)s", "'%(title)s.%(ext)s'"},
		{"query string", "https://www.youtube.com/watch?v=abc&list=PL1", "'https://www.youtube.com/watch?v=abc&list=PL1'"},
		{"dollar", "$HOME", "'$HOME'"},
		{"unicode", "/tmp/音楽", "/tmp/音楽"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ShellEscape(tt.input))
		})
	}
}

func TestShellEscapeCommand(t *testing.T) {
	cmdLine := ShellEscapeCommand("yt-dlp", "-x", "--audio-format", "mp3", "-P", "/tmp/My Music")
	assert.Equal(t, "yt-dlp -x --audio-format mp3 -P '/tmp/My Music'", cmdLine)
}

func TestRedactFlagValues(t *testing.T) {
	args := []string{"--cookies", "/secret/cookies.txt", "-x", "--cookies"}

	redacted := RedactFlagValues(args, "--cookies")

	assert.Equal(t, []string{"--cookies", "***", "-x", "--cookies"}, redacted)
	assert.Equal(t, "/secret/cookies.txt", args[1], "input must not be modified")
}
