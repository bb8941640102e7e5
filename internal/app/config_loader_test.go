package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/mp3-extract-go/internal/domain"
)

func TestLoadConfig_DefaultsWhenFileMissing(t *testing.T) {
	config, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8080, config.Server.Port)
	assert.Equal(t, domain.FailurePolicyAbort, config.Download.FailurePolicy)
	assert.Equal(t, 192, config.Preferences.Quality)
	assert.NotContains(t, config.Download.BaseDir, "$HOME")
}

func TestLoadConfig_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 9090
download:
  base_dir: /srv/music
  failure_policy: skip
extractor:
  ytdlp_binary: /usr/local/bin/yt-dlp
  extra_args: ["--geo-bypass"]
preferences:
  quality: 256
  auto_playlist: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, config.Server.Port)
	assert.Equal(t, "/srv/music", config.Download.BaseDir)
	assert.Equal(t, domain.FailurePolicySkip, config.Download.FailurePolicy)
	assert.Equal(t, "/usr/local/bin/yt-dlp", config.Extractor.YTDLPBinary)
	assert.Equal(t, []string{"--geo-bypass"}, config.Extractor.ExtraArgs)
	assert.Equal(t, 256, config.Preferences.Quality)
	assert.True(t, config.Preferences.AutoPlaylist)
	assert.Equal(t, "localhost", config.Server.Host)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("MP3EXTRACT_PREFERENCES_QUALITY", "128")
	t.Setenv("MP3EXTRACT_SERVER_PORT", "7070")

	config, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 128, config.Preferences.Quality)
	assert.Equal(t, 7070, config.Server.Port)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad port", "server:\n  port: 70000\n"},
		{"bad policy", "download:\n  failure_policy: retry\n"},
		{"bad quality", "preferences:\n  quality: 100\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			_, err := LoadConfig(path)
			assert.Error(t, err)
		})
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	config := domain.DefaultConfig()
	config.Download.BaseDir = "/data/music"
	config.Preferences.DarkMode = true
	config.Preferences.LastDirectory = "/data/music/albums"
	config.Notification.Method = "notify-send"

	require.NoError(t, SaveConfig(config, path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/music", loaded.Download.BaseDir)
	assert.True(t, loaded.Preferences.DarkMode)
	assert.Equal(t, "/data/music/albums", loaded.Preferences.LastDirectory)
	assert.Equal(t, "notify-send", loaded.Notification.Method)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "music"), expandPath("~/music"))
	assert.Equal(t, home+"/music", expandPath("$HOME/music"))
	assert.Equal(t, "", expandPath(""))
	assert.Equal(t, "/abs/path", expandPath("/abs/path"))
}

func TestFindConfigFile(t *testing.T) {
	assert.Equal(t, "/tmp/explicit.yaml", FindConfigFile("/tmp/explicit.yaml"))
	assert.NotEmpty(t, FindConfigFile(""))
}

func TestConfigKeys(t *testing.T) {
	keys := ConfigKeys()
	assert.Contains(t, keys, "preferences.quality")
	assert.Contains(t, keys, "download.failure_policy")
	assert.IsIncreasing(t, keys)
}

func TestUpdateConfig(t *testing.T) {
	config := domain.DefaultConfig()
	config.Download.BaseDir = t.TempDir()

	updated, err := UpdateConfig(config, "preferences.quality", "320")
	require.NoError(t, err)
	assert.Equal(t, 320, updated.Preferences.Quality)
	assert.Equal(t, 192, config.Preferences.Quality)
	assert.Equal(t, config.Download.BaseDir, updated.Download.BaseDir)

	updated, err = UpdateConfig(config, "notification.enabled", "true")
	require.NoError(t, err)
	assert.True(t, updated.Notification.Enabled)

	value, ok := ConfigValue(updated, "notification.enabled")
	require.True(t, ok)
	assert.Equal(t, true, value)

	_, err = UpdateConfig(config, "preferences.quality", "100")
	assert.Error(t, err)

	_, err = UpdateConfig(config, "download.failure_policy", "retry")
	assert.Error(t, err)

	_, err = UpdateConfig(config, "no.such.key", "x")
	assert.Error(t, err)
}
