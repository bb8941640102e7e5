package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.NotNil(t, config)
	assert.Equal(t, "localhost", config.Server.Host)
	assert.Equal(t, 8080, config.Server.Port)
	assert.Equal(t, FailurePolicyAbort, config.Download.FailurePolicy)
	assert.Equal(t, "yt-dlp", config.Extractor.YTDLPBinary)
	assert.Equal(t, "mp3", config.Extractor.AudioFormat)
	assert.True(t, config.History.Enabled)
	assert.Equal(t, 192, config.Preferences.Quality)
	assert.False(t, config.Preferences.AutoPlaylist)
	assert.False(t, config.Preferences.DarkMode)
	assert.Equal(t, "info", config.Logging.Level)
}

func TestConfig_DestinationDir(t *testing.T) {
	config := DefaultConfig()
	assert.Equal(t, config.Download.BaseDir, config.DestinationDir())

	config.Preferences.LastDirectory = "/tmp/music"
	assert.Equal(t, "/tmp/music", config.DestinationDir())
}
