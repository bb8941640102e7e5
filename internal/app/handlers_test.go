package app

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/mp3-extract-go/internal/domain"
)

type mockNotifier struct {
	completed [][]domain.DownloadRecord
	failed    []error
	cancelled int
}

func (m *mockNotifier) NotifyJobCompleted(records []domain.DownloadRecord) {
	m.completed = append(m.completed, records)
}

func (m *mockNotifier) NotifyJobFailed(err error) {
	m.failed = append(m.failed, err)
}

func (m *mockNotifier) NotifyJobCancelled() {
	m.cancelled++
}

func TestNotificationHandler(t *testing.T) {
	n := &mockNotifier{}
	h := NewNotificationHandler(n)

	h.HandleEvent(Event{Type: EventProgress})
	h.HandleEvent(Event{Type: EventJobFinished, Result: &JobResult{Outcome: OutcomeCompleted, Records: []domain.DownloadRecord{record("a")}}})
	h.HandleEvent(Event{Type: EventJobFinished, Result: &JobResult{Outcome: OutcomeFailed, Err: errors.New("boom")}})
	h.HandleEvent(Event{Type: EventJobFinished, Result: &JobResult{Outcome: OutcomeCancelled}})

	assert.Len(t, n.completed, 1)
	assert.Len(t, n.failed, 1)
	assert.Equal(t, 1, n.cancelled)
}

func TestPreferencesRecorder_SavesLastDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	config := domain.DefaultConfig()
	p := NewPreferencesRecorder(config, path, nil)

	req := domain.DownloadRequest{URL: "https://example.com/v", Quality: domain.Quality320, DestinationDir: "/music/new"}

	p.HandleEvent(Event{Type: EventJobFinished, Result: &JobResult{Outcome: OutcomeFailed, Request: req}})
	assert.Empty(t, config.Preferences.LastDirectory)

	p.HandleEvent(Event{Type: EventJobFinished, Result: &JobResult{Outcome: OutcomeCompleted, Request: req, Records: []domain.DownloadRecord{record("a")}}})
	assert.Equal(t, "/music/new", config.Preferences.LastDirectory)
	assert.Equal(t, 320, config.Preferences.Quality)

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/music/new", loaded.Preferences.LastDirectory)
	assert.Equal(t, 320, loaded.Preferences.Quality)
}
