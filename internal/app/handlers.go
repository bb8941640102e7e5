package app

import (
	"sync"

	"go.uber.org/zap"

	"github.com/yourusername/mp3-extract-go/internal/domain"
)

// Notifier reports finished jobs to the user
type Notifier interface {
	NotifyJobCompleted(records []domain.DownloadRecord)
	NotifyJobFailed(err error)
	NotifyJobCancelled()
}

// NotificationHandler forwards JobFinished events to a Notifier
type NotificationHandler struct {
	notifier Notifier
}

// NewNotificationHandler creates a handler around n
func NewNotificationHandler(n Notifier) *NotificationHandler {
	return &NotificationHandler{notifier: n}
}

// HandleEvent implements EventHandler
func (h *NotificationHandler) HandleEvent(e Event) {
	if e.Type != EventJobFinished || e.Result == nil {
		return
	}
	switch e.Result.Outcome {
	case OutcomeCompleted:
		h.notifier.NotifyJobCompleted(e.Result.Records)
	case OutcomeFailed:
		h.notifier.NotifyJobFailed(e.Result.Err)
	case OutcomeCancelled:
		h.notifier.NotifyJobCancelled()
	}
}

// PreferencesRecorder remembers the last used destination and quality
// once a job produced at least one file, and saves the config file
type PreferencesRecorder struct {
	mu     sync.Mutex
	config *domain.Config
	path   string
	logger *zap.Logger
}

// NewPreferencesRecorder creates a recorder saving to path
func NewPreferencesRecorder(config *domain.Config, path string, logger *zap.Logger) *PreferencesRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PreferencesRecorder{config: config, path: path, logger: logger}
}

// HandleEvent implements EventHandler
func (p *PreferencesRecorder) HandleEvent(e Event) {
	if e.Type != EventJobFinished || e.Result == nil || len(e.Result.Records) == 0 {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	req := e.Result.Request
	prefs := &p.config.Preferences
	if prefs.LastDirectory == req.DestinationDir && prefs.Quality == int(req.Quality) {
		return
	}
	prefs.LastDirectory = req.DestinationDir
	prefs.Quality = int(req.Quality)

	if p.path == "" {
		return
	}
	if err := SaveConfig(p.config, p.path); err != nil {
		p.logger.Warn("Failed to save preferences", zap.String("path", p.path), zap.Error(err))
	}
}
