package infrastructure

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/yourusername/mp3-extract-go/internal/domain"
	"go.uber.org/zap"
)

// NotificationService sends desktop notifications about finished jobs
type NotificationService struct {
	config *domain.NotificationConfig
	logger *zap.Logger
	run    func(name string, args ...string) error
}

// NewNotificationService creates a new notification service
func NewNotificationService(config *domain.NotificationConfig, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		config: config,
		logger: logger,
		run: func(name string, args ...string) error {
			return exec.Command(name, args...).Run()
		},
	}
}

// Send sends a notification
func (n *NotificationService) Send(title, message string) error {
	if !n.config.Enabled {
		n.logger.Debug("Notifications disabled, skipping",
			zap.String("title", title),
			zap.String("message", message))
		return nil
	}

	var (
		name string
		args []string
	)
	switch n.config.Method {
	case "osascript":
		script := fmt.Sprintf(`display notification "%s" with title "%s"`, appleScriptQuote(message), appleScriptQuote(title))
		if n.config.Sound {
			script += ` sound name "Glass"`
		}
		name, args = "osascript", []string{"-e", script}
	case "notify-send":
		name, args = "notify-send", []string{"--app-name=mp3-extract", title, message}
	default:
		n.logger.Warn("Unknown notification method", zap.String("method", n.config.Method))
		return nil
	}

	if err := n.run(name, args...); err != nil {
		n.logger.Error("Failed to send notification",
			zap.String("method", n.config.Method),
			zap.Error(err))
		return err
	}

	n.logger.Debug("Notification sent",
		zap.String("title", title),
		zap.String("message", message))
	return nil
}

// NotifyJobCompleted reports a job whose items all finished
func (n *NotificationService) NotifyJobCompleted(records []domain.DownloadRecord) {
	switch len(records) {
	case 0:
		return
	case 1:
		n.Send("Download Completed", truncateString(records[0].Title, 60))
	default:
		n.Send("Download Completed", fmt.Sprintf("%d files saved", len(records)))
	}
}

// NotifyJobFailed reports a failed job
func (n *NotificationService) NotifyJobFailed(err error) {
	n.Send("Download Failed", truncateString(err.Error(), 80))
}

// NotifyJobCancelled reports a cancelled job
func (n *NotificationService) NotifyJobCancelled() {
	n.Send("Download Cancelled", "The download was stopped")
}

func appleScriptQuote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}

// truncateString truncates a string to the specified length
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}
