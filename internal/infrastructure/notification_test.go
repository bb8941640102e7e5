package infrastructure

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/mp3-extract-go/internal/domain"
	"go.uber.org/zap"
)

type recordedCommand struct {
	name string
	args []string
}

func newTestNotifier(config domain.NotificationConfig) (*NotificationService, *[]recordedCommand) {
	var calls []recordedCommand
	n := NewNotificationService(&config, zap.NewNop())
	n.run = func(name string, args ...string) error {
		calls = append(calls, recordedCommand{name: name, args: args})
		return nil
	}
	return n, &calls
}

func TestNotificationService_Disabled(t *testing.T) {
	n, calls := newTestNotifier(domain.NotificationConfig{Enabled: false, Method: "notify-send"})

	require.NoError(t, n.Send("title", "message"))
	assert.Empty(t, *calls)
}

func TestNotificationService_OSAScriptQuotes(t *testing.T) {
	n, calls := newTestNotifier(domain.NotificationConfig{Enabled: true, Method: "osascript"})

	n.NotifyJobCompleted([]domain.DownloadRecord{{Title: `Say "Hi"`}})

	require.Len(t, *calls, 1)
	assert.Equal(t, "osascript", (*calls)[0].name)
	assert.Equal(t, `display notification "Say \"Hi\"" with title "Download Completed"`, (*calls)[0].args[1])
}

func TestNotificationService_NotifySend(t *testing.T) {
	n, calls := newTestNotifier(domain.NotificationConfig{Enabled: true, Method: "notify-send"})

	n.NotifyJobCompleted([]domain.DownloadRecord{{Title: "A"}, {Title: "B"}})
	n.NotifyJobFailed(errors.New("network"))
	n.NotifyJobCompleted(nil)

	require.Len(t, *calls, 2)
	assert.Equal(t, []string{"--app-name=mp3-extract", "Download Completed", "2 files saved"}, (*calls)[0].args)
	assert.Equal(t, []string{"--app-name=mp3-extract", "Download Failed", "network"}, (*calls)[1].args)
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", truncateString("short", 10))
	assert.Equal(t, "音楽音...", truncateString("音楽音楽", 3))
}
