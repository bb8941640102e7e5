package handlers

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourusername/mp3-extract-go/internal/app"
	"github.com/yourusername/mp3-extract-go/internal/domain"
)

func TestEventHub_BroadcastsToClients(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewEventHub(zap.NewNop())

	router := gin.New()
	router.GET("/events", hub.HandleWebSocket)
	server := httptest.NewServer(router)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/events"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	state := domain.JobState{Kind: domain.JobRunningItem, Index: 1, Total: 3}
	hub.HandleEvent(app.Event{Type: app.EventStateChanged, JobID: "job-1", State: &state})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var got app.Event
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, app.EventStateChanged, got.Type)
	assert.Equal(t, "job-1", got.JobID)
	require.NotNil(t, got.State)
	assert.Equal(t, state, *got.State)
}

func TestEventHub_ClientRemovedOnDisconnect(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewEventHub(zap.NewNop())

	router := gin.New()
	router.GET("/events", hub.HandleWebSocket)
	server := httptest.NewServer(router)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/events"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestEventHub_NoClients(t *testing.T) {
	hub := NewEventHub(zap.NewNop())
	assert.NotPanics(t, func() {
		hub.HandleEvent(app.Event{Type: app.EventJobFinished, Result: &app.JobResult{Outcome: app.OutcomeCompleted}})
	})
}
