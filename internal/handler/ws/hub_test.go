package ws

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"HealthTwin/internal/domain/models"
)

func TestHubBroadcast(t *testing.T) {
	e := echo.New()
	hub := NewHub(nil)
	hub.RegisterRoutes(e)
	srv := httptest.NewServer(e)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, 2*time.Second, 5*time.Millisecond)

	hub.Broadcast(models.LiveFrame{Stream: models.StreamECG, Sample: models.ECGSample{Timestamp: 42, Value: 1.5}})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var got struct {
		Stream string           `json:"stream"`
		Sample models.ECGSample `json:"sample"`
	}
	require.NoError(t, json.Unmarshal(msg, &got))
	assert.Equal(t, "ecg", got.Stream)
	assert.Equal(t, int64(42), got.Sample.Timestamp)
	assert.Equal(t, 1.5, got.Sample.Value)

	hub.Close()
	assert.Equal(t, 0, hub.Clients())
}

func TestHubClientDisconnect(t *testing.T) {
	e := echo.New()
	hub := NewHub(nil)
	hub.RegisterRoutes(e)
	srv := httptest.NewServer(e)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, 2*time.Second, 5*time.Millisecond)

	_ = conn.Close()
	require.Eventually(t, func() bool { return hub.Clients() == 0 }, 2*time.Second, 5*time.Millisecond)
	hub.Close()
}
