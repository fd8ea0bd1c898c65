package notification_test

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaharia-lab/stockbell/internal/notification"
)

type wsMessage struct {
	Type     string              `json:"type"`
	ClientID string              `json:"client_id"`
	Unlocked bool                `json:"unlocked"`
	Alert    *notification.Alert `json:"alert"`
}

func dialHub(t *testing.T, hub *notification.Hub) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(hub)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readMsg(t *testing.T, conn *websocket.Conn) wsMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var m wsMessage
	require.NoError(t, conn.ReadJSON(&m))
	return m
}

func TestHub_UnlockFlow(t *testing.T) {
	hub := notification.NewHub(newTestLogger(), nil)
	conn := dialHub(t, hub)

	hello := readMsg(t, conn)
	assert.Equal(t, "status", hello.Type)
	assert.NotEmpty(t, hello.ClientID)
	assert.False(t, hello.Unlocked)

	assert.False(t, hub.Ready(), "a locked client does not make the hub ready")
	assert.ErrorIs(t, hub.Send(context.Background(), testAlert()), notification.ErrSinkNotReady)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "unlock"}))
	ack := readMsg(t, conn)
	assert.True(t, ack.Unlocked)
	assert.Eventually(t, hub.Ready, time.Second, 5*time.Millisecond)

	connected, unlocked := hub.Clients()
	assert.Equal(t, 1, connected)
	assert.Equal(t, 1, unlocked)

	require.NoError(t, hub.Send(context.Background(), testAlert()))
	got := readMsg(t, conn)
	assert.Equal(t, "alert", got.Type)
	require.NotNil(t, got.Alert)
	assert.Equal(t, []string{"Mango"}, got.Alert.Items)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "lock"}))
	assert.False(t, readMsg(t, conn).Unlocked)
	assert.Eventually(t, func() bool { return !hub.Ready() }, time.Second, 5*time.Millisecond)
}

func TestHub_DisconnectRemovesClient(t *testing.T) {
	hub := notification.NewHub(newTestLogger(), nil)
	conn := dialHub(t, hub)
	readMsg(t, conn)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "unlock"}))
	readMsg(t, conn)
	require.Eventually(t, hub.Ready, time.Second, 5*time.Millisecond)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool {
		connected, _ := hub.Clients()
		return connected == 0
	}, 2*time.Second, 10*time.Millisecond)
	assert.False(t, hub.Ready())
}

func TestHub_IgnoresUnknownMessages(t *testing.T) {
	hub := notification.NewHub(newTestLogger(), nil)
	conn := dialHub(t, hub)
	readMsg(t, conn)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	require.NoError(t, conn.WriteJSON(map[string]string{"type": "dance"}))
	require.NoError(t, conn.WriteJSON(map[string]string{"type": "unlock"}))

	ack := readMsg(t, conn)
	assert.True(t, ack.Unlocked)
}

func TestHub_Name(t *testing.T) {
	assert.Equal(t, "websocket", notification.NewHub(newTestLogger(), nil).Name())
}
