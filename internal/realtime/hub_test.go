package realtime

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcastReachesGroupMembers(t *testing.T) {
	hub := NewHub()
	joined := make(chan struct{}, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Attach(conn, 5, []string{SeatUpdatesGroup(9)}, func(c *Client) {
			c.Send(map[string]string{"type": "hello"})
			joined <- struct{}{}
		}, func(c *Client, msg []byte) {
			c.Send(map[string]string{"echo": string(msg)})
		})
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	select {
	case <-joined:
	case <-time.After(2 * time.Second):
		t.Fatal("client never joined")
	}
	assert.Equal(t, 1, hub.GroupSize("seat_updates_9"))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, first, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"hello"}`, string(first))

	hub.Broadcast(SeatUpdatesGroup(9), map[string]any{"event": "seat_locked", "seat_id": "A1"})
	_, second, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"seat_locked","seat_id":"A1"}`, string(second))

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("ping")))
	_, third, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"echo":"ping"}`, string(third))

	hub.Broadcast("other_group", map[string]string{"x": "y"})
}

func TestGroupNames(t *testing.T) {
	assert.Equal(t, "user_dashboard_3", UserDashboardGroup(3))
	assert.Equal(t, "notifications_3", NotificationsGroup(3))
	assert.Equal(t, "admin_dashboard", AdminDashboardGroup)
}
