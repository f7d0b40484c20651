package realtime

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"spendshare/internal/broadcast"
)

func dialTestHub(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func waitForClients(t *testing.T, hub *Hub, want int) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.ClientCount() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("client count = %d, want %d", hub.ClientCount(), want)
}

func TestHub_BroadcastReachesAllClients(t *testing.T) {
	hub := NewHub()
	server := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer server.Close()

	conn1 := dialTestHub(t, server)
	defer conn1.Close()
	conn2 := dialTestHub(t, server)
	defer conn2.Close()
	waitForClients(t, hub, 2)

	sent := broadcast.NewLikeToggledEvent(broadcast.TargetPost, 10, 7, true, 3)
	hub.Broadcast(sent)

	for i, conn := range []*websocket.Conn{conn1, conn2} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var got broadcast.Event
		if err := conn.ReadJSON(&got); err != nil {
			t.Fatalf("client %d read: %v", i+1, err)
		}
		if got.Type != broadcast.EventPostLiked {
			t.Errorf("client %d type = %s, want %s", i+1, got.Type, broadcast.EventPostLiked)
		}
		if got.PostID != 10 {
			t.Errorf("client %d post_id = %d, want 10", i+1, got.PostID)
		}
		if got.LikeCount == nil || *got.LikeCount != 3 {
			t.Errorf("client %d likes_count = %v, want 3", i+1, got.LikeCount)
		}
	}
}

func TestHub_ClientDisconnectRemoves(t *testing.T) {
	hub := NewHub()
	server := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer server.Close()

	conn := dialTestHub(t, server)
	waitForClients(t, hub, 1)

	conn.Close()
	waitForClients(t, hub, 0)
}

// Broadcasting with no clients must not panic or block.
func TestHub_BroadcastEmpty(t *testing.T) {
	hub := NewHub()
	hub.Broadcast(broadcast.Event{Type: broadcast.EventNewPost, PostID: 1})
	if hub.ClientCount() != 0 {
		t.Errorf("client count = %d, want 0", hub.ClientCount())
	}
}

// A client that never drains its buffer is dropped instead of blocking the hub.
func TestHub_DropsSlowClient(t *testing.T) {
	hub := NewHub()
	server := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer server.Close()

	conn := dialTestHub(t, server)
	defer conn.Close()
	waitForClients(t, hub, 1)

	// Overfill the send buffer faster than the websocket can drain it. The
	// kernel socket buffers absorb some events, so push well past capacity.
	for i := 0; i < sendBufferSize*50; i++ {
		hub.Broadcast(broadcast.Event{Type: broadcast.EventNewPost, PostID: int64(i)})
	}

	waitForClients(t, hub, 0)
}
