package realtime

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// newWSPair dials a real websocket through an httptest server and returns
// both ends. The server side is what the hub tracks.
func newWSPair(t *testing.T) (serverSide, clientSide *websocket.Conn) {
	t.Helper()

	connCh := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		up := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
		ws, err := up.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		connCh <- ws
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	select {
	case server := <-connCh:
		return server, client
	case <-time.After(2 * time.Second):
		t.Fatal("no server connection")
		return nil, nil
	}
}

func readText(t *testing.T, ws *websocket.Conn) string {
	t.Helper()
	_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return string(data)
}

func attached(t *testing.T, h *Hub, userID int64) (*Connection, *websocket.Conn) {
	t.Helper()
	server, client := newWSPair(t)
	conn := NewConnection(userID, server)
	h.Attach(conn)
	return conn, client
}

func TestHub_NotifyUser(t *testing.T) {
	h := NewHub()
	defer h.Close()

	_, client := attached(t, h, 1)

	if !h.NotifyUser(1, []byte("hello")) {
		t.Fatal("NotifyUser returned false for online user")
	}
	if got := readText(t, client); got != "hello" {
		t.Fatalf("got %q", got)
	}

	if h.NotifyUser(42, []byte("x")) {
		t.Fatal("NotifyUser must report false for absent user")
	}
}

func TestHub_AttachReplacesSession(t *testing.T) {
	h := NewHub()
	defer h.Close()

	_, oldClient := attached(t, h, 1)
	_, newClient := attached(t, h, 1)

	// The replaced socket receives a close frame.
	_ = oldClient.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := oldClient.ReadMessage(); err == nil {
		t.Fatal("old session should be closed")
	}

	h.NotifyUser(1, []byte("after swap"))
	if got := readText(t, newClient); got != "after swap" {
		t.Fatalf("got %q", got)
	}
}

func TestHub_BroadcastExcludesSender(t *testing.T) {
	h := NewHub()
	defer h.Close()

	alice, aliceClient := attached(t, h, 1)
	bob, bobClient := attached(t, h, 2)

	h.Join(77, alice)
	h.Join(77, bob)

	delivered := h.Broadcast(77, []byte("typing"), 1)
	if delivered != 1 {
		t.Fatalf("delivered = %d, want 1", delivered)
	}
	if got := readText(t, bobClient); got != "typing" {
		t.Fatalf("bob got %q", got)
	}

	_ = aliceClient.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	if _, _, err := aliceClient.ReadMessage(); err == nil {
		t.Fatal("sender must not receive excluded broadcast")
	}
}

func TestHub_BroadcastAll(t *testing.T) {
	h := NewHub()
	defer h.Close()

	alice, aliceClient := attached(t, h, 1)
	bob, bobClient := attached(t, h, 2)

	h.Join(5, alice)
	h.Join(5, bob)

	if delivered := h.Broadcast(5, []byte("msg"), 0); delivered != 2 {
		t.Fatalf("delivered = %d, want 2", delivered)
	}
	if readText(t, aliceClient) != "msg" || readText(t, bobClient) != "msg" {
		t.Fatal("both members must receive the broadcast")
	}

	if delivered := h.Broadcast(999, []byte("x"), 0); delivered != 0 {
		t.Fatalf("empty room delivered = %d", delivered)
	}
}

func TestHub_InRoom(t *testing.T) {
	h := NewHub()
	defer h.Close()

	alice, _ := attached(t, h, 1)
	_, _ = attached(t, h, 2)

	h.Join(7, alice)

	if !h.InRoom(7, 1) {
		t.Fatal("alice is joined")
	}
	if h.InRoom(7, 2) {
		t.Fatal("bob is online but not joined")
	}
	if h.InRoom(7, 3) {
		t.Fatal("offline user cannot be in a room")
	}

	h.Leave(7, alice)
	if h.InRoom(7, 1) {
		t.Fatal("alice left the room")
	}
}

func TestHub_DetachClearsMemberships(t *testing.T) {
	h := NewHub()
	defer h.Close()

	alice, _ := attached(t, h, 1)
	h.Join(7, alice)
	h.Join(8, alice)

	h.Detach(alice)

	if h.InRoom(7, 1) || h.InRoom(8, 1) {
		t.Fatal("detach must clear room memberships")
	}
	if h.NotifyUser(1, []byte("x")) {
		t.Fatal("detached user must not be reachable")
	}
}

func TestHub_JoinRequiresAttachedSession(t *testing.T) {
	h := NewHub()
	defer h.Close()

	server, _ := newWSPair(t)
	stray := NewConnection(9, server)

	h.Join(7, stray)
	if h.InRoom(7, 9) {
		t.Fatal("unattached session must not join rooms")
	}
}
