package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"playdrive/internal/domain/models"
	"playdrive/internal/events"
	"playdrive/internal/httputil"
)

const wsTestOrigin = "http://localhost:3000"

func newWSServer(t *testing.T, bus *events.Bus) *httptest.Server {
	t.Helper()
	h := NewWSHandler(bus, []string{wsTestOrigin}, discardLogger())
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", func(w http.ResponseWriter, r *http.Request) {
		h.Serve(w, httputil.WithUserID(r, "owner-1"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func dialWS(t *testing.T, srv *httptest.Server, header http.Header) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForSubscribers(t *testing.T, bus *events.Bus, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if bus.SubscriberCount() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected %d subscribers, got %d", want, bus.SubscriberCount())
}

func TestWebsocketDeliversFolderChanges(t *testing.T) {
	bus := events.NewBus(discardLogger())
	srv := newWSServer(t, bus)
	conn := dialWS(t, srv, nil)

	if err := conn.WriteMessage(websocket.TextMessage, []byte("event:add:file-change")); err != nil {
		t.Fatalf("subscribe message failed: %v", err)
	}
	waitForSubscribers(t, bus, 1)

	bus.Publish(models.FolderChange{
		OwnerID:  "owner-1",
		FolderID: "folder-1",
		Children: []models.Node{},
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var change models.FolderChange
	if err := conn.ReadJSON(&change); err != nil {
		t.Fatalf("expected a change on the socket: %v", err)
	}
	if change.OwnerID != "owner-1" || change.FolderID != "folder-1" {
		t.Errorf("unexpected change payload: %+v", change)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte("event:remove:file-change")); err != nil {
		t.Fatalf("unsubscribe message failed: %v", err)
	}
	waitForSubscribers(t, bus, 0)

	// A clean client close is answered with a normal-closure frame.
	deadline := time.Now().Add(time.Second)
	if err := conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline); err != nil {
		t.Fatalf("close frame failed: %v", err)
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Errorf("expected a normal-closure frame, got %v", err)
	}
}

func TestWebsocketDroppedConnectionReleasesSubscription(t *testing.T) {
	bus := events.NewBus(discardLogger())
	srv := newWSServer(t, bus)
	conn := dialWS(t, srv, nil)

	if err := conn.WriteMessage(websocket.TextMessage, []byte("event:add:file-change")); err != nil {
		t.Fatalf("subscribe message failed: %v", err)
	}
	waitForSubscribers(t, bus, 1)

	// The client vanishes without a close handshake; the reader loop must
	// still unwind the subscription.
	conn.Close()
	waitForSubscribers(t, bus, 0)
}

func TestWebsocketIgnoresUnknownMessages(t *testing.T) {
	bus := events.NewBus(discardLogger())
	srv := newWSServer(t, bus)
	conn := dialWS(t, srv, nil)

	if err := conn.WriteMessage(websocket.TextMessage, []byte("not-a-control-message")); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, []byte("event:add:file-change")); err != nil {
		t.Fatalf("subscribe message failed: %v", err)
	}
	waitForSubscribers(t, bus, 1)
}

func TestWebsocketRejectsDisallowedOrigin(t *testing.T) {
	bus := events.NewBus(discardLogger())
	srv := newWSServer(t, bus)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	header := http.Header{"Origin": {"http://evil.example.com"}}
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	if err == nil {
		conn.Close()
		t.Fatal("expected the upgrade to be refused for a foreign origin")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403, got %+v", resp)
	}
}

func TestWebsocketAcceptsConfiguredOrigin(t *testing.T) {
	bus := events.NewBus(discardLogger())
	srv := newWSServer(t, bus)

	header := http.Header{"Origin": {wsTestOrigin}}
	conn := dialWS(t, srv, header)

	if err := conn.WriteMessage(websocket.TextMessage, []byte("event:add:file-change")); err != nil {
		t.Fatalf("subscribe message failed: %v", err)
	}
	waitForSubscribers(t, bus, 1)
}
