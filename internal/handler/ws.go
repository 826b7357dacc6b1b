package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"playdrive/internal/events"
)

const wsWriteTimeout = 10 * time.Second

// WSHandler upgrades authenticated clients to a websocket carrying
// folder-change notifications.
type WSHandler struct {
	bus      *events.Bus
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new websocket handler. Browser connections are only
// upgraded when their Origin is in allowedOrigins; requests without an Origin
// header (non-browser clients) are always admitted.
func NewWSHandler(bus *events.Bus, allowedOrigins []string, logger *slog.Logger) *WSHandler {
	h := &WSHandler{
		bus:    bus,
		logger: logger,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			return originAllowed(allowedOrigins, r)
		},
	}
	return h
}

func originAllowed(allowed []string, r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, candidate := range allowed {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.EqualFold(candidate, origin) {
			return true
		}
	}
	return false
}

// Serve handles a websocket connection
// GET /ws
//
// The client opts into the change stream by sending "event:add:file-change"
// and out again with "event:remove:file-change". Changes for the
// authenticated owner are pushed as JSON messages; a slow client misses
// messages rather than stalling the publisher.
func (h *WSHandler) Serve(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	session := &wsSession{
		conn:    conn,
		ownerID: userID,
		bus:     h.bus,
		logger:  h.logger,
		done:    make(chan struct{}),
	}
	session.run()
}

// wsSession is the per-connection state: an inbound reader loop handling
// control messages and, while subscribed, an outbound writer loop draining
// the subscriber channel. Either loop exiting tears down the other.
type wsSession struct {
	conn    *websocket.Conn
	ownerID string
	bus     *events.Bus
	logger  *slog.Logger

	writeMu sync.Mutex
	done    chan struct{}
	wg      sync.WaitGroup

	sub *events.Subscriber
}

func (s *wsSession) run() {
	s.logger.Info("websocket client connected", "owner_id", s.ownerID)

	s.writeMu.Lock()
	err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout))
	s.writeMu.Unlock()
	if err != nil {
		s.logger.Warn("initial ping failed", "owner_id", s.ownerID, "error", err)
		s.conn.Close()
		return
	}

	s.readLoop()

	// Reader is gone: stop the writer, say goodbye, close.
	close(s.done)
	s.unsubscribe()
	s.writeMu.Lock()
	s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(wsWriteTimeout))
	s.writeMu.Unlock()
	s.conn.Close()
	s.wg.Wait()

	s.logger.Info("websocket client disconnected", "owner_id", s.ownerID)
}

func (s *wsSession) readLoop() {
	for {
		messageType, payload, err := s.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("websocket read ended", "owner_id", s.ownerID, "error", err)
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		// Anything that is not a well-formed control message is ignored.
		msg, ok := events.ParseControlMessage(string(payload))
		if !ok || msg.Type != events.FileChange {
			continue
		}

		switch msg.Action {
		case events.ActionAdd:
			s.subscribe()
		case events.ActionRemove:
			s.unsubscribe()
		}
	}
}

func (s *wsSession) subscribe() {
	if s.sub != nil {
		return
	}
	s.sub = s.bus.Subscribe(s.ownerID)
	s.wg.Add(1)
	go s.sendLoop(s.sub)
}

func (s *wsSession) unsubscribe() {
	if s.sub == nil {
		return
	}
	s.bus.Unsubscribe(s.sub)
	s.sub = nil
}

// sendLoop drains one subscription to the wire. It exits when the
// subscription is closed or the session is done; a write failure closes the
// connection, which in turn stops the read loop.
func (s *wsSession) sendLoop(sub *events.Subscriber) {
	defer s.wg.Done()
	for {
		select {
		case change, ok := <-sub.Changes():
			if !ok {
				return
			}
			s.writeMu.Lock()
			s.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			err := s.conn.WriteJSON(change)
			s.writeMu.Unlock()
			if err != nil {
				s.logger.Warn("websocket write failed", "owner_id", s.ownerID, "error", err)
				s.conn.Close()
				return
			}
		case <-s.done:
			return
		}
	}
}
