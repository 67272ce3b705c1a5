package profile

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 4 * 1024

	// closed sessions are remembered this long to turn away late subscribers
	closedRetention = 2 * pongWait
)

// Event is pushed to websocket subscribers of an editor session.
type Event struct {
	Type      string      `json:"type"`
	SessionID string      `json:"session_id"`
	Payload   interface{} `json:"payload,omitempty"`
}

const (
	EventEditorView   = "editor_view"
	EventEditorClosed = "editor_closed"
)

func NewViewEvent(sessionID string, view EditorView) *Event {
	return &Event{Type: EventEditorView, SessionID: sessionID, Payload: view}
}

// connection is a single websocket subscriber.
type connection struct {
	sessionID string
	conn      *websocket.Conn
	send      chan []byte
}

// Hub fans editor views out to the websocket clients watching each session.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[*connection]struct{}
	closed      map[string]time.Time
	log         *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		subscribers: make(map[string]map[*connection]struct{}),
		closed:      make(map[string]time.Time),
		log:         log,
	}
}

// register adds c unless its session has already been closed.
func (h *Hub) register(c *connection) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, gone := h.closed[c.sessionID]; gone {
		return false
	}
	conns, ok := h.subscribers[c.sessionID]
	if !ok {
		conns = make(map[*connection]struct{})
		h.subscribers[c.sessionID] = conns
	}
	conns[c] = struct{}{}
	return true
}

func (h *Hub) unregister(c *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns, ok := h.subscribers[c.sessionID]
	if !ok {
		return
	}
	if _, ok := conns[c]; !ok {
		return
	}
	delete(conns, c)
	close(c.send)
	if len(conns) == 0 {
		delete(h.subscribers, c.sessionID)
	}
}

// Subscribers returns the number of clients watching sessionID.
func (h *Hub) Subscribers(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[sessionID])
}

// Publish sends event to every subscriber of sessionID.
func (h *Hub) Publish(sessionID string, event *Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.log.Error("marshal editor event", zap.String("session_id", sessionID), zap.Error(err))
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.subscribers[sessionID] {
		select {
		case c.send <- data:
		default:
			// client too slow, skip
		}
	}
}

// CloseSession tells subscribers the session is gone and disconnects them.
// Later ServeWS calls for the session get editor_closed and are disconnected.
func (h *Hub) CloseSession(sessionID string) {
	h.Publish(sessionID, closedEvent(sessionID))

	now := time.Now()
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.subscribers[sessionID] {
		close(c.send)
	}
	delete(h.subscribers, sessionID)

	for id, at := range h.closed {
		if now.Sub(at) > closedRetention {
			delete(h.closed, id)
		}
	}
	h.closed[sessionID] = now
}

func closedEvent(sessionID string) *Event {
	return &Event{Type: EventEditorClosed, SessionID: sessionID}
}

// ServeWS subscribes conn to sessionID, sends initial if non-nil, and blocks
// until the client disconnects.
func (h *Hub) ServeWS(conn *websocket.Conn, sessionID string, initial *Event) {
	c := &connection{
		sessionID: sessionID,
		conn:      conn,
		send:      make(chan []byte, 64),
	}

	if initial != nil {
		if data, err := json.Marshal(initial); err == nil {
			c.send <- data
		}
	}

	if !h.register(c) {
		h.rejectClosed(conn, sessionID)
		return
	}

	go h.writePump(c)
	h.readPump(c)
}

// rejectClosed sends editor_closed and a close frame to a subscriber that
// arrived after its session was closed.
func (h *Hub) rejectClosed(conn *websocket.Conn, sessionID string) {
	defer conn.Close()

	data, err := json.Marshal(closedEvent(sessionID))
	if err != nil {
		return
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		h.log.Debug("editor websocket rejected", zap.String("session_id", sessionID), zap.Error(err))
		return
	}
	conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "editor session closed"))
}

func (h *Hub) readPump(c *connection) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMsgSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	// clients only listen; anything they send is drained
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug("editor websocket closed", zap.String("session_id", c.sessionID), zap.Error(err))
			}
			return
		}
	}
}

func (h *Hub) writePump(c *connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
