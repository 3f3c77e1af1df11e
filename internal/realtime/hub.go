// Package realtime pushes new notifications to connected websocket
// clients. The stored notification list stays the source of truth; a
// client that is offline or too slow simply misses the push.
package realtime

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/lalith-99/echohub/internal/models"
	"go.uber.org/zap"
)

const (
	bufferSize = 16
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// Subscriber is one live stream. Session is the token the stream was
// opened with, so a logout can close exactly that stream.
type Subscriber struct {
	UserID  int
	Session string
	Events  chan models.Notification
}

type Hub struct {
	logger *zap.Logger

	mu   sync.RWMutex
	subs map[int]map[*Subscriber]struct{}
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		logger: logger.Named("realtime"),
		subs:   make(map[int]map[*Subscriber]struct{}),
	}
}

func (h *Hub) Subscribe(userID int, session string) *Subscriber {
	s := &Subscriber{UserID: userID, Session: session, Events: make(chan models.Notification, bufferSize)}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[*Subscriber]struct{})
	}
	h.subs[userID][s] = struct{}{}
	return s
}

// Unsubscribe removes s and closes its Events channel. It is safe to call
// more than once.
func (h *Hub) Unsubscribe(s *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.subs[s.UserID]
	if !ok {
		return
	}
	if _, ok := set[s]; !ok {
		return
	}
	delete(set, s)
	if len(set) == 0 {
		delete(h.subs, s.UserID)
	}
	close(s.Events)
}

// Disconnect closes the streams of userID opened with session. An empty
// session closes every stream of the user. It returns how many were closed.
func (h *Hub) Disconnect(userID int, session string) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	set := h.subs[userID]
	n := 0
	for s := range set {
		if session != "" && s.Session != session {
			continue
		}
		delete(set, s)
		close(s.Events)
		n++
	}
	if len(set) == 0 {
		delete(h.subs, userID)
	}
	if n > 0 {
		h.logger.Debug("streams disconnected", zap.Int("user_id", userID), zap.Int("count", n))
	}
	return n
}

// DisconnectAll closes every stream.
func (h *Hub) DisconnectAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for userID, set := range h.subs {
		for s := range set {
			close(s.Events)
		}
		delete(h.subs, userID)
	}
}

// Publish never blocks. A subscriber whose buffer is full drops the event.
func (h *Hub) Publish(userID int, n models.Notification) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for s := range h.subs[userID] {
		select {
		case s.Events <- n:
		default:
			h.logger.Warn("subscriber buffer full, dropping notification", zap.Int("user_id", userID))
		}
	}
}

// Subscribers reports how many live subscriptions userID has.
func (h *Hub) Subscribers(userID int) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[userID])
}

// Serve streams notifications for userID over conn until the client goes
// away or the session is disconnected. It owns conn and closes it on return.
func (h *Hub) Serve(conn *websocket.Conn, userID int, session string) {
	sub := h.Subscribe(userID, session)
	defer h.Unsubscribe(sub)
	defer conn.Close()

	h.logger.Debug("client connected", zap.Int("user_id", userID))

	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case n, ok := <-sub.Events:
			if !ok {
				h.logger.Debug("session ended, closing", zap.Int("user_id", userID))
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "session ended"),
					time.Now().Add(writeWait))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(n); err != nil {
				h.logger.Debug("write failed, closing", zap.Int("user_id", userID), zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			h.logger.Debug("client disconnected", zap.Int("user_id", userID))
			return
		}
	}
}
