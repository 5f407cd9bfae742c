package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	sessionBuffer = 16
	writeWait     = 10 * time.Second
)

type Session struct {
	restaurantID string
	conn         *websocket.Conn
	send         chan []byte
	closeOnce    sync.Once
}

// Hub is the registry of live restaurant sessions. A session is added when a
// restaurant dashboard connects and removed when its socket closes. Nothing
// outside this package reaches into it; events arrive through Send.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]map[*Session]struct{}
	logger   *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		sessions: make(map[string]map[*Session]struct{}),
		logger:   logger,
	}
}

func (h *Hub) Register(restaurantID string, conn *websocket.Conn) *Session {
	s := &Session{
		restaurantID: restaurantID,
		conn:         conn,
		send:         make(chan []byte, sessionBuffer),
	}

	h.mu.Lock()
	if h.sessions[restaurantID] == nil {
		h.sessions[restaurantID] = make(map[*Session]struct{})
	}
	h.sessions[restaurantID][s] = struct{}{}
	h.mu.Unlock()

	go h.writeLoop(s)

	h.logger.Info("restaurant session connected",
		zap.String("restaurantId", restaurantID),
		zap.Int("sessions", h.Count(restaurantID)),
	)
	return s
}

func (h *Hub) Unregister(s *Session) {
	h.mu.Lock()
	set := h.sessions[s.restaurantID]
	_, registered := set[s]
	delete(set, s)
	if registered && len(set) == 0 {
		delete(h.sessions, s.restaurantID)
	}
	h.mu.Unlock()

	s.closeOnce.Do(func() {
		close(s.send)
		s.conn.Close()
	})

	if registered {
		h.logger.Info("restaurant session disconnected", zap.String("restaurantId", s.restaurantID))
	}
}

func (h *Hub) Count(restaurantID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[restaurantID])
}

// Send queues the event for every session of the restaurant. A session whose
// buffer is full misses the event rather than blocking the sender.
func (h *Hub) Send(ctx context.Context, restaurantID string, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	dropped := 0
	for s := range h.sessions[restaurantID] {
		select {
		case s.send <- data:
		default:
			dropped++
		}
	}
	if dropped > 0 {
		return fmt.Errorf("restaurant %s: %d session(s) too slow, event dropped", restaurantID, dropped)
	}
	return nil
}

// Close disconnects every session.
func (h *Hub) Close() {
	h.mu.RLock()
	var all []*Session
	for _, set := range h.sessions {
		for s := range set {
			all = append(all, s)
		}
	}
	h.mu.RUnlock()

	for _, s := range all {
		h.Unregister(s)
	}
}

func (h *Hub) writeLoop(s *Session) {
	for data := range s.send {
		s.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.logger.Warn("writing to restaurant session failed",
				zap.String("restaurantId", s.restaurantID),
				zap.Error(err),
			)
			go h.Unregister(s)
			// drain until Unregister closes the channel
			for range s.send {
			}
			return
		}
	}
}
