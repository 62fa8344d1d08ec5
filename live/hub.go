// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package live

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/danielhkuo/cleanplate/metrics"
)

const (
	sendBuffer   = 16
	writeTimeout = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = pongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Room ids are unguessable and the stream is read-only.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type subscriber struct {
	roomID string
	conn   *websocket.Conn
	send   chan []byte
}

type message struct {
	roomID  string
	payload []byte
}

// Hub fans room status documents out to websocket subscribers.
// Publishing never blocks; clients that fall behind are dropped and go
// back to polling.
type Hub struct {
	rooms      map[string]map[*subscriber]bool
	roomsMutex sync.RWMutex

	register   chan *subscriber
	unregister chan *subscriber
	broadcast  chan message
	done       chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*subscriber]bool),
		register:   make(chan *subscriber),
		unregister: make(chan *subscriber),
		broadcast:  make(chan message, 64),
		done:       make(chan struct{}),
	}
}

// Run owns subscriber bookkeeping until ctx is done, then closes every
// subscription.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case sub := <-h.register:
			h.roomsMutex.Lock()
			if h.rooms[sub.roomID] == nil {
				h.rooms[sub.roomID] = make(map[*subscriber]bool)
			}
			h.rooms[sub.roomID][sub] = true
			h.roomsMutex.Unlock()
			metrics.LiveSubscribers.Inc()

		case sub := <-h.unregister:
			h.remove(sub)

		case msg := <-h.broadcast:
			h.roomsMutex.RLock()
			var slow []*subscriber
			for sub := range h.rooms[msg.roomID] {
				select {
				case sub.send <- msg.payload:
				default:
					slow = append(slow, sub)
				}
			}
			h.roomsMutex.RUnlock()
			for _, sub := range slow {
				zap.S().Debugw("dropping slow subscriber", "room_id", sub.roomID)
				h.remove(sub)
			}

		case <-ctx.Done():
			h.roomsMutex.Lock()
			for roomID, subs := range h.rooms {
				for sub := range subs {
					close(sub.send)
					metrics.LiveSubscribers.Dec()
				}
				delete(h.rooms, roomID)
			}
			h.roomsMutex.Unlock()
			return
		}
	}
}

func (h *Hub) remove(sub *subscriber) {
	h.roomsMutex.Lock()
	defer h.roomsMutex.Unlock()
	subs := h.rooms[sub.roomID]
	if !subs[sub] {
		return
	}
	delete(subs, sub)
	if len(subs) == 0 {
		delete(h.rooms, sub.roomID)
	}
	close(sub.send)
	metrics.LiveSubscribers.Dec()
}

// Subscribers reports how many clients follow a room.
func (h *Hub) Subscribers(roomID string) int {
	h.roomsMutex.RLock()
	defer h.roomsMutex.RUnlock()
	return len(h.rooms[roomID])
}

// Publish sends status to every subscriber of the room. It implements
// reveal.Notifier.
func (h *Hub) Publish(roomID string, status any) {
	payload, err := json.Marshal(status)
	if err != nil {
		zap.S().Errorw("failed to encode live status", "room_id", roomID, "error", err)
		return
	}

	select {
	case h.broadcast <- message{roomID: roomID, payload: payload}:
	case <-h.done:
	default:
		zap.S().Warnw("live broadcast queue full, update dropped", "room_id", roomID)
	}
}

// Serve upgrades the request to a websocket, sends initial and then every
// status published for roomID until the client goes away.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, roomID string, initial any) error {
	first, err := json.Marshal(initial)
	if err != nil {
		return err
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	sub := &subscriber{roomID: roomID, conn: conn, send: make(chan []byte, sendBuffer)}
	sub.send <- first

	select {
	case h.register <- sub:
	case <-h.done:
		conn.Close()
		return nil
	}

	go sub.writePump()
	go sub.readPump(h)
	return nil
}

func (s *subscriber) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump only watches for the client going away; the stream is one-way.
func (s *subscriber) readPump(h *Hub) {
	defer func() {
		select {
		case h.unregister <- s:
		case <-h.done:
		}
		s.conn.Close()
	}()

	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				zap.S().Debugw("live subscriber closed", "room_id", s.roomID, "error", err)
			}
			return
		}
	}
}
