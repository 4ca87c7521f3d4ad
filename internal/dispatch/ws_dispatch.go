// Package dispatch delivers best-effort notifications to users:
// websocket first, push gateway when no socket is connected.
package dispatch

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"
)

var ErrNoConn = errors.New("no websocket connection")

// WSConn is a connected client socket. Writes are serialized per
// connection.
type WSConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *WSConn) Send(payload any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(payload)
}

// WSRegistry holds the active socket per user. A reconnect replaces
// the previous socket.
type WSRegistry struct {
	mu     sync.RWMutex
	conns  map[string]*WSConn
	Logger *slog.Logger
}

func NewWSRegistry(logger *slog.Logger) *WSRegistry {
	return &WSRegistry{conns: make(map[string]*WSConn), Logger: logger}
}

func (r *WSRegistry) Add(userID string, conn *websocket.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.conns[userID]; ok {
		_ = prev.conn.Close()
	}
	r.conns[userID] = &WSConn{conn: conn}
}

func (r *WSRegistry) Remove(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.conns[userID]; ok {
		_ = c.conn.Close()
		delete(r.conns, userID)
	}
}

// Send delivers the payload to the user's socket, or ErrNoConn.
func (r *WSRegistry) Send(userID string, payload any) error {
	r.mu.RLock()
	c, ok := r.conns[userID]
	r.mu.RUnlock()
	if !ok {
		return ErrNoConn
	}
	if err := c.Send(payload); err != nil {
		if r.Logger != nil {
			r.Logger.Warn("ws send failed", "user_id", userID, "error", err)
		}
		return err
	}
	return nil
}
