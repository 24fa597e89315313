package ws

import (
	"context"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeDeadline  = 10 * time.Second
	maxMessageSize = 512 * 1024
)

// WebSocket wraps a gorilla connection with the read/write discipline
// all sessions share: bounded reads and deadline-bounded writes.
type WebSocket struct {
	*websocket.Conn
	ctx    context.Context
	cancel context.CancelFunc
	log    *slog.Logger
}

func NewWebSocket(parent context.Context, conn *websocket.Conn, log *slog.Logger) *WebSocket {
	ctx, cancel := context.WithCancel(parent)
	return &WebSocket{Conn: conn, ctx: ctx, cancel: cancel, log: log}
}

func (w *WebSocket) WriteMessage(data []byte) error {
	w.Conn.SetWriteDeadline(time.Now().Add(writeDeadline))
	return w.Conn.WriteMessage(websocket.TextMessage, data)
}

// ReadLoop delivers inbound frames to onMsg until the peer disconnects
// or the transport errors. It always closes the connection on exit so
// the caller's deferred teardown observes a dead transport.
func (w *WebSocket) ReadLoop(onMsg func([]byte)) {
	defer w.Close()

	w.Conn.SetReadLimit(maxMessageSize)

	for {
		_, data, err := w.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				w.log.Warn("ws - read loop - unexpected close", "err", err)
			}
			return
		}
		if len(data) > 0 {
			onMsg(data)
		}
	}
}

func (w *WebSocket) Close() {
	w.cancel()
	_ = w.Conn.Close()
}
