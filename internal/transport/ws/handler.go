// Package ws exposes the same line-oriented trivia game over a websocket
// for browser clients: one text message per client line, server output
// forwarded message-per-write.
package ws

import (
	"context"
	"io"
	"log"
	"net/http"

	"github.com/gorilla/websocket"
)

// SessionRunner plays one full game over rw; see the tcp transport.
type SessionRunner interface {
	Run(ctx context.Context, rw io.ReadWriter) error
}

type Handler struct {
	runner   SessionRunner
	upgrader websocket.Upgrader
}

func NewHandler(runner SessionRunner) *Handler {
	return &Handler{
		runner: runner,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// ServeGame upgrades the request and runs one session over the socket.
func (h *Handler) ServeGame(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	if err := h.runner.Run(r.Context(), &lineConn{conn: conn}); err != nil {
		log.Printf("ws session %s aborted: %v", conn.RemoteAddr(), err)
		return
	}
	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// lineConn adapts a websocket to the engine's io.ReadWriter contract.
// Each inbound text message is surfaced as one newline-terminated line.
// The engine is single-goroutine per session, so writes never race.
type lineConn struct {
	conn *websocket.Conn
	buf  []byte
}

func (c *lineConn) Read(p []byte) (int, error) {
	for len(c.buf) == 0 {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			return 0, err
		}
		if messageType != websocket.TextMessage {
			continue
		}
		c.buf = append(data, '\n')
	}
	n := copy(p, c.buf)
	c.buf = c.buf[n:]
	return n, nil
}

func (c *lineConn) Write(p []byte) (int, error) {
	if err := c.conn.WriteMessage(websocket.TextMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}
