// Package websocket pushes risk events to connected dashboards: state
// transitions and refresh hints after feedback or acknowledgements.
package websocket

import (
	"time"

	"github.com/gorilla/websocket"
)

// Connection abstracts the parts of *websocket.Conn the client pumps use,
// so tests can substitute an in-memory connection.
type Connection interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	RemoteAddr() string
	Close() error
}

// connWrapper adapts *websocket.Conn to the Connection interface.
type connWrapper struct {
	*websocket.Conn
}

// NewConnectionWrapper wraps a gorilla connection.
func NewConnectionWrapper(conn *websocket.Conn) Connection {
	return &connWrapper{Conn: conn}
}

func (w *connWrapper) RemoteAddr() string {
	return w.Conn.RemoteAddr().String()
}
