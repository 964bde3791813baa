package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const closeGracePeriod = time.Second

// Connection is one client socket. Outbound frames go through send, which only
// writePump drains; the server closes send once the connection is unregistered.
type Connection struct {
	handle string
	conn   *websocket.Conn
	send   chan []byte
	server *Server

	closeOnce sync.Once
}

// readPump - reads until the socket fails and dispatches every text frame in order.
func (that *Connection) readPump(ctx context.Context) {
	log := that.server.logger.With("method", "readPump", "handle", that.handle)

	defer func() {
		that.server.unregister(that)
		_ = that.conn.Close()
		that.server.handleDisconnect(ctx, that)
	}()

	opts := that.server.opts
	that.conn.SetReadLimit(opts.MaxMessageSize)

	if err := that.conn.SetReadDeadline(time.Now().Add(opts.PongWait)); err != nil {
		log.Error("failed to set read deadline", "error", err)
	}

	that.conn.SetPongHandler(func(string) error {
		return that.conn.SetReadDeadline(time.Now().Add(opts.PongWait))
	})

	for {
		messageType, data, err := that.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("connection closed unexpectedly", "error", err)
			}
			return
		}

		if messageType != websocket.TextMessage {
			continue
		}

		that.server.dispatch(ctx, that, data)
	}
}

// writePump - the only writer of the socket; also pings the client.
func (that *Connection) writePump() {
	log := that.server.logger.With("method", "writePump", "handle", that.handle)

	opts := that.server.opts
	ticker := time.NewTicker(opts.PingPeriod)

	defer func() {
		ticker.Stop()
		_ = that.conn.Close()
	}()

	for {
		select {
		case message, ok := <-that.send:
			if !ok {
				if err := that.conn.SetWriteDeadline(time.Now().Add(closeGracePeriod)); err == nil {
					_ = that.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				}
				return
			}

			if err := that.conn.SetWriteDeadline(time.Now().Add(opts.WriteWait)); err != nil {
				log.Error("failed to set write deadline", "error", err)
			}

			if err := that.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Warn("failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			if err := that.conn.SetWriteDeadline(time.Now().Add(opts.WriteWait)); err != nil {
				log.Error("failed to set write deadline", "error", err)
			}

			if err := that.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// enqueue - non-blocking; false means the client is too slow to keep up.
// Callers hold the server's read lock, so send is still open.
func (that *Connection) enqueue(message []byte) bool {
	select {
	case that.send <- message:
		return true
	default:
		return false
	}
}

func (that *Connection) closeSend() {
	that.closeOnce.Do(func() {
		close(that.send)
	})
}
