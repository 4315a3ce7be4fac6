package server

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/projctl/internal/logging"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// handleWebsocket upgrades the request and serves command requests for one
// projector until the client goes away. Each text message is a
// CommandRequest; each reply is a CommandResponse.
func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	c, ok := s.controller(w, r)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied with an HTTP error
		logging.Warn("WebSocket upgrade failed",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}

	id := uuid.New().String()
	s.trackConn(id, conn)
	metricWebsocketClients.Inc()
	logging.LogConnection(r.RemoteAddr, "websocket_connected")

	done := make(chan struct{})
	defer func() {
		close(done)
		_ = conn.Close()
		s.untrackConn(id)
		metricWebsocketClients.Dec()
		logging.LogConnection(r.RemoteAddr, "websocket_closed")
	}()

	conn.SetReadLimit(maxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	go ping(conn, done)

	for {
		var req CommandRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.Info("WebSocket read failed",
					zap.String("remote_addr", r.RemoteAddr),
					zap.String("conn", id),
					zap.Error(err),
				)
			}
			return
		}

		resp := execute(c, req)

		if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			return
		}
		if err := conn.WriteJSON(resp); err != nil {
			logging.Error("Failed to send response",
				zap.String("conn", id),
				zap.Error(err),
			)
			return
		}
	}
}

// ping keeps the connection alive until done is closed.
func ping(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				logging.Debug("Failed to ping", zap.Error(err))
				return
			}
		}
	}
}
