package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// WebSocket message types for the session state protocol
const (
	// Client -> Server messages
	MsgTypePing = "ping"

	// Server -> Client messages
	MsgTypeSessionState = "session_state"
	MsgTypePong         = "pong"
)

// WSMessage is the envelope for all WebSocket traffic
type WSMessage struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// SocketHandlerImpl implements the SocketHandler interface
type SocketHandlerImpl struct {
	sessions SessionManager
	log      *zap.Logger
	upgrader websocket.Upgrader
}

// NewSocketHandler creates a new WebSocket state handler
func NewSocketHandler(sessions SessionManager, log *zap.Logger) SocketHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &SocketHandlerImpl{
		sessions: sessions,
		log:      log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Allow connections from dev server
				return true
			},
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 16 * 1024,
		},
	}
}

// HandleSessionSocket upgrades the connection and pushes a session_state
// event with the full session snapshot on every state change, starting
// with the current state. The stream ends when the client disconnects or
// the session is deleted.
func (h *SocketHandlerImpl) HandleSessionSocket(c echo.Context) error {
	id := c.Param("sessionId")
	if id == "" {
		return NewValidationError("sessionId")
	}

	updates, cancel, err := h.sessions.Subscribe(id)
	if err != nil {
		return err
	}
	defer cancel()

	ws, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	h.log.Info("state socket connected", zap.String("session", shortID(id)))

	// Reader drains client frames, forwarding pings to the write loop so
	// all writes stay on a single goroutine.
	pings := make(chan struct{}, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var msg WSMessage
			if err := ws.ReadJSON(&msg); err != nil {
				return
			}
			if msg.Type == MsgTypePing {
				select {
				case pings <- struct{}{}:
				default:
				}
			}
		}
	}()

	keepAlive := time.NewTicker(30 * time.Second)
	defer keepAlive.Stop()

	for {
		select {
		case view, ok := <-updates:
			if !ok {
				h.sendClose(ws, "session deleted")
				return nil
			}
			if err := h.sendMessage(ws, WSMessage{
				Type:      MsgTypeSessionState,
				Payload:   view,
				Timestamp: time.Now().UnixMilli(),
			}); err != nil {
				return nil
			}

		case <-pings:
			// A client ping also counts as session activity.
			h.sessions.Touch(id)
			if err := h.sendMessage(ws, WSMessage{
				Type:      MsgTypePong,
				Timestamp: time.Now().UnixMilli(),
			}); err != nil {
				return nil
			}

		case <-keepAlive.C:
			ws.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return nil
			}

		case <-done:
			h.log.Info("state socket disconnected", zap.String("session", shortID(id)))
			return nil
		}
	}
}

func (h *SocketHandlerImpl) sendMessage(ws *websocket.Conn, msg WSMessage) error {
	ws.SetWriteDeadline(time.Now().Add(10 * time.Second))
	if err := ws.WriteJSON(msg); err != nil {
		h.log.Warn("state socket write failed", zap.Error(err))
		return err
	}
	return nil
}

func (h *SocketHandlerImpl) sendClose(ws *websocket.Conn, reason string) {
	deadline := time.Now().Add(time.Second)
	ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason), deadline)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
