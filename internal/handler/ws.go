package handler

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"whiteboard-backend/internal/auth"
	"whiteboard-backend/internal/config"
	"whiteboard-backend/internal/logger"
	"whiteboard-backend/internal/relay"
)

// =============================================================================
// WebSocket endpoint - relay transport adapter
// =============================================================================

// WSHandler bridges websocket connections into the relay.
type WSHandler struct {
	relay   *relay.Relay
	cfg     config.WebSocketConfig
	metrics relay.Recorder
	log     *logrus.Entry
}

// NewWSHandler metrics may be nil.
func NewWSHandler(r *relay.Relay, cfg config.WebSocketConfig, metrics relay.Recorder) *WSHandler {
	if metrics == nil {
		metrics = relay.NopRecorder{}
	}
	if cfg.PongWait <= 0 {
		cfg.PongWait = 60 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	if cfg.EventsPerSecond <= 0 {
		cfg.EventsPerSecond = float64(rate.Inf)
	}
	return &WSHandler{
		relay:   r,
		cfg:     cfg,
		metrics: metrics,
		log:     logger.For("ws"),
	}
}

// Upgrade WebSocket 업그레이드 체크 미들웨어. Runs after AuthMiddleware.
func (h *WSHandler) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	return c.Next()
}

// Endpoint the fiber handler serving upgraded connections.
func (h *WSHandler) Endpoint() fiber.Handler {
	return websocket.New(h.HandleWebSocket, websocket.Config{
		ReadBufferSize:  h.cfg.ReadBufferSize,
		WriteBufferSize: h.cfg.WriteBufferSize,
	})
}

// wsConn session.Conn over a websocket. Frames go through a bounded queue
// drained by writePump; a full queue drops the frame.
type wsConn struct {
	id   string
	conn *websocket.Conn
	send chan []byte

	done      chan struct{}
	closeOnce sync.Once
	stopped   chan struct{}
}

func newWSConn(c *websocket.Conn, buffer int) *wsConn {
	if buffer < 1 {
		buffer = 1
	}
	return &wsConn{
		id:      uuid.NewString(),
		conn:    c,
		send:    make(chan []byte, buffer),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

func (w *wsConn) ID() string { return w.id }

func (w *wsConn) Send(frame []byte) bool {
	select {
	case <-w.done:
		return false
	default:
	}
	select {
	case w.send <- frame:
		return true
	default:
		return false
	}
}

func (w *wsConn) close() {
	w.closeOnce.Do(func() { close(w.done) })
}

// writePump owns all writes to the socket.
func (w *wsConn) writePump(writeTimeout, pingPeriod time.Duration) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		close(w.stopped)
	}()

	for {
		select {
		case <-w.done:
			_ = w.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			_ = w.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return

		case frame := <-w.send:
			_ = w.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := w.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				w.close()
				// unblock the read loop
				_ = w.conn.Close()
				return
			}

		case <-ticker.C:
			_ = w.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := w.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				w.close()
				_ = w.conn.Close()
				return
			}
		}
	}
}

// HandleWebSocket read loop for one connection.
func (h *WSHandler) HandleWebSocket(c *websocket.Conn) {
	userID, _ := c.Locals(auth.LocalUserID).(string)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	wc := newWSConn(c, h.cfg.SendBuffer)
	s := h.relay.Connect(wc, userID)
	log := h.log.WithFields(logrus.Fields{"conn_id": wc.id, "user_id": userID})

	pingPeriod := h.cfg.PongWait * 9 / 10
	go wc.writePump(h.cfg.WriteTimeout, pingPeriod)

	defer func() {
		h.relay.Disconnect(s)
		wc.close()
		<-wc.stopped
	}()

	c.SetReadLimit(h.cfg.MaxMessageBytes)
	_ = c.SetReadDeadline(time.Now().Add(h.cfg.PongWait))
	c.SetPongHandler(func(string) error {
		return c.SetReadDeadline(time.Now().Add(h.cfg.PongWait))
	})

	limiter := rate.NewLimiter(rate.Limit(h.cfg.EventsPerSecond), h.cfg.EventBurst)

	for {
		msgType, data, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.WithError(err).Debug("connection closed unexpectedly")
			}
			return
		}
		if msgType != websocket.TextMessage && msgType != websocket.BinaryMessage {
			continue
		}
		if !limiter.Allow() {
			h.metrics.Dropped(relay.DropRateLimited)
			continue
		}
		h.relay.Handle(ctx, s, data)
	}
}
