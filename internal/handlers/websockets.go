package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait        = 10 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = (pongWait * 9) / 10
	maxMsgSize       = 1 << 12 // 4 KB
	defaultInterval  = 5 * time.Second
	minInterval      = 500 * time.Millisecond
	maxInterval      = time.Minute
	maxIntervalMilli = 60_000

	msgTypeSnapshot = "snapshot"
	msgTypeError    = "error"
)

// wsEnvelope is the frame written to stream clients.
type wsEnvelope struct {
	Type  string      `json:"type"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

// The stream is read-only and served on the LAN only.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// @Summary      Live snapshot stream
// @Description  WebSocket that pushes the combined snapshot every interval (?interval=5s or ?interval_ms=5000, 0.5s..60s).
// @Tags         monitoring
// @Param        interval     query  string  false  "Push interval as a Go duration"
// @Param        interval_ms  query  int     false  "Push interval in milliseconds"
// @Success      101
// @Router       /ws [get]
func (h *Handler) wsConnect(c *gin.Context) {
	interval := parseInterval(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_upgrade_failed", "err", err)
		}
		return
	}
	defer func() { _ = conn.Close() }()

	conn.SetReadLimit(maxMsgSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	closed := make(chan struct{})
	go h.drain(conn, closed)

	if h.log != nil {
		h.log.Debugw("ws_client_connected", "remote", c.ClientIP(), "interval", interval)
	}
	h.streamSnapshots(c.Request.Context(), conn, interval, closed)
}

// streamSnapshots writes one snapshot immediately and then one per interval,
// interleaved with pings, until the client goes away.
func (h *Handler) streamSnapshots(ctx context.Context, conn *websocket.Conn, interval time.Duration, closed <-chan struct{}) {
	push := time.NewTicker(interval)
	ping := time.NewTicker(pingPeriod)
	defer push.Stop()
	defer ping.Stop()

	if err := h.sendSnapshot(ctx, conn); err != nil {
		if h.log != nil {
			h.log.Infow("ws_write_failed_initial", "err", err)
		}
		return
	}

	for {
		select {
		case <-closed:
			return
		case <-ctx.Done():
			return
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				if h.log != nil {
					h.log.Infow("ws_ping_failed", "err", err)
				}
				return
			}
		case <-push.C:
			if err := h.sendSnapshot(ctx, conn); err != nil {
				if h.log != nil {
					h.log.Infow("ws_write_failed", "err", err)
				}
				return
			}
		}
	}
}

// parseInterval reads ?interval=2s or ?interval_ms=2000; out-of-range values fall back to the default.
func parseInterval(c *gin.Context) time.Duration {
	if s := c.Query("interval"); s != "" {
		if d, err := time.ParseDuration(s); err == nil && d >= minInterval && d <= maxInterval {
			return d
		}
	}
	if ms := c.Query("interval_ms"); ms != "" {
		if v, err := strconv.Atoi(ms); err == nil && v >= int(minInterval/time.Millisecond) && v <= maxIntervalMilli {
			return time.Duration(v) * time.Millisecond
		}
	}
	return defaultInterval
}

// drain reads until the peer closes so control frames are processed.
func (h *Handler) drain(conn *websocket.Conn, closed chan<- struct{}) {
	defer close(closed)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if h.log != nil {
				h.log.Debugw("ws_read_closed", "err", err)
			}
			return
		}
	}
}

// sendSnapshot writes the current snapshot. A store failure is reported to
// the client as an error frame and keeps the stream open.
func (h *Handler) sendSnapshot(ctx context.Context, conn *websocket.Conn) error {
	msg := wsEnvelope{Type: msgTypeSnapshot}
	snap, err := h.services.Snapshot(ctx)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_snapshot_failed", "err", err)
		}
		msg = wsEnvelope{Type: msgTypeError, Error: errLoadState}
	} else {
		msg.Data = snap
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(msg)
}
