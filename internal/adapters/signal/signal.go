// Package signal is the websocket edge of the session layer: one connection
// per authenticated client, JSON envelopes in both directions.
package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/snacka/voice/internal/app"
	"github.com/snacka/voice/internal/app/orch"
	"github.com/snacka/voice/internal/core"
	"github.com/snacka/voice/internal/domain"
)

type SignalWSController struct {
	Orch    *orch.Orchestrator
	Limiter *app.SignalRateLimiter

	ReadLimit  int64
	PingPeriod time.Duration
}

func NewSignalWSController(o *orch.Orchestrator, limiter *app.SignalRateLimiter, readLimit int64, pingPeriod time.Duration) *SignalWSController {
	return &SignalWSController{Orch: o, Limiter: limiter, ReadLimit: readLimit, PingPeriod: pingPeriod}
}

// WsSignalConn is the per-client transport endpoint. Frames queue on send and
// a single write pump drains them, which is what keeps per-connection
// delivery ordered.
type WsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return core.ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleSignal upgrades the request and registers the connection. The user
// identity comes verified from the auth middleware; a fresh connection id is
// minted here and lives until the read pump exits.
func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	user := domain.UserID(c.GetString("user_id"))
	connID := domain.ConnectionID(uuid.NewString())
	log.Info().Str("module", "signal").Str("user", string(user)).Str("conn", string(connID)).Msg("new WS connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Msg("ws upgrade")
		return
	}

	if ctl.ReadLimit > 0 {
		ws.SetReadLimit(ctl.ReadLimit)
	}

	conn := &WsSignalConn{
		conn: ws,
		send: make(chan core.Frame, 32),
	}

	ctx, cancel := context.WithCancel(ctx)
	ctl.Orch.OnConnect(connID, user, conn)

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, cancel, connID, user, conn)
}
