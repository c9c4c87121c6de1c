package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/snacka/voice/internal/domain"
)

func (ctl *SignalWSController) writePump(ctx context.Context, c *WsSignalConn) {
	pingPeriod := ctl.PingPeriod
	if pingPeriod <= 0 {
		pingPeriod = 54 * time.Second
	}
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Msg("writePump ctx done")
			return
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Info().Err(err).Str("module", "signal").Msg("writePump ping failed")
				return
			}
		case data, ok := <-c.send:
			if !ok {
				log.Warn().Str("module", "signal").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *SignalWSController) readPump(ctx context.Context, cancel context.CancelFunc, connID domain.ConnectionID, user domain.UserID, c *WsSignalConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("conn", string(connID)).Msg("readPump closing")
		ctl.Orch.OnDisconnect(connID)
		if ctl.Limiter != nil {
			ctl.Limiter.Forget(user)
		}
		cancel()
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Str("conn", string(connID)).Msg("readPump ctx done")
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				log.Info().Err(err).Str("module", "signal").Str("conn", string(connID)).Msg("readPump read error")
				return
			}
			ctl.handleSignal(ctx, connID, user, c, data)
		}
	}
}

func (ctl *SignalWSController) handleSignal(ctx context.Context, connID domain.ConnectionID, user domain.UserID, c *WsSignalConn, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad json")
		return
	}

	if ctl.Limiter != nil && !ctl.Limiter.Allow(user) {
		log.Warn().Str("module", "signal").Str("user", string(user)).Str("type", env.Type).Msg("rate limited, dropping")
		ctl.sendError(c, "rate_limited")
		return
	}

	switch env.Type {
	case "ping":
		ctl.handlePing(c)
	case "join_voice":
		ctl.handleJoinVoice(ctx, connID, user, c, data)
	case "leave_voice":
		ctl.handleLeaveVoice(connID, user, c, data)
	case "answer":
		ctl.handleAnswer(user, data)
	case "candidate":
		ctl.handleCandidate(user, data)
	case "watch_screen":
		ctl.handleWatchScreen(user, data)
	case "stop_watch_screen":
		ctl.handleStopWatchScreen(user, data)
	case "stop_screen_share":
		ctl.handleStopScreenShare(user, data)
	case "annotation":
		ctl.handleAnnotation(user, c, data)
	case "subscribe":
		ctl.handleSubscribe(connID, c, data, true)
	case "unsubscribe":
		ctl.handleSubscribe(connID, c, data, false)
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown signal")
	}
}

func (ctl *SignalWSController) sendJSON(c *WsSignalConn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}

func (ctl *SignalWSController) sendError(c *WsSignalConn, code string) {
	ctl.sendJSON(c, errorEnvelope{Type: "error", Error: code})
}
