package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/snacka/voice/internal/domain"
)

type screenPayload struct {
	Type     string `json:"type"`
	Channel  string `json:"channel"`
	Streamer string `json:"streamer"`
}

func (ctl *SignalWSController) handleWatchScreen(user domain.UserID, data []byte) {
	var p screenPayload
	if err := json.Unmarshal(data, &p); err != nil || p.Channel == "" || p.Streamer == "" {
		log.Error().Err(err).Str("module", "signal").Msg("bad watch_screen payload")
		return
	}
	ctl.Orch.WatchScreenShare(domain.ChannelID(p.Channel), domain.UserID(p.Streamer), user)
}

func (ctl *SignalWSController) handleStopWatchScreen(user domain.UserID, data []byte) {
	var p screenPayload
	if err := json.Unmarshal(data, &p); err != nil || p.Channel == "" || p.Streamer == "" {
		log.Error().Err(err).Str("module", "signal").Msg("bad stop_watch_screen payload")
		return
	}
	ctl.Orch.StopWatchingScreenShare(domain.ChannelID(p.Channel), domain.UserID(p.Streamer), user)
}

// handleStopScreenShare ends the caller's own share.
func (ctl *SignalWSController) handleStopScreenShare(user domain.UserID, data []byte) {
	var p struct {
		Type    string `json:"type"`
		Channel string `json:"channel"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.Channel == "" {
		log.Error().Err(err).Str("module", "signal").Msg("bad stop_screen_share payload")
		return
	}
	ctl.Orch.ClearScreenShareViewers(domain.ChannelID(p.Channel), user)
}

func (ctl *SignalWSController) handleAnnotation(user domain.UserID, conn *WsSignalConn, data []byte) {
	var p struct {
		Type     string `json:"type"`
		Channel  string `json:"channel"`
		Streamer string `json:"streamer"`
		Action   string `json:"action"`
		Payload  string `json:"payload"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.Channel == "" || p.Streamer == "" {
		log.Error().Err(err).Str("module", "signal").Msg("bad annotation payload")
		return
	}
	action, err := domain.ParseAnnotationAction(p.Action)
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("user", string(user)).Msg("annotation rejected")
		ctl.sendError(conn, "bad_annotation_action")
		return
	}
	ctl.Orch.Annotate(
		domain.ChannelID(p.Channel),
		domain.UserID(p.Streamer),
		user,
		domain.AnnotationEvent{Action: action, Payload: p.Payload},
	)
}

// handleSubscribe joins or leaves a logical broadcast group. Only the known
// group families are accepted from clients.
func (ctl *SignalWSController) handleSubscribe(connID domain.ConnectionID, c *WsSignalConn, data []byte, join bool) {
	var p struct {
		Type  string `json:"type"`
		Group string `json:"group"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.Group == "" {
		log.Error().Err(err).Str("module", "signal").Msg("bad subscribe payload")
		ctl.sendError(c, "bad_payload")
		return
	}
	if !domain.IsSubscribableGroup(p.Group) {
		ctl.sendError(c, "unknown_group")
		return
	}
	if join {
		ctl.Orch.Bridge.JoinGroup(p.Group, connID)
	} else {
		ctl.Orch.Bridge.LeaveGroup(p.Group, connID)
	}
}
