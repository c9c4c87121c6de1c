package signal

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/snacka/voice/internal/domain"
)

func (ctl *SignalWSController) handleJoinVoice(
	ctx context.Context,
	connID domain.ConnectionID,
	user domain.UserID,
	conn *WsSignalConn,
	data []byte,
) {
	var p struct {
		Type    string `json:"type"`
		Channel string `json:"channel"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.Channel == "" {
		log.Error().Err(err).Str("module", "signal").Msg("bad join_voice payload")
		ctl.sendError(conn, "bad_payload")
		return
	}
	channel := domain.ChannelID(p.Channel)

	offer, err := ctl.Orch.JoinVoice(ctx, channel, user)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Str("channel", p.Channel).Str("user", string(user)).Msg("join voice failed")
		ctl.sendError(conn, "voice_join_failed")
		return
	}

	ctl.Orch.Bridge.JoinGroup(domain.VoiceGroup(channel), connID)
	ctl.sendJSON(conn, offerEnvelope{Type: "offer", Channel: channel, SDP: offer})

	ctl.Orch.Bridge.RelayToGroup(domain.VoiceGroup(channel), voiceMemberEnvelope{
		Type:    "voice_member_joined",
		Channel: channel,
		User:    user,
	}, user)
}

func (ctl *SignalWSController) handleLeaveVoice(
	connID domain.ConnectionID,
	user domain.UserID,
	conn *WsSignalConn,
	data []byte,
) {
	var p struct {
		Type    string `json:"type"`
		Channel string `json:"channel"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.Channel == "" {
		log.Error().Err(err).Str("module", "signal").Msg("bad leave_voice payload")
		ctl.sendError(conn, "bad_payload")
		return
	}
	channel := domain.ChannelID(p.Channel)

	ctl.Orch.LeaveVoice(channel, user)
	ctl.Orch.Bridge.LeaveGroup(domain.VoiceGroup(channel), connID)

	ctl.Orch.Bridge.RelayToGroup(domain.VoiceGroup(channel), voiceMemberEnvelope{
		Type:    "voice_member_left",
		Channel: channel,
		User:    user,
	}, user)
}

func (ctl *SignalWSController) handleAnswer(user domain.UserID, data []byte) {
	var p struct {
		Type    string `json:"type"`
		Channel string `json:"channel"`
		SDP     string `json:"sdp"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.Channel == "" || p.SDP == "" {
		log.Error().Err(err).Str("module", "signal").Msg("bad answer payload")
		return
	}
	ctl.Orch.SubmitAnswer(domain.ChannelID(p.Channel), user, p.SDP)
}

func (ctl *SignalWSController) handleCandidate(user domain.UserID, data []byte) {
	var p struct {
		Type          string  `json:"type"`
		Channel       string  `json:"channel"`
		Candidate     string  `json:"candidate"`
		SDPMid        *string `json:"sdpMid"`
		SDPMLineIndex *uint16 `json:"sdpMLineIndex"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.Channel == "" {
		log.Error().Err(err).Str("module", "signal").Msg("bad candidate payload")
		return
	}

	ctl.Orch.SubmitIceCandidate(domain.ChannelID(p.Channel), user, domain.ICECandidate{
		Candidate:     p.Candidate,
		SDPMid:        p.SDPMid,
		SDPMLineIndex: p.SDPMLineIndex,
	})
}
