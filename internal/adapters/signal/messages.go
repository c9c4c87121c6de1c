package signal

import (
	"github.com/snacka/voice/internal/app"
	"github.com/snacka/voice/internal/domain"
)

// Wire envelopes. Every frame carries a "type" discriminator; the rest of
// the fields depend on it.

type errorEnvelope struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

type offerEnvelope struct {
	Type    string           `json:"type"`
	Channel domain.ChannelID `json:"channel"`
	SDP     string           `json:"sdp"`
}

type candidateEnvelope struct {
	Type          string           `json:"type"`
	Channel       domain.ChannelID `json:"channel"`
	Candidate     string           `json:"candidate"`
	SDPMid        string           `json:"sdpMid,omitempty"`
	SDPMLineIndex uint16           `json:"sdpMLineIndex,omitempty"`
}

type voiceMemberEnvelope struct {
	Type    string           `json:"type"`
	Channel domain.ChannelID `json:"channel"`
	User    domain.UserID    `json:"user"`
}

type screenStoppedEnvelope struct {
	Type     string           `json:"type"`
	Channel  domain.ChannelID `json:"channel"`
	Streamer domain.UserID    `json:"streamer"`
}

type annotationEnvelope struct {
	Type     string                  `json:"type"`
	Channel  domain.ChannelID        `json:"channel"`
	Streamer domain.UserID           `json:"streamer"`
	From     domain.UserID           `json:"from"`
	Action   domain.AnnotationAction `json:"action"`
	Payload  string                  `json:"payload,omitempty"`
}

// Notifier implements app.EventSink on top of the bridge, translating core
// events into wire envelopes.
type Notifier struct {
	Bridge *app.SignalingBridge
}

func NewNotifier(bridge *app.SignalingBridge) *Notifier {
	return &Notifier{Bridge: bridge}
}

func (n *Notifier) IceCandidate(channel domain.ChannelID, user domain.UserID, cand domain.ICECandidate) {
	env := candidateEnvelope{
		Type:      "candidate",
		Channel:   channel,
		Candidate: cand.Candidate,
	}
	if cand.SDPMid != nil {
		env.SDPMid = *cand.SDPMid
	}
	if cand.SDPMLineIndex != nil {
		env.SDPMLineIndex = *cand.SDPMLineIndex
	}
	n.Bridge.RelayToUser(user, env)
}

func (n *Notifier) ScreenShareStopped(channel domain.ChannelID, streamer, viewer domain.UserID) {
	n.Bridge.RelayToUser(viewer, screenStoppedEnvelope{
		Type:     "screen_share_stopped",
		Channel:  channel,
		Streamer: streamer,
	})
}

func (n *Notifier) Annotation(channel domain.ChannelID, streamer, target, from domain.UserID, ev domain.AnnotationEvent) {
	n.Bridge.RelayToUser(target, annotationEnvelope{
		Type:     "annotation",
		Channel:  channel,
		Streamer: streamer,
		From:     from,
		Action:   ev.Action,
		Payload:  ev.Payload,
	})
}
