package orch

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/snacka/voice/internal/app/sfu"
	"github.com/snacka/voice/internal/domain"
)

// JoinVoice creates the user's session in the channel and returns the SDP
// offer to hand back to the caller. A rejoin replaces: the previous session's
// transport handle is torn down before the new one is negotiated, so a user
// never holds two live handles for one channel. This is the one operation
// whose failure surfaces to the client.
func (o *Orchestrator) JoinVoice(ctx context.Context, channel domain.ChannelID, user domain.UserID) (string, error) {
	if _, ok := o.Sessions.Get(channel, user); ok {
		log.Info().Str("module", "orch").Str("channel", string(channel)).Str("user", string(user)).Msg("rejoin, replacing session")
		o.leaveVoice(channel, user)
	}

	sess, err := o.Sessions.GetOrCreate(ctx, channel, user)
	if err != nil {
		return "", fmt.Errorf("join voice: %w", err)
	}
	o.bindMediaHandlers(sess)

	offer, err := sess.Negotiate()
	if err != nil {
		// No partial entry may survive a failed negotiation.
		o.Sessions.Remove(channel, user)
		return "", fmt.Errorf("join voice: %w", err)
	}
	return offer, nil
}

// SubmitAnswer applies the client's answer to its session. No session (user
// already left) is the expected race and a no-op.
func (o *Orchestrator) SubmitAnswer(channel domain.ChannelID, user domain.UserID, sdp string) {
	sess, ok := o.Sessions.Get(channel, user)
	if !ok {
		log.Debug().Str("module", "orch").Str("channel", string(channel)).Str("user", string(user)).Msg("answer without session")
		return
	}
	sess.SetRemoteAnswer(sdp)
}

// SubmitIceCandidate applies a remote candidate to the user's session.
// Late candidates after leave are dropped silently.
func (o *Orchestrator) SubmitIceCandidate(channel domain.ChannelID, user domain.UserID, cand domain.ICECandidate) {
	sess, ok := o.Sessions.Get(channel, user)
	if !ok {
		log.Debug().Str("module", "orch").Str("channel", string(channel)).Str("user", string(user)).Msg("candidate without session")
		return
	}
	sess.AddRemoteCandidate(cand)
}

// LeaveVoice tears the session down. Leaving a channel never joined is a
// no-op.
func (o *Orchestrator) LeaveVoice(channel domain.ChannelID, user domain.UserID) {
	o.leaveVoice(channel, user)
}

func (o *Orchestrator) leaveVoice(channel domain.ChannelID, user domain.UserID) {
	if o.Relays != nil {
		o.Relays.StopRelay(sfu.StreamKey{Channel: channel, User: user})
	}
	o.Sessions.Remove(channel, user)
}
