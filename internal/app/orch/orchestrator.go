// Package orch coordinates the session registry, presence tracker, screen
// share fan-out and signaling bridge. It is the surface the connection layer
// calls into; everything here trusts the user identity it is handed.
package orch

import (
	"github.com/rs/zerolog/log"

	"github.com/snacka/voice/internal/app"
	"github.com/snacka/voice/internal/app/sfu"
	"github.com/snacka/voice/internal/core"
	"github.com/snacka/voice/internal/domain"
)

type Orchestrator struct {
	Sessions *app.SessionRegistry
	Fanout   *app.ScreenShareFanout
	Presence *app.ConnectionPresenceTracker
	Bridge   *app.SignalingBridge
	Relays   *sfu.RelayManager
	Events   app.EventSink
}

// OnConnect registers a freshly authenticated connection. A second login for
// the same user replaces the previous mapping (single active client).
func (o *Orchestrator) OnConnect(conn domain.ConnectionID, user domain.UserID, sc core.SignalConnection) {
	o.Presence.Register(conn, user)
	o.Bridge.Attach(conn, sc)
	log.Info().Str("module", "orch").Str("conn", string(conn)).Str("user", string(user)).Msg("connected")
}

// OnDisconnect tears down everything the connection's user held: sessions in
// all channels, streamer fan-out entries and viewer memberships. An unknown
// connection id (already replaced by a reconnect) only detaches the endpoint.
func (o *Orchestrator) OnDisconnect(conn domain.ConnectionID) {
	o.Bridge.Detach(conn)
	user, ok := o.Presence.Unregister(conn)
	if !ok {
		log.Debug().Str("module", "orch").Str("conn", string(conn)).Msg("disconnect for unknown connection")
		return
	}
	o.Sessions.RemoveUser(user)
	o.Fanout.RemoveViewerEverywhere(user)
	log.Info().Str("module", "orch").Str("conn", string(conn)).Str("user", string(user)).Msg("disconnected")
}

// Participants lists users with a live voice session in the channel.
func (o *Orchestrator) Participants(channel domain.ChannelID) []domain.UserID {
	return o.Sessions.Participants(channel)
}
