package orch

import (
	"github.com/rs/zerolog/log"

	"github.com/snacka/voice/internal/app/sfu"
	"github.com/snacka/voice/internal/domain"
)

// WatchScreenShare opts the viewer in to the streamer's share and, when the
// stream is already live, subscribes the viewer's handle to its relay.
// Legal even when no stream exists yet; the subscription happens on the
// streamer's next track.
func (o *Orchestrator) WatchScreenShare(channel domain.ChannelID, streamer, viewer domain.UserID) {
	o.Fanout.AddViewer(channel, streamer, viewer)
	o.subscribeViewer(sfu.StreamKey{Channel: channel, User: streamer}, viewer)
}

// StopWatchingScreenShare opts the viewer out. Idempotent.
func (o *Orchestrator) StopWatchingScreenShare(channel domain.ChannelID, streamer, viewer domain.UserID) {
	o.Fanout.RemoveViewer(channel, streamer, viewer)
	if o.Relays != nil {
		o.Relays.MarkSubscriberDelete(
			sfu.StreamKey{Channel: channel, User: streamer},
			sfu.StreamKey{Channel: channel, User: viewer},
		)
	}
}

// ClearScreenShareViewers ends the streamer's share: every viewer is told the
// stream stopped, subscriptions are dropped and the entry disappears.
func (o *Orchestrator) ClearScreenShareViewers(channel domain.ChannelID, streamer domain.UserID) {
	viewers := o.Fanout.Viewers(channel, streamer)
	src := sfu.StreamKey{Channel: channel, User: streamer}
	for _, viewer := range viewers {
		if o.Relays != nil {
			o.Relays.MarkSubscriberDelete(src, sfu.StreamKey{Channel: channel, User: viewer})
		}
		if o.Events != nil {
			o.Events.ScreenShareStopped(channel, streamer, viewer)
		}
	}
	o.Fanout.ClearViewers(channel, streamer)
	log.Info().Str("module", "orch").Str("channel", string(channel)).Str("streamer", string(streamer)).Int("viewers", len(viewers)).Msg("screen share cleared")
}

// Annotate relays one drawing action to everyone watching the share, plus
// the streamer, excluding the sender. Actions from users who are neither the
// streamer nor an opted-in viewer are dropped.
func (o *Orchestrator) Annotate(channel domain.ChannelID, streamer, from domain.UserID, ev domain.AnnotationEvent) {
	if from != streamer && !o.Fanout.IsViewer(channel, streamer, from) {
		log.Debug().Str("module", "orch").Str("channel", string(channel)).Str("from", string(from)).Msg("annotation from non-participant dropped")
		return
	}
	if o.Events == nil {
		return
	}
	if from != streamer {
		o.Events.Annotation(channel, streamer, streamer, from, ev)
	}
	for _, viewer := range o.Fanout.Viewers(channel, streamer) {
		if viewer == from {
			continue
		}
		o.Events.Annotation(channel, streamer, viewer, from, ev)
	}
}
