package orch

import (
	"context"

	"github.com/pion/webrtc/v4"

	"github.com/snacka/voice/internal/app"
	"github.com/snacka/voice/internal/app/sfu"
	"github.com/snacka/voice/internal/domain"
)

// bindMediaHandlers wires a session's transport handle into the track relay.
// Called under JoinVoice, before negotiation starts.
func (o *Orchestrator) bindMediaHandlers(sess *app.Session) {
	key := sfu.StreamKey{Channel: sess.Channel, User: sess.User}
	mc := sess.Media()
	mc.OnTrack(func(ctx context.Context, track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		o.onTrack(ctx, key, track)
	})
	mc.OnClosed(func() {
		if o.Relays != nil {
			o.Relays.StopRelay(key)
		}
	})
}

// onTrack starts relaying the streamer's track and attaches every viewer who
// opted in before the track existed.
func (o *Orchestrator) onTrack(ctx context.Context, src sfu.StreamKey, track *webrtc.TrackRemote) {
	if o.Relays == nil {
		return
	}
	o.Relays.StartRelay(ctx, src, track)
	for _, viewer := range o.Fanout.Viewers(src.Channel, src.User) {
		o.subscribeViewer(src, viewer)
	}
}

// subscribeViewer attaches the viewer's own session handle to the streamer's
// relay. A viewer without a session in the channel simply is not subscribed;
// fan-out membership and session lifecycle stay decoupled.
func (o *Orchestrator) subscribeViewer(src sfu.StreamKey, viewer domain.UserID) {
	if o.Relays == nil {
		return
	}
	sess, ok := o.Sessions.Get(src.Channel, viewer)
	if !ok {
		return
	}
	o.Relays.Subscribe(src, sfu.StreamKey{Channel: src.Channel, User: viewer}, sess.Media())
}
