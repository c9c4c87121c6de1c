package app

import "github.com/snacka/voice/internal/domain"

// EventSink is what the session layer raises for the connection layer to
// deliver. Implementations route through the bridge; no delivery guarantees
// beyond what RelayToUser gives.
type EventSink interface {
	// IceCandidate carries a locally gathered candidate for the user's
	// session in the channel.
	IceCandidate(channel domain.ChannelID, user domain.UserID, cand domain.ICECandidate)
	// ScreenShareStopped tells a viewer the stream they watched is gone.
	ScreenShareStopped(channel domain.ChannelID, streamer, viewer domain.UserID)
	// Annotation delivers one drawing action to a watch participant.
	Annotation(channel domain.ChannelID, streamer, target, from domain.UserID, ev domain.AnnotationEvent)
}
