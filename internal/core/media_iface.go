package core

import (
	"context"

	"github.com/pion/webrtc/v4"
)

// MediaConnection is the transport handle a voice session owns: one peer
// connection plus its callbacks. The server side is the offerer.
type MediaConnection interface {
	// Start configures internal callbacks and binds the connection lifetime to ctx.
	Start(ctx context.Context) error
	// Close should stop all underlying media resources.
	Close()
	IsClosed() bool
	// AddMediaTracks declares the audio/video transceivers before the offer.
	AddMediaTracks() error
	// CreateAndSetOffer produces the local SDP offer. Candidates trickle
	// afterwards through OnICECandidate.
	CreateAndSetOffer() (*webrtc.SessionDescription, error)
	// ApplyAnswer applies the remote SDP answer.
	ApplyAnswer(webrtc.SessionDescription) error
	// AddICECandidate applies a remote ICE candidate.
	AddICECandidate(webrtc.ICECandidateInit) error
	// OnICECandidate sets a callback for newly gathered local ICE candidates.
	OnICECandidate(func(webrtc.ICECandidateInit))
	// OnTrack sets a callback that will be invoked when a new remote track arrives.
	OnTrack(func(ctx context.Context, track *webrtc.TrackRemote, receiver *webrtc.RTPReceiver))
	// AddLocalTrack attaches a local static RTP track to the underlying PeerConnection.
	AddLocalTrack(track *webrtc.TrackLocalStaticRTP) (*webrtc.RTPSender, error)
	// OnClosed sets a callback for cleanup media session.
	OnClosed(func())
}

// MediaEngine mints transport handles. The label only feeds logging.
type MediaEngine interface {
	NewConnection(ctx context.Context, label string) (MediaConnection, error)
}
