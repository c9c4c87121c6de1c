package app

import (
	"errors"
	"sync"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/snacka/voice/internal/core"
	"github.com/snacka/voice/internal/domain"
)

type SessionState int32

const (
	StateCreated SessionState = iota
	StateNegotiating
	StateConnected
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateNegotiating:
		return "negotiating"
	case StateConnected:
		return "connected"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

var ErrSessionClosed = errors.New("session closed")

// CandidateSink receives locally gathered candidates for delivery to the
// session's user. It is registered at construction time and invoked from the
// session's own dispatch goroutine, never from the media engine thread.
type CandidateSink func(channel domain.ChannelID, user domain.UserID, cand domain.ICECandidate)

// outQueueSize bounds the dispatch queue between the media engine and the
// sink. Gathering bursts stay well under this.
const outQueueSize = 64

// Session is one (channel, user) voice membership: a single transport handle,
// its pre-answer remote candidate buffer and the outbound candidate queue.
// All state mutation is serialized on mu; relay calls may race freely.
type Session struct {
	Channel domain.ChannelID
	User    domain.UserID

	mu      sync.Mutex
	state   SessionState
	media   core.MediaConnection
	pending []domain.ICECandidate

	out  chan domain.ICECandidate
	done chan struct{}
}

func NewSession(channel domain.ChannelID, user domain.UserID, media core.MediaConnection, sink CandidateSink) *Session {
	s := &Session{
		Channel: channel,
		User:    user,
		state:   StateCreated,
		media:   media,
		out:     make(chan domain.ICECandidate, outQueueSize),
		done:    make(chan struct{}),
	}
	media.OnICECandidate(func(ci webrtc.ICECandidateInit) {
		s.enqueueLocal(FromICEInit(ci))
	})
	go s.dispatch(sink)
	return s
}

func (s *Session) dispatch(sink CandidateSink) {
	for {
		select {
		case <-s.done:
			return
		case cand := <-s.out:
			sink(s.Channel, s.User, cand)
		}
	}
}

func (s *Session) enqueueLocal(cand domain.ICECandidate) {
	select {
	case s.out <- cand:
	default:
		log.Warn().Str("module", "app.session").Str("user", string(s.User)).Msg("outbound candidate queue full, dropping")
	}
}

// Negotiate declares the media tracks and produces the offer. It is meant to
// be called exactly once per session, right after creation.
func (s *Session) Negotiate() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return "", ErrSessionClosed
	}
	if err := s.media.AddMediaTracks(); err != nil {
		return "", err
	}
	offer, err := s.media.CreateAndSetOffer()
	if err != nil {
		return "", err
	}
	s.state = StateNegotiating
	log.Info().Str("module", "app.session").Str("channel", string(s.Channel)).Str("user", string(s.User)).Msg("offer created")
	return offer.SDP, nil
}

// SetRemoteAnswer applies the answer and replays buffered remote candidates
// in arrival order. On a closed session it is a no-op: a late answer after
// leave is an expected race, not a fault.
func (s *Session) SetRemoteAnswer(sdp string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		log.Debug().Str("module", "app.session").Str("user", string(s.User)).Msg("answer for closed session ignored")
		return
	}
	answer := webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: sdp}
	if err := s.media.ApplyAnswer(answer); err != nil {
		log.Warn().Err(err).Str("module", "app.session").Str("user", string(s.User)).Msg("apply answer failed")
		return
	}
	for _, cand := range s.pending {
		if err := s.media.AddICECandidate(ToICEInit(cand)); err != nil {
			log.Warn().Err(err).Str("module", "app.session").Str("user", string(s.User)).Msg("replay ice candidate failed")
		}
	}
	s.pending = nil
	s.state = StateConnected
	log.Info().Str("module", "app.session").Str("channel", string(s.Channel)).Str("user", string(s.User)).Msg("session connected")
}

// AddRemoteCandidate applies a remote candidate, buffering it when the answer
// has not been set yet. Candidates for a closed session are dropped.
func (s *Session) AddRemoteCandidate(cand domain.ICECandidate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateClosed:
		return
	case StateConnected:
		if err := s.media.AddICECandidate(ToICEInit(cand)); err != nil {
			log.Warn().Err(err).Str("module", "app.session").Str("user", string(s.User)).Msg("add ice candidate failed")
		}
	default:
		s.pending = append(s.pending, cand)
	}
}

// Close releases the transport handle. Idempotent; any call racing with it
// degrades to a no-op.
func (s *Session) Close() {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	s.state = StateClosed
	close(s.done)
	media := s.media
	s.mu.Unlock()

	media.Close()
	log.Info().Str("module", "app.session").Str("channel", string(s.Channel)).Str("user", string(s.User)).Msg("session closed")
}

func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Media exposes the transport handle for track fan-out subscriptions.
func (s *Session) Media() core.MediaConnection {
	return s.media
}

// FromICEInit converts a pion candidate to the wire value type.
func FromICEInit(ci webrtc.ICECandidateInit) domain.ICECandidate {
	return domain.ICECandidate{
		Candidate:     ci.Candidate,
		SDPMid:        ci.SDPMid,
		SDPMLineIndex: ci.SDPMLineIndex,
	}
}

// ToICEInit converts a wire candidate back to the pion representation.
func ToICEInit(cand domain.ICECandidate) webrtc.ICECandidateInit {
	return webrtc.ICECandidateInit{
		Candidate:     cand.Candidate,
		SDPMid:        cand.SDPMid,
		SDPMLineIndex: cand.SDPMLineIndex,
	}
}
