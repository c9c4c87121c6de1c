package orch

import (
	"context"
	"sync"

	"github.com/pion/webrtc/v4"

	"github.com/snacka/voice/internal/app"
	"github.com/snacka/voice/internal/app/sfu"
	"github.com/snacka/voice/internal/core"
	"github.com/snacka/voice/internal/domain"
)

type fakeMedia struct {
	mu       sync.Mutex
	closed   bool
	answers  []string
	cands    []string
	onICE    func(webrtc.ICECandidateInit)
	onTrack  func(context.Context, *webrtc.TrackRemote, *webrtc.RTPReceiver)
	onClosed func()
}

func (m *fakeMedia) Start(ctx context.Context) error { return nil }

func (m *fakeMedia) Close() {
	m.mu.Lock()
	m.closed = true
	fn := m.onClosed
	m.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (m *fakeMedia) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *fakeMedia) AddMediaTracks() error { return nil }

func (m *fakeMedia) CreateAndSetOffer() (*webrtc.SessionDescription, error) {
	return &webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: "v=0 fake-offer"}, nil
}

func (m *fakeMedia) ApplyAnswer(answer webrtc.SessionDescription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.answers = append(m.answers, answer.SDP)
	return nil
}

func (m *fakeMedia) AddICECandidate(ci webrtc.ICECandidateInit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cands = append(m.cands, ci.Candidate)
	return nil
}

func (m *fakeMedia) OnICECandidate(fn func(webrtc.ICECandidateInit)) { m.onICE = fn }

func (m *fakeMedia) OnTrack(fn func(context.Context, *webrtc.TrackRemote, *webrtc.RTPReceiver)) {
	m.onTrack = fn
}

func (m *fakeMedia) AddLocalTrack(track *webrtc.TrackLocalStaticRTP) (*webrtc.RTPSender, error) {
	return nil, nil
}

func (m *fakeMedia) OnClosed(fn func()) { m.onClosed = fn }

type fakeEngine struct {
	mu    sync.Mutex
	calls int
	err   error
	last  *fakeMedia
}

func (e *fakeEngine) NewConnection(ctx context.Context, label string) (core.MediaConnection, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	e.last = &fakeMedia{}
	return e.last, nil
}

type fakeConn struct {
	mu     sync.Mutex
	frames []core.Frame
}

func (c *fakeConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, f)
	return nil
}

func (c *fakeConn) Close() {}

// recordingEvents captures raised events for assertions.
type recordingEvents struct {
	mu          sync.Mutex
	candidates  []string
	stopped     []string // "channel/streamer->viewer"
	annotations []string // "target<-from:action"
}

func (r *recordingEvents) IceCandidate(channel domain.ChannelID, user domain.UserID, cand domain.ICECandidate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.candidates = append(r.candidates, string(user)+":"+cand.Candidate)
}

func (r *recordingEvents) ScreenShareStopped(channel domain.ChannelID, streamer, viewer domain.UserID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped = append(r.stopped, string(channel)+"/"+string(streamer)+"->"+string(viewer))
}

func (r *recordingEvents) Annotation(channel domain.ChannelID, streamer, target, from domain.UserID, ev domain.AnnotationEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.annotations = append(r.annotations, string(target)+"<-"+string(from)+":"+string(ev.Action))
}

func candidate(s string) domain.ICECandidate {
	return domain.ICECandidate{Candidate: s}
}

func annotation(action domain.AnnotationAction) domain.AnnotationEvent {
	return domain.AnnotationEvent{Action: action}
}

func newTestOrchestrator(engine *fakeEngine) (*Orchestrator, *recordingEvents) {
	events := &recordingEvents{}
	fanout := app.NewScreenShareFanout()
	presence := app.NewConnectionPresenceTracker()
	bridge := app.NewSignalingBridge(presence, app.SimplePolicy{})
	sessions := app.NewSessionRegistry(engine, fanout, events.IceCandidate)
	return &Orchestrator{
		Sessions: sessions,
		Fanout:   fanout,
		Presence: presence,
		Bridge:   bridge,
		Relays:   sfu.NewRelayManager(),
		Events:   events,
	}, events
}
