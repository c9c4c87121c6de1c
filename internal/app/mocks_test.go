package app

import (
	"context"
	"sync"

	"github.com/pion/webrtc/v4"

	"github.com/snacka/voice/internal/core"
	"github.com/snacka/voice/internal/domain"
)

// fakeMedia is a recording MediaConnection: it logs every mutating call in
// order so tests can assert sequencing.
type fakeMedia struct {
	mu       sync.Mutex
	started  bool
	closed   bool
	ops      []string
	remote   []webrtc.ICECandidateInit
	onICE    func(webrtc.ICECandidateInit)
	onTrack  func(context.Context, *webrtc.TrackRemote, *webrtc.RTPReceiver)
	onClosed func()

	offerSDP string
	offerErr error
	tracsErr error
}

func newFakeMedia() *fakeMedia {
	return &fakeMedia{offerSDP: "v=0 fake-offer"}
}

func (m *fakeMedia) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started = true
	return nil
}

func (m *fakeMedia) Close() {
	m.mu.Lock()
	m.closed = true
	m.ops = append(m.ops, "close")
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

func (m *fakeMedia) AddMediaTracks() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tracsErr != nil {
		return m.tracsErr
	}
	m.ops = append(m.ops, "tracks")
	return nil
}

func (m *fakeMedia) CreateAndSetOffer() (*webrtc.SessionDescription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.offerErr != nil {
		return nil, m.offerErr
	}
	m.ops = append(m.ops, "offer")
	return &webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: m.offerSDP}, nil
}

func (m *fakeMedia) ApplyAnswer(answer webrtc.SessionDescription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops = append(m.ops, "answer:"+answer.SDP)
	return nil
}

func (m *fakeMedia) AddICECandidate(ci webrtc.ICECandidateInit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops = append(m.ops, "cand:"+ci.Candidate)
	m.remote = append(m.remote, ci)
	return nil
}

func (m *fakeMedia) OnICECandidate(fn func(webrtc.ICECandidateInit)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onICE = fn
}

func (m *fakeMedia) OnTrack(fn func(context.Context, *webrtc.TrackRemote, *webrtc.RTPReceiver)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onTrack = fn
}

func (m *fakeMedia) AddLocalTrack(track *webrtc.TrackLocalStaticRTP) (*webrtc.RTPSender, error) {
	return nil, nil
}

func (m *fakeMedia) OnClosed(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onClosed = fn
}

// emitCandidate simulates the engine gathering a local candidate.
func (m *fakeMedia) emitCandidate(candidate string) {
	m.mu.Lock()
	fn := m.onICE
	m.mu.Unlock()
	if fn != nil {
		fn(webrtc.ICECandidateInit{Candidate: candidate})
	}
}

func (m *fakeMedia) opLog() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.ops))
	copy(out, m.ops)
	return out
}

// fakeEngine mints fakeMedia handles and counts creations.
type fakeEngine struct {
	mu      sync.Mutex
	calls   int
	err     error
	created []*fakeMedia
}

func (e *fakeEngine) NewConnection(ctx context.Context, label string) (core.MediaConnection, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	m := newFakeMedia()
	m.started = true
	e.created = append(e.created, m)
	return m, nil
}

func (e *fakeEngine) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

// fakeConn records delivered frames in order.
type fakeConn struct {
	mu      sync.Mutex
	frames  []core.Frame
	sendErr error
	closed  bool
}

func (c *fakeConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sendErr != nil {
		return c.sendErr
	}
	cp := make(core.Frame, len(f))
	copy(cp, f)
	c.frames = append(c.frames, cp)
	return nil
}

func (c *fakeConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *fakeConn) frameLog() []core.Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]core.Frame, len(c.frames))
	copy(out, c.frames)
	return out
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// discardSink drops outbound candidates.
func discardSink(_ domain.ChannelID, _ domain.UserID, _ domain.ICECandidate) {}
