package sfu

import (
	"context"
	"sync"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/snacka/voice/internal/core"
)

type RelayManager struct {
	mu     sync.RWMutex
	relays map[StreamKey]*Relay
}

func NewRelayManager() *RelayManager {
	return &RelayManager{
		relays: make(map[StreamKey]*Relay),
	}
}

// StartRelay creates a Relay for the streamer's track and starts its loop.
// An existing relay for the key is replaced.
func (m *RelayManager) StartRelay(ctx context.Context, src StreamKey, track *webrtc.TrackRemote) {
	logger := log.With().
		Str("module", "sfu.relay").
		Str("src", src.String()).
		Logger()

	relayCtx, cancel := context.WithCancel(ctx)
	relay := NewRelay(track, cancel)

	m.mu.Lock()
	if old, ok := m.relays[src]; ok {
		logger.Info().Msg("replacing existing relay")
		old.markAllDelete()
		if old.cancel != nil {
			old.cancel()
		}
	}
	m.relays[src] = relay
	m.mu.Unlock()

	logger.Info().Msg("starting relay loop")

	go relay.loop(relayCtx, &logger)
}

// Subscribe attaches dst's transport handle to the relay of src. A missing
// relay is a no-op: the viewer opted in before (or after) the stream lived.
func (m *RelayManager) Subscribe(src, dst StreamKey, mc core.MediaConnection) {
	m.mu.RLock()
	relay, ok := m.relays[src]
	m.mu.RUnlock()
	if !ok {
		return
	}

	remote := relay.Src
	local, err := webrtc.NewTrackLocalStaticRTP(remote.Codec().RTPCodecCapability, remote.ID(), remote.StreamID())
	if err != nil {
		log.Error().Err(err).Str("module", "sfu.relay").Str("src", src.String()).Str("dst", dst.String()).Msg("new local track")
		return
	}
	sender, err := mc.AddLocalTrack(local)
	if err != nil {
		log.Error().Err(err).Str("module", "sfu.relay").Str("src", src.String()).Str("dst", dst.String()).Msg("add local track")
		return
	}

	// Drain RTCP so the interceptor chain keeps running.
	go func() {
		buf := make([]byte, 1500)
		for {
			if _, _, err := sender.Read(buf); err != nil {
				return
			}
		}
	}()

	relay.AddOutTrack(dst, NewOutTrack(local))
	log.Info().Str("module", "sfu.relay").Str("src", src.String()).Str("dst", dst.String()).Msg("subscribed")
}

// MarkSubscriberDelete marks dst's OutTrack on src's relay for removal.
func (m *RelayManager) MarkSubscriberDelete(src, dst StreamKey) {
	m.mu.RLock()
	relay, ok := m.relays[src]
	m.mu.RUnlock()
	if !ok {
		return
	}

	relay.mu.RLock()
	ot, ok := relay.outTracks[dst]
	relay.mu.RUnlock()
	if !ok {
		return
	}
	ot.MarkDelete()
}

// StopRelay stops a relay and removes it from the manager.
func (m *RelayManager) StopRelay(src StreamKey) {
	m.mu.Lock()
	relay, ok := m.relays[src]
	if ok {
		delete(m.relays, src)
	}
	m.mu.Unlock()
	if !ok {
		return
	}
	relay.markAllDelete()
	if relay.cancel != nil {
		relay.cancel()
	}
}

// HasRelay reports whether a relay exists for the key.
func (m *RelayManager) HasRelay(src StreamKey) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.relays[src]
	return ok
}
