package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/snacka/voice/internal/domain"
)

type fanKey struct {
	Channel  domain.ChannelID
	Streamer domain.UserID
}

// ScreenShareFanout tracks who opted in to watch whose screen share. Viewer
// membership is fully decoupled from session lifecycle: every operation on an
// unknown (channel, streamer) pair is a legal no-op.
type ScreenShareFanout struct {
	mu      sync.RWMutex
	viewers map[fanKey]map[domain.UserID]struct{}
}

func NewScreenShareFanout() *ScreenShareFanout {
	return &ScreenShareFanout{viewers: make(map[fanKey]map[domain.UserID]struct{})}
}

// AddViewer opts a viewer in. Idempotent.
func (f *ScreenShareFanout) AddViewer(channel domain.ChannelID, streamer, viewer domain.UserID) {
	key := fanKey{Channel: channel, Streamer: streamer}
	f.mu.Lock()
	defer f.mu.Unlock()
	set, ok := f.viewers[key]
	if !ok {
		set = make(map[domain.UserID]struct{})
		f.viewers[key] = set
	}
	set[viewer] = struct{}{}
	log.Debug().Str("module", "app.fanout").Str("channel", string(channel)).Str("streamer", string(streamer)).Str("viewer", string(viewer)).Msg("viewer added")
}

// RemoveViewer opts a viewer out. Removing an absent viewer is a no-op.
func (f *ScreenShareFanout) RemoveViewer(channel domain.ChannelID, streamer, viewer domain.UserID) {
	key := fanKey{Channel: channel, Streamer: streamer}
	f.mu.Lock()
	defer f.mu.Unlock()
	set, ok := f.viewers[key]
	if !ok {
		return
	}
	delete(set, viewer)
	if len(set) == 0 {
		delete(f.viewers, key)
	}
}

// ClearViewers drops the whole entry when the streamer stops sharing or
// disconnects.
func (f *ScreenShareFanout) ClearViewers(channel domain.ChannelID, streamer domain.UserID) {
	key := fanKey{Channel: channel, Streamer: streamer}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.viewers, key)
}

// RemoveViewerEverywhere drops the user from every viewer set. Driven by the
// disconnect path.
func (f *ScreenShareFanout) RemoveViewerEverywhere(viewer domain.UserID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for key, set := range f.viewers {
		delete(set, viewer)
		if len(set) == 0 {
			delete(f.viewers, key)
		}
	}
}

// Viewers returns a snapshot of the current viewer set.
func (f *ScreenShareFanout) Viewers(channel domain.ChannelID, streamer domain.UserID) []domain.UserID {
	key := fanKey{Channel: channel, Streamer: streamer}
	f.mu.RLock()
	defer f.mu.RUnlock()
	set, ok := f.viewers[key]
	if !ok {
		return nil
	}
	out := make([]domain.UserID, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	return out
}

// IsViewer reports whether viewer opted in to the streamer's share.
func (f *ScreenShareFanout) IsViewer(channel domain.ChannelID, streamer, viewer domain.UserID) bool {
	key := fanKey{Channel: channel, Streamer: streamer}
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.viewers[key][viewer]
	return ok
}
