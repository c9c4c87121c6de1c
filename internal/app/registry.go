package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/snacka/voice/internal/core"
	"github.com/snacka/voice/internal/domain"
)

// SessionKey identifies the one session a user may hold in a channel.
type SessionKey struct {
	Channel domain.ChannelID
	User    domain.UserID
}

func (k SessionKey) String() string {
	return fmt.Sprintf("%s/%s", k.Channel, k.User)
}

// regEntry collapses concurrent creation for one key to a single init.
type regEntry struct {
	once sync.Once
	sess *Session
	err  error
}

// SessionRegistry owns the (channel, user) -> Session map. Creation is
// idempotent and atomic per key; teardown also clears the fan-out entries the
// user was streaming.
type SessionRegistry struct {
	engine core.MediaEngine
	fanout *ScreenShareFanout
	sink   CandidateSink

	mu      sync.Mutex
	entries map[SessionKey]*regEntry
}

func NewSessionRegistry(engine core.MediaEngine, fanout *ScreenShareFanout, sink CandidateSink) *SessionRegistry {
	return &SessionRegistry{
		engine:  engine,
		fanout:  fanout,
		sink:    sink,
		entries: make(map[SessionKey]*regEntry),
	}
}

// GetOrCreate returns the live session for the key, creating and registering
// one when absent. Concurrent calls for the same key all observe the same
// session. A failed transport init leaves the map without the key.
func (r *SessionRegistry) GetOrCreate(ctx context.Context, channel domain.ChannelID, user domain.UserID) (*Session, error) {
	key := SessionKey{Channel: channel, User: user}

	r.mu.Lock()
	e, ok := r.entries[key]
	if !ok {
		e = &regEntry{}
		r.entries[key] = e
	}
	r.mu.Unlock()

	e.once.Do(func() {
		mc, err := r.engine.NewConnection(ctx, key.String())
		if err != nil {
			e.err = fmt.Errorf("init transport for %s: %w", key, err)
			return
		}
		e.sess = NewSession(channel, user, mc, r.sink)
		log.Info().Str("module", "app.registry").Str("channel", string(channel)).Str("user", string(user)).Msg("session created")
	})
	if e.err != nil {
		r.mu.Lock()
		if cur, ok := r.entries[key]; ok && cur == e {
			delete(r.entries, key)
		}
		r.mu.Unlock()
		return nil, e.err
	}
	return e.sess, nil
}

// Get is the non-creating lookup used on the relay paths.
func (r *SessionRegistry) Get(channel domain.ChannelID, user domain.UserID) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[SessionKey{Channel: channel, User: user}]
	if !ok || e.sess == nil {
		return nil, false
	}
	return e.sess, true
}

// Remove tears down the session and drops the user's streamer fan-out entry
// in that channel. Removing an absent key is a no-op.
func (r *SessionRegistry) Remove(channel domain.ChannelID, user domain.UserID) {
	key := SessionKey{Channel: channel, User: user}

	r.mu.Lock()
	e, ok := r.entries[key]
	if ok {
		delete(r.entries, key)
	}
	r.mu.Unlock()

	if r.fanout != nil {
		r.fanout.ClearViewers(channel, user)
	}
	if !ok || e.sess == nil {
		return
	}
	e.sess.Close()
	log.Info().Str("module", "app.registry").Str("channel", string(channel)).Str("user", string(user)).Msg("session removed")
}

// RemoveUser tears down every session the user holds, across channels.
// Driven by the disconnect path.
func (r *SessionRegistry) RemoveUser(user domain.UserID) {
	r.mu.Lock()
	keys := make([]SessionKey, 0, 1)
	for key := range r.entries {
		if key.User == user {
			keys = append(keys, key)
		}
	}
	r.mu.Unlock()

	for _, key := range keys {
		r.Remove(key.Channel, key.User)
	}
}

// Participants returns the users with a live session in the channel.
func (r *SessionRegistry) Participants(channel domain.ChannelID) []domain.UserID {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.UserID, 0, len(r.entries))
	for key, e := range r.entries {
		if key.Channel == channel && e.sess != nil {
			out = append(out, key.User)
		}
	}
	return out
}

// CloseAll drains the registry on shutdown.
func (r *SessionRegistry) CloseAll() {
	r.mu.Lock()
	keys := make([]SessionKey, 0, len(r.entries))
	for key := range r.entries {
		keys = append(keys, key)
	}
	r.mu.Unlock()

	for _, key := range keys {
		r.Remove(key.Channel, key.User)
	}
}
