package app

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snacka/voice/internal/domain"
)

func newTestRegistry(engine *fakeEngine) (*SessionRegistry, *ScreenShareFanout) {
	fanout := NewScreenShareFanout()
	return NewSessionRegistry(engine, fanout, discardSink), fanout
}

func TestGetOrCreateConcurrentCollapses(t *testing.T) {
	engine := &fakeEngine{}
	reg, _ := newTestRegistry(engine)

	const n = 32
	results := make([]*Session, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := reg.GetOrCreate(context.Background(), "ch1", "alice")
			require.NoError(t, err)
			results[i] = s
		}(i)
	}
	wg.Wait()

	// Exactly one session instance and one transport init for the key.
	for i := 1; i < n; i++ {
		assert.Same(t, results[0], results[i])
	}
	assert.Equal(t, 1, engine.callCount())
}

func TestGetOrCreateIsIdempotent(t *testing.T) {
	engine := &fakeEngine{}
	reg, _ := newTestRegistry(engine)

	s1, err := reg.GetOrCreate(context.Background(), "ch1", "alice")
	require.NoError(t, err)
	s2, err := reg.GetOrCreate(context.Background(), "ch1", "alice")
	require.NoError(t, err)
	assert.Same(t, s1, s2)

	// Distinct keys get distinct sessions.
	s3, err := reg.GetOrCreate(context.Background(), "ch2", "alice")
	require.NoError(t, err)
	assert.NotSame(t, s1, s3)
}

func TestGetOrCreateFailureLeavesNoEntry(t *testing.T) {
	engine := &fakeEngine{err: errors.New("no ports")}
	reg, _ := newTestRegistry(engine)

	_, err := reg.GetOrCreate(context.Background(), "ch1", "alice")
	require.Error(t, err)

	_, ok := reg.Get("ch1", "alice")
	assert.False(t, ok, "failed creation must not leave a partial entry")

	// The key is usable again once the engine recovers.
	engine.mu.Lock()
	engine.err = nil
	engine.mu.Unlock()
	s, err := reg.GetOrCreate(context.Background(), "ch1", "alice")
	require.NoError(t, err)
	assert.NotNil(t, s)
}

func TestRemoveTearsDownAndClearsFanout(t *testing.T) {
	engine := &fakeEngine{}
	reg, fanout := newTestRegistry(engine)

	s, err := reg.GetOrCreate(context.Background(), "ch1", "alice")
	require.NoError(t, err)
	fanout.AddViewer("ch1", "alice", "bob")

	reg.Remove("ch1", "alice")

	_, ok := reg.Get("ch1", "alice")
	assert.False(t, ok)
	assert.Equal(t, StateClosed, s.State())
	assert.Empty(t, fanout.Viewers("ch1", "alice"), "streamer fan-out entry must go with the session")

	// Removing an absent key is a no-op.
	reg.Remove("ch1", "alice")
	reg.Remove("nope", "nobody")
}

func TestRemoveUserAcrossChannels(t *testing.T) {
	engine := &fakeEngine{}
	reg, _ := newTestRegistry(engine)

	_, err := reg.GetOrCreate(context.Background(), "ch1", "alice")
	require.NoError(t, err)
	_, err = reg.GetOrCreate(context.Background(), "ch2", "alice")
	require.NoError(t, err)
	_, err = reg.GetOrCreate(context.Background(), "ch1", "bob")
	require.NoError(t, err)

	reg.RemoveUser("alice")

	_, ok := reg.Get("ch1", "alice")
	assert.False(t, ok)
	_, ok = reg.Get("ch2", "alice")
	assert.False(t, ok)
	_, ok = reg.Get("ch1", "bob")
	assert.True(t, ok, "other users' sessions stay")
}

func TestParticipantsSnapshot(t *testing.T) {
	engine := &fakeEngine{}
	reg, _ := newTestRegistry(engine)

	_, err := reg.GetOrCreate(context.Background(), "ch1", "alice")
	require.NoError(t, err)
	_, err = reg.GetOrCreate(context.Background(), "ch1", "bob")
	require.NoError(t, err)
	_, err = reg.GetOrCreate(context.Background(), "ch2", "carol")
	require.NoError(t, err)

	got := reg.Participants("ch1")
	assert.ElementsMatch(t, []domain.UserID{"alice", "bob"}, got)
	assert.Empty(t, reg.Participants("ch3"))
}
