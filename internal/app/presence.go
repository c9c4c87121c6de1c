package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/snacka/voice/internal/domain"
)

// ConnectionPresenceTracker keeps the bidirectional connectionId <-> userId
// mapping every relay resolves at call time. One active connection per user:
// a second Register for the same user silently replaces the old mapping.
// A single mutex covers both maps; this is not a hot path.
type ConnectionPresenceTracker struct {
	mu     sync.RWMutex
	byConn map[domain.ConnectionID]domain.UserID
	byUser map[domain.UserID]domain.ConnectionID
}

func NewConnectionPresenceTracker() *ConnectionPresenceTracker {
	return &ConnectionPresenceTracker{
		byConn: make(map[domain.ConnectionID]domain.UserID),
		byUser: make(map[domain.UserID]domain.ConnectionID),
	}
}

// Register sets both directions. Reconnect without a clean disconnect
// overwrites: the previous connection id stops resolving.
func (t *ConnectionPresenceTracker) Register(conn domain.ConnectionID, user domain.UserID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if old, ok := t.byUser[user]; ok && old != conn {
		delete(t.byConn, old)
		log.Info().Str("module", "app.presence").Str("user", string(user)).Str("old_conn", string(old)).Msg("replacing stale connection")
	}
	t.byConn[conn] = user
	t.byUser[user] = conn
}

// Unregister removes both directions and reports the user the connection
// mapped to. Unknown connection ids are a no-op. A connection that was
// already replaced does not unmap the user's current connection.
func (t *ConnectionPresenceTracker) Unregister(conn domain.ConnectionID) (domain.UserID, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	user, ok := t.byConn[conn]
	if !ok {
		return "", false
	}
	delete(t.byConn, conn)
	if cur, ok := t.byUser[user]; ok && cur == conn {
		delete(t.byUser, user)
	}
	return user, true
}

func (t *ConnectionPresenceTracker) ResolveConnection(user domain.UserID) (domain.ConnectionID, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	conn, ok := t.byUser[user]
	return conn, ok
}

func (t *ConnectionPresenceTracker) ResolveUser(conn domain.ConnectionID) (domain.UserID, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	user, ok := t.byConn[conn]
	return user, ok
}
