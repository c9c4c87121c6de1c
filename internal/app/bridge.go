package app

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/snacka/voice/internal/core"
	"github.com/snacka/voice/internal/domain"
)

// SignalingBridge maps connection ids to live transport endpoints and
// delivers messages to users and logical groups. User ids are resolved
// through the presence tracker at send time, never earlier: a handle cached
// across an await could point at a dead or reused connection.
//
// Per-connection ordering is the transport's job: each SignalConnection
// drains its queue from a single writer, so relays in call order arrive in
// call order.
type SignalingBridge struct {
	presence *ConnectionPresenceTracker
	policy   Policy

	mu     sync.RWMutex
	conns  map[domain.ConnectionID]core.SignalConnection
	groups map[string]map[domain.ConnectionID]struct{}
}

func NewSignalingBridge(presence *ConnectionPresenceTracker, policy Policy) *SignalingBridge {
	return &SignalingBridge{
		presence: presence,
		policy:   policy,
		conns:    make(map[domain.ConnectionID]core.SignalConnection),
		groups:   make(map[string]map[domain.ConnectionID]struct{}),
	}
}

// Attach binds a transport endpoint to its connection id.
func (b *SignalingBridge) Attach(conn domain.ConnectionID, sc core.SignalConnection) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.conns[conn] = sc
}

// Detach drops the endpoint and its group memberships. The adapter owns the
// endpoint and closes it; the bridge only forgets it.
func (b *SignalingBridge) Detach(conn domain.ConnectionID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.conns, conn)
	for key, set := range b.groups {
		delete(set, conn)
		if len(set) == 0 {
			delete(b.groups, key)
		}
	}
}

func (b *SignalingBridge) JoinGroup(key string, conn domain.ConnectionID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	set, ok := b.groups[key]
	if !ok {
		set = make(map[domain.ConnectionID]struct{})
		b.groups[key] = set
	}
	set[conn] = struct{}{}
}

func (b *SignalingBridge) LeaveGroup(key string, conn domain.ConnectionID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	set, ok := b.groups[key]
	if !ok {
		return
	}
	delete(set, conn)
	if len(set) == 0 {
		delete(b.groups, key)
	}
}

// RelayToUser delivers v to the user's current connection. An unresolved
// user is the normal disconnect race and silently drops the message.
func (b *SignalingBridge) RelayToUser(user domain.UserID, v any) {
	conn, ok := b.presence.ResolveConnection(user)
	if !ok {
		log.Debug().Str("module", "app.bridge").Str("user", string(user)).Msg("relay dropped, user offline")
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app.bridge").Msg("relay marshal")
		return
	}
	b.deliver(conn, data)
}

// RelayToGroup delivers v to every connection in the group, optionally
// excluding one user. Membership changing mid-broadcast is tolerated;
// delivery is best effort against the snapshot taken here.
func (b *SignalingBridge) RelayToGroup(key string, v any, exclude ...domain.UserID) {
	var skip domain.ConnectionID
	if len(exclude) > 0 {
		if conn, ok := b.presence.ResolveConnection(exclude[0]); ok {
			skip = conn
		}
	}

	b.mu.RLock()
	members := make([]domain.ConnectionID, 0, len(b.groups[key]))
	for conn := range b.groups[key] {
		if conn == skip && skip != "" {
			continue
		}
		members = append(members, conn)
	}
	b.mu.RUnlock()

	if len(members) == 0 {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app.bridge").Msg("group relay marshal")
		return
	}
	for _, conn := range members {
		b.deliver(conn, data)
	}
}

func (b *SignalingBridge) deliver(conn domain.ConnectionID, data core.Frame) {
	b.mu.RLock()
	sc, ok := b.conns[conn]
	b.mu.RUnlock()
	if !ok {
		log.Debug().Str("module", "app.bridge").Str("conn", string(conn)).Msg("relay dropped, connection gone")
		return
	}
	err := sc.TrySend(data)
	if err == nil {
		return
	}
	if !errors.Is(err, core.ErrBackpressure) {
		log.Debug().Err(err).Str("module", "app.bridge").Str("conn", string(conn)).Msg("relay send failed")
		return
	}
	switch b.policy.OnBackpressure(conn) {
	case KickConnection:
		log.Warn().Str("module", "app.bridge").Str("conn", string(conn)).Msg("slow consumer, closing connection")
		sc.Close()
	case DropMessage, NoAction:
		log.Warn().Str("module", "app.bridge").Str("conn", string(conn)).Msg("backpressure, frame dropped")
	}
}
