package app

import "github.com/snacka/voice/internal/domain"

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	DropMessage
	KickConnection
)

// Policy decides what the bridge does with a connection whose send queue is
// full.
type Policy interface {
	OnBackpressure(conn domain.ConnectionID) BackpressureAction
}

// SimplePolicy drops the frame. Signaling loss is recovered by the client
// re-requesting state, so dropping beats disconnecting.
type SimplePolicy struct{}

func (SimplePolicy) OnBackpressure(domain.ConnectionID) BackpressureAction {
	return DropMessage
}

// KickPolicy disconnects slow consumers instead.
type KickPolicy struct{}

func (KickPolicy) OnBackpressure(domain.ConnectionID) BackpressureAction {
	return KickConnection
}
