package core

import "errors"

// ErrBackpressure is returned by TrySend when the connection's send queue is
// full. The caller decides whether to drop or disconnect.
var ErrBackpressure = errors.New("backpressure")

// Frame is a raw binary payload.
type Frame []byte

// SignalConnection abstracts for a system messaging transport.
// Owned by the adapter; the adapter must Close() it. A single connection
// delivers frames in TrySend call order (one writer drains the queue).
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}
