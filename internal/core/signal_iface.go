package core

import "errors"

//go:generate go tool mockgen -destination=./mocks/signal_mock.go -package=mocks . SignalConnection

// ErrBackpressure is returned by TrySend when the peer's send buffer is full.
var ErrBackpressure = errors.New("backpressure")

// ErrConnClosed is returned by TrySend after Close.
var ErrConnClosed = errors.New("connection closed")

// Frame is a raw encoded payload.
type Frame []byte

// SignalConnection abstracts for a system messaging transport
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	// TrySend queues f without blocking.
	TrySend(Frame) error
	Close()
}
