package transport

import (
	"net"
	"time"
)

// StreamLayer is the low-level stream abstraction TCPTransport is
// built on, generalized from babble's net.StreamLayer.
type StreamLayer interface {
	net.Listener

	// Dial creates a new outgoing connection to address.
	Dial(address string, timeout time.Duration) (net.Conn, error)

	// AdvertiseAddr returns the publicly-reachable address of the
	// stream.
	AdvertiseAddr() string
}
