// Package transport covers a host responsibility the sync state
// machine leaves unspecified: a datagram channel preserving message
// boundaries between two peers. It is specified here as a concrete
// package, generalized from babble's net package, because a module
// that cannot run cannot be exercised end-to-end.
package transport

// Envelope is one inbound encoded sync message, tagged with the
// address (or peer identifier) it arrived from.
type Envelope struct {
	From    string
	Payload []byte
}

// Transport lets an Engine exchange encoded sync messages with peers
// without caring whether the underlying channel is TCP or a WebRTC
// data channel.
type Transport interface {
	// Listen starts accepting inbound connections in the background.
	Listen()

	// Consumer returns the channel inbound envelopes arrive on.
	Consumer() <-chan Envelope

	// LocalAddr returns the address this transport is bound to.
	LocalAddr() string

	// AdvertiseAddr returns the address other peers should dial.
	AdvertiseAddr() string

	// Send delivers payload (an encoded sync message) to target.
	Send(target string, payload []byte) error

	// Close releases any resources the transport holds.
	Close() error
}
