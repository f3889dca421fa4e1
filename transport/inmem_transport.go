package transport

import (
	"crypto/rand"
	"fmt"
	"sync"
)

// NewInmemAddr returns a random address suitable for an InmemTransport,
// generalized from babble's net.NewInmemAddr.
func NewInmemAddr() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Errorf("failed to read random bytes: %v", err))
	}
	return fmt.Sprintf("%08x-%04x-%04x-%04x-%12x",
		buf[0:4], buf[4:6], buf[6:8], buf[8:10], buf[10:16])
}

// InmemTransport implements Transport by routing Envelopes directly
// between connected peers in the same process, generalized from
// babble's net.InmemTransport: this module's Transport has no
// request/response RPCs, only one-way encoded messages, so Send simply
// drops an Envelope on the target's consumer channel instead of
// babble's makeRPC/respCh round trip.
type InmemTransport struct {
	sync.RWMutex
	consumerCh chan Envelope
	localAddr  string
	peers      map[string]*InmemTransport
}

// NewInmemTransport initializes a new InmemTransport, generating a
// random local address if addr is empty.
func NewInmemTransport(addr string) (string, *InmemTransport) {
	if addr == "" {
		addr = NewInmemAddr()
	}
	return addr, &InmemTransport{
		consumerCh: make(chan Envelope, 16),
		localAddr:  addr,
		peers:      make(map[string]*InmemTransport),
	}
}

// Listen implements Transport. There is no background accept loop to
// start, since Send delivers directly to the target's channel.
func (i *InmemTransport) Listen() {}

// Consumer implements Transport.
func (i *InmemTransport) Consumer() <-chan Envelope {
	return i.consumerCh
}

// LocalAddr implements Transport.
func (i *InmemTransport) LocalAddr() string {
	return i.localAddr
}

// AdvertiseAddr implements Transport.
func (i *InmemTransport) AdvertiseAddr() string {
	return i.localAddr
}

// Send implements Transport by delivering payload directly to
// target's consumer channel, tagged with this transport's own address.
func (i *InmemTransport) Send(target string, payload []byte) error {
	i.RLock()
	peer, ok := i.peers[target]
	i.RUnlock()

	if !ok {
		return fmt.Errorf("transport: no route to peer %q", target)
	}

	peer.consumerCh <- Envelope{From: i.localAddr, Payload: payload}
	return nil
}

// Connect routes this transport's Sends to target's address through
// to, for local testing without a real network.
func (i *InmemTransport) Connect(target string, to *InmemTransport) {
	i.Lock()
	defer i.Unlock()
	i.peers[target] = to
}

// Disconnect removes the route to target.
func (i *InmemTransport) Disconnect(target string) {
	i.Lock()
	defer i.Unlock()
	delete(i.peers, target)
}

// Close implements Transport by dropping all routes.
func (i *InmemTransport) Close() error {
	i.Lock()
	defer i.Unlock()
	i.peers = make(map[string]*InmemTransport)
	return nil
}
