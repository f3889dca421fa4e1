package node

import (
	"math/rand"

	"github.com/mosaicnetworks/dagsync/peers"
)

// PeerSelector picks which peer the Engine's heartbeat should sync
// with next, generalized from babble's node.PeerSelector /
// node.RandomPeerSelector. Engine calls Next() up to SyncFanout times
// per tick rather than babble's once, since contacting an
// already-converged peer is a cheap no-op here and a wider fanout
// converges a peer set faster than one random pick per tick would.
type PeerSelector interface {
	Directory() *peers.Directory
	UpdateLast(addr string)
	Next() *peers.Peer
}

// RandomPeerSelector picks a uniformly random peer, excluding the one
// most recently contacted when more than one candidate is available.
type RandomPeerSelector struct {
	directory *peers.Directory
	selfAddr  string
	last      string
}

// NewRandomPeerSelector returns a RandomPeerSelector over directory,
// excluding selfAddr from its own candidate set.
func NewRandomPeerSelector(directory *peers.Directory, selfAddr string) *RandomPeerSelector {
	return &RandomPeerSelector{directory: directory, selfAddr: selfAddr}
}

// Directory returns the underlying peer directory.
func (ps *RandomPeerSelector) Directory() *peers.Directory {
	return ps.directory
}

// UpdateLast records the most recently contacted peer so the next Next
// call can exclude it.
func (ps *RandomPeerSelector) UpdateLast(addr string) {
	ps.last = addr
}

// Next returns a random candidate peer, or nil if none are available.
func (ps *RandomPeerSelector) Next() *peers.Peer {
	_, candidates := peers.ExcludePeer(ps.directory.ToSlice(), ps.selfAddr)

	if len(candidates) == 0 {
		return nil
	}

	if len(candidates) > 1 {
		_, candidates = peers.ExcludePeer(candidates, ps.last)
	}

	return candidates[rand.Intn(len(candidates))]
}
