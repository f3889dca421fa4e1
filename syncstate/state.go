// Package syncstate implements the sync state machine: the two pure
// transitions a host application calls to produce an outgoing message
// or fold in an incoming one, plus the per-remote-peer state they
// thread through.
//
// Both Generate and Receive are strictly single-threaded and
// non-suspending: they compute to completion without yielding, touch
// no timers, and perform no I/O beyond the Backend calls the caller
// already expects. A caller that shares a Backend across peers, or
// drives one peer's state from more than one goroutine, is responsible
// for its own mutual exclusion.
package syncstate

import (
	"github.com/mosaicnetworks/dagsync/change"
	"github.com/mosaicnetworks/dagsync/hash"
	"github.com/mosaicnetworks/dagsync/wire"
)

// PeerState is the sync state a host keeps per remote peer.
//
// Have and TheirNeed distinguish "never received a message from this
// peer" from "received a message whose have/need list happened to be
// empty" by nil-ness: decoding a wire message always yields a non-nil
// (possibly zero-length) slice for both fields, so a nil value here can
// only mean no message has arrived yet. New and FromPersisted both
// start these fields at nil.
type PeerState struct {
	SharedHeads      []hash.Hash
	LastSentHeads    []hash.Hash
	TheirHeads       []hash.Hash
	TheirNeed        []hash.Hash
	OurNeed          []hash.Hash
	Have             []wire.HaveEntry
	UnappliedChanges []change.Blob
	SentChanges      []change.Blob
}

// New returns the empty sync state a host starts with for a peer it
// has never exchanged messages with.
func New() *PeerState {
	return &PeerState{}
}

// FromPersisted reconstructs a sync state from its persisted bytes:
// sharedHeads restored, every ephemeral field at its empty default.
func FromPersisted(p *wire.PersistedState) *PeerState {
	return &PeerState{SharedHeads: p.SharedHeads}
}

// ToPersisted extracts the subset of s that survives a restart.
func ToPersisted(s *PeerState) *wire.PersistedState {
	return &wire.PersistedState{SharedHeads: s.SharedHeads}
}

// advanceHeads folds newly-applied changes into the shared-heads set:
// heads newly produced by applying received changes are shared by
// construction; old shared heads not displaced by those changes remain
// shared.
func advanceHeads(myOldHeads, myNewHeads, ourOldSharedHeads []hash.Hash) []hash.Hash {
	newHeads := hash.SortedDifference(myNewHeads, myOldHeads)
	commonHeads := hash.SortedIntersect(ourOldSharedHeads, myNewHeads)
	return hash.SortedUnion(newHeads, commonHeads)
}
