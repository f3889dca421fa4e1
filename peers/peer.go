// Package peers is the peer directory this module needs because
// Per-peer sync state is kept *per remote peer*: something has to name
// peers and persist their SharedHeads. Generalized from babble's
// peers.Peer / peers.PeerSet / peers.JSONPeerSet, with the
// consensus-specific notions (SuperMajority, TrustCount, validator
// hashing) dropped since a two-peer sync relationship has no quorum.
package peers

import (
	"encoding/hex"
	"strings"

	"github.com/mosaicnetworks/dagsync/common"
)

// Peer identifies one remote participant in the sync protocol: an
// address to reach it at, and the hex-encoded public key that names it.
type Peer struct {
	ID        uint32 `json:"-"`
	Addr      string `json:"addr"`
	PubKeyHex string `json:"pub_key"`
}

// NewPeer builds a Peer and derives its ID from the public key.
func NewPeer(pubKeyHex, addr string) *Peer {
	p := &Peer{
		PubKeyHex: pubKeyHex,
		Addr:      addr,
	}
	p.computeID()
	return p
}

// PubKeyBytes decodes the "0x"-prefixed hex public key into raw bytes.
func (p *Peer) PubKeyBytes() ([]byte, error) {
	return hex.DecodeString(strings.TrimPrefix(p.PubKeyHex, "0x"))
}

func (p *Peer) computeID() error {
	pubKey, err := p.PubKeyBytes()
	if err != nil {
		return err
	}
	p.ID = common.Hash32(pubKey)
	return nil
}

// ExcludePeer removes the peer addressed by addr from peers, returning
// its former index (or -1) and the remaining slice.
func ExcludePeer(peers []*Peer, addr string) (int, []*Peer) {
	index := -1
	others := make([]*Peer, 0, len(peers))
	for i, p := range peers {
		if p.Addr != addr {
			others = append(others, p)
		} else {
			index = i
		}
	}
	return index, others
}
