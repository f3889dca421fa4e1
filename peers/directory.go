package peers

import (
	"sort"
	"sync"
)

// Directory is the in-memory set of peers a node currently knows
// about, generalized from babble's peers.Peers (which itself
// duplicated peers.PeerSet with mutex protection instead of
// copy-on-write; this module keeps the mutex-protected shape and drops
// the copy-on-write one, since a sync Engine mutates its directory in
// place as peers come and go).
type Directory struct {
	sync.RWMutex
	sorted   []*Peer
	byPubKey map[string]*Peer
	byID     map[uint32]*Peer
}

// NewDirectory returns an empty Directory.
func NewDirectory() *Directory {
	return &Directory{
		byPubKey: make(map[string]*Peer),
		byID:     make(map[uint32]*Peer),
	}
}

// NewDirectoryFromSlice builds a Directory pre-populated with peers.
func NewDirectoryFromSlice(source []*Peer) *Directory {
	d := NewDirectory()
	for _, p := range source {
		d.addRaw(p)
	}
	d.resort()
	return d
}

func (d *Directory) addRaw(p *Peer) {
	if p.ID == 0 {
		p.computeID()
	}
	d.byPubKey[p.PubKeyHex] = p
	d.byID[p.ID] = p
}

func (d *Directory) resort() {
	res := make([]*Peer, 0, len(d.byPubKey))
	for _, p := range d.byPubKey {
		res = append(res, p)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	d.sorted = res
}

// Add inserts or replaces a peer.
func (d *Directory) Add(p *Peer) {
	d.Lock()
	defer d.Unlock()
	d.addRaw(p)
	d.resort()
}

// Remove drops a peer by address.
func (d *Directory) Remove(addr string) {
	d.Lock()
	defer d.Unlock()

	var target *Peer
	for _, p := range d.byPubKey {
		if p.Addr == addr {
			target = p
			break
		}
	}
	if target == nil {
		return
	}
	delete(d.byPubKey, target.PubKeyHex)
	delete(d.byID, target.ID)
	d.resort()
}

// ByAddr looks up a peer by its network address.
func (d *Directory) ByAddr(addr string) (*Peer, bool) {
	d.RLock()
	defer d.RUnlock()
	for _, p := range d.sorted {
		if p.Addr == addr {
			return p, true
		}
	}
	return nil, false
}

// ToSlice returns the peers in ID order.
func (d *Directory) ToSlice() []*Peer {
	d.RLock()
	defer d.RUnlock()
	out := make([]*Peer, len(d.sorted))
	copy(out, d.sorted)
	return out
}

// Len returns the number of peers known.
func (d *Directory) Len() int {
	d.RLock()
	defer d.RUnlock()
	return len(d.byPubKey)
}
