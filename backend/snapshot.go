package backend

import (
	"bytes"
	"context"
	"crypto/sha256"
	"sort"

	"github.com/ugorji/go/codec"

	"github.com/mosaicnetworks/dagsync/change"
	"github.com/mosaicnetworks/dagsync/hash"
)

// snapshotEntry is the canonical, codec-encoded shape of one change's
// metadata within a Snapshot. Field order here is irrelevant to the
// digest since JsonHandle.Canonical sorts map/struct keys, the same
// property hashgraph/frame.go relies on when hashing a Frame.
type snapshotEntry struct {
	Hash string   `json:"hash"`
	Deps []string `json:"deps"`
}

// Snapshot is a deterministic description of everything a Backend
// holds, suitable for the inspect command and for comparing two
// backends for convergence in tests.
type Snapshot struct {
	Heads   []string        `json:"heads"`
	Changes []snapshotEntry `json:"changes"`
}

// BuildSnapshot reads every change and the current heads out of b and
// arranges them into a canonical form: heads and changes both sorted by
// hash, and each change's deps sorted by hash.
func BuildSnapshot(ctx context.Context, b Backend) (*Snapshot, error) {
	heads, err := b.Heads(ctx)
	if err != nil {
		return nil, err
	}

	blobs, err := b.GetMissingChanges(ctx, nil)
	if err != nil {
		return nil, err
	}

	entries := make([]snapshotEntry, 0, len(blobs))
	for _, blob := range blobs {
		meta, err := change.DecodeMeta(blob)
		if err != nil {
			return nil, err
		}
		deps := make([]string, 0, len(meta.Deps))
		for _, d := range meta.Deps {
			deps = append(deps, d.String())
		}
		sort.Strings(deps)
		entries = append(entries, snapshotEntry{Hash: meta.Hash.String(), Deps: deps})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Hash < entries[j].Hash })

	headStrs := make([]string, 0, len(heads))
	for _, h := range heads {
		headStrs = append(headStrs, h.String())
	}
	sort.Strings(headStrs)

	return &Snapshot{Heads: headStrs, Changes: entries}, nil
}

// Marshal renders the snapshot as canonical JSON, the same
// codec.JsonHandle{Canonical: true} + codec.NewEncoder pattern
// hashgraph/frame.go and hashgraph/roundInfo.go use to get a
// reproducible byte encoding for hashing.
func (s *Snapshot) Marshal() ([]byte, error) {
	buf := new(bytes.Buffer)
	jh := new(codec.JsonHandle)
	jh.Canonical = true
	enc := codec.NewEncoder(buf, jh)

	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal populates s from canonical JSON produced by Marshal.
func (s *Snapshot) Unmarshal(data []byte) error {
	buf := bytes.NewBuffer(data)
	jh := new(codec.JsonHandle)
	jh.Canonical = true
	dec := codec.NewDecoder(buf, jh)

	return dec.Decode(s)
}

// Digest returns the sha256 of the snapshot's canonical encoding, a
// stable fingerprint two converged backends must share.
func (s *Snapshot) Digest() (hash.Hash, error) {
	b, err := s.Marshal()
	if err != nil {
		return hash.Hash{}, err
	}
	return sha256.Sum256(b), nil
}
