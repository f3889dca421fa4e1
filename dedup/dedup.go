// Package dedup implements a checksum-bucket deduplication filter:
// given changes already sent to a peer, it strips any candidate that
// was sent before without an O(n·m) full-content comparison.
package dedup

import (
	"bytes"

	"github.com/mosaicnetworks/dagsync/change"
)

// Index buckets previously-sent change blobs by the 32-bit checksum at
// bytes 4-7, so a new candidate can be checked against only the blobs
// sharing its checksum rather than the whole history.
type Index struct {
	buckets map[uint32][]change.Blob
}

// NewIndex builds an Index over sent, the previously-sent-changes
// history a peer's sync state keeps.
func NewIndex(sent []change.Blob) (*Index, error) {
	idx := &Index{buckets: make(map[uint32][]change.Blob, len(sent))}
	for _, blob := range sent {
		cs, err := change.Checksum(blob)
		if err != nil {
			return nil, err
		}
		idx.buckets[cs] = append(idx.buckets[cs], blob)
	}
	return idx, nil
}

// Contains reports whether blob's exact bytes appear in the index.
func (idx *Index) Contains(blob change.Blob) (bool, error) {
	cs, err := change.Checksum(blob)
	if err != nil {
		return false, err
	}
	for _, candidate := range idx.buckets[cs] {
		if bytes.Equal(candidate, blob) {
			return true, nil
		}
	}
	return false, nil
}

// Filter returns candidates with every blob already present in sent
// removed, preserving candidates' relative order.
func Filter(candidates []change.Blob, sent []change.Blob) ([]change.Blob, error) {
	if len(candidates) == 0 || len(sent) == 0 {
		return candidates, nil
	}

	idx, err := NewIndex(sent)
	if err != nil {
		return nil, err
	}

	out := make([]change.Blob, 0, len(candidates))
	for _, c := range candidates {
		dup, err := idx.Contains(c)
		if err != nil {
			return nil, err
		}
		if !dup {
			out = append(out, c)
		}
	}
	return out, nil
}
