// Package selector implements the change-selection algorithm: given a
// peer's have/need, compute the dependency-closed set of changes to
// transmit.
package selector

import (
	"context"

	"github.com/mosaicnetworks/dagsync/backend"
	"github.com/mosaicnetworks/dagsync/bloom"
	"github.com/mosaicnetworks/dagsync/change"
	"github.com/mosaicnetworks/dagsync/hash"
)

// Have mirrors wire.HaveEntry without importing the wire package, to
// keep selector's dependency surface small.
type Have struct {
	LastSync []hash.Hash
	Bloom    *bloom.Filter
}

// Select computes the ordered list of change blobs to send to a peer
// that reported have and need.
func Select(ctx context.Context, b backend.Backend, have []Have, need []hash.Hash) ([]change.Blob, error) {
	// Step 1: fast path.
	if len(have) == 0 {
		return fastPathNeed(ctx, b, need)
	}

	// Step 2: union of lastSync hashes, and the local changes not
	// reachable from that frontier, in store order.
	var frontier []hash.Hash
	for _, h := range have {
		frontier = append(frontier, h.LastSync...)
	}
	frontier = hash.SortedUnion(frontier, nil)

	candidateBlobs, err := b.GetMissingChanges(ctx, frontier)
	if err != nil {
		return nil, err
	}

	type candidate struct {
		h    hash.Hash
		blob change.Blob
		deps []hash.Hash
	}
	C := make([]candidate, 0, len(candidateBlobs))
	H := make(map[hash.Hash]struct{}, len(candidateBlobs))
	dependents := make(map[hash.Hash][]hash.Hash)

	for _, blob := range candidateBlobs {
		meta, err := change.DecodeMeta(blob)
		if err != nil {
			return nil, err
		}
		C = append(C, candidate{h: meta.Hash, blob: blob, deps: meta.Deps})
		H[meta.Hash] = struct{}{}
		for _, d := range meta.Deps {
			dependents[d] = append(dependents[d], meta.Hash)
		}
	}

	// Step 4: Bloom-negative candidates — every have entry must report
	// the hash absent.
	S := make(map[hash.Hash]struct{})
	for _, c := range C {
		absentEverywhere := true
		for _, h := range have {
			if h.Bloom != nil && h.Bloom.Contains(c.h) {
				absentEverywhere = false
				break
			}
		}
		if absentEverywhere {
			S[c.h] = struct{}{}
		}
	}

	// Step 5: dependency closure over dependents.
	frontierQueue := make([]hash.Hash, 0, len(S))
	for h := range S {
		frontierQueue = append(frontierQueue, h)
	}
	for len(frontierQueue) > 0 {
		h := frontierQueue[len(frontierQueue)-1]
		frontierQueue = frontierQueue[:len(frontierQueue)-1]
		for _, dep := range dependents[h] {
			if _, already := S[dep]; !already {
				S[dep] = struct{}{}
				frontierQueue = append(frontierQueue, dep)
			}
		}
	}

	// Step 6: explicit need outside the post-frontier set H.
	var out []change.Blob
	emitted := make(map[hash.Hash]struct{})
	for _, h := range need {
		if _, inFrontier := H[h]; inFrontier {
			continue
		}
		blob, ok, err := b.GetChangeByHash(ctx, h)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if _, done := emitted[h]; done {
			continue
		}
		emitted[h] = struct{}{}
		out = append(out, blob)
	}

	// Step 7: emit candidates in C in store order whose hash is in S.
	for _, c := range C {
		if _, in := S[c.h]; !in {
			continue
		}
		if _, done := emitted[c.h]; done {
			continue
		}
		emitted[c.h] = struct{}{}
		out = append(out, c.blob)
	}

	return out, nil
}

// fastPathNeed returns exactly the changes named by need, in order,
// dropping any not found locally.
func fastPathNeed(ctx context.Context, b backend.Backend, need []hash.Hash) ([]change.Blob, error) {
	out := make([]change.Blob, 0, len(need))
	for _, h := range need {
		blob, ok, err := b.GetChangeByHash(ctx, h)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		out = append(out, blob)
	}
	return out, nil
}
