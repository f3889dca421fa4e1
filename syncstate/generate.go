package syncstate

import (
	"context"

	"github.com/mosaicnetworks/dagsync/backend"
	"github.com/mosaicnetworks/dagsync/bloom"
	"github.com/mosaicnetworks/dagsync/change"
	"github.com/mosaicnetworks/dagsync/dedup"
	"github.com/mosaicnetworks/dagsync/hash"
	"github.com/mosaicnetworks/dagsync/selector"
	"github.com/mosaicnetworks/dagsync/wire"
)

// Generate takes the current state (or an empty one) and a Backend
// and produces the next outgoing message, or none if nothing needs to
// cross the wire.
func Generate(ctx context.Context, s *PeerState, b backend.Backend) (*PeerState, []byte, error) {
	if s == nil {
		s = New()
	}

	ourHeads, err := b.Heads(ctx)
	if err != nil {
		return s, nil, err
	}
	hash.Sort(ourHeads)

	// Step 3: reset detection. If the peer's most recently reported
	// have references a lastSync hash we don't hold, we cannot
	// possibly serve it; tell the peer to start over and leave our
	// state untouched.
	if peerHistoryUnknown(ctx, b, s.Have) {
		resetMsg := &wire.Message{
			Heads: ourHeads,
			Need:  nil,
			Have:  []wire.HaveEntry{{LastSync: nil, Bloom: bloom.Empty()}},
		}
		encoded, err := wire.EncodeMessage(resetMsg)
		if err != nil {
			return s, nil, err
		}
		return s, encoded, nil
	}

	// Step 2: have construction. Only solicit more from the peer when
	// we are not purely waiting on missing dependencies.
	var outHave []wire.HaveEntry
	if len(s.OurNeed) == 0 || hash.SubsetOf(s.OurNeed, s.TheirHeads) {
		notReachable, err := b.GetMissingChanges(ctx, s.SharedHeads)
		if err != nil {
			return s, nil, err
		}
		hashes := make([]hash.Hash, 0, len(notReachable))
		for _, blob := range notReachable {
			meta, err := change.DecodeMeta(blob)
			if err != nil {
				return s, nil, err
			}
			hashes = append(hashes, meta.Hash)
		}
		outHave = []wire.HaveEntry{{LastSync: s.SharedHeads, Bloom: bloom.New(hashes)}}
	}

	// Step 4: change computation. Have and TheirNeed are nil only
	// before any message has been received from this peer.
	var changesToSend []change.Blob
	if s.Have != nil && s.TheirNeed != nil {
		changesToSend, err = selector.Select(ctx, b, toSelectorHave(s.Have), s.TheirNeed)
		if err != nil {
			return s, nil, err
		}
	}

	// Step 5: convergence short-circuit. TheirHeads is nil only before
	// any message has arrived from this peer; until then "ourHeads ==
	// theirHeads" cannot be evaluated as true even when both are
	// empty, or a freshly-discovered empty peer would short-circuit
	// before ever announcing itself.
	if s.TheirHeads != nil &&
		hash.Equal(ourHeads, s.LastSentHeads) &&
		hash.Equal(ourHeads, s.TheirHeads) &&
		len(changesToSend) == 0 &&
		len(s.OurNeed) == 0 {
		return s, nil, nil
	}

	// Step 6: dedup against sentChanges.
	if len(changesToSend) > 0 && len(s.SentChanges) > 0 {
		changesToSend, err = dedup.Filter(changesToSend, s.SentChanges)
		if err != nil {
			return s, nil, err
		}
	}

	msg := &wire.Message{
		Heads:   ourHeads,
		Need:    s.OurNeed,
		Have:    outHave,
		Changes: changesToSend,
	}
	encoded, err := wire.EncodeMessage(msg)
	if err != nil {
		return s, nil, err
	}

	newSentChanges := make([]change.Blob, 0, len(s.SentChanges)+len(changesToSend))
	newSentChanges = append(newSentChanges, s.SentChanges...)
	newSentChanges = append(newSentChanges, changesToSend...)

	newState := &PeerState{
		SharedHeads:      s.SharedHeads,
		LastSentHeads:    ourHeads,
		TheirHeads:       s.TheirHeads,
		TheirNeed:        s.TheirNeed,
		OurNeed:          s.OurNeed,
		Have:             s.Have,
		UnappliedChanges: s.UnappliedChanges,
		SentChanges:      newSentChanges,
	}

	return newState, encoded, nil
}

// peerHistoryUnknown reports whether any lastSync hash in the peer's
// most recently reported have entries is absent from the Backend.
func peerHistoryUnknown(ctx context.Context, b backend.Backend, have []wire.HaveEntry) bool {
	for _, he := range have {
		for _, h := range he.LastSync {
			_, ok, err := b.GetChangeByHash(ctx, h)
			if err != nil || !ok {
				return true
			}
		}
	}
	return false
}

func toSelectorHave(have []wire.HaveEntry) []selector.Have {
	out := make([]selector.Have, len(have))
	for i, he := range have {
		out[i] = selector.Have{LastSync: he.LastSync, Bloom: he.Bloom}
	}
	return out
}
