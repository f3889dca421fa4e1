package syncstate

import (
	"context"

	"github.com/mosaicnetworks/dagsync/backend"
	"github.com/mosaicnetworks/dagsync/change"
	"github.com/mosaicnetworks/dagsync/hash"
	"github.com/mosaicnetworks/dagsync/wire"
)

// Receive decodes an incoming message, folds it into the Backend and
// the sync state, and returns the resulting state plus whatever patch
// applying changes produced (nil when ApplyChanges was not called this
// round).
func Receive(ctx context.Context, s *PeerState, b backend.Backend, raw []byte) (*PeerState, backend.Patch, error) {
	if s == nil {
		s = New()
	}

	msg, err := wire.DecodeMessage(raw)
	if err != nil {
		return s, nil, err
	}

	beforeHeads, err := b.Heads(ctx)
	if err != nil {
		return s, nil, err
	}
	hash.Sort(beforeHeads)

	unapplied := s.UnappliedChanges
	ourNeed := s.OurNeed
	sharedHeads := s.SharedHeads
	lastSentHeads := s.LastSentHeads
	var patch backend.Patch
	advancedByApply := false

	if len(msg.Changes) > 0 {
		unapplied = make([]change.Blob, 0, len(s.UnappliedChanges)+len(msg.Changes))
		unapplied = append(unapplied, s.UnappliedChanges...)
		unapplied = append(unapplied, msg.Changes...)

		missing, err := b.GetMissingDeps(ctx, unapplied, msg.Heads)
		if err != nil {
			return s, nil, err
		}
		ourNeed = missing

		// The only acceptable "missing" items are the message's own
		// heads: nothing upstream of them is still unresolved.
		if hash.SubsetOf(ourNeed, msg.Heads) {
			p, err := b.ApplyChanges(ctx, unapplied)
			if err != nil {
				return s, nil, err
			}
			patch = p
			unapplied = nil

			afterHeads, err := b.Heads(ctx)
			if err != nil {
				return s, nil, err
			}
			hash.Sort(afterHeads)

			sharedHeads = advanceHeads(beforeHeads, afterHeads, s.SharedHeads)
			advancedByApply = true
		}
	} else if hash.Equal(msg.Heads, beforeHeads) {
		// Idle path: peer is telling us what we already told it;
		// suppress an empty reply on the next generate.
		lastSentHeads = msg.Heads
	}

	// Step 4: shared-head update by coverage. Skipped when the apply
	// path above already advanced sharedHeads, which is the more
	// precise rule for that specific case.
	if !advancedByApply {
		sharedHeads = coverageSharedHeads(ctx, b, msg.Heads, s.SharedHeads)
	}

	newState := &PeerState{
		SharedHeads:      sharedHeads,
		LastSentHeads:    lastSentHeads,
		TheirHeads:       msg.Heads,
		TheirNeed:        msg.Need,
		OurNeed:          ourNeed,
		Have:             msg.Have,
		UnappliedChanges: unapplied,
		SentChanges:      s.SentChanges,
	}

	return newState, patch, nil
}

// coverageSharedHeads handles the case where no changes were applied
// this round: if we already know every hash the peer reports as a head,
// the peer is not ahead of us and those heads are fully shared.
// Otherwise take the conservative union of whichever of the peer's
// heads we do recognize with the existing shared set.
func coverageSharedHeads(ctx context.Context, b backend.Backend, theirHeads, oldSharedHeads []hash.Hash) []hash.Hash {
	known := make([]hash.Hash, 0, len(theirHeads))
	allKnown := true
	for _, h := range theirHeads {
		_, ok, err := b.GetChangeByHash(ctx, h)
		if err != nil || !ok {
			allKnown = false
			continue
		}
		known = append(known, h)
	}

	if allKnown {
		return hash.SortedUnion(theirHeads, nil)
	}
	return hash.SortedUnion(known, oldSharedHeads)
}
