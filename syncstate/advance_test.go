package syncstate

import (
	"testing"

	"github.com/mosaicnetworks/dagsync/hash"
)

func hN(b byte) hash.Hash {
	var h hash.Hash
	h[0] = b
	return h
}

func TestAdvanceHeadsNewPlusCommon(t *testing.T) {
	old := []hash.Hash{hN(1)}
	newH := []hash.Hash{hN(2), hN(3)}
	shared := []hash.Hash{hN(1), hN(3)}

	got := advanceHeads(old, newH, shared)

	// newHeads = {2,3} \ {1} = {2,3}; commonHeads = {1,3} ∩ {2,3} = {3}
	// union = {2,3}
	if !hash.Equal(got, []hash.Hash{hN(2), hN(3)}) {
		t.Fatalf("unexpected advanceHeads result: %v", got)
	}
}

func TestAdvanceHeadsIsSubsetOfNewUnionShared(t *testing.T) {
	old := []hash.Hash{hN(1)}
	newH := []hash.Hash{hN(1), hN(2)}
	shared := []hash.Hash{hN(5)}

	got := advanceHeads(old, newH, shared)
	allowed := hash.SortedUnion(newH, shared)
	if !hash.SubsetOf(got, allowed) {
		t.Fatalf("advanceHeads result %v not subset of %v", got, allowed)
	}
	if !hash.IsSorted(got) {
		t.Fatalf("expected sorted, deduplicated result, got %v", got)
	}
}
