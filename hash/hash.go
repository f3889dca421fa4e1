// Package hash provides the 32-byte change-hash type used throughout
// dagsync, and the codecs for the sorted hash vectors that appear on the
// wire (sync messages, persisted peer state, Bloom filter construction).
package hash

import (
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/mosaicnetworks/dagsync/common"
)

// Size is the length in bytes of a Hash.
const Size = 32

// Hash is a SHA-256 digest over a change's contents. The sync layer never
// computes it; it only moves it around.
type Hash [Size]byte

// String returns the 64-character lowercase hex representation.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// Less orders hashes ascending by their hex string, matching the
// ascending order hash vectors must carry on the wire.
func (h Hash) Less(other Hash) bool {
	return h.String() < other.String()
}

// FromBytes validates and copies a 32-byte slice into a Hash.
func FromBytes(b []byte) (Hash, error) {
	var h Hash
	if len(b) != Size {
		return h, common.NewSyncErr(common.FormatError, fmt.Sprintf("hash length %d, want %d", len(b), Size))
	}
	copy(h[:], b)
	return h, nil
}

// FromHex decodes a 64-character lowercase hex string into a Hash.
func FromHex(s string) (Hash, error) {
	var h Hash
	b, err := hex.DecodeString(s)
	if err != nil {
		return h, fmt.Errorf("hash: %w", err)
	}
	return FromBytes(b)
}

// Sort sorts a slice of hashes ascending by hex string, in place.
func Sort(hs []Hash) {
	sort.Slice(hs, func(i, j int) bool { return hs[i].Less(hs[j]) })
}

// IsSorted reports whether hs is strictly ascending with no duplicates.
func IsSorted(hs []Hash) bool {
	for i := 1; i < len(hs); i++ {
		if !hs[i-1].Less(hs[i]) {
			return false
		}
	}
	return true
}

// Dedup returns hs with adjacent duplicates removed. hs must already be
// sorted; the result shares no backing array with hs.
func Dedup(hs []Hash) []Hash {
	out := make([]Hash, 0, len(hs))
	for i, h := range hs {
		if i == 0 || h != hs[i-1] {
			out = append(out, h)
		}
	}
	return out
}

// SortedUnion returns the sorted, deduplicated union of a and b.
func SortedUnion(a, b []Hash) []Hash {
	set := make(map[Hash]struct{}, len(a)+len(b))
	out := make([]Hash, 0, len(a)+len(b))
	for _, h := range a {
		if _, ok := set[h]; !ok {
			set[h] = struct{}{}
			out = append(out, h)
		}
	}
	for _, h := range b {
		if _, ok := set[h]; !ok {
			set[h] = struct{}{}
			out = append(out, h)
		}
	}
	Sort(out)
	return out
}

// SortedIntersect returns the sorted intersection of a and b.
func SortedIntersect(a, b []Hash) []Hash {
	inB := make(map[Hash]struct{}, len(b))
	for _, h := range b {
		inB[h] = struct{}{}
	}
	out := make([]Hash, 0)
	for _, h := range a {
		if _, ok := inB[h]; ok {
			out = append(out, h)
		}
	}
	Sort(out)
	return Dedup(out)
}

// SortedDifference returns the sorted a \ b.
func SortedDifference(a, b []Hash) []Hash {
	inB := make(map[Hash]struct{}, len(b))
	for _, h := range b {
		inB[h] = struct{}{}
	}
	out := make([]Hash, 0)
	for _, h := range a {
		if _, ok := inB[h]; !ok {
			out = append(out, h)
		}
	}
	Sort(out)
	return Dedup(out)
}

// Set builds a lookup set from a hash slice.
func Set(hs []Hash) map[Hash]struct{} {
	set := make(map[Hash]struct{}, len(hs))
	for _, h := range hs {
		set[h] = struct{}{}
	}
	return set
}

// Contains reports whether target is present in hs, in any order.
func Contains(hs []Hash, target Hash) bool {
	for _, h := range hs {
		if h == target {
			return true
		}
	}
	return false
}

// Equal reports whether a and b contain the same hashes in the same
// order. Heads are always canonically sorted, so this is the right
// notion of equality for comparing two head sets.
func Equal(a, b []Hash) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// SubsetOf reports whether every hash in a is present in b.
func SubsetOf(a []Hash, b []Hash) bool {
	set := Set(b)
	for _, h := range a {
		if _, ok := set[h]; !ok {
			return false
		}
	}
	return true
}
