// Package bloom implements the content-addressed Bloom filter used for
// set-reconciliation between peers. It has no false negatives and, at
// the default parameters, roughly a 1% false-positive rate on
// unrelated hashes.
package bloom

import (
	"encoding/binary"
	"fmt"

	"github.com/mosaicnetworks/dagsync/common"
	"github.com/mosaicnetworks/dagsync/hash"
)

// Default filter parameters.
const (
	DefaultBitsPerEntry = 10
	DefaultProbes       = 7
)

// Filter is a probabilistic set of hashes.
type Filter struct {
	NumEntries      uint32
	NumBitsPerEntry uint32
	NumProbes       uint32
	Bits            []byte
}

// Empty returns the zero-entry filter, which serializes to the empty
// byte string and never reports a hash present.
func Empty() *Filter {
	return &Filter{NumBitsPerEntry: DefaultBitsPerEntry, NumProbes: DefaultProbes}
}

// New constructs a filter containing exactly the given hashes, using
// the default parameters.
func New(hashes []hash.Hash) *Filter {
	return NewWithParams(hashes, DefaultBitsPerEntry, DefaultProbes)
}

// NewWithParams constructs a filter containing the given hashes with
// explicit bits-per-entry and probe-count parameters.
func NewWithParams(hashes []hash.Hash, bitsPerEntry, probes uint32) *Filter {
	f := &Filter{
		NumEntries:      uint32(len(hashes)),
		NumBitsPerEntry: bitsPerEntry,
		NumProbes:       probes,
	}
	if f.NumEntries == 0 {
		return f
	}

	numBits := f.NumEntries * f.NumBitsPerEntry
	f.Bits = make([]byte, (numBits+7)/8)

	for _, h := range hashes {
		for _, idx := range f.probe(h) {
			f.setBit(idx)
		}
	}
	return f
}

// probe returns the NumProbes bit indices for h using Dillinger–Manolios
// triple hashing: interpret the first three little-endian uint32 words
// of h as x, y, z; emit x mod m, then repeatedly x += y, y += z (mod m),
// emitting x each round.
func (f *Filter) probe(h hash.Hash) []uint32 {
	m := uint32(len(f.Bits) * 8)
	if m == 0 {
		return nil
	}

	x := binary.LittleEndian.Uint32(h[0:4])
	y := binary.LittleEndian.Uint32(h[4:8])
	z := binary.LittleEndian.Uint32(h[8:12])

	out := make([]uint32, f.NumProbes)
	out[0] = x % m
	for i := uint32(1); i < f.NumProbes; i++ {
		x = addMod(x, y, m)
		y = addMod(y, z, m)
		out[i] = x
	}
	return out
}

func addMod(a, b, m uint32) uint32 {
	// a and b may be any uint32 (probe passes the raw x and y words on
	// its first round); do the addition in 64 bits to avoid wraparound
	// before reducing mod m.
	return uint32((uint64(a) + uint64(b)) % uint64(m))
}

func (f *Filter) setBit(idx uint32) {
	f.Bits[idx/8] |= 1 << (idx % 8)
}

func (f *Filter) getBit(idx uint32) bool {
	return f.Bits[idx/8]&(1<<(idx%8)) != 0
}

// Contains reports whether h might be a member. An empty filter (zero
// bit-length) always reports false.
func (f *Filter) Contains(h hash.Hash) bool {
	m := uint32(len(f.Bits) * 8)
	if m == 0 {
		return false
	}
	for _, idx := range f.probe(h) {
		if !f.getBit(idx) {
			return false
		}
	}
	return true
}

// Encode serializes the filter: the empty filter (zero
// entries) encodes to the empty byte string; otherwise three
// little-endian uint32 parameter words followed by the raw bit array.
func Encode(f *Filter) []byte {
	if f == nil || f.NumEntries == 0 {
		return nil
	}
	buf := make([]byte, 12+len(f.Bits))
	binary.LittleEndian.PutUint32(buf[0:4], f.NumEntries)
	binary.LittleEndian.PutUint32(buf[4:8], f.NumBitsPerEntry)
	binary.LittleEndian.PutUint32(buf[8:12], f.NumProbes)
	copy(buf[12:], f.Bits)
	return buf
}

// Decode reverses Encode. An empty input yields a zero-parameter, empty
// filter.
func Decode(b []byte) (*Filter, error) {
	if len(b) == 0 {
		return &Filter{}, nil
	}
	if len(b) < 12 {
		return nil, common.NewSyncErr(common.Truncation, fmt.Sprintf("bloom header, have %d bytes", len(b)))
	}

	f := &Filter{
		NumEntries:      binary.LittleEndian.Uint32(b[0:4]),
		NumBitsPerEntry: binary.LittleEndian.Uint32(b[4:8]),
		NumProbes:       binary.LittleEndian.Uint32(b[8:12]),
	}

	want := (int(f.NumEntries)*int(f.NumBitsPerEntry) + 7) / 8
	body := b[12:]
	if len(body) < want {
		return nil, common.NewSyncErr(common.Truncation, fmt.Sprintf("bloom bit array, want %d bytes have %d", want, len(body)))
	}

	f.Bits = make([]byte, want)
	copy(f.Bits, body[:want])
	return f, nil
}
