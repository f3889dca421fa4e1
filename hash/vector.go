package hash

import (
	"encoding/binary"
	"fmt"

	"github.com/mosaicnetworks/dagsync/common"
)

// EncodeVector writes the length-prefixed hash-vector wire format: a
// uint32 little-endian count followed by that many raw 32-byte hashes
// in ascending hex order. Encoding an unsorted or
// duplicate-containing vector is an invariant error — the wire format
// promises ascending order, and the caller is expected to have produced
// it, not the encoder.
func EncodeVector(hs []Hash) ([]byte, error) {
	if !IsSorted(hs) {
		return nil, common.NewSyncErr(common.FormatError, "hash vector must be strictly ascending with no duplicates")
	}

	buf := make([]byte, 4+len(hs)*Size)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(len(hs)))
	for i, h := range hs {
		off := 4 + i*Size
		copy(buf[off:off+Size], h[:])
	}
	return buf, nil
}

// DecodeVector reads a length-prefixed hash vector starting at the
// beginning of b. It returns the decoded vector, the number of bytes
// consumed, and an error on truncation. Decoding does not re-sort; the
// order on the wire is returned verbatim.
func DecodeVector(b []byte) ([]Hash, int, error) {
	if len(b) < 4 {
		return nil, 0, common.NewSyncErr(common.Truncation, "truncated vector count")
	}
	count := binary.LittleEndian.Uint32(b[0:4])
	off := 4
	need := int(count) * Size
	if len(b)-off < need {
		return nil, 0, common.NewSyncErr(common.Truncation, fmt.Sprintf("truncated vector body, want %d bytes have %d", need, len(b)-off))
	}

	out := make([]Hash, count)
	for i := uint32(0); i < count; i++ {
		start := off + int(i)*Size
		h, err := FromBytes(b[start : start+Size])
		if err != nil {
			return nil, 0, err
		}
		out[i] = h
	}
	return out, off + need, nil
}
