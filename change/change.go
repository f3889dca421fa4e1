// Package change defines the opaque change blob the sync core moves
// around, and the handful of accessors (hash, deps, checksum) the sync
// core is allowed to inspect.
package change

import (
	"encoding/binary"
	"fmt"

	"github.com/mosaicnetworks/dagsync/hash"
)

// checksumOffset and checksumLen locate the 32-bit deduplication
// checksum within a change blob.
const (
	checksumOffset = 4
	checksumLen    = 4
)

// Blob is an opaque, content-hashed change as produced by the document
// backend. The sync core reads only its hash and deps (through
// DecodeMeta) and its checksum field (through Checksum).
type Blob []byte

// Meta is the identifying and structural information the sync core
// needs from a change, without exposing the payload.
type Meta struct {
	Hash hash.Hash
	Deps []hash.Hash
}

// Checksum extracts the 32-bit little-endian checksum living at bytes
// 4-7 of the blob. It is a format error for a blob to be shorter than
// that.
func Checksum(b Blob) (uint32, error) {
	if len(b) < checksumOffset+checksumLen {
		return 0, fmt.Errorf("change: blob too short to contain a checksum (%d bytes)", len(b))
	}
	return binary.LittleEndian.Uint32(b[checksumOffset : checksumOffset+checksumLen]), nil
}
