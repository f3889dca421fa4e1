package change

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"hash/crc32"

	dhash "github.com/mosaicnetworks/dagsync/hash"
)

// Record is the reference change representation used by this module's
// backend implementations (backend.MemoryBackend, backend.BadgerBackend).
// The document backend is treated as an external collaborator whose
// blob format is otherwise unspecified beyond the hash/deps/checksum
// contract — Record is that format, chosen so the reference backends
// have something real to store and exchange.
type Record struct {
	Deps    []dhash.Hash
	Payload []byte
}

// Encode serializes a Record into the Blob layout the checksum and meta
// accessors below understand:
//
//	bytes 0-3    reserved (zero)
//	bytes 4-7    uint32 little-endian CRC32 checksum of Payload
//	bytes 8-11   uint32 little-endian dependency count
//	repeated:    32-byte dependency hash
//	uint32       payload length, then that many payload bytes
func (r Record) Encode() Blob {
	buf := make([]byte, 12+len(r.Deps)*dhash.Size+4+len(r.Payload))
	// bytes 0-3 stay zero.
	binary.LittleEndian.PutUint32(buf[4:8], crc32.ChecksumIEEE(r.Payload))
	binary.LittleEndian.PutUint32(buf[8:12], uint32(len(r.Deps)))

	off := 12
	for _, d := range r.Deps {
		copy(buf[off:off+dhash.Size], d[:])
		off += dhash.Size
	}

	binary.LittleEndian.PutUint32(buf[off:off+4], uint32(len(r.Payload)))
	off += 4
	copy(buf[off:], r.Payload)

	return buf
}

// Hash returns the content hash of the encoded record: SHA-256 over
// the encoded blob.
func (r Record) Hash() dhash.Hash {
	sum := sha256.Sum256(r.Encode())
	var h dhash.Hash
	copy(h[:], sum[:])
	return h
}

// DecodeRecord reverses Encode.
func DecodeRecord(b Blob) (Record, error) {
	if len(b) < 12 {
		return Record{}, fmt.Errorf("change: truncated record header")
	}
	depCount := binary.LittleEndian.Uint32(b[8:12])
	off := 12
	need := int(depCount) * dhash.Size
	if len(b)-off < need {
		return Record{}, fmt.Errorf("change: truncated dependency list")
	}

	deps := make([]dhash.Hash, depCount)
	for i := uint32(0); i < depCount; i++ {
		start := off + int(i)*dhash.Size
		h, err := dhash.FromBytes(b[start : start+dhash.Size])
		if err != nil {
			return Record{}, err
		}
		deps[i] = h
	}
	off += need

	if len(b)-off < 4 {
		return Record{}, fmt.Errorf("change: truncated payload length")
	}
	payloadLen := binary.LittleEndian.Uint32(b[off : off+4])
	off += 4
	if uint32(len(b)-off) < payloadLen {
		return Record{}, fmt.Errorf("change: truncated payload")
	}

	payload := make([]byte, payloadLen)
	copy(payload, b[off:off+int(payloadLen)])

	return Record{Deps: deps, Payload: payload}, nil
}

// DecodeMeta extracts a change's hash and deps without copying the
// payload.
func DecodeMeta(b Blob) (Meta, error) {
	r, err := DecodeRecord(b)
	if err != nil {
		return Meta{}, err
	}
	return Meta{Hash: r.Hash(), Deps: r.Deps}, nil
}
