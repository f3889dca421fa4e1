// Package wire implements the bit-exact binary codecs for sync
// messages and persisted peer state. Nothing in this package depends
// on the sync state machine or the Backend; it is pure encode/decode
// over bytes.
package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/mosaicnetworks/dagsync/bloom"
	"github.com/mosaicnetworks/dagsync/change"
	"github.com/mosaicnetworks/dagsync/common"
	"github.com/mosaicnetworks/dagsync/hash"
)

// messageTag is the first byte of every encoded sync message.
const messageTag = 0x42

// HaveEntry describes what a peer already holds: everything reachable
// from LastSync, plus whatever Bloom probabilistically represents.
type HaveEntry struct {
	LastSync []hash.Hash
	Bloom    *bloom.Filter
}

// Message is the wire shape exchanged between peers.
type Message struct {
	Heads   []hash.Hash
	Need    []hash.Hash
	Have    []HaveEntry
	Changes []change.Blob
}

// EncodeMessage renders m in the following layout:
//
//	byte 0x42
//	hash-vector  heads
//	hash-vector  need
//	uint32       haveCount
//	  repeated: hash-vector lastSync, length-prefixed bloom bytes
//	uint32       changeCount
//	  repeated: length-prefixed change bytes
func EncodeMessage(m *Message) ([]byte, error) {
	headsBuf, err := hash.EncodeVector(m.Heads)
	if err != nil {
		return nil, err
	}
	needBuf, err := hash.EncodeVector(m.Need)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, 0, 1+len(headsBuf)+len(needBuf)+64)
	buf = append(buf, messageTag)
	buf = append(buf, headsBuf...)
	buf = append(buf, needBuf...)

	haveCount := make([]byte, 4)
	binary.LittleEndian.PutUint32(haveCount, uint32(len(m.Have)))
	buf = append(buf, haveCount...)

	for _, he := range m.Have {
		lsBuf, err := hash.EncodeVector(he.LastSync)
		if err != nil {
			return nil, err
		}
		buf = append(buf, lsBuf...)
		buf = append(buf, encodePrefixed(bloom.Encode(he.Bloom))...)
	}

	changeCount := make([]byte, 4)
	binary.LittleEndian.PutUint32(changeCount, uint32(len(m.Changes)))
	buf = append(buf, changeCount...)

	for _, c := range m.Changes {
		buf = append(buf, encodePrefixed(c)...)
	}

	return buf, nil
}

// DecodeMessage parses the layout EncodeMessage produces. Trailing
// bytes after the final change are ignored.
func DecodeMessage(b []byte) (*Message, error) {
	if len(b) < 1 || b[0] != messageTag {
		return nil, common.NewSyncErr(common.FormatError, fmt.Sprintf("message tag byte, want 0x%x", messageTag))
	}
	off := 1

	heads, n, err := hash.DecodeVector(b[off:])
	if err != nil {
		return nil, err
	}
	off += n

	need, n, err := hash.DecodeVector(b[off:])
	if err != nil {
		return nil, err
	}
	off += n

	if len(b)-off < 4 {
		return nil, common.NewSyncErr(common.Truncation, "have count")
	}
	haveCount := binary.LittleEndian.Uint32(b[off : off+4])
	off += 4

	have := make([]HaveEntry, 0, haveCount)
	for i := uint32(0); i < haveCount; i++ {
		lastSync, n, err := hash.DecodeVector(b[off:])
		if err != nil {
			return nil, err
		}
		off += n

		bloomBytes, n, err := decodePrefixed(b[off:])
		if err != nil {
			return nil, err
		}
		off += n

		f, err := bloom.Decode(bloomBytes)
		if err != nil {
			return nil, err
		}

		have = append(have, HaveEntry{LastSync: lastSync, Bloom: f})
	}

	if len(b)-off < 4 {
		return nil, common.NewSyncErr(common.Truncation, "change count")
	}
	changeCount := binary.LittleEndian.Uint32(b[off : off+4])
	off += 4

	changes := make([]change.Blob, 0, changeCount)
	for i := uint32(0); i < changeCount; i++ {
		blob, n, err := decodePrefixed(b[off:])
		if err != nil {
			return nil, err
		}
		off += n
		changes = append(changes, change.Blob(blob))
	}

	return &Message{Heads: heads, Need: need, Have: have, Changes: changes}, nil
}

func encodePrefixed(b []byte) []byte {
	out := make([]byte, 4+len(b))
	binary.LittleEndian.PutUint32(out[0:4], uint32(len(b)))
	copy(out[4:], b)
	return out
}

func decodePrefixed(b []byte) ([]byte, int, error) {
	if len(b) < 4 {
		return nil, 0, common.NewSyncErr(common.Truncation, "length prefix")
	}
	n := binary.LittleEndian.Uint32(b[0:4])
	if len(b)-4 < int(n) {
		return nil, 0, common.NewSyncErr(common.Truncation, fmt.Sprintf("prefixed body, want %d bytes have %d", n, len(b)-4))
	}
	out := make([]byte, n)
	copy(out, b[4:4+n])
	return out, 4 + int(n), nil
}
