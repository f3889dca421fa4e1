package wire

import (
	"testing"

	"github.com/mosaicnetworks/dagsync/bloom"
	"github.com/mosaicnetworks/dagsync/change"
	"github.com/mosaicnetworks/dagsync/common"
	"github.com/mosaicnetworks/dagsync/hash"
)

func hashN(b byte) hash.Hash {
	var h hash.Hash
	h[0] = b
	return h
}

func TestMessageRoundTrip(t *testing.T) {
	h1, h2, h3 := hashN(1), hashN(2), hashN(3)

	m := &Message{
		Heads: []hash.Hash{h1, h2},
		Need:  []hash.Hash{h3},
		Have: []HaveEntry{
			{LastSync: []hash.Hash{h1}, Bloom: bloom.New([]hash.Hash{h2, h3})},
			{LastSync: nil, Bloom: bloom.Empty()},
		},
		Changes: []change.Blob{[]byte("blob-one"), []byte("blob-two")},
	}

	encoded, err := EncodeMessage(m)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if encoded[0] != messageTag {
		t.Fatalf("expected tag byte 0x%x, got 0x%x", messageTag, encoded[0])
	}

	got, err := DecodeMessage(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if len(got.Heads) != 2 || got.Heads[0] != h1 || got.Heads[1] != h2 {
		t.Fatalf("heads mismatch: %v", got.Heads)
	}
	if len(got.Need) != 1 || got.Need[0] != h3 {
		t.Fatalf("need mismatch: %v", got.Need)
	}
	if len(got.Have) != 2 {
		t.Fatalf("expected 2 have entries, got %d", len(got.Have))
	}
	if !got.Have[0].Bloom.Contains(h2) {
		t.Fatalf("expected bloom to contain h2")
	}
	if got.Have[1].Bloom.Contains(h1) {
		t.Fatalf("empty bloom must never report contains")
	}
	if len(got.Changes) != 2 || string(got.Changes[0]) != "blob-one" || string(got.Changes[1]) != "blob-two" {
		t.Fatalf("changes mismatch: %v", got.Changes)
	}
}

func TestMessageTrailingBytesIgnored(t *testing.T) {
	m := &Message{Heads: nil, Need: nil, Have: nil, Changes: nil}
	encoded, err := EncodeMessage(m)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	encoded = append(encoded, 0xDE, 0xAD, 0xBE, 0xEF)

	if _, err := DecodeMessage(encoded); err != nil {
		t.Fatalf("expected trailing bytes to be ignored, got %v", err)
	}
}

func TestMessageBadTagByte(t *testing.T) {
	_, err := DecodeMessage([]byte{0x00, 0x00, 0x00, 0x00, 0x00})
	if !common.Is(err, common.FormatError) {
		t.Fatalf("expected FormatError, got %v", err)
	}
}

func TestMessageTruncated(t *testing.T) {
	m := &Message{Heads: []hash.Hash{hashN(1)}}
	encoded, err := EncodeMessage(m)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	_, err = DecodeMessage(encoded[:len(encoded)-1])
	if err == nil {
		t.Fatalf("expected truncation error")
	}
}

func TestMessageEncodeRejectsUnsortedHeads(t *testing.T) {
	m := &Message{Heads: []hash.Hash{hashN(2), hashN(1)}}
	_, err := EncodeMessage(m)
	if !common.Is(err, common.FormatError) {
		t.Fatalf("expected FormatError for unsorted heads, got %v", err)
	}
}
