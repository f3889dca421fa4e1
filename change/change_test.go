package change

import (
	"testing"

	"github.com/mosaicnetworks/dagsync/hash"
)

func TestRecordRoundTrip(t *testing.T) {
	var d1, d2 hash.Hash
	d1[0] = 1
	d2[0] = 2

	r := Record{Deps: []hash.Hash{d1, d2}, Payload: []byte("hello world")}
	blob := r.Encode()

	got, err := DecodeRecord(blob)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(got.Payload) != "hello world" {
		t.Fatalf("payload mismatch: %q", got.Payload)
	}
	if len(got.Deps) != 2 || got.Deps[0] != d1 || got.Deps[1] != d2 {
		t.Fatalf("deps mismatch: %v", got.Deps)
	}
}

func TestChecksumField(t *testing.T) {
	r := Record{Payload: []byte("payload-data")}
	blob := r.Encode()

	cs, err := Checksum(blob)
	if err != nil {
		t.Fatalf("checksum: %v", err)
	}
	if cs == 0 {
		t.Fatalf("expected nonzero checksum")
	}

	r2 := Record{Payload: []byte("payload-data")}
	cs2, _ := Checksum(r2.Encode())
	if cs != cs2 {
		t.Fatalf("checksum must be deterministic over identical payloads")
	}
}

func TestDecodeMeta(t *testing.T) {
	var d hash.Hash
	d[3] = 9
	r := Record{Deps: []hash.Hash{d}, Payload: []byte("x")}
	blob := r.Encode()

	meta, err := DecodeMeta(blob)
	if err != nil {
		t.Fatalf("decode meta: %v", err)
	}
	if meta.Hash != r.Hash() {
		t.Fatalf("meta hash mismatch")
	}
	if len(meta.Deps) != 1 || meta.Deps[0] != d {
		t.Fatalf("meta deps mismatch")
	}
}

func TestChecksumTooShort(t *testing.T) {
	if _, err := Checksum(Blob{1, 2}); err == nil {
		t.Fatalf("expected error for short blob")
	}
}
