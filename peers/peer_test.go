package peers

import "testing"

func TestNewPeerComputesID(t *testing.T) {
	p := NewPeer("0xAABBCC", "127.0.0.1:1337")
	if p.ID == 0 {
		t.Fatalf("NewPeer did not compute a non-zero ID")
	}

	other := NewPeer("0xAABBCC", "127.0.0.1:1338")
	if other.ID != p.ID {
		t.Fatalf("ID should depend only on the public key, got %d and %d", p.ID, other.ID)
	}
}

func TestPubKeyBytesTrimsPrefix(t *testing.T) {
	p := NewPeer("0xAABBCC", "addr")
	b, err := p.PubKeyBytes()
	if err != nil {
		t.Fatalf("PubKeyBytes: %v", err)
	}
	want := []byte{0xAA, 0xBB, 0xCC}
	if len(b) != len(want) {
		t.Fatalf("PubKeyBytes() = %x, want %x", b, want)
	}
	for i := range want {
		if b[i] != want[i] {
			t.Fatalf("PubKeyBytes() = %x, want %x", b, want)
		}
	}
}

func TestPubKeyBytesInvalidHex(t *testing.T) {
	p := NewPeer("0xZZ", "addr")
	if _, err := p.PubKeyBytes(); err == nil {
		t.Fatalf("expected an error decoding invalid hex")
	}
}

func TestExcludePeer(t *testing.T) {
	a := NewPeer("0xAA", "a")
	b := NewPeer("0xBB", "b")
	c := NewPeer("0xCC", "c")

	idx, rest := ExcludePeer([]*Peer{a, b, c}, "b")
	if idx != 1 {
		t.Fatalf("ExcludePeer index = %d, want 1", idx)
	}
	if len(rest) != 2 || rest[0] != a || rest[1] != c {
		t.Fatalf("ExcludePeer rest = %v, want [a c]", rest)
	}
}

func TestExcludePeerNotFound(t *testing.T) {
	a := NewPeer("0xAA", "a")
	idx, rest := ExcludePeer([]*Peer{a}, "nope")
	if idx != -1 {
		t.Fatalf("ExcludePeer index = %d, want -1", idx)
	}
	if len(rest) != 1 || rest[0] != a {
		t.Fatalf("ExcludePeer rest = %v, want [a]", rest)
	}
}
