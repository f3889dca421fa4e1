package peers

import "testing"

func TestNewIdentity(t *testing.T) {
	id, err := NewIdentity()
	if err != nil {
		t.Fatalf("NewIdentity: %v", err)
	}
	if id.PrivateKey == nil {
		t.Fatalf("NewIdentity did not set a private key")
	}
	if id.PubKeyHex == "" {
		t.Fatalf("NewIdentity did not set a public key hex string")
	}
}

func TestIdentityFromPrivateKeyMatchesNewIdentity(t *testing.T) {
	id, err := NewIdentity()
	if err != nil {
		t.Fatalf("NewIdentity: %v", err)
	}

	derived := IdentityFromPrivateKey(id.PrivateKey)
	if derived.PubKeyHex != id.PubKeyHex {
		t.Fatalf("IdentityFromPrivateKey PubKeyHex = %q, want %q", derived.PubKeyHex, id.PubKeyHex)
	}
}

func TestAsPeer(t *testing.T) {
	id, err := NewIdentity()
	if err != nil {
		t.Fatalf("NewIdentity: %v", err)
	}

	p := id.AsPeer("127.0.0.1:1337")
	if p.PubKeyHex != id.PubKeyHex {
		t.Fatalf("AsPeer PubKeyHex = %q, want %q", p.PubKeyHex, id.PubKeyHex)
	}
	if p.Addr != "127.0.0.1:1337" {
		t.Fatalf("AsPeer Addr = %q, want %q", p.Addr, "127.0.0.1:1337")
	}
	if p.ID == 0 {
		t.Fatalf("AsPeer should compute a non-zero ID")
	}
}
