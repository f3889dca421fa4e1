package peers

import (
	"crypto/ecdsa"

	"github.com/mosaicnetworks/dagsync/crypto/keys"
)

// Identity is this node's own keypair and the hex-encoded public key
// that other peers know it by, generalized from the ECDSA/secp256k1
// key handling babble scatters across peers.Peer and crypto/keys.
type Identity struct {
	PrivateKey *ecdsa.PrivateKey
	PubKeyHex  string
}

// NewIdentity generates a fresh secp256k1 identity.
func NewIdentity() (*Identity, error) {
	priv, err := keys.GenerateECDSAKey()
	if err != nil {
		return nil, err
	}
	return &Identity{
		PrivateKey: priv,
		PubKeyHex:  keys.PublicKeyHex(&priv.PublicKey),
	}, nil
}

// IdentityFromPrivateKey derives the Identity for an existing key.
func IdentityFromPrivateKey(priv *ecdsa.PrivateKey) *Identity {
	return &Identity{
		PrivateKey: priv,
		PubKeyHex:  keys.PublicKeyHex(&priv.PublicKey),
	}
}

// AsPeer returns the Peer record other nodes should hold for us.
func (id *Identity) AsPeer(addr string) *Peer {
	return NewPeer(id.PubKeyHex, addr)
}
