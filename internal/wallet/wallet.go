// Package wallet holds the signing key and the balance/price oracles.
package wallet

import (
	"crypto/ed25519"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// Keypair wraps the ed25519 key material used to sign transactions.
type Keypair struct {
	priv ed25519.PrivateKey
}

// NewKeypair decodes a base58 secret key. Both the 64-byte Solana format
// (seed || public key) and a bare 32-byte seed are accepted.
func NewKeypair(encoded string) (*Keypair, error) {
	raw, err := base58.Decode(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode private key: %w", err)
	}

	var priv ed25519.PrivateKey
	switch len(raw) {
	case ed25519.PrivateKeySize:
		priv = ed25519.PrivateKey(raw)
	case ed25519.SeedSize:
		priv = ed25519.NewKeyFromSeed(raw)
	default:
		return nil, fmt.Errorf("private key must be %d or %d bytes, got %d",
			ed25519.SeedSize, ed25519.PrivateKeySize, len(raw))
	}

	pub := priv.Public().(ed25519.PublicKey)
	if !isOnCurve(pub) {
		return nil, fmt.Errorf("public key is not on the ed25519 curve")
	}

	return &Keypair{priv: priv}, nil
}

// PublicKey returns the base58-encoded public key.
func (k *Keypair) PublicKey() string {
	pub := k.priv.Public().(ed25519.PublicKey)
	return base58.Encode(pub)
}

// Sign signs an arbitrary message, typically a serialized transaction.
func (k *Keypair) Sign(message []byte) []byte {
	return ed25519.Sign(k.priv, message)
}

func isOnCurve(point []byte) bool {
	if len(point) != 32 {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(point)
	return err == nil
}
