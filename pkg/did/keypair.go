// Copyright (C) 2026 ANP Community
//
// This file is part of anp-go.
//
// anp-go is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// anp-go is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with anp-go.  If not, see <https://www.gnu.org/licenses/>.

package did

import (
	"crypto"
	"crypto/ed25519"
	"crypto/rand"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	secpecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

// KeyType identifies the curve a key pair lives on.
type KeyType string

const (
	KeyTypeEd25519   KeyType = "ed25519"
	KeyTypeSecp256k1 KeyType = "secp256k1"
)

// DefaultKeyID is the verification method fragment used when an
// identity carries a single key.
const DefaultKeyID = "#key-1"

// KeyPair is a signing key owned by exactly one identity. The key ID
// is the verification method fragment (including the leading '#') the
// key is published under in the identity's DID document.
type KeyPair interface {
	// Sign signs the given digest with the private key.
	Sign(digest []byte) ([]byte, error)

	// PublicKey returns the public half in its native type.
	PublicKey() crypto.PublicKey

	// PublicKeyBytes returns the canonical public key encoding
	// (32 bytes for ed25519, 33-byte compressed for secp256k1).
	PublicKeyBytes() []byte

	// Type reports the curve.
	Type() KeyType

	// KeyID returns the verification method fragment.
	KeyID() string
}

type ed25519KeyPair struct {
	priv  ed25519.PrivateKey
	keyID string
}

// GenerateEd25519 creates a fresh Ed25519 key pair.
func GenerateEd25519(keyID string) (KeyPair, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate ed25519 key: %w", err)
	}
	return newEd25519(priv, keyID), nil
}

// LoadEd25519 restores an Ed25519 key pair from its 32-byte seed or
// 64-byte private key encoding.
func LoadEd25519(raw []byte, keyID string) (KeyPair, error) {
	switch len(raw) {
	case ed25519.SeedSize:
		return newEd25519(ed25519.NewKeyFromSeed(raw), keyID), nil
	case ed25519.PrivateKeySize:
		return newEd25519(ed25519.PrivateKey(raw), keyID), nil
	default:
		return nil, fmt.Errorf("ed25519 private key must be %d or %d bytes, got %d",
			ed25519.SeedSize, ed25519.PrivateKeySize, len(raw))
	}
}

func newEd25519(priv ed25519.PrivateKey, keyID string) KeyPair {
	if keyID == "" {
		keyID = DefaultKeyID
	}
	return &ed25519KeyPair{priv: priv, keyID: keyID}
}

func (k *ed25519KeyPair) Sign(digest []byte) ([]byte, error) {
	return ed25519.Sign(k.priv, digest), nil
}

func (k *ed25519KeyPair) PublicKey() crypto.PublicKey {
	return k.priv.Public().(ed25519.PublicKey)
}

func (k *ed25519KeyPair) PublicKeyBytes() []byte {
	return []byte(k.priv.Public().(ed25519.PublicKey))
}

func (k *ed25519KeyPair) Type() KeyType { return KeyTypeEd25519 }
func (k *ed25519KeyPair) KeyID() string { return k.keyID }

type secp256k1KeyPair struct {
	priv  *secp256k1.PrivateKey
	keyID string
}

// GenerateSecp256k1 creates a fresh secp256k1 key pair.
func GenerateSecp256k1(keyID string) (KeyPair, error) {
	priv, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate secp256k1 key: %w", err)
	}
	return newSecp256k1(priv, keyID), nil
}

// LoadSecp256k1 restores a secp256k1 key pair from its 32-byte scalar.
func LoadSecp256k1(raw []byte, keyID string) (KeyPair, error) {
	if len(raw) != 32 {
		return nil, fmt.Errorf("secp256k1 private key must be 32 bytes, got %d", len(raw))
	}
	return newSecp256k1(secp256k1.PrivKeyFromBytes(raw), keyID), nil
}

func newSecp256k1(priv *secp256k1.PrivateKey, keyID string) KeyPair {
	if keyID == "" {
		keyID = DefaultKeyID
	}
	return &secp256k1KeyPair{priv: priv, keyID: keyID}
}

// Sign produces a DER-encoded ECDSA signature over the digest.
func (k *secp256k1KeyPair) Sign(digest []byte) ([]byte, error) {
	return secpecdsa.Sign(k.priv, digest).Serialize(), nil
}

func (k *secp256k1KeyPair) PublicKey() crypto.PublicKey {
	return k.priv.PubKey()
}

func (k *secp256k1KeyPair) PublicKeyBytes() []byte {
	return k.priv.PubKey().SerializeCompressed()
}

func (k *secp256k1KeyPair) Type() KeyType { return KeyTypeSecp256k1 }
func (k *secp256k1KeyPair) KeyID() string { return k.keyID }
