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

// Package keys provides curve-generic signing and verification over
// canonical payload digests. Ed25519 and secp256k1 are supported, the
// two curves a did:wba verification method may declare.
package keys

import (
	"crypto"
	"crypto/ed25519"
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	secpecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	"github.com/agent-network-protocol/anp-go/pkg/did"
)

// ErrSignature reports that a signature did not verify against the
// presented public key and digest.
var ErrSignature = errors.New("signature verification failed")

// ErrUnsupportedKey reports a public key type outside the supported
// curves.
var ErrUnsupportedKey = errors.New("unsupported key type")

// Hash computes the SHA-256 digest of a canonical payload.
func Hash(payload []byte) []byte {
	sum := sha256.Sum256(payload)
	return sum[:]
}

// Sign signs the digest with the key pair.
func Sign(kp did.KeyPair, digest []byte) ([]byte, error) {
	sig, err := kp.Sign(digest)
	if err != nil {
		return nil, fmt.Errorf("failed to sign digest: %w", err)
	}
	return sig, nil
}

// Verify checks the signature over the digest against the public key.
// A mismatch returns ErrSignature, never a silent false.
func Verify(pub crypto.PublicKey, digest, sig []byte) error {
	switch pk := pub.(type) {
	case ed25519.PublicKey:
		if !ed25519.Verify(pk, digest, sig) {
			return fmt.Errorf("ed25519: %w", ErrSignature)
		}
		return nil
	case *secp256k1.PublicKey:
		parsed, err := secpecdsa.ParseDERSignature(sig)
		if err != nil {
			return fmt.Errorf("secp256k1: malformed signature: %w", ErrSignature)
		}
		if !parsed.Verify(digest, pk) {
			return fmt.Errorf("secp256k1: %w", ErrSignature)
		}
		return nil
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedKey, pub)
	}
}
