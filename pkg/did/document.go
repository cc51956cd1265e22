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
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/mr-tron/base58"
)

// Verification method types understood by this module.
const (
	MethodTypeEd25519   = "Ed25519VerificationKey2020"
	MethodTypeSecp256k1 = "EcdsaSecp256k1VerificationKey2019"
)

// W3C context URLs emitted on generated documents.
const (
	ContextDIDV1        = "https://www.w3.org/ns/did/v1"
	ContextEd255192020  = "https://w3id.org/security/suites/ed25519-2020/v1"
	ContextSecp256k2019 = "https://w3id.org/security/suites/secp256k1-2019/v1"
)

// Document is the JSON DID document consumed and produced at
// resolution time. Documents are treated as immutable once resolved.
type Document struct {
	Context            []string             `json:"@context,omitempty"`
	ID                 string               `json:"id"`
	VerificationMethod []VerificationMethod `json:"verificationMethod"`
	Authentication     []string             `json:"authentication,omitempty"`
	Service            []Service            `json:"service,omitempty"`
}

// VerificationMethod declares one public key of the document subject.
// Exactly one of PublicKeyHex / PublicKeyMultibase is set.
type VerificationMethod struct {
	ID                 string `json:"id"`
	Type               string `json:"type"`
	Controller         string `json:"controller,omitempty"`
	PublicKeyHex       string `json:"publicKeyHex,omitempty"`
	PublicKeyMultibase string `json:"publicKeyMultibase,omitempty"`
}

// Service describes an endpoint the subject exposes.
type Service struct {
	ID              string `json:"id"`
	Type            string `json:"type"`
	ServiceEndpoint string `json:"serviceEndpoint"`
}

// FindMethod locates a verification method by its full ID or by its
// fragment (with or without the leading '#').
func (d *Document) FindMethod(id string) (*VerificationMethod, error) {
	fragment := strings.TrimPrefix(id, "#")
	for i := range d.VerificationMethod {
		m := &d.VerificationMethod[i]
		if m.ID == id {
			return m, nil
		}
		if idx := strings.Index(m.ID, "#"); idx >= 0 && m.ID[idx+1:] == fragment {
			return m, nil
		}
	}
	return nil, fmt.Errorf("verification method %q not found in document %s", id, d.ID)
}

// ServiceEndpoint returns the endpoint of the first service with the
// given type.
func (d *Document) ServiceEndpoint(serviceType string) (string, bool) {
	for _, s := range d.Service {
		if s.Type == serviceType {
			return s.ServiceEndpoint, true
		}
	}
	return "", false
}

// PublicKey decodes the method's key material. The returned value is
// an ed25519.PublicKey or a *secp256k1.PublicKey depending on the
// declared method type.
func (m *VerificationMethod) PublicKey() (crypto.PublicKey, error) {
	raw, err := m.keyBytes()
	if err != nil {
		return nil, err
	}
	switch m.Type {
	case MethodTypeEd25519:
		if len(raw) != ed25519.PublicKeySize {
			return nil, fmt.Errorf("method %s: expected %d-byte ed25519 key, got %d", m.ID, ed25519.PublicKeySize, len(raw))
		}
		return ed25519.PublicKey(raw), nil
	case MethodTypeSecp256k1:
		pub, err := secp256k1.ParsePubKey(raw)
		if err != nil {
			return nil, fmt.Errorf("method %s: invalid secp256k1 key: %w", m.ID, err)
		}
		return pub, nil
	default:
		return nil, fmt.Errorf("method %s: unsupported type %q", m.ID, m.Type)
	}
}

// keyBytes decodes publicKeyHex or publicKeyMultibase, whichever is set.
func (m *VerificationMethod) keyBytes() ([]byte, error) {
	switch {
	case m.PublicKeyHex != "":
		raw, err := hex.DecodeString(m.PublicKeyHex)
		if err != nil {
			return nil, fmt.Errorf("method %s: invalid publicKeyHex: %w", m.ID, err)
		}
		return raw, nil
	case m.PublicKeyMultibase != "":
		// Only the base58btc multibase prefix ('z') is in use for
		// the supported suites.
		if !strings.HasPrefix(m.PublicKeyMultibase, "z") {
			return nil, fmt.Errorf("method %s: unsupported multibase prefix %q", m.ID, m.PublicKeyMultibase[:1])
		}
		raw, err := base58.Decode(m.PublicKeyMultibase[1:])
		if err != nil {
			return nil, fmt.Errorf("method %s: invalid publicKeyMultibase: %w", m.ID, err)
		}
		return raw, nil
	default:
		return nil, fmt.Errorf("method %s: no key material", m.ID)
	}
}

// NewDocument builds a single-key document for the given identity.
func NewDocument(d DID, kp KeyPair) *Document {
	methodID := string(d) + kp.KeyID()
	var methodType, contextURL string
	switch kp.Type() {
	case KeyTypeEd25519:
		methodType = MethodTypeEd25519
		contextURL = ContextEd255192020
	case KeyTypeSecp256k1:
		methodType = MethodTypeSecp256k1
		contextURL = ContextSecp256k2019
	}
	return &Document{
		Context: []string{ContextDIDV1, contextURL},
		ID:      string(d),
		VerificationMethod: []VerificationMethod{{
			ID:           methodID,
			Type:         methodType,
			Controller:   string(d),
			PublicKeyHex: hex.EncodeToString(kp.PublicKeyBytes()),
		}},
		Authentication: []string{methodID},
	}
}
