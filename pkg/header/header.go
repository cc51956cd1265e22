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

// Package header builds and parses the DIDWba authentication header.
//
// The header carries the caller's DID, a random nonce, an RFC 3339
// timestamp, the verification method fragment, and a base64 signature
// over the canonical payload. Two-way headers additionally carry
// resp_did, the responder the proof is bound to:
//
//	DIDWba did="did:wba:a.example",nonce="…",timestamp="…",
//	       resp_did="did:wba:b.example",verification_method="#key-1",
//	       signature="…"
//
// Parse accepts both the two-way and the legacy one-way shape, trying
// two-way first.
package header

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/agent-network-protocol/anp-go/pkg/did"
	"github.com/agent-network-protocol/anp-go/pkg/keys"
)

// Scheme is the authentication scheme name on the Authorization header.
const Scheme = "DIDWba"

// ResponseHeaderName carries the responder's own DIDWba proof back to
// the caller on a two-way exchange.
const ResponseHeaderName = "X-DID-Response"

// ErrParse reports a malformed DIDWba header.
var ErrParse = errors.New("malformed DIDWba header")

// Header is the parsed form of a DIDWba header. TwoWay distinguishes
// the tagged union: a two-way header binds the proof to ResponderDID,
// a legacy one-way header leaves it empty.
type Header struct {
	DID                did.DID
	Nonce              string
	Timestamp          time.Time
	VerificationMethod string
	Signature          []byte
	ResponderDID       did.DID
	TwoWay             bool
}

// payload is the canonical signed object. Field order is the sorted
// key order; encoding/json emits struct fields in declaration order,
// which keeps the serialization deterministic.
type payload struct {
	CallerDID string `json:"callerDid"`
	Nonce     string `json:"nonce"`
	RespDID   string `json:"respDid,omitempty"`
	Timestamp string `json:"timestamp"`
}

// NewNonce returns a fresh cryptographically random nonce.
func NewNonce() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Build constructs a signed header value proving control of caller's
// key to responder. In two-way mode the responder DID is embedded and
// signed so the proof cannot be replayed against a different peer.
func Build(caller, responder did.DID, kp did.KeyPair, twoWay bool) (string, error) {
	h := &Header{
		DID:                caller,
		Nonce:              NewNonce(),
		Timestamp:          time.Now().UTC().Truncate(time.Second),
		VerificationMethod: kp.KeyID(),
		TwoWay:             twoWay,
	}
	if twoWay {
		h.ResponderDID = responder
	}

	digest, err := h.Digest()
	if err != nil {
		return "", err
	}
	sig, err := keys.Sign(kp, digest)
	if err != nil {
		return "", fmt.Errorf("failed to sign header: %w", err)
	}
	h.Signature = sig
	return h.String(), nil
}

// Digest recomputes the SHA-256 digest of the canonical payload the
// signature covers.
func (h *Header) Digest() ([]byte, error) {
	p := payload{
		CallerDID: string(h.DID),
		Nonce:     h.Nonce,
		Timestamp: h.Timestamp.UTC().Format(time.RFC3339),
	}
	if h.TwoWay {
		p.RespDID = string(h.ResponderDID)
	}
	canonical, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal canonical payload: %w", err)
	}
	return keys.Hash(canonical), nil
}

// String serializes the header as a comma-separated key="value" list
// prefixed with the DIDWba scheme.
func (h *Header) String() string {
	fields := []string{
		fmt.Sprintf("did=%q", string(h.DID)),
		fmt.Sprintf("nonce=%q", h.Nonce),
		fmt.Sprintf("timestamp=%q", h.Timestamp.UTC().Format(time.RFC3339)),
	}
	if h.TwoWay {
		fields = append(fields, fmt.Sprintf("resp_did=%q", string(h.ResponderDID)))
	}
	fields = append(fields,
		fmt.Sprintf("verification_method=%q", h.VerificationMethod),
		fmt.Sprintf("signature=%q", base64.StdEncoding.EncodeToString(h.Signature)),
	)
	return Scheme + " " + strings.Join(fields, ",")
}

var fieldPattern = regexp.MustCompile(`(\w+)="([^"]*)"`)

// Parse parses a DIDWba header value. The two-way shape is tried
// first; a header without resp_did falls back to the legacy one-way
// shape. Malformed input returns ErrParse.
func Parse(value string) (*Header, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(value), Scheme)
	if !ok {
		return nil, fmt.Errorf("%w: missing %s scheme", ErrParse, Scheme)
	}

	fields := make(map[string]string)
	for _, m := range fieldPattern.FindAllStringSubmatch(rest, -1) {
		fields[m[1]] = m[2]
	}

	if h, err := parseShape(fields, true); err == nil {
		return h, nil
	}
	return parseShape(fields, false)
}

// parseShape validates one of the two header shapes against the
// collected fields.
func parseShape(fields map[string]string, twoWay bool) (*Header, error) {
	required := []string{"did", "nonce", "timestamp", "verification_method", "signature"}
	if twoWay {
		required = append(required, "resp_did")
	}
	for _, name := range required {
		if fields[name] == "" {
			return nil, fmt.Errorf("%w: missing field %q", ErrParse, name)
		}
	}

	caller, err := did.Parse(fields["did"])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	ts, err := time.Parse(time.RFC3339, fields["timestamp"])
	if err != nil {
		return nil, fmt.Errorf("%w: bad timestamp %q", ErrParse, fields["timestamp"])
	}
	sig, err := base64.StdEncoding.DecodeString(fields["signature"])
	if err != nil {
		return nil, fmt.Errorf("%w: signature is not base64", ErrParse)
	}

	h := &Header{
		DID:                caller,
		Nonce:              fields["nonce"],
		Timestamp:          ts,
		VerificationMethod: fields["verification_method"],
		Signature:          sig,
		TwoWay:             twoWay,
	}
	if twoWay {
		responder, err := did.Parse(fields["resp_did"])
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParse, err)
		}
		h.ResponderDID = responder
	}
	return h, nil
}
