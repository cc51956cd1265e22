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

// Package token issues and validates the opaque bearer tokens handed
// out after a successful DID verification. Tokens are namespaced per
// issuing identity; the same subject may hold independent tokens from
// different issuers at the same time.
//
// Tokens live only in the issuing process. A restart empties the
// table, which bounds the fast-path trust window: any token a peer
// still holds simply fails validation and forces a full signature
// handshake.
package token

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/agent-network-protocol/anp-go/pkg/did"
)

// DefaultTTL is the issue-time lifetime when none is given.
const DefaultTTL = 60 * time.Minute

var (
	// ErrUnknown reports a token with no stored record for the
	// (issuer, subject) pair.
	ErrUnknown = errors.New("unknown token")

	// ErrRevoked reports a permanently revoked token. Checked before
	// expiry.
	ErrRevoked = errors.New("token revoked")

	// ErrExpired reports a token past its expiry.
	ErrExpired = errors.New("token expired")
)

// Token is an opaque bearer credential for one (issuer, subject) pair.
type Token struct {
	Value     string
	Issuer    did.DID
	Subject   did.DID
	IssuedAt  time.Time
	ExpiresAt time.Time
	Revoked   bool
}

type pairKey struct {
	issuer  did.DID
	subject did.DID
}

// Service is the in-process token table. Safe for concurrent use.
// Expiry is lazy: checked at validate time, never swept in the
// background.
type Service struct {
	mu     sync.Mutex
	tokens map[pairKey]*Token
	ttl    time.Duration
	now    func() time.Time
}

// NewService creates a token service. A zero ttl selects DefaultTTL.
func NewService(ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{
		tokens: make(map[pairKey]*Token),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue creates (or replaces) the token issuer grants to subject. A
// zero ttl selects the service default.
func (s *Service) Issue(issuer, subject did.DID, ttl time.Duration) (Token, error) {
	if ttl <= 0 {
		ttl = s.ttl
	}
	value, err := newValue()
	if err != nil {
		return Token{}, err
	}
	now := s.now()
	t := &Token{
		Value:     value,
		Issuer:    issuer,
		Subject:   subject,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}
	s.mu.Lock()
	s.tokens[pairKey{issuer, subject}] = t
	s.mu.Unlock()
	return *t, nil
}

// Validate checks the presented value against the stored record for
// (issuer, subject). Revocation is checked before expiry; expiry is
// evaluated lazily against the current time.
func (s *Service) Validate(issuer, subject did.DID, value string) (Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[pairKey{issuer, subject}]
	if !ok || subtle.ConstantTimeCompare([]byte(t.Value), []byte(value)) != 1 {
		return Token{}, fmt.Errorf("%w: no match for subject %s", ErrUnknown, subject)
	}
	if t.Revoked {
		return Token{}, fmt.Errorf("%w: subject %s", ErrRevoked, subject)
	}
	if !s.now().Before(t.ExpiresAt) {
		return Token{}, fmt.Errorf("%w: expired at %s", ErrExpired, t.ExpiresAt.UTC().Format(time.RFC3339))
	}
	return *t, nil
}

// Lookup finds the subject holding the presented value under the given
// issuer. Used by the server fast path, where the bearer value is all
// the request carries.
func (s *Service) Lookup(issuer did.DID, value string) (Token, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, t := range s.tokens {
		if key.issuer != issuer {
			continue
		}
		if subtle.ConstantTimeCompare([]byte(t.Value), []byte(value)) == 1 {
			return *t, true
		}
	}
	return Token{}, false
}

// Revoke permanently revokes the token for (issuer, subject).
func (s *Service) Revoke(issuer, subject did.DID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[pairKey{issuer, subject}]
	if !ok {
		return fmt.Errorf("%w: no token for subject %s", ErrUnknown, subject)
	}
	t.Revoked = true
	return nil
}

// Get returns the stored token for (issuer, subject) without
// validating it.
func (s *Service) Get(issuer, subject did.DID) (Token, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[pairKey{issuer, subject}]
	if !ok {
		return Token{}, false
	}
	return *t, true
}

// newValue generates a 32-byte random token value.
func newValue() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate token value: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}
