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

// Package contact is the per-agent directory of known peers and their
// cached trust state, plus active message sessions. One Manager is
// owned by one local agent; it also serves as the agent's token sink
// for the client authenticator.
package contact

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/agent-network-protocol/anp-go/pkg/did"
	"github.com/agent-network-protocol/anp-go/pkg/token"
)

// Direction distinguishes tokens we issued to a peer from tokens a
// peer issued to us.
type Direction string

const (
	// DirectionOutbound: tokens a peer issued to us, presented on our
	// outbound calls.
	DirectionOutbound Direction = "outbound"

	// DirectionInbound: tokens we issued to the peer.
	DirectionInbound Direction = "inbound"
)

// ErrUnknownSession reports a session ID with no record.
var ErrUnknownSession = errors.New("unknown session")

// ErrSessionClosed reports an append to a closed session.
var ErrSessionClosed = errors.New("session closed")

// Contact is one known peer. Updated on every successful
// authenticated exchange.
type Contact struct {
	DID              did.DID
	DisplayName      string
	Tokens           map[Direction]token.Token
	InteractionCount int
	LastSeenAt       time.Time
}

// SessionStatus is the lifecycle state of a message session.
type SessionStatus string

const (
	SessionActive SessionStatus = "active"
	SessionClosed SessionStatus = "closed"
)

// Message is one entry in a session's ordered log.
type Message struct {
	From    did.DID
	Content []byte
	SentAt  time.Time
}

// Session is an ordered message log between participants.
type Session struct {
	ID           string
	Participants []did.DID
	Messages     []Message
	Status       SessionStatus
	CreatedAt    time.Time
}

// Manager holds one agent's contacts and sessions. Safe for
// concurrent use.
type Manager struct {
	mu       sync.RWMutex
	owner    did.DID
	contacts map[did.DID]*Contact
	sessions map[string]*Session
	now      func() time.Time
}

// NewManager creates an empty manager for the given local identity.
func NewManager(owner did.DID) *Manager {
	return &Manager{
		owner:    owner,
		contacts: make(map[did.DID]*Contact),
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

// Owner returns the local identity this directory belongs to.
func (m *Manager) Owner() did.DID { return m.owner }

// AddOrUpdateContact records a peer, updating the display name when
// one is given.
func (m *Manager) AddOrUpdateContact(d did.DID, displayName string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.contact(d)
	if displayName != "" {
		c.DisplayName = displayName
	}
}

// RecordInteraction bumps the interaction counter and last-seen time
// for a peer, creating the contact if needed.
func (m *Manager) RecordInteraction(d did.DID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.contact(d)
	c.InteractionCount++
	c.LastSeenAt = m.now()
}

// GetContact returns a copy of the contact for d.
func (m *Manager) GetContact(d did.DID) (Contact, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.contacts[d]
	if !ok {
		return Contact{}, false
	}
	return copyContact(c), true
}

// Contacts lists all known peers, sorted by DID for stable output.
func (m *Manager) Contacts() []Contact {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Contact, 0, len(m.contacts))
	for _, c := range m.contacts {
		out = append(out, copyContact(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DID < out[j].DID })
	return out
}

// SetToken caches a token for the peer in the given direction.
func (m *Manager) SetToken(d did.DID, dir Direction, t token.Token) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contact(d).Tokens[dir] = t
}

// RevokeToken drops the cached token for the peer in the given
// direction.
func (m *Manager) RevokeToken(d did.DID, dir Direction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.contacts[d]; ok {
		delete(c.Tokens, dir)
	}
}

// Token implements auth.TokenSink: the outbound token value for a
// peer, if one is cached and not past its known expiry.
func (m *Manager) Token(peer did.DID) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.contacts[peer]
	if !ok {
		return "", false
	}
	t, ok := c.Tokens[DirectionOutbound]
	if !ok || t.Revoked {
		return "", false
	}
	if !t.ExpiresAt.IsZero() && !m.now().Before(t.ExpiresAt) {
		return "", false
	}
	return t.Value, true
}

// StoreToken implements auth.TokenSink: cache a value a peer returned
// to us. The peer does not disclose its expiry; the value is kept
// until the peer rejects it.
func (m *Manager) StoreToken(peer did.DID, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.contact(peer)
	c.Tokens[DirectionOutbound] = token.Token{
		Value:    value,
		Issuer:   peer,
		Subject:  m.owner,
		IssuedAt: m.now(),
	}
	c.InteractionCount++
	c.LastSeenAt = m.now()
}

// ClearToken implements auth.TokenSink.
func (m *Manager) ClearToken(peer did.DID) {
	m.RevokeToken(peer, DirectionOutbound)
}

// CreateSession opens a session between the participants and returns
// its ID.
func (m *Manager) CreateSession(participants ...did.DID) string {
	id := uuid.NewString()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[id] = &Session{
		ID:           id,
		Participants: append([]did.DID(nil), participants...),
		Status:       SessionActive,
		CreatedAt:    m.now(),
	}
	return id
}

// AppendMessage appends to a session's ordered log. Appends are
// order-preserving under the manager lock.
func (m *Manager) AppendMessage(sessionID string, from did.DID, content []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSession, sessionID)
	}
	if s.Status == SessionClosed {
		return fmt.Errorf("%w: %s", ErrSessionClosed, sessionID)
	}
	s.Messages = append(s.Messages, Message{
		From:    from,
		Content: append([]byte(nil), content...),
		SentAt:  m.now(),
	})
	return nil
}

// CloseSession marks the session closed. Closing twice is harmless.
func (m *Manager) CloseSession(sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSession, sessionID)
	}
	s.Status = SessionClosed
	return nil
}

// GetSession returns a copy of the session.
func (m *Manager) GetSession(sessionID string) (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return Session{}, false
	}
	out := Session{
		ID:           s.ID,
		Participants: append([]did.DID(nil), s.Participants...),
		Messages:     append([]Message(nil), s.Messages...),
		Status:       s.Status,
		CreatedAt:    s.CreatedAt,
	}
	return out, true
}

// contact returns the entry for d, creating it. Called with m.mu held.
func (m *Manager) contact(d did.DID) *Contact {
	c, ok := m.contacts[d]
	if !ok {
		c = &Contact{DID: d, Tokens: make(map[Direction]token.Token)}
		m.contacts[d] = c
	}
	return c
}

func copyContact(c *Contact) Contact {
	out := *c
	out.Tokens = make(map[Direction]token.Token, len(c.Tokens))
	for dir, t := range c.Tokens {
		out.Tokens[dir] = t
	}
	return out
}
