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

package contact

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agent-network-protocol/anp-go/pkg/did"
	"github.com/agent-network-protocol/anp-go/pkg/token"
)

const (
	ownerDID = did.DID("did:wba:a.example:agent:alpha")
	peerDID  = did.DID("did:wba:b.example:user:bob")
)

// Test adding and updating contacts
func TestManager_AddOrUpdateContact(t *testing.T) {
	m := NewManager(ownerDID)

	m.AddOrUpdateContact(peerDID, "Bob")
	c, ok := m.GetContact(peerDID)
	require.True(t, ok)
	assert.Equal(t, "Bob", c.DisplayName)

	// An empty display name does not clear the existing one.
	m.AddOrUpdateContact(peerDID, "")
	c, _ = m.GetContact(peerDID)
	assert.Equal(t, "Bob", c.DisplayName)
	assert.Len(t, m.Contacts(), 1)
}

// Test interaction counters and last-seen tracking
func TestManager_RecordInteraction(t *testing.T) {
	m := NewManager(ownerDID)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return base }

	m.RecordInteraction(peerDID)
	m.RecordInteraction(peerDID)

	c, ok := m.GetContact(peerDID)
	require.True(t, ok)
	assert.Equal(t, 2, c.InteractionCount)
	assert.Equal(t, base, c.LastSeenAt)
}

// Test inbound and outbound tokens are tracked independently
func TestManager_TokenDirections(t *testing.T) {
	m := NewManager(ownerDID)

	m.SetToken(peerDID, DirectionInbound, token.Token{Value: "we-issued"})
	m.SetToken(peerDID, DirectionOutbound, token.Token{Value: "they-issued"})

	c, ok := m.GetContact(peerDID)
	require.True(t, ok)
	assert.Equal(t, "we-issued", c.Tokens[DirectionInbound].Value)
	assert.Equal(t, "they-issued", c.Tokens[DirectionOutbound].Value)

	// Revoking one direction leaves the other intact.
	m.RevokeToken(peerDID, DirectionOutbound)
	c, _ = m.GetContact(peerDID)
	assert.NotContains(t, c.Tokens, DirectionOutbound)
	assert.Contains(t, c.Tokens, DirectionInbound)
}

// Test the token sink round trip used by the client authenticator
func TestManager_TokenSink(t *testing.T) {
	m := NewManager(ownerDID)

	_, ok := m.Token(peerDID)
	assert.False(t, ok)

	m.StoreToken(peerDID, "abc123")
	value, ok := m.Token(peerDID)
	require.True(t, ok)
	assert.Equal(t, "abc123", value)

	// Storing counts as an interaction with the peer.
	c, _ := m.GetContact(peerDID)
	assert.Equal(t, 1, c.InteractionCount)
	assert.Equal(t, peerDID, c.Tokens[DirectionOutbound].Issuer)
	assert.Equal(t, ownerDID, c.Tokens[DirectionOutbound].Subject)

	m.ClearToken(peerDID)
	_, ok = m.Token(peerDID)
	assert.False(t, ok)
}

// Test a cached outbound token past its known expiry is not offered
func TestManager_TokenExpiry(t *testing.T) {
	m := NewManager(ownerDID)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return base }

	m.SetToken(peerDID, DirectionOutbound, token.Token{
		Value:     "short-lived",
		ExpiresAt: base.Add(time.Minute),
	})

	_, ok := m.Token(peerDID)
	assert.True(t, ok)

	m.now = func() time.Time { return base.Add(2 * time.Minute) }
	_, ok = m.Token(peerDID)
	assert.False(t, ok)
}

// Test session creation, ordered appends, and retrieval
func TestManager_Sessions(t *testing.T) {
	m := NewManager(ownerDID)

	id := m.CreateSession(ownerDID, peerDID)
	require.NotEmpty(t, id)

	require.NoError(t, m.AppendMessage(id, ownerDID, []byte("hi")))
	require.NoError(t, m.AppendMessage(id, peerDID, []byte("hello")))

	s, ok := m.GetSession(id)
	require.True(t, ok)
	assert.Equal(t, SessionActive, s.Status)
	assert.Equal(t, []did.DID{ownerDID, peerDID}, s.Participants)
	require.Len(t, s.Messages, 2)
	assert.Equal(t, ownerDID, s.Messages[0].From)
	assert.Equal(t, []byte("hi"), s.Messages[0].Content)
	assert.Equal(t, []byte("hello"), s.Messages[1].Content)
}

// Test appends to closed or unknown sessions are rejected
func TestManager_SessionErrors(t *testing.T) {
	m := NewManager(ownerDID)

	err := m.AppendMessage("no-such-session", ownerDID, []byte("x"))
	assert.ErrorIs(t, err, ErrUnknownSession)

	id := m.CreateSession(ownerDID, peerDID)
	require.NoError(t, m.CloseSession(id))
	// Closing twice is harmless.
	require.NoError(t, m.CloseSession(id))

	err = m.AppendMessage(id, ownerDID, []byte("late"))
	assert.ErrorIs(t, err, ErrSessionClosed)

	s, _ := m.GetSession(id)
	assert.Equal(t, SessionClosed, s.Status)
	assert.Empty(t, s.Messages)

	assert.ErrorIs(t, m.CloseSession("no-such-session"), ErrUnknownSession)
}

// Test GetSession returns a copy detached from later appends
func TestManager_GetSessionCopy(t *testing.T) {
	m := NewManager(ownerDID)

	id := m.CreateSession(ownerDID, peerDID)
	require.NoError(t, m.AppendMessage(id, ownerDID, []byte("one")))

	snapshot, _ := m.GetSession(id)
	require.NoError(t, m.AppendMessage(id, peerDID, []byte("two")))

	assert.Len(t, snapshot.Messages, 1)
	current, _ := m.GetSession(id)
	assert.Len(t, current.Messages, 2)
}
