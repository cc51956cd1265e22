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

package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agent-network-protocol/anp-go/pkg/did"
	"github.com/agent-network-protocol/anp-go/pkg/header"
	"github.com/agent-network-protocol/anp-go/pkg/resolver"
	"github.com/agent-network-protocol/anp-go/pkg/transport"
)

// Test a first call sends a signed header and writes the returned
// token back into the sink
func TestAuthenticate_HandshakeAndWriteBack(t *testing.T) {
	alice, bob, local := newTestPair(t)
	serverAuth := NewServerAuthenticator(bob, local, nil, nil, nil)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		result, err := serverAuth.VerifyRequest(r.Context(), r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		w.Header().Set("Authorization", BearerPrefix+result.Token.Value)
		if result.ResponseHeader != "" {
			w.Header().Set(header.ResponseHeaderName, result.ResponseHeader)
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := NewClientAuthenticator(alice, srv.Client())
	c.SetResolver(local)

	resp, err := c.Authenticate(context.Background(), http.MethodPost, srv.URL+"/api/echo", []byte(`{}`), bob.DID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Token)
	require.NotNil(t, resp.PeerHeader)
	assert.Equal(t, bob.DID, resp.PeerHeader.DID)

	// The token landed in the sink for reuse.
	cached, ok := c.sink.Token(bob.DID)
	require.True(t, ok)
	assert.Equal(t, resp.Token, cached)
}

// Scenario A: the second call reuses the cached token and the server
// takes the fast path
func TestAuthenticate_TokenReuse(t *testing.T) {
	alice, bob, local := newTestPair(t)
	serverAuth := NewServerAuthenticator(bob, local, nil, nil, nil)

	var signatureVerifications atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.Header.Get("Authorization"), header.Scheme) {
			signatureVerifications.Add(1)
		}
		result, err := serverAuth.VerifyRequest(r.Context(), r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		w.Header().Set("Authorization", BearerPrefix+result.Token.Value)
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := NewClientAuthenticator(alice, srv.Client())

	for i := 0; i < 3; i++ {
		resp, err := c.Authenticate(context.Background(), http.MethodGet, srv.URL+"/api/echo", nil, bob.DID)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	// Only the initial handshake carried a signature.
	assert.Equal(t, int32(1), signatureVerifications.Load())
}

// Test a 401 on a cached token clears it and retries exactly once
// with a fresh header
func TestAuthenticate_RetryOnceOn401(t *testing.T) {
	alice, bob, _ := newTestPair(t)

	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := attempts.Add(1)
		authz := r.Header.Get("Authorization")
		if n == 1 {
			// Reject the stale cached token.
			assert.True(t, strings.HasPrefix(authz, BearerPrefix))
			http.Error(w, "token expired", http.StatusUnauthorized)
			return
		}
		// The retry must carry a freshly signed header.
		assert.True(t, strings.HasPrefix(authz, header.Scheme))
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := NewClientAuthenticator(alice, srv.Client())
	c.sink.StoreToken(bob.DID, "stale-token")

	resp, err := c.Authenticate(context.Background(), http.MethodGet, srv.URL+"/api/echo", nil, bob.DID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(2), attempts.Load())

	_, ok := c.sink.Token(bob.DID)
	assert.False(t, ok)
}

// Test a second 401 is terminal: no further retries
func TestAuthenticate_NoSecondRetry(t *testing.T) {
	alice, bob, _ := newTestPair(t)

	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClientAuthenticator(alice, srv.Client())
	resp, err := c.Authenticate(context.Background(), http.MethodGet, srv.URL+"/api/echo", nil, bob.DID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, int32(2), attempts.Load())
}

// Test transport failures surface as retryable network errors
func TestAuthenticate_NetworkError(t *testing.T) {
	alice, bob, _ := newTestPair(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := NewClientAuthenticator(alice, nil)
	_, err := c.Authenticate(context.Background(), http.MethodGet, srv.URL, nil, bob.DID)
	assert.ErrorIs(t, err, transport.ErrNetwork)
}

// recordingResolver captures the context each resolution runs under.
type recordingResolver struct {
	inner resolver.Resolver
	last  context.Context
}

func (r *recordingResolver) Resolve(ctx context.Context, d did.DID) (*did.Document, error) {
	r.last = ctx
	return r.inner.Resolve(ctx, d)
}

// Test peer proof verification resolves under the caller's context, so
// its deadline and cancellation apply to the document fetch
func TestAuthenticate_PeerProofUsesCallerContext(t *testing.T) {
	alice, bob, local := newTestPair(t)
	serverAuth := NewServerAuthenticator(bob, local, nil, nil, nil)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		result, err := serverAuth.VerifyRequest(r.Context(), r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		w.Header().Set(header.ResponseHeaderName, result.ResponseHeader)
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	rec := &recordingResolver{inner: local}
	c := NewClientAuthenticator(alice, srv.Client())
	c.SetResolver(rec)

	deadline := time.Now().Add(30 * time.Second)
	ctx, cancel := context.WithDeadline(context.Background(), deadline)
	defer cancel()

	_, err := c.Authenticate(ctx, http.MethodPost, srv.URL+"/api/echo", nil, bob.DID)
	require.NoError(t, err)

	require.NotNil(t, rec.last)
	got, ok := rec.last.Deadline()
	require.True(t, ok)
	assert.Equal(t, deadline, got)
}

// Test a forged peer proof in the response is rejected when a
// resolver is configured
func TestAuthenticate_BadPeerProof(t *testing.T) {
	alice, bob, local := newTestPair(t)
	serverAuth := NewServerAuthenticator(bob, local, nil, nil, nil)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		result, err := serverAuth.VerifyRequest(r.Context(), r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		// Mangle the response proof before returning it.
		w.Header().Set(header.ResponseHeaderName, flipSignatureByte(t, result.ResponseHeader))
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := NewClientAuthenticator(alice, srv.Client())
	c.SetResolver(local)

	_, err := c.Authenticate(context.Background(), http.MethodPost, srv.URL+"/api/echo", nil, bob.DID)
	assert.Error(t, err)
}
