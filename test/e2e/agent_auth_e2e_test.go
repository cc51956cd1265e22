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

package e2e

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agent-network-protocol/anp-go/pkg/auth"
	"github.com/agent-network-protocol/anp-go/pkg/contact"
	"github.com/agent-network-protocol/anp-go/pkg/did"
	"github.com/agent-network-protocol/anp-go/pkg/header"
	"github.com/agent-network-protocol/anp-go/pkg/resolver"
	"github.com/agent-network-protocol/anp-go/pkg/router"
	"github.com/agent-network-protocol/anp-go/pkg/server"
)

const (
	clientDID = did.DID("did:wba:alpha.example:user:alice")
	agentDID  = did.DID("did:wba:bravo.example")
)

// rewriteTransport routes requests for any host to the test server so
// HTTPS DID document URLs resolve against httptest.
type rewriteTransport struct {
	target *url.URL
}

func (rt rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.URL.Scheme = rt.target.Scheme
	req.URL.Host = rt.target.Host
	return http.DefaultTransport.RoundTrip(req)
}

type testServer struct {
	srv          *httptest.Server
	agent        *router.LocalAgent
	handshakes   atomic.Int64
	bearerCalls  atomic.Int64
	serverTokens *auth.ServerAuthenticator
}

// newTestServer hosts one agent behind the authentication middleware,
// with its DID document published at the well-known location.
func newTestServer(t *testing.T, creds *did.Credentials, clientDoc *did.Document) *testServer {
	t.Helper()

	local := resolver.NewLocal()
	require.NoError(t, local.Register(clientDoc))

	a := auth.NewServerAuthenticator(creds, local, nil, nil, nil)

	rt := router.New(nil)
	agent := router.NewLocalAgent(creds.DID, "bravo")
	agent.HandleAPI("/api/echo", func(ctx context.Context, req *router.Request) (*router.Response, error) {
		return &router.Response{Status: http.StatusOK, Body: req.Body}, nil
	})
	require.NoError(t, rt.Register(agent))

	mw := server.NewMiddleware(a, nil)
	mw.Exempt(did.WellKnownPath, "/health")

	ts := &testServer{agent: agent, serverTokens: a}

	mux := http.NewServeMux()
	mux.Handle(did.WellKnownPath, server.DIDDocumentHandler(creds.Document))
	mux.Handle("/health", server.HealthHandler())
	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		resp, err := rt.Route(r.Context(), creds.DID, &router.Request{
			Kind: router.KindAPI,
			Path: r.URL.Path,
			Body: readBody(r),
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		w.WriteHeader(resp.Status)
		w.Write(resp.Body)
	})

	counted := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authz := r.Header.Get("Authorization")
		switch {
		case strings.HasPrefix(authz, header.Scheme):
			ts.handshakes.Add(1)
		case strings.HasPrefix(authz, auth.BearerPrefix):
			ts.bearerCalls.Add(1)
		}
		mw.Wrap(mux).ServeHTTP(w, r)
	})

	ts.srv = httptest.NewServer(counted)
	t.Cleanup(ts.srv.Close)
	return ts
}

func readBody(r *http.Request) []byte {
	body, _ := io.ReadAll(r.Body)
	return body
}

// newTestClient builds a client authenticator whose resolver fetches
// the agent's document from the test server's well-known endpoint.
func newTestClient(t *testing.T, creds *did.Credentials, srv *httptest.Server) (*auth.ClientAuthenticator, *contact.Manager) {
	t.Helper()
	target, err := url.Parse(srv.URL)
	require.NoError(t, err)

	resolverClient := &http.Client{Transport: rewriteTransport{target: target}}
	chain := resolver.NewChain(nil, resolverClient, nil)

	contacts := contact.NewManager(creds.DID)
	c := auth.NewClientAuthenticator(creds, srv.Client())
	c.SetTokenSink(contacts)
	c.SetResolver(chain)
	return c, contacts
}

// Test the full cycle: signed handshake, token write-back, verified
// responder proof, then fast-path reuse on subsequent calls
func TestE2E_MutualAuthCycle(t *testing.T) {
	alice, err := did.NewCredentials(clientDID, did.KeyTypeEd25519)
	require.NoError(t, err)
	bravo, err := did.NewCredentials(agentDID, did.KeyTypeSecp256k1)
	require.NoError(t, err)

	ts := newTestServer(t, bravo, alice.Document)
	client, contacts := newTestClient(t, alice, ts.srv)

	// First call: full signed handshake.
	resp, err := client.Authenticate(context.Background(), http.MethodPost, ts.srv.URL+"/api/echo", []byte("hello"), agentDID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []byte("hello"), resp.Body)
	assert.NotEmpty(t, resp.Token)

	// The responder proved its own identity; the proof resolved against
	// the document fetched from the well-known endpoint.
	require.NotNil(t, resp.PeerHeader)
	assert.Equal(t, agentDID, resp.PeerHeader.DID)
	assert.Equal(t, clientDID, resp.PeerHeader.ResponderDID)

	// The token landed in the contact directory.
	value, ok := contacts.Token(agentDID)
	require.True(t, ok)
	assert.Equal(t, resp.Token, value)

	// Second and third calls ride the cached token.
	for i := 0; i < 2; i++ {
		resp, err = client.Authenticate(context.Background(), http.MethodPost, ts.srv.URL+"/api/echo", []byte("again"), agentDID)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}
	assert.Equal(t, int64(1), ts.handshakes.Load())
	assert.Equal(t, int64(2), ts.bearerCalls.Load())

	// The agent saw every call as the authenticated caller.
	c, ok := ts.agent.Contacts().GetContact(clientDID)
	require.True(t, ok)
	assert.Equal(t, 3, c.InteractionCount)
}

// Test a revoked token forces exactly one re-handshake
func TestE2E_RevokedTokenRetry(t *testing.T) {
	alice, err := did.NewCredentials(clientDID, did.KeyTypeEd25519)
	require.NoError(t, err)
	bravo, err := did.NewCredentials(agentDID, did.KeyTypeEd25519)
	require.NoError(t, err)

	ts := newTestServer(t, bravo, alice.Document)
	client, _ := newTestClient(t, alice, ts.srv)

	resp, err := client.Authenticate(context.Background(), http.MethodPost, ts.srv.URL+"/api/echo", []byte("one"), agentDID)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Server-side revocation invalidates the cached token.
	require.NoError(t, ts.serverTokens.Tokens().Revoke(agentDID, clientDID))

	resp, err = client.Authenticate(context.Background(), http.MethodPost, ts.srv.URL+"/api/echo", []byte("two"), agentDID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Two handshakes total: the initial one and the post-401 retry.
	assert.Equal(t, int64(2), ts.handshakes.Load())
}

// Test a tampered signature is rejected at the HTTP surface
func TestE2E_TamperedSignature(t *testing.T) {
	alice, err := did.NewCredentials(clientDID, did.KeyTypeEd25519)
	require.NoError(t, err)
	bravo, err := did.NewCredentials(agentDID, did.KeyTypeEd25519)
	require.NoError(t, err)

	ts := newTestServer(t, bravo, alice.Document)

	value, err := header.Build(clientDID, agentDID, alice.Key, true)
	require.NoError(t, err)
	// Corrupt the base64 signature payload.
	tampered := strings.Replace(value, `signature="`, `signature="AAAA`, 1)

	req, err := http.NewRequest(http.MethodPost, ts.srv.URL+"/api/echo", strings.NewReader("x"))
	require.NoError(t, err)
	req.Header.Set("Authorization", tampered)

	httpResp, err := ts.srv.Client().Do(req)
	require.NoError(t, err)
	defer httpResp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, httpResp.StatusCode)
	assert.Empty(t, httpResp.Header.Get("Authorization"))
}

// Test unauthenticated access to exempt endpoints
func TestE2E_ExemptEndpoints(t *testing.T) {
	alice, err := did.NewCredentials(clientDID, did.KeyTypeEd25519)
	require.NoError(t, err)
	bravo, err := did.NewCredentials(agentDID, did.KeyTypeEd25519)
	require.NoError(t, err)

	ts := newTestServer(t, bravo, alice.Document)

	resp, err := ts.srv.Client().Get(ts.srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = ts.srv.Client().Get(ts.srv.URL + did.WellKnownPath)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
}
