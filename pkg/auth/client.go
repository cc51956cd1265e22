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
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/agent-network-protocol/anp-go/pkg/did"
	"github.com/agent-network-protocol/anp-go/pkg/header"
	"github.com/agent-network-protocol/anp-go/pkg/keys"
	"github.com/agent-network-protocol/anp-go/pkg/resolver"
	"github.com/agent-network-protocol/anp-go/pkg/transport"
)

// maxResponseSize bounds a read of a peer response body.
const maxResponseSize = 8 << 20

// TokenSink stores bearer tokens received from peers, keyed by peer
// DID. contact.Manager satisfies it; a private in-memory sink is used
// when none is injected.
type TokenSink interface {
	// Token returns the cached token value for peer, if any.
	Token(peer did.DID) (string, bool)

	// StoreToken caches the token value returned by peer.
	StoreToken(peer did.DID, value string)

	// ClearToken drops the cached token for peer.
	ClearToken(peer did.DID)
}

// memorySink is the fallback TokenSink.
type memorySink struct {
	mu     sync.Mutex
	values map[did.DID]string
}

func newMemorySink() *memorySink {
	return &memorySink{values: make(map[did.DID]string)}
}

func (s *memorySink) Token(peer did.DID) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[peer]
	return v, ok
}

func (s *memorySink) StoreToken(peer did.DID, value string) {
	s.mu.Lock()
	s.values[peer] = value
	s.mu.Unlock()
}

func (s *memorySink) ClearToken(peer did.DID) {
	s.mu.Lock()
	delete(s.values, peer)
	s.mu.Unlock()
}

// Response is the outcome of an authenticated outbound call.
type Response struct {
	StatusCode int
	Body       []byte

	// Token is the bearer value the responder returned, already
	// written back to the sink.
	Token string

	// PeerHeader is the responder's parsed two-way proof, when one
	// was returned (and verified, if a resolver is configured).
	PeerHeader *header.Header
}

// ClientAuthenticator performs authenticated outbound requests: cached
// token reuse, signed-header handshakes, and the single 401-triggered
// retry. Retries are local to one call; concurrent calls do not
// coordinate.
type ClientAuthenticator struct {
	creds    *did.Credentials
	client   *transport.Client
	sink     TokenSink
	resolver resolver.Resolver
	twoWay   bool
	maxSkew  time.Duration
	logger   *slog.Logger
}

// NewClientAuthenticator creates a client for the identity in creds.
// A nil httpClient selects http.DefaultClient.
func NewClientAuthenticator(creds *did.Credentials, httpClient *http.Client) *ClientAuthenticator {
	return &ClientAuthenticator{
		creds:   creds,
		client:  transport.NewClient(httpClient, 0),
		sink:    newMemorySink(),
		twoWay:  true,
		maxSkew: 5 * time.Minute,
		logger:  slog.Default(),
	}
}

// SetTokenSink routes token write-back into the given sink, typically
// a contact.Manager.
func (c *ClientAuthenticator) SetTokenSink(sink TokenSink) {
	if sink != nil {
		c.sink = sink
	}
}

// SetResolver enables verification of the responder's two-way proof.
func (c *ClientAuthenticator) SetResolver(res resolver.Resolver) { c.resolver = res }

// SetTwoWay selects between two-way (default) and legacy one-way
// headers on outbound handshakes.
func (c *ClientAuthenticator) SetTwoWay(twoWay bool) { c.twoWay = twoWay }

// SetLogger overrides the logger.
func (c *ClientAuthenticator) SetLogger(logger *slog.Logger) {
	if logger != nil {
		c.logger = logger
	}
}

// DID returns the caller identity.
func (c *ClientAuthenticator) DID() did.DID { return c.creds.DID }

// Authenticate sends one authenticated request to responder. A cached
// token is tried first; on 401 the token is cleared and the call is
// retried exactly once with a freshly signed header. Any token in the
// response is written back to the sink keyed by responder.
func (c *ClientAuthenticator) Authenticate(ctx context.Context, method, url string, body []byte, responder did.DID) (*Response, error) {
	authz, usedToken, err := c.firstAuthorization(responder)
	if err != nil {
		return nil, err
	}

	resp, err := c.send(ctx, method, url, body, authz)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		drain(resp)
		if usedToken {
			c.sink.ClearToken(responder)
		}
		c.logger.Debug("retrying with fresh header", "responder", responder.String())
		fresh, err := header.Build(c.creds.DID, responder, c.creds.Key, c.twoWay)
		if err != nil {
			return nil, err
		}
		resp, err = c.send(ctx, method, url, body, fresh)
		if err != nil {
			return nil, err
		}
		// A second 401 is terminal; it falls through as the result.
	}

	return c.finish(ctx, resp, responder)
}

// firstAuthorization picks the cached token when present, a fresh
// signed header otherwise.
func (c *ClientAuthenticator) firstAuthorization(responder did.DID) (string, bool, error) {
	if value, ok := c.sink.Token(responder); ok {
		return BearerPrefix + value, true, nil
	}
	h, err := header.Build(c.creds.DID, responder, c.creds.Key, c.twoWay)
	if err != nil {
		return "", false, err
	}
	return h, false, nil
}

func (c *ClientAuthenticator) send(ctx context.Context, method, url string, body []byte, authz string) (*http.Response, error) {
	headers := http.Header{}
	headers.Set("Authorization", authz)
	switch method {
	case http.MethodGet:
		return c.client.Get(ctx, url, headers)
	default:
		return c.client.Post(ctx, url, body, headers)
	}
}

// finish reads the response, writes any returned token back into the
// sink, and verifies the responder's two-way proof when a resolver is
// configured.
func (c *ClientAuthenticator) finish(ctx context.Context, resp *http.Response, responder did.DID) (*Response, error) {
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, transport.WrapNetwork(err)
	}

	out := &Response{StatusCode: resp.StatusCode, Body: body}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if value, ok := strings.CutPrefix(resp.Header.Get("Authorization"), BearerPrefix); ok && value != "" {
			out.Token = value
			c.sink.StoreToken(responder, value)
		}
	}

	if raw := resp.Header.Get(header.ResponseHeaderName); raw != "" {
		peer, err := c.verifyPeerHeader(ctx, raw, responder)
		if err != nil {
			return nil, err
		}
		out.PeerHeader = peer
	}

	return out, nil
}

// verifyPeerHeader checks the responder's own proof: it must name the
// responder we called, carry a fresh timestamp, and verify against the
// responder's resolved document. Without a resolver only the shape and
// binding are checked.
func (c *ClientAuthenticator) verifyPeerHeader(ctx context.Context, raw string, responder did.DID) (*header.Header, error) {
	peer, err := header.Parse(raw)
	if err != nil {
		return nil, err
	}
	if peer.DID != responder {
		return nil, fmt.Errorf("%w: response header from %s, expected %s", keys.ErrSignature, peer.DID, responder)
	}
	if peer.TwoWay && peer.ResponderDID != c.creds.DID {
		return nil, fmt.Errorf("%w: response header bound to %s, not us", keys.ErrSignature, peer.ResponderDID)
	}
	if c.resolver == nil {
		return peer, nil
	}

	now := time.Now()
	if peer.Timestamp.Before(now.Add(-c.maxSkew)) || peer.Timestamp.After(now.Add(c.maxSkew)) {
		return nil, fmt.Errorf("%w: response header timestamp %s outside skew", keys.ErrSignature, peer.Timestamp)
	}
	doc, err := c.resolver.Resolve(ctx, responder)
	if err != nil {
		return nil, err
	}
	method, err := doc.FindMethod(peer.VerificationMethod)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", keys.ErrSignature, err)
	}
	pub, err := method.PublicKey()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", keys.ErrSignature, err)
	}
	digest, err := peer.Digest()
	if err != nil {
		return nil, err
	}
	if err := keys.Verify(pub, digest, peer.Signature); err != nil {
		return nil, err
	}
	return peer, nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseSize))
	resp.Body.Close()
}
