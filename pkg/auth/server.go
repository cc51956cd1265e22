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
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/agent-network-protocol/anp-go/pkg/did"
	"github.com/agent-network-protocol/anp-go/pkg/header"
	"github.com/agent-network-protocol/anp-go/pkg/keys"
	"github.com/agent-network-protocol/anp-go/pkg/nonce"
	"github.com/agent-network-protocol/anp-go/pkg/resolver"
	"github.com/agent-network-protocol/anp-go/pkg/token"
)

// State names the steps of the server-side verification machine. The
// value accompanying a rejection log is the step that failed.
type State string

const (
	StateReceived      State = "RECEIVED"
	StateParsed        State = "PARSED"
	StateTimestampOK   State = "TIMESTAMP_OK"
	StateNonceOK       State = "NONCE_OK"
	StateDIDResolved   State = "DID_RESOLVED"
	StateSignatureOK   State = "SIGNATURE_OK"
	StateAuthenticated State = "AUTHENTICATED"
	StateRejected      State = "REJECTED"
)

// BearerPrefix is the token scheme on the Authorization header.
const BearerPrefix = "Bearer "

// Result is a successful verification outcome.
type Result struct {
	// CallerDID is the verified peer identity.
	CallerDID did.DID

	// Token is the bearer credential issued or confirmed for the
	// caller; the HTTP layer returns its value to the peer.
	Token token.Token

	// ResponseHeader is the responder's own DIDWba proof, set only
	// when the request was a two-way handshake.
	ResponseHeader string

	// FastPath reports that a cached token was accepted in place of
	// full signature verification.
	FastPath bool
}

// ServerAuthenticator runs the verification state machine for one
// local identity. All shared state (nonce guard, token table) is
// injected so tests can instantiate isolated instances.
type ServerAuthenticator struct {
	creds    *did.Credentials
	resolver resolver.Resolver
	guard    *nonce.Guard
	tokens   *token.Service
	tokenTTL time.Duration
	logger   *slog.Logger
}

// NewServerAuthenticator creates an authenticator for the identity in
// creds. A nil guard or token service gets a fresh default instance; a
// nil logger selects slog.Default().
func NewServerAuthenticator(creds *did.Credentials, res resolver.Resolver, guard *nonce.Guard, tokens *token.Service, logger *slog.Logger) *ServerAuthenticator {
	if guard == nil {
		guard = nonce.NewGuard(0, 0)
	}
	if tokens == nil {
		tokens = token.NewService(0)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ServerAuthenticator{
		creds:    creds,
		resolver: res,
		guard:    guard,
		tokens:   tokens,
		tokenTTL: token.DefaultTTL,
		logger:   logger,
	}
}

// SetTokenTTL overrides the lifetime of issued tokens.
func (a *ServerAuthenticator) SetTokenTTL(ttl time.Duration) {
	if ttl > 0 {
		a.tokenTTL = ttl
	}
}

// DID returns the identity this authenticator verifies requests for.
func (a *ServerAuthenticator) DID() did.DID { return a.creds.DID }

// Tokens exposes the token table, for revocation by operators.
func (a *ServerAuthenticator) Tokens() *token.Service { return a.tokens }

// VerifyRequest authenticates an inbound HTTP request. A Bearer token
// takes the fast path; a DIDWba header runs the full state machine.
func (a *ServerAuthenticator) VerifyRequest(ctx context.Context, r *http.Request) (*Result, error) {
	authz := r.Header.Get("Authorization")
	if authz == "" {
		return nil, fmt.Errorf("%w: missing Authorization header", header.ErrParse)
	}
	if value, ok := strings.CutPrefix(authz, BearerPrefix); ok {
		return a.verifyToken(value)
	}
	return a.VerifyHeader(ctx, authz)
}

// verifyToken is the fast path: a previously issued, unexpired,
// unrevoked token is accepted without timestamp, nonce, or signature
// re-checking. The trade-off is deliberate: tokens never leave this
// process, so the trust window is bounded by the process lifetime and
// the token TTL.
func (a *ServerAuthenticator) verifyToken(value string) (*Result, error) {
	t, ok := a.tokens.Lookup(a.creds.DID, value)
	if !ok {
		a.logger.Debug("bearer token not recognized", "issuer", a.creds.DID.String())
		return nil, fmt.Errorf("%w: presented bearer value not on record", token.ErrUnknown)
	}
	t, err := a.tokens.Validate(a.creds.DID, t.Subject, value)
	if err != nil {
		a.logger.Warn("bearer token rejected", "subject", t.Subject.String(), "error", err)
		return nil, err
	}
	a.logger.Debug("fast path accepted", "caller", t.Subject.String())
	return &Result{CallerDID: t.Subject, Token: t, FastPath: true}, nil
}

// VerifyHeader runs the full state machine over a DIDWba header value:
//
//	RECEIVED → PARSED → TIMESTAMP_OK → NONCE_OK → DID_RESOLVED →
//	SIGNATURE_OK → AUTHENTICATED
//
// Any failing step rejects the attempt with its typed error. The
// nonce guard is consulted (and released) before the resolver runs, so
// no lock is held across the network call.
func (a *ServerAuthenticator) VerifyHeader(ctx context.Context, value string) (*Result, error) {
	h, err := header.Parse(value)
	if err != nil {
		return nil, a.reject(StateReceived, "", err)
	}
	caller := h.DID

	// A two-way proof is bound to one responder; a proof signed for
	// another peer must not be accepted here.
	if h.TwoWay && h.ResponderDID != a.creds.DID {
		return nil, a.reject(StateParsed, caller,
			fmt.Errorf("%w: header bound to %s, not %s", keys.ErrSignature, h.ResponderDID, a.creds.DID))
	}

	// The guard checks the timestamp before touching nonce state.
	if err := a.guard.CheckAndRecord(caller, h.Nonce, h.Timestamp); err != nil {
		return nil, a.reject(StateParsed, caller, err)
	}

	doc, err := a.resolver.Resolve(ctx, caller)
	if err != nil {
		return nil, a.reject(StateNonceOK, caller, err)
	}

	method, err := doc.FindMethod(h.VerificationMethod)
	if err != nil {
		return nil, a.reject(StateDIDResolved, caller, fmt.Errorf("%w: %v", keys.ErrSignature, err))
	}
	pub, err := method.PublicKey()
	if err != nil {
		return nil, a.reject(StateDIDResolved, caller, fmt.Errorf("%w: %v", keys.ErrSignature, err))
	}
	digest, err := h.Digest()
	if err != nil {
		return nil, a.reject(StateDIDResolved, caller, err)
	}
	if err := keys.Verify(pub, digest, h.Signature); err != nil {
		return nil, a.reject(StateDIDResolved, caller, err)
	}

	t, err := a.tokens.Issue(a.creds.DID, caller, a.tokenTTL)
	if err != nil {
		return nil, a.reject(StateSignatureOK, caller, err)
	}

	result := &Result{CallerDID: caller, Token: t}
	if h.TwoWay {
		respHeader, err := header.Build(a.creds.DID, caller, a.creds.Key, true)
		if err != nil {
			return nil, a.reject(StateSignatureOK, caller, err)
		}
		result.ResponseHeader = respHeader
	}

	a.logger.Debug("authenticated", "caller", caller.String(), "two_way", h.TwoWay)
	return result, nil
}

// reject logs the failing transition and passes the typed error up
// unchanged.
func (a *ServerAuthenticator) reject(from State, caller did.DID, err error) error {
	attrs := []any{"from", string(from), "to", string(StateRejected), "error", err}
	if caller != "" {
		attrs = append(attrs, "caller", caller.String())
	}
	a.logger.Warn("authentication rejected", attrs...)
	return err
}
