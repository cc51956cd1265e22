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

// Package resolver turns DID strings into DID documents.
//
// Resolution is an explicit chain: a local fixture store is consulted
// first, then the did:wba document URL is fetched over HTTPS, then the
// well-known fallback. One cache sits in front of the chain, keyed by
// DID string; entries are never invalidated (document rotation is out
// of scope).
package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/agent-network-protocol/anp-go/pkg/did"
	"github.com/agent-network-protocol/anp-go/pkg/transport"
)

// ErrResolution reports a DID that could not be resolved by any step
// of the chain.
var ErrResolution = errors.New("DID resolution failed")

// maxDocumentSize bounds a fetched DID document.
const maxDocumentSize = 1 << 20

// Resolver resolves a DID to its document.
type Resolver interface {
	Resolve(ctx context.Context, d did.DID) (*did.Document, error)
}

// Local is an in-memory fixture resolver, used for tests, air-gapped
// deployments, and identities hosted by this very process. Safe for
// concurrent use.
type Local struct {
	mu   sync.RWMutex
	docs map[did.DID]*did.Document
}

// NewLocal creates an empty local resolver.
func NewLocal() *Local {
	return &Local{docs: make(map[did.DID]*did.Document)}
}

// Register stores a document fixture under its own DID.
func (l *Local) Register(doc *did.Document) error {
	d, err := did.Parse(doc.ID)
	if err != nil {
		return err
	}
	l.mu.Lock()
	l.docs[d] = doc
	l.mu.Unlock()
	return nil
}

// Resolve returns the fixture for d, or ErrResolution.
func (l *Local) Resolve(_ context.Context, d did.DID) (*did.Document, error) {
	l.mu.RLock()
	doc, ok := l.docs[d]
	l.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s not in local store", ErrResolution, d)
	}
	return doc, nil
}

// Chain is the production resolver: cache, then local store, then
// remote fetches. The local store wins over remote resolution and a
// remote result never overwrites a local fixture, so test and
// air-gapped outcomes do not depend on network reachability.
type Chain struct {
	local  *Local
	client *transport.Client
	logger *slog.Logger

	mu    sync.RWMutex
	cache map[did.DID]*did.Document
}

// NewChain creates a resolver chain. local may be nil; httpClient nil
// selects http.DefaultClient; logger nil selects slog.Default().
func NewChain(local *Local, httpClient *http.Client, logger *slog.Logger) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{
		local:  local,
		client: transport.NewClient(httpClient, 0),
		logger: logger,
		cache:  make(map[did.DID]*did.Document),
	}
}

// Resolve walks the chain. No lock is held across a network fetch;
// concurrent resolutions of the same DID may race to fill the cache,
// first write wins.
func (c *Chain) Resolve(ctx context.Context, d did.DID) (*did.Document, error) {
	c.mu.RLock()
	doc, ok := c.cache[d]
	c.mu.RUnlock()
	if ok {
		return doc, nil
	}

	if c.local != nil {
		if doc, err := c.local.Resolve(ctx, d); err == nil {
			return c.store(d, doc), nil
		}
	}

	doc, err := c.fetch(ctx, d)
	if err != nil {
		return nil, err
	}
	return c.store(d, doc), nil
}

// store inserts doc into the cache unless another resolution won the
// race, and returns the cached document either way.
func (c *Chain) store(d did.DID, doc *did.Document) *did.Document {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.cache[d]; ok {
		return existing
	}
	c.cache[d] = doc
	return doc
}

// fetch tries the DID's document URL, then the domain-root well-known
// fallback for path-scoped DIDs.
func (c *Chain) fetch(ctx context.Context, d did.DID) (*did.Document, error) {
	docURL, err := d.URL()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResolution, err)
	}

	doc, primaryErr := c.fetchURL(ctx, d, docURL)
	if primaryErr == nil {
		return doc, nil
	}

	// Legacy deployments serve path-scoped documents at the domain
	// root well-known location.
	if len(d.PathSegments()) > 0 {
		host, hostErr := d.HostPort()
		if hostErr == nil {
			fallbackURL := "https://" + host + did.WellKnownPath
			if doc, err := c.fetchURL(ctx, d, fallbackURL); err == nil {
				return doc, nil
			}
		}
	}

	c.logger.Warn("DID resolution failed", "did", d.String(), "url", docURL, "error", primaryErr)
	if errors.Is(primaryErr, transport.ErrNetwork) {
		// Keep the retryable marker visible to callers.
		return nil, fmt.Errorf("%w: %s: %w", ErrResolution, d, primaryErr)
	}
	return nil, fmt.Errorf("%w: %s: %v", ErrResolution, d, primaryErr)
}

// fetchURL retrieves and validates one candidate document location.
func (c *Chain) fetchURL(ctx context.Context, d did.DID, url string) (*did.Document, error) {
	resp, err := c.client.Get(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d fetching %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return nil, transport.WrapNetwork(err)
	}

	var doc did.Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("invalid DID document at %s: %w", url, err)
	}
	if doc.ID != d.String() {
		return nil, fmt.Errorf("document at %s declares id %q, want %q", url, doc.ID, d)
	}
	return &doc, nil
}
