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

// Package router maps responder DIDs to locally registered agents and
// dispatches already-authenticated requests. The registry is an
// explicit store object constructed once and injected where needed,
// never process-global state.
package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/agent-network-protocol/anp-go/pkg/auth"
	"github.com/agent-network-protocol/anp-go/pkg/did"
)

// ErrUnknownAgent reports a route to a DID with no registered agent.
var ErrUnknownAgent = errors.New("no agent registered for DID")

// ErrAlreadyRegistered reports a second registration for a DID.
var ErrAlreadyRegistered = errors.New("agent already registered for DID")

// Router is the did → LocalAgent registry. Registration is
// append-only; under concurrent startup exactly one registration per
// DID wins and the rest get ErrAlreadyRegistered.
type Router struct {
	mu     sync.RWMutex
	agents map[did.DID]*LocalAgent
	logger *slog.Logger
}

// New creates an empty router.
func New(logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		agents: make(map[did.DID]*LocalAgent),
		logger: logger,
	}
}

// Register adds an agent to the registry. First write wins.
func (r *Router) Register(agent *LocalAgent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.agents[agent.DID()]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, agent.DID())
	}
	r.agents[agent.DID()] = agent
	r.logger.Debug("agent registered", "did", agent.DID().String(), "name", agent.Name())
	return nil
}

// Get returns the agent registered for d.
func (r *Router) Get(d did.DID) (*LocalAgent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	agent, ok := r.agents[d]
	return agent, ok
}

// Agents lists the registered agents.
func (r *Router) Agents() []*LocalAgent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*LocalAgent, 0, len(r.agents))
	for _, a := range r.agents {
		out = append(out, a)
	}
	return out
}

// Route dispatches a verified request to the agent registered for
// target. The caller identity is taken from ctx (set by the server
// middleware) and attached to the request before the handler runs, so
// downstream business logic never re-derives trust. An unknown target
// returns ErrUnknownAgent with no dispatch.
func (r *Router) Route(ctx context.Context, target did.DID, req *Request) (*Response, error) {
	r.mu.RLock()
	agent, ok := r.agents[target]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAgent, target)
	}

	if caller, ok := auth.CallerDID(ctx); ok {
		req.Caller = caller
	}
	return agent.Dispatch(ctx, req)
}
