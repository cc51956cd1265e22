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

package router

import (
	"context"
	"fmt"
	"sync"

	"github.com/agent-network-protocol/anp-go/pkg/contact"
	"github.com/agent-network-protocol/anp-go/pkg/did"
)

// RequestKind selects the handler table a request dispatches through.
type RequestKind string

const (
	KindAPI     RequestKind = "api"
	KindMessage RequestKind = "message"
	KindGroup   RequestKind = "group"
)

// Request is a verified unit of work for a local agent. Caller is the
// authenticated peer identity, attached by the router from the
// request context.
type Request struct {
	Kind RequestKind

	// Path keys API requests, MessageType keys messages, GroupID
	// keys group events; only the one matching Kind is set.
	Path        string
	MessageType string
	GroupID     string

	Caller did.DID
	Body   []byte
}

// Response is the handler's reply.
type Response struct {
	Status int
	Body   []byte
}

// APIHandler serves one API path of an agent.
type APIHandler func(ctx context.Context, req *Request) (*Response, error)

// MessageHandler serves one message type of an agent.
type MessageHandler func(ctx context.Context, req *Request) (*Response, error)

// GroupHandler serves one group's events for an agent.
type GroupHandler func(ctx context.Context, req *Request) (*Response, error)

// LocalAgent is one identity hosted by this process, with its typed
// handler tables and its contact directory. Handlers are registered
// at construction time with typed calls, not injected dynamically.
type LocalAgent struct {
	id       did.DID
	name     string
	contacts *contact.Manager

	mu            sync.RWMutex
	apiHandlers   map[string]APIHandler
	msgHandlers   map[string]MessageHandler
	groupHandlers map[string]GroupHandler
}

// NewLocalAgent creates an agent for the given identity.
func NewLocalAgent(id did.DID, name string) *LocalAgent {
	return &LocalAgent{
		id:            id,
		name:          name,
		contacts:      contact.NewManager(id),
		apiHandlers:   make(map[string]APIHandler),
		msgHandlers:   make(map[string]MessageHandler),
		groupHandlers: make(map[string]GroupHandler),
	}
}

// DID returns the agent's identity.
func (a *LocalAgent) DID() did.DID { return a.id }

// Name returns the agent's display name.
func (a *LocalAgent) Name() string { return a.name }

// Contacts returns the agent's peer directory.
func (a *LocalAgent) Contacts() *contact.Manager { return a.contacts }

// HandleAPI registers a handler for an API path.
func (a *LocalAgent) HandleAPI(path string, h APIHandler) {
	a.mu.Lock()
	a.apiHandlers[path] = h
	a.mu.Unlock()
}

// HandleMessage registers a handler for a message type.
func (a *LocalAgent) HandleMessage(messageType string, h MessageHandler) {
	a.mu.Lock()
	a.msgHandlers[messageType] = h
	a.mu.Unlock()
}

// HandleGroup registers a handler for a group ID.
func (a *LocalAgent) HandleGroup(groupID string, h GroupHandler) {
	a.mu.Lock()
	a.groupHandlers[groupID] = h
	a.mu.Unlock()
}

// Dispatch looks up the handler for the request and invokes it. The
// contact directory records the interaction on success.
func (a *LocalAgent) Dispatch(ctx context.Context, req *Request) (*Response, error) {
	var h func(context.Context, *Request) (*Response, error)
	var key string

	a.mu.RLock()
	switch req.Kind {
	case KindAPI:
		key = req.Path
		if fn, ok := a.apiHandlers[key]; ok {
			h = fn
		}
	case KindMessage:
		key = req.MessageType
		if fn, ok := a.msgHandlers[key]; ok {
			h = fn
		}
	case KindGroup:
		key = req.GroupID
		if fn, ok := a.groupHandlers[key]; ok {
			h = fn
		}
	}
	a.mu.RUnlock()

	if h == nil {
		return nil, fmt.Errorf("agent %s has no %s handler for %q", a.id, req.Kind, key)
	}

	resp, err := h(ctx, req)
	if err != nil {
		return nil, err
	}
	if req.Caller != "" {
		a.contacts.RecordInteraction(req.Caller)
	}
	return resp, nil
}
