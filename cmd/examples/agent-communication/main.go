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

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/agent-network-protocol/anp-go/pkg/auth"
	"github.com/agent-network-protocol/anp-go/pkg/did"
	"github.com/agent-network-protocol/anp-go/pkg/header"
	"github.com/agent-network-protocol/anp-go/pkg/resolver"
	"github.com/agent-network-protocol/anp-go/pkg/router"
)

// This example runs two agents in one process and walks a complete
// exchange between them: a signed two-way handshake, routed message
// dispatch, and a shared message session in the contact directory.
func main() {
	fmt.Println("=== Agent Communication Example ===")
	fmt.Println()

	// Step 1: Create both identities on different curves.
	alice, err := did.NewCredentials(did.DID("did:wba:alpha.example:agent:alice"), did.KeyTypeEd25519)
	if err != nil {
		log.Fatalf("failed to create alice: %v", err)
	}
	bob, err := did.NewCredentials(did.DID("did:wba:bravo.example:agent:bob"), did.KeyTypeSecp256k1)
	if err != nil {
		log.Fatalf("failed to create bob: %v", err)
	}
	fmt.Println("Step 1: Identities created")
	fmt.Printf("  alice: %s (ed25519)\n", alice.DID)
	fmt.Printf("  bob:   %s (secp256k1)\n\n", bob.DID)

	// Step 2: Both agents share a local resolver, standing in for the
	// HTTPS document fetch.
	local := resolver.NewLocal()
	if err := local.Register(alice.Document); err != nil {
		log.Fatalf("failed to register alice document: %v", err)
	}
	if err := local.Register(bob.Document); err != nil {
		log.Fatalf("failed to register bob document: %v", err)
	}
	fmt.Println("Step 2: DID documents registered with the resolver")
	fmt.Println()

	// Step 3: Register both agents with message handlers.
	rt := router.New(nil)
	agentAlice := router.NewLocalAgent(alice.DID, "alice")
	agentBob := router.NewLocalAgent(bob.DID, "bob")

	agentBob.HandleMessage("greeting", func(ctx context.Context, req *router.Request) (*router.Response, error) {
		fmt.Printf("  [bob] greeting from %s: %s\n", req.Caller, req.Body)
		return &router.Response{Status: http.StatusOK, Body: []byte("hello back")}, nil
	})
	for _, a := range []*router.LocalAgent{agentAlice, agentBob} {
		if err := rt.Register(a); err != nil {
			log.Fatalf("failed to register %s: %v", a.Name(), err)
		}
	}
	fmt.Println("Step 3: Agents registered, bob handles \"greeting\" messages")
	fmt.Println()

	// Step 4: Alice authenticates to bob with a two-way header and bob
	// verifies it, issuing a token and proving his own identity back.
	bobAuth := auth.NewServerAuthenticator(bob, local, nil, nil, nil)

	value, err := header.Build(alice.DID, bob.DID, alice.Key, true)
	if err != nil {
		log.Fatalf("failed to build header: %v", err)
	}
	result, err := bobAuth.VerifyHeader(context.Background(), value)
	if err != nil {
		log.Fatalf("verification failed: %v", err)
	}
	fmt.Println("Step 4: Handshake verified")
	fmt.Printf("  caller:  %s\n", result.CallerDID)
	fmt.Printf("  token:   %s...\n", result.Token.Value[:12])

	peer, err := header.Parse(result.ResponseHeader)
	if err != nil {
		log.Fatalf("failed to parse response proof: %v", err)
	}
	fmt.Printf("  bob's proof names alice: %s\n\n", peer.ResponderDID)

	// Step 5: Route a message as the authenticated caller.
	ctx := auth.WithCallerDID(context.Background(), result.CallerDID)
	resp, err := rt.Route(ctx, bob.DID, &router.Request{
		Kind:        router.KindMessage,
		MessageType: "greeting",
		Body:        []byte("hi bob, alice here"),
	})
	if err != nil {
		log.Fatalf("routing failed: %v", err)
	}
	fmt.Println("Step 5: Message routed")
	fmt.Printf("  reply: %s\n\n", resp.Body)

	// Step 6: Record the conversation in a shared session.
	session := agentAlice.Contacts().CreateSession(alice.DID, bob.DID)
	mustAppend := func(from did.DID, text string) {
		if err := agentAlice.Contacts().AppendMessage(session, from, []byte(text)); err != nil {
			log.Fatalf("failed to append message: %v", err)
		}
	}
	mustAppend(alice.DID, "hi bob, alice here")
	mustAppend(bob.DID, "hello back")
	if err := agentAlice.Contacts().CloseSession(session); err != nil {
		log.Fatalf("failed to close session: %v", err)
	}

	s, _ := agentAlice.Contacts().GetSession(session)
	fmt.Printf("Step 6: Session %s (%s)\n", s.ID, s.Status)
	for i, m := range s.Messages {
		fmt.Printf("  %d. %s: %s\n", i+1, m.From, m.Content)
	}
	fmt.Println()

	// Step 7: Bob's side remembers the interaction.
	if c, ok := agentBob.Contacts().GetContact(alice.DID); ok {
		fmt.Printf("Step 7: Bob's contact entry for alice: interactions=%d\n", c.InteractionCount)
	}
}
