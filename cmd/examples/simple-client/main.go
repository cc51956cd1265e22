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
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/agent-network-protocol/anp-go/pkg/auth"
	"github.com/agent-network-protocol/anp-go/pkg/contact"
	"github.com/agent-network-protocol/anp-go/pkg/did"
	"github.com/agent-network-protocol/anp-go/pkg/resolver"
)

// This example authenticates to an agent hosted by the simple-agent
// example: a signed DID-WBA handshake on the first call, then bearer
// token reuse on the calls after it.
func main() {
	serverURL := flag.String("url", "http://localhost:8080", "agent base URL")
	serverDID := flag.String("server-did", "did:wba:localhost%3A8080", "agent DID")
	callerDID := flag.String("did", "did:wba:localhost%3A9000:user:demo", "caller DID")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	fmt.Println("=== Simple Client Example ===")
	fmt.Println()

	// Step 1: Create the caller identity. A real deployment loads
	// provisioned credentials from disk (did.Store.LoadFiles); for the
	// demo a fresh key pair is enough, the server resolves us through
	// its configured resolver.
	caller, err := did.Parse(*callerDID)
	if err != nil {
		log.Fatalf("invalid caller DID: %v", err)
	}
	creds, err := did.NewCredentials(caller, did.KeyTypeEd25519)
	if err != nil {
		log.Fatalf("failed to create credentials: %v", err)
	}
	fmt.Printf("Step 1: Caller identity created\n")
	fmt.Printf("  DID: %s\n\n", creds.DID)

	responder, err := did.Parse(*serverDID)
	if err != nil {
		log.Fatalf("invalid server DID: %v", err)
	}

	// Step 2: Wire the client authenticator. The contact manager is
	// the token sink, so successful handshakes populate the peer
	// directory automatically.
	contacts := contact.NewManager(creds.DID)
	client := auth.NewClientAuthenticator(creds, nil)
	client.SetTokenSink(contacts)
	client.SetResolver(resolver.NewChain(nil, nil, logger))
	client.SetLogger(logger)
	fmt.Println("Step 2: Client authenticator ready (two-way mode)")
	fmt.Println()

	// Step 3: First call performs the full signed handshake.
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	resp, err := client.Authenticate(ctx, http.MethodPost, *serverURL+"/api/echo", []byte(`{"hello":"agent"}`), responder)
	if err != nil {
		log.Fatalf("handshake failed: %v", err)
	}
	fmt.Printf("Step 3: Handshake complete\n")
	fmt.Printf("  Status: %d\n", resp.StatusCode)
	fmt.Printf("  Body:   %s\n", resp.Body)
	fmt.Printf("  Token:  %s...\n", resp.Token[:12])
	if resp.PeerHeader != nil {
		fmt.Printf("  Responder proved identity: %s\n", resp.PeerHeader.DID)
	}
	fmt.Println()

	// Step 4: Second call rides the cached token, no signature.
	resp, err = client.Authenticate(ctx, http.MethodPost, *serverURL+"/api/echo", []byte(`{"hello":"again"}`), responder)
	if err != nil {
		log.Fatalf("token call failed: %v", err)
	}
	fmt.Printf("Step 4: Fast-path call complete\n")
	fmt.Printf("  Status: %d\n", resp.StatusCode)
	fmt.Println()

	// Step 5: Inspect the contact directory.
	fmt.Println("Step 5: Contact directory")
	for _, c := range contacts.Contacts() {
		fmt.Printf("  %s  interactions=%d  lastSeen=%s\n",
			c.DID, c.InteractionCount, c.LastSeenAt.Format(time.RFC3339))
	}
}
