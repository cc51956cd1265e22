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
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/agent-network-protocol/anp-go/pkg/auth"
	"github.com/agent-network-protocol/anp-go/pkg/did"
	"github.com/agent-network-protocol/anp-go/pkg/resolver"
	"github.com/agent-network-protocol/anp-go/pkg/router"
	"github.com/agent-network-protocol/anp-go/pkg/server"
)

// This example hosts a single agent behind DID-WBA authentication:
// it generates an identity, publishes the DID document at the
// well-known location, and serves an echo API that only verified
// callers can reach.
func main() {
	addr := flag.String("addr", ":8080", "listen address")
	agentID := flag.String("did", "did:wba:localhost%3A8080", "agent DID")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	fmt.Println("=== Simple Agent Example ===")
	fmt.Println()

	// Step 1: Create the agent identity.
	d, err := did.Parse(*agentID)
	if err != nil {
		log.Fatalf("invalid DID: %v", err)
	}
	creds, err := did.NewCredentials(d, did.KeyTypeEd25519)
	if err != nil {
		log.Fatalf("failed to create credentials: %v", err)
	}
	fmt.Printf("Step 1: Agent identity created\n")
	fmt.Printf("  DID: %s\n\n", creds.DID)

	// Step 2: Show the DID document that peers will resolve.
	docJSON, _ := json.MarshalIndent(creds.Document, "  ", "  ")
	fmt.Printf("Step 2: DID document (served at %s)\n", did.WellKnownPath)
	fmt.Printf("  %s\n\n", docJSON)

	// Step 3: Register the agent and its API handlers.
	rt := router.New(logger)
	agent := router.NewLocalAgent(creds.DID, "simple-agent")
	agent.HandleAPI("/api/echo", func(ctx context.Context, req *router.Request) (*router.Response, error) {
		logger.Info("echo request", "caller", req.Caller.String(), "bytes", len(req.Body))
		return &router.Response{Status: http.StatusOK, Body: req.Body}, nil
	})
	if err := rt.Register(agent); err != nil {
		log.Fatalf("failed to register agent: %v", err)
	}
	fmt.Println("Step 3: Agent registered with handler for /api/echo")
	fmt.Println()

	// Step 4: Wire the authentication middleware. Callers resolve to
	// documents fetched over HTTPS; the well-known and health paths
	// stay open.
	chain := resolver.NewChain(nil, nil, logger)
	authenticator := auth.NewServerAuthenticator(creds, chain, nil, nil, logger)
	mw := server.NewMiddleware(authenticator, logger)
	mw.Exempt(did.WellKnownPath, "/health")

	mux := http.NewServeMux()
	mux.Handle(did.WellKnownPath, server.DIDDocumentHandler(creds.Document))
	mux.Handle("/health", server.HealthHandler())
	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		resp, err := rt.Route(r.Context(), creds.DID, &router.Request{
			Kind: router.KindAPI,
			Path: r.URL.Path,
			Body: body,
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		w.WriteHeader(resp.Status)
		w.Write(resp.Body)
	})

	fmt.Printf("Step 4: Listening on %s\n", *addr)
	fmt.Println("  Authenticated endpoint: POST /api/echo")
	fmt.Printf("  Open endpoints: GET /health, GET %s\n", did.WellKnownPath)

	if err := http.ListenAndServe(*addr, mw.Wrap(mux)); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
