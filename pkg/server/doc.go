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

// Package server provides the HTTP middleware that fronts agent-scoped
// paths with DID-WBA authentication, plus the unauthenticated helper
// endpoints (health, DID document retrieval).
//
//	a := auth.NewServerAuthenticator(creds, chain, nil, nil, nil)
//	mw := server.NewMiddleware(a, nil)
//	mw.Exempt("/health", "/.well-known/did.json")
//
//	mux := http.NewServeMux()
//	mux.Handle("/health", server.HealthHandler())
//	mux.Handle("/.well-known/did.json", server.DIDDocumentHandler(creds.Document))
//	mux.Handle("/", agentHandler)
//	http.ListenAndServe(addr, mw.Wrap(mux))
//
// Handlers behind the middleware read the verified caller identity
// with auth.CallerDID(r.Context()).
package server
