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

// Package auth orchestrates DID-WBA authentication on both sides of a
// request.
//
// # Server side
//
// ServerAuthenticator runs the verification state machine over an
// inbound Authorization header, with a fast path for previously
// issued bearer tokens:
//
//	a := auth.NewServerAuthenticator(creds, chain, nil, nil, nil)
//	result, err := a.VerifyRequest(ctx, req)
//	if err != nil {
//	    // terminal: surface as 401 with the reason
//	}
//	// result.CallerDID is verified; result.Token goes back to the peer
//
// # Client side
//
// ClientAuthenticator sends authenticated requests, reusing cached
// tokens and retrying exactly once on 401 with a freshly signed
// header:
//
//	c := auth.NewClientAuthenticator(creds, nil)
//	resp, err := c.Authenticate(ctx, "POST", url, body, responderDID)
//
// Tokens returned by peers are written back through the TokenSink,
// typically a contact.Manager.
package auth
