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

package transport

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/agent-network-protocol/anp-go/pkg/did"
	"github.com/agent-network-protocol/anp-go/pkg/header"
)

// DialWebSocket opens a WebSocket connection with a DIDWba proof on
// the upgrade request, so the responder's middleware authenticates the
// handshake before the connection is established.
func DialWebSocket(ctx context.Context, wsURL string, caller, responder did.DID, kp did.KeyPair, twoWay bool) (*websocket.Conn, *http.Response, error) {
	value, err := header.Build(caller, responder, kp, twoWay)
	if err != nil {
		return nil, nil, err
	}

	dialer := websocket.Dialer{HandshakeTimeout: DefaultTimeout}
	reqHeader := http.Header{}
	reqHeader.Set("Authorization", value)

	conn, resp, err := dialer.DialContext(ctx, wsURL, reqHeader)
	if err != nil {
		return nil, resp, WrapNetwork(err)
	}
	return conn, resp, nil
}

// NewUpgrader returns a WebSocket upgrader for handlers sitting behind
// the authentication middleware. Origin checking is left to the
// middleware's exempt-path policy.
func NewUpgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		HandshakeTimeout: DefaultTimeout,
		ReadBufferSize:   4096,
		WriteBufferSize:  4096,
		CheckOrigin:      func(r *http.Request) bool { return true },
	}
}

// KeepAlive sends periodic pings until ctx is cancelled. Callers run
// it in its own goroutine for long-lived agent sessions.
func KeepAlive(ctx context.Context, conn *websocket.Conn, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deadline := time.Now().Add(interval / 2)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		}
	}
}
