package server

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/agent-network-protocol/anp-go/pkg/auth"
	"github.com/agent-network-protocol/anp-go/pkg/header"
)

// ErrorHandler renders an authentication failure to the client.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// Middleware authenticates inbound requests with the DID-WBA state
// machine before they reach agent handlers. Exempt paths (health
// check, DID document retrieval) and CORS preflight OPTIONS requests
// bypass authentication.
type Middleware struct {
	auth         *auth.ServerAuthenticator
	exempt       map[string]struct{}
	errorHandler ErrorHandler
	logger       *slog.Logger
}

// NewMiddleware creates authentication middleware around the given
// authenticator.
func NewMiddleware(a *auth.ServerAuthenticator, logger *slog.Logger) *Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return &Middleware{
		auth:         a,
		exempt:       make(map[string]struct{}),
		errorHandler: defaultErrorHandler,
		logger:       logger,
	}
}

// SetErrorHandler sets a custom error handler.
func (m *Middleware) SetErrorHandler(handler ErrorHandler) {
	if handler != nil {
		m.errorHandler = handler
	}
}

// Exempt adds paths that bypass authentication. Exact match only.
// Not synchronized: call it during setup, before the wrapped handler
// starts serving requests.
func (m *Middleware) Exempt(paths ...string) {
	for _, p := range paths {
		m.exempt[p] = struct{}{}
	}
}

// Wrap wraps an HTTP handler with DID-WBA authentication. On success
// the verified caller DID is attached to the request context, the
// issued token is returned on the Authorization response header, and a
// two-way handshake additionally gets the responder's own proof.
func (m *Middleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Skip verification for OPTIONS requests (CORS preflight).
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}
		if _, ok := m.exempt[r.URL.Path]; ok {
			next.ServeHTTP(w, r)
			return
		}

		result, err := m.auth.VerifyRequest(r.Context(), r)
		if err != nil {
			m.errorHandler(w, r, err)
			return
		}

		w.Header().Set("Authorization", auth.BearerPrefix+result.Token.Value)
		if result.ResponseHeader != "" {
			w.Header().Set(header.ResponseHeaderName, result.ResponseHeader)
		}

		ctx := auth.WithCallerDID(r.Context(), result.CallerDID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// defaultErrorHandler surfaces the rejection reason with a 401; the
// server never retries an attempt on the caller's behalf.
func defaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	http.Error(w, fmt.Sprintf("Unauthorized: %s", err.Error()), http.StatusUnauthorized)
}
