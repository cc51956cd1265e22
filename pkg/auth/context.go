package auth

import (
	"context"

	"github.com/agent-network-protocol/anp-go/pkg/did"
)

type contextKey string

const callerDIDKey contextKey = "caller_did"

// WithCallerDID attaches a verified caller identity to the context.
// Set by the server middleware; downstream handlers never re-derive
// trust.
func WithCallerDID(ctx context.Context, caller did.DID) context.Context {
	return context.WithValue(ctx, callerDIDKey, caller)
}

// CallerDID extracts the verified caller identity from the context.
func CallerDID(ctx context.Context) (did.DID, bool) {
	caller, ok := ctx.Value(callerDIDKey).(did.DID)
	return caller, ok
}
