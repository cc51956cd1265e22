// Package nonce implements the replay guard: a retention-windowed set
// of (did, nonce) pairs with an atomic check-and-record operation.
package nonce

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/agent-network-protocol/anp-go/pkg/did"
)

// Default retention and skew windows, matching the reference DID-WBA
// constants.
const (
	DefaultMaxSkew = 5 * time.Minute
	DefaultTTL     = 6 * time.Minute
)

// ErrTimestamp reports a request timestamp outside the allowed clock
// skew window.
var ErrTimestamp = errors.New("timestamp outside allowed skew")

// ErrReplay reports a (did, nonce) pair seen before within the
// retention window.
var ErrReplay = errors.New("nonce replayed")

// Guard records seen nonces. Safe for concurrent use; the check and
// the insert are a single atomic operation, so two simultaneous
// presentations of the same nonce yield exactly one success.
type Guard struct {
	mu      sync.Mutex
	seen    map[string]time.Time
	maxSkew time.Duration
	ttl     time.Duration
	now     func() time.Time
}

// NewGuard creates a guard. Zero durations select the defaults.
func NewGuard(maxSkew, ttl time.Duration) *Guard {
	if maxSkew <= 0 {
		maxSkew = DefaultMaxSkew
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Guard{
		seen:    make(map[string]time.Time),
		maxSkew: maxSkew,
		ttl:     ttl,
		now:     time.Now,
	}
}

// CheckAndRecord validates the timestamp against the skew window and
// then atomically tests-and-inserts the (did, nonce) pair. The
// timestamp is checked first so a stale request never consumes nonce
// state.
func (g *Guard) CheckAndRecord(d did.DID, nonce string, ts time.Time) error {
	now := g.now()
	if ts.Before(now.Add(-g.maxSkew)) || ts.After(now.Add(g.maxSkew)) {
		return fmt.Errorf("%w: timestamp %s, now %s, max skew %s",
			ErrTimestamp, ts.UTC().Format(time.RFC3339), now.UTC().Format(time.RFC3339), g.maxSkew)
	}

	key := string(d) + "\x00" + nonce

	g.mu.Lock()
	defer g.mu.Unlock()
	g.prune(now)
	if firstSeen, ok := g.seen[key]; ok && now.Sub(firstSeen) < g.ttl {
		return fmt.Errorf("%w: nonce %q for %s", ErrReplay, nonce, d)
	}
	g.seen[key] = now
	return nil
}

// Len reports the number of retained entries. Mostly for tests.
func (g *Guard) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.seen)
}

// prune lazily discards expired entries. Called with g.mu held.
func (g *Guard) prune(now time.Time) {
	for key, firstSeen := range g.seen {
		if now.Sub(firstSeen) >= g.ttl {
			delete(g.seen, key)
		}
	}
}
