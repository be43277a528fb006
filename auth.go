package main

import (
	"crypto/subtle"
	"errors"
	"sync"
)

// GateState tracks where the admin gate is in its unlock cycle.
type GateState int

const (
	// GateClosed: no edit session, site is read-only.
	GateClosed GateState = iota
	// GateLocked: an edit session is open but the password prompt has not
	// been passed yet.
	GateLocked
	// GateUnlocked: the password matched; edits are accepted.
	GateUnlocked
)

func (s GateState) String() string {
	switch s {
	case GateClosed:
		return "closed"
	case GateLocked:
		return "locked"
	case GateUnlocked:
		return "unlocked"
	default:
		return "unknown"
	}
}

// ErrNotUnlocked rejects edit operations while the gate is closed or still
// locked.
var ErrNotUnlocked = errors.New("admin gate is not unlocked")

// AuthGate is the lock/unlock state machine in front of edit sessions.
//
// This is a cosmetic gate, not a security boundary: the secret is a plain
// shared string compared verbatim, and anyone inspecting the running client
// or its traffic can recover it. It keeps casual visitors out of the editor
// and nothing more; never put anything sensitive behind it.
type AuthGate struct {
	secret string
	store  *ContentStore

	mu      sync.Mutex
	state   GateState
	session *EditSession
}

// NewAuthGate builds a gate over the store using the configured shared
// secret.
func NewAuthGate(secret string, store *ContentStore) *AuthGate {
	return &AuthGate{secret: secret, store: store}
}

// State returns the current gate state.
func (g *AuthGate) State() GateState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Trigger moves the gate to Locked and opens a fresh edit session seeded
// from the store. Only one session exists at a time: any prior session is
// cancelled and its unsaved edits are discarded.
func (g *AuthGate) Trigger() *EditSession {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.session != nil {
		g.session.Cancel()
	}
	g.session = openEditSession(g.store)
	g.state = GateLocked
	return g.session
}

// Verify compares candidate against the shared secret. A match moves
// Locked to Unlocked; a mismatch (including empty or partial input) keeps
// the gate locked. Comparison is constant-time, which costs nothing even
// though the gate is explicitly not a security boundary.
func (g *AuthGate) Verify(candidate string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != GateLocked {
		return false
	}
	if subtle.ConstantTimeCompare([]byte(candidate), []byte(g.secret)) != 1 {
		return false
	}
	g.state = GateUnlocked
	return true
}

// Session returns the live edit session, or ErrNotUnlocked when the gate is
// not in the Unlocked state.
func (g *AuthGate) Session() (*EditSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != GateUnlocked || g.session == nil {
		return nil, ErrNotUnlocked
	}
	return g.session, nil
}

// Commit commits the live session into the store and closes the gate. On a
// persistence failure the gate stays unlocked and the session stays live so
// the admin can retry.
func (g *AuthGate) Commit() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != GateUnlocked || g.session == nil {
		return ErrNotUnlocked
	}
	if err := g.session.Commit(); err != nil {
		return err
	}
	g.session = nil
	g.state = GateClosed
	return nil
}

// Cancel discards the live session (if any) and closes the gate.
func (g *AuthGate) Cancel() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.session != nil {
		g.session.Cancel()
		g.session = nil
	}
	g.state = GateClosed
}

// applyIfLive runs fn against the session identified by token, but only if
// that session is still the live one. Stale tokens — the session was
// committed, cancelled or superseded since the token was captured — are
// reported via ErrStaleIngest so late async results get discarded instead of
// mutating dead state.
func (g *AuthGate) applyIfLive(token string, fn func(*EditSession) error) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.session == nil || g.session.Closed() || g.session.Token() != token {
		return ErrStaleIngest
	}
	return fn(g.session)
}
