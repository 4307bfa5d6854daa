// Package engine defines the capability boundary between the session router
// and a game-rules engine. One Engine instance backs one room; the router
// never reaches into game rules beyond this interface.
package engine

import (
	"bytes"
	"encoding/json"
)

// Engine is a per-room game state machine. Implementations are not required
// to be safe for concurrent use: the router guarantees at most one in-flight
// call per instance.
type Engine interface {
	// Signup registers a new player and issues a fresh token.
	// Fails with a NameAlreadyRegisteredError on duplicate names, or with
	// ErrGameAlreadyStarted once the engine no longer accepts signups.
	Signup(name string) (Token, error)

	// Login authenticates a token issued by this instance and returns a
	// permission scoped to that player's viewpoint.
	// Fails with ErrAuthenticationFailed for tokens this instance never issued.
	Login(token Token) (Permission, error)

	// Name reports the player name bound to the given token, if any.
	Name(token Token) (string, bool)

	// Players returns the names of all players ever signed up, online or not.
	Players() []string
}

// Permission is the capability obtained by presenting a token to an Engine.
// All game effects and all state reads flow through it.
type Permission interface {
	// Execute applies one engine-defined action. The payload is opaque to
	// the router.
	Execute(action json.RawMessage) error

	// ViewState renders everything this token's player is permitted to see.
	// Filtering is the engine's responsibility; callers compare snapshots
	// with State.Equal and must not assume any particular shape.
	ViewState() State
}

// Factory creates a fresh Engine for a newly opened room.
type Factory func() Engine

// State is a viewer-filtered snapshot of room state, pre-serialized as JSON
// by the engine so that snapshots are value-comparable.
type State []byte

// Equal reports whether two snapshots are byte-identical.
func (s State) Equal(other State) bool {
	return bytes.Equal(s, other)
}
