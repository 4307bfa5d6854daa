package engine

import (
	"errors"
	"fmt"
)

// ErrAuthenticationFailed is returned by Login when the token was never
// issued by this engine instance.
var ErrAuthenticationFailed = errors.New("authentication failed")

// ErrGameAlreadyStarted is returned when an operation is only valid before
// the game starts, such as a late signup.
var ErrGameAlreadyStarted = errors.New("the game has already started")

// NameAlreadyRegisteredError is returned by Signup when the requested player
// name is taken within the room.
type NameAlreadyRegisteredError struct {
	Name string
}

func (e *NameAlreadyRegisteredError) Error() string {
	return fmt.Sprintf("name %q is already registered", e.Name)
}
