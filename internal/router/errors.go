package router

import (
	"errors"

	"github.com/gw31415/werewolf-web/internal/engine"
	"github.com/gw31415/werewolf-web/internal/protocol"
)

// ErrInvalidToken is returned when a token is unknown to the Router, either
// because it was never issued or because its room has been destroyed.
var ErrInvalidToken = errors.New("invalid token")

// ErrStopped is returned for operations issued against a stopped Router.
var ErrStopped = errors.New("router stopped")

// ErrorResponse maps a router or engine error to the client-visible error
// envelope. Unrecognized errors are reported with the generic engine kind.
func ErrorResponse(err error) protocol.Response {
	var nameErr *engine.NameAlreadyRegisteredError
	switch {
	case errors.Is(err, ErrInvalidToken):
		return protocol.Errorf(protocol.KindInvalidToken, err.Error())
	case errors.As(err, &nameErr):
		return protocol.Errorf(protocol.KindNameAlreadyRegistered, nameErr.Error())
	case errors.Is(err, engine.ErrGameAlreadyStarted):
		return protocol.Errorf(protocol.KindGameAlreadyStarted, err.Error())
	case errors.Is(err, engine.ErrAuthenticationFailed):
		return protocol.Errorf(protocol.KindAuthenticationFailed, err.Error())
	default:
		return protocol.Errorf(protocol.KindEngine, err.Error())
	}
}
