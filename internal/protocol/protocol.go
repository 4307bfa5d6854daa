// Package protocol defines the JSON messages exchanged with game clients
// over a session's transport. Field names are camelCase and the envelope is
// a tagged union: exactly one member of each struct is populated.
package protocol

import "encoding/json"

// Request is an inbound client message: either a connection attempt or an
// opaque game action.
type Request struct {
	Connect    *Connect        `json:"connect,omitempty"`
	GameAction json.RawMessage `json:"gameAction,omitempty"`
}

// Connect carries either a reconnection token or signup details, never both.
type Connect struct {
	Token  string  `json:"token,omitempty"`
	Signup *Signup `json:"signup,omitempty"`
}

// Signup names a player and the room to join. The room is created if it does
// not exist yet.
type Signup struct {
	Name string `json:"name"`
	Room string `json:"room"`
}

// Response is an outbound server message: a success payload or an error,
// never both.
type Response struct {
	Success *Success   `json:"success,omitempty"`
	Error   *ErrorBody `json:"error,omitempty"`
}

// Success is the union of non-error payloads pushed to clients.
type Success struct {
	AuthenticationSuccess *AuthenticationSuccess `json:"authenticationSuccess,omitempty"`
	State                 json.RawMessage        `json:"state,omitempty"`
	Online                []string               `json:"online,omitempty"`
	Members               []string               `json:"members,omitempty"`
}

// AuthenticationSuccess confirms a Connect and echoes the session identity.
type AuthenticationSuccess struct {
	Token string `json:"token"`
	Room  string `json:"room"`
	Name  string `json:"name"`
}

// ErrorBody is a client-visible error with a machine-readable kind.
type ErrorBody struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// ErrorKind classifies client-visible errors.
type ErrorKind string

// Error kinds reported to clients.
const (
	KindJSONParse             ErrorKind = "jsonParse"
	KindMalformedRequest      ErrorKind = "malformedRequest"
	KindInvalidToken          ErrorKind = "invalidToken"
	KindNameAlreadyRegistered ErrorKind = "nameAlreadyRegistered"
	KindAuthenticationFailed  ErrorKind = "authenticationFailed"
	KindGameAlreadyStarted    ErrorKind = "gameAlreadyStarted"
	KindAlreadyLoggedIn       ErrorKind = "alreadyLoggedIn"
	KindEngine                ErrorKind = "engine"
)

// AuthSuccess builds the response confirming a successful Connect.
func AuthSuccess(token, room, name string) Response {
	return Response{Success: &Success{
		AuthenticationSuccess: &AuthenticationSuccess{Token: token, Room: room, Name: name},
	}}
}

// StateUpdate builds a state snapshot push.
func StateUpdate(snapshot json.RawMessage) Response {
	return Response{Success: &Success{State: snapshot}}
}

// OnlineSet builds an online-set push. The caller provides the names sorted.
func OnlineSet(names []string) Response {
	return Response{Success: &Success{Online: names}}
}

// MemberSet builds a membership-set push. The caller provides the names sorted.
func MemberSet(names []string) Response {
	return Response{Success: &Success{Members: names}}
}

// Errorf builds an error response of the given kind.
func Errorf(kind ErrorKind, message string) Response {
	return Response{Error: &ErrorBody{Kind: kind, Message: message}}
}
