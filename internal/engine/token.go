package engine

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// TokenSize is the fixed length of a session token in bytes.
const TokenSize = 32

// Token is an opaque, unguessable session identifier issued by an Engine at
// signup. It is stable for the lifetime of the owning room and serialized to
// clients in standard base64.
type Token [TokenSize]byte

// NewToken generates a fresh token from the system CSPRNG.
//
// Postcondition: Returns a uniformly random token or a non-nil error.
func NewToken() (Token, error) {
	var t Token
	if _, err := rand.Read(t[:]); err != nil {
		return Token{}, fmt.Errorf("generating token: %w", err)
	}
	return t, nil
}

// String returns the token's base64 wire encoding.
func (t Token) String() string {
	return base64.StdEncoding.EncodeToString(t[:])
}

// ParseToken decodes a base64 token string. Any input that does not decode
// to exactly TokenSize bytes is rejected; there is no partial acceptance.
func ParseToken(s string) (Token, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return Token{}, fmt.Errorf("decoding token: %w", err)
	}
	if len(raw) != TokenSize {
		return Token{}, fmt.Errorf("token must be %d bytes, got %d", TokenSize, len(raw))
	}
	var t Token
	copy(t[:], raw)
	return t, nil
}
