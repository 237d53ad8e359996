package models

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// TokenType distinguishes short-lived access tokens from long-lived refresh
// tokens. It is embedded in every issued JWT as the "typ" claim.
type TokenType string

const (
	// AccessToken authorizes API calls on behalf of a user.
	AccessToken TokenType = "access"
	// RefreshToken can only be exchanged for a new access token.
	RefreshToken TokenType = "refresh"
)

// Claims is the JWT claim set issued by the service.
//
// The subject ("sub") carries the user ID. Email is only present in access
// tokens.
type Claims struct {
	jwt.RegisteredClaims

	Email     string    `json:"email,omitempty"`
	TokenType TokenType `json:"typ"`
}

// Token wraps a JWT token with convenience accessors for authentication flows.
//
// It embeds [jwt.Token] for low-level token operations (signing, parsing).
// SignedString holds the compact serialized form of the token
// (header.payload.signature) ready to be transmitted to the client.
//
// UserID is a cached copy of the "sub" claim.
type Token struct {
	// Token is the underlying JWT token used for signing and claim inspection.
	// Excluded from JSON serialization because only the compact string form
	// is meaningful outside the server process.
	*jwt.Token `json:"-"`

	// SignedString is the compact JWS representation of the token.
	SignedString string `json:"-"`

	// UserID is the owner identifier extracted from the "sub" claim.
	UserID string `json:"-"`
}

// TypedClaims returns the typed claim set of the token.
func (t *Token) TypedClaims() (*Claims, error) {
	if t.Token == nil {
		return nil, errors.New("token is empty")
	}

	claims, ok := t.Token.Claims.(*Claims)
	if !ok {
		return nil, fmt.Errorf("unexpected claims type %T", t.Token.Claims)
	}

	return claims, nil
}

// String returns the compact JWS serialization of the token.
// It implements the [fmt.Stringer] interface.
func (t *Token) String() string {
	return t.SignedString
}
