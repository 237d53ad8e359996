package models

import "time"

// ResetToken is a persisted password-reset grant.
//
// Only the SHA-256 hash of the secret sent to the user is stored; the
// plaintext secret exists solely inside the reset link. A token is consumed
// (deleted) by a successful reset or becomes unusable once ExpiresAt passes.
type ResetToken struct {
	// ID is the unique identifier of the token record.
	ID string

	// UserID references the owner of the token.
	UserID string

	// TokenHash is the hex-encoded SHA-256 digest of the reset secret.
	TokenHash string

	// SessionID is a random hex identifier of the reset session.
	SessionID string

	// ExpiresAt is the moment after which the token is no longer valid.
	ExpiresAt time.Time

	// CreatedAt is the moment the token was issued.
	CreatedAt time.Time
}

// TableName returns the name of the database table
// associated with the ResetToken model.
func (t ResetToken) TableName() string {
	return "reset_tokens"
}

// IsExpired reports whether the token is no longer valid at now.
func (t ResetToken) IsExpired(now time.Time) bool {
	return !t.ExpiresAt.After(now)
}
