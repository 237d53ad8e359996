package models

import "time"

// User represents an account entity used for authentication and authorization.
// It contains identity attributes, the password hash and brute-force lockout
// counters. Sensitive fields must never be exposed outside trusted boundaries.
type User struct {
	// UserID is the unique identifier of the user.
	// It is a UUID for SQL backends and an ObjectID hex string for MongoDB.
	UserID string `json:"id"`

	// Username is the unique display handle of the user, 3 to 50 characters.
	Username string `json:"username"`

	// Email is the unique, lower-cased and trimmed email address of the user.
	// It is the login identifier.
	Email string `json:"email"`

	// PasswordHash stores the bcrypt hash of the user's password.
	// It is never the plaintext password and is never serialized.
	PasswordHash string `json:"-"`

	// LoginAttempts is the number of consecutive failed logins since the
	// last successful login or password reset.
	LoginAttempts int `json:"-"`

	// LockUntil is set when LoginAttempts reaches the lockout threshold.
	// Logins are rejected while it is in the future.
	LockUntil *time.Time `json:"-"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is the timestamp of the last change of the account.
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the name of the database table
// associated with the User model.
func (u User) TableName() string {
	return "users"
}

// IsLocked reports whether the account is locked at the given moment.
func (u User) IsLocked(now time.Time) bool {
	return u.LockUntil != nil && u.LockUntil.After(now)
}

// RecordFailedLogin counts one failed login. When the counter reaches
// threshold the account is locked until now+lockFor.
//
// The counter is only cleared by a successful login or a password reset, so
// a failure after an elapsed lock locks the account again straight away.
func (u *User) RecordFailedLogin(now time.Time, threshold int, lockFor time.Duration) {
	u.LoginAttempts++
	if u.LoginAttempts >= threshold {
		lockUntil := now.Add(lockFor)
		u.LockUntil = &lockUntil
	}
}

// RecordSuccessfulLogin clears the failure counter and any lock.
func (u *User) RecordSuccessfulLogin() {
	u.LoginAttempts = 0
	u.LockUntil = nil
}
