package store

import (
	"context"
	"time"

	"github.com/MKhiriev/snippet-keeper/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/store_mock.go -package=mock

// UserRepository persists user accounts. Implementations return
// [ErrUserNotFound] when a lookup matches nothing, and [ErrEmailAlreadyExists]
// or [ErrUsernameAlreadyExists] when a write violates a uniqueness constraint.
type UserRepository interface {
	// CreateUser stores a new account and returns it with the identifier and
	// timestamps assigned by the store.
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	// FindUserByEmail returns the account including its password hash.
	FindUserByEmail(ctx context.Context, email string) (models.User, error)
	FindUserByUsername(ctx context.Context, username string) (models.User, error)
	FindUserByID(ctx context.Context, userID string) (models.User, error)
	// SaveUser overwrites the mutable fields of an existing account:
	// password hash, login attempts and lock.
	SaveUser(ctx context.Context, user models.User) (models.User, error)
}

// ResetTokenRepository persists password-reset tokens.
type ResetTokenRepository interface {
	CreateResetToken(ctx context.Context, token models.ResetToken) (models.ResetToken, error)
	// FindValidResetToken returns the token whose hash matches and whose
	// expiry is after now, or [ErrResetTokenNotFound].
	FindValidResetToken(ctx context.Context, tokenHash string, now time.Time) (models.ResetToken, error)
	DeleteResetToken(ctx context.Context, tokenID string) error
	// ConsumeResetToken atomically deletes the token and saves user. It fails
	// with [ErrResetTokenNotFound] and leaves user untouched when the token
	// was already consumed or has expired at now.
	ConsumeResetToken(ctx context.Context, tokenID string, user models.User, now time.Time) (models.User, error)
	// DeleteExpiredResetTokens removes every token expired at now and
	// reports how many were removed.
	DeleteExpiredResetTokens(ctx context.Context, now time.Time) (int64, error)
}

// RateLimitStore counts requests per key within a sliding window.
type RateLimitStore interface {
	// Allow records one hit for key at now and reports whether the number of
	// hits inside (now-window, now] stays within limit. When it does not,
	// retryAfter is the time until the oldest hit leaves the window.
	Allow(ctx context.Context, key string, limit int, window time.Duration, now time.Time) (allowed bool, retryAfter time.Duration, err error)
}

// ErrorClassificator decides whether a failed database operation may be
// retried.
type ErrorClassificator interface {
	Classify(err error) ErrorClassification
}
