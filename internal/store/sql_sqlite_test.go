package store

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MKhiriev/snippet-keeper/internal/config"
	"github.com/MKhiriev/snippet-keeper/internal/logger"
	"github.com/MKhiriev/snippet-keeper/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newSQLiteRepos opens a migrated in-memory database.
func newSQLiteRepos(t *testing.T) (UserRepository, ResetTokenRepository) {
	t.Helper()

	ctx := context.Background()
	db, err := NewConnectSQLite(ctx, config.DB{DSN: ":memory:"}, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Migrate(ctx))

	return NewUserRepository(db, logger.Nop()), NewResetTokenRepository(db, logger.Nop())
}

func TestWithForeignKeys(t *testing.T) {
	assert.Equal(t, "a.db?_foreign_keys=on", withForeignKeys("a.db"))
	assert.Equal(t, "file:a.db?mode=rwc&_foreign_keys=on", withForeignKeys("file:a.db?mode=rwc"))
	assert.Equal(t, "a.db?_fk=1", withForeignKeys("a.db?_fk=1"))
}

func TestSQLite_UserLifecycle(t *testing.T) {
	users, _ := newSQLiteRepos(t)
	ctx := context.Background()

	created, err := users.CreateUser(ctx, models.User{Username: "alice", Email: "alice@x.com", PasswordHash: "hash"})
	require.NoError(t, err)
	require.NotEmpty(t, created.UserID)

	byEmail, err := users.FindUserByEmail(ctx, "alice@x.com")
	require.NoError(t, err)
	assert.Equal(t, created.UserID, byEmail.UserID)
	assert.Equal(t, "hash", byEmail.PasswordHash)
	assert.Nil(t, byEmail.LockUntil)

	byName, err := users.FindUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, created.UserID, byName.UserID)

	lock := time.Now().Add(30 * time.Minute)
	byName.LoginAttempts = 5
	byName.LockUntil = &lock
	_, err = users.SaveUser(ctx, byName)
	require.NoError(t, err)

	byID, err := users.FindUserByID(ctx, created.UserID)
	require.NoError(t, err)
	assert.Equal(t, 5, byID.LoginAttempts)
	require.NotNil(t, byID.LockUntil)
	assert.WithinDuration(t, lock, *byID.LockUntil, time.Millisecond)
	assert.True(t, byID.IsLocked(time.Now()))

	_, err = users.FindUserByEmail(ctx, "bob@x.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestSQLite_UniqueConstraints(t *testing.T) {
	users, _ := newSQLiteRepos(t)
	ctx := context.Background()

	_, err := users.CreateUser(ctx, models.User{Username: "alice", Email: "alice@x.com", PasswordHash: "hash"})
	require.NoError(t, err)

	_, err = users.CreateUser(ctx, models.User{Username: "alice2", Email: "alice@x.com", PasswordHash: "hash"})
	assert.ErrorIs(t, err, ErrEmailAlreadyExists)

	_, err = users.CreateUser(ctx, models.User{Username: "alice", Email: "other@x.com", PasswordHash: "hash"})
	assert.ErrorIs(t, err, ErrUsernameAlreadyExists)
}

func TestSQLite_ResetTokenIsSingleUse(t *testing.T) {
	users, tokens := newSQLiteRepos(t)
	ctx := context.Background()
	now := time.Now()

	user, err := users.CreateUser(ctx, models.User{Username: "alice", Email: "alice@x.com", PasswordHash: "old"})
	require.NoError(t, err)

	token, err := tokens.CreateResetToken(ctx, models.ResetToken{
		UserID:    user.UserID,
		TokenHash: "hash-1",
		SessionID: "session",
		ExpiresAt: now.Add(20 * time.Minute),
	})
	require.NoError(t, err)

	found, err := tokens.FindValidResetToken(ctx, "hash-1", now)
	require.NoError(t, err)
	assert.Equal(t, token.ID, found.ID)

	user.PasswordHash = "new"
	_, err = tokens.ConsumeResetToken(ctx, found.ID, user, now)
	require.NoError(t, err)

	_, err = tokens.FindValidResetToken(ctx, "hash-1", now)
	assert.ErrorIs(t, err, ErrResetTokenNotFound)

	_, err = tokens.ConsumeResetToken(ctx, found.ID, user, now)
	assert.ErrorIs(t, err, ErrResetTokenNotFound)

	saved, err := users.FindUserByID(ctx, user.UserID)
	require.NoError(t, err)
	assert.Equal(t, "new", saved.PasswordHash)
}

func TestSQLite_ConcurrentConsumeSucceedsOnce(t *testing.T) {
	users, tokens := newSQLiteRepos(t)
	ctx := context.Background()
	now := time.Now()

	user, err := users.CreateUser(ctx, models.User{Username: "alice", Email: "alice@x.com", PasswordHash: "old"})
	require.NoError(t, err)
	token, err := tokens.CreateResetToken(ctx, models.ResetToken{
		UserID: user.UserID, TokenHash: "hash-1", SessionID: "s", ExpiresAt: now.Add(time.Minute),
	})
	require.NoError(t, err)

	var (
		wg        sync.WaitGroup
		successes atomic.Int32
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := tokens.ConsumeResetToken(ctx, token.ID, user, now); err == nil {
				successes.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), successes.Load())
}

func TestSQLite_ExpiredTokens(t *testing.T) {
	users, tokens := newSQLiteRepos(t)
	ctx := context.Background()
	now := time.Now()

	user, err := users.CreateUser(ctx, models.User{Username: "alice", Email: "alice@x.com", PasswordHash: "old"})
	require.NoError(t, err)

	expired, err := tokens.CreateResetToken(ctx, models.ResetToken{
		UserID: user.UserID, TokenHash: "expired", SessionID: "s", ExpiresAt: now.Add(-time.Second),
	})
	require.NoError(t, err)
	_, err = tokens.CreateResetToken(ctx, models.ResetToken{
		UserID: user.UserID, TokenHash: "valid", SessionID: "s", ExpiresAt: now.Add(time.Minute),
	})
	require.NoError(t, err)

	_, err = tokens.FindValidResetToken(ctx, "expired", now)
	assert.ErrorIs(t, err, ErrResetTokenNotFound)

	_, err = tokens.ConsumeResetToken(ctx, expired.ID, user, now)
	assert.ErrorIs(t, err, ErrResetTokenNotFound)

	n, err := tokens.DeleteExpiredResetTokens(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = tokens.FindValidResetToken(ctx, "valid", now)
	assert.NoError(t, err)
}
