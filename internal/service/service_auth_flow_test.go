package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/MKhiriev/snippet-keeper/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registerAlice(t *testing.T, env *inMemoryEnv) {
	t.Helper()

	_, err := env.svc.Register(context.Background(), models.RegisterRequest{
		Username:        "alice",
		Email:           "alice@x.com",
		Password:        "password1",
		ConfirmPassword: "password1",
	})
	require.NoError(t, err)
}

func login(env *inMemoryEnv, password string) (models.AuthTokens, error) {
	return env.svc.Login(context.Background(), models.LoginRequest{Email: "alice@x.com", Password: password})
}

func forgotAlice(t *testing.T, env *inMemoryEnv) string {
	t.Helper()

	res, err := env.svc.ForgotPassword(context.Background(), models.ForgotPasswordRequest{Email: "alice@x.com"}, "http://h")
	require.NoError(t, err)

	match := resetLinkPattern.FindStringSubmatch(res.ResetLink)
	require.Len(t, match, 2, "unexpected link %q", res.ResetLink)

	return match[1]
}

func TestFlow_PasswordIsNeverStoredInPlaintext(t *testing.T) {
	env := newInMemoryEnv(testAppConfig())
	registerAlice(t, env)

	user, err := env.users.FindUserByEmail(context.Background(), "alice@x.com")
	require.NoError(t, err)
	assert.NotEqual(t, "password1", user.PasswordHash)
	assert.True(t, strings.HasPrefix(user.PasswordHash, "$2a$"))
	assert.Zero(t, user.LoginAttempts)
	assert.Nil(t, user.LockUntil)
}

func TestFlow_DuplicateRegistration(t *testing.T) {
	env := newInMemoryEnv(testAppConfig())
	registerAlice(t, env)

	_, err := env.svc.Register(context.Background(), models.RegisterRequest{
		Username: "alice2", Email: "alice@x.com", Password: "password1", ConfirmPassword: "password1",
	})
	require.Error(t, err)
	assert.Equal(t, "Email já está em uso", err.Error())

	_, err = env.svc.Register(context.Background(), models.RegisterRequest{
		Username: "alice", Email: "other@x.com", Password: "password1", ConfirmPassword: "password1",
	})
	assert.Equal(t, ErrUsernameInUse, err)

	assert.Equal(t, 1, env.users.count())
}

func TestFlow_IssuedTokensAreUsable(t *testing.T) {
	env := newInMemoryEnv(testAppConfig())
	registerAlice(t, env)

	tokens, err := login(env, "password1")
	require.NoError(t, err)

	access, err := env.svc.ParseAccessToken(context.Background(), tokens.AccessToken)
	require.NoError(t, err)
	claims, err := access.TypedClaims()
	require.NoError(t, err)
	assert.Equal(t, "alice@x.com", claims.Email)

	_, err = env.svc.ParseAccessToken(context.Background(), tokens.RefreshToken)
	assert.Equal(t, ErrAccessTokenInvalid, err, "refresh token must not authorize API calls")

	refreshed, err := env.svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: tokens.RefreshToken})
	require.NoError(t, err)
	_, err = env.svc.ParseAccessToken(context.Background(), refreshed.AccessToken)
	assert.NoError(t, err)

	_, err = env.svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: tokens.AccessToken})
	assert.Equal(t, ErrRefreshTokenInvalid, err)
}

func TestFlow_LockoutAfterFiveFailures(t *testing.T) {
	env := newInMemoryEnv(testAppConfig())
	registerAlice(t, env)

	for i := 1; i <= 5; i++ {
		_, err := login(env, "wrong")
		assert.Equal(t, ErrInvalidCredentials, err, "attempt %d", i)
	}

	_, err := login(env, "password1")
	assert.Equal(t, ErrAccountLocked, err, "6th attempt is locked even with the right password")

	env.clock.Advance(29 * time.Minute)
	_, err = login(env, "password1")
	assert.Equal(t, ErrAccountLocked, err)

	env.clock.Advance(2 * time.Minute)
	_, err = login(env, "password1")
	require.NoError(t, err)

	user, err := env.users.FindUserByEmail(context.Background(), "alice@x.com")
	require.NoError(t, err)
	assert.Zero(t, user.LoginAttempts)
	assert.Nil(t, user.LockUntil)
}

func TestFlow_WrongPasswordAfterElapsedLockRelocks(t *testing.T) {
	env := newInMemoryEnv(testAppConfig())
	registerAlice(t, env)

	for i := 0; i < 5; i++ {
		_, _ = login(env, "wrong")
	}
	env.clock.Advance(31 * time.Minute)

	_, err := login(env, "wrong")
	assert.Equal(t, ErrInvalidCredentials, err)

	_, err = login(env, "password1")
	assert.Equal(t, ErrAccountLocked, err, "one failure after the lock elapsed locks again")
}

func TestFlow_SuccessfulLoginResetsFailureHistory(t *testing.T) {
	env := newInMemoryEnv(testAppConfig())
	registerAlice(t, env)

	for i := 0; i < 4; i++ {
		_, _ = login(env, "wrong")
	}
	_, err := login(env, "password1")
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		_, err = login(env, "wrong")
		assert.Equal(t, ErrInvalidCredentials, err)
	}
	_, err = login(env, "password1")
	assert.NoError(t, err, "counter restarted after the successful login")
}

func TestFlow_ForgotResetLogin(t *testing.T) {
	env := newInMemoryEnv(testAppConfig())
	registerAlice(t, env)

	secret := forgotAlice(t, env)

	require.Len(t, env.mailer.sent, 1)
	assert.Equal(t, "alice@x.com", env.mailer.sent[0].to)
	assert.Contains(t, env.mailer.sent[0].html, "http://h/reset-password/"+secret)

	require.NoError(t, env.svc.ValidateResetToken(context.Background(), secret))

	res, err := env.svc.ResetPassword(context.Background(), secret, models.ResetPasswordRequest{Password: "newpass1", ConfirmPassword: "newpass1"})
	require.NoError(t, err)
	assert.Equal(t, "Senha redefinida com sucesso", res.Message)
	assert.NotEmpty(t, res.AccessToken)

	_, err = login(env, "newpass1")
	assert.NoError(t, err)
	_, err = login(env, "password1")
	assert.Equal(t, ErrInvalidCredentials, err)
}

func TestFlow_ResetTokenIsSingleUse(t *testing.T) {
	env := newInMemoryEnv(testAppConfig())
	registerAlice(t, env)
	secret := forgotAlice(t, env)

	_, err := env.svc.ResetPassword(context.Background(), secret, models.ResetPasswordRequest{Password: "newpass1", ConfirmPassword: "newpass1"})
	require.NoError(t, err)

	_, err = env.svc.ResetPassword(context.Background(), secret, models.ResetPasswordRequest{Password: "newpass2", ConfirmPassword: "newpass2"})
	assert.Equal(t, ErrResetTokenInvalid, err)
	assert.Equal(t, KindTokenInvalidOrExpired, KindOf(err))
	assert.Equal(t, ErrResetLinkInvalid, env.svc.ValidateResetToken(context.Background(), secret))

	_, err = login(env, "newpass1")
	assert.NoError(t, err, "second reset left the password unchanged")
}

func TestFlow_ExpiredResetToken(t *testing.T) {
	env := newInMemoryEnv(testAppConfig())
	registerAlice(t, env)
	secret := forgotAlice(t, env)

	env.clock.Advance(20 * time.Minute)

	_, err := env.svc.ResetPassword(context.Background(), secret, models.ResetPasswordRequest{Password: "newpass1", ConfirmPassword: "newpass1"})
	assert.Equal(t, ErrResetTokenInvalid, err)

	_, err = login(env, "password1")
	assert.NoError(t, err)
}

func TestFlow_ResetUnlocksAccount(t *testing.T) {
	env := newInMemoryEnv(testAppConfig())
	registerAlice(t, env)
	for i := 0; i < 5; i++ {
		_, _ = login(env, "wrong")
	}
	_, err := login(env, "password1")
	require.Equal(t, ErrAccountLocked, err)

	secret := forgotAlice(t, env)
	_, err = env.svc.ResetPassword(context.Background(), secret, models.ResetPasswordRequest{Password: "newpass1", ConfirmPassword: "newpass1"})
	require.NoError(t, err)

	_, err = login(env, "newpass1")
	assert.NoError(t, err)
}

func TestFlow_MailFailureLeavesNoUsableToken(t *testing.T) {
	env := newInMemoryEnv(testAppConfig())
	registerAlice(t, env)
	env.mailer.err = assert.AnError

	_, err := env.svc.ForgotPassword(context.Background(), models.ForgotPasswordRequest{Email: "alice@x.com"}, "http://h")

	assert.Equal(t, KindUnexpected, KindOf(err))
	assert.Zero(t, env.resetTokens.count())
}

func TestFlow_ChangePassword(t *testing.T) {
	env := newInMemoryEnv(testAppConfig())
	registerAlice(t, env)
	user, err := env.users.FindUserByEmail(context.Background(), "alice@x.com")
	require.NoError(t, err)

	_, err = env.svc.ChangePassword(context.Background(), user.UserID, models.ChangePasswordRequest{
		OldPassword: "wrong-old", NewPassword: "password2", ConfirmPassword: "password2",
	})
	assert.Equal(t, ErrWrongOldPassword, err)

	_, err = env.svc.ChangePassword(context.Background(), user.UserID, models.ChangePasswordRequest{
		OldPassword: "password1", NewPassword: "password2", ConfirmPassword: "password2",
	})
	require.NoError(t, err)

	_, err = login(env, "password2")
	assert.NoError(t, err)
}
