// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/MKhiriev/snippet-keeper/internal/config"
	"github.com/MKhiriev/snippet-keeper/internal/logger"
	"github.com/MKhiriev/snippet-keeper/internal/mailer"
	"github.com/MKhiriev/snippet-keeper/internal/store"
	"github.com/MKhiriev/snippet-keeper/models"
)

const (
	msgUserRegistered  = "Usuário registrado com sucesso"
	msgPasswordUpdated = "Senha atualizada com sucesso."
)

// timingGuardPassword is hashed once and compared against when a login names
// an unknown email, so that the response time does not reveal whether the
// account exists.
const timingGuardPassword = "snippet-keeper-timing-guard"

// authService is the concrete implementation of AuthService.
// It holds no per-request state; lockout counters and reset tokens live in
// the stores.
type authService struct {
	// userRepository is the data-access layer used to create, look up and
	// update accounts.
	userRepository store.UserRepository

	// resetTokenRepository persists password-reset tokens.
	resetTokenRepository store.ResetTokenRepository

	hasher PasswordHasher
	tokens TokenIssuer
	mailer mailer.Mailer

	// lockoutThreshold is the number of consecutive failed logins that
	// locks an account for lockoutDuration.
	lockoutThreshold int
	lockoutDuration  time.Duration

	// resetTokenTTL is the lifetime of a password-reset token.
	resetTokenTTL time.Duration

	// concealUnknownEmail makes ForgotPassword answer uniformly and keeps
	// reset links out of its result.
	concealUnknownEmail bool

	now func() time.Time

	guardOnce sync.Once
	guardHash string

	// logger is the structured logger used for diagnostic output outside
	// of a request.
	logger *logger.Logger
}

// NewAuthService constructs a new AuthService wired to its collaborators and
// populated with the lockout and reset settings of cfg.
//
// The returned service is safe for concurrent use.
func NewAuthService(
	userRepository store.UserRepository,
	resetTokenRepository store.ResetTokenRepository,
	hasher PasswordHasher,
	tokens TokenIssuer,
	mail mailer.Mailer,
	cfg config.App,
	logger *logger.Logger,
) AuthService {
	return &authService{
		userRepository:       userRepository,
		resetTokenRepository: resetTokenRepository,
		hasher:               hasher,
		tokens:               tokens,
		mailer:               mail,
		lockoutThreshold:     cfg.LockoutThreshold,
		lockoutDuration:      cfg.LockoutDuration,
		resetTokenTTL:        cfg.ResetTokenTTL,
		concealUnknownEmail:  cfg.ConcealUnknownEmail,
		now:                  time.Now,
		logger:               logger,
	}
}

// Register creates a new account and signs the user in.
//
// Checks run in a fixed order and the first failure is returned:
//   - ErrMissingFields if any field is empty after trimming;
//   - ErrInvalidUsername unless the username has 3 to 50 characters;
//   - ErrInvalidEmail if the email is malformed;
//   - ErrEmailInUse, then ErrUsernameInUse, for taken identities;
//   - ErrInvalidPassword unless the password has 8 to 128 characters and
//     equals its confirmation.
//
// A uniqueness violation raised by the store at insert time (a concurrent
// registration) is reported with the same Conflict errors.
func (a *authService) Register(ctx context.Context, req models.RegisterRequest) (models.RegisterResult, error) {
	log := logger.FromContext(ctx)

	username := strings.TrimSpace(req.Username)
	email := normalizeEmail(req.Email)

	if username == "" || email == "" || req.Password == "" || req.ConfirmPassword == "" {
		return models.RegisterResult{}, ErrMissingFields
	}
	if !validUsername(username) {
		return models.RegisterResult{}, ErrInvalidUsername
	}
	if !validEmail(email) {
		return models.RegisterResult{}, ErrInvalidEmail
	}

	if _, err := a.userRepository.FindUserByEmail(ctx, email); err == nil {
		return models.RegisterResult{}, ErrEmailInUse
	} else if !errors.Is(err, store.ErrUserNotFound) {
		log.Err(err).Str("func", "*authService.Register").Msg("user search by email failed")
		return models.RegisterResult{}, unexpected(err)
	}

	if _, err := a.userRepository.FindUserByUsername(ctx, username); err == nil {
		return models.RegisterResult{}, ErrUsernameInUse
	} else if !errors.Is(err, store.ErrUserNotFound) {
		log.Err(err).Str("func", "*authService.Register").Msg("user search by username failed")
		return models.RegisterResult{}, unexpected(err)
	}

	if !validPassword(req.Password, req.ConfirmPassword) {
		return models.RegisterResult{}, ErrInvalidPassword
	}

	passwordHash, err := a.hasher.Hash(req.Password)
	if err != nil {
		log.Err(err).Str("func", "*authService.Register").Msg("password hashing failed")
		return models.RegisterResult{}, unexpected(err)
	}

	user, err := a.userRepository.CreateUser(ctx, models.User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
	})
	switch {
	case errors.Is(err, store.ErrEmailAlreadyExists):
		return models.RegisterResult{}, ErrEmailInUse
	case errors.Is(err, store.ErrUsernameAlreadyExists):
		return models.RegisterResult{}, ErrUsernameInUse
	case err != nil:
		log.Err(err).Str("func", "*authService.Register").Msg("user creation ended with error")
		return models.RegisterResult{}, unexpected(err)
	}

	tokens, err := a.issueTokens(ctx, user)
	if err != nil {
		return models.RegisterResult{}, err
	}

	log.Info().Str("func", "*authService.Register").Str("user_id", user.UserID).Msg("user registered")

	return models.RegisterResult{
		Message:      msgUserRegistered,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	}, nil
}

// Login authenticates a user by email and password.
//
// Unknown emails and wrong passwords both yield ErrInvalidCredentials. While
// an account is locked every attempt, even with the right password, yields
// ErrAccountLocked. A wrong password increments the persisted failure
// counter and locks the account once the counter reaches the threshold; a
// successful login clears both.
func (a *authService) Login(ctx context.Context, req models.LoginRequest) (models.AuthTokens, error) {
	log := logger.FromContext(ctx)

	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return models.AuthTokens{}, ErrMissingFields
	}

	user, err := a.userRepository.FindUserByEmail(ctx, email)
	if errors.Is(err, store.ErrUserNotFound) {
		a.compareWithTimingGuard(req.Password)
		return models.AuthTokens{}, ErrInvalidCredentials
	}
	if err != nil {
		log.Err(err).Str("func", "*authService.Login").Msg("user search by email failed")
		return models.AuthTokens{}, unexpected(err)
	}

	now := a.now()
	if user.IsLocked(now) {
		log.Warn().Str("func", "*authService.Login").Str("user_id", user.UserID).Msg("login attempt on locked account")
		return models.AuthTokens{}, ErrAccountLocked
	}

	match, err := a.hasher.Compare(req.Password, user.PasswordHash)
	if err != nil {
		log.Err(err).Str("func", "*authService.Login").Str("user_id", user.UserID).Msg("password comparison failed")
		return models.AuthTokens{}, unexpected(err)
	}

	if !match {
		user.RecordFailedLogin(now, a.lockoutThreshold, a.lockoutDuration)
		if _, err = a.userRepository.SaveUser(ctx, user); err != nil {
			log.Err(err).Str("func", "*authService.Login").Str("user_id", user.UserID).Msg("error saving failed login")
			return models.AuthTokens{}, unexpected(err)
		}

		event := log.Info()
		if user.IsLocked(now) {
			event = log.Warn()
		}
		event.Str("func", "*authService.Login").
			Str("user_id", user.UserID).
			Int("login_attempts", user.LoginAttempts).
			Bool("locked", user.IsLocked(now)).
			Msg("wrong password")

		return models.AuthTokens{}, ErrInvalidCredentials
	}

	user.RecordSuccessfulLogin()
	if user, err = a.userRepository.SaveUser(ctx, user); err != nil {
		log.Err(err).Str("func", "*authService.Login").Msg("error clearing login attempts")
		return models.AuthTokens{}, unexpected(err)
	}

	return a.issueTokens(ctx, user)
}

// RefreshToken exchanges a valid refresh token for a new access token.
// The account must still exist.
func (a *authService) RefreshToken(ctx context.Context, req models.RefreshTokenRequest) (models.RefreshResult, error) {
	log := logger.FromContext(ctx)

	raw := strings.TrimSpace(req.RefreshToken)
	if raw == "" {
		return models.RefreshResult{}, ErrRefreshTokenRequired
	}

	token, err := a.tokens.Parse(raw, models.RefreshToken)
	if err != nil {
		log.Debug().Err(err).Str("func", "*authService.RefreshToken").Msg("refresh token rejected")
		return models.RefreshResult{}, ErrRefreshTokenInvalid
	}

	user, err := a.userRepository.FindUserByID(ctx, token.UserID)
	if errors.Is(err, store.ErrUserNotFound) {
		return models.RefreshResult{}, ErrRefreshTokenInvalid
	}
	if err != nil {
		log.Err(err).Str("func", "*authService.RefreshToken").Msg("user search by id failed")
		return models.RefreshResult{}, unexpected(err)
	}

	access, err := a.tokens.IssueAccessToken(user.UserID, user.Email)
	if err != nil {
		log.Err(err).Str("func", "*authService.RefreshToken").Msg("error issuing access token")
		return models.RefreshResult{}, unexpected(err)
	}

	return models.RefreshResult{AccessToken: access.SignedString}, nil
}

// ChangePassword replaces the password of an authenticated user after
// checking the current one.
func (a *authService) ChangePassword(ctx context.Context, userID string, req models.ChangePasswordRequest) (models.MessageResponse, error) {
	log := logger.FromContext(ctx)

	if userID == "" {
		return models.MessageResponse{}, ErrAccessTokenInvalid
	}
	if req.OldPassword == "" || req.NewPassword == "" || req.ConfirmPassword == "" {
		return models.MessageResponse{}, ErrMissingFields
	}
	if !validPassword(req.NewPassword, req.ConfirmPassword) {
		return models.MessageResponse{}, ErrInvalidPassword
	}

	user, err := a.userRepository.FindUserByID(ctx, userID)
	if errors.Is(err, store.ErrUserNotFound) {
		return models.MessageResponse{}, ErrUserNotFound
	}
	if err != nil {
		log.Err(err).Str("func", "*authService.ChangePassword").Msg("user search by id failed")
		return models.MessageResponse{}, unexpected(err)
	}

	match, err := a.hasher.Compare(req.OldPassword, user.PasswordHash)
	if err != nil {
		log.Err(err).Str("func", "*authService.ChangePassword").Msg("password comparison failed")
		return models.MessageResponse{}, unexpected(err)
	}
	if !match {
		return models.MessageResponse{}, ErrWrongOldPassword
	}

	if user.PasswordHash, err = a.hasher.Hash(req.NewPassword); err != nil {
		log.Err(err).Str("func", "*authService.ChangePassword").Msg("password hashing failed")
		return models.MessageResponse{}, unexpected(err)
	}

	if _, err = a.userRepository.SaveUser(ctx, user); err != nil {
		log.Err(err).Str("func", "*authService.ChangePassword").Msg("error saving new password")
		return models.MessageResponse{}, unexpected(err)
	}

	log.Info().Str("func", "*authService.ChangePassword").Str("user_id", user.UserID).Msg("password changed")

	return models.MessageResponse{Message: msgPasswordUpdated}, nil
}

// ParseAccessToken validates an access token. Any validation failure
// (expired, wrong issuer or type, malformed) is normalised to
// ErrAccessTokenInvalid.
func (a *authService) ParseAccessToken(ctx context.Context, token string) (models.Token, error) {
	parsed, err := a.tokens.Parse(token, models.AccessToken)
	if err != nil {
		logger.FromContext(ctx).Debug().Err(err).Str("func", "*authService.ParseAccessToken").Msg("access token rejected")
		return models.Token{}, ErrAccessTokenInvalid
	}

	return parsed, nil
}

func (a *authService) issueTokens(ctx context.Context, user models.User) (models.AuthTokens, error) {
	log := logger.FromContext(ctx)

	access, err := a.tokens.IssueAccessToken(user.UserID, user.Email)
	if err != nil {
		log.Err(err).Str("func", "*authService.issueTokens").Msg("error issuing access token")
		return models.AuthTokens{}, unexpected(err)
	}

	refresh, err := a.tokens.IssueRefreshToken(user.UserID)
	if err != nil {
		log.Err(err).Str("func", "*authService.issueTokens").Msg("error issuing refresh token")
		return models.AuthTokens{}, unexpected(err)
	}

	return models.AuthTokens{AccessToken: access.SignedString, RefreshToken: refresh.SignedString}, nil
}

// compareWithTimingGuard spends the same work as a real password check.
func (a *authService) compareWithTimingGuard(password string) {
	a.guardOnce.Do(func() {
		hash, err := a.hasher.Hash(timingGuardPassword)
		if err != nil {
			a.logger.Err(err).Str("func", "*authService.compareWithTimingGuard").Msg("error hashing timing guard")
			return
		}
		a.guardHash = hash
	})

	if a.guardHash != "" {
		_, _ = a.hasher.Compare(password, a.guardHash)
	}
}
