package service

import (
	"context"
	"errors"
	"strings"

	"github.com/MKhiriev/snippet-keeper/internal/logger"
	"github.com/MKhiriev/snippet-keeper/internal/mailer"
	"github.com/MKhiriev/snippet-keeper/internal/store"
	"github.com/MKhiriev/snippet-keeper/internal/utils"
	"github.com/MKhiriev/snippet-keeper/models"
)

const (
	msgResetEmailSent      = "E-mail de redefinição de senha enviado com sucesso"
	msgResetEmailConcealed = "Se a conta existir, as instruções foram enviadas para o e-mail informado."
	msgPasswordReset       = "Senha redefinida com sucesso"

	resetRedirect = "./"
	resetLinkPath = "/reset-password/"
)

// ForgotPassword issues a single-use reset token for the account of
// req.Email and mails the link {baseURL}/reset-password/{secret} to it.
//
// Only the SHA-256 hash of the secret is stored. When the mail cannot be
// sent the token is deleted again and the call fails with ErrUnexpected.
func (a *authService) ForgotPassword(ctx context.Context, req models.ForgotPasswordRequest, baseURL string) (models.ForgotPasswordResult, error) {
	log := logger.FromContext(ctx)

	email := normalizeEmail(req.Email)
	if email == "" {
		return models.ForgotPasswordResult{}, ErrEmailRequired
	}

	user, err := a.userRepository.FindUserByEmail(ctx, email)
	if errors.Is(err, store.ErrUserNotFound) {
		if a.concealUnknownEmail {
			return models.ForgotPasswordResult{Message: msgResetEmailConcealed}, nil
		}
		return models.ForgotPasswordResult{}, ErrUserNotFound
	}
	if err != nil {
		log.Err(err).Str("func", "*authService.ForgotPassword").Msg("user search by email failed")
		return models.ForgotPasswordResult{}, unexpected(err)
	}

	secret, err := utils.RandomHex(utils.ResetSecretBytes)
	if err != nil {
		log.Err(err).Str("func", "*authService.ForgotPassword").Msg("error generating reset secret")
		return models.ForgotPasswordResult{}, unexpected(err)
	}
	sessionID, err := utils.RandomHex(utils.SessionIDBytes)
	if err != nil {
		log.Err(err).Str("func", "*authService.ForgotPassword").Msg("error generating session id")
		return models.ForgotPasswordResult{}, unexpected(err)
	}

	now := a.now()
	token, err := a.resetTokenRepository.CreateResetToken(ctx, models.ResetToken{
		UserID:    user.UserID,
		TokenHash: utils.HashToken(secret),
		SessionID: sessionID,
		ExpiresAt: now.Add(a.resetTokenTTL),
		CreatedAt: now,
	})
	if err != nil {
		log.Err(err).Str("func", "*authService.ForgotPassword").Msg("error creating reset token")
		return models.ForgotPasswordResult{}, unexpected(err)
	}

	resetLink := strings.TrimRight(baseURL, "/") + resetLinkPath + secret

	if err = a.sendResetEmail(ctx, user, resetLink); err != nil {
		log.Err(err).
			Str("func", "*authService.ForgotPassword").
			Str("session_id", sessionID).
			Msg("error sending reset email")
		a.discardResetToken(ctx, token)
		return models.ForgotPasswordResult{}, unexpected(err)
	}

	log.Info().
		Str("func", "*authService.ForgotPassword").
		Str("user_id", user.UserID).
		Str("session_id", sessionID).
		Time("expires_at", token.ExpiresAt).
		Msg("reset email sent")

	if a.concealUnknownEmail {
		return models.ForgotPasswordResult{Message: msgResetEmailConcealed}, nil
	}

	return models.ForgotPasswordResult{Message: msgResetEmailSent, ResetLink: resetLink}, nil
}

// ValidateResetToken reports ErrResetLinkInvalid unless rawToken names an
// unexpired reset token. The token is not consumed.
func (a *authService) ValidateResetToken(ctx context.Context, rawToken string) error {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return ErrResetTokenMissing
	}

	_, err := a.resetTokenRepository.FindValidResetToken(ctx, utils.HashToken(rawToken), a.now())
	if errors.Is(err, store.ErrResetTokenNotFound) {
		return ErrResetLinkInvalid
	}
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "*authService.ValidateResetToken").Msg("reset token search failed")
		return unexpected(err)
	}

	return nil
}

// ResetPassword sets a new password using a reset token and signs the user
// in.
//
// The password change, the clearing of the lockout counters and the deletion
// of the token are committed together by the store. A token that was
// consumed or expired in the meantime yields ErrResetTokenInvalid and leaves
// the account unchanged, so a token works at most once.
func (a *authService) ResetPassword(ctx context.Context, rawToken string, req models.ResetPasswordRequest) (models.ResetPasswordResult, error) {
	log := logger.FromContext(ctx)

	if req.Password == "" || req.ConfirmPassword == "" {
		return models.ResetPasswordResult{}, ErrMissingFields
	}
	if !validPassword(req.Password, req.ConfirmPassword) {
		return models.ResetPasswordResult{}, ErrInvalidPassword
	}

	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return models.ResetPasswordResult{}, ErrResetTokenInvalid
	}

	now := a.now()
	token, err := a.resetTokenRepository.FindValidResetToken(ctx, utils.HashToken(rawToken), now)
	if errors.Is(err, store.ErrResetTokenNotFound) {
		return models.ResetPasswordResult{}, ErrResetTokenInvalid
	}
	if err != nil {
		log.Err(err).Str("func", "*authService.ResetPassword").Msg("reset token search failed")
		return models.ResetPasswordResult{}, unexpected(err)
	}

	user, err := a.userRepository.FindUserByID(ctx, token.UserID)
	if errors.Is(err, store.ErrUserNotFound) {
		return models.ResetPasswordResult{}, ErrUserNotFound
	}
	if err != nil {
		log.Err(err).Str("func", "*authService.ResetPassword").Msg("user search by id failed")
		return models.ResetPasswordResult{}, unexpected(err)
	}

	if user.PasswordHash, err = a.hasher.Hash(req.Password); err != nil {
		log.Err(err).Str("func", "*authService.ResetPassword").Msg("password hashing failed")
		return models.ResetPasswordResult{}, unexpected(err)
	}
	user.RecordSuccessfulLogin()

	// Sessions are minted before the commit: once the token is consumed
	// nothing is left that can fail.
	tokens, err := a.issueTokens(ctx, user)
	if err != nil {
		return models.ResetPasswordResult{}, err
	}

	user, err = a.resetTokenRepository.ConsumeResetToken(ctx, token.ID, user, now)
	switch {
	case errors.Is(err, store.ErrResetTokenNotFound):
		return models.ResetPasswordResult{}, ErrResetTokenInvalid
	case errors.Is(err, store.ErrUserNotFound):
		return models.ResetPasswordResult{}, ErrUserNotFound
	case err != nil:
		log.Err(err).Str("func", "*authService.ResetPassword").Msg("error consuming reset token")
		return models.ResetPasswordResult{}, unexpected(err)
	}

	log.Info().
		Str("func", "*authService.ResetPassword").
		Str("user_id", user.UserID).
		Str("session_id", token.SessionID).
		Msg("password reset")

	return models.ResetPasswordResult{
		Message:      msgPasswordReset,
		Redirect:     resetRedirect,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	}, nil
}

func (a *authService) sendResetEmail(ctx context.Context, user models.User, resetLink string) error {
	html, err := mailer.RenderPasswordResetEmail(mailer.PasswordResetEmail{
		Username:  user.Username,
		ResetLink: resetLink,
		ExpiresIn: a.resetTokenTTL,
	})
	if err != nil {
		return err
	}

	return a.mailer.Send(ctx, user.Email, mailer.PasswordResetSubject, html)
}

// discardResetToken deletes a token whose link never reached the user. It
// runs even when ctx is already cancelled.
func (a *authService) discardResetToken(ctx context.Context, token models.ResetToken) {
	if err := a.resetTokenRepository.DeleteResetToken(context.WithoutCancel(ctx), token.ID); err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "*authService.discardResetToken").
			Str("session_id", token.SessionID).
			Msg("error deleting undelivered reset token")
	}
}
