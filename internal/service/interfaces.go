package service

import (
	"context"

	"github.com/MKhiriev/snippet-keeper/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/service_mock.go -package=mock

// AuthService implements registration, login with lockout and the
// password-reset lifecycle. Every failure it returns carries an [*Error]
// in its chain; see [KindOf].
type AuthService interface {
	Register(ctx context.Context, req models.RegisterRequest) (models.RegisterResult, error)
	Login(ctx context.Context, req models.LoginRequest) (models.AuthTokens, error)
	// ForgotPassword mails a single-use reset link rooted at baseURL.
	ForgotPassword(ctx context.Context, req models.ForgotPasswordRequest, baseURL string) (models.ForgotPasswordResult, error)
	// ResetPassword consumes the reset token identified by rawToken.
	ResetPassword(ctx context.Context, rawToken string, req models.ResetPasswordRequest) (models.ResetPasswordResult, error)
	// ValidateResetToken reports whether rawToken may still be used,
	// without consuming it.
	ValidateResetToken(ctx context.Context, rawToken string) error
	RefreshToken(ctx context.Context, req models.RefreshTokenRequest) (models.RefreshResult, error)
	ChangePassword(ctx context.Context, userID string, req models.ChangePasswordRequest) (models.MessageResponse, error)
	ParseAccessToken(ctx context.Context, token string) (models.Token, error)
}

type AppInfoService interface {
	GetAppVersion(ctx context.Context) string
}

// PasswordHasher turns plaintext passwords into one-way hashes.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	// Compare reports whether plain matches hash. A mismatch is not an error.
	Compare(plain, hash string) (bool, error)
}

// TokenIssuer signs and verifies access and refresh tokens.
type TokenIssuer interface {
	IssueAccessToken(userID, email string) (models.Token, error)
	IssueRefreshToken(userID string) (models.Token, error)
	Parse(token string, tokenType models.TokenType) (models.Token, error)
}
