package service

import (
	"time"

	"github.com/MKhiriev/snippet-keeper/internal/config"
	"github.com/MKhiriev/snippet-keeper/internal/utils"
	"github.com/MKhiriev/snippet-keeper/models"
)

// jwtTokenIssuer issues HMAC-SHA256 JWTs. The token type is part of the
// claims, so an access token is never accepted where a refresh token is
// expected and the other way round.
type jwtTokenIssuer struct {
	signKey         string
	issuer          string
	accessDuration  time.Duration
	refreshDuration time.Duration

	now func() time.Time
}

// NewJWTTokenIssuer builds a [TokenIssuer] from the token settings of cfg.
func NewJWTTokenIssuer(cfg config.App) TokenIssuer {
	return &jwtTokenIssuer{
		signKey:         cfg.TokenSignKey,
		issuer:          cfg.TokenIssuer,
		accessDuration:  cfg.AccessTokenDuration,
		refreshDuration: cfg.RefreshTokenDuration,
		now:             time.Now,
	}
}

func (i *jwtTokenIssuer) IssueAccessToken(userID, email string) (models.Token, error) {
	return utils.GenerateJWTToken(utils.JWTParams{
		Issuer:   i.issuer,
		UserID:   userID,
		Email:    email,
		Type:     models.AccessToken,
		Duration: i.accessDuration,
		SignKey:  i.signKey,
		Now:      i.now(),
	})
}

func (i *jwtTokenIssuer) IssueRefreshToken(userID string) (models.Token, error) {
	return utils.GenerateJWTToken(utils.JWTParams{
		Issuer:   i.issuer,
		UserID:   userID,
		Type:     models.RefreshToken,
		Duration: i.refreshDuration,
		SignKey:  i.signKey,
		Now:      i.now(),
	})
}

func (i *jwtTokenIssuer) Parse(token string, tokenType models.TokenType) (models.Token, error) {
	return utils.ValidateAndParseJWTToken(token, i.signKey, i.issuer, tokenType)
}
