package service

import (
	"github.com/MKhiriev/snippet-keeper/internal/config"
	"github.com/MKhiriev/snippet-keeper/internal/logger"
	"github.com/MKhiriev/snippet-keeper/internal/mailer"
	"github.com/MKhiriev/snippet-keeper/internal/store"
)

type Services struct {
	AuthService    AuthService
	AppInfoService AppInfoService
}

func NewServices(storages *store.Storages, mail mailer.Mailer, cfg config.App, logger *logger.Logger) (*Services, error) {
	appInfoService, err := NewAppInfoService(cfg, logger)
	if err != nil {
		return nil, err
	}

	return &Services{
		AuthService: NewAuthService(
			storages.UserRepository,
			storages.ResetTokenRepository,
			NewBcryptHasher(cfg.BcryptCost),
			NewJWTTokenIssuer(cfg),
			mail,
			cfg,
			logger,
		),
		AppInfoService: appInfoService,
	}, nil
}
