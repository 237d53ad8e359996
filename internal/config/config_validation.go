// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"fmt"
	"time"
)

// Storage drivers accepted by Storage.Driver.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMongo    = "mongo"
)

// Mail providers accepted by Mailer.Provider.
const (
	MailerSMTP    = "smtp"
	MailerMailgun = "mailgun"
	MailerLog     = "log"
)

// applyDefaults fills every field that no source has set.
func (cfg *StructuredConfig) applyDefaults() {
	setDefault(&cfg.App.TokenIssuer, "snippet-keeper")
	setDefault(&cfg.App.AccessTokenDuration, time.Hour)
	setDefault(&cfg.App.RefreshTokenDuration, 7*24*time.Hour)
	setDefault(&cfg.App.BcryptCost, 10)
	setDefault(&cfg.App.LockoutThreshold, 5)
	setDefault(&cfg.App.LockoutDuration, 30*time.Minute)
	setDefault(&cfg.App.ResetTokenTTL, 20*time.Minute)
	setDefault(&cfg.App.Version, "dev")

	setDefault(&cfg.Storage.Driver, DriverPostgres)
	setDefault(&cfg.Storage.Mongo.Database, "snippet_keeper")

	setDefault(&cfg.Server.HTTPAddress, ":8008")
	setDefault(&cfg.Server.RequestTimeout, 15*time.Second)
	setDefault(&cfg.Server.RateLimitRequests, 100)
	setDefault(&cfg.Server.RateLimitWindow, 15*time.Minute)

	setDefault(&cfg.Mailer.Provider, MailerLog)
	setDefault(&cfg.Mailer.From, `"JA Solutions Engine" <no-reply@testmail.app>`)
	setDefault(&cfg.Mailer.SMTP.Port, 587)

	setDefault(&cfg.Workers.ResetTokenSweepInterval, 5*time.Minute)
}

func setDefault[T comparable](field *T, value T) {
	var zero T
	if *field == zero {
		*field = value
	}
}

// validate checks that the final merged [StructuredConfig] satisfies all
// application invariants before it is used at startup.
func (cfg *StructuredConfig) validate() error {
	if cfg.App.TokenSignKey == "" {
		return fmt.Errorf("%w: token sign key is required", ErrInvalidAppConfigs)
	}
	if cfg.App.BcryptCost < 4 || cfg.App.BcryptCost > 31 {
		return fmt.Errorf("%w: bcrypt cost must be in range 4..31", ErrInvalidAppConfigs)
	}
	if cfg.App.LockoutThreshold < 1 {
		return fmt.Errorf("%w: lockout threshold must be positive", ErrInvalidAppConfigs)
	}
	for name, d := range map[string]time.Duration{
		"access token duration":  cfg.App.AccessTokenDuration,
		"refresh token duration": cfg.App.RefreshTokenDuration,
		"lockout duration":       cfg.App.LockoutDuration,
		"reset token ttl":        cfg.App.ResetTokenTTL,
	} {
		if d <= 0 {
			return fmt.Errorf("%w: %s must be positive", ErrInvalidAppConfigs, name)
		}
	}

	switch cfg.Storage.Driver {
	case DriverPostgres, DriverSQLite:
		if cfg.Storage.DB.DSN == "" {
			return fmt.Errorf("%w: database DSN is required for %s", ErrInvalidStorageConfigs, cfg.Storage.Driver)
		}
	case DriverMongo:
		if cfg.Storage.Mongo.URI == "" {
			return fmt.Errorf("%w: mongo URI is required", ErrInvalidStorageConfigs)
		}
	default:
		return fmt.Errorf("%w: unknown driver %q", ErrInvalidStorageConfigs, cfg.Storage.Driver)
	}

	switch cfg.Mailer.Provider {
	case MailerLog:
	case MailerSMTP:
		if cfg.Mailer.SMTP.Host == "" {
			return fmt.Errorf("%w: smtp host is required", ErrInvalidMailerConfigs)
		}
	case MailerMailgun:
		if cfg.Mailer.Mailgun.Domain == "" || cfg.Mailer.Mailgun.APIKey == "" {
			return fmt.Errorf("%w: mailgun domain and api key are required", ErrInvalidMailerConfigs)
		}
	default:
		return fmt.Errorf("%w: unknown provider %q", ErrInvalidMailerConfigs, cfg.Mailer.Provider)
	}

	if cfg.Workers.ResetTokenSweepInterval <= 0 {
		return ErrInvalidWorkerConfigs
	}

	return nil
}
