package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/MKhiriev/snippet-keeper/internal/config"
	"github.com/MKhiriev/snippet-keeper/internal/logger"
	"github.com/redis/go-redis/v9"
)

// rateLimitKeyPrefix namespaces rate-limit keys in a shared Redis.
const rateLimitKeyPrefix = "snippet-keeper:ratelimit"

// Storages groups the repositories of the configured backend.
type Storages struct {
	UserRepository       UserRepository
	ResetTokenRepository ResetTokenRepository
	RateLimitStore       RateLimitStore

	closers []func(ctx context.Context) error
}

// NewStorages connects the backend selected by cfg.Storage.Driver, applies
// migrations for the SQL backends and builds the rate-limit store: Redis
// when an address is configured, in-process memory otherwise.
func NewStorages(ctx context.Context, cfg config.Storage, log *logger.Logger) (*Storages, error) {
	s := &Storages{}

	switch cfg.Driver {
	case config.DriverPostgres, config.DriverSQLite:
		connect := NewConnectPostgres
		if cfg.Driver == config.DriverSQLite {
			connect = NewConnectSQLite
		}

		db, err := connect(ctx, cfg.DB, log)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, func(context.Context) error { return db.Close() })

		if err = db.Migrate(ctx); err != nil {
			log.Err(err).Str("func", "store.NewStorages").Msg("error migrating database")
			_ = s.Close(ctx)
			return nil, err
		}

		s.UserRepository = NewUserRepository(db, log)
		s.ResetTokenRepository = NewResetTokenRepository(db, log)

	case config.DriverMongo:
		m, err := NewConnectMongo(ctx, cfg.Mongo, log)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, m.Close)

		s.UserRepository = NewMongoUserRepository(m, log)
		s.ResetTokenRepository = NewMongoResetTokenRepository(m, log)

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, cfg.Driver)
	}

	if cfg.Cache.RedisAddress == "" {
		log.Info().Str("func", "store.NewStorages").Msg("no redis configured, rate limiting is per process")
		s.RateLimitStore = NewMemoryRateLimitStore()
		return s, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Cache.RedisAddress,
		Password: cfg.Cache.RedisPassword,
		DB:       cfg.Cache.RedisDB,
	})
	s.closers = append(s.closers, func(context.Context) error { return client.Close() })

	if err := client.Ping(ctx).Err(); err != nil {
		log.Err(err).Str("func", "store.NewStorages").Msg("error connecting redis")
		_ = s.Close(ctx)
		return nil, fmt.Errorf("error connecting redis: %w", err)
	}
	s.RateLimitStore = NewRedisRateLimitStore(client, rateLimitKeyPrefix)

	return s, nil
}

// Close releases every connection opened by [NewStorages].
func (s *Storages) Close(ctx context.Context) error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil

	return errors.Join(errs...)
}
