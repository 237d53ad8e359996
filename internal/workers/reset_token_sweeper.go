package workers

import (
	"context"
	"time"

	"github.com/MKhiriev/snippet-keeper/internal/logger"
	"github.com/MKhiriev/snippet-keeper/internal/metrics"
	"github.com/MKhiriev/snippet-keeper/internal/store"
)

const defaultSweepInterval = 5 * time.Minute

// ResetTokenSweeper periodically deletes expired password-reset tokens.
// Expired tokens are already rejected on lookup, so the sweeper only keeps
// the collection small.
type ResetTokenSweeper struct {
	tokens   store.ResetTokenRepository
	metrics  *metrics.Metrics
	interval time.Duration
	clock    func() time.Time

	logger *logger.Logger
}

func NewResetTokenSweeper(tokens store.ResetTokenRepository, m *metrics.Metrics, interval time.Duration, logger *logger.Logger) *ResetTokenSweeper {
	if interval <= 0 {
		interval = defaultSweepInterval
	}

	return &ResetTokenSweeper{
		tokens:   tokens,
		metrics:  m,
		interval: interval,
		clock:    time.Now,
		logger:   logger,
	}
}

// Run sweeps once immediately and then on every tick until ctx is
// cancelled. A failed sweep is logged and retried on the next tick.
func (s *ResetTokenSweeper) Run(ctx context.Context) error {
	s.logger.Info().Dur("interval", s.interval).Msg("reset token sweeper started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("reset token sweeper stopped")
			return nil
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// RunOnce deletes the tokens expired at the current time.
func (s *ResetTokenSweeper) RunOnce(ctx context.Context) (int64, error) {
	deleted, err := s.tokens.DeleteExpiredResetTokens(ctx, s.clock().UTC())
	if err != nil {
		return 0, err
	}

	s.metrics.RecordResetTokensSwept(deleted)
	return deleted, nil
}

func (s *ResetTokenSweeper) sweep(ctx context.Context) {
	deleted, err := s.RunOnce(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Err(err).Str("func", "*ResetTokenSweeper.sweep").Msg("error deleting expired reset tokens")
		}
		return
	}

	if deleted > 0 {
		s.logger.Info().Int64("deleted", deleted).Msg("expired reset tokens deleted")
	}
}
