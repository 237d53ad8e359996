package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/MKhiriev/snippet-keeper/internal/logger"
	"github.com/MKhiriev/snippet-keeper/internal/utils"
	"github.com/MKhiriev/snippet-keeper/models"
)

var resetTokenColumns = []string{
	"id",
	"user_id",
	"token_hash",
	"session_id",
	"expires_at",
	"created_at",
}

// resetTokenRepository is the SQL implementation of [ResetTokenRepository].
type resetTokenRepository struct {
	db     *DB
	ids    *utils.UUIDGenerator
	logger *logger.Logger
}

// NewResetTokenRepository constructs a [ResetTokenRepository] backed by db.
func NewResetTokenRepository(db *DB, logger *logger.Logger) ResetTokenRepository {
	logger.Debug().Msg("creating reset token repository")
	return &resetTokenRepository{
		db:     db,
		ids:    utils.NewUUIDGenerator(),
		logger: logger,
	}
}

func (r *resetTokenRepository) CreateResetToken(ctx context.Context, token models.ResetToken) (models.ResetToken, error) {
	log := logger.FromContext(ctx)

	token.ID = r.ids.Generate()
	token.CreatedAt = time.Now().UTC()
	token.ExpiresAt = token.ExpiresAt.UTC()

	query, args, err := r.db.builder.
		Insert(token.TableName()).
		Columns(resetTokenColumns...).
		Values(token.ID, token.UserID, token.TokenHash, token.SessionID, token.ExpiresAt, token.CreatedAt).
		ToSql()
	if err != nil {
		return models.ResetToken{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err = r.db.ExecContext(ctx, query, args...); err != nil {
		log.Err(err).Str("func", "*resetTokenRepository.CreateResetToken").Msg("error inserting reset token")
		return models.ResetToken{}, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return token, nil
}

// FindValidResetToken filters on expiry in the query itself, so an expired
// row is indistinguishable from a missing one.
func (r *resetTokenRepository) FindValidResetToken(ctx context.Context, tokenHash string, now time.Time) (models.ResetToken, error) {
	log := logger.FromContext(ctx)

	query, args, err := r.db.builder.
		Select(resetTokenColumns...).
		From(models.ResetToken{}.TableName()).
		Where(squirrel.Eq{"token_hash": tokenHash}).
		Where(squirrel.Gt{"expires_at": now.UTC()}).
		ToSql()
	if err != nil {
		return models.ResetToken{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var token models.ResetToken
	err = r.db.QueryRowContext(ctx, query, args...).Scan(
		&token.ID,
		&token.UserID,
		&token.TokenHash,
		&token.SessionID,
		&token.ExpiresAt,
		&token.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.ResetToken{}, ErrResetTokenNotFound
		}
		log.Err(err).Str("func", "*resetTokenRepository.FindValidResetToken").Msg("error selecting reset token")
		return models.ResetToken{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return token, nil
}

func (r *resetTokenRepository) DeleteResetToken(ctx context.Context, tokenID string) error {
	log := logger.FromContext(ctx)

	query, args, err := r.db.builder.
		Delete(models.ResetToken{}.TableName()).
		Where(squirrel.Eq{"id": tokenID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err = r.db.ExecContext(ctx, query, args...); err != nil {
		log.Err(err).Str("func", "*resetTokenRepository.DeleteResetToken").Msg("error deleting reset token")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}

// ConsumeResetToken deletes the token and saves the user in one transaction.
// The delete is conditioned on the token still being unexpired, so of two
// concurrent consumers only one sees an affected row.
func (r *resetTokenRepository) ConsumeResetToken(ctx context.Context, tokenID string, user models.User, now time.Time) (models.User, error) {
	log := logger.FromContext(ctx)

	var saved models.User
	err := r.db.withTx(ctx, func(tx *sql.Tx) error {
		query, args, err := r.db.builder.
			Delete(models.ResetToken{}.TableName()).
			Where(squirrel.Eq{"id": tokenID}).
			Where(squirrel.Gt{"expires_at": now.UTC()}).
			ToSql()
		if err != nil {
			return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
		}

		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
		}
		if affected == 0 {
			return ErrResetTokenNotFound
		}

		saved, err = saveUser(ctx, tx, r.db.builder, user)
		return err
	})
	if err != nil {
		if !errors.Is(err, ErrResetTokenNotFound) && !errors.Is(err, ErrUserNotFound) {
			log.Err(err).Str("func", "*resetTokenRepository.ConsumeResetToken").Msg("error consuming reset token")
		}
		return models.User{}, err
	}

	return saved, nil
}

func (r *resetTokenRepository) DeleteExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	log := logger.FromContext(ctx)

	query, args, err := r.db.builder.
		Delete(models.ResetToken{}.TableName()).
		Where(squirrel.LtOrEq{"expires_at": now.UTC()}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Err(err).Str("func", "*resetTokenRepository.DeleteExpiredResetTokens").Msg("error deleting expired reset tokens")
		return 0, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return res.RowsAffected()
}
