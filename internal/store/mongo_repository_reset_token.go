package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MKhiriev/snippet-keeper/internal/logger"
	"github.com/MKhiriev/snippet-keeper/models"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

type resetTokenDocument struct {
	ID        bson.ObjectID `bson:"_id,omitempty"`
	UserID    bson.ObjectID `bson:"user_id"`
	TokenHash string        `bson:"token_hash"`
	SessionID string        `bson:"session_id"`
	ExpiresAt time.Time     `bson:"expires_at"`
	CreatedAt time.Time     `bson:"created_at"`
}

func (d resetTokenDocument) toModel() models.ResetToken {
	return models.ResetToken{
		ID:        d.ID.Hex(),
		UserID:    d.UserID.Hex(),
		TokenHash: d.TokenHash,
		SessionID: d.SessionID,
		ExpiresAt: d.ExpiresAt,
		CreatedAt: d.CreatedAt,
	}
}

// mongoResetTokenRepository is the MongoDB implementation of
// [ResetTokenRepository].
type mongoResetTokenRepository struct {
	tokens *mongo.Collection
	users  *mongo.Collection
	logger *logger.Logger
}

// NewMongoResetTokenRepository constructs a [ResetTokenRepository] over the
// reset_tokens collection of m.
func NewMongoResetTokenRepository(m *Mongo, logger *logger.Logger) ResetTokenRepository {
	logger.Debug().Msg("creating mongo reset token repository")
	return &mongoResetTokenRepository{
		tokens: m.db.Collection(resetTokensCollection),
		users:  m.db.Collection(usersCollection),
		logger: logger,
	}
}

func (r *mongoResetTokenRepository) CreateResetToken(ctx context.Context, token models.ResetToken) (models.ResetToken, error) {
	log := logger.FromContext(ctx)

	userID, err := objectID(token.UserID, ErrUserNotFound)
	if err != nil {
		return models.ResetToken{}, err
	}

	doc := resetTokenDocument{
		ID:        bson.NewObjectID(),
		UserID:    userID,
		TokenHash: token.TokenHash,
		SessionID: token.SessionID,
		ExpiresAt: token.ExpiresAt.UTC(),
		CreatedAt: time.Now().UTC(),
	}

	if _, err = r.tokens.InsertOne(ctx, doc); err != nil {
		log.Err(err).Str("func", "*mongoResetTokenRepository.CreateResetToken").Msg("error inserting reset token")
		return models.ResetToken{}, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return doc.toModel(), nil
}

func (r *mongoResetTokenRepository) FindValidResetToken(ctx context.Context, tokenHash string, now time.Time) (models.ResetToken, error) {
	log := logger.FromContext(ctx)

	filter := bson.D{
		{Key: "token_hash", Value: tokenHash},
		{Key: "expires_at", Value: bson.D{{Key: "$gt", Value: now.UTC()}}},
	}

	var doc resetTokenDocument
	if err := r.tokens.FindOne(ctx, filter).Decode(&doc); err != nil {
		if isNoDocuments(err) {
			return models.ResetToken{}, ErrResetTokenNotFound
		}
		log.Err(err).Str("func", "*mongoResetTokenRepository.FindValidResetToken").Msg("error finding reset token")
		return models.ResetToken{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return doc.toModel(), nil
}

func (r *mongoResetTokenRepository) DeleteResetToken(ctx context.Context, tokenID string) error {
	log := logger.FromContext(ctx)

	id, err := bson.ObjectIDFromHex(tokenID)
	if err != nil {
		// nothing can match a malformed id
		return nil
	}

	if _, err = r.tokens.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}}); err != nil {
		log.Err(err).Str("func", "*mongoResetTokenRepository.DeleteResetToken").Msg("error deleting reset token")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}

// ConsumeResetToken claims the token with an atomic FindOneAndDelete, so
// only one of several concurrent consumers gets it, and then saves the user.
// If saving fails the token is put back.
func (r *mongoResetTokenRepository) ConsumeResetToken(ctx context.Context, tokenID string, user models.User, now time.Time) (models.User, error) {
	log := logger.FromContext(ctx)

	id, err := objectID(tokenID, ErrResetTokenNotFound)
	if err != nil {
		return models.User{}, err
	}

	filter := bson.D{
		{Key: "_id", Value: id},
		{Key: "expires_at", Value: bson.D{{Key: "$gt", Value: now.UTC()}}},
	}

	var claimed resetTokenDocument
	if err = r.tokens.FindOneAndDelete(ctx, filter).Decode(&claimed); err != nil {
		if isNoDocuments(err) {
			return models.User{}, ErrResetTokenNotFound
		}
		log.Err(err).Str("func", "*mongoResetTokenRepository.ConsumeResetToken").Msg("error claiming reset token")
		return models.User{}, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	saved, err := saveUserDocument(ctx, r.users, user)
	if err != nil {
		if _, restoreErr := r.tokens.InsertOne(context.WithoutCancel(ctx), claimed); restoreErr != nil {
			log.Err(restoreErr).Str("func", "*mongoResetTokenRepository.ConsumeResetToken").Msg("error restoring reset token")
		}
		if !errors.Is(err, ErrUserNotFound) {
			log.Err(err).Str("func", "*mongoResetTokenRepository.ConsumeResetToken").Msg("error saving user")
		}
		return models.User{}, err
	}

	return saved, nil
}

func (r *mongoResetTokenRepository) DeleteExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	log := logger.FromContext(ctx)

	res, err := r.tokens.DeleteMany(ctx, bson.D{{Key: "expires_at", Value: bson.D{{Key: "$lte", Value: now.UTC()}}}})
	if err != nil {
		log.Err(err).Str("func", "*mongoResetTokenRepository.DeleteExpiredResetTokens").Msg("error deleting expired reset tokens")
		return 0, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return res.DeletedCount, nil
}
