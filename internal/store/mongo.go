package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MKhiriev/snippet-keeper/internal/config"
	"github.com/MKhiriev/snippet-keeper/internal/logger"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// Collection and index names of the MongoDB backend.
const (
	usersCollection       = "users"
	resetTokensCollection = "reset_tokens"

	resetTokenHashIndex   = "reset_tokens_token_hash_key"
	resetTokenExpiryIndex = "reset_tokens_expires_at_ttl"
)

// Mongo is a MongoDB database handle shared by the Mongo repositories.
type Mongo struct {
	client *mongo.Client
	db     *mongo.Database
	logger *logger.Logger
}

// NewConnectMongo connects to MongoDB, waits for the primary to answer and
// makes sure the indexes exist.
//
// Expired reset tokens are removed by a TTL index on expires_at in addition
// to the sweeper; lookups still filter on expiry because the TTL monitor
// runs only once a minute.
func NewConnectMongo(ctx context.Context, cfg config.Mongo, log *logger.Logger) (*Mongo, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(cfg.URI).SetConnectTimeout(10 * time.Second))
	if err != nil {
		log.Err(err).Str("func", "NewConnectMongo").Msg("error connecting mongo")
		return nil, fmt.Errorf("error connecting mongo: %w", err)
	}

	if err = client.Ping(ctx, readpref.Primary()); err != nil {
		log.Err(err).Str("func", "NewConnectMongo").Msg("error connecting mongo (ping)")
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("error pinging mongo: %w", err)
	}

	m := &Mongo{
		client: client,
		db:     client.Database(cfg.Database),
		logger: log,
	}

	if err = m.ensureIndexes(ctx); err != nil {
		log.Err(err).Str("func", "NewConnectMongo").Msg("error creating indexes")
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	log.Info().Str("func", "NewConnectMongo").Msg("connected to mongo successfully")

	return m, nil
}

// Close disconnects the client.
func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

func (m *Mongo) ensureIndexes(ctx context.Context) error {
	_, err := m.db.Collection(usersCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(usersEmailConstraint),
		},
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(usersUsernameConstraint),
		},
	})
	if err != nil {
		return fmt.Errorf("error creating users indexes: %w", err)
	}

	_, err = m.db.Collection(resetTokensCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "token_hash", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(resetTokenHashIndex),
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0).SetName(resetTokenExpiryIndex),
		},
	})
	if err != nil {
		return fmt.Errorf("error creating reset token indexes: %w", err)
	}

	return nil
}

// mongoDuplicateKey maps a duplicate key error of the users collection to
// the matching sentinel. It returns nil for any other error.
func mongoDuplicateKey(err error) error {
	if !mongo.IsDuplicateKeyError(err) {
		return nil
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, usersEmailConstraint):
		return ErrEmailAlreadyExists
	case strings.Contains(msg, usersUsernameConstraint):
		return ErrUsernameAlreadyExists
	default:
		return ErrUserAlreadyExists
	}
}

// objectID parses a hex identifier. A malformed id cannot match any
// document, so it is reported as notFound.
func objectID(hex string, notFound error) (bson.ObjectID, error) {
	id, err := bson.ObjectIDFromHex(hex)
	if err != nil {
		return bson.ObjectID{}, notFound
	}
	return id, nil
}

func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}
