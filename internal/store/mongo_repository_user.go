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

type userDocument struct {
	ID            bson.ObjectID `bson:"_id,omitempty"`
	Username      string        `bson:"username"`
	Email         string        `bson:"email"`
	PasswordHash  string        `bson:"password_hash"`
	LoginAttempts int           `bson:"login_attempts"`
	LockUntil     *time.Time    `bson:"lock_until"`
	CreatedAt     time.Time     `bson:"created_at"`
	UpdatedAt     time.Time     `bson:"updated_at"`
}

func newUserDocument(user models.User) userDocument {
	return userDocument{
		Username:      user.Username,
		Email:         user.Email,
		PasswordHash:  user.PasswordHash,
		LoginAttempts: user.LoginAttempts,
		LockUntil:     user.LockUntil,
		CreatedAt:     user.CreatedAt,
		UpdatedAt:     user.UpdatedAt,
	}
}

func (d userDocument) toModel() models.User {
	return models.User{
		UserID:        d.ID.Hex(),
		Username:      d.Username,
		Email:         d.Email,
		PasswordHash:  d.PasswordHash,
		LoginAttempts: d.LoginAttempts,
		LockUntil:     d.LockUntil,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

// mongoUserRepository is the MongoDB implementation of [UserRepository].
type mongoUserRepository struct {
	users  *mongo.Collection
	logger *logger.Logger
}

// NewMongoUserRepository constructs a [UserRepository] over the users
// collection of m.
func NewMongoUserRepository(m *Mongo, logger *logger.Logger) UserRepository {
	logger.Debug().Msg("creating mongo user repository")
	return &mongoUserRepository{
		users:  m.db.Collection(usersCollection),
		logger: logger,
	}
}

func (r *mongoUserRepository) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	log := logger.FromContext(ctx)

	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	doc := newUserDocument(user)
	doc.ID = bson.NewObjectID()

	if _, err := r.users.InsertOne(ctx, doc); err != nil {
		if dup := mongoDuplicateKey(err); dup != nil {
			log.Debug().Str("func", "*mongoUserRepository.CreateUser").Msg(dup.Error())
			return models.User{}, dup
		}
		log.Err(err).Str("func", "*mongoUserRepository.CreateUser").Msg("error inserting user")
		return models.User{}, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return doc.toModel(), nil
}

func (r *mongoUserRepository) FindUserByEmail(ctx context.Context, email string) (models.User, error) {
	return r.findOne(ctx, bson.D{{Key: "email", Value: email}})
}

func (r *mongoUserRepository) FindUserByUsername(ctx context.Context, username string) (models.User, error) {
	return r.findOne(ctx, bson.D{{Key: "username", Value: username}})
}

func (r *mongoUserRepository) FindUserByID(ctx context.Context, userID string) (models.User, error) {
	id, err := objectID(userID, ErrUserNotFound)
	if err != nil {
		return models.User{}, err
	}
	return r.findOne(ctx, bson.D{{Key: "_id", Value: id}})
}

func (r *mongoUserRepository) SaveUser(ctx context.Context, user models.User) (models.User, error) {
	log := logger.FromContext(ctx)

	saved, err := saveUserDocument(ctx, r.users, user)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		log.Err(err).Str("func", "*mongoUserRepository.SaveUser").Msg("error updating user")
	}

	return saved, err
}

func (r *mongoUserRepository) findOne(ctx context.Context, filter bson.D) (models.User, error) {
	log := logger.FromContext(ctx)

	var doc userDocument
	if err := r.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		if isNoDocuments(err) {
			return models.User{}, ErrUserNotFound
		}
		log.Err(err).Str("func", "*mongoUserRepository.findOne").Msg("error finding user")
		return models.User{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return doc.toModel(), nil
}

// saveUserDocument sets the mutable fields of user. No matched document
// means the user does not exist.
func saveUserDocument(ctx context.Context, users *mongo.Collection, user models.User) (models.User, error) {
	id, err := objectID(user.UserID, ErrUserNotFound)
	if err != nil {
		return models.User{}, err
	}

	user.UpdatedAt = time.Now().UTC()
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "password_hash", Value: user.PasswordHash},
		{Key: "login_attempts", Value: user.LoginAttempts},
		{Key: "lock_until", Value: user.LockUntil},
		{Key: "updated_at", Value: user.UpdatedAt},
	}}}

	res, err := users.UpdateByID(ctx, id, update)
	if err != nil {
		return models.User{}, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	if res.MatchedCount == 0 {
		return models.User{}, ErrUserNotFound
	}

	return user, nil
}
