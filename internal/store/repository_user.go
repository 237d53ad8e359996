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

var userColumns = []string{
	"id",
	"username",
	"email",
	"password_hash",
	"login_attempts",
	"lock_until",
	"created_at",
	"updated_at",
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// userRepository is the SQL implementation of [UserRepository], shared by
// the PostgreSQL and SQLite backends.
//
// All methods obtain a context-scoped logger via [logger.FromContext] for
// structured, request-level tracing of database interactions.
type userRepository struct {
	db     *DB
	ids    *utils.UUIDGenerator
	logger *logger.Logger
}

// NewUserRepository constructs a [UserRepository] backed by the provided
// database connection and logger.
func NewUserRepository(db *DB, logger *logger.Logger) UserRepository {
	logger.Debug().Msg("creating user repository")
	return &userRepository{
		db:     db,
		ids:    utils.NewUUIDGenerator(),
		logger: logger,
	}
}

// CreateUser assigns a UUIDv7 and timestamps to user and inserts it.
//
// A unique violation on email or username is reported as
// [ErrEmailAlreadyExists] or [ErrUsernameAlreadyExists].
func (r *userRepository) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	log := logger.FromContext(ctx)

	now := time.Now().UTC()
	user.UserID = r.ids.Generate()
	user.CreatedAt = now
	user.UpdatedAt = now

	query, args, err := r.db.builder.
		Insert(user.TableName()).
		Columns(userColumns...).
		Values(user.UserID, user.Username, user.Email, user.PasswordHash, user.LoginAttempts, utcPtr(user.LockUntil), now, now).
		ToSql()
	if err != nil {
		return models.User{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err = r.db.ExecContext(ctx, query, args...); err != nil {
		if dup := uniqueViolation(err); dup != nil {
			log.Debug().Str("func", "*userRepository.CreateUser").Msg(dup.Error())
			return models.User{}, dup
		}
		log.Err(err).Str("func", "*userRepository.CreateUser").Msg("error inserting user")
		return models.User{}, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return user, nil
}

// FindUserByEmail returns the account with the given email, password hash
// included.
func (r *userRepository) FindUserByEmail(ctx context.Context, email string) (models.User, error) {
	return r.findOne(ctx, squirrel.Eq{"email": email})
}

func (r *userRepository) FindUserByUsername(ctx context.Context, username string) (models.User, error) {
	return r.findOne(ctx, squirrel.Eq{"username": username})
}

func (r *userRepository) FindUserByID(ctx context.Context, userID string) (models.User, error) {
	return r.findOne(ctx, squirrel.Eq{"id": userID})
}

// SaveUser writes the password hash and lockout counters of user.
func (r *userRepository) SaveUser(ctx context.Context, user models.User) (models.User, error) {
	log := logger.FromContext(ctx)

	saved, err := saveUser(ctx, r.db, r.db.builder, user)
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			log.Err(err).Str("func", "*userRepository.SaveUser").Msg("error updating user")
		}
		return models.User{}, err
	}

	return saved, nil
}

func (r *userRepository) findOne(ctx context.Context, where squirrel.Eq) (models.User, error) {
	log := logger.FromContext(ctx)

	query, args, err := r.db.builder.
		Select(userColumns...).
		From(models.User{}.TableName()).
		Where(where).
		ToSql()
	if err != nil {
		return models.User{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	user, err := scanUser(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrUserNotFound
		}
		log.Err(err).Str("func", "*userRepository.findOne").Msg("error selecting user")
		return models.User{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return user, nil
}

// saveUser updates the mutable columns of user through exec. Zero affected
// rows means the user does not exist.
func saveUser(ctx context.Context, exec execer, builder squirrel.StatementBuilderType, user models.User) (models.User, error) {
	user.UpdatedAt = time.Now().UTC()

	query, args, err := builder.
		Update(user.TableName()).
		Set("password_hash", user.PasswordHash).
		Set("login_attempts", user.LoginAttempts).
		Set("lock_until", utcPtr(user.LockUntil)).
		Set("updated_at", user.UpdatedAt).
		Where(squirrel.Eq{"id": user.UserID}).
		ToSql()
	if err != nil {
		return models.User{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	res, err := exec.ExecContext(ctx, query, args...)
	if err != nil {
		return models.User{}, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return models.User{}, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	if affected == 0 {
		return models.User{}, ErrUserNotFound
	}

	return user, nil
}

func scanUser(row rowScanner) (models.User, error) {
	var (
		user      models.User
		lockUntil sql.NullTime
	)

	err := row.Scan(
		&user.UserID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.LoginAttempts,
		&lockUntil,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return models.User{}, err
	}

	if lockUntil.Valid {
		t := lockUntil.Time
		user.LockUntil = &t
	}

	return user, nil
}

// utcPtr keeps every stored timestamp in UTC so SQLite text comparisons
// order correctly.
func utcPtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
