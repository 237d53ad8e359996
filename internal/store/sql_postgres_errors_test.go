package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
)

func TestPostgresErrorClassifier_Classify(t *testing.T) {
	c := NewPostgresErrorClassifier()

	tests := []struct {
		name string
		err  error
		want ErrorClassification
	}{
		{"nil", nil, NonRetryable},
		{"plain", errors.New("x"), NonRetryable},
		{"connection failure", &pgconn.PgError{Code: pgerrcode.ConnectionFailure}, Retryable},
		{"cannot connect now", &pgconn.PgError{Code: pgerrcode.CannotConnectNow}, Retryable},
		{"deadlock wrapped", fmt.Errorf("tx: %w", &pgconn.PgError{Code: pgerrcode.DeadlockDetected}), Retryable},
		{"unique violation", &pgconn.PgError{Code: pgerrcode.UniqueViolation}, NonRetryable},
		{"syntax error", &pgconn.PgError{Code: pgerrcode.SyntaxError}, NonRetryable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.err))
		})
	}
}

func TestUniqueViolation(t *testing.T) {
	assert.Nil(t, uniqueViolation(errors.New("x")))
	assert.Nil(t, uniqueViolation(&pgconn.PgError{Code: pgerrcode.NotNullViolation}))
	assert.ErrorIs(t, uniqueViolation(uniqueViolationError(usersEmailConstraint)), ErrEmailAlreadyExists)
	assert.ErrorIs(t, uniqueViolation(uniqueViolationError(usersUsernameConstraint)), ErrUsernameAlreadyExists)

	liteEmail := sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique}
	// sqlite3.Error carries its message unexported, so the column cannot be
	// told apart here; the sqlite tests cover the real driver message.
	assert.ErrorIs(t, uniqueViolation(liteEmail), ErrUserAlreadyExists)
}

func TestPostgresError(t *testing.T) {
	assert.Equal(t, pgerrcode.UniqueViolation, postgresError(uniqueViolationError("x")))
	assert.Empty(t, postgresError(errors.New("x")))
}
