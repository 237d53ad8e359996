package store

import "errors"

// Sentinel errors returned by repository methods to signal well-known failure
// conditions. Callers should use [errors.Is] to match against these values.
var (
	// ErrUserNotFound is returned when a user lookup produces no record.
	ErrUserNotFound = errors.New("no user was found")

	// ErrEmailAlreadyExists is returned when a write fails because another
	// account already uses the email.
	ErrEmailAlreadyExists = errors.New("email already exists")

	// ErrUsernameAlreadyExists is returned when a write fails because
	// another account already uses the username.
	ErrUsernameAlreadyExists = errors.New("username already exists")

	// ErrUserAlreadyExists is returned on a uniqueness violation that cannot
	// be attributed to a single column.
	ErrUserAlreadyExists = errors.New("user already exists")

	// ErrResetTokenNotFound is returned when no unexpired reset token
	// matches, including when a concurrent request consumed it first.
	ErrResetTokenNotFound = errors.New("reset token was not found")

	// ErrUnsupportedDriver is returned by [NewStorages] for an unknown
	// storage driver.
	ErrUnsupportedDriver = errors.New("unsupported storage driver")
)

// Low-level database operation errors. These are returned (or wrapped) by
// repository methods when a store-level operation fails before any domain
// logic can be applied.
var (
	// ErrBuildingSQLQuery is returned when constructing a parameterised SQL
	// query fails.
	ErrBuildingSQLQuery = errors.New("error building sql query")

	// ErrExecutingQuery is returned when executing a SELECT or similar
	// read-only query against the database fails.
	ErrExecutingQuery = errors.New("error executing sql query")

	// ErrBeginningTransaction is returned when the database driver cannot
	// start a new transaction.
	ErrBeginningTransaction = errors.New("failed to begin transaction")

	// ErrCommitingTransaction is returned when committing an open transaction
	// fails. The transaction is considered rolled back at this point.
	ErrCommitingTransaction = errors.New("failed to commit transaction")

	// ErrExecutingStatement is returned when executing a DML statement
	// (INSERT, UPDATE, DELETE) fails.
	ErrExecutingStatement = errors.New("failed to executing statement")

	// ErrScanningRow is returned when scanning column values from a single
	// result row into a destination struct fails.
	ErrScanningRow = errors.New("failed to scan row")
)
