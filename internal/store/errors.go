package store

import "errors"

// Sentinel errors returned by storage operations to signal well-known failure
// conditions. Callers should use [errors.Is] to match against these values.
var (
	// ErrConnection is returned (wrapped) by Connect when the backend is
	// unreachable. Retrying with backoff is the caller's responsibility.
	ErrConnection = errors.New("storage backend is unreachable")

	// ErrSchema is returned (wrapped) by Initialize and Validate when DDL
	// execution fails or one of the four relations is not queryable.
	// Schema failures are fatal to startup and are never retried here.
	ErrSchema = errors.New("storage schema error")

	// ErrUserNotFound is returned when a user lookup by id or email matches
	// zero rows. An empty result is a distinct outcome, not an engine error.
	ErrUserNotFound = errors.New("user was not found")

	// ErrCredentialsNotFound is returned when no credentials row exists for
	// the queried (email, strategy) pair.
	ErrCredentialsNotFound = errors.New("credentials were not found")

	// ErrTokenNotFound is returned when a token lookup matches zero rows or
	// the matched row is revoked or past its lifetime. Callers cannot tell
	// the three cases apart, and must not need to.
	ErrTokenNotFound = errors.New("token pair was not found or is no longer valid")

	// ErrEmailAlreadyExists is returned when inserting a user whose email is
	// already registered.
	ErrEmailAlreadyExists = errors.New("email already exists")

	// ErrDuplicateCredentials is returned when inserting credentials for an
	// (email, strategy) pair that already has a row.
	ErrDuplicateCredentials = errors.New("credentials already exist for this email and strategy")
)

// Low-level database operation errors. These are returned (or wrapped) when a
// SQL-level operation fails before any domain logic can be applied.
var (
	// ErrBuildingSQLQuery is returned when constructing a parameterised SQL
	// query fails (e.g. invalid argument count or unsupported type).
	ErrBuildingSQLQuery = errors.New("error building sql query")

	// ErrUnsupportedDriver is returned by Connect when the configured driver
	// name matches no known connector.
	ErrUnsupportedDriver = errors.New("unsupported database driver")
)
