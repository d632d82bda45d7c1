package store

import (
	"context"

	"github.com/MKhiriev/go-auth-storage/models"
)

// Storage is the contract every authentication persistence backend must
// satisfy. It is parameterized over the identifier type so the same contract
// serves integer-keyed SQL backends and UUID-keyed backends alike.
//
// Every method suspends the caller until the backing engine responds; none
// of them block a dedicated thread. A single Storage value is safe for
// concurrent use: the only shared mutable resource is the underlying
// connection, and the engine serializes statements submitted on it.
//
// Error conventions (see errors.go): lookups return a per-entity not-found
// sentinel on an empty result, which callers must treat as "does not exist",
// not as a failure. Engine-level failures are wrapped and propagated verbatim.
type Storage[ID comparable] interface {
	// Connect establishes the underlying connection. It is idempotent:
	// calling it on an already connected backend is a no-op. Fails with
	// a [ErrConnection]-wrapped error when the backend is unreachable.
	Connect(ctx context.Context) error

	// Initialize ensures the schema exists. Idempotent and safe to run on
	// every process start; fails with a [ErrSchema]-wrapped error on DDL
	// failure.
	Initialize(ctx context.Context) error

	// Validate confirms all four relations are queryable. Used as a health
	// check; fails with a [ErrSchema]-wrapped error naming the missing
	// relation.
	Validate(ctx context.Context) error

	// CreateUser inserts a user together with its initial provider link as
	// one unit from the caller's perspective: either both rows exist
	// afterwards or neither does. Returns the created user re-read from
	// storage so backend-assigned defaults are reflected.
	CreateUser(ctx context.Context, info models.UserInfo, provider models.Strategy, providerData []byte) (models.User[ID], error)

	// CreateCredentials inserts a login secret for the given user and
	// strategy. At most one credentials row may exist per (email, strategy)
	// pair; a duplicate fails with [ErrDuplicateCredentials].
	CreateCredentials(ctx context.Context, userID ID, email, passwordHash, salt string, strategy models.Strategy) (models.Credentials[ID], error)

	// CreateToken issues a session token for the user. All previously issued
	// tokens for that user are revoked first, then the new row is inserted;
	// the revoke-then-insert order is a hard guarantee of the contract.
	// The token's lifetime is the backend's configured default.
	CreateToken(ctx context.Context, userID ID, token string, strategy models.Strategy) (models.UserTokenPair[ID], error)

	// GetCredentials returns the credentials row for the (email, strategy)
	// pair, or [ErrCredentialsNotFound] when none matches.
	GetCredentials(ctx context.Context, email string, strategy models.Strategy) (models.Credentials[ID], error)

	// GetUserTokenPair returns the token pair for the given bearer string,
	// but only when it is currently valid: not revoked and within its
	// lifetime, evaluated at the instant of the call. Revoked, expired and
	// unknown tokens all yield [ErrTokenNotFound].
	GetUserTokenPair(ctx context.Context, token string) (models.UserTokenPair[ID], error)

	// GetUserByID returns the user with the given identifier, or
	// [ErrUserNotFound].
	GetUserByID(ctx context.Context, id ID) (models.User[ID], error)

	// GetUserByEmail returns the user with the given email, or
	// [ErrUserNotFound].
	GetUserByEmail(ctx context.Context, email string) (models.User[ID], error)

	// UpdateUserProviders appends a new provider link for the user (the name
	// is historical: this is an insert, never an in-place update) and
	// returns the freshly inserted row re-read from storage.
	UpdateUserProviders(ctx context.Context, userID ID, provider models.Strategy, providerData []byte) (models.UserProvider[ID], error)

	// RevokeToken marks every row carrying the given token as revoked.
	// A token that does not exist is a successful no-op, not an error:
	// the caller interprets absence as already-revoked.
	RevokeToken(ctx context.Context, token string) error
}
