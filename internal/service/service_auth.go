package service

import (
	"context"
	"crypto/subtle"
	"fmt"

	"github.com/google/uuid"

	"github.com/MKhiriev/go-auth-storage/internal/logger"
	"github.com/MKhiriev/go-auth-storage/internal/store"
	"github.com/MKhiriev/go-auth-storage/models"
)

// AuthService orchestrates the authentication flows on top of a
// [store.Storage] backend: registration, password login, bearer-token
// authentication and logout. It is generic over the backend's identifier
// type, so the same service runs against the SQL and in-memory backends.
//
// The service never sees plaintext passwords past hashing and never
// interprets provider payloads. Token strings it issues are opaque UUIDs;
// their lifetime is owned by the storage backend.
type AuthService[ID comparable] struct {
	storage store.Storage[ID]
	logger  *logger.Logger
}

// NewAuthService constructs an [AuthService] wired to the given backend.
//
// The returned service is safe for concurrent use; all state is read-only
// after construction.
func NewAuthService[ID comparable](storage store.Storage[ID], log *logger.Logger) *AuthService[ID] {
	return &AuthService[ID]{
		storage: storage,
		logger:  log,
	}
}

// Register creates a new account: the user row with its initial provider
// link, then local-strategy credentials derived from the supplied password.
//
// Returns the persisted user or:
//   - ErrInvalidDataProvided if email or password is empty, or the provider
//     strategy is unknown.
//   - A wrapped storage error if persistence fails (e.g. email already
//     taken — see store.ErrEmailAlreadyExists).
func (a *AuthService[ID]) Register(ctx context.Context, info models.UserInfo, password string, provider models.Strategy, providerData []byte) (models.User[ID], error) {
	log := logger.FromContext(ctx)

	if info.Email == "" || password == "" || !provider.Valid() {
		log.Error().Str("email", info.Email).Str("provider", provider.String()).Msg("invalid registration data provided")
		return models.User[ID]{}, ErrInvalidDataProvided
	}

	user, err := a.storage.CreateUser(ctx, info, provider, providerData)
	if err != nil {
		log.Err(err).Str("email", info.Email).Msg("user creation ended with error")
		return models.User[ID]{}, fmt.Errorf("user creation ended with error: %w", err)
	}

	salt, err := generateSalt()
	if err != nil {
		return models.User[ID]{}, fmt.Errorf("error generating credentials salt: %w", err)
	}

	if _, err := a.storage.CreateCredentials(ctx, user.ID, info.Email, hashPassword(password, salt), salt, models.StrategyLocal); err != nil {
		log.Err(err).Str("email", info.Email).Msg("credentials creation ended with error")
		return models.User[ID]{}, fmt.Errorf("credentials creation ended with error: %w", err)
	}

	return user, nil
}

// Login authenticates a user by password and issues a fresh session token,
// revoking every previously issued one for that account.
//
// Returns the new token pair or:
//   - ErrInvalidDataProvided if email or password is empty.
//   - A wrapped storage error if the credentials lookup fails (e.g.
//     store.ErrCredentialsNotFound for an unknown email/strategy pair).
//   - ErrWrongPassword if the derived hash does not match.
func (a *AuthService[ID]) Login(ctx context.Context, email, password string, strategy models.Strategy) (models.UserTokenPair[ID], error) {
	log := logger.FromContext(ctx)

	if email == "" || password == "" {
		log.Error().Str("email", email).Msg("invalid login data provided")
		return models.UserTokenPair[ID]{}, ErrInvalidDataProvided
	}

	creds, err := a.storage.GetCredentials(ctx, email, strategy)
	if err != nil {
		log.Err(err).Str("email", email).Str("strategy", strategy.String()).Msg("credentials lookup failed")
		return models.UserTokenPair[ID]{}, fmt.Errorf("credentials lookup failed: %w", err)
	}

	derived := hashPassword(password, creds.Salt)
	if subtle.ConstantTimeCompare([]byte(derived), []byte(creds.PasswordHash)) != 1 {
		log.Error().Str("email", email).Msg("wrong password")
		return models.UserTokenPair[ID]{}, ErrWrongPassword
	}

	pair, err := a.storage.CreateToken(ctx, creds.UserID, uuid.NewString(), strategy)
	if err != nil {
		log.Err(err).Str("email", email).Msg("token creation ended with error")
		return models.UserTokenPair[ID]{}, fmt.Errorf("token creation ended with error: %w", err)
	}

	return pair, nil
}

// Authenticate resolves a bearer token to its owning user. Revoked, expired
// and unknown tokens all fail with a wrapped store.ErrTokenNotFound.
func (a *AuthService[ID]) Authenticate(ctx context.Context, token string) (models.User[ID], error) {
	log := logger.FromContext(ctx)

	pair, err := a.storage.GetUserTokenPair(ctx, token)
	if err != nil {
		log.Err(err).Msg("token pair lookup failed")
		return models.User[ID]{}, fmt.Errorf("token pair lookup failed: %w", err)
	}

	return a.storage.GetUserByID(ctx, pair.UserID)
}

// Logout revokes the given token. Revoking a token that does not exist is a
// successful no-op, so Logout is idempotent.
func (a *AuthService[ID]) Logout(ctx context.Context, token string) error {
	return a.storage.RevokeToken(ctx, token)
}

// LinkProvider attaches an additional identity provider to an existing
// account (e.g. linking GitHub to an account registered with Google).
func (a *AuthService[ID]) LinkProvider(ctx context.Context, userID ID, provider models.Strategy, providerData []byte) (models.UserProvider[ID], error) {
	if !provider.Valid() {
		return models.UserProvider[ID]{}, ErrInvalidDataProvided
	}

	return a.storage.UpdateUserProviders(ctx, userID, provider, providerData)
}
