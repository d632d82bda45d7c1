package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-auth-storage/models"
)

func newTestMemoryStorage(t *testing.T) *MemoryStorage {
	t.Helper()

	m := NewMemoryStorage(3600)
	require.NoError(t, m.Connect(context.Background()))
	require.NoError(t, m.Initialize(context.Background()))
	return m
}

func TestMemoryValidate_BeforeInitialize(t *testing.T) {
	m := NewMemoryStorage(3600)

	err := m.Validate(context.Background())
	require.ErrorIs(t, err, ErrSchema)
}

func TestMemoryInitialize_Idempotent(t *testing.T) {
	m := newTestMemoryStorage(t)
	ctx := context.Background()

	user, err := m.CreateUser(ctx, models.UserInfo{Email: "alice@example.com"}, models.StrategyLocal, []byte(`{}`))
	require.NoError(t, err)

	// a second Initialize must not wipe existing data
	require.NoError(t, m.Initialize(ctx))

	found, err := m.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user, found)
}

func TestMemoryCreateUser_RoundTrip(t *testing.T) {
	m := newTestMemoryStorage(t)
	ctx := context.Background()

	info := models.UserInfo{
		Email:       "alice@example.com",
		Username:    "alice",
		FirstName:   "Alice",
		LastName:    "Smith",
		DateOfBirth: time.Date(1990, 4, 12, 0, 0, 0, 0, time.UTC),
		Gender:      "female",
		Picture:     "https://example.com/alice.png",
	}

	created, err := m.CreateUser(ctx, info, models.StrategyLocal, []byte(`{}`))
	require.NoError(t, err)

	found, err := m.GetUserByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, info, found.UserInfo)

	byEmail, err := m.GetUserByEmail(ctx, info.Email)
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)
}

func TestMemoryCreateUser_DuplicateEmail(t *testing.T) {
	m := newTestMemoryStorage(t)
	ctx := context.Background()

	_, err := m.CreateUser(ctx, models.UserInfo{Email: "alice@example.com"}, models.StrategyLocal, nil)
	require.NoError(t, err)

	_, err = m.CreateUser(ctx, models.UserInfo{Email: "alice@example.com"}, models.StrategyGoogle, nil)
	require.ErrorIs(t, err, ErrEmailAlreadyExists)
}

func TestMemoryCreateUser_BadProviderRollsBack(t *testing.T) {
	m := newTestMemoryStorage(t)
	ctx := context.Background()

	_, err := m.CreateUser(ctx, models.UserInfo{Email: "bob@example.com"}, models.Strategy("imaginary"), nil)
	require.Error(t, err)

	// the user row inserted before the failed link must be gone again
	_, err = m.GetUserByEmail(ctx, "bob@example.com")
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestMemoryGetCredentials_StrategyScoped(t *testing.T) {
	m := newTestMemoryStorage(t)
	ctx := context.Background()

	user, err := m.CreateUser(ctx, models.UserInfo{Email: "alice@example.com"}, models.StrategyLocal, nil)
	require.NoError(t, err)

	_, err = m.CreateCredentials(ctx, user.ID, "alice@example.com", "hash-local", "salt", models.StrategyLocal)
	require.NoError(t, err)
	_, err = m.CreateCredentials(ctx, user.ID, "alice@example.com", "hash-google", "salt", models.StrategyGoogle)
	require.NoError(t, err)

	// duplicate (email, strategy) pair is rejected
	_, err = m.CreateCredentials(ctx, user.ID, "alice@example.com", "hash-again", "salt", models.StrategyLocal)
	require.ErrorIs(t, err, ErrDuplicateCredentials)

	local, err := m.GetCredentials(ctx, "alice@example.com", models.StrategyLocal)
	require.NoError(t, err)
	assert.Equal(t, "hash-local", local.PasswordHash)

	google, err := m.GetCredentials(ctx, "alice@example.com", models.StrategyGoogle)
	require.NoError(t, err)
	assert.Equal(t, "hash-google", google.PasswordHash)

	_, err = m.GetCredentials(ctx, "alice@example.com", models.StrategyGitHub)
	require.ErrorIs(t, err, ErrCredentialsNotFound)
}

func TestMemoryCreateToken_SecondTokenRevokesFirst(t *testing.T) {
	m := newTestMemoryStorage(t)
	ctx := context.Background()

	user, err := m.CreateUser(ctx, models.UserInfo{Email: "alice@example.com"}, models.StrategyLocal, nil)
	require.NoError(t, err)

	_, err = m.CreateToken(ctx, user.ID, "tok-1", models.StrategyLocal)
	require.NoError(t, err)
	_, err = m.CreateToken(ctx, user.ID, "tok-2", models.StrategyLocal)
	require.NoError(t, err)

	_, err = m.GetUserTokenPair(ctx, "tok-1")
	require.ErrorIs(t, err, ErrTokenNotFound, "issuing tok-2 must revoke tok-1")

	pair, err := m.GetUserTokenPair(ctx, "tok-2")
	require.NoError(t, err)
	assert.Equal(t, user.ID, pair.UserID)
	assert.False(t, pair.Revoked)
}

func TestMemoryCreateToken_DoesNotTouchOtherUsers(t *testing.T) {
	m := newTestMemoryStorage(t)
	ctx := context.Background()

	alice, err := m.CreateUser(ctx, models.UserInfo{Email: "alice@example.com"}, models.StrategyLocal, nil)
	require.NoError(t, err)
	bob, err := m.CreateUser(ctx, models.UserInfo{Email: "bob@example.com"}, models.StrategyLocal, nil)
	require.NoError(t, err)

	_, err = m.CreateToken(ctx, alice.ID, "tok-alice", models.StrategyLocal)
	require.NoError(t, err)
	_, err = m.CreateToken(ctx, bob.ID, "tok-bob", models.StrategyLocal)
	require.NoError(t, err)

	_, err = m.GetUserTokenPair(ctx, "tok-alice")
	require.NoError(t, err, "bob's token must not revoke alice's")
}

func TestMemoryGetUserTokenPair_LifetimeBoundary(t *testing.T) {
	m := newTestMemoryStorage(t)
	ctx := context.Background()

	created := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return created }

	user, err := m.CreateUser(ctx, models.UserInfo{Email: "alice@example.com"}, models.StrategyLocal, nil)
	require.NoError(t, err)
	_, err = m.CreateToken(ctx, user.ID, "tok-1", models.StrategyLocal)
	require.NoError(t, err)

	// one second before expiry
	m.now = func() time.Time { return created.Add(3599 * time.Second) }
	_, err = m.GetUserTokenPair(ctx, "tok-1")
	require.NoError(t, err)

	// exactly at lifetime: inclusive boundary
	m.now = func() time.Time { return created.Add(3600 * time.Second) }
	_, err = m.GetUserTokenPair(ctx, "tok-1")
	require.NoError(t, err)

	// one second past lifetime
	m.now = func() time.Time { return created.Add(3601 * time.Second) }
	_, err = m.GetUserTokenPair(ctx, "tok-1")
	require.ErrorIs(t, err, ErrTokenNotFound)
}

func TestMemoryRevokeToken_Idempotent(t *testing.T) {
	m := newTestMemoryStorage(t)
	ctx := context.Background()

	user, err := m.CreateUser(ctx, models.UserInfo{Email: "alice@example.com"}, models.StrategyLocal, nil)
	require.NoError(t, err)
	_, err = m.CreateToken(ctx, user.ID, "tok-1", models.StrategyLocal)
	require.NoError(t, err)

	require.NoError(t, m.RevokeToken(ctx, "tok-1"))
	require.NoError(t, m.RevokeToken(ctx, "tok-1"), "repeated revoke must not error")
	require.NoError(t, m.RevokeToken(ctx, "never-issued"), "revoking an unknown token is a no-op")

	_, err = m.GetUserTokenPair(ctx, "tok-1")
	require.ErrorIs(t, err, ErrTokenNotFound)
}

func TestMemoryUpdateUserProviders_MultipleLinks(t *testing.T) {
	m := newTestMemoryStorage(t)
	ctx := context.Background()

	user, err := m.CreateUser(ctx, models.UserInfo{Email: "alice@example.com"}, models.StrategyGoogle, []byte(`{"sub":"g-1"}`))
	require.NoError(t, err)

	link, err := m.UpdateUserProviders(ctx, user.ID, models.StrategyGitHub, []byte(`{"login":"alice"}`))
	require.NoError(t, err)
	assert.Equal(t, models.StrategyGitHub, link.Provider)
	assert.JSONEq(t, `{"login":"alice"}`, string(link.Data))
}

// End-to-end walk of the auth storage contract against the memory backend.
func TestMemoryScenario_AliceSession(t *testing.T) {
	m := newTestMemoryStorage(t)
	ctx := context.Background()

	alice, err := m.CreateUser(ctx, models.UserInfo{Email: "alice@example.com"}, models.StrategyLocal, []byte(`{}`))
	require.NoError(t, err)

	_, err = m.CreateCredentials(ctx, alice.ID, "alice@example.com", "hash", "salt", models.StrategyLocal)
	require.NoError(t, err)

	pair, err := m.CreateToken(ctx, alice.ID, "tok-1", models.StrategyLocal)
	require.NoError(t, err)
	assert.EqualValues(t, 3600, pair.Lifetime)

	fetched, err := m.GetUserTokenPair(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, fetched.UserID)

	require.NoError(t, m.RevokeToken(ctx, "tok-1"))

	_, err = m.GetUserTokenPair(ctx, "tok-1")
	require.ErrorIs(t, err, ErrTokenNotFound)
}
