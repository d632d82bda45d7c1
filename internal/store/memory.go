package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MKhiriev/go-auth-storage/models"
)

// MemoryStorage is a map-based implementation of [Storage] keyed by UUIDs.
// It exists to prove the contract against a non-integer identifier type and
// to serve as a test double for the service layer; semantics (atomic user
// creation, revoke-then-insert, read-time validity) match the SQL backend.
//
// Safe for concurrent use: a single mutex guards all state.
type MemoryStorage struct {
	mu sync.RWMutex

	users       map[uuid.UUID]models.User[uuid.UUID]
	credentials map[uuid.UUID]models.Credentials[uuid.UUID]
	providers   map[uuid.UUID]models.UserProvider[uuid.UUID]
	tokens      map[uuid.UUID]models.UserTokenPair[uuid.UUID]

	tokenLifetime int64

	// now is the clock used to stamp created timestamps and to evaluate
	// token validity. Overridable in tests; time.Now otherwise.
	now func() time.Time
}

var _ Storage[uuid.UUID] = (*MemoryStorage)(nil)

// NewMemoryStorage constructs an uninitialized [MemoryStorage]. tokenLifetime
// is the validity window, in seconds, of every issued token. Call Initialize
// before any other operation.
func NewMemoryStorage(tokenLifetime int64) *MemoryStorage {
	return &MemoryStorage{tokenLifetime: tokenLifetime, now: time.Now}
}

// Connect is a no-op: there is no remote engine to reach.
func (m *MemoryStorage) Connect(ctx context.Context) error {
	return nil
}

// Initialize allocates the four relations. Idempotent: existing data is kept.
func (m *MemoryStorage) Initialize(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.users == nil {
		m.users = make(map[uuid.UUID]models.User[uuid.UUID])
	}
	if m.credentials == nil {
		m.credentials = make(map[uuid.UUID]models.Credentials[uuid.UUID])
	}
	if m.providers == nil {
		m.providers = make(map[uuid.UUID]models.UserProvider[uuid.UUID])
	}
	if m.tokens == nil {
		m.tokens = make(map[uuid.UUID]models.UserTokenPair[uuid.UUID])
	}

	return nil
}

// Validate fails with [ErrSchema] if Initialize has not allocated the
// relations yet.
func (m *MemoryStorage) Validate(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for table, ok := range map[string]bool{
		"users":            m.users != nil,
		"credentials":      m.credentials != nil,
		"user_providers":   m.providers != nil,
		"user_token_pairs": m.tokens != nil,
	} {
		if !ok {
			return fmt.Errorf("%w: relation %q is not queryable", ErrSchema, table)
		}
	}

	return nil
}

// CreateUser inserts the user and its initial provider link as one unit.
// An unknown provider strategy fails the link step, and the already-inserted
// user row is removed again, mirroring the SQL backend's compensation path.
func (m *MemoryStorage) CreateUser(ctx context.Context, info models.UserInfo, provider models.Strategy, providerData []byte) (models.User[uuid.UUID], error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.initialized(); err != nil {
		return models.User[uuid.UUID]{}, err
	}

	// email uniqueness
	for _, u := range m.users {
		if u.Email == info.Email {
			return models.User[uuid.UUID]{}, ErrEmailAlreadyExists
		}
	}

	user := models.User[uuid.UUID]{ID: uuid.New(), UserInfo: info}
	m.users[user.ID] = user

	if !provider.Valid() {
		// compensating delete of the user row
		delete(m.users, user.ID)
		return models.User[uuid.UUID]{}, fmt.Errorf("unexpected DB error: unknown provider strategy %q", provider)
	}

	link := models.UserProvider[uuid.UUID]{
		ID:       uuid.New(),
		UserID:   user.ID,
		Provider: provider,
		Data:     append([]byte(nil), providerData...),
	}
	m.providers[link.ID] = link

	return user, nil
}

// CreateCredentials inserts a credentials row, enforcing (email, strategy)
// uniqueness.
func (m *MemoryStorage) CreateCredentials(ctx context.Context, userID uuid.UUID, email, passwordHash, salt string, strategy models.Strategy) (models.Credentials[uuid.UUID], error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.initialized(); err != nil {
		return models.Credentials[uuid.UUID]{}, err
	}

	for _, c := range m.credentials {
		if c.Email == email && c.Strategy == strategy {
			return models.Credentials[uuid.UUID]{}, ErrDuplicateCredentials
		}
	}

	creds := models.Credentials[uuid.UUID]{
		ID:           uuid.New(),
		UserID:       userID,
		Email:        email,
		PasswordHash: passwordHash,
		Salt:         salt,
		Strategy:     strategy,
	}
	m.credentials[creds.ID] = creds

	return creds, nil
}

// CreateToken revokes every prior pair of the user, then inserts the new one.
// Both steps happen under one lock here, but the revoke-then-insert order is
// kept anyway: it is the contract, not an artifact of the SQL backend.
func (m *MemoryStorage) CreateToken(ctx context.Context, userID uuid.UUID, token string, strategy models.Strategy) (models.UserTokenPair[uuid.UUID], error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.initialized(); err != nil {
		return models.UserTokenPair[uuid.UUID]{}, err
	}

	// step 1: revoke all prior tokens of the user
	for id, pair := range m.tokens {
		if pair.UserID == userID {
			pair.Revoked = true
			m.tokens[id] = pair
		}
	}

	// step 2: insert the new pair
	pair := models.UserTokenPair[uuid.UUID]{
		ID:       uuid.New(),
		UserID:   userID,
		Token:    token,
		Lifetime: m.tokenLifetime,
		Strategy: strategy,
		Created:  m.now(),
		Revoked:  false,
	}
	m.tokens[pair.ID] = pair

	return pair, nil
}

// GetCredentials returns the row matching both email and strategy.
func (m *MemoryStorage) GetCredentials(ctx context.Context, email string, strategy models.Strategy) (models.Credentials[uuid.UUID], error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, c := range m.credentials {
		if c.Email == email && c.Strategy == strategy {
			return c, nil
		}
	}

	return models.Credentials[uuid.UUID]{}, ErrCredentialsNotFound
}

// GetUserTokenPair returns the pair carrying the token when it is valid at
// the instant of the call.
func (m *MemoryStorage) GetUserTokenPair(ctx context.Context, token string) (models.UserTokenPair[uuid.UUID], error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, pair := range m.tokens {
		if pair.Token == token && pair.ValidAt(m.now()) {
			return pair, nil
		}
	}

	return models.UserTokenPair[uuid.UUID]{}, ErrTokenNotFound
}

// GetUserByID returns the user with the given identifier.
func (m *MemoryStorage) GetUserByID(ctx context.Context, id uuid.UUID) (models.User[uuid.UUID], error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[id]
	if !ok {
		return models.User[uuid.UUID]{}, ErrUserNotFound
	}

	return user, nil
}

// GetUserByEmail returns the user with the given email.
func (m *MemoryStorage) GetUserByEmail(ctx context.Context, email string) (models.User[uuid.UUID], error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}

	return models.User[uuid.UUID]{}, ErrUserNotFound
}

// UpdateUserProviders appends a new provider link row for the user.
func (m *MemoryStorage) UpdateUserProviders(ctx context.Context, userID uuid.UUID, provider models.Strategy, providerData []byte) (models.UserProvider[uuid.UUID], error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.initialized(); err != nil {
		return models.UserProvider[uuid.UUID]{}, err
	}

	link := models.UserProvider[uuid.UUID]{
		ID:       uuid.New(),
		UserID:   userID,
		Provider: provider,
		Data:     append([]byte(nil), providerData...),
	}
	m.providers[link.ID] = link

	return link, nil
}

// RevokeToken marks every pair carrying the token as revoked. Absence is a
// successful no-op.
func (m *MemoryStorage) RevokeToken(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.initialized(); err != nil {
		return err
	}

	for id, pair := range m.tokens {
		if pair.Token == token {
			pair.Revoked = true
			m.tokens[id] = pair
		}
	}

	return nil
}

// initialized is the write-path guard; callers hold the lock.
func (m *MemoryStorage) initialized() error {
	if m.users == nil || m.credentials == nil || m.providers == nil || m.tokens == nil {
		return fmt.Errorf("%w: storage is not initialized", ErrSchema)
	}
	return nil
}
