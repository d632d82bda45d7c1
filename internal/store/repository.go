package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"

	"github.com/MKhiriev/go-auth-storage/internal/config"
	"github.com/MKhiriev/go-auth-storage/internal/logger"
	"github.com/MKhiriev/go-auth-storage/models"
)

// SQLStorage is the SQL-backed implementation of [Storage] keyed by int64
// auto-incrementing identifiers. It binds the contract to a [DB]: every
// operation is one or more parameterized statements plus the ordering and
// compensation logic needed to uphold the cross-table invariants.
//
// Multi-statement operations (CreateUser, CreateToken) deliberately run
// without an explicit transaction: they rely on statement ordering and, for
// CreateUser, a best-effort compensating delete. See the package tests for
// the exact guarantees.
type SQLStorage struct {
	db            *DB
	cfg           config.DB
	tokenLifetime int64
	logger        *logger.Logger

	// now is the clock used to evaluate token validity at read time.
	// Overridable in tests; time.Now otherwise.
	now func() time.Time
}

var _ Storage[int64] = (*SQLStorage)(nil)

// NewSQLStorage constructs an unconnected [SQLStorage]. tokenLifetime is the
// validity window, in seconds, stamped onto every token issued by
// CreateToken. Call Connect before any other operation.
func NewSQLStorage(cfg config.DB, tokenLifetime int64, log *logger.Logger) *SQLStorage {
	log.Debug().Str("driver", cfg.Driver).Msg("creating sql storage")
	return &SQLStorage{
		cfg:           cfg,
		tokenLifetime: tokenLifetime,
		logger:        log,
		now:           time.Now,
	}
}

// Connect establishes the underlying connection using the configured driver.
// Calling Connect on a backend whose connection is already alive is a no-op.
func (s *SQLStorage) Connect(ctx context.Context) error {
	// already connected and reachable
	if s.db != nil {
		if err := s.db.PingContext(ctx); err == nil {
			return nil
		}
		_ = s.db.Close()
	}

	var (
		db  *DB
		err error
	)
	switch s.cfg.Driver {
	case "postgres", "pgx":
		db, err = NewConnectPostgres(ctx, s.cfg, s.logger)
	case "sqlite", "sqlite3":
		db, err = NewConnectSQLite(ctx, s.cfg, s.logger)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedDriver, s.cfg.Driver)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConnection, err)
	}

	s.db = db
	return nil
}

// Initialize applies the embedded schema migrations for the connected
// dialect. Safe to invoke on every process start.
func (s *SQLStorage) Initialize(ctx context.Context) error {
	if err := s.conn(); err != nil {
		return err
	}

	if err := s.db.Migrate(); err != nil {
		s.logger.Err(err).Str("func", "*SQLStorage.Initialize").Msg("schema migration failed")
		return fmt.Errorf("%w: %w", ErrSchema, err)
	}

	return nil
}

// Validate probes each of the four relations with a trivial SELECT. An empty
// table is fine; a relation that cannot be queried fails the check and is
// named in the returned error.
func (s *SQLStorage) Validate(ctx context.Context) error {
	if err := s.conn(); err != nil {
		return err
	}

	for _, table := range validatedTables {
		var one int
		err := s.db.QueryRowContext(ctx, "SELECT 1 FROM "+table+" LIMIT 1").Scan(&one)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			s.logger.Err(err).Str("func", "*SQLStorage.Validate").Str("table", table).Msg("relation is not queryable")
			return fmt.Errorf("%w: relation %q is not queryable: %w", ErrSchema, table, err)
		}
	}

	return nil
}

// CreateUser inserts the user row, then its initial provider link. If the
// provider insert fails, the just-created user row is deleted again
// (best effort) and the provider insert's error is surfaced, so from the
// caller's perspective either both rows exist or neither does.
//
// On success the created user is re-read from the users relation so that
// backend-computed defaults are reflected in the returned value.
func (s *SQLStorage) CreateUser(ctx context.Context, info models.UserInfo, provider models.Strategy, providerData []byte) (models.User[int64], error) {
	log := logger.FromContext(ctx)

	if err := s.conn(); err != nil {
		return models.User[int64]{}, err
	}

	// insert user row, obtain generated identifier
	userID, err := s.execInsert(ctx, s.builder().
		Insert(tableUsers).
		Columns("email", "username", "first_name", "last_name", "date_of_birth", "gender", "picture").
		Values(info.Email, info.Username, info.FirstName, info.LastName, info.DateOfBirth, info.Gender, info.Picture))
	if err != nil {
		log.Err(err).Str("func", "*SQLStorage.CreateUser").Msg("error inserting user")

		if isUniqueViolation(err) {
			return models.User[int64]{}, ErrEmailAlreadyExists
		}
		return models.User[int64]{}, s.engineError(err)
	}

	// insert initial provider link
	if _, err := s.insertProvider(ctx, userID, provider, providerData); err != nil {
		log.Err(err).Str("func", "*SQLStorage.CreateUser").Int64("user_id", userID).Msg("error inserting provider link, rolling back user")

		// compensating delete; its own failure is logged, the original
		// provider-insert error is what the caller gets
		delQuery, delArgs, delErr := s.builder().Delete(tableUsers).Where(sq.Eq{"id": userID}).ToSql()
		if delErr == nil {
			if _, rbErr := s.db.ExecContext(ctx, delQuery, delArgs...); rbErr != nil {
				log.Err(rbErr).Str("func", "*SQLStorage.CreateUser").Int64("user_id", userID).Msg("compensating user delete failed, orphaned user row remains")
			}
		}

		return models.User[int64]{}, s.engineError(err)
	}

	return s.GetUserByID(ctx, userID)
}

// CreateCredentials inserts a credentials row for the user and returns it
// re-read from storage. A second row for the same (email, strategy) pair is
// rejected by the schema's unique index.
func (s *SQLStorage) CreateCredentials(ctx context.Context, userID int64, email, passwordHash, salt string, strategy models.Strategy) (models.Credentials[int64], error) {
	log := logger.FromContext(ctx)

	if err := s.conn(); err != nil {
		return models.Credentials[int64]{}, err
	}

	id, err := s.execInsert(ctx, s.builder().
		Insert(tableCredentials).
		Columns("user_id", "email", "password", "salt", "strategy").
		Values(userID, email, passwordHash, salt, strategy))
	if err != nil {
		log.Err(err).Str("func", "*SQLStorage.CreateCredentials").Msg("error inserting credentials")

		if isUniqueViolation(err) {
			return models.Credentials[int64]{}, ErrDuplicateCredentials
		}
		return models.Credentials[int64]{}, s.engineError(err)
	}

	return s.getCredentialsByID(ctx, id)
}

// CreateToken revokes every existing token pair of the user, then inserts the
// new pair. The two statements are ordered but not atomic: a reader racing
// between them sees zero valid tokens for the user, never two. The order must
// not be reversed.
func (s *SQLStorage) CreateToken(ctx context.Context, userID int64, token string, strategy models.Strategy) (models.UserTokenPair[int64], error) {
	log := logger.FromContext(ctx)

	if err := s.conn(); err != nil {
		return models.UserTokenPair[int64]{}, err
	}

	// step 1: unconditionally revoke all prior tokens of the user,
	// including those already revoked or expired (revocation is idempotent)
	revokeQuery, revokeArgs, err := s.builder().
		Update(tableTokenPairs).
		Set("revoked", true).
		Where(sq.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return models.UserTokenPair[int64]{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	if _, err := s.db.ExecContext(ctx, revokeQuery, revokeArgs...); err != nil {
		log.Err(err).Str("func", "*SQLStorage.CreateToken").Int64("user_id", userID).Msg("error revoking prior tokens")
		return models.UserTokenPair[int64]{}, s.engineError(err)
	}

	// step 2: insert the new pair; created and revoked take schema defaults
	id, err := s.execInsert(ctx, s.builder().
		Insert(tableTokenPairs).
		Columns("user_id", "token", "lifetime", "strategy").
		Values(userID, token, s.tokenLifetime, strategy))
	if err != nil {
		log.Err(err).Str("func", "*SQLStorage.CreateToken").Int64("user_id", userID).Msg("error inserting token pair")
		return models.UserTokenPair[int64]{}, s.engineError(err)
	}

	return s.getTokenPairByID(ctx, id)
}

// GetCredentials is the login lookup: the credentials row matching both email
// and strategy, or [ErrCredentialsNotFound].
func (s *SQLStorage) GetCredentials(ctx context.Context, email string, strategy models.Strategy) (models.Credentials[int64], error) {
	if err := s.conn(); err != nil {
		return models.Credentials[int64]{}, err
	}

	query, args, err := s.builder().
		Select(credentialColumns...).
		From(tableCredentials).
		Where(sq.Eq{"email": email, "strategy": strategy}).
		ToSql()
	if err != nil {
		return models.Credentials[int64]{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	return s.scanCredentials(s.db.QueryRowContext(ctx, query, args...))
}

// GetUserTokenPair returns the pair for the given bearer token, but only when
// it is valid at the instant of the call: not revoked, and within its
// lifetime (inclusive boundary). Anything else is [ErrTokenNotFound].
//
// Validity is computed here, against the application clock, rather than in
// SQL: the fetch is by token only, and the derived predicate is evaluated on
// the scanned row. Skew between the engine's clock (which stamps created) and
// this clock is an accepted risk of the design.
func (s *SQLStorage) GetUserTokenPair(ctx context.Context, token string) (models.UserTokenPair[int64], error) {
	if err := s.conn(); err != nil {
		return models.UserTokenPair[int64]{}, err
	}

	query, args, err := s.builder().
		Select(tokenPairColumns...).
		From(tableTokenPairs).
		Where(sq.Eq{"token": token}).
		OrderBy("id DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return models.UserTokenPair[int64]{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	pair, err := s.scanTokenPair(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return models.UserTokenPair[int64]{}, err
	}

	if !pair.ValidAt(s.now()) {
		return models.UserTokenPair[int64]{}, ErrTokenNotFound
	}

	return pair, nil
}

// GetUserByID returns the user with the given identifier, or [ErrUserNotFound].
func (s *SQLStorage) GetUserByID(ctx context.Context, id int64) (models.User[int64], error) {
	if err := s.conn(); err != nil {
		return models.User[int64]{}, err
	}

	query, args, err := s.builder().
		Select(userColumns...).
		From(tableUsers).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return models.User[int64]{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	return s.scanUser(s.db.QueryRowContext(ctx, query, args...))
}

// GetUserByEmail returns the user with the given email, or [ErrUserNotFound].
func (s *SQLStorage) GetUserByEmail(ctx context.Context, email string) (models.User[int64], error) {
	if err := s.conn(); err != nil {
		return models.User[int64]{}, err
	}

	query, args, err := s.builder().
		Select(userColumns...).
		From(tableUsers).
		Where(sq.Eq{"email": email}).
		ToSql()
	if err != nil {
		return models.User[int64]{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	return s.scanUser(s.db.QueryRowContext(ctx, query, args...))
}

// UpdateUserProviders appends a new provider link row for the user and
// returns it re-read from storage. Despite the historical name this is an
// insert: multiple provider links per user are valid and expected.
func (s *SQLStorage) UpdateUserProviders(ctx context.Context, userID int64, provider models.Strategy, providerData []byte) (models.UserProvider[int64], error) {
	log := logger.FromContext(ctx)

	if err := s.conn(); err != nil {
		return models.UserProvider[int64]{}, err
	}

	id, err := s.insertProvider(ctx, userID, provider, providerData)
	if err != nil {
		log.Err(err).Str("func", "*SQLStorage.UpdateUserProviders").Int64("user_id", userID).Msg("error inserting provider link")
		return models.UserProvider[int64]{}, s.engineError(err)
	}

	return s.getProviderByID(ctx, id)
}

// RevokeToken marks every row carrying the token as revoked. Zero affected
// rows is success: absence means already-revoked at this layer.
func (s *SQLStorage) RevokeToken(ctx context.Context, token string) error {
	if err := s.conn(); err != nil {
		return err
	}

	query, args, err := s.builder().
		Update(tableTokenPairs).
		Set("revoked", true).
		Where(sq.Eq{"token": token}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return s.engineError(err)
	}

	return nil
}

// conn reports whether Connect has established the engine collaborator.
func (s *SQLStorage) conn() error {
	if s.db == nil {
		return fmt.Errorf("%w: Connect was not called", ErrConnection)
	}
	return nil
}

// engineError wraps a statement execution failure for propagation. The error
// is not interpreted, only logged together with its retryability verdict when
// a classifier is available.
func (s *SQLStorage) engineError(err error) error {
	if s.db != nil && s.db.errorClassificator != nil {
		retryable := s.db.errorClassificator.Classify(err) == Retryable
		s.logger.Err(err).Bool("retryable", retryable).Msg("engine error")
	}

	return fmt.Errorf("unexpected DB error: %w", err)
}

// isUniqueViolation reports whether err is a unique-constraint failure in
// either supported dialect.
func isUniqueViolation(err error) bool {
	return postgresError(err) == pgerrcode.UniqueViolation || sqliteUniqueViolation(err)
}

// execInsert runs an INSERT and returns the generated identifier: via
// RETURNING id on engines that support it, via LastInsertId otherwise.
func (s *SQLStorage) execInsert(ctx context.Context, b sq.InsertBuilder) (int64, error) {
	if s.db.supportsReturning() {
		query, args, err := b.Suffix("RETURNING id").ToSql()
		if err != nil {
			return 0, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
		}

		var id int64
		if err := s.db.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
			return 0, err
		}
		return id, nil
	}

	query, args, err := b.ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

// insertProvider inserts a user_providers row and returns its identifier.
// Shared by CreateUser and UpdateUserProviders; the data blob is stored as-is.
func (s *SQLStorage) insertProvider(ctx context.Context, userID int64, provider models.Strategy, providerData []byte) (int64, error) {
	return s.execInsert(ctx, s.builder().
		Insert(tableProviders).
		Columns("user_id", "provider", "data").
		Values(userID, provider, providerData))
}

// getCredentialsByID re-reads a credentials row after insert.
func (s *SQLStorage) getCredentialsByID(ctx context.Context, id int64) (models.Credentials[int64], error) {
	query, args, err := s.builder().
		Select(credentialColumns...).
		From(tableCredentials).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return models.Credentials[int64]{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	return s.scanCredentials(s.db.QueryRowContext(ctx, query, args...))
}

// getProviderByID re-reads a user_providers row after insert.
func (s *SQLStorage) getProviderByID(ctx context.Context, id int64) (models.UserProvider[int64], error) {
	query, args, err := s.builder().
		Select(providerColumns...).
		From(tableProviders).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return models.UserProvider[int64]{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	// a vanished row right after insert is an engine anomaly, not a
	// not-found outcome
	var p models.UserProvider[int64]
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&p.ID, &p.UserID, &p.Provider, &p.Data); err != nil {
		return models.UserProvider[int64]{}, s.engineError(err)
	}

	return p, nil
}

// getTokenPairByID re-reads a user_token_pairs row after insert. Note this
// reads the token relation itself, so the returned value carries the
// backend-assigned created timestamp and revoked default.
func (s *SQLStorage) getTokenPairByID(ctx context.Context, id int64) (models.UserTokenPair[int64], error) {
	query, args, err := s.builder().
		Select(tokenPairColumns...).
		From(tableTokenPairs).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return models.UserTokenPair[int64]{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	return s.scanTokenPair(s.db.QueryRowContext(ctx, query, args...))
}

// rowScanner is the part of *sql.Row the scan helpers need.
type rowScanner interface {
	Scan(dest ...any) error
}

func (s *SQLStorage) scanUser(row rowScanner) (models.User[int64], error) {
	var u models.User[int64]
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.FirstName, &u.LastName, &u.DateOfBirth, &u.Gender, &u.Picture)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User[int64]{}, ErrUserNotFound
	}
	if err != nil {
		return models.User[int64]{}, s.engineError(err)
	}

	return u, nil
}

func (s *SQLStorage) scanCredentials(row rowScanner) (models.Credentials[int64], error) {
	var c models.Credentials[int64]
	err := row.Scan(&c.ID, &c.UserID, &c.Email, &c.PasswordHash, &c.Salt, &c.Strategy)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Credentials[int64]{}, ErrCredentialsNotFound
	}
	if err != nil {
		return models.Credentials[int64]{}, s.engineError(err)
	}

	return c, nil
}

func (s *SQLStorage) scanTokenPair(row rowScanner) (models.UserTokenPair[int64], error) {
	var p models.UserTokenPair[int64]
	err := row.Scan(&p.ID, &p.UserID, &p.Token, &p.Lifetime, &p.Strategy, &p.Created, &p.Revoked)
	if errors.Is(err, sql.ErrNoRows) {
		return models.UserTokenPair[int64]{}, ErrTokenNotFound
	}
	if err != nil {
		return models.UserTokenPair[int64]{}, s.engineError(err)
	}

	return p, nil
}
