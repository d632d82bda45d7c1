package store

import (
	"database/sql"

	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/go-auth-storage/internal/logger"
	"github.com/MKhiriev/go-auth-storage/migrations"
)

// Dialect names the flavour of SQL the underlying engine speaks. It decides
// the placeholder format, whether INSERT ... RETURNING is available, and
// which migration directory applies.
type Dialect string

const (
	// DialectPostgres is PostgreSQL via the pgx stdlib driver.
	DialectPostgres Dialect = "postgres"

	// DialectSQLite is SQLite via mattn/go-sqlite3.
	DialectSQLite Dialect = "sqlite"
)

// DB is the SQL execution engine collaborator: a *sql.DB plus the dialect
// metadata the repository needs to issue parameterized statements against it.
// The engine serializes statements submitted on one logical connection in
// submission order; DB adds no locking of its own.
type DB struct {
	*sql.DB
	dialect            Dialect
	errorClassificator ErrorClassificator
	logger             *logger.Logger
}

// placeholder returns the squirrel placeholder format for the dialect:
// $1-style for PostgreSQL, ?-style for SQLite.
func (db *DB) placeholder() sq.PlaceholderFormat {
	if db.dialect == DialectPostgres {
		return sq.Dollar
	}
	return sq.Question
}

// supportsReturning reports whether INSERT ... RETURNING id is used to obtain
// the inserted identifier. SQLite falls back to LastInsertId.
func (db *DB) supportsReturning() bool {
	return db.dialect == DialectPostgres
}

// Migrate applies the embedded schema migrations for the DB's dialect.
func (db *DB) Migrate() error {
	return migrations.Migrate(db.DB, string(db.dialect))
}
