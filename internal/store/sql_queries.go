package store

import (
	sq "github.com/Masterminds/squirrel"
)

// Relation names of the four tables the contract persists to. Must match the
// embedded migrations.
const (
	tableUsers       = "users"
	tableCredentials = "credentials"
	tableProviders   = "user_providers"
	tableTokenPairs  = "user_token_pairs"
)

// Column lists used by SELECT re-reads. Explicit lists keep scan order stable
// regardless of how the schema evolves on disk.
var (
	userColumns       = []string{"id", "email", "username", "first_name", "last_name", "date_of_birth", "gender", "picture"}
	credentialColumns = []string{"id", "user_id", "email", "password", "salt", "strategy"}
	providerColumns   = []string{"id", "user_id", "provider", "data"}
	tokenPairColumns  = []string{"id", "user_id", "token", "lifetime", "strategy", "created", "revoked"}
)

// validatedTables is the order in which Validate probes the schema.
var validatedTables = []string{tableUsers, tableCredentials, tableProviders, tableTokenPairs}

// builder returns a squirrel statement builder with the placeholder format of
// the connected engine.
func (s *SQLStorage) builder() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(s.db.placeholder())
}
