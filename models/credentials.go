package models

// Credentials is a persisted login secret for one (email, strategy) pair.
// PasswordHash MUST be a derived value (KDF output), never plaintext; the
// storage layer stores it verbatim and never inspects it.
//
// Rows are insert-only: the contract offers no update or delete, so rotation
// means inserting a fresh row under a new (email, strategy) pair.
type Credentials[ID comparable] struct {
	// ID is the backend-assigned unique identifier of the credentials row.
	ID ID `json:"-"`

	// UserID references the owning user.
	UserID ID `json:"-"`

	// Email is the login address these credentials answer for. Together with
	// Strategy it identifies at most one row.
	Email string `json:"email"`

	// PasswordHash is the derived password value used for verification.
	PasswordHash string `json:"-"`

	// Salt is the per-user random salt mixed into the hash derivation.
	Salt string `json:"-"`

	// Strategy names the authentication method these credentials belong to.
	Strategy Strategy `json:"strategy"`
}

// TableName returns the name of the database relation backing Credentials records.
func (c Credentials[ID]) TableName() string {
	return "credentials"
}
