package models

// UserProvider links a user to an external identity provider. A user may have
// any number of provider links (linking Google and GitHub to one account is
// a normal state).
type UserProvider[ID comparable] struct {
	// ID is the backend-assigned unique identifier of the link row.
	ID ID `json:"-"`

	// UserID references the owning user.
	UserID ID `json:"-"`

	// Provider names the linked identity source.
	Provider Strategy `json:"provider"`

	// Data is the provider payload exactly as the caller supplied it.
	// The storage layer treats it as an opaque blob: it is stored and
	// returned byte-for-byte, never parsed.
	Data []byte `json:"data"`
}

// TableName returns the name of the database relation backing UserProvider records.
func (p UserProvider[ID]) TableName() string {
	return "user_providers"
}
