package models

import "time"

// UserTokenPair is a persisted session token issued to a user. Tokens are
// opaque bearer strings supplied by the caller; the storage layer records
// when they were created and whether they have been revoked.
//
// Validity is a derived predicate, never a stored field: a pair is valid iff
// it is not revoked and no more than Lifetime seconds have elapsed since
// Created. See [UserTokenPair.ValidAt].
type UserTokenPair[ID comparable] struct {
	// ID is the backend-assigned unique identifier of the token row.
	ID ID `json:"-"`

	// UserID references the owning user. At most one valid pair exists per
	// user at any instant: issuing a new token revokes all prior ones.
	UserID ID `json:"-"`

	// Token is the opaque bearer string presented by clients.
	Token string `json:"token"`

	// Lifetime is how long the token stays valid, in seconds from Created.
	Lifetime int64 `json:"lifetime"`

	// Strategy names the authentication method the token was issued under.
	Strategy Strategy `json:"strategy"`

	// Created is the backend-assigned insert timestamp.
	Created time.Time `json:"created"`

	// Revoked marks explicit invalidation prior to natural expiry.
	// Revocation is irreversible.
	Revoked bool `json:"revoked"`
}

// ValidAt reports whether the pair is valid at the given instant.
// The boundary is inclusive: a token with lifetime L is still valid exactly
// L seconds after creation.
func (p UserTokenPair[ID]) ValidAt(now time.Time) bool {
	if p.Revoked {
		return false
	}
	return now.Sub(p.Created) <= time.Duration(p.Lifetime)*time.Second
}

// TableName returns the name of the database relation backing UserTokenPair records.
func (p UserTokenPair[ID]) TableName() string {
	return "user_token_pairs"
}
