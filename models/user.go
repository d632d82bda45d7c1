package models

import "time"

// UserInfo carries the caller-supplied identity attributes of a user.
// It deliberately excludes the identifier: that is assigned by the backend
// at insert time and is immutable afterwards.
type UserInfo struct {
	// Email is the unique address the user registers and logs in with.
	Email string `json:"email"`

	// Username is the display handle of the user. Not required to be unique.
	Username string `json:"username"`

	// FirstName is the user's given name.
	FirstName string `json:"first_name"`

	// LastName is the user's family name.
	LastName string `json:"last_name"`

	// DateOfBirth is the user's birth date. A zero value means "not provided".
	DateOfBirth time.Time `json:"date_of_birth"`

	// Gender is a free-form, user-supplied value. The storage layer does not
	// interpret it.
	Gender string `json:"gender"`

	// Picture is a reference to the user's profile image (typically a URL).
	Picture string `json:"picture"`
}

// User is a persisted account record. The identifier type is a backend
// decision: an auto-incrementing int64 for SQL backends, a UUID for the
// in-memory backend.
type User[ID comparable] struct {
	// ID is the backend-assigned unique identifier of the user.
	// It is never exposed via JSON and never changes once assigned.
	ID ID `json:"-"`

	UserInfo
}

// TableName returns the name of the database relation backing User records.
func (u User[ID]) TableName() string {
	return "users"
}
