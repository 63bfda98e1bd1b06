// Package models defines server-side data models persisted in the database.
package models

import "time"

// User roles.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is an identity record. A user authenticates either with a local
// credential (Username + PasswordHash) or a federated identity
// (Provider + ProviderID); at least one of the two must be set at creation.
type User struct {
	ID        int64
	FirstName string
	LastName  string

	// Local credential. Nil for OAuth-only accounts.
	Username     *string
	PasswordHash *string

	// Federated identity. Nil for local-only accounts.
	Provider   *string
	ProviderID *string

	Role      string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasLocalCredential reports whether the user can log in with a password.
func (u *User) HasLocalCredential() bool {
	return u.Username != nil && u.PasswordHash != nil
}

// HasFederatedIdentity reports whether the user is linked to an OAuth provider.
func (u *User) HasFederatedIdentity() bool {
	return u.Provider != nil && u.ProviderID != nil
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }
