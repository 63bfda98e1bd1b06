// Package users provides PostgreSQL-backed persistence for user accounts.
package users

import (
	"context"

	"devfolio/internal/server/models"
)

// Filter is a composable set of predicates for admin user search. Each set
// field contributes one WHERE condition; unset fields contribute nothing.
type Filter struct {
	// Name matches first or last name, case-insensitive substring.
	Name *string
	// Username matches the local username, case-insensitive substring.
	Username *string
	Role     *string
	Active   *bool

	Limit  int
	Offset int
}

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByProvider(ctx context.Context, provider, providerID string) (*models.User, error)
	UpdateProfile(ctx context.Context, user *models.User) error
	SetActive(ctx context.Context, id int64, active bool) error
	SetRole(ctx context.Context, id int64, role string) error
	Search(ctx context.Context, f Filter) ([]*models.User, error)
}
