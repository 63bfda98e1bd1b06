// Package files provides PostgreSQL-backed persistence for object-storage
// file metadata.
package files

import (
	"context"

	"devfolio/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, f *models.FileObject) (*models.FileObject, error)
	GetByID(ctx context.Context, id int64) (*models.FileObject, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]*models.FileObject, error)
	Delete(ctx context.Context, id int64) error
}
