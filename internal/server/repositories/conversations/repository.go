// Package conversations provides PostgreSQL-backed persistence for direct
// message conversations.
package conversations

import (
	"context"
	"time"

	"devfolio/internal/server/models"
)

type Repository interface {
	// GetOrCreate returns the canonical conversation for the (a, b) pair,
	// creating it if absent. The pair is normalized before lookup, so
	// GetOrCreate(a, b) and GetOrCreate(b, a) return the same row.
	GetOrCreate(ctx context.Context, a, b int64) (*models.Conversation, error)
	GetByID(ctx context.Context, id int64) (*models.Conversation, error)
	ListForUser(ctx context.Context, userID int64, limit, offset int) ([]*models.Conversation, error)
	TouchLastMessage(ctx context.Context, id int64, at time.Time) error
}
