// Package connections provides PostgreSQL-backed persistence for connection
// requests and accepted connections.
package connections

import (
	"context"

	"devfolio/internal/server/models"
)

type Repository interface {
	// CreateRequest inserts a pending request. The partial unique index on
	// the normalized pair rejects a second pending row in either direction
	// with common.ErrConflict.
	CreateRequest(ctx context.Context, senderID, receiverID int64) (*models.ConnectionRequest, error)
	GetRequest(ctx context.Context, id int64) (*models.ConnectionRequest, error)
	UpdateRequestStatus(ctx context.Context, id int64, status string) error
	ListPendingForReceiver(ctx context.Context, receiverID int64) ([]*models.ConnectionRequest, error)

	// CreateConnection inserts the undirected pair with ids ascending.
	CreateConnection(ctx context.Context, a, b int64) (*models.Connection, error)
	ListConnections(ctx context.Context, userID int64) ([]*models.Connection, error)
	Connected(ctx context.Context, a, b int64) (bool, error)
}
