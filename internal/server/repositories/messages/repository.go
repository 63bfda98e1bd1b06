// Package messages provides PostgreSQL-backed persistence for direct messages.
package messages

import (
	"context"

	"devfolio/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, msg *models.Message) (*models.Message, error)
	// ListByConversation returns messages newest-first, paged.
	ListByConversation(ctx context.Context, conversationID int64, limit, offset int) ([]*models.Message, error)
	// MarkRead flags unread messages in the conversation that were NOT sent
	// by readerID. When ids is non-empty, only those rows are considered.
	// Returns the ids of the messages actually flipped.
	MarkRead(ctx context.Context, conversationID, readerID int64, ids []int64) ([]int64, error)
	UnreadCount(ctx context.Context, conversationID, userID int64) (int, error)
}
