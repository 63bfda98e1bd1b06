package messages

import (
	"context"
	"fmt"

	"devfolio/internal/dbx"
	"devfolio/internal/server/models"
)

// PostgresRepository implements message storage over a dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, msg *models.Message) (*models.Message, error) {
	query := `INSERT INTO messages (conversation_id, sender_id, content)
	          VALUES ($1, $2, $3)
	          RETURNING id, read, created_at`

	err := r.db.QueryRowContext(ctx, query, msg.ConversationID, msg.SenderID, msg.Content).
		Scan(&msg.ID, &msg.Read, &msg.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return msg, nil
}

func (r *PostgresRepository) ListByConversation(ctx context.Context, conversationID int64, limit, offset int) ([]*models.Message, error) {
	query := `SELECT id, conversation_id, sender_id, content, read, created_at
	          FROM messages
	          WHERE conversation_id = $1
	          ORDER BY created_at DESC, id DESC
	          LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryContext(ctx, query, conversationID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Message
	for rows.Next() {
		m := &models.Message{}
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Content, &m.Read, &m.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// MarkRead never touches the reader's own messages: the sender_id predicate
// is part of the statement, not a caller responsibility.
func (r *PostgresRepository) MarkRead(ctx context.Context, conversationID, readerID int64, ids []int64) ([]int64, error) {
	query := `UPDATE messages SET read = TRUE
	          WHERE conversation_id = $1
	            AND sender_id <> $2
	            AND NOT read
	            AND ($3::bigint[] IS NULL OR id = ANY($3))
	          RETURNING id`

	var idArg any
	if len(ids) > 0 {
		idArg = ids
	}

	rows, err := r.db.QueryContext(ctx, query, conversationID, readerID, idArg)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var flipped []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		flipped = append(flipped, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return flipped, nil
}

func (r *PostgresRepository) UnreadCount(ctx context.Context, conversationID, userID int64) (int, error) {
	query := `SELECT COUNT(*) FROM messages
	          WHERE conversation_id = $1 AND sender_id <> $2 AND NOT read`

	var n int
	if err := r.db.QueryRowContext(ctx, query, conversationID, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
