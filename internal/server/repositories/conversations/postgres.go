package conversations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"devfolio/internal/common"
	"devfolio/internal/dbx"
	"devfolio/internal/server/models"
)

// PostgresRepository implements conversation storage over a dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetOrCreate relies on the unique index on the normalized pair: the no-op
// DO UPDATE makes RETURNING yield the existing row when both directions race
// on first contact, so exactly one row per pair ever exists.
func (r *PostgresRepository) GetOrCreate(ctx context.Context, a, b int64) (*models.Conversation, error) {
	if a == b {
		return nil, common.ErrValidation
	}
	a, b = models.NormalizePair(a, b)

	query := `INSERT INTO conversations (user_a_id, user_b_id)
	          VALUES ($1, $2)
	          ON CONFLICT (user_a_id, user_b_id) DO UPDATE SET user_a_id = EXCLUDED.user_a_id
	          RETURNING id, user_a_id, user_b_id, last_message_at, created_at`

	c := &models.Conversation{}
	err := r.db.QueryRowContext(ctx, query, a, b).
		Scan(&c.ID, &c.UserAID, &c.UserBID, &c.LastMessageAt, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Conversation, error) {
	query := `SELECT id, user_a_id, user_b_id, last_message_at, created_at
	          FROM conversations WHERE id = $1`

	c := &models.Conversation{}
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&c.ID, &c.UserAID, &c.UserBID, &c.LastMessageAt, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) ListForUser(ctx context.Context, userID int64, limit, offset int) ([]*models.Conversation, error) {
	query := `SELECT id, user_a_id, user_b_id, last_message_at, created_at
	          FROM conversations
	          WHERE user_a_id = $1 OR user_b_id = $1
	          ORDER BY last_message_at DESC
	          LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Conversation
	for rows.Next() {
		c := &models.Conversation{}
		if err := rows.Scan(&c.ID, &c.UserAID, &c.UserBID, &c.LastMessageAt, &c.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) TouchLastMessage(ctx context.Context, id int64, at time.Time) error {
	query := `UPDATE conversations SET last_message_at = $2 WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}
