package connections

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"devfolio/internal/common"
	"devfolio/internal/dbx"
	"devfolio/internal/server/models"
)

// PostgresRepository implements connection storage over a dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) CreateRequest(ctx context.Context, senderID, receiverID int64) (*models.ConnectionRequest, error) {
	query := `INSERT INTO connection_requests (sender_id, receiver_id)
	          VALUES ($1, $2)
	          RETURNING id, status, created_at, updated_at`

	req := &models.ConnectionRequest{SenderID: senderID, ReceiverID: receiverID}
	err := r.db.QueryRowContext(ctx, query, senderID, receiverID).
		Scan(&req.ID, &req.Status, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return req, nil
}

func (r *PostgresRepository) GetRequest(ctx context.Context, id int64) (*models.ConnectionRequest, error) {
	query := `SELECT id, sender_id, receiver_id, status, created_at, updated_at
	          FROM connection_requests WHERE id = $1`

	req := &models.ConnectionRequest{}
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&req.ID, &req.SenderID, &req.ReceiverID, &req.Status, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return req, nil
}

// UpdateRequestStatus transitions a pending request only; accepted and
// rejected rows are terminal, so a second transition reports ErrConflict.
func (r *PostgresRepository) UpdateRequestStatus(ctx context.Context, id int64, status string) error {
	query := `UPDATE connection_requests SET status = $2, updated_at = now()
	          WHERE id = $1 AND status = 'pending'`

	res, err := r.db.ExecContext(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrConflict
	}
	return nil
}

func (r *PostgresRepository) ListPendingForReceiver(ctx context.Context, receiverID int64) ([]*models.ConnectionRequest, error) {
	query := `SELECT id, sender_id, receiver_id, status, created_at, updated_at
	          FROM connection_requests
	          WHERE receiver_id = $1 AND status = 'pending'
	          ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, receiverID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.ConnectionRequest
	for rows.Next() {
		req := &models.ConnectionRequest{}
		if err := rows.Scan(&req.ID, &req.SenderID, &req.ReceiverID, &req.Status, &req.CreatedAt, &req.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, req)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) CreateConnection(ctx context.Context, a, b int64) (*models.Connection, error) {
	a, b = models.NormalizePair(a, b)

	query := `INSERT INTO connections (user_a_id, user_b_id)
	          VALUES ($1, $2)
	          RETURNING id, created_at`

	conn := &models.Connection{UserAID: a, UserBID: b}
	err := r.db.QueryRowContext(ctx, query, a, b).Scan(&conn.ID, &conn.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return conn, nil
}

func (r *PostgresRepository) ListConnections(ctx context.Context, userID int64) ([]*models.Connection, error) {
	query := `SELECT id, user_a_id, user_b_id, created_at
	          FROM connections
	          WHERE user_a_id = $1 OR user_b_id = $1
	          ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Connection
	for rows.Next() {
		c := &models.Connection{}
		if err := rows.Scan(&c.ID, &c.UserAID, &c.UserBID, &c.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) Connected(ctx context.Context, a, b int64) (bool, error) {
	a, b = models.NormalizePair(a, b)

	query := `SELECT EXISTS (SELECT 1 FROM connections WHERE user_a_id = $1 AND user_b_id = $2)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, a, b).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}
