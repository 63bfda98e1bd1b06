package files

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"devfolio/internal/common"
	"devfolio/internal/dbx"
	"devfolio/internal/server/models"
)

// PostgresRepository implements file metadata storage over a dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, f *models.FileObject) (*models.FileObject, error) {
	query := `INSERT INTO file_objects (owner_id, storage_key, file_name, content_type, size)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query, f.OwnerID, f.StorageKey, f.FileName, f.ContentType, f.Size).
		Scan(&f.ID, &f.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return f, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.FileObject, error) {
	query := `SELECT id, owner_id, storage_key, file_name, content_type, size, created_at
	          FROM file_objects WHERE id = $1`

	f := &models.FileObject{}
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&f.ID, &f.OwnerID, &f.StorageKey, &f.FileName, &f.ContentType, &f.Size, &f.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return f, nil
}

func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID int64) ([]*models.FileObject, error) {
	query := `SELECT id, owner_id, storage_key, file_name, content_type, size, created_at
	          FROM file_objects WHERE owner_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.FileObject
	for rows.Next() {
		f := &models.FileObject{}
		if err := rows.Scan(&f.ID, &f.OwnerID, &f.StorageKey, &f.FileName, &f.ContentType, &f.Size, &f.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM file_objects WHERE id = $1`, id)
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
