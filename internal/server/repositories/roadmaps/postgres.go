package roadmaps

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"devfolio/internal/common"
	"devfolio/internal/dbx"
	"devfolio/internal/server/models"
)

// PostgresRepository implements roadmap storage over a dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) CreateRoadmap(ctx context.Context, rm *models.SkillRoadmap) (*models.SkillRoadmap, error) {
	query := `INSERT INTO skill_roadmaps (title, description, category)
	          VALUES ($1, $2, $3)
	          RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query, rm.Title, rm.Description, rm.Category).
		Scan(&rm.ID, &rm.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rm, nil
}

func (r *PostgresRepository) GetRoadmap(ctx context.Context, id int64) (*models.SkillRoadmap, error) {
	query := `SELECT id, title, description, category, created_at
	          FROM skill_roadmaps WHERE id = $1`

	rm := &models.SkillRoadmap{}
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&rm.ID, &rm.Title, &rm.Description, &rm.Category, &rm.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rm, nil
}

func (r *PostgresRepository) ListRoadmaps(ctx context.Context) ([]*models.SkillRoadmap, error) {
	query := `SELECT id, title, description, category, created_at
	          FROM skill_roadmaps ORDER BY title`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.SkillRoadmap
	for rows.Next() {
		rm := &models.SkillRoadmap{}
		if err := rows.Scan(&rm.ID, &rm.Title, &rm.Description, &rm.Category, &rm.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, rm)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) DeleteRoadmap(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM skill_roadmaps WHERE id = $1`, id)
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

func (r *PostgresRepository) CreateTask(ctx context.Context, t *models.RoadmapTask) (*models.RoadmapTask, error) {
	query := `INSERT INTO roadmap_tasks (roadmap_id, position, title, description)
	          VALUES ($1, $2, $3, $4)
	          RETURNING id`

	err := r.db.QueryRowContext(ctx, query, t.RoadmapID, t.Position, t.Title, t.Description).Scan(&t.ID)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

func (r *PostgresRepository) ListTasks(ctx context.Context, roadmapID int64) ([]*models.RoadmapTask, error) {
	query := `SELECT id, roadmap_id, position, title, description
	          FROM roadmap_tasks WHERE roadmap_id = $1 ORDER BY position`

	rows, err := r.db.QueryContext(ctx, query, roadmapID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.RoadmapTask
	for rows.Next() {
		t := &models.RoadmapTask{}
		if err := rows.Scan(&t.ID, &t.RoadmapID, &t.Position, &t.Title, &t.Description); err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) CreateUserRoadmap(ctx context.Context, userID, roadmapID int64) (*models.UserRoadmap, error) {
	query := `INSERT INTO user_roadmaps (user_id, roadmap_id)
	          VALUES ($1, $2)
	          RETURNING id, started_at`

	ur := &models.UserRoadmap{UserID: userID, RoadmapID: roadmapID}
	err := r.db.QueryRowContext(ctx, query, userID, roadmapID).Scan(&ur.ID, &ur.StartedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return ur, nil
}

func (r *PostgresRepository) GetUserRoadmap(ctx context.Context, id int64) (*models.UserRoadmap, error) {
	query := `SELECT id, user_id, roadmap_id, started_at FROM user_roadmaps WHERE id = $1`

	ur := &models.UserRoadmap{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&ur.ID, &ur.UserID, &ur.RoadmapID, &ur.StartedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return ur, nil
}

func (r *PostgresRepository) ListUserRoadmaps(ctx context.Context, userID int64) ([]*models.UserRoadmap, error) {
	query := `SELECT id, user_id, roadmap_id, started_at
	          FROM user_roadmaps WHERE user_id = $1 ORDER BY started_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.UserRoadmap
	for rows.Next() {
		ur := &models.UserRoadmap{}
		if err := rows.Scan(&ur.ID, &ur.UserID, &ur.RoadmapID, &ur.StartedAt); err != nil {
			return nil, err
		}
		result = append(result, ur)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) CreateProgress(ctx context.Context, userRoadmapID, taskID int64) error {
	query := `INSERT INTO user_task_progress (user_roadmap_id, task_id) VALUES ($1, $2)`

	if _, err := r.db.ExecContext(ctx, query, userRoadmapID, taskID); err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrConflict
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListProgress(ctx context.Context, userRoadmapID int64) ([]*models.UserTaskProgress, error) {
	query := `SELECT p.id, p.user_roadmap_id, p.task_id, p.status, p.updated_at
	          FROM user_task_progress p
	          JOIN roadmap_tasks t ON t.id = p.task_id
	          WHERE p.user_roadmap_id = $1
	          ORDER BY t.position`

	rows, err := r.db.QueryContext(ctx, query, userRoadmapID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.UserTaskProgress
	for rows.Next() {
		p := &models.UserTaskProgress{}
		if err := rows.Scan(&p.ID, &p.UserRoadmapID, &p.TaskID, &p.Status, &p.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) UpdateProgressStatus(ctx context.Context, userRoadmapID, taskID int64, status string) error {
	query := `UPDATE user_task_progress SET status = $3, updated_at = now()
	          WHERE user_roadmap_id = $1 AND task_id = $2`

	res, err := r.db.ExecContext(ctx, query, userRoadmapID, taskID, status)
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

func (r *PostgresRepository) CountProgress(ctx context.Context, userRoadmapID int64) (int, int, error) {
	query := `SELECT COUNT(*) FILTER (WHERE status = 'completed'), COUNT(*)
	          FROM user_task_progress WHERE user_roadmap_id = $1`

	var completed, total int
	if err := r.db.QueryRowContext(ctx, query, userRoadmapID).Scan(&completed, &total); err != nil {
		return 0, 0, fmt.Errorf("db error: %w", err)
	}
	return completed, total, nil
}
