// Package roadmaps provides PostgreSQL-backed persistence for skill roadmap
// templates and per-user progress.
package roadmaps

import (
	"context"

	"devfolio/internal/server/models"
)

type Repository interface {
	// Template management (admin).
	CreateRoadmap(ctx context.Context, rm *models.SkillRoadmap) (*models.SkillRoadmap, error)
	GetRoadmap(ctx context.Context, id int64) (*models.SkillRoadmap, error)
	ListRoadmaps(ctx context.Context) ([]*models.SkillRoadmap, error)
	DeleteRoadmap(ctx context.Context, id int64) error
	CreateTask(ctx context.Context, t *models.RoadmapTask) (*models.RoadmapTask, error)
	// ListTasks returns tasks ordered by their explicit position index.
	ListTasks(ctx context.Context, roadmapID int64) ([]*models.RoadmapTask, error)

	// Per-user progress.
	CreateUserRoadmap(ctx context.Context, userID, roadmapID int64) (*models.UserRoadmap, error)
	GetUserRoadmap(ctx context.Context, id int64) (*models.UserRoadmap, error)
	ListUserRoadmaps(ctx context.Context, userID int64) ([]*models.UserRoadmap, error)
	CreateProgress(ctx context.Context, userRoadmapID, taskID int64) error
	ListProgress(ctx context.Context, userRoadmapID int64) ([]*models.UserTaskProgress, error)
	UpdateProgressStatus(ctx context.Context, userRoadmapID, taskID int64, status string) error
	// CountProgress returns (completed, total) for the user roadmap.
	CountProgress(ctx context.Context, userRoadmapID int64) (int, int, error)
}
