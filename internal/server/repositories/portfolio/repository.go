// Package portfolio provides PostgreSQL-backed persistence for projects and
// skills shown on user profiles.
package portfolio

import (
	"context"

	"devfolio/internal/server/models"
)

type Repository interface {
	CreateProject(ctx context.Context, p *models.Project) (*models.Project, error)
	GetProject(ctx context.Context, id int64) (*models.Project, error)
	ListProjects(ctx context.Context, userID int64) ([]*models.Project, error)
	UpdateProject(ctx context.Context, p *models.Project) error
	DeleteProject(ctx context.Context, id int64) error

	CreateSkill(ctx context.Context, s *models.Skill) (*models.Skill, error)
	ListSkills(ctx context.Context, userID int64) ([]*models.Skill, error)
	DeleteSkill(ctx context.Context, id, userID int64) error
}
