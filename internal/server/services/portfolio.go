package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"devfolio/internal/common"
	"devfolio/internal/server/models"
	"devfolio/internal/server/repositories/repomanager"
)

// PortfolioService manages the projects and skills shown on user profiles.
// Profiles are readable by any authenticated user; writes require ownership.
type PortfolioService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewPortfolioService(db *sql.DB, m repomanager.RepositoryManager) *PortfolioService {
	return &PortfolioService{db: db, repomanager: m}
}

func (s *PortfolioService) CreateProject(ctx context.Context, p *models.Project) (*models.Project, error) {
	if strings.TrimSpace(p.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", common.ErrValidation)
	}
	return s.repomanager.Portfolio(s.db).CreateProject(ctx, p)
}

func (s *PortfolioService) GetProject(ctx context.Context, id int64) (*models.Project, error) {
	return s.repomanager.Portfolio(s.db).GetProject(ctx, id)
}

func (s *PortfolioService) ListProjects(ctx context.Context, userID int64) ([]*models.Project, error) {
	return s.repomanager.Portfolio(s.db).ListProjects(ctx, userID)
}

// UpdateProject applies changes to an existing project. callerID must own it.
func (s *PortfolioService) UpdateProject(ctx context.Context, callerID int64, p *models.Project) (*models.Project, error) {
	repo := s.repomanager.Portfolio(s.db)

	existing, err := repo.GetProject(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	if existing.UserID != callerID {
		return nil, common.ErrForbidden
	}
	if strings.TrimSpace(p.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", common.ErrValidation)
	}

	p.UserID = existing.UserID
	if err := repo.UpdateProject(ctx, p); err != nil {
		return nil, err
	}
	return repo.GetProject(ctx, p.ID)
}

func (s *PortfolioService) DeleteProject(ctx context.Context, callerID, id int64) error {
	repo := s.repomanager.Portfolio(s.db)

	existing, err := repo.GetProject(ctx, id)
	if err != nil {
		return err
	}
	if existing.UserID != callerID {
		return common.ErrForbidden
	}
	return repo.DeleteProject(ctx, id)
}

func (s *PortfolioService) AddSkill(ctx context.Context, userID int64, name, level string) (*models.Skill, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: skill name is required", common.ErrValidation)
	}
	return s.repomanager.Portfolio(s.db).CreateSkill(ctx, &models.Skill{
		UserID: userID,
		Name:   name,
		Level:  level,
	})
}

func (s *PortfolioService) ListSkills(ctx context.Context, userID int64) ([]*models.Skill, error) {
	return s.repomanager.Portfolio(s.db).ListSkills(ctx, userID)
}

// RemoveSkill deletes a skill. The owner check lives in the repository query,
// which only matches rows belonging to callerID.
func (s *PortfolioService) RemoveSkill(ctx context.Context, callerID, id int64) error {
	return s.repomanager.Portfolio(s.db).DeleteSkill(ctx, id, callerID)
}
