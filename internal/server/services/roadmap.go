package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"devfolio/internal/common"
	"devfolio/internal/dbx"
	"devfolio/internal/server/models"
	"devfolio/internal/server/repositories/repomanager"
)

// RoadmapService manages skill roadmap templates (admin) and per-user
// progress. Starting a roadmap snapshots one progress row per template task,
// so later template edits never corrupt in-flight progress.
type RoadmapService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewRoadmapService(db *sql.DB, m repomanager.RepositoryManager) *RoadmapService {
	return &RoadmapService{db: db, repomanager: m}
}

// RoadmapDetail bundles a template with its ordered tasks.
type RoadmapDetail struct {
	Roadmap *models.SkillRoadmap
	Tasks   []*models.RoadmapTask
}

// Progress bundles a started roadmap with its per-task states and the rounded
// completion percentage.
type Progress struct {
	UserRoadmap *models.UserRoadmap
	Tasks       []*models.UserTaskProgress
	Percent     int
}

// CreateRoadmap creates a template with its tasks in one transaction. Tasks
// get ascending positions in the order given.
func (s *RoadmapService) CreateRoadmap(ctx context.Context, rm *models.SkillRoadmap, tasks []*models.RoadmapTask) (*RoadmapDetail, error) {
	if strings.TrimSpace(rm.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", common.ErrValidation)
	}

	detail := &RoadmapDetail{}
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repoTx := s.repomanager.Roadmaps(tx)

		created, err := repoTx.CreateRoadmap(ctx, rm)
		if err != nil {
			return err
		}
		detail.Roadmap = created

		for i, t := range tasks {
			t.RoadmapID = created.ID
			t.Position = i + 1
			ct, err := repoTx.CreateTask(ctx, t)
			if err != nil {
				return err
			}
			detail.Tasks = append(detail.Tasks, ct)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return detail, nil
}

func (s *RoadmapService) ListRoadmaps(ctx context.Context) ([]*models.SkillRoadmap, error) {
	return s.repomanager.Roadmaps(s.db).ListRoadmaps(ctx)
}

// GetRoadmap returns a template with its tasks in position order.
func (s *RoadmapService) GetRoadmap(ctx context.Context, id int64) (*RoadmapDetail, error) {
	repo := s.repomanager.Roadmaps(s.db)

	rm, err := repo.GetRoadmap(ctx, id)
	if err != nil {
		return nil, err
	}
	tasks, err := repo.ListTasks(ctx, id)
	if err != nil {
		return nil, err
	}
	return &RoadmapDetail{Roadmap: rm, Tasks: tasks}, nil
}

func (s *RoadmapService) DeleteRoadmap(ctx context.Context, id int64) error {
	return s.repomanager.Roadmaps(s.db).DeleteRoadmap(ctx, id)
}

// StartRoadmap enrolls the user and snapshots a pending progress row for each
// template task, all in one transaction. A second start of the same roadmap
// yields Conflict.
func (s *RoadmapService) StartRoadmap(ctx context.Context, userID, roadmapID int64) (*Progress, error) {
	tasks, err := s.repomanager.Roadmaps(s.db).ListTasks(ctx, roadmapID)
	if err != nil {
		return nil, err
	}
	if _, err := s.repomanager.Roadmaps(s.db).GetRoadmap(ctx, roadmapID); err != nil {
		return nil, err
	}

	var ur *models.UserRoadmap
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repoTx := s.repomanager.Roadmaps(tx)

		var createErr error
		ur, createErr = repoTx.CreateUserRoadmap(ctx, userID, roadmapID)
		if createErr != nil {
			return createErr
		}
		for _, t := range tasks {
			if err := repoTx.CreateProgress(ctx, ur.ID, t.ID); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return nil, err
	}

	return s.progressFor(ctx, ur)
}

// ListStarted returns the roadmaps the user has started.
func (s *RoadmapService) ListStarted(ctx context.Context, userID int64) ([]*models.UserRoadmap, error) {
	return s.repomanager.Roadmaps(s.db).ListUserRoadmaps(ctx, userID)
}

// GetProgress returns the caller's progress on a started roadmap.
func (s *RoadmapService) GetProgress(ctx context.Context, callerID, userRoadmapID int64) (*Progress, error) {
	ur, err := s.repomanager.Roadmaps(s.db).GetUserRoadmap(ctx, userRoadmapID)
	if err != nil {
		return nil, err
	}
	if ur.UserID != callerID {
		return nil, common.ErrForbidden
	}
	return s.progressFor(ctx, ur)
}

// UpdateTaskStatus sets one task's state and returns the refreshed progress.
func (s *RoadmapService) UpdateTaskStatus(ctx context.Context, callerID, userRoadmapID, taskID int64, status string) (*Progress, error) {
	switch status {
	case models.TaskPending, models.TaskInProgress, models.TaskCompleted:
	default:
		return nil, fmt.Errorf("%w: unknown task status %q", common.ErrValidation, status)
	}

	ur, err := s.repomanager.Roadmaps(s.db).GetUserRoadmap(ctx, userRoadmapID)
	if err != nil {
		return nil, err
	}
	if ur.UserID != callerID {
		return nil, common.ErrForbidden
	}

	if err := s.repomanager.Roadmaps(s.db).UpdateProgressStatus(ctx, userRoadmapID, taskID, status); err != nil {
		return nil, err
	}
	return s.progressFor(ctx, ur)
}

func (s *RoadmapService) progressFor(ctx context.Context, ur *models.UserRoadmap) (*Progress, error) {
	repo := s.repomanager.Roadmaps(s.db)

	tasks, err := repo.ListProgress(ctx, ur.ID)
	if err != nil {
		return nil, err
	}
	completed, total, err := repo.CountProgress(ctx, ur.ID)
	if err != nil {
		return nil, err
	}
	return &Progress{
		UserRoadmap: ur,
		Tasks:       tasks,
		Percent:     models.ProgressPercent(completed, total),
	}, nil
}
