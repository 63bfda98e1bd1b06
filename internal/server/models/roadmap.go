package models

import "time"

// Task progress states.
const (
	TaskPending    = "pending"
	TaskInProgress = "in_progress"
	TaskCompleted  = "completed"
)

// SkillRoadmap is a fixed, ordered template of learning tasks.
type SkillRoadmap struct {
	ID          int64
	Title       string
	Description string
	Category    string
	CreatedAt   time.Time
}

// RoadmapTask is one step of a roadmap template. Position is an explicit
// integer index; order is never inferred from ids or timestamps.
type RoadmapTask struct {
	ID          int64
	RoadmapID   int64
	Position    int
	Title       string
	Description string
}

// UserRoadmap records that a user started a roadmap. Starting snapshots one
// UserTaskProgress row per template task.
type UserRoadmap struct {
	ID        int64
	UserID    int64
	RoadmapID int64
	StartedAt time.Time
}

// UserTaskProgress tracks one user's state on one roadmap task.
type UserTaskProgress struct {
	ID            int64
	UserRoadmapID int64
	TaskID        int64
	Status        string
	UpdatedAt     time.Time
}

// ProgressPercent computes the rounded completion percentage for a task set.
// An empty set counts as zero.
func ProgressPercent(completed, total int) int {
	if total == 0 {
		return 0
	}
	return int(float64(completed)/float64(total)*100 + 0.5)
}
