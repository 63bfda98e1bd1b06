package models

import "time"

// Project is a portfolio item owned by a user. ImageKey points at the
// object-storage blob for the project cover, if one was uploaded.
type Project struct {
	ID          int64
	UserID      int64
	Title       string
	Description string
	RepoURL     *string
	LiveURL     *string
	ImageKey    *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Skill is a self-declared proficiency entry on a user profile.
type Skill struct {
	ID        int64
	UserID    int64
	Name      string
	Level     string
	CreatedAt time.Time
}
