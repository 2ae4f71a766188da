package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	SubmissionPending          = "pending"
	SubmissionReviewed         = "reviewed"
	SubmissionChangesRequested = "changes_requested"
)

// Submission is a mentee deliverable and the mentor's review of it.
type Submission struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	ProjectID  uint           `gorm:"index;not null" json:"project_id"`
	Project    *Project       `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	MenteeID   uint           `gorm:"index;not null" json:"mentee_id"`
	Title      string         `gorm:"size:200;not null" json:"title"`
	Link       string         `gorm:"size:1000" json:"link"`
	Notes      string         `gorm:"type:text" json:"notes"`
	Status     string         `gorm:"size:50;default:pending;index" json:"status"`
	Score      *float64       `json:"score"`
	Feedback   string         `gorm:"type:text" json:"feedback"`
	ReviewedBy *uint          `json:"reviewed_by"`
	ReviewedAt *time.Time     `json:"reviewed_at"`
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Submission) TableName() string { return "submissions" }
