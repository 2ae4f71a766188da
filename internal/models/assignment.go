package models

import (
	"time"

	"gorm.io/gorm"
)

// Assignment records who mentors a project. One per project; the
// project and mentor names are denormalized snapshots for display.
type Assignment struct {
	ID          uint               `gorm:"primaryKey" json:"id"`
	ProjectID   uint               `gorm:"uniqueIndex;not null" json:"project_id"`
	ProjectName string             `gorm:"size:200" json:"project_name"`
	MentorID    *uint              `gorm:"index" json:"mentor_id"`
	MentorName  string             `gorm:"size:200" json:"mentor_name"`
	MentorEmail string             `gorm:"size:255" json:"mentor_email"`
	CreatedBy   uint               `gorm:"index" json:"created_by"`
	Status      string             `gorm:"size:50;default:pending" json:"status"`
	Mentees     []AssignmentMentee `gorm:"foreignKey:AssignmentID" json:"mentees,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
	DeletedAt   gorm.DeletedAt     `gorm:"index" json:"-"`
}

func (Assignment) TableName() string { return "assignments" }

// AssignmentMentee is keyed by (AssignmentID, MenteeEmail) so a mentee
// who has not registered yet is still recorded. MenteeID is filled in
// once the account exists.
type AssignmentMentee struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	AssignmentID uint      `gorm:"uniqueIndex:idx_assignment_mentee;not null" json:"assignment_id"`
	MenteeID     *uint     `gorm:"index" json:"mentee_id"`
	MenteeName   string    `gorm:"size:200" json:"mentee_name"`
	MenteeEmail  string    `gorm:"uniqueIndex:idx_assignment_mentee;size:255;not null" json:"mentee_email"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (AssignmentMentee) TableName() string { return "assignment_mentees" }
