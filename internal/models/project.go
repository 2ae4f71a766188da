package models

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"gorm.io/gorm"
)

// Project is identified for import purposes by (NameKey, AssignedBy).
// The pair is indexed but not unique: imports by different coordinators
// may reuse a name.
type Project struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"size:200;not null" json:"project_name"`
	NameKey     string         `gorm:"size:200;index:idx_project_name_owner" json:"-"`
	Details     string         `gorm:"type:text" json:"project_details"`
	Status      string         `gorm:"size:50;default:pending" json:"status"`
	MentorID    *uint          `gorm:"index" json:"mentor_id"`
	MentorEmail string         `gorm:"size:255;index" json:"mentor_email"`
	AssignedBy  uint           `gorm:"not null;index:idx_project_name_owner" json:"assigned_by"`
	MenteeIDs   []uint         `gorm:"-" json:"mentees"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Project) TableName() string { return "projects" }

// ProjectNameKey folds a project name for matching. Folding happens here
// rather than in SQL because SQLite's LOWER only handles ASCII.
func ProjectNameKey(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	p.NameKey = ProjectNameKey(p.Name)
	return nil
}

// ProjectMentee links a registered mentee to a project. The unique index
// keeps a project's mentee set free of duplicates.
type ProjectMentee struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProjectID uint      `gorm:"uniqueIndex:idx_project_mentee;not null" json:"project_id"`
	UserID    uint      `gorm:"uniqueIndex:idx_project_mentee;not null" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (ProjectMentee) TableName() string { return "project_mentees" }
