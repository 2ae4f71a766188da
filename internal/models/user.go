package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	RoleMentor      = "mentor"
	RoleMentee      = "mentee"
	RoleCoordinator = "coordinator"
	RoleHOD         = "hod"
)

// ValidRole reports whether r is one of the platform roles.
func ValidRole(r string) bool {
	switch r {
	case RoleMentor, RoleMentee, RoleCoordinator, RoleHOD:
		return true
	}
	return false
}

// User is a platform identity. Email is stored lower-cased.
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"size:200;not null" json:"name"`
	Email     string         `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Role      string         `gorm:"size:50;default:mentee;index" json:"role"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string { return "users" }
