package models

import "time"

const (
	ImportQueued    = "queued"
	ImportRunning   = "running"
	ImportCompleted = "completed"
	ImportFailed    = "failed"
)

// ImportLog is the history entry for one bulk assignment import.
type ImportLog struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	CoordinatorID   uint       `gorm:"index;not null" json:"coordinator_id"`
	FileName        string     `gorm:"size:255" json:"file_name"`
	Status          string     `gorm:"size:20;default:queued;index" json:"status"`
	TotalRows       int        `json:"total_rows"`
	ValidRows       int        `json:"valid_rows"`
	Success         int        `json:"success"`
	Failed          int        `json:"failed"`
	CreatedProjects int        `json:"created_projects"`
	UpdatedProjects int        `json:"updated_projects"`
	Report          string     `gorm:"type:text" json:"report,omitempty"` // JSON
	ErrorMessage    string     `gorm:"type:text" json:"error_message,omitempty"`
	FinishedAt      *time.Time `json:"finished_at"`
	CreatedAt       time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func (ImportLog) TableName() string { return "import_logs" }
