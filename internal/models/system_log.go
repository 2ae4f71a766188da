package models

import "time"

// SystemLog is an audit trail entry.
type SystemLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Level     string    `gorm:"size:20;index" json:"level"` // info, warning, error
	Module    string    `gorm:"size:100;index" json:"module"`
	Action    string    `gorm:"size:200;index" json:"action"`
	Message   string    `gorm:"type:text" json:"message"`
	UserID    *uint     `json:"user_id"`
	IP        string    `gorm:"size:50" json:"ip"`
	UserAgent string    `gorm:"size:500" json:"user_agent"`
	Extra     string    `gorm:"type:text" json:"extra"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (SystemLog) TableName() string { return "system_logs" }

// JobLock guards a scheduled job so only one replica runs a given
// (Job, RunKey) pair.
type JobLock struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	Job      string    `gorm:"uniqueIndex:idx_job_run;size:100;not null" json:"job"`
	RunKey   string    `gorm:"uniqueIndex:idx_job_run;size:100;not null" json:"run_key"`
	Holder   string    `gorm:"size:100" json:"holder"`
	LockedAt time.Time `json:"locked_at"`
}

func (JobLock) TableName() string { return "job_locks" }
