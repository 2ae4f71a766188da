package services

import (
	"encoding/json"
	"errors"
	"os"
	"time"

	"github.com/mentorloop/reviewhub/internal/models"
	"github.com/mentorloop/reviewhub/pkg/logger"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

var globalDB *gorm.DB

func InitSystemLogger(db *gorm.DB) {
	globalDB = db
}

func LogInfo(module, action, message string, userID *uint, ip, userAgent string, extra interface{}) {
	writeLog("info", module, action, message, userID, ip, userAgent, extra)
}

func LogWarning(module, action, message string, userID *uint, ip, userAgent string, extra interface{}) {
	writeLog("warning", module, action, message, userID, ip, userAgent, extra)
}

func LogError(module, action, message string, userID *uint, ip, userAgent string, extra interface{}) {
	writeLog("error", module, action, message, userID, ip, userAgent, extra)
}

func writeLog(level, module, action, message string, userID *uint, ip, userAgent string, extra interface{}) {
	if globalDB == nil {
		return
	}

	var extraStr string
	if extra != nil {
		if b, err := json.Marshal(extra); err == nil {
			extraStr = string(b)
		}
	}

	entry := &models.SystemLog{
		Level:     level,
		Module:    module,
		Action:    action,
		Message:   message,
		UserID:    userID,
		IP:        ip,
		UserAgent: userAgent,
		Extra:     extraStr,
		CreatedAt: time.Now(),
	}
	if err := globalDB.Create(entry).Error; err != nil {
		logger.Warn().Err(err).Str("module", module).Str("action", action).Msg("audit log write failed")
	}
}

type SystemLogService struct {
	db *gorm.DB
}

func NewSystemLogService(db *gorm.DB) *SystemLogService {
	return &SystemLogService{db: db}
}

type SystemLogListRequest struct {
	Page      int    `form:"page" binding:"omitempty,min=1"`
	PageSize  int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Level     string `form:"level"`
	Module    string `form:"module"`
	Action    string `form:"action"`
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
	Search    string `form:"search"`
}

type SystemLogListResponse struct {
	Total    int64              `json:"total"`
	Page     int                `json:"page"`
	PageSize int                `json:"page_size"`
	Items    []models.SystemLog `json:"items"`
}

func (s *SystemLogService) List(req *SystemLogListRequest) (*SystemLogListResponse, error) {
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 20
	}

	var logs []models.SystemLog
	var total int64

	query := s.db.Model(&models.SystemLog{})

	if req.Level != "" {
		query = query.Where("level = ?", req.Level)
	}
	if req.Module != "" {
		query = query.Where("module = ?", req.Module)
	}
	if req.Action != "" {
		query = query.Where("action LIKE ?", "%"+req.Action+"%")
	}
	if req.StartDate != "" {
		query = query.Where("created_at >= ?", req.StartDate)
	}
	if req.EndDate != "" {
		query = query.Where("created_at <= ?", req.EndDate+" 23:59:59")
	}
	if req.Search != "" {
		query = query.Where("message LIKE ?", "%"+req.Search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	offset := (req.Page - 1) * req.PageSize
	if err := query.Offset(offset).Limit(req.PageSize).Order("created_at DESC").Find(&logs).Error; err != nil {
		return nil, err
	}

	return &SystemLogListResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    logs,
	}, nil
}

// GetModules returns the distinct module names present in the log.
func (s *SystemLogService) GetModules() ([]string, error) {
	var modules []string
	err := s.db.Model(&models.SystemLog{}).Distinct("module").Order("module").Pluck("module", &modules).Error
	return modules, err
}

// CleanupOldLogs deletes entries older than retentionDays and returns how many went.
func (s *SystemLogService) CleanupOldLogs(retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, nil
	}

	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	result := s.db.Where("created_at < ?", cutoff).Delete(&models.SystemLog{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// tryLock claims (job, runKey) for this process. Returns false when another
// replica already holds it.
func (s *SystemLogService) tryLock(job, runKey string) (bool, error) {
	host, _ := os.Hostname()
	lock := models.JobLock{Job: job, RunKey: runKey, Holder: host, LockedAt: time.Now()}
	result := s.db.Where(models.JobLock{Job: job, RunKey: runKey}).FirstOrCreate(&lock)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// LogRetentionScheduler runs the daily cleanup on a cron schedule.
type LogRetentionScheduler struct {
	service       *SystemLogService
	retentionDays int
	cron          *cron.Cron
}

const logRetentionJob = "log_retention"

func NewLogRetentionScheduler(db *gorm.DB, retentionDays int) *LogRetentionScheduler {
	return &LogRetentionScheduler{
		service:       NewSystemLogService(db),
		retentionDays: retentionDays,
	}
}

// Start schedules the cleanup at spec (standard 5-field cron).
func (s *LogRetentionScheduler) Start(spec string) error {
	if s.retentionDays <= 0 {
		logger.Infof("[SystemLog] Log cleanup disabled (retention_days <= 0)")
		return nil
	}

	s.cron = cron.New()
	if _, err := s.cron.AddFunc(spec, func() { s.RunOnce(time.Now()) }); err != nil {
		return err
	}
	s.cron.Start()
	logger.Infof("[SystemLog] Log cleanup scheduled (%s, keep %d days)", spec, s.retentionDays)
	return nil
}

func (s *LogRetentionScheduler) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

// RunOnce performs the cleanup for the day of now unless another replica did.
func (s *LogRetentionScheduler) RunOnce(now time.Time) (int64, error) {
	ok, err := s.service.tryLock(logRetentionJob, now.Format("2006-01-02"))
	if err != nil {
		logger.Errorf("[SystemLog] Failed to take cleanup lock: %v", err)
		return 0, err
	}
	if !ok {
		return 0, errCleanupSkipped
	}

	deleted, err := s.service.CleanupOldLogs(s.retentionDays)
	if err != nil {
		logger.Errorf("[SystemLog] Failed to cleanup old logs: %v", err)
		return 0, err
	}
	if deleted > 0 {
		logger.Infof("[SystemLog] Cleaned up %d logs older than %d days", deleted, s.retentionDays)
	}
	return deleted, nil
}

var errCleanupSkipped = errors.New("log cleanup already ran for this day")
