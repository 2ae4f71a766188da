package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mentorloop/reviewhub/internal/config"
	"github.com/mentorloop/reviewhub/internal/importer"
	"github.com/mentorloop/reviewhub/internal/models"
	"github.com/mentorloop/reviewhub/pkg/logger"
	"gorm.io/gorm"
)

var ErrQueueUnavailable = errors.New("import queue is not initialized")

// ImportService records import runs and drives the importer against the database.
type ImportService struct {
	db       *gorm.DB
	importer *importer.Importer
	queue    TaskQueue
	hub      *ImportEventHub
}

func NewImportService(db *gorm.DB, cfg config.ImportConfig, queue TaskQueue, hub *ImportEventHub) *ImportService {
	return &ImportService{
		db: db,
		importer: importer.New(NewAssignmentStore(db),
			importer.WithRequireExistingMentee(cfg.RequireExistingMentee),
			importer.WithStrictValidation(cfg.StrictValidation),
			importer.WithDefaultStatus(cfg.DefaultStatus),
		),
		queue: queue,
		hub:   hub,
	}
}

// Preview validates an upload without writing anything.
func (s *ImportService) Preview(ctx context.Context, up importer.Upload) (*importer.Preview, error) {
	return s.importer.Preview(ctx, up)
}

// Import runs an upload synchronously and returns its report. The ImportLog
// is written either way; err is the importer's blocking error if any.
func (s *ImportService) Import(ctx context.Context, up importer.Upload, coordinatorID uint) (*models.ImportLog, *importer.Report, error) {
	entry, err := s.createLog(ctx, coordinatorID, up.Name, models.ImportRunning)
	if err != nil {
		return nil, nil, err
	}
	report, err := s.run(ctx, entry, up)
	return entry, report, err
}

// Enqueue records a queued import and hands it to the task queue. The
// result arrives on the event hub and in the import history.
func (s *ImportService) Enqueue(ctx context.Context, up importer.Upload, coordinatorID uint) (*models.ImportLog, error) {
	if s.queue == nil {
		return nil, ErrQueueUnavailable
	}

	entry, err := s.createLog(ctx, coordinatorID, up.Name, models.ImportQueued)
	if err != nil {
		return nil, err
	}

	task := &ImportTask{
		ImportLogID:   entry.ID,
		CoordinatorID: coordinatorID,
		FileName:      up.Name,
		ContentType:   up.ContentType,
		Data:          up.Data,
	}
	s.publish(entry)
	if err := s.queue.Enqueue(ctx, task); err != nil {
		s.finish(ctx, entry, nil, fmt.Errorf("enqueue import: %w", err))
		return nil, err
	}
	return entry, nil
}

// ProcessTask is the worker entry point for queued imports.
func (s *ImportService) ProcessTask(ctx context.Context, task *ImportTask) error {
	var entry models.ImportLog
	if err := s.db.WithContext(ctx).First(&entry, task.ImportLogID).Error; err != nil {
		return fmt.Errorf("load import %d: %w", task.ImportLogID, err)
	}
	if entry.Status != models.ImportQueued {
		logger.Warnf("[Import] import %d already %s, skipping", entry.ID, entry.Status)
		return nil
	}

	entry.Status = models.ImportRunning
	if err := s.db.WithContext(ctx).Model(&entry).Update("status", entry.Status).Error; err != nil {
		return err
	}
	s.publish(&entry)

	up := importer.Upload{Name: task.FileName, ContentType: task.ContentType, Data: task.Data}
	// Blocking import errors are recorded on the log, not retried.
	_, _ = s.run(ctx, &entry, up)
	return nil
}

func (s *ImportService) run(ctx context.Context, entry *models.ImportLog, up importer.Upload) (*importer.Report, error) {
	report, err := s.importer.Import(ctx, up, entry.CoordinatorID)
	s.finish(ctx, entry, report, err)
	return report, err
}

func (s *ImportService) createLog(ctx context.Context, coordinatorID uint, fileName, status string) (*models.ImportLog, error) {
	entry := &models.ImportLog{
		CoordinatorID: coordinatorID,
		FileName:      fileName,
		Status:        status,
	}
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return nil, fmt.Errorf("create import log: %w", err)
	}
	return entry, nil
}

// finish stores the outcome on entry, publishes it and writes the audit row.
func (s *ImportService) finish(ctx context.Context, entry *models.ImportLog, report *importer.Report, runErr error) {
	now := time.Now()
	entry.FinishedAt = &now

	if runErr != nil {
		entry.Status = models.ImportFailed
		entry.ErrorMessage = runErr.Error()
		var nv *importer.NoValidRowsError
		if errors.As(runErr, &nv) {
			if b, err := json.Marshal(map[string]interface{}{"errors": nv.Errors, "warnings": nv.Warnings}); err == nil {
				entry.Report = string(b)
			}
		}
	} else {
		entry.Status = models.ImportCompleted
		entry.TotalRows = report.TotalRows
		entry.ValidRows = report.ValidRows
		entry.Success = report.Success
		entry.Failed = report.Failed
		entry.CreatedProjects = len(report.CreatedProjects)
		entry.UpdatedProjects = len(report.UpdatedProjects)
		if b, err := json.Marshal(report); err == nil {
			entry.Report = string(b)
		}
	}

	if err := s.db.WithContext(context.WithoutCancel(ctx)).Save(entry).Error; err != nil {
		logger.Errorf("[Import] Failed to save import log %d: %v", entry.ID, err)
	}

	s.publish(entry)

	uid := entry.CoordinatorID
	extra := map[string]interface{}{
		"import_id": entry.ID,
		"file":      entry.FileName,
		"success":   entry.Success,
		"failed":    entry.Failed,
	}
	if runErr != nil {
		LogWarning("Imports", "Import rejected", fmt.Sprintf("%s: %v", entry.FileName, runErr), &uid, "", "", extra)
	} else {
		LogInfo("Imports", "Import completed",
			fmt.Sprintf("%s: %d succeeded, %d failed", entry.FileName, entry.Success, entry.Failed),
			&uid, "", "", extra)
	}
}

func (s *ImportService) publish(entry *models.ImportLog) {
	if s.hub == nil {
		return
	}
	s.hub.Publish(ImportEvent{
		ImportID:        entry.ID,
		CoordinatorID:   entry.CoordinatorID,
		FileName:        entry.FileName,
		Status:          entry.Status,
		Success:         entry.Success,
		Failed:          entry.Failed,
		CreatedProjects: entry.CreatedProjects,
		UpdatedProjects: entry.UpdatedProjects,
		Error:           entry.ErrorMessage,
	})
}

type ImportListRequest struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Status   string `form:"status"`
}

type ImportListResponse struct {
	Total    int64              `json:"total"`
	Page     int                `json:"page"`
	PageSize int                `json:"page_size"`
	Items    []models.ImportLog `json:"items"`
}

// List returns import history. Everyone but an HOD sees only their own imports.
func (s *ImportService) List(ctx context.Context, req *ImportListRequest, viewer Viewer) (*ImportListResponse, error) {
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 20
	}

	query := s.db.WithContext(ctx).Model(&models.ImportLog{})
	if viewer.Role != models.RoleHOD {
		query = query.Where("coordinator_id = ?", viewer.UserID)
	}
	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var items []models.ImportLog
	offset := (req.Page - 1) * req.PageSize
	if err := query.Omit("report").Order("created_at DESC, id DESC").
		Offset(offset).Limit(req.PageSize).Find(&items).Error; err != nil {
		return nil, err
	}

	return &ImportListResponse{Total: total, Page: req.Page, PageSize: req.PageSize, Items: items}, nil
}

// GetByID returns one import with its stored report.
func (s *ImportService) GetByID(ctx context.Context, id uint, viewer Viewer) (*models.ImportLog, error) {
	var entry models.ImportLog
	if err := s.db.WithContext(ctx).First(&entry, id).Error; err != nil {
		return nil, err
	}
	if viewer.Role != models.RoleHOD && entry.CoordinatorID != viewer.UserID {
		return nil, gorm.ErrRecordNotFound
	}
	return &entry, nil
}
