package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mentorloop/reviewhub/internal/models"
	"gorm.io/gorm"
)

var (
	ErrNotProjectMentee = errors.New("you are not a mentee on this project")
	ErrNotProjectMentor = errors.New("you are not the mentor of this project")
)

type SubmissionService struct {
	db       *gorm.DB
	projects *ProjectService
}

func NewSubmissionService(db *gorm.DB) *SubmissionService {
	return &SubmissionService{db: db, projects: NewProjectService(db)}
}

type CreateSubmissionRequest struct {
	ProjectID uint   `json:"project_id" binding:"required"`
	Title     string `json:"title" binding:"required,max=200"`
	Link      string `json:"link" binding:"omitempty,url"`
	Notes     string `json:"notes"`
}

type ReviewSubmissionRequest struct {
	Score    float64 `json:"score" binding:"min=0,max=100"`
	Feedback string  `json:"feedback"`
	Status   string  `json:"status" binding:"required,oneof=reviewed changes_requested"`
}

type SubmissionListRequest struct {
	Page      int    `form:"page" binding:"omitempty,min=1"`
	PageSize  int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	ProjectID uint   `form:"project_id"`
	Status    string `form:"status"`
}

type SubmissionListResponse struct {
	Total    int64               `json:"total"`
	Page     int                 `json:"page"`
	PageSize int                 `json:"page_size"`
	Items    []models.Submission `json:"items"`
}

// Create records a deliverable from a mentee linked to the project.
func (s *SubmissionService) Create(ctx context.Context, req *CreateSubmissionRequest, menteeID uint) (*models.Submission, error) {
	ok, err := s.projects.IsMentee(ctx, req.ProjectID, menteeID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotProjectMentee
	}

	sub := &models.Submission{
		ProjectID: req.ProjectID,
		MenteeID:  menteeID,
		Title:     req.Title,
		Link:      req.Link,
		Notes:     req.Notes,
		Status:    models.SubmissionPending,
	}
	if err := s.db.WithContext(ctx).Create(sub).Error; err != nil {
		return nil, err
	}
	return sub, nil
}

// Review scores a submission. Only the project's mentor may review.
func (s *SubmissionService) Review(ctx context.Context, id uint, req *ReviewSubmissionRequest, mentorID uint) (*models.Submission, error) {
	if req.Score < 0 || req.Score > 100 {
		return nil, fmt.Errorf("score must be between 0 and 100, got %v", req.Score)
	}
	if req.Status != models.SubmissionReviewed && req.Status != models.SubmissionChangesRequested {
		return nil, fmt.Errorf("invalid review status %q", req.Status)
	}

	var sub models.Submission
	if err := s.db.WithContext(ctx).Preload("Project").First(&sub, id).Error; err != nil {
		return nil, err
	}
	if sub.Project == nil || sub.Project.MentorID == nil || *sub.Project.MentorID != mentorID {
		return nil, ErrNotProjectMentor
	}

	now := time.Now()
	score := req.Score
	updates := map[string]interface{}{
		"score":       score,
		"feedback":    req.Feedback,
		"status":      req.Status,
		"reviewed_by": mentorID,
		"reviewed_at": now,
	}
	if err := s.db.WithContext(ctx).Model(&sub).Updates(updates).Error; err != nil {
		return nil, err
	}

	sub.Score = &score
	sub.Feedback = req.Feedback
	sub.Status = req.Status
	sub.ReviewedBy = &mentorID
	sub.ReviewedAt = &now
	return &sub, nil
}

// List returns submissions on projects visible to viewer. Mentees see only their own.
func (s *SubmissionService) List(ctx context.Context, req *SubmissionListRequest, viewer Viewer) (*SubmissionListResponse, error) {
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 20
	}

	db := s.db.WithContext(ctx)
	visible := scopeProjects(db.Model(&models.Project{}), viewer).Select("projects.id")
	query := db.Model(&models.Submission{}).Where("project_id IN (?)", visible)
	if viewer.Role == models.RoleMentee {
		query = query.Where("mentee_id = ?", viewer.UserID)
	}
	if req.ProjectID != 0 {
		query = query.Where("project_id = ?", req.ProjectID)
	}
	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var items []models.Submission
	offset := (req.Page - 1) * req.PageSize
	if err := query.Order("created_at DESC, id DESC").Offset(offset).Limit(req.PageSize).Find(&items).Error; err != nil {
		return nil, err
	}

	return &SubmissionListResponse{Total: total, Page: req.Page, PageSize: req.PageSize, Items: items}, nil
}
