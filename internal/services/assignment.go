package services

import (
	"context"

	"github.com/mentorloop/reviewhub/internal/models"
	"gorm.io/gorm"
)

type AssignmentService struct {
	db *gorm.DB
}

func NewAssignmentService(db *gorm.DB) *AssignmentService {
	return &AssignmentService{db: db}
}

type AssignmentListRequest struct {
	Page        int    `form:"page" binding:"omitempty,min=1"`
	PageSize    int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	MentorEmail string `form:"mentor_email"`
	ProjectName string `form:"project_name"`
}

type AssignmentListResponse struct {
	Total    int64               `json:"total"`
	Page     int                 `json:"page"`
	PageSize int                 `json:"page_size"`
	Items    []models.Assignment `json:"items"`
}

func scopeAssignments(query *gorm.DB, viewer Viewer) *gorm.DB {
	switch viewer.Role {
	case models.RoleHOD:
		return query
	case models.RoleCoordinator:
		return query.Where("created_by = ?", viewer.UserID)
	case models.RoleMentor:
		return query.Where("mentor_id = ?", viewer.UserID)
	case models.RoleMentee:
		return query.Where("id IN (?)",
			query.Session(&gorm.Session{NewDB: true}).
				Model(&models.AssignmentMentee{}).Select("assignment_id").Where("mentee_id = ?", viewer.UserID))
	default:
		return query.Where("1 = 0")
	}
}

// List returns assignments with their mentee rows.
func (s *AssignmentService) List(ctx context.Context, req *AssignmentListRequest, viewer Viewer) (*AssignmentListResponse, error) {
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 10
	}

	query := scopeAssignments(s.db.WithContext(ctx).Model(&models.Assignment{}), viewer)
	if req.MentorEmail != "" {
		query = query.Where("mentor_email = ?", req.MentorEmail)
	}
	if req.ProjectName != "" {
		query = query.Where("project_name LIKE ?", "%"+req.ProjectName+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var items []models.Assignment
	offset := (req.Page - 1) * req.PageSize
	if err := query.Preload("Mentees", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Order("created_at DESC, id DESC").Offset(offset).Limit(req.PageSize).Find(&items).Error; err != nil {
		return nil, err
	}

	return &AssignmentListResponse{Total: total, Page: req.Page, PageSize: req.PageSize, Items: items}, nil
}

func (s *AssignmentService) GetByID(ctx context.Context, id uint, viewer Viewer) (*models.Assignment, error) {
	var a models.Assignment
	query := scopeAssignments(s.db.WithContext(ctx).Model(&models.Assignment{}), viewer)
	if err := query.Preload("Mentees", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Where("id = ?", id).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}
