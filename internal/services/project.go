package services

import (
	"context"

	"github.com/mentorloop/reviewhub/internal/models"
	"gorm.io/gorm"
)

// Viewer is the authenticated caller a query is scoped to.
type Viewer struct {
	UserID uint
	Role   string
}

type ProjectService struct {
	db *gorm.DB
}

func NewProjectService(db *gorm.DB) *ProjectService {
	return &ProjectService{db: db}
}

type ProjectListRequest struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Name     string `form:"name"`
	Status   string `form:"status"`
}

type ProjectListResponse struct {
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
	Items    []models.Project `json:"items"`
}

// scope restricts a project query to what viewer may see.
func scopeProjects(query *gorm.DB, viewer Viewer) *gorm.DB {
	switch viewer.Role {
	case models.RoleHOD:
		return query
	case models.RoleCoordinator:
		return query.Where("projects.assigned_by = ?", viewer.UserID)
	case models.RoleMentor:
		return query.Where("projects.mentor_id = ?", viewer.UserID)
	case models.RoleMentee:
		return query.Where("projects.id IN (?)",
			query.Session(&gorm.Session{NewDB: true}).
				Model(&models.ProjectMentee{}).Select("project_id").Where("user_id = ?", viewer.UserID))
	default:
		return query.Where("1 = 0")
	}
}

// List returns paginated projects visible to viewer.
func (s *ProjectService) List(ctx context.Context, req *ProjectListRequest, viewer Viewer) (*ProjectListResponse, error) {
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 10
	}

	var projects []models.Project
	var total int64

	query := scopeProjects(s.db.WithContext(ctx).Model(&models.Project{}), viewer)

	if req.Name != "" {
		query = query.Where("projects.name LIKE ?", "%"+req.Name+"%")
	}
	if req.Status != "" {
		query = query.Where("projects.status = ?", req.Status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	offset := (req.Page - 1) * req.PageSize
	if err := query.Offset(offset).Limit(req.PageSize).Order("projects.created_at DESC, projects.id DESC").Find(&projects).Error; err != nil {
		return nil, err
	}

	for i := range projects {
		if err := loadMenteeIDs(s.db.WithContext(ctx), &projects[i]); err != nil {
			return nil, err
		}
	}

	return &ProjectListResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    projects,
	}, nil
}

// GetByID returns a project and its mentee ids if viewer may see it.
func (s *ProjectService) GetByID(ctx context.Context, id uint, viewer Viewer) (*models.Project, error) {
	var project models.Project
	query := scopeProjects(s.db.WithContext(ctx).Model(&models.Project{}), viewer)
	if err := query.Where("projects.id = ?", id).First(&project).Error; err != nil {
		return nil, err
	}
	if err := loadMenteeIDs(s.db.WithContext(ctx), &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// IsMentee reports whether userID is linked to projectID.
func (s *ProjectService) IsMentee(ctx context.Context, projectID, userID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.ProjectMentee{}).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Count(&count).Error
	return count > 0, err
}
