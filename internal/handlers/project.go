package handlers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mentorloop/reviewhub/internal/middleware"
	"github.com/mentorloop/reviewhub/internal/services"
	"github.com/mentorloop/reviewhub/pkg/response"
	"gorm.io/gorm"
)

type ProjectHandler struct {
	projectService    *services.ProjectService
	assignmentService *services.AssignmentService
}

func NewProjectHandler(db *gorm.DB) *ProjectHandler {
	return &ProjectHandler{
		projectService:    services.NewProjectService(db),
		assignmentService: services.NewAssignmentService(db),
	}
}

// List returns paginated projects visible to the caller
// GET /api/projects
func (h *ProjectHandler) List(c *gin.Context) {
	var req services.ProjectListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.projectService.List(c.Request.Context(), &req, middleware.GetViewer(c))
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, resp)
}

// GetByID returns a project with its mentee ids
// GET /api/projects/:id
func (h *ProjectHandler) GetByID(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid project id")
		return
	}

	project, err := h.projectService.GetByID(c.Request.Context(), uint(id), middleware.GetViewer(c))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		response.NotFound(c, "project not found")
		return
	}
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, project)
}

// ListAssignments returns assignments with their mentee rows
// GET /api/assignments
func (h *ProjectHandler) ListAssignments(c *gin.Context) {
	var req services.AssignmentListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.assignmentService.List(c.Request.Context(), &req, middleware.GetViewer(c))
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, resp)
}

// GetAssignment returns one assignment
// GET /api/assignments/:id
func (h *ProjectHandler) GetAssignment(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid assignment id")
		return
	}

	a, err := h.assignmentService.GetByID(c.Request.Context(), uint(id), middleware.GetViewer(c))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		response.NotFound(c, "assignment not found")
		return
	}
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, a)
}
