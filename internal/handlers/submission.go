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

type SubmissionHandler struct {
	submissionService *services.SubmissionService
}

func NewSubmissionHandler(db *gorm.DB) *SubmissionHandler {
	return &SubmissionHandler{submissionService: services.NewSubmissionService(db)}
}

// GET /api/submissions
func (h *SubmissionHandler) List(c *gin.Context) {
	var req services.SubmissionListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.submissionService.List(c.Request.Context(), &req, middleware.GetViewer(c))
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}
	response.Success(c, resp)
}

// Create records a mentee deliverable
// POST /api/submissions
func (h *SubmissionHandler) Create(c *gin.Context) {
	var req services.CreateSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	sub, err := h.submissionService.Create(c.Request.Context(), &req, middleware.GetUserID(c))
	if errors.Is(err, services.ErrNotProjectMentee) {
		response.Forbidden(c, err.Error())
		return
	}
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}
	response.Created(c, sub)
}

// Review scores a submission
// PUT /api/submissions/:id/review
func (h *SubmissionHandler) Review(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid submission id")
		return
	}

	var req services.ReviewSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	sub, err := h.submissionService.Review(c.Request.Context(), uint(id), &req, middleware.GetUserID(c))
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		response.NotFound(c, "submission not found")
	case errors.Is(err, services.ErrNotProjectMentor):
		response.Forbidden(c, err.Error())
	case err != nil:
		response.BadRequest(c, err.Error())
	default:
		response.Success(c, sub)
	}
}
