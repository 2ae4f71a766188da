package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/mentorloop/reviewhub/internal/middleware"
	"github.com/mentorloop/reviewhub/internal/services"
	"github.com/mentorloop/reviewhub/pkg/response"
	"gorm.io/gorm"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(db *gorm.DB) *UserHandler {
	return &UserHandler{userService: services.NewUserService(db)}
}

// GET /api/users?role=mentor
func (h *UserHandler) List(c *gin.Context) {
	var req services.UserListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.userService.List(c.Request.Context(), &req)
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}
	response.Success(c, resp)
}

// POST /api/users
func (h *UserHandler) Create(c *gin.Context) {
	var req services.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	user, err := h.userService.Create(c.Request.Context(), &req)
	if errors.Is(err, services.ErrEmailTaken) {
		response.Error(c, response.NewConflict(err.Error()))
		return
	}
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Created(c, user)
}

// Me returns the authenticated user's profile
// GET /api/users/me
func (h *UserHandler) Me(c *gin.Context) {
	user, err := h.userService.GetByID(c.Request.Context(), middleware.GetUserID(c))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		response.NotFound(c, "user not found")
		return
	}
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}
	response.Success(c, user)
}
