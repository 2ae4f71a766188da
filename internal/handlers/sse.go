package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mentorloop/reviewhub/internal/models"
	"github.com/mentorloop/reviewhub/internal/services"
	"github.com/mentorloop/reviewhub/internal/utils"
	"github.com/mentorloop/reviewhub/pkg/logger"
	"github.com/mentorloop/reviewhub/pkg/response"
)

// SSEHandler streams import progress to the dashboard.
type SSEHandler struct {
	importHub *services.ImportEventHub
}

func NewSSEHandler(hub *services.ImportEventHub) *SSEHandler {
	return &SSEHandler{importHub: hub}
}

// StreamImportEvents pushes import events for the caller's imports (all imports for an HOD).
// EventSource cannot set headers, so the token may also come as ?token=.
// GET /api/events/imports
func (h *SSEHandler) StreamImportEvents(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		authHeader := c.GetHeader("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			token = strings.TrimPrefix(authHeader, "Bearer ")
		}
	}

	if token == "" {
		response.Unauthorized(c, "Unauthorized")
		return
	}

	claims, err := utils.ParseToken(token)
	if err != nil {
		response.Unauthorized(c, "Invalid token")
		return
	}
	if claims.Role != models.RoleCoordinator && claims.Role != models.RoleHOD {
		response.Forbidden(c, "insufficient role for this action")
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	clientID := uuid.New().String()
	events := h.importHub.Subscribe(clientID)
	defer h.importHub.Unsubscribe(clientID)

	log := logger.With("sse")
	log.Info().Str("client_id", clientID).Uint("user_id", claims.UserID).Int("total", h.importHub.ClientCount()).Msg("import SSE client connected")

	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-events:
			if !ok {
				return false
			}
			if claims.Role != models.RoleHOD && event.CoordinatorID != claims.UserID {
				return true
			}
			data, err := json.Marshal(event)
			if err != nil {
				log.Error().Err(err).Msg("import SSE marshal error")
				return true
			}
			fmt.Fprintf(w, "event: import\ndata: %s\n\n", data)
			return true
		case <-c.Request.Context().Done():
			log.Info().Str("client_id", clientID).Msg("import SSE client disconnected")
			return false
		}
	})
}
