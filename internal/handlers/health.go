package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mentorloop/reviewhub/internal/services"
	"gorm.io/gorm"
)

type HealthHandler struct {
	db    *gorm.DB
	queue services.TaskQueue
	hub   *services.ImportEventHub
}

func NewHealthHandler(db *gorm.DB, queue services.TaskQueue, hub *services.ImportEventHub) *HealthHandler {
	return &HealthHandler{db: db, queue: queue, hub: hub}
}

// CheckHealth reports database reachability and the import queue mode.
// GET /health
func (h *HealthHandler) CheckHealth(c *gin.Context) {
	overall := "healthy"
	status := http.StatusOK

	dbStatus := "ok"
	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		dbStatus = "error: " + err.Error()
		overall = "unhealthy"
		status = http.StatusServiceUnavailable
	}

	queueMode := "in-process"
	if h.queue != nil && h.queue.IsAsync() {
		queueMode = "async (Redis)"
	}

	sseClients := 0
	if h.hub != nil {
		sseClients = h.hub.ClientCount()
	}

	c.JSON(status, gin.H{
		"status":  overall,
		"service": "reviewhub",
		"components": gin.H{
			"database":    dbStatus,
			"queue_mode":  queueMode,
			"sse_clients": sseClients,
		},
	})
}
