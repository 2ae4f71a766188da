package main

import (
	"github.com/gin-gonic/gin"
	"github.com/mentorloop/reviewhub/internal/config"
	"github.com/mentorloop/reviewhub/internal/handlers"
	"github.com/mentorloop/reviewhub/internal/middleware"
	"github.com/mentorloop/reviewhub/internal/models"
	"github.com/mentorloop/reviewhub/pkg/logger"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, cfg *config.Config, svc *appServices) {
	db := models.GetDB()

	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS())

	r.MaxMultipartMemory = cfg.Import.MaxUploadBytes()

	healthHandler := handlers.NewHealthHandler(db, svc.taskQueue, svc.importHub)
	r.GET("/health", healthHandler.CheckHealth)

	api := r.Group("/api")
	{
		// SSE authenticates with ?token= since EventSource cannot send headers
		sseHandler := handlers.NewSSEHandler(svc.importHub)
		api.GET("/events/imports", sseHandler.StreamImportEvents)

		protected := api.Group("")
		protected.Use(middleware.AuthRequired(), middleware.AuditLog())
		{
			userHandler := handlers.NewUserHandler(db)
			protected.GET("/users/me", userHandler.Me)

			staff := protected.Group("", middleware.RoleRequired(models.RoleCoordinator, models.RoleHOD))
			{
				importHandler := handlers.NewImportHandler(svc.importService, cfg.Import)
				staff.GET("/imports/template", importHandler.Template)
				staff.GET("/imports", importHandler.List)
				staff.GET("/imports/:id", importHandler.GetByID)

				uploads := staff.Group("", svc.uploadLimiter.Middleware())
				uploads.POST("/imports", importHandler.Import)
				uploads.POST("/imports/preview", importHandler.Preview)

				staff.GET("/users", userHandler.List)
				staff.POST("/users", userHandler.Create)
			}

			projectHandler := handlers.NewProjectHandler(db)
			protected.GET("/projects", projectHandler.List)
			protected.GET("/projects/:id", projectHandler.GetByID)
			protected.GET("/assignments", projectHandler.ListAssignments)
			protected.GET("/assignments/:id", projectHandler.GetAssignment)

			submissionHandler := handlers.NewSubmissionHandler(db)
			protected.GET("/submissions", submissionHandler.List)
			protected.POST("/submissions", middleware.RoleRequired(models.RoleMentee), submissionHandler.Create)
			protected.PUT("/submissions/:id/review", middleware.RoleRequired(models.RoleMentor), submissionHandler.Review)

			systemLogHandler := handlers.NewSystemLogHandler(db)
			hod := protected.Group("", middleware.RoleRequired(models.RoleHOD))
			hod.GET("/system-logs", systemLogHandler.List)
			hod.GET("/system-logs/modules", systemLogHandler.GetModules)
		}
	}
}
