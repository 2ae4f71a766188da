package main

import (
	"os"

	"github.com/mentorloop/reviewhub/internal/config"
	"github.com/mentorloop/reviewhub/internal/middleware"
	"github.com/mentorloop/reviewhub/internal/models"
	"github.com/mentorloop/reviewhub/internal/services"
	"github.com/mentorloop/reviewhub/internal/utils"
	"github.com/mentorloop/reviewhub/pkg/logger"
)

const logRetentionSpec = "0 3 * * *"

// appServices holds everything the routes and shutdown need.
type appServices struct {
	importService *services.ImportService
	importHub     *services.ImportEventHub
	taskQueue     services.TaskQueue
	worker        *services.Worker
	retention     *services.LogRetentionScheduler
	uploadLimiter *middleware.RateLimiter
}

// bootstrap initializes the database, the import pipeline and the schedulers.
func bootstrap(cfg *config.Config) *appServices {
	utils.SetJWTSecret(cfg.JWT.Secret)

	if err := models.InitDB(&cfg.Database, cfg.Log.Level); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	if email := os.Getenv("SEED_HOD_EMAIL"); email != "" {
		name := os.Getenv("SEED_HOD_NAME")
		if name == "" {
			name = "Head of Department"
		}
		if err := models.SeedDefaultData(name, email); err != nil {
			logger.Warn().Err(err).Msg("Failed to seed default data")
		}
	}

	db := models.GetDB()
	services.InitSystemLogger(db)

	retention := services.NewLogRetentionScheduler(db, cfg.Log.RetentionDays)
	if err := retention.Start(logRetentionSpec); err != nil {
		logger.Warn().Err(err).Msg("Failed to start log retention scheduler")
	}

	hub := services.GetImportEventHub()
	taskQueue := services.InitTaskQueue(cfg)
	importService := services.NewImportService(db, cfg.Import, taskQueue, hub)
	if syncQueue, ok := taskQueue.(*services.SyncQueue); ok {
		syncQueue.SetProcessor(importService.ProcessTask)
	}

	var worker *services.Worker
	if taskQueue.IsAsync() {
		worker = services.InitWorker(&cfg.Redis)
		if worker != nil {
			worker.SetProcessor(importService.ProcessTask)
			worker.Start()
		}
	}

	return &appServices{
		importService: importService,
		importHub:     hub,
		taskQueue:     taskQueue,
		worker:        worker,
		retention:     retention,
		uploadLimiter: middleware.NewRateLimiter(0.5, 5),
	}
}

// shutdown stops the scheduler, drains the worker and closes the queue.
func (s *appServices) shutdown() {
	s.retention.Stop()
	s.uploadLimiter.Stop()
	logger.Info().Msg("Schedulers stopped")

	if s.worker != nil {
		s.worker.Stop()
	}
	if s.taskQueue != nil {
		s.taskQueue.Close()
	}
}
