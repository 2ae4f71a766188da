package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/hibiken/asynq"
	"github.com/mentorloop/reviewhub/internal/config"
	"github.com/mentorloop/reviewhub/pkg/logger"
)

// Worker consumes import tasks from Redis.
type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	processor func(context.Context, *ImportTask) error
	wg        sync.WaitGroup
	running   bool
	mu        sync.Mutex
}

// NewWorker returns nil when Redis is disabled.
func NewWorker(cfg *config.RedisConfig) *Worker {
	if !cfg.Enabled {
		return nil
	}

	server := asynq.NewServer(
		redisOpt(cfg),
		asynq.Config{
			Concurrency: 2,
			Queues: map[string]int{
				"imports": 1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Error().Str("type", task.Type()).Err(err).Msg("worker task failed")
			}),
		},
	)

	return &Worker{
		server: server,
		mux:    asynq.NewServeMux(),
	}
}

func (w *Worker) SetProcessor(processor func(context.Context, *ImportTask) error) {
	w.processor = processor
}

func (w *Worker) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	w.mux.HandleFunc(TaskTypeImport, w.handleImportTask)

	w.running = true
	w.wg.Add(1)

	go func() {
		defer w.wg.Done()
		logger.Infof("[Worker] Starting import worker...")
		if err := w.server.Run(w.mux); err != nil {
			logger.Errorf("[Worker] Server error: %v", err)
		}
	}()

	return nil
}

func (w *Worker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}

	logger.Infof("[Worker] Shutting down...")
	w.server.Shutdown()
	w.running = false
	w.wg.Wait()
	logger.Infof("[Worker] Shutdown complete")
}

func (w *Worker) handleImportTask(ctx context.Context, t *asynq.Task) error {
	task, err := decodeImportTask(t.Payload())
	if err != nil {
		// A payload that cannot be decoded will never succeed.
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	logger.Info().
		Uint("import_log_id", task.ImportLogID).
		Uint("coordinator_id", task.CoordinatorID).
		Str("file", task.FileName).
		Msg("processing import task")

	if w.processor == nil {
		logger.Warnf("[Worker] no processor set")
		return nil
	}
	return w.processor(ctx, task)
}

func decodeImportTask(payload []byte) (*ImportTask, error) {
	var task ImportTask
	if err := json.Unmarshal(payload, &task); err != nil {
		return nil, fmt.Errorf("decode import task: %w", err)
	}
	if task.ImportLogID == 0 || task.CoordinatorID == 0 {
		return nil, fmt.Errorf("decode import task: missing import log or coordinator id")
	}
	return &task, nil
}

var (
	globalWorker *Worker
	workerOnce   sync.Once
)

func InitWorker(cfg *config.RedisConfig) *Worker {
	workerOnce.Do(func() {
		globalWorker = NewWorker(cfg)
	})
	return globalWorker
}

func GetWorker() *Worker {
	return globalWorker
}
