package services

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/hibiken/asynq"
	"github.com/mentorloop/reviewhub/internal/config"
	"github.com/mentorloop/reviewhub/pkg/logger"
)

const (
	TaskTypeImport = "import:assignments"
)

// ImportTask carries one queued upload. Data travels base64-encoded in the JSON payload.
type ImportTask struct {
	ImportLogID   uint   `json:"import_log_id"`
	CoordinatorID uint   `json:"coordinator_id"`
	FileName      string `json:"file_name"`
	ContentType   string `json:"content_type"`
	Data          []byte `json:"data"`
}

// TaskQueue hands import tasks to a processor.
type TaskQueue interface {
	Enqueue(ctx context.Context, task *ImportTask) error
	// IsAsync reports whether tasks run out of process
	IsAsync() bool
	Close() error
}

var (
	globalTaskQueue TaskQueue
	taskQueueOnce   sync.Once
)

// InitTaskQueue picks the Redis-backed queue when enabled and reachable,
// otherwise an in-process queue.
func InitTaskQueue(cfg *config.Config) TaskQueue {
	taskQueueOnce.Do(func() {
		if cfg.Redis.Enabled {
			queue, err := NewAsyncQueue(&cfg.Redis)
			if err != nil {
				logger.Warnf("[TaskQueue] Redis unavailable, falling back to in-process mode: %v", err)
				globalTaskQueue = NewSyncQueue()
			} else {
				logger.Infof("[TaskQueue] Async queue initialized with Redis at %s", cfg.Redis.Addr)
				globalTaskQueue = queue
			}
		} else {
			logger.Infof("[TaskQueue] In-process queue initialized (Redis disabled)")
			globalTaskQueue = NewSyncQueue()
		}
	})
	return globalTaskQueue
}

func GetTaskQueue() TaskQueue {
	return globalTaskQueue
}

func redisOpt(cfg *config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

// AsyncQueue implements TaskQueue using asynq.
type AsyncQueue struct {
	client *asynq.Client
}

func NewAsyncQueue(cfg *config.RedisConfig) (*AsyncQueue, error) {
	opt := redisOpt(cfg)
	client := asynq.NewClient(opt)

	inspector := asynq.NewInspector(opt)
	defer inspector.Close()

	if _, err := inspector.Queues(); err != nil {
		client.Close()
		return nil, err
	}

	return &AsyncQueue{client: client}, nil
}

func (q *AsyncQueue) Enqueue(ctx context.Context, task *ImportTask) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return err
	}

	// Rows already written are not rolled back, so imports never retry.
	info, err := q.client.EnqueueContext(ctx, asynq.NewTask(TaskTypeImport, payload),
		asynq.Queue("imports"),
		asynq.MaxRetry(0),
	)
	if err != nil {
		return err
	}

	logger.Info().
		Str("task_id", info.ID).
		Str("queue", info.Queue).
		Uint("import_log_id", task.ImportLogID).
		Msg("import task enqueued")
	return nil
}

func (q *AsyncQueue) IsAsync() bool {
	return true
}

func (q *AsyncQueue) Close() error {
	return q.client.Close()
}

// SyncQueue runs tasks in a background goroutine of the current process.
type SyncQueue struct {
	processor func(context.Context, *ImportTask) error
	wg        sync.WaitGroup
}

func NewSyncQueue() *SyncQueue {
	return &SyncQueue{}
}

func (q *SyncQueue) SetProcessor(processor func(context.Context, *ImportTask) error) {
	q.processor = processor
}

func (q *SyncQueue) Enqueue(_ context.Context, task *ImportTask) error {
	if q.processor == nil {
		logger.Warnf("[SyncQueue] no processor set, import %d dropped", task.ImportLogID)
		return nil
	}

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		if err := q.processor(context.Background(), task); err != nil {
			logger.Errorf("[SyncQueue] import %d failed: %v", task.ImportLogID, err)
		}
	}()

	return nil
}

func (q *SyncQueue) IsAsync() bool {
	return false
}

// Close waits for in-flight imports.
func (q *SyncQueue) Close() error {
	q.wg.Wait()
	return nil
}
