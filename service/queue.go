package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"StoryForge-server/config"
	"StoryForge-server/logger"

	"github.com/hibiken/asynq"
)

const (
	TypeBatchCompile = "compile:batch"
)

type BatchPayload struct {
	JobID string `json:"job_id"`
}

func redisOpt(cfg *config.Config) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
	}
}

// Queue pushes batch compile jobs to redis for the Processor.
type Queue struct {
	client *asynq.Client
	log    *logger.Logger
}

func NewQueue(cfg *config.Config, baseLog *logger.Logger) *Queue {
	return &Queue{
		client: asynq.NewClient(redisOpt(cfg)),
		log:    baseLog.With("component", "queue"),
	}
}

// EnqueueBatch queues the batch job with the given id. Jobs are not retried:
// a rerun would append a second set of compilations.
func (q *Queue) EnqueueBatch(ctx context.Context, jobID string) error {
	payload, err := json.Marshal(BatchPayload{JobID: jobID})
	if err != nil {
		return fmt.Errorf("marshal payload failed: %w", err)
	}

	task := asynq.NewTask(TypeBatchCompile, payload,
		asynq.MaxRetry(0),
		asynq.Timeout(2*time.Hour),
		asynq.Retention(24*time.Hour),
	)

	info, err := q.client.EnqueueContext(ctx, task)
	if err != nil {
		return fmt.Errorf("enqueue failed: %w", err)
	}

	q.log.Info("job enqueued", "job_id", jobID, "task_id", info.ID)
	return nil
}

func (q *Queue) Close() error {
	return q.client.Close()
}
