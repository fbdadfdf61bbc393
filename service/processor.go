package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"StoryForge-server/compiler"
	"StoryForge-server/config"
	"StoryForge-server/logger"
	"StoryForge-server/models"

	"github.com/hibiken/asynq"
)

// BatchCompiler runs a synchronous batch; *compiler.Compiler satisfies it.
type BatchCompiler interface {
	CompileBatch(ctx context.Context, projectID string, shotIDs []string, progress compiler.Progress) (*compiler.BatchResult, error)
}

// Processor consumes batch compile jobs from the queue.
type Processor struct {
	store    *models.Store
	compiler BatchCompiler
	log      *logger.Logger
	srv      *asynq.Server
}

func NewProcessor(store *models.Store, bc BatchCompiler, baseLog *logger.Logger) *Processor {
	return &Processor{
		store:    store,
		compiler: bc,
		log:      baseLog.With("component", "processor"),
	}
}

// Start launches the asynq server in the background. The concurrency comes
// from config and defaults to one worker so model calls stay sequential.
func (p *Processor) Start(cfg *config.Config) error {
	p.srv = asynq.NewServer(redisOpt(cfg), asynq.Config{
		Concurrency: cfg.Queue.Concurrency,
		Queues: map[string]int{
			"default": 1,
		},
	})
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeBatchCompile, p.HandleBatchCompile)

	p.log.Info("starting task processor", "concurrency", cfg.Queue.Concurrency)
	return p.srv.Start(mux)
}

func (p *Processor) Shutdown() {
	if p.srv != nil {
		p.srv.Shutdown()
	}
}

func (p *Processor) HandleBatchCompile(ctx context.Context, t *asynq.Task) error {
	var payload BatchPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("json.Unmarshal failed: %v: %w", err, asynq.SkipRetry)
	}
	return p.RunJob(ctx, payload.JobID)
}

// RunJob executes one stored batch job and writes its outcome back to the
// job row. Only a missing job is reported as an error.
func (p *Processor) RunJob(ctx context.Context, jobID string) error {
	job, err := p.store.GetJob(ctx, jobID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return fmt.Errorf("job %s not found: %w", jobID, asynq.SkipRetry)
		}
		return err
	}
	log := p.log.With("job_id", job.ID, "project_id", job.ProjectID)
	log.Info("processing job", "shots", len(job.Parameters.ShotIDs))

	if err := job.UpdateStatus(ctx, p.store.DB(), models.JobStatusProcessing, nil, ""); err != nil {
		log.Warn("update status processing failed", "error", err)
	}

	progress := func(done, total int, item compiler.BatchItem) {
		pct := 99
		if total > 0 && done < total {
			pct = done * 100 / total
		}
		msg := fmt.Sprintf("%d/%d shots", done, total)
		if err := p.store.UpdateJobProgress(ctx, job.ID, pct, msg); err != nil {
			log.Warn("update progress failed", "error", err)
		}
		if item.Error != "" {
			log.Warn("batch item failed", "shot_id", item.ShotID, "error", item.Error)
		}
	}

	res, err := p.compiler.CompileBatch(ctx, job.ProjectID, job.Parameters.ShotIDs, progress)
	if err != nil {
		log.Error("batch compile failed", "error", err)
		if uerr := job.UpdateStatus(ctx, p.store.DB(), models.JobStatusFailed, nil, err.Error()); uerr != nil {
			log.Warn("update status failed failed", "error", uerr)
		}
		return nil
	}

	if err := job.UpdateStatus(ctx, p.store.DB(), models.JobStatusFinished, res, ""); err != nil {
		log.Error("update status finished failed", "error", err)
		return err
	}
	log.Info("job completed", "total", res.Total)
	return nil
}
