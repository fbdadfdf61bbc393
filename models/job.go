package models

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// Job statuses.
const (
	// pending: queued, waiting for the worker
	JobStatusPending = "pending"
	// processing: the worker is compiling the batch
	JobStatusProcessing = "processing"
	JobStatusFinished   = "finished"
	JobStatusFailed     = "failed"

	JobTypeBatchCompile = "batch_compile"
)

// Job tracks an asynchronous batch compilation submitted through the queue.
type Job struct {
	ID         string        `gorm:"primaryKey;type:varchar(64)" json:"id"`
	ProjectID  string        `gorm:"type:varchar(64);index" json:"project_id"`
	Type       string        `gorm:"size:32" json:"type"`
	Status     string        `gorm:"size:32;index" json:"status"`
	Progress   int           `json:"progress"`
	Message    string        `gorm:"type:text" json:"message"`
	Parameters JobParameters `gorm:"type:json" json:"parameters"`
	Result     RawJSON       `gorm:"type:json" json:"result"`
	Error      string        `gorm:"type:text" json:"error"`
	StartedAt  *time.Time    `json:"started_at"`
	FinishedAt *time.Time    `json:"finished_at"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

type JobParameters struct {
	ShotIDs []string `json:"shot_ids"`
}

func (p JobParameters) Value() (driver.Value, error) {
	return json.Marshal(p)
}

func (p *JobParameters) Scan(value interface{}) error { return scanJSON(value, p) }

// Done reports whether the job reached a terminal status.
func (j *Job) Done() bool {
	return j.Status == JobStatusFinished || j.Status == JobStatusFailed
}

func (j *Job) UpdateStatus(ctx context.Context, db *gorm.DB, status string, result interface{}, errMsg string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": now,
	}
	switch status {
	case JobStatusProcessing:
		updates["started_at"] = now
	case JobStatusFinished, JobStatusFailed:
		updates["finished_at"] = now
		updates["progress"] = 100
	}
	if result != nil {
		b, err := json.Marshal(result)
		if err != nil {
			return err
		}
		updates["result"] = RawJSON(b)
	}
	if errMsg != "" {
		updates["error"] = errMsg
	}
	return db.WithContext(ctx).Model(j).Updates(updates).Error
}

func (Job) TableName() string {
	return "job"
}
