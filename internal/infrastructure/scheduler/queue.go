// Package scheduler provides the durable delayed-job queue and its gocron
// driven dispatch loop. Jobs are rows, not timers: a win-back email scheduled
// 90 days out survives any number of restarts.
package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/lumahq/luma/internal/infrastructure/persistence/models"
	"github.com/lumahq/luma/internal/shared/db"
	"github.com/lumahq/luma/internal/shared/id"
	"github.com/lumahq/luma/internal/shared/logger"
)

const defaultMaxAttempts = 3

// JobQueue persists delayed jobs. It implements the application layer's
// JobScheduler port; enqueues inside a transaction commit or roll back with
// the business change that scheduled them.
type JobQueue struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewJobQueue(db *gorm.DB, logger logger.Interface) *JobQueue {
	return &JobQueue{db: db, logger: logger}
}

func (q *JobQueue) Enqueue(ctx context.Context, jobType string, payload any, runAt time.Time) error {
	if jobType == "" {
		return fmt.Errorf("job type is required")
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal job payload: %w", err)
	}

	model := &models.ScheduledJobModel{
		JID:         id.MustGenerateWithPrefix(id.PrefixScheduledJob, id.DefaultLength),
		JobType:     jobType,
		Payload:     data,
		RunAt:       runAt.UTC(),
		Status:      models.JobStatusPending,
		MaxAttempts: defaultMaxAttempts,
	}

	tx := db.GetTxFromContext(ctx, q.db)
	if err := tx.Create(model).Error; err != nil {
		q.logger.Errorw("failed to enqueue job", "job_type", jobType, "run_at", runAt, "error", err)
		return fmt.Errorf("failed to enqueue job: %w", err)
	}

	q.logger.Debugw("job enqueued", "jid", model.JID, "job_type", jobType, "run_at", model.RunAt)
	return nil
}

// ClaimDue atomically claims up to limit due pending jobs by flipping them to
// running. Concurrent workers never claim the same row.
func (q *JobQueue) ClaimDue(ctx context.Context, limit int) ([]*models.ScheduledJobModel, error) {
	var due []*models.ScheduledJobModel

	now := time.Now().UTC()
	if err := q.db.WithContext(ctx).
		Where("status = ? AND run_at <= ?", models.JobStatusPending, now).
		Order("run_at").
		Limit(limit).
		Find(&due).Error; err != nil {
		return nil, fmt.Errorf("failed to load due jobs: %w", err)
	}

	claimed := make([]*models.ScheduledJobModel, 0, len(due))
	for _, job := range due {
		result := q.db.WithContext(ctx).
			Model(&models.ScheduledJobModel{}).
			Where("id = ? AND status = ?", job.ID, models.JobStatusPending).
			Updates(map[string]interface{}{
				"status":     models.JobStatusRunning,
				"attempts":   gorm.Expr("attempts + 1"),
				"updated_at": now,
			})
		if result.Error != nil {
			return nil, fmt.Errorf("failed to claim job %d: %w", job.ID, result.Error)
		}
		if result.RowsAffected == 0 {
			continue
		}
		job.Status = models.JobStatusRunning
		job.Attempts++
		claimed = append(claimed, job)
	}

	return claimed, nil
}

// MarkCompleted closes a job after a successful run.
func (q *JobQueue) MarkCompleted(ctx context.Context, jobID uint) error {
	now := time.Now().UTC()
	return q.db.WithContext(ctx).
		Model(&models.ScheduledJobModel{}).
		Where("id = ?", jobID).
		Updates(map[string]interface{}{
			"status":       models.JobStatusCompleted,
			"completed_at": now,
			"updated_at":   now,
		}).Error
}

// MarkFailed records a failed run. Jobs with attempts left return to pending
// with a short backoff; exhausted jobs stay failed for operator inspection.
func (q *JobQueue) MarkFailed(ctx context.Context, job *models.ScheduledJobModel, runErr error) error {
	now := time.Now().UTC()
	errMsg := runErr.Error()
	if len(errMsg) > 1000 {
		errMsg = errMsg[:1000]
	}

	updates := map[string]interface{}{
		"last_error": &errMsg,
		"updated_at": now,
	}
	if job.Attempts < job.MaxAttempts {
		updates["status"] = models.JobStatusPending
		updates["run_at"] = now.Add(time.Duration(job.Attempts) * 5 * time.Minute)
	} else {
		updates["status"] = models.JobStatusFailed
	}

	return q.db.WithContext(ctx).
		Model(&models.ScheduledJobModel{}).
		Where("id = ?", job.ID).
		Updates(updates).Error
}

// PurgeCompleted deletes completed jobs older than the retention window.
func (q *JobQueue) PurgeCompleted(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	result := q.db.WithContext(ctx).
		Where("status = ? AND completed_at < ?", models.JobStatusCompleted, cutoff).
		Delete(&models.ScheduledJobModel{})
	return result.RowsAffected, result.Error
}
