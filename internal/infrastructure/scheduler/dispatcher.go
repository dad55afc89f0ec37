package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/lumahq/luma/internal/infrastructure/persistence/models"
	"github.com/lumahq/luma/internal/shared/logger"
)

// JobHandler executes one claimed job payload. The raw payload is passed so
// each handler unmarshals its own type.
type JobHandler func(ctx context.Context, payload json.RawMessage) error

// JobDispatcher claims due jobs from the queue and routes them to registered
// handlers. It satisfies the manager's BatchJob interface; each Execute call
// processes one batch.
type JobDispatcher struct {
	queue     *JobQueue
	handlers  map[string]JobHandler
	handlerMu sync.RWMutex
	batchSize int
	logger    logger.Interface
}

func NewJobDispatcher(queue *JobQueue, batchSize int, logger logger.Interface) *JobDispatcher {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &JobDispatcher{
		queue:     queue,
		handlers:  make(map[string]JobHandler),
		batchSize: batchSize,
		logger:    logger,
	}
}

// Register binds a handler to a job type. Re-registering replaces the
// previous handler.
func (d *JobDispatcher) Register(jobType string, handler JobHandler) {
	d.handlerMu.Lock()
	defer d.handlerMu.Unlock()
	d.handlers[jobType] = handler
}

// Execute claims one batch of due jobs and runs them sequentially. A handler
// error fails only its own job; the batch continues.
func (d *JobDispatcher) Execute(ctx context.Context) (int, error) {
	claimed, err := d.queue.ClaimDue(ctx, d.batchSize)
	if err != nil {
		return 0, err
	}

	processed := 0
	for _, job := range claimed {
		if ctx.Err() != nil {
			// Shutdown mid-batch: unclaimed work stays running and is picked
			// up after its failure backoff.
			d.requeue(job, ctx.Err())
			continue
		}
		if err := d.run(ctx, job); err != nil {
			d.logger.Errorw("scheduled job failed",
				"jid", job.JID,
				"job_type", job.JobType,
				"attempt", job.Attempts,
				"error", err,
			)
			d.requeue(job, err)
			continue
		}
		if err := d.queue.MarkCompleted(ctx, job.ID); err != nil {
			d.logger.Errorw("failed to mark job completed", "jid", job.JID, "error", err)
		}
		processed++
	}

	return processed, nil
}

func (d *JobDispatcher) run(ctx context.Context, job *models.ScheduledJobModel) error {
	d.handlerMu.RLock()
	handler, ok := d.handlers[job.JobType]
	d.handlerMu.RUnlock()
	if !ok {
		return fmt.Errorf("no handler registered for job type %s", job.JobType)
	}

	return handler(ctx, json.RawMessage(job.Payload))
}

func (d *JobDispatcher) requeue(job *models.ScheduledJobModel, runErr error) {
	// Bookkeeping uses a fresh context so a cancelled batch context does not
	// lose the failure record.
	if err := d.queue.MarkFailed(context.Background(), job, runErr); err != nil {
		d.logger.Errorw("failed to mark job failed", "jid", job.JID, "error", err)
	}
}
