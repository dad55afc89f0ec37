package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/lumahq/luma/internal/shared/logger"
)

// BatchJob is a scheduled batch processing step. Each Execute call processes
// one batch and returns the number of items handled.
type BatchJob interface {
	Execute(ctx context.Context) (int, error)
}

// jobQueueRetention is how long completed job rows are kept for inspection.
const jobQueueRetention = 30 * 24 * time.Hour

// Manager owns the worker's gocron scheduler: the job-queue poll loop and the
// housekeeping jobs around it.
type Manager struct {
	scheduler gocron.Scheduler
	logger    logger.Interface

	started   bool
	startedMu sync.RWMutex
}

func NewManager(log logger.Interface) (*Manager, error) {
	scheduler, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, err
	}
	return &Manager{scheduler: scheduler, logger: log}, nil
}

// RegisterQueuePoller polls the durable job queue at the given interval,
// starting immediately. Singleton mode keeps overlapping polls from claiming
// against each other on slow batches.
func (m *Manager) RegisterQueuePoller(dispatcher BatchJob, interval time.Duration) error {
	if interval <= 0 {
		interval = 30 * time.Second
	}

	_, err := m.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()
			m.poll(ctx, dispatcher)
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("queue", "poll"),
		gocron.WithName("job-queue-poller"),
	)
	if err != nil {
		return err
	}

	m.logger.Infow("registered job queue poller", "interval", interval)
	return nil
}

func (m *Manager) poll(ctx context.Context, dispatcher BatchJob) {
	start := time.Now()
	processed, err := dispatcher.Execute(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		m.logger.Errorw("job queue poll failed", "error", err, "duration", time.Since(start))
		return
	}
	if processed > 0 {
		m.logger.Infow("scheduled jobs processed", "count", processed, "duration", time.Since(start))
	} else {
		m.logger.Debugw("no due jobs", "duration", time.Since(start))
	}
}

// RegisterQueueCleanup purges old completed jobs daily at 05:00 UTC.
func (m *Manager) RegisterQueueCleanup(queue *JobQueue) error {
	_, err := m.scheduler.NewJob(
		gocron.CronJob("0 5 * * *", false),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
			defer cancel()
			purged, err := queue.PurgeCompleted(ctx, jobQueueRetention)
			if err != nil {
				m.logger.Errorw("job queue cleanup failed", "error", err)
				return
			}
			if purged > 0 {
				m.logger.Infow("completed jobs purged", "count", purged)
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("queue", "cleanup"),
		gocron.WithName("job-queue-cleanup"),
	)
	if err != nil {
		return err
	}

	m.logger.Infow("registered job queue cleanup", "schedule", "05:00 UTC")
	return nil
}

// Start starts the scheduler and all registered jobs.
func (m *Manager) Start() {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if m.started {
		return
	}
	m.scheduler.Start()
	m.started = true
	m.logger.Infow("scheduler manager started", "job_count", len(m.scheduler.Jobs()))
}

// Stop gracefully stops the scheduler, waiting for running jobs.
func (m *Manager) Stop() error {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if !m.started {
		return nil
	}

	err := m.scheduler.Shutdown()
	m.started = false
	if err != nil {
		m.logger.Errorw("scheduler manager shutdown with error", "error", err)
		return err
	}
	m.logger.Infow("scheduler manager stopped")
	return nil
}

// IsStarted reports whether the scheduler is running.
func (m *Manager) IsStarted() bool {
	m.startedMu.RLock()
	defer m.startedMu.RUnlock()
	return m.started
}
