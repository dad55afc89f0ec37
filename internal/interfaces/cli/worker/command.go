// Package worker implements the background worker command: the durable job
// queue poller that executes payment retries, win-back emails, and scheduled
// resumes.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	appbilling "github.com/lumahq/luma/internal/application/billing"
	"github.com/lumahq/luma/internal/application/billing/usecases"
	"github.com/lumahq/luma/internal/infrastructure/config"
	"github.com/lumahq/luma/internal/infrastructure/database"
	"github.com/lumahq/luma/internal/infrastructure/scheduler"
	"github.com/lumahq/luma/internal/interfaces/container"
	"github.com/lumahq/luma/internal/shared/logger"
)

var env string

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Start the billing worker",
		Long:  `Start the background worker that polls the durable job queue and executes scheduled billing work.`,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	if envVar := os.Getenv("ENV"); envVar != "" {
		env = envVar
	}

	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(&cfg.Logger); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	logger.Info("starting worker", "environment", env)

	if err := database.Init(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	c, err := container.New(cfg, database.Get(), logger.NewLogger())
	if err != nil {
		return fmt.Errorf("failed to build container: %w", err)
	}
	if err := c.Start(); err != nil {
		return fmt.Errorf("failed to start container: %w", err)
	}
	defer func() {
		if err := c.Stop(); err != nil {
			logger.Error("failed to stop container", "error", err)
		}
	}()

	dispatcher := scheduler.NewJobDispatcher(c.JobQueue, cfg.Scheduler.BatchSize, c.Logger)
	registerHandlers(dispatcher, c)

	manager, err := scheduler.NewManager(c.Logger)
	if err != nil {
		return fmt.Errorf("failed to create scheduler manager: %w", err)
	}

	pollInterval := time.Duration(cfg.Scheduler.PollIntervalSeconds) * time.Second
	if err := manager.RegisterQueuePoller(dispatcher, pollInterval); err != nil {
		return fmt.Errorf("failed to register queue poller: %w", err)
	}
	if err := manager.RegisterQueueCleanup(c.JobQueue); err != nil {
		return fmt.Errorf("failed to register queue cleanup: %w", err)
	}

	manager.Start()
	defer func() {
		if err := manager.Stop(); err != nil {
			logger.Error("failed to stop scheduler manager", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("worker stopped")
	return nil
}

// registerHandlers binds each job type to its use case. Handlers unmarshal
// their own payload type and rely on use case idempotency for redelivery.
func registerHandlers(dispatcher *scheduler.JobDispatcher, c *container.Container) {
	dispatcher.Register(appbilling.JobTypePaymentRetry, func(ctx context.Context, payload json.RawMessage) error {
		var p appbilling.PaymentRetryPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return fmt.Errorf("malformed payment retry payload: %w", err)
		}
		_, err := c.ExecutePaymentRetryUC.Execute(ctx, usecases.ExecutePaymentRetryCommand{
			SubscriptionID: p.SubscriptionID,
			FailureID:      p.FailureID,
			Attempt:        p.Attempt,
		})
		return err
	})

	dispatcher.Register(appbilling.JobTypeWinbackEmail, func(ctx context.Context, payload json.RawMessage) error {
		var p appbilling.WinbackEmailPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return fmt.Errorf("malformed win-back payload: %w", err)
		}
		_, err := c.SendWinbackEmailUC.Execute(ctx, usecases.SendWinbackEmailCommand{
			SubscriptionID: p.SubscriptionID,
			Stage:          p.Stage,
			Campaign:       p.Campaign,
		})
		return err
	})

	dispatcher.Register(appbilling.JobTypeSubscriptionResume, func(ctx context.Context, payload json.RawMessage) error {
		var p appbilling.SubscriptionResumePayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return fmt.Errorf("malformed resume payload: %w", err)
		}
		_, err := c.ResumeUC.Execute(ctx, usecases.ResumeSubscriptionCommand{
			SubscriptionID: p.SubscriptionID,
		})
		return err
	})
}
