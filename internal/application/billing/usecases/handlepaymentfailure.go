// Package usecases implements the billing lifecycle operations: failure
// intake, retry execution, suspension, the cancellation-save flow, win-back
// sequences, and reactivation.
package usecases

import (
	"context"
	"fmt"
	"time"

	appbilling "github.com/lumahq/luma/internal/application/billing"
	"github.com/lumahq/luma/internal/application/billing/services"
	"github.com/lumahq/luma/internal/domain/billing"
	"github.com/lumahq/luma/internal/domain/shared/events"
	"github.com/lumahq/luma/internal/domain/subscription"
	"github.com/lumahq/luma/internal/domain/workspace"
	"github.com/lumahq/luma/internal/shared/db"
	apperrors "github.com/lumahq/luma/internal/shared/errors"
	"github.com/lumahq/luma/internal/shared/logger"
)

// HandlePaymentFailureCommand records a declined invoice reported by the
// payment gateway.
type HandlePaymentFailureCommand struct {
	SubscriptionID uint
	InvoiceID      string
	Reason         string
	Code           string
}

// HandlePaymentFailureResult reports what the intake did.
type HandlePaymentFailureResult struct {
	FailureID   uint
	NextRetryAt time.Time
	AlreadyOpen bool
}

// HandlePaymentFailureUseCase opens a payment failure record, moves the
// subscription to past due with a grace deadline, and enqueues the full
// retry timetable. A second decline for the same invoice is a no-op.
type HandlePaymentFailureUseCase struct {
	subscriptionRepo subscription.SubscriptionRepository
	failureRepo      billing.PaymentFailureRepository
	workspaceRepo    workspace.WorkspaceRepository
	schedule         *services.RetrySchedule
	jobs             appbilling.JobScheduler
	notifier         appbilling.NotificationDispatcher
	eventPublisher   events.EventPublisher
	txManager        *db.TransactionManager
	gracePeriodDays  int
	logger           logger.Interface
}

func NewHandlePaymentFailureUseCase(
	subscriptionRepo subscription.SubscriptionRepository,
	failureRepo billing.PaymentFailureRepository,
	workspaceRepo workspace.WorkspaceRepository,
	schedule *services.RetrySchedule,
	jobs appbilling.JobScheduler,
	notifier appbilling.NotificationDispatcher,
	eventPublisher events.EventPublisher,
	txManager *db.TransactionManager,
	gracePeriodDays int,
	logger logger.Interface,
) *HandlePaymentFailureUseCase {
	return &HandlePaymentFailureUseCase{
		subscriptionRepo: subscriptionRepo,
		failureRepo:      failureRepo,
		workspaceRepo:    workspaceRepo,
		schedule:         schedule,
		jobs:             jobs,
		notifier:         notifier,
		eventPublisher:   eventPublisher,
		txManager:        txManager,
		gracePeriodDays:  gracePeriodDays,
		logger:           logger,
	}
}

func (uc *HandlePaymentFailureUseCase) Execute(ctx context.Context, cmd HandlePaymentFailureCommand) (*HandlePaymentFailureResult, error) {
	if cmd.SubscriptionID == 0 {
		return nil, apperrors.NewValidationError("subscription ID is required")
	}
	if cmd.InvoiceID == "" {
		return nil, apperrors.NewValidationError("invoice ID is required")
	}

	var (
		result HandlePaymentFailureResult
		sub    *subscription.Subscription
	)

	err := uc.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		var err error
		sub, err = uc.subscriptionRepo.GetByID(txCtx, cmd.SubscriptionID)
		if err != nil {
			return err
		}

		open, err := uc.failureRepo.GetOpenBySubscriptionID(txCtx, cmd.SubscriptionID)
		if err != nil {
			return err
		}
		if open != nil && open.InvoiceID() == cmd.InvoiceID {
			result.FailureID = open.ID()
			if open.NextRetryAt() != nil {
				result.NextRetryAt = *open.NextRetryAt()
			}
			result.AlreadyOpen = true
			return nil
		}

		failure, err := billing.NewPaymentFailure(cmd.SubscriptionID, cmd.InvoiceID, cmd.Reason, cmd.Code)
		if err != nil {
			return apperrors.NewValidationError("invalid payment failure", err.Error())
		}

		now := time.Now().UTC()
		steps := uc.schedule.Timetable(now)
		firstRetryAt := steps[0].RunAt
		if err := failure.ScheduleNextRetry(firstRetryAt); err != nil {
			return err
		}
		if err := uc.failureRepo.Create(txCtx, failure); err != nil {
			return err
		}

		graceDeadline := now.AddDate(0, 0, uc.gracePeriodDays)
		if err := sub.MarkPastDue(graceDeadline); err != nil {
			return apperrors.NewConflictError("subscription cannot enter past due", err.Error())
		}
		if err := uc.subscriptionRepo.Update(txCtx, sub); err != nil {
			return err
		}

		// The whole timetable is enqueued now so a lost or crashed executor
		// never strands the failure waiting on a chained follow-up. The
		// executor's attempt and status checks make redelivery harmless.
		for _, step := range steps {
			if err := uc.jobs.Enqueue(txCtx, appbilling.JobTypePaymentRetry, appbilling.PaymentRetryPayload{
				SubscriptionID: sub.ID(),
				FailureID:      failure.ID(),
				Attempt:        step.Attempt,
			}, step.RunAt); err != nil {
				return fmt.Errorf("failed to schedule retry %d: %w", step.Attempt, err)
			}
		}

		result.FailureID = failure.ID()
		result.NextRetryAt = firstRetryAt
		return nil
	})
	if err != nil {
		return nil, err
	}
	if result.AlreadyOpen {
		uc.logger.Infow("payment failure already open, skipping",
			"subscription_id", cmd.SubscriptionID,
			"invoice_id", cmd.InvoiceID,
		)
		return &result, nil
	}

	uc.publishEvents(sub, &result, cmd)
	uc.notify(ctx, sub, &result)

	uc.logger.Infow("payment failure recorded",
		"subscription_id", sub.ID(),
		"failure_id", result.FailureID,
		"invoice_id", cmd.InvoiceID,
		"next_retry_at", result.NextRetryAt,
	)
	return &result, nil
}

func (uc *HandlePaymentFailureUseCase) publishEvents(sub *subscription.Subscription, result *HandlePaymentFailureResult, cmd HandlePaymentFailureCommand) {
	evts := []events.DomainEvent{
		billing.NewPaymentFailureRecordedEvent(result.FailureID, sub.ID(), cmd.InvoiceID, cmd.Reason),
	}
	if sub.GracePeriodEndsAt() != nil {
		evts = append(evts, subscription.NewSubscriptionPastDueEvent(sub.ID(), sub.WorkspaceID(), *sub.GracePeriodEndsAt()))
	}
	if err := uc.eventPublisher.PublishAll(evts); err != nil {
		uc.logger.Warnw("failed to publish payment failure events", "error", err)
	}
}

func (uc *HandlePaymentFailureUseCase) notify(ctx context.Context, sub *subscription.Subscription, result *HandlePaymentFailureResult) {
	ws, err := uc.workspaceRepo.GetByID(ctx, sub.WorkspaceID())
	if err != nil {
		uc.logger.Errorw("failed to load workspace for failure notification",
			"workspace_id", sub.WorkspaceID(),
			"error", err,
		)
		return
	}

	data := map[string]any{
		"workspace_name": ws.Name(),
		"next_retry_at":  result.NextRetryAt,
		"grace_days":     sub.GraceDaysRemaining(time.Now().UTC()),
	}
	if err := uc.notifier.SendTemplatedEmail(ctx, ws.BillingEmail(), appbilling.TemplatePaymentFailed, data); err != nil {
		uc.logger.Errorw("failed to send payment failed email",
			"workspace_id", ws.ID(),
			"error", err,
		)
	}
	if err := uc.notifier.SendInAppNotification(ctx, ws.ID(), appbilling.TemplatePaymentFailed, data); err != nil {
		uc.logger.Warnw("failed to send in-app payment failed alert",
			"workspace_id", ws.ID(),
			"error", err,
		)
	}
}
