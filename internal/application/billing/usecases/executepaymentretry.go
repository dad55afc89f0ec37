package usecases

import (
	"context"
	"fmt"
	"time"

	appbilling "github.com/lumahq/luma/internal/application/billing"
	"github.com/lumahq/luma/internal/application/billing/services"
	"github.com/lumahq/luma/internal/domain/billing"
	bvo "github.com/lumahq/luma/internal/domain/billing/valueobjects"
	"github.com/lumahq/luma/internal/domain/shared/events"
	"github.com/lumahq/luma/internal/domain/subscription"
	vo "github.com/lumahq/luma/internal/domain/subscription/valueobjects"
	"github.com/lumahq/luma/internal/domain/workspace"
	"github.com/lumahq/luma/internal/shared/db"
	apperrors "github.com/lumahq/luma/internal/shared/errors"
	"github.com/lumahq/luma/internal/shared/logger"
)

// ExecutePaymentRetryCommand runs one scheduled retry attempt.
type ExecutePaymentRetryCommand struct {
	SubscriptionID uint
	FailureID      uint
	Attempt        int
}

// ExecutePaymentRetryResult reports what the attempt did.
type ExecutePaymentRetryResult struct {
	Skipped     bool
	Recovered   bool
	Exhausted   bool
	NextRetryAt *time.Time
}

// ExecutePaymentRetryUseCase charges the outstanding invoice once. On success
// the failure resolves and the subscription returns to active. On decline the
// next-retry timestamp advances, or the subscription is suspended when the
// timetable is exhausted. A gateway error is a decline like any other.
// Redelivered or stale jobs are skipped; the attempt number carried in the
// job is the idempotency key.
type ExecutePaymentRetryUseCase struct {
	subscriptionRepo subscription.SubscriptionRepository
	failureRepo      billing.PaymentFailureRepository
	workspaceRepo    workspace.WorkspaceRepository
	schedule         *services.RetrySchedule
	gateway          appbilling.GatewayClient
	notifier         appbilling.NotificationDispatcher
	eventPublisher   events.EventPublisher
	txManager        *db.TransactionManager
	suspendUseCase   *SuspendSubscriptionUseCase
	logger           logger.Interface
}

func NewExecutePaymentRetryUseCase(
	subscriptionRepo subscription.SubscriptionRepository,
	failureRepo billing.PaymentFailureRepository,
	workspaceRepo workspace.WorkspaceRepository,
	schedule *services.RetrySchedule,
	gateway appbilling.GatewayClient,
	notifier appbilling.NotificationDispatcher,
	eventPublisher events.EventPublisher,
	txManager *db.TransactionManager,
	suspendUseCase *SuspendSubscriptionUseCase,
	logger logger.Interface,
) *ExecutePaymentRetryUseCase {
	return &ExecutePaymentRetryUseCase{
		subscriptionRepo: subscriptionRepo,
		failureRepo:      failureRepo,
		workspaceRepo:    workspaceRepo,
		schedule:         schedule,
		gateway:          gateway,
		notifier:         notifier,
		eventPublisher:   eventPublisher,
		txManager:        txManager,
		suspendUseCase:   suspendUseCase,
		logger:           logger,
	}
}

func (uc *ExecutePaymentRetryUseCase) Execute(ctx context.Context, cmd ExecutePaymentRetryCommand) (*ExecutePaymentRetryResult, error) {
	if cmd.FailureID == 0 {
		return nil, apperrors.NewValidationError("failure ID is required")
	}
	if cmd.Attempt < 1 || cmd.Attempt > uc.schedule.TotalAttempts() {
		return nil, apperrors.NewValidationError(fmt.Sprintf("attempt %d out of range", cmd.Attempt))
	}

	failure, err := uc.failureRepo.GetByID(ctx, cmd.FailureID)
	if err != nil {
		return nil, err
	}
	sub, err := uc.subscriptionRepo.GetByID(ctx, cmd.SubscriptionID)
	if err != nil {
		return nil, err
	}

	if skip, why := uc.shouldSkip(failure, sub, cmd); skip {
		uc.logger.Infow("skipping payment retry",
			"failure_id", failure.ID(),
			"subscription_id", sub.ID(),
			"attempt", cmd.Attempt,
			"reason", why,
		)
		return &ExecutePaymentRetryResult{Skipped: true}, nil
	}

	// The gateway call stays outside the transaction; a charge must never
	// hold row locks on a remote round trip. A gateway error counts as a
	// declined attempt so the remaining timetable keeps running.
	paid, err := uc.gateway.RetryPayment(ctx, failure.InvoiceID())
	if err != nil {
		uc.logger.Warnw("payment gateway retry errored, recording decline",
			"failure_id", failure.ID(),
			"subscription_id", sub.ID(),
			"attempt", cmd.Attempt,
			"error", err,
		)
		paid = false
	}

	if paid {
		return uc.recordRecovery(ctx, failure, sub, cmd.Attempt)
	}
	return uc.recordDecline(ctx, failure, sub, cmd.Attempt)
}

func (uc *ExecutePaymentRetryUseCase) shouldSkip(failure *billing.PaymentFailure, sub *subscription.Subscription, cmd ExecutePaymentRetryCommand) (bool, string) {
	if failure.IsResolved() {
		return true, "failure already resolved"
	}
	if sub.Status() != vo.StatusPastDue {
		return true, fmt.Sprintf("subscription is %s, not past_due", sub.Status())
	}
	if cmd.Attempt <= failure.AttemptCount() {
		return true, "attempt already executed"
	}
	return false, ""
}

func (uc *ExecutePaymentRetryUseCase) recordRecovery(ctx context.Context, failure *billing.PaymentFailure, sub *subscription.Subscription, attempt int) (*ExecutePaymentRetryResult, error) {
	err := uc.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		if err := failure.RecordAttempt(); err != nil {
			return err
		}
		if err := failure.Resolve(bvo.ResolutionRetrySuccess); err != nil {
			return err
		}
		if err := uc.failureRepo.Update(txCtx, failure); err != nil {
			return err
		}

		if err := sub.RecordPaymentRecovery(); err != nil {
			return apperrors.NewConflictError("subscription cannot recover", err.Error())
		}
		return uc.subscriptionRepo.Update(txCtx, sub)
	})
	if err != nil {
		return nil, err
	}

	evts := []events.DomainEvent{
		billing.NewPaymentFailureResolvedEvent(failure.ID(), sub.ID(), bvo.ResolutionRetrySuccess),
		subscription.NewPaymentRecoveredEvent(sub.ID(), sub.WorkspaceID(), attempt),
	}
	if err := uc.eventPublisher.PublishAll(evts); err != nil {
		uc.logger.Warnw("failed to publish recovery events", "error", err)
	}

	uc.sendEmail(ctx, sub, appbilling.TemplateRetrySucceeded, map[string]any{
		"attempt": attempt,
	})

	uc.logger.Infow("payment recovered",
		"subscription_id", sub.ID(),
		"failure_id", failure.ID(),
		"attempt", attempt,
	)
	return &ExecutePaymentRetryResult{Recovered: true}, nil
}

func (uc *ExecutePaymentRetryUseCase) recordDecline(ctx context.Context, failure *billing.PaymentFailure, sub *subscription.Subscription, attempt int) (*ExecutePaymentRetryResult, error) {
	exhausted := attempt >= uc.schedule.TotalAttempts()

	var nextRetryAt *time.Time
	err := uc.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		if err := failure.RecordAttempt(); err != nil {
			return err
		}
		sub.IncrementRetryCount()

		// The full timetable was enqueued at intake; only the next-retry
		// bookkeeping advances here.
		if exhausted {
			failure.ClearNextRetry()
		} else {
			next, err := uc.schedule.StepRunAt(failure.CreatedAt(), attempt+1)
			if err != nil {
				return apperrors.NewInternalError("failed to compute next retry", err.Error())
			}
			if err := failure.ScheduleNextRetry(next); err != nil {
				return err
			}
			nextRetryAt = &next
		}

		if err := uc.failureRepo.Update(txCtx, failure); err != nil {
			return err
		}
		return uc.subscriptionRepo.Update(txCtx, sub)
	})
	if err != nil {
		return nil, err
	}

	if exhausted {
		if _, err := uc.suspendUseCase.Execute(ctx, SuspendSubscriptionCommand{
			SubscriptionID: sub.ID(),
			FailureID:      failure.ID(),
		}); err != nil {
			return nil, err
		}
		return &ExecutePaymentRetryResult{Exhausted: true}, nil
	}

	graceDays := sub.GraceDaysRemaining(time.Now().UTC())
	tier := appbilling.UrgencyForGraceDays(graceDays)
	uc.sendEmail(ctx, sub, appbilling.RetryFailedTemplate(tier), map[string]any{
		"attempt":       attempt,
		"grace_days":    graceDays,
		"next_retry_at": nextRetryAt,
	})

	uc.logger.Infow("payment retry declined",
		"subscription_id", sub.ID(),
		"failure_id", failure.ID(),
		"attempt", attempt,
		"grace_days", graceDays,
		"urgency", tier,
	)
	return &ExecutePaymentRetryResult{NextRetryAt: nextRetryAt}, nil
}

func (uc *ExecutePaymentRetryUseCase) sendEmail(ctx context.Context, sub *subscription.Subscription, templateKey string, data map[string]any) {
	ws, err := uc.workspaceRepo.GetByID(ctx, sub.WorkspaceID())
	if err != nil {
		uc.logger.Errorw("failed to load workspace for retry notification",
			"workspace_id", sub.WorkspaceID(),
			"error", err,
		)
		return
	}
	data["workspace_name"] = ws.Name()
	if err := uc.notifier.SendTemplatedEmail(ctx, ws.BillingEmail(), templateKey, data); err != nil {
		uc.logger.Errorw("failed to send retry email",
			"workspace_id", ws.ID(),
			"template", templateKey,
			"error", err,
		)
	}
}
