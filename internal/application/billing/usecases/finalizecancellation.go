package usecases

import (
	"context"
	"time"

	appbilling "github.com/lumahq/luma/internal/application/billing"
	"github.com/lumahq/luma/internal/domain/billing"
	bvo "github.com/lumahq/luma/internal/domain/billing/valueobjects"
	"github.com/lumahq/luma/internal/domain/shared/events"
	"github.com/lumahq/luma/internal/domain/subscription"
	svo "github.com/lumahq/luma/internal/domain/subscription/valueobjects"
	"github.com/lumahq/luma/internal/domain/workspace"
	"github.com/lumahq/luma/internal/shared/db"
	apperrors "github.com/lumahq/luma/internal/shared/errors"
	"github.com/lumahq/luma/internal/shared/logger"
)

// FinalizeCancellationCommand confirms a cancellation after the save flow.
type FinalizeCancellationCommand struct {
	SubscriptionID uint
	Reason         string
	Feedback       string
	AtPeriodEnd    bool
}

// FinalizeCancellationResult reports the outcome.
type FinalizeCancellationResult struct {
	AlreadyCancelled bool
	EffectiveAt      time.Time
}

// FinalizeCancellationUseCase closes the save flow as declined and cancels
// the subscription. With AtPeriodEnd access continues until the period
// closes; otherwise features are revoked immediately. Either way the
// cancellation win-back sequence is scheduled and data is retained.
type FinalizeCancellationUseCase struct {
	subscriptionRepo subscription.SubscriptionRepository
	attemptRepo      billing.RetentionAttemptRepository
	failureRepo      billing.PaymentFailureRepository
	workspaceRepo    workspace.WorkspaceRepository
	features         appbilling.FeatureToggler
	jobs             appbilling.JobScheduler
	notifier         appbilling.NotificationDispatcher
	eventPublisher   events.EventPublisher
	txManager        *db.TransactionManager
	winbackOffsets   []int
	logger           logger.Interface
}

func NewFinalizeCancellationUseCase(
	subscriptionRepo subscription.SubscriptionRepository,
	attemptRepo billing.RetentionAttemptRepository,
	failureRepo billing.PaymentFailureRepository,
	workspaceRepo workspace.WorkspaceRepository,
	features appbilling.FeatureToggler,
	jobs appbilling.JobScheduler,
	notifier appbilling.NotificationDispatcher,
	eventPublisher events.EventPublisher,
	txManager *db.TransactionManager,
	winbackOffsets []int,
	logger logger.Interface,
) *FinalizeCancellationUseCase {
	return &FinalizeCancellationUseCase{
		subscriptionRepo: subscriptionRepo,
		attemptRepo:      attemptRepo,
		failureRepo:      failureRepo,
		workspaceRepo:    workspaceRepo,
		features:         features,
		jobs:             jobs,
		notifier:         notifier,
		eventPublisher:   eventPublisher,
		txManager:        txManager,
		winbackOffsets:   winbackOffsets,
		logger:           logger,
	}
}

func (uc *FinalizeCancellationUseCase) Execute(ctx context.Context, cmd FinalizeCancellationCommand) (*FinalizeCancellationResult, error) {
	if cmd.SubscriptionID == 0 {
		return nil, apperrors.NewValidationError("subscription ID is required")
	}

	var (
		result FinalizeCancellationResult
		sub    *subscription.Subscription
		reason string
	)

	err := uc.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		var err error
		sub, err = uc.subscriptionRepo.GetByID(txCtx, cmd.SubscriptionID)
		if err != nil {
			return err
		}
		if sub.Status() == svo.StatusCancelled {
			result.AlreadyCancelled = true
			return nil
		}

		// The open attempt, if any, resolves as a failed save and supplies
		// the reason when the command leaves it blank.
		reason = cmd.Reason
		var feedback *string
		if cmd.Feedback != "" {
			feedback = &cmd.Feedback
		}
		attempt, err := uc.attemptRepo.GetOpenBySubscriptionID(txCtx, sub.ID())
		if err != nil {
			return err
		}
		if attempt != nil {
			if reason == "" {
				reason = string(attempt.Reason())
			}
			if feedback == nil && attempt.Feedback() != "" {
				fb := attempt.Feedback()
				feedback = &fb
			}
			if err := attempt.MarkDeclined(); err != nil {
				return err
			}
			if err := uc.attemptRepo.Update(txCtx, attempt); err != nil {
				return err
			}
		}
		if reason == "" {
			reason = string(bvo.ReasonOther)
		}

		if err := sub.Cancel(reason, feedback, cmd.AtPeriodEnd); err != nil {
			return apperrors.NewConflictError("subscription cannot be cancelled", err.Error())
		}
		sub.ClearPendingOffers()
		if err := uc.subscriptionRepo.Update(txCtx, sub); err != nil {
			return err
		}

		if err := uc.resolveOpenFailure(txCtx, sub.ID()); err != nil {
			return err
		}

		now := time.Now().UTC()
		if cmd.AtPeriodEnd {
			result.EffectiveAt = sub.CurrentPeriodEnd()
		} else {
			result.EffectiveAt = now
			if err := uc.features.DisableAllFeatures(txCtx, sub.WorkspaceID()); err != nil {
				return err
			}
		}

		for i, offset := range uc.winbackOffsets {
			payload := appbilling.WinbackEmailPayload{
				SubscriptionID: sub.ID(),
				Stage:          i + 1,
				Campaign:       appbilling.CampaignCancellation,
			}
			if err := uc.jobs.Enqueue(txCtx, appbilling.JobTypeWinbackEmail, payload, result.EffectiveAt.AddDate(0, 0, offset)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if result.AlreadyCancelled {
		uc.logger.Infow("subscription already cancelled, skipping", "subscription_id", cmd.SubscriptionID)
		return &result, nil
	}

	if err := uc.eventPublisher.Publish(subscription.NewSubscriptionCancelledEvent(sub.ID(), sub.WorkspaceID(), reason, cmd.AtPeriodEnd)); err != nil {
		uc.logger.Warnw("failed to publish cancellation event", "error", err)
	}
	uc.notify(ctx, sub, &result)

	uc.logger.Infow("subscription cancelled",
		"subscription_id", sub.ID(),
		"reason", reason,
		"at_period_end", cmd.AtPeriodEnd,
		"effective_at", result.EffectiveAt,
	)
	return &result, nil
}

func (uc *FinalizeCancellationUseCase) resolveOpenFailure(ctx context.Context, subscriptionID uint) error {
	failure, err := uc.failureRepo.GetOpenBySubscriptionID(ctx, subscriptionID)
	if err != nil || failure == nil {
		return err
	}
	if err := failure.Resolve(bvo.ResolutionCancelled); err != nil {
		return err
	}
	return uc.failureRepo.Update(ctx, failure)
}

func (uc *FinalizeCancellationUseCase) notify(ctx context.Context, sub *subscription.Subscription, result *FinalizeCancellationResult) {
	ws, err := uc.workspaceRepo.GetByID(ctx, sub.WorkspaceID())
	if err != nil {
		uc.logger.Errorw("failed to load workspace for cancellation notification",
			"workspace_id", sub.WorkspaceID(),
			"error", err,
		)
		return
	}
	data := map[string]any{
		"workspace_name": ws.Name(),
		"effective_at":   result.EffectiveAt,
	}
	if err := uc.notifier.SendTemplatedEmail(ctx, ws.BillingEmail(), appbilling.TemplateCancelled, data); err != nil {
		uc.logger.Errorw("failed to send cancellation email", "workspace_id", ws.ID(), "error", err)
	}
}
