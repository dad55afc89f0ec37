package usecases

import (
	"context"
	"time"

	appbilling "github.com/lumahq/luma/internal/application/billing"
	"github.com/lumahq/luma/internal/application/billing/services"
	"github.com/lumahq/luma/internal/domain/billing"
	"github.com/lumahq/luma/internal/domain/shared/events"
	"github.com/lumahq/luma/internal/domain/subscription"
	vo "github.com/lumahq/luma/internal/domain/subscription/valueobjects"
	"github.com/lumahq/luma/internal/domain/workspace"
	"github.com/lumahq/luma/internal/shared/db"
	apperrors "github.com/lumahq/luma/internal/shared/errors"
	"github.com/lumahq/luma/internal/shared/logger"
)

// SuspendSubscriptionCommand suspends a subscription whose retries exhausted.
type SuspendSubscriptionCommand struct {
	SubscriptionID uint
	FailureID      uint
}

// SuspendSubscriptionResult reports the outcome.
type SuspendSubscriptionResult struct {
	AlreadySuspended bool
	OffersAttached   int
}

// SuspendSubscriptionUseCase moves an exhausted past-due subscription to
// suspended: features are revoked, data is retained, durable retention offers
// are attached, and the win-back email sequence is scheduled. The open payment
// failure stays unresolved; its retry lifecycle simply ends.
type SuspendSubscriptionUseCase struct {
	subscriptionRepo subscription.SubscriptionRepository
	planRepo         subscription.PlanRepository
	failureRepo      billing.PaymentFailureRepository
	workspaceRepo    workspace.WorkspaceRepository
	offerGenerator   *services.OfferGenerator
	features         appbilling.FeatureToggler
	jobs             appbilling.JobScheduler
	notifier         appbilling.NotificationDispatcher
	eventPublisher   events.EventPublisher
	txManager        *db.TransactionManager
	winbackOffsets   []int
	logger           logger.Interface
}

func NewSuspendSubscriptionUseCase(
	subscriptionRepo subscription.SubscriptionRepository,
	planRepo subscription.PlanRepository,
	failureRepo billing.PaymentFailureRepository,
	workspaceRepo workspace.WorkspaceRepository,
	offerGenerator *services.OfferGenerator,
	features appbilling.FeatureToggler,
	jobs appbilling.JobScheduler,
	notifier appbilling.NotificationDispatcher,
	eventPublisher events.EventPublisher,
	txManager *db.TransactionManager,
	winbackOffsets []int,
	logger logger.Interface,
) *SuspendSubscriptionUseCase {
	return &SuspendSubscriptionUseCase{
		subscriptionRepo: subscriptionRepo,
		planRepo:         planRepo,
		failureRepo:      failureRepo,
		workspaceRepo:    workspaceRepo,
		offerGenerator:   offerGenerator,
		features:         features,
		jobs:             jobs,
		notifier:         notifier,
		eventPublisher:   eventPublisher,
		txManager:        txManager,
		winbackOffsets:   winbackOffsets,
		logger:           logger,
	}
}

func (uc *SuspendSubscriptionUseCase) Execute(ctx context.Context, cmd SuspendSubscriptionCommand) (*SuspendSubscriptionResult, error) {
	if cmd.SubscriptionID == 0 {
		return nil, apperrors.NewValidationError("subscription ID is required")
	}

	var (
		result SuspendSubscriptionResult
		sub    *subscription.Subscription
	)

	err := uc.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		var err error
		sub, err = uc.subscriptionRepo.GetByID(txCtx, cmd.SubscriptionID)
		if err != nil {
			return err
		}
		if sub.Status() == vo.StatusSuspended {
			result.AlreadySuspended = true
			return nil
		}

		if err := sub.Suspend(); err != nil {
			return apperrors.NewConflictError("subscription cannot be suspended", err.Error())
		}

		plan, err := uc.planRepo.GetByID(txCtx, sub.PlanID())
		if err != nil {
			uc.logger.Warnw("plan lookup failed during suspension, offers limited",
				"subscription_id", sub.ID(),
				"plan_id", sub.PlanID(),
				"error", err,
			)
			plan = nil
		}
		offers := uc.offerGenerator.BuildSuspensionOffers(txCtx, plan)
		if err := sub.AttachPendingOffers(offers); err != nil {
			return err
		}
		result.OffersAttached = len(offers)

		if err := uc.subscriptionRepo.Update(txCtx, sub); err != nil {
			return err
		}

		// The failure record is left unresolved; only the pending retry
		// pointer is cleared so nothing looks scheduled.
		if cmd.FailureID != 0 {
			failure, err := uc.failureRepo.GetByID(txCtx, cmd.FailureID)
			if err == nil && !failure.IsResolved() && failure.NextRetryAt() != nil {
				failure.ClearNextRetry()
				if err := uc.failureRepo.Update(txCtx, failure); err != nil {
					return err
				}
			}
		}

		if err := uc.features.DisableAllFeatures(txCtx, sub.WorkspaceID()); err != nil {
			return err
		}

		now := time.Now().UTC()
		for i, offset := range uc.winbackOffsets {
			payload := appbilling.WinbackEmailPayload{
				SubscriptionID: sub.ID(),
				Stage:          i + 1,
				Campaign:       appbilling.CampaignSuspension,
			}
			if err := uc.jobs.Enqueue(txCtx, appbilling.JobTypeWinbackEmail, payload, now.AddDate(0, 0, offset)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if result.AlreadySuspended {
		uc.logger.Infow("subscription already suspended, skipping", "subscription_id", cmd.SubscriptionID)
		return &result, nil
	}

	if err := uc.eventPublisher.Publish(subscription.NewSubscriptionSuspendedEvent(sub.ID(), sub.WorkspaceID())); err != nil {
		uc.logger.Warnw("failed to publish suspension event", "error", err)
	}
	uc.notify(ctx, sub, result.OffersAttached)

	uc.logger.Infow("subscription suspended",
		"subscription_id", sub.ID(),
		"workspace_id", sub.WorkspaceID(),
		"offers_attached", result.OffersAttached,
	)
	return &result, nil
}

func (uc *SuspendSubscriptionUseCase) notify(ctx context.Context, sub *subscription.Subscription, offersAttached int) {
	ws, err := uc.workspaceRepo.GetByID(ctx, sub.WorkspaceID())
	if err != nil {
		uc.logger.Errorw("failed to load workspace for suspension notification",
			"workspace_id", sub.WorkspaceID(),
			"error", err,
		)
		return
	}

	data := map[string]any{
		"workspace_name": ws.Name(),
		"offers_count":   offersAttached,
	}
	if err := uc.notifier.SendTemplatedEmail(ctx, ws.BillingEmail(), appbilling.TemplateSuspended, data); err != nil {
		uc.logger.Errorw("failed to send suspension email", "workspace_id", ws.ID(), "error", err)
	}
	if err := uc.notifier.SendInAppNotification(ctx, ws.ID(), appbilling.TemplateSuspended, data); err != nil {
		uc.logger.Warnw("failed to send in-app suspension alert", "workspace_id", ws.ID(), "error", err)
	}
}
