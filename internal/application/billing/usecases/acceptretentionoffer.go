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

const prioritySupportMonths = 3

// AcceptRetentionOfferCommand accepts one presented offer.
type AcceptRetentionOfferCommand struct {
	SubscriptionID uint
	OfferType      string
}

// AcceptRetentionOfferResult reports what accepting the offer did.
type AcceptRetentionOfferResult struct {
	AttemptID   uint
	Offer       bvo.RetentionOffer
	Reactivated bool
}

// AcceptRetentionOfferUseCase applies an accepted offer. Offers come either
// from an open cancellation-save attempt or from the durable set attached at
// suspension; accepting a durable offer also reactivates the subscription and
// restores feature access.
type AcceptRetentionOfferUseCase struct {
	subscriptionRepo subscription.SubscriptionRepository
	attemptRepo      billing.RetentionAttemptRepository
	failureRepo      billing.PaymentFailureRepository
	workspaceRepo    workspace.WorkspaceRepository
	features         appbilling.FeatureToggler
	jobs             appbilling.JobScheduler
	notifier         appbilling.NotificationDispatcher
	eventPublisher   events.EventPublisher
	txManager        *db.TransactionManager
	logger           logger.Interface
}

func NewAcceptRetentionOfferUseCase(
	subscriptionRepo subscription.SubscriptionRepository,
	attemptRepo billing.RetentionAttemptRepository,
	failureRepo billing.PaymentFailureRepository,
	workspaceRepo workspace.WorkspaceRepository,
	features appbilling.FeatureToggler,
	jobs appbilling.JobScheduler,
	notifier appbilling.NotificationDispatcher,
	eventPublisher events.EventPublisher,
	txManager *db.TransactionManager,
	logger logger.Interface,
) *AcceptRetentionOfferUseCase {
	return &AcceptRetentionOfferUseCase{
		subscriptionRepo: subscriptionRepo,
		attemptRepo:      attemptRepo,
		failureRepo:      failureRepo,
		workspaceRepo:    workspaceRepo,
		features:         features,
		jobs:             jobs,
		notifier:         notifier,
		eventPublisher:   eventPublisher,
		txManager:        txManager,
		logger:           logger,
	}
}

func (uc *AcceptRetentionOfferUseCase) Execute(ctx context.Context, cmd AcceptRetentionOfferCommand) (*AcceptRetentionOfferResult, error) {
	if cmd.SubscriptionID == 0 {
		return nil, apperrors.NewValidationError("subscription ID is required")
	}
	offerType := bvo.OfferType(cmd.OfferType)
	if !offerType.IsValid() {
		return nil, apperrors.NewValidationError("unknown offer type: " + cmd.OfferType)
	}

	var (
		result AcceptRetentionOfferResult
		sub    *subscription.Subscription
	)

	err := uc.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		var err error
		sub, err = uc.subscriptionRepo.GetByID(txCtx, cmd.SubscriptionID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		attempt, offer, err := uc.findOffer(txCtx, sub, offerType, now)
		if err != nil {
			return err
		}
		result.Offer = *offer

		// A suspended subscription comes back to life before the offer is
		// applied; pause and plan changes require a live subscription.
		if sub.Status() == svo.StatusSuspended {
			if err := sub.Reactivate(); err != nil {
				return apperrors.NewConflictError("subscription cannot reactivate", err.Error())
			}
			result.Reactivated = true
		}

		if err := uc.applyOffer(txCtx, sub, *offer, now); err != nil {
			return err
		}
		sub.ClearPendingOffers()
		if err := uc.subscriptionRepo.Update(txCtx, sub); err != nil {
			return err
		}

		if attempt != nil {
			if err := attempt.AcceptOffer(*offer); err != nil {
				return apperrors.NewConflictError("retention attempt already resolved", err.Error())
			}
			if err := uc.attemptRepo.Update(txCtx, attempt); err != nil {
				return err
			}
			result.AttemptID = attempt.ID()
		}

		if result.Reactivated {
			if err := uc.resolveOpenFailure(txCtx, sub.ID()); err != nil {
				return err
			}
			if err := uc.features.EnableAllFeatures(txCtx, sub.WorkspaceID()); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.publishEvents(sub, &result)
	uc.notify(ctx, sub, &result)

	uc.logger.Infow("retention offer accepted",
		"subscription_id", sub.ID(),
		"offer_type", result.Offer.Type,
		"reactivated", result.Reactivated,
	)
	return &result, nil
}

// findOffer looks in the open cancellation-save attempt first, then in the
// durable pending offers.
func (uc *AcceptRetentionOfferUseCase) findOffer(ctx context.Context, sub *subscription.Subscription, offerType bvo.OfferType, now time.Time) (*billing.RetentionAttempt, *bvo.RetentionOffer, error) {
	attempt, err := uc.attemptRepo.GetOpenBySubscriptionID(ctx, sub.ID())
	if err != nil {
		return nil, nil, err
	}
	if attempt != nil {
		for _, o := range attempt.OfferedOffers() {
			if o.Type != offerType {
				continue
			}
			if o.ExpiresAt != nil && !o.ExpiresAt.After(now) {
				return nil, nil, apperrors.NewConflictError("offer has expired")
			}
			offer := o
			return attempt, &offer, nil
		}
	}

	if pending := sub.FindPendingOffer(offerType, now); pending != nil {
		offer := *pending
		return attempt, &offer, nil
	}
	return nil, nil, apperrors.NewNotFoundError("no such offer is available")
}

func (uc *AcceptRetentionOfferUseCase) applyOffer(ctx context.Context, sub *subscription.Subscription, offer bvo.RetentionOffer, now time.Time) error {
	switch offer.Type {
	case bvo.OfferDiscount, bvo.OfferAnnualDiscount:
		expiry := now.AddDate(0, offer.DurationMonths, 0)
		m, err := svo.NewDiscountModifier(offer.DiscountPercentage, offer.DurationMonths, expiry)
		if err != nil {
			return apperrors.NewInternalError("invalid discount offer", err.Error())
		}
		if offer.Type == bvo.OfferAnnualDiscount {
			m.Kind = svo.ModifierAnnualDiscount
		}
		return sub.AddModifier(m)

	case bvo.OfferDowngrade:
		return sub.ChangePlan(offer.TargetPlanID)

	case bvo.OfferPause:
		resumeAt := now.AddDate(0, 0, offer.PauseDays)
		if err := sub.Pause(resumeAt); err != nil {
			return apperrors.NewConflictError("subscription cannot pause", err.Error())
		}
		return uc.jobs.Enqueue(ctx, appbilling.JobTypeSubscriptionResume, appbilling.SubscriptionResumePayload{
			SubscriptionID: sub.ID(),
		}, resumeAt)

	case bvo.OfferPrioritySupport:
		m := svo.NewPrioritySupportModifier("senior", now.AddDate(0, prioritySupportMonths, 0))
		return sub.AddModifier(m)

	default:
		// Service-level offers only record the concession on the attempt.
		return nil
	}
}

func (uc *AcceptRetentionOfferUseCase) resolveOpenFailure(ctx context.Context, subscriptionID uint) error {
	failure, err := uc.failureRepo.GetOpenBySubscriptionID(ctx, subscriptionID)
	if err != nil || failure == nil {
		return err
	}
	if err := failure.Resolve(bvo.ResolutionReactivated); err != nil {
		return err
	}
	return uc.failureRepo.Update(ctx, failure)
}

func (uc *AcceptRetentionOfferUseCase) publishEvents(sub *subscription.Subscription, result *AcceptRetentionOfferResult) {
	evts := []events.DomainEvent{
		billing.NewRetentionOfferAcceptedEvent(result.AttemptID, sub.ID(), result.Offer.Type),
	}
	if result.Reactivated {
		evts = append(evts, subscription.NewSubscriptionReactivatedEvent(sub.ID(), sub.WorkspaceID()))
	}
	if err := uc.eventPublisher.PublishAll(evts); err != nil {
		uc.logger.Warnw("failed to publish offer accepted events", "error", err)
	}
}

func (uc *AcceptRetentionOfferUseCase) notify(ctx context.Context, sub *subscription.Subscription, result *AcceptRetentionOfferResult) {
	ws, err := uc.workspaceRepo.GetByID(ctx, sub.WorkspaceID())
	if err != nil {
		uc.logger.Errorw("failed to load workspace for offer notification",
			"workspace_id", sub.WorkspaceID(),
			"error", err,
		)
		return
	}
	data := map[string]any{
		"workspace_name": ws.Name(),
		"offer_title":    result.Offer.Title,
		"offer_type":     string(result.Offer.Type),
	}
	if err := uc.notifier.SendTemplatedEmail(ctx, ws.BillingEmail(), appbilling.TemplateRetentionOfferAccepted, data); err != nil {
		uc.logger.Errorw("failed to send offer accepted email", "workspace_id", ws.ID(), "error", err)
	}
}
