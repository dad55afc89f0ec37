package usecases

import (
	"context"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/lumahq/luma/internal/application/billing/services"
	"github.com/lumahq/luma/internal/domain/billing"
	bvo "github.com/lumahq/luma/internal/domain/billing/valueobjects"
	"github.com/lumahq/luma/internal/domain/shared/events"
	"github.com/lumahq/luma/internal/domain/subscription"
	"github.com/lumahq/luma/internal/shared/db"
	apperrors "github.com/lumahq/luma/internal/shared/errors"
	"github.com/lumahq/luma/internal/shared/logger"
)

const maxFeedbackLength = 2000

// RequestCancellationCommand opens the cancellation-save flow.
type RequestCancellationCommand struct {
	SubscriptionID uint
	Reason         string
	Feedback       string
}

// RequestCancellationResult carries the open attempt and the offers to show.
type RequestCancellationResult struct {
	AttemptID uint
	Reason    bvo.CancellationReason
	Offers    []bvo.RetentionOffer
}

// RequestCancellationUseCase records a cancellation request and generates
// reason-specific retention offers. Nothing is cancelled yet; the subscription
// keeps its current status until the user accepts an offer or confirms.
// Calling it again while an attempt is open returns the open attempt.
type RequestCancellationUseCase struct {
	subscriptionRepo subscription.SubscriptionRepository
	planRepo         subscription.PlanRepository
	attemptRepo      billing.RetentionAttemptRepository
	offerGenerator   *services.OfferGenerator
	eventPublisher   events.EventPublisher
	txManager        *db.TransactionManager
	sanitizer        *bluemonday.Policy
	logger           logger.Interface
}

func NewRequestCancellationUseCase(
	subscriptionRepo subscription.SubscriptionRepository,
	planRepo subscription.PlanRepository,
	attemptRepo billing.RetentionAttemptRepository,
	offerGenerator *services.OfferGenerator,
	eventPublisher events.EventPublisher,
	txManager *db.TransactionManager,
	logger logger.Interface,
) *RequestCancellationUseCase {
	return &RequestCancellationUseCase{
		subscriptionRepo: subscriptionRepo,
		planRepo:         planRepo,
		attemptRepo:      attemptRepo,
		offerGenerator:   offerGenerator,
		eventPublisher:   eventPublisher,
		txManager:        txManager,
		sanitizer:        bluemonday.StrictPolicy(),
		logger:           logger,
	}
}

func (uc *RequestCancellationUseCase) Execute(ctx context.Context, cmd RequestCancellationCommand) (*RequestCancellationResult, error) {
	if cmd.SubscriptionID == 0 {
		return nil, apperrors.NewValidationError("subscription ID is required")
	}
	if cmd.Reason == "" {
		return nil, apperrors.NewValidationError("cancellation reason is required")
	}

	reason := bvo.NormalizeReason(cmd.Reason)
	feedback := strings.TrimSpace(uc.sanitizer.Sanitize(cmd.Feedback))
	if len(feedback) > maxFeedbackLength {
		feedback = feedback[:maxFeedbackLength]
	}

	var result RequestCancellationResult
	err := uc.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		sub, err := uc.subscriptionRepo.GetByID(txCtx, cmd.SubscriptionID)
		if err != nil {
			return err
		}
		if sub.Status().IsTerminal() {
			return apperrors.NewConflictError("subscription is already " + sub.Status().String())
		}

		open, err := uc.attemptRepo.GetOpenBySubscriptionID(txCtx, sub.ID())
		if err != nil {
			return err
		}
		if open != nil {
			result.AttemptID = open.ID()
			result.Reason = open.Reason()
			result.Offers = open.OfferedOffers()
			return nil
		}

		attempt, err := billing.NewRetentionAttempt(sub.ID(), reason, feedback)
		if err != nil {
			return apperrors.NewValidationError("invalid retention attempt", err.Error())
		}

		plan, err := uc.planRepo.GetByID(txCtx, sub.PlanID())
		if err != nil {
			return err
		}
		offers, err := uc.offerGenerator.GenerateOffers(txCtx, plan, reason)
		if err != nil {
			return apperrors.NewInternalError("failed to generate offers", err.Error())
		}
		if err := attempt.PresentOffers(offers); err != nil {
			return err
		}
		if err := uc.attemptRepo.Create(txCtx, attempt); err != nil {
			return err
		}

		result.AttemptID = attempt.ID()
		result.Reason = reason
		result.Offers = offers
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := uc.eventPublisher.Publish(billing.NewCancellationRequestedEvent(result.AttemptID, cmd.SubscriptionID, result.Reason)); err != nil {
		uc.logger.Warnw("failed to publish cancellation requested event", "error", err)
	}

	uc.logger.Infow("cancellation requested",
		"subscription_id", cmd.SubscriptionID,
		"attempt_id", result.AttemptID,
		"reason", result.Reason,
		"offers", len(result.Offers),
	)
	return &result, nil
}
