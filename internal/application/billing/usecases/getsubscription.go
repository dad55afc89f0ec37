package usecases

import (
	"context"
	"time"

	"github.com/lumahq/luma/internal/domain/billing"
	bvo "github.com/lumahq/luma/internal/domain/billing/valueobjects"
	"github.com/lumahq/luma/internal/domain/subscription"
	svo "github.com/lumahq/luma/internal/domain/subscription/valueobjects"
	"github.com/lumahq/luma/internal/shared/logger"
)

// GetSubscriptionCommand looks a subscription up by its public SID.
type GetSubscriptionCommand struct {
	SID string
}

// SubscriptionView is the read model returned to the interface layer.
type SubscriptionView struct {
	SID                string               `json:"sid"`
	Status             string               `json:"status"`
	PlanCode           string               `json:"plan_code"`
	PlanName           string               `json:"plan_name"`
	CurrentPeriodStart time.Time            `json:"current_period_start"`
	CurrentPeriodEnd   time.Time            `json:"current_period_end"`
	GracePeriodEndsAt  *time.Time           `json:"grace_period_ends_at,omitempty"`
	GraceDaysRemaining int                  `json:"grace_days_remaining"`
	RetryCount         int                  `json:"retry_count"`
	CancelAtPeriodEnd  bool                 `json:"cancel_at_period_end"`
	CancelledAt        *time.Time           `json:"cancelled_at,omitempty"`
	Modifiers          []svo.Modifier       `json:"modifiers,omitempty"`
	PendingOffers      []bvo.RetentionOffer `json:"pending_offers,omitempty"`
	OpenAttemptOffers  []bvo.RetentionOffer `json:"open_attempt_offers,omitempty"`
	HasOpenFailure     bool                 `json:"has_open_failure"`
	NextRetryAt        *time.Time           `json:"next_retry_at,omitempty"`
}

// GetSubscriptionUseCase assembles the subscription view the billing portal
// renders: lifecycle state, active modifiers, and any offers on the table.
type GetSubscriptionUseCase struct {
	subscriptionRepo subscription.SubscriptionRepository
	planRepo         subscription.PlanRepository
	failureRepo      billing.PaymentFailureRepository
	attemptRepo      billing.RetentionAttemptRepository
	logger           logger.Interface
}

func NewGetSubscriptionUseCase(
	subscriptionRepo subscription.SubscriptionRepository,
	planRepo subscription.PlanRepository,
	failureRepo billing.PaymentFailureRepository,
	attemptRepo billing.RetentionAttemptRepository,
	logger logger.Interface,
) *GetSubscriptionUseCase {
	return &GetSubscriptionUseCase{
		subscriptionRepo: subscriptionRepo,
		planRepo:         planRepo,
		failureRepo:      failureRepo,
		attemptRepo:      attemptRepo,
		logger:           logger,
	}
}

func (uc *GetSubscriptionUseCase) Execute(ctx context.Context, cmd GetSubscriptionCommand) (*SubscriptionView, error) {
	sub, err := uc.subscriptionRepo.GetBySID(ctx, cmd.SID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	view := &SubscriptionView{
		SID:                sub.SID(),
		Status:             string(sub.Status()),
		CurrentPeriodStart: sub.CurrentPeriodStart(),
		CurrentPeriodEnd:   sub.CurrentPeriodEnd(),
		GracePeriodEndsAt:  sub.GracePeriodEndsAt(),
		GraceDaysRemaining: sub.GraceDaysRemaining(now),
		RetryCount:         sub.RetryCount(),
		CancelAtPeriodEnd:  sub.CancelAtPeriodEnd(),
		CancelledAt:        sub.CancelledAt(),
		Modifiers:          sub.Modifiers(),
		PendingOffers:      sub.PendingOffers(),
	}

	plan, err := uc.planRepo.GetByID(ctx, sub.PlanID())
	if err != nil {
		uc.logger.Warnw("failed to load plan for subscription view", "plan_id", sub.PlanID(), "error", err)
	} else {
		view.PlanCode = plan.Code()
		view.PlanName = plan.Name()
	}

	failure, err := uc.failureRepo.GetOpenBySubscriptionID(ctx, sub.ID())
	if err != nil {
		return nil, err
	}
	if failure != nil {
		view.HasOpenFailure = true
		view.NextRetryAt = failure.NextRetryAt()
	}

	attempt, err := uc.attemptRepo.GetOpenBySubscriptionID(ctx, sub.ID())
	if err != nil {
		return nil, err
	}
	if attempt != nil {
		view.OpenAttemptOffers = attempt.OfferedOffers()
	}

	return view, nil
}
