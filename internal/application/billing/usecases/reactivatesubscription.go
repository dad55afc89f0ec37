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

// ReactivateSubscriptionCommand brings a suspended or cancelled subscription
// back. PlanID optionally moves it to a different plan; zero keeps the
// current one.
type ReactivateSubscriptionCommand struct {
	SubscriptionID uint
	PlanID         uint
}

// ReactivateSubscriptionResult reports the outcome.
type ReactivateSubscriptionResult struct {
	AlreadyActive  bool
	NewPeriodStart time.Time
	NewPeriodEnd   time.Time
}

// ReactivateSubscriptionUseCase is the explicit way out of the terminal
// states. An outstanding invoice must be paid before the subscription comes
// back; on success the open failure resolves, a fresh billing period opens,
// and feature access is restored.
type ReactivateSubscriptionUseCase struct {
	subscriptionRepo subscription.SubscriptionRepository
	planRepo         subscription.PlanRepository
	failureRepo      billing.PaymentFailureRepository
	workspaceRepo    workspace.WorkspaceRepository
	gateway          appbilling.GatewayClient
	features         appbilling.FeatureToggler
	notifier         appbilling.NotificationDispatcher
	eventPublisher   events.EventPublisher
	txManager        *db.TransactionManager
	logger           logger.Interface
}

func NewReactivateSubscriptionUseCase(
	subscriptionRepo subscription.SubscriptionRepository,
	planRepo subscription.PlanRepository,
	failureRepo billing.PaymentFailureRepository,
	workspaceRepo workspace.WorkspaceRepository,
	gateway appbilling.GatewayClient,
	features appbilling.FeatureToggler,
	notifier appbilling.NotificationDispatcher,
	eventPublisher events.EventPublisher,
	txManager *db.TransactionManager,
	logger logger.Interface,
) *ReactivateSubscriptionUseCase {
	return &ReactivateSubscriptionUseCase{
		subscriptionRepo: subscriptionRepo,
		planRepo:         planRepo,
		failureRepo:      failureRepo,
		workspaceRepo:    workspaceRepo,
		gateway:          gateway,
		features:         features,
		notifier:         notifier,
		eventPublisher:   eventPublisher,
		txManager:        txManager,
		logger:           logger,
	}
}

func (uc *ReactivateSubscriptionUseCase) Execute(ctx context.Context, cmd ReactivateSubscriptionCommand) (*ReactivateSubscriptionResult, error) {
	if cmd.SubscriptionID == 0 {
		return nil, apperrors.NewValidationError("subscription ID is required")
	}

	sub, err := uc.subscriptionRepo.GetByID(ctx, cmd.SubscriptionID)
	if err != nil {
		return nil, err
	}
	if sub.Status() == svo.StatusActive {
		return &ReactivateSubscriptionResult{AlreadyActive: true}, nil
	}
	if !sub.Status().IsTerminal() {
		return nil, apperrors.NewConflictError("subscription is " + sub.Status().String() + ", not suspended or cancelled")
	}

	// An unpaid invoice blocks reactivation; collect it first, outside any
	// transaction.
	openFailure, err := uc.failureRepo.GetOpenBySubscriptionID(ctx, sub.ID())
	if err != nil {
		return nil, err
	}
	if openFailure != nil {
		paid, err := uc.gateway.PayInvoice(ctx, openFailure.InvoiceID())
		if err != nil {
			return nil, apperrors.NewInternalError("payment gateway charge failed", err.Error())
		}
		if !paid {
			return nil, apperrors.NewConflictError("outstanding invoice could not be collected")
		}
	}

	var result ReactivateSubscriptionResult
	err = uc.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		if err := sub.Reactivate(); err != nil {
			return apperrors.NewConflictError("subscription cannot reactivate", err.Error())
		}
		if cmd.PlanID != 0 && cmd.PlanID != sub.PlanID() {
			if _, err := uc.planRepo.GetByID(txCtx, cmd.PlanID); err != nil {
				return err
			}
			if err := sub.ChangePlan(cmd.PlanID); err != nil {
				return apperrors.NewConflictError("plan change failed", err.Error())
			}
		}

		plan, err := uc.planRepo.GetByID(txCtx, sub.PlanID())
		if err != nil {
			return err
		}
		start := time.Now().UTC()
		end := start.AddDate(0, 1, 0)
		if plan.Interval() == subscription.IntervalAnnual {
			end = start.AddDate(1, 0, 0)
		}
		if err := sub.RenewPeriod(start, end); err != nil {
			return err
		}
		sub.ClearPendingOffers()
		if err := uc.subscriptionRepo.Update(txCtx, sub); err != nil {
			return err
		}

		if openFailure != nil && !openFailure.IsResolved() {
			if err := openFailure.Resolve(bvo.ResolutionReactivated); err != nil {
				return err
			}
			if err := uc.failureRepo.Update(txCtx, openFailure); err != nil {
				return err
			}
		}

		if err := uc.features.EnableAllFeatures(txCtx, sub.WorkspaceID()); err != nil {
			return err
		}

		result.NewPeriodStart = start
		result.NewPeriodEnd = end
		return nil
	})
	if err != nil {
		return nil, err
	}

	evts := []events.DomainEvent{
		subscription.NewSubscriptionReactivatedEvent(sub.ID(), sub.WorkspaceID()),
	}
	if openFailure != nil {
		evts = append(evts, billing.NewPaymentFailureResolvedEvent(openFailure.ID(), sub.ID(), bvo.ResolutionReactivated))
	}
	if err := uc.eventPublisher.PublishAll(evts); err != nil {
		uc.logger.Warnw("failed to publish reactivation events", "error", err)
	}

	if ws, err := uc.workspaceRepo.GetByID(ctx, sub.WorkspaceID()); err == nil {
		data := map[string]any{
			"workspace_name": ws.Name(),
			"period_start":   result.NewPeriodStart,
			"period_end":     result.NewPeriodEnd,
		}
		if err := uc.notifier.SendTemplatedEmail(ctx, ws.BillingEmail(), appbilling.TemplateReactivated, data); err != nil {
			uc.logger.Errorw("failed to send reactivation email", "workspace_id", ws.ID(), "error", err)
		}
	}

	uc.logger.Infow("subscription reactivated",
		"subscription_id", sub.ID(),
		"workspace_id", sub.WorkspaceID(),
		"period_end", result.NewPeriodEnd,
	)
	return &result, nil
}
