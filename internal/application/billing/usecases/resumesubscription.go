package usecases

import (
	"context"

	appbilling "github.com/lumahq/luma/internal/application/billing"
	"github.com/lumahq/luma/internal/domain/subscription"
	svo "github.com/lumahq/luma/internal/domain/subscription/valueobjects"
	"github.com/lumahq/luma/internal/domain/workspace"
	"github.com/lumahq/luma/internal/shared/db"
	apperrors "github.com/lumahq/luma/internal/shared/errors"
	"github.com/lumahq/luma/internal/shared/logger"
)

// ResumeSubscriptionCommand lifts a pause at its scheduled end.
type ResumeSubscriptionCommand struct {
	SubscriptionID uint
}

// ResumeSubscriptionResult reports the outcome.
type ResumeSubscriptionResult struct {
	Skipped bool
}

// ResumeSubscriptionUseCase returns a paused subscription to active when the
// pause window closes. A subscription that left the paused state by other
// means (cancellation) is skipped, so redelivered resume jobs are harmless.
type ResumeSubscriptionUseCase struct {
	subscriptionRepo subscription.SubscriptionRepository
	workspaceRepo    workspace.WorkspaceRepository
	notifier         appbilling.NotificationDispatcher
	txManager        *db.TransactionManager
	logger           logger.Interface
}

func NewResumeSubscriptionUseCase(
	subscriptionRepo subscription.SubscriptionRepository,
	workspaceRepo workspace.WorkspaceRepository,
	notifier appbilling.NotificationDispatcher,
	txManager *db.TransactionManager,
	logger logger.Interface,
) *ResumeSubscriptionUseCase {
	return &ResumeSubscriptionUseCase{
		subscriptionRepo: subscriptionRepo,
		workspaceRepo:    workspaceRepo,
		notifier:         notifier,
		txManager:        txManager,
		logger:           logger,
	}
}

func (uc *ResumeSubscriptionUseCase) Execute(ctx context.Context, cmd ResumeSubscriptionCommand) (*ResumeSubscriptionResult, error) {
	if cmd.SubscriptionID == 0 {
		return nil, apperrors.NewValidationError("subscription ID is required")
	}

	var (
		result ResumeSubscriptionResult
		sub    *subscription.Subscription
	)
	err := uc.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		var err error
		sub, err = uc.subscriptionRepo.GetByID(txCtx, cmd.SubscriptionID)
		if err != nil {
			return err
		}
		if sub.Status() != svo.StatusPaused {
			result.Skipped = true
			return nil
		}
		if err := sub.Resume(); err != nil {
			return apperrors.NewConflictError("subscription cannot resume", err.Error())
		}
		return uc.subscriptionRepo.Update(txCtx, sub)
	})
	if err != nil {
		return nil, err
	}
	if result.Skipped {
		uc.logger.Infow("subscription not paused, skipping resume", "subscription_id", cmd.SubscriptionID)
		return &result, nil
	}

	if ws, err := uc.workspaceRepo.GetByID(ctx, sub.WorkspaceID()); err == nil {
		data := map[string]any{"workspace_name": ws.Name()}
		if err := uc.notifier.SendTemplatedEmail(ctx, ws.BillingEmail(), appbilling.TemplateResumed, data); err != nil {
			uc.logger.Errorw("failed to send resume email", "workspace_id", ws.ID(), "error", err)
		}
	}

	uc.logger.Infow("subscription resumed", "subscription_id", sub.ID())
	return &result, nil
}
