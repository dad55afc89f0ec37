package usecases

import (
	"context"

	appbilling "github.com/lumahq/luma/internal/application/billing"
	"github.com/lumahq/luma/internal/domain/subscription"
	svo "github.com/lumahq/luma/internal/domain/subscription/valueobjects"
	"github.com/lumahq/luma/internal/domain/workspace"
	apperrors "github.com/lumahq/luma/internal/shared/errors"
	"github.com/lumahq/luma/internal/shared/logger"
)

// SendWinbackEmailCommand delivers one stage of a win-back sequence.
type SendWinbackEmailCommand struct {
	SubscriptionID uint
	Stage          int
	Campaign       string
}

// SendWinbackEmailResult reports the outcome.
type SendWinbackEmailResult struct {
	Skipped  bool
	Template string
}

// SendWinbackEmailUseCase sends the scheduled win-back email for a stage.
// The whole sequence is enqueued up front at suspension or cancellation, so
// each stage re-checks the subscription: a recovered or reactivated
// subscription silently ends its campaign.
type SendWinbackEmailUseCase struct {
	subscriptionRepo subscription.SubscriptionRepository
	workspaceRepo    workspace.WorkspaceRepository
	notifier         appbilling.NotificationDispatcher
	logger           logger.Interface
}

func NewSendWinbackEmailUseCase(
	subscriptionRepo subscription.SubscriptionRepository,
	workspaceRepo workspace.WorkspaceRepository,
	notifier appbilling.NotificationDispatcher,
	logger logger.Interface,
) *SendWinbackEmailUseCase {
	return &SendWinbackEmailUseCase{
		subscriptionRepo: subscriptionRepo,
		workspaceRepo:    workspaceRepo,
		notifier:         notifier,
		logger:           logger,
	}
}

func (uc *SendWinbackEmailUseCase) Execute(ctx context.Context, cmd SendWinbackEmailCommand) (*SendWinbackEmailResult, error) {
	if cmd.SubscriptionID == 0 {
		return nil, apperrors.NewValidationError("subscription ID is required")
	}

	template, err := appbilling.WinbackTemplate(cmd.Campaign, cmd.Stage)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid win-back stage", err.Error())
	}

	sub, err := uc.subscriptionRepo.GetByID(ctx, cmd.SubscriptionID)
	if err != nil {
		return nil, err
	}

	var expected svo.SubscriptionStatus
	switch cmd.Campaign {
	case appbilling.CampaignSuspension:
		expected = svo.StatusSuspended
	case appbilling.CampaignCancellation:
		expected = svo.StatusCancelled
	}
	if sub.Status() != expected {
		uc.logger.Infow("subscription left campaign state, skipping win-back email",
			"subscription_id", sub.ID(),
			"campaign", cmd.Campaign,
			"stage", cmd.Stage,
			"status", sub.Status(),
		)
		return &SendWinbackEmailResult{Skipped: true, Template: template}, nil
	}

	ws, err := uc.workspaceRepo.GetByID(ctx, sub.WorkspaceID())
	if err != nil {
		return nil, err
	}

	data := map[string]any{
		"workspace_name": ws.Name(),
		"stage":          cmd.Stage,
		"total_stages":   appbilling.WinbackStages(cmd.Campaign),
		"pending_offers": len(sub.PendingOffers()),
	}
	if err := uc.notifier.SendTemplatedEmail(ctx, ws.BillingEmail(), template, data); err != nil {
		return nil, apperrors.NewInternalError("failed to send win-back email", err.Error())
	}

	uc.logger.Infow("win-back email sent",
		"subscription_id", sub.ID(),
		"campaign", cmd.Campaign,
		"stage", cmd.Stage,
		"template", template,
	)
	return &SendWinbackEmailResult{Template: template}, nil
}
