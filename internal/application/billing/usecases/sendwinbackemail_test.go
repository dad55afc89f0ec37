package usecases

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appbilling "github.com/lumahq/luma/internal/application/billing"
	bvo "github.com/lumahq/luma/internal/domain/billing/valueobjects"
	vo "github.com/lumahq/luma/internal/domain/subscription/valueobjects"
)

func newSendWinbackUC(env *testEnv) *SendWinbackEmailUseCase {
	return NewSendWinbackEmailUseCase(env.subs, env.workspaces, env.notifier, env.logger)
}

func TestSendWinbackEmail_Execute(t *testing.T) {
	ctx := context.Background()

	t.Run("sends the stage email for a suspended subscription", func(t *testing.T) {
		env := newTestEnv(t)
		ws := env.seedWorkspace(t)
		sub := env.seedSubscription(t, ws.ID(), 2, vo.StatusSuspended)
		require.NoError(t, sub.AttachPendingOffers([]bvo.RetentionOffer{
			{Type: bvo.OfferDiscount, Title: "50% off", DiscountPercentage: 50, DurationMonths: 3},
		}))
		uc := newSendWinbackUC(env)

		result, err := uc.Execute(ctx, SendWinbackEmailCommand{
			SubscriptionID: sub.ID(),
			Stage:          1,
			Campaign:       appbilling.CampaignSuspension,
		})
		require.NoError(t, err)
		assert.False(t, result.Skipped)
		assert.Equal(t, "winback.suspension_discount_tease", result.Template)

		require.Len(t, env.notifier.emails, 1)
		sent := env.notifier.emails[0]
		assert.Equal(t, ws.BillingEmail(), sent.Recipient)
		assert.Equal(t, "winback.suspension_discount_tease", sent.Template)
		assert.Equal(t, 1, sent.Data["stage"])
		assert.Equal(t, 5, sent.Data["total_stages"])
		assert.Equal(t, 1, sent.Data["pending_offers"])
	})

	t.Run("cancellation campaign checks for cancelled status", func(t *testing.T) {
		env := newTestEnv(t)
		ws := env.seedWorkspace(t)
		sub := env.seedSubscription(t, ws.ID(), 2, vo.StatusCancelled)
		uc := newSendWinbackUC(env)

		result, err := uc.Execute(ctx, SendWinbackEmailCommand{
			SubscriptionID: sub.ID(),
			Stage:          4,
			Campaign:       appbilling.CampaignCancellation,
		})
		require.NoError(t, err)
		assert.False(t, result.Skipped)
		assert.Equal(t, "winback.cancellation_final_goodbye", result.Template)
	})

	t.Run("recovered subscription ends its campaign", func(t *testing.T) {
		env := newTestEnv(t)
		ws := env.seedWorkspace(t)
		sub := env.seedSubscription(t, ws.ID(), 2, vo.StatusActive)
		uc := newSendWinbackUC(env)

		result, err := uc.Execute(ctx, SendWinbackEmailCommand{
			SubscriptionID: sub.ID(),
			Stage:          2,
			Campaign:       appbilling.CampaignSuspension,
		})
		require.NoError(t, err)
		assert.True(t, result.Skipped)
		assert.Empty(t, env.notifier.emails)
	})

	t.Run("invalid stage", func(t *testing.T) {
		env := newTestEnv(t)
		uc := newSendWinbackUC(env)

		_, err := uc.Execute(ctx, SendWinbackEmailCommand{SubscriptionID: 1, Stage: 6, Campaign: appbilling.CampaignSuspension})
		assert.Error(t, err)

		_, err = uc.Execute(ctx, SendWinbackEmailCommand{SubscriptionID: 1, Stage: 1, Campaign: "renewal"})
		assert.Error(t, err)
	})

	t.Run("validation", func(t *testing.T) {
		env := newTestEnv(t)
		uc := newSendWinbackUC(env)

		_, err := uc.Execute(ctx, SendWinbackEmailCommand{Stage: 1, Campaign: appbilling.CampaignSuspension})
		assert.Error(t, err)
	})
}
