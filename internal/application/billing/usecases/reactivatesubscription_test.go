package usecases

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appbilling "github.com/lumahq/luma/internal/application/billing"
	bvo "github.com/lumahq/luma/internal/domain/billing/valueobjects"
	"github.com/lumahq/luma/internal/domain/subscription"
	vo "github.com/lumahq/luma/internal/domain/subscription/valueobjects"
)

func newReactivateUC(env *testEnv) *ReactivateSubscriptionUseCase {
	return NewReactivateSubscriptionUseCase(
		env.subs, env.plans, env.failures, env.workspaces, env.gateway,
		env.features, env.notifier, env.events, env.tx, env.logger,
	)
}

func TestReactivateSubscription_Execute(t *testing.T) {
	ctx := context.Background()

	t.Run("reactivates a suspended subscription with a fresh period", func(t *testing.T) {
		env := newTestEnv(t)
		ws := env.seedWorkspace(t)
		env.seedPlan(t, 2, "pro", "Pro", 4900)
		sub := env.seedSubscription(t, ws.ID(), 2, vo.StatusSuspended)
		require.NoError(t, sub.AttachPendingOffers([]bvo.RetentionOffer{
			{Type: bvo.OfferDiscount, Title: "50% off", DiscountPercentage: 50, DurationMonths: 3},
		}))
		uc := newReactivateUC(env)

		result, err := uc.Execute(ctx, ReactivateSubscriptionCommand{SubscriptionID: sub.ID()})
		require.NoError(t, err)
		assert.False(t, result.AlreadyActive)
		assert.WithinDuration(t, time.Now().UTC(), result.NewPeriodStart, time.Minute)
		assert.Equal(t, result.NewPeriodStart.AddDate(0, 1, 0), result.NewPeriodEnd)

		assert.Equal(t, vo.StatusActive, sub.Status())
		assert.Equal(t, result.NewPeriodStart, sub.CurrentPeriodStart())
		assert.Equal(t, result.NewPeriodEnd, sub.CurrentPeriodEnd())
		assert.Empty(t, sub.PendingOffers())

		assert.Equal(t, []uint{ws.ID()}, env.features.enabled)
		assert.Zero(t, env.gateway.payCalls)

		require.Len(t, env.notifier.emails, 1)
		assert.Equal(t, appbilling.TemplateReactivated, env.notifier.emails[0].Template)
		assert.Len(t, env.events.published, 1)
	})

	t.Run("outstanding invoice is collected first", func(t *testing.T) {
		env := newTestEnv(t)
		ws := env.seedWorkspace(t)
		env.seedPlan(t, 2, "pro", "Pro", 4900)
		sub := env.seedSubscription(t, ws.ID(), 2, vo.StatusSuspended)
		failure := env.seedOpenFailure(t, sub.ID(), "in_123")
		env.gateway.payPaid = true
		uc := newReactivateUC(env)

		_, err := uc.Execute(ctx, ReactivateSubscriptionCommand{SubscriptionID: sub.ID()})
		require.NoError(t, err)

		assert.Equal(t, 1, env.gateway.payCalls)
		assert.Equal(t, "in_123", env.gateway.lastInvoice)
		assert.True(t, failure.IsResolved())
		require.NotNil(t, failure.ResolutionCause())
		assert.Equal(t, bvo.ResolutionReactivated, *failure.ResolutionCause())
		assert.Len(t, env.events.published, 2)
	})

	t.Run("uncollectable invoice blocks reactivation", func(t *testing.T) {
		env := newTestEnv(t)
		ws := env.seedWorkspace(t)
		env.seedPlan(t, 2, "pro", "Pro", 4900)
		sub := env.seedSubscription(t, ws.ID(), 2, vo.StatusSuspended)
		env.seedOpenFailure(t, sub.ID(), "in_123")
		uc := newReactivateUC(env)

		_, err := uc.Execute(ctx, ReactivateSubscriptionCommand{SubscriptionID: sub.ID()})
		assert.Error(t, err)
		assert.Equal(t, vo.StatusSuspended, sub.Status())
		assert.Empty(t, env.features.enabled)
	})

	t.Run("gateway charge error surfaces", func(t *testing.T) {
		env := newTestEnv(t)
		ws := env.seedWorkspace(t)
		sub := env.seedSubscription(t, ws.ID(), 2, vo.StatusSuspended)
		env.seedOpenFailure(t, sub.ID(), "in_123")
		env.gateway.payErr = fmt.Errorf("gateway timeout")
		uc := newReactivateUC(env)

		_, err := uc.Execute(ctx, ReactivateSubscriptionCommand{SubscriptionID: sub.ID()})
		assert.Error(t, err)
		assert.Equal(t, vo.StatusSuspended, sub.Status())
	})

	t.Run("reactivating onto an annual plan opens a one-year period", func(t *testing.T) {
		env := newTestEnv(t)
		ws := env.seedWorkspace(t)
		env.seedPlan(t, 2, "pro", "Pro", 4900)
		now := time.Now().UTC()
		annual, err := subscription.ReconstructPlan(3, "plan_pro_annual", "pro_annual", "Pro Annual", 49000, subscription.IntervalAnnual, true, now, now)
		require.NoError(t, err)
		require.NoError(t, env.plans.Create(ctx, annual))
		sub := env.seedSubscription(t, ws.ID(), 2, vo.StatusCancelled)
		uc := newReactivateUC(env)

		result, err := uc.Execute(ctx, ReactivateSubscriptionCommand{SubscriptionID: sub.ID(), PlanID: 3})
		require.NoError(t, err)
		assert.Equal(t, uint(3), sub.PlanID())
		assert.Equal(t, result.NewPeriodStart.AddDate(1, 0, 0), result.NewPeriodEnd)
	})

	t.Run("unknown target plan", func(t *testing.T) {
		env := newTestEnv(t)
		ws := env.seedWorkspace(t)
		env.seedPlan(t, 2, "pro", "Pro", 4900)
		sub := env.seedSubscription(t, ws.ID(), 2, vo.StatusSuspended)
		uc := newReactivateUC(env)

		_, err := uc.Execute(ctx, ReactivateSubscriptionCommand{SubscriptionID: sub.ID(), PlanID: 42})
		assert.Error(t, err)
	})

	t.Run("already active is a no-op", func(t *testing.T) {
		env := newTestEnv(t)
		ws := env.seedWorkspace(t)
		sub := env.seedSubscription(t, ws.ID(), 2, vo.StatusActive)
		uc := newReactivateUC(env)

		result, err := uc.Execute(ctx, ReactivateSubscriptionCommand{SubscriptionID: sub.ID()})
		require.NoError(t, err)
		assert.True(t, result.AlreadyActive)
		assert.Empty(t, env.notifier.emails)
	})

	t.Run("past due must go through retries instead", func(t *testing.T) {
		env := newTestEnv(t)
		ws := env.seedWorkspace(t)
		sub := env.seedSubscription(t, ws.ID(), 2, vo.StatusPastDue)
		uc := newReactivateUC(env)

		_, err := uc.Execute(ctx, ReactivateSubscriptionCommand{SubscriptionID: sub.ID()})
		assert.Error(t, err)
	})

	t.Run("validation", func(t *testing.T) {
		env := newTestEnv(t)
		uc := newReactivateUC(env)

		_, err := uc.Execute(ctx, ReactivateSubscriptionCommand{})
		assert.Error(t, err)
	})
}
