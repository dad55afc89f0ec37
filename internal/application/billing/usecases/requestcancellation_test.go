package usecases

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bvo "github.com/lumahq/luma/internal/domain/billing/valueobjects"
	vo "github.com/lumahq/luma/internal/domain/subscription/valueobjects"
)

func newRequestCancellationUC(env *testEnv) *RequestCancellationUseCase {
	return NewRequestCancellationUseCase(
		env.subs, env.plans, env.attempts, env.offers,
		env.events, env.tx, env.logger,
	)
}

func TestRequestCancellation_Execute(t *testing.T) {
	ctx := context.Background()

	t.Run("opens a save flow with reason-specific offers", func(t *testing.T) {
		env := newTestEnv(t)
		ws := env.seedWorkspace(t)
		env.seedPlan(t, 2, "pro", "Pro", 4900)
		sub := env.seedSubscription(t, ws.ID(), 2, vo.StatusActive)
		uc := newRequestCancellationUC(env)

		result, err := uc.Execute(ctx, RequestCancellationCommand{
			SubscriptionID: sub.ID(),
			Reason:         "too_expensive",
			Feedback:       "costs more than we can afford",
		})
		require.NoError(t, err)
		assert.NotZero(t, result.AttemptID)
		assert.Equal(t, bvo.ReasonTooExpensive, result.Reason)
		require.NotEmpty(t, result.Offers)
		assert.Equal(t, bvo.OfferDiscount, result.Offers[0].Type)

		// The subscription itself is untouched until the flow resolves.
		assert.Equal(t, vo.StatusActive, sub.Status())

		attempt := env.attempts.attempts[result.AttemptID]
		require.NotNil(t, attempt)
		assert.False(t, attempt.IsResolved())
		assert.Equal(t, "costs more than we can afford", attempt.Feedback())
		assert.Len(t, attempt.OfferedOffers(), len(result.Offers))
		assert.Len(t, env.events.published, 1)
	})

	t.Run("repeated request returns the open attempt", func(t *testing.T) {
		env := newTestEnv(t)
		ws := env.seedWorkspace(t)
		env.seedPlan(t, 2, "pro", "Pro", 4900)
		sub := env.seedSubscription(t, ws.ID(), 2, vo.StatusActive)
		uc := newRequestCancellationUC(env)

		first, err := uc.Execute(ctx, RequestCancellationCommand{SubscriptionID: sub.ID(), Reason: "too_expensive"})
		require.NoError(t, err)

		second, err := uc.Execute(ctx, RequestCancellationCommand{SubscriptionID: sub.ID(), Reason: "other"})
		require.NoError(t, err)
		assert.Equal(t, first.AttemptID, second.AttemptID)
		assert.Equal(t, first.Reason, second.Reason)
		assert.Len(t, env.attempts.attempts, 1)
	})

	t.Run("unknown reason falls back to other", func(t *testing.T) {
		env := newTestEnv(t)
		ws := env.seedWorkspace(t)
		env.seedPlan(t, 2, "pro", "Pro", 4900)
		sub := env.seedSubscription(t, ws.ID(), 2, vo.StatusActive)
		uc := newRequestCancellationUC(env)

		result, err := uc.Execute(ctx, RequestCancellationCommand{SubscriptionID: sub.ID(), Reason: "just because"})
		require.NoError(t, err)
		assert.Equal(t, bvo.ReasonOther, result.Reason)
		require.Len(t, result.Offers, 2)
		assert.Equal(t, bvo.OfferPause, result.Offers[0].Type)
	})

	t.Run("feedback is stripped of markup", func(t *testing.T) {
		env := newTestEnv(t)
		ws := env.seedWorkspace(t)
		env.seedPlan(t, 2, "pro", "Pro", 4900)
		sub := env.seedSubscription(t, ws.ID(), 2, vo.StatusActive)
		uc := newRequestCancellationUC(env)

		result, err := uc.Execute(ctx, RequestCancellationCommand{
			SubscriptionID: sub.ID(),
			Reason:         "other",
			Feedback:       "<b>too</b> clunky",
		})
		require.NoError(t, err)
		assert.Equal(t, "too clunky", env.attempts.attempts[result.AttemptID].Feedback())
	})

	t.Run("terminal subscription is rejected", func(t *testing.T) {
		env := newTestEnv(t)
		ws := env.seedWorkspace(t)
		sub := env.seedSubscription(t, ws.ID(), 2, vo.StatusCancelled)
		uc := newRequestCancellationUC(env)

		_, err := uc.Execute(ctx, RequestCancellationCommand{SubscriptionID: sub.ID(), Reason: "other"})
		assert.Error(t, err)
	})

	t.Run("validation", func(t *testing.T) {
		env := newTestEnv(t)
		uc := newRequestCancellationUC(env)

		_, err := uc.Execute(ctx, RequestCancellationCommand{Reason: "other"})
		assert.Error(t, err)

		_, err = uc.Execute(ctx, RequestCancellationCommand{SubscriptionID: 1})
		assert.Error(t, err)
	})
}
