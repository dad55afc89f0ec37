package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appbilling "github.com/lumahq/luma/internal/application/billing"
	vo "github.com/lumahq/luma/internal/domain/subscription/valueobjects"
)

func newHandlePaymentFailureUC(env *testEnv) *HandlePaymentFailureUseCase {
	return NewHandlePaymentFailureUseCase(
		env.subs, env.failures, env.workspaces, env.schedule,
		env.jobs, env.notifier, env.events, env.tx, 30, env.logger,
	)
}

func TestHandlePaymentFailure_Execute(t *testing.T) {
	ctx := context.Background()

	t.Run("records the failure and enqueues the full retry timetable", func(t *testing.T) {
		env := newTestEnv(t)
		ws := env.seedWorkspace(t)
		env.seedPlan(t, 2, "pro", "Pro", 4900)
		sub := env.seedSubscription(t, ws.ID(), 2, vo.StatusActive)
		uc := newHandlePaymentFailureUC(env)

		result, err := uc.Execute(ctx, HandlePaymentFailureCommand{
			SubscriptionID: sub.ID(),
			InvoiceID:      "in_123",
			Reason:         "card declined",
			Code:           "card_declined",
		})
		require.NoError(t, err)
		assert.NotZero(t, result.FailureID)
		assert.False(t, result.AlreadyOpen)

		expectedRetry, err := env.schedule.StepRunAt(time.Now().UTC(), 1)
		require.NoError(t, err)
		assert.WithinDuration(t, expectedRetry, result.NextRetryAt, time.Minute)

		assert.Equal(t, vo.StatusPastDue, sub.Status())
		require.NotNil(t, sub.GracePeriodEndsAt())
		assert.WithinDuration(t, time.Now().UTC().AddDate(0, 0, 30), *sub.GracePeriodEndsAt(), time.Minute)

		retryJobs := env.jobs.byType(appbilling.JobTypePaymentRetry)
		require.Len(t, retryJobs, env.schedule.TotalAttempts())
		for i, job := range retryJobs {
			payload := job.Payload.(appbilling.PaymentRetryPayload)
			assert.Equal(t, sub.ID(), payload.SubscriptionID)
			assert.Equal(t, result.FailureID, payload.FailureID)
			assert.Equal(t, i+1, payload.Attempt)

			stepRunAt, err := env.schedule.StepRunAt(time.Now().UTC(), i+1)
			require.NoError(t, err)
			assert.WithinDuration(t, stepRunAt, job.RunAt, time.Minute)
		}
		assert.Equal(t, result.NextRetryAt, retryJobs[0].RunAt)

		require.Len(t, env.notifier.emails, 1)
		assert.Equal(t, appbilling.TemplatePaymentFailed, env.notifier.emails[0].Template)
		assert.Equal(t, ws.BillingEmail(), env.notifier.emails[0].Recipient)
		assert.Len(t, env.notifier.inApp, 1)
		assert.Len(t, env.events.published, 2)
	})

	t.Run("second decline for the same invoice is a no-op", func(t *testing.T) {
		env := newTestEnv(t)
		ws := env.seedWorkspace(t)
		sub := env.seedSubscription(t, ws.ID(), 2, vo.StatusActive)
		uc := newHandlePaymentFailureUC(env)

		first, err := uc.Execute(ctx, HandlePaymentFailureCommand{SubscriptionID: sub.ID(), InvoiceID: "in_123"})
		require.NoError(t, err)

		second, err := uc.Execute(ctx, HandlePaymentFailureCommand{SubscriptionID: sub.ID(), InvoiceID: "in_123"})
		require.NoError(t, err)
		assert.True(t, second.AlreadyOpen)
		assert.Equal(t, first.FailureID, second.FailureID)
		assert.Equal(t, first.NextRetryAt, second.NextRetryAt)

		assert.Len(t, env.failures.failures, 1)
		assert.Len(t, env.jobs.byType(appbilling.JobTypePaymentRetry), env.schedule.TotalAttempts())
		assert.Len(t, env.notifier.emails, 1)
	})

	t.Run("a different invoice opens a new failure", func(t *testing.T) {
		env := newTestEnv(t)
		ws := env.seedWorkspace(t)
		sub := env.seedSubscription(t, ws.ID(), 2, vo.StatusActive)
		uc := newHandlePaymentFailureUC(env)

		_, err := uc.Execute(ctx, HandlePaymentFailureCommand{SubscriptionID: sub.ID(), InvoiceID: "in_123"})
		require.NoError(t, err)

		result, err := uc.Execute(ctx, HandlePaymentFailureCommand{SubscriptionID: sub.ID(), InvoiceID: "in_456"})
		require.NoError(t, err)
		assert.False(t, result.AlreadyOpen)
		assert.Len(t, env.failures.failures, 2)
	})

	t.Run("validation", func(t *testing.T) {
		env := newTestEnv(t)
		uc := newHandlePaymentFailureUC(env)

		_, err := uc.Execute(ctx, HandlePaymentFailureCommand{InvoiceID: "in_123"})
		assert.Error(t, err)

		_, err = uc.Execute(ctx, HandlePaymentFailureCommand{SubscriptionID: 1})
		assert.Error(t, err)
	})

	t.Run("unknown subscription", func(t *testing.T) {
		env := newTestEnv(t)
		uc := newHandlePaymentFailureUC(env)

		_, err := uc.Execute(ctx, HandlePaymentFailureCommand{SubscriptionID: 99, InvoiceID: "in_123"})
		assert.Error(t, err)
	})

	t.Run("paused subscription cannot go past due", func(t *testing.T) {
		env := newTestEnv(t)
		ws := env.seedWorkspace(t)
		sub := env.seedSubscription(t, ws.ID(), 2, vo.StatusPaused)
		uc := newHandlePaymentFailureUC(env)

		_, err := uc.Execute(ctx, HandlePaymentFailureCommand{SubscriptionID: sub.ID(), InvoiceID: "in_123"})
		assert.Error(t, err)
	})
}
