package usecases

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appbilling "github.com/lumahq/luma/internal/application/billing"
	bvo "github.com/lumahq/luma/internal/domain/billing/valueobjects"
	vo "github.com/lumahq/luma/internal/domain/subscription/valueobjects"
)

var testWinbackOffsets = []int{1, 7, 14, 30, 60}

func newSuspendUC(env *testEnv) *SuspendSubscriptionUseCase {
	return NewSuspendSubscriptionUseCase(
		env.subs, env.plans, env.failures, env.workspaces, env.offers,
		env.features, env.jobs, env.notifier, env.events, env.tx,
		testWinbackOffsets, env.logger,
	)
}

func newExecutePaymentRetryUC(env *testEnv) *ExecutePaymentRetryUseCase {
	return NewExecutePaymentRetryUseCase(
		env.subs, env.failures, env.workspaces, env.schedule, env.gateway,
		env.notifier, env.events, env.tx, newSuspendUC(env), env.logger,
	)
}

func TestExecutePaymentRetry_Execute(t *testing.T) {
	ctx := context.Background()

	t.Run("successful retry recovers the subscription", func(t *testing.T) {
		env := newTestEnv(t)
		ws := env.seedWorkspace(t)
		env.seedPlan(t, 2, "pro", "Pro", 4900)
		sub := env.seedSubscription(t, ws.ID(), 2, vo.StatusPastDue)
		failure := env.seedOpenFailure(t, sub.ID(), "in_123")
		env.gateway.retryPaid = true
		uc := newExecutePaymentRetryUC(env)

		result, err := uc.Execute(ctx, ExecutePaymentRetryCommand{
			SubscriptionID: sub.ID(),
			FailureID:      failure.ID(),
			Attempt:        1,
		})
		require.NoError(t, err)
		assert.True(t, result.Recovered)

		assert.Equal(t, "in_123", env.gateway.lastInvoice)
		assert.True(t, failure.IsResolved())
		require.NotNil(t, failure.ResolutionCause())
		assert.Equal(t, bvo.ResolutionRetrySuccess, *failure.ResolutionCause())
		assert.Equal(t, 1, failure.AttemptCount())

		assert.Equal(t, vo.StatusActive, sub.Status())
		assert.Nil(t, sub.GracePeriodEndsAt())
		assert.Zero(t, sub.RetryCount())

		require.Len(t, env.notifier.emails, 1)
		assert.Equal(t, appbilling.TemplateRetrySucceeded, env.notifier.emails[0].Template)
		assert.Len(t, env.events.published, 2)
	})

	t.Run("declined retry advances the next retry timestamp", func(t *testing.T) {
		env := newTestEnv(t)
		ws := env.seedWorkspace(t)
		sub := env.seedSubscription(t, ws.ID(), 2, vo.StatusPastDue)
		failure := env.seedOpenFailure(t, sub.ID(), "in_123")
		uc := newExecutePaymentRetryUC(env)

		result, err := uc.Execute(ctx, ExecutePaymentRetryCommand{
			SubscriptionID: sub.ID(),
			FailureID:      failure.ID(),
			Attempt:        1,
		})
		require.NoError(t, err)
		assert.False(t, result.Recovered)
		assert.False(t, result.Exhausted)
		require.NotNil(t, result.NextRetryAt)

		expected, err := env.schedule.StepRunAt(failure.CreatedAt(), 2)
		require.NoError(t, err)
		assert.Equal(t, expected, *result.NextRetryAt)

		assert.Equal(t, 1, failure.AttemptCount())
		assert.False(t, failure.IsResolved())
		assert.Equal(t, 1, sub.RetryCount())
		assert.Equal(t, vo.StatusPastDue, sub.Status())

		// The timetable was enqueued at intake; a decline enqueues nothing.
		assert.Empty(t, env.jobs.byType(appbilling.JobTypePaymentRetry))

		// 25 grace days remain, so the low-urgency template goes out.
		require.Len(t, env.notifier.emails, 1)
		assert.Equal(t, appbilling.TemplateRetryFailedLow, env.notifier.emails[0].Template)
	})

	t.Run("final declined attempt suspends the subscription", func(t *testing.T) {
		env := newTestEnv(t)
		ws := env.seedWorkspace(t)
		env.seedPlan(t, 2, "pro", "Pro", 4900)
		sub := env.seedSubscription(t, ws.ID(), 2, vo.StatusPastDue)
		failure := env.seedOpenFailure(t, sub.ID(), "in_123")
		for i := 0; i < 6; i++ {
			require.NoError(t, failure.RecordAttempt())
		}
		uc := newExecutePaymentRetryUC(env)

		result, err := uc.Execute(ctx, ExecutePaymentRetryCommand{
			SubscriptionID: sub.ID(),
			FailureID:      failure.ID(),
			Attempt:        7,
		})
		require.NoError(t, err)
		assert.True(t, result.Exhausted)

		assert.Equal(t, vo.StatusSuspended, sub.Status())
		assert.Equal(t, 7, failure.AttemptCount())
		assert.False(t, failure.IsResolved())
		assert.Nil(t, failure.NextRetryAt())
		assert.NotEmpty(t, sub.PendingOffers())

		assert.Equal(t, []uint{ws.ID()}, env.features.disabled)
		assert.Len(t, env.jobs.byType(appbilling.JobTypeWinbackEmail), len(testWinbackOffsets))
		assert.Empty(t, env.jobs.byType(appbilling.JobTypePaymentRetry))

		require.Len(t, env.notifier.emails, 1)
		assert.Equal(t, appbilling.TemplateSuspended, env.notifier.emails[0].Template)
	})

	t.Run("skip rules keep redelivered jobs harmless", func(t *testing.T) {
		env := newTestEnv(t)
		ws := env.seedWorkspace(t)
		sub := env.seedSubscription(t, ws.ID(), 2, vo.StatusPastDue)
		failure := env.seedOpenFailure(t, sub.ID(), "in_123")
		uc := newExecutePaymentRetryUC(env)

		t.Run("attempt already executed", func(t *testing.T) {
			require.NoError(t, failure.RecordAttempt())
			result, err := uc.Execute(ctx, ExecutePaymentRetryCommand{SubscriptionID: sub.ID(), FailureID: failure.ID(), Attempt: 1})
			require.NoError(t, err)
			assert.True(t, result.Skipped)
		})

		t.Run("failure already resolved", func(t *testing.T) {
			require.NoError(t, failure.Resolve(bvo.ResolutionManualPayment))
			result, err := uc.Execute(ctx, ExecutePaymentRetryCommand{SubscriptionID: sub.ID(), FailureID: failure.ID(), Attempt: 2})
			require.NoError(t, err)
			assert.True(t, result.Skipped)
		})

		assert.Zero(t, env.gateway.retryCalls)
	})

	t.Run("subscription no longer past due is skipped", func(t *testing.T) {
		env := newTestEnv(t)
		ws := env.seedWorkspace(t)
		sub := env.seedSubscription(t, ws.ID(), 2, vo.StatusActive)
		failure := env.seedOpenFailure(t, sub.ID(), "in_123")
		uc := newExecutePaymentRetryUC(env)

		result, err := uc.Execute(ctx, ExecutePaymentRetryCommand{SubscriptionID: sub.ID(), FailureID: failure.ID(), Attempt: 1})
		require.NoError(t, err)
		assert.True(t, result.Skipped)
		assert.Zero(t, env.gateway.retryCalls)
	})

	t.Run("gateway error counts as a declined attempt", func(t *testing.T) {
		env := newTestEnv(t)
		ws := env.seedWorkspace(t)
		sub := env.seedSubscription(t, ws.ID(), 2, vo.StatusPastDue)
		failure := env.seedOpenFailure(t, sub.ID(), "in_123")
		env.gateway.retryErr = fmt.Errorf("gateway timeout")
		uc := newExecutePaymentRetryUC(env)

		result, err := uc.Execute(ctx, ExecutePaymentRetryCommand{SubscriptionID: sub.ID(), FailureID: failure.ID(), Attempt: 1})
		require.NoError(t, err)
		assert.False(t, result.Recovered)
		assert.False(t, result.Exhausted)
		require.NotNil(t, result.NextRetryAt)

		assert.Equal(t, 1, env.gateway.retryCalls)
		assert.Equal(t, 1, failure.AttemptCount())
		assert.False(t, failure.IsResolved())
		assert.Equal(t, vo.StatusPastDue, sub.Status())
	})

	t.Run("attempt out of range", func(t *testing.T) {
		env := newTestEnv(t)
		uc := newExecutePaymentRetryUC(env)

		_, err := uc.Execute(ctx, ExecutePaymentRetryCommand{SubscriptionID: 1, FailureID: 1, Attempt: 0})
		assert.Error(t, err)

		_, err = uc.Execute(ctx, ExecutePaymentRetryCommand{SubscriptionID: 1, FailureID: 1, Attempt: 8})
		assert.Error(t, err)
	})
}
