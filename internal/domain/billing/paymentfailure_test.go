package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vo "github.com/lumahq/luma/internal/domain/billing/valueobjects"
)

func openFailure(t *testing.T) *PaymentFailure {
	t.Helper()
	f, err := NewPaymentFailure(1, "in_123", "card declined", "card_declined")
	require.NoError(t, err)
	return f
}

func TestNewPaymentFailure(t *testing.T) {
	t.Run("opens unresolved with no attempts", func(t *testing.T) {
		f := openFailure(t)
		assert.NotEmpty(t, f.FID())
		assert.Equal(t, uint(1), f.SubscriptionID())
		assert.Equal(t, "in_123", f.InvoiceID())
		assert.Equal(t, "card declined", f.Reason())
		assert.Equal(t, "card_declined", f.Code())
		assert.Zero(t, f.AttemptCount())
		assert.Nil(t, f.NextRetryAt())
		assert.False(t, f.IsResolved())
	})

	t.Run("requires subscription and invoice", func(t *testing.T) {
		_, err := NewPaymentFailure(0, "in_123", "", "")
		assert.Error(t, err)

		_, err = NewPaymentFailure(1, "", "", "")
		assert.Error(t, err)
	})
}

func TestPaymentFailure_ScheduleNextRetry(t *testing.T) {
	t.Run("records the pointer", func(t *testing.T) {
		f := openFailure(t)
		at := time.Now().UTC().AddDate(0, 0, 1)

		require.NoError(t, f.ScheduleNextRetry(at))
		require.NotNil(t, f.NextRetryAt())
		assert.Equal(t, at, *f.NextRetryAt())
	})

	t.Run("resolved failures cannot be rescheduled", func(t *testing.T) {
		f := openFailure(t)
		require.NoError(t, f.Resolve(vo.ResolutionRetrySuccess))

		assert.Error(t, f.ScheduleNextRetry(time.Now().UTC().AddDate(0, 0, 1)))
	})
}

func TestPaymentFailure_ClearNextRetry(t *testing.T) {
	f := openFailure(t)
	require.NoError(t, f.ScheduleNextRetry(time.Now().UTC().AddDate(0, 0, 1)))

	f.ClearNextRetry()
	assert.Nil(t, f.NextRetryAt())

	// Clearing again is a no-op.
	f.ClearNextRetry()
	assert.Nil(t, f.NextRetryAt())
}

func TestPaymentFailure_RecordAttempt(t *testing.T) {
	t.Run("counts attempts", func(t *testing.T) {
		f := openFailure(t)
		require.NoError(t, f.RecordAttempt())
		require.NoError(t, f.RecordAttempt())
		assert.Equal(t, 2, f.AttemptCount())
	})

	t.Run("resolved failures take no more attempts", func(t *testing.T) {
		f := openFailure(t)
		require.NoError(t, f.Resolve(vo.ResolutionManualPayment))
		assert.Error(t, f.RecordAttempt())
	})
}

func TestPaymentFailure_Resolve(t *testing.T) {
	t.Run("closes the record and clears the retry pointer", func(t *testing.T) {
		f := openFailure(t)
		require.NoError(t, f.ScheduleNextRetry(time.Now().UTC().AddDate(0, 0, 1)))

		err := f.Resolve(vo.ResolutionRetrySuccess)
		require.NoError(t, err)
		assert.True(t, f.IsResolved())
		assert.Nil(t, f.NextRetryAt())
		require.NotNil(t, f.ResolutionCause())
		assert.Equal(t, vo.ResolutionRetrySuccess, *f.ResolutionCause())
	})

	t.Run("resolving twice is an error", func(t *testing.T) {
		f := openFailure(t)
		require.NoError(t, f.Resolve(vo.ResolutionRetrySuccess))
		assert.Error(t, f.Resolve(vo.ResolutionManualPayment))
	})

	t.Run("invalid cause rejected", func(t *testing.T) {
		f := openFailure(t)
		assert.Error(t, f.Resolve(vo.ResolutionCause("chargeback")))
		assert.False(t, f.IsResolved())
	})
}

func TestReconstructPaymentFailure(t *testing.T) {
	now := time.Now().UTC()
	cause := vo.ResolutionRetrySuccess

	t.Run("round trip", func(t *testing.T) {
		f, err := ReconstructPaymentFailure(3, "pf_abc", 1, "in_123", "declined", "card_declined", 2, nil, &now, &cause, now, now)
		require.NoError(t, err)
		assert.Equal(t, uint(3), f.ID())
		assert.Equal(t, 2, f.AttemptCount())
		assert.True(t, f.IsResolved())
	})

	t.Run("zero ID rejected", func(t *testing.T) {
		_, err := ReconstructPaymentFailure(0, "pf_abc", 1, "in_123", "", "", 0, nil, nil, nil, now, now)
		assert.Error(t, err)
	})

	t.Run("invalid cause rejected", func(t *testing.T) {
		bad := vo.ResolutionCause("chargeback")
		_, err := ReconstructPaymentFailure(3, "pf_abc", 1, "in_123", "", "", 0, nil, &now, &bad, now, now)
		assert.Error(t, err)
	})
}
