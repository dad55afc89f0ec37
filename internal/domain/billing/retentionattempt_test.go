package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vo "github.com/lumahq/luma/internal/domain/billing/valueobjects"
)

func openAttempt(t *testing.T) *RetentionAttempt {
	t.Helper()
	a, err := NewRetentionAttempt(1, vo.ReasonTooExpensive, "costs too much")
	require.NoError(t, err)
	return a
}

func discountRetentionOffer() vo.RetentionOffer {
	expiry := time.Now().UTC().AddDate(0, 0, 7)
	return vo.RetentionOffer{
		Type:               vo.OfferDiscount,
		Title:              "50% off for 3 months",
		DiscountPercentage: 50,
		DurationMonths:     3,
		ExpiresAt:          &expiry,
	}
}

func TestNewRetentionAttempt(t *testing.T) {
	t.Run("opens an unresolved cancellation save", func(t *testing.T) {
		a := openAttempt(t)
		assert.NotEmpty(t, a.RID())
		assert.Equal(t, AttemptCancellationSave, a.Type())
		assert.Equal(t, vo.ReasonTooExpensive, a.Reason())
		assert.Equal(t, "costs too much", a.Feedback())
		assert.False(t, a.Success())
		assert.False(t, a.IsResolved())
		assert.Empty(t, a.OfferedOffers())
		assert.Nil(t, a.ChosenOffer())
	})

	t.Run("requires a subscription", func(t *testing.T) {
		_, err := NewRetentionAttempt(0, vo.ReasonOther, "")
		assert.Error(t, err)
	})
}

func TestRetentionAttempt_PresentOffers(t *testing.T) {
	t.Run("snapshots the offers", func(t *testing.T) {
		a := openAttempt(t)
		require.NoError(t, a.PresentOffers([]vo.RetentionOffer{discountRetentionOffer()}))
		assert.Len(t, a.OfferedOffers(), 1)
	})

	t.Run("invalid offer rejected", func(t *testing.T) {
		a := openAttempt(t)
		err := a.PresentOffers([]vo.RetentionOffer{{Type: vo.OfferDiscount}})
		assert.Error(t, err)
	})

	t.Run("resolved attempts take no more offers", func(t *testing.T) {
		a := openAttempt(t)
		require.NoError(t, a.MarkDeclined())
		assert.Error(t, a.PresentOffers([]vo.RetentionOffer{discountRetentionOffer()}))
	})
}

func TestRetentionAttempt_AcceptOffer(t *testing.T) {
	t.Run("resolves as a successful save", func(t *testing.T) {
		a := openAttempt(t)
		offer := discountRetentionOffer()

		err := a.AcceptOffer(offer)
		require.NoError(t, err)
		assert.True(t, a.Success())
		assert.True(t, a.IsResolved())
		require.NotNil(t, a.ChosenOffer())
		assert.Equal(t, vo.OfferDiscount, a.ChosenOffer().Type)
	})

	t.Run("accepting twice is an error", func(t *testing.T) {
		a := openAttempt(t)
		require.NoError(t, a.AcceptOffer(discountRetentionOffer()))
		assert.Error(t, a.AcceptOffer(discountRetentionOffer()))
	})

	t.Run("invalid offer rejected", func(t *testing.T) {
		a := openAttempt(t)
		assert.Error(t, a.AcceptOffer(vo.RetentionOffer{Type: vo.OfferPause}))
		assert.False(t, a.IsResolved())
	})
}

func TestRetentionAttempt_MarkDeclined(t *testing.T) {
	t.Run("resolves as a failed save", func(t *testing.T) {
		a := openAttempt(t)

		err := a.MarkDeclined()
		require.NoError(t, err)
		assert.False(t, a.Success())
		assert.True(t, a.IsResolved())
		assert.Nil(t, a.ChosenOffer())
	})

	t.Run("declining twice is an error", func(t *testing.T) {
		a := openAttempt(t)
		require.NoError(t, a.MarkDeclined())
		assert.Error(t, a.MarkDeclined())
	})
}

func TestReconstructRetentionAttempt(t *testing.T) {
	now := time.Now().UTC()
	offer := discountRetentionOffer()

	t.Run("round trip", func(t *testing.T) {
		a, err := ReconstructRetentionAttempt(4, "ra_abc", 1, AttemptCancellationSave, vo.ReasonOther, "", true, []vo.RetentionOffer{offer}, &offer, &now, now, now)
		require.NoError(t, err)
		assert.Equal(t, uint(4), a.ID())
		assert.True(t, a.Success())
		assert.True(t, a.IsResolved())
		assert.Len(t, a.OfferedOffers(), 1)
	})

	t.Run("zero ID rejected", func(t *testing.T) {
		_, err := ReconstructRetentionAttempt(0, "ra_abc", 1, AttemptCancellationSave, vo.ReasonOther, "", false, nil, nil, nil, now, now)
		assert.Error(t, err)
	})
}
