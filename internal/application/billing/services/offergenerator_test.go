package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bvo "github.com/lumahq/luma/internal/domain/billing/valueobjects"
	"github.com/lumahq/luma/internal/domain/subscription"
	"github.com/lumahq/luma/internal/shared/logger"
)

type fakePlanRepo struct {
	cheapest    *subscription.Plan
	cheapestErr error
}

func (r *fakePlanRepo) Create(ctx context.Context, plan *subscription.Plan) error { return nil }
func (r *fakePlanRepo) GetByID(ctx context.Context, id uint) (*subscription.Plan, error) {
	return nil, fmt.Errorf("not implemented")
}
func (r *fakePlanRepo) GetByCode(ctx context.Context, code string) (*subscription.Plan, error) {
	return nil, fmt.Errorf("not implemented")
}
func (r *fakePlanRepo) ListActive(ctx context.Context) ([]*subscription.Plan, error) {
	return nil, nil
}
func (r *fakePlanRepo) FindCheapestBelow(ctx context.Context, priceCents int64) (*subscription.Plan, error) {
	return r.cheapest, r.cheapestErr
}

func testLogger() logger.Interface {
	return logger.NewLoggerWithSlog(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func testPlan(t *testing.T, id uint, name string, priceCents int64) *subscription.Plan {
	t.Helper()
	plan, err := subscription.ReconstructPlan(id, "plan_test", "test", name, priceCents, subscription.IntervalMonthly, true, time.Now(), time.Now())
	require.NoError(t, err)
	return plan
}

func offerTypes(offers []bvo.RetentionOffer) []bvo.OfferType {
	types := make([]bvo.OfferType, 0, len(offers))
	for _, o := range offers {
		types = append(types, o.Type)
	}
	return types
}

func TestOfferGenerator_GenerateOffers(t *testing.T) {
	ctx := context.Background()
	current := testPlan(t, 2, "Pro", 4900)

	t.Run("nil plan is rejected", func(t *testing.T) {
		g := NewOfferGenerator(&fakePlanRepo{}, testLogger())
		_, err := g.GenerateOffers(ctx, nil, bvo.ReasonOther)
		assert.Error(t, err)
	})

	t.Run("too expensive with a cheaper plan", func(t *testing.T) {
		cheaper := testPlan(t, 1, "Starter", 1900)
		g := NewOfferGenerator(&fakePlanRepo{cheapest: cheaper}, testLogger())

		offers, err := g.GenerateOffers(ctx, current, bvo.ReasonTooExpensive)
		require.NoError(t, err)
		assert.Equal(t, []bvo.OfferType{bvo.OfferDiscount, bvo.OfferDowngrade, bvo.OfferAnnualDiscount}, offerTypes(offers))

		assert.Equal(t, 50, offers[0].DiscountPercentage)
		assert.Equal(t, 3, offers[0].DurationMonths)
		assert.Equal(t, uint(1), offers[1].TargetPlanID)
		assert.Contains(t, offers[1].Title, "Starter")
		assert.Equal(t, 20, offers[2].DiscountPercentage)
		assert.Equal(t, 12, offers[2].DurationMonths)
	})

	t.Run("too expensive without a cheaper plan", func(t *testing.T) {
		g := NewOfferGenerator(&fakePlanRepo{}, testLogger())

		offers, err := g.GenerateOffers(ctx, current, bvo.ReasonTooExpensive)
		require.NoError(t, err)
		assert.Equal(t, []bvo.OfferType{bvo.OfferDiscount, bvo.OfferAnnualDiscount}, offerTypes(offers))
	})

	t.Run("plan lookup error omits the downgrade", func(t *testing.T) {
		g := NewOfferGenerator(&fakePlanRepo{cheapestErr: fmt.Errorf("db down")}, testLogger())

		offers, err := g.GenerateOffers(ctx, current, bvo.ReasonTooExpensive)
		require.NoError(t, err)
		assert.Equal(t, []bvo.OfferType{bvo.OfferDiscount, bvo.OfferAnnualDiscount}, offerTypes(offers))
	})

	t.Run("reason specific offer sets", func(t *testing.T) {
		tests := []struct {
			reason bvo.CancellationReason
			want   []bvo.OfferType
		}{
			{bvo.ReasonNotUsingEnough, []bvo.OfferType{bvo.OfferFeatureTraining, bvo.OfferAccountAudit}},
			{bvo.ReasonMissingFeatures, []bvo.OfferType{bvo.OfferBetaAccess, bvo.OfferCustomDevelopment}},
			{bvo.ReasonTechnicalIssues, []bvo.OfferType{bvo.OfferPrioritySupport, bvo.OfferSetupAssistance}},
			{bvo.ReasonFoundAlternative, []bvo.OfferType{bvo.OfferFeatureMatch, bvo.OfferMigrationGuarantee}},
			{bvo.ReasonOther, []bvo.OfferType{bvo.OfferPause, bvo.OfferDiscount}},
		}

		g := NewOfferGenerator(&fakePlanRepo{}, testLogger())
		for _, tt := range tests {
			offers, err := g.GenerateOffers(ctx, current, tt.reason)
			require.NoError(t, err, "reason %s", tt.reason)
			assert.Equal(t, tt.want, offerTypes(offers), "reason %s", tt.reason)
		}
	})

	t.Run("every offer validates and expires in seven days", func(t *testing.T) {
		g := NewOfferGenerator(&fakePlanRepo{cheapest: testPlan(t, 1, "Starter", 1900)}, testLogger())

		reasons := []bvo.CancellationReason{
			bvo.ReasonTooExpensive, bvo.ReasonNotUsingEnough, bvo.ReasonMissingFeatures,
			bvo.ReasonTechnicalIssues, bvo.ReasonFoundAlternative, bvo.ReasonOther,
		}
		for _, reason := range reasons {
			offers, err := g.GenerateOffers(ctx, current, reason)
			require.NoError(t, err)
			for _, o := range offers {
				assert.NoError(t, o.Validate(), "reason %s offer %s", reason, o.Type)
				require.NotNil(t, o.ExpiresAt)
				assert.WithinDuration(t, time.Now().UTC().AddDate(0, 0, 7), *o.ExpiresAt, time.Minute)
			}
		}
	})

	t.Run("pause offer for other reason is 30 days", func(t *testing.T) {
		g := NewOfferGenerator(&fakePlanRepo{}, testLogger())
		offers, err := g.GenerateOffers(ctx, current, bvo.ReasonOther)
		require.NoError(t, err)
		assert.Equal(t, 30, offers[0].PauseDays)
	})
}

func TestOfferGenerator_BuildSuspensionOffers(t *testing.T) {
	ctx := context.Background()
	current := testPlan(t, 2, "Pro", 4900)

	t.Run("with a cheaper plan", func(t *testing.T) {
		cheaper := testPlan(t, 1, "Starter", 1900)
		g := NewOfferGenerator(&fakePlanRepo{cheapest: cheaper}, testLogger())

		offers := g.BuildSuspensionOffers(ctx, current)
		assert.Equal(t, []bvo.OfferType{bvo.OfferDiscount, bvo.OfferDowngrade, bvo.OfferPause}, offerTypes(offers))
		assert.Equal(t, 90, offers[2].PauseDays)
	})

	t.Run("without a plan", func(t *testing.T) {
		g := NewOfferGenerator(&fakePlanRepo{}, testLogger())

		offers := g.BuildSuspensionOffers(ctx, nil)
		assert.Equal(t, []bvo.OfferType{bvo.OfferDiscount, bvo.OfferPause}, offerTypes(offers))
	})

	t.Run("discount lasts 30 days, pause only 7", func(t *testing.T) {
		g := NewOfferGenerator(&fakePlanRepo{}, testLogger())

		offers := g.BuildSuspensionOffers(ctx, nil)
		require.NotNil(t, offers[0].ExpiresAt)
		require.NotNil(t, offers[1].ExpiresAt)
		now := time.Now().UTC()
		assert.WithinDuration(t, now.AddDate(0, 0, 30), *offers[0].ExpiresAt, time.Minute)
		assert.WithinDuration(t, now.AddDate(0, 0, 7), *offers[1].ExpiresAt, time.Minute)
	})
}
