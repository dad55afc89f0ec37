package services

import (
	"context"
	"fmt"
	"time"

	bvo "github.com/lumahq/luma/internal/domain/billing/valueobjects"
	"github.com/lumahq/luma/internal/domain/subscription"
	"github.com/lumahq/luma/internal/shared/logger"
)

// Offer parameters shared by the cancellation flow and the post-suspension
// durable offers.
const (
	saveDiscountPercentage   = 50
	saveDiscountMonths       = 3
	annualDiscountPercentage = 20
	annualDiscountMonths     = 12
	suspensionPauseDays      = 90
	flowPauseDays            = 30
	flowOfferValidityDays    = 7
	durableOfferValidityDays = 30
	durablePauseValidityDays = 7
)

// OfferGenerator maps a cancellation reason onto 2-3 reason-specific
// retention offers, and builds the durable offers attached after suspension.
type OfferGenerator struct {
	planRepo subscription.PlanRepository
	logger   logger.Interface
}

func NewOfferGenerator(planRepo subscription.PlanRepository, logger logger.Interface) *OfferGenerator {
	return &OfferGenerator{planRepo: planRepo, logger: logger}
}

// GenerateOffers returns the offers for a cancellation request. The
// downgrade offer is only included when a cheaper active plan exists.
func (g *OfferGenerator) GenerateOffers(ctx context.Context, currentPlan *subscription.Plan, reason bvo.CancellationReason) ([]bvo.RetentionOffer, error) {
	if currentPlan == nil {
		return nil, fmt.Errorf("current plan is required for offer generation")
	}

	expiry := time.Now().UTC().AddDate(0, 0, flowOfferValidityDays)

	var offers []bvo.RetentionOffer
	switch reason {
	case bvo.ReasonTooExpensive:
		offers = append(offers, discountOffer(expiry))
		if downgrade, ok := g.downgradeOffer(ctx, currentPlan, expiry); ok {
			offers = append(offers, downgrade)
		}
		offers = append(offers, bvo.RetentionOffer{
			Type:               bvo.OfferAnnualDiscount,
			Title:              "Switch to annual billing",
			Description:        fmt.Sprintf("Save %d%% with an annual plan.", annualDiscountPercentage),
			DiscountPercentage: annualDiscountPercentage,
			DurationMonths:     annualDiscountMonths,
			ExpiresAt:          &expiry,
		})

	case bvo.ReasonNotUsingEnough:
		offers = append(offers,
			bvo.RetentionOffer{
				Type:        bvo.OfferFeatureTraining,
				Title:       "Free onboarding session",
				Description: "A 1:1 training session to get more out of your workspace.",
				ExpiresAt:   &expiry,
			},
			bvo.RetentionOffer{
				Type:        bvo.OfferAccountAudit,
				Title:       "Account audit",
				Description: "We review your setup and suggest the features you are missing.",
				ExpiresAt:   &expiry,
			},
		)

	case bvo.ReasonMissingFeatures:
		offers = append(offers,
			bvo.RetentionOffer{
				Type:        bvo.OfferBetaAccess,
				Title:       "Early access program",
				Description: "Get upcoming features before general availability.",
				ExpiresAt:   &expiry,
			},
			bvo.RetentionOffer{
				Type:        bvo.OfferCustomDevelopment,
				Title:       "Feature request fast-track",
				Description: "Your missing feature goes to the front of our roadmap review.",
				ExpiresAt:   &expiry,
			},
		)

	case bvo.ReasonTechnicalIssues:
		offers = append(offers,
			bvo.RetentionOffer{
				Type:        bvo.OfferPrioritySupport,
				Title:       "Priority support",
				Description: "Direct line to senior support for 90 days.",
				ExpiresAt:   &expiry,
			},
			bvo.RetentionOffer{
				Type:        bvo.OfferSetupAssistance,
				Title:       "Setup assistance",
				Description: "An engineer fixes your configuration with you.",
				ExpiresAt:   &expiry,
			},
		)

	case bvo.ReasonFoundAlternative:
		offers = append(offers,
			bvo.RetentionOffer{
				Type:        bvo.OfferFeatureMatch,
				Title:       "Feature match review",
				Description: "Tell us what the alternative does better; we close the gap or say so.",
				ExpiresAt:   &expiry,
			},
			bvo.RetentionOffer{
				Type:        bvo.OfferMigrationGuarantee,
				Title:       "Migration guarantee",
				Description: "Full data export and migration help any time, no lock-in.",
				ExpiresAt:   &expiry,
			},
		)

	default:
		offers = append(offers,
			bvo.RetentionOffer{
				Type:        bvo.OfferPause,
				Title:       "Take a break",
				Description: fmt.Sprintf("Pause your subscription for up to %d days.", flowPauseDays),
				PauseDays:   flowPauseDays,
				ExpiresAt:   &expiry,
			},
			discountOffer(expiry),
		)
	}

	return offers, nil
}

// BuildSuspensionOffers returns the three durable offers attached to a
// subscription after suspension, with fixed expirations of 30, 30, and 7
// days respectively.
func (g *OfferGenerator) BuildSuspensionOffers(ctx context.Context, currentPlan *subscription.Plan) []bvo.RetentionOffer {
	now := time.Now().UTC()
	discountExpiry := now.AddDate(0, 0, durableOfferValidityDays)
	pauseExpiry := now.AddDate(0, 0, durablePauseValidityDays)

	offers := []bvo.RetentionOffer{discountOffer(discountExpiry)}

	if currentPlan != nil {
		if downgrade, ok := g.downgradeOffer(ctx, currentPlan, discountExpiry); ok {
			offers = append(offers, downgrade)
		}
	}

	offers = append(offers, bvo.RetentionOffer{
		Type:        bvo.OfferPause,
		Title:       "Pause instead",
		Description: fmt.Sprintf("Pause your subscription for %d days; your data stays put.", suspensionPauseDays),
		PauseDays:   suspensionPauseDays,
		ExpiresAt:   &pauseExpiry,
	})

	return offers
}

func discountOffer(expiry time.Time) bvo.RetentionOffer {
	return bvo.RetentionOffer{
		Type:               bvo.OfferDiscount,
		Title:              fmt.Sprintf("%d%% off for %d months", saveDiscountPercentage, saveDiscountMonths),
		Description:        "Keep everything you have at half the price.",
		DiscountPercentage: saveDiscountPercentage,
		DurationMonths:     saveDiscountMonths,
		ExpiresAt:          &expiry,
	}
}

func (g *OfferGenerator) downgradeOffer(ctx context.Context, currentPlan *subscription.Plan, expiry time.Time) (bvo.RetentionOffer, bool) {
	cheaper, err := g.planRepo.FindCheapestBelow(ctx, currentPlan.PriceCents())
	if err != nil {
		g.logger.Warnw("cheaper plan lookup failed, omitting downgrade offer",
			"plan_id", currentPlan.ID(),
			"error", err,
		)
		return bvo.RetentionOffer{}, false
	}
	if cheaper == nil {
		return bvo.RetentionOffer{}, false
	}

	return bvo.RetentionOffer{
		Type:         bvo.OfferDowngrade,
		Title:        fmt.Sprintf("Move to %s", cheaper.Name()),
		Description:  "A smaller plan that keeps your workspace running.",
		TargetPlanID: cheaper.ID(),
		ExpiresAt:    &expiry,
	}, true
}
