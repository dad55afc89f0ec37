package valueobjects

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeReason(t *testing.T) {
	tests := []struct {
		raw  string
		want CancellationReason
	}{
		{"too_expensive", ReasonTooExpensive},
		{"not_using_enough", ReasonNotUsingEnough},
		{"missing_features", ReasonMissingFeatures},
		{"technical_issues", ReasonTechnicalIssues},
		{"found_alternative", ReasonFoundAlternative},
		{"other", ReasonOther},
		{"", ReasonOther},
		{"price", ReasonOther},
		{"TOO_EXPENSIVE", ReasonOther},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeReason(tt.raw), "raw=%q", tt.raw)
	}
}

func TestOfferType_MutatesBilling(t *testing.T) {
	billingTypes := []OfferType{OfferDiscount, OfferAnnualDiscount, OfferDowngrade, OfferPause}
	serviceTypes := []OfferType{
		OfferFeatureTraining, OfferAccountAudit, OfferBetaAccess, OfferCustomDevelopment,
		OfferPrioritySupport, OfferSetupAssistance, OfferFeatureMatch, OfferMigrationGuarantee,
	}

	for _, ot := range billingTypes {
		assert.True(t, ot.MutatesBilling(), "offer %s", ot)
	}
	for _, ot := range serviceTypes {
		assert.False(t, ot.MutatesBilling(), "offer %s", ot)
	}
}

func TestRetentionOffer_Validate(t *testing.T) {
	expiry := time.Now().UTC().AddDate(0, 0, 7)

	tests := []struct {
		name    string
		offer   RetentionOffer
		wantErr bool
	}{
		{"valid discount", RetentionOffer{Type: OfferDiscount, Title: "50% off", DiscountPercentage: 50, DurationMonths: 3, ExpiresAt: &expiry}, false},
		{"discount with zero percentage", RetentionOffer{Type: OfferDiscount, DiscountPercentage: 0, DurationMonths: 3}, true},
		{"discount over 100 percent", RetentionOffer{Type: OfferDiscount, DiscountPercentage: 120, DurationMonths: 3}, true},
		{"discount without duration", RetentionOffer{Type: OfferDiscount, DiscountPercentage: 50}, true},
		{"valid downgrade", RetentionOffer{Type: OfferDowngrade, TargetPlanID: 2}, false},
		{"downgrade without target plan", RetentionOffer{Type: OfferDowngrade}, true},
		{"valid pause", RetentionOffer{Type: OfferPause, PauseDays: 30}, false},
		{"pause without length", RetentionOffer{Type: OfferPause}, true},
		{"service offer needs nothing extra", RetentionOffer{Type: OfferFeatureTraining, Title: "Training"}, false},
		{"unknown type", RetentionOffer{Type: OfferType("free_month")}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.offer.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
