package valueobjects

import (
	"fmt"
	"time"
)

// CancellationReason is the self-reported reason behind a cancellation request.
type CancellationReason string

const (
	ReasonTooExpensive     CancellationReason = "too_expensive"
	ReasonNotUsingEnough   CancellationReason = "not_using_enough"
	ReasonMissingFeatures  CancellationReason = "missing_features"
	ReasonTechnicalIssues  CancellationReason = "technical_issues"
	ReasonFoundAlternative CancellationReason = "found_alternative"
	ReasonOther            CancellationReason = "other"
)

// Normalize maps free-form reason input onto a known reason, defaulting to
// ReasonOther so the offer engine always has a branch to take.
func NormalizeReason(raw string) CancellationReason {
	switch CancellationReason(raw) {
	case ReasonTooExpensive, ReasonNotUsingEnough, ReasonMissingFeatures,
		ReasonTechnicalIssues, ReasonFoundAlternative:
		return CancellationReason(raw)
	default:
		return ReasonOther
	}
}

// OfferType enumerates the retention concessions the engine can present.
type OfferType string

const (
	OfferDiscount           OfferType = "discount"
	OfferAnnualDiscount     OfferType = "annual_discount"
	OfferDowngrade          OfferType = "downgrade"
	OfferPause              OfferType = "pause"
	OfferFeatureTraining    OfferType = "feature_training"
	OfferAccountAudit       OfferType = "account_audit"
	OfferBetaAccess         OfferType = "beta_access"
	OfferCustomDevelopment  OfferType = "custom_development"
	OfferPrioritySupport    OfferType = "priority_support"
	OfferSetupAssistance    OfferType = "setup_assistance"
	OfferFeatureMatch       OfferType = "feature_match"
	OfferMigrationGuarantee OfferType = "migration_guarantee"
)

var validOfferTypes = map[OfferType]bool{
	OfferDiscount:           true,
	OfferAnnualDiscount:     true,
	OfferDowngrade:          true,
	OfferPause:              true,
	OfferFeatureTraining:    true,
	OfferAccountAudit:       true,
	OfferBetaAccess:         true,
	OfferCustomDevelopment:  true,
	OfferPrioritySupport:    true,
	OfferSetupAssistance:    true,
	OfferFeatureMatch:       true,
	OfferMigrationGuarantee: true,
}

// IsValid reports whether the offer type is known.
func (t OfferType) IsValid() bool {
	return validOfferTypes[t]
}

// MutatesBilling reports whether accepting this offer changes billing terms.
// Service-level offers (training, audits, support) only record a request.
func (t OfferType) MutatesBilling() bool {
	switch t {
	case OfferDiscount, OfferAnnualDiscount, OfferDowngrade, OfferPause:
		return true
	}
	return false
}

// RetentionOffer is an ephemeral concession presented during a cancellation
// flow or attached durably after suspension. It is persisted only as a
// snapshot on the owning RetentionAttempt or subscription modifier.
type RetentionOffer struct {
	Type               OfferType  `json:"type"`
	Title              string     `json:"title"`
	Description        string     `json:"description"`
	DiscountPercentage int        `json:"discount_percentage,omitempty"`
	DurationMonths     int        `json:"duration_months,omitempty"`
	TargetPlanID       uint       `json:"target_plan_id,omitempty"`
	PauseDays          int        `json:"pause_days,omitempty"`
	ExpiresAt          *time.Time `json:"expires_at,omitempty"`
}

// Validate checks internal consistency of the offer.
func (o RetentionOffer) Validate() error {
	if !o.Type.IsValid() {
		return fmt.Errorf("unknown offer type: %s", o.Type)
	}
	switch o.Type {
	case OfferDiscount, OfferAnnualDiscount:
		if o.DiscountPercentage <= 0 || o.DiscountPercentage > 100 {
			return fmt.Errorf("offer %s has invalid discount percentage %d", o.Type, o.DiscountPercentage)
		}
		if o.DurationMonths <= 0 {
			return fmt.Errorf("offer %s has invalid duration %d", o.Type, o.DurationMonths)
		}
	case OfferDowngrade:
		if o.TargetPlanID == 0 {
			return fmt.Errorf("downgrade offer requires a target plan")
		}
	case OfferPause:
		if o.PauseDays <= 0 {
			return fmt.Errorf("pause offer requires a positive pause length")
		}
	}
	return nil
}
