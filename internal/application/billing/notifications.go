package billing

import "fmt"

// UrgencyTier grades retry-failure notifications by remaining grace days.
type UrgencyTier string

const (
	UrgencyLow    UrgencyTier = "low"
	UrgencyMedium UrgencyTier = "medium"
	UrgencyHigh   UrgencyTier = "high"
)

// UrgencyForGraceDays maps remaining grace days to a tier: high when one day
// or less remains, medium at three or less, low otherwise.
func UrgencyForGraceDays(days int) UrgencyTier {
	switch {
	case days <= 1:
		return UrgencyHigh
	case days <= 3:
		return UrgencyMedium
	default:
		return UrgencyLow
	}
}

// Email template keys. Every template receives an "update payment method"
// link and a support contact so failure mail is always actionable.
const (
	TemplatePaymentFailed          = "billing.payment_failed"
	TemplateRetrySucceeded         = "billing.payment_retry_succeeded"
	TemplateRetryFailedLow         = "billing.payment_retry_failed_low"
	TemplateRetryFailedMedium      = "billing.payment_retry_failed_medium"
	TemplateRetryFailedHigh        = "billing.payment_retry_failed_high"
	TemplateSuspended              = "billing.subscription_suspended"
	TemplateCancelled              = "billing.subscription_cancelled"
	TemplateRetentionOfferAccepted = "billing.retention_offer_accepted"
	TemplatePaused                 = "billing.subscription_paused"
	TemplateResumed                = "billing.subscription_resumed"
	TemplateReactivated            = "billing.subscription_reactivated"
)

// RetryFailedTemplate selects the failure template for an urgency tier.
func RetryFailedTemplate(tier UrgencyTier) string {
	switch tier {
	case UrgencyHigh:
		return TemplateRetryFailedHigh
	case UrgencyMedium:
		return TemplateRetryFailedMedium
	default:
		return TemplateRetryFailedLow
	}
}

// Suspension win-back stages escalate from a discount tease to a deletion
// warning. Stage is 1-based and must line up with the configured offsets.
var suspensionWinbackTemplates = []string{
	"winback.suspension_discount_tease",
	"winback.suspension_data_safety",
	"winback.suspension_final_offer",
	"winback.suspension_farewell",
	"winback.suspension_deletion_warning",
}

// Cancellation win-back stages are a softer four-step sequence.
var cancellationWinbackTemplates = []string{
	"winback.cancellation_check_in",
	"winback.cancellation_whats_new",
	"winback.cancellation_comeback_offer",
	"winback.cancellation_final_goodbye",
}

// WinbackTemplate returns the template for a campaign stage.
func WinbackTemplate(campaign string, stage int) (string, error) {
	var templates []string
	switch campaign {
	case CampaignSuspension:
		templates = suspensionWinbackTemplates
	case CampaignCancellation:
		templates = cancellationWinbackTemplates
	default:
		return "", fmt.Errorf("unknown win-back campaign: %s", campaign)
	}

	if stage < 1 || stage > len(templates) {
		return "", fmt.Errorf("win-back stage %d out of range for campaign %s", stage, campaign)
	}
	return templates[stage-1], nil
}

// WinbackStages returns the number of stages in a campaign.
func WinbackStages(campaign string) int {
	switch campaign {
	case CampaignSuspension:
		return len(suspensionWinbackTemplates)
	case CampaignCancellation:
		return len(cancellationWinbackTemplates)
	default:
		return 0
	}
}
