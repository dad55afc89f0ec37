package billing

// Job types handled by the billing worker.
const (
	JobTypePaymentRetry       = "payment.retry"
	JobTypeWinbackEmail       = "winback.email"
	JobTypeSubscriptionResume = "subscription.resume"
)

// Win-back campaign kinds.
const (
	CampaignSuspension   = "suspension"
	CampaignCancellation = "cancellation"
)

// PaymentRetryPayload drives one scheduled retry attempt. Attempt is
// 1-based and carried in the job so redelivered jobs stay idempotent.
type PaymentRetryPayload struct {
	SubscriptionID uint `json:"subscription_id"`
	FailureID      uint `json:"failure_id"`
	Attempt        int  `json:"attempt"`
}

// WinbackEmailPayload drives one stage of a win-back email sequence.
type WinbackEmailPayload struct {
	SubscriptionID uint   `json:"subscription_id"`
	Stage          int    `json:"stage"`
	Campaign       string `json:"campaign"`
}

// SubscriptionResumePayload resumes a paused subscription at pause end.
type SubscriptionResumePayload struct {
	SubscriptionID uint `json:"subscription_id"`
}
