package valueobjects

// ResolutionCause explains how a payment failure left its open state.
type ResolutionCause string

const (
	ResolutionRetrySuccess  ResolutionCause = "payment_retry_success"
	ResolutionManualPayment ResolutionCause = "manual_payment"
	ResolutionReactivated   ResolutionCause = "subscription_reactivated"
	ResolutionCancelled     ResolutionCause = "subscription_cancelled"
)

var validResolutionCauses = map[ResolutionCause]bool{
	ResolutionRetrySuccess:  true,
	ResolutionManualPayment: true,
	ResolutionReactivated:   true,
	ResolutionCancelled:     true,
}

func (c ResolutionCause) IsValid() bool {
	return validResolutionCauses[c]
}

func (c ResolutionCause) String() string {
	return string(c)
}
