package valueobjects

// SubscriptionStatus captures the billing health of a subscription.
type SubscriptionStatus string

const (
	StatusActive    SubscriptionStatus = "active"
	StatusPastDue   SubscriptionStatus = "past_due"
	StatusSuspended SubscriptionStatus = "suspended"
	StatusPaused    SubscriptionStatus = "paused"
	StatusCancelled SubscriptionStatus = "cancelled"
)

func (s SubscriptionStatus) String() string {
	return string(s)
}

// CanUseService reports whether workspace features are usable in this status.
// Past-due subscriptions keep access during the grace period.
func (s SubscriptionStatus) CanUseService() bool {
	return s == StatusActive || s == StatusPastDue
}

// IsTerminal reports whether the status only leaves via explicit reactivation.
func (s SubscriptionStatus) IsTerminal() bool {
	return s == StatusSuspended || s == StatusCancelled
}

// CanTransitionTo encodes the one-directional lifecycle. The only two-way edge
// is active ⇄ past_due; suspended and cancelled exit solely through the
// reactivation edge back to active.
func (s SubscriptionStatus) CanTransitionTo(target SubscriptionStatus) bool {
	transitions := map[SubscriptionStatus][]SubscriptionStatus{
		StatusActive:    {StatusPastDue, StatusPaused, StatusCancelled},
		StatusPastDue:   {StatusActive, StatusSuspended, StatusCancelled},
		StatusPaused:    {StatusActive, StatusCancelled},
		StatusSuspended: {StatusActive},
		StatusCancelled: {StatusActive},
	}

	allowed, exists := transitions[s]
	if !exists {
		return false
	}

	for _, status := range allowed {
		if status == target {
			return true
		}
	}
	return false
}

var ValidStatuses = map[SubscriptionStatus]bool{
	StatusActive:    true,
	StatusPastDue:   true,
	StatusSuspended: true,
	StatusPaused:    true,
	StatusCancelled: true,
}
