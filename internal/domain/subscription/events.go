package subscription

import "time"

// SubscriptionPastDueEvent fires when a failed charge opens a grace period.
type SubscriptionPastDueEvent struct {
	SubscriptionID uint
	WorkspaceID    uint
	GraceDeadline  time.Time
	Timestamp      time.Time
}

func NewSubscriptionPastDueEvent(subscriptionID, workspaceID uint, graceDeadline time.Time) *SubscriptionPastDueEvent {
	return &SubscriptionPastDueEvent{
		SubscriptionID: subscriptionID,
		WorkspaceID:    workspaceID,
		GraceDeadline:  graceDeadline,
		Timestamp:      time.Now().UTC(),
	}
}

func (e *SubscriptionPastDueEvent) GetEventType() string    { return "subscription.past_due" }
func (e *SubscriptionPastDueEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e *SubscriptionPastDueEvent) GetAggregateID() uint    { return e.SubscriptionID }

// PaymentRecoveredEvent fires when a retry clears an outstanding failure.
type PaymentRecoveredEvent struct {
	SubscriptionID uint
	WorkspaceID    uint
	Attempt        int
	Timestamp      time.Time
}

func NewPaymentRecoveredEvent(subscriptionID, workspaceID uint, attempt int) *PaymentRecoveredEvent {
	return &PaymentRecoveredEvent{
		SubscriptionID: subscriptionID,
		WorkspaceID:    workspaceID,
		Attempt:        attempt,
		Timestamp:      time.Now().UTC(),
	}
}

func (e *PaymentRecoveredEvent) GetEventType() string    { return "subscription.payment_recovered" }
func (e *PaymentRecoveredEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e *PaymentRecoveredEvent) GetAggregateID() uint    { return e.SubscriptionID }

// SubscriptionSuspendedEvent fires when retries exhaust.
type SubscriptionSuspendedEvent struct {
	SubscriptionID uint
	WorkspaceID    uint
	Timestamp      time.Time
}

func NewSubscriptionSuspendedEvent(subscriptionID, workspaceID uint) *SubscriptionSuspendedEvent {
	return &SubscriptionSuspendedEvent{
		SubscriptionID: subscriptionID,
		WorkspaceID:    workspaceID,
		Timestamp:      time.Now().UTC(),
	}
}

func (e *SubscriptionSuspendedEvent) GetEventType() string    { return "subscription.suspended" }
func (e *SubscriptionSuspendedEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e *SubscriptionSuspendedEvent) GetAggregateID() uint    { return e.SubscriptionID }

// SubscriptionCancelledEvent fires when a cancellation is finalized.
type SubscriptionCancelledEvent struct {
	SubscriptionID uint
	WorkspaceID    uint
	Reason         string
	AtPeriodEnd    bool
	Timestamp      time.Time
}

func NewSubscriptionCancelledEvent(subscriptionID, workspaceID uint, reason string, atPeriodEnd bool) *SubscriptionCancelledEvent {
	return &SubscriptionCancelledEvent{
		SubscriptionID: subscriptionID,
		WorkspaceID:    workspaceID,
		Reason:         reason,
		AtPeriodEnd:    atPeriodEnd,
		Timestamp:      time.Now().UTC(),
	}
}

func (e *SubscriptionCancelledEvent) GetEventType() string    { return "subscription.cancelled" }
func (e *SubscriptionCancelledEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e *SubscriptionCancelledEvent) GetAggregateID() uint    { return e.SubscriptionID }

// SubscriptionReactivatedEvent fires on explicit reactivation out of a
// terminal state.
type SubscriptionReactivatedEvent struct {
	SubscriptionID uint
	WorkspaceID    uint
	Timestamp      time.Time
}

func NewSubscriptionReactivatedEvent(subscriptionID, workspaceID uint) *SubscriptionReactivatedEvent {
	return &SubscriptionReactivatedEvent{
		SubscriptionID: subscriptionID,
		WorkspaceID:    workspaceID,
		Timestamp:      time.Now().UTC(),
	}
}

func (e *SubscriptionReactivatedEvent) GetEventType() string    { return "subscription.reactivated" }
func (e *SubscriptionReactivatedEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e *SubscriptionReactivatedEvent) GetAggregateID() uint    { return e.SubscriptionID }
