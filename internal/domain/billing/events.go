package billing

import (
	"time"

	vo "github.com/lumahq/luma/internal/domain/billing/valueobjects"
)

// PaymentFailureRecordedEvent fires when a declined invoice is recorded.
type PaymentFailureRecordedEvent struct {
	FailureID      uint
	SubscriptionID uint
	InvoiceID      string
	Reason         string
	Timestamp      time.Time
}

func NewPaymentFailureRecordedEvent(failureID, subscriptionID uint, invoiceID, reason string) *PaymentFailureRecordedEvent {
	return &PaymentFailureRecordedEvent{
		FailureID:      failureID,
		SubscriptionID: subscriptionID,
		InvoiceID:      invoiceID,
		Reason:         reason,
		Timestamp:      time.Now().UTC(),
	}
}

func (e *PaymentFailureRecordedEvent) GetEventType() string    { return "billing.payment_failure_recorded" }
func (e *PaymentFailureRecordedEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e *PaymentFailureRecordedEvent) GetAggregateID() uint    { return e.FailureID }

// PaymentFailureResolvedEvent fires when a failure record is closed.
type PaymentFailureResolvedEvent struct {
	FailureID      uint
	SubscriptionID uint
	Cause          vo.ResolutionCause
	Timestamp      time.Time
}

func NewPaymentFailureResolvedEvent(failureID, subscriptionID uint, cause vo.ResolutionCause) *PaymentFailureResolvedEvent {
	return &PaymentFailureResolvedEvent{
		FailureID:      failureID,
		SubscriptionID: subscriptionID,
		Cause:          cause,
		Timestamp:      time.Now().UTC(),
	}
}

func (e *PaymentFailureResolvedEvent) GetEventType() string    { return "billing.payment_failure_resolved" }
func (e *PaymentFailureResolvedEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e *PaymentFailureResolvedEvent) GetAggregateID() uint    { return e.FailureID }

// RetentionOfferAcceptedEvent fires when a cancellation save succeeds.
type RetentionOfferAcceptedEvent struct {
	AttemptID      uint
	SubscriptionID uint
	OfferType      vo.OfferType
	Timestamp      time.Time
}

func NewRetentionOfferAcceptedEvent(attemptID, subscriptionID uint, offerType vo.OfferType) *RetentionOfferAcceptedEvent {
	return &RetentionOfferAcceptedEvent{
		AttemptID:      attemptID,
		SubscriptionID: subscriptionID,
		OfferType:      offerType,
		Timestamp:      time.Now().UTC(),
	}
}

func (e *RetentionOfferAcceptedEvent) GetEventType() string    { return "billing.retention_offer_accepted" }
func (e *RetentionOfferAcceptedEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e *RetentionOfferAcceptedEvent) GetAggregateID() uint    { return e.AttemptID }

// CancellationRequestedEvent fires when a user opens the cancellation flow.
type CancellationRequestedEvent struct {
	AttemptID      uint
	SubscriptionID uint
	Reason         vo.CancellationReason
	Timestamp      time.Time
}

func NewCancellationRequestedEvent(attemptID, subscriptionID uint, reason vo.CancellationReason) *CancellationRequestedEvent {
	return &CancellationRequestedEvent{
		AttemptID:      attemptID,
		SubscriptionID: subscriptionID,
		Reason:         reason,
		Timestamp:      time.Now().UTC(),
	}
}

func (e *CancellationRequestedEvent) GetEventType() string    { return "billing.cancellation_requested" }
func (e *CancellationRequestedEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e *CancellationRequestedEvent) GetAggregateID() uint    { return e.AttemptID }
