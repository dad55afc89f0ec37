// Package billing holds the payment-failure and retention aggregates of the
// subscription billing lifecycle engine.
package billing

import (
	"fmt"
	"time"

	vo "github.com/lumahq/luma/internal/domain/billing/valueobjects"
	"github.com/lumahq/luma/internal/shared/id"
)

// PaymentFailure is the immutable record of one declined invoice. It is
// created once per decline, updated on each retry attempt, and closed either
// by a successful retry or by suspension after exhaustion.
type PaymentFailure struct {
	id              uint
	fid             string
	subscriptionID  uint
	invoiceID       string
	reason          string
	code            string
	attemptCount    int
	nextRetryAt     *time.Time
	resolvedAt      *time.Time
	resolutionCause *vo.ResolutionCause
	createdAt       time.Time
	updatedAt       time.Time
}

// NewPaymentFailure records a declined invoice against a subscription.
func NewPaymentFailure(subscriptionID uint, invoiceID, reason, code string) (*PaymentFailure, error) {
	if subscriptionID == 0 {
		return nil, fmt.Errorf("subscription ID is required")
	}
	if invoiceID == "" {
		return nil, fmt.Errorf("gateway invoice ID is required")
	}

	now := time.Now().UTC()
	return &PaymentFailure{
		fid:            id.MustGenerateWithPrefix(id.PrefixPaymentFailure, id.DefaultLength),
		subscriptionID: subscriptionID,
		invoiceID:      invoiceID,
		reason:         reason,
		code:           code,
		createdAt:      now,
		updatedAt:      now,
	}, nil
}

// ReconstructPaymentFailure rebuilds the record from persistence.
func ReconstructPaymentFailure(
	failureID uint,
	fid string,
	subscriptionID uint,
	invoiceID, reason, code string,
	attemptCount int,
	nextRetryAt, resolvedAt *time.Time,
	resolutionCause *vo.ResolutionCause,
	createdAt, updatedAt time.Time,
) (*PaymentFailure, error) {
	if failureID == 0 {
		return nil, fmt.Errorf("payment failure ID cannot be zero")
	}
	if subscriptionID == 0 {
		return nil, fmt.Errorf("subscription ID is required")
	}
	if resolutionCause != nil && !resolutionCause.IsValid() {
		return nil, fmt.Errorf("invalid resolution cause: %s", *resolutionCause)
	}

	return &PaymentFailure{
		id:              failureID,
		fid:             fid,
		subscriptionID:  subscriptionID,
		invoiceID:       invoiceID,
		reason:          reason,
		code:            code,
		attemptCount:    attemptCount,
		nextRetryAt:     nextRetryAt,
		resolvedAt:      resolvedAt,
		resolutionCause: resolutionCause,
		createdAt:       createdAt,
		updatedAt:       updatedAt,
	}, nil
}

func (f *PaymentFailure) ID() uint                             { return f.id }
func (f *PaymentFailure) FID() string                          { return f.fid }
func (f *PaymentFailure) SubscriptionID() uint                 { return f.subscriptionID }
func (f *PaymentFailure) InvoiceID() string                    { return f.invoiceID }
func (f *PaymentFailure) Reason() string                       { return f.reason }
func (f *PaymentFailure) Code() string                         { return f.code }
func (f *PaymentFailure) AttemptCount() int                    { return f.attemptCount }
func (f *PaymentFailure) NextRetryAt() *time.Time              { return f.nextRetryAt }
func (f *PaymentFailure) ResolvedAt() *time.Time               { return f.resolvedAt }
func (f *PaymentFailure) ResolutionCause() *vo.ResolutionCause { return f.resolutionCause }
func (f *PaymentFailure) CreatedAt() time.Time                 { return f.createdAt }
func (f *PaymentFailure) UpdatedAt() time.Time                 { return f.updatedAt }

// SetID sets the record ID (persistence layer use only).
func (f *PaymentFailure) SetID(newID uint) error {
	if f.id != 0 {
		return fmt.Errorf("payment failure ID is already set")
	}
	if newID == 0 {
		return fmt.Errorf("payment failure ID cannot be zero")
	}
	f.id = newID
	return nil
}

// IsResolved reports whether the failure has left its open state.
func (f *PaymentFailure) IsResolved() bool {
	return f.resolvedAt != nil
}

// ScheduleNextRetry records the upcoming attempt's timestamp.
func (f *PaymentFailure) ScheduleNextRetry(at time.Time) error {
	if f.IsResolved() {
		return fmt.Errorf("payment failure %s is already resolved", f.fid)
	}
	f.nextRetryAt = &at
	f.updatedAt = time.Now().UTC()
	return nil
}

// ClearNextRetry removes the pending retry pointer, used when the retry
// lifecycle ends without resolving the record.
func (f *PaymentFailure) ClearNextRetry() {
	if f.nextRetryAt == nil {
		return
	}
	f.nextRetryAt = nil
	f.updatedAt = time.Now().UTC()
}

// RecordAttempt registers one executed retry attempt.
func (f *PaymentFailure) RecordAttempt() error {
	if f.IsResolved() {
		return fmt.Errorf("payment failure %s is already resolved", f.fid)
	}
	f.attemptCount++
	f.updatedAt = time.Now().UTC()
	return nil
}

// Resolve closes the failure with the given cause. Resolving twice is an
// error; callers are expected to no-op on already-resolved records.
func (f *PaymentFailure) Resolve(cause vo.ResolutionCause) error {
	if !cause.IsValid() {
		return fmt.Errorf("invalid resolution cause: %s", cause)
	}
	if f.IsResolved() {
		return fmt.Errorf("payment failure %s is already resolved", f.fid)
	}

	now := time.Now().UTC()
	f.resolvedAt = &now
	f.resolutionCause = &cause
	f.nextRetryAt = nil
	f.updatedAt = now
	return nil
}
