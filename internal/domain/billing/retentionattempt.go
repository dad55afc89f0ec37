package billing

import (
	"fmt"
	"time"

	vo "github.com/lumahq/luma/internal/domain/billing/valueobjects"
	"github.com/lumahq/luma/internal/shared/id"
)

// AttemptType classifies a retention attempt. Only cancellation saves exist
// today; the column leaves room for payment-recovery saves later.
type AttemptType string

const (
	AttemptCancellationSave AttemptType = "cancellation_save"
)

// RetentionAttempt is the audit record of one cancellation-save flow. It is
// created when the user requests cancellation and resolved exactly once, when
// an offer is accepted or the cancellation is finalized. Never deleted.
type RetentionAttempt struct {
	id             uint
	rid            string
	subscriptionID uint
	attemptType    AttemptType
	reason         vo.CancellationReason
	feedback       string
	success        bool
	offered        []vo.RetentionOffer
	chosenOffer    *vo.RetentionOffer
	resolvedAt     *time.Time
	createdAt      time.Time
	updatedAt      time.Time
}

// NewRetentionAttempt opens a cancellation-save flow.
func NewRetentionAttempt(subscriptionID uint, reason vo.CancellationReason, feedback string) (*RetentionAttempt, error) {
	if subscriptionID == 0 {
		return nil, fmt.Errorf("subscription ID is required")
	}

	now := time.Now().UTC()
	return &RetentionAttempt{
		rid:            id.MustGenerateWithPrefix(id.PrefixRetentionAttempt, id.DefaultLength),
		subscriptionID: subscriptionID,
		attemptType:    AttemptCancellationSave,
		reason:         reason,
		feedback:       feedback,
		createdAt:      now,
		updatedAt:      now,
	}, nil
}

// ReconstructRetentionAttempt rebuilds the record from persistence.
func ReconstructRetentionAttempt(
	attemptID uint,
	rid string,
	subscriptionID uint,
	attemptType AttemptType,
	reason vo.CancellationReason,
	feedback string,
	success bool,
	offered []vo.RetentionOffer,
	chosenOffer *vo.RetentionOffer,
	resolvedAt *time.Time,
	createdAt, updatedAt time.Time,
) (*RetentionAttempt, error) {
	if attemptID == 0 {
		return nil, fmt.Errorf("retention attempt ID cannot be zero")
	}
	if subscriptionID == 0 {
		return nil, fmt.Errorf("subscription ID is required")
	}

	return &RetentionAttempt{
		id:             attemptID,
		rid:            rid,
		subscriptionID: subscriptionID,
		attemptType:    attemptType,
		reason:         reason,
		feedback:       feedback,
		success:        success,
		offered:        offered,
		chosenOffer:    chosenOffer,
		resolvedAt:     resolvedAt,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}, nil
}

func (a *RetentionAttempt) ID() uint                          { return a.id }
func (a *RetentionAttempt) RID() string                       { return a.rid }
func (a *RetentionAttempt) SubscriptionID() uint              { return a.subscriptionID }
func (a *RetentionAttempt) Type() AttemptType                 { return a.attemptType }
func (a *RetentionAttempt) Reason() vo.CancellationReason     { return a.reason }
func (a *RetentionAttempt) Feedback() string                  { return a.feedback }
func (a *RetentionAttempt) Success() bool                     { return a.success }
func (a *RetentionAttempt) OfferedOffers() []vo.RetentionOffer { return a.offered }
func (a *RetentionAttempt) ChosenOffer() *vo.RetentionOffer   { return a.chosenOffer }
func (a *RetentionAttempt) ResolvedAt() *time.Time            { return a.resolvedAt }
func (a *RetentionAttempt) CreatedAt() time.Time              { return a.createdAt }
func (a *RetentionAttempt) UpdatedAt() time.Time              { return a.updatedAt }

// SetID sets the record ID (persistence layer use only).
func (a *RetentionAttempt) SetID(newID uint) error {
	if a.id != 0 {
		return fmt.Errorf("retention attempt ID is already set")
	}
	if newID == 0 {
		return fmt.Errorf("retention attempt ID cannot be zero")
	}
	a.id = newID
	return nil
}

// IsResolved reports whether the flow already reached a terminal outcome.
func (a *RetentionAttempt) IsResolved() bool {
	return a.resolvedAt != nil
}

// PresentOffers snapshots the offers shown to the user.
func (a *RetentionAttempt) PresentOffers(offers []vo.RetentionOffer) error {
	if a.IsResolved() {
		return fmt.Errorf("retention attempt %s is already resolved", a.rid)
	}
	for _, o := range offers {
		if err := o.Validate(); err != nil {
			return err
		}
	}
	a.offered = offers
	a.updatedAt = time.Now().UTC()
	return nil
}

// AcceptOffer resolves the attempt as a successful save.
func (a *RetentionAttempt) AcceptOffer(offer vo.RetentionOffer) error {
	if a.IsResolved() {
		return fmt.Errorf("retention attempt %s is already resolved", a.rid)
	}
	if err := offer.Validate(); err != nil {
		return err
	}

	now := time.Now().UTC()
	a.success = true
	a.chosenOffer = &offer
	a.resolvedAt = &now
	a.updatedAt = now
	return nil
}

// MarkDeclined resolves the attempt as a failed save.
func (a *RetentionAttempt) MarkDeclined() error {
	if a.IsResolved() {
		return fmt.Errorf("retention attempt %s is already resolved", a.rid)
	}

	now := time.Now().UTC()
	a.success = false
	a.resolvedAt = &now
	a.updatedAt = now
	return nil
}
