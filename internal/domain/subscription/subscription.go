package subscription

import (
	"fmt"
	"time"

	bvo "github.com/lumahq/luma/internal/domain/billing/valueobjects"
	vo "github.com/lumahq/luma/internal/domain/subscription/valueobjects"
	"github.com/lumahq/luma/internal/shared/id"
)

// Subscription is the aggregate root for a workspace's billing state. It is
// mutated only by the billing engine and explicit user actions
// (cancel/reactivate); every transition goes through the status value object.
type Subscription struct {
	id                 uint
	sid                string
	workspaceID        uint
	planID             uint
	status             vo.SubscriptionStatus
	currentPeriodStart time.Time
	currentPeriodEnd   time.Time
	gracePeriodEndsAt  *time.Time
	retryCount         int
	cancelledAt        *time.Time
	cancelReason       *string
	cancelFeedback     *string
	cancelAtPeriodEnd  bool
	modifiers          []vo.Modifier
	pendingOffers      []bvo.RetentionOffer
	version            int
	createdAt          time.Time
	updatedAt          time.Time
}

// NewSubscription creates an active subscription for a workspace.
func NewSubscription(workspaceID, planID uint, periodStart, periodEnd time.Time) (*Subscription, error) {
	if workspaceID == 0 {
		return nil, fmt.Errorf("workspace ID is required")
	}
	if planID == 0 {
		return nil, fmt.Errorf("plan ID is required")
	}
	if !periodEnd.After(periodStart) {
		return nil, fmt.Errorf("period end must be after period start")
	}

	now := time.Now().UTC()
	return &Subscription{
		sid:                id.MustGenerateWithPrefix(id.PrefixSubscription, id.DefaultLength),
		workspaceID:        workspaceID,
		planID:             planID,
		status:             vo.StatusActive,
		currentPeriodStart: periodStart,
		currentPeriodEnd:   periodEnd,
		version:            1,
		createdAt:          now,
		updatedAt:          now,
	}, nil
}

// ReconstructParams carries persisted state back into the aggregate.
type ReconstructParams struct {
	ID                 uint
	SID                string
	WorkspaceID        uint
	PlanID             uint
	Status             vo.SubscriptionStatus
	CurrentPeriodStart time.Time
	CurrentPeriodEnd   time.Time
	GracePeriodEndsAt  *time.Time
	RetryCount         int
	CancelledAt        *time.Time
	CancelReason       *string
	CancelFeedback     *string
	CancelAtPeriodEnd  bool
	Modifiers          []vo.Modifier
	PendingOffers      []bvo.RetentionOffer
	Version            int
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Reconstruct rebuilds a subscription from persistence.
func Reconstruct(p ReconstructParams) (*Subscription, error) {
	if p.ID == 0 {
		return nil, fmt.Errorf("subscription ID cannot be zero")
	}
	if p.WorkspaceID == 0 {
		return nil, fmt.Errorf("workspace ID is required")
	}
	if p.PlanID == 0 {
		return nil, fmt.Errorf("plan ID is required")
	}
	if !vo.ValidStatuses[p.Status] {
		return nil, fmt.Errorf("invalid subscription status: %s", p.Status)
	}

	return &Subscription{
		id:                 p.ID,
		sid:                p.SID,
		workspaceID:        p.WorkspaceID,
		planID:             p.PlanID,
		status:             p.Status,
		currentPeriodStart: p.CurrentPeriodStart,
		currentPeriodEnd:   p.CurrentPeriodEnd,
		gracePeriodEndsAt:  p.GracePeriodEndsAt,
		retryCount:         p.RetryCount,
		cancelledAt:        p.CancelledAt,
		cancelReason:       p.CancelReason,
		cancelFeedback:     p.CancelFeedback,
		cancelAtPeriodEnd:  p.CancelAtPeriodEnd,
		modifiers:          p.Modifiers,
		pendingOffers:      p.PendingOffers,
		version:            p.Version,
		createdAt:          p.CreatedAt,
		updatedAt:          p.UpdatedAt,
	}, nil
}

func (s *Subscription) ID() uint                         { return s.id }
func (s *Subscription) SID() string                      { return s.sid }
func (s *Subscription) WorkspaceID() uint                { return s.workspaceID }
func (s *Subscription) PlanID() uint                     { return s.planID }
func (s *Subscription) Status() vo.SubscriptionStatus    { return s.status }
func (s *Subscription) CurrentPeriodStart() time.Time    { return s.currentPeriodStart }
func (s *Subscription) CurrentPeriodEnd() time.Time      { return s.currentPeriodEnd }
func (s *Subscription) GracePeriodEndsAt() *time.Time    { return s.gracePeriodEndsAt }
func (s *Subscription) RetryCount() int                  { return s.retryCount }
func (s *Subscription) CancelledAt() *time.Time          { return s.cancelledAt }
func (s *Subscription) CancelReason() *string            { return s.cancelReason }
func (s *Subscription) CancelFeedback() *string          { return s.cancelFeedback }
func (s *Subscription) CancelAtPeriodEnd() bool          { return s.cancelAtPeriodEnd }
func (s *Subscription) Modifiers() []vo.Modifier         { return s.modifiers }
func (s *Subscription) PendingOffers() []bvo.RetentionOffer { return s.pendingOffers }
func (s *Subscription) Version() int                     { return s.version }
func (s *Subscription) CreatedAt() time.Time             { return s.createdAt }
func (s *Subscription) UpdatedAt() time.Time             { return s.updatedAt }

// SetID sets the subscription ID (persistence layer use only).
func (s *Subscription) SetID(newID uint) error {
	if s.id != 0 {
		return fmt.Errorf("subscription ID is already set")
	}
	if newID == 0 {
		return fmt.Errorf("subscription ID cannot be zero")
	}
	s.id = newID
	return nil
}

func (s *Subscription) touch() {
	s.updatedAt = time.Now().UTC()
	s.version++
}

// MarkPastDue records a failed charge: the subscription enters the grace
// period ending at graceDeadline. No-op when already past due.
func (s *Subscription) MarkPastDue(graceDeadline time.Time) error {
	if s.status == vo.StatusPastDue {
		return nil
	}
	if !s.status.CanTransitionTo(vo.StatusPastDue) {
		return fmt.Errorf("cannot mark subscription %s as past due from status %s", s.sid, s.status)
	}

	s.status = vo.StatusPastDue
	s.gracePeriodEndsAt = &graceDeadline
	s.touch()
	return nil
}

// RecordPaymentRecovery returns a past-due subscription to active, clearing
// the grace deadline and retry counter.
func (s *Subscription) RecordPaymentRecovery() error {
	if !s.status.CanTransitionTo(vo.StatusActive) {
		return fmt.Errorf("cannot recover subscription %s from status %s", s.sid, s.status)
	}

	s.status = vo.StatusActive
	s.gracePeriodEndsAt = nil
	s.retryCount = 0
	s.touch()
	return nil
}

// IncrementRetryCount bumps the failed-attempt counter.
func (s *Subscription) IncrementRetryCount() {
	s.retryCount++
	s.touch()
}

// Suspend moves an exhausted past-due subscription to suspended and clears
// the grace deadline. Data is retained; access is revoked by the caller.
func (s *Subscription) Suspend() error {
	if s.status == vo.StatusSuspended {
		return nil
	}
	if !s.status.CanTransitionTo(vo.StatusSuspended) {
		return fmt.Errorf("cannot suspend subscription %s from status %s", s.sid, s.status)
	}

	s.status = vo.StatusSuspended
	s.gracePeriodEndsAt = nil
	s.touch()
	return nil
}

// Pause freezes billing until resumeAt and attaches the pause modifier.
func (s *Subscription) Pause(resumeAt time.Time) error {
	if !s.status.CanTransitionTo(vo.StatusPaused) {
		return fmt.Errorf("cannot pause subscription %s from status %s", s.sid, s.status)
	}

	m, err := vo.NewPauseModifier(resumeAt)
	if err != nil {
		return err
	}

	s.status = vo.StatusPaused
	s.upsertModifier(m)
	s.touch()
	return nil
}

// Resume lifts a pause and returns the subscription to active.
func (s *Subscription) Resume() error {
	if s.status != vo.StatusPaused {
		return fmt.Errorf("cannot resume subscription %s from status %s", s.sid, s.status)
	}

	s.status = vo.StatusActive
	s.removeModifier(vo.ModifierPause)
	s.touch()
	return nil
}

// Cancel finalizes a cancellation. With atPeriodEnd the subscription stays in
// its current status until the period closes; otherwise it transitions to
// cancelled immediately. The reason is required, feedback is optional.
func (s *Subscription) Cancel(reason string, feedback *string, atPeriodEnd bool) error {
	if s.status == vo.StatusCancelled {
		return nil
	}
	if reason == "" {
		return fmt.Errorf("cancel reason is required")
	}

	now := time.Now().UTC()
	s.cancelledAt = &now
	s.cancelReason = &reason
	s.cancelFeedback = feedback

	if atPeriodEnd {
		s.cancelAtPeriodEnd = true
		s.touch()
		return nil
	}

	if !s.status.CanTransitionTo(vo.StatusCancelled) {
		return fmt.Errorf("cannot cancel subscription %s from status %s", s.sid, s.status)
	}
	s.status = vo.StatusCancelled
	s.touch()
	return nil
}

// Reactivate is the explicit escape hatch out of the terminal states.
func (s *Subscription) Reactivate() error {
	if s.status == vo.StatusActive {
		return nil
	}
	if !s.status.IsTerminal() {
		return fmt.Errorf("cannot reactivate subscription %s from status %s", s.sid, s.status)
	}

	s.status = vo.StatusActive
	s.gracePeriodEndsAt = nil
	s.retryCount = 0
	s.cancelledAt = nil
	s.cancelReason = nil
	s.cancelFeedback = nil
	s.cancelAtPeriodEnd = false
	s.touch()
	return nil
}

// RenewPeriod opens a fresh billing period, typically after reactivation or a
// successful renewal charge.
func (s *Subscription) RenewPeriod(start, end time.Time) error {
	if !end.After(start) {
		return fmt.Errorf("period end must be after period start")
	}
	s.currentPeriodStart = start
	s.currentPeriodEnd = end
	s.touch()
	return nil
}

// ChangePlan moves the subscription to a different plan.
func (s *Subscription) ChangePlan(newPlanID uint) error {
	if newPlanID == 0 {
		return fmt.Errorf("new plan ID is required")
	}
	if newPlanID == s.planID {
		return nil
	}
	if s.status != vo.StatusActive && s.status != vo.StatusPastDue {
		return fmt.Errorf("cannot change plan for subscription %s with status %s", s.sid, s.status)
	}

	s.planID = newPlanID
	s.touch()
	return nil
}

// AddModifier attaches a billing modifier, replacing any existing modifier of
// the same kind.
func (s *Subscription) AddModifier(m vo.Modifier) error {
	if err := m.Validate(); err != nil {
		return err
	}
	s.upsertModifier(m)
	s.touch()
	return nil
}

// ModifierByKind returns the modifier of the given kind, or nil.
func (s *Subscription) ModifierByKind(kind vo.ModifierKind) *vo.Modifier {
	for i := range s.modifiers {
		if s.modifiers[i].Kind == kind {
			return &s.modifiers[i]
		}
	}
	return nil
}

func (s *Subscription) upsertModifier(m vo.Modifier) {
	for i := range s.modifiers {
		if s.modifiers[i].Kind == m.Kind {
			s.modifiers[i] = m
			return
		}
	}
	s.modifiers = append(s.modifiers, m)
}

func (s *Subscription) removeModifier(kind vo.ModifierKind) {
	kept := s.modifiers[:0]
	for _, m := range s.modifiers {
		if m.Kind != kind {
			kept = append(kept, m)
		}
	}
	s.modifiers = kept
}

// AttachPendingOffers stores durable retention offers on the subscription,
// replacing any previous set. Offers stay claimable until each one expires.
func (s *Subscription) AttachPendingOffers(offers []bvo.RetentionOffer) error {
	for _, o := range offers {
		if err := o.Validate(); err != nil {
			return err
		}
	}
	s.pendingOffers = offers
	s.touch()
	return nil
}

// FindPendingOffer returns the unexpired pending offer of the given type.
func (s *Subscription) FindPendingOffer(offerType bvo.OfferType, now time.Time) *bvo.RetentionOffer {
	for i := range s.pendingOffers {
		o := &s.pendingOffers[i]
		if o.Type != offerType {
			continue
		}
		if o.ExpiresAt != nil && !o.ExpiresAt.After(now) {
			continue
		}
		return o
	}
	return nil
}

// ClearPendingOffers removes all stored offers, claimed or not.
func (s *Subscription) ClearPendingOffers() {
	if len(s.pendingOffers) == 0 {
		return
	}
	s.pendingOffers = nil
	s.touch()
}

// GraceDaysRemaining returns whole days until the grace deadline, never
// negative. Zero when no grace period is set.
func (s *Subscription) GraceDaysRemaining(now time.Time) int {
	if s.gracePeriodEndsAt == nil {
		return 0
	}
	remaining := s.gracePeriodEndsAt.Sub(now)
	if remaining <= 0 {
		return 0
	}
	return int(remaining.Hours() / 24)
}

// Validate performs domain-level validation.
func (s *Subscription) Validate() error {
	if s.workspaceID == 0 {
		return fmt.Errorf("workspace ID is required")
	}
	if s.planID == 0 {
		return fmt.Errorf("plan ID is required")
	}
	if !vo.ValidStatuses[s.status] {
		return fmt.Errorf("invalid status: %s", s.status)
	}
	if !s.currentPeriodEnd.After(s.currentPeriodStart) {
		return fmt.Errorf("current period end must be after current period start")
	}
	for _, m := range s.modifiers {
		if err := m.Validate(); err != nil {
			return err
		}
	}
	return nil
}
