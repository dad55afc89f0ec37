package valueobjects

import (
	"fmt"
	"time"
)

// ModifierKind discriminates the billing modifier union.
type ModifierKind string

const (
	ModifierDiscount        ModifierKind = "discount"
	ModifierAnnualDiscount  ModifierKind = "annual_discount"
	ModifierPause           ModifierKind = "pause"
	ModifierDowngrade       ModifierKind = "downgrade"
	ModifierPrioritySupport ModifierKind = "priority_support"
)

// Modifier is a typed billing concession attached to a subscription. Exactly
// one of the variant fields matching Kind is set. This replaces the untyped
// metadata merges the billing engine used to rely on.
type Modifier struct {
	Kind            ModifierKind     `json:"kind"`
	GrantedAt       time.Time        `json:"granted_at"`
	ExpiresAt       *time.Time       `json:"expires_at,omitempty"`
	Discount        *Discount        `json:"discount,omitempty"`
	Pause           *Pause           `json:"pause,omitempty"`
	Downgrade       *Downgrade       `json:"downgrade,omitempty"`
	PrioritySupport *PrioritySupport `json:"priority_support,omitempty"`
}

// Discount reduces the recurring charge by a percentage for a bounded number
// of billing periods.
type Discount struct {
	Percentage     int `json:"percentage"`
	DurationMonths int `json:"duration_months"`
}

// Pause freezes billing until ResumeAt.
type Pause struct {
	ResumeAt time.Time `json:"resume_at"`
}

// Downgrade records the plan the subscription may move to at a reduced price.
type Downgrade struct {
	TargetPlanID uint `json:"target_plan_id"`
}

// PrioritySupport grants an elevated support tier; no billing change.
type PrioritySupport struct {
	Level string `json:"level"`
}

// NewDiscountModifier builds a discount modifier with an explicit expiry.
func NewDiscountModifier(percentage, durationMonths int, expiresAt time.Time) (Modifier, error) {
	if percentage <= 0 || percentage > 100 {
		return Modifier{}, fmt.Errorf("discount percentage must be within (0, 100], got %d", percentage)
	}
	if durationMonths <= 0 {
		return Modifier{}, fmt.Errorf("discount duration must be positive, got %d", durationMonths)
	}
	return Modifier{
		Kind:      ModifierDiscount,
		GrantedAt: time.Now().UTC(),
		ExpiresAt: &expiresAt,
		Discount:  &Discount{Percentage: percentage, DurationMonths: durationMonths},
	}, nil
}

// NewPauseModifier builds a pause modifier ending at resumeAt.
func NewPauseModifier(resumeAt time.Time) (Modifier, error) {
	if !resumeAt.After(time.Now().UTC()) {
		return Modifier{}, fmt.Errorf("pause resume time must be in the future")
	}
	return Modifier{
		Kind:      ModifierPause,
		GrantedAt: time.Now().UTC(),
		ExpiresAt: &resumeAt,
		Pause:     &Pause{ResumeAt: resumeAt},
	}, nil
}

// NewDowngradeModifier records an available downgrade target.
func NewDowngradeModifier(targetPlanID uint, expiresAt time.Time) (Modifier, error) {
	if targetPlanID == 0 {
		return Modifier{}, fmt.Errorf("downgrade target plan ID is required")
	}
	return Modifier{
		Kind:      ModifierDowngrade,
		GrantedAt: time.Now().UTC(),
		ExpiresAt: &expiresAt,
		Downgrade: &Downgrade{TargetPlanID: targetPlanID},
	}, nil
}

// NewPrioritySupportModifier grants priority support until expiresAt.
func NewPrioritySupportModifier(level string, expiresAt time.Time) Modifier {
	return Modifier{
		Kind:            ModifierPrioritySupport,
		GrantedAt:       time.Now().UTC(),
		ExpiresAt:       &expiresAt,
		PrioritySupport: &PrioritySupport{Level: level},
	}
}

// IsExpired reports whether the modifier's expiry has passed.
func (m Modifier) IsExpired(now time.Time) bool {
	return m.ExpiresAt != nil && now.After(*m.ExpiresAt)
}

// Validate checks that the variant field matches the discriminator.
func (m Modifier) Validate() error {
	switch m.Kind {
	case ModifierDiscount, ModifierAnnualDiscount:
		if m.Discount == nil {
			return fmt.Errorf("%s modifier missing discount payload", m.Kind)
		}
	case ModifierPause:
		if m.Pause == nil {
			return fmt.Errorf("pause modifier missing pause payload")
		}
	case ModifierDowngrade:
		if m.Downgrade == nil {
			return fmt.Errorf("downgrade modifier missing downgrade payload")
		}
	case ModifierPrioritySupport:
		if m.PrioritySupport == nil {
			return fmt.Errorf("priority_support modifier missing payload")
		}
	default:
		return fmt.Errorf("unknown modifier kind: %s", m.Kind)
	}
	return nil
}
