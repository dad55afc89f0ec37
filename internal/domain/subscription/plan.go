package subscription

import (
	"fmt"
	"time"

	"github.com/lumahq/luma/internal/shared/id"
)

// BillingInterval is the recurring charge cadence of a plan.
type BillingInterval string

const (
	IntervalMonthly BillingInterval = "monthly"
	IntervalAnnual  BillingInterval = "annual"
)

// Plan is a catalog entry the offer engine consults for downgrade targets.
// Prices are in minor currency units.
type Plan struct {
	id         uint
	pid        string
	code       string
	name       string
	priceCents int64
	interval   BillingInterval
	active     bool
	createdAt  time.Time
	updatedAt  time.Time
}

// NewPlan creates a catalog plan.
func NewPlan(code, name string, priceCents int64, interval BillingInterval) (*Plan, error) {
	if code == "" {
		return nil, fmt.Errorf("plan code is required")
	}
	if priceCents < 0 {
		return nil, fmt.Errorf("plan price cannot be negative")
	}
	if interval != IntervalMonthly && interval != IntervalAnnual {
		return nil, fmt.Errorf("invalid billing interval: %s", interval)
	}

	now := time.Now().UTC()
	return &Plan{
		pid:        id.MustGenerateWithPrefix(id.PrefixPlan, id.DefaultLength),
		code:       code,
		name:       name,
		priceCents: priceCents,
		interval:   interval,
		active:     true,
		createdAt:  now,
		updatedAt:  now,
	}, nil
}

// ReconstructPlan rebuilds a plan from persistence.
func ReconstructPlan(planID uint, pid, code, name string, priceCents int64, interval BillingInterval, active bool, createdAt, updatedAt time.Time) (*Plan, error) {
	if planID == 0 {
		return nil, fmt.Errorf("plan ID cannot be zero")
	}
	return &Plan{
		id:         planID,
		pid:        pid,
		code:       code,
		name:       name,
		priceCents: priceCents,
		interval:   interval,
		active:     active,
		createdAt:  createdAt,
		updatedAt:  updatedAt,
	}, nil
}

func (p *Plan) ID() uint                   { return p.id }
func (p *Plan) PID() string                { return p.pid }
func (p *Plan) Code() string               { return p.code }
func (p *Plan) Name() string               { return p.name }
func (p *Plan) PriceCents() int64          { return p.priceCents }
func (p *Plan) Interval() BillingInterval  { return p.interval }
func (p *Plan) IsActive() bool             { return p.active }
func (p *Plan) CreatedAt() time.Time       { return p.createdAt }
func (p *Plan) UpdatedAt() time.Time       { return p.updatedAt }

// SetID sets the plan ID (persistence layer use only).
func (p *Plan) SetID(newID uint) error {
	if p.id != 0 {
		return fmt.Errorf("plan ID is already set")
	}
	if newID == 0 {
		return fmt.Errorf("plan ID cannot be zero")
	}
	p.id = newID
	return nil
}

// IsCheaperThan reports whether this plan costs less than the given price.
func (p *Plan) IsCheaperThan(priceCents int64) bool {
	return p.priceCents < priceCents
}
